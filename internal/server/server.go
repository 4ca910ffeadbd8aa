// Package server exposes the solver over HTTP and websocket.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/lox/blackjackev/blackjack"
	"github.com/lox/blackjackev/internal/protocol"
	"github.com/lox/blackjackev/sdk/solver"
)

// requestTimeout bounds a single HTTP evaluation.
const requestTimeout = 60 * time.Second

// Config holds the server dependencies.
type Config struct {
	Addr   string
	Rules  blackjack.Rules // Used when a request carries no rules
	Clock  quartz.Clock
	Logger *log.Logger
	NewID  func() string // Response ids; defaults to random UUIDs
}

// Server handles evaluation requests.
type Server struct {
	addr        string
	rules       blackjack.Rules
	clock       quartz.Clock
	logger      *log.Logger
	newID       func() string
	upgrader    websocket.Upgrader
	httpServer  *http.Server
	connections map[*Connection]bool
	mu          sync.Mutex
	started     time.Time
}

// NewServer creates a new evaluation server
func NewServer(cfg Config) *Server {
	clock := cfg.Clock
	if clock == nil {
		clock = quartz.NewReal()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	newID := cfg.NewID
	if newID == nil {
		newID = uuid.NewString
	}

	s := &Server{
		addr:   cfg.Addr,
		rules:  cfg.Rules,
		clock:  clock,
		logger: logger.WithPrefix("server"),
		newID:  newID,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		connections: make(map[*Connection]bool),
		started:     clock.Now(),
	}
	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Routes sets up the HTTP routes
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.With(middleware.Timeout(requestTimeout)).Post("/evaluate", s.handleEvaluate)
		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// Start listens until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("Starting server", "addr", s.addr,
		"decks", s.rules.Decks, "s17", s.rules.DealerStandsSoft17)
	if err := s.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown closes websocket clients and drains HTTP requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	for conn := range s.connections {
		_ = conn.Close() // Ignore close errors during shutdown
	}
	s.mu.Unlock()

	return s.httpServer.Shutdown(ctx)
}

func (s *Server) register(c *Connection) {
	s.mu.Lock()
	s.connections[c] = true
	total := len(s.connections)
	s.mu.Unlock()
	s.logger.Info("Client connected", "total", total)
}

func (s *Server) unregister(c *Connection) {
	s.mu.Lock()
	delete(s.connections, c)
	total := len(s.connections)
	s.mu.Unlock()
	s.logger.Info("Client disconnected", "total", total)
}

// evaluate solves one request on a fresh solver. ctx is checked between
// actions.
func (s *Server) evaluate(ctx context.Context, req *protocol.EvaluateRequest) (*protocol.EvaluateResponse, error) {
	rules, sreq, err := req.Resolve(s.rules)
	if err != nil {
		return nil, err
	}
	sv, err := solver.New(rules, solver.WithLogger(s.logger))
	if err != nil {
		return nil, err
	}

	start := s.clock.Now()
	result, err := sv.EvaluateContext(ctx, sreq)
	if err != nil {
		return nil, err
	}
	elapsed := s.clock.Since(start)

	resp := protocol.NewEvaluateResponse(s.newID(), req, sreq, result, elapsed)
	st := sv.Stats()
	s.logger.Debug("Evaluated request",
		"id", resp.ID,
		"player", resp.Player,
		"dealer", resp.Dealer,
		"best", resp.Best,
		"nodes", st.NodesVisited,
		"elapsed", elapsed)
	return resp, nil
}

// logRequests logs each HTTP request with the chi request id.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := s.clock.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("Request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"request_id", middleware.GetReqID(r.Context()),
			"elapsed", s.clock.Since(start))
	})
}
