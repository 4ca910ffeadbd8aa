package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/lox/blackjackev/internal/protocol"
)

// maxRequestSize caps evaluation request bodies.
const maxRequestSize = 64 << 10

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status string `json:"status"`
	Uptime string `json:"uptime"`
	Decks  int    `json:"decks"`
	S17    bool   `json:"s17"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Uptime: s.clock.Since(s.started).String(),
		Decks:  s.rules.Decks,
		S17:    s.rules.DealerStandsSoft17,
	})
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestSize))
	if err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, &protocol.Error{
			Type:    protocol.TypeError,
			Code:    protocol.CodeBadRequest,
			Message: err.Error(),
		})
		return
	}

	req, err := protocol.DecodeRequest(body)
	if err != nil {
		s.writeError(w, "", err)
		return
	}

	resp, err := s.evaluate(r.Context(), req)
	if err != nil {
		if r.Context().Err() != nil {
			// The timeout middleware answers once the deadline has passed.
			s.logger.Warn("Evaluation abandoned", "request_id", req.RequestID, "error", err)
			return
		}
		s.writeError(w, req.RequestID, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) writeError(w http.ResponseWriter, requestID string, err error) {
	msg := protocol.NewError(requestID, err)
	status := http.StatusBadRequest
	switch msg.Code {
	case protocol.CodeCompositionExhausted:
		status = http.StatusUnprocessableEntity
	case protocol.CodeInternal:
		status = http.StatusInternalServerError
		s.logger.Error("Evaluation failed", "error", err)
	}
	writeJSON(w, status, msg)
}

// writeJSON writes a JSON response with proper headers
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data) // Headers are already sent
}
