package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/blackjackev/blackjack"
	"github.com/lox/blackjackev/internal/protocol"
)

func newTestServer(t *testing.T) (*Server, *quartz.Mock) {
	t.Helper()
	rules := blackjack.DefaultRules()
	rules.Decks = 1

	clock := quartz.NewMock(t)
	s := NewServer(Config{
		Addr:   "127.0.0.1:0",
		Rules:  rules,
		Clock:  clock,
		Logger: log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel}),
		NewID:  func() string { return "test-id" },
	})
	return s, clock
}

func postEvaluate(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/evaluate", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	s, clock := newTestServer(t)
	clock.Advance(5 * time.Second).MustWait(context.Background())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	s.Routes().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "5s", resp.Uptime)
	assert.Equal(t, 1, resp.Decks)
	assert.True(t, resp.S17)
}

func TestEvaluate(t *testing.T) {
	s, _ := newTestServer(t)

	w := postEvaluate(t, s.Routes(), `{
		"request_id": "r-1",
		"player": ["10", "6"],
		"dealer": ["A"],
		"actions": ["stand", "surrender", "insure", "split"]
	}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var resp protocol.EvaluateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, protocol.TypeResult, resp.Type)
	assert.Equal(t, "test-id", resp.ID)
	assert.Equal(t, "r-1", resp.RequestID)
	assert.Equal(t, "H16", resp.Player)
	assert.Equal(t, "S11", resp.Dealer)
	assert.Equal(t, 49, resp.Remaining)
	assert.Len(t, resp.Results, 3, "unknown actions are skipped")
	assert.Equal(t, "-0.5", resp.Results["surrender"].String())

	// Ten density in one deck minus 10, 6, A is 15/49.
	want := protocol.RoundEV(15.0/49.0*2 - 34.0/49.0)
	assert.True(t, want.Equal(resp.Results["insure"]), "insure %s want %s", resp.Results["insure"], want)
}

func TestEvaluateErrors(t *testing.T) {
	s, _ := newTestServer(t)

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{name: "malformed json", body: `{`, status: http.StatusBadRequest, code: protocol.CodeBadRequest},
		{name: "bad card", body: `{"player":["Z"],"dealer":["6"],"actions":["stand"]}`, status: http.StatusBadRequest, code: protocol.CodeInvalidCard},
		{name: "bad double rule", body: `{"rules":{"decks":1,"double_on":"soft"},"player":["9"],"dealer":["6"]}`, status: http.StatusBadRequest, code: protocol.CodeBadRequest},
		{name: "negative counts", body: `{"player":["9","2"],"dealer":["6"],"counts":[0,0,-1],"actions":["hit"]}`, status: http.StatusBadRequest, code: protocol.CodeInvalidComposition},
		{
			name:   "exhausted composition",
			body:   `{"request_id":"x","player":["9","2"],"dealer":["6"],"counts":[0,0,0,0,0,0,0,0,0,0,0,0],"actions":["hit"]}`,
			status: http.StatusUnprocessableEntity,
			code:   protocol.CodeCompositionExhausted,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postEvaluate(t, s.Routes(), tt.body)
			assert.Equal(t, tt.status, w.Code)

			var msg protocol.Error
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &msg))
			assert.Equal(t, protocol.TypeError, msg.Type)
			assert.Equal(t, tt.code, msg.Code)
			assert.NotEmpty(t, msg.Message)
		})
	}
}

func TestEvaluatePastDeadline(t *testing.T) {
	s, _ := newTestServer(t)

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/evaluate",
		bytes.NewBufferString(`{"player":["10","6"],"dealer":["10"],"actions":["stand","hit"]}`)).WithContext(ctx)
	w := httptest.NewRecorder()
	s.Routes().ServeHTTP(w, req)

	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	assert.Empty(t, w.Body.String(), "no result is written after the deadline")
}

func TestWebSocketRoundTrip(t *testing.T) {
	s, _ := newTestServer(t)
	ts := httptest.NewServer(s.Routes())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(30 * time.Second))

	require.NoError(t, conn.WriteJSON(map[string]any{
		"type":       "evaluate",
		"request_id": "ws-1",
		"player":     []string{"10", "10"},
		"dealer":     []string{"6"},
		"actions":    []string{"stand", "surrender"},
	}))

	var resp protocol.EvaluateResponse
	require.NoError(t, conn.ReadJSON(&resp))
	assert.Equal(t, protocol.TypeResult, resp.Type)
	assert.Equal(t, "ws-1", resp.RequestID)
	assert.Equal(t, "stand", resp.Best)
	assert.Len(t, resp.Results, 2)

	// Errors come back as frames and the connection stays open.
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"player":[]}`)))
	var msg protocol.Error
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, protocol.TypeError, msg.Type)
	assert.Equal(t, protocol.CodeBadRequest, msg.Code)

	require.NoError(t, conn.WriteJSON(map[string]any{
		"request_id": "ws-2",
		"player":     []string{"A", "7"},
		"dealer":     []string{"9"},
		"actions":    []string{"stand"},
	}))
	resp = protocol.EvaluateResponse{}
	require.NoError(t, conn.ReadJSON(&resp))
	assert.Equal(t, "ws-2", resp.RequestID)
	assert.Equal(t, "S18", resp.Player)
}

func TestShutdownClosesClients(t *testing.T) {
	s, _ := newTestServer(t)
	ts := httptest.NewServer(s.Routes())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return len(s.connections) == 1
	}, 5*time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)
}
