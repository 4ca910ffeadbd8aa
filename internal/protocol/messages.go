// Package protocol defines the JSON messages exchanged with the evaluation
// service over HTTP and websocket.
package protocol

import (
	"github.com/shopspring/decimal"

	"github.com/lox/blackjackev/blackjack"
)

// Message types carried in the "type" field.
const (
	// Client -> Server
	TypeEvaluate = "evaluate"

	// Server -> Client
	TypeResult = "result"
	TypeError  = "error"
)

// Client -> Server Messages

// EvaluateRequest asks for the EV of a set of actions at one decision point.
type EvaluateRequest struct {
	Type      string           `json:"type,omitempty"`
	RequestID string           `json:"request_id,omitempty"` // Echoed back on the reply
	Rules     *blackjack.Rules `json:"rules,omitempty"`      // Server defaults when omitted
	Player    []string         `json:"player"`               // e.g. ["A", "7h"]
	Dealer    []string         `json:"dealer"`               // Usually the upcard only
	// Counts is indexed by card value (slots 0 and 1 unused). When omitted it is
	// a full shoe of rules.decks minus the player and dealer cards.
	Counts  *blackjack.Composition `json:"counts,omitempty"`
	Actions []string               `json:"actions"`
}

// Server -> Client Messages

// EvaluateResponse carries the EV of each evaluated action. Values are exact
// decimals rounded to six places, encoded as JSON strings.
type EvaluateResponse struct {
	Type      string                     `json:"type"`
	ID        string                     `json:"id"`
	RequestID string                     `json:"request_id,omitempty"`
	Player    string                     `json:"player"` // Hand code, e.g. "S18"
	Dealer    string                     `json:"dealer"`
	Remaining int                        `json:"remaining"` // Cards left in the composition
	Results   map[string]decimal.Decimal `json:"results"`
	Best      string                     `json:"best,omitempty"`
	ElapsedMS int64                      `json:"elapsed_ms"`
}

// Error message
type Error struct {
	Type      string `json:"type"`
	RequestID string `json:"request_id,omitempty"`
	Code      string `json:"code"`
	Message   string `json:"message"`
}

// Error codes
const (
	CodeBadRequest           = "bad_request"
	CodeInvalidCard          = "invalid_card"
	CodeInvalidComposition   = "invalid_composition"
	CodeCompositionExhausted = "composition_exhausted"
	CodeInvalidRules         = "invalid_rules"
	CodeInternal             = "internal"
)
