package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lox/blackjackev/blackjack"
	"github.com/lox/blackjackev/sdk/solver"
)

// EVPlaces is the number of decimal places EVs are rounded to on the wire.
const EVPlaces = 6

// ErrInvalidRequest is returned for requests that are structurally unusable.
var ErrInvalidRequest = errors.New("invalid request")

// DecodeRequest parses an evaluation request. Unknown fields are rejected.
func DecodeRequest(data []byte) (*EvaluateRequest, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var req EvaluateRequest
	if err := dec.Decode(&req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if req.Type != "" && req.Type != TypeEvaluate {
		return nil, fmt.Errorf("%w: unexpected message type %q", ErrInvalidRequest, req.Type)
	}
	return &req, nil
}

// Resolve turns the wire request into solver input. defaults apply when the
// request carries no rules. Unrecognised action names are passed through so
// the dispatcher can skip them.
func (r *EvaluateRequest) Resolve(defaults blackjack.Rules) (blackjack.Rules, solver.Request, error) {
	rules := defaults
	if r.Rules != nil {
		rules = *r.Rules
	}
	if err := rules.Validate(); err != nil {
		return rules, solver.Request{}, err
	}

	player, err := parseHand("player", r.Player)
	if err != nil {
		return rules, solver.Request{}, err
	}
	dealer, err := parseHand("dealer", r.Dealer)
	if err != nil {
		return rules, solver.Request{}, err
	}

	var counts blackjack.Composition
	if r.Counts != nil {
		counts = *r.Counts
		if err := counts.Validate(); err != nil {
			return rules, solver.Request{}, err
		}
	} else {
		dealt := append(append(blackjack.Hand{}, player...), dealer...)
		counts, err = blackjack.NewComposition(rules.Decks).Remove(dealt...)
		if err != nil {
			return rules, solver.Request{}, fmt.Errorf("dealt cards exceed a %d deck shoe: %w", rules.Decks, err)
		}
	}

	actions := make([]solver.Action, 0, len(r.Actions))
	for _, name := range r.Actions {
		if a, ok := solver.ParseAction(name); ok {
			actions = append(actions, a)
			continue
		}
		actions = append(actions, solver.Action(strings.TrimSpace(name)))
	}

	return rules, solver.Request{
		Actions: actions,
		Player:  player,
		Dealer:  dealer,
		Counts:  counts,
	}, nil
}

func parseHand(name string, cards []string) (blackjack.Hand, error) {
	if len(cards) == 0 {
		return nil, fmt.Errorf("%w: %s hand is empty", ErrInvalidRequest, name)
	}
	hand := make(blackjack.Hand, 0, len(cards))
	for _, s := range cards {
		c, err := blackjack.ParseCard(s)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		hand = append(hand, c)
	}
	return hand, nil
}

// NewEvaluateResponse renders a solver result for the wire.
func NewEvaluateResponse(id string, req *EvaluateRequest, sreq solver.Request, result solver.Result, elapsed time.Duration) *EvaluateResponse {
	resp := &EvaluateResponse{
		Type:      TypeResult,
		ID:        id,
		Player:    blackjack.Evaluate(sreq.Player).Code(),
		Dealer:    blackjack.Evaluate(sreq.Dealer).Code(),
		Remaining: sreq.Counts.Total(),
		Results:   make(map[string]decimal.Decimal, len(result)),
		ElapsedMS: elapsed.Milliseconds(),
	}
	if req != nil {
		resp.RequestID = req.RequestID
	}
	for a, ev := range result {
		resp.Results[string(a)] = RoundEV(ev)
	}
	if best, _, ok := result.Best(); ok {
		resp.Best = string(best)
	}
	return resp
}

// RoundEV converts an EV to a decimal rounded to EVPlaces.
func RoundEV(ev float64) decimal.Decimal {
	return decimal.NewFromFloat(ev).Round(EVPlaces)
}

// NewError builds an error frame, classifying err by its sentinel.
func NewError(requestID string, err error) *Error {
	return &Error{
		Type:      TypeError,
		RequestID: requestID,
		Code:      ErrorCode(err),
		Message:   err.Error(),
	}
}

// ErrorCode maps an error onto a wire error code.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return CodeBadRequest
	case errors.Is(err, blackjack.ErrInvalidCard):
		return CodeInvalidCard
	case errors.Is(err, blackjack.ErrInvalidComposition):
		return CodeInvalidComposition
	case errors.Is(err, blackjack.ErrCompositionExhausted):
		return CodeCompositionExhausted
	case errors.Is(err, blackjack.ErrInvalidRules):
		return CodeInvalidRules
	default:
		return CodeInternal
	}
}
