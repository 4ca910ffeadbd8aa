package solver

import (
	"context"
	"strings"

	"github.com/lox/blackjackev/blackjack"
)

// Action identifies a player decision.
type Action string

const (
	ActionStand     Action = "stand"
	ActionHit       Action = "hit"
	ActionDouble    Action = "double"
	ActionSurrender Action = "surrender"
	ActionInsure    Action = "insure"
)

// Actions lists every recognised action in display order.
var Actions = []Action{ActionStand, ActionHit, ActionDouble, ActionSurrender, ActionInsure}

// ParseAction maps a name onto an Action. Matching is case-insensitive.
func ParseAction(s string) (Action, bool) {
	a := Action(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Actions {
		if a == known {
			return a, true
		}
	}
	return "", false
}

// Request is a single decision point.
type Request struct {
	Actions []Action
	Player  blackjack.Hand
	Dealer  blackjack.Hand
	Counts  blackjack.Composition
}

// Result maps each evaluated action to its EV in units of the original wager.
type Result map[Action]float64

// Best returns the action with the highest EV. Ties go to the action listed
// first in Actions. ok is false for an empty result.
func (r Result) Best() (action Action, ev float64, ok bool) {
	for _, a := range Actions {
		v, present := r[a]
		if !present {
			continue
		}
		if !ok || v > ev {
			action, ev, ok = a, v, true
		}
	}
	return action, ev, ok
}

// Evaluate computes the EV of each requested action. Only requested actions
// are computed. Unknown action identifiers are skipped without error.
func (s *Solver) Evaluate(req Request) (Result, error) {
	return s.EvaluateContext(context.Background(), req)
}

// EvaluateContext is Evaluate with cancellation checked before each action.
// An action already being solved runs to completion.
func (s *Solver) EvaluateContext(ctx context.Context, req Request) (Result, error) {
	if err := validate(req.Counts, req.Dealer, req.Player); err != nil {
		return nil, err
	}

	player := blackjack.Evaluate(req.Player)
	dealer := blackjack.Evaluate(req.Dealer)
	result := make(Result, len(req.Actions))

	for _, a := range req.Actions {
		if _, done := result[a]; done {
			continue
		}
		if err := context.Cause(ctx); err != nil {
			return nil, err
		}

		var (
			ev  float64
			err error
		)
		switch a {
		case ActionStand:
			ev, err = s.standValue(dealer, player.Total, req.Counts)
		case ActionHit:
			ev, err = s.hitValue(dealer, player, req.Counts)
		case ActionDouble:
			ev, err = s.doubleValue(dealer, player, req.Counts)
		case ActionSurrender:
			ev = s.Surrender()
		case ActionInsure:
			ev, err = insuranceValue(req.Counts)
		default:
			s.logger.Debug("Skipping unknown action", "action", string(a))
			continue
		}
		if err != nil {
			return nil, err
		}
		result[a] = ev
	}

	s.logger.Debug("Evaluated decision",
		"player", player.Code(),
		"dealer", dealer.Code(),
		"actions", len(result),
		"memo", len(s.stand)+len(s.hit))
	return result, nil
}

// Split describes where a player hand came from.
type Split uint8

const (
	NotSplit Split = iota
	SplitHand
	SplitAces
)

// LegalActions returns the actions the rules allow at this decision point, in
// display order. A total of 21 or more leaves only stand.
func LegalActions(rules blackjack.Rules, player, dealer blackjack.Hand, split Split) []Action {
	v := blackjack.Evaluate(player)
	if v.Total >= 21 {
		return []Action{ActionStand}
	}

	actions := []Action{ActionStand}
	canHit := rules.CanHit(split == SplitAces)
	if canHit {
		actions = append(actions, ActionHit)
	}
	if canHit && rules.CanDouble(player, split != NotSplit) {
		actions = append(actions, ActionDouble)
	}

	initial := len(player) == 2 && split == NotSplit
	if initial {
		actions = append(actions, ActionSurrender)
	}
	if initial && rules.InsuranceOffered && len(dealer) == 1 && dealer[0].IsAce() {
		actions = append(actions, ActionInsure)
	}
	return actions
}
