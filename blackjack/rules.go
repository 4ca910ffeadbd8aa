package blackjack

import (
	"fmt"
	"strings"
)

// DoubleRule restricts which two-card hands may double down.
type DoubleRule uint8

const (
	// DoubleAny allows doubling on any two cards.
	DoubleAny DoubleRule = iota
	// DoubleHard9To11 allows doubling on hard 9, 10 and 11 only.
	DoubleHard9To11
	// DoubleHard10To11 allows doubling on hard 10 and 11 only.
	DoubleHard10To11
)

func (r DoubleRule) String() string {
	switch r {
	case DoubleAny:
		return "any"
	case DoubleHard9To11:
		return "9,10,11"
	case DoubleHard10To11:
		return "10,11"
	default:
		return fmt.Sprintf("DoubleRule(%d)", uint8(r))
	}
}

// ParseDoubleRule accepts "any", "9,10,11" and "10,11" (plus the aliases
// "hard_9_10_11" and "hard_10_11"). Anything else is an error rather than a
// silent fallback to the most permissive rule.
func ParseDoubleRule(s string) (DoubleRule, error) {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", "")) {
	case "any":
		return DoubleAny, nil
	case "9,10,11", "hard_9_10_11":
		return DoubleHard9To11, nil
	case "10,11", "hard_10_11":
		return DoubleHard10To11, nil
	default:
		return DoubleAny, fmt.Errorf("%w: unrecognized double restriction %q", ErrInvalidRules, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (r DoubleRule) MarshalText() ([]byte, error) {
	if r > DoubleHard10To11 {
		return nil, fmt.Errorf("%w: unrecognized double restriction %d", ErrInvalidRules, uint8(r))
	}
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *DoubleRule) UnmarshalText(text []byte) error {
	parsed, err := ParseDoubleRule(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Rules describes the table. Rules are built once per evaluation and treated as
// read-only afterwards.
type Rules struct {
	DealerStandsSoft17 bool       `json:"dealer_stands_soft_17"`
	Decks              int        `json:"decks"`
	InsuranceOffered   bool       `json:"insurance"`
	DealerPeeks        bool       `json:"dealer_peeks"`
	DoubleOn           DoubleRule `json:"double_on"`
	DoubleAfterSplit   bool       `json:"double_after_split"`
	MaxSplits          int        `json:"max_splits"`
	ResplitAces        bool       `json:"resplit_aces"`
	HitSplitAces       bool       `json:"hit_split_aces"`
}

// DefaultRules is a common six-deck S17 table.
func DefaultRules() Rules {
	return Rules{
		DealerStandsSoft17: true,
		Decks:              6,
		InsuranceOffered:   true,
		DealerPeeks:        true,
		DoubleOn:           DoubleAny,
		DoubleAfterSplit:   true,
		MaxSplits:          3,
	}
}

// Validate checks the rules can be modelled.
func (r Rules) Validate() error {
	if r.Decks < 1 {
		return fmt.Errorf("%w: decks must be >= 1, got %d", ErrInvalidRules, r.Decks)
	}
	if r.MaxSplits < 0 {
		return fmt.Errorf("%w: max splits cannot be negative, got %d", ErrInvalidRules, r.MaxSplits)
	}
	if r.DoubleOn > DoubleHard10To11 {
		return fmt.Errorf("%w: unrecognized double restriction %d", ErrInvalidRules, uint8(r.DoubleOn))
	}
	return nil
}

// CanDouble reports whether the player may double on hand. Only two-card hands
// qualify; split hands additionally need double-after-split.
func (r Rules) CanDouble(hand []Card, splitHand bool) bool {
	if len(hand) != 2 {
		return false
	}
	if splitHand && !r.DoubleAfterSplit {
		return false
	}

	v := Evaluate(hand)
	switch r.DoubleOn {
	case DoubleAny:
		return true
	case DoubleHard9To11:
		return !v.Soft && v.Total >= 9 && v.Total <= 11
	case DoubleHard10To11:
		return !v.Soft && (v.Total == 10 || v.Total == 11)
	default:
		return false
	}
}

// CanHit reports whether the player may draw. Hands from split aces are frozen
// unless the table allows hitting them.
func (r Rules) CanHit(splitAces bool) bool {
	return !splitAces || r.HitSplitAces
}
