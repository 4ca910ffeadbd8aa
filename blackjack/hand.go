package blackjack

import (
	"strconv"
	"strings"
)

// Hand is an ordered sequence of cards.
type Hand []Card

// With returns a new hand with c appended. The receiver is never modified, so
// sibling branches built from the same hand cannot observe each other.
func (h Hand) With(c Card) Hand {
	out := make(Hand, len(h), len(h)+1)
	copy(out, h)
	return append(out, c)
}

// String joins the cards with spaces.
func (h Hand) String() string {
	parts := make([]string, len(h))
	for i, c := range h {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}

// HandValue is the evaluated total of a hand.
//
// Soft is true when at least one ace is still counted as 11. A soft hand never
// exceeds 21; any total above 21 is hard.
type HandValue struct {
	Total int  `json:"total"`
	Soft  bool `json:"soft"`
}

// Code renders the value as "S17" or "H12".
func (v HandValue) Code() string {
	prefix := "H"
	if v.Soft {
		prefix = "S"
	}
	return prefix + strconv.Itoa(v.Total)
}

func (v HandValue) String() string {
	return v.Code()
}

// Busted reports whether the total exceeds 21.
func (v HandValue) Busted() bool {
	return v.Total > 21
}

// Add returns the value after drawing a card worth cardValue. It agrees with
// Evaluate on the extended hand: a soft value carries exactly one ace at 11,
// so (Total, Soft) is enough state to continue the reduction.
func (v HandValue) Add(cardValue int) HandValue {
	elevens := 0
	if v.Soft {
		elevens++
	}
	if cardValue == AceValue {
		elevens++
	}
	total := v.Total + cardValue
	for total > 21 && elevens > 0 {
		total -= 10
		elevens--
	}
	return HandValue{Total: total, Soft: elevens > 0}
}

// Evaluate computes the best total for a hand. Every ace starts at 11 and is
// reduced to 1, one at a time, while the total exceeds 21.
func Evaluate(hand []Card) HandValue {
	aces, total := 0, 0
	for _, c := range hand {
		if c.Value == AceValue {
			aces++
		}
		total += c.Value
	}

	reduced := 0
	for total > 21 && reduced < aces {
		total -= 10
		reduced++
	}

	return HandValue{Total: total, Soft: reduced < aces}
}

// IsBlackjack reports whether hand is a natural: exactly two cards, one ace,
// totalling 21.
func IsBlackjack(hand []Card) bool {
	if len(hand) != 2 {
		return false
	}
	aces, total := 0, 0
	for _, c := range hand {
		if c.Value == AceValue {
			aces++
		}
		total += c.Value
	}
	return aces == 1 && total == 21
}
