package blackjack

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	// MinValue is the lowest blackjack point value a card can carry.
	MinValue = 2
	// AceValue is the point value of an ace before any soft reduction.
	AceValue = 11
	// TenValue is the shared point value of tens and face cards.
	TenValue = 10
)

// Suits in canonical shoe order.
var Suits = []string{"♠", "♥", "♦", "♣"}

// Ranks in canonical shoe order, paired index-wise with rankValues.
var Ranks = []string{"A", "J", "Q", "K", "2", "3", "4", "5", "6", "7", "8", "9", "10"}

var rankValues = []int{11, 10, 10, 10, 2, 3, 4, 5, 6, 7, 8, 9, 10}

var suitAliases = map[string]string{
	"s": "♠", "h": "♥", "d": "♦", "c": "♣",
	"♠": "♠", "♥": "♥", "♦": "♦", "♣": "♣",
}

// Card is a playing card. Only Value matters for valuation; Rank and Suit are
// carried for display.
type Card struct {
	Rank  string `json:"rank"`
	Suit  string `json:"suit"`
	Value int    `json:"value"`
}

// CardOf returns a value-only card with a placeholder suit.
func CardOf(value int) Card {
	rank := strconv.Itoa(value)
	if value == AceValue {
		rank = "A"
	}
	return Card{Rank: rank, Suit: "♠", Value: value}
}

// String returns the card as rank followed by suit, e.g. "K♥".
func (c Card) String() string {
	return c.Rank + c.Suit
}

// IsAce reports whether the card is an ace.
func (c Card) IsAce() bool {
	return c.Value == AceValue
}

// Validate checks the card carries a point value in 2..11.
func (c Card) Validate() error {
	if !ValidValue(c.Value) {
		return fmt.Errorf("%w: %q has value %d", ErrInvalidCard, c.String(), c.Value)
	}
	return nil
}

// ValidValue reports whether v is a blackjack point value.
func ValidValue(v int) bool {
	return v >= MinValue && v <= AceValue
}

// RankValue returns the point value for a rank label.
func RankValue(rank string) (int, bool) {
	for i, r := range Ranks {
		if r == rank {
			return rankValues[i], true
		}
	}
	return 0, false
}

// ParseCard parses a card such as "A", "10", "Kh", "T♦" or "7s". The suit is
// optional and defaults to spades.
func ParseCard(s string) (Card, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Card{}, fmt.Errorf("%w: empty card", ErrInvalidCard)
	}

	suit := "♠"
	last, size := utf8.DecodeLastRuneInString(s)
	if alias, ok := suitAliases[strings.ToLower(string(last))]; ok && len(s) > size {
		suit = alias
		s = s[:len(s)-size]
	}

	rank := strings.ToUpper(s)
	if rank == "T" {
		rank = "10"
	}
	value, ok := RankValue(rank)
	if !ok {
		return Card{}, fmt.Errorf("%w: unknown rank %q", ErrInvalidCard, s)
	}
	return Card{Rank: rank, Suit: suit, Value: value}, nil
}

// ParseCards parses a comma or whitespace separated list of cards.
func ParseCards(s string) ([]Card, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	cards := make([]Card, 0, len(fields))
	for _, f := range fields {
		c, err := ParseCard(f)
		if err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, nil
}

// MustParseCards is ParseCards for tests and fixed tables; it panics on error.
func MustParseCards(s string) []Card {
	cards, err := ParseCards(s)
	if err != nil {
		panic(err)
	}
	return cards
}
