package blackjack

import (
	"fmt"
	"strings"
)

// Composition counts the cards remaining in the shoe by point value. Slots 0
// and 1 are unused. The four ten-valued ranks share slot 10.
//
// Composition is an array, so assignment and argument passing copy it; every
// recursive branch works on its own vector.
type Composition [12]int

// MaxCount bounds a single slot so that Total cannot overflow.
const MaxCount = 1 << 20

// NewComposition returns the composition of a full shoe of the given size.
func NewComposition(decks int) Composition {
	var c Composition
	for v := MinValue; v <= AceValue; v++ {
		c[v] = 4 * decks
	}
	c[TenValue] = 16 * decks
	return c
}

// CompositionOf counts the cards in a sequence.
func CompositionOf(cards []Card) (Composition, error) {
	var c Composition
	for _, card := range cards {
		if err := card.Validate(); err != nil {
			return Composition{}, err
		}
		c[card.Value]++
	}
	return c, nil
}

// Count returns the number of cards of value v remaining.
func (c Composition) Count(v int) int {
	if !ValidValue(v) {
		return 0
	}
	return c[v]
}

// Total returns the number of cards remaining across values 2..11.
func (c Composition) Total() int {
	n := 0
	for v := MinValue; v <= AceValue; v++ {
		n += c[v]
	}
	return n
}

// Draw returns a copy with one card of value v removed. The caller must only
// draw values with a positive count.
func (c Composition) Draw(v int) Composition {
	c[v]--
	return c
}

// Remove returns a copy with the given cards taken out.
func (c Composition) Remove(cards ...Card) (Composition, error) {
	for _, card := range cards {
		if err := card.Validate(); err != nil {
			return Composition{}, err
		}
		if c[card.Value] == 0 {
			return Composition{}, fmt.Errorf("%w: no %d-valued cards left to remove", ErrInvalidComposition, card.Value)
		}
		c[card.Value]--
	}
	return c, nil
}

// Probability returns the exact weight of drawing value v as num/den. It
// returns ErrCompositionExhausted when nothing remains.
func (c Composition) Probability(v int) (num, den int, err error) {
	den = c.Total()
	if den == 0 {
		return 0, 0, ErrCompositionExhausted
	}
	return c.Count(v), den, nil
}

// Validate checks that every count lies in 0..MaxCount.
func (c Composition) Validate() error {
	for v, n := range c {
		if n < 0 {
			return fmt.Errorf("%w: count for value %d is %d", ErrInvalidComposition, v, n)
		}
		if n > MaxCount {
			return fmt.Errorf("%w: count for value %d exceeds %d", ErrInvalidComposition, v, MaxCount)
		}
	}
	return nil
}

func (c Composition) String() string {
	var b strings.Builder
	for v := MinValue; v <= AceValue; v++ {
		if v > MinValue {
			b.WriteByte(' ')
		}
		label := fmt.Sprint(v)
		if v == AceValue {
			label = "A"
		}
		fmt.Fprintf(&b, "%s:%d", label, c[v])
	}
	return b.String()
}
