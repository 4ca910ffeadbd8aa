package blackjack

import "fmt"

// DealerMustDraw is the dealer stopping rule: draw below 17, and on soft 17
// unless the table stands on soft 17. It is the only place this rule lives;
// the solver and literal play both call it.
func DealerMustDraw(v HandValue, standsSoft17 bool) bool {
	if v.Total < 17 {
		return true
	}
	return v.Total == 17 && v.Soft && !standsSoft17
}

// DealerOutcome classifies a finished dealer hand.
type DealerOutcome uint8

const (
	DealerDraw DealerOutcome = iota
	DealerStand
	DealerBust
)

func (o DealerOutcome) String() string {
	switch o {
	case DealerDraw:
		return "draw"
	case DealerStand:
		return "stand"
	case DealerBust:
		return "bust"
	default:
		return "unknown"
	}
}

// ClassifyDealer reports whether the dealer must keep drawing, has stood or
// has busted.
func ClassifyDealer(v HandValue, standsSoft17 bool) DealerOutcome {
	switch {
	case v.Busted():
		return DealerBust
	case DealerMustDraw(v, standsSoft17):
		return DealerDraw
	default:
		return DealerStand
	}
}

// PlayDealer draws from shoe starting at pos until the dealer stops. Each card
// drawn is appended to the returned hand and removed from counts. The updated
// shoe position is returned. The input hand is not modified.
func PlayDealer(shoe []Card, hand Hand, standsSoft17 bool, counts *Composition, pos int) (Hand, int, error) {
	v := Evaluate(hand)
	for DealerMustDraw(v, standsSoft17) {
		if pos >= len(shoe) {
			return hand, pos, fmt.Errorf("%w: dealer needs a card at position %d of %d", ErrShoeExhausted, pos, len(shoe))
		}
		card := shoe[pos]
		pos++
		if counts != nil {
			counts[card.Value]--
		}
		hand = hand.With(card)
		v = Evaluate(hand)
	}
	return hand, pos, nil
}
