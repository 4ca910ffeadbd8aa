package blackjack

import rand "math/rand/v2"

// NewShoe builds an unshuffled shoe. Each deck lists the ranks A, J, Q, K,
// 2..10, each in all four suits, so the order is fully deterministic.
func NewShoe(decks int) []Card {
	shoe := make([]Card, 0, 52*decks)
	for d := 0; d < decks; d++ {
		for i, rank := range Ranks {
			for _, suit := range Suits {
				shoe = append(shoe, Card{Rank: rank, Suit: suit, Value: rankValues[i]})
			}
		}
	}
	return shoe
}

// Shuffle returns a uniformly random permutation of cards using Fisher-Yates.
// The input is left untouched. The random source belongs to the caller.
func Shuffle(cards []Card, rng *rand.Rand) []Card {
	out := make([]Card, len(cards))
	copy(out, cards)
	for i := len(out) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// NewShuffledShoe is NewShoe followed by Shuffle.
func NewShuffledShoe(decks int, rng *rand.Rand) []Card {
	return Shuffle(NewShoe(decks), rng)
}
