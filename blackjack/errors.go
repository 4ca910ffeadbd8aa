package blackjack

import "errors"

var (
	// ErrInvalidCard is returned for cards whose value lies outside 2..11.
	ErrInvalidCard = errors.New("invalid card")

	// ErrInvalidComposition is returned when a composition holds negative or
	// oversized counts, or more cards are removed than remain.
	ErrInvalidComposition = errors.New("invalid composition")

	// ErrCompositionExhausted is returned when a draw is required but no cards
	// remain.
	ErrCompositionExhausted = errors.New("composition exhausted")

	// ErrShoeExhausted is returned when literal play runs off the end of a shoe.
	ErrShoeExhausted = errors.New("shoe exhausted")

	// ErrInvalidRules is returned for table rules that cannot be modelled.
	ErrInvalidRules = errors.New("invalid rules")
)
