package blackjack

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewComposition(t *testing.T) {
	t.Parallel()
	for decks := 1; decks <= 8; decks++ {
		c := NewComposition(decks)
		assert.Equal(t, 52*decks, c.Total())
		assert.Equal(t, 16*decks, c.Count(TenValue))
		assert.Equal(t, 4*decks, c.Count(AceValue))
		assert.Equal(t, 0, c[0])
		assert.Equal(t, 0, c[1])
	}
}

func TestCompositionRemove(t *testing.T) {
	t.Parallel()
	full := NewComposition(1)

	c, err := full.Remove(MustParseCards("A,K,Q,5")...)
	require.NoError(t, err)
	assert.Equal(t, 48, c.Total())
	assert.Equal(t, 3, c.Count(AceValue))
	assert.Equal(t, 14, c.Count(TenValue))
	assert.Equal(t, 52, full.Total(), "receiver must be untouched")

	_, err = full.Remove(MustParseCards("A,A,A,A,A")...)
	assert.ErrorIs(t, err, ErrInvalidComposition)

	_, err = full.Remove(Card{Value: 12})
	assert.ErrorIs(t, err, ErrInvalidCard)
}

func TestCompositionDrawCopies(t *testing.T) {
	t.Parallel()
	c := NewComposition(1)
	next := c.Draw(7)
	assert.Equal(t, 4, c.Count(7))
	assert.Equal(t, 3, next.Count(7))
}

func TestProbabilitiesSumToOne(t *testing.T) {
	t.Parallel()
	compositions := []Composition{
		NewComposition(1),
		NewComposition(6),
		{0, 0, 1, 0, 0, 0, 0, 0, 0, 0, 3, 1},
		{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1, 0},
	}
	for _, c := range compositions {
		sum := 0
		den := 0
		for v := MinValue; v <= AceValue; v++ {
			num, d, err := c.Probability(v)
			require.NoError(t, err)
			sum += num
			den = d
		}
		assert.Equal(t, den, sum, "composition %s", c)
	}

	_, _, err := Composition{}.Probability(TenValue)
	assert.ErrorIs(t, err, ErrCompositionExhausted)
}

func TestCompositionOf(t *testing.T) {
	t.Parallel()
	c, err := CompositionOf(NewShoe(2))
	require.NoError(t, err)
	assert.Equal(t, NewComposition(2), c)

	assert.ErrorIs(t, Composition{0, 0, -1}.Validate(), ErrInvalidComposition)
	assert.NoError(t, c.Validate())
}

func TestValidateRejectsOversizedCounts(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		c    Composition
		ok   bool
	}{
		{name: "at bound", c: Composition{0, 0, MaxCount, 0, 0, 0, 0, 0, 0, 0, MaxCount, MaxCount}, ok: true},
		{name: "slot over bound", c: Composition{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, MaxCount + 1, 0}},
		{name: "sum would wrap", c: Composition{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, math.MaxInt64, 1}},
		{name: "unused slot", c: Composition{math.MaxInt64}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.c.Validate()
			if tt.ok {
				require.NoError(t, err)
				assert.Positive(t, tt.c.Total())
				return
			}
			assert.ErrorIs(t, err, ErrInvalidComposition)
		})
	}
}
