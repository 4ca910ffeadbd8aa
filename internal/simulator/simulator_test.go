package simulator

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/blackjackev/blackjack"
)

func singleDeckRules() blackjack.Rules {
	rules := blackjack.DefaultRules()
	rules.Decks = 1
	return rules
}

func newTestSimulator(t *testing.T, rounds int, seed int64) (*Simulator, *quartz.Mock) {
	t.Helper()
	clock := quartz.NewMock(t)
	sim, err := New(Config{
		Rounds:  rounds,
		Seed:    seed,
		Rules:   singleDeckRules(),
		Timeout: time.Minute,
		Clock:   clock,
		Logger:  log.NewWithOptions(io.Discard, log.Options{Level: log.WarnLevel}),
	})
	require.NoError(t, err)
	return sim, clock
}

func TestNewValidatesConfig(t *testing.T) {
	_, err := New(Config{Rounds: 0, Rules: singleDeckRules()})
	assert.Error(t, err)

	bad := singleDeckRules()
	bad.Decks = 0
	_, err = New(Config{Rounds: 1, Rules: bad})
	assert.ErrorIs(t, err, blackjack.ErrInvalidRules)

	sim, err := New(Config{Rounds: 1, Rules: singleDeckRules()})
	require.NoError(t, err)
	assert.NotNil(t, sim.clock)
	assert.NotNil(t, sim.logger)
}

func TestRun(t *testing.T) {
	sim, _ := newTestSimulator(t, 25, 12345)

	report, err := sim.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, report)

	stats := report.Stats
	assert.Equal(t, 25, stats.Rounds)
	assert.Equal(t, int64(12345), report.Seed)
	assert.Zero(t, report.Elapsed, "mock clock never advances")
	require.NoError(t, stats.Validate())

	allowed := map[float64]bool{-2: true, -1: true, -0.5: true, 0: true, 1: true, 2: true}
	for name, as := range stats.Actions {
		assert.Contains(t, []string{"stand", "hit", "double", "surrender"}, name)
		assert.Positive(t, as.Rounds)
	}
	for _, v := range stats.Values {
		// Insurance adds +2 or -1 on top of the main hand.
		ok := allowed[v] || allowed[v-2] || allowed[v+1]
		assert.True(t, ok, "unexpected round total %v", v)
	}
}

func TestRunIsReproducible(t *testing.T) {
	first, _ := newTestSimulator(t, 15, 99)
	second, _ := newTestSimulator(t, 15, 99)

	a, err := first.Run(context.Background())
	require.NoError(t, err)
	b, err := second.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, a.Stats.Values, b.Stats.Values)
	assert.Equal(t, a.Stats.SumExpected, b.Stats.SumExpected)
}

func TestPlayRoundDeterministic(t *testing.T) {
	sim, _ := newTestSimulator(t, 1, 0)

	for seed := int64(0); seed < 10; seed++ {
		a, err := sim.PlayRound(context.Background(), seed)
		require.NoError(t, err)
		b, err := sim.PlayRound(context.Background(), seed)
		require.NoError(t, err)
		assert.Equal(t, a, b)

		assert.Equal(t, seed, a.Seed)
		assert.NotEmpty(t, a.Action)
		assert.GreaterOrEqual(t, a.Expected, -3.0)
		assert.LessOrEqual(t, a.Expected, 4.0)
		if a.PlayerBust {
			assert.Negative(t, a.Net)
			assert.False(t, a.DealerBust)
		}
		if a.DealerBust {
			assert.Positive(t, a.Net)
		}
	}
}

func TestRealisedMeanTracksPrediction(t *testing.T) {
	sim, _ := newTestSimulator(t, 120, 2024)

	report, err := sim.Run(context.Background())
	require.NoError(t, err)

	stats := report.Stats
	margin := 4*stats.StdError() + 1e-9
	assert.InDelta(t, stats.MeanExpected(), stats.Mean(), margin)
	assert.Positive(t, stats.DealerBusts)
	assert.Positive(t, stats.PlayerBusts+stats.Wins+stats.Losses)
}

func TestRunCancelled(t *testing.T) {
	sim, _ := newTestSimulator(t, 5, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := sim.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTimerStoppedAfterRound(t *testing.T) {
	sim, clock := newTestSimulator(t, 1, 3)

	_, err := sim.playRoundWithTimeout(context.Background(), 3)
	require.NoError(t, err)

	// Advancing past the timeout after the round must not cancel anything.
	clock.Advance(2 * time.Minute).MustWait(context.Background())
	_, err = sim.playRoundWithTimeout(context.Background(), 3)
	require.NoError(t, err)
}

// expiringClock lets every AfterFunc timer run out the moment it is set.
type expiringClock struct {
	*quartz.Mock
}

func (c expiringClock) AfterFunc(d time.Duration, f func(), tags ...string) *quartz.Timer {
	timer := c.Mock.AfterFunc(d, f, tags...)
	c.Mock.Advance(d).MustWait(context.Background())
	return timer
}

func TestRoundTimeout(t *testing.T) {
	sim, err := New(Config{
		Rounds:  3,
		Seed:    5,
		Rules:   singleDeckRules(),
		Timeout: time.Second,
		Clock:   expiringClock{quartz.NewMock(t)},
	})
	require.NoError(t, err)

	_, err = sim.playRoundWithTimeout(context.Background(), 5)
	assert.ErrorIs(t, err, ErrRoundTimeout)

	_, err = sim.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRoundTimeout), "got %v", err)
	assert.Contains(t, err.Error(), "round 1")
}

func TestPrintSummary(t *testing.T) {
	sim, _ := newTestSimulator(t, 5, 7)
	report, err := sim.Run(context.Background())
	require.NoError(t, err)

	var buf bytes.Buffer
	PrintSummary(&buf, report)
	out := buf.String()
	assert.Contains(t, out, "Rounds played: 5")
	assert.Contains(t, out, "Predicted EV")
	assert.Contains(t, out, "OPENING ACTIONS")
}
