package statistics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatistics_Empty(t *testing.T) {
	stats := &Statistics{}

	assert.Zero(t, stats.Mean())
	assert.Zero(t, stats.MeanExpected())
	assert.Zero(t, stats.Variance())
	assert.Zero(t, stats.StdDev())
	assert.Zero(t, stats.StdError())
	assert.Zero(t, stats.Median())
	assert.Zero(t, stats.Percentile(0.5))
	assert.Error(t, stats.Validate(), "no rounds")
}

func TestStatistics_SingleRound(t *testing.T) {
	stats := &Statistics{}
	stats.Add(RoundResult{Net: 2, Expected: 0.4, Seed: 12345, Action: "double", DealerBust: true})

	assert.Equal(t, 1, stats.Rounds)
	assert.Equal(t, 2.0, stats.Mean())
	assert.Equal(t, 0.4, stats.MeanExpected())
	assert.Zero(t, stats.Variance())
	assert.Equal(t, 2.0, stats.Median())
	assert.Equal(t, 1, stats.Wins)
	assert.Equal(t, 1, stats.DealerBusts)
	assert.True(t, stats.IsLedgerBalanced())
	require.NoError(t, stats.Validate())
}

func TestStatistics_MultipleRounds(t *testing.T) {
	stats := &Statistics{}
	results := []RoundResult{
		{Net: 1, Action: "stand"},
		{Net: -1, Action: "hit", PlayerBust: true},
		{Net: 0, Action: "stand"},
		{Net: -0.5, Action: "surrender"},
		{Net: -1, Insurance: 2, Action: "stand"},
	}
	for _, r := range results {
		stats.Add(r)
	}

	assert.Equal(t, 5, stats.Rounds)
	assert.InDelta(t, 0.1, stats.Mean(), 1e-12)
	assert.Equal(t, 1, stats.Wins)
	assert.Equal(t, 3, stats.Losses)
	assert.Equal(t, 1, stats.Pushes)
	assert.Equal(t, 1, stats.PlayerBusts)
	assert.Equal(t, 1, stats.InsuranceTaken)
	assert.Equal(t, 2.0, stats.InsuranceNet)
	assert.Equal(t, []string{"hit", "stand", "surrender"}, stats.ActionNames())
	assert.Equal(t, 3, stats.Actions["stand"].Rounds)
	assert.Equal(t, 0.0, stats.Actions["stand"].SumNet)

	// Totals are 1, -1, 0, -0.5, 1.
	assert.Equal(t, 0.0, stats.Median())
	assert.Equal(t, -1.0, stats.Percentile(0))
	assert.Equal(t, 1.0, stats.Percentile(1))

	var sumSq float64
	for _, v := range stats.Values {
		sumSq += (v - 0.1) * (v - 0.1)
	}
	assert.InDelta(t, sumSq/4, stats.Variance(), 1e-12)
	assert.InDelta(t, math.Sqrt(sumSq/4), stats.StdDev(), 1e-12)

	low, high := stats.ConfidenceInterval95()
	assert.Less(t, low, stats.Mean())
	assert.Greater(t, high, stats.Mean())

	assert.True(t, stats.IsLedgerBalanced())
	require.NoError(t, stats.Validate())
}

func TestStatistics_ValidateDetectsCorruption(t *testing.T) {
	stats := &Statistics{}
	stats.Add(RoundResult{Net: 1, Action: "stand"})
	stats.Add(RoundResult{Net: -1, Action: "hit"})

	stats.Sum += 3
	assert.False(t, stats.IsLedgerBalanced())
	assert.Error(t, stats.Validate())
	stats.Sum -= 3

	stats.Values = stats.Values[:1]
	assert.Error(t, stats.Validate())
}
