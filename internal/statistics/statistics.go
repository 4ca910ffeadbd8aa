package statistics

import (
	"fmt"
	"math"
	"sort"
)

// RoundResult is the outcome of one simulated round, in units of the original
// wager.
type RoundResult struct {
	Net        float64 // Main hand win/loss (double counts twice, surrender -0.5)
	Insurance  float64 // Insurance side bet win/loss, 0 when not taken
	Expected   float64 // Solver EV of the opening decision plus any insurance taken
	Seed       int64   // Shoe seed for this round (for replay)
	Action     string  // Opening action taken
	PlayerBust bool
	DealerBust bool
}

// Total returns the combined result of the main hand and the side bet.
func (r RoundResult) Total() float64 {
	return r.Net + r.Insurance
}

// ActionStats tracks results for rounds opened with one action.
type ActionStats struct {
	Rounds      int
	SumNet      float64
	SumExpected float64
}

// Statistics aggregates simulated rounds.
type Statistics struct {
	Rounds int
	Sum    float64
	Sum2   float64   // Sum of squares for variance calculation
	Values []float64 // Store all values for median/percentile calculation

	SumExpected float64

	Wins   int
	Losses int
	Pushes int

	PlayerBusts int
	DealerBusts int

	InsuranceTaken int
	InsuranceNet   float64

	Actions map[string]*ActionStats
}

// Add incorporates a round.
func (s *Statistics) Add(result RoundResult) {
	total := result.Total()
	s.Rounds++
	s.Sum += total
	s.Sum2 += total * total
	s.Values = append(s.Values, total)
	s.SumExpected += result.Expected

	switch {
	case result.Net > 0:
		s.Wins++
	case result.Net < 0:
		s.Losses++
	default:
		s.Pushes++
	}
	if result.PlayerBust {
		s.PlayerBusts++
	}
	if result.DealerBust {
		s.DealerBusts++
	}
	if result.Insurance != 0 {
		s.InsuranceTaken++
		s.InsuranceNet += result.Insurance
	}

	if s.Actions == nil {
		s.Actions = make(map[string]*ActionStats)
	}
	as, ok := s.Actions[result.Action]
	if !ok {
		as = &ActionStats{}
		s.Actions[result.Action] = as
	}
	as.Rounds++
	as.SumNet += result.Net
	as.SumExpected += result.Expected
}

// Mean returns the average result per round.
func (s *Statistics) Mean() float64 {
	if s.Rounds == 0 {
		return 0
	}
	return s.Sum / float64(s.Rounds)
}

// MeanExpected returns the average predicted EV per round.
func (s *Statistics) MeanExpected() float64 {
	if s.Rounds == 0 {
		return 0
	}
	return s.SumExpected / float64(s.Rounds)
}

// Variance returns the sample variance of all results
func (s *Statistics) Variance() float64 {
	if s.Rounds < 2 {
		return 0
	}
	mean := s.Mean()
	return (s.Sum2 - float64(s.Rounds)*mean*mean) / float64(s.Rounds-1)
}

// StdDev returns the sample standard deviation of all results
func (s *Statistics) StdDev() float64 {
	return math.Sqrt(s.Variance())
}

// StdError returns the standard error of the mean
func (s *Statistics) StdError() float64 {
	if s.Rounds == 0 {
		return 0
	}
	return s.StdDev() / math.Sqrt(float64(s.Rounds))
}

// ConfidenceInterval95 returns the 95% confidence interval for the mean
func (s *Statistics) ConfidenceInterval95() (float64, float64) {
	mean := s.Mean()
	margin := 1.96 * s.StdError()
	return mean - margin, mean + margin
}

// Median returns the median value of all results
func (s *Statistics) Median() float64 {
	return s.Percentile(0.5)
}

// Percentile returns the value at the given percentile (0.0 to 1.0)
func (s *Statistics) Percentile(p float64) float64 {
	if len(s.Values) == 0 {
		return 0
	}
	sorted := make([]float64, len(s.Values))
	copy(sorted, s.Values)
	sort.Float64s(sorted)

	index := p * float64(len(sorted)-1)
	lower := int(index)
	upper := lower + 1

	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}

	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// ActionNames returns the opening actions seen, sorted.
func (s *Statistics) ActionNames() []string {
	names := make([]string, 0, len(s.Actions))
	for name := range s.Actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsLedgerBalanced checks that per-action results plus insurance add up to the
// overall total.
func (s *Statistics) IsLedgerBalanced() bool {
	sum := s.InsuranceNet
	for _, as := range s.Actions {
		sum += as.SumNet
	}
	return math.Abs(s.Sum-sum) <= 1e-6
}

// Validate performs comprehensive validation of statistics data
func (s *Statistics) Validate() error {
	if !s.IsLedgerBalanced() {
		return fmt.Errorf("ledger mismatch: total=%.6f, insurance=%.6f", s.Sum, s.InsuranceNet)
	}

	if s.Rounds <= 0 {
		return fmt.Errorf("invalid rounds count: %d", s.Rounds)
	}

	if len(s.Values) != s.Rounds {
		return fmt.Errorf("values array length (%d) does not match rounds count (%d)",
			len(s.Values), s.Rounds)
	}

	if outcomes := s.Wins + s.Losses + s.Pushes; outcomes != s.Rounds {
		return fmt.Errorf("outcomes (%d) do not match rounds count (%d)", outcomes, s.Rounds)
	}

	actionRounds := 0
	for _, as := range s.Actions {
		actionRounds += as.Rounds
	}
	if actionRounds != s.Rounds {
		return fmt.Errorf("action rounds total (%d) does not match rounds count (%d)",
			actionRounds, s.Rounds)
	}

	return nil
}
