// Package solver computes exact expected values for blackjack player actions
// by enumerating every future draw from the remaining shoe composition.
package solver

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/lox/blackjackev/blackjack"
)

// surrenderEV is the fixed cost of giving up half the wager.
const surrenderEV = -0.5

// Stats captures instrumentation for the recursion.
type Stats struct {
	NodesVisited int64
	MemoHits     int64
	MemoEntries  int
}

type standKey struct {
	dealer blackjack.HandValue
	player int
	counts blackjack.Composition
}

type hitKey struct {
	dealer blackjack.HandValue
	player blackjack.HandValue
	counts blackjack.Composition
}

// Solver evaluates actions under a fixed set of table rules.
//
// The recursion is a pure function of (dealer value, player value,
// composition), so results are memoised on exactly that key. A Solver is not
// safe for concurrent use; give each goroutine its own.
type Solver struct {
	rules  blackjack.Rules
	logger *log.Logger
	memo   bool
	stand  map[standKey]float64
	hit    map[hitKey]float64
	stats  Stats
}

// Option configures a Solver.
type Option func(*Solver)

// WithoutMemo disables the memo tables. Results are bit-identical with and
// without them; this exists for differential testing.
func WithoutMemo() Option {
	return func(s *Solver) {
		s.memo = false
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger *log.Logger) Option {
	return func(s *Solver) {
		if logger != nil {
			s.logger = logger.WithPrefix("solver")
		}
	}
}

// New returns a solver for the given rules.
func New(rules blackjack.Rules, opts ...Option) (*Solver, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	s := &Solver{
		rules:  rules,
		logger: log.New(io.Discard),
		memo:   true,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Reset()
	return s, nil
}

// Rules returns the rules the solver was built with.
func (s *Solver) Rules() blackjack.Rules {
	return s.rules
}

// Reset drops all memoised values and counters.
func (s *Solver) Reset() {
	s.stand = make(map[standKey]float64)
	s.hit = make(map[hitKey]float64)
	s.stats = Stats{}
}

// Stats returns counters accumulated since the last Reset.
func (s *Solver) Stats() Stats {
	st := s.stats
	st.MemoEntries = len(s.stand) + len(s.hit)
	return st
}

// Stand returns the EV of standing on playerTotal against the dealer's hand,
// in [-1, 1].
func (s *Solver) Stand(dealer blackjack.Hand, playerTotal int, counts blackjack.Composition) (float64, error) {
	if err := validate(counts, dealer); err != nil {
		return 0, err
	}
	return s.standValue(blackjack.Evaluate(dealer), playerTotal, counts)
}

// Hit returns the EV of taking a card and then continuing optimally, in
// [-1, 1].
func (s *Solver) Hit(dealer, player blackjack.Hand, counts blackjack.Composition) (float64, error) {
	if err := validate(counts, dealer, player); err != nil {
		return 0, err
	}
	return s.hitValue(blackjack.Evaluate(dealer), blackjack.Evaluate(player), counts)
}

// Double returns the EV of doubling the wager and taking exactly one card, in
// [-2, 2].
func (s *Solver) Double(dealer, player blackjack.Hand, counts blackjack.Composition) (float64, error) {
	if err := validate(counts, dealer, player); err != nil {
		return 0, err
	}
	return s.doubleValue(blackjack.Evaluate(dealer), blackjack.Evaluate(player), counts)
}

// Surrender returns the EV of surrendering, always -0.5.
func (s *Solver) Surrender() float64 {
	return surrenderEV
}

// Insurance returns the EV of the insurance side bet: it pays 2:1 when the
// dealer's hole card is ten-valued.
func (s *Solver) Insurance(counts blackjack.Composition) (float64, error) {
	if err := counts.Validate(); err != nil {
		return 0, err
	}
	return insuranceValue(counts)
}

func insuranceValue(counts blackjack.Composition) (float64, error) {
	weights, err := drawWeights(counts)
	if err != nil {
		return 0, fmt.Errorf("insurance: %w", err)
	}
	pTen := weights[blackjack.TenValue]
	return pTen*2.0 - (1.0-pTen)*1.0, nil
}

// drawWeights returns the chance of drawing each value next. Every branch of
// the recursion is weighted through here.
func drawWeights(counts blackjack.Composition) ([12]float64, error) {
	var weights [12]float64
	for v := blackjack.MinValue; v <= blackjack.AceValue; v++ {
		num, den, err := counts.Probability(v)
		if err != nil {
			return weights, err
		}
		weights[v] = float64(num) / float64(den)
	}
	return weights, nil
}

func (s *Solver) standValue(dealer blackjack.HandValue, playerTotal int, counts blackjack.Composition) (float64, error) {
	s.stats.NodesVisited++

	if dealer.Busted() {
		return 1.0, nil
	}
	if !blackjack.DealerMustDraw(dealer, s.rules.DealerStandsSoft17) {
		switch {
		case dealer.Total < playerTotal:
			return 1.0, nil
		case dealer.Total > playerTotal:
			return -1.0, nil
		default:
			return 0.0, nil
		}
	}

	// A standing dealer always finishes on 17 or more, so every player total
	// below 17 resolves identically.
	if playerTotal < 17 {
		playerTotal = 16
	}
	key := standKey{dealer: dealer, player: playerTotal, counts: counts}
	if s.memo {
		if ev, ok := s.stand[key]; ok {
			s.stats.MemoHits++
			return ev, nil
		}
	}

	weights, err := drawWeights(counts)
	if err != nil {
		return 0, fmt.Errorf("dealer draw on %s: %w", dealer, err)
	}

	ev := 0.0
	for v := blackjack.MinValue; v <= blackjack.AceValue; v++ {
		if counts[v] == 0 {
			continue
		}
		p := weights[v]
		sub, err := s.standValue(dealer.Add(v), playerTotal, counts.Draw(v))
		if err != nil {
			return 0, err
		}
		ev += p * sub
	}

	if s.memo {
		s.stand[key] = ev
	}
	return ev, nil
}

func (s *Solver) hitValue(dealer, player blackjack.HandValue, counts blackjack.Composition) (float64, error) {
	s.stats.NodesVisited++

	key := hitKey{dealer: dealer, player: player, counts: counts}
	if s.memo {
		if ev, ok := s.hit[key]; ok {
			s.stats.MemoHits++
			return ev, nil
		}
	}

	weights, err := drawWeights(counts)
	if err != nil {
		return 0, fmt.Errorf("player draw on %s: %w", player, err)
	}

	ev := 0.0
	for v := blackjack.MinValue; v <= blackjack.AceValue; v++ {
		if counts[v] == 0 {
			continue
		}
		p := weights[v]
		next := player.Add(v)
		rest := counts.Draw(v)

		switch {
		case next.Busted():
			ev += p * -1.0
		case next.Total == 21:
			stand, err := s.standValue(dealer, 21, rest)
			if err != nil {
				return 0, err
			}
			ev += p * stand
		default:
			stand, err := s.standValue(dealer, next.Total, rest)
			if err != nil {
				return 0, err
			}
			// Drawing again is not an option once the shoe is empty.
			if rest.Total() == 0 {
				ev += p * stand
				continue
			}
			hit, err := s.hitValue(dealer, next, rest)
			if err != nil {
				return 0, err
			}
			ev += p * max(stand, hit)
		}
	}

	if s.memo {
		s.hit[key] = ev
	}
	return ev, nil
}

func (s *Solver) doubleValue(dealer, player blackjack.HandValue, counts blackjack.Composition) (float64, error) {
	s.stats.NodesVisited++

	weights, err := drawWeights(counts)
	if err != nil {
		return 0, fmt.Errorf("double on %s: %w", player, err)
	}

	ev := 0.0
	for v := blackjack.MinValue; v <= blackjack.AceValue; v++ {
		if counts[v] == 0 {
			continue
		}
		p := weights[v]
		next := player.Add(v)
		if next.Busted() {
			ev += p * -2.0
			continue
		}
		stand, err := s.standValue(dealer, next.Total, counts.Draw(v))
		if err != nil {
			return 0, err
		}
		ev += p * 2.0 * stand
	}
	return ev, nil
}

func validate(counts blackjack.Composition, hands ...blackjack.Hand) error {
	if err := counts.Validate(); err != nil {
		return err
	}
	for _, h := range hands {
		for _, c := range h {
			if err := c.Validate(); err != nil {
				return err
			}
		}
	}
	return nil
}
