// Package simulator plays literal blackjack rounds from shuffled shoes, taking
// the solver's best action at every decision, so realised results can be
// compared with the predicted EVs.
package simulator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/blackjackev/blackjack"
	"github.com/lox/blackjackev/internal/randutil"
	"github.com/lox/blackjackev/internal/statistics"
	"github.com/lox/blackjackev/sdk/solver"
)

// memoLimit bounds the solver memo between rounds.
const memoLimit = 2_000_000

// ErrRoundTimeout is returned when a round runs past Config.Timeout.
var ErrRoundTimeout = errors.New("round timed out")

// Config holds configuration for running simulations
type Config struct {
	Rounds  int
	Seed    int64
	Rules   blackjack.Rules
	Timeout time.Duration // Per round; zero disables
	Clock   quartz.Clock
	Logger  *log.Logger
}

// Report is the outcome of a Run.
type Report struct {
	Stats   *statistics.Statistics
	Seed    int64
	Elapsed time.Duration
}

// Simulator plays independent rounds. Each round starts from a fresh shoe, so
// nothing carries between rounds.
type Simulator struct {
	config Config
	solver *solver.Solver
	clock  quartz.Clock
	logger *log.Logger
}

// New creates a new simulator with the given configuration
func New(config Config) (*Simulator, error) {
	if config.Rounds <= 0 {
		return nil, fmt.Errorf("rounds must be positive, got %d", config.Rounds)
	}
	logger := config.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	clock := config.Clock
	if clock == nil {
		clock = quartz.NewReal()
	}

	sv, err := solver.New(config.Rules, solver.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	return &Simulator{
		config: config,
		solver: sv,
		clock:  clock,
		logger: logger.WithPrefix("simulator"),
	}, nil
}

// Run plays config.Rounds rounds and aggregates their results.
func (s *Simulator) Run(ctx context.Context) (*Report, error) {
	start := s.clock.Now()
	stats := &statistics.Statistics{}

	s.logger.Info("Starting simulation",
		"rounds", s.config.Rounds,
		"seed", s.config.Seed,
		"decks", s.config.Rules.Decks,
		"s17", s.config.Rules.DealerStandsSoft17)

	for round := 0; round < s.config.Rounds; round++ {
		roundSeed := randutil.Derive(s.config.Seed, round)
		result, err := s.playRoundWithTimeout(ctx, roundSeed)
		if err != nil {
			return nil, fmt.Errorf("round %d (seed %d): %w", round+1, roundSeed, err)
		}
		stats.Add(result)

		if st := s.solver.Stats(); st.MemoEntries > memoLimit {
			s.logger.Debug("Resetting solver memo", "entries", st.MemoEntries)
			s.solver.Reset()
		}
	}

	if err := stats.Validate(); err != nil {
		return nil, fmt.Errorf("statistics validation failed: %w", err)
	}

	elapsed := s.clock.Since(start)
	s.logger.Info("Simulation complete",
		"rounds", stats.Rounds,
		"mean", fmt.Sprintf("%.4f", stats.Mean()),
		"expected", fmt.Sprintf("%.4f", stats.MeanExpected()),
		"elapsed", elapsed)

	return &Report{Stats: stats, Seed: s.config.Seed, Elapsed: elapsed}, nil
}

// playRoundWithTimeout cancels the round when the timer fires. The timeout
// is observed at decision points.
func (s *Simulator) playRoundWithTimeout(ctx context.Context, seed int64) (statistics.RoundResult, error) {
	if s.config.Timeout <= 0 {
		return s.PlayRound(ctx, seed)
	}

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	timer := s.clock.AfterFunc(s.config.Timeout, func() {
		cancel(ErrRoundTimeout)
	})
	defer timer.Stop()

	return s.PlayRound(ctx, seed)
}

// PlayRound deals one round from a shoe shuffled with seed. The player
// decides from the cards it can see; the dealer's hole card stays hidden
// until the player is done.
func (s *Simulator) PlayRound(ctx context.Context, seed int64) (statistics.RoundResult, error) {
	rules := s.config.Rules
	result := statistics.RoundResult{Seed: seed}

	shoe := blackjack.NewShuffledShoe(rules.Decks, randutil.New(seed))
	player := blackjack.Hand{shoe[0], shoe[2]}
	dealer := blackjack.Hand{shoe[1], shoe[3]}
	upcard := dealer[:1]
	pos := 4

	known, err := blackjack.NewComposition(rules.Decks).Remove(shoe[0], shoe[1], shoe[2])
	if err != nil {
		return result, err
	}

	if rules.InsuranceOffered && upcard[0].IsAce() {
		ev, err := s.solver.Insurance(known)
		if err != nil {
			return result, err
		}
		if ev > 0 {
			result.Expected += ev
			result.Insurance = -1
			if dealer[1].Value == blackjack.TenValue {
				result.Insurance = 2
			}
		}
	}

	action, ev, err := s.decide(ctx, player, upcard, known)
	if err != nil {
		return result, err
	}
	result.Action = string(action)
	result.Expected += ev

	wager := 1.0
	switch action {
	case solver.ActionSurrender:
		result.Net = -0.5
		return result, nil
	case solver.ActionDouble:
		wager = 2
		player, known, pos, err = draw(shoe, player, known, pos)
		if err != nil {
			return result, err
		}
	case solver.ActionHit:
		for next := action; next == solver.ActionHit; {
			player, known, pos, err = draw(shoe, player, known, pos)
			if err != nil {
				return result, err
			}
			if blackjack.Evaluate(player).Total >= 21 || known.Total() == 0 {
				break
			}
			if next, _, err = s.decide(ctx, player, upcard, known); err != nil {
				return result, err
			}
		}
	}

	pv := blackjack.Evaluate(player)
	if pv.Busted() {
		result.PlayerBust = true
		result.Net = -wager
		s.logRound(result, player, dealer)
		return result, nil
	}

	dealer, _, err = blackjack.PlayDealer(shoe, dealer, rules.DealerStandsSoft17, nil, pos)
	if err != nil {
		return result, err
	}
	dv := blackjack.Evaluate(dealer)
	switch outcome := blackjack.ClassifyDealer(dv, rules.DealerStandsSoft17); {
	case outcome == blackjack.DealerBust:
		result.DealerBust = true
		result.Net = wager
	case outcome != blackjack.DealerStand:
		return result, fmt.Errorf("dealer finished on %s in state %s", dv, outcome)
	case dv.Total < pv.Total:
		result.Net = wager
	case dv.Total > pv.Total:
		result.Net = -wager
	}

	s.logRound(result, player, dealer)
	return result, nil
}

// decide returns the legal action with the highest EV. Insurance is a side
// bet and is settled separately.
func (s *Simulator) decide(ctx context.Context, player, upcard blackjack.Hand, known blackjack.Composition) (solver.Action, float64, error) {
	legal := solver.LegalActions(s.config.Rules, player, upcard, solver.NotSplit)
	actions := make([]solver.Action, 0, len(legal))
	for _, a := range legal {
		if a != solver.ActionInsure {
			actions = append(actions, a)
		}
	}

	res, err := s.solver.EvaluateContext(ctx, solver.Request{
		Actions: actions,
		Player:  player,
		Dealer:  upcard,
		Counts:  known,
	})
	if err != nil {
		return "", 0, err
	}
	action, ev, _ := res.Best()
	return action, ev, nil
}

func draw(shoe []blackjack.Card, hand blackjack.Hand, known blackjack.Composition, pos int) (blackjack.Hand, blackjack.Composition, int, error) {
	if pos >= len(shoe) {
		return hand, known, pos, blackjack.ErrShoeExhausted
	}
	card := shoe[pos]
	known, err := known.Remove(card)
	if err != nil {
		return hand, known, pos, err
	}
	return hand.With(card), known, pos + 1, nil
}

func (s *Simulator) logRound(r statistics.RoundResult, player, dealer blackjack.Hand) {
	s.logger.Debug("Round complete",
		"seed", r.Seed,
		"player", player.String(),
		"dealer", dealer.String(),
		"action", r.Action,
		"net", r.Total(),
		"expected", fmt.Sprintf("%.4f", r.Expected))
}

// PrintSummary writes a summary of the simulation results
func PrintSummary(w io.Writer, report *Report) {
	stats := report.Stats
	low, high := stats.ConfidenceInterval95()

	fmt.Fprintf(w, "\n=== RESULTS (seed %d) ===\n", report.Seed)
	fmt.Fprintf(w, "Rounds played: %d in %v\n", stats.Rounds, report.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "Wins/Losses/Pushes: %d/%d/%d\n", stats.Wins, stats.Losses, stats.Pushes)
	fmt.Fprintf(w, "Player busts: %d, dealer busts: %d\n", stats.PlayerBusts, stats.DealerBusts)

	fmt.Fprintf(w, "\n=== STATISTICAL RESULTS ===\n")
	fmt.Fprintf(w, "Mean: %.4f units/round\n", stats.Mean())
	fmt.Fprintf(w, "Predicted EV: %.4f units/round\n", stats.MeanExpected())
	fmt.Fprintf(w, "Std Dev: %.4f\n", stats.StdDev())
	fmt.Fprintf(w, "Std Error: %.4f\n", stats.StdError())
	fmt.Fprintf(w, "95%% CI: [%.4f, %.4f] units/round\n", low, high)

	fmt.Fprintf(w, "\n=== OPENING ACTIONS ===\n")
	for _, name := range stats.ActionNames() {
		as := stats.Actions[name]
		fmt.Fprintf(w, "%-9s %6d rounds, mean %.4f, predicted %.4f\n",
			name, as.Rounds, as.SumNet/float64(as.Rounds), as.SumExpected/float64(as.Rounds))
	}
	if stats.InsuranceTaken > 0 {
		fmt.Fprintf(w, "insurance %6d taken, net %.2f\n", stats.InsuranceTaken, stats.InsuranceNet)
	}
}
