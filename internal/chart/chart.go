// Package chart builds basic strategy charts by solving every (player total,
// dealer upcard) cell against a full shoe.
package chart

import (
	"context"
	"fmt"
	"io"
	"runtime"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/lox/blackjackev/blackjack"
	"github.com/lox/blackjackev/sdk/solver"
)

// Kind separates hard and soft rows.
type Kind uint8

const (
	Hard Kind = iota
	Soft
)

func (k Kind) String() string {
	if k == Soft {
		return "soft"
	}
	return "hard"
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "hard":
		*k = Hard
	case "soft":
		*k = Soft
	default:
		return fmt.Errorf("unknown row kind %q", text)
	}
	return nil
}

// Options selects the cells to solve and how many workers to use.
type Options struct {
	Workers    int   // Defaults to runtime.NumCPU()
	Upcards    []int // Card values 2..11
	HardTotals []int // 4..20
	SoftTotals []int // 12..20
	Logger     *log.Logger
}

// DefaultOptions covers every upcard, hard 5-17 and soft 13-20.
func DefaultOptions() Options {
	return Options{
		Upcards:    seq(2, 11),
		HardTotals: seq(5, 17),
		SoftTotals: seq(13, 20),
	}
}

func seq(from, to int) []int {
	out := make([]int, 0, to-from+1)
	for v := from; v <= to; v++ {
		out = append(out, v)
	}
	return out
}

// Cell is one solved decision.
type Cell struct {
	Upcard int           `json:"upcard"`
	Best   solver.Action `json:"best"`
	EV     float64       `json:"ev"`
	Result solver.Result `json:"result"`
}

// Row holds the cells for one player total, ordered like Chart.Upcards.
type Row struct {
	Kind   Kind           `json:"kind"`
	Total  int            `json:"total"`
	Player blackjack.Hand `json:"player"`
	Cells  []Cell         `json:"cells"`
}

// Chart is a solved strategy table.
type Chart struct {
	Rules   blackjack.Rules `json:"rules"`
	Upcards []int           `json:"upcards"`
	Rows    []Row           `json:"rows"`
	Stats   solver.Stats    `json:"-"`
}

// Hand returns the two-card hand used to represent a total. Hard totals avoid
// aces; soft totals are an ace plus one card.
func Hand(kind Kind, total int) (blackjack.Hand, error) {
	switch {
	case kind == Soft && total >= 12 && total <= 21:
		if total == 12 {
			return blackjack.Hand{blackjack.CardOf(blackjack.AceValue), blackjack.CardOf(blackjack.AceValue)}, nil
		}
		return blackjack.Hand{blackjack.CardOf(blackjack.AceValue), blackjack.CardOf(total - 11)}, nil
	case kind == Hard && total >= 4 && total <= 11:
		return blackjack.Hand{blackjack.CardOf(2), blackjack.CardOf(total - 2)}, nil
	case kind == Hard && total >= 12 && total <= 20:
		return blackjack.Hand{blackjack.CardOf(total - 10), blackjack.CardOf(blackjack.TenValue)}, nil
	}
	return nil, fmt.Errorf("no two-card %s hand totals %d", kind, total)
}

type job struct {
	row, col int
}

// Generate solves every requested cell. Work is spread over opts.Workers
// goroutines, each with its own Solver; results do not depend on the worker
// count.
func Generate(ctx context.Context, rules blackjack.Rules, opts Options) (*Chart, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	logger = logger.WithPrefix("chart")

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	chart := &Chart{Rules: rules, Upcards: opts.Upcards}
	for _, v := range opts.Upcards {
		if !blackjack.ValidValue(v) {
			return nil, fmt.Errorf("%w: upcard value %d", blackjack.ErrInvalidCard, v)
		}
	}
	for _, group := range []struct {
		kind   Kind
		totals []int
	}{{Hard, opts.HardTotals}, {Soft, opts.SoftTotals}} {
		for _, total := range group.totals {
			hand, err := Hand(group.kind, total)
			if err != nil {
				return nil, err
			}
			chart.Rows = append(chart.Rows, Row{
				Kind:   group.kind,
				Total:  total,
				Player: hand,
				Cells:  make([]Cell, len(opts.Upcards)),
			})
		}
	}

	jobs := make(chan job)
	stats := make([]solver.Stats, workers)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers + 1)

	g.Go(func() error {
		defer close(jobs)
		for r := range chart.Rows {
			for c := range chart.Upcards {
				select {
				case jobs <- job{row: r, col: c}:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
		return nil
	})

	for w := 0; w < workers; w++ {
		g.Go(func() error {
			sv, err := solver.New(rules, solver.WithLogger(logger))
			if err != nil {
				return err
			}
			for j := range jobs {
				if err := ctx.Err(); err != nil {
					return err
				}
				row := &chart.Rows[j.row]
				cell, err := solveCell(ctx, sv, rules, row.Player, chart.Upcards[j.col])
				if err != nil {
					return fmt.Errorf("%s %d vs %d: %w", row.Kind, row.Total, chart.Upcards[j.col], err)
				}
				row.Cells[j.col] = cell
			}
			stats[w] = sv.Stats()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, st := range stats {
		chart.Stats.NodesVisited += st.NodesVisited
		chart.Stats.MemoHits += st.MemoHits
		chart.Stats.MemoEntries += st.MemoEntries
	}
	logger.Debug("Generated chart",
		"rows", len(chart.Rows),
		"upcards", len(chart.Upcards),
		"workers", workers,
		"nodes", chart.Stats.NodesVisited)
	return chart, nil
}

func solveCell(ctx context.Context, sv *solver.Solver, rules blackjack.Rules, player blackjack.Hand, upcardValue int) (Cell, error) {
	upcard := blackjack.Hand{blackjack.CardOf(upcardValue)}
	counts, err := blackjack.NewComposition(rules.Decks).Remove(append(append(blackjack.Hand{}, player...), upcard...)...)
	if err != nil {
		return Cell{}, err
	}

	var actions []solver.Action
	for _, a := range solver.LegalActions(rules, player, upcard, solver.NotSplit) {
		if a != solver.ActionInsure {
			actions = append(actions, a)
		}
	}

	res, err := sv.EvaluateContext(ctx, solver.Request{
		Actions: actions,
		Player:  player,
		Dealer:  upcard,
		Counts:  counts,
	})
	if err != nil {
		return Cell{}, err
	}
	best, ev, _ := res.Best()
	return Cell{Upcard: upcardValue, Best: best, EV: ev, Result: res}, nil
}

// Abbrev returns the one-letter chart code for an action.
func Abbrev(a solver.Action) string {
	switch a {
	case solver.ActionStand:
		return "S"
	case solver.ActionHit:
		return "H"
	case solver.ActionDouble:
		return "D"
	case solver.ActionSurrender:
		return "R"
	case solver.ActionInsure:
		return "I"
	}
	return "?"
}
