package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/lox/blackjackev/blackjack"
	"github.com/lox/blackjackev/sdk/solver"
)

// EvalCmd evaluates one decision point against a full shoe.
type EvalCmd struct {
	RuleFlags

	Player  string   `short:"p" required:"" help:"Player cards, e.g. 'A,7' or 'Th 6s'"`
	Dealer  string   `short:"d" required:"" help:"Dealer cards, usually the upcard"`
	Removed string   `help:"Other cards already out of the shoe"`
	Actions []string `short:"a" sep:"," help:"Actions to evaluate (default: all legal actions)"`
}

func (c *EvalCmd) Run(g *Globals) error {
	cfg, err := g.Load()
	if err != nil {
		return err
	}
	logger := g.Logger(cfg.LogLevel())
	rules, err := c.Apply(cfg.Rules)
	if err != nil {
		return err
	}

	req, err := c.request(rules)
	if err != nil {
		return err
	}

	sv, err := solver.New(rules, solver.WithLogger(logger))
	if err != nil {
		return err
	}

	start := time.Now()
	result, err := sv.Evaluate(req)
	if err != nil {
		return err
	}
	logger.Debug("Solved", "elapsed", time.Since(start), "nodes", sv.Stats().NodesVisited)

	renderEval(os.Stdout, req, result)
	return nil
}

// request builds the solver input from the flags.
func (c *EvalCmd) request(rules blackjack.Rules) (solver.Request, error) {
	player, err := blackjack.ParseCards(c.Player)
	if err != nil {
		return solver.Request{}, fmt.Errorf("player: %w", err)
	}
	dealer, err := blackjack.ParseCards(c.Dealer)
	if err != nil {
		return solver.Request{}, fmt.Errorf("dealer: %w", err)
	}
	if len(player) == 0 || len(dealer) == 0 {
		return solver.Request{}, fmt.Errorf("player and dealer need at least one card each")
	}
	removed, err := blackjack.ParseCards(c.Removed)
	if err != nil {
		return solver.Request{}, fmt.Errorf("removed: %w", err)
	}

	seen := append(append(append(blackjack.Hand{}, player...), dealer...), removed...)
	counts, err := blackjack.NewComposition(rules.Decks).Remove(seen...)
	if err != nil {
		return solver.Request{}, fmt.Errorf("cards exceed a %d deck shoe: %w", rules.Decks, err)
	}

	var actions []solver.Action
	if len(c.Actions) == 0 {
		actions = solver.LegalActions(rules, player, dealer, solver.NotSplit)
	} else {
		for _, name := range c.Actions {
			a, ok := solver.ParseAction(name)
			if !ok {
				return solver.Request{}, fmt.Errorf("unknown action %q", name)
			}
			actions = append(actions, a)
		}
	}

	return solver.Request{
		Actions: actions,
		Player:  player,
		Dealer:  dealer,
		Counts:  counts,
	}, nil
}

func renderEval(out io.Writer, req solver.Request, result solver.Result) {
	player := blackjack.Evaluate(req.Player)
	dealer := blackjack.Evaluate(req.Dealer)

	fmt.Fprintf(out, "%s %s (%s) vs %s (%s), %d cards remaining\n\n",
		headerStyle.Render("hand"),
		handStyle.Render(req.Player.String()), player,
		handStyle.Render(req.Dealer.String()), dealer,
		req.Counts.Total())

	best, _, _ := result.Best()

	rows := [][]styledCell{{cell("action", headerStyle), cell("ev", headerStyle)}}
	for _, a := range solver.Actions {
		ev, ok := result[a]
		if !ok {
			continue
		}
		name := cell(string(a), plainStyle)
		if a == best {
			name = cell(string(a)+" *", bestStyle)
		}
		rows = append(rows, []styledCell{name, cell(fmt.Sprintf("%+.6f", ev), evStyle(ev))})
	}
	writeTable(out, rows)
}
