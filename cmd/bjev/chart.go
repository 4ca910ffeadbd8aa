package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/lox/blackjackev/blackjack"
	"github.com/lox/blackjackev/internal/chart"
)

// ChartCmd solves a basic strategy chart for the configured rules.
type ChartCmd struct {
	RuleFlags

	Upcards []string `short:"u" sep:"," help:"Dealer upcards to solve (default: 2-10,A)"`
	Workers int      `short:"w" help:"Parallel solvers (default: number of CPUs)"`
	EV      bool     `help:"Show the EV of the best action in each cell"`
	Output  string   `short:"o" type:"path" help:"Also write the solved chart to this JSON file"`
	Input   string   `short:"i" type:"existingfile" help:"Render a chart saved with --output instead of solving"`
}

func (c *ChartCmd) Run(g *Globals) error {
	cfg, err := g.Load()
	if err != nil {
		return err
	}
	logger := g.Logger(cfg.LogLevel())

	if c.Input != "" {
		file, err := chart.Load(c.Input)
		if err != nil {
			return err
		}
		logger.Info("Loaded chart", "path", c.Input, "generated_at", file.GeneratedAt)
		renderChart(os.Stdout, file.Chart, c.EV)
		return nil
	}

	rules, err := c.Apply(cfg.Rules)
	if err != nil {
		return err
	}

	opts := chart.DefaultOptions()
	opts.Workers = c.Workers
	opts.Logger = logger
	if len(c.Upcards) > 0 {
		if opts.Upcards, err = parseUpcards(c.Upcards); err != nil {
			return err
		}
	}

	ctx, cancel := signalContext(logger)
	defer cancel()

	start := time.Now()
	ch, err := chart.Generate(ctx, rules, opts)
	if err != nil {
		return err
	}
	logger.Info("Solved chart",
		"decks", rules.Decks,
		"s17", rules.DealerStandsSoft17,
		"elapsed", time.Since(start).Round(time.Millisecond),
		"nodes", ch.Stats.NodesVisited)

	if c.Output != "" {
		if err := ch.Save(c.Output, time.Now()); err != nil {
			return err
		}
		logger.Info("Saved chart", "path", c.Output)
	}

	renderChart(os.Stdout, ch, c.EV)
	return nil
}

func parseUpcards(values []string) ([]int, error) {
	upcards := make([]int, 0, len(values))
	for _, s := range values {
		card, err := blackjack.ParseCard(s)
		if err != nil {
			return nil, fmt.Errorf("upcard: %w", err)
		}
		upcards = append(upcards, card.Value)
	}
	return upcards, nil
}

func upcardLabel(v int) string {
	if v == blackjack.AceValue {
		return "A"
	}
	return strconv.Itoa(v)
}

func renderChart(out io.Writer, ch *chart.Chart, showEV bool) {
	header := []styledCell{cell("hand", headerStyle)}
	for _, up := range ch.Upcards {
		header = append(header, cell(upcardLabel(up), headerStyle))
	}
	rows := [][]styledCell{header}

	kind := chart.Hard
	for i, row := range ch.Rows {
		if i > 0 && row.Kind != kind {
			rows = append(rows, nil)
		}
		kind = row.Kind

		line := []styledCell{cell(blackjack.Evaluate(row.Player).Code(), handStyle)}
		for _, c := range row.Cells {
			code := chart.Abbrev(c.Best)
			text := code
			if showEV {
				text = fmt.Sprintf("%s %+.3f", code, c.EV)
			}
			style, ok := cellStyles[code]
			if !ok {
				style = plainStyle
			}
			line = append(line, cell(text, style))
		}
		rows = append(rows, line)
	}
	writeTable(out, rows)

	fmt.Fprintf(out, "\nS stand, H hit, D double, R surrender (%d decks, %s)\n",
		ch.Rules.Decks, soft17Label(ch.Rules))
}

func soft17Label(rules blackjack.Rules) string {
	if rules.DealerStandsSoft17 {
		return "S17"
	}
	return "H17"
}

