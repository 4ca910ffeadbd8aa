package main

import (
	"os"
	"time"

	"github.com/coder/quartz"

	"github.com/lox/blackjackev/internal/randutil"
	"github.com/lox/blackjackev/internal/simulator"
)

// SimulateCmd plays independent rounds from freshly shuffled shoes.
type SimulateCmd struct {
	RuleFlags

	Rounds  int           `short:"n" default:"1000" help:"Number of rounds to play"`
	Seed    *int64        `help:"Deterministic RNG seed (optional)"`
	Timeout time.Duration `default:"30s" help:"Per-round timeout"`
}

func (c *SimulateCmd) Run(g *Globals) error {
	cfg, err := g.Load()
	if err != nil {
		return err
	}
	logger := g.Logger(cfg.LogLevel())
	rules, err := c.Apply(cfg.Rules)
	if err != nil {
		return err
	}

	seed := randutil.Seed(c.Seed)
	if c.Seed != nil {
		logger.Info("Using deterministic seed", "seed", seed)
	} else {
		logger.Info("Using random seed", "seed", seed)
	}

	sim, err := simulator.New(simulator.Config{
		Rounds:  c.Rounds,
		Seed:    seed,
		Rules:   rules,
		Timeout: c.Timeout,
		Clock:   quartz.NewReal(),
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(logger)
	defer cancel()

	report, err := sim.Run(ctx)
	if err != nil {
		return err
	}
	simulator.PrintSummary(os.Stdout, report)
	return nil
}
