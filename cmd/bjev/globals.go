package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lox/blackjackev/blackjack"
	"github.com/lox/blackjackev/internal/config"
)

// Globals are flags shared by every command.
type Globals struct {
	Config string `help:"HCL rules file" env:"BJEV_CONFIG" default:"bjev.hcl" type:"path"`
	Debug  bool   `help:"Enable debug logging"`
}

// RuleFlags override the configured table rules.
type RuleFlags struct {
	Decks int  `help:"Number of decks (overrides config)"`
	H17   bool `name:"h17" help:"Dealer hits soft 17 (overrides config)"`
}

// Apply returns rules with the overrides applied.
func (f RuleFlags) Apply(rules blackjack.Rules) (blackjack.Rules, error) {
	if f.Decks != 0 {
		rules.Decks = f.Decks
	}
	if f.H17 {
		rules.DealerStandsSoft17 = false
	}
	return rules, rules.Validate()
}

// Load reads the configuration file named by --config.
func (g *Globals) Load() (*config.Config, error) {
	return config.Load(g.Config)
}

// Logger returns the CLI logger. --debug wins over the configured level.
func (g *Globals) Logger(level log.Level) *log.Logger {
	if g.Debug {
		level = log.DebugLevel
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		Level:           level,
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
	})
}

// signalContext is cancelled on interrupt signals.
func signalContext(logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("Received signal, shutting down gracefully", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()

	return ctx, cancel
}
