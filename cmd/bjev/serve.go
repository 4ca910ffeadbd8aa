package main

import (
	"context"
	"time"

	"github.com/coder/quartz"

	"github.com/lox/blackjackev/internal/server"
)

// ServeCmd runs the HTTP and websocket evaluation service.
type ServeCmd struct {
	RuleFlags

	Addr string `help:"Listen address (overrides config)"`
}

func (c *ServeCmd) Run(g *Globals) error {
	cfg, err := g.Load()
	if err != nil {
		return err
	}
	logger := g.Logger(cfg.LogLevel())
	rules, err := c.Apply(cfg.Rules)
	if err != nil {
		return err
	}

	addr := cfg.Server.Address
	if c.Addr != "" {
		addr = c.Addr
	}

	s := server.NewServer(server.Config{
		Addr:   addr,
		Rules:  rules,
		Clock:  quartz.NewReal(),
		Logger: logger,
	})

	ctx, cancel := signalContext(logger)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := s.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("Server stopped")
	return nil
}
