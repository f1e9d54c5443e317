package main

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/lox/blackjack/internal/randutil"
	"github.com/lox/blackjack/internal/simulator"
)

// SimulateCmd autoplays rounds and reports the results
type SimulateCmd struct {
	Rounds   int           `short:"n" help:"Rounds per session" default:"10000"`
	Sessions int           `help:"Independent sessions, each with its own shoe and bankroll" default:"8"`
	Wager    int           `help:"Wager per round" default:"10"`
	Workers  int           `help:"Parallel workers (0 = number of CPUs)" default:"0"`
	Strategy string        `help:"Player strategy" enum:"basic,dealer" default:"basic"`
	Seed     *int64        `help:"Deterministic base seed (optional)"`
	Timeout  time.Duration `help:"Abort the run after this long (0 = no limit)" default:"0s"`
}

func (c *SimulateCmd) Run(g *Globals) error {
	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}
	logger, err := g.logger(cfg, os.Stderr)
	if err != nil {
		return err
	}

	var seed int64
	if c.Seed != nil {
		seed = *c.Seed
		logger.Info().Int64("seed", seed).Msg("Using deterministic seed")
	} else {
		seed = randutil.Resolve(cfg.Shoe.Seed)
		logger.Info().Int64("seed", seed).Msg("Using random seed")
	}

	workers := c.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	strategy := simulator.Basic
	if c.Strategy == "dealer" {
		strategy = simulator.Dealer
	}

	ctx, stop := setupSignalHandler(logger)
	defer stop()

	sim := simulator.New(simulator.Config{
		Sessions:           c.Sessions,
		Rounds:             c.Rounds,
		Wager:              c.Wager,
		Seed:               seed,
		Workers:            workers,
		Rules:              cfg.RoundRules(),
		Strategy:           strategy,
		ReshuffleThreshold: cfg.Shoe.ReshuffleThreshold,
		Timeout:            c.Timeout,
		Logger:             logger,
	})

	logger.Info().
		Int("sessions", c.Sessions).
		Int("rounds", c.Rounds).
		Int("wager", c.Wager).
		Int("workers", workers).
		Str("strategy", c.Strategy).
		Msg("Starting simulation")

	start := time.Now()
	stats, err := sim.Run(ctx)
	if err != nil {
		return fmt.Errorf("simulation failed: %w", err)
	}
	elapsed := time.Since(start)

	simulator.PrintSummary(os.Stdout, stats, c.Wager)
	fmt.Printf("\nCompleted %s rounds in %s (%.0f rounds/sec)\n",
		humanize.Comma(int64(stats.Rounds)), elapsed.Round(time.Millisecond), float64(stats.Rounds)/elapsed.Seconds())
	return nil
}
