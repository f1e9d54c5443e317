package main

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/lox/blackjack/internal/bankroll"
	"github.com/lox/blackjack/internal/config"
	"github.com/lox/blackjack/internal/deck"
	"github.com/lox/blackjack/internal/logging"
	"github.com/lox/blackjack/internal/randutil"
	"github.com/lox/blackjack/internal/round"
	"github.com/lox/blackjack/internal/storage"
)

// loadConfig reads and validates the configuration named by the globals
func (g *Globals) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(g.Config)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// logger builds a zerolog logger at the configured level, or debug when
// --debug is set
func (g *Globals) logger(cfg *config.Config, out io.Writer) (zerolog.Logger, error) {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return zerolog.Nop(), err
	}
	if g.Debug {
		level = zerolog.DebugLevel
	}
	return logging.New(level, out), nil
}

// table is an engine bound to a persisted bankroll
type table struct {
	engine *round.Engine
	ledger *bankroll.Ledger
	store  storage.Store
	seed   int64
}

func (t *table) Close() error {
	return t.store.Close()
}

// openTable opens the configured store, restores the bankroll and builds an
// engine over a freshly shuffled shoe
func openTable(ctx context.Context, cfg *config.Config, logger zerolog.Logger, opts ...round.Option) (*table, error) {
	store, err := storage.Open(ctx, cfg.StorageOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage: %w", cfg.Storage.Driver, err)
	}

	ledger := bankroll.New(logger, store, cfg.Bankroll.StartingBalance)
	if err := ledger.Load(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to load bankroll: %w", err)
	}

	seed := randutil.Resolve(cfg.Shoe.Seed)
	shoe := deck.NewShoe(randutil.New(seed), cfg.Shoe.Decks, deck.WithThreshold(cfg.Shoe.ReshuffleThreshold))

	opts = append([]round.Option{round.WithRules(cfg.RoundRules())}, opts...)
	engine := round.New(logger, ledger, shoe, opts...)

	logger.Debug().
		Str("driver", cfg.Storage.Driver).
		Int64("seed", seed).
		Int("decks", cfg.Shoe.Decks).
		Int("balance", ledger.Balance()).
		Msg("Table ready")
	return &table{engine: engine, ledger: ledger, store: store, seed: seed}, nil
}
