package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/lox/blackjack/internal/config"
	"github.com/lox/blackjack/internal/storage"
)

// BalanceCmd prints the saved bankroll
type BalanceCmd struct{}

func (c *BalanceCmd) Run(g *Globals) error {
	return withTable(g, func(t *table) error {
		printBankroll(os.Stdout, t)
		return nil
	})
}

// RefillCmd tops the saved bankroll up to the refill amount
type RefillCmd struct{}

func (c *RefillCmd) Run(g *Globals) error {
	return withTable(g, func(t *table) error {
		if err := t.engine.RefillBalance(); err != nil {
			return err
		}
		printBankroll(os.Stdout, t)
		return nil
	})
}

// ResetCmd replaces the saved bankroll with a fresh starting balance
type ResetCmd struct {
	Force bool `short:"f" help:"Reset even when the balance is above the starting balance"`
}

func (c *ResetCmd) Run(g *Globals) error {
	return withTable(g, func(t *table) error {
		if !c.Force && t.ledger.Balance() > t.engine.Rules().StartingBalance {
			return fmt.Errorf("balance %s is above the starting balance, use --force to reset anyway",
				humanize.Comma(int64(t.ledger.Balance())))
		}
		if err := t.engine.ResetGame(); err != nil {
			return err
		}
		printBankroll(os.Stdout, t)
		return nil
	})
}

func withTable(g *Globals, fn func(t *table) error) error {
	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}
	logger, err := g.logger(cfg, os.Stderr)
	if err != nil {
		return err
	}

	t, err := openTable(context.Background(), cfg, logger)
	if err != nil {
		return err
	}
	defer t.Close()

	logger.Debug().Str("driver", cfg.Storage.Driver).Str("path", storagePath(cfg)).Msg("Using bankroll")
	return fn(t)
}

func storagePath(cfg *config.Config) string {
	if strings.EqualFold(cfg.Storage.Driver, storage.DriverPostgres) {
		return "(dsn)"
	}
	return cfg.Storage.Path
}

func printBankroll(w io.Writer, t *table) {
	s := t.ledger.State()
	fmt.Fprintf(w, "Balance: $%s\n", humanize.Comma(int64(s.Balance)))
	fmt.Fprintf(w, "Highest: $%s\n", humanize.Comma(int64(s.Highest)))
	fmt.Fprintf(w, "Pot:     $%s\n", humanize.Comma(int64(s.Pot)))
}
