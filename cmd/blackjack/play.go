package main

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/lox/blackjack/internal/logging"
	"github.com/lox/blackjack/internal/round"
	"github.com/lox/blackjack/internal/tui"
)

// PlayCmd runs the interactive table
type PlayCmd struct {
	Bet int `help:"Wager to start with when none is saved" default:"10"`
}

func (c *PlayCmd) Run(g *Globals) error {
	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}

	// stderr belongs to the terminal UI, so everything logs to a file
	logFile, err := logging.OpenFile(cfg.Log.File)
	if err != nil {
		return err
	}
	defer func() {
		if err := logFile.Close(); err != nil {
			log.Error("Failed to close log file", "error", err)
		}
	}()

	logger, err := g.logger(cfg, logFile)
	if err != nil {
		return err
	}
	uiLevel := log.InfoLevel
	if g.Debug {
		uiLevel = log.DebugLevel
	}
	uiLogger := log.NewWithOptions(logFile, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
		Prefix:          "blackjack",
		Level:           uiLevel,
	})

	ctx, stop := setupSignalHandler(logger)
	defer stop()

	feed := tui.NewFeed(256)
	t, err := openTable(ctx, cfg, logger, round.WithEventHandler(feed.Publish))
	if err != nil {
		return err
	}
	defer t.Close()

	if t.ledger.Pot() == 0 && c.Bet > 0 {
		if _, err := t.engine.SetPot(c.Bet); err != nil {
			return fmt.Errorf("failed to set opening bet: %w", err)
		}
	}

	logger.Info().Int("balance", t.ledger.Balance()).Int("pot", t.ledger.Pot()).Int64("seed", t.seed).Msg("Starting table")

	model := tui.NewModel(t.engine, feed, uiLogger)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("failed to run TUI: %w", err)
	}

	s := t.engine.Snapshot()
	logger.Info().Int("balance", s.Balance).Int("highest", s.Highest).Int("rounds", len(t.engine.History())).Msg("Leaving table")
	return nil
}
