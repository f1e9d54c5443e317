// Package config loads table, shoe, storage and logging settings from an
// HCL file with BLACKJACK_ environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/rs/zerolog"

	"github.com/lox/blackjack/internal/bankroll"
	"github.com/lox/blackjack/internal/deck"
	"github.com/lox/blackjack/internal/round"
	"github.com/lox/blackjack/internal/storage"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "BLACKJACK_"

// Config is the complete configuration
type Config struct {
	Bankroll BankrollConfig `envPrefix:"BANKROLL_"`
	Shoe     ShoeConfig     `envPrefix:"SHOE_"`
	Rules    RulesConfig    `envPrefix:"RULES_"`
	Storage  StorageConfig  `envPrefix:"STORAGE_"`
	Log      LogConfig      `envPrefix:"LOG_"`
}

// BankrollConfig sets the money a player starts and refills with
type BankrollConfig struct {
	StartingBalance int `hcl:"starting_balance,optional" env:"STARTING_BALANCE"`
	RefillAmount    int `hcl:"refill_amount,optional" env:"REFILL_AMOUNT"`
}

// ShoeConfig describes the card shoe
type ShoeConfig struct {
	Decks              int   `hcl:"decks,optional" env:"DECKS"`
	ReshuffleThreshold int   `hcl:"reshuffle_threshold,optional" env:"RESHUFFLE_THRESHOLD"`
	Seed               int64 `hcl:"seed,optional" env:"SEED"`
}

// RulesConfig holds house rules
type RulesConfig struct {
	HitSoft17    bool   `hcl:"hit_soft_17,optional" env:"HIT_SOFT_17"`
	DealerDelay  string `hcl:"dealer_delay,optional" env:"DEALER_DELAY"`
	HistoryLimit int    `hcl:"history_limit,optional" env:"HISTORY_LIMIT"`
}

// StorageConfig selects where the bankroll is persisted
type StorageConfig struct {
	Driver string `hcl:"driver,optional" env:"DRIVER"`
	Path   string `hcl:"path,optional" env:"PATH"`
	DSN    string `hcl:"dsn,optional" env:"DSN"`
}

// LogConfig controls logging
type LogConfig struct {
	Level string `hcl:"level,optional" env:"LEVEL"`
	File  string `hcl:"file,optional" env:"FILE"`
}

// fileConfig mirrors Config with optional blocks for decoding
type fileConfig struct {
	Bankroll *BankrollConfig `hcl:"bankroll,block"`
	Shoe     *ShoeConfig     `hcl:"shoe,block"`
	Rules    *RulesConfig    `hcl:"rules,block"`
	Storage  *StorageConfig  `hcl:"storage,block"`
	Log      *LogConfig      `hcl:"log,block"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Bankroll: BankrollConfig{
			StartingBalance: bankroll.DefaultBalance,
			RefillAmount:    bankroll.DefaultBalance,
		},
		Shoe: ShoeConfig{
			Decks:              6,
			ReshuffleThreshold: deck.LowCardThreshold,
		},
		Storage: StorageConfig{
			Driver: storage.DriverFile,
			Path:   DefaultStatePath(),
		},
		Log: LogConfig{
			Level: "info",
			File:  "blackjack.log",
		},
	}
}

// DefaultStatePath returns where the file store keeps the bankroll
func DefaultStatePath() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return "blackjack-bankroll.json"
	}
	return filepath.Join(dir, "blackjack", "bankroll.json")
}

// Load reads filename over the defaults and then applies environment
// overrides. An empty or missing filename yields the defaults.
func Load(filename string) (*Config, error) {
	cfg := Default()

	if filename != "" {
		if _, err := os.Stat(filename); err == nil {
			if err := cfg.decodeFile(filename); err != nil {
				return nil, err
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat config: %w", err)
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	return cfg, nil
}

func (c *Config) decodeFile(filename string) error {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var fc fileConfig
	diags = gohcl.DecodeBody(file.Body, nil, &fc)
	if diags.HasErrors() {
		return fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	// Unset attributes keep their defaults
	if b := fc.Bankroll; b != nil {
		setInt(&c.Bankroll.StartingBalance, b.StartingBalance)
		setInt(&c.Bankroll.RefillAmount, b.RefillAmount)
	}
	if s := fc.Shoe; s != nil {
		setInt(&c.Shoe.Decks, s.Decks)
		setInt(&c.Shoe.ReshuffleThreshold, s.ReshuffleThreshold)
		if s.Seed != 0 {
			c.Shoe.Seed = s.Seed
		}
	}
	if r := fc.Rules; r != nil {
		c.Rules.HitSoft17 = r.HitSoft17
		setString(&c.Rules.DealerDelay, r.DealerDelay)
		setInt(&c.Rules.HistoryLimit, r.HistoryLimit)
	}
	if s := fc.Storage; s != nil {
		setString(&c.Storage.Driver, s.Driver)
		setString(&c.Storage.Path, s.Path)
		setString(&c.Storage.DSN, s.DSN)
	}
	if l := fc.Log; l != nil {
		setString(&c.Log.Level, l.Level)
		setString(&c.Log.File, l.File)
	}
	return nil
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// Validate checks the configuration for values the game cannot run with
func (c *Config) Validate() error {
	if c.Bankroll.StartingBalance <= 0 {
		return fmt.Errorf("starting balance must be positive, got %d", c.Bankroll.StartingBalance)
	}
	if c.Bankroll.RefillAmount <= 0 {
		return fmt.Errorf("refill amount must be positive, got %d", c.Bankroll.RefillAmount)
	}
	if c.Shoe.Decks < 1 || c.Shoe.Decks > 8 {
		return fmt.Errorf("decks must be between 1 and 8, got %d", c.Shoe.Decks)
	}
	if c.Shoe.ReshuffleThreshold < 0 || c.Shoe.ReshuffleThreshold >= c.Shoe.Decks*deck.CardsPerDeck {
		return fmt.Errorf("reshuffle threshold %d out of range for %d decks", c.Shoe.ReshuffleThreshold, c.Shoe.Decks)
	}
	if c.Rules.HistoryLimit < 0 {
		return fmt.Errorf("history limit must not be negative, got %d", c.Rules.HistoryLimit)
	}
	if _, err := c.DealerDelay(); err != nil {
		return err
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(c.Log.Level)); err != nil {
		return fmt.Errorf("invalid log level %q", c.Log.Level)
	}

	switch strings.ToLower(c.Storage.Driver) {
	case storage.DriverMemory:
	case storage.DriverFile, storage.DriverSQLite:
		if strings.TrimSpace(c.Storage.Path) == "" {
			return fmt.Errorf("storage driver %s requires a path", c.Storage.Driver)
		}
	case storage.DriverPostgres:
		if strings.TrimSpace(c.Storage.DSN) == "" {
			return errors.New("storage driver postgres requires a dsn")
		}
	default:
		return fmt.Errorf("%w: %q", storage.ErrUnknownDriver, c.Storage.Driver)
	}
	return nil
}

// DealerDelay parses the dealer pacing delay. Empty means no delay.
func (c *Config) DealerDelay() (time.Duration, error) {
	if c.Rules.DealerDelay == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Rules.DealerDelay)
	if err != nil {
		return 0, fmt.Errorf("invalid dealer delay %q: %w", c.Rules.DealerDelay, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("dealer delay must not be negative, got %s", d)
	}
	return d, nil
}

// RoundRules converts the configuration into engine rules
func (c *Config) RoundRules() round.Rules {
	delay, _ := c.DealerDelay()
	return round.Rules{
		Decks:           c.Shoe.Decks,
		HitSoft17:       c.Rules.HitSoft17,
		DealerDelay:     delay,
		StartingBalance: c.Bankroll.StartingBalance,
		RefillAmount:    c.Bankroll.RefillAmount,
		HistoryLimit:    c.Rules.HistoryLimit,
	}
}

// StorageOptions converts the configuration into storage options
func (c *Config) StorageOptions() storage.Options {
	return storage.Options{
		Driver: c.Storage.Driver,
		Path:   c.Storage.Path,
		DSN:    c.Storage.DSN,
	}
}
