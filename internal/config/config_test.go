package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/blackjack/internal/storage"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "blackjack.hcl")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.hcl"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
bankroll {
  starting_balance = 500
}

shoe {
  decks = 2
  seed  = 42
}

rules {
  hit_soft_17   = true
  dealer_delay  = "250ms"
  history_limit = 20
}

storage {
  driver = "sqlite"
  path   = "/tmp/bj.db"
}
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 500, cfg.Bankroll.StartingBalance)
	assert.Equal(t, 1000, cfg.Bankroll.RefillAmount, "unset attribute keeps default")
	assert.Equal(t, 2, cfg.Shoe.Decks)
	assert.Equal(t, 15, cfg.Shoe.ReshuffleThreshold)
	assert.Equal(t, int64(42), cfg.Shoe.Seed)
	assert.Equal(t, "info", cfg.Log.Level, "missing block keeps defaults")

	rules := cfg.RoundRules()
	assert.True(t, rules.HitSoft17)
	assert.Equal(t, 250*time.Millisecond, rules.DealerDelay)
	assert.Equal(t, 20, rules.HistoryLimit)
	assert.Equal(t, 2, rules.Decks)

	assert.Equal(t, storage.Options{Driver: "sqlite", Path: "/tmp/bj.db"}, cfg.StorageOptions())
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	path := writeConfig(t, `
storage {
  driver = "sqlite"
  path   = "/tmp/bj.db"
}
`)
	t.Setenv("BLACKJACK_STORAGE_DRIVER", "memory")
	t.Setenv("BLACKJACK_SHOE_DECKS", "4")
	t.Setenv("BLACKJACK_LOG_LEVEL", "debug")
	t.Setenv("BLACKJACK_RULES_HIT_SOFT_17", "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, "/tmp/bj.db", cfg.Storage.Path)
	assert.Equal(t, 4, cfg.Shoe.Decks)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Rules.HitSoft17)
}

func TestLoadBadEnvironment(t *testing.T) {
	t.Setenv("BLACKJACK_SHOE_DECKS", "lots")
	_, err := Load("")
	assert.Error(t, err)
}

func TestLoadInvalidHCL(t *testing.T) {
	_, err := Load(writeConfig(t, `shoe { decks = `))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, `table "main" {}`))
	assert.Error(t, err, "unknown blocks are rejected")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero starting balance", func(c *Config) { c.Bankroll.StartingBalance = 0 }},
		{"negative refill", func(c *Config) { c.Bankroll.RefillAmount = -1 }},
		{"no decks", func(c *Config) { c.Shoe.Decks = 0 }},
		{"too many decks", func(c *Config) { c.Shoe.Decks = 9 }},
		{"threshold beyond shoe", func(c *Config) { c.Shoe.Decks = 1; c.Shoe.ReshuffleThreshold = 52 }},
		{"negative history", func(c *Config) { c.Rules.HistoryLimit = -1 }},
		{"bad delay", func(c *Config) { c.Rules.DealerDelay = "soon" }},
		{"negative delay", func(c *Config) { c.Rules.DealerDelay = "-1s" }},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }},
		{"unknown driver", func(c *Config) { c.Storage.Driver = "redis" }},
		{"file without path", func(c *Config) { c.Storage.Path = "" }},
		{"postgres without dsn", func(c *Config) { c.Storage.Driver = storage.DriverPostgres }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	cfg := Default()
	cfg.Storage.Driver = storage.DriverMemory
	cfg.Storage.Path = ""
	assert.NoError(t, cfg.Validate())
}

func TestUnknownDriverWrapsSentinel(t *testing.T) {
	cfg := Default()
	cfg.Storage.Driver = "redis"
	assert.ErrorIs(t, cfg.Validate(), storage.ErrUnknownDriver)
}
