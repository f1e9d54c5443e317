// Package bankroll owns the player's money: balance, highest balance and the
// pot staked on the current round.
package bankroll

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultBalance is the bankroll a fresh or refilled player receives
const DefaultBalance = 1000

// Persisted keys. Balance and pot are the durable contract; the highest
// balance is stored alongside when the backend allows it.
const (
	KeyBalance = "balance"
	KeyPot     = "pot"
	KeyHighest = "highest_balance"
)

var (
	// ErrInsufficientFunds is returned when a stake exceeds the balance
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInvalidAmount is returned for stakes that are zero or negative
	ErrInvalidAmount = errors.New("invalid amount")
)

// Store persists integer values by key
type Store interface {
	// Load returns the stored value and whether one exists
	Load(ctx context.Context, key string) (int, bool, error)
	Save(ctx context.Context, key string, value int) error
}

// State is a point-in-time copy of the ledger
type State struct {
	Balance int
	Highest int
	Pot     int
}

// Ledger guards balance, highest balance and pot behind a single writer
// lock. The invariants 0 <= pot <= balance and highest >= balance hold after
// every method returns.
type Ledger struct {
	mu      sync.RWMutex
	balance int
	highest int
	pot     int

	store   Store
	timeout time.Duration
	logger  zerolog.Logger
}

// New creates a ledger holding initial. store may be nil for a purely
// in-memory bankroll.
func New(logger zerolog.Logger, store Store, initial int) *Ledger {
	initial = max(initial, 0)
	return &Ledger{
		balance: initial,
		highest: initial,
		store:   store,
		timeout: 5 * time.Second,
		logger:  logger.With().Str("component", "bankroll").Logger(),
	}
}

// Load restores persisted values. Missing keys keep the current values. A
// stored pot larger than the stored balance is stale and is discarded.
func (l *Ledger) Load(ctx context.Context) error {
	if l.store == nil {
		return nil
	}

	balance, hasBalance, err := l.store.Load(ctx, KeyBalance)
	if err != nil {
		return fmt.Errorf("load balance: %w", err)
	}
	pot, hasPot, err := l.store.Load(ctx, KeyPot)
	if err != nil {
		return fmt.Errorf("load pot: %w", err)
	}
	highest, hasHighest, err := l.store.Load(ctx, KeyHighest)
	if err != nil {
		return fmt.Errorf("load highest balance: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if hasBalance {
		l.balance = max(balance, 0)
	}
	if hasPot {
		if pot < 0 || pot > l.balance {
			l.logger.Warn().
				Int("pot", pot).
				Int("balance", l.balance).
				Msg("Discarding stale pot larger than balance")
			pot = 0
		}
		l.pot = pot
	}
	l.highest = l.balance
	if hasHighest && highest > l.highest {
		l.highest = highest
	}
	if l.pot > l.balance {
		l.pot = 0
	}

	l.logger.Debug().
		Int("balance", l.balance).
		Int("pot", l.pot).
		Int("highest", l.highest).
		Msg("Loaded bankroll")
	return nil
}

// Balance returns the current balance
func (l *Ledger) Balance() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balance
}

// Highest returns the highest balance seen since the last reset
func (l *Ledger) Highest() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.highest
}

// Pot returns the current pot
func (l *Ledger) Pot() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.pot
}

// State returns a consistent copy of all three values
func (l *Ledger) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return State{Balance: l.balance, Highest: l.highest, Pot: l.pot}
}

// AdjustBalance adds delta, which may be negative, to the balance. The
// balance never goes below zero; the pot is clamped down to the balance.
func (l *Ledger) AdjustBalance(delta int) State {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.adjustLocked(delta)
	l.persistLocked()
	return l.stateLocked()
}

// SetPot sets the pot to min(amount, balance) and returns the resulting pot.
// Callers wanting to know whether the request was honoured compare the
// result with what they asked for.
func (l *Ledger) SetPot(amount int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pot = min(max(amount, 0), l.balance)
	l.persistLocked()
	return l.pot
}

// PlaceBet deducts amount from the balance. It fails without side effects
// when the amount is not positive or exceeds the balance.
func (l *Ledger) PlaceBet(amount int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if amount <= 0 {
		return fmt.Errorf("%w: bet of %d", ErrInvalidAmount, amount)
	}
	if amount > l.balance {
		return fmt.Errorf("%w: bet of %d with balance %d", ErrInsufficientFunds, amount, l.balance)
	}
	l.adjustLocked(-amount)
	l.persistLocked()
	return nil
}

// CanAfford reports whether amount could be staked right now
func (l *Ledger) CanAfford(amount int) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return amount <= l.balance
}

// RefillTo forces the balance to target and clears the pot
func (l *Ledger) RefillTo(target int) State {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balance = max(target, 0)
	l.highest = max(l.highest, l.balance)
	l.pot = 0
	l.persistLocked()
	return l.stateLocked()
}

// Reset wipes the ledger back to a fresh bankroll of initial
func (l *Ledger) Reset(initial int) State {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balance = max(initial, 0)
	l.highest = l.balance
	l.pot = 0
	l.persistLocked()
	return l.stateLocked()
}

func (l *Ledger) adjustLocked(delta int) {
	l.balance = max(l.balance+delta, 0)
	if l.balance > l.highest {
		l.highest = l.balance
	}
	if l.balance < l.pot {
		l.pot = l.balance
	}
}

func (l *Ledger) stateLocked() State {
	return State{Balance: l.balance, Highest: l.highest, Pot: l.pot}
}

// persistLocked writes every key. Failures are logged and the in-memory
// state stays authoritative.
func (l *Ledger) persistLocked() {
	if l.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()

	values := []struct {
		key   string
		value int
	}{
		{KeyBalance, l.balance},
		{KeyPot, l.pot},
		{KeyHighest, l.highest},
	}
	for _, v := range values {
		if err := l.store.Save(ctx, v.key, v.value); err != nil {
			l.logger.Error().Err(err).Str("key", v.key).Msg("Failed to persist bankroll")
		}
	}
}
