package round

import (
	"time"

	"github.com/coder/quartz"

	"github.com/lox/blackjack/internal/bankroll"
)

// DealerStandsOn is the total at which the dealer stops drawing
const DealerStandsOn = 17

// Rules are the house rules of a table
type Rules struct {
	// Decks is the shoe size used when reshuffling
	Decks int

	// HitSoft17 makes the dealer draw on a soft 17
	HitSoft17 bool

	// DealerDelay paces dealer draws for presentation
	DealerDelay time.Duration

	StartingBalance int
	RefillAmount    int

	// HistoryLimit caps the archive; zero keeps every round
	HistoryLimit int
}

// DefaultRules returns a six deck shoe, dealer standing on all 17s and a
// 1000 unit bankroll.
func DefaultRules() Rules {
	return Rules{
		Decks:           6,
		StartingBalance: bankroll.DefaultBalance,
		RefillAmount:    bankroll.DefaultBalance,
	}
}

// Option configures an Engine
type Option func(*Engine)

// WithClock sets the clock used for timestamps and dealer pacing
func WithClock(clock quartz.Clock) Option {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// WithRules replaces the default rules. Zero values fall back to defaults.
func WithRules(r Rules) Option {
	return func(e *Engine) {
		d := DefaultRules()
		if r.Decks <= 0 {
			r.Decks = d.Decks
		}
		if r.StartingBalance <= 0 {
			r.StartingBalance = d.StartingBalance
		}
		if r.RefillAmount <= 0 {
			r.RefillAmount = d.RefillAmount
		}
		r.HistoryLimit = max(r.HistoryLimit, 0)
		r.DealerDelay = max(r.DealerDelay, 0)
		e.rules = r
	}
}

// WithEventHandler registers fn to receive events. Handlers run on the
// goroutine that performed the action, outside the engine's state lock, so
// they may read snapshots. Actions started from a handler are rejected as
// busy.
func WithEventHandler(fn func(Event)) Option {
	return func(e *Engine) {
		e.onEvent = fn
	}
}
