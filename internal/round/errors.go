package round

import (
	"errors"
	"fmt"

	"github.com/lox/blackjack/internal/bankroll"
)

var (
	// ErrInvalidAction is returned for an action that is not legal in the
	// current stage or hand state. Nothing was changed.
	ErrInvalidAction = errors.New("invalid action")

	// ErrBusy is returned while another action is still resolving. Callers
	// should retry later.
	ErrBusy = fmt.Errorf("%w: action in progress", ErrInvalidAction)

	// ErrInsufficientFunds is returned when a stake exceeds the balance
	ErrInsufficientFunds = bankroll.ErrInsufficientFunds

	// ErrShoeEmpty is returned when the card source cannot supply the cards
	// an action needs
	ErrShoeEmpty = errors.New("shoe exhausted")
)

// Action names an entry point of the engine
type Action string

const (
	ActionStartRound    Action = "start_round"
	ActionSetPot        Action = "set_pot"
	ActionClearPot      Action = "clear_pot"
	ActionHit           Action = "hit"
	ActionStand         Action = "stand"
	ActionDoubleDown    Action = "double_down"
	ActionSplit         Action = "split"
	ActionSurrender     Action = "surrender"
	ActionTakeInsurance Action = "take_insurance"
	ActionResetGame     Action = "reset_game"
	ActionRefill        Action = "refill_balance"
)

// ActionError describes why an action was rejected. It unwraps to one of
// the package sentinels so callers can branch with errors.Is.
type ActionError struct {
	Action Action
	Stage  Stage
	Reason string
	Err    error
}

func (e *ActionError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s: %v", e.Action, e.Err)
	}
	return fmt.Sprintf("%s: %v: %s", e.Action, e.Err, e.Reason)
}

func (e *ActionError) Unwrap() error {
	return e.Err
}

func reject(a Action, s Stage, err error, format string, args ...any) *ActionError {
	return &ActionError{Action: a, Stage: s, Reason: fmt.Sprintf(format, args...), Err: err}
}
