package round

import (
	"fmt"

	"github.com/lox/blackjack/internal/hand"
)

// Split turns the active pair into two hands, each carrying the original
// bet and one fresh card. Split aces take no further cards. Split hands may
// be split again.
func (e *Engine) Split() error {
	return e.perform(ActionSplit, e.splitLocked)
}

func (e *Engine) splitLocked() error {
	h, err := e.activeHandLocked(ActionSplit)
	if err != nil {
		return err
	}
	if !h.CanSplit() {
		return reject(ActionSplit, e.stage, ErrInvalidAction, "hand %s is not a pair", h)
	}
	if !e.ledger.CanAfford(h.Bet) {
		return reject(ActionSplit, e.stage, ErrInsufficientFunds, "need %d, have %d", h.Bet, e.ledger.Balance())
	}

	cards := e.source.Deal(2)
	if len(cards) < 2 {
		return reject(ActionSplit, e.stage, ErrShoeEmpty, "needed 2 cards, got %d", len(cards))
	}
	if err := e.ledger.PlaceBet(h.Bet); err != nil {
		return &ActionError{Action: ActionSplit, Stage: e.stage, Reason: err.Error(), Err: ErrInsufficientFunds}
	}

	aces := h.Cards[0].IsAce() && h.Cards[1].IsAce()
	pair := [2]hand.Hand{}
	for i := range pair {
		n := hand.New(h.Bet, h.Cards[i], cards[i])
		n.FromSplit = true
		n.SplitFromAces = aces
		if n.BestValue() == hand.Blackjack {
			n.Completed = true
		}
		pair[i] = n
	}

	at := e.active
	if err := e.hands.Replace(at, pair[0], pair[1]); err != nil {
		// refund the second bet
		e.ledger.AdjustBalance(h.Bet)
		return &ActionError{Action: ActionSplit, Stage: e.stage, Reason: err.Error(), Err: ErrInvalidAction}
	}
	e.ledger.SetPot(e.hands.TotalBet())

	e.logger.Debug().
		Int("hand", at).
		Bool("aces", aces).
		Int("hands", e.hands.Count()).
		Msg("Split hand")
	e.emitLocked(EventSplit, at, h.Bet, fmt.Sprintf("Split into %s and %s", pair[0], pair[1]))

	e.advanceLocked()
	return nil
}
