// Package round drives a single player blackjack round from the wager
// through dealing, insurance, player turns, dealer play and payout.
package round

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"

	"github.com/lox/blackjack/internal/bankroll"
	"github.com/lox/blackjack/internal/deck"
	"github.com/lox/blackjack/internal/hand"
	"github.com/lox/blackjack/internal/roundid"
)

// Engine is the round orchestrator. It exclusively owns the ledger and hand
// store it is given; presentation code reads snapshots and calls actions.
//
// One action runs at a time. A second action arriving while one is in
// flight is rejected with ErrBusy rather than queued.
type Engine struct {
	busy atomic.Bool

	// mu guards the round fields below for concurrent snapshot readers
	mu        sync.RWMutex
	stage     Stage
	active    int
	insurance int
	wager     int
	opening   int // balance before the wager was placed
	roundID   string
	playedAt  time.Time
	showLost  bool
	lastDelta int
	finished  bool // a round has completed and awaits archiving
	pending   []Event

	ledger *bankroll.Ledger
	hands  *hand.Store
	source deck.Source
	ids    *roundid.Generator

	rules   Rules
	clock   quartz.Clock
	onEvent func(Event)
	logger  zerolog.Logger
}

// New creates an engine over ledger, dealing from source. Both are required.
func New(logger zerolog.Logger, ledger *bankroll.Ledger, source deck.Source, opts ...Option) *Engine {
	if ledger == nil {
		panic("ledger is required")
	}
	if source == nil {
		panic("card source is required")
	}

	e := &Engine{
		ledger: ledger,
		source: source,
		rules:  DefaultRules(),
		clock:  quartz.NewReal(),
		logger: logger.With().Str("component", "round").Logger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.hands = hand.NewStore(e.rules.HistoryLimit)
	e.ids = roundid.NewGenerator(e.clock, nil)
	return e
}

// Rules returns the table rules in effect
func (e *Engine) Rules() Rules {
	return e.rules
}

// History returns archived rounds, oldest first. The round currently on the
// table is archived when the next one starts.
func (e *Engine) History() []hand.Round {
	return e.hands.History()
}

// perform runs fn under the action lock and the state lock, then delivers
// the events fn queued once the state lock is released.
func (e *Engine) perform(a Action, fn func() error) error {
	if !e.busy.CompareAndSwap(false, true) {
		e.logger.Warn().Str("action", string(a)).Msg("Rejected action while busy")
		return &ActionError{Action: a, Stage: e.Stage(), Err: ErrBusy}
	}
	defer e.busy.Store(false)

	e.mu.Lock()
	err := fn()
	events := e.takePendingLocked()
	stage := e.stage
	e.mu.Unlock()

	e.deliver(events)

	if err != nil {
		e.logger.Warn().Err(err).Str("action", string(a)).Str("stage", stage.String()).Msg("Rejected action")
		return err
	}
	e.logger.Debug().Str("action", string(a)).Str("stage", stage.String()).Msg("Action committed")
	return nil
}

// Stage returns the current stage
func (e *Engine) Stage() Stage {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.stage
}

// SetPot sets the wager for the next round, clamped to [0, balance], and
// returns the resulting pot.
func (e *Engine) SetPot(amount int) (int, error) {
	var pot int
	err := e.perform(ActionSetPot, func() error {
		if !e.stage.BetweenRounds() {
			return reject(ActionSetPot, e.stage, ErrInvalidAction, "round in progress")
		}
		pot = e.ledger.SetPot(amount)
		return nil
	})
	if err != nil {
		return e.ledger.Pot(), err
	}
	return pot, nil
}

// ClearPot sets the wager for the next round to zero
func (e *Engine) ClearPot() error {
	return e.perform(ActionClearPot, func() error {
		if !e.stage.BetweenRounds() {
			return reject(ActionClearPot, e.stage, ErrInvalidAction, "round in progress")
		}
		e.ledger.SetPot(0)
		return nil
	})
}

// StartRound archives the previous round, places the pot as the wager and
// deals two cards each to the player and the dealer.
func (e *Engine) StartRound() error {
	return e.perform(ActionStartRound, e.startRoundLocked)
}

func (e *Engine) startRoundLocked() error {
	if !e.stage.BetweenRounds() {
		return reject(ActionStartRound, e.stage, ErrInvalidAction, "round in progress")
	}

	state := e.ledger.State()
	if state.Balance <= 0 {
		return reject(ActionStartRound, e.stage, ErrInsufficientFunds, "balance is empty")
	}
	if state.Pot <= 0 {
		return reject(ActionStartRound, e.stage, ErrInvalidAction, "no wager set")
	}

	if r, ok := e.source.(deck.Reshuffler); ok && r.IsLow() {
		r.Reshuffle(e.rules.Decks)
		e.emitLocked(EventShuffled, -1, 0, "Shuffling a fresh shoe")
		e.logger.Debug().Int("decks", e.rules.Decks).Msg("Reshuffled shoe")
	}

	cards := e.source.Deal(4)
	if len(cards) < 4 {
		if r, ok := e.source.(deck.Returner); ok {
			r.Return(cards...)
		}
		return reject(ActionStartRound, e.stage, ErrShoeEmpty, "needed 4 cards, got %d", len(cards))
	}

	wager := state.Pot
	err := e.ledger.PlaceBet(wager)
	if errors.Is(err, bankroll.ErrInsufficientFunds) {
		wager = e.ledger.Balance()
		err = e.ledger.PlaceBet(wager)
	}
	if err != nil {
		return &ActionError{Action: ActionStartRound, Stage: e.stage, Reason: err.Error(), Err: ErrInsufficientFunds}
	}

	e.archiveLocked()

	e.stage = StageDealing
	e.active = 0
	e.insurance = 0
	e.wager = wager
	e.opening = state.Balance
	e.lastDelta = 0
	e.roundID = e.ids.Next()
	e.playedAt = e.clock.Now()

	player := hand.New(wager, cards[0], cards[2])
	hole := cards[3]
	hole.FaceDown = true
	e.hands.Reset(player)
	e.hands.UpdateDealer(func(d *hand.Hand) {
		d.Add(cards[1], hole)
	})
	e.ledger.SetPot(e.hands.TotalBet())

	e.logger.Info().
		Str("round_id", e.roundID).
		Int("wager", wager).
		Int("balance", e.ledger.Balance()).
		Msg("Round started")
	e.emitLocked(EventRoundStarted, -1, wager, fmt.Sprintf("Dealt %s, dealer shows %s", player, cards[1]))

	if player.IsBlackjack() {
		e.resolveNaturalLocked()
		return nil
	}
	if cards[1].IsAce() {
		e.stage = StageInsurancePrompt
		e.emitLocked(EventInsuranceOffered, -1, wager/2, "Dealer shows an ace. Insurance?")
		return nil
	}
	e.stage = StagePlayerTurn
	return nil
}

// resolveNaturalLocked settles a player natural straight off the deal
func (e *Engine) resolveNaturalLocked() {
	e.revealHoleLocked()
	dealer := e.hands.Dealer()
	player, _ := e.hands.Hand(0)

	e.stage = StageEvaluation
	s := e.ledger.SettleHand(player, dealer, true)
	_ = e.hands.Update(0, func(h *hand.Hand) {
		h.Completed = true
		h.SetResult(s.Result)
	})
	if s.Result == hand.BlackjackWin {
		e.emitLocked(EventBlackjack, 0, s.Credit-player.Bet, "Blackjack!")
	} else {
		e.emitLocked(EventHandSettled, 0, 0, "Both have blackjack, push")
	}
	e.payoutLocked()
}

// TakeInsurance places an insurance side bet of up to half the wager and
// moves on to the player's turn. An amount the balance cannot cover is
// treated as declining insurance, not as an error.
func (e *Engine) TakeInsurance(amount int) error {
	return e.perform(ActionTakeInsurance, func() error {
		if e.stage != StageInsurancePrompt {
			return reject(ActionTakeInsurance, e.stage, ErrInvalidAction, "insurance is not offered")
		}
		if amount > e.ledger.Balance() {
			amount = 0
		}
		amount = min(max(amount, 0), e.wager/2)
		if amount > 0 {
			if err := e.ledger.PlaceBet(amount); err != nil {
				amount = 0
			}
		}
		e.insurance = amount
		if amount > 0 {
			e.emitLocked(EventInsurance, -1, amount, fmt.Sprintf("Insurance of %d taken", amount))
		}
		e.stage = StagePlayerTurn
		e.advanceLocked()
		return nil
	})
}

// Hit draws one card onto the active hand
func (e *Engine) Hit() error {
	return e.perform(ActionHit, func() error {
		h, err := e.activeHandLocked(ActionHit)
		if err != nil {
			return err
		}
		if h.SplitFromAces && len(h.Cards) >= 2 {
			return reject(ActionHit, e.stage, ErrInvalidAction, "split aces take one card only")
		}
		cards := e.source.Deal(1)
		if len(cards) == 0 {
			return reject(ActionHit, e.stage, ErrShoeEmpty, "no card to draw")
		}

		var after hand.Hand
		_ = e.hands.Update(e.active, func(h *hand.Hand) {
			h.Add(cards[0])
			e.finishIfDoneLocked(h)
			after = h.Clone()
		})
		e.emitLocked(EventPlayerAction, e.active, 0, fmt.Sprintf("Hit %s, now %d", cards[0], after.BestValue()))
		e.noteBustLocked(e.active, after)
		e.advanceLocked()
		return nil
	})
}

// Stand completes the active hand without drawing
func (e *Engine) Stand() error {
	return e.perform(ActionStand, func() error {
		h, err := e.activeHandLocked(ActionStand)
		if err != nil {
			return err
		}
		_ = e.hands.Update(e.active, func(h *hand.Hand) {
			h.Completed = true
		})
		e.emitLocked(EventPlayerAction, e.active, 0, fmt.Sprintf("Stand on %d", h.BestValue()))
		e.advanceLocked()
		return nil
	})
}

// DoubleDown doubles the active hand's bet, draws exactly one card and
// completes the hand.
func (e *Engine) DoubleDown() error {
	return e.perform(ActionDoubleDown, func() error {
		h, err := e.activeHandLocked(ActionDoubleDown)
		if err != nil {
			return err
		}
		if len(h.Cards) != 2 {
			return reject(ActionDoubleDown, e.stage, ErrInvalidAction, "double down needs exactly two cards")
		}
		if h.SplitFromAces {
			return reject(ActionDoubleDown, e.stage, ErrInvalidAction, "split aces take one card only")
		}
		if !e.ledger.CanAfford(h.Bet) {
			return reject(ActionDoubleDown, e.stage, ErrInsufficientFunds, "need %d, have %d", h.Bet, e.ledger.Balance())
		}
		cards := e.source.Deal(1)
		if len(cards) == 0 {
			return reject(ActionDoubleDown, e.stage, ErrShoeEmpty, "no card to draw")
		}
		if err := e.ledger.PlaceBet(h.Bet); err != nil {
			return &ActionError{Action: ActionDoubleDown, Stage: e.stage, Reason: err.Error(), Err: ErrInsufficientFunds}
		}

		var after hand.Hand
		_ = e.hands.Update(e.active, func(h *hand.Hand) {
			h.Bet *= 2
			h.Doubled = true
			h.Add(cards[0])
			h.Completed = true
			if h.IsBusted() {
				h.SetResult(hand.Bust)
			}
			after = h.Clone()
		})
		e.ledger.SetPot(e.hands.TotalBet())
		e.emitLocked(EventPlayerAction, e.active, h.Bet, fmt.Sprintf("Double down, drew %s for %d", cards[0], after.BestValue()))
		e.noteBustLocked(e.active, after)
		e.advanceLocked()
		return nil
	})
}

// Surrender gives up the active hand for half its bet back. It is allowed
// at any point before the hand completes, including after hits.
func (e *Engine) Surrender() error {
	return e.perform(ActionSurrender, func() error {
		h, err := e.activeHandLocked(ActionSurrender)
		if err != nil {
			return err
		}
		refund := h.Bet / 2
		if refund > 0 {
			e.ledger.AdjustBalance(refund)
		}
		_ = e.hands.Update(e.active, func(h *hand.Hand) {
			h.Completed = true
			h.SetResult(hand.Lose)
		})
		e.emitLocked(EventPlayerAction, e.active, refund, fmt.Sprintf("Surrendered, %d returned", refund))
		e.advanceLocked()
		return nil
	})
}

// ResetGame wipes the table back to a fresh bankroll
func (e *Engine) ResetGame() error {
	return e.perform(ActionResetGame, func() error {
		e.ledger.Reset(e.rules.StartingBalance)
		e.hands.Clear()
		e.stage = StageIdle
		e.active = 0
		e.insurance = 0
		e.wager = 0
		e.opening = 0
		e.lastDelta = 0
		e.roundID = ""
		e.playedAt = time.Time{}
		e.showLost = false
		e.finished = false
		if r, ok := e.source.(deck.Reshuffler); ok {
			r.Reshuffle(e.rules.Decks)
		}
		e.logger.Info().Int("balance", e.rules.StartingBalance).Msg("Game reset")
		e.emitLocked(EventReset, -1, e.rules.StartingBalance, "New game")
		return nil
	})
}

// RefillBalance forces the balance to the refill amount between rounds
func (e *Engine) RefillBalance() error {
	return e.perform(ActionRefill, func() error {
		if !e.stage.BetweenRounds() {
			return reject(ActionRefill, e.stage, ErrInvalidAction, "round in progress")
		}
		e.ledger.RefillTo(e.rules.RefillAmount)
		e.showLost = false
		e.logger.Info().Int("balance", e.rules.RefillAmount).Msg("Balance refilled")
		e.emitLocked(EventRefilled, -1, e.rules.RefillAmount, fmt.Sprintf("Balance refilled to %d", e.rules.RefillAmount))
		return nil
	})
}

// CheckIfLost raises the lost flag when the balance is empty and reports
// whether it did. The flag is an offer to refill; RefillBalance clears it.
func (e *Engine) CheckIfLost() bool {
	e.mu.Lock()
	lost := e.checkLostLocked()
	events := e.takePendingLocked()
	e.mu.Unlock()
	e.deliver(events)
	return lost
}

func (e *Engine) checkLostLocked() bool {
	if e.ledger.Balance() > 0 {
		return false
	}
	if !e.showLost {
		e.logger.Info().Msg("Player is out of money")
		e.emitLocked(EventPlayerLost, -1, 0, fmt.Sprintf("Out of money. Refill to %d?", e.rules.RefillAmount))
	}
	e.showLost = true
	return true
}

// activeHandLocked returns the hand awaiting action, rejecting when the
// stage is wrong or the hand needs nothing more.
func (e *Engine) activeHandLocked(a Action) (hand.Hand, error) {
	if e.stage != StagePlayerTurn {
		return hand.Hand{}, reject(a, e.stage, ErrInvalidAction, "not the player's turn")
	}
	h, err := e.hands.Hand(e.active)
	if err != nil {
		return hand.Hand{}, &ActionError{Action: a, Stage: e.stage, Reason: err.Error(), Err: ErrInvalidAction}
	}
	if h.IsDone() {
		return hand.Hand{}, reject(a, e.stage, ErrInvalidAction, "hand %d is complete", e.active+1)
	}
	return h, nil
}

// finishIfDoneLocked completes a hand that reached 21 or busted
func (e *Engine) finishIfDoneLocked(h *hand.Hand) {
	switch {
	case h.IsBusted():
		h.Completed = true
		h.SetResult(hand.Bust)
	case h.BestValue() == hand.Blackjack:
		h.Completed = true
	}
}

func (e *Engine) noteBustLocked(i int, h hand.Hand) {
	if h.IsBusted() {
		e.emitLocked(EventBust, i, h.Bet, fmt.Sprintf("Busted with %d", h.BestValue()))
	}
}

// advanceLocked moves past completed hands and hands the round to the
// dealer when none remain.
func (e *Engine) advanceLocked() {
	if e.stage != StagePlayerTurn {
		return
	}
	hands := e.hands.Hands()
	for e.active < len(hands) && hands[e.active].IsDone() {
		e.active++
	}
	if e.active >= len(hands) {
		e.dealerTurnLocked()
	}
}

func (e *Engine) revealHoleLocked() {
	e.hands.UpdateDealer(func(d *hand.Hand) {
		for i := range d.Cards {
			d.Cards[i].FaceDown = false
		}
	})
}

// dealerTurnLocked reveals the hole card, settles insurance, plays the
// dealer out and settles every unsettled hand.
func (e *Engine) dealerTurnLocked() {
	e.stage = StageDealerTurn
	e.revealHoleLocked()
	dealer := e.hands.Dealer()
	e.emitLocked(EventHoleRevealed, -1, 0, fmt.Sprintf("Dealer has %s (%d)", dealer, dealer.BestValue()))

	if e.insurance > 0 && len(dealer.Cards) > 0 && dealer.Cards[0].IsAce() {
		credit := e.ledger.SettleInsurance(e.insurance, dealer.IsBlackjack())
		if credit > 0 {
			e.emitLocked(EventInsurance, -1, credit, "Insurance pays 2:1!")
		} else {
			e.emitLocked(EventInsurance, -1, -e.insurance, "Insurance lost")
		}
	}

	for e.dealerDrawsLocked(dealer) {
		e.pauseLocked()
		cards := e.source.Deal(1)
		if len(cards) == 0 {
			e.logger.Warn().Int("dealer", dealer.BestValue()).Msg("Shoe ran dry during dealer turn")
			break
		}
		e.hands.UpdateDealer(func(d *hand.Hand) {
			d.Add(cards[0])
		})
		dealer = e.hands.Dealer()
		e.logger.Debug().Str("card", cards[0].String()).Int("dealer", dealer.BestValue()).Msg("Dealer draws")
		e.emitLocked(EventDealerDraw, -1, 0, fmt.Sprintf("Dealer draws %s, now %d", cards[0], dealer.BestValue()))
	}

	e.stage = StageEvaluation
	for i, h := range e.hands.Hands() {
		s := e.ledger.SettleHand(h, dealer, false)
		if s.Skipped {
			continue
		}
		_ = e.hands.Update(i, func(h *hand.Hand) {
			h.SetResult(s.Result)
		})
		e.emitLocked(EventHandSettled, i, s.Credit-h.Bet, settleMessage(s, h.Bet))
	}
	e.payoutLocked()
}

func (e *Engine) dealerDrawsLocked(d hand.Hand) bool {
	v := d.BestValue()
	if v < DealerStandsOn {
		return true
	}
	return e.rules.HitSoft17 && v == DealerStandsOn && d.IsSoft()
}

// pauseLocked waits out the dealer delay with the state lock released so
// snapshots stay readable. The action lock is still held.
func (e *Engine) pauseLocked() {
	if e.rules.DealerDelay <= 0 {
		return
	}
	events := e.takePendingLocked()
	e.mu.Unlock()
	defer e.mu.Lock()

	e.deliver(events)
	t := e.clock.NewTimer(e.rules.DealerDelay, "dealer", "draw")
	<-t.C
}

// payoutLocked restores the wager for the next round, checks for a lost
// bankroll and closes the round.
func (e *Engine) payoutLocked() {
	e.stage = StagePayout
	e.ledger.SetPot(e.wager)

	balance := e.ledger.Balance()
	e.lastDelta = balance - e.opening
	e.checkLostLocked()

	e.stage = StageNewRound
	e.finished = true

	e.logger.Info().
		Str("round_id", e.roundID).
		Int("wager", e.wager).
		Int("delta", e.lastDelta).
		Int("balance", balance).
		Msg("Round finished")
	e.emitLocked(EventRoundFinished, -1, e.lastDelta, deltaMessage(e.lastDelta))
}

// archiveLocked files the finished round before the next deal
func (e *Engine) archiveLocked() {
	if !e.finished {
		return
	}
	e.hands.Archive(hand.Round{
		ID:        e.roundID,
		PlayedAt:  e.playedAt,
		Insurance: e.insurance,
		Delta:     e.lastDelta,
	})
	e.finished = false
}

func (e *Engine) emitLocked(t EventType, handIndex, amount int, msg string) {
	if e.onEvent == nil {
		return
	}
	e.pending = append(e.pending, Event{
		Type:    t,
		Message: msg,
		RoundID: e.roundID,
		Hand:    handIndex,
		Amount:  amount,
		At:      e.clock.Now(),
	})
}

func (e *Engine) takePendingLocked() []Event {
	events := e.pending
	e.pending = nil
	return events
}

func (e *Engine) deliver(events []Event) {
	if e.onEvent == nil {
		return
	}
	for _, ev := range events {
		e.onEvent(ev)
	}
}

func settleMessage(s bankroll.Settlement, bet int) string {
	switch s.Result {
	case hand.Win:
		return fmt.Sprintf("You win %d", s.Credit-bet)
	case hand.Push:
		return "Push"
	case hand.BlackjackWin:
		return fmt.Sprintf("Blackjack pays %d", s.Credit-bet)
	default:
		return fmt.Sprintf("You lose %d", bet)
	}
}

func deltaMessage(delta int) string {
	switch {
	case delta > 0:
		return fmt.Sprintf("Round won, +%d", delta)
	case delta < 0:
		return fmt.Sprintf("Round lost, %d", delta)
	default:
		return "Round even"
	}
}
