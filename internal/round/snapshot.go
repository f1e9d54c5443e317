package round

import (
	"github.com/lox/blackjack/internal/deck"
	"github.com/lox/blackjack/internal/hand"
)

// Allowed is the set of player actions legal right now
type Allowed struct {
	CanHit           bool
	CanStand         bool
	CanDoubleDown    bool
	CanSplit         bool
	CanSurrender     bool
	CanTakeInsurance bool
	CanStartRound    bool
}

// Snapshot is a read-only copy of the table for presentation
type Snapshot struct {
	Stage      Stage
	RoundID    string
	ActiveHand int
	Hands      []hand.Hand

	// Dealer holds only the face up cards; the hole card stays hidden until
	// the dealer's turn.
	Dealer      []deck.Card
	DealerValue int
	HoleHidden  bool

	Balance   int
	Highest   int
	Pot       int
	Staked    int
	Insurance int
	LastDelta int
	ShowLost  bool

	Allowed Allowed
}

// Snapshot returns the current table state
func (e *Engine) Snapshot() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()

	state := e.ledger.State()
	hands := e.hands.Hands()
	dealer := e.hands.Dealer()

	visible := hand.Hand{}
	hidden := false
	for _, c := range dealer.Cards {
		if c.FaceDown {
			hidden = true
			continue
		}
		visible.Add(c)
	}

	staked := 0
	for _, h := range hands {
		staked += h.Bet
	}

	s := Snapshot{
		Stage:       e.stage,
		RoundID:     e.roundID,
		ActiveHand:  e.active,
		Hands:       hands,
		Dealer:      visible.Cards,
		DealerValue: visible.BestValue(),
		HoleHidden:  hidden,
		Balance:     state.Balance,
		Highest:     state.Highest,
		Pot:         state.Pot,
		Staked:      staked,
		Insurance:   e.insurance,
		LastDelta:   e.lastDelta,
		ShowLost:    e.showLost,
	}
	s.Allowed = allowedFor(e.stage, hands, e.active, state.Balance, state.Pot)
	return s
}

// allowedFor derives the legal actions from the stage and active hand
func allowedFor(stage Stage, hands []hand.Hand, active, balance, pot int) Allowed {
	var a Allowed
	switch stage {
	case StageIdle, StageNewRound:
		a.CanStartRound = pot > 0 && balance > 0
		return a
	case StageInsurancePrompt:
		a.CanTakeInsurance = true
		return a
	case StagePlayerTurn:
	default:
		return a
	}

	if active < 0 || active >= len(hands) {
		return a
	}
	h := hands[active]
	if h.IsDone() {
		return a
	}
	oneCardOnly := h.SplitFromAces && len(h.Cards) >= 2

	a.CanStand = true
	a.CanSurrender = true
	a.CanHit = !oneCardOnly
	a.CanDoubleDown = len(h.Cards) == 2 && !h.SplitFromAces && balance >= h.Bet
	a.CanSplit = h.CanSplit() && balance >= h.Bet
	return a
}
