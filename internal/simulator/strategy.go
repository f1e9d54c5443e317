package simulator

import (
	"github.com/lox/blackjack/internal/deck"
	"github.com/lox/blackjack/internal/hand"
	"github.com/lox/blackjack/internal/round"
)

// Move is a strategy's choice for the active hand
type Move int

const (
	MoveStand Move = iota
	MoveHit
	MoveDouble
	MoveSplit
	MoveSurrender
)

func (m Move) String() string {
	switch m {
	case MoveStand:
		return "stand"
	case MoveHit:
		return "hit"
	case MoveDouble:
		return "double"
	case MoveSplit:
		return "split"
	case MoveSurrender:
		return "surrender"
	default:
		return "unknown"
	}
}

// Strategy picks a move for the active hand given the table snapshot.
// Returned moves must be legal for the snapshot's allowed actions.
type Strategy interface {
	Decide(s round.Snapshot) Move
}

// StrategyFunc adapts a function to Strategy
type StrategyFunc func(s round.Snapshot) Move

func (f StrategyFunc) Decide(s round.Snapshot) Move { return f(s) }

// Basic is a simplified fixed-rule strategy: split aces and eights, double
// a hard 10 or 11 against a weak dealer card, surrender a hard 16 against a
// ten or ace, otherwise hit to 17 against a strong up card and 12 against a
// weak one.
var Basic = StrategyFunc(basic)

// Dealer mimics the dealer: hit below 17, never anything else
var Dealer = StrategyFunc(func(s round.Snapshot) Move {
	if s.Allowed.CanHit && s.Hands[s.ActiveHand].BestValue() < round.DealerStandsOn {
		return MoveHit
	}
	return MoveStand
})

func basic(s round.Snapshot) Move {
	h := s.Hands[s.ActiveHand]
	up := 10
	if len(s.Dealer) > 0 {
		up = upValue(s.Dealer[0])
	}
	total := h.BestValue()
	weak := up >= 2 && up <= 6

	if s.Allowed.CanSplit {
		if r := h.Cards[0].Rank; r == deck.Ace || r == deck.Eight {
			return MoveSplit
		}
	}
	if s.Allowed.CanDoubleDown && !h.IsSoft() && (total == 11 || (total == 10 && up < 10)) {
		return MoveDouble
	}
	if s.Allowed.CanSurrender && len(h.Cards) == 2 && !h.IsSoft() && total == 16 && (up == 10 || up == 11) {
		return MoveSurrender
	}
	if !s.Allowed.CanHit {
		return MoveStand
	}
	if h.IsSoft() {
		if total < 18 {
			return MoveHit
		}
		return MoveStand
	}
	switch {
	case total < 12:
		return MoveHit
	case weak:
		return MoveStand
	case total < 17:
		return MoveHit
	}
	return MoveStand
}

// upValue is the dealer up card's value, an ace counting 11
func upValue(c deck.Card) int {
	return hand.New(0, c).BestValue()
}

// apply performs m on the engine
func apply(e *round.Engine, m Move) error {
	switch m {
	case MoveHit:
		return e.Hit()
	case MoveDouble:
		return e.DoubleDown()
	case MoveSplit:
		return e.Split()
	case MoveSurrender:
		return e.Surrender()
	default:
		return e.Stand()
	}
}
