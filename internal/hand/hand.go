// Package hand models blackjack hands and the per-round hand collection.
package hand

import (
	"strings"

	"github.com/lox/blackjack/internal/deck"
)

// Blackjack is the target total
const Blackjack = 21

// Result is the settled outcome of a hand
type Result int

const (
	Undefined Result = iota
	BlackjackWin
	Bust
	Push
	Win
	Lose
)

// String returns the string representation of a result
func (r Result) String() string {
	switch r {
	case Undefined:
		return "undefined"
	case BlackjackWin:
		return "blackjack"
	case Bust:
		return "bust"
	case Push:
		return "push"
	case Win:
		return "win"
	case Lose:
		return "lose"
	default:
		return "unknown"
	}
}

// Hand is a sequence of cards plus the wager riding on it. The dealer's hand
// uses the same type with a zero bet.
type Hand struct {
	Cards     []deck.Card
	Bet       int
	Completed bool
	Doubled   bool

	// FromSplit marks hands created by splitting; a two card 21 on such a
	// hand is not a natural.
	FromSplit bool

	// SplitFromAces limits the hand to the single card dealt after the split.
	SplitFromAces bool

	Result Result
}

// New creates a hand holding cards with the given bet
func New(bet int, cards ...deck.Card) Hand {
	h := Hand{Bet: bet}
	h.Cards = append(h.Cards, cards...)
	return h
}

// MinValue returns the total with every ace counted as 1
func (h Hand) MinValue() int {
	total := 0
	for _, c := range h.Cards {
		total += c.Rank.Points()
	}
	return total
}

// BestValue returns the highest total not above 21, or the lowest possible
// total when every choice busts. At most one ace can ever count as 11.
func (h Hand) BestValue() int {
	total := h.MinValue()
	if h.hasAce() && total+10 <= Blackjack {
		return total + 10
	}
	return total
}

// IsSoft reports whether the best value counts an ace as 11
func (h Hand) IsSoft() bool {
	return h.hasAce() && h.MinValue()+10 <= Blackjack
}

// IsBusted reports whether the best value exceeds 21
func (h Hand) IsBusted() bool {
	return h.BestValue() > Blackjack
}

// IsBlackjack reports a natural: two cards totalling 21 on a hand that was
// not produced by a split.
func (h Hand) IsBlackjack() bool {
	return len(h.Cards) == 2 && !h.FromSplit && h.BestValue() == Blackjack
}

// CanSplit reports whether the hand is a splittable pair. Rank must match;
// a king and a queen are not a pair.
func (h Hand) CanSplit() bool {
	if len(h.Cards) != 2 || h.Completed || h.IsBusted() {
		return false
	}
	return h.Cards[0].Rank == h.Cards[1].Rank
}

// HasResult reports whether the hand has been settled
func (h Hand) HasResult() bool {
	return h.Result != Undefined
}

// IsDone reports whether the hand needs no further player action
func (h Hand) IsDone() bool {
	return h.Completed || h.IsBusted()
}

// SetResult records r if no result has been recorded yet and reports whether
// it did. A settled hand is never overwritten.
func (h *Hand) SetResult(r Result) bool {
	if h.Result != Undefined || r == Undefined {
		return false
	}
	h.Result = r
	return true
}

// Add appends cards to the hand
func (h *Hand) Add(cards ...deck.Card) {
	h.Cards = append(h.Cards, cards...)
}

// Clone returns a deep copy of the hand
func (h Hand) Clone() Hand {
	c := h
	c.Cards = make([]deck.Card, len(h.Cards))
	copy(c.Cards, h.Cards)
	return c
}

// String renders the cards, e.g. "[A♠ 10♥]"
func (h Hand) String() string {
	parts := make([]string, len(h.Cards))
	for i, c := range h.Cards {
		parts[i] = c.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func (h Hand) hasAce() bool {
	for _, c := range h.Cards {
		if c.IsAce() {
			return true
		}
	}
	return false
}
