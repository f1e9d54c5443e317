package bankroll

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lox/blackjack/internal/deck"
	"github.com/lox/blackjack/internal/hand"
)

func h(bet int, cards string) hand.Hand {
	return hand.New(bet, deck.MustParseCards(cards)...)
}

func TestPayout(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		player  hand.Hand
		dealer  hand.Hand
		natural bool
		split   bool
		result  hand.Result
		credit  int
	}{
		{name: "natural pays 3:2", player: h(10, "AhKd"), dealer: h(0, "10c9s"), natural: true, result: hand.BlackjackWin, credit: 25},
		{name: "natural rounds up", player: h(5, "AhKd"), dealer: h(0, "10c9s"), natural: true, result: hand.BlackjackWin, credit: 13},
		{name: "natural odd bet", player: h(51, "AhKd"), dealer: h(0, "10c9s"), natural: true, result: hand.BlackjackWin, credit: 128},
		{name: "natural versus natural pushes", player: h(10, "AhKd"), dealer: h(0, "AcQs"), natural: true, result: hand.Push, credit: 10},
		{name: "split twenty one pays even money", player: h(10, "AhKd"), dealer: h(0, "10c9s"), natural: true, split: true, result: hand.Win, credit: 20},
		{name: "bust forfeits", player: h(10, "10hKs4d"), dealer: h(0, "10c6s8d"), result: hand.Bust, credit: 0},
		{name: "dealer bust pays", player: h(10, "10h8s"), dealer: h(0, "10c6s8d"), result: hand.Win, credit: 20},
		{name: "higher wins", player: h(10, "10h9s"), dealer: h(0, "10c8s"), result: hand.Win, credit: 20},
		{name: "equal pushes", player: h(10, "10h8s"), dealer: h(0, "9c9s"), result: hand.Push, credit: 10},
		{name: "lower loses", player: h(10, "10h7s"), dealer: h(0, "9c9s"), result: hand.Lose, credit: 0},
		{name: "three card 21 versus dealer natural pushes", player: h(10, "7h7d7c"), dealer: h(0, "AcKs"), result: hand.Push, credit: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.player
			p.FromSplit = tt.split
			s := Payout(p, tt.dealer, tt.natural)
			assert.Equal(t, tt.result, s.Result)
			assert.Equal(t, tt.credit, s.Credit)
			assert.False(t, s.Skipped)
		})
	}
}

func TestPayoutSkipsSettledHand(t *testing.T) {
	t.Parallel()
	p := h(10, "10h9s")
	p.SetResult(hand.Lose)
	s := Payout(p, h(0, "10c2s9d"), false)
	assert.True(t, s.Skipped)
	assert.Equal(t, hand.Lose, s.Result)
	assert.Zero(t, s.Credit)
}

func TestSettleHandCredits(t *testing.T) {
	t.Parallel()
	l := newLedger(t, nil, 1000)
	l.SetPot(1000)
	if err := l.PlaceBet(1000); err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, 0, l.Balance())

	s := l.SettleHand(h(1000, "AsQd"), h(0, "9h8h"), true)
	assert.Equal(t, hand.BlackjackWin, s.Result)
	assert.Equal(t, 2500, l.Balance())
	assert.Equal(t, 2500, l.Highest())
}

func TestInsurance(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 75, InsuranceCredit(25, true))
	assert.Zero(t, InsuranceCredit(25, false))
	assert.Zero(t, InsuranceCredit(0, true))

	l := newLedger(t, nil, 975)
	assert.Equal(t, 75, l.SettleInsurance(25, true))
	assert.Equal(t, 1050, l.Balance())
	assert.Zero(t, l.SettleInsurance(25, false))
	assert.Equal(t, 1050, l.Balance())
}
