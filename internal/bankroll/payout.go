package bankroll

import "github.com/lox/blackjack/internal/hand"

// Settlement is the outcome of settling one hand
type Settlement struct {
	Result hand.Result

	// Credit is what goes back to the balance, stake included. The stake
	// itself was deducted when the bet was placed.
	Credit int

	// Skipped is set when the hand already carried a result
	Skipped bool
}

// Payout computes the settlement of player against dealer without touching
// any balance. natural marks a two card 21 dealt before any action; it is
// ignored for hands produced by a split, which are paid even money.
func Payout(player, dealer hand.Hand, natural bool) Settlement {
	if player.HasResult() {
		return Settlement{Result: player.Result, Skipped: true}
	}

	bet := player.Bet
	if natural && !player.FromSplit {
		if dealer.IsBlackjack() {
			return Settlement{Result: hand.Push, Credit: bet}
		}
		return Settlement{Result: hand.BlackjackWin, Credit: blackjackCredit(bet)}
	}

	switch {
	case player.IsBusted():
		return Settlement{Result: hand.Bust}
	case dealer.IsBusted():
		return Settlement{Result: hand.Win, Credit: bet * 2}
	}

	pv, dv := player.BestValue(), dealer.BestValue()
	switch {
	case pv > dv:
		return Settlement{Result: hand.Win, Credit: bet * 2}
	case pv == dv:
		return Settlement{Result: hand.Push, Credit: bet}
	default:
		return Settlement{Result: hand.Lose}
	}
}

// blackjackCredit returns stake plus 3:2 winnings, rounded up to a whole unit
func blackjackCredit(bet int) int {
	return bet*2 + (bet+1)/2
}

// InsuranceCredit returns what an insurance stake pays back: stake plus 2:1
// when the dealer holds a natural, nothing otherwise.
func InsuranceCredit(bet int, dealerNatural bool) int {
	if bet <= 0 || !dealerNatural {
		return 0
	}
	return bet * 3
}

// SettleHand settles player against dealer and credits the balance. A hand
// that already has a result is left alone.
func (l *Ledger) SettleHand(player, dealer hand.Hand, natural bool) Settlement {
	s := Payout(player, dealer, natural)
	if s.Credit > 0 {
		l.AdjustBalance(s.Credit)
	}
	return s
}

// SettleInsurance credits an insurance stake and returns the credit
func (l *Ledger) SettleInsurance(bet int, dealerNatural bool) int {
	credit := InsuranceCredit(bet, dealerNatural)
	if credit > 0 {
		l.AdjustBalance(credit)
	}
	return credit
}
