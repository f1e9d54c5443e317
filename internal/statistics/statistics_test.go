package statistics

import (
	"math"
	"testing"

	"github.com/lox/blackjack/internal/hand"
)

func TestStatistics_Empty(t *testing.T) {
	stats := &Statistics{}

	if stats.Mean() != 0 {
		t.Errorf("Expected mean of 0 for empty stats, got %f", stats.Mean())
	}
	if stats.Variance() != 0 {
		t.Errorf("Expected variance of 0 for empty stats, got %f", stats.Variance())
	}
	if stats.StdError() != 0 {
		t.Errorf("Expected stderr of 0 for empty stats, got %f", stats.StdError())
	}
	if stats.Median() != 0 {
		t.Errorf("Expected median of 0 for empty stats, got %f", stats.Median())
	}
	if stats.Percentile(0.5) != 0 {
		t.Errorf("Expected percentile of 0 for empty stats, got %f", stats.Percentile(0.5))
	}
	if stats.Return() != 0 {
		t.Errorf("Expected return of 0 for empty stats, got %f", stats.Return())
	}
	if err := stats.Validate(); err == nil {
		t.Error("Expected validation error for zero rounds")
	}
}

func TestStatistics_SingleRound(t *testing.T) {
	stats := &Statistics{StartBalance: 1000, FinalBalance: 1075}
	stats.Add(RoundResult{
		Net:      75,
		Wager:    50,
		Staked:   50,
		Outcomes: []hand.Result{hand.BlackjackWin},
	})

	if stats.Rounds != 1 || stats.Hands != 1 {
		t.Errorf("Expected 1 round and 1 hand, got %d and %d", stats.Rounds, stats.Hands)
	}
	if stats.Mean() != 75 {
		t.Errorf("Expected mean of 75, got %f", stats.Mean())
	}
	if stats.Variance() != 0 {
		t.Errorf("Expected variance of 0 for single value, got %f", stats.Variance())
	}
	if stats.Count(hand.BlackjackWin) != 1 {
		t.Errorf("Expected 1 blackjack, got %d", stats.Count(hand.BlackjackWin))
	}
	if math.Abs(stats.Return()-1.5) > 1e-9 {
		t.Errorf("Expected return of 1.5, got %f", stats.Return())
	}
	if err := stats.Validate(); err != nil {
		t.Errorf("Unexpected validation error: %v", err)
	}
}

func TestStatistics_MultipleRounds(t *testing.T) {
	stats := &Statistics{StartBalance: 1000}

	results := []RoundResult{
		{Net: 50, Wager: 50, Staked: 50, Outcomes: []hand.Result{hand.Win}},
		{Net: -100, Wager: 50, Staked: 100, Outcomes: []hand.Result{hand.Lose}, Doubled: true},
		{Net: 0, Wager: 50, Staked: 100, Outcomes: []hand.Result{hand.Win, hand.Lose}, Split: true},
		{Net: -25, Wager: 50, Staked: 50, Outcomes: []hand.Result{hand.Lose}, Surrendered: true},
		{Net: -75, Wager: 50, Staked: 50, Outcomes: []hand.Result{hand.Lose}, Insurance: 25},
	}
	for _, r := range results {
		stats.Add(r)
	}
	stats.FinalBalance = 1000 + 50 - 100 + 0 - 25 - 75

	expectedMean := (50.0 - 100 + 0 - 25 - 75) / 5
	if math.Abs(stats.Mean()-expectedMean) > 1e-9 {
		t.Errorf("Expected mean of %f, got %f", expectedMean, stats.Mean())
	}
	// sorted: -100, -75, -25, 0, 50
	if stats.Median() != -25 {
		t.Errorf("Expected median of -25, got %f", stats.Median())
	}
	if stats.Hands != 6 {
		t.Errorf("Expected 6 hands, got %d", stats.Hands)
	}
	if stats.Count(hand.Lose) != 4 || stats.Count(hand.Win) != 2 {
		t.Errorf("Unexpected outcomes: %v", stats.Outcomes)
	}
	if stats.Doubles != 1 || stats.Splits != 1 || stats.Surrenders != 1 || stats.Insured != 1 {
		t.Errorf("Unexpected action counts: %+v", stats)
	}
	if stats.Wagered != 250 || stats.Staked != 350 {
		t.Errorf("Expected 250 wagered and 350 staked, got %d and %d", stats.Wagered, stats.Staked)
	}
	if err := stats.Validate(); err != nil {
		t.Errorf("Unexpected validation error: %v", err)
	}
}

func TestStatistics_Percentiles(t *testing.T) {
	stats := &Statistics{}
	for i := 1; i <= 5; i++ {
		stats.Add(RoundResult{Net: i, Outcomes: []hand.Result{hand.Win}})
	}

	tests := []struct {
		percentile float64
		expected   float64
	}{
		{0.0, 1.0},
		{0.25, 2.0},
		{0.5, 3.0},
		{0.75, 4.0},
		{1.0, 5.0},
	}
	for _, test := range tests {
		result := stats.Percentile(test.percentile)
		if math.Abs(result-test.expected) > 1e-9 {
			t.Errorf("Percentile %.2f: expected %f, got %f", test.percentile, test.expected, result)
		}
	}
}

func TestStatistics_ConfidenceInterval(t *testing.T) {
	stats := &Statistics{}
	for _, v := range []int{10, -10, 20, -5, 0} {
		stats.Add(RoundResult{Net: v, Outcomes: []hand.Result{hand.Push}})
	}

	low, high := stats.ConfidenceInterval95()
	if math.Abs((low+high)/2-stats.Mean()) > 1e-9 {
		t.Errorf("Confidence interval not symmetric around mean. Low: %f, High: %f, Mean: %f", low, high, stats.Mean())
	}
	if high-low <= 0 {
		t.Errorf("Confidence interval should be positive width, got %f", high-low)
	}
}

func TestStatistics_Variance(t *testing.T) {
	stats := &Statistics{}
	for _, v := range []int{2, 4, 4, 4, 5, 5, 7, 9} {
		stats.Add(RoundResult{Net: v, Outcomes: []hand.Result{hand.Win}})
	}
	// sample variance of the classic example is 32/7
	if math.Abs(stats.Variance()-32.0/7.0) > 1e-9 {
		t.Errorf("Expected variance of %f, got %f", 32.0/7.0, stats.Variance())
	}
	if math.Abs(stats.StdDev()-math.Sqrt(32.0/7.0)) > 1e-9 {
		t.Errorf("Unexpected stddev %f", stats.StdDev())
	}
}

func TestStatistics_RefillsBalanceLedger(t *testing.T) {
	stats := &Statistics{StartBalance: 100}
	stats.Add(RoundResult{Net: -100, Wager: 100, Staked: 100, Outcomes: []hand.Result{hand.Lose}})
	stats.Add(RoundResult{Net: 50, Wager: 50, Staked: 50, Outcomes: []hand.Result{hand.Win}, Refill: 1000})
	stats.FinalBalance = 1050

	if !stats.IsLedgerBalanced() {
		t.Error("Expected ledger to be balanced")
	}
	if stats.Refills != 1 || stats.RefillUnits != 1000 {
		t.Errorf("Expected one refill of 1000, got %d of %d", stats.Refills, stats.RefillUnits)
	}

	stats.FinalBalance = 1049
	if err := stats.Validate(); err == nil {
		t.Error("Expected ledger mismatch to fail validation")
	}
}

func TestStatistics_ValidateUnsettledHand(t *testing.T) {
	stats := &Statistics{}
	stats.Add(RoundResult{Net: 0, Outcomes: []hand.Result{hand.Undefined}})
	if err := stats.Validate(); err == nil {
		t.Error("Expected unsettled hand to fail validation")
	}
}

func TestStatistics_Merge(t *testing.T) {
	a := &Statistics{StartBalance: 1000, FinalBalance: 1050}
	a.Add(RoundResult{Net: 50, Wager: 50, Outcomes: []hand.Result{hand.Win}})

	b := &Statistics{StartBalance: 1000, FinalBalance: 900}
	b.Add(RoundResult{Net: -100, Wager: 100, Outcomes: []hand.Result{hand.Bust}, Doubled: true})

	total := &Statistics{}
	total.Merge(a)
	total.Merge(b)
	total.Merge(nil)

	if total.Rounds != 2 || total.NetUnits != -50 {
		t.Errorf("Expected 2 rounds netting -50, got %d netting %d", total.Rounds, total.NetUnits)
	}
	if total.StartBalance != 2000 || total.FinalBalance != 1950 {
		t.Errorf("Unexpected balances: %d -> %d", total.StartBalance, total.FinalBalance)
	}
	if total.Count(hand.Bust) != 1 || total.Doubles != 1 {
		t.Errorf("Unexpected merged counts: %+v", total)
	}
	if err := total.Validate(); err != nil {
		t.Errorf("Unexpected validation error: %v", err)
	}
}
