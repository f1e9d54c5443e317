// Package statistics aggregates per-round results from simulated play.
package statistics

import (
	"fmt"
	"math"
	"slices"

	"github.com/lox/blackjack/internal/hand"
)

// RoundResult is the outcome of one round for the player
type RoundResult struct {
	Net       int // balance change over the round, insurance included
	Wager     int // opening bet
	Staked    int // every bet on the table at the end, doubles and splits included
	Insurance int
	Outcomes  []hand.Result

	Doubled     bool
	Split       bool
	Surrendered bool

	// Refill is money added to the bankroll before the round started
	Refill int
}

// Statistics tracks simulation results in betting units
type Statistics struct {
	Rounds  int
	SumNet  float64
	SumNet2 float64   // sum of squares for variance
	Values  []float64 // every net result, for median and percentiles

	Hands        int
	Outcomes     [6]int // indexed by hand.Result
	Wagered      int
	Staked       int
	NetUnits     int
	Doubles      int
	Splits       int
	Surrenders   int
	Insured      int
	InsuranceBet int

	Refills     int
	RefillUnits int

	// StartBalance and FinalBalance bracket the bankrolls played; every
	// unit is accounted for by NetUnits and RefillUnits.
	StartBalance int
	FinalBalance int
}

// Add incorporates a round result
func (s *Statistics) Add(r RoundResult) {
	net := float64(r.Net)
	s.Rounds++
	s.SumNet += net
	s.SumNet2 += net * net
	s.Values = append(s.Values, net)

	s.Hands += len(r.Outcomes)
	for _, o := range r.Outcomes {
		if int(o) >= 0 && int(o) < len(s.Outcomes) {
			s.Outcomes[o]++
		}
	}
	s.Wagered += r.Wager
	s.Staked += r.Staked
	s.NetUnits += r.Net
	if r.Doubled {
		s.Doubles++
	}
	if r.Split {
		s.Splits++
	}
	if r.Surrendered {
		s.Surrenders++
	}
	if r.Insurance > 0 {
		s.Insured++
		s.InsuranceBet += r.Insurance
	}
	if r.Refill > 0 {
		s.Refills++
		s.RefillUnits += r.Refill
	}
}

// Merge folds other into s. Balances add up, so a merged run covers the
// combined bankrolls of every session.
func (s *Statistics) Merge(other *Statistics) {
	if other == nil {
		return
	}
	s.Rounds += other.Rounds
	s.SumNet += other.SumNet
	s.SumNet2 += other.SumNet2
	s.Values = append(s.Values, other.Values...)
	s.Hands += other.Hands
	for i := range s.Outcomes {
		s.Outcomes[i] += other.Outcomes[i]
	}
	s.Wagered += other.Wagered
	s.Staked += other.Staked
	s.NetUnits += other.NetUnits
	s.Doubles += other.Doubles
	s.Splits += other.Splits
	s.Surrenders += other.Surrenders
	s.Insured += other.Insured
	s.InsuranceBet += other.InsuranceBet
	s.Refills += other.Refills
	s.RefillUnits += other.RefillUnits
	s.StartBalance += other.StartBalance
	s.FinalBalance += other.FinalBalance
}

// Mean returns the average net result per round
func (s *Statistics) Mean() float64 {
	if s.Rounds == 0 {
		return 0
	}
	return s.SumNet / float64(s.Rounds)
}

// Variance returns the sample variance of round results
func (s *Statistics) Variance() float64 {
	if s.Rounds < 2 {
		return 0
	}
	mean := s.Mean()
	return (s.SumNet2 - float64(s.Rounds)*mean*mean) / float64(s.Rounds-1)
}

// StdDev returns the sample standard deviation
func (s *Statistics) StdDev() float64 {
	return math.Sqrt(s.Variance())
}

// StdError returns the standard error of the mean
func (s *Statistics) StdError() float64 {
	if s.Rounds == 0 {
		return 0
	}
	return s.StdDev() / math.Sqrt(float64(s.Rounds))
}

// ConfidenceInterval95 returns the 95% confidence interval for the mean
func (s *Statistics) ConfidenceInterval95() (float64, float64) {
	mean := s.Mean()
	margin := 1.96 * s.StdError()
	return mean - margin, mean + margin
}

// Median returns the median round result
func (s *Statistics) Median() float64 {
	if len(s.Values) == 0 {
		return 0
	}
	sorted := slices.Clone(s.Values)
	slices.Sort(sorted)

	n := len(sorted)
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return sorted[n/2]
}

// Percentile returns the interpolated value at p, from 0.0 to 1.0
func (s *Statistics) Percentile(p float64) float64 {
	if len(s.Values) == 0 {
		return 0
	}
	sorted := slices.Clone(s.Values)
	slices.Sort(sorted)

	index := p * float64(len(sorted)-1)
	lower := int(index)
	upper := lower + 1
	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// Count returns how many hands ended with r
func (s *Statistics) Count(r hand.Result) int {
	if int(r) < 0 || int(r) >= len(s.Outcomes) {
		return 0
	}
	return s.Outcomes[r]
}

// Return returns the net result as a fraction of the opening wagers. A
// negative value is the house edge the strategy faced.
func (s *Statistics) Return() float64 {
	if s.Wagered == 0 {
		return 0
	}
	return float64(s.NetUnits) / float64(s.Wagered)
}

// IsLedgerBalanced reports whether start + net + refills equals the final
// balance, i.e. no money was created or destroyed.
func (s *Statistics) IsLedgerBalanced() bool {
	return s.StartBalance+s.NetUnits+s.RefillUnits == s.FinalBalance
}

// Validate checks the internal consistency of the statistics
func (s *Statistics) Validate() error {
	if !s.IsLedgerBalanced() {
		return fmt.Errorf("ledger mismatch: start=%d net=%d refills=%d final=%d",
			s.StartBalance, s.NetUnits, s.RefillUnits, s.FinalBalance)
	}
	if s.Rounds <= 0 {
		return fmt.Errorf("invalid rounds count: %d", s.Rounds)
	}
	if len(s.Values) != s.Rounds {
		return fmt.Errorf("values array length (%d) does not match rounds count (%d)", len(s.Values), s.Rounds)
	}
	if math.Abs(s.SumNet-float64(s.NetUnits)) > 1e-6 {
		return fmt.Errorf("net sum %.2f does not match net units %d", s.SumNet, s.NetUnits)
	}
	counted := 0
	for _, n := range s.Outcomes {
		counted += n
	}
	if counted != s.Hands {
		return fmt.Errorf("outcome total (%d) does not match hands (%d)", counted, s.Hands)
	}
	if s.Hands < s.Rounds {
		return fmt.Errorf("hands (%d) fewer than rounds (%d)", s.Hands, s.Rounds)
	}
	if s.Count(hand.Undefined) > 0 {
		return fmt.Errorf("%d hands were never settled", s.Count(hand.Undefined))
	}
	return nil
}
