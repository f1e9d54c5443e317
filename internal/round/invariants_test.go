package round

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/blackjack/internal/bankroll"
	"github.com/lox/blackjack/internal/deck"
	"github.com/lox/blackjack/internal/randutil"
)

// TestRandomPlayKeepsInvariants plays seeded rounds choosing uniformly among
// the allowed actions and checks the money rules after every step.
func TestRandomPlayKeepsInvariants(t *testing.T) {
	for seed := int64(1); seed <= 5; seed++ {
		rng := randutil.New(seed)
		shoe := deck.NewShoe(randutil.New(seed+100), 2, deck.WithThreshold(60))
		ledger := bankroll.New(zerolog.Nop(), nil, 500)
		e := New(zerolog.Nop(), ledger, shoe)

		for round := 0; round < 60; round++ {
			s := e.Snapshot()
			if s.ShowLost || s.Balance == 0 {
				require.NoError(t, e.RefillBalance())
			}
			_, err := e.SetPot(10 + rng.IntN(60))
			require.NoError(t, err)

			opening := e.Snapshot().Balance
			require.NoError(t, e.StartRound())

			for steps := 0; e.Stage() != StageNewRound; steps++ {
				require.Less(t, steps, 50, "round must terminate")
				s := e.Snapshot()
				assertInvariants(t, s)
				require.NoError(t, randomAction(e, s, rng.IntN))
			}

			s = e.Snapshot()
			assertInvariants(t, s)
			assert.Equal(t, opening+s.LastDelta, s.Balance, "seed %d round %d", seed, round)
			for i, h := range s.Hands {
				assert.True(t, h.HasResult(), "seed %d round %d hand %d unsettled", seed, round, i)
			}
		}
	}
}

func randomAction(e *Engine, s Snapshot, intn func(int) int) error {
	if s.Allowed.CanTakeInsurance {
		return e.TakeInsurance(intn(s.Hands[0].Bet/2 + 1))
	}
	var options []func() error
	if s.Allowed.CanHit {
		options = append(options, e.Hit, e.Hit)
	}
	if s.Allowed.CanStand {
		options = append(options, e.Stand, e.Stand)
	}
	if s.Allowed.CanDoubleDown {
		options = append(options, e.DoubleDown)
	}
	if s.Allowed.CanSplit {
		options = append(options, e.Split, e.Split)
	}
	if s.Allowed.CanSurrender {
		options = append(options, e.Surrender)
	}
	return options[intn(len(options))]()
}
