// Package simulator plays many rounds with a fixed strategy across
// independent parallel sessions.
package simulator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/coder/quartz"
	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/lox/blackjack/internal/bankroll"
	"github.com/lox/blackjack/internal/deck"
	"github.com/lox/blackjack/internal/hand"
	"github.com/lox/blackjack/internal/randutil"
	"github.com/lox/blackjack/internal/round"
	"github.com/lox/blackjack/internal/statistics"
	"github.com/lox/blackjack/internal/storage"
)

// maxActionsPerRound bounds a round so a faulty strategy cannot spin
const maxActionsPerRound = 200

// Config holds configuration for running simulations
type Config struct {
	Sessions int
	Rounds   int // per session
	Wager    int
	Seed     int64
	Workers  int
	Rules    round.Rules
	Strategy Strategy

	// ReshuffleThreshold overrides deck.LowCardThreshold when positive
	ReshuffleThreshold int

	// Timeout bounds the whole run; zero means none
	Timeout time.Duration
	Logger  zerolog.Logger
}

// Simulator runs blackjack sessions
type Simulator struct {
	config Config
}

// New creates a simulator, filling unset values with defaults
func New(config Config) *Simulator {
	if config.Sessions <= 0 {
		config.Sessions = 1
	}
	if config.Workers <= 0 {
		config.Workers = 4
	}
	if config.Wager <= 0 {
		config.Wager = 10
	}
	if config.Strategy == nil {
		config.Strategy = Basic
	}
	if config.Rules == (round.Rules{}) {
		config.Rules = round.DefaultRules()
	}
	return &Simulator{config: config}
}

// Run plays every session and returns the merged statistics. Sessions
// derive their shoe seeds from the base seed, so a run is reproducible
// regardless of scheduling.
func (s *Simulator) Run(ctx context.Context) (*statistics.Statistics, error) {
	if s.config.Rounds <= 0 {
		return nil, errors.New("rounds must be positive")
	}
	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}

	results := make([]*statistics.Statistics, s.config.Sessions)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.Workers)

	for i := 0; i < s.config.Sessions; i++ {
		g.Go(func() error {
			stats, err := s.playSession(ctx, i)
			if err != nil {
				return fmt.Errorf("session %d: %w", i, err)
			}
			results[i] = stats
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := &statistics.Statistics{}
	for _, r := range results {
		total.Merge(r)
	}
	if err := total.Validate(); err != nil {
		return nil, fmt.Errorf("statistics validation failed: %w", err)
	}
	return total, nil
}

func (s *Simulator) playSession(ctx context.Context, session int) (*statistics.Statistics, error) {
	seed := randutil.Derive(s.config.Seed, session)
	logger := s.config.Logger.With().Int("session", session).Int64("seed", seed).Logger()
	rules := s.config.Rules

	store := storage.NewMemory()
	defer store.Close()
	ledger := bankroll.New(logger, store, rules.StartingBalance)
	if err := ledger.Load(ctx); err != nil {
		return nil, err
	}

	var opts []deck.ShoeOption
	if s.config.ReshuffleThreshold > 0 {
		opts = append(opts, deck.WithThreshold(s.config.ReshuffleThreshold))
	}
	shoe := deck.NewShoe(randutil.New(seed), rules.Decks, opts...)
	rules.DealerDelay = 0
	engine := round.New(logger, ledger, shoe, round.WithRules(rules), round.WithClock(quartz.NewReal()))

	stats := &statistics.Statistics{StartBalance: ledger.Balance()}
	for r := 0; r < s.config.Rounds; r++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result, err := s.playRound(engine)
		if err != nil {
			return nil, fmt.Errorf("round %d: %w", r, err)
		}
		stats.Add(result)
	}
	stats.FinalBalance = ledger.Balance()

	logger.Debug().
		Int("rounds", stats.Rounds).
		Int("net", stats.NetUnits).
		Int("refills", stats.Refills).
		Msg("Session finished")
	return stats, nil
}

func (s *Simulator) playRound(e *round.Engine) (statistics.RoundResult, error) {
	var result statistics.RoundResult

	if e.Snapshot().Balance == 0 {
		if err := e.RefillBalance(); err != nil {
			return result, err
		}
		result.Refill = e.Snapshot().Balance
	}
	if _, err := e.SetPot(s.config.Wager); err != nil {
		return result, err
	}

	opening := e.Snapshot().Balance
	if err := e.StartRound(); err != nil {
		return result, err
	}
	result.Wager = e.Snapshot().Hands[0].Bet

	for n := 0; ; n++ {
		snap := e.Snapshot()
		if snap.Stage == round.StageNewRound {
			break
		}
		if n >= maxActionsPerRound {
			return result, fmt.Errorf("round did not finish after %d actions", n)
		}
		var err error
		switch {
		case snap.Allowed.CanTakeInsurance:
			err = e.TakeInsurance(0)
		case snap.Stage == round.StagePlayerTurn:
			move := s.config.Strategy.Decide(snap)
			switch move {
			case MoveDouble:
				result.Doubled = true
			case MoveSplit:
				result.Split = true
			case MoveSurrender:
				result.Surrendered = true
			}
			err = apply(e, move)
			if errors.Is(err, round.ErrShoeEmpty) {
				err = e.Stand()
			}
		default:
			err = fmt.Errorf("unexpected stage %s", snap.Stage)
		}
		if err != nil {
			return result, err
		}
	}

	snap := e.Snapshot()
	result.Net = snap.Balance - opening
	result.Staked = snap.Staked
	result.Insurance = snap.Insurance
	result.Outcomes = make([]hand.Result, len(snap.Hands))
	for i, h := range snap.Hands {
		result.Outcomes[i] = h.Result
	}
	return result, nil
}

// PrintSummary writes a human readable summary of stats to w
func PrintSummary(w io.Writer, stats *statistics.Statistics, wager int) {
	low, high := stats.ConfidenceInterval95()

	fmt.Fprintf(w, "\n=== RESULTS ===\n")
	fmt.Fprintf(w, "Rounds played: %s (%s hands)\n", humanize.Comma(int64(stats.Rounds)), humanize.Comma(int64(stats.Hands)))
	fmt.Fprintf(w, "Wagered: %s units, staked with doubles and splits: %s units\n",
		humanize.Comma(int64(stats.Wagered)), humanize.Comma(int64(stats.Staked)))
	fmt.Fprintf(w, "Net: %s units (%.3f%% of wagers)\n", humanize.Comma(int64(stats.NetUnits)), stats.Return()*100)

	fmt.Fprintf(w, "\n=== PER ROUND ===\n")
	fmt.Fprintf(w, "Mean: %.4f units (%.4f bets)\n", stats.Mean(), stats.Mean()/float64(max(wager, 1)))
	fmt.Fprintf(w, "Median: %.2f units\n", stats.Median())
	fmt.Fprintf(w, "Std Dev: %.4f units\n", stats.StdDev())
	fmt.Fprintf(w, "Std Error: %.4f units\n", stats.StdError())
	fmt.Fprintf(w, "95%% CI: [%.4f, %.4f] units\n", low, high)
	fmt.Fprintf(w, "Percentiles: P5=%.1f, P25=%.1f, P75=%.1f, P95=%.1f\n",
		stats.Percentile(0.05), stats.Percentile(0.25), stats.Percentile(0.75), stats.Percentile(0.95))

	fmt.Fprintf(w, "\n=== OUTCOMES ===\n")
	for _, r := range []hand.Result{hand.BlackjackWin, hand.Win, hand.Push, hand.Lose, hand.Bust} {
		n := stats.Count(r)
		pct := 0.0
		if stats.Hands > 0 {
			pct = float64(n) / float64(stats.Hands) * 100
		}
		fmt.Fprintf(w, "%-9s %8s (%.1f%%)\n", r.String()+":", humanize.Comma(int64(n)), pct)
	}
	fmt.Fprintf(w, "Doubles: %d, splits: %d, surrenders: %d, insured: %d\n",
		stats.Doubles, stats.Splits, stats.Surrenders, stats.Insured)

	fmt.Fprintf(w, "\n=== LEDGER ===\n")
	fmt.Fprintf(w, "Start %s + net %s + refills %s = final %s (%d refills)\n",
		humanize.Comma(int64(stats.StartBalance)),
		humanize.Comma(int64(stats.NetUnits)),
		humanize.Comma(int64(stats.RefillUnits)),
		humanize.Comma(int64(stats.FinalBalance)),
		stats.Refills)
}
