package tui

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/blackjack/internal/bankroll"
	"github.com/lox/blackjack/internal/deck"
	"github.com/lox/blackjack/internal/round"
)

func newTestModel(t *testing.T, balance int, cards string, testMode bool) *Model {
	t.Helper()
	logger := log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})

	feed := NewFeed(64)
	ledger := bankroll.New(zerolog.Nop(), nil, balance)
	shoe := deck.NewStacked(nil, deck.MustParseCards(cards)...)
	engine := round.New(zerolog.Nop(), ledger, shoe, round.WithEventHandler(feed.Publish))
	return NewModelWithOptions(engine, feed, logger, testMode)
}

func press(t *testing.T, m *Model, keys ...string) {
	t.Helper()
	for _, k := range keys {
		require.NoError(t, m.InjectKey(k))
	}
}

func containsEntry(entries []string, substr string) bool {
	for _, e := range entries {
		if strings.Contains(e, substr) {
			return true
		}
	}
	return false
}

func TestTUITestMode(t *testing.T) {
	t.Run("test mode captures log entries", func(t *testing.T) {
		m := newTestModel(t, 1000, "", true)

		assert.True(t, m.IsTestMode())
		assert.Empty(t, m.GetCapturedLog())

		m.AddLogEntry("Dealer draws")
		m.AddBoldLogEntry("Round started")

		assert.Equal(t, []string{"Dealer draws", "Round started"}, m.GetCapturedLog())
	})

	t.Run("production mode does not capture logs", func(t *testing.T) {
		m := newTestModel(t, 1000, "", false)

		assert.False(t, m.IsTestMode())
		m.AddLogEntry("Some log entry")
		assert.Nil(t, m.GetCapturedLog())
	})

	t.Run("key injection fails in production mode", func(t *testing.T) {
		m := newTestModel(t, 1000, "", false)

		err := m.InjectKey("d")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "test mode")
	})
}

func TestPlayRoundWithKeys(t *testing.T) {
	m := newTestModel(t, 1000, "Th 9s 6d 7c Tc", true)

	press(t, m, "+", "+", "+", "+", "+")
	assert.Equal(t, 50, m.Snapshot().Pot)

	press(t, m, "d")
	s := m.Snapshot()
	require.Equal(t, round.StagePlayerTurn, s.Stage)
	assert.True(t, s.HoleHidden)
	assert.Len(t, s.Dealer, 1)

	press(t, m, "s")
	s = m.Snapshot()
	assert.Equal(t, round.StageNewRound, s.Stage)
	assert.Equal(t, 1050, s.Balance)
	assert.Equal(t, 50, s.LastDelta)
	assert.Empty(t, m.Status())

	captured := m.GetCapturedLog()
	assert.True(t, containsEntry(captured, "Dealt"), "log: %v", captured)
	assert.True(t, containsEntry(captured, "Stand on 16"), "log: %v", captured)
	assert.True(t, containsEntry(captured, "Dealer draws"), "log: %v", captured)
}

func TestDisabledKeysDoNothing(t *testing.T) {
	m := newTestModel(t, 1000, "Th 9s 6d 7c", true)

	press(t, m, "h", "s", "x", "p", "r", "i", "d")

	s := m.Snapshot()
	assert.Equal(t, round.StageIdle, s.Stage)
	assert.Equal(t, 1000, s.Balance)
	assert.Empty(t, m.GetCapturedLog())
	assert.Empty(t, m.Status())
}

func TestBetKeysClamp(t *testing.T) {
	m := newTestModel(t, 25, "", true)

	press(t, m, "+", "+", "+", "+")
	assert.Equal(t, 25, m.Snapshot().Pot)

	press(t, m, "-")
	assert.Equal(t, 15, m.Snapshot().Pot)

	press(t, m, "-", "-", "-")
	assert.Equal(t, 0, m.Snapshot().Pot)

	press(t, m, "+", "c")
	assert.Equal(t, 0, m.Snapshot().Pot)
}

func TestInsuranceKeys(t *testing.T) {
	t.Run("insure takes half the bet", func(t *testing.T) {
		m := newTestModel(t, 1000, "Th As 6d 7c", true)
		press(t, m, "+", "+", "+", "+", "+", "d")
		require.Equal(t, round.StageInsurancePrompt, m.Snapshot().Stage)
		assert.Contains(t, m.renderFooter(), "Insure for $25?")

		press(t, m, "i")
		s := m.Snapshot()
		assert.Equal(t, round.StagePlayerTurn, s.Stage)
		assert.Equal(t, 25, s.Insurance)
		assert.Equal(t, 925, s.Balance)
	})

	t.Run("decline", func(t *testing.T) {
		m := newTestModel(t, 1000, "Th As 6d 7c", true)
		press(t, m, "+", "+", "+", "+", "+", "d", "n")

		s := m.Snapshot()
		assert.Equal(t, round.StagePlayerTurn, s.Stage)
		assert.Zero(t, s.Insurance)
		assert.Equal(t, 950, s.Balance)
	})
}

func TestBrokeThenRefill(t *testing.T) {
	m := newTestModel(t, 50, "Th 9s 6d 7c 2c", true)

	press(t, m, "+", "+", "+", "+", "+", "d", "s")
	s := m.Snapshot()
	require.Equal(t, 0, s.Balance)
	assert.True(t, s.ShowLost)
	assert.True(t, containsEntry(m.GetCapturedLog(), "Out of money"))
	assert.Contains(t, m.renderSidebar(), "You're broke!")

	press(t, m, "f")
	s = m.Snapshot()
	assert.Equal(t, bankroll.DefaultBalance, s.Balance)
	assert.False(t, s.ShowLost)
	assert.True(t, containsEntry(m.GetCapturedLog(), "Balance refilled to 1000"))
}

func TestNewGameKey(t *testing.T) {
	m := newTestModel(t, 1000, "Th 9s 6d 7c", true)

	press(t, m, "+", "d", "ctrl+n")
	s := m.Snapshot()
	assert.Equal(t, round.StageIdle, s.Stage)
	assert.Equal(t, 1000, s.Balance)
	assert.Empty(t, s.Hands)
}

func TestProductionModeRunsActionsAsCommands(t *testing.T) {
	m := newTestModel(t, 1000, "", false)

	_, cmd := m.Update(keyPress("+"))
	require.NotNil(t, cmd)

	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		require.Len(t, batch, 1)
		msg = batch[0]()
	}
	done, ok := msg.(actionDoneMsg)
	require.True(t, ok, "got %T", msg)
	assert.Equal(t, round.ActionSetPot, done.action)
	require.NoError(t, done.err)

	m.Update(done)
	assert.Equal(t, DefaultBetStep, m.Snapshot().Pot)
}

func TestEventMessagesAppendToLog(t *testing.T) {
	m := newTestModel(t, 1000, "", true)

	_, cmd := m.Update(eventMsg(round.Event{Type: round.EventDealerDraw, Message: "Dealer draws 5♠, now 21"}))
	assert.NotNil(t, cmd)
	assert.Equal(t, []string{"Dealer draws 5♠, now 21"}, m.GetCapturedLog())
}

func TestQuitKey(t *testing.T) {
	m := newTestModel(t, 1000, "", false)

	_, cmd := m.Update(keyPress("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, m.View())
}

func TestView(t *testing.T) {
	m := newTestModel(t, 1000, "Th 9s 6d 7c", true)
	assert.Equal(t, "Loading...", m.View())

	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	press(t, m, "+", "d")

	view := m.View()
	assert.Contains(t, view, "Blackjack")
	assert.Contains(t, view, "Balance: $990")
	assert.Contains(t, view, "??")
	assert.Contains(t, view, "Your move")
}

func TestDescribeError(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&round.ActionError{Action: round.ActionHit, Err: round.ErrBusy}, "Please wait for the dealer"},
		{fmt.Errorf("split: %w", round.ErrInsufficientFunds), "Not enough money for that"},
		{round.ErrShoeEmpty, "The shoe is empty"},
		{&round.ActionError{Action: round.ActionDoubleDown, Reason: "hand already has three cards", Err: round.ErrInvalidAction}, "Can't double down: hand already has three cards"},
		{errors.New("boom"), "boom"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, describeError(tt.err))
	}
}

func TestFeedDropsWhenFull(t *testing.T) {
	f := NewFeed(1)
	f.Publish(round.Event{Message: "one"})
	f.Publish(round.Event{Message: "two"})

	assert.Equal(t, int64(1), f.Dropped())
	events := f.drain()
	require.Len(t, events, 1)
	assert.Equal(t, "one", events[0].Message)
}
