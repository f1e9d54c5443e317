// Package tui is the Bubble Tea front end for a blackjack table.
package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/lox/blackjack/internal/round"
)

// DefaultBetStep is how much +/- changes the wager
const DefaultBetStep = 10

// Model is the Bubble Tea model for a single player table
type Model struct {
	engine *round.Engine
	feed   *Feed
	logger *log.Logger

	// UI components
	keys        keyMap
	help        help.Model
	logViewport viewport.Model

	// State
	snap     round.Snapshot
	gameLog  []string
	status   string
	betStep  int
	quitting bool

	// Dimensions
	width       int
	height      int
	initialized bool

	// Test mode
	testMode    bool
	capturedLog []string
}

type eventMsg round.Event

// actionDoneMsg reports the outcome of an engine action run off the UI
// goroutine
type actionDoneMsg struct {
	action round.Action
	err    error
}

// command is an engine action bound to a key
type command struct {
	action round.Action
	run    func() error
}

// NewModel creates a model over engine. feed must be the engine's event
// handler.
func NewModel(engine *round.Engine, feed *Feed, logger *log.Logger) *Model {
	return NewModelWithOptions(engine, feed, logger, false)
}

// NewModelWithOptions creates a model with test mode option. In test mode
// actions run synchronously and log entries are captured.
func NewModelWithOptions(engine *round.Engine, feed *Feed, logger *log.Logger, testMode bool) *Model {
	vp := viewport.New(10, 5)
	vp.SetContent("")

	m := &Model{
		engine:      engine,
		feed:        feed,
		logger:      logger.WithPrefix("tui"),
		keys:        defaultKeyMap(),
		help:        help.New(),
		logViewport: vp,
		gameLog:     []string{},
		betStep:     DefaultBetStep,
		testMode:    testMode,
		capturedLog: []string{},
	}
	m.refresh()
	return m
}

// Init starts listening for engine events
func (m *Model) Init() tea.Cmd {
	m.engine.CheckIfLost()
	return m.feed.wait()
}

// Update handles messages in the TUI
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.logger.Debug("Updating dimensions", "width", m.width, "height", m.height)

	case eventMsg:
		m.addEvent(round.Event(msg))
		m.refresh()
		cmds = append(cmds, m.feed.wait())

	case actionDoneMsg:
		m.finishAction(msg.action, msg.err)

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		case key.Matches(msg, m.keys.ScrollUp):
			m.logViewport.ScrollUp(1)
		case key.Matches(msg, m.keys.ScrollDn):
			m.logViewport.ScrollDown(1)
		default:
			if c, ok := m.commandFor(msg); ok {
				cmds = append(cmds, m.perform(c))
			}
		}
	}

	return m, tea.Batch(cmds...)
}

// commandFor maps a key press to an engine action
func (m *Model) commandFor(msg tea.KeyMsg) (command, bool) {
	e := m.engine
	k := m.keys

	switch {
	case key.Matches(msg, k.Deal):
		return command{round.ActionStartRound, e.StartRound}, true
	case key.Matches(msg, k.Hit):
		return command{round.ActionHit, e.Hit}, true
	case key.Matches(msg, k.Stand):
		return command{round.ActionStand, e.Stand}, true
	case key.Matches(msg, k.Double):
		return command{round.ActionDoubleDown, e.DoubleDown}, true
	case key.Matches(msg, k.Split):
		return command{round.ActionSplit, e.Split}, true
	case key.Matches(msg, k.Surrender):
		return command{round.ActionSurrender, e.Surrender}, true
	case key.Matches(msg, k.Insure):
		amount := m.fullInsurance()
		return command{round.ActionTakeInsurance, func() error { return e.TakeInsurance(amount) }}, true
	case key.Matches(msg, k.Decline):
		return command{round.ActionTakeInsurance, func() error { return e.TakeInsurance(0) }}, true
	case key.Matches(msg, k.Raise):
		return m.betCommand(m.snap.Pot + m.betStep), true
	case key.Matches(msg, k.Lower):
		return m.betCommand(m.snap.Pot - m.betStep), true
	case key.Matches(msg, k.Clear):
		return command{round.ActionClearPot, e.ClearPot}, true
	case key.Matches(msg, k.Refill):
		return command{round.ActionRefill, e.RefillBalance}, true
	case key.Matches(msg, k.NewGame):
		return command{round.ActionResetGame, e.ResetGame}, true
	}
	return command{}, false
}

func (m *Model) betCommand(amount int) command {
	return command{round.ActionSetPot, func() error {
		_, err := m.engine.SetPot(max(amount, 0))
		return err
	}}
}

func (m *Model) fullInsurance() int {
	if len(m.snap.Hands) == 0 {
		return 0
	}
	return m.snap.Hands[0].Bet / 2
}

// perform runs c off the UI goroutine so dealer pacing never blocks
// rendering. In test mode it runs inline.
func (m *Model) perform(c command) tea.Cmd {
	m.logger.Debug("Performing action", "action", c.action)
	if m.testMode {
		m.finishAction(c.action, c.run())
		return nil
	}
	return func() tea.Msg {
		return actionDoneMsg{action: c.action, err: c.run()}
	}
}

func (m *Model) finishAction(a round.Action, err error) {
	if m.testMode {
		for _, ev := range m.feed.drain() {
			m.addEvent(ev)
		}
	}

	m.status = ""
	if err != nil {
		m.logger.Debug("Action rejected", "action", a, "error", err)
		m.status = describeError(err)
	}

	if m.engine.Stage().BetweenRounds() {
		m.engine.CheckIfLost()
		if m.testMode {
			for _, ev := range m.feed.drain() {
				m.addEvent(ev)
			}
		}
	}
	m.refresh()
}

func describeError(err error) string {
	var ae *round.ActionError
	switch {
	case errors.Is(err, round.ErrBusy):
		return "Please wait for the dealer"
	case errors.Is(err, round.ErrInsufficientFunds):
		return "Not enough money for that"
	case errors.Is(err, round.ErrShoeEmpty):
		return "The shoe is empty"
	case errors.As(err, &ae) && ae.Reason != "":
		return fmt.Sprintf("Can't %s: %s", strings.ReplaceAll(string(ae.Action), "_", " "), ae.Reason)
	}
	return err.Error()
}

func (m *Model) refresh() {
	m.snap = m.engine.Snapshot()
	m.keys.syncEnabled(m)
}

func (m *Model) addEvent(ev round.Event) {
	m.logger.Debug("Event", "type", ev.Type, "round", ev.RoundID, "message", ev.Message)
	switch ev.Type {
	case round.EventRoundStarted, round.EventReset:
		m.AddBoldLogEntry(ev.Message)
	default:
		m.AddLogEntry(ev.Message)
	}
}

// AddLogEntry adds an entry to the game log
func (m *Model) AddLogEntry(entry string) {
	m.gameLog = append(m.gameLog, entry)

	if m.testMode {
		m.capturedLog = append(m.capturedLog, entry)
		return
	}

	m.logViewport.SetContent(strings.Join(m.gameLog, "\n"))
	if m.logViewport.Height > 0 && m.logViewport.Width > 0 {
		m.logViewport.GotoBottom()
	}
}

// AddBoldLogEntry adds an entry styled as a heading
func (m *Model) AddBoldLogEntry(entry string) {
	if m.testMode {
		m.gameLog = append(m.gameLog, entry)
		m.capturedLog = append(m.capturedLog, entry)
		return
	}
	m.AddLogEntry(fmt.Sprintf("\033[1m%s\033[0m", entry))
}

// ClearLog clears the game log
func (m *Model) ClearLog() {
	m.gameLog = []string{}
	m.logViewport.SetContent("")
}

// Snapshot returns the table state the model last rendered
func (m *Model) Snapshot() round.Snapshot {
	return m.snap
}

// Status returns the message shown for the last rejected action
func (m *Model) Status() string {
	return m.status
}

// GetCapturedLog returns the captured log entries (test mode only)
func (m *Model) GetCapturedLog() []string {
	if !m.testMode {
		return nil
	}
	result := make([]string, len(m.capturedLog))
	copy(result, m.capturedLog)
	return result
}

// InjectKey presses key k as if typed (test mode only)
func (m *Model) InjectKey(k string) error {
	if !m.testMode {
		return fmt.Errorf("key injection only available in test mode")
	}
	m.Update(keyPress(k))
	return nil
}

// IsTestMode returns whether the TUI is in test mode
func (m *Model) IsTestMode() bool {
	return m.testMode
}

func keyPress(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	case "ctrl+n":
		return tea.KeyMsg{Type: tea.KeyCtrlN}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}
