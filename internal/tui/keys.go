package tui

import (
	"github.com/charmbracelet/bubbles/key"
)

type keyMap struct {
	Deal      key.Binding
	Hit       key.Binding
	Stand     key.Binding
	Double    key.Binding
	Split     key.Binding
	Surrender key.Binding
	Insure    key.Binding
	Decline   key.Binding
	Raise     key.Binding
	Lower     key.Binding
	Clear     key.Binding
	Refill    key.Binding
	NewGame   key.Binding
	ScrollUp  key.Binding
	ScrollDn  key.Binding
	Help      key.Binding
	Quit      key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Deal:      key.NewBinding(key.WithKeys("d", "enter"), key.WithHelp("d", "deal")),
		Hit:       key.NewBinding(key.WithKeys("h"), key.WithHelp("h", "hit")),
		Stand:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "stand")),
		Double:    key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "double")),
		Split:     key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "split")),
		Surrender: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "surrender")),
		Insure:    key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "insure")),
		Decline:   key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "no insurance")),
		Raise:     key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "raise bet")),
		Lower:     key.NewBinding(key.WithKeys("-", "_"), key.WithHelp("-", "lower bet")),
		Clear:     key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear bet")),
		Refill:    key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "refill")),
		NewGame:   key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("ctrl+n", "new game")),
		ScrollUp:  key.NewBinding(key.WithKeys("up", "k", "pgup"), key.WithHelp("↑/k", "scroll up")),
		ScrollDn:  key.NewBinding(key.WithKeys("down", "j", "pgdown"), key.WithHelp("↓/j", "scroll down")),
		Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more keys")),
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Deal, k.Hit, k.Stand, k.Double, k.Split, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Deal, k.Hit, k.Stand, k.Double},
		{k.Split, k.Surrender, k.Insure, k.Decline},
		{k.Raise, k.Lower, k.Clear, k.Refill},
		{k.NewGame, k.ScrollUp, k.ScrollDn, k.Help, k.Quit},
	}
}

// syncEnabled enables the bindings that are legal for the snapshot so the
// help line only advertises what can be pressed.
func (k *keyMap) syncEnabled(m *Model) {
	a := m.snap.Allowed
	between := m.snap.Stage.BetweenRounds()

	k.Deal.SetEnabled(a.CanStartRound)
	k.Hit.SetEnabled(a.CanHit)
	k.Stand.SetEnabled(a.CanStand)
	k.Double.SetEnabled(a.CanDoubleDown)
	k.Split.SetEnabled(a.CanSplit)
	k.Surrender.SetEnabled(a.CanSurrender)
	k.Insure.SetEnabled(a.CanTakeInsurance)
	k.Decline.SetEnabled(a.CanTakeInsurance)
	k.Raise.SetEnabled(between)
	k.Lower.SetEnabled(between)
	k.Clear.SetEnabled(between)
	k.Refill.SetEnabled(between && m.snap.ShowLost)
}
