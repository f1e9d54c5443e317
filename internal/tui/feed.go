package tui

import (
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/lox/blackjack/internal/round"
)

// Feed carries engine events to the TUI. Register Publish as the engine's
// event handler; the model consumes the other end.
type Feed struct {
	events  chan round.Event
	dropped atomic.Int64
}

// NewFeed creates a feed buffering up to size events
func NewFeed(size int) *Feed {
	return &Feed{events: make(chan round.Event, max(size, 1))}
}

// Publish queues ev without blocking. Events are advisory, so a full buffer
// drops them and the next snapshot still shows the right table.
func (f *Feed) Publish(ev round.Event) {
	select {
	case f.events <- ev:
	default:
		f.dropped.Add(1)
	}
}

// Dropped returns how many events were discarded on a full buffer
func (f *Feed) Dropped() int64 {
	return f.dropped.Load()
}

// wait returns a command that blocks for the next event
func (f *Feed) wait() tea.Cmd {
	return func() tea.Msg {
		return eventMsg(<-f.events)
	}
}

// drain returns every queued event without blocking
func (f *Feed) drain() []round.Event {
	var out []round.Event
	for {
		select {
		case ev := <-f.events:
			out = append(out, ev)
		default:
			return out
		}
	}
}
