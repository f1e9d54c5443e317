package deck

import "sync"

// Stacked deals a fixed card sequence first-in-first-out and falls back to
// another source once the sequence is exhausted. It is meant for
// deterministic tests and replays.
type Stacked struct {
	mu       sync.Mutex
	queue    []Card
	fallback Source
}

// NewStacked returns a source that deals cards in order before asking
// fallback. fallback may be nil, in which case the source simply runs dry.
func NewStacked(fallback Source, cards ...Card) *Stacked {
	queue := make([]Card, len(cards))
	copy(queue, cards)
	return &Stacked{queue: queue, fallback: fallback}
}

// Push appends cards to the end of the fixed sequence
func (s *Stacked) Push(cards ...Card) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = append(s.queue, cards...)
}

// Return puts cards back on the front of the fixed sequence
func (s *Stacked) Return(cards ...Card) {
	if len(cards) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = append(append(make([]Card, 0, len(cards)+len(s.queue)), cards...), s.queue...)
}

// Pending returns how many fixed cards have not been dealt yet
func (s *Stacked) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Deal returns up to n cards, taking from the fixed sequence first
func (s *Stacked) Deal(n int) []Card {
	if n <= 0 {
		return []Card{}
	}

	s.mu.Lock()
	take := min(n, len(s.queue))
	cards := make([]Card, take, n)
	copy(cards, s.queue[:take])
	s.queue = s.queue[take:]
	s.mu.Unlock()

	if len(cards) < n && s.fallback != nil {
		cards = append(cards, s.fallback.Deal(n-len(cards))...)
	}
	return cards
}

// IsLow reports the fallback's state. Pending fixed cards keep the source
// from being rebuilt underneath a test.
func (s *Stacked) IsLow() bool {
	if s.Pending() > 0 {
		return false
	}
	if r, ok := s.fallback.(Reshuffler); ok {
		return r.IsLow()
	}
	return false
}

// Reshuffle rebuilds the fallback when it supports it
func (s *Stacked) Reshuffle(numberOfDecks int) {
	if r, ok := s.fallback.(Reshuffler); ok {
		r.Reshuffle(numberOfDecks)
	}
}
