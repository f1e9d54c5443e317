package hand

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrNoSuchHand is returned for an index outside the active hand list
var ErrNoSuchHand = errors.New("no such hand")

// Round is an archived, finished round
type Round struct {
	ID        string
	PlayedAt  time.Time
	Hands     []Hand
	Dealer    Hand
	Insurance int
	Delta     int
}

// Store owns the active player hands, the dealer hand and the archive of
// finished rounds. Every method is safe for concurrent use; readers always
// receive copies.
type Store struct {
	mu      sync.RWMutex
	hands   []Hand
	dealer  Hand
	archive []Round
	limit   int
}

// NewStore creates an empty store keeping at most historyLimit archived
// rounds. A limit of zero keeps everything.
func NewStore(historyLimit int) *Store {
	return &Store{limit: historyLimit}
}

// Count returns the number of active hands
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.hands)
}

// Hands returns a copy of the active hands in order
func (s *Store) Hands() []Hand {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(s.hands)
}

// Hand returns a copy of the hand at index i
func (s *Store) Hand(i int) (Hand, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i < 0 || i >= len(s.hands) {
		return Hand{}, fmt.Errorf("%w: index %d of %d", ErrNoSuchHand, i, len(s.hands))
	}
	return s.hands[i].Clone(), nil
}

// Update applies fn to the hand at index i under the write lock
func (s *Store) Update(i int, fn func(*Hand)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.hands) {
		return fmt.Errorf("%w: index %d of %d", ErrNoSuchHand, i, len(s.hands))
	}
	fn(&s.hands[i])
	return nil
}

// Append adds a hand at the end of the list
func (s *Store) Append(h Hand) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hands = append(s.hands, h.Clone())
}

// Insert puts h at index i, shifting later hands right
func (s *Store) Insert(i int, h Hand) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i > len(s.hands) {
		return fmt.Errorf("%w: insert at %d of %d", ErrNoSuchHand, i, len(s.hands))
	}
	s.hands = append(s.hands, Hand{})
	copy(s.hands[i+1:], s.hands[i:])
	s.hands[i] = h.Clone()
	return nil
}

// Remove deletes the hand at index i, shifting later hands left
func (s *Store) Remove(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.hands) {
		return fmt.Errorf("%w: index %d of %d", ErrNoSuchHand, i, len(s.hands))
	}
	s.hands = append(s.hands[:i], s.hands[i+1:]...)
	return nil
}

// Replace swaps the hand at index i for the given hands in one step. A
// split replaces one hand with two.
func (s *Store) Replace(i int, hands ...Hand) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.hands) {
		return fmt.Errorf("%w: index %d of %d", ErrNoSuchHand, i, len(s.hands))
	}
	next := make([]Hand, 0, len(s.hands)-1+len(hands))
	next = append(next, s.hands[:i]...)
	next = append(next, cloneAll(hands)...)
	next = append(next, s.hands[i+1:]...)
	s.hands = next
	return nil
}

// TotalBet returns the sum of every active hand's bet
func (s *Store) TotalBet() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := 0
	for _, h := range s.hands {
		total += h.Bet
	}
	return total
}

// Dealer returns a copy of the dealer hand
func (s *Store) Dealer() Hand {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dealer.Clone()
}

// UpdateDealer applies fn to the dealer hand under the write lock
func (s *Store) UpdateDealer(fn func(*Hand)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.dealer)
}

// Reset replaces the active hands and clears the dealer hand
func (s *Store) Reset(hands ...Hand) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hands = cloneAll(hands)
	s.dealer = Hand{}
}

// Archive moves the active hands and dealer hand into the history under the
// given round record and clears them. Nothing is archived when no hands are
// active.
func (s *Store) Archive(r Round) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.hands) == 0 {
		return false
	}
	r.Hands = cloneAll(s.hands)
	r.Dealer = s.dealer.Clone()
	s.archive = append(s.archive, r)
	if s.limit > 0 && len(s.archive) > s.limit {
		s.archive = append([]Round(nil), s.archive[len(s.archive)-s.limit:]...)
	}
	s.hands = nil
	s.dealer = Hand{}
	return true
}

// History returns the archived rounds, oldest first
func (s *Store) History() []Round {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Round, len(s.archive))
	for i, r := range s.archive {
		r.Hands = cloneAll(r.Hands)
		r.Dealer = r.Dealer.Clone()
		out[i] = r
	}
	return out
}

// Clear drops active hands, the dealer hand and the history
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hands = nil
	s.dealer = Hand{}
	s.archive = nil
}

func cloneAll(hands []Hand) []Hand {
	out := make([]Hand, len(hands))
	for i, h := range hands {
		out[i] = h.Clone()
	}
	return out
}
