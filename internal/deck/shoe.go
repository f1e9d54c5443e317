package deck

import (
	rand "math/rand/v2"
	"sync"
)

const (
	// CardsPerDeck is the size of one standard deck
	CardsPerDeck = 52

	// LowCardThreshold is the remaining-card count under which a shoe is
	// considered low and is rebuilt before the next round.
	LowCardThreshold = 15
)

// Source hands out cards. Deal returns at most n cards and fewer when the
// source runs short; it never fails.
type Source interface {
	Deal(n int) []Card
}

// Reshuffler is implemented by sources that can report a low card count and
// rebuild themselves.
type Reshuffler interface {
	IsLow() bool
	Reshuffle(numberOfDecks int)
}

// Returner is implemented by sources that can take undealt cards back. The
// returned cards are dealt next, in the order given.
type Returner interface {
	Return(cards ...Card)
}

// Shoe is a shuffled multi-deck card source. It is safe for concurrent use.
type Shoe struct {
	mu        sync.RWMutex
	cards     []Card
	rng       *rand.Rand
	threshold int
}

// ShoeOption configures a Shoe
type ShoeOption func(*Shoe)

// WithThreshold overrides LowCardThreshold
func WithThreshold(n int) ShoeOption {
	return func(s *Shoe) {
		s.threshold = n
	}
}

// NewShoe creates a shoe of numberOfDecks freshly shuffled decks. The RNG is
// required so that shuffles are reproducible under a fixed seed.
func NewShoe(rng *rand.Rand, numberOfDecks int, opts ...ShoeOption) *Shoe {
	if rng == nil {
		panic("rng is required for shoe creation")
	}
	s := &Shoe{
		rng:       rng,
		threshold: LowCardThreshold,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Reshuffle(numberOfDecks)
	return s
}

// Deal removes and returns up to n cards from the front of the shoe
func (s *Shoe) Deal(n int) []Card {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n <= 0 {
		return []Card{}
	}
	if n > len(s.cards) {
		n = len(s.cards)
	}

	cards := make([]Card, n)
	copy(cards, s.cards[:n])
	s.cards = s.cards[n:]
	return cards
}

// Return puts cards back on the front of the shoe
func (s *Shoe) Return(cards ...Card) {
	if len(cards) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cards = append(append(make([]Card, 0, len(cards)+len(s.cards)), cards...), s.cards...)
}

// Remaining returns the number of cards left in the shoe
func (s *Shoe) Remaining() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cards)
}

// IsLow returns true when fewer than the threshold cards remain
func (s *Shoe) IsLow() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cards) < s.threshold
}

// Reshuffle replaces the shoe with 52 * numberOfDecks new cards in random
// order. Cards dealt before the reshuffle are not affected.
func (s *Shoe) Reshuffle(numberOfDecks int) {
	if numberOfDecks < 1 {
		numberOfDecks = 1
	}
	cards := make([]Card, 0, CardsPerDeck*numberOfDecks)
	for range numberOfDecks {
		for suit := Spades; suit <= Clubs; suit++ {
			for rank := Two; rank <= Ace; rank++ {
				cards = append(cards, NewCard(suit, rank))
			}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.rng.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
	s.cards = cards
}
