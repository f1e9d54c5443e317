package deck

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// Suit represents a card suit
type Suit int

const (
	Spades Suit = iota
	Hearts
	Diamonds
	Clubs
)

// String returns the string representation of a suit
func (s Suit) String() string {
	switch s {
	case Spades:
		return "♠"
	case Hearts:
		return "♥"
	case Diamonds:
		return "♦"
	case Clubs:
		return "♣"
	default:
		return "?"
	}
}

// IsRed returns true if the suit is red (Hearts or Diamonds)
func (s Suit) IsRed() bool {
	return s == Hearts || s == Diamonds
}

// Rank represents a card rank
type Rank int

const (
	Two Rank = iota + 2
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Ace
)

// String returns the string representation of a rank
func (r Rank) String() string {
	switch {
	case r >= Two && r <= Nine:
		return fmt.Sprintf("%d", int(r))
	case r == Ten:
		return "10"
	case r == Jack:
		return "J"
	case r == Queen:
		return "Q"
	case r == King:
		return "K"
	case r == Ace:
		return "A"
	default:
		return "?"
	}
}

// Points returns the blackjack point value of the rank. Aces count 1 here;
// hand evaluation decides whether one of them is promoted to 11.
func (r Rank) Points() int {
	switch {
	case r == Ace:
		return 1
	case r >= Ten:
		return 10
	default:
		return int(r)
	}
}

// Values returns every point value the rank can take.
func (r Rank) Values() []int {
	if r == Ace {
		return []int{1, 11}
	}
	return []int{r.Points()}
}

// CardID uniquely identifies a physical card for the lifetime of the process.
type CardID uint64

var lastID atomic.Uint64

func nextID() CardID {
	return CardID(lastID.Add(1))
}

// Card represents a playing card. Two cards are the same card only when
// their IDs match; six aces of spades in a six deck shoe are six cards.
type Card struct {
	ID   CardID
	Suit Suit
	Rank Rank

	// FaceDown is a presentation hint and never affects evaluation.
	FaceDown bool
}

// NewCard creates a new card with a fresh identity
func NewCard(suit Suit, rank Rank) Card {
	return Card{ID: nextID(), Suit: suit, Rank: rank}
}

// String returns the string representation of a card (e.g., "A♠")
func (c Card) String() string {
	return fmt.Sprintf("%s%s", c.Rank, c.Suit)
}

// IsRed returns true if the card is red
func (c Card) IsRed() bool {
	return c.Suit.IsRed()
}

// IsAce returns true if the card is an Ace
func (c Card) IsAce() bool {
	return c.Rank == Ace
}

// Same reports whether c and other are the same physical card.
func (c Card) Same(other Card) bool {
	return c.ID == other.ID
}

// ParseCards parses a compact card list such as "AhKd10s" or "Ah Kd Ts".
// Ranks are 2-9, T or 10, J, Q, K, A; suits are s, h, d, c. Every parsed
// card gets a fresh identity.
func ParseCards(input string) ([]Card, error) {
	s := strings.ToLower(strings.Join(strings.Fields(input), ""))
	cards := []Card{}
	for len(s) > 0 {
		var rank Rank
		switch {
		case strings.HasPrefix(s, "10"):
			rank = Ten
			s = s[2:]
		default:
			r, ok := parseRank(s[0])
			if !ok {
				return nil, fmt.Errorf("invalid rank %q", s[0])
			}
			rank = r
			s = s[1:]
		}
		if len(s) == 0 {
			return nil, fmt.Errorf("missing suit after rank %s", rank)
		}
		suit, ok := parseSuit(s[0])
		if !ok {
			return nil, fmt.Errorf("invalid suit %q", s[0])
		}
		s = s[1:]
		cards = append(cards, NewCard(suit, rank))
	}
	return cards, nil
}

// MustParseCards is like ParseCards but panics on error
func MustParseCards(input string) []Card {
	cards, err := ParseCards(input)
	if err != nil {
		panic(err)
	}
	return cards
}

func parseRank(b byte) (Rank, bool) {
	switch b {
	case 't':
		return Ten, true
	case 'j':
		return Jack, true
	case 'q':
		return Queen, true
	case 'k':
		return King, true
	case 'a':
		return Ace, true
	}
	if b >= '2' && b <= '9' {
		return Rank(b - '0'), true
	}
	return 0, false
}

func parseSuit(b byte) (Suit, bool) {
	switch b {
	case 's':
		return Spades, true
	case 'h':
		return Hearts, true
	case 'd':
		return Diamonds, true
	case 'c':
		return Clubs, true
	}
	return 0, false
}
