package deck

import "testing"

func TestParseCards(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		input    string
		expected []Card
		wantErr  bool
	}{
		{
			name:  "ace king",
			input: "AsKh",
			expected: []Card{
				{Suit: Spades, Rank: Ace},
				{Suit: Hearts, Rank: King},
			},
		},
		{
			name:  "ten as T and 10",
			input: "Td10c",
			expected: []Card{
				{Suit: Diamonds, Rank: Ten},
				{Suit: Clubs, Rank: Ten},
			},
		},
		{
			name:  "whitespace and case",
			input: "ah 5D  ac",
			expected: []Card{
				{Suit: Hearts, Rank: Ace},
				{Suit: Diamonds, Rank: Five},
				{Suit: Clubs, Rank: Ace},
			},
		},
		{
			name:    "invalid rank",
			input:   "XsKs",
			wantErr: true,
		},
		{
			name:    "invalid suit",
			input:   "AsKx",
			wantErr: true,
		},
		{
			name:    "missing suit",
			input:   "AsK",
			wantErr: true,
		},
		{
			name:    "lone one",
			input:   "1s",
			wantErr: true,
		},
		{
			name:     "empty string",
			input:    "",
			expected: []Card{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCards(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseCards() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && !sameFaces(got, tt.expected) {
				t.Errorf("ParseCards() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestMustParseCards(t *testing.T) {
	cards := MustParseCards("AsKs")
	if len(cards) != 2 {
		t.Fatalf("MustParseCards() returned %d cards, want 2", len(cards))
	}

	defer func() {
		if r := recover(); r == nil {
			t.Error("MustParseCards() should panic on invalid input")
		}
	}()
	MustParseCards("invalid")
}

func TestCardIdentity(t *testing.T) {
	t.Parallel()
	a := NewCard(Spades, Ace)
	b := NewCard(Spades, Ace)

	if a.Same(b) {
		t.Error("two aces of spades must be distinct cards")
	}
	if !a.Same(a) {
		t.Error("a card must be the same as itself")
	}
	if a.ID == 0 || b.ID == 0 {
		t.Error("cards must receive a non-zero id")
	}
}

func TestRankPoints(t *testing.T) {
	t.Parallel()
	tests := []struct {
		rank   Rank
		points int
		values []int
	}{
		{Two, 2, []int{2}},
		{Nine, 9, []int{9}},
		{Ten, 10, []int{10}},
		{Jack, 10, []int{10}},
		{Queen, 10, []int{10}},
		{King, 10, []int{10}},
		{Ace, 1, []int{1, 11}},
	}

	for _, tt := range tests {
		if got := tt.rank.Points(); got != tt.points {
			t.Errorf("%s.Points() = %d, want %d", tt.rank, got, tt.points)
		}
		got := tt.rank.Values()
		if len(got) != len(tt.values) {
			t.Fatalf("%s.Values() = %v, want %v", tt.rank, got, tt.values)
		}
		for i := range got {
			if got[i] != tt.values[i] {
				t.Errorf("%s.Values() = %v, want %v", tt.rank, got, tt.values)
			}
		}
	}
}

func TestCardString(t *testing.T) {
	t.Parallel()
	if got := NewCard(Hearts, Ten).String(); got != "10♥" {
		t.Errorf("String() = %q, want %q", got, "10♥")
	}
	if got := NewCard(Spades, Ace).String(); got != "A♠" {
		t.Errorf("String() = %q, want %q", got, "A♠")
	}
}

func sameFaces(a, b []Card) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Rank != b[i].Rank || a[i].Suit != b[i].Suit {
			return false
		}
	}
	return true
}
