package deck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCardIndexRoundTrip(t *testing.T) {
	t.Parallel()
	for i := 0; i < 52; i++ {
		c := Card(i)
		assert.Equal(t, c, NewCard(c.Suit(), c.Rank()))
	}
}

func TestCardHCP(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 4, NewCard(Spades, Ace).HCP())
	assert.Equal(t, 3, NewCard(Hearts, King).HCP())
	assert.Equal(t, 2, NewCard(Diamonds, Queen).HCP())
	assert.Equal(t, 1, NewCard(Clubs, Jack).HCP())
	assert.Equal(t, 0, NewCard(Spades, Seven).HCP())
}

func TestParseCard(t *testing.T) {
	t.Parallel()
	tests := []struct {
		input   string
		want    Card
		wantErr bool
	}{
		{input: "AS", want: NewCard(Spades, Ace)},
		{input: "as", want: NewCard(Spades, Ace)},
		{input: "TC", want: NewCard(Clubs, Ten)},
		{input: "2h", want: NewCard(Hearts, Two)},
		{input: "kd", want: NewCard(Diamonds, King)},
		{input: "XS", wantErr: true},
		{input: "AX", wantErr: true},
		{input: "AKQ", wantErr: true},
		{input: "", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseCard(tt.input)
		if tt.wantErr {
			assert.Error(t, err, "input %q", tt.input)
			continue
		}
		require.NoError(t, err, "input %q", tt.input)
		assert.Equal(t, tt.want, got, "input %q", tt.input)
	}
}

func TestParseSeat(t *testing.T) {
	t.Parallel()
	for _, s := range []string{"north", "North", "NORTH", "n", "N"} {
		seat, ok := ParseSeat(s)
		require.True(t, ok, "input %q", s)
		assert.Equal(t, North, seat)
	}
	_, ok := ParseSeat("northeast")
	assert.False(t, ok)
	_, ok = ParseSeat("")
	assert.False(t, ok)
}

func TestCardString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "AS", NewCard(Spades, Ace).String())
	assert.Equal(t, "2C", NewCard(Clubs, Two).String())
	assert.Equal(t, "TH", NewCard(Hearts, Ten).String())
}

func TestFromDeckPartition(t *testing.T) {
	t.Parallel()
	var cards [52]Card
	for i := range cards {
		cards[i] = Card(i)
	}
	deal, err := FromDeck(cards)
	require.NoError(t, err)

	seen := map[Card]bool{}
	for _, seat := range Seats {
		hand := deal.Hand(seat)
		require.Len(t, hand.Cards(), 13)
		for _, c := range hand.Cards() {
			assert.False(t, seen[c], "card %s dealt twice", c)
			seen[c] = true
		}
	}
	assert.Len(t, seen, 52)
}

func TestFromDeckRejectsDuplicates(t *testing.T) {
	t.Parallel()
	var cards [52]Card
	for i := range cards {
		cards[i] = Card(i)
	}
	cards[51] = cards[0]
	_, err := FromDeck(cards)
	assert.Error(t, err)
}

func TestHandCanonicalOrder(t *testing.T) {
	t.Parallel()
	var cards [52]Card
	for i := range cards {
		cards[i] = Card(i)
	}
	deal, err := FromDeck(cards)
	require.NoError(t, err)

	// North got clubs 2..A: canonical order is ace first.
	north := deal.Hand(North)
	assert.Equal(t, NewCard(Clubs, Ace), north.Cards()[0])
	assert.Equal(t, NewCard(Clubs, Two), north.Cards()[12])
	assert.Equal(t, 13, north.SuitLength(Clubs))
	assert.Equal(t, 0, north.SuitLength(Spades))
}
