package gen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/bridgedealer/internal/deck"
)

func assertValidDeal(t *testing.T, d deck.Deal) {
	t.Helper()
	seen := map[deck.Card]bool{}
	totalHCP := 0
	for _, seat := range deck.Seats {
		hand := d.Hand(seat)
		require.Len(t, hand.Cards(), 13)
		lengths := 0
		for _, suit := range deck.Suits {
			lengths += hand.SuitLength(suit)
		}
		assert.Equal(t, 13, lengths)
		for _, c := range hand.Cards() {
			require.False(t, seen[c], "card %s dealt twice", c)
			seen[c] = true
			totalHCP += c.HCP()
		}
	}
	assert.Len(t, seen, 52)
	assert.Equal(t, 40, totalHCP)
}

func TestLegacyGeneratorValidDeals(t *testing.T) {
	t.Parallel()
	g := NewLegacyGenerator(1, nil)
	for i := 0; i < 100; i++ {
		assertValidDeal(t, g.Next())
	}
}

func TestLegacyGeneratorDeterministic(t *testing.T) {
	t.Parallel()
	g1 := NewLegacyGenerator(42, nil)
	g2 := NewLegacyGenerator(42, nil)
	for i := 0; i < 20; i++ {
		assert.Equal(t, g1.Next(), g2.Next())
	}
}

func TestLegacyGeneratorStateRestore(t *testing.T) {
	t.Parallel()
	g1 := NewLegacyGenerator(42, nil)
	for i := 0; i < 5; i++ {
		g1.Next()
	}
	state := g1.State()
	expected := []deck.Deal{g1.Next(), g1.Next(), g1.Next()}

	g2 := NewLegacyGenerator(0, nil)
	g2.Restore(state)
	for i, want := range expected {
		assert.Equal(t, want, g2.Next(), "deal %d after restore", i)
	}
}

func TestFastDealFromSeedDeterministic(t *testing.T) {
	t.Parallel()
	assert.Equal(t, DealFromSeed(42, nil), DealFromSeed(42, nil))
	assert.NotEqual(t, DealFromSeed(1, nil), DealFromSeed(2, nil))
}

func TestFastDealFromSeedValid(t *testing.T) {
	t.Parallel()
	for seed := uint64(0); seed < 100; seed++ {
		assertValidDeal(t, DealFromSeed(seed, nil))
	}
}

func TestFastGeneratorSequenceMatchesSeedFor(t *testing.T) {
	t.Parallel()
	g := NewFastGenerator(123, nil)
	for serial := uint64(0); serial < 20; serial++ {
		assert.Equal(t, DealFromSeed(g.SeedFor(serial), nil), g.Next())
	}
}

func TestPredealPlacement(t *testing.T) {
	t.Parallel()
	var p Predeal
	as := deck.NewCard(deck.Spades, deck.Ace)
	kh := deck.NewCard(deck.Hearts, deck.King)
	require.NoError(t, p.Add(deck.North, []deck.Card{as, kh}))

	for seed := uint64(0); seed < 50; seed++ {
		d := DealFromSeed(seed, &p)
		assertValidDeal(t, d)
		assert.True(t, d.Hand(deck.North).Has(as))
		assert.True(t, d.Hand(deck.North).Has(kh))
	}
}

func TestPredealMultipleSeats(t *testing.T) {
	t.Parallel()
	var p Predeal
	require.NoError(t, p.Add(deck.North, []deck.Card{deck.NewCard(deck.Spades, deck.Ace)}))
	require.NoError(t, p.Add(deck.South, []deck.Card{deck.NewCard(deck.Hearts, deck.Ace)}))

	d := DealFromSeed(99, &p)
	assertValidDeal(t, d)
	assert.True(t, d.Hand(deck.North).Has(deck.NewCard(deck.Spades, deck.Ace)))
	assert.True(t, d.Hand(deck.South).Has(deck.NewCard(deck.Hearts, deck.Ace)))
}

func TestPredealFullHand(t *testing.T) {
	t.Parallel()
	var p Predeal
	spades := make([]deck.Card, 13)
	for i := range spades {
		spades[i] = deck.NewCard(deck.Spades, deck.Rank(i))
	}
	require.NoError(t, p.Add(deck.North, spades))

	d := DealFromSeed(777, &p)
	assertValidDeal(t, d)
	assert.Equal(t, 13, d.Hand(deck.North).SuitLength(deck.Spades))
}

func TestPredealLegacyMode(t *testing.T) {
	t.Parallel()
	var p Predeal
	as := deck.NewCard(deck.Spades, deck.Ace)
	require.NoError(t, p.Add(deck.North, []deck.Card{as}))

	g := NewLegacyGenerator(1, &p)
	for i := 0; i < 20; i++ {
		d := g.Next()
		assertValidDeal(t, d)
		assert.True(t, d.Hand(deck.North).Has(as))
	}
}

func TestPredealDuplicateCard(t *testing.T) {
	t.Parallel()
	var p Predeal
	as := deck.NewCard(deck.Spades, deck.Ace)
	require.NoError(t, p.Add(deck.North, []deck.Card{as}))

	err := p.Add(deck.South, []deck.Card{as})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPredealConflict)

	err = p.Add(deck.North, []deck.Card{as})
	assert.ErrorIs(t, err, ErrPredealConflict)
}

func TestPredealTooManyCards(t *testing.T) {
	t.Parallel()
	var p Predeal
	cards := make([]deck.Card, 14)
	for i := range cards {
		cards[i] = deck.Card(i)
	}
	err := p.Add(deck.North, cards)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPredealConflict)
}
