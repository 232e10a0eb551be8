package gen

import (
	"errors"
	"fmt"
	"sort"

	"github.com/lox/bridgedealer/internal/deck"
)

// ErrPredealConflict is returned for predeal input that duplicates a
// card, deals a card to two seats, or overfills a seat.
var ErrPredealConflict = errors.New("predeal conflict")

// Predeal fixes cards in specific seats before the remainder is
// shuffled. Immutable once handed to a generator, so it can be shared
// across workers.
type Predeal struct {
	cards [4][]deck.Card
}

// Add assigns cards to a seat. Cards for each seat are kept in
// canonical order (spades high to low, then hearts, diamonds, clubs).
func (p *Predeal) Add(seat deck.Seat, cards []deck.Card) error {
	for _, card := range cards {
		for _, other := range deck.Seats {
			for _, held := range p.cards[other] {
				if held == card {
					if other == seat {
						return fmt.Errorf("%w: card %s predealt twice to %s", ErrPredealConflict, card, seat)
					}
					return fmt.Errorf("%w: card %s predealt to both %s and %s", ErrPredealConflict, card, other, seat)
				}
			}
		}
		if len(p.cards[seat]) >= 13 {
			return fmt.Errorf("%w: more than 13 cards for %s", ErrPredealConflict, seat)
		}
		p.cards[seat] = append(p.cards[seat], card)
	}
	sort.Slice(p.cards[seat], func(i, j int) bool {
		a, b := p.cards[seat][i], p.cards[seat][j]
		if a.Suit() != b.Suit() {
			return a.Suit() > b.Suit()
		}
		return a.Rank() > b.Rank()
	})
	return nil
}

// Cards returns the predealt cards for a seat in canonical order
func (p *Predeal) Cards(seat deck.Seat) []deck.Card {
	return p.cards[seat]
}

// Count returns how many cards are predealt to a seat
func (p *Predeal) Count(seat deck.Seat) int {
	return len(p.cards[seat])
}

// Empty reports whether no cards are predealt
func (p *Predeal) Empty() bool {
	for _, seat := range deck.Seats {
		if len(p.cards[seat]) > 0 {
			return false
		}
	}
	return true
}

// contains reports whether a card is predealt to any seat
func (p *Predeal) contains(card deck.Card) bool {
	for _, seat := range deck.Seats {
		for _, held := range p.cards[seat] {
			if held == card {
				return true
			}
		}
	}
	return false
}
