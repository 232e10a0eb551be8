package gen

import (
	"github.com/lox/bridgedealer/internal/deck"
	"github.com/lox/bridgedealer/internal/rng"
)

// indexSource yields shuffle indices in [0, n). Both PRNGs satisfy it.
type indexSource interface {
	NextIndex(n uint32) uint32
}

// buildDeck shuffles the non-predealt cards with Fisher-Yates and lays
// out the 52-card deck buffer: within each seat's 13 slots, predealt
// cards first (canonical order), then shuffled remainder.
func buildDeck(src indexSource, predeal *Predeal) [52]deck.Card {
	var available []deck.Card
	if predeal == nil || predeal.Empty() {
		available = make([]deck.Card, 52)
		for i := range available {
			available[i] = deck.Card(i)
		}
	} else {
		available = make([]deck.Card, 0, 52)
		for i := 0; i < 52; i++ {
			if c := deck.Card(i); !predeal.contains(c) {
				available = append(available, c)
			}
		}
	}

	for i := len(available) - 1; i >= 1; i-- {
		j := src.NextIndex(uint32(i + 1))
		available[i], available[j] = available[j], available[i]
	}

	var out [52]deck.Card
	next := 0
	for seatIdx, seat := range deck.Seats {
		slot := seatIdx * 13
		if predeal != nil {
			for _, c := range predeal.Cards(seat) {
				out[slot] = c
				slot++
			}
		}
		for ; slot < (seatIdx+1)*13; slot++ {
			out[slot] = available[next]
			next++
		}
	}
	return out
}

// LegacyGenerator drives deals from the sequential BSD TYPE-3 stream.
// Deals depend on the continuously evolving generator state, so this
// path is strictly serial.
type LegacyGenerator struct {
	rng     *rng.Legacy
	predeal *Predeal
}

// NewLegacyGenerator creates a legacy-mode generator.
func NewLegacyGenerator(seed uint32, predeal *Predeal) *LegacyGenerator {
	return &LegacyGenerator{rng: rng.NewLegacy(seed), predeal: predeal}
}

// Next shuffles and returns the next deal in the sequence.
func (g *LegacyGenerator) Next() deck.Deal {
	d, err := deck.FromDeck(buildDeck(g.rng, g.predeal))
	if err != nil {
		// The shuffle permutes a full deck; a bad deck here is an
		// internal invariant violation.
		panic(err)
	}
	return d
}

// State captures the underlying PRNG state.
func (g *LegacyGenerator) State() rng.LegacyState {
	return g.rng.State()
}

// Restore resets the underlying PRNG state.
func (g *LegacyGenerator) Restore(s rng.LegacyState) {
	g.rng.Restore(s)
}

// FastGenerator produces deals that depend only on a per-serial u64
// seed, derived from the master seed by counter increment. The same
// (master seed, serial) pair yields the same deal on any worker.
type FastGenerator struct {
	masterSeed uint64
	predeal    *Predeal
	serial     uint64
}

// NewFastGenerator creates a fast-mode generator.
func NewFastGenerator(masterSeed uint64, predeal *Predeal) *FastGenerator {
	return &FastGenerator{masterSeed: masterSeed, predeal: predeal}
}

// SeedFor returns the deal seed for a serial number. SplitMix64
// expansion inside the xoshiro seeding decorrelates the consecutive
// values.
func (g *FastGenerator) SeedFor(serial uint64) uint64 {
	return g.masterSeed + serial
}

// Predeal returns the generator's predeal layout (shared, read-only).
func (g *FastGenerator) Predeal() *Predeal {
	return g.predeal
}

// Next generates the next deal in serial order (single-threaded path).
func (g *FastGenerator) Next() deck.Deal {
	d := DealFromSeed(g.SeedFor(g.serial), g.predeal)
	g.serial++
	return d
}

// DealFromSeed generates the deal for a single seed. Stateless: safe
// to call from any worker.
func DealFromSeed(seed uint64, predeal *Predeal) deck.Deal {
	src := rng.NewXoshiro(seed)
	d, err := deck.FromDeck(buildDeck(src, predeal))
	if err != nil {
		panic(err)
	}
	return d
}
