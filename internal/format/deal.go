// Package format renders deals and run statistics as text. The core
// hands deals to these formatters in serial order; nothing here
// affects which deals are generated.
package format

import (
	"fmt"
	"strings"
	"time"

	"github.com/lox/bridgedealer/internal/deck"
	"github.com/lox/bridgedealer/internal/script"
)

// suitHolding returns a hand's ranks in one suit, high to low, as a
// bare string ("AKQT3"), empty for a void.
func suitHolding(hand *deck.Hand, suit deck.Suit) string {
	var sb strings.Builder
	for _, c := range hand.CardsInSuit(suit) {
		sb.WriteString(c.Rank().String())
	}
	return sb.String()
}

// HandDotted renders a hand as S.H.D.C holdings ("AKQT3.J6.KJ42.95").
func HandDotted(hand *deck.Hand) string {
	parts := make([]string, 0, 4)
	for _, suit := range []deck.Suit{deck.Spades, deck.Hearts, deck.Diamonds, deck.Clubs} {
		parts = append(parts, suitHolding(hand, suit))
	}
	return strings.Join(parts, ".")
}

// OneLine renders a deal in the single-line format:
// "n AKQT3.J6.KJ42.95 e ... s ... w ..."
func OneLine(d *deck.Deal) string {
	var sb strings.Builder
	for i, seat := range deck.Seats {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(strings.ToLower(seat.Letter()))
		sb.WriteByte(' ')
		sb.WriteString(HandDotted(d.Hand(seat)))
	}
	sb.WriteByte('\n')
	return sb.String()
}

// Compact renders a deal as four lines, one hand per line.
func Compact(d *deck.Deal) string {
	var sb strings.Builder
	for _, seat := range deck.Seats {
		sb.WriteString(strings.ToLower(seat.Letter()))
		sb.WriteByte(' ')
		sb.WriteString(HandDotted(d.Hand(seat)))
		sb.WriteByte('\n')
	}
	return sb.String()
}

// spacedHolding returns a suit holding with ranks separated by
// spaces, "- " for a void, each rank followed by a space.
func spacedHolding(hand *deck.Hand, suit deck.Suit) string {
	cards := hand.CardsInSuit(suit)
	if len(cards) == 0 {
		return "- "
	}
	var sb strings.Builder
	for _, c := range cards {
		sb.WriteString(c.Rank().String())
		sb.WriteByte(' ')
	}
	return sb.String()
}

// columns lays out one row per suit with each seat's holding padded
// to a 20-character column.
func columns(d *deck.Deal, seats []deck.Seat) string {
	var sb strings.Builder
	for _, suit := range []deck.Suit{deck.Spades, deck.Hearts, deck.Diamonds, deck.Clubs} {
		for i, seat := range seats {
			holding := spacedHolding(d.Hand(seat), suit)
			if i < len(seats)-1 {
				sb.WriteString(fmt.Sprintf("%-20s", holding))
			} else {
				sb.WriteString(holding)
			}
		}
		sb.WriteByte('\n')
	}
	sb.WriteByte('\n')
	return sb.String()
}

// PrintAll renders the four hands in newspaper-style columns with a
// board number header.
func PrintAll(d *deck.Deal, board int) string {
	return fmt.Sprintf("%4d.\n", board+1) + columns(d, deck.Seats[:])
}

// PrintEW renders only the East and West hands (West first), for
// defence problems.
func PrintEW(d *deck.Deal) string {
	return columns(d, []deck.Seat{deck.West, deck.East})
}

// PBNOptions carries the metadata written into the PBN tag section.
type PBNOptions struct {
	Board     int
	Dealer    *deck.Seat
	Vul       *script.Vulnerability
	Event     string
	Seed      uint64
	InputFile string
	Date      time.Time
}

// boardVulRotation is the standard 16-board vulnerability cycle.
var boardVulRotation = [16]script.Vulnerability{
	script.VulNone, script.VulNS, script.VulEW, script.VulAll,
	script.VulNS, script.VulEW, script.VulAll, script.VulNone,
	script.VulEW, script.VulAll, script.VulNone, script.VulNS,
	script.VulAll, script.VulNone, script.VulNS, script.VulEW,
}

// PBN renders a deal as a PBN record.
func PBN(d *deck.Deal, opts PBNOptions) string {
	var sb strings.Builder

	if opts.Event != "" {
		fmt.Fprintf(&sb, "[Event %q]\n", opts.Event)
	} else {
		event := "Hand simulated by bridgedealer"
		if opts.InputFile != "" {
			event += fmt.Sprintf(" with file %s", opts.InputFile)
		}
		event += fmt.Sprintf(", seed %d", opts.Seed)
		fmt.Fprintf(&sb, "[Event %q]\n", event)
	}

	sb.WriteString("[Site \"-\"]\n")
	fmt.Fprintf(&sb, "[Date \"%04d.%02d.%02d\"]\n",
		opts.Date.Year(), opts.Date.Month(), opts.Date.Day())
	fmt.Fprintf(&sb, "[Board \"%d\"]\n", opts.Board+1)
	sb.WriteString("[West \"-\"]\n[North \"-\"]\n[East \"-\"]\n[South \"-\"]\n")

	dealer := deck.Seats[opts.Board%4]
	if opts.Dealer != nil {
		dealer = *opts.Dealer
	}
	fmt.Fprintf(&sb, "[Dealer %q]\n", dealer.Letter())

	vul := boardVulRotation[opts.Board%16]
	if opts.Vul != nil {
		vul = *opts.Vul
	}
	fmt.Fprintf(&sb, "[Vulnerable %q]\n", vul.String())

	sb.WriteString("[Deal \"N:")
	for i, seat := range deck.Seats {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(HandDotted(d.Hand(seat)))
	}
	sb.WriteString("\"]\n")
	sb.WriteString("[Declarer \"?\"]\n[Contract \"?\"]\n[Result \"?\"]\n\n")

	return sb.String()
}
