package format

import (
	"fmt"
	"strings"

	"github.com/lox/bridgedealer/internal/deck"
	"github.com/lox/bridgedealer/internal/script"
)

// CSVRow renders one csvrpt row for a matching deal. Expression terms
// are evaluated through the supplied callback so this package stays
// independent of the evaluator.
func CSVRow(d *deck.Deal, terms []script.CSVTerm, evalExpr func(script.Expr) (int32, error)) (string, error) {
	parts := make([]string, 0, len(terms))
	for _, term := range terms {
		switch term.Kind {
		case script.CSVExpr:
			v, err := evalExpr(term.Expr)
			if err != nil {
				return "", err
			}
			parts = append(parts, fmt.Sprintf("%d", v))
		case script.CSVString:
			parts = append(parts, "'"+term.Str+"'")
		case script.CSVCompass:
			parts = append(parts, HandDotted(d.Hand(term.Seat)))
		case script.CSVSideNS:
			parts = append(parts, HandDotted(d.Hand(deck.North))+" "+HandDotted(d.Hand(deck.South)))
		case script.CSVSideEW:
			parts = append(parts, HandDotted(d.Hand(deck.East))+" "+HandDotted(d.Hand(deck.West)))
		case script.CSVDeal:
			hands := make([]string, 0, 4)
			for _, seat := range deck.Seats {
				hands = append(hands, HandDotted(d.Hand(seat)))
			}
			parts = append(parts, strings.Join(hands, " "))
		}
	}
	return " " + strings.Join(parts, ",") + "\n", nil
}
