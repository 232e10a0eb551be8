package eval

import (
	"fmt"

	"github.com/lox/bridgedealer/internal/script"
)

// Duplicate-bridge scoring for the score() and imps() functions.
// Contracts are encoded as doubled*100 + level*10 + strain, with
// strain 0=C 1=D 2=H 3=S 4=NT and doubled 0/1/2; 3NT is 34, 4S
// doubled is 143.

// impTable[i] is the minimum score difference worth i+1 IMPs.
var impTable = [24]int32{
	10, 40, 80, 120, 160, 210, 260, 310, 360, 410, 490, 590,
	740, 890, 1090, 1190, 1490, 1740, 1990, 2240, 2490, 2990, 3490, 3990,
}

// scoreToIMPs converts a score difference to IMPs, preserving sign.
func scoreToIMPs(diff int32) int32 {
	abs := diff
	if abs < 0 {
		abs = -abs
	}
	var imps int32
	for i, threshold := range impTable {
		if abs < threshold {
			break
		}
		imps = int32(i + 1)
	}
	if diff < 0 {
		return -imps
	}
	return imps
}

// evalScore computes score(vulnerable, contractCode, tricks).
func (c *Context) evalScore(args []script.Expr) (int32, error) {
	vul, err := c.Eval(args[0])
	if err != nil {
		return 0, err
	}
	code, err := c.Eval(args[1])
	if err != nil {
		return 0, err
	}
	tricks, err := c.Eval(args[2])
	if err != nil {
		return 0, err
	}
	if tricks < 0 || tricks > 13 {
		return 0, fmt.Errorf("%w: tricks %d out of range 0-13", ErrBadArgument, tricks)
	}
	level, strain, dbl, err := parseContractCode(code)
	if err != nil {
		return 0, err
	}
	return contractScore(vul != 0, level, strain, dbl, tricks), nil
}

const (
	undoubled = 0
	doubled   = 1
	redoubled = 2
)

// contractScore returns declarer's score for taking the given number
// of tricks, positive when the contract makes.
func contractScore(vulnerable bool, level, strain, dbl, tricks int32) int32 {
	needed := level + 6
	over := tricks - needed
	if over < 0 {
		return penalty(vulnerable, dbl, -over)
	}
	return madeScore(vulnerable, level, strain, dbl, over)
}

// penalty returns the (negative) score for going down.
func penalty(vulnerable bool, dbl, under int32) int32 {
	switch dbl {
	case doubled:
		if vulnerable {
			return -(200 + (under-1)*300)
		}
		switch under {
		case 1:
			return -100
		case 2:
			return -300
		case 3:
			return -500
		default:
			return -(500 + (under-3)*300)
		}
	case redoubled:
		return penalty(vulnerable, doubled, under) * 2
	default:
		if vulnerable {
			return -under * 100
		}
		return -under * 50
	}
}

// madeScore returns the score for a made contract.
func madeScore(vulnerable bool, level, strain, dbl, over int32) int32 {
	trickValue := int32(30)
	if strain <= 1 {
		trickValue = 20
	}
	trickScore := level * trickValue
	if strain == 4 {
		trickScore += 10
	}
	switch dbl {
	case doubled:
		trickScore *= 2
	case redoubled:
		trickScore *= 4
	}

	score := trickScore
	if trickScore >= 100 {
		if vulnerable {
			score += 500
		} else {
			score += 300
		}
	} else {
		score += 50
	}

	switch level {
	case 6:
		if vulnerable {
			score += 750
		} else {
			score += 500
		}
	case 7:
		if vulnerable {
			score += 1500
		} else {
			score += 1000
		}
	}

	overValue := trickValue
	switch dbl {
	case doubled:
		overValue = 100
		if vulnerable {
			overValue = 200
		}
		score += 50
	case redoubled:
		overValue = 200
		if vulnerable {
			overValue = 400
		}
		score += 100
	}
	score += over * overValue

	return score
}

// parseContractCode splits and validates a contract code.
func parseContractCode(code int32) (level, strain, dbl int32, err error) {
	dbl = code / 100
	rest := code % 100
	level = rest / 10
	strain = rest % 10
	if level < 1 || level > 7 {
		err = fmt.Errorf("%w: contract level %d out of range 1-7", ErrBadArgument, level)
		return
	}
	if strain < 0 || strain > 4 {
		err = fmt.Errorf("%w: contract strain %d out of range 0-4", ErrBadArgument, strain)
		return
	}
	if dbl < 0 || dbl > 2 {
		err = fmt.Errorf("%w: doubled flag %d out of range 0-2", ErrBadArgument, dbl)
		return
	}
	return
}
