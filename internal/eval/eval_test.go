package eval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/bridgedealer/internal/deck"
	"github.com/lox/bridgedealer/internal/gen"
	"github.com/lox/bridgedealer/internal/script"
)

// fixedDeal builds a deal from the identity deck: North gets all
// clubs, East all diamonds, South all hearts, West all spades.
func fixedDeal(t *testing.T) deck.Deal {
	t.Helper()
	var cards [52]deck.Card
	for i := range cards {
		cards[i] = deck.Card(i)
	}
	d, err := deck.FromDeck(cards)
	require.NoError(t, err)
	return d
}

func evalString(t *testing.T, d *deck.Deal, input string) (int32, error) {
	t.Helper()
	prog, err := script.Parse(input)
	require.NoError(t, err)
	ctx := NewContext(prog)
	ctx.Reset(d)
	return ctx.Eval(prog.Condition)
}

func mustEval(t *testing.T, d *deck.Deal, input string) int32 {
	t.Helper()
	v, err := evalString(t, d, input)
	require.NoError(t, err)
	return v
}

func TestArithmetic(t *testing.T) {
	t.Parallel()
	d := fixedDeal(t)
	assert.Equal(t, int32(8), mustEval(t, &d, "5 + 3"))
	assert.Equal(t, int32(6), mustEval(t, &d, "10 - 4"))
	assert.Equal(t, int32(42), mustEval(t, &d, "6 * 7"))
	assert.Equal(t, int32(3), mustEval(t, &d, "10 / 3"))
	assert.Equal(t, int32(1), mustEval(t, &d, "10 % 3"))
	assert.Equal(t, int32(-5), mustEval(t, &d, "-5"))
	assert.Equal(t, int32(14), mustEval(t, &d, "2 + 3 * 4"))
	assert.Equal(t, int32(20), mustEval(t, &d, "(2 + 3) * 4"))
}

func TestComparisonAndLogic(t *testing.T) {
	t.Parallel()
	d := fixedDeal(t)
	assert.Equal(t, int32(1), mustEval(t, &d, "5 > 3"))
	assert.Equal(t, int32(0), mustEval(t, &d, "5 < 3"))
	assert.Equal(t, int32(1), mustEval(t, &d, "5 >= 5"))
	assert.Equal(t, int32(1), mustEval(t, &d, "5 == 5"))
	assert.Equal(t, int32(1), mustEval(t, &d, "5 != 4"))
	assert.Equal(t, int32(1), mustEval(t, &d, "1 && 1"))
	assert.Equal(t, int32(0), mustEval(t, &d, "1 && 0"))
	assert.Equal(t, int32(1), mustEval(t, &d, "0 || 1"))
	assert.Equal(t, int32(1), mustEval(t, &d, "1 or 0"))
	assert.Equal(t, int32(0), mustEval(t, &d, "1 and 0"))
	assert.Equal(t, int32(0), mustEval(t, &d, "!1"))
	assert.Equal(t, int32(1), mustEval(t, &d, "not 0"))
	assert.Equal(t, int32(1), mustEval(t, &d, "7 && 1"), "nonzero is true")
}

func TestShortCircuit(t *testing.T) {
	t.Parallel()
	d := fixedDeal(t)
	// The right side would divide by zero; short-circuit must skip it.
	assert.Equal(t, int32(0), mustEval(t, &d, "0 && (1 / 0)"))
	assert.Equal(t, int32(1), mustEval(t, &d, "1 || (1 / 0)"))

	_, err := evalString(t, &d, "1 && (1 / 0)")
	assert.ErrorIs(t, err, ErrDivByZero)
}

func TestTernaryLazy(t *testing.T) {
	t.Parallel()
	d := fixedDeal(t)
	assert.Equal(t, int32(10), mustEval(t, &d, "1 ? 10 : (1/0)"))
	assert.Equal(t, int32(20), mustEval(t, &d, "0 ? (1/0) : 20"))
}

func TestDivByZero(t *testing.T) {
	t.Parallel()
	d := fixedDeal(t)
	_, err := evalString(t, &d, "1 / 0")
	assert.ErrorIs(t, err, ErrDivByZero)
	_, err = evalString(t, &d, "1 % 0")
	assert.ErrorIs(t, err, ErrDivByZero)
}

func TestHandFunctionsOnFixedDeal(t *testing.T) {
	t.Parallel()
	d := fixedDeal(t)
	// North holds all thirteen clubs: 10 HCP, 3 controls.
	assert.Equal(t, int32(10), mustEval(t, &d, "hcp(north)"))
	assert.Equal(t, int32(3), mustEval(t, &d, "controls(north)"))
	assert.Equal(t, int32(13), mustEval(t, &d, "clubs(north)"))
	assert.Equal(t, int32(0), mustEval(t, &d, "spades(north)"))
	assert.Equal(t, int32(13), mustEval(t, &d, "spades(west)"))
	assert.Equal(t, int32(13), mustEval(t, &d, "hearts(south)"))
	assert.Equal(t, int32(13), mustEval(t, &d, "diamonds(east)"))

	assert.Equal(t, int32(1), mustEval(t, &d, "hascard(west, AS)"))
	assert.Equal(t, int32(0), mustEval(t, &d, "hascard(north, AS)"))
	assert.Equal(t, int32(1), mustEval(t, &d, "hascard(north, AC)"))

	// Thirteen-card suit: losers = 0 (AKQ all held).
	assert.Equal(t, int32(0), mustEval(t, &d, "losers(north, clubs)"))
	assert.Equal(t, int32(0), mustEval(t, &d, "losers(north)"))

	assert.Equal(t, int32(1), mustEval(t, &d, "aces(north)"))
	assert.Equal(t, int32(1), mustEval(t, &d, "kings(north, clubs)"))
	assert.Equal(t, int32(0), mustEval(t, &d, "kings(north, spades)"))
	assert.Equal(t, int32(2), mustEval(t, &d, "top2(north)"))
	assert.Equal(t, int32(5), mustEval(t, &d, "top5(north, clubs)"))
	assert.Equal(t, int32(13), mustEval(t, &d, "c13(north)"))

	// pt synonyms match their named counterparts.
	assert.Equal(t, mustEval(t, &d, "tens(north)"), mustEval(t, &d, "pt0(north)"))
	assert.Equal(t, mustEval(t, &d, "aces(north)"), mustEval(t, &d, "pt4(north)"))
	assert.Equal(t, mustEval(t, &d, "c13(north)"), mustEval(t, &d, "pt9(north)"))
}

func TestShapeMatching(t *testing.T) {
	t.Parallel()
	d := fixedDeal(t)
	// North is 0-0-0-13 in S-H-D-C order.
	assert.Equal(t, int32(0), mustEval(t, &d, "shape(north, any 4333)"))
	assert.Equal(t, int32(1), mustEval(t, &d, "shape(north, 00xx)"))
	assert.Equal(t, int32(1), mustEval(t, &d, "shape(west, xx00)"))
	assert.Equal(t, int32(0), mustEval(t, &d, "shape(west, 5332)"))

	// Shape algebra: union behaves as logical or of the terms,
	// difference excludes the subtracted shapes.
	assert.Equal(t, int32(1), mustEval(t, &d, "shape(north, any 4333 + 00xx)"))
	assert.Equal(t, int32(0), mustEval(t, &d, "shape(north, 00xx - 00xx)"))
}

func TestShapeUnionDifferenceLaws(t *testing.T) {
	t.Parallel()
	// shape(s, A+B) == shape(s,A) || shape(s,B) and
	// shape(s, A-B) == shape(s,A) && !shape(s,B), over many deals.
	progs := []string{
		"shape(north, any 4333 + any 5332) == (shape(north, any 4333) || shape(north, any 5332))",
		"shape(north, any 4432 - 4432) == (shape(north, any 4432) && !shape(north, 4432))",
	}
	for _, input := range progs {
		prog, err := script.Parse(input)
		require.NoError(t, err)
		ctx := NewContext(prog)
		for seed := uint64(0); seed < 200; seed++ {
			d := gen.DealFromSeed(seed, nil)
			ctx.Reset(&d)
			v, err := ctx.Eval(prog.Condition)
			require.NoError(t, err)
			assert.Equal(t, int32(1), v, "law %q failed on seed %d", input, seed)
		}
	}
}

func TestVariablesAndMemo(t *testing.T) {
	t.Parallel()
	d := fixedDeal(t)
	prog, err := script.Parse(`
strong = hcp(north) >= 5
long_c = clubs(north) >= 5
strong && long_c
`)
	require.NoError(t, err)
	ctx := NewContext(prog)
	ctx.Reset(&d)

	v, err := ctx.Eval(prog.Condition)
	require.NoError(t, err)
	assert.Equal(t, int32(1), v)

	// Re-evaluating the same variable yields the same value.
	first, err := ctx.Eval(script.VarRef{Name: "strong"})
	require.NoError(t, err)
	second, err := ctx.Eval(script.VarRef{Name: "strong"})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestVariableShadowing(t *testing.T) {
	t.Parallel()
	d := fixedDeal(t)
	v := mustEval(t, &d, "x = 1\nx = 2\nx")
	assert.Equal(t, int32(2), v)
}

func TestUnknownVariable(t *testing.T) {
	t.Parallel()
	d := fixedDeal(t)
	_, err := evalString(t, &d, "no_such_var > 1")
	assert.ErrorIs(t, err, ErrUnknownVar)
}

func TestCyclicVariable(t *testing.T) {
	t.Parallel()
	d := fixedDeal(t)
	_, err := evalString(t, &d, "a = b + 1\nb = a + 1\na > 0")
	assert.ErrorIs(t, err, ErrCyclicVar)

	_, err = evalString(t, &d, "a = a + 1\na > 0")
	assert.ErrorIs(t, err, ErrCyclicVar)
}

func TestMemoResetsBetweenDeals(t *testing.T) {
	t.Parallel()
	prog, err := script.Parse("v = hcp(north)\nv >= 0")
	require.NoError(t, err)
	ctx := NewContext(prog)

	d1 := gen.DealFromSeed(1, nil)
	ctx.Reset(&d1)
	v1, err := ctx.Eval(script.VarRef{Name: "v"})
	require.NoError(t, err)

	// Find a deal where North's HCP differs, proving the memo was
	// cleared rather than carried across deals.
	for seed := uint64(2); seed < 100; seed++ {
		d2 := gen.DealFromSeed(seed, nil)
		ctx.Reset(&d2)
		v2, err := ctx.Eval(script.VarRef{Name: "v"})
		require.NoError(t, err)
		if v1 != v2 {
			return
		}
	}
	t.Fatal("expected differing HCP in 98 deals")
}

func TestScoreFunction(t *testing.T) {
	t.Parallel()
	d := fixedDeal(t)
	// 3NT (code 34) making 9 tricks non-vul: 100 + 300 = 400.
	assert.Equal(t, int32(400), mustEval(t, &d, "score(0, 34, 9)"))
	// 3NT vulnerable: 100 + 500 = 600.
	assert.Equal(t, int32(600), mustEval(t, &d, "score(1, 34, 9)"))
	// 3NT with an overtrick non-vul: 430.
	assert.Equal(t, int32(430), mustEval(t, &d, "score(0, 34, 10)"))
	// 4S (code 43) making: 120 + 300 = 420.
	assert.Equal(t, int32(420), mustEval(t, &d, "score(0, 43, 10)"))
	// 6NT vul making: 190 + 500 + 750 = 1440.
	assert.Equal(t, int32(1440), mustEval(t, &d, "score(1, 64, 12)"))
	// 2S making 8 tricks: partscore 60 + 50 = 110.
	assert.Equal(t, int32(110), mustEval(t, &d, "score(0, 23, 8)"))
	// Down 2 undoubled non-vul: -100.
	assert.Equal(t, int32(-100), mustEval(t, &d, "score(0, 34, 7)"))
	// Down 2 doubled non-vul: -300.
	assert.Equal(t, int32(-300), mustEval(t, &d, "score(0, 134, 7)"))
	// Down 2 doubled vul: -500.
	assert.Equal(t, int32(-500), mustEval(t, &d, "score(1, 134, 7)"))

	_, err := evalString(t, &d, "score(0, 94, 9)")
	assert.ErrorIs(t, err, ErrBadArgument)
	_, err = evalString(t, &d, "score(0, 34, 14)")
	assert.ErrorIs(t, err, ErrBadArgument)
}

func TestIMPsFunction(t *testing.T) {
	t.Parallel()
	d := fixedDeal(t)
	assert.Equal(t, int32(0), mustEval(t, &d, "imps(0)"))
	assert.Equal(t, int32(0), mustEval(t, &d, "imps(5)"))
	assert.Equal(t, int32(1), mustEval(t, &d, "imps(10)"))
	assert.Equal(t, int32(2), mustEval(t, &d, "imps(40)"))
	assert.Equal(t, int32(-2), mustEval(t, &d, "imps(0 - 40)"))
	assert.Equal(t, int32(10), mustEval(t, &d, "imps(410)"))
	assert.Equal(t, int32(24), mustEval(t, &d, "imps(4000)"))
}

func TestStackOverflow(t *testing.T) {
	t.Parallel()
	d := fixedDeal(t)
	// A long chain of unary negations overflows the depth limit.
	input := ""
	for i := 0; i < 300; i++ {
		input += "-"
	}
	input += "1"
	prog, err := script.Parse(input)
	require.NoError(t, err)
	ctx := NewContext(prog)
	ctx.Reset(&d)
	_, err = ctx.Eval(prog.Condition)
	assert.ErrorIs(t, err, ErrStackOverflow)
}

func TestLazyStatsComputedOnce(t *testing.T) {
	t.Parallel()
	d := fixedDeal(t)
	prog, err := script.Parse("hcp(north) + hcp(north) >= 0")
	require.NoError(t, err)
	ctx := NewContext(prog)
	ctx.Reset(&d)

	st1 := ctx.Stats(deck.North)
	st2 := ctx.Stats(deck.North)
	assert.Same(t, st1, st2)
}
