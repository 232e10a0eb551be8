package script

import "github.com/lox/bridgedealer/internal/deck"

// Expr is a node of the expression IR. The tree is immutable after
// parse and shared by reference across workers.
type Expr interface {
	isExpr()
}

// IntLit is a signed 32-bit integer literal
type IntLit struct {
	Value int32
}

// CardLit is a card literal such as AS or TC
type CardLit struct {
	Card deck.Card
}

// SeatLit is a seat keyword (north, e, ...)
type SeatLit struct {
	Seat deck.Seat
}

// SuitLit is a suit keyword (spades, hearts, diamonds, clubs)
type SuitLit struct {
	Suit deck.Suit
}

// VarRef references a variable bound by an assignment statement.
// Variables bind names to expressions, not values: each reference
// re-evaluates the bound expression in the current deal's context.
type VarRef struct {
	Name string
}

// Call invokes one of the built-in constraint functions
type Call struct {
	Fn   Function
	Args []Expr
}

// BinOp is a binary operation
type BinOp struct {
	Op    BinOpKind
	Left  Expr
	Right Expr
}

// UnaryOp is a unary operation (negate, logical not)
type UnaryOp struct {
	Op      UnaryOpKind
	Operand Expr
}

// Ternary is cond ? then : else; only the selected branch evaluates
type Ternary struct {
	Cond Expr
	Then Expr
	Else Expr
}

// ShapeExpr is a shape pattern compiled down to its distribution mask
type ShapeExpr struct {
	Mask deck.ShapeMask
}

func (IntLit) isExpr()    {}
func (CardLit) isExpr()   {}
func (SeatLit) isExpr()   {}
func (SuitLit) isExpr()   {}
func (VarRef) isExpr()    {}
func (Call) isExpr()      {}
func (BinOp) isExpr()     {}
func (UnaryOp) isExpr()   {}
func (Ternary) isExpr()   {}
func (ShapeExpr) isExpr() {}

// BinOpKind enumerates the binary operators
type BinOpKind int

const (
	OpAdd BinOpKind = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpAnd
	OpOr
)

// UnaryOpKind enumerates the unary operators
type UnaryOpKind int

const (
	OpNegate UnaryOpKind = iota
	OpNot
)

// Function enumerates the closed set of constraint functions.
type Function int

const (
	FnHCP Function = iota
	FnControls
	FnLosers
	FnSpades
	FnHearts
	FnDiamonds
	FnClubs
	FnHasCard
	FnShape
	FnTens
	FnJacks
	FnQueens
	FnKings
	FnAces
	FnTop2
	FnTop3
	FnTop4
	FnTop5
	FnC13
	FnQuality
	FnCCCC
	FnScore
	FnIMPs
)

// functionNames maps spelling to function, including the pt0-pt9
// synonyms.
var functionNames = map[string]Function{
	"hcp":      FnHCP,
	"controls": FnControls,
	"losers":   FnLosers,
	"spades":   FnSpades,
	"hearts":   FnHearts,
	"diamonds": FnDiamonds,
	"clubs":    FnClubs,
	"hascard":  FnHasCard,
	"shape":    FnShape,
	"tens":     FnTens,
	"pt0":      FnTens,
	"jacks":    FnJacks,
	"pt1":      FnJacks,
	"queens":   FnQueens,
	"pt2":      FnQueens,
	"kings":    FnKings,
	"pt3":      FnKings,
	"aces":     FnAces,
	"pt4":      FnAces,
	"top2":     FnTop2,
	"pt5":      FnTop2,
	"top3":     FnTop3,
	"pt6":      FnTop3,
	"top4":     FnTop4,
	"pt7":      FnTop4,
	"top5":     FnTop5,
	"pt8":      FnTop5,
	"c13":      FnC13,
	"pt9":      FnC13,
	"quality":  FnQuality,
	"cccc":     FnCCCC,
	"score":    FnScore,
	"imps":     FnIMPs,
}

// arity bounds per function: min and max argument counts.
var functionArity = map[Function][2]int{
	FnHCP:      {1, 1},
	FnControls: {1, 1},
	FnLosers:   {1, 2},
	FnSpades:   {1, 1},
	FnHearts:   {1, 1},
	FnDiamonds: {1, 1},
	FnClubs:    {1, 1},
	FnHasCard:  {2, 2},
	FnShape:    {2, 2},
	FnTens:     {1, 2},
	FnJacks:    {1, 2},
	FnQueens:   {1, 2},
	FnKings:    {1, 2},
	FnAces:     {1, 2},
	FnTop2:     {1, 2},
	FnTop3:     {1, 2},
	FnTop4:     {1, 2},
	FnTop5:     {1, 2},
	FnC13:      {1, 2},
	FnQuality:  {2, 2},
	FnCCCC:     {1, 1},
	FnScore:    {3, 3},
	FnIMPs:     {1, 1},
}

// Vulnerability is the deal metadatum attached to emitted deals
type Vulnerability int

const (
	VulNone Vulnerability = iota
	VulNS
	VulEW
	VulAll
)

// String returns the vulnerability name used in PBN output
func (v Vulnerability) String() string {
	switch v {
	case VulNS:
		return "NS"
	case VulEW:
		return "EW"
	case VulAll:
		return "All"
	default:
		return "None"
	}
}

// ParseVulnerability parses a vulnerability keyword (case-insensitive)
func ParseVulnerability(s string) (Vulnerability, bool) {
	switch lowerASCII(s) {
	case "none", "neither":
		return VulNone, true
	case "ns":
		return VulNS, true
	case "ew":
		return VulEW, true
	case "all", "both":
		return VulAll, true
	default:
		return 0, false
	}
}

// Format selects an output format for matching deals
type Format int

const (
	FormatOneLine Format = iota
	FormatAll
	FormatEW
	FormatPBN
	FormatCompact
)

// ParseFormat parses a format name, with and without the print prefix
func ParseFormat(s string) (Format, bool) {
	switch lowerASCII(s) {
	case "printoneline", "oneline":
		return FormatOneLine, true
	case "printall", "all":
		return FormatAll, true
	case "printew", "ew":
		return FormatEW, true
	case "printpbn", "pbn":
		return FormatPBN, true
	case "printcompact", "compact":
		return FormatCompact, true
	default:
		return 0, false
	}
}

// AverageSpec is an `average [label] expr` action directive
type AverageSpec struct {
	Label string
	Expr  Expr
}

// FrequencySpec is a `frequency [label] expr [min max]` directive
type FrequencySpec struct {
	Label    string
	Expr     Expr
	HasRange bool
	Min      int32
	Max      int32
}

// CSVTermKind distinguishes csvrpt terms
type CSVTermKind int

const (
	CSVExpr CSVTermKind = iota
	CSVString
	CSVCompass
	CSVSideNS
	CSVSideEW
	CSVDeal
)

// CSVTerm is a single column of a csvrpt row
type CSVTerm struct {
	Kind CSVTermKind
	Expr Expr
	Str  string
	Seat deck.Seat
}

// PredealSpec assigns cards to a seat before shuffling
type PredealSpec struct {
	Seat  deck.Seat
	Cards []deck.Card
}

// Program is the parsed form of an input script. Directives are
// pre-extracted for the supervisor; variable bindings are keyed on
// interned names (a later assignment to the same name shadows the
// earlier one).
type Program struct {
	Vars        map[string]Expr
	Condition   Expr
	Produce     *int
	Generate    *int
	Dealer      *deck.Seat
	Vulnerable  *Vulnerability
	Format      *Format
	Predeals    []PredealSpec
	Averages    []AverageSpec
	Frequencies []FrequencySpec
	CSVReports  [][]CSVTerm
}

func lowerASCII(s string) string {
	b := []byte(s)
	for i := range b {
		if b[i] >= 'A' && b[i] <= 'Z' {
			b[i] += 'a' - 'A'
		}
	}
	return string(b)
}
