package script

import (
	"fmt"
	"strconv"

	"github.com/lox/bridgedealer/internal/deck"
)

// Parse preprocesses, lexes and parses an input script into a Program.
func Parse(input string) (*Program, error) {
	tokens, err := Lex(Preprocess(input))
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	return p.parseProgram()
}

// ParseExpr parses input that must consist of a single expression.
func ParseExpr(input string) (Expr, error) {
	tokens, err := Lex(Preprocess(input))
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if !p.at(TokEOF) {
		return nil, p.unexpected(p.peek(), "end of expression")
	}
	return expr, nil
}

type parser struct {
	tokens []Token
	pos    int
}

func (p *parser) peek() Token {
	return p.tokens[p.pos]
}

func (p *parser) peekAt(offset int) Token {
	if p.pos+offset >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.pos+offset]
}

func (p *parser) at(kind TokenKind) bool {
	return p.peek().Kind == kind
}

func (p *parser) advance() Token {
	tok := p.tokens[p.pos]
	if tok.Kind != TokEOF {
		p.pos++
	}
	return tok
}

func (p *parser) expect(kind TokenKind, what string) (Token, error) {
	if !p.at(kind) {
		return Token{}, p.unexpected(p.peek(), what)
	}
	return p.advance(), nil
}

func (p *parser) unexpected(tok Token, what string) error {
	return &Error{
		Kind: ErrUnexpectedToken, Line: tok.Line, Col: tok.Col,
		Msg: fmt.Sprintf("expected %s, got %s", what, tok),
	}
}

// atKeyword reports whether the current token is the given identifier
// keyword (case-insensitive).
func (p *parser) atKeyword(kw string) bool {
	return p.at(TokIdent) && lowerASCII(p.peek().Text) == kw
}

func (p *parser) parseProgram() (*Program, error) {
	prog := &Program{Vars: map[string]Expr{}}

	for !p.at(TokEOF) {
		tok := p.peek()
		if tok.Kind == TokIdent {
			switch lowerASCII(tok.Text) {
			case "condition":
				p.advance()
				expr, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				prog.Condition = expr
				continue
			case "produce":
				p.advance()
				n, err := p.parseCount()
				if err != nil {
					return nil, err
				}
				prog.Produce = &n
				continue
			case "generate":
				p.advance()
				n, err := p.parseCount()
				if err != nil {
					return nil, err
				}
				prog.Generate = &n
				continue
			case "dealer":
				p.advance()
				seat, err := p.parseSeatKeyword()
				if err != nil {
					return nil, err
				}
				prog.Dealer = &seat
				continue
			case "vulnerable":
				p.advance()
				word, err := p.expect(TokIdent, "vulnerability (none, NS, EW, all)")
				if err != nil {
					return nil, err
				}
				vul, ok := ParseVulnerability(word.Text)
				if !ok {
					return nil, p.unexpected(word, "vulnerability (none, NS, EW, all)")
				}
				prog.Vulnerable = &vul
				continue
			case "predeal":
				p.advance()
				seat, err := p.parseSeatKeyword()
				if err != nil {
					return nil, err
				}
				cards, err := p.parseCardList()
				if err != nil {
					return nil, err
				}
				prog.Predeals = append(prog.Predeals, PredealSpec{Seat: seat, Cards: cards})
				continue
			case "action":
				p.advance()
				if err := p.parseActionList(prog); err != nil {
					return nil, err
				}
				continue
			case "csvrpt":
				p.advance()
				terms, err := p.parseCSVReport()
				if err != nil {
					return nil, err
				}
				prog.CSVReports = append(prog.CSVReports, terms)
				continue
			}

			// Assignment: identifier = expression.
			if p.peekAt(1).Kind == TokAssign {
				name := p.advance().Text
				p.advance()
				expr, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				prog.Vars[name] = expr
				continue
			}
		}

		// Bare expression: treated as the condition. When a program
		// holds both a condition statement and a bare trailing
		// expression, the last one encountered is authoritative.
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		prog.Condition = expr
	}

	return prog, nil
}

func (p *parser) parseCount() (int, error) {
	tok, err := p.expect(TokInt, "integer")
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(tok.Text)
	if err != nil {
		return 0, p.unexpected(tok, "integer")
	}
	return n, nil
}

func (p *parser) parseSeatKeyword() (deck.Seat, error) {
	tok, err := p.expect(TokIdent, "seat (north, east, south, west)")
	if err != nil {
		return 0, err
	}
	seat, ok := deck.ParseSeat(tok.Text)
	if !ok {
		return 0, p.unexpected(tok, "seat (north, east, south, west)")
	}
	return seat, nil
}

// parseCardList parses a comma-separated predeal card list. Tokens
// are either rank-suit cards (AS, KH) or suit-grouped runs (S8743).
func (p *parser) parseCardList() ([]deck.Card, error) {
	var cards []deck.Card
	for {
		tok := p.advance()
		switch tok.Kind {
		case TokCard:
			c, err := deck.ParseCard(tok.Text)
			if err != nil {
				return nil, &Error{Kind: ErrBadCard, Line: tok.Line, Col: tok.Col, Msg: err.Error()}
			}
			cards = append(cards, c)
		case TokIdent:
			suit, ok := deck.ParseSuit(tok.Text[0])
			if !ok || len(tok.Text) < 2 {
				return nil, &Error{Kind: ErrBadCard, Line: tok.Line, Col: tok.Col,
					Msg: fmt.Sprintf("invalid card token %q", tok.Text)}
			}
			for i := 1; i < len(tok.Text); i++ {
				rank, ok := deck.ParseRank(tok.Text[i])
				if !ok {
					return nil, &Error{Kind: ErrBadCard, Line: tok.Line, Col: tok.Col,
						Msg: fmt.Sprintf("invalid rank %q in %q", string(tok.Text[i]), tok.Text)}
				}
				cards = append(cards, deck.NewCard(suit, rank))
			}
		default:
			return nil, &Error{Kind: ErrBadCard, Line: tok.Line, Col: tok.Col,
				Msg: fmt.Sprintf("expected card, got %s", tok)}
		}
		if !p.at(TokComma) {
			return cards, nil
		}
		p.advance()
	}
}

// parseActionList parses the comma-separated directives after
// `action`: a print format selector, average and frequency specs.
func (p *parser) parseActionList(prog *Program) error {
	for {
		tok, err := p.expect(TokIdent, "action directive")
		if err != nil {
			return err
		}
		switch lowerASCII(tok.Text) {
		case "average":
			spec := AverageSpec{}
			if p.at(TokString) {
				spec.Label = p.advance().Text
			}
			spec.Expr, err = p.parseExpr()
			if err != nil {
				return err
			}
			prog.Averages = append(prog.Averages, spec)
		case "frequency":
			spec := FrequencySpec{}
			if p.at(TokString) {
				spec.Label = p.advance().Text
			}
			spec.Expr, err = p.parseExpr()
			if err != nil {
				return err
			}
			if p.at(TokInt) {
				minVal, err := p.parseInt32()
				if err != nil {
					return err
				}
				maxVal, err := p.parseSignedInt32()
				if err != nil {
					return err
				}
				spec.HasRange = true
				spec.Min = minVal
				spec.Max = maxVal
			}
			prog.Frequencies = append(prog.Frequencies, spec)
		default:
			format, ok := ParseFormat(tok.Text)
			if !ok {
				return p.unexpected(tok, "action directive (print format, average, frequency)")
			}
			prog.Format = &format
		}
		if !p.at(TokComma) {
			return nil
		}
		p.advance()
	}
}

func (p *parser) parseInt32() (int32, error) {
	tok, err := p.expect(TokInt, "integer")
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(tok.Text, 10, 32)
	if err != nil {
		return 0, p.unexpected(tok, "32-bit integer")
	}
	return int32(n), nil
}

func (p *parser) parseSignedInt32() (int32, error) {
	negate := false
	if p.at(TokMinus) {
		p.advance()
		negate = true
	}
	n, err := p.parseInt32()
	if err != nil {
		return 0, err
	}
	if negate {
		return -n, nil
	}
	return n, nil
}

// parseCSVReport parses csvrpt(term, term, ...).
func (p *parser) parseCSVReport() ([]CSVTerm, error) {
	if _, err := p.expect(TokLParen, "("); err != nil {
		return nil, err
	}
	var terms []CSVTerm
	for {
		switch {
		case p.at(TokString):
			terms = append(terms, CSVTerm{Kind: CSVString, Str: p.advance().Text})
		case p.atKeyword("deal"):
			p.advance()
			terms = append(terms, CSVTerm{Kind: CSVDeal})
		case p.atKeyword("ns"):
			p.advance()
			terms = append(terms, CSVTerm{Kind: CSVSideNS})
		case p.atKeyword("ew"):
			p.advance()
			terms = append(terms, CSVTerm{Kind: CSVSideEW})
		case p.at(TokIdent) && isSeatWord(p.peek().Text) && !p.seatStartsExpr():
			seat, _ := deck.ParseSeat(p.advance().Text)
			terms = append(terms, CSVTerm{Kind: CSVCompass, Seat: seat})
		default:
			expr, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			terms = append(terms, CSVTerm{Kind: CSVExpr, Expr: expr})
		}
		if p.at(TokComma) {
			p.advance()
			continue
		}
		if _, err := p.expect(TokRParen, ") or ,"); err != nil {
			return nil, err
		}
		return terms, nil
	}
}

// seatStartsExpr reports whether the seat word at the cursor begins a
// larger expression rather than standing alone as a compass term.
func (p *parser) seatStartsExpr() bool {
	switch p.peekAt(1).Kind {
	case TokComma, TokRParen:
		return false
	default:
		return true
	}
}

func isSeatWord(s string) bool {
	_, ok := deck.ParseSeat(s)
	return ok
}

// Expression precedence, low to high:
// ternary, or, and, equality, relational, additive, multiplicative,
// unary, primary.

func (p *parser) parseExpr() (Expr, error) {
	return p.parseTernary()
}

func (p *parser) parseTernary() (Expr, error) {
	cond, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if !p.at(TokQuestion) {
		return cond, nil
	}
	p.advance()
	then, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokColon, ":"); err != nil {
		return nil, err
	}
	els, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	return Ternary{Cond: cond, Then: then, Else: els}, nil
}

func (p *parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.at(TokOrOr) || p.atKeyword("or") {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = BinOp{Op: OpOr, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (Expr, error) {
	left, err := p.parseEquality()
	if err != nil {
		return nil, err
	}
	for p.at(TokAndAnd) || p.atKeyword("and") {
		p.advance()
		right, err := p.parseEquality()
		if err != nil {
			return nil, err
		}
		left = BinOp{Op: OpAnd, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseEquality() (Expr, error) {
	left, err := p.parseRelational()
	if err != nil {
		return nil, err
	}
	for {
		var op BinOpKind
		switch p.peek().Kind {
		case TokEq:
			op = OpEq
		case TokNe:
			op = OpNe
		default:
			return left, nil
		}
		p.advance()
		right, err := p.parseRelational()
		if err != nil {
			return nil, err
		}
		left = BinOp{Op: op, Left: left, Right: right}
	}
}

func (p *parser) parseRelational() (Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for {
		var op BinOpKind
		switch p.peek().Kind {
		case TokLt:
			op = OpLt
		case TokLe:
			op = OpLe
		case TokGt:
			op = OpGt
		case TokGe:
			op = OpGe
		default:
			return left, nil
		}
		p.advance()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		left = BinOp{Op: op, Left: left, Right: right}
	}
}

func (p *parser) parseAdditive() (Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for {
		var op BinOpKind
		switch p.peek().Kind {
		case TokPlus:
			op = OpAdd
		case TokMinus:
			op = OpSub
		default:
			return left, nil
		}
		p.advance()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = BinOp{Op: op, Left: left, Right: right}
	}
}

func (p *parser) parseMultiplicative() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		var op BinOpKind
		switch p.peek().Kind {
		case TokStar:
			op = OpMul
		case TokSlash:
			op = OpDiv
		case TokPercent:
			op = OpMod
		default:
			return left, nil
		}
		p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = BinOp{Op: op, Left: left, Right: right}
	}
}

func (p *parser) parseUnary() (Expr, error) {
	switch {
	case p.at(TokMinus):
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return UnaryOp{Op: OpNegate, Operand: operand}, nil
	case p.at(TokNot) || p.atKeyword("not"):
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return UnaryOp{Op: OpNot, Operand: operand}, nil
	default:
		return p.parsePrimary()
	}
}

func (p *parser) parsePrimary() (Expr, error) {
	tok := p.peek()
	switch tok.Kind {
	case TokInt:
		p.advance()
		n, err := strconv.ParseInt(tok.Text, 10, 32)
		if err != nil {
			return nil, p.unexpected(tok, "32-bit integer")
		}
		return IntLit{Value: int32(n)}, nil

	case TokCard:
		p.advance()
		c, err := deck.ParseCard(tok.Text)
		if err != nil {
			return nil, &Error{Kind: ErrBadCard, Line: tok.Line, Col: tok.Col, Msg: err.Error()}
		}
		return CardLit{Card: c}, nil

	case TokLParen:
		p.advance()
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokRParen, ")"); err != nil {
			return nil, err
		}
		return expr, nil

	case TokShapeMarked, TokShapeWild:
		return nil, &Error{Kind: ErrBadShape, Line: tok.Line, Col: tok.Col,
			Msg: "shape pattern is only valid as the second argument of shape()"}

	case TokIdent:
		return p.parseIdentExpr()

	default:
		return nil, p.unexpected(tok, "expression")
	}
}

// parseIdentExpr handles seats, suits, function calls and variables.
func (p *parser) parseIdentExpr() (Expr, error) {
	tok := p.advance()
	word := lowerASCII(tok.Text)

	// A known function name followed by ( is a call. Suit keywords
	// double as suit-length functions (spades(north)).
	if fn, ok := functionNames[word]; ok && p.at(TokLParen) {
		return p.parseCall(tok, fn)
	}

	if seat, ok := deck.ParseSeat(word); ok {
		return SeatLit{Seat: seat}, nil
	}
	switch word {
	case "spades":
		return SuitLit{Suit: deck.Spades}, nil
	case "hearts":
		return SuitLit{Suit: deck.Hearts}, nil
	case "diamonds":
		return SuitLit{Suit: deck.Diamonds}, nil
	case "clubs":
		return SuitLit{Suit: deck.Clubs}, nil
	}

	if _, ok := functionNames[word]; ok {
		// Known function without an argument list.
		return nil, &Error{Kind: ErrArityMismatch, Line: tok.Line, Col: tok.Col,
			Msg: fmt.Sprintf("function %s requires arguments", tok.Text)}
	}

	// Identifier followed by ( that is not a known function.
	if p.at(TokLParen) {
		return nil, &Error{Kind: ErrUnknownFunction, Line: tok.Line, Col: tok.Col,
			Msg: fmt.Sprintf("unknown function %q", tok.Text)}
	}

	return VarRef{Name: tok.Text}, nil
}

func (p *parser) parseCall(nameTok Token, fn Function) (Expr, error) {
	if _, err := p.expect(TokLParen, "("); err != nil {
		return nil, err
	}

	var args []Expr
	if fn == FnShape {
		seatArg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokComma, ","); err != nil {
			return nil, err
		}
		mask, err := p.parseShapeExpr()
		if err != nil {
			return nil, err
		}
		args = []Expr{seatArg, ShapeExpr{Mask: mask}}
	} else if !p.at(TokRParen) {
		for {
			arg, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if !p.at(TokComma) {
				break
			}
			p.advance()
		}
	}
	if _, err := p.expect(TokRParen, ")"); err != nil {
		return nil, err
	}

	bounds := functionArity[fn]
	if len(args) < bounds[0] || len(args) > bounds[1] {
		return nil, &Error{Kind: ErrArityMismatch, Line: nameTok.Line, Col: nameTok.Col,
			Msg: fmt.Sprintf("function %s takes %d-%d arguments, got %d",
				nameTok.Text, bounds[0], bounds[1], len(args))}
	}
	return Call{Fn: fn, Args: args}, nil
}

// parseShapeExpr parses a shape sub-expression: a chain of terms
// combined with + (union) and - (difference), compiled directly to a
// distribution mask.
func (p *parser) parseShapeExpr() (deck.ShapeMask, error) {
	mask, err := p.parseShapeTerm()
	if err != nil {
		return deck.ShapeMask{}, err
	}
	for {
		switch p.peek().Kind {
		case TokPlus:
			p.advance()
			term, err := p.parseShapeTerm()
			if err != nil {
				return deck.ShapeMask{}, err
			}
			mask = mask.Union(term)
		case TokMinus:
			p.advance()
			term, err := p.parseShapeTerm()
			if err != nil {
				return deck.ShapeMask{}, err
			}
			mask = mask.Difference(term)
		default:
			return mask, nil
		}
	}
}

func (p *parser) parseShapeTerm() (deck.ShapeMask, error) {
	anyPrefix := false
	if p.atKeyword("any") {
		p.advance()
		anyPrefix = true
	}

	tok := p.advance()
	var text string
	switch tok.Kind {
	case TokShapeMarked, TokShapeWild:
		text = tok.Text
	case TokInt:
		// Pure digits reach the grammar unmarked only after `any`.
		if !anyPrefix {
			return deck.ShapeMask{}, &Error{Kind: ErrBadShape, Line: tok.Line, Col: tok.Col,
				Msg: fmt.Sprintf("ambiguous shape pattern %q", tok.Text)}
		}
		text = tok.Text
	default:
		return deck.ShapeMask{}, &Error{Kind: ErrBadShape, Line: tok.Line, Col: tok.Col,
			Msg: fmt.Sprintf("expected shape pattern, got %s", tok)}
	}

	if len(text) != 4 {
		return deck.ShapeMask{}, &Error{Kind: ErrBadShape, Line: tok.Line, Col: tok.Col,
			Msg: fmt.Sprintf("shape pattern must be 4 characters, got %q", text)}
	}

	var pattern [4]int
	hasWild := false
	for i := 0; i < 4; i++ {
		switch b := text[i]; {
		case b == 'x' || b == 'X':
			pattern[i] = -1
			hasWild = true
		case isDigit(b):
			pattern[i] = int(b - '0')
		default:
			return deck.ShapeMask{}, &Error{Kind: ErrBadShape, Line: tok.Line, Col: tok.Col,
				Msg: fmt.Sprintf("invalid character %q in shape pattern", string(b))}
		}
	}

	switch {
	case anyPrefix:
		return deck.AnyShape(pattern), nil
	case hasWild:
		return deck.WildcardShape(pattern), nil
	default:
		return deck.ExactShape(pattern[0], pattern[1], pattern[2], pattern[3]), nil
	}
}
