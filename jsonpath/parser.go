package jsonpath

import "fmt"

// Parse compiles a JSONPath string (e.g. "$.messages[0].content" or
// "$.items[?(@.price < 10 && @.tags =~ \"^sale\")]") into an Expression.
func Parse(path string) (*Expression, error) {
	p := &parser{lex: newLexer(path)}

	if err := p.advance(); err != nil {
		return nil, err
	}

	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	if p.cur.kind != tokEOF {
		return nil, parseErr(p.cur.pos, "unexpected trailing input near %q", p.cur.text)
	}

	return expr, nil
}

type parser struct {
	lex *lexer
	cur token
}

func (p *parser) advance() error {
	tok, err := p.lex.next()
	if err != nil {
		return err
	}

	p.cur = tok

	return nil
}

func (p *parser) expect(kind tokenKind, what string) error {
	if p.cur.kind != kind {
		return parseErr(p.cur.pos, "expected %s", what)
	}

	return p.advance()
}

func (p *parser) parseExpression() (*Expression, error) {
	if p.cur.kind != tokDollar {
		return nil, parseErr(p.cur.pos, "expression must start with '$'")
	}

	if err := p.advance(); err != nil {
		return nil, err
	}

	selectors := []Selector{RootSelector()}

	for {
		switch p.cur.kind {
		case tokDot:
			if err := p.advance(); err != nil {
				return nil, err
			}

			sel, err := p.parseDotSelector()
			if err != nil {
				return nil, err
			}

			selectors = append(selectors, sel)
		case tokDotDot:
			if err := p.advance(); err != nil {
				return nil, err
			}

			selectors = append(selectors, RecursiveDescentSelector())

			sel, err := p.parseDotSelector()
			if err != nil {
				return nil, err
			}

			selectors = append(selectors, sel)
		case tokLBracket:
			sel, err := p.parseBracketSelector()
			if err != nil {
				return nil, err
			}

			selectors = append(selectors, sel)
		default:
			return &Expression{Selectors: selectors}, nil
		}
	}
}

func (p *parser) parseDotSelector() (Selector, error) {
	switch p.cur.kind {
	case tokStar:
		if err := p.advance(); err != nil {
			return Selector{}, err
		}

		return WildcardSelector(), nil
	case tokIdent:
		name := p.cur.text
		if err := p.advance(); err != nil {
			return Selector{}, err
		}

		return PropertySelector(name), nil
	default:
		return Selector{}, parseErr(p.cur.pos, "expected property name or '*' after '.'")
	}
}

func (p *parser) parseBracketSelector() (Selector, error) {
	if err := p.advance(); err != nil { // consume '['
		return Selector{}, err
	}

	switch p.cur.kind {
	case tokStar:
		if err := p.advance(); err != nil {
			return Selector{}, err
		}

		return p.closeBracket(WildcardSelector())
	case tokQuestion:
		if err := p.advance(); err != nil {
			return Selector{}, err
		}

		if err := p.expect(tokLParen, "'(' after '?'"); err != nil {
			return Selector{}, err
		}

		filter, err := p.parseFilterOr()
		if err != nil {
			return Selector{}, err
		}

		if err := p.expect(tokRParen, "')' to close filter"); err != nil {
			return Selector{}, err
		}

		return p.closeBracket(FilterSelector(filter))
	case tokString:
		name := p.cur.text
		if err := p.advance(); err != nil {
			return Selector{}, err
		}

		if p.cur.kind == tokComma {
			members := []Selector{PropertySelector(name)}

			for p.cur.kind == tokComma {
				if err := p.advance(); err != nil {
					return Selector{}, err
				}

				if p.cur.kind != tokString {
					return Selector{}, parseErr(p.cur.pos, "expected quoted property name in union")
				}

				members = append(members, PropertySelector(p.cur.text))

				if err := p.advance(); err != nil {
					return Selector{}, err
				}
			}

			return p.closeBracket(UnionSelector(members))
		}

		return p.closeBracket(PropertySelector(name))
	case tokNumber, tokColon:
		return p.parseIndexOrSlice()
	default:
		return Selector{}, parseErr(p.cur.pos, "unexpected token inside '[...]'")
	}
}

func (p *parser) closeBracket(sel Selector) (Selector, error) {
	if err := p.expect(tokRBracket, "']'"); err != nil {
		return Selector{}, err
	}

	return sel, nil
}

func (p *parser) parseIndexOrSlice() (Selector, error) {
	var start, end, step *int

	if p.cur.kind == tokNumber {
		v := int(p.cur.num)
		start = &v

		if err := p.advance(); err != nil {
			return Selector{}, err
		}
	}

	if p.cur.kind == tokComma {
		indices := []int{}
		if start != nil {
			indices = append(indices, *start)
		}

		for p.cur.kind == tokComma {
			if err := p.advance(); err != nil {
				return Selector{}, err
			}

			if p.cur.kind != tokNumber {
				return Selector{}, parseErr(p.cur.pos, "expected number in index list")
			}

			indices = append(indices, int(p.cur.num))

			if err := p.advance(); err != nil {
				return Selector{}, err
			}
		}

		return p.closeBracket(IndexListSelector(indices))
	}

	if p.cur.kind != tokColon {
		if start == nil {
			return Selector{}, parseErr(p.cur.pos, "expected index")
		}

		return p.closeBracket(IndexSelector(*start))
	}

	// slice: consumed optional start, now at ':'
	if err := p.advance(); err != nil {
		return Selector{}, err
	}

	if p.cur.kind == tokNumber {
		v := int(p.cur.num)
		end = &v

		if err := p.advance(); err != nil {
			return Selector{}, err
		}
	}

	if p.cur.kind == tokColon {
		if err := p.advance(); err != nil {
			return Selector{}, err
		}

		if p.cur.kind == tokNumber {
			v := int(p.cur.num)
			step = &v

			if err := p.advance(); err != nil {
				return Selector{}, err
			}
		}
	}

	if step != nil && *step == 0 {
		return Selector{}, compileErr("slice step must not be 0")
	}

	return p.closeBracket(SliceSelector(start, end, step))
}

// --- filter expression grammar: or > and > comparison/unary > primary ---

func (p *parser) parseFilterOr() (FilterExpr, error) {
	left, err := p.parseFilterAnd()
	if err != nil {
		return FilterExpr{}, err
	}

	for p.cur.kind == tokOr {
		if err := p.advance(); err != nil {
			return FilterExpr{}, err
		}

		right, err := p.parseFilterAnd()
		if err != nil {
			return FilterExpr{}, err
		}

		left = BinaryExpr("||", left, right)
	}

	return left, nil
}

func (p *parser) parseFilterAnd() (FilterExpr, error) {
	left, err := p.parseFilterComparison()
	if err != nil {
		return FilterExpr{}, err
	}

	for p.cur.kind == tokAnd {
		if err := p.advance(); err != nil {
			return FilterExpr{}, err
		}

		right, err := p.parseFilterComparison()
		if err != nil {
			return FilterExpr{}, err
		}

		left = BinaryExpr("&&", left, right)
	}

	return left, nil
}

var comparisonOps = map[tokenKind]string{
	tokEq:         "==",
	tokNe:         "!=",
	tokLt:         "<",
	tokLe:         "<=",
	tokGt:         ">",
	tokGe:         ">=",
	tokRegexMatch: "=~",
	tokIn:         "in",
}

func (p *parser) parseFilterComparison() (FilterExpr, error) {
	left, err := p.parseFilterUnary()
	if err != nil {
		return FilterExpr{}, err
	}

	if op, ok := comparisonOps[p.cur.kind]; ok {
		if err := p.advance(); err != nil {
			return FilterExpr{}, err
		}

		right, err := p.parseFilterUnary()
		if err != nil {
			return FilterExpr{}, err
		}

		return BinaryExpr(op, left, right), nil
	}

	return left, nil
}

func (p *parser) parseFilterUnary() (FilterExpr, error) {
	if p.cur.kind == tokNot {
		if err := p.advance(); err != nil {
			return FilterExpr{}, err
		}

		operand, err := p.parseFilterUnary()
		if err != nil {
			return FilterExpr{}, err
		}

		return UnaryExpr("!", operand), nil
	}

	return p.parseFilterPrimary()
}

func (p *parser) parseFilterPrimary() (FilterExpr, error) {
	switch p.cur.kind {
	case tokLParen:
		if err := p.advance(); err != nil {
			return FilterExpr{}, err
		}

		inner, err := p.parseFilterOr()
		if err != nil {
			return FilterExpr{}, err
		}

		if err := p.expect(tokRParen, "')'"); err != nil {
			return FilterExpr{}, err
		}

		return inner, nil
	case tokAt:
		if err := p.advance(); err != nil {
			return FilterExpr{}, err
		}

		segs, err := p.parsePathSegments()
		if err != nil {
			return FilterExpr{}, err
		}

		return PathExpr(true, segs), nil
	case tokDollar:
		if err := p.advance(); err != nil {
			return FilterExpr{}, err
		}

		segs, err := p.parsePathSegments()
		if err != nil {
			return FilterExpr{}, err
		}

		return PathExpr(false, segs), nil
	case tokNumber:
		n := p.cur.num
		if err := p.advance(); err != nil {
			return FilterExpr{}, err
		}

		return LiteralNumberExpr(n), nil
	case tokString:
		s := p.cur.text
		if err := p.advance(); err != nil {
			return FilterExpr{}, err
		}

		return LiteralStringExpr(s), nil
	case tokIdent:
		switch p.cur.text {
		case "true":
			if err := p.advance(); err != nil {
				return FilterExpr{}, err
			}

			return LiteralBoolExpr(true), nil
		case "false":
			if err := p.advance(); err != nil {
				return FilterExpr{}, err
			}

			return LiteralBoolExpr(false), nil
		case "null":
			if err := p.advance(); err != nil {
				return FilterExpr{}, err
			}

			return LiteralNullExpr(), nil
		default:
			return p.parseFunctionCall()
		}
	default:
		return FilterExpr{}, parseErr(p.cur.pos, "unexpected token in filter expression")
	}
}

func (p *parser) parseFunctionCall() (FilterExpr, error) {
	name := p.cur.text
	if err := p.advance(); err != nil {
		return FilterExpr{}, err
	}

	if err := p.expect(tokLParen, "'(' after function name"); err != nil {
		return FilterExpr{}, err
	}

	var args []FilterExpr

	for p.cur.kind != tokRParen {
		arg, err := p.parseFilterOr()
		if err != nil {
			return FilterExpr{}, err
		}

		args = append(args, arg)

		if p.cur.kind == tokComma {
			if err := p.advance(); err != nil {
				return FilterExpr{}, err
			}

			continue
		}

		break
	}

	if err := p.expect(tokRParen, "')' to close function call"); err != nil {
		return FilterExpr{}, err
	}

	return FunctionCallExpr(name, args), nil
}

// parsePathSegments parses the ".foo.bar" or "[\"foo\"]" trail after @ or $
// inside a filter expression, stopping at an operator, ')'  or ','.
func (p *parser) parsePathSegments() ([]string, error) {
	var segs []string

	for {
		switch p.cur.kind {
		case tokDot:
			if err := p.advance(); err != nil {
				return nil, err
			}

			if p.cur.kind != tokIdent {
				return nil, parseErr(p.cur.pos, "expected property name after '.' in filter path")
			}

			segs = append(segs, p.cur.text)

			if err := p.advance(); err != nil {
				return nil, err
			}
		case tokLBracket:
			if err := p.advance(); err != nil {
				return nil, err
			}

			switch p.cur.kind {
			case tokString:
				segs = append(segs, p.cur.text)
			case tokNumber:
				segs = append(segs, fmt.Sprintf("%d", int(p.cur.num)))
			default:
				return nil, parseErr(p.cur.pos, "expected quoted property or index inside '[...]'")
			}

			if err := p.advance(); err != nil {
				return nil, err
			}

			if err := p.expect(tokRBracket, "']'"); err != nil {
				return nil, err
			}
		default:
			return segs, nil
		}
	}
}
