package expr

import (
	"cmp"
	"fmt"
)

// Precedence levels, loosest first.
const (
	precNone = iota
	precOr
	precAnd
	precComparison
	precAddition
	precMultiply
	precUnary
)

type parser struct {
	lex *Lexer
	tok token
}

func newParser(input string) (*parser, error) {
	p := &parser{lex: NewLexer(input)}
	if err := p.nextToken(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *parser) nextToken() error {
	tok, err := p.lex.next()
	if err != nil {
		return err
	}
	p.tok = tok
	return nil
}

func (p *parser) errorf(format string, args ...any) *SyntaxError {
	return newSyntaxError(p.lex.input, p.tok.pos, fmt.Sprintf(format, args...))
}

// parseExpression implements precedence climbing. Every binary operator is
// left-associative.
func (p *parser) parseExpression(minPrec int) (Value, error) {
	left, err := p.parsePrefix()
	if err != nil {
		return Value{}, err
	}

	for {
		prec := infixPrecedence(p.tok.kind)
		if prec == precNone || prec < minPrec {
			return left, nil
		}
		op := p.tok
		if err := p.nextToken(); err != nil {
			return Value{}, err
		}
		right, err := p.parseExpression(prec + 1)
		if err != nil {
			return Value{}, err
		}
		left, err = p.apply(op, left, right)
		if err != nil {
			return Value{}, err
		}
	}
}

func (p *parser) parsePrefix() (Value, error) {
	tok := p.tok
	switch tok.kind {
	case tokNot, tokMinus:
		if err := p.nextToken(); err != nil {
			return Value{}, err
		}
		v, err := p.parseExpression(precUnary)
		if err != nil {
			return Value{}, err
		}
		if v.Kind != KindInt {
			return Value{}, newSyntaxError(p.lex.input, tok.pos, fmt.Sprintf("%s only on numbers", tok.kind))
		}
		if tok.kind == tokNot {
			return IntValue(boolInt(v.Int == 0)), nil
		}
		return IntValue(-v.Int), nil

	case tokLParen:
		if err := p.nextToken(); err != nil {
			return Value{}, err
		}
		v, err := p.parseExpression(precOr)
		if err != nil {
			return Value{}, err
		}
		if p.tok.kind != tokRParen {
			return Value{}, p.errorf("unmatched (")
		}
		return v, p.nextToken()

	case tokInteger:
		return IntValue(tok.num), p.nextToken()

	case tokString, tokIdent:
		return StringValue(tok.text), p.nextToken()

	case tokEOF:
		return Value{}, p.errorf("unexpected end of expression")
	}
	return Value{}, p.errorf("unexpected %s", tok.kind)
}

func infixPrecedence(k tokenKind) int {
	switch k {
	case tokOr:
		return precOr
	case tokAnd:
		return precAnd
	case tokEQ, tokNE, tokLT, tokLE, tokGT, tokGE:
		return precComparison
	case tokPlus, tokMinus:
		return precAddition
	case tokStar, tokSlash:
		return precMultiply
	}
	return precNone
}

func (p *parser) apply(op token, l, r Value) (Value, error) {
	fail := func(msg string) (Value, error) {
		return Value{}, newSyntaxError(p.lex.input, op.pos, msg)
	}
	if l.Kind != r.Kind {
		return fail("types must match")
	}

	switch op.kind {
	case tokAnd, tokOr:
		if l.Kind != KindInt {
			return fail("&& and || not supported for strings")
		}
		if op.kind == tokAnd {
			return IntValue(boolInt(l.Int != 0 && r.Int != 0)), nil
		}
		return IntValue(boolInt(l.Int != 0 || r.Int != 0)), nil

	case tokStar, tokSlash:
		if l.Kind != KindInt {
			return fail("* / not supported for strings")
		}
		if op.kind == tokStar {
			return IntValue(l.Int * r.Int), nil
		}
		if r.Int == 0 {
			return fail("division by zero")
		}
		return IntValue(l.Int / r.Int), nil

	case tokPlus:
		if l.Kind == KindString {
			return StringValue(l.Str + r.Str), nil
		}
		return IntValue(l.Int + r.Int), nil

	case tokMinus:
		if l.Kind != KindInt {
			return fail("- not supported for strings")
		}
		return IntValue(l.Int - r.Int), nil
	}

	var c int
	if l.Kind == KindInt {
		c = cmp.Compare(l.Int, r.Int)
	} else {
		c = cmp.Compare(l.Str, r.Str)
	}
	var res bool
	switch op.kind {
	case tokEQ:
		res = c == 0
	case tokNE:
		res = c != 0
	case tokLT:
		res = c < 0
	case tokLE:
		res = c <= 0
	case tokGT:
		res = c > 0
	case tokGE:
		res = c >= 0
	default:
		return fail(fmt.Sprintf("unexpected operator %s", op.kind))
	}
	return IntValue(boolInt(res)), nil
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
