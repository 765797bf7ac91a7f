package expr

import (
	"fmt"
	"strconv"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokInteger
	tokString
	tokIdent
	tokLParen
	tokRParen
	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokNot
	tokEQ
	tokNE
	tokLT
	tokLE
	tokGT
	tokGE
	tokAnd
	tokOr
)

var tokenNames = map[tokenKind]string{
	tokEOF:     "end of expression",
	tokInteger: "integer",
	tokString:  "string",
	tokIdent:   "identifier",
	tokLParen:  "(",
	tokRParen:  ")",
	tokPlus:    "+",
	tokMinus:   "-",
	tokStar:    "*",
	tokSlash:   "/",
	tokNot:     "!",
	tokEQ:      "==",
	tokNE:      "!=",
	tokLT:      "<",
	tokLE:      "<=",
	tokGT:      ">",
	tokGE:      ">=",
	tokAnd:     "&&",
	tokOr:      "||",
}

func (k tokenKind) String() string {
	if s, ok := tokenNames[k]; ok {
		return s
	}
	return fmt.Sprintf("token(%d)", int(k))
}

type token struct {
	kind tokenKind
	text string
	pos  int
	num  int64
}

// Lexer splits an expression into tokens.
type Lexer struct {
	input string
	pos   int
}

// NewLexer creates a lexer over input.
func NewLexer(input string) *Lexer {
	return &Lexer{input: input}
}

func (l *Lexer) peekByte(off int) byte {
	if l.pos+off < len(l.input) {
		return l.input[l.pos+off]
	}
	return 0
}

func (l *Lexer) next() (token, error) {
	for l.pos < len(l.input) && isSpace(l.input[l.pos]) {
		l.pos++
	}
	start := l.pos
	if l.pos >= len(l.input) {
		return token{kind: tokEOF, pos: start}, nil
	}

	two := func(kind tokenKind) (token, error) {
		l.pos += 2
		return token{kind: kind, text: l.input[start:l.pos], pos: start}, nil
	}
	one := func(kind tokenKind) (token, error) {
		l.pos++
		return token{kind: kind, text: l.input[start:l.pos], pos: start}, nil
	}

	c := l.input[l.pos]
	switch {
	case c == '(':
		return one(tokLParen)
	case c == ')':
		return one(tokRParen)
	case c == '+':
		return one(tokPlus)
	case c == '-':
		return one(tokMinus)
	case c == '*':
		return one(tokStar)
	case c == '/':
		return one(tokSlash)
	case c == '=' && l.peekByte(1) == '=':
		return two(tokEQ)
	case c == '!' && l.peekByte(1) == '=':
		return two(tokNE)
	case c == '!':
		return one(tokNot)
	case c == '<' && l.peekByte(1) == '=':
		return two(tokLE)
	case c == '<':
		return one(tokLT)
	case c == '>' && l.peekByte(1) == '=':
		return two(tokGE)
	case c == '>':
		return one(tokGT)
	case c == '&' && l.peekByte(1) == '&':
		return two(tokAnd)
	case c == '|' && l.peekByte(1) == '|':
		return two(tokOr)
	case c == '"':
		return l.lexString()
	case isDigit(c):
		for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
			l.pos++
		}
		text := l.input[start:l.pos]
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return token{}, newSyntaxError(l.input, start, "integer out of range")
		}
		return token{kind: tokInteger, text: text, pos: start, num: n}, nil
	case isIdentStart(c):
		for l.pos < len(l.input) && isIdentChar(l.input[l.pos]) {
			l.pos++
		}
		return token{kind: tokIdent, text: l.input[start:l.pos], pos: start}, nil
	}
	return token{}, newSyntaxError(l.input, start, fmt.Sprintf("unexpected character %q", c))
}

func (l *Lexer) lexString() (token, error) {
	start := l.pos
	l.pos++
	for l.pos < len(l.input) && l.input[l.pos] != '"' {
		l.pos++
	}
	if l.pos >= len(l.input) {
		return token{}, newSyntaxError(l.input, start, "unterminated string")
	}
	l.pos++
	return token{kind: tokString, text: l.input[start+1 : l.pos-1], pos: start}, nil
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f'
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
}

func isIdentChar(c byte) bool { return isIdentStart(c) || isDigit(c) }
