// Package expr evaluates the boolean and arithmetic expressions used by %if.
//
// Operands are decimal integers, double-quoted strings and bare words, which
// are treated as strings. Operators, from loosest to tightest binding:
//
//	||
//	&&
//	== != < <= > >=
//	+ -
//	* /
//	! - (unary)
//
// Both sides of a binary operator must have the same type. Strings only
// support comparison and concatenation with +.
package expr

import "strconv"

// Kind is the type of a Value.
type Kind int

const (
	KindInt Kind = iota
	KindString
)

// Value is the result of evaluating an expression.
type Value struct {
	Kind Kind
	Int  int64
	Str  string
}

// IntValue wraps an integer.
func IntValue(i int64) Value { return Value{Kind: KindInt, Int: i} }

// StringValue wraps a string.
func StringValue(s string) Value { return Value{Kind: KindString, Str: s} }

// Bool reports the truth of v: a non-zero integer or a non-empty string.
func (v Value) Bool() bool {
	if v.Kind == KindInt {
		return v.Int != 0
	}
	return v.Str != ""
}

func (v Value) String() string {
	if v.Kind == KindInt {
		return strconv.FormatInt(v.Int, 10)
	}
	return v.Str
}

// Evaluate parses and evaluates input as a boolean.
func Evaluate(input string) (bool, error) {
	v, err := EvaluateValue(input)
	if err != nil {
		return false, err
	}
	return v.Bool(), nil
}

// EvaluateValue parses and evaluates input.
func EvaluateValue(input string) (Value, error) {
	p, err := newParser(input)
	if err != nil {
		return Value{}, err
	}
	if p.tok.kind == tokEOF {
		return Value{}, newSyntaxError(input, 0, "empty expression")
	}
	v, err := p.parseExpression(precOr)
	if err != nil {
		return Value{}, err
	}
	if p.tok.kind != tokEOF {
		return Value{}, p.errorf("unexpected %s", p.tok.kind)
	}
	return v, nil
}
