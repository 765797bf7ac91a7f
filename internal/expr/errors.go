package expr

import "fmt"

// SyntaxError reports an expression that cannot be parsed or evaluated.
type SyntaxError struct {
	Expr   string
	Offset int
	Msg    string
}

func newSyntaxError(expr string, offset int, msg string) *SyntaxError {
	return &SyntaxError{Expr: expr, Offset: offset, Msg: msg}
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s at offset %d in %q", e.Msg, e.Offset, e.Expr)
}
