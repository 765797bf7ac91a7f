package macro

import "fmt"

// Position identifies the source text being expanded. It is only used for
// diagnostics.
type Position struct {
	File string
	Line int
}

func (p Position) String() string {
	switch {
	case p.File != "" && p.Line > 0:
		return fmt.Sprintf("%s:%d", p.File, p.Line)
	case p.File != "":
		return p.File
	case p.Line > 0:
		return fmt.Sprintf("line %d", p.Line)
	}
	return ""
}

// Error is implemented by every error the expander reports.
type Error interface {
	error
	Position() Position
}

type baseError struct {
	pos Position
	msg string
}

func (e *baseError) Position() Position { return e.pos }
func (e *baseError) Error() string {
	if loc := e.pos.String(); loc != "" {
		return fmt.Sprintf("%s: %s", loc, e.msg)
	}
	return e.msg
}

// SyntaxError reports malformed macro text: an unterminated brace, paren
// or body, an illegal name, or an unterminated option list.
type SyntaxError struct {
	baseError
}

// NewSyntaxErrorf creates a syntax error with formatting.
func NewSyntaxErrorf(pos Position, format string, args ...any) *SyntaxError {
	return &SyntaxError{baseError: baseError{pos: pos, msg: fmt.Sprintf(format, args...)}}
}

// RecursionError reports that nested expansion exceeded the depth ceiling.
type RecursionError struct {
	baseError
	Depth int
}

func newRecursionError(pos Position, depth int) *RecursionError {
	return &RecursionError{
		baseError: baseError{
			pos: pos,
			msg: "Too many levels of recursion in macro expansion. It is likely caused by recursive macro declaration.",
		},
		Depth: depth,
	}
}

// OptionError reports an option letter a parameterized macro does not
// accept, or a missing option value.
type OptionError struct {
	baseError
	Option byte
	Macro  string
	Opts   string
}

func newOptionError(pos Position, opt byte, macro, opts string) *OptionError {
	return &OptionError{
		baseError: baseError{pos: pos, msg: fmt.Sprintf("Unknown option %c in %s(%s)", opt, macro, opts)},
		Option:    opt,
		Macro:     macro,
		Opts:      opts,
	}
}

// ShellError reports a %(...) command that could not be run.
type ShellError struct {
	baseError
	Command string
	Cause   error
}

func (e *ShellError) Error() string {
	base := e.baseError.Error()
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", base, e.Cause)
	}
	return base
}

func (e *ShellError) Unwrap() error {
	return e.Cause
}

// ScriptError reports a failed %{starlark:...} script.
type ScriptError struct {
	baseError
	Cause error
}

func (e *ScriptError) Error() string {
	base := e.baseError.Error()
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", base, e.Cause)
	}
	return base
}

func (e *ScriptError) Unwrap() error {
	return e.Cause
}
