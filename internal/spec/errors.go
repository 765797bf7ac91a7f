package spec

import "fmt"

// ReadError reports a failure to assemble a logical line: an unreadable
// file, a malformed %include or input that ends inside a macro or
// continuation.
type ReadError struct {
	File  string
	Line  int
	Msg   string
	Cause error
}

func (e *ReadError) Error() string {
	msg := e.Msg
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return locate(e.File, e.Line) + msg
}

func (e *ReadError) Unwrap() error {
	return e.Cause
}

// CondError reports a misused conditional directive.
type CondError struct {
	File  string
	Line  int
	Msg   string
	Cause error
}

func (e *CondError) Error() string {
	msg := e.Msg
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return locate(e.File, e.Line) + msg
}

func (e *CondError) Unwrap() error {
	return e.Cause
}

func locate(file string, line int) string {
	switch {
	case file != "" && line > 0:
		return fmt.Sprintf("%s:%d: ", file, line)
	case file != "":
		return file + ": "
	case line > 0:
		return fmt.Sprintf("line %d: ", line)
	}
	return ""
}
