package starlark

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/specmacro/internal/macro"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// ExecutionContext provides the globals for one script run.
type ExecutionContext struct {
	// Target is exposed as target.cpu and target.os.
	Target *TargetInfo

	host    macro.ScriptHost
	globals starlark.StringDict
}

// NewExecutionContext creates a context whose builtins act on host.
func NewExecutionContext(host macro.ScriptHost, target *TargetInfo) *ExecutionContext {
	ctx := &ExecutionContext{Target: target, host: host}
	ctx.buildGlobals()
	return ctx
}

// buildGlobals constructs the combined globals dict.
func (ctx *ExecutionContext) buildGlobals() {
	ctx.globals = hostBuiltins(ctx.host)
	ctx.globals["macros"] = macroTable{host: ctx.host}
	if ctx.Target != nil {
		ctx.globals["target"] = ctx.Target.ToStarlark()
	}
}

// Globals returns the globals dictionary for Starlark execution.
func (ctx *ExecutionContext) Globals() starlark.StringDict {
	return ctx.globals
}

// fileOptions allows top-level control flow so short scripts need no
// function wrapper.
var fileOptions = &syntax.FileOptions{
	TopLevelControl: true,
	While:           true,
	Set:             true,
	GlobalReassign:  true,
}

// Exec runs script on thread and returns the printed output, one line per
// print call.
func (ctx *ExecutionContext) Exec(thread *starlark.Thread, filename string, line int, script string) (string, error) {
	var printed []string
	thread.Print = func(_ *starlark.Thread, msg string) {
		printed = append(printed, msg)
	}
	defer func() { thread.Print = nil }()

	if _, err := starlark.ExecFileOptions(fileOptions, thread, filename, script, ctx.globals); err != nil {
		msg := err.Error()
		if evalErr, ok := err.(*starlark.EvalError); ok {
			msg = evalErr.Backtrace()
		}
		return "", &EvalError{
			File:    filename,
			Line:    line,
			Script:  script,
			Message: msg,
			Cause:   err,
		}
	}
	return strings.Join(printed, "\n"), nil
}

// EvalError represents an error while running a script.
type EvalError struct {
	File    string
	Line    int
	Script  string
	Message string
	Cause   error
}

func (e *EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: error running script: %s", e.File, e.Line, e.Message)
	}
	return fmt.Sprintf("%s: error running script: %s", e.File, e.Message)
}

func (e *EvalError) Unwrap() error {
	return e.Cause
}
