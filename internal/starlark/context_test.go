package starlark

import (
	"testing"

	"github.com/leapstack-labs/specmacro/internal/macro"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.starlark.net/starlark"
)

func newScriptExpander(t *testing.T) *macro.Expander {
	t.Helper()
	c := macro.NewContext()
	c.Define("_target_cpu", "aarch64", macro.LevelRPMRC-1)
	c.Define("_target_os", "linux", macro.LevelRPMRC-1)
	c.Define("version", "1.2.3", macro.LevelSpec-1)
	c.Define("release", "%{version}-1", macro.LevelSpec-1)
	return macro.NewExpander(c, macro.Options{Script: NewRunner().Run})
}

func TestRunner_Builtins(t *testing.T) {
	tests := []struct {
		name   string
		script string
		want   string
	}{
		{"print", `print("hello")`, "hello"},
		{"print lines", "print('a')\nprint('b', 'c')", "a\nb c"},
		{"no output", "x = 1", ""},
		{"expand", `print(expand("%{release}"))`, "1.2.3-1"},
		{"macros raw body", `print(macros["release"])`, "%{version}-1"},
		{"macros get default", `print(macros.get("missing", "none"))`, "none"},
		{"macros get found", `print(macros.get("version"))`, "1.2.3"},
		{"defined", `print(defined("version"), defined("missing"))`, "True False"},
		{"target", `print(target.cpu + "-" + target.os)`, "aarch64-linux"},
		{"loop", "for i in range(3):\n  print(i)", "0\n1\n2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newScriptExpander(t)
			got, err := e.ExpandString("%{starlark:" + tt.script + "}")
			require.NoError(t, err, "unexpected error")
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRunner_DefineUndefine(t *testing.T) {
	e := newScriptExpander(t)

	got, err := e.ExpandString(`%{starlark:define("answer", 42)}%{answer} %{starlark:define("flag", True)}%{flag}`)
	require.NoError(t, err)
	assert.Equal(t, "42 1", got)

	_, err = e.ExpandString(`%{starlark:undefine("version")}`)
	require.NoError(t, err)
	assert.False(t, e.Context().IsDefined("version"))
}

func TestRunner_Errors(t *testing.T) {
	tests := []struct {
		name   string
		script string
	}{
		{"syntax", "print("},
		{"runtime", `fail("boom")`},
		{"unknown global", "print(nope)"},
		{"missing macro key", `print(macros["missing"])`},
		{"bad key type", "print(macros[1])"},
		{"illegal name", `define("x", "y")`},
		{"expand failure", `expand("%" + chr(123) + "unterminated")`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newScriptExpander(t)
			_, err := e.ExpandString("%{starlark:" + tt.script + "}")

			var scriptErr *macro.ScriptError
			require.ErrorAs(t, err, &scriptErr)
			var evalErr *EvalError
			assert.ErrorAs(t, err, &evalErr)
		})
	}
}

func TestExecutionContext_Globals(t *testing.T) {
	ctx := NewExecutionContext(nil, nil)
	globals := ctx.Globals()
	for _, name := range []string{"expand", "define", "undefine", "defined", "macros"} {
		assert.Contains(t, globals, name)
	}
	assert.NotContains(t, globals, "target", "target is only set when known")

	ctx = NewExecutionContext(nil, &TargetInfo{CPU: "x86_64", OS: "linux"})
	assert.Contains(t, ctx.Globals(), "target")
}

func TestEvalError_Error(t *testing.T) {
	err := &EvalError{File: "starlark", Line: 3, Message: "boom"}
	assert.Equal(t, "starlark:3: error running script: boom", err.Error())
	err.Line = 0
	assert.Equal(t, "starlark: error running script: boom", err.Error())
}

func TestToGo(t *testing.T) {
	dict := starlark.NewDict(1)
	require.NoError(t, dict.SetKey(starlark.String("k"), starlark.MakeInt(1)))

	tests := []struct {
		in   starlark.Value
		want any
	}{
		{starlark.None, nil},
		{starlark.String("s"), "s"},
		{starlark.MakeInt(7), int64(7)},
		{starlark.Float(1.5), 1.5},
		{starlark.True, true},
		{starlark.NewList([]starlark.Value{starlark.String("a")}), []any{"a"}},
		{starlark.Tuple{starlark.MakeInt(1), starlark.String("b")}, []any{int64(1), "b"}},
		{starlark.Tuple{}, []any{}},
		{starlark.NewList([]starlark.Value{starlark.Tuple{starlark.True}}), []any{[]any{true}}},
		{dict, map[string]any{"k": int64(1)}},
	}
	for _, tt := range tests {
		got, err := ToGo(tt.in)
		require.NoError(t, err, "ToGo(%s)", tt.in)
		assert.Equal(t, tt.want, got, "ToGo(%s)", tt.in)
	}
}

func TestMacroBody(t *testing.T) {
	tests := []struct {
		in   starlark.Value
		want string
	}{
		{starlark.String("text"), "text"},
		{starlark.MakeInt(3), "3"},
		{starlark.False, "0"},
		{starlark.None, ""},
		{starlark.Float(2.5), "2.5"},
		{starlark.Tuple{starlark.MakeInt(1), starlark.String("b")}, "[1 b]"},
	}
	for _, tt := range tests {
		got, err := macroBody(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "macroBody(%s)", tt.in)
	}
}
