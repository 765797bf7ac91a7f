package engine

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/specmacro/internal/config"
	"github.com/leapstack-labs/specmacro/internal/macro"
	"github.com/leapstack-labs/specmacro/internal/spec"
	"github.com/leapstack-labs/specmacro/internal/state"
	"github.com/leapstack-labs/specmacro/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600), "failed to write %s", name)
	return path
}

// newTestEngine builds an engine over a private macro file so the host's
// rpm configuration never leaks into tests.
func newTestEngine(t *testing.T, mutate func(cfg *Config)) *Engine {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "macros", "%_prefix /usr\n%_bindir %{_prefix}/bin\n%dist .el9\n")

	cfg := Config{
		Project: config.ProjectConfig{
			MacroPath: filepath.Join(dir, "macros"),
			TargetCPU: "x86_64",
			TargetOS:  "linux",
		},
		Stderr: &bytes.Buffer{},
		Logger: testutil.NewTestLogger(t),
	}
	if mutate != nil {
		mutate(&cfg)
	}
	e, err := New(cfg)
	require.NoError(t, err, "failed to create engine")
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func TestNew_Builtins(t *testing.T) {
	e := newTestEngine(t, nil)

	require.Len(t, e.LoadedFiles(), 1)
	assert.Equal(t, 3, e.LoadedFiles()[0].Defined)

	out, err := e.Eval(context.Background(), []string{"%{_target}", "%{_bindir}", "%__gzip"})
	require.NoError(t, err)
	assert.Equal(t, []string{"x86_64-linux", "/usr/bin", "/usr/bin/gzip"}, out)

	assert.Equal(t, macro.LevelRPMRC, e.Context().Lookup("_target_cpu").Level)
	assert.Equal(t, config.DefaultMaxDepth, e.Project().MaxDepth)
	assert.Equal(t, "x86_64-linux", e.Project().Target())
	assert.Nil(t, e.Store())
}

func TestNew_Defines(t *testing.T) {
	e := newTestEngine(t, func(cfg *Config) {
		cfg.Project.Defines = []string{"_prefix /opt", "with_arg(n:) [%{-n*}]"}
	})

	out, err := e.Eval(context.Background(), []string{"%{_bindir}", "%with_arg -n 3"})
	require.NoError(t, err)
	assert.Equal(t, []string{"/opt/bin", "[3]"}, out, "command-line definitions win over macro files")
}

func TestNew_Errors(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(cfg *Config)
		errSubstr string
	}{
		{
			name:      "bad define",
			mutate:    func(cfg *Config) { cfg.Project.Defines = []string{"x short name"} },
			errSubstr: "invalid definition",
		},
		{
			name:      "invalid target",
			mutate:    func(cfg *Config) { cfg.Project.TargetCPU = "x 86" },
			errSubstr: "invalid configuration",
		},
		{
			name:      "record without state path",
			mutate:    func(cfg *Config) { cfg.Record = true },
			errSubstr: "state path is required",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{Project: config.ProjectConfig{MacroPath: filepath.Join(t.TempDir(), "none")}}
			tt.mutate(&cfg)
			_, err := New(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestEngine_DefineUndefine(t *testing.T) {
	e := newTestEngine(t, nil)

	require.NoError(t, e.Define("_prefix /srv"))
	out, err := e.Eval(context.Background(), []string{"%{_bindir}"})
	require.NoError(t, err)
	assert.Equal(t, []string{"/srv/bin"}, out)

	e.Undefine("_prefix")
	out, err = e.Eval(context.Background(), []string{"%{_bindir}"})
	require.NoError(t, err)
	assert.Equal(t, []string{"/usr/bin"}, out)
}

func TestEval_SharedContext(t *testing.T) {
	e := newTestEngine(t, nil)

	out, err := e.Eval(context.Background(), []string{"%define answer 42", "%answer", "%{starlark:print(expand('%answer'))}"})
	require.NoError(t, err)
	assert.Equal(t, []string{"", "42", "42"}, out)
}

func TestEval_Error(t *testing.T) {
	e := newTestEngine(t, nil)

	out, err := e.Eval(context.Background(), []string{"ok", "%{starlark:fail('boom')}", "never"})
	require.Error(t, err)
	assert.Equal(t, []string{"ok"}, out)
}

func TestParseSpecs(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.spec", `Name: a
%define only_a yes
%if "%{?only_b}" == ""
Release: 1%{dist}
%endif
`)
	b := writeFile(t, dir, "b.spec", `Name: b
%define only_b yes
%ifarch x86_64
BuildArch: %{_target_cpu}
%else
BuildArch: other
%endif
Seen: %{?only_a}
`)

	e := newTestEngine(t, nil)
	results, err := e.ParseSpecs(context.Background(), []string{a, b}, ParseOptions{Strip: spec.StripTrailingSpace})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, a, results[0].File)
	assert.Equal(t, "x86_64", results[0].Arch)
	assert.Equal(t, []string{"Name: a", "", "", "Release: 1.el9", ""}, results[0].Lines)

	assert.Equal(t, []string{"Name: b", "", "", "BuildArch: x86_64", "", "", "", "Seen:"}, results[1].Lines,
		"definitions never cross files")
	assert.True(t, results[1].Macros.IsDefined("only_b"))
	assert.False(t, e.Context().IsDefined("only_b"), "the global context is untouched")
}

func TestParseSpecs_Archs(t *testing.T) {
	path := writeFile(t, t.TempDir(), "arch.spec", "%ifarch aarch64\nnative\n%endif\ncpu %{_target_cpu}\n")

	e := newTestEngine(t, nil)
	results, err := e.ParseSpecs(context.Background(), []string{path}, ParseOptions{
		Archs: []string{"aarch64", "bogus", "s390x"},
	})
	require.NoError(t, err)
	require.Len(t, results, 2, "unknown architectures are skipped")

	assert.Equal(t, "aarch64", results[0].Arch)
	assert.Equal(t, []string{"", "native", "", "cpu aarch64"}, results[0].Lines)
	assert.Equal(t, "s390x", results[1].Arch)
	assert.Equal(t, []string{"", "", "", "cpu s390x"}, results[1].Lines)

	_, err = e.ParseSpecs(context.Background(), []string{path}, ParseOptions{Archs: []string{"bogus"}})
	assert.ErrorIs(t, err, spec.ErrNoCompatibleArch)
}

func TestParseSpecs_Errors(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.spec", "Name: good\n")
	unclosed := writeFile(t, dir, "unclosed.spec", "%if 1\nName: x\n")
	undefined := writeFile(t, dir, "undefined.spec", "Name: %{nosuchmacro}\n")

	e := newTestEngine(t, nil)

	_, err := e.ParseSpecs(context.Background(), []string{good, unclosed}, ParseOptions{})
	var condErr *spec.CondError
	require.ErrorAs(t, err, &condErr)
	assert.Equal(t, "Unclosed %if", condErr.Msg)

	results, err := e.ParseSpecs(context.Background(), []string{undefined}, ParseOptions{})
	var undefErr *UndefinedMacrosError
	require.ErrorAs(t, err, &undefErr)
	assert.Equal(t, 1, undefErr.Count)
	require.Len(t, results, 1)
	assert.Equal(t, []string{"Name: %{nosuchmacro}"}, results[0].Lines)

	forced := newTestEngine(t, func(cfg *Config) { cfg.Force = true })
	_, err = forced.ParseSpecs(context.Background(), []string{undefined}, ParseOptions{})
	assert.NoError(t, err)
}

func TestParseSpecs_Cancelled(t *testing.T) {
	path := writeFile(t, t.TempDir(), "a.spec", "Name: a\n")
	e := newTestEngine(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.ParseSpecs(ctx, []string{path}, ParseOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRecord(t *testing.T) {
	statePath := filepath.Join(t.TempDir(), "state", "state.db")
	e := newTestEngine(t, func(cfg *Config) {
		cfg.Record = true
		cfg.StatePath = statePath
	})
	require.NotNil(t, e.Store())

	_, err := e.Eval(context.Background(), []string{"%{_bindir}", "%dist"})
	require.NoError(t, err)

	_, err = e.Eval(context.Background(), []string{"%{starlark:fail('x')}"})
	require.Error(t, err)

	require.NoError(t, e.RecordSession(func() (int, error) { return 5, nil }))

	runs, err := e.Store().ListRuns(0)
	require.NoError(t, err)
	require.Len(t, runs, 3)

	assert.Equal(t, "shell", runs[0].Command)
	assert.Equal(t, 5, runs[0].Lines)

	assert.Equal(t, state.RunStatusFailed, runs[1].Status)
	assert.Contains(t, runs[1].Error, "x")

	first := runs[2]
	assert.Equal(t, "eval", first.Command)
	assert.Equal(t, "x86_64-linux", first.Target)
	assert.Equal(t, state.RunStatusCompleted, first.Status)
	assert.Equal(t, 2, first.Lines)

	macros, err := e.Store().GetMacroSnapshot(first.ID)
	require.NoError(t, err)
	names := make(map[string]bool)
	for _, m := range macros {
		names[m.Name] = true
	}
	assert.True(t, names["_bindir"])
	assert.True(t, names["_target_cpu"])
}

func TestSnapshot(t *testing.T) {
	c := macro.NewContext()
	c.Define("abc", "outer", 0)
	c.Define("abc", "inner", 1)
	c.DefineWithOpts("opt", "n:", "%{-n}", 2)

	rows := Snapshot(c)
	require.Len(t, rows, 3)
	assert.Equal(t, "inner", rows[0].Body, "visible definition first")
	assert.Equal(t, "outer", rows[1].Body)
	assert.True(t, rows[2].Parametric)
	assert.Equal(t, "n:", rows[2].Opts)
}
