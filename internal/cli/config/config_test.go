package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	intconfig "github.com/leapstack-labs/specmacro/internal/config"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("macros", "", "")
	fs.StringArrayP("define", "D", nil, "")
	fs.String("target-cpu", "", "")
	fs.Int("max-depth", 0, "")
	fs.String("state", "", "")
	fs.BoolP("verbose", "v", false, "")
	fs.StringP("output", "o", "", "")
	fs.StringSlice("arch", nil, "")
	return fs
}

// chdir switches into dir for the duration of the test.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadConfig_Defaults(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	chdir(t, dir)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, intconfig.DefaultMacroPath, cfg.MacroPath)
	assert.Equal(t, intconfig.DefaultMaxDepth, cfg.MaxDepth)
	assert.Equal(t, DefaultOutput, cfg.OutputFormat)
	assert.Equal(t, filepath.Join(cfg.ProjectRoot, DefaultStateFile), cfg.StatePath)
	assert.False(t, cfg.Record)
	assert.Empty(t, GetConfigFileUsed())
	assert.Same(t, cfg, GetCurrentConfig())
}

func TestLoadConfig_Precedence(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	content := `macro_path: /from/file
target_cpu: aarch64
max_depth: 8
output: json
defines:
  - "dist .el9"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, intconfig.ConfigFileName), []byte(content), 0o600))
	nested := filepath.Join(dir, "sub")
	require.NoError(t, os.MkdirAll(nested, 0o750))
	chdir(t, nested)

	t.Setenv("SPECMACRO_TARGET_CPU", "s390x")
	t.Setenv("SPECMACRO_MAX_DEPTH", "12")

	fs := newFlagSet()
	require.NoError(t, fs.Parse([]string{"--max-depth", "20", "-D", "vendor acme, inc", "--arch", "x86_64,aarch64"}))

	cfg, err := LoadConfig("", fs)
	require.NoError(t, err)

	assert.Equal(t, "/from/file", cfg.MacroPath, "file overrides defaults")
	assert.Equal(t, "s390x", cfg.TargetCPU, "env overrides file")
	assert.Equal(t, 20, cfg.MaxDepth, "flags override env")
	assert.Equal(t, "json", cfg.OutputFormat)
	assert.Equal(t, []string{"vendor acme, inc"}, cfg.Defines, "flag defines replace file defines")
	assert.Equal(t, []string{"x86_64", "aarch64"}, cfg.Archs)
	assert.Equal(t, filepath.Join(dir, intconfig.ConfigFileName), GetConfigFileUsed())
	assert.Equal(t, filepath.Join(dir, DefaultStateFile), cfg.StatePath, "paths resolve against the project root")
}

func TestLoadConfig_ExplicitFile(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("state_path: db/state.db\nrecord: true\n"), 0o600))
	chdir(t, t.TempDir())

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)
	assert.True(t, cfg.Record)
	assert.Equal(t, filepath.Join(dir, "db", "state.db"), cfg.StatePath)
}

func TestLoadConfig_StateFlag(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	chdir(t, dir)

	fs := newFlagSet()
	require.NoError(t, fs.Parse([]string{"--state", "rel/state.db"}))
	cfg, err := LoadConfig("", fs)
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(cfg.StatePath))
	assert.Equal(t, "state.db", filepath.Base(cfg.StatePath))

	fs = newFlagSet()
	require.NoError(t, fs.Parse([]string{"--state", ":memory:"}))
	cfg, err = LoadConfig("", fs)
	require.NoError(t, err)
	assert.Equal(t, ":memory:", cfg.StatePath)
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		errSubstr string
	}{
		{name: "bad output", args: []string{"-o", "xml"}, errSubstr: "unknown output format"},
		{name: "bad depth", args: []string{"--max-depth", "-2"}, errSubstr: "max_depth"},
		{name: "bad cpu", args: []string{"--target-cpu", "x 86"}, errSubstr: "target cpu"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ResetConfig()
			chdir(t, t.TempDir())
			fs := newFlagSet()
			require.NoError(t, fs.Parse(tt.args))
			_, err := LoadConfig("", fs)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	ResetConfig()
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("SPECMACRO_TEST_DIR", "/opt/rpm")
	assert.Equal(t, "/opt/rpm/macros", expandEnvVars("${SPECMACRO_TEST_DIR}/macros"))
	assert.Equal(t, "${SPECMACRO_NOT_SET}/x", expandEnvVars("${SPECMACRO_NOT_SET}/x"))
}

func TestConfig_Project(t *testing.T) {
	cfg := Default()
	cfg.Defines = []string{"a_b 1"}
	project := cfg.Project()
	assert.Equal(t, cfg.MacroPath, project.MacroPath)
	assert.Equal(t, []string{"a_b 1"}, project.Defines)
}

func TestGetLogger(t *testing.T) {
	ctx := context.Background()
	assert.NotNil(t, GetLogger(ctx), "falls back to a discard logger")

	logger := NewLogger(os.Stderr, true)
	assert.Same(t, logger, GetLogger(WithLogger(ctx, logger)))
	assert.Equal(t, loggerKey{}, LoggerKey())
}
