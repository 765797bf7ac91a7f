package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/leapstack-labs/specmacro/internal/cli/config"
	"github.com/leapstack-labs/specmacro/internal/cli/output"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRootCmd(t *testing.T) {
	cmd := NewRootCmd()
	assert.Equal(t, "specmacro", cmd.Use)

	for _, name := range []string{"config", "macros", "define", "target-cpu", "target-os", "max-depth", "force", "record", "state", "verbose", "output"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), "missing flag --%s", name)
	}
	assert.Equal(t, "D", cmd.PersistentFlags().Lookup("define").Shorthand)
	assert.Equal(t, "o", cmd.PersistentFlags().Lookup("output").Shorthand)

	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"version", "eval", "parse", "dump", "shell", "history", "completion"})
}

func TestCompletionCommand(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		t.Run(shell, func(t *testing.T) {
			cmd := NewRootCmd()
			buf := new(bytes.Buffer)
			cmd.SetOut(buf)
			cmd.SetErr(buf)
			cmd.SetArgs([]string{"completion", shell})
			require.NoError(t, cmd.Execute())
			assert.Contains(t, buf.String(), "specmacro")
		})
	}

	cmd := NewRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"completion", "tcsh"})
	assert.Error(t, cmd.Execute())
}

func TestContextDefaults(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, config.Default(), GetConfig(ctx))
	assert.NotNil(t, GetRenderer(ctx))

	cfg := &config.Config{OutputFormat: "json"}
	ctx = context.WithValue(ctx, configKey{}, cfg)
	assert.Same(t, cfg, GetConfig(ctx))

	r := output.NewRendererWithTTY(new(bytes.Buffer), new(bytes.Buffer), false, output.ModeJSON)
	ctx = context.WithValue(ctx, rendererKey{}, r)
	assert.Same(t, r, GetRenderer(ctx))
}

func TestPersistentPreRun_StoresConfig(t *testing.T) {
	cmd := NewRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"--macros", "/nonexistent/macros", "--max-depth", "7", "--output", "yaml", "version"})
	require.NoError(t, cmd.Execute())

	cfg := config.GetCurrentConfig()
	require.NotNil(t, cfg)
	assert.Equal(t, 7, cfg.MaxDepth)
	assert.Equal(t, "yaml", cfg.OutputFormat)
	assert.Equal(t, "/nonexistent/macros", cfg.MacroPath)
}
