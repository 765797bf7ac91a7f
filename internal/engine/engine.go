// Package engine builds macro sessions from configuration.
// It seeds builtin macros, loads macro files, applies command-line
// definitions, runs spec file readers and records runs in the state store.
package engine

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/specmacro/internal/config"
	"github.com/leapstack-labs/specmacro/internal/macro"
	starctx "github.com/leapstack-labs/specmacro/internal/starlark"
	"github.com/leapstack-labs/specmacro/internal/state"
)

// Engine owns the global macro context of a session.
type Engine struct {
	project config.ProjectConfig
	verbose bool
	force   bool
	stderr  io.Writer

	// Structured logger
	logger *slog.Logger

	global *macro.Context
	cli    *macro.Context
	runner *starctx.Runner
	loaded []macro.LoadedFile

	// store is nil unless runs are recorded.
	store state.Store
}

// Config holds engine configuration.
type Config struct {
	// Project describes the macro environment. Unset fields take defaults.
	Project config.ProjectConfig

	// Verbose selects the %{verbose:...} branch.
	Verbose bool

	// Force keeps undefined macros from counting as parse errors.
	Force bool

	// Record enables run history in the state database at StatePath.
	Record    bool
	StatePath string

	// Stderr receives %echo, %dump and trace output (defaults to os.Stderr)
	Stderr io.Writer

	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// New creates an engine and loads its macro files. Macro files that fail to
// load are reported as warnings; bad command-line definitions are errors.
func New(cfg Config) (*Engine, error) {
	// Initialize logger (use discard handler if nil)
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	project := cfg.Project
	config.ApplyDefaults(&project)
	if err := project.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger.Debug("initializing engine",
		slog.String("macro_path", project.MacroPath),
		slog.String("target", project.Target()))

	e := &Engine{
		project: project,
		verbose: cfg.Verbose,
		force:   cfg.Force,
		stderr:  cfg.Stderr,
		logger:  logger,
		global:  macro.NewContext(),
		cli:     macro.NewContext(),
		runner:  starctx.NewRunner(),
	}
	if e.stderr == nil {
		e.stderr = os.Stderr
	}

	for _, def := range project.Defines {
		if err := macro.DefineString(e.cli, def, macro.LevelCmdline); err != nil {
			return nil, fmt.Errorf("invalid definition %q: %w", def, err)
		}
	}

	seedBuiltins(e.global, &project)

	loaded, err := macro.NewLoader(project.MacroPath, logger).Load(e.global, e.cli)
	if err != nil {
		logger.Warn("some macro files could not be loaded", slog.Any("error", err))
	}
	e.loaded = loaded

	if cfg.Record {
		store, err := openStore(cfg.StatePath, logger)
		if err != nil {
			return nil, err
		}
		e.store = store
	}

	return e, nil
}

func openStore(path string, logger *slog.Logger) (*state.SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("state path is required to record runs")
	}

	// Ensure state directory exists
	if dir := filepath.Dir(path); path != ":memory:" && dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create state directory: %w", err)
		}
	}

	store := state.NewSQLiteStore(logger)
	if err := store.Open(path); err != nil {
		return nil, fmt.Errorf("failed to open state store: %w", err)
	}
	return store, nil
}

// Close releases the state store.
func (e *Engine) Close() error {
	if e.store != nil {
		return e.store.Close()
	}
	return nil
}

// Context returns the global macro context.
func (e *Engine) Context() *macro.Context {
	return e.global
}

// LoadedFiles returns the macro files read by New.
func (e *Engine) LoadedFiles() []macro.LoadedFile {
	return e.loaded
}

// Project returns the effective configuration after defaults.
func (e *Engine) Project() config.ProjectConfig {
	return e.project
}

// Store returns the run history store, or nil when runs are not recorded.
func (e *Engine) Store() state.Store {
	return e.store
}

// NewExpander returns an expander over c with the engine's options and the
// Starlark scripting escape enabled.
func (e *Engine) NewExpander(c *macro.Context) *macro.Expander {
	return macro.NewExpander(c, macro.Options{
		MaxDepth: e.project.MaxDepth,
		Verbose:  e.verbose,
		ConfDir:  e.project.ConfDir,
		Shell:    e.project.Shell,
		Stderr:   e.stderr,
		Logger:   e.logger,
		Script:   e.runner.Run,
	})
}

// Define adds a textual "name body" definition to the global context at
// command-line level.
func (e *Engine) Define(def string) error {
	return macro.DefineString(e.global, def, macro.LevelCmdline)
}

// Undefine pops the innermost definition of name from the global context.
func (e *Engine) Undefine(name string) {
	e.global.Undefine(name)
}
