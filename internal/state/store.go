// Package state records expansion and parse runs in a SQLite database,
// together with the macro table each run ended with.
package state

import "time"

// RunStatus represents the status of a run.
type RunStatus string

// Run status constants.
const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Run is one invocation of eval, parse or shell.
type Run struct {
	ID          string
	Command     string
	Target      string
	Status      RunStatus
	StartedAt   time.Time
	CompletedAt *time.Time
	Error       string

	// Lines is the number of logical lines or expressions processed.
	Lines int

	// Errors counts undefined macros reported as errors.
	Errors int
}

// RunStats are the counters stored when a run completes.
type RunStats struct {
	Lines  int
	Errors int
}

// MacroSnapshot is one macro table entry as it stood at the end of a run.
type MacroSnapshot struct {
	Name  string
	Opts  string
	Body  string
	Level int
	Used  int

	// Parametric is set for macros defined with an option list, even an
	// empty one.
	Parametric bool
}

// Store is the run history interface used by the engine.
type Store interface {
	CreateRun(command, target string) (*Run, error)
	CompleteRun(id string, status RunStatus, stats RunStats, errMsg string) error
	GetRun(id string) (*Run, error)
	ListRuns(limit int) ([]*Run, error)
	SaveMacroSnapshot(runID string, macros []MacroSnapshot) error
	GetMacroSnapshot(runID string) ([]MacroSnapshot, error)
	Close() error
}

var _ Store = (*SQLiteStore)(nil)
