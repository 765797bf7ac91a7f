package engine

import (
	"log/slog"

	"github.com/leapstack-labs/specmacro/internal/macro"
	"github.com/leapstack-labs/specmacro/internal/state"
)

// record runs fn and, when a store is configured, stores the run with the
// final contents of c. Store failures are logged and never mask fn's
// result.
func (e *Engine) record(command string, c *macro.Context, fn func() (state.RunStats, error)) error {
	if e.store == nil {
		_, err := fn()
		return err
	}

	run, err := e.store.CreateRun(command, e.project.Target())
	if err != nil {
		e.logger.Warn("failed to record run", slog.Any("error", err))
		_, err := fn()
		return err
	}

	stats, runErr := fn()

	status := state.RunStatusCompleted
	var errMsg string
	if runErr != nil {
		status = state.RunStatusFailed
		errMsg = runErr.Error()
	}

	if err := e.store.SaveMacroSnapshot(run.ID, Snapshot(c)); err != nil {
		e.logger.Warn("failed to save macro snapshot", slog.String("run_id", run.ID), slog.Any("error", err))
	}
	if err := e.store.CompleteRun(run.ID, status, stats, errMsg); err != nil {
		e.logger.Warn("failed to complete run", slog.String("run_id", run.ID), slog.Any("error", err))
	}
	return runErr
}

// RecordSession stores an interactive session as a run, snapshotting the
// global context once fn returns.
func (e *Engine) RecordSession(fn func() (lines int, err error)) error {
	return e.record("shell", e.global, func() (state.RunStats, error) {
		n, err := fn()
		return state.RunStats{Lines: n}, err
	})
}

// Snapshot converts every live definition of c, shadowed ones included,
// into state rows in name order.
func Snapshot(c *macro.Context) []state.MacroSnapshot {
	var rows []state.MacroSnapshot
	c.ForEach(func(m *macro.Entry) {
		rows = append(rows, state.MacroSnapshot{
			Name:       m.Name,
			Opts:       m.Opts,
			Parametric: m.Parametric,
			Body:       m.Body,
			Level:      m.Level,
			Used:       m.Used,
		})
	})
	return rows
}
