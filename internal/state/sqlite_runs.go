package state

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

const runColumns = `id, command, target, status, started_at, completed_at, error, lines, errors`

// CreateRun starts a new run and returns it.
func (s *SQLiteStore) CreateRun(command, target string) (*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	id := generateID()
	now := time.Now().UTC()

	s.logger.Debug("creating run", slog.String("run_id", id), slog.String("command", command))

	_, err := s.db.ExecContext(ctx(),
		`INSERT INTO runs (id, command, target, status, started_at) VALUES (?, ?, ?, ?, ?)`,
		id, command, target, string(RunStatusRunning), formatTime(now))
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}

	return &Run{
		ID:        id,
		Command:   command,
		Target:    target,
		Status:    RunStatusRunning,
		StartedAt: now,
	}, nil
}

// GetRun retrieves a run by ID.
func (s *SQLiteStore) GetRun(id string) (*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	row := s.db.QueryRowContext(ctx(), `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// CompleteRun marks a run as finished with the given status.
func (s *SQLiteStore) CompleteRun(id string, status RunStatus, stats RunStats, errMsg string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	s.logger.Debug("completing run",
		slog.String("run_id", id),
		slog.String("status", string(status)),
		slog.Int("lines", stats.Lines),
		slog.Int("errors", stats.Errors))

	res, err := s.db.ExecContext(ctx(),
		`UPDATE runs SET status = ?, completed_at = ?, error = ?, lines = ?, errors = ? WHERE id = ?`,
		string(status), formatTime(time.Now().UTC()), nullableString(errMsg), stats.Lines, stats.Errors, id)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("run not found: %s", id)
	}
	return nil
}

// ListRuns returns the most recent runs first. A limit of zero or less
// returns every run.
func (s *SQLiteStore) ListRuns(limit int) ([]*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx(),
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var (
		run       Run
		status    string
		started   string
		completed sql.NullString
		errMsg    sql.NullString
	)
	if err := row.Scan(&run.ID, &run.Command, &run.Target, &status, &started,
		&completed, &errMsg, &run.Lines, &run.Errors); err != nil {
		return nil, err
	}

	run.Status = RunStatus(status)
	run.Error = errMsg.String

	t, err := parseTime(started)
	if err != nil {
		return nil, err
	}
	run.StartedAt = t
	if completed.Valid {
		t, err := parseTime(completed.String)
		if err != nil {
			return nil, err
		}
		run.CompletedAt = &t
	}
	return &run, nil
}

// timeLayout is fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t, nil
}
