package state

import (
	"database/sql"
	"fmt"
	"log/slog"
)

// SaveMacroSnapshot stores the macro table of a run, replacing any earlier
// snapshot for the same run.
func (s *SQLiteStore) SaveMacroSnapshot(runID string, macros []MacroSnapshot) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	s.logger.Debug("saving macro snapshot", slog.String("run_id", runID), slog.Int("macros", len(macros)))

	tx, err := s.db.BeginTx(ctx(), nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx(), `DELETE FROM macro_snapshots WHERE run_id = ?`, runID); err != nil {
		return fmt.Errorf("failed to clear macro snapshot: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx(),
		`INSERT INTO macro_snapshots (run_id, seq, name, opts, parametric, body, level, used)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, m := range macros {
		var opts sql.NullString
		if m.Parametric {
			opts = sql.NullString{String: m.Opts, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx(), runID, i, m.Name, opts, m.Parametric, m.Body, m.Level, m.Used); err != nil {
			return fmt.Errorf("failed to save macro %s: %w", m.Name, err)
		}
	}

	return tx.Commit()
}

// GetMacroSnapshot returns the macro table stored for a run in the order it
// was saved.
func (s *SQLiteStore) GetMacroSnapshot(runID string) ([]MacroSnapshot, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.QueryContext(ctx(),
		`SELECT name, opts, parametric, body, level, used FROM macro_snapshots
		 WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get macro snapshot: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var macros []MacroSnapshot
	for rows.Next() {
		var m MacroSnapshot
		var opts sql.NullString
		if err := rows.Scan(&m.Name, &opts, &m.Parametric, &m.Body, &m.Level, &m.Used); err != nil {
			return nil, fmt.Errorf("failed to scan macro: %w", err)
		}
		m.Opts = opts.String
		macros = append(macros, m)
	}
	return macros, rows.Err()
}
