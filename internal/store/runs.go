package store

import (
	"database/sql"
	"errors"
	"fmt"
)

// runColumns selects a run plus whether its predecessor for the same root
// has the same fingerprint.
const runColumns = `r.id, r.root, r.created_at, r.fingerprint,
	r.package_count, r.unused_count, r.diagnostic_count,
	COALESCE((SELECT p.fingerprint FROM runs p
	          WHERE p.root = r.root AND p.id < r.id
	          ORDER BY p.id DESC LIMIT 1) = r.fingerprint, 0)`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var r Run
	err := row.Scan(&r.ID, &r.Root, &r.CreatedAt, &r.Fingerprint,
		&r.Packages, &r.Unused, &r.Diagnostics, &r.Unchanged)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// Runs returns up to limit runs, newest first; a limit of zero or less
// returns all of them. A non-empty root restricts
// the result to that workspace.
func (s *Store) Runs(root string, limit int) ([]*Run, error) {
	query := "SELECT " + runColumns + " FROM runs r"
	var args []any
	if root != "" {
		query += " WHERE r.root = ?"
		args = append(args, root)
	}
	query += " ORDER BY r.id DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("runs: scan: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// LatestRun returns the newest run of root, or nil when there is none.
func (s *Store) LatestRun(root string) (*Run, error) {
	row := s.db.QueryRow("SELECT "+runColumns+" FROM runs r WHERE r.root = ? ORDER BY r.id DESC LIMIT 1", root)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest run: %w", err)
	}
	return r, nil
}

// UnusedByRun returns the unused paths recorded for a run, sorted.
func (s *Store) UnusedByRun(runID int64) ([]string, error) {
	rows, err := s.db.Query("SELECT path FROM unused_exports WHERE run_id = ? ORDER BY path", runID)
	if err != nil {
		return nil, fmt.Errorf("unused by run: %w", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("unused by run: scan: %w", err)
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// DiagnosticsByRun returns the diagnostics recorded for a run in insertion
// order.
func (s *Store) DiagnosticsByRun(runID int64) ([]*Diagnostic, error) {
	rows, err := s.db.Query(
		`SELECT id, run_id, kind, COALESCE(file, ''), COALESCE(line, 0), COALESCE(module, ''), COALESCE(message, '')
		 FROM diagnostics WHERE run_id = ? ORDER BY id`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("diagnostics by run: %w", err)
	}
	defer rows.Close()

	var diags []*Diagnostic
	for rows.Next() {
		var d Diagnostic
		if err := rows.Scan(&d.ID, &d.RunID, &d.Kind, &d.File, &d.Line, &d.Module, &d.Message); err != nil {
			return nil, fmt.Errorf("diagnostics by run: scan: %w", err)
		}
		diags = append(diags, &d)
	}
	return diags, rows.Err()
}

// RunByID returns a run, or nil when no run has that ID.
func (s *Store) RunByID(id int64) (*Run, error) {
	row := s.db.QueryRow("SELECT "+runColumns+" FROM runs r WHERE r.id = ?", id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("run %d: %w", id, err)
	}
	return r, nil
}
