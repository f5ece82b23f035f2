package store

import (
	"database/sql"
	"fmt"
)

// InsertRun records a run together with its unused paths and diagnostics
// in a single transaction. run.ID and each diagnostic's ID and RunID are
// set on success.
func (s *Store) InsertRun(run *Run, unused []string, diags []*Diagnostic) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("insert run: begin: %w", err)
	}
	defer tx.Rollback()

	run.Unused = len(unused)
	run.Diagnostics = len(diags)
	runID, err := insertRunTx(tx, run)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}

	for _, path := range unused {
		if _, err := tx.Exec("INSERT INTO unused_exports (run_id, path) VALUES (?, ?)", runID, path); err != nil {
			return 0, fmt.Errorf("insert run: unused export %q: %w", path, err)
		}
	}
	for _, d := range diags {
		d.RunID = runID
		id, err := insertDiagnosticTx(tx, d)
		if err != nil {
			return 0, fmt.Errorf("insert run: diagnostic %s: %w", d.Kind, err)
		}
		d.ID = id
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("insert run: commit: %w", err)
	}
	run.ID = runID
	return runID, nil
}

func insertRunTx(tx *sql.Tx, run *Run) (int64, error) {
	res, err := tx.Exec(
		`INSERT INTO runs (root, created_at, fingerprint, package_count, unused_count, diagnostic_count)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		run.Root, run.CreatedAt, run.Fingerprint, run.Packages, run.Unused, run.Diagnostics,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func insertDiagnosticTx(tx *sql.Tx, d *Diagnostic) (int64, error) {
	res, err := tx.Exec(
		`INSERT INTO diagnostics (run_id, kind, file, line, module, message)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		d.RunID, d.Kind, d.File, d.Line, d.Module, d.Message,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// PruneRuns deletes all but the newest keep runs of root. It returns the
// number of runs removed.
func (s *Store) PruneRuns(root string, keep int) (int, error) {
	rows, err := s.db.Query(
		"SELECT id FROM runs WHERE root = ? ORDER BY id DESC LIMIT -1 OFFSET ?", root, keep,
	)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, fmt.Errorf("prune runs: scan: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("prune runs: begin: %w", err)
	}
	defer tx.Rollback()

	placeholders := placeholderList(len(ids))
	args := int64sToArgs(ids)
	for _, q := range []string{
		"DELETE FROM unused_exports WHERE run_id IN (" + placeholders + ")",
		"DELETE FROM diagnostics WHERE run_id IN (" + placeholders + ")",
		"DELETE FROM runs WHERE id IN (" + placeholders + ")",
	} {
		if _, err := tx.Exec(q, args...); err != nil {
			return 0, fmt.Errorf("prune runs: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("prune runs: commit: %w", err)
	}
	return len(ids), nil
}
