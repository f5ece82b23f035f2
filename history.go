package orphan

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jward/orphan/internal/store"
)

const filterHashKey = "filter_hash"

func openStore(dbPath string) (*store.Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("orphan: create history dir: %w", err)
	}
	s, err := store.NewStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("orphan: create store: %w", err)
	}
	if err := s.Migrate(); err != nil {
		s.Close()
		return nil, fmt.Errorf("orphan: migrate: %w", err)
	}
	return s, nil
}

// HasHistory reports whether the Engine records runs.
func (e *Engine) HasHistory() bool {
	return e.store != nil
}

// filterHash identifies the active filter script; "" when none is set.
func (e *Engine) filterHash() string {
	if e.filter == nil {
		return ""
	}
	return fmt.Sprintf("%x", sha256.Sum256([]byte(e.filter.Source())))
}

// FilterChanged reports whether the filter differs from the one used for
// the last recorded run. Fingerprints of runs made with different filters
// are not comparable.
func (e *Engine) FilterChanged() bool {
	if e.store == nil {
		return false
	}
	stored, err := e.store.GetMetadata(filterHashKey)
	if err != nil || stored == "" {
		return false
	}
	return stored != e.filterHash()
}

// Record stores report as a new run and sets its RunID and Unchanged
// fields. It is a no-op without WithHistory.
func (e *Engine) Record(report *Report) error {
	if e.store == nil {
		return nil
	}
	if e.FilterChanged() {
		e.logger.Info("filter script changed since the last recorded run")
	}

	diags := make([]*store.Diagnostic, len(report.Diagnostics))
	for i, d := range report.Diagnostics {
		diags[i] = &store.Diagnostic{
			Kind:   string(d.Kind),
			File:   d.Path,
			Line:   d.Line,
			Module: d.Module,
		}
		if d.Err != nil {
			diags[i].Message = d.Err.Error()
		}
	}
	run := &store.Run{
		Root:        report.Workspace,
		CreatedAt:   time.Now().UTC(),
		Fingerprint: report.Fingerprint,
		Packages:    report.Packages,
	}
	if _, err := e.store.InsertRun(run, report.Paths(), diags); err != nil {
		return fmt.Errorf("orphan: record run: %w", err)
	}
	if err := e.store.SetMetadata(filterHashKey, e.filterHash()); err != nil {
		return fmt.Errorf("orphan: record run: %w", err)
	}

	latest, err := e.store.LatestRun(report.Workspace)
	if err != nil {
		return fmt.Errorf("orphan: record run: %w", err)
	}
	report.RunID = run.ID
	report.Unchanged = latest != nil && latest.Unchanged

	if e.historyKeep > 0 {
		removed, err := e.store.PruneRuns(report.Workspace, e.historyKeep)
		if err != nil {
			return fmt.Errorf("orphan: record run: %w", err)
		}
		if removed > 0 {
			e.logger.Debug("pruned history", "removed", removed)
		}
	}
	return nil
}

// History returns up to limit recorded runs of the workspace at root,
// newest first. An empty root lists runs of every workspace.
func (e *Engine) History(root string, limit int) ([]*Run, error) {
	if e.store == nil {
		return nil, fmt.Errorf("orphan: history is not enabled")
	}
	if root != "" {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("orphan: %w", err)
		}
		root = abs
	}
	runs, err := e.store.Runs(root, limit)
	if err != nil {
		return nil, fmt.Errorf("orphan: history: %w", err)
	}
	return runs, nil
}

// RunDetails returns the unused paths and diagnostics recorded for a run.
func (e *Engine) RunDetails(runID int64) ([]string, []*StoredDiagnostic, error) {
	if e.store == nil {
		return nil, nil, fmt.Errorf("orphan: history is not enabled")
	}
	paths, err := e.store.UnusedByRun(runID)
	if err != nil {
		return nil, nil, fmt.Errorf("orphan: run %d: %w", runID, err)
	}
	diags, err := e.store.DiagnosticsByRun(runID)
	if err != nil {
		return nil, nil, fmt.Errorf("orphan: run %d: %w", runID, err)
	}
	return paths, diags, nil
}
