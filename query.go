package orphan

import (
	"fmt"
	"sort"

	"github.com/jward/orphan/internal/store"
)

// QueryBuilder answers questions about recorded runs.
type QueryBuilder struct {
	store *store.Store
}

// Query returns a QueryBuilder over the run history. It fails when the
// Engine was created without WithHistory.
func (e *Engine) Query() (*QueryBuilder, error) {
	if e.store == nil {
		return nil, fmt.Errorf("orphan: history is not enabled")
	}
	return &QueryBuilder{store: e.store}, nil
}

// Run returns the recorded run with the given ID, or nil when there is
// none.
func (q *QueryBuilder) Run(id int64) (*Run, error) {
	return q.store.RunByID(id)
}

// RunDiff lists how the unused set changed between two runs.
type RunDiff struct {
	From, To int64
	// Added paths are unused in To but not in From.
	Added []string
	// Removed paths were unused in From but not in To.
	Removed []string
}

// Empty reports whether both runs have the same unused set.
func (d *RunDiff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0
}

// Diff compares the unused paths of two runs.
func (q *QueryBuilder) Diff(fromID, toID int64) (*RunDiff, error) {
	from, err := q.store.UnusedByRun(fromID)
	if err != nil {
		return nil, fmt.Errorf("diff: %w", err)
	}
	to, err := q.store.UnusedByRun(toID)
	if err != nil {
		return nil, fmt.Errorf("diff: %w", err)
	}

	inFrom := make(map[string]bool, len(from))
	for _, p := range from {
		inFrom[p] = true
	}
	inTo := make(map[string]bool, len(to))
	for _, p := range to {
		inTo[p] = true
	}

	d := &RunDiff{From: fromID, To: toID}
	for _, p := range to {
		if !inFrom[p] {
			d.Added = append(d.Added, p)
		}
	}
	for _, p := range from {
		if !inTo[p] {
			d.Removed = append(d.Removed, p)
		}
	}
	sort.Strings(d.Added)
	sort.Strings(d.Removed)
	return d, nil
}

// LatestDiff compares the two newest runs of root. It returns nil when
// root has fewer than two runs.
func (q *QueryBuilder) LatestDiff(root string) (*RunDiff, error) {
	runs, err := q.store.Runs(root, 2)
	if err != nil {
		return nil, fmt.Errorf("latest diff: %w", err)
	}
	if len(runs) < 2 {
		return nil, nil
	}
	return q.Diff(runs[1].ID, runs[0].ID)
}

// UnusedSince returns the oldest run of the unbroken sequence of newest
// runs of root that all report path as unused. It returns nil when the
// newest run does not report path.
func (q *QueryBuilder) UnusedSince(root, path string) (*Run, error) {
	rows, err := q.store.DB().Query(
		`SELECT r.id,
		        EXISTS(SELECT 1 FROM unused_exports u WHERE u.run_id = r.id AND u.path = ?)
		 FROM runs r WHERE r.root = ? ORDER BY r.id DESC`,
		path, root,
	)
	if err != nil {
		return nil, fmt.Errorf("unused since: %w", err)
	}
	defer rows.Close()

	var since int64
	for rows.Next() {
		var (
			id      int64
			present bool
		)
		if err := rows.Scan(&id, &present); err != nil {
			return nil, fmt.Errorf("unused since: scan: %w", err)
		}
		if !present {
			break
		}
		since = id
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("unused since: rows: %w", err)
	}
	if since == 0 {
		return nil, nil
	}
	return q.store.RunByID(since)
}
