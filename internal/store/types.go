package store

import "time"

// Run is one recorded analysis of a workspace.
type Run struct {
	ID          int64
	Root        string
	CreatedAt   time.Time
	Fingerprint string
	Packages    int
	Unused      int
	Diagnostics int
	// Unchanged is set by queries when the previous run of the same root
	// has the same fingerprint.
	Unchanged bool
}

// Diagnostic is a recorded non-fatal analysis problem.
type Diagnostic struct {
	ID      int64
	RunID   int64
	Kind    string
	File    string
	Line    int
	Module  string
	Message string
}
