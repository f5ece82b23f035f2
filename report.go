package orphan

import (
	"encoding/json"

	"github.com/jward/orphan/internal/runtime"
)

// PathSeparator joins the segments of a reported path.
const PathSeparator = runtime.PathSeparator

// Report is the outcome of one analysis.
type Report struct {
	// Workspace is the absolute workspace root; empty for AnalyzeRoots.
	Workspace string
	// Packages is the number of packages analyzed.
	Packages int
	// Roots lists the module names whose exports were collected.
	Roots []string
	// Files is the number of source files visited.
	Files int

	Exports *Tree
	Imports *Tree
	// Dependencies maps each package crate to its path dependencies; nil
	// for AnalyzeRoots.
	Dependencies *Tree
	// Unused holds the exports no root imports, after filtering.
	Unused *Tree

	Diagnostics []Diagnostic
	// Fingerprint identifies the set of unused paths.
	Fingerprint string

	// RunID and Unchanged are set by Engine.Record.
	RunID     int64
	Unchanged bool
}

// Paths returns the unused paths in display order.
func (r *Report) Paths() []string {
	return r.Unused.Paths(PathSeparator)
}

type jsonDiagnostic struct {
	Kind    DiagnosticKind `json:"kind"`
	Path    string         `json:"path"`
	Line    int            `json:"line,omitempty"`
	Module  string         `json:"module,omitempty"`
	Message string         `json:"message"`
}

type jsonReport struct {
	Workspace   string           `json:"workspace,omitempty"`
	Roots       []string         `json:"roots"`
	Unused      *Tree            `json:"unused"`
	Paths       []string         `json:"paths"`
	Diagnostics []jsonDiagnostic `json:"diagnostics"`
	Fingerprint string           `json:"fingerprint"`
	RunID       int64            `json:"run_id,omitempty"`
	Unchanged   bool             `json:"unchanged,omitempty"`
}

// MarshalJSON renders the unused tree, its paths and the diagnostics.
func (r *Report) MarshalJSON() ([]byte, error) {
	out := jsonReport{
		Workspace:   r.Workspace,
		Roots:       r.Roots,
		Unused:      r.Unused,
		Paths:       r.Paths(),
		Diagnostics: make([]jsonDiagnostic, 0, len(r.Diagnostics)),
		Fingerprint: r.Fingerprint,
		RunID:       r.RunID,
		Unchanged:   r.Unchanged,
	}
	if out.Roots == nil {
		out.Roots = []string{}
	}
	if out.Paths == nil {
		out.Paths = []string{}
	}
	for _, d := range r.Diagnostics {
		jd := jsonDiagnostic{Kind: d.Kind, Path: d.Path, Line: d.Line, Module: d.Module}
		if d.Err != nil {
			jd.Message = d.Err.Error()
		}
		out.Diagnostics = append(out.Diagnostics, jd)
	}
	return json.Marshal(out)
}
