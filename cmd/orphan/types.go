package main

import (
	"time"

	"github.com/jward/orphan"
)

// CLIResult is the top-level JSON envelope for all commands.
type CLIResult struct {
	Command    string `json:"command"`
	Results    any    `json:"results"`
	TotalCount *int   `json:"total_count,omitempty"`
	Error      string `json:"error,omitempty"`
}

// CLIRun is a JSON-friendly recorded run.
type CLIRun struct {
	ID          int64     `json:"id"`
	Root        string    `json:"root"`
	CreatedAt   time.Time `json:"created_at"`
	Fingerprint string    `json:"fingerprint"`
	Packages    int       `json:"packages"`
	Unused      int       `json:"unused"`
	Diagnostics int       `json:"diagnostics"`
	Unchanged   bool      `json:"unchanged"`
}

// CLIRunDetail is a run with its recorded paths and diagnostics.
type CLIRunDetail struct {
	CLIRun
	Paths          []string        `json:"paths"`
	DiagnosticList []CLIDiagnostic `json:"diagnostic_list"`
}

// CLIDiagnostic is a JSON-friendly recorded diagnostic.
type CLIDiagnostic struct {
	Kind    string `json:"kind"`
	File    string `json:"file"`
	Line    int    `json:"line,omitempty"`
	Module  string `json:"module,omitempty"`
	Message string `json:"message,omitempty"`
}

// CLIDiff is a JSON-friendly comparison of two runs.
type CLIDiff struct {
	From    int64    `json:"from"`
	To      int64    `json:"to"`
	Added   []string `json:"added"`
	Removed []string `json:"removed"`
}

// CLISince answers how long a path has been reported.
type CLISince struct {
	Path  string  `json:"path"`
	Since *CLIRun `json:"since"`
}

func toCLIRun(r *orphan.Run) CLIRun {
	return CLIRun{
		ID:          r.ID,
		Root:        r.Root,
		CreatedAt:   r.CreatedAt,
		Fingerprint: r.Fingerprint,
		Packages:    r.Packages,
		Unused:      r.Unused,
		Diagnostics: r.Diagnostics,
		Unchanged:   r.Unchanged,
	}
}

func toCLIDiagnostics(diags []*orphan.StoredDiagnostic) []CLIDiagnostic {
	out := make([]CLIDiagnostic, len(diags))
	for i, d := range diags {
		out[i] = CLIDiagnostic{Kind: d.Kind, File: d.File, Line: d.Line, Module: d.Module, Message: d.Message}
	}
	return out
}

func toCLIDiff(d *orphan.RunDiff) CLIDiff {
	out := CLIDiff{From: d.From, To: d.To, Added: d.Added, Removed: d.Removed}
	if out.Added == nil {
		out.Added = []string{}
	}
	if out.Removed == nil {
		out.Removed = []string{}
	}
	return out
}
