package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/jward/orphan"
	"github.com/jward/orphan/internal/config"
	"github.com/spf13/cobra"
)

// validateFormat checks that the format flag is a known value.
func validateFormat(format string) error {
	switch format {
	case config.FormatText, config.FormatJSON, config.FormatTree:
		return nil
	default:
		return fmt.Errorf("invalid format %q: must be text, json or tree", format)
	}
}

// outputJSON writes result as indented JSON to the command's stdout.
func outputJSON(cmd *cobra.Command, result CLIResult) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// outputError writes an error in the selected format and returns it so RunE
// can propagate it to Cobra. In JSON mode the error is written to stdout as a
// CLIResult envelope. Otherwise it goes to stderr.
func outputError(cmd *cobra.Command, command string, err error) error {
	errorHandled = true
	if flagFormat != config.FormatJSON {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s\n", err)
		return err
	}
	_ = outputJSON(cmd, CLIResult{Command: command, Error: err.Error()})
	return err
}

// outputReport prints the unused exports of report.
func outputReport(cmd *cobra.Command, command string, report *orphan.Report) error {
	switch flagFormat {
	case config.FormatJSON:
		count := len(report.Paths())
		return outputJSON(cmd, CLIResult{Command: command, Results: report, TotalCount: &count})
	case config.FormatTree:
		formatTreeText(cmd.OutOrStdout(), report.Unused)
	default:
		formatPathsText(cmd.OutOrStdout(), report.Paths())
	}
	return nil
}

// formatPathsText prints one path per line.
func formatPathsText(w io.Writer, paths []string) {
	for _, p := range paths {
		fmt.Fprintln(w, p)
	}
}

// formatTreeText prints t indented two spaces per level. Containers end in
// the path separator.
func formatTreeText(w io.Writer, t *orphan.Tree) {
	writeTreeLevel(w, t, 0)
}

func writeTreeLevel(w io.Writer, t *orphan.Tree, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, key := range t.Keys() {
		child, _ := t.Get(key)
		if child == nil {
			fmt.Fprintf(w, "%s%s\n", indent, key)
			continue
		}
		fmt.Fprintf(w, "%s%s%s\n", indent, key, orphan.PathSeparator)
		writeTreeLevel(w, child, depth+1)
	}
}

// formatDiagnosticsText prints diagnostics as aligned columns.
func formatDiagnosticsText(w io.Writer, diags []orphan.Diagnostic) {
	if len(diags) == 0 {
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tLOCATION\tMESSAGE")
	for _, d := range diags {
		loc := d.Path
		if d.Line > 0 {
			loc = fmt.Sprintf("%s:%d", d.Path, d.Line)
		}
		msg := ""
		if d.Err != nil {
			msg = d.Err.Error()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", d.Kind, loc, msg)
	}
	tw.Flush()
}

// formatRunsText formats recorded runs as aligned columns.
func formatRunsText(w io.Writer, runs []CLIRun) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tPACKAGES\tUNUSED\tDIAGNOSTICS\tFINGERPRINT\tSTATUS")
	for _, r := range runs {
		status := "changed"
		if r.Unchanged {
			status = "unchanged"
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d\t%s\t%s\n",
			r.ID, r.CreatedAt.Local().Format(time.DateTime), r.Packages, r.Unused, r.Diagnostics, r.Fingerprint, status)
	}
	tw.Flush()
}

// formatRunDetailText prints a run header, its paths and its diagnostics.
func formatRunDetailText(w io.Writer, d CLIRunDetail) {
	formatRunsText(w, []CLIRun{d.CLIRun})
	fmt.Fprintln(w)
	formatPathsText(w, d.Paths)
	if len(d.DiagnosticList) == 0 {
		return
	}
	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tFILE\tLINE\tMESSAGE")
	for _, diag := range d.DiagnosticList {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", diag.Kind, diag.File, diag.Line, diag.Message)
	}
	tw.Flush()
}

// formatDiffText prints added paths with "+" and removed ones with "-".
func formatDiffText(w io.Writer, d CLIDiff) {
	fmt.Fprintf(w, "run %d -> run %d\n", d.From, d.To)
	for _, p := range d.Added {
		fmt.Fprintf(w, "+ %s\n", p)
	}
	for _, p := range d.Removed {
		fmt.Fprintf(w, "- %s\n", p)
	}
}

// summaryLine describes a finished check.
func summaryLine(report *orphan.Report, elapsed time.Duration) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d unused exports in %d packages (%d files, %s)",
		len(report.Paths()), report.Packages, report.Files, elapsed.Round(time.Millisecond))
	if len(report.Diagnostics) > 0 {
		fmt.Fprintf(&b, ", %d diagnostics", len(report.Diagnostics))
	}
	if report.RunID > 0 {
		fmt.Fprintf(&b, "; run %d", report.RunID)
		if report.Unchanged {
			b.WriteString(", unchanged since the previous run")
		}
	}
	return b.String()
}
