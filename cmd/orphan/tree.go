package main

import (
	"fmt"

	"github.com/jward/orphan"
	"github.com/jward/orphan/internal/config"
	"github.com/spf13/cobra"
)

const (
	kindExports = "exports"
	kindImports = "imports"
	kindUnused  = "unused"
	kindDeps    = "dependencies"
)

var flagKind string

var treeCmd = &cobra.Command{
	Use:   "tree [path]",
	Short: "Print the merged export, import, unused or dependency tree",
	Long:  "Analyzes the workspace without recording a run and prints one of its namespace trees. Useful for seeing why an export is or is not reported.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runTree,
}

func init() {
	treeCmd.Flags().StringVar(&flagKind, "kind", kindExports, "tree to print: exports|imports|unused|dependencies")
}

func runTree(cmd *cobra.Command, args []string) error {
	root, cfg, err := loadWorkspace(args)
	if err != nil {
		return outputError(cmd, "tree", err)
	}

	engine, err := newEngine(root, cfg, false)
	if err != nil {
		return outputError(cmd, "tree", fmt.Errorf("creating engine: %w", err))
	}
	defer engine.Close()

	report, err := engine.Analyze(cmd.Context(), root)
	if err != nil {
		return outputError(cmd, "tree", err)
	}

	var t *orphan.Tree
	switch flagKind {
	case kindExports:
		t = report.Exports
	case kindImports:
		t = report.Imports
	case kindUnused:
		t = report.Unused
	case kindDeps:
		t = report.Dependencies
	default:
		return outputError(cmd, "tree", fmt.Errorf("invalid kind %q: must be exports, imports, unused or dependencies", flagKind))
	}

	switch flagFormat {
	case config.FormatJSON:
		return outputJSON(cmd, CLIResult{Command: "tree", Results: t})
	case config.FormatTree:
		formatTreeText(cmd.OutOrStdout(), t)
	default:
		formatPathsText(cmd.OutOrStdout(), t.Paths(orphan.PathSeparator))
	}
	return nil
}
