package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/jward/orphan"
	"github.com/jward/orphan/internal/config"
	"github.com/jward/orphan/internal/workspace"
	"github.com/spf13/cobra"
)

var (
	flagDB      string
	flagFormat  string
	flagConfig  string
	flagVerbose bool
)

// errorHandled is set by outputError so main() doesn't double-print.
var errorHandled bool

// errUnusedFound is returned by check --fail-on-unused after the report has
// been written; main maps it to exit status 2.
var errUnusedFound = errors.New("unused exports found")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if errors.Is(err, errUnusedFound) {
			os.Exit(2)
		}
		if !errorHandled {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "orphan",
	Short:         "Find public items no crate in a Rust workspace uses",
	Long:          "Orphan walks the module tree of every package in a Cargo workspace, records what each crate exports and imports, and reports the exports nothing imports.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		errorHandled = false
		if flagFormat == "" {
			return nil
		}
		return validateFormat(flagFormat)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "history database path (default: .orphan/history.db relative to workspace root)")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "", "output format: text|json|tree (default from orphan.yaml, else text)")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default: orphan.yaml in the workspace root)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "log progress to stderr")

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(treeCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(diffCmd)
}

var (
	flagNoDB         bool
	flagNoFilter     bool
	flagFilterScript string
	flagSerial       bool
	flagFailOnUnused bool
	flagKeep         int
)

var checkCmd = &cobra.Command{
	Use:   "check [path]",
	Short: "Report the unused exports of a workspace",
	Long:  "Analyzes the Cargo workspace containing path, prints every exported path no crate, test, example or benchmark imports, and records the run in the history database.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCheck,
}

func init() {
	checkCmd.Flags().BoolVar(&flagNoDB, "no-db", false, "do not record the run")
	checkCmd.Flags().BoolVar(&flagNoFilter, "no-filter", false, "report every unused export, ignoring the filter script")
	checkCmd.Flags().StringVar(&flagFilterScript, "filter-script", "", "Risor script deciding which unused paths to report")
	checkCmd.Flags().BoolVar(&flagSerial, "serial", false, "collect packages on a single goroutine")
	checkCmd.Flags().BoolVar(&flagFailOnUnused, "fail-on-unused", false, "exit with status 2 when anything is reported")
	checkCmd.Flags().IntVar(&flagKeep, "keep", 0, "keep at most this many recorded runs per workspace (0 keeps all)")
}

func runCheck(cmd *cobra.Command, args []string) error {
	start := time.Now()

	root, cfg, err := loadWorkspace(args)
	if err != nil {
		return outputError(cmd, "check", err)
	}

	engine, err := newEngine(root, cfg, !flagNoDB)
	if err != nil {
		return outputError(cmd, "check", fmt.Errorf("creating engine: %w", err))
	}
	defer engine.Close()

	if engine.FilterChanged() {
		fmt.Fprintln(cmd.ErrOrStderr(), "Note: the filter script changed since the last recorded run")
	}

	report, err := engine.Analyze(cmd.Context(), root)
	if err != nil {
		return outputError(cmd, "check", err)
	}
	if err := engine.Record(report); err != nil {
		return outputError(cmd, "check", err)
	}

	if err := outputReport(cmd, "check", report); err != nil {
		return err
	}
	if flagFormat != config.FormatJSON {
		formatDiagnosticsText(cmd.ErrOrStderr(), report.Diagnostics)
	}
	fmt.Fprintln(cmd.ErrOrStderr(), summaryLine(report, time.Since(start)))

	if flagFailOnUnused && !report.Unused.IsEmpty() {
		errorHandled = true
		return errUnusedFound
	}
	return nil
}

// loadWorkspace resolves the workspace root for the path argument and loads
// its config. An explicit --config must exist; the default file may not.
// flagFormat falls back to the config's format.
func loadWorkspace(args []string) (string, config.Config, error) {
	targetDir, err := resolveTargetDir(args)
	if err != nil {
		return "", config.Config{}, err
	}
	root := workspace.FindRoot(targetDir)

	var cfg config.Config
	if flagConfig != "" {
		cfg, err = config.Load(flagConfig)
	} else {
		cfg, err = config.LoadWithFallback(filepath.Join(root, config.FileName))
	}
	if err != nil {
		return "", config.Config{}, err
	}
	cfg.FilterScript = config.Resolve(root, cfg.FilterScript)
	if flagFormat == "" {
		flagFormat = cfg.Format
	}
	return root, cfg, nil
}

// newEngine builds an Engine for root from cfg and the check flags.
func newEngine(root string, cfg config.Config, history bool) (*orphan.Engine, error) {
	opts := []orphan.Option{
		orphan.WithConfig(cfg),
		orphan.WithLogger(newLogger()),
	}
	if flagFilterScript != "" {
		opts = append(opts, orphan.WithFilterScript(flagFilterScript))
	}
	if flagNoFilter {
		opts = append(opts, orphan.WithoutFilter())
	}
	if flagSerial {
		opts = append(opts, orphan.WithParallel(false))
	}
	if history {
		opts = append(opts,
			orphan.WithHistory(resolveDBPath(root, cfg)),
			orphan.WithHistoryLimit(flagKeep),
		)
	}
	return orphan.New(opts...)
}

// newLogger logs warnings to stderr, or everything with --verbose.
func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if flagVerbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// resolveTargetDir returns the absolute path of the directory to analyze.
func resolveTargetDir(args []string) (string, error) {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving path %q: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("directory not found: %s", abs)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("not a directory: %s", abs)
	}
	return abs, nil
}

// resolveDBPath returns the database path from the --db flag, the config,
// or the default, relative to the workspace root.
func resolveDBPath(root string, cfg config.Config) string {
	if flagDB != "" {
		return config.Resolve(root, flagDB)
	}
	if cfg.DB != "" {
		return config.Resolve(root, cfg.DB)
	}
	return config.Resolve(root, config.Default().DB)
}
