package main

import (
	"fmt"
	"time"

	"github.com/jward/orphan"
	"github.com/jward/orphan/internal/config"
	"github.com/spf13/cobra"
)

var (
	flagLimit int
	flagSince string
	flagRun   int64
)

var historyCmd = &cobra.Command{
	Use:   "history [path]",
	Short: "List recorded runs of a workspace",
	Long:  "Lists the runs recorded by check, newest first. With --run, prints one run's paths and diagnostics; with --since, reports the oldest run of the current streak that reported a path.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&flagLimit, "limit", 20, "maximum number of runs to list (0 lists all)")
	historyCmd.Flags().StringVar(&flagSince, "since", "", "report since when PATH has been unused")
	historyCmd.Flags().Int64Var(&flagRun, "run", 0, "show the details of one run")
}

var (
	flagFrom int64
	flagTo   int64
)

var diffCmd = &cobra.Command{
	Use:   "diff [path]",
	Short: "Compare the unused sets of two recorded runs",
	Long:  "Compares the two newest runs of the workspace, or the runs given by --from and --to.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDiff,
}

func init() {
	diffCmd.Flags().Int64Var(&flagFrom, "from", 0, "older run ID")
	diffCmd.Flags().Int64Var(&flagTo, "to", 0, "newer run ID")
}

// openHistory loads the workspace config and an Engine with history enabled.
func openHistory(args []string) (string, *orphan.Engine, error) {
	root, cfg, err := loadWorkspace(args)
	if err != nil {
		return "", nil, err
	}
	engine, err := orphan.New(
		orphan.WithLogger(newLogger()),
		orphan.WithoutFilter(),
		orphan.WithHistory(resolveDBPath(root, cfg)),
	)
	if err != nil {
		return "", nil, fmt.Errorf("opening history: %w", err)
	}
	return root, engine, nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	root, engine, err := openHistory(args)
	if err != nil {
		return outputError(cmd, "history", err)
	}
	defer engine.Close()

	switch {
	case flagRun > 0:
		return historyRun(cmd, engine)
	case flagSince != "":
		return historySince(cmd, engine, root)
	}

	runs, err := engine.History(root, flagLimit)
	if err != nil {
		return outputError(cmd, "history", err)
	}
	out := make([]CLIRun, len(runs))
	for i, r := range runs {
		out[i] = toCLIRun(r)
	}
	if flagFormat == config.FormatJSON {
		count := len(out)
		return outputJSON(cmd, CLIResult{Command: "history", Results: out, TotalCount: &count})
	}
	if len(out) == 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "No runs recorded for %s\n", root)
		return nil
	}
	formatRunsText(cmd.OutOrStdout(), out)
	return nil
}

func historyRun(cmd *cobra.Command, engine *orphan.Engine) error {
	q, err := engine.Query()
	if err != nil {
		return outputError(cmd, "history", err)
	}
	run, err := q.Run(flagRun)
	if err != nil {
		return outputError(cmd, "history", err)
	}
	if run == nil {
		return outputError(cmd, "history", fmt.Errorf("run %d not found", flagRun))
	}
	paths, diags, err := engine.RunDetails(flagRun)
	if err != nil {
		return outputError(cmd, "history", err)
	}
	if paths == nil {
		paths = []string{}
	}
	detail := CLIRunDetail{CLIRun: toCLIRun(run), Paths: paths, DiagnosticList: toCLIDiagnostics(diags)}
	if flagFormat == config.FormatJSON {
		return outputJSON(cmd, CLIResult{Command: "history", Results: detail})
	}
	formatRunDetailText(cmd.OutOrStdout(), detail)
	return nil
}

func historySince(cmd *cobra.Command, engine *orphan.Engine, root string) error {
	q, err := engine.Query()
	if err != nil {
		return outputError(cmd, "history", err)
	}
	run, err := q.UnusedSince(root, flagSince)
	if err != nil {
		return outputError(cmd, "history", err)
	}
	result := CLISince{Path: flagSince}
	if run != nil {
		r := toCLIRun(run)
		result.Since = &r
	}
	if flagFormat == config.FormatJSON {
		return outputJSON(cmd, CLIResult{Command: "history", Results: result})
	}
	if result.Since == nil {
		fmt.Fprintf(cmd.OutOrStdout(), "%s is not reported by the latest run\n", flagSince)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s unused since run %d (%s)\n",
		flagSince, result.Since.ID, result.Since.CreatedAt.Local().Format(time.DateTime))
	return nil
}

func runDiff(cmd *cobra.Command, args []string) error {
	root, engine, err := openHistory(args)
	if err != nil {
		return outputError(cmd, "diff", err)
	}
	defer engine.Close()

	q, err := engine.Query()
	if err != nil {
		return outputError(cmd, "diff", err)
	}

	var d *orphan.RunDiff
	switch {
	case flagFrom > 0 && flagTo > 0:
		d, err = q.Diff(flagFrom, flagTo)
	case flagFrom > 0 || flagTo > 0:
		err = fmt.Errorf("--from and --to must be given together")
	default:
		d, err = q.LatestDiff(root)
	}
	if err != nil {
		return outputError(cmd, "diff", err)
	}
	if d == nil {
		return outputError(cmd, "diff", fmt.Errorf("fewer than two runs recorded for %s", root))
	}

	out := toCLIDiff(d)
	if flagFormat == config.FormatJSON {
		return outputJSON(cmd, CLIResult{Command: "diff", Results: out})
	}
	formatDiffText(cmd.OutOrStdout(), out)
	return nil
}
