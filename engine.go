package orphan

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/jward/orphan/internal/collector"
	"github.com/jward/orphan/internal/config"
	"github.com/jward/orphan/internal/nstree"
	"github.com/jward/orphan/internal/runtime"
	"github.com/jward/orphan/internal/rustsrc"
	"github.com/jward/orphan/internal/store"
	"github.com/jward/orphan/internal/workspace"
	"github.com/jward/orphan/scripts"
)

// Engine runs the analysis: it enumerates the roots of a workspace,
// collects each one, merges the results and reports the exports nothing
// imports.
type Engine struct {
	parser  *rustsrc.Parser
	logger  *slog.Logger
	runtime *runtime.Runtime
	filter  *runtime.Filter

	filterPath  string
	filterFS    fs.FS
	noFilter    bool
	dbPath      string
	historyKeep int
	store       *store.Store

	// useParallel enables concurrent root collection; workers bounds it
	// (0 means one per CPU).
	useParallel bool
	workers     int

	auxDirs         []string
	excludePackages []string
	extraRoots      []string
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithParallel controls concurrent root collection. When true (default),
// roots are collected by a worker pool and merged by a single goroutine.
func WithParallel(parallel bool) Option {
	return func(e *Engine) {
		e.useParallel = parallel
	}
}

// WithWorkers bounds the number of roots collected at once. Zero or less
// means one per CPU.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		e.workers = n
	}
}

// WithFilterScript loads the report filter from a Risor script on disk.
func WithFilterScript(path string) Option {
	return func(e *Engine) {
		e.filterPath = path
		e.filterFS = nil
	}
}

// WithFilterFS loads the report filter from path inside fsys.
func WithFilterFS(fsys fs.FS, path string) Option {
	return func(e *Engine) {
		e.filterFS = fsys
		e.filterPath = path
	}
}

// WithoutFilter reports every unused export.
func WithoutFilter() Option {
	return func(e *Engine) {
		e.noFilter = true
	}
}

// WithHistory records runs in a SQLite database at dbPath.
func WithHistory(dbPath string) Option {
	return func(e *Engine) {
		e.dbPath = dbPath
	}
}

// WithHistoryLimit keeps at most n runs per workspace. Zero keeps all.
func WithHistoryLimit(n int) Option {
	return func(e *Engine) {
		e.historyKeep = n
	}
}

// WithAuxDirs replaces the per-package directories whose files only
// contribute imports.
func WithAuxDirs(dirs ...string) Option {
	return func(e *Engine) {
		e.auxDirs = dirs
	}
}

// WithExcludePackages skips packages by name. Their exports are not
// reported and their imports do not count.
func WithExcludePackages(names ...string) Option {
	return func(e *Engine) {
		e.excludePackages = names
	}
}

// WithExtraRoots adds directories, relative to the workspace root, whose
// source files only contribute imports.
func WithExtraRoots(dirs ...string) Option {
	return func(e *Engine) {
		e.extraRoots = dirs
	}
}

// WithConfig applies the settings of a loaded config file.
func WithConfig(cfg config.Config) Option {
	return func(e *Engine) {
		e.auxDirs = cfg.AuxDirs
		e.excludePackages = cfg.ExcludePackages
		e.extraRoots = cfg.ExtraRoots
		e.workers = cfg.Parallel
		if cfg.FilterScript != "" {
			e.filterPath = cfg.FilterScript
			e.filterFS = nil
		}
	}
}

// New creates an Engine. The embedded default filter is used unless
// WithFilterScript, WithFilterFS or WithoutFilter says otherwise.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		parser:      rustsrc.NewParser(),
		logger:      slog.New(slog.DiscardHandler),
		useParallel: true,
		auxDirs:     workspace.DefaultAuxDirs,
		filterFS:    scripts.FS,
		filterPath:  scripts.DefaultFilter,
	}
	for _, opt := range opts {
		opt(e)
	}

	var rtOpts []runtime.RuntimeOption
	rtOpts = append(rtOpts, runtime.WithLogger(e.logger))
	if e.filterFS != nil {
		rtOpts = append(rtOpts, runtime.WithRuntimeFS(e.filterFS))
	}
	scriptsDir := ""
	if e.filterFS == nil && e.filterPath != "" {
		abs, err := filepath.Abs(e.filterPath)
		if err != nil {
			return nil, fmt.Errorf("orphan: filter path: %w", err)
		}
		e.filterPath = abs
		scriptsDir = filepath.Dir(abs)
	}
	e.runtime = runtime.NewRuntime(scriptsDir, rtOpts...)

	if !e.noFilter && e.filterPath != "" {
		f, err := e.runtime.NewFilter(e.filterPath)
		if err != nil {
			return nil, fmt.Errorf("orphan: load filter: %w", err)
		}
		e.filter = f
	}

	if e.dbPath != "" {
		s, err := openStore(e.dbPath)
		if err != nil {
			return nil, err
		}
		e.store = s
	}
	return e, nil
}

// Close releases the Engine's database resources.
func (e *Engine) Close() error {
	if e.store == nil {
		return nil
	}
	return e.store.Close()
}

// Roots lists what Analyze would collect for ws: one root per package
// (named after its crate), then the package aux files, then every source
// under the extra roots.
func (e *Engine) Roots(ws *workspace.Workspace) ([]Root, error) {
	var roots []Root
	for _, pkg := range ws.Packages {
		roots = append(roots, Root{Name: pkg.CrateName(), Entry: pkg.Entry})
	}
	for _, pkg := range ws.Packages {
		for _, f := range pkg.AuxFiles {
			roots = append(roots, Root{Entry: f, ImportsOnly: true})
		}
	}
	for _, dir := range e.extraRoots {
		files, err := workspace.SourceFiles(config.Resolve(ws.Root, dir))
		if err != nil {
			return nil, fmt.Errorf("orphan: extra root %s: %w", dir, err)
		}
		for _, f := range files {
			roots = append(roots, Root{Entry: f, ImportsOnly: true})
		}
	}
	return roots, nil
}

// Analyze loads the workspace in dir and reports its unused exports. A
// package without an entry file aborts the run; problems with individual
// source files become diagnostics on the report.
func (e *Engine) Analyze(ctx context.Context, dir string) (*Report, error) {
	ws, err := workspace.Load(dir,
		workspace.WithAuxDirs(e.auxDirs...),
		workspace.WithExcludedPackages(e.excludePackages...),
	)
	if err != nil {
		return nil, fmt.Errorf("orphan: %w", err)
	}
	roots, err := e.Roots(ws)
	if err != nil {
		return nil, err
	}
	report, err := e.AnalyzeRoots(ctx, roots)
	if err != nil {
		return nil, err
	}
	report.Workspace = ws.Root
	report.Packages = len(ws.Packages)
	report.Dependencies = dependencyTree(ws)
	return report, nil
}

// dependencyTree maps each package's crate name to the crate names of its
// path dependencies.
func dependencyTree(ws *workspace.Workspace) *Tree {
	deps := nstree.New[string]()
	for _, pkg := range ws.Packages {
		level := deps.Container(pkg.CrateName())
		for _, dep := range pkg.Dependencies {
			level.EntryOrInsert(workspace.CrateName(dep), nil)
		}
	}
	return deps
}

// AnalyzeRoots collects the given roots, merges exports of the non
// import-only roots and imports of all roots, and filters the exports by
// the imports.
func (e *Engine) AnalyzeRoots(ctx context.Context, roots []Root) (*Report, error) {
	start := time.Now()

	var (
		results []*collector.Result
		err     error
	)
	if e.useParallel && len(roots) > 1 {
		results, err = e.collectParallel(ctx, roots)
	} else {
		results, err = e.collectSerial(ctx, roots)
	}
	if err != nil {
		return nil, err
	}

	report := e.merge(roots, results)

	unused := report.Exports.FilterBy(report.Imports)
	if e.filter != nil {
		unused, err = e.applyFilter(ctx, unused)
		if err != nil {
			return nil, err
		}
	}
	report.Unused = unused

	report.Fingerprint, err = store.ComputeFingerprint(report.Paths())
	if err != nil {
		return nil, fmt.Errorf("orphan: %w", err)
	}

	e.logger.Info("analysis complete",
		"roots", len(roots),
		"files", report.Files,
		"unused", len(report.Paths()),
		"diagnostics", len(report.Diagnostics),
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return report, nil
}

func (e *Engine) collectSerial(ctx context.Context, roots []Root) ([]*collector.Result, error) {
	results := make([]*collector.Result, len(roots))
	for i, root := range roots {
		res, err := e.collect(ctx, root)
		if err != nil {
			return nil, err
		}
		results[i] = res
	}
	return results, nil
}

// collect walks one root with its own Collector.
func (e *Engine) collect(ctx context.Context, root Root) (*collector.Result, error) {
	opts := []collector.Option{collector.WithLogger(e.logger)}
	if root.Name != "" {
		opts = append(opts, collector.WithModuleName(root.Name))
	}
	res, err := collector.New(e.parser, opts...).Visit(ctx, root.Entry)
	if err != nil {
		return nil, fmt.Errorf("orphan: collect %s: %w", root.Entry, err)
	}
	e.logger.Debug("collected root",
		"module", res.Module,
		"entry", root.Entry,
		"imports_only", root.ImportsOnly,
		"files", len(res.Files),
	)
	return res, nil
}

// merge folds per-root results into one report in root order. extend
// mutates its receiver, so this runs on a single goroutine.
func (e *Engine) merge(roots []Root, results []*collector.Result) *Report {
	report := &Report{
		Exports: nstree.New[string](),
		Imports: nstree.New[string](),
		Unused:  nstree.New[string](),
	}
	for i, res := range results {
		if !roots[i].ImportsOnly {
			report.Exports.Extend(res.Exports)
			report.Roots = append(report.Roots, res.Module)
		}
		report.Imports.Extend(res.Imports)
		report.Files += len(res.Files)
		report.Diagnostics = append(report.Diagnostics, res.Diagnostics...)
	}
	return report
}

// applyFilter keeps the unused paths the filter script accepts. The first
// script error aborts.
func (e *Engine) applyFilter(ctx context.Context, unused *Tree) (*Tree, error) {
	var ferr error
	kept := unused.Retain(func(path []string) bool {
		if ferr != nil {
			return false
		}
		keep, err := e.filter.Keep(ctx, path)
		if err != nil {
			ferr = err
			return false
		}
		return keep
	})
	if ferr != nil {
		return nil, fmt.Errorf("orphan: filter: %w", ferr)
	}
	return kept, nil
}
