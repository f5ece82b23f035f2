// Package collector walks the module tree of one root and records what it
// exports and what it imports.
//
// Starting from an entry file, every item is classified: public declarations
// become export leaves, modules are descended into (inline bodies directly,
// file-backed bodies after resolving them on disk), and use declarations
// plus qualified expression paths become imports. Exports are scoped by
// module; imports are accumulated for the whole root regardless of the
// visibility of the module they appear in.
package collector

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/viant/afs"

	"github.com/jward/orphan/internal/nstree"
	"github.com/jward/orphan/internal/rustsrc"
)

//go:generate go run go.uber.org/mock/mockgen@v0.5.2 -source=collector.go -destination=mockparser.gen.go -package=collector

// Parser turns the bytes of one source file into its item list.
type Parser interface {
	ParseFile(ctx context.Context, path string, src []byte) (*rustsrc.File, error)
}

// Collector walks one root. It is safe to call Visit from several
// goroutines as long as the Parser is.
type Collector struct {
	parser     Parser
	fs         afs.Service
	logger     *slog.Logger
	moduleName string
}

// Option configures a Collector.
type Option func(*Collector)

// WithFS sets the storage service used to read sources and probe module
// candidates. Defaults to afs.New().
func WithFS(fs afs.Service) Option {
	return func(c *Collector) {
		c.fs = fs
	}
}

// WithLogger sets the logger. Defaults to a logger that discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Collector) {
		c.logger = logger
	}
}

// WithModuleName sets the top-level key the root's exports are wrapped in.
// Without it the name is derived from the entry path (see LogicalModuleName).
func WithModuleName(name string) Option {
	return func(c *Collector) {
		c.moduleName = name
	}
}

// New creates a Collector that parses with parser.
func New(parser Parser, opts ...Option) *Collector {
	c := &Collector{parser: parser}
	for _, opt := range opts {
		opt(c)
	}
	if c.fs == nil {
		c.fs = afs.New()
	}
	if c.logger == nil {
		c.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c
}

// Result holds what one root exports and imports.
type Result struct {
	// Module is the top-level key of Exports.
	Module string
	// Exports has a single top-level container keyed by Module, or is empty
	// when the entry file could not be visited.
	Exports *nstree.Tree[string]
	// Imports is not wrapped: paths are recorded as written.
	Imports *nstree.Tree[string]
	// Files lists the visited files in visiting order.
	Files       []string
	Diagnostics []Diagnostic
}

// scope is the state of one module level. Entering a module pushes a fresh
// scope; leaving it merges the scope into its parent.
type scope struct {
	file    string // file the items come from
	fileDir string // base for #[path] attributes
	dir     string // where file-backed submodules live
	exports *nstree.Tree[string]
	imports *nstree.Tree[string]
}

// walk is the state of one Visit call.
type walk struct {
	c        *Collector
	visiting map[string]bool
	result   *Result
}

// Visit walks the module tree rooted at the entry file path. Problems with
// individual files are reported as diagnostics on the result; an error is
// returned only if ctx is done.
func (c *Collector) Visit(ctx context.Context, path string) (*Result, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("collector: %w", err)
	}

	name := c.moduleName
	if name == "" {
		name = LogicalModuleName(abs, true)
	}

	w := &walk{
		c:        c,
		visiting: make(map[string]bool),
		result: &Result{
			Module:  name,
			Exports: nstree.New[string](),
			Imports: nstree.New[string](),
		},
	}

	exports, imports, ok := w.visitFile(ctx, abs, childDir(abs, true))
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("collector: visit %s: %w", abs, err)
	}
	if ok {
		w.result.Exports.Insert(name, exports)
		w.result.Imports = imports
	}
	return w.result, nil
}

// visitFile reads, parses and walks one file with a fresh scope. ok is
// false when the file could not be walked.
func (w *walk) visitFile(ctx context.Context, path, dir string) (exports, imports *nstree.Tree[string], ok bool) {
	if ctx.Err() != nil {
		return nil, nil, false
	}
	if w.visiting[path] {
		w.report(Diagnostic{Kind: KindModuleCycle, Path: path, Err: wrapf(ErrModuleCycle, "already being visited")})
		return nil, nil, false
	}
	w.visiting[path] = true
	defer delete(w.visiting, path)

	src, err := w.c.fs.DownloadWithURL(ctx, path)
	if err != nil {
		w.report(Diagnostic{Kind: KindUnreadableFile, Path: path, Err: fmt.Errorf("%w: %w", ErrUnreadableFile, err)})
		return nil, nil, false
	}
	file, err := w.c.parser.ParseFile(ctx, path, src)
	if err != nil {
		w.report(Diagnostic{Kind: KindMalformedSource, Path: path, Err: fmt.Errorf("%w: %w", ErrMalformedSource, err)})
		return nil, nil, false
	}

	w.c.logger.Debug("visiting file", "path", path, "items", len(file.Items))
	w.result.Files = append(w.result.Files, path)

	s := &scope{
		file:    path,
		fileDir: filepath.Dir(path),
		dir:     dir,
		exports: nstree.New[string](),
		imports: nstree.New[string](),
	}
	w.visitItems(ctx, file.Items, s)
	return s.exports, s.imports, true
}

func (w *walk) visitItems(ctx context.Context, items []rustsrc.Item, s *scope) {
	for _, it := range items {
		switch {
		case it.Kind.Declares():
			w.recordReferences(it, s)
			if it.Public && it.Name != "" {
				s.exports.EntryOrInsert(it.Name, nil)
			}
		case it.Kind == rustsrc.KindModule:
			w.visitModule(ctx, it, s)
		case it.Kind == rustsrc.KindUse:
			s.imports.Extend(ImportTree(it.Use))
		case it.Kind == rustsrc.KindForeign:
			w.report(Diagnostic{
				Kind: KindUnsupportedConstruct,
				Path: s.file,
				Line: it.Line,
				Err:  wrapf(ErrUnsupportedConstruct, "foreign block ignored"),
			})
		}
	}
}

// recordReferences adds the qualified paths and nested use declarations of
// an item's body to the imports.
func (w *walk) recordReferences(it rustsrc.Item, s *scope) {
	for _, path := range it.Paths {
		if len(path) > 1 {
			s.imports.InsertPath(path...)
		}
	}
	for _, use := range it.Uses {
		s.imports.Extend(ImportTree(use))
	}
}

func (w *walk) visitModule(ctx context.Context, it rustsrc.Item, s *scope) {
	if it.Inline {
		dir := filepath.Join(s.dir, it.Name)
		child := &scope{
			file:    s.file,
			fileDir: dir,
			dir:     dir,
			exports: nstree.New[string](),
			imports: s.imports,
		}
		w.visitItems(ctx, it.Items, child)
		if it.Public {
			s.exports.Extend(wrapModule(it.Name, child.exports))
		}
	} else if path := w.resolveModule(ctx, it, s); path != "" {
		// Submodules of a #[path] file live next to it, as for mod.rs.
		exports, imports, ok := w.visitFile(ctx, path, childDir(path, it.PathAttr != ""))
		if ok {
			if it.Public {
				s.exports.Extend(wrapModule(it.Name, exports))
			}
			s.imports.Extend(imports)
		}
	}

	if it.Public {
		s.exports.EntryOrInsert(it.Name, nil)
	}
}

func wrapModule(name string, exports *nstree.Tree[string]) *nstree.Tree[string] {
	t := nstree.New[string]()
	t.Insert(name, exports)
	return t
}

func (w *walk) report(d Diagnostic) {
	w.c.logger.Warn("diagnostic", "kind", string(d.Kind), "path", d.Path, "line", d.Line, "error", d.Err)
	w.result.Diagnostics = append(w.result.Diagnostics, d)
}
