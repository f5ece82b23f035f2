package collector

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/jward/orphan/internal/rustsrc"
)

// moduleLayouts lists, in order of preference, where the body of a
// file-backed module called name, declared in a scope whose modules live in
// dir, may be found.
var moduleLayouts = []func(dir, name string) string{
	func(dir, name string) string { return filepath.Join(dir, name, "mod"+rustsrc.Ext) },
	func(dir, name string) string { return filepath.Join(dir, name+rustsrc.Ext) },
}

// ModuleCandidates returns the candidate files for module name under dir.
func ModuleCandidates(dir, name string) []string {
	out := make([]string, len(moduleLayouts))
	for i, layout := range moduleLayouts {
		out[i] = layout(dir, name)
	}
	return out
}

const (
	libFile  = "lib" + rustsrc.Ext
	mainFile = "main" + rustsrc.Ext
	modFile  = "mod" + rustsrc.Ext
)

// LogicalModuleName returns the name a file contributes to the exports
// tree. A package entry file (lib.rs or main.rs visited as a root) is named
// after its package directory, a mod.rs after its directory, and any other
// file after its base name without extension.
func LogicalModuleName(path string, entry bool) string {
	base := filepath.Base(path)
	switch {
	case entry && (base == libFile || base == mainFile):
		return filepath.Base(filepath.Dir(filepath.Dir(path)))
	case base == modFile:
		return filepath.Base(filepath.Dir(path))
	default:
		return strings.TrimSuffix(base, filepath.Ext(base))
	}
}

// childDir returns the directory holding the file-backed submodules of the
// module whose body is the file at path.
func childDir(path string, entry bool) string {
	base := filepath.Base(path)
	if base == modFile || entry {
		return filepath.Dir(path)
	}
	return filepath.Join(filepath.Dir(path), strings.TrimSuffix(base, filepath.Ext(base)))
}

// resolveModule finds the body file of a file-backed module declared in s.
// It returns "" when no candidate exists; the module may be provided by the
// build in some other way.
func (w *walk) resolveModule(ctx context.Context, it rustsrc.Item, s *scope) string {
	if it.PathAttr != "" {
		p := it.PathAttr
		if !filepath.IsAbs(p) {
			p = filepath.Join(s.fileDir, p)
		}
		if w.exists(ctx, p) {
			return p
		}
		w.c.logger.Debug("module path attribute does not exist", "module", it.Name, "path", p)
		return ""
	}

	var found []string
	for _, candidate := range ModuleCandidates(s.dir, it.Name) {
		if w.exists(ctx, candidate) {
			found = append(found, candidate)
		}
	}
	switch len(found) {
	case 0:
		w.c.logger.Debug("module has no body on disk", "module", it.Name, "dir", s.dir)
		return ""
	case 1:
		return found[0]
	}
	w.report(Diagnostic{
		Kind:   KindAmbiguousModule,
		Path:   s.file,
		Line:   it.Line,
		Module: it.Name,
		Err:    wrapf(ErrAmbiguousModule, "both %s exist", strings.Join(found, " and ")),
	})
	return found[0]
}

func (w *walk) exists(ctx context.Context, path string) bool {
	ok, err := w.c.fs.Exists(ctx, path)
	if err != nil {
		w.c.logger.Debug("stat failed", "path", path, "error", err)
		return false
	}
	return ok
}
