// Package workspace enumerates the packages of a Cargo workspace and the
// files the analyzer starts from.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jward/orphan/internal/rustsrc"
)

// DefaultAuxDirs are the package directories whose sources may use the
// package's exports without exporting anything themselves.
var DefaultAuxDirs = []string{"tests", "examples", "benches"}

// entryCandidates lists, in order, where a package's entry file may be.
var entryCandidates = []string{
	filepath.Join("src", "lib"+rustsrc.Ext),
	filepath.Join("src", "main"+rustsrc.Ext),
}

// Package is one member of a workspace.
type Package struct {
	// Name is the package name as written in the manifest.
	Name string
	// LibName is the [lib] name override, if any.
	LibName string
	// Dir is the absolute package directory.
	Dir string
	// Entry is the absolute path of the entry file.
	Entry string
	// Dependencies lists path dependencies by name.
	Dependencies []string
	// AuxFiles are sources under the aux dirs (tests, examples, benches).
	AuxFiles []string
}

// CrateName returns the name other crates refer to this package by.
func (p *Package) CrateName() string {
	if p.LibName != "" {
		return p.LibName
	}
	return CrateName(p.Name)
}

// CrateName turns a package name into the identifier used in paths.
func CrateName(pkg string) string {
	return strings.ReplaceAll(pkg, "-", "_")
}

// Workspace is a loaded set of packages.
type Workspace struct {
	Root     string
	Packages []*Package
}

// Option configures Load.
type Option func(*loader)

type loader struct {
	auxDirs []string
	exclude map[string]bool
}

// WithAuxDirs replaces DefaultAuxDirs.
func WithAuxDirs(dirs ...string) Option {
	return func(l *loader) {
		l.auxDirs = dirs
	}
}

// WithExcludedPackages drops packages by name after loading.
func WithExcludedPackages(names ...string) Option {
	return func(l *loader) {
		for _, name := range names {
			l.exclude[name] = true
		}
	}
}

// Load reads the manifest in dir. A [workspace] table contributes every
// member matching its globs (minus exclude entries); a [package] table
// contributes dir itself. Packages are returned sorted by name.
func Load(dir string, opts ...Option) (*Workspace, error) {
	l := &loader{
		auxDirs: DefaultAuxDirs,
		exclude: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(l)
	}

	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("workspace: %w", err)
	}
	m, err := readManifest(filepath.Join(root, ManifestName))
	if err != nil {
		return nil, err
	}

	var dirs []string
	if m.Package != nil {
		dirs = append(dirs, root)
	}
	if m.Workspace != nil {
		members, err := expandMembers(root, m.Workspace)
		if err != nil {
			return nil, err
		}
		dirs = append(dirs, members...)
	}
	if len(dirs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoPackages, filepath.Join(root, ManifestName))
	}

	ws := &Workspace{Root: root}
	seen := make(map[string]bool)
	for _, d := range dirs {
		if seen[d] {
			continue
		}
		seen[d] = true
		pkg, err := l.loadPackage(d)
		if err != nil {
			return nil, err
		}
		if l.exclude[pkg.Name] {
			continue
		}
		ws.Packages = append(ws.Packages, pkg)
	}
	sort.Slice(ws.Packages, func(i, j int) bool {
		return ws.Packages[i].Name < ws.Packages[j].Name
	})
	return ws, nil
}

// expandMembers resolves member globs relative to root. Matches without a
// manifest are skipped.
func expandMembers(root string, w *workspaceSection) ([]string, error) {
	excluded := make(map[string]bool, len(w.Exclude))
	for _, e := range w.Exclude {
		excluded[filepath.Join(root, e)] = true
	}

	var dirs []string
	for _, member := range w.Members {
		matches, err := filepath.Glob(filepath.Join(root, member))
		if err != nil {
			return nil, fmt.Errorf("workspace: member pattern %q: %w", member, err)
		}
		sort.Strings(matches)
		for _, match := range matches {
			if excluded[match] {
				continue
			}
			if _, err := os.Stat(filepath.Join(match, ManifestName)); err != nil {
				continue
			}
			dirs = append(dirs, match)
		}
	}
	return dirs, nil
}

func (l *loader) loadPackage(dir string) (*Package, error) {
	m, err := readManifest(filepath.Join(dir, ManifestName))
	if err != nil {
		return nil, err
	}
	if m.Package == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoPackages, filepath.Join(dir, ManifestName))
	}

	pkg := &Package{
		Name:         m.Package.Name,
		Dir:          dir,
		Dependencies: m.pathDependencies(),
	}
	if pkg.Name == "" {
		pkg.Name = filepath.Base(dir)
	}

	var libPath string
	if m.Lib != nil {
		pkg.LibName = m.Lib.Name
		libPath = m.Lib.Path
	}
	entry, err := findEntry(dir, libPath)
	if err != nil {
		return nil, err
	}
	pkg.Entry = entry
	pkg.AuxFiles = l.auxFiles(dir)
	return pkg, nil
}

// findEntry returns the package entry file: the [lib] path when set,
// otherwise the first existing entry candidate.
func findEntry(dir, libPath string) (string, error) {
	candidates := entryCandidates
	if libPath != "" {
		candidates = append([]string{libPath}, candidates...)
	}
	for _, c := range candidates {
		p := filepath.Join(dir, c)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrMissingEntryPoint, dir)
}

// auxFiles lists <aux>/*.rs and <aux>/*/main.rs for each aux dir.
func (l *loader) auxFiles(dir string) []string {
	var files []string
	for _, aux := range l.auxDirs {
		for _, pattern := range []string{
			filepath.Join(dir, aux, "*"+rustsrc.Ext),
			filepath.Join(dir, aux, "*", "main"+rustsrc.Ext),
		} {
			matches, _ := filepath.Glob(pattern)
			files = append(files, matches...)
		}
	}
	sort.Strings(files)
	return files
}

// SourceFiles returns every source file under dir, sorted. It is used for
// import-only roots given as plain directories.
func SourceFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() && path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if d.IsDir() && d.Name() == "target" {
			return filepath.SkipDir
		}
		if !d.IsDir() && rustsrc.IsSourceFile(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("workspace: walk %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}

// IsWorkspaceRoot reports whether dir holds a manifest with a [workspace]
// table.
func IsWorkspaceRoot(dir string) bool {
	m, err := readManifest(filepath.Join(dir, ManifestName))
	return err == nil && m.Workspace != nil
}

// FindRoot walks up from start to the directory to analyze: the nearest
// ancestor whose manifest declares a workspace, else the nearest ancestor
// with any manifest, else start itself.
func FindRoot(start string) string {
	nearest := ""
	dir := start
	for {
		if _, err := os.Stat(filepath.Join(dir, ManifestName)); err == nil {
			if IsWorkspaceRoot(dir) {
				return dir
			}
			if nearest == "" {
				nearest = dir
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	if nearest != "" {
		return nearest
	}
	return start
}
