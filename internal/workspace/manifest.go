package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"github.com/pelletier/go-toml/v2"
)

// ManifestName is the file name of a package or workspace manifest.
const ManifestName = "Cargo.toml"

type manifest struct {
	Package         *packageSection   `toml:"package"`
	Lib             *targetSection    `toml:"lib"`
	Workspace       *workspaceSection `toml:"workspace"`
	Dependencies    map[string]any    `toml:"dependencies"`
	DevDependencies map[string]any    `toml:"dev-dependencies"`
}

type packageSection struct {
	Name string `toml:"name"`
}

type targetSection struct {
	Name string `toml:"name"`
	Path string `toml:"path"`
}

type workspaceSection struct {
	Members []string `toml:"members"`
	Exclude []string `toml:"exclude"`
}

func readManifest(path string) (*manifest, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNoManifest, path)
	}
	if err != nil {
		return nil, fmt.Errorf("workspace: read %s: %w", path, err)
	}
	var m manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrManifestParse, path, err)
	}
	return &m, nil
}

// pathDependencies returns the names of dependencies declared with a local
// path, from both the normal and dev sections, sorted.
func (m *manifest) pathDependencies() []string {
	seen := make(map[string]bool)
	for _, section := range []map[string]any{m.Dependencies, m.DevDependencies} {
		for name, spec := range section {
			table, ok := spec.(map[string]any)
			if !ok {
				continue
			}
			if _, ok := table["path"]; ok {
				seen[name] = true
			}
		}
	}
	deps := make([]string, 0, len(seen))
	for name := range seen {
		deps = append(deps, name)
	}
	sort.Strings(deps)
	return deps
}
