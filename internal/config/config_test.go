package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, `
exclude_packages: [xtask]
extra_roots:
  - integration
filter_script: scripts/keep.risor
parallel: 4
format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"xtask"}, cfg.ExcludePackages)
	assert.Equal(t, []string{"integration"}, cfg.ExtraRoots)
	assert.Equal(t, "scripts/keep.risor", cfg.FilterScript)
	assert.Equal(t, 4, cfg.Parallel)
	assert.Equal(t, FormatJSON, cfg.Format)
	// Unset keys keep defaults.
	assert.Equal(t, Default().AuxDirs, cfg.AuxDirs)
	assert.Equal(t, Default().DB, cfg.DB)
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    error
	}{
		{"bad yaml", "format: [unterminated", ErrConfigFileParse},
		{"bad format", "format: xml", ErrInvalidFormat},
		{"negative parallel", "parallel: -1", ErrInvalidParallel},
		{"blank root", "extra_roots: ['  ']", ErrEmptyEntry},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Load(writeConfig(t, tt.content))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLoad_Missing(t *testing.T) {
	t.Parallel()
	missing := filepath.Join(t.TempDir(), FileName)

	_, err := Load(missing)
	assert.ErrorIs(t, err, ErrConfigNotFound)

	cfg, err := LoadWithFallback(missing)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadWithFallback_ParseErrorSurfaces(t *testing.T) {
	t.Parallel()
	_, err := LoadWithFallback(writeConfig(t, "parallel: nope"))
	assert.ErrorIs(t, err, ErrConfigFileParse)
}

func TestDefault_Validates(t *testing.T) {
	t.Parallel()
	assert.NoError(t, Default().Validate())
}

func TestResolve(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "", Resolve("/ws", ""))
	assert.Equal(t, "/abs/h.db", Resolve("/ws", "/abs/h.db"))
	assert.Equal(t, filepath.Join("/ws", ".orphan", "h.db"), Resolve("/ws", ".orphan/h.db"))
}
