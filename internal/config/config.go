// Package config loads orphan.yaml, the optional per-workspace settings file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileName is the config file looked up in the workspace root.
const FileName = "orphan.yaml"

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatTree = "tree"
)

// Config holds the settings an analysis run can take from disk.
type Config struct {
	// ExcludePackages names packages that are neither analyzed nor used as
	// import sources.
	ExcludePackages []string `yaml:"exclude_packages,omitempty"`
	// ExtraRoots are directories, relative to the workspace root, whose
	// sources count as import-only roots.
	ExtraRoots []string `yaml:"extra_roots,omitempty"`
	// AuxDirs are the package subdirectories holding import-only sources.
	AuxDirs []string `yaml:"aux_dirs,omitempty"`
	// FilterScript is a Risor script deciding which unused paths to report.
	FilterScript string `yaml:"filter_script,omitempty"`
	// Parallel bounds concurrent package collection; 0 means one per CPU.
	Parallel int `yaml:"parallel,omitempty"`
	// DB is the run history database, relative to the workspace root.
	DB string `yaml:"db,omitempty"`
	// Format is the default output format.
	Format string `yaml:"format,omitempty"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		AuxDirs: []string{"tests", "examples", "benches"},
		DB:      filepath.Join(".orphan", "history.db"),
		Format:  FormatText,
	}
}

// Load reads and validates the file at path. Unset fields take their
// defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
	}
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrConfigFileParse, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadWithFallback is Load, except a missing file yields Default.
func LoadWithFallback(path string) (Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, ErrConfigNotFound) {
		return Default(), nil
	}
	return cfg, err
}

// Validate checks field values.
func (c Config) Validate() error {
	switch c.Format {
	case FormatText, FormatJSON, FormatTree:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidFormat, c.Format)
	}
	if c.Parallel < 0 {
		return ErrInvalidParallel
	}
	for _, list := range [][]string{c.ExcludePackages, c.ExtraRoots, c.AuxDirs} {
		for _, v := range list {
			if strings.TrimSpace(v) == "" {
				return ErrEmptyEntry
			}
		}
	}
	return nil
}

// Resolve returns p relative to root unless it is already absolute. An
// empty p stays empty.
func Resolve(root, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}
