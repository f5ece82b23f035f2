package workspace

import "errors"

var (
	// ErrNoManifest is returned when a directory has no Cargo.toml.
	ErrNoManifest = errors.New("no Cargo.toml found")
	// ErrManifestParse is returned when a Cargo.toml is not valid TOML.
	ErrManifestParse = errors.New("failed to parse Cargo.toml")
	// ErrNoPackages is returned when a manifest declares neither a package
	// nor workspace members.
	ErrNoPackages = errors.New("manifest declares no packages")
	// ErrMissingEntryPoint is returned when a package has neither a library
	// nor a binary entry file. It aborts loading.
	ErrMissingEntryPoint = errors.New("neither lib.rs nor main.rs found in package")
)
