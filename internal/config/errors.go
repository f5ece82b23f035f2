package config

import "errors"

// Error definitions for config package.
var (
	// ErrConfigNotFound is returned by Load when the file does not exist.
	ErrConfigNotFound = errors.New("config file not found")
	// ErrConfigFileParse is returned when the file is not valid YAML.
	ErrConfigFileParse = errors.New("failed to parse config file")
	// ErrInvalidFormat is returned for an unknown output format.
	ErrInvalidFormat = errors.New("format must be one of text, json, tree")
	// ErrInvalidParallel is returned for a negative worker count.
	ErrInvalidParallel = errors.New("parallel cannot be negative")
	// ErrEmptyEntry is returned when a list entry is blank.
	ErrEmptyEntry = errors.New("list entries cannot be empty")
)
