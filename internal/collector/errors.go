package collector

import (
	"errors"
	"fmt"
)

var (
	ErrUnreadableFile       = errors.New("unreadable file")
	ErrMalformedSource      = errors.New("malformed source")
	ErrUnsupportedConstruct = errors.New("unsupported construct")
	ErrAmbiguousModule      = errors.New("ambiguous module resolution")
	ErrModuleCycle          = errors.New("module cycle")
)

// DiagnosticKind names the class of a traversal-local problem.
type DiagnosticKind string

const (
	KindUnreadableFile       DiagnosticKind = "unreadable_file"
	KindMalformedSource      DiagnosticKind = "malformed_source"
	KindUnsupportedConstruct DiagnosticKind = "unsupported_construct"
	KindAmbiguousModule      DiagnosticKind = "ambiguous_module"
	KindModuleCycle          DiagnosticKind = "module_cycle"
)

// Diagnostic is a problem met while walking one file. Diagnostics do not
// stop the walk; they are returned alongside the collected trees.
type Diagnostic struct {
	Kind   DiagnosticKind
	Path   string
	Line   int
	Module string
	Err    error
}

func (d Diagnostic) Error() string {
	loc := d.Path
	if d.Line > 0 {
		loc = fmt.Sprintf("%s:%d", d.Path, d.Line)
	}
	if d.Module != "" {
		return fmt.Sprintf("%s: module %s: %v", loc, d.Module, d.Err)
	}
	return fmt.Sprintf("%s: %v", loc, d.Err)
}

func (d Diagnostic) Unwrap() error {
	return d.Err
}

func wrapf(err error, format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{err}, args...)...)
}
