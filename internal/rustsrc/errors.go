package rustsrc

import "errors"

var (
	// ErrSyntax is returned when the source does not parse cleanly.
	ErrSyntax = errors.New("syntax error")
	// ErrUnsupportedUse is returned for use trees with an unexpected shape.
	ErrUnsupportedUse = errors.New("unsupported use tree")
)
