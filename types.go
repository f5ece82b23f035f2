package orphan

import (
	"github.com/jward/orphan/internal/collector"
	"github.com/jward/orphan/internal/nstree"
	"github.com/jward/orphan/internal/store"
)

// Public aliases for internal types that appear in the Engine API.

type Tree = nstree.Tree[string]
type Diagnostic = collector.Diagnostic
type DiagnosticKind = collector.DiagnosticKind
type Run = store.Run
type StoredDiagnostic = store.Diagnostic

// Diagnostic kinds.
const (
	KindUnreadableFile       = collector.KindUnreadableFile
	KindMalformedSource      = collector.KindMalformedSource
	KindUnsupportedConstruct = collector.KindUnsupportedConstruct
	KindAmbiguousModule      = collector.KindAmbiguousModule
	KindModuleCycle          = collector.KindModuleCycle
)

// Root is one file tree to collect.
type Root struct {
	// Name is the top-level key of the root's exports. Empty derives it
	// from the entry path.
	Name string
	// Entry is the root's entry file.
	Entry string
	// ImportsOnly roots contribute imports but no exports.
	ImportsOnly bool
}
