package rustsrc

import (
	"path/filepath"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/rust"
)

// Ext is the source file extension, including the dot.
const Ext = ".rs"

var (
	grammar     *sitter.Language
	grammarOnce sync.Once
)

// Language returns the tree-sitter grammar, initialised on first use.
func Language() *sitter.Language {
	grammarOnce.Do(func() {
		grammar = rust.GetLanguage()
	})
	return grammar
}

// IsSourceFile reports whether path has the source extension.
func IsSourceFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), Ext)
}
