package rustsrc

// ItemKind classifies a top-level item of a source file.
type ItemKind string

const (
	KindFunction   ItemKind = "function"
	KindStruct     ItemKind = "struct"
	KindEnum       ItemKind = "enum"
	KindConst      ItemKind = "const"
	KindStatic     ItemKind = "static"
	KindTrait      ItemKind = "trait"
	KindTraitAlias ItemKind = "trait_alias"
	KindTypeAlias  ItemKind = "type_alias"
	KindMacro      ItemKind = "macro"
	KindModule     ItemKind = "module"
	KindUse        ItemKind = "use"
	KindForeign    ItemKind = "foreign"
	KindOther      ItemKind = "other"
)

// Declares reports whether items of this kind declare a named symbol that
// can be exported.
func (k ItemKind) Declares() bool {
	switch k {
	case KindFunction, KindStruct, KindEnum, KindConst, KindStatic,
		KindTrait, KindTraitAlias, KindTypeAlias, KindMacro:
		return true
	}
	return false
}

// File is the parsed item list of one source file.
type File struct {
	Path  string
	Items []Item
}

// Item is one top-level item.
type Item struct {
	Kind   ItemKind
	Name   string
	Public bool
	Line   int // 1-based

	// Inline is set for modules whose body is given in the same file; Items
	// then holds the body. A module without Inline is file-backed.
	Inline bool
	Items  []Item

	// PathAttr is the value of a #[path = "..."] attribute, if any.
	PathAttr string

	// Use is the path tree of a use declaration.
	Use *UseTree

	// Paths holds every multi-segment expression path found inside the item,
	// and Uses every use declaration nested in its bodies.
	Paths [][]string
	Uses  []*UseTree
}

// UseKind tags the node kinds of a use path tree.
type UseKind int

const (
	UseName UseKind = iota
	UseRename
	UseGlob
	UseGroup
	UsePath
)

// UseTree is the structured path of a use declaration.
//
//	use a::b::{c, d as e, f::*};
//
// is Path(a) -> Path(b) -> Group[Name(c), Rename(d, e), Path(f) -> Glob].
type UseTree struct {
	Kind  UseKind
	Name  string     // name, renamed original, or path segment
	Alias string     // local name of a rename
	Next  *UseTree   // remainder of a path segment
	Items []*UseTree // members of a group
}
