// Package rustsrc turns Rust source files into the typed item lists the
// collector walks. Parsing is done with tree-sitter; only the shape the
// collector needs is kept: item kinds, names, visibility, module bodies,
// use trees and qualified expression paths.
package rustsrc

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// Parser parses Rust source with tree-sitter. It holds no state, so one
// Parser may be shared across goroutines; each call builds its own
// tree-sitter parser.
type Parser struct{}

// NewParser returns a Parser.
func NewParser() *Parser {
	return &Parser{}
}

// ParseFile parses src and returns its item list. path is used for error
// messages and recorded on the result. A source that does not parse cleanly
// yields an error wrapping ErrSyntax.
func (p *Parser) ParseFile(ctx context.Context, path string, src []byte) (*File, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(Language())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("rustsrc: parse %s: %w", path, err)
	}

	root := tree.RootNode()
	if root.HasError() {
		return nil, fmt.Errorf("%w: %s:%d", ErrSyntax, path, firstErrorLine(root))
	}

	x := &extractor{src: src}
	items, err := x.items(root)
	if err != nil {
		return nil, fmt.Errorf("rustsrc: %s: %w", path, err)
	}
	return &File{Path: path, Items: items}, nil
}

// firstErrorLine returns the 1-based line of the first ERROR or missing node.
func firstErrorLine(n *sitter.Node) int {
	if n.Type() == "ERROR" || n.IsMissing() {
		return int(n.StartPoint().Row) + 1
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child == nil || !child.HasError() && !child.IsMissing() {
			continue
		}
		return firstErrorLine(child)
	}
	return int(n.StartPoint().Row) + 1
}

// attribute is an outer attribute preceding an item.
type attribute struct {
	name  string
	value string // string value of `name = "value"`, if any
}

type extractor struct {
	src []byte
}

func (x *extractor) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Content(x.src)
}

// items extracts the items of a source_file or declaration_list node.
// Outer attributes are attached to the item that follows them.
func (x *extractor) items(parent *sitter.Node) ([]Item, error) {
	var (
		items []Item
		attrs []attribute
	)
	for i := 0; i < int(parent.NamedChildCount()); i++ {
		n := parent.NamedChild(i)
		switch n.Type() {
		case "attribute_item":
			attrs = append(attrs, x.attribute(n))
			continue
		case "inner_attribute_item", "line_comment", "block_comment":
			continue
		}
		it, err := x.item(n, attrs)
		attrs = nil
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, nil
}

func (x *extractor) attribute(n *sitter.Node) attribute {
	if n.NamedChildCount() == 0 {
		return attribute{}
	}
	attr := n.NamedChild(0)
	var a attribute
	if attr.NamedChildCount() > 0 {
		a.name = x.text(attr.NamedChild(0))
	}
	if v := attr.ChildByFieldName("value"); v != nil && v.Type() == "string_literal" {
		raw := x.text(v)
		if s, err := strconv.Unquote(raw); err == nil {
			a.value = s
		} else {
			a.value = strings.Trim(raw, `"`)
		}
	}
	return a
}

func (x *extractor) item(n *sitter.Node, attrs []attribute) (Item, error) {
	it := Item{
		Line:   int(n.StartPoint().Row) + 1,
		Public: x.isPublic(n),
	}

	switch n.Type() {
	case "function_item":
		it.Kind = KindFunction
	case "struct_item":
		it.Kind = KindStruct
	case "enum_item":
		it.Kind = KindEnum
	case "const_item":
		it.Kind = KindConst
	case "static_item":
		it.Kind = KindStatic
	case "trait_item":
		it.Kind = KindTrait
	case "type_item":
		it.Kind = KindTypeAlias
	case "macro_definition":
		it.Kind = KindMacro
		it.Name = x.text(n.ChildByFieldName("name"))
		it.Public = hasAttribute(attrs, "macro_export")
		return it, nil
	case "mod_item":
		it.Kind = KindModule
		it.Name = x.text(n.ChildByFieldName("name"))
		for _, a := range attrs {
			if a.name == "path" && a.value != "" {
				it.PathAttr = a.value
			}
		}
		if body := n.ChildByFieldName("body"); body != nil {
			items, err := x.items(body)
			if err != nil {
				return it, err
			}
			it.Inline = true
			it.Items = items
		}
		return it, nil
	case "use_declaration":
		it.Kind = KindUse
		use, err := x.useTree(n.ChildByFieldName("argument"))
		if err != nil {
			return it, fmt.Errorf("line %d: %w", it.Line, err)
		}
		it.Use = use
		return it, nil
	case "foreign_mod_item":
		it.Kind = KindForeign
		return it, nil
	default:
		it.Kind = KindOther
		return it, nil
	}

	it.Name = x.text(n.ChildByFieldName("name"))
	if err := x.scan(n, &it); err != nil {
		return it, err
	}
	return it, nil
}

// isPublic reports whether n carries a bare `pub` visibility. Restricted
// forms such as pub(crate) are not public.
func (x *extractor) isPublic(n *sitter.Node) bool {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child.Type() == "visibility_modifier" {
			return strings.TrimSpace(x.text(child)) == "pub"
		}
	}
	return false
}

func hasAttribute(attrs []attribute, name string) bool {
	for _, a := range attrs {
		if a.name == name {
			return true
		}
	}
	return false
}

// scan records qualified expression paths and nested use declarations
// found anywhere under n.
func (x *extractor) scan(n *sitter.Node, it *Item) error {
	switch n.Type() {
	case "use_declaration":
		use, err := x.useTree(n.ChildByFieldName("argument"))
		if err != nil {
			return fmt.Errorf("line %d: %w", int(n.StartPoint().Row)+1, err)
		}
		it.Uses = append(it.Uses, use)
		return nil
	case "attribute_item", "inner_attribute_item", "visibility_modifier", "macro_invocation":
		return nil
	case "scoped_type_identifier", "generic_type", "type_arguments", "reference_type",
		"pointer_type", "function_type", "dynamic_type", "abstract_type", "bounded_type":
		// Type positions are not expression paths.
		return nil
	case "scoped_identifier":
		if segs, ok := x.segments(n); ok {
			if len(segs) > 1 {
				it.Paths = append(it.Paths, segs)
			}
			return nil
		}
	case "struct_expression":
		if segs, ok := x.segments(n.ChildByFieldName("name")); ok && len(segs) > 1 {
			it.Paths = append(it.Paths, segs)
		}
		if body := n.ChildByFieldName("body"); body != nil {
			return x.scan(body, it)
		}
		return nil
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if err := x.scan(n.NamedChild(i), it); err != nil {
			return err
		}
	}
	return nil
}

// segments flattens a path node into its segment names. Turbofish generic
// arguments are dropped: Foo::<u8>::new yields [Foo new]. ok is false when
// the path contains something other than names, such as a qualified type
// like <T as Trait>::f.
func (x *extractor) segments(n *sitter.Node) ([]string, bool) {
	if n == nil {
		return nil, false
	}
	switch n.Type() {
	case "generic_type", "generic_type_with_turbofish":
		return x.segments(n.ChildByFieldName("type"))
	case "identifier", "type_identifier", "self", "super", "crate", "metavariable":
		return []string{x.text(n)}, true
	case "scoped_identifier", "scoped_type_identifier":
		var segs []string
		if p := n.ChildByFieldName("path"); p != nil {
			prefix, ok := x.segments(p)
			if !ok {
				return nil, false
			}
			segs = prefix
		}
		name := n.ChildByFieldName("name")
		if name == nil {
			return nil, false
		}
		return append(segs, x.text(name)), true
	}
	return nil, false
}
