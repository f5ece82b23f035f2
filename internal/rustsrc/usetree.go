package rustsrc

import (
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
)

// useTree converts the argument of a use declaration.
func (x *extractor) useTree(n *sitter.Node) (*UseTree, error) {
	if n == nil {
		return nil, fmt.Errorf("%w: missing argument", ErrUnsupportedUse)
	}

	switch n.Type() {
	case "identifier", "self", "super", "crate", "metavariable":
		return &UseTree{Kind: UseName, Name: x.text(n)}, nil

	case "scoped_identifier":
		name := &UseTree{Kind: UseName, Name: x.text(n.ChildByFieldName("name"))}
		return x.prefixed(n.ChildByFieldName("path"), name)

	case "use_as_clause":
		segs, ok := x.segments(n.ChildByFieldName("path"))
		if !ok || len(segs) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedUse, x.text(n))
		}
		rename := &UseTree{
			Kind:  UseRename,
			Name:  segs[len(segs)-1],
			Alias: x.text(n.ChildByFieldName("alias")),
		}
		return wrap(segs[:len(segs)-1], rename), nil

	case "use_wildcard":
		var prefix *sitter.Node
		if n.NamedChildCount() > 0 {
			prefix = n.NamedChild(0)
		}
		return x.prefixed(prefix, &UseTree{Kind: UseGlob})

	case "use_list":
		group := &UseTree{Kind: UseGroup}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			child := n.NamedChild(i)
			if t := child.Type(); t == "line_comment" || t == "block_comment" {
				continue
			}
			sub, err := x.useTree(child)
			if err != nil {
				return nil, err
			}
			group.Items = append(group.Items, sub)
		}
		return group, nil

	case "scoped_use_list":
		list, err := x.useTree(n.ChildByFieldName("list"))
		if err != nil {
			return nil, err
		}
		return x.prefixed(n.ChildByFieldName("path"), list)
	}

	return nil, fmt.Errorf("%w: %s", ErrUnsupportedUse, n.Type())
}

// prefixed wraps leaf in one path node per segment of prefix. A nil prefix
// returns leaf unchanged.
func (x *extractor) prefixed(prefix *sitter.Node, leaf *UseTree) (*UseTree, error) {
	if prefix == nil {
		return leaf, nil
	}
	segs, ok := x.segments(prefix)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedUse, x.text(prefix))
	}
	return wrap(segs, leaf), nil
}

func wrap(segs []string, leaf *UseTree) *UseTree {
	for i := len(segs) - 1; i >= 0; i-- {
		leaf = &UseTree{Kind: UsePath, Name: segs[i], Next: leaf}
	}
	return leaf
}
