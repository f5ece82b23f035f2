// Package nstree implements the hierarchical namespace used to record
// declared exports and referenced imports.
//
// A Tree maps ordered keys to an optional child Tree. An entry without a
// child is a leaf (a terminal symbol); an entry with a child is a container
// (a module, or an intermediate segment of a qualified path).
package nstree

import (
	"bytes"
	"cmp"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/emirpasic/gods/maps/treemap"
)

// Tree is an ordered namespace. The zero value is an empty tree ready to use.
// Each level exclusively owns its children: trees handed to Insert or Extend
// are cloned, never aliased.
type Tree[K cmp.Ordered] struct {
	entries *treemap.Map // K -> *Tree[K]; a nil child marks a leaf
}

// New returns an empty tree.
func New[K cmp.Ordered]() *Tree[K] {
	return &Tree[K]{}
}

func (t *Tree[K]) m() *treemap.Map {
	if t.entries == nil {
		t.entries = treemap.NewWith(func(a, b interface{}) int {
			return cmp.Compare(a.(K), b.(K))
		})
	}
	return t.entries
}

// Len returns the number of entries at this level.
func (t *Tree[K]) Len() int {
	if t == nil || t.entries == nil {
		return 0
	}
	return t.entries.Size()
}

// IsEmpty reports whether the tree has no entries at this level.
func (t *Tree[K]) IsEmpty() bool {
	return t.Len() == 0
}

// Get returns the child for key. ok is false when key is absent; a present
// leaf returns (nil, true).
func (t *Tree[K]) Get(key K) (child *Tree[K], ok bool) {
	if t == nil || t.entries == nil {
		return nil, false
	}
	v, found := t.entries.Get(key)
	if !found {
		return nil, false
	}
	return v.(*Tree[K]), true
}

// Has reports whether key is present as either a leaf or a container.
func (t *Tree[K]) Has(key K) bool {
	_, ok := t.Get(key)
	return ok
}

// IsLeaf reports whether key is present and has no child.
func (t *Tree[K]) IsLeaf(key K) bool {
	child, ok := t.Get(key)
	return ok && child == nil
}

// Insert overwrites key's entry. A nil child records a leaf.
func (t *Tree[K]) Insert(key K, child *Tree[K]) {
	t.m().Put(key, child.Clone())
}

// InsertLeaf overwrites key's entry with a leaf.
func (t *Tree[K]) InsertLeaf(key K) {
	t.m().Put(key, (*Tree[K])(nil))
}

// EntryOrInsert returns the existing child for key, inserting def first when
// key is absent. An existing container is never clobbered.
func (t *Tree[K]) EntryOrInsert(key K, def *Tree[K]) *Tree[K] {
	if child, ok := t.Get(key); ok {
		return child
	}
	def = def.Clone()
	t.m().Put(key, def)
	return def
}

// Container returns the container stored under key, creating it when key is
// absent and upgrading it when key currently holds a leaf.
func (t *Tree[K]) Container(key K) *Tree[K] {
	if child, ok := t.Get(key); ok && child != nil {
		return child
	}
	child := New[K]()
	t.m().Put(key, child)
	return child
}

// InsertPath records segments as nested containers ending in a leaf. Existing
// containers along the way are reused and a leaf in an intermediate position
// is upgraded. The final segment never clobbers an existing container.
func (t *Tree[K]) InsertPath(segments ...K) {
	if len(segments) == 0 {
		return
	}
	cur := t
	for _, seg := range segments[:len(segments)-1] {
		cur = cur.Container(seg)
	}
	cur.EntryOrInsert(segments[len(segments)-1], nil)
}

// Keys returns the keys at this level in order.
func (t *Tree[K]) Keys() []K {
	if t.Len() == 0 {
		return nil
	}
	keys := make([]K, 0, t.entries.Size())
	for _, k := range t.entries.Keys() {
		keys = append(keys, k.(K))
	}
	return keys
}

// each calls fn for every entry in key order.
func (t *Tree[K]) each(fn func(key K, child *Tree[K])) {
	if t.Len() == 0 {
		return
	}
	it := t.entries.Iterator()
	for it.Next() {
		fn(it.Key().(K), it.Value().(*Tree[K]))
	}
}

// Clone returns a deep copy. Cloning nil returns nil.
func (t *Tree[K]) Clone() *Tree[K] {
	if t == nil {
		return nil
	}
	out := New[K]()
	t.each(func(key K, child *Tree[K]) {
		out.m().Put(key, child.Clone())
	})
	return out
}

// Extend merges other into t in place:
//   - keys absent from t are inserted as they are in other;
//   - a container in both is merged recursively;
//   - a leaf in other never downgrades a container in t;
//   - a leaf in t is replaced by other's entry.
func (t *Tree[K]) Extend(other *Tree[K]) {
	other.each(func(key K, incoming *Tree[K]) {
		existing, ok := t.Get(key)
		switch {
		case !ok:
			t.m().Put(key, incoming.Clone())
		case existing != nil && incoming != nil:
			existing.Extend(incoming)
		case existing != nil:
			// container already implies the name
		default:
			t.m().Put(key, incoming.Clone())
		}
	})
}

// Equal reports whether t and other have the same keys and shapes.
func (t *Tree[K]) Equal(other *Tree[K]) bool {
	if t.Len() != other.Len() {
		return false
	}
	equal := true
	t.each(func(key K, child *Tree[K]) {
		if !equal {
			return
		}
		oc, ok := other.Get(key)
		if !ok || (child == nil) != (oc == nil) {
			equal = false
			return
		}
		if child != nil && !child.Equal(oc) {
			equal = false
		}
	})
	return equal
}

// Walk visits every leaf depth-first in key order, passing the full path
// from the root. The slice is reused between calls; copy it to retain it.
func (t *Tree[K]) Walk(fn func(path []K)) {
	var walk func(tree *Tree[K], prefix []K)
	walk = func(tree *Tree[K], prefix []K) {
		tree.each(func(key K, child *Tree[K]) {
			path := append(prefix, key)
			if child == nil {
				fn(path)
				return
			}
			walk(child, path)
		})
	}
	walk(t, nil)
}

// Retain returns a new tree holding only the leaves for which keep returns
// true. Containers left without entries are dropped.
func (t *Tree[K]) Retain(keep func(path []K) bool) *Tree[K] {
	var retain func(tree *Tree[K], prefix []K) *Tree[K]
	retain = func(tree *Tree[K], prefix []K) *Tree[K] {
		out := New[K]()
		tree.each(func(key K, child *Tree[K]) {
			path := append(prefix[:len(prefix):len(prefix)], key)
			if child == nil {
				if keep(path) {
					out.InsertLeaf(key)
				}
				return
			}
			if sub := retain(child, path); !sub.IsEmpty() {
				out.m().Put(key, sub)
			}
		})
		return out
	}
	return retain(t, nil)
}

// Paths returns the leaf paths joined with sep, in display order.
func (t *Tree[K]) Paths(sep string) []string {
	var out []string
	t.Walk(func(path []K) {
		parts := make([]string, len(path))
		for i, k := range path {
			parts[i] = fmt.Sprint(k)
		}
		out = append(out, strings.Join(parts, sep))
	})
	return out
}

// String renders one "::"-joined leaf path per line. Containers are not
// printed themselves.
func (t *Tree[K]) String() string {
	var b strings.Builder
	for _, p := range t.Paths("::") {
		b.WriteString(p)
		b.WriteByte('\n')
	}
	return b.String()
}

// MarshalJSON renders leaves as null and containers as nested objects, with
// keys in tree order.
func (t *Tree[K]) MarshalJSON() ([]byte, error) {
	if t == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	var err error
	t.each(func(key K, child *Tree[K]) {
		if err != nil {
			return
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		var kb, vb []byte
		if kb, err = json.Marshal(fmt.Sprint(key)); err != nil {
			return
		}
		if vb, err = child.MarshalJSON(); err != nil {
			return
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	})
	if err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
