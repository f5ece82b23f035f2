package nstree

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// build constructs a tree from a nested map literal: nil values are leaves,
// map values are containers.
func build(t *testing.T, shape map[string]any) *Tree[string] {
	t.Helper()
	tree := New[string]()
	for key, v := range shape {
		switch child := v.(type) {
		case nil:
			tree.InsertLeaf(key)
		case map[string]any:
			tree.Insert(key, build(t, child))
		default:
			t.Fatalf("unsupported value %T for key %q", v, key)
		}
	}
	return tree
}

func toJSON(t *testing.T, tree *Tree[string]) string {
	t.Helper()
	b, err := json.Marshal(tree)
	require.NoError(t, err)
	return string(b)
}

// =============================================================================
// Construction & lookup
// =============================================================================

func TestNew_IsEmpty(t *testing.T) {
	t.Parallel()
	tree := New[string]()
	assert.True(t, tree.IsEmpty())
	assert.Equal(t, 0, tree.Len())
	assert.Nil(t, tree.Keys())
}

func TestZeroValue_Usable(t *testing.T) {
	t.Parallel()
	var tree Tree[string]
	tree.InsertLeaf("a")
	assert.True(t, tree.IsLeaf("a"))
}

func TestInsert_OverwritesEntry(t *testing.T) {
	t.Parallel()
	tree := New[string]()
	tree.Insert("m", build(t, map[string]any{"f": nil}))
	tree.InsertLeaf("m")
	assert.True(t, tree.IsLeaf("m"))
}

func TestInsert_ClonesChild(t *testing.T) {
	t.Parallel()
	child := build(t, map[string]any{"f": nil})
	tree := New[string]()
	tree.Insert("m", child)

	child.InsertLeaf("g")

	got, ok := tree.Get("m")
	require.True(t, ok)
	assert.Equal(t, []string{"f"}, got.Keys())
}

func TestEntryOrInsert_KeepsExistingContainer(t *testing.T) {
	t.Parallel()
	tree := build(t, map[string]any{"m": map[string]any{"f": nil}})

	got := tree.EntryOrInsert("m", nil)

	require.NotNil(t, got)
	assert.Equal(t, []string{"f"}, got.Keys())
	assert.False(t, tree.IsLeaf("m"))
}

func TestEntryOrInsert_InsertsDefault(t *testing.T) {
	t.Parallel()
	tree := New[string]()
	got := tree.EntryOrInsert("f", nil)
	assert.Nil(t, got)
	assert.True(t, tree.IsLeaf("f"))
}

func TestContainer_UpgradesLeaf(t *testing.T) {
	t.Parallel()
	tree := build(t, map[string]any{"a": nil})

	c := tree.Container("a")
	c.InsertLeaf("b")

	assert.JSONEq(t, `{"a":{"b":null}}`, toJSON(t, tree))
}

func TestInsertPath(t *testing.T) {
	t.Parallel()
	tree := New[string]()
	tree.InsertPath("package_1", "public_hello_1")
	tree.InsertPath("package_1", "public_module", "public_hello")
	tree.InsertPath("package_1")

	assert.JSONEq(t,
		`{"package_1":{"public_hello_1":null,"public_module":{"public_hello":null}}}`,
		toJSON(t, tree))
}

func TestInsertPath_LeafDoesNotClobberContainer(t *testing.T) {
	t.Parallel()
	tree := New[string]()
	tree.InsertPath("a", "b", "c")
	tree.InsertPath("a", "b")

	assert.JSONEq(t, `{"a":{"b":{"c":null}}}`, toJSON(t, tree))
}

// =============================================================================
// Extend
// =============================================================================

func TestExtend_EmptyWithEmpty(t *testing.T) {
	t.Parallel()
	a := New[string]()
	a.Extend(New[string]())
	assert.True(t, a.IsEmpty())
}

func TestExtend_Identity(t *testing.T) {
	t.Parallel()
	shape := map[string]any{
		"a": nil,
		"m": map[string]any{"b": nil, "n": map[string]any{"c": nil}},
	}

	right := build(t, shape)
	right.Extend(New[string]())
	assert.True(t, right.Equal(build(t, shape)))

	left := New[string]()
	left.Extend(build(t, shape))
	assert.True(t, left.Equal(build(t, shape)))
}

func TestExtend_DifferentKeys(t *testing.T) {
	t.Parallel()
	a := build(t, map[string]any{"key1": nil})
	a.Extend(build(t, map[string]any{"key2": nil}))

	assert.Equal(t, []string{"key1", "key2"}, a.Keys())
}

func TestExtend_MergesContainers(t *testing.T) {
	t.Parallel()
	a := build(t, map[string]any{"key": map[string]any{"sub_key1": nil}})
	a.Extend(build(t, map[string]any{"key": map[string]any{"sub_key2": nil}}))

	assert.JSONEq(t, `{"key":{"sub_key1":null,"sub_key2":null}}`, toJSON(t, a))
}

func TestExtend_LeafUpgradedToContainer(t *testing.T) {
	t.Parallel()
	a := build(t, map[string]any{"m": nil, "x": nil})
	a.Extend(build(t, map[string]any{"m": map[string]any{"f": nil, "g": nil}}))

	assert.JSONEq(t, `{"m":{"f":null,"g":null},"x":null}`, toJSON(t, a))
}

func TestExtend_LeafDoesNotDowngradeContainer(t *testing.T) {
	t.Parallel()
	a := build(t, map[string]any{"m": map[string]any{"f": nil}})
	a.Extend(build(t, map[string]any{"m": nil}))

	assert.JSONEq(t, `{"m":{"f":null}}`, toJSON(t, a))
}

func TestExtend_DoesNotAliasOther(t *testing.T) {
	t.Parallel()
	a := New[string]()
	b := build(t, map[string]any{"m": map[string]any{"f": nil}})
	a.Extend(b)

	inner, _ := b.Get("m")
	inner.InsertLeaf("g")

	assert.JSONEq(t, `{"m":{"f":null}}`, toJSON(t, a))
}

func TestExtend_OrderIndependentContent(t *testing.T) {
	t.Parallel()
	x := map[string]any{"p": map[string]any{"a": nil}, "q": nil}
	y := map[string]any{"p": map[string]any{"b": nil}, "r": nil}

	xy := build(t, x)
	xy.Extend(build(t, y))
	yx := build(t, y)
	yx.Extend(build(t, x))

	assert.True(t, xy.Equal(yx))
}

// =============================================================================
// Display & serialization
// =============================================================================

func TestString_PreOrderLeafPaths(t *testing.T) {
	t.Parallel()
	tree := build(t, map[string]any{
		"package_1": map[string]any{
			"public_hello_3": nil,
			"public_module":  map[string]any{"public_hello": nil},
		},
		"alpha": nil,
	})

	want := "alpha\npackage_1::public_hello_3\npackage_1::public_module::public_hello\n"
	assert.Equal(t, want, tree.String())
}

func TestString_EmptyContainerPrintsNothing(t *testing.T) {
	t.Parallel()
	tree := build(t, map[string]any{"m": map[string]any{}})
	assert.Equal(t, "", tree.String())
}

func TestMarshalJSON(t *testing.T) {
	t.Parallel()
	tree := build(t, map[string]any{"key": map[string]any{"sub_key": nil}})
	assert.Equal(t, `{"key":{"sub_key":null}}`, toJSON(t, tree))
}

func TestMarshalJSON_OrderedKeys(t *testing.T) {
	t.Parallel()
	tree := build(t, map[string]any{"b": nil, "a": nil, "c": nil})
	assert.Equal(t, `{"a":null,"b":null,"c":null}`, toJSON(t, tree))
}

func TestRetain_DropsEmptyContainers(t *testing.T) {
	t.Parallel()
	tree := build(t, map[string]any{
		"m": map[string]any{"_hidden": nil},
		"n": map[string]any{"keep": nil, "_drop": nil},
	})

	got := tree.Retain(func(path []string) bool {
		return path[len(path)-1][0] != '_'
	})

	assert.JSONEq(t, `{"n":{"keep":null}}`, toJSON(t, got))
	assert.Equal(t, 2, tree.Len(), "input is not modified")
}

func TestIntKeys(t *testing.T) {
	t.Parallel()
	tree := New[int]()
	tree.InsertPath(2, 1)
	tree.InsertPath(1)
	assert.Equal(t, []string{"1", "2.1"}, tree.Paths("."))
}
