package collector

import (
	"github.com/jward/orphan/internal/nstree"
	"github.com/jward/orphan/internal/rustsrc"
)

// Wildcard is the key a glob import is recorded under.
const Wildcard = "*"

// ImportTree converts a use tree into the namespace shape it imports:
// names are leaves, renames are recorded under their local name, globs
// under Wildcard, groups are unioned and path segments become containers.
func ImportTree(u *rustsrc.UseTree) *nstree.Tree[string] {
	t := nstree.New[string]()
	if u == nil {
		return t
	}
	switch u.Kind {
	case rustsrc.UseName:
		t.InsertLeaf(u.Name)
	case rustsrc.UseRename:
		t.InsertLeaf(u.Alias)
	case rustsrc.UseGlob:
		t.InsertLeaf(Wildcard)
	case rustsrc.UseGroup:
		for _, item := range u.Items {
			t.Extend(ImportTree(item))
		}
	case rustsrc.UsePath:
		t.Insert(u.Name, ImportTree(u.Next))
	}
	return t
}
