package nstree

// FilterBy returns the leaves of t that are unused relative to imports. The
// two trees are walked in lock-step by key:
//
//   - a container present as a container in both is descended into, and kept
//     only when the descent yields something;
//   - a leaf whose key is absent from imports at the same level is unused;
//   - every other pairing is treated as used and dropped.
//
// Containers with no counterpart in imports are never descended into, so
// exports inside a module that nothing mentions are not reported. Neither
// input is modified.
func (t *Tree[K]) FilterBy(imports *Tree[K]) *Tree[K] {
	out := New[K]()
	t.each(func(key K, export *Tree[K]) {
		imported, ok := imports.Get(key)
		switch {
		case export != nil && ok && imported != nil:
			if sub := export.FilterBy(imported); !sub.IsEmpty() {
				out.m().Put(key, sub)
			}
		case export == nil && !ok:
			out.InsertLeaf(key)
		}
	})
	return out
}
