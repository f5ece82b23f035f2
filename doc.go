// Package orphan finds the public items of a Rust workspace that no crate
// in the workspace uses.
//
// # Pipeline
//
// Every package entry file is a root. Starting from a root, the module tree
// is walked and two namespace trees are built: the exports (public items,
// keyed by module path under the crate name) and the imports (use
// declarations and qualified paths, recorded as written). Exports of all
// packages and imports of all roots, including the files under tests,
// examples and benches, are merged. The exports are then filtered by the
// imports in a paired descent: a leaf export is unused when its name is
// absent at the same level of the imports, and a module is descended only
// when it appears as a module on both sides.
//
// # Usage
//
//	e, err := orphan.New(orphan.WithHistory(".orphan/history.db"))
//	if err != nil { ... }
//	defer e.Close()
//
//	report, err := e.Analyze(ctx, "path/to/workspace")
//	for _, p := range report.Paths() {
//		fmt.Println(p)
//	}
//	err = e.Record(report)
//
// # Filtering
//
// Unused paths pass through a Risor script before they are reported. The
// embedded default drops names that start with an underscore; see
// [WithFilterScript] and [WithoutFilter].
//
// # Limitations
//
// An export inside a module that no import mentions at all is not reported,
// because the descent never reaches it. Trait methods, impl blocks and
// items used only through macros are not tracked.
package orphan
