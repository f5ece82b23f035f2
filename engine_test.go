package orphan

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/orphan/internal/collector"
	"github.com/jward/orphan/internal/config"
	"github.com/jward/orphan/internal/workspace"
)

// smokeTest references the solo crate from its tests dir. Exports of a
// crate are only examined when some import names the crate.
const smokeTest = "#[test]\nfn smoke() { solo::probe(); }\n"

// singlePackage writes a one-package workspace whose lib.rs is src.
func singlePackage(t *testing.T, src string) string {
	t.Helper()
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"Cargo.toml":     member("solo"),
		"src/lib.rs":     src,
		"tests/smoke.rs": smokeTest,
	})
	return root
}

// =============================================================================
// Construction
// =============================================================================

func TestNew_Defaults(t *testing.T) {
	t.Parallel()
	e, err := New()
	require.NoError(t, err)
	defer e.Close()

	assert.True(t, e.useParallel)
	assert.NotNil(t, e.filter, "embedded default filter is loaded")
	assert.False(t, e.HasHistory())
	assert.Equal(t, workspace.DefaultAuxDirs, e.auxDirs)
}

func TestNew_MissingFilterScript(t *testing.T) {
	t.Parallel()
	_, err := New(WithFilterScript(filepath.Join(t.TempDir(), "nope.risor")))
	require.Error(t, err)
}

func TestNew_HistoryUnwritable(t *testing.T) {
	t.Parallel()
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	_, err := New(WithHistory(filepath.Join(file, "sub", "history.db")))
	require.Error(t, err)
}

func TestClose_WithoutHistory(t *testing.T) {
	t.Parallel()
	e, err := New()
	require.NoError(t, err)
	require.NoError(t, e.Close())
}

func TestWithConfig(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	script := filepath.Join(dir, "keep.risor")
	require.NoError(t, os.WriteFile(script, []byte(`true`), 0o644))

	cfg := config.Default()
	cfg.ExcludePackages = []string{"xtask"}
	cfg.ExtraRoots = []string{"integration"}
	cfg.Parallel = 3
	cfg.FilterScript = script

	e, err := New(WithConfig(cfg))
	require.NoError(t, err)
	defer e.Close()

	assert.Equal(t, []string{"xtask"}, e.excludePackages)
	assert.Equal(t, []string{"integration"}, e.extraRoots)
	assert.Equal(t, 3, e.workers)
	assert.Equal(t, "true", e.filter.Source())
}

// =============================================================================
// Roots
// =============================================================================

func TestRoots(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"Cargo.toml":          "[workspace]\nmembers = [\"a\", \"b\"]\n",
		"a/Cargo.toml":        member("a-crate"),
		"a/src/lib.rs":        "",
		"a/tests/t.rs":        "",
		"b/Cargo.toml":        member("b"),
		"b/src/main.rs":       "",
		"scripts/gen/main.rs": "",
	})

	e := newTestEngine(t, WithExtraRoots("scripts"))
	ws, err := workspace.Load(root)
	require.NoError(t, err)

	roots, err := e.Roots(ws)
	require.NoError(t, err)
	assert.Equal(t, []Root{
		{Name: "a_crate", Entry: filepath.Join(root, "a", "src", "lib.rs")},
		{Name: "b", Entry: filepath.Join(root, "b", "src", "main.rs")},
		{Entry: filepath.Join(root, "a", "tests", "t.rs"), ImportsOnly: true},
		{Entry: filepath.Join(root, "scripts", "gen", "main.rs"), ImportsOnly: true},
	}, roots)
}

func TestRoots_MissingExtraRoot(t *testing.T) {
	t.Parallel()
	root := singlePackage(t, "")
	e := newTestEngine(t, WithExtraRoots("absent"))
	_, err := e.Analyze(context.Background(), root)
	require.Error(t, err)
}

// =============================================================================
// Analyze
// =============================================================================

func TestAnalyze_MissingEntryPointFailsFast(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"Cargo.toml":     "[workspace]\nmembers = [\"ok\", \"bad\"]\n",
		"ok/Cargo.toml":  member("ok"),
		"ok/src/lib.rs":  "pub fn f() {}",
		"bad/Cargo.toml": member("bad"),
	})

	report, err := newTestEngine(t).Analyze(context.Background(), root)
	assert.Nil(t, report)
	assert.ErrorIs(t, err, workspace.ErrMissingEntryPoint)
}

func TestAnalyze_ExcludedPackage(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"Cargo.toml":       "[workspace]\nmembers = [\"lib\", \"xtask\"]\n",
		"lib/Cargo.toml":   member("lib"),
		"lib/src/lib.rs":   "pub fn f() {}",
		"lib/tests/t.rs":   "fn t() { lib::probe(); }",
		"xtask/Cargo.toml": member("xtask"),
		"xtask/src/lib.rs": "pub fn task() {}\nfn main() { lib::f(); }",
	})

	report, err := newTestEngine(t, WithExcludePackages("xtask")).Analyze(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, []string{"lib::f"}, report.Paths())
	assert.Equal(t, []string{"lib"}, report.Roots)
}

func TestAnalyze_DependencyTree(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"Cargo.toml":          "[workspace]\nmembers = [\"core-lib\", \"app\"]\n",
		"core-lib/Cargo.toml": member("core-lib"),
		"core-lib/src/lib.rs": "pub fn f() {}",
		"app/Cargo.toml":      member("app") + "\n[dependencies]\ncore-lib = { path = \"../core-lib\" }\nserde = \"1\"\n",
		"app/src/main.rs":     "fn main() { core_lib::f(); }",
	})

	report, err := newTestEngine(t).Analyze(context.Background(), root)
	require.NoError(t, err)
	require.NotNil(t, report.Dependencies)
	assert.Equal(t, `{"app":{"core_lib":null},"core_lib":{}}`, treeJSON(t, report.Dependencies))
}

func TestAnalyze_DiagnosticsDoNotStopTheRun(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"Cargo.toml": member("solo"),
		"src/lib.rs": `
pub mod broken;
pub mod fine;
extern "C" { fn c_call(); }
`,
		"src/broken.rs":  "pub fn oops( {",
		"src/fine.rs":    "pub fn ok() {}",
		"tests/smoke.rs": smokeTest,
	})

	report, err := newTestEngine(t).Analyze(context.Background(), root)
	require.NoError(t, err)

	var kinds []DiagnosticKind
	for _, d := range report.Diagnostics {
		kinds = append(kinds, d.Kind)
	}
	assert.ElementsMatch(t, []DiagnosticKind{KindMalformedSource, KindUnsupportedConstruct}, kinds)
	assert.True(t, errors.Is(report.Diagnostics[0], collector.ErrMalformedSource) ||
		errors.Is(report.Diagnostics[1], collector.ErrMalformedSource))
	// fine is never imported, so its exports are not examined.
	assert.Equal(t, []string{"solo::broken"}, report.Paths())
	assert.Contains(t, report.Exports.String(), "solo::fine::ok")
}

func TestAnalyze_ParallelMatchesSerial(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	files := map[string]string{"Cargo.toml": "[workspace]\nmembers = [\"crates/*\"]\n"}
	for _, name := range []string{"c1", "c2", "c3", "c4", "c5"} {
		files["crates/"+name+"/Cargo.toml"] = member(name)
		files["crates/"+name+"/src/lib.rs"] = "pub fn f() {}\npub fn g() {}\nfn h() { c1::f(); c3::g(); }\n"
	}
	writeFiles(t, root, files)

	serial, err := newTestEngine(t, WithParallel(false)).Analyze(context.Background(), root)
	require.NoError(t, err)
	parallel, err := newTestEngine(t, WithWorkers(2)).Analyze(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, serial.Paths(), parallel.Paths())
	assert.Equal(t, serial.Fingerprint, parallel.Fingerprint)
	assert.True(t, serial.Exports.Equal(parallel.Exports))
	assert.True(t, serial.Imports.Equal(parallel.Imports))
	assert.Equal(t, []string{"c1::g", "c3::f"}, serial.Paths())
}

func TestAnalyze_Cancelled(t *testing.T) {
	t.Parallel()
	root := singlePackage(t, "pub fn f() {}")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestEngine(t).Analyze(ctx, root)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnalyze_LogsSummary(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	_, err := newTestEngine(t, WithLogger(logger)).Analyze(context.Background(), singlePackage(t, "pub fn f() {}"))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "analysis complete")
	assert.Contains(t, buf.String(), "unused=1")
}

// =============================================================================
// Filter
// =============================================================================

func TestAnalyze_DefaultFilterDropsUnderscoreNames(t *testing.T) {
	t.Parallel()
	root := singlePackage(t, "pub fn _macro_support() {}\npub fn visible() {}\n")

	e, err := New()
	require.NoError(t, err)
	defer e.Close()

	report, err := e.Analyze(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, []string{"solo::visible"}, report.Paths())
}

func TestAnalyze_FilterScriptFromDisk(t *testing.T) {
	t.Parallel()
	root := singlePackage(t, "pub mod api { pub fn a() {} }\npub fn b() {}\nfn c() { solo::api::zzz(); }\n")
	script := filepath.Join(t.TempDir(), "only_api.risor")
	require.NoError(t, os.WriteFile(script, []byte(`len(segments) > 2 && segments[1] == "api"`), 0o644))

	e, err := New(WithFilterScript(script))
	require.NoError(t, err)
	defer e.Close()

	report, err := e.Analyze(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, []string{"solo::api::a"}, report.Paths())
}

func TestAnalyze_FilterFS(t *testing.T) {
	t.Parallel()
	fsys := fstest.MapFS{"f.risor": &fstest.MapFile{Data: []byte(`name != "b"`)}}

	e, err := New(WithFilterFS(fsys, "f.risor"))
	require.NoError(t, err)
	defer e.Close()

	report, err := e.Analyze(context.Background(), singlePackage(t, "pub fn a() {}\npub fn b() {}\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"solo::a"}, report.Paths())
}

func TestAnalyze_FilterScriptError(t *testing.T) {
	t.Parallel()
	fsys := fstest.MapFS{"f.risor": &fstest.MapFile{Data: []byte(`missing_function(name)`)}}

	e, err := New(WithFilterFS(fsys, "f.risor"))
	require.NoError(t, err)
	defer e.Close()

	_, err = e.Analyze(context.Background(), singlePackage(t, "pub fn a() {}"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "filter")
}

// =============================================================================
// History
// =============================================================================

func TestRecord_History(t *testing.T) {
	t.Parallel()
	root := singlePackage(t, "pub fn a() {}")
	dbPath := filepath.Join(t.TempDir(), ".orphan", "history.db")
	e := newTestEngine(t, WithHistory(dbPath), WithHistoryLimit(2))
	ctx := context.Background()

	var reports []*Report
	for range 3 {
		report, err := e.Analyze(ctx, root)
		require.NoError(t, err)
		require.NoError(t, e.Record(report))
		reports = append(reports, report)
	}
	assert.False(t, reports[0].Unchanged)
	assert.True(t, reports[1].Unchanged)
	assert.True(t, reports[2].Unchanged)
	assert.Positive(t, reports[2].RunID)

	runs, err := e.History(root, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2, "history is pruned to the limit")
	assert.Equal(t, reports[2].RunID, runs[0].ID)
	assert.Equal(t, reports[0].Fingerprint, runs[0].Fingerprint)
	assert.Equal(t, 1, runs[0].Unused)

	paths, diags, err := e.RunDetails(runs[0].ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"solo::a"}, paths)
	assert.Empty(t, diags)

	assert.False(t, e.FilterChanged())
}

func TestRecord_FilterChanged(t *testing.T) {
	t.Parallel()
	root := singlePackage(t, "pub fn a() {}")
	dbPath := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	first, err := New(WithHistory(dbPath))
	require.NoError(t, err)
	report, err := first.Analyze(ctx, root)
	require.NoError(t, err)
	require.NoError(t, first.Record(report))
	require.NoError(t, first.Close())

	second, err := New(WithHistory(dbPath), WithFilterFS(fstest.MapFS{
		"f.risor": &fstest.MapFile{Data: []byte(`true`)},
	}, "f.risor"))
	require.NoError(t, err)
	defer second.Close()
	assert.True(t, second.FilterChanged())
}

func TestRecord_WithoutHistoryIsNoop(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	report, err := e.Analyze(context.Background(), singlePackage(t, "pub fn a() {}"))
	require.NoError(t, err)
	require.NoError(t, e.Record(report))
	assert.Zero(t, report.RunID)

	_, err = e.History("", 1)
	require.Error(t, err)
}

// =============================================================================
// Report
// =============================================================================

func TestReport_MarshalJSON(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"Cargo.toml":     member("solo"),
		"src/lib.rs":     "pub mod m;\npub fn a() {}\n",
		"src/m.rs":       "pub fn b(",
		"tests/smoke.rs": smokeTest,
	})

	report, err := newTestEngine(t).Analyze(context.Background(), root)
	require.NoError(t, err)

	b, err := json.Marshal(report)
	require.NoError(t, err)

	var got struct {
		Roots       []string        `json:"roots"`
		Unused      json.RawMessage `json:"unused"`
		Paths       []string        `json:"paths"`
		Fingerprint string          `json:"fingerprint"`
		Diagnostics []struct {
			Kind    string `json:"kind"`
			Path    string `json:"path"`
			Message string `json:"message"`
		} `json:"diagnostics"`
	}
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, []string{"solo"}, got.Roots)
	assert.JSONEq(t, `{"solo":{"a":null,"m":null}}`, string(got.Unused))
	assert.Equal(t, []string{"solo::a", "solo::m"}, got.Paths)
	assert.Len(t, got.Fingerprint, 16)
	require.Len(t, got.Diagnostics, 1)
	assert.Equal(t, "malformed_source", got.Diagnostics[0].Kind)
	assert.Equal(t, filepath.Join(root, "src", "m.rs"), got.Diagnostics[0].Path)
	assert.Contains(t, got.Diagnostics[0].Message, "malformed source")
}

func TestReport_EmptyMarshalsArrays(t *testing.T) {
	t.Parallel()
	report, err := newTestEngine(t).AnalyzeRoots(context.Background(), nil)
	require.NoError(t, err)

	b, err := json.Marshal(report)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"paths":[]`)
	assert.Contains(t, string(b), `"roots":[]`)
	assert.Contains(t, string(b), `"diagnostics":[]`)
	assert.Contains(t, string(b), `"unused":{}`)
}
