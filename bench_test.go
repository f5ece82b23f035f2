package orphan

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jward/orphan/internal/nstree"
)

// benchRustSource is a realistic module with declarations, nested modules,
// use declarations and qualified calls for exercising the full pipeline.
const benchRustSource = `use std::collections::HashMap;
use crate::shared::{Config, Logger as Log};

pub mod handlers {
    use super::*;

    pub struct Request {
        pub path: String,
    }

    pub enum Method {
        Get,
        Post,
    }

    pub fn route(req: &Request) -> Method {
        if req.path.starts_with("/api") {
            crate::metrics::count("api");
            Method::Post
        } else {
            Method::Get
        }
    }

    fn internal() {}
}

pub const LIMIT: usize = 64;
pub static NAME: &str = "bench";

pub trait Store {
    fn get(&self, key: &str) -> Option<String>;
}

pub type Map = HashMap<String, String>;

pub fn build(cfg: &Config) -> Map {
    let mut m = Map::new();
    m.insert(cfg.name.clone(), String::from("x"));
    std::mem::drop(cfg);
    m
}

fn helper() -> usize {
    handlers::route(&handlers::Request { path: String::new() });
    LIMIT
}
`

// writeBenchWorkspace lays out n packages; each one's main uses the first
// export of the previous package.
func writeBenchWorkspace(b *testing.B, n int) string {
	b.Helper()
	root := b.TempDir()
	members := make([]string, n)
	for i := range n {
		name := fmt.Sprintf("pkg_%d", i)
		members[i] = fmt.Sprintf("%q", name)
		files := map[string]string{
			"Cargo.toml":           fmt.Sprintf("[package]\nname = %q\n", name),
			"src/lib.rs":           "pub mod core;\npub mod extra;\n" + benchRustSource,
			"src/core.rs":          benchRustSource,
			"src/extra/mod.rs":     benchRustSource,
			"tests/integration.rs": fmt.Sprintf("fn t() { pkg_%d::build(); }\n", (i+1)%n),
		}
		for rel, content := range files {
			path := filepath.Join(root, name, rel)
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				b.Fatal(err)
			}
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				b.Fatal(err)
			}
		}
	}
	manifest := "[workspace]\nmembers = [" + strings.Join(members, ", ") + "]\n"
	if err := os.WriteFile(filepath.Join(root, "Cargo.toml"), []byte(manifest), 0o644); err != nil {
		b.Fatal(err)
	}
	return root
}

func benchmarkAnalyze(b *testing.B, opts ...Option) {
	root := writeBenchWorkspace(b, 16)
	e, err := New(append([]Option{WithoutFilter()}, opts...)...)
	if err != nil {
		b.Fatal(err)
	}
	defer e.Close()
	ctx := context.Background()

	b.ResetTimer()
	for b.Loop() {
		if _, err := e.Analyze(ctx, root); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkAnalyze_Serial measures a 16-package workspace on one goroutine.
func BenchmarkAnalyze_Serial(b *testing.B) {
	benchmarkAnalyze(b, WithParallel(false))
}

// BenchmarkAnalyze_Parallel measures the same workspace on the worker pool.
func BenchmarkAnalyze_Parallel(b *testing.B) {
	benchmarkAnalyze(b)
}

// BenchmarkFilterBy measures the paired descent over wide trees.
func BenchmarkFilterBy(b *testing.B) {
	exports := nstree.New[string]()
	imports := nstree.New[string]()
	for i := range 200 {
		for j := range 50 {
			exports.InsertPath("crate", fmt.Sprintf("m%d", i), fmt.Sprintf("f%d", j))
			if j%2 == 0 {
				imports.InsertPath("crate", fmt.Sprintf("m%d", i), fmt.Sprintf("f%d", j))
			}
		}
	}

	b.ResetTimer()
	for b.Loop() {
		exports.FilterBy(imports)
	}
}
