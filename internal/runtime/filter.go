package runtime

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/risor-io/risor/compiler"
)

// Filter is a loaded filter script. Its final expression is evaluated once
// per unused path; a truthy value keeps the path in the report.
//
// Globals available to the script:
//
//	path      the "::"-joined path
//	segments  the path as a list of strings
//	name      the last segment
type Filter struct {
	rt     *Runtime
	label  string
	source string

	// The script is compiled on the first Keep and reused after.
	once       sync.Once
	code       *compiler.Code
	compileErr error
}

// NewFilter loads the script at path.
func (r *Runtime) NewFilter(path string) (*Filter, error) {
	src, err := r.LoadScript(path)
	if err != nil {
		return nil, err
	}
	return &Filter{rt: r, label: path, source: src}, nil
}

// NewFilterSource wraps inline source.
func (r *Runtime) NewFilterSource(source string) *Filter {
	return &Filter{rt: r, label: "<inline>", source: source}
}

// Source returns the script text.
func (f *Filter) Source() string {
	return f.source
}

// Keep reports whether the path given by segments stays in the report.
func (f *Filter) Keep(ctx context.Context, segments []string) (bool, error) {
	if len(segments) == 0 {
		return false, fmt.Errorf("runtime: filter %s: empty path", f.label)
	}
	globals := pathGlobals(segments)
	f.once.Do(func() {
		f.code, f.compileErr = f.rt.compile(ctx, f.source, f.label, globals)
	})
	if f.compileErr != nil {
		return false, f.compileErr
	}
	result, err := f.rt.evalCode(ctx, f.code, f.label, globals)
	if err != nil {
		return false, err
	}
	return result.IsTruthy(), nil
}

func pathGlobals(segments []string) map[string]any {
	return map[string]any{
		"path":     strings.Join(segments, PathSeparator),
		"segments": segmentsList(segments),
		"name":     segments[len(segments)-1],
	}
}
