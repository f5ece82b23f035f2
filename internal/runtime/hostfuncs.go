package runtime

import (
	"context"
	"log/slog"
	"strings"

	"github.com/risor-io/risor/object"
)

// makeStartsWithFn creates the "starts_with" host function.
//
// starts_with(s, prefix) → bool
func makeStartsWithFn() *object.Builtin {
	return makeStringPredicate("starts_with", strings.HasPrefix)
}

// makeEndsWithFn creates the "ends_with" host function.
//
// ends_with(s, suffix) → bool
func makeEndsWithFn() *object.Builtin {
	return makeStringPredicate("ends_with", strings.HasSuffix)
}

func makeStringPredicate(name string, pred func(s, arg string) bool) *object.Builtin {
	return object.NewBuiltin(name, func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 2 {
			return object.NewArgsError(name, 2, len(args))
		}
		s, ok := args[0].(*object.String)
		if !ok {
			return object.Errorf("%s: first argument must be a string, got %s", name, args[0].Type())
		}
		arg, ok := args[1].(*object.String)
		if !ok {
			return object.Errorf("%s: second argument must be a string, got %s", name, args[1].Type())
		}
		return object.NewBool(pred(s.Value(), arg.Value()))
	})
}

// segmentsList converts path segments to a Risor list of strings.
func segmentsList(segments []string) *object.List {
	items := make([]object.Object, len(segments))
	for i, s := range segments {
		items[i] = object.NewString(s)
	}
	return object.NewList(items)
}

// logObject provides log.info/warn/error methods for Risor scripts.
type logObject struct {
	logger *slog.Logger
}

func (l *logObject) Info(msg string) {
	l.logger.Info(msg, "source", "filter")
}

func (l *logObject) Warn(msg string) {
	l.logger.Warn(msg, "source", "filter")
}

func (l *logObject) Error(msg string) {
	l.logger.Error(msg, "source", "filter")
}
