package httperr

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
)

// HTTPError is implemented by errors that carry their own HTTP semantics.
//
// Only Status is required. Reason, diagnostic logging and the type label are
// optional capabilities (Reasoner, DiagnosticLogger, TypeNamer); when an error
// does not provide one, ReasonOf, LogOf and TypeNameOf apply the defaults.
// Implementations must be safe to hand to another goroutine.
type HTTPError interface {
	error
	Status() int
}

// Reasoner overrides the client-facing reason text of an HTTPError.
type Reasoner interface {
	Reason() string
}

// DiagnosticLogger overrides how an HTTPError is written to the log.
// Implementations must emit a single record and must not fail.
type DiagnosticLogger interface {
	LogError(ctx context.Context, l *slog.Logger)
}

// TypeNamer overrides the label used for the erased type in debug output.
type TypeNamer interface {
	TypeName() string
}

// InternalStatus can be embedded to give an error the default status 500.
type InternalStatus struct{}

// Status implements HTTPError.
func (InternalStatus) Status() int { return http.StatusInternalServerError }

// ReasonOf returns the client-facing reason of e: Reason() when implemented,
// otherwise the error's display text.
func ReasonOf(e HTTPError) string {
	if r, ok := e.(Reasoner); ok {
		return r.Reason()
	}
	return e.Error()
}

// LogOf writes one diagnostic record for e. A nil logger means slog.Default().
func LogOf(ctx context.Context, l *slog.Logger, e HTTPError) {
	if l == nil {
		l = slog.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if dl, ok := e.(DiagnosticLogger); ok {
		dl.LogError(ctx, l)
		return
	}
	l.LogAttrs(ctx, slog.LevelError, e.Error(),
		slog.String("error", e.Error()),
		slog.String("detail", fmt.Sprintf("%+v", e)),
		slog.String("type", TypeNameOf(e)),
		slog.Int("status", e.Status()),
	)
}

// TypeNameOf returns the label of the concrete type behind e.
func TypeNameOf(e HTTPError) string {
	if tn, ok := e.(TypeNamer); ok {
		return tn.TypeName()
	}
	return qualifiedName(reflect.TypeOf(e))
}

// qualifiedName renders t with its full import path, e.g. "*example.com/app.NotFound".
func qualifiedName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	prefix := ""
	for t.Kind() == reflect.Pointer {
		prefix += "*"
		t = t.Elem()
	}
	if t.Name() == "" || t.PkgPath() == "" {
		return prefix + t.String()
	}
	return prefix + t.PkgPath() + "." + t.Name()
}
