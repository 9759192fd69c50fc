package httperr

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
)

// HiddenReason replaces the reason of generic errors in hide-detail mode.
const HiddenReason = "Server error"

// GenericErrorTypeName is the type label reported for adapter-wrapped errors.
const GenericErrorTypeName = "httperr.GenericError"

// GenericError adapts an error without HTTP semantics to HTTPError.
//
// The status is fixed when the error is wrapped. With hide-detail enabled the
// reason is always HiddenReason; the log record is the same in both modes.
type GenericError struct {
	err    error
	status int
	hide   bool
	stack  Stack
}

var _ HTTPError = (*GenericError)(nil)

func newGeneric(err error, status int, hide bool) *GenericError {
	if err == nil {
		err = errors.New("unknown error")
	}
	return &GenericError{
		err:    err,
		status: status,
		hide:   hide,
		// skip newGeneric and the Translator method that called it
		stack: callers(2),
	}
}

// Error returns the display text of the wrapped error.
func (e *GenericError) Error() string { return e.err.Error() }

// Unwrap returns the wrapped error.
func (e *GenericError) Unwrap() error { return e.err }

// Status implements HTTPError.
func (e *GenericError) Status() int { return e.status }

// Reason implements Reasoner.
func (e *GenericError) Reason() string {
	if e.hide {
		return HiddenReason
	}
	return e.err.Error()
}

// TypeName implements TypeNamer.
func (e *GenericError) TypeName() string { return GenericErrorTypeName }

// Hidden reports whether the reason is replaced by HiddenReason.
func (e *GenericError) Hidden() bool { return e.hide }

// Stack returns the call stack captured when the error was wrapped.
func (e *GenericError) Stack() Stack { return e.stack }

// Causes returns the wrapped error followed by everything it wraps,
// outermost first.
func (e *GenericError) Causes() []string {
	chain := unwrapChain(e.err)
	out := make([]string, len(chain))
	for i, c := range chain {
		out[i] = c.Error()
	}
	return out
}

// LogError implements DiagnosticLogger. The record always carries the full
// diagnostic text, regardless of hide-detail mode. A nil logger means
// slog.Default().
func (e *GenericError) LogError(ctx context.Context, l *slog.Logger) {
	if l == nil {
		l = slog.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}
	l.LogAttrs(ctx, slog.LevelError, e.err.Error(),
		slog.String("error", e.err.Error()),
		slog.String("detail", fmt.Sprintf("%+v", e.err)),
		slog.Any("causes", e.Causes()),
		slog.String("stack", e.stack.String()),
		slog.String("type", GenericErrorTypeName),
		slog.Int("status", e.status),
	)
}

// Format implements fmt.Formatter. %+v prints the wrapped error verbosely,
// then its cause chain and the wrap-site stack.
func (e *GenericError) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			_, _ = fmt.Fprintf(s, "status=%d msg=%q", e.status, e.err.Error())
			if chain := unwrapChain(e.err); len(chain) > 1 {
				_, _ = io.WriteString(s, "\ncauses:")
				for _, c := range chain[1:] {
					_, _ = fmt.Fprintf(s, "\n  %s", c.Error())
				}
			}
			if detail := fmt.Sprintf("%+v", e.err); detail != e.err.Error() {
				_, _ = io.WriteString(s, "\ndetail: ")
				_, _ = io.WriteString(s, detail)
			}
			if len(e.stack) > 0 {
				_, _ = io.WriteString(s, "\nstack:")
				e.stack.writeTo(s)
			}
			return
		}
		_, _ = io.WriteString(s, e.Error())
	case 'q':
		_, _ = fmt.Fprintf(s, "%q", e.Error())
	default:
		_, _ = io.WriteString(s, e.Error())
	}
}

// statusCoder is implemented by errors tagged with WithStatus, and by
// third-party errors that expose an HTTP status without the rest of HTTPError.
type statusCoder interface {
	HTTPStatus() int
}

type statusError struct {
	err    error
	status int
}

// WithStatus attaches an HTTP status to an error that has none. When the
// result reaches a Translator it becomes a GenericError with that status
// instead of the default 500. A nil err returns nil.
func WithStatus(err error, status int) error {
	if err == nil {
		return nil
	}
	return &statusError{err: err, status: status}
}

func (e *statusError) Error() string   { return e.err.Error() }
func (e *statusError) Unwrap() error   { return e.err }
func (e *statusError) HTTPStatus() int { return e.status }

func (e *statusError) Format(s fmt.State, verb rune) {
	if verb == 'v' && s.Flag('+') {
		_, _ = fmt.Fprintf(s, "%+v", e.err)
		return
	}
	_, _ = io.WriteString(s, e.Error())
}

// unwrapChain flattens err and everything it wraps, outermost first.
// Joined errors are walked breadth first; repeated errors are skipped.
func unwrapChain(err error) []error {
	var out []error
	queue := []error{err}
	seen := make(map[error]struct{})
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == nil {
			continue
		}
		if isComparable(cur) {
			if _, ok := seen[cur]; ok {
				continue
			}
			seen[cur] = struct{}{}
		}
		out = append(out, cur)
		switch u := cur.(type) {
		case interface{ Unwrap() []error }:
			queue = append(queue, u.Unwrap()...)
		case interface{ Unwrap() error }:
			queue = append(queue, u.Unwrap())
		}
	}
	return out
}

func isComparable(err error) bool {
	return reflect.TypeOf(err).Comparable()
}
