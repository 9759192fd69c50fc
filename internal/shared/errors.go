// Package shared contains the domain error taxonomy of the service.
package shared

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"reflect"

	"dynhttp/pkg/httperr"
)

// Sentinel errors, one per Kind.
var (
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("validation failed")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrConflict          = errors.New("conflict")
	ErrInternal          = errors.New("internal error")
	ErrTimeout           = errors.New("operation timed out")
	ErrInvariantViolated = errors.New("invariant violated")
	ErrDependencyFailure = errors.New("dependency failure")
)

// StatusClientClosedRequest is reported for canceled requests.
const StatusClientClosedRequest = 499

// Kind is a category of domain error.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindValidation
	KindUnauthorized
	KindForbidden
	KindConflict
	KindInternal
	KindTimeout
	KindInvariantViolated
	KindDependencyFailure
	KindCanceled
)

type kindInfo struct {
	name     string
	sentinel error
	status   int
}

var kinds = map[Kind]kindInfo{
	KindNotFound:          {"NotFound", ErrNotFound, http.StatusNotFound},
	KindValidation:        {"Validation", ErrValidation, http.StatusBadRequest},
	KindUnauthorized:      {"Unauthorized", ErrUnauthorized, http.StatusUnauthorized},
	KindForbidden:         {"Forbidden", ErrForbidden, http.StatusForbidden},
	KindConflict:          {"Conflict", ErrConflict, http.StatusConflict},
	KindInternal:          {"Internal", ErrInternal, http.StatusInternalServerError},
	KindTimeout:           {"Timeout", ErrTimeout, http.StatusGatewayTimeout},
	KindInvariantViolated: {"InvariantViolated", ErrInvariantViolated, http.StatusUnprocessableEntity},
	KindDependencyFailure: {"DependencyFailure", ErrDependencyFailure, http.StatusBadGateway},
	KindCanceled:          {"Canceled", nil, StatusClientClosedRequest},
}

// String returns the name of the Kind.
func (k Kind) String() string {
	if info, ok := kinds[k]; ok {
		return info.name
	}
	return "Unknown"
}

// StatusOf maps a Kind to its HTTP status. Unknown kinds map to 500.
func StatusOf(k Kind) int {
	if info, ok := kinds[k]; ok {
		return info.status
	}
	return http.StatusInternalServerError
}

// SentinelOf returns the sentinel error for the Kind, or nil for
// KindUnknown and KindCanceled.
func SentinelOf(k Kind) error {
	return kinds[k].sentinel
}

// kindPriorities is the order KindOf checks kinds in.
var kindPriorities = []Kind{
	KindCanceled,
	KindTimeout,
	KindNotFound,
	KindValidation,
	KindUnauthorized,
	KindForbidden,
	KindConflict,
	KindDependencyFailure,
	KindInternal,
	KindInvariantViolated,
}

// KindOf classifies err by walking its chain. When several kinds match (for
// example with errors.Join), the first one in this order wins: Canceled,
// Timeout, NotFound, Validation, Unauthorized, Forbidden, Conflict,
// DependencyFailure, Internal, InvariantViolated.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	for _, k := range kindPriorities {
		switch k {
		case KindCanceled:
			if IsCanceled(err) {
				return k
			}
		case KindTimeout:
			if IsTimeout(err) {
				return k
			}
		default:
			if errors.Is(err, kinds[k].sentinel) {
				return k
			}
		}
	}
	return KindUnknown
}

// MarkKind wraps err with the sentinel of kind so that KindOf reports it,
// keeping err reachable through errors.Is. A nil err returns the sentinel.
// Marking with KindUnknown, KindCanceled or a kind err already has returns
// err unchanged.
func MarkKind(err error, kind Kind) error {
	sentinel := SentinelOf(kind)
	if err == nil {
		return sentinel
	}
	if sentinel == nil || KindOf(err) == kind {
		return err
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}

// Wrap adds context to err: "context: err". Nil stays nil.
func Wrap(err error, context string) error {
	if err == nil {
		return nil
	}
	if context == "" {
		return err
	}
	return fmt.Errorf("%s: %w", context, err)
}

// Wrapf is Wrap with a formatted context.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// Invariant returns an InvariantViolated error when condition is false.
func Invariant(condition bool, message string) error {
	if condition {
		return nil
	}
	return New(KindInvariantViolated, message)
}

// IsCanceled reports whether err comes from a canceled context.
func IsCanceled(err error) bool {
	return err != nil && errors.Is(err, context.Canceled)
}

// IsTimeout reports context deadlines, ErrTimeout and net timeouts.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrTimeout) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// Error is a domain error: a Kind, a message safe to show to clients and an
// optional cause that is only logged.
type Error struct {
	kind    Kind
	message string
	cause   error
}

var _ httperr.HTTPError = (*Error)(nil)

// New creates a domain error.
func New(kind Kind, message string) *Error {
	return &Error{kind: kind, message: message}
}

// WithCause creates a domain error caused by err.
func WithCause(kind Kind, message string, err error) *Error {
	return &Error{kind: kind, message: message, cause: err}
}

// NotFound creates a KindNotFound error.
func NotFound(message string) *Error { return New(KindNotFound, message) }

// Validation creates a KindValidation error.
func Validation(message string) *Error { return New(KindValidation, message) }

// Kind returns the error kind.
func (e *Error) Kind() Kind { return e.kind }

// Message returns the client-facing message.
func (e *Error) Message() string { return e.message }

// Error returns the message followed by the cause, if any.
func (e *Error) Error() string {
	if e.cause != nil {
		return e.message + ": " + e.cause.Error()
	}
	return e.message
}

// Unwrap exposes the kind sentinel and the cause.
func (e *Error) Unwrap() []error {
	out := make([]error, 0, 2)
	if s := SentinelOf(e.kind); s != nil {
		out = append(out, s)
	}
	if e.cause != nil {
		out = append(out, e.cause)
	}
	return out
}

// Status implements httperr.HTTPError.
func (e *Error) Status() int { return StatusOf(e.kind) }

// Reason implements httperr.Reasoner. The cause is never included.
func (e *Error) Reason() string { return e.message }

// LogError implements httperr.DiagnosticLogger. Client errors are logged at
// WARN, server errors at ERROR. A nil logger means slog.Default().
func (e *Error) LogError(ctx context.Context, l *slog.Logger) {
	if l == nil {
		l = slog.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}
	level := slog.LevelWarn
	if e.Status() >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	attrs := []slog.Attr{
		slog.String("kind", e.kind.String()),
		slog.Int("status", e.Status()),
		slog.String("error", e.Error()),
	}
	if e.cause != nil {
		attrs = append(attrs,
			slog.String("detail", fmt.Sprintf("%+v", e.cause)),
			slog.Any("causes", causeTexts(e.cause)),
		)
	}
	l.LogAttrs(ctx, level, e.message, attrs...)
}

// Classify turns errors that were only marked with a Kind (MarkKind, context
// errors, net timeouts) into an *Error, so they keep their status at the
// HTTP boundary. The client sees the sentinel text, never err's own text.
// Errors that already contain an *Error, errors carrying an explicit HTTP
// status (httperr.WithStatus) and unclassified errors are returned unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var de *Error
	if errors.As(err, &de) {
		return err
	}
	var sc interface{ HTTPStatus() int }
	if errors.As(err, &sc) {
		return err
	}
	kind := KindOf(err)
	switch kind {
	case KindUnknown:
		return err
	case KindCanceled:
		return WithCause(kind, "request canceled", err)
	default:
		return WithCause(kind, SentinelOf(kind).Error(), err)
	}
}

// UnwrapAll flattens err and everything it wraps, outermost first. Repeated
// errors are skipped when their type is comparable.
func UnwrapAll(err error) []error {
	if err == nil {
		return nil
	}
	var result []error
	seen := make(map[error]bool)
	queue := []error{err}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if current == nil {
			continue
		}
		if reflect.TypeOf(current).Comparable() {
			if seen[current] {
				continue
			}
			seen[current] = true
		}
		result = append(result, current)

		if u, ok := current.(interface{ Unwrap() []error }); ok {
			queue = append(queue, u.Unwrap()...)
		} else if nested := errors.Unwrap(current); nested != nil {
			queue = append(queue, nested)
		}
	}
	return result
}

// causeTexts returns the message of every error in err's chain.
func causeTexts(err error) []string {
	all := UnwrapAll(err)
	out := make([]string, len(all))
	for i, e := range all {
		out[i] = e.Error()
	}
	return out
}
