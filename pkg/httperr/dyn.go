package httperr

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
)

// ErrAlreadyRendered is the panic value of a second Render on the same Dyn.
var ErrAlreadyRendered = errors.New("httperr: error already rendered")

// Dyn owns exactly one HTTPError with its concrete type erased. R selects the
// renderer at compile time; it is never stored.
//
// A Dyn is rendered once. Error, Debug and formatting do not consume it and
// may be called any number of times.
type Dyn[R Renderer] struct {
	inner    HTTPError
	logging  bool
	log      *slog.Logger
	rendered atomic.Bool
}

// Render consumes d and builds the response. See RenderContext.
func (d *Dyn[R]) Render() Response {
	return d.RenderContext(context.Background())
}

// RenderContext consumes d: when logging is enabled it writes one diagnostic
// record using ctx, then renders the response with R.
// It panics with ErrAlreadyRendered when d was rendered before.
func (d *Dyn[R]) RenderContext(ctx context.Context) Response {
	if !d.rendered.CompareAndSwap(false, true) {
		panic(ErrAlreadyRendered)
	}
	if d.logging {
		LogOf(ctx, d.log, d.inner)
	}
	var r R
	return r.Render(d.inner)
}

// Discard consumes d without building a response, for errors that arrive
// after the response was started. The diagnostic record is still written when
// logging is enabled.
func (d *Dyn[R]) Discard(ctx context.Context) {
	if !d.rendered.CompareAndSwap(false, true) {
		panic(ErrAlreadyRendered)
	}
	if d.logging {
		LogOf(ctx, d.log, d.inner)
	}
}

// Rendered reports whether d has been consumed.
func (d *Dyn[R]) Rendered() bool { return d.rendered.Load() }

// Error returns the display text of the wrapped error.
func (d *Dyn[R]) Error() string { return d.inner.Error() }

// Unwrap exposes the wrapped error to errors.Is and errors.As.
func (d *Dyn[R]) Unwrap() error { return d.inner }

// TypeName returns the label of the erased type.
func (d *Dyn[R]) TypeName() string { return TypeNameOf(d.inner) }

// Debug returns TypeName(verbose inner), e.g. "httperr.GenericError(status=500 ...)".
func (d *Dyn[R]) Debug() string {
	return fmt.Sprintf("%s(%+v)", TypeNameOf(d.inner), d.inner)
}

// Format implements fmt.Formatter: %+v and %#v print Debug, other verbs the
// display text.
func (d *Dyn[R]) Format(s fmt.State, verb rune) {
	switch {
	case verb == 'v' && (s.Flag('+') || s.Flag('#')):
		_, _ = io.WriteString(s, d.Debug())
	case verb == 'q':
		_, _ = fmt.Fprintf(s, "%q", d.Error())
	default:
		_, _ = io.WriteString(s, d.Error())
	}
}
