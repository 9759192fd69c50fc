package httperr

import (
	"errors"
	"log/slog"
	"net/http"
)

// Options are resolved once at startup.
type Options struct {
	// EnableLogging writes one diagnostic record per rendered error.
	EnableLogging bool
	// HideInternalDetail replaces the reason of generic errors with
	// HiddenReason. Domain errors keep their own reason.
	HideInternalDetail bool
}

// DefaultOptions logs every rendered error and shows generic error text.
func DefaultOptions() Options {
	return Options{EnableLogging: true}
}

// Translator lifts errors into Dyn containers that render with R.
// It is immutable and safe for concurrent use.
type Translator[R Renderer] struct {
	opts Options
	log  *slog.Logger
}

// New creates a Translator. A nil logger means slog.Default() at log time.
func New[R Renderer](opts Options, log *slog.Logger) *Translator[R] {
	return &Translator[R]{opts: opts, log: log}
}

// NewText creates a Translator with the default plain text renderer.
func NewText(opts Options, log *slog.Logger) *Translator[TextRenderer] {
	return New[TextRenderer](opts, log)
}

// Options returns the options the translator was built with.
func (t *Translator[R]) Options() Options { return t.opts }

// Wrap takes a domain error as is.
func (t *Translator[R]) Wrap(e HTTPError) *Dyn[R] {
	if e == nil {
		return t.dyn(newGeneric(nil, http.StatusInternalServerError, t.opts.HideInternalDetail))
	}
	return t.dyn(e)
}

// WrapGeneric wraps an error without HTTP semantics with status 500.
func (t *Translator[R]) WrapGeneric(err error) *Dyn[R] {
	return t.dyn(newGeneric(err, http.StatusInternalServerError, t.opts.HideInternalDetail))
}

// WrapStatus wraps an error without HTTP semantics with an explicit status.
func (t *Translator[R]) WrapStatus(err error, status int) *Dyn[R] {
	return t.dyn(newGeneric(err, status, t.opts.HideInternalDetail))
}

// From lifts any error crossing the handler boundary. In order:
//   - an existing *Dyn[R] in the chain is returned unchanged,
//   - the first HTTPError in the chain is wrapped as a domain error,
//   - an error tagged by WithStatus (or exposing HTTPStatus() int) becomes a
//     GenericError with that status,
//   - anything else becomes a GenericError with status 500.
//
// From returns nil for a nil error.
func (t *Translator[R]) From(err error) *Dyn[R] {
	if err == nil {
		return nil
	}
	var d *Dyn[R]
	if errors.As(err, &d) {
		return d
	}
	var he HTTPError
	if errors.As(err, &he) {
		return t.dyn(he)
	}
	var sc statusCoder
	if errors.As(err, &sc) {
		return t.dyn(newGeneric(err, sc.HTTPStatus(), t.opts.HideInternalDetail))
	}
	return t.dyn(newGeneric(err, http.StatusInternalServerError, t.opts.HideInternalDetail))
}

// HandlerFunc adapts a net/http handler that returns an error. A non-nil
// error is rendered unless the handler already wrote the status line.
func (t *Translator[R]) HandlerFunc(fn func(w http.ResponseWriter, r *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tw := &trackingWriter{ResponseWriter: w}
		if err := fn(tw, r); err != nil {
			d := t.From(err)
			if tw.wrote {
				d.Discard(r.Context())
				return
			}
			d.RenderContext(r.Context()).Write(w)
		}
	}
}

func (t *Translator[R]) dyn(e HTTPError) *Dyn[R] {
	return &Dyn[R]{inner: e, logging: t.opts.EnableLogging, log: t.log}
}

type trackingWriter struct {
	http.ResponseWriter
	wrote bool
}

func (w *trackingWriter) WriteHeader(code int) {
	w.wrote = true
	w.ResponseWriter.WriteHeader(code)
}

func (w *trackingWriter) Write(b []byte) (int, error) {
	w.wrote = true
	return w.ResponseWriter.Write(b)
}
