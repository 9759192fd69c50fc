// Package httperr turns errors returned by request handlers into exactly one
// HTTP response each.
//
// # Error Categories
//
// Domain errors implement HTTPError and decide their own status and reason:
//
//	type NotFound struct{ What string }
//
//	func (e NotFound) Error() string  { return e.What + " missing" }
//	func (e NotFound) Status() int    { return http.StatusNotFound }
//
// Embed InternalStatus to take the default status 500. Implement Reasoner,
// DiagnosticLogger or TypeNamer to override the reason text, the log record or
// the type label; otherwise the error text, a default record and the fully
// qualified type name are used.
//
// Generic errors are everything else. They are wrapped in a GenericError with
// status 500, or with the status attached by WithStatus:
//
//	if err := db.PingContext(ctx); err != nil {
//	    return httperr.WithStatus(err, http.StatusServiceUnavailable)
//	}
//
// # Translator and Dyn
//
// A Translator is built once at startup with the Options and the renderer:
//
//	tr := httperr.New[httperr.JSONRenderer](httperr.Options{
//	    EnableLogging:      true,
//	    HideInternalDetail: true,
//	}, logger)
//
// Translator.From lifts any error into a *Dyn, which owns it until it is
// rendered:
//
//	d := tr.From(err)
//	log.Printf("%+v", d)         // TypeName(verbose inner), does not consume d
//	d.RenderContext(ctx).Write(w) // logs once, then renders once
//
// Rendering a Dyn twice panics with ErrAlreadyRendered.
//
// # Hide-Detail Mode
//
// With HideInternalDetail set, the reason of every GenericError is
// HiddenReason ("Server error") whatever the wrapped error says. The log record
// of a GenericError is not affected: it always carries the error text, its %+v
// form, the flattened cause chain and the stack captured at wrap time.
//
// # Renderers
//
// TextRenderer (plain text reason), JSONRenderer ({"status","message"}) and
// ProblemRenderer (RFC 9457 problem+json) are zero-sized types used as the
// type parameter of Translator and Dyn, so the choice is fixed at compile time.
package httperr
