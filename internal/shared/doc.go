// Package shared contains the domain error taxonomy used by the service and
// the HTTP status each category maps to.
//
// # Error Kinds
//
// Every Kind has a sentinel error and a status:
//
//	Kind                | Sentinel             | Status
//	--------------------|----------------------|-------
//	KindNotFound        | ErrNotFound          | 404
//	KindValidation      | ErrValidation        | 400
//	KindUnauthorized    | ErrUnauthorized      | 401
//	KindForbidden       | ErrForbidden         | 403
//	KindConflict        | ErrConflict          | 409
//	KindInternal        | ErrInternal          | 500
//	KindTimeout         | ErrTimeout           | 504
//	KindInvariantViolated | ErrInvariantViolated | 422
//	KindDependencyFailure | ErrDependencyFailure | 502
//	KindCanceled        | (context.Canceled)   | 499
//
// # Domain Errors
//
// Error is the purpose-built error returned by services. It implements
// httperr.HTTPError, so it reaches the client with its own status and message:
//
//	note, err := store.Get(ctx, id)
//	if errors.Is(err, sql.ErrNoRows) {
//	    return shared.NotFound("note not found")
//	}
//
// The cause given to WithCause is logged but never sent to the client.
//
// # Marking Third-Party Errors
//
// Lower layers that only want to tag an error use MarkKind, and the HTTP
// boundary calls Classify to turn the tag into an Error:
//
//	return shared.MarkKind(err, shared.KindDependencyFailure)
//
// Errors without a Kind stay opaque and are rendered as generic 500 errors.
//
// # Classification
//
// KindOf walks the chain and returns the highest priority kind present:
// Canceled, Timeout, NotFound, Validation, Unauthorized, Forbidden, Conflict,
// DependencyFailure, Internal, InvariantViolated.
package shared
