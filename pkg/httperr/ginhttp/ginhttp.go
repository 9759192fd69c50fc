// Package ginhttp connects httperr to gin: handlers return errors and each
// error becomes exactly one response.
package ginhttp

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"dynhttp/pkg/httperr"
)

// HandlerFunc is a gin handler that reports failure by returning an error.
type HandlerFunc func(c *gin.Context) error

// Handle adapts fn to gin. A returned error is lifted with tr.From and
// rendered, unless fn already started the response; then it is only logged.
func Handle[R httperr.Renderer](tr *httperr.Translator[R], fn HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := fn(c); err != nil {
			respond(tr, c, err)
		}
	}
}

// Errors is middleware for plain gin handlers. It renders the last error
// recorded with c.Error when nothing was written, and turns panics into
// generic 500 errors. http.ErrAbortHandler is re-panicked.
func Errors[R httperr.Renderer](tr *httperr.Translator[R]) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
				panic(rec)
			}
			respond(tr, c, tr.WrapGeneric(panicError(rec)))
		}()

		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		respond(tr, c, c.Errors.Last().Err)
	}
}

func respond[R httperr.Renderer](tr *httperr.Translator[R], c *gin.Context, err error) {
	d := tr.From(err)
	if c.Writer.Written() {
		d.Discard(c.Request.Context())
		c.Abort()
		return
	}
	d.RenderContext(c.Request.Context()).WriteGin(c)
}

func panicError(rec any) error {
	if err, ok := rec.(error); ok {
		return fmt.Errorf("panic: %w", err)
	}
	return fmt.Errorf("panic: %v", rec)
}
