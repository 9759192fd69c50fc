package ginhttp_test

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dynhttp/pkg/httperr"
	"dynhttp/pkg/httperr/ginhttp"
)

type notFound struct{ what string }

func (e notFound) Error() string { return e.what + " missing" }
func (e notFound) Status() int   { return http.StatusNotFound }

func newEngine(tr *httperr.Translator[httperr.TextRenderer]) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ginhttp.Errors(tr))
	r.GET("/domain", ginhttp.Handle(tr, func(c *gin.Context) error {
		return notFound{what: "user"}
	}))
	r.GET("/generic", ginhttp.Handle(tr, func(c *gin.Context) error {
		return errors.New("upstream timeout")
	}))
	r.GET("/ok", ginhttp.Handle(tr, func(c *gin.Context) error {
		c.String(http.StatusOK, "fine")
		return nil
	}))
	r.GET("/late", ginhttp.Handle(tr, func(c *gin.Context) error {
		c.String(http.StatusOK, "partial")
		return errors.New("too late")
	}))
	r.GET("/recorded", func(c *gin.Context) {
		_ = c.Error(httperr.WithStatus(errors.New("bad filter"), http.StatusBadRequest))
	})
	r.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})
	return r
}

func serve(r http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHandle(t *testing.T) {
	tests := []struct {
		name       string
		hide       bool
		path       string
		wantStatus int
		wantBody   string
	}{
		{name: "domain", path: "/domain", wantStatus: http.StatusNotFound, wantBody: "user missing"},
		{name: "domain hidden mode", hide: true, path: "/domain", wantStatus: http.StatusNotFound, wantBody: "user missing"},
		{name: "generic", path: "/generic", wantStatus: http.StatusInternalServerError, wantBody: "upstream timeout"},
		{name: "generic hidden", hide: true, path: "/generic", wantStatus: http.StatusInternalServerError, wantBody: httperr.HiddenReason},
		{name: "success", path: "/ok", wantStatus: http.StatusOK, wantBody: "fine"},
		{name: "late error", path: "/late", wantStatus: http.StatusOK, wantBody: "partial"},
		{name: "recorded with c.Error", path: "/recorded", wantStatus: http.StatusBadRequest, wantBody: "bad filter"},
		{name: "panic", path: "/panic", wantStatus: http.StatusInternalServerError, wantBody: "panic: boom"},
		{name: "panic hidden", hide: true, path: "/panic", wantStatus: http.StatusInternalServerError, wantBody: httperr.HiddenReason},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := httperr.NewText(httperr.Options{HideInternalDetail: tt.hide}, nil)

			rec := serve(newEngine(tr), tt.path)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantBody, rec.Body.String())
		})
	}
}

func TestHandle_LogsOncePerError(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))
	tr := httperr.NewText(httperr.Options{EnableLogging: true, HideInternalDetail: true}, log)
	r := newEngine(tr)

	serve(r, "/generic")
	serve(r, "/late")
	serve(r, "/ok")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "upstream timeout")
	assert.Contains(t, lines[1], "too late")
}

func TestErrors_ReraisesAbortHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tr := httperr.NewText(httperr.Options{}, nil)
	r := gin.New()
	r.Use(ginhttp.Errors(tr))
	r.GET("/abort", func(c *gin.Context) { panic(http.ErrAbortHandler) })

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() { serve(r, "/abort") })
}
