package httperr_test

import (
	"bufio"
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

// notFound is a domain error with its own status.
type notFound struct {
	reason string
}

func (e notFound) Error() string { return e.reason }
func (e notFound) Status() int   { return http.StatusNotFound }

// chainErr is an opaque error with a cause, like infrastructure errors.
type chainErr struct {
	msg   string
	cause error
}

func (e *chainErr) Error() string { return e.msg }
func (e *chainErr) Unwrap() error { return e.cause }

func newJSONLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// records decodes every JSON log line written to buf.
func records(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	sc := bufio.NewScanner(bytes.NewReader(buf.Bytes()))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		var rec map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &rec))
		out = append(out, rec)
	}
	require.NoError(t, sc.Err())
	return out
}
