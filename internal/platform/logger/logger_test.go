package logger

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"dynhttp/pkg/httperr"
)

func newFileLogger(t *testing.T, opts Options) (*slog.Logger, string) {
	t.Helper()
	logFile := filepath.Join(t.TempDir(), "test.log")
	opts.File = logFile
	if opts.Console == nil {
		opts.Console = &bytes.Buffer{}
	}
	l := New(opts)
	t.Cleanup(func() {
		if err := Close(l); err != nil {
			t.Errorf("Error closing logger: %v", err)
		}
	})
	return l, logFile
}

func readLog(t *testing.T, path string) string {
	t.Helper()
	// lumberjack writes synchronously; the sleep covers slow filesystems.
	time.Sleep(50 * time.Millisecond)
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	return string(content)
}

func TestNew_DualOutput(t *testing.T) {
	var console bytes.Buffer
	logger, logFile := newFileLogger(t, Options{
		Env:          "prod",
		ConsoleLevel: "info",
		FileLevel:    "debug",
		App:          "test-app",
		Console:      &console,
	})

	logger.Debug("debug message")
	logger.Info("info message")

	fileContent := readLog(t, logFile)
	if !strings.Contains(fileContent, "debug message") {
		t.Error("File should contain debug message")
	}
	if !strings.Contains(fileContent, `"level":"DEBUG"`) {
		t.Error("File should contain JSON formatted debug level")
	}
	if !strings.Contains(fileContent, `"app":"test-app"`) {
		t.Error("File should contain app field")
	}
	if strings.Contains(console.String(), "debug message") {
		t.Error("Console should not contain debug message at info level")
	}
	if !strings.Contains(console.String(), "info message") {
		t.Error("Console should contain info message")
	}
}

func TestNew_ConsoleOnly(t *testing.T) {
	var console bytes.Buffer
	logger := New(Options{Env: "dev", App: "test-app", Console: &console})
	if err := Close(logger); err != nil {
		t.Errorf("Close without file should not fail: %v", err)
	}

	logger.Info("console only message")

	if !strings.Contains(console.String(), "console only message") {
		t.Error("Console should contain the message")
	}
}

func TestLevelFromString(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelWarn,
		"bogus": slog.LevelWarn,
	}
	for in, want := range tests {
		if got := levelFromString(in, slog.LevelWarn); got != want {
			t.Errorf("levelFromString(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestRedactingHandler(t *testing.T) {
	logger, logFile := newFileLogger(t, Options{Env: "prod", FileLevel: "debug", App: "test-app"})

	logger.Info("db open", slog.String("dsn", "postgres://u:p@db/notes"), slog.String("user", "john"))

	fileContent := readLog(t, logFile)
	if strings.Contains(fileContent, "u:p@db") {
		t.Error("DSN should be redacted")
	}
	if !strings.Contains(fileContent, "[REDACTED]") {
		t.Error("Should contain redacted placeholder")
	}
	if !strings.Contains(fileContent, "john") {
		t.Error("Non-sensitive data should not be redacted")
	}
}

func TestContextHandler_RequestID(t *testing.T) {
	logger, logFile := newFileLogger(t, Options{Env: "prod", App: "test-app"})

	ctx := WithRequestID(context.Background(), "req-123")
	logger.InfoContext(ctx, "with id")
	logger.Info("without id")

	lines := strings.Split(strings.TrimSpace(readLog(t, logFile)), "\n")
	if len(lines) != 2 {
		t.Fatalf("want 2 records, got %d", len(lines))
	}
	if !strings.Contains(lines[0], `"request_id":"req-123"`) {
		t.Errorf("first record should carry request id: %s", lines[0])
	}
	if strings.Contains(lines[1], "request_id") {
		t.Errorf("second record should not carry request id: %s", lines[1])
	}
	if RequestID(context.Background()) != "" {
		t.Error("empty context should have no request id")
	}
}

func TestMultiHandler(t *testing.T) {
	var info, warn bytes.Buffer
	h1 := slog.NewTextHandler(&info, &slog.HandlerOptions{Level: slog.LevelInfo})
	h2 := slog.NewTextHandler(&warn, &slog.HandlerOptions{Level: slog.LevelWarn})

	multi := NewMultiHandler(h1, h2)
	ctx := context.Background()

	if !multi.Enabled(ctx, slog.LevelInfo) {
		t.Error("Should be enabled for info level")
	}
	if multi.Enabled(ctx, slog.LevelDebug) {
		t.Error("Should not be enabled for debug level")
	}

	record := slog.NewRecord(time.Now(), slog.LevelInfo, "test", 0)
	if err := multi.Handle(ctx, record); err != nil {
		t.Errorf("Handle should not return error: %v", err)
	}
	if !strings.Contains(info.String(), "msg=test") {
		t.Error("info handler should receive the record")
	}
	if warn.Len() != 0 {
		t.Error("warn handler should skip info records")
	}

	if multi.WithAttrs([]slog.Attr{slog.String("key", "value")}) == nil {
		t.Error("WithAttrs should not return nil")
	}
	if multi.WithGroup("group") == nil {
		t.Error("WithGroup should not return nil")
	}
}

// Hide-detail mode must not shrink what reaches the log file.
func TestLogger_GenericErrorRecordIsComplete(t *testing.T) {
	logger, logFile := newFileLogger(t, Options{Env: "prod", App: "test-app"})
	tr := httperr.NewText(httperr.Options{EnableLogging: true, HideInternalDetail: true}, logger)

	err := errors.Join(errors.New("db connection failed"), errors.New("timeout"))
	resp := tr.From(err).RenderContext(WithRequestID(context.Background(), "req-9"))

	if string(resp.Body) != httperr.HiddenReason {
		t.Errorf("body = %q, want %q", resp.Body, httperr.HiddenReason)
	}
	fileContent := readLog(t, logFile)
	for _, want := range []string{"db connection failed", "timeout", `"request_id":"req-9"`, `"stack":`} {
		if !strings.Contains(fileContent, want) {
			t.Errorf("log should contain %s: %s", want, fileContent)
		}
	}
	if n := strings.Count(strings.TrimSpace(fileContent), "\n"); n != 0 {
		t.Errorf("want a single record, got %d lines", n+1)
	}
}
