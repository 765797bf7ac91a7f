// Package testutil provides logging helpers for tests.
package testutil

import (
	"bytes"
	"log/slog"
	"sync"
	"testing"
)

// NewTestLogger returns a debug level logger that writes to t.Log, so
// diagnostics only show for failing tests or with -v.
func NewTestLogger(t testing.TB) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(testWriter{t: t}, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

// LogBuffer collects log output for assertions. It is safe for concurrent
// writers, which matters for loggers shared by parallel spec parses.
type LogBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *LogBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

// String returns everything logged so far.
func (b *LogBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// NewCaptureLogger returns a logger that writes records at level and above
// both to t.Log and to the returned buffer.
func NewCaptureLogger(t testing.TB, level slog.Level) (*slog.Logger, *LogBuffer) {
	t.Helper()
	logs := &LogBuffer{}
	w := testWriter{t: t, tee: logs}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), logs
}

type testWriter struct {
	t   testing.TB
	tee *LogBuffer
}

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(string(p))
	if w.tee != nil {
		return w.tee.Write(p)
	}
	return len(p), nil
}
