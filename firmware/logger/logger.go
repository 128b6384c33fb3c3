// Package logger routes structured log records to the board's line logger
// (stdout on the host, UART on the device).
package logger

import (
	"bytes"
	"io"
	"log/slog"
	"strings"
	"sync"

	"todowrist/hal"
)

// New returns a text slog.Logger writing one line per record to out.
func New(out hal.Logger, level slog.Level) *slog.Logger {
	if out == nil {
		return Discard()
	}
	return slog.New(slog.NewTextHandler(&lineWriter{out: out}, &slog.HandlerOptions{Level: level}))
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

// ParseLevel maps a config string to a level; unknown strings are info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type lineWriter struct {
	mu  sync.Mutex
	out hal.Logger
	buf bytes.Buffer
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf.Write(p)
	for {
		line, err := w.buf.ReadBytes('\n')
		if err != nil {
			// Partial line: keep it for the next write.
			w.buf.Reset()
			w.buf.Write(line)
			return len(p), nil
		}
		w.out.WriteLineBytes(bytes.TrimRight(line, "\r\n"))
	}
}
