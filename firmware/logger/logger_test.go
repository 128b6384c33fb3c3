package logger

import (
	"errors"
	"log/slog"
	"strings"
	"testing"
)

type captureLog struct {
	lines []string
}

func (c *captureLog) WriteLineString(s string) { c.lines = append(c.lines, s) }
func (c *captureLog) WriteLineBytes(b []byte)  { c.lines = append(c.lines, string(b)) }

func TestNewWritesOneLinePerRecord(t *testing.T) {
	out := &captureLog{}
	log := New(out, slog.LevelInfo)

	log.Info("render done", Mode("tasklist"), Slot(2))
	log.Debug("hidden")
	log.Warn("store write failed", Err(errors.New("boom")))

	if len(out.lines) != 2 {
		t.Fatalf("lines = %q, want 2 lines", out.lines)
	}
	if !strings.Contains(out.lines[0], "mode=tasklist") || !strings.Contains(out.lines[0], "slot=2") {
		t.Fatalf("line 0 = %q, missing attrs", out.lines[0])
	}
	if strings.HasSuffix(out.lines[0], "\n") {
		t.Fatalf("line 0 = %q, want no trailing newline", out.lines[0])
	}
	if !strings.Contains(out.lines[1], "error=boom") {
		t.Fatalf("line 1 = %q, missing error", out.lines[1])
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
