package logger

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestLoggerErrorIncludesContextFields(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Level: ParseLevel("debug"), Output: buf})

	ctx := log.WithRequestID(context.Background(), "req-123")
	ctx = log.WithWorkspaceID(ctx, 7)
	log.Error(ctx, "boom", errors.New("boom"))

	entry := buf.String()
	for _, field := range []string{`"request_id":"req-123"`, `"workspace_id":7`, `"stack"`} {
		if !strings.Contains(entry, field) {
			t.Fatalf("expected %s in entry=%s", field, entry)
		}
	}
}

func TestLoggerWarnStackToggle(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Output: buf})
	log.Warn(context.Background(), "quiet")
	if strings.Contains(buf.String(), `"stack"`) {
		t.Fatalf("stack should be omitted by default")
	}

	buf.Reset()
	log = New(Options{ServiceName: "test", Output: buf, WarnStack: true})
	log.Warn(context.Background(), "loud")
	if !strings.Contains(buf.String(), `"stack"`) {
		t.Fatalf("expected stack when warn stack enabled")
	}
}

func TestParseLevelDefaults(t *testing.T) {
	if lvl := ParseLevel(""); lvl != zerolog.InfoLevel {
		t.Fatalf("expected default info level, got %v", lvl)
	}
	if lvl := ParseLevel("invalid"); lvl != zerolog.InfoLevel {
		t.Fatalf("invalid level should fallback to info, got %v", lvl)
	}
	if lvl := ParseLevel(" DEBUG "); lvl != zerolog.DebugLevel {
		t.Fatalf("expected debug, got %v", lvl)
	}
}

func TestLoggerMirrorsToRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portal.log")
	log := New(Options{ServiceName: "test", Output: &bytes.Buffer{}, File: path})
	log.Info(context.Background(), "hello file")
	if err := log.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read link: %v", err)
	}
	if !strings.Contains(string(data), "hello file") {
		t.Fatalf("expected entry in log file, got %s", data)
	}
}

func TestLoggerConsoleFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Output: buf, Format: "console"})
	log.Info(log.WithTargetID(context.Background(), 12), "rendered")

	out := buf.String()
	if strings.HasPrefix(out, "{") {
		t.Fatalf("expected console output, got %s", out)
	}
	if !strings.Contains(out, "rendered") || !strings.Contains(out, "target_id=12") {
		t.Fatalf("missing message or field in %q", out)
	}
}
