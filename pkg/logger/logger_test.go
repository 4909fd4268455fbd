package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLogger_DiscardsBeforeInit(t *testing.T) {
	Close()

	// Must not panic
	Info("ignored %d", 1)
	WithFields(Fields{"scenario": "x"}).Info("ignored")
}

func TestLogger_InitFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "uiscript.log")
	if err := Init(path); err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	defer Close()

	Info("running %s", "bookmarks")
	Warn("retrying")
	Error("failed: %v", "boom")
	Debug("poll %d", 3)
	Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(data)
	for _, want := range []string{
		"level=info msg=\"running bookmarks\"",
		"level=warning msg=retrying",
		"level=error msg=\"failed: boom\"",
		"level=debug msg=\"poll 3\"",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %q:\n%s", want, out)
		}
	}
}

func TestLogger_InitBadPath(t *testing.T) {
	if err := Init(filepath.Join(t.TempDir(), "missing", "dir", "x.log")); err == nil {
		t.Error("expected error for unwritable path")
	}
}

func TestLogger_WithFields(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf)
	defer Close()

	WithFields(Fields{"scenario": "search", "step": 2}).Info("step passed")

	out := buf.String()
	if !strings.Contains(out, "scenario=search") || !strings.Contains(out, "step=2") {
		t.Errorf("fields missing from %q", out)
	}
}
