package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetHome_EnvVar(t *testing.T) {
	ResetHome()
	t.Cleanup(ResetHome)
	t.Setenv("UISCRIPT_HOME", "/custom/path")

	if got := GetHome(); got != "/custom/path" {
		t.Errorf("GetHome() = %q, want %q", got, "/custom/path")
	}
}

func TestGetHome_Fallback(t *testing.T) {
	ResetHome()
	t.Cleanup(ResetHome)
	t.Setenv("UISCRIPT_HOME", "")

	if got := GetHome(); got == "" {
		t.Error("GetHome() returned empty string")
	}
}

func TestGetHome_Cached(t *testing.T) {
	ResetHome()
	t.Cleanup(ResetHome)
	t.Setenv("UISCRIPT_HOME", "/first")
	first := GetHome()

	t.Setenv("UISCRIPT_HOME", "/second")
	if second := GetHome(); first != second {
		t.Errorf("GetHome() not cached: first=%q, second=%q", first, second)
	}
}

func TestHomePaths(t *testing.T) {
	ResetHome()
	t.Cleanup(ResetHome)
	t.Setenv("UISCRIPT_HOME", "/test/home")

	if got, want := GetReportsDir(), filepath.Join("/test/home", "reports"); got != want {
		t.Errorf("GetReportsDir() = %q, want %q", got, want)
	}
	if got, want := GetLogPath(), filepath.Join("/test/home", "logs", "uiscript.log"); got != want {
		t.Errorf("GetLogPath() = %q, want %q", got, want)
	}
}

func TestHomeFromExecutable(t *testing.T) {
	home := t.TempDir()
	bin := filepath.Join(home, "bin")
	if err := os.MkdirAll(bin, 0o755); err != nil {
		t.Fatal(err)
	}
	exe := filepath.Join(bin, "uiscript")
	if err := os.WriteFile(exe, nil, 0o755); err != nil {
		t.Fatal(err)
	}
	want, _ := filepath.EvalSymlinks(home)

	got, ok := homeFromExecutable(exe)
	if !ok || got != want {
		t.Errorf("homeFromExecutable(%q) = (%q, %v), want (%q, true)", exe, got, ok, want)
	}

	other := filepath.Join(home, "uiscript")
	if _, ok := homeFromExecutable(other); ok {
		t.Errorf("homeFromExecutable(%q) should not find a home outside bin/", other)
	}
}
