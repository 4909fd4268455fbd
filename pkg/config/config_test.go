package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/devicelab-dev/uiscript/pkg/executor"
)

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	content := `
scenarios:
  - scenarios
includeTags:
  - smoke
excludeTags:
  - wip
env:
  USER: test
labels:
  NEW_PAGE_BUTTON: Add
target: wda
bundleId: com.example.Viewer
timeouts:
  find: 5000
  poll: 50
wda:
  port: 8200
artifacts:
  captureOnFailure: true
  screenshot: true
`
	cfg, err := Load(writeConfig(t, t.TempDir(), "config.yaml", content))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(cfg.Scenarios) != 1 || cfg.Scenarios[0] != "scenarios" {
		t.Errorf("expected scenarios [scenarios], got %v", cfg.Scenarios)
	}
	if len(cfg.IncludeTags) != 1 || cfg.IncludeTags[0] != "smoke" {
		t.Errorf("expected includeTags [smoke], got %v", cfg.IncludeTags)
	}
	if len(cfg.ExcludeTags) != 1 || cfg.ExcludeTags[0] != "wip" {
		t.Errorf("expected excludeTags [wip], got %v", cfg.ExcludeTags)
	}
	if cfg.Env["USER"] != "test" {
		t.Errorf("expected env USER=test, got %v", cfg.Env)
	}
	if cfg.Labels["NEW_PAGE_BUTTON"] != "Add" {
		t.Errorf("expected label NEW_PAGE_BUTTON=Add, got %v", cfg.Labels)
	}
	if cfg.Target != TargetWDA || cfg.BundleID != "com.example.Viewer" {
		t.Errorf("target = %q, bundleId = %q", cfg.Target, cfg.BundleID)
	}
	if cfg.WDAURL() != "http://localhost:8200" {
		t.Errorf("WDAURL() = %q", cfg.WDAURL())
	}
	if cfg.Artifacts == nil || !cfg.Artifacts.CaptureOnFailure || !cfg.Artifacts.Screenshot {
		t.Errorf("artifacts = %+v", cfg.Artifacts)
	}
}

func TestLoad_NonExistentFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	if err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", `scenarios: [invalid yaml`)

	_, err := Load(path)
	if err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown target", `target: android`},
		{"negative timeout", "timeouts:\n  wait: -1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), "config.yaml", tt.content)
			if _, err := Load(path); err == nil {
				t.Errorf("Load(%q) should fail", tt.content)
			}
		})
	}
}

func TestLoad_EmptyConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, t.TempDir(), "config.yaml", ``))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(cfg.Scenarios) != 0 {
		t.Errorf("expected empty scenarios, got %v", cfg.Scenarios)
	}
	if cfg.WDAURL() != "http://localhost:8100" {
		t.Errorf("WDAURL() = %q, want default port", cfg.WDAURL())
	}
}

func TestLoadFromDir_ConfigYaml(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.yaml", `target: appium`)

	cfg, err := LoadFromDir(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Target != TargetAppium {
		t.Errorf("expected target appium, got %s", cfg.Target)
	}
}

func TestLoadFromDir_ConfigYml(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.yml", `target: sample`)

	cfg, err := LoadFromDir(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Target != TargetSample {
		t.Errorf("expected target sample, got %s", cfg.Target)
	}
}

func TestLoadFromDir_NoConfig(t *testing.T) {
	cfg, err := LoadFromDir(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Should return empty config
	if cfg.Target != "" {
		t.Errorf("expected empty target, got %s", cfg.Target)
	}
	if len(cfg.Scenarios) != 0 {
		t.Errorf("expected empty scenarios, got %v", cfg.Scenarios)
	}
}

func TestLoadFromDir_PrefersYamlOverYml(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.yaml", `target: wda`)
	writeConfig(t, dir, "config.yml", `target: appium`)

	cfg, err := LoadFromDir(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Should prefer config.yaml
	if cfg.Target != TargetWDA {
		t.Errorf("expected target wda (from config.yaml), got %s", cfg.Target)
	}
}

func TestVars_EnvOverridesLabels(t *testing.T) {
	cfg := &Config{
		Labels: map[string]string{"A": "label", "B": "label"},
		Env:    map[string]string{"B": "env"},
	}

	vars := cfg.Vars()
	if vars["A"] != "label" || vars["B"] != "env" {
		t.Errorf("Vars() = %v", vars)
	}
}

func TestRunnerConfig(t *testing.T) {
	cfg := &Config{
		Timeouts: Timeouts{Find: 2000, Action: 500},
		Labels:   map[string]string{"ADD": "Add"},
	}

	rc := cfg.RunnerConfig()
	def := executor.DefaultConfig()

	if rc.FindTimeout != 2*time.Second {
		t.Errorf("FindTimeout = %v, want 2s", rc.FindTimeout)
	}
	if rc.ActionTimeout != 500*time.Millisecond {
		t.Errorf("ActionTimeout = %v, want 500ms", rc.ActionTimeout)
	}
	if rc.WaitTimeout != def.WaitTimeout || rc.PollInterval != def.PollInterval {
		t.Errorf("unset timeouts changed: wait=%v poll=%v", rc.WaitTimeout, rc.PollInterval)
	}
	if rc.Vars["ADD"] != "Add" {
		t.Errorf("Vars = %v", rc.Vars)
	}
	if rc.Artifacts != def.Artifacts {
		t.Errorf("Artifacts = %+v, want default", rc.Artifacts)
	}
}
