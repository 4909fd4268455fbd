package validator

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestValidate_SingleFile(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"bookmarks.yaml": `
name: Bookmarks
---
- tap: Bookmarks
- assertTrue: "bookmarks.count == 1"
`,
	})

	result := New(nil, nil).Validate(filepath.Join(dir, "bookmarks.yaml"))

	if !result.IsValid() {
		t.Errorf("expected valid result, got errors: %v", result.Errors)
	}
	if len(result.Files) != 1 || len(result.Scenarios) != 1 {
		t.Fatalf("expected 1 scenario, got %d files, %d scenarios", len(result.Files), len(result.Scenarios))
	}
	if result.Scenarios[0].Name != "Bookmarks" {
		t.Errorf("Name = %q", result.Scenarios[0].Name)
	}
}

func TestValidate_DirectorySortedSkipsConfig(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"b.yaml":      `- tap: B`,
		"a.yml":       `- tap: A`,
		"sub/c.yaml":  `- tap: C`,
		"config.yaml": `target: sample`,
		"notes.txt":   `not a scenario`,
	})

	result := New(nil, nil).Validate(dir)

	if !result.IsValid() {
		t.Fatalf("expected valid result, got errors: %v", result.Errors)
	}
	want := []string{
		filepath.Join(dir, "a.yml"),
		filepath.Join(dir, "b.yaml"),
		filepath.Join(dir, "sub", "c.yaml"),
	}
	if !reflect.DeepEqual(result.Files, want) {
		t.Errorf("Files = %v, want %v", result.Files, want)
	}
}

func TestValidate_Glob(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"search.yaml":    `- tap: Search`,
		"bookmarks.yaml": `- tap: Bookmarks`,
	})

	result := New(nil, nil).Validate(filepath.Join(dir, "s*.yaml"))
	if !result.IsValid() || len(result.Files) != 1 {
		t.Errorf("files = %v, errors = %v", result.Files, result.Errors)
	}

	result = New(nil, nil).Validate(filepath.Join(dir, "zzz*.yaml"))
	if result.IsValid() {
		t.Error("expected error for pattern without matches")
	}
}

func TestValidate_TagFilters(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"smoke.yaml": "tags: [smoke]\n---\n- tap: A\n",
		"wip.yaml":   "tags: [smoke, wip]\n---\n- tap: B\n",
		"other.yaml": "tags: [regression]\n---\n- tap: C\n",
	})

	tests := []struct {
		name    string
		include []string
		exclude []string
		want    int
	}{
		{"no filters", nil, nil, 3},
		{"include smoke", []string{"smoke"}, nil, 2},
		{"include smoke exclude wip", []string{"smoke"}, []string{"wip"}, 1},
		{"exclude wip", nil, []string{"wip"}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := New(tt.include, tt.exclude).Validate(dir)
			if len(result.Files) != tt.want {
				t.Errorf("got %d files %v, want %d", len(result.Files), result.Files, tt.want)
			}
		})
	}
}

func TestValidate_Errors(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"good.yaml":    `- tap: OK`,
		"broken.yaml":  "- tap: [unclosed\n",
		"unknown.yaml": "- fly: away\n",
		"fixture.yaml": "fixture: nope\n---\n- tap: A\n",
	})

	result := New(nil, nil).Validate(dir)

	if result.IsValid() {
		t.Fatal("expected errors")
	}
	if len(result.Errors) != 3 {
		t.Errorf("expected 3 errors, got %d: %v", len(result.Errors), result.Errors)
	}
	if len(result.Files) != 1 || !strings.HasSuffix(result.Files[0], "good.yaml") {
		t.Errorf("Files = %v", result.Files)
	}
	for _, err := range result.Errors {
		if _, ok := err.(*ValidationError); !ok {
			t.Errorf("error %v is %T, want *ValidationError", err, err)
		}
	}
}

func TestValidate_Missing(t *testing.T) {
	result := New(nil, nil).Validate("/nonexistent/scenarios")
	if result.IsValid() {
		t.Error("expected error for missing path")
	}
}

func TestValidateAll_Deduplicates(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"a.yaml": `- tap: A`})

	result := New(nil, nil).ValidateAll([]string{dir, filepath.Join(dir, "a.yaml")})
	if len(result.Files) != 1 || len(result.Scenarios) != 1 {
		t.Errorf("Files = %v", result.Files)
	}
}

func TestReferences(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"labels.yaml": `
- tap: "${NEW_PAGE}"
- tap: "${ DONE }"
- tap: "${NEW_PAGE}"
- assertTrue: "${pages.count + 1} > 0"
`,
	})

	got, err := References(filepath.Join(dir, "labels.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, []string{"DONE", "NEW_PAGE"}) {
		t.Errorf("References() = %v", got)
	}

	missing := Unresolved(got, map[string]string{"NEW_PAGE": "Add"}, nil)
	if !reflect.DeepEqual(missing, []string{"DONE"}) {
		t.Errorf("Unresolved() = %v", missing)
	}
}
