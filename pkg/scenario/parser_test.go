package scenario

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const bookmarkScenario = `name: Add and delete bookmark
tags: [bookmarks, smoke]
fixture: emptyBookmarks
env:
  BOOKMARKS: Bookmarks
verify:
  - assertTrue: "bookmarks.count == 0"
---
- tap: "${BOOKMARKS}"
- assertTrue:
    script: "bookmarks.count == 1"
    reason: bookmark was added
- tap: Outline
- tap:
    text: Bookmarks
    within:
      type: SegmentedControl
- swipe:
    label: Page 1
    index: 0
    direction: left
- tap: Delete
- assertVisible:
    label: No Bookmarks
    index: 0
`

func TestParse_BookmarkScenario(t *testing.T) {
	sc, err := Parse([]byte(bookmarkScenario), "bookmarks.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if sc.Name != "Add and delete bookmark" {
		t.Errorf("Name=%q", sc.Name)
	}
	if !sc.HasTag("smoke") || !sc.HasTag("bookmarks") {
		t.Errorf("Tags=%v", sc.Tags)
	}
	if sc.Fixture != FixtureEmptyBookmarks {
		t.Errorf("Fixture=%q", sc.Fixture)
	}
	if !sc.Launch {
		t.Error("Launch should default to true")
	}
	if sc.Env["BOOKMARKS"] != "Bookmarks" {
		t.Errorf("Env=%v", sc.Env)
	}
	if len(sc.Steps) != 7 {
		t.Fatalf("expected 7 steps, got %d", len(sc.Steps))
	}
	if len(sc.Verify) != 1 || sc.Verify[0].Predicate.Script != "bookmarks.count == 0" {
		t.Errorf("Verify=%+v", sc.Verify)
	}

	if sc.Steps[0].Query.Label != "${BOOKMARKS}" || sc.Steps[0].Action.Kind != ActionTap {
		t.Errorf("step 0=%s", sc.Steps[0].Describe())
	}

	assert := sc.Steps[1].Assert
	if assert == nil || assert.Predicate.Kind != PredicateScript || assert.Reason != "bookmark was added" {
		t.Errorf("step 1 assert=%+v", assert)
	}

	scoped := sc.Steps[3].Query
	if scoped.Text != "Bookmarks" || scoped.Within == nil || scoped.Within.Type != "SegmentedControl" {
		t.Errorf("step 3 query=%+v", scoped)
	}

	swipe := sc.Steps[4]
	if swipe.Action.Kind != ActionSwipe || swipe.Action.Direction != DirectionLeft {
		t.Errorf("step 4 action=%+v", swipe.Action)
	}
	if swipe.Query.Index == nil || *swipe.Query.Index != 0 {
		t.Errorf("step 4 query=%+v", swipe.Query)
	}

	last := sc.Steps[6].Assert
	if last.Predicate.Kind != PredicateVisible || last.Subject.Label != "No Bookmarks" {
		t.Errorf("step 6 assert=%+v", last)
	}
	if !strings.Contains(last.Reason, "No Bookmarks") {
		t.Errorf("default reason=%q", last.Reason)
	}
}

func TestParse_StepLocations(t *testing.T) {
	sc, err := Parse([]byte(bookmarkScenario), "bookmarks.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Header occupies lines 1-7, "---" is line 8.
	wantLines := []int{9, 10, 13, 14, 18, 22, 23}
	for i, want := range wantLines {
		loc := sc.Steps[i].Location
		if loc.File != "bookmarks.yaml" || loc.Line != want {
			t.Errorf("step %d location=%v, want bookmarks.yaml:%d", i, loc, want)
		}
	}
	if got := sc.Steps[1].Assert.Location.Line; got != 10 {
		t.Errorf("assertion line=%d, want 10", got)
	}
	if got := sc.Verify[0].Location.Line; got != 7 {
		t.Errorf("verify line=%d, want 7", got)
	}
}

func TestParse_StepsOnly(t *testing.T) {
	content := `
- tap: Thumbnails
- wait: 250
- typeText:
    into: Search Document
    text: PSPDF
- waitFor:
    visible: {label: Search Results, type: Table}
    timeout: 5000
- longPress: Page 1
- doubleTap: Page 2
- assertText:
    id: title
    equals: Page 1
- assertNotVisible: Discard Changes
- assertExists: Done
`
	sc, err := Parse([]byte(content), "/tmp/search_flow.yml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if sc.Name != "search_flow" {
		t.Errorf("Name=%q, want file base name", sc.Name)
	}
	if len(sc.Steps) != 9 {
		t.Fatalf("expected 9 steps, got %d", len(sc.Steps))
	}

	if d := sc.Steps[1].Action.Duration; d != 250*time.Millisecond {
		t.Errorf("wait duration=%v", d)
	}

	typeText := sc.Steps[2]
	if typeText.Query.Label != "Search Document" || typeText.Action.Text != "PSPDF" {
		t.Errorf("typeText step=%s", typeText.Describe())
	}

	waitFor := sc.Steps[3]
	if waitFor.WaitFor.Kind != PredicateVisible || waitFor.Query.Type != "Table" || waitFor.Timeout != 5*time.Second {
		t.Errorf("waitFor step=%+v", waitFor)
	}

	if sc.Steps[4].Action.Kind != ActionLongPress || sc.Steps[4].Action.Duration != DefaultLongPressDuration {
		t.Errorf("longPress action=%+v", sc.Steps[4].Action)
	}
	if sc.Steps[5].Action.Kind != ActionDoubleTap {
		t.Errorf("doubleTap action=%+v", sc.Steps[5].Action)
	}
	if p := sc.Steps[6].Assert.Predicate; p.Kind != PredicateTextEquals || p.Text != "Page 1" {
		t.Errorf("assertText predicate=%+v", p)
	}
	if p := sc.Steps[7].Assert.Predicate; p.Kind != PredicateNotVisible {
		t.Errorf("assertNotVisible predicate=%+v", p)
	}
	if p := sc.Steps[8].Assert.Predicate; p.Kind != PredicateExists {
		t.Errorf("assertExists predicate=%+v", p)
	}
}

func TestParse_LaunchFalse(t *testing.T) {
	content := `name: no launch
launch: false
---
- tap: Done
`
	sc, err := Parse([]byte(content), "x.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sc.Launch {
		t.Error("Launch should be false")
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantLine int
		wantMsg  string
	}{
		{
			name:     "empty file",
			content:  "",
			wantLine: 1,
			wantMsg:  "empty scenario file",
		},
		{
			name:     "unknown step",
			content:  "- tap: A\n- pinch: B\n",
			wantLine: 2,
			wantMsg:  "unknown step type: pinch",
		},
		{
			name:     "bad direction",
			content:  "name: x\n---\n- swipe:\n    label: Page 1\n    direction: sideways\n",
			wantLine: 4,
			wantMsg:  "invalid swipe direction",
		},
		{
			name:     "scalar step",
			content:  "- tap\n",
			wantLine: 1,
			wantMsg:  "step must be a mapping",
		},
		{
			name:     "typeText without target",
			content:  "- typeText:\n    text: hi\n",
			wantLine: 1,
			wantMsg:  "empty element query",
		},
		{
			name:     "waitFor with two conditions",
			content:  "- waitFor:\n    visible: A\n    exists: B\n",
			wantLine: 2,
			wantMsg:  "exactly one",
		},
		{
			name:     "verify with action",
			content:  "name: x\nverify:\n  - tap: A\n---\n- tap: B\n",
			wantLine: 3,
			wantMsg:  "verify entries must be assertions",
		},
		{
			name:     "bad wait",
			content:  "- wait: soon\n",
			wantLine: 1,
			wantMsg:  "wait expects milliseconds",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.content), "bad.yaml")
			if err == nil {
				t.Fatal("expected error")
			}
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("expected *ParseError, got %T (%v)", err, err)
			}
			if pe.Line != tt.wantLine {
				t.Errorf("Line=%d, want %d (%v)", pe.Line, tt.wantLine, err)
			}
			if !strings.Contains(pe.Message, tt.wantMsg) {
				t.Errorf("Message=%q, want it to contain %q", pe.Message, tt.wantMsg)
			}
			if !strings.HasPrefix(err.Error(), "bad.yaml:") {
				t.Errorf("Error()=%q, want path prefix", err.Error())
			}
		})
	}
}

func TestSplitYAMLDocuments_BlockScalar(t *testing.T) {
	content := "name: x\n---\n- assertTrue:\n    script: |\n      ---\n      true\n"
	docs := splitYAMLDocuments(content)
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
	if docs[1].line != 3 {
		t.Errorf("second document starts at line %d, want 3", docs[1].line)
	}
}

func TestParseDirectory_TagFilters(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"smoke.yaml":   "name: smoke\ntags: [smoke]\n---\n- tap: A\n",
		"slow.yml":     "name: slow\ntags: [smoke, slow]\n---\n- tap: B\n",
		"untagged.yml": "- tap: C\n",
		"notes.txt":    "not a scenario",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	all, err := ParseDirectory(dir, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 scenarios, got %d", len(all))
	}

	smoke, err := ParseDirectory(dir, []string{"smoke"}, []string{"slow"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(smoke) != 1 || smoke[0].Name != "smoke" {
		t.Errorf("filtered scenarios=%v", smoke)
	}
}

func TestParseDirectory_InvalidFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("- nope: x\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ParseDirectory(dir, nil, nil); err == nil {
		t.Error("expected parse error to be returned")
	}
}
