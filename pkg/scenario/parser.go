package scenario

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ParseError represents a parsing error with location info.
type ParseError struct {
	Path    string
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Step keys accepted in scenario files.
const (
	keyTap              = "tap"
	keyDoubleTap        = "doubleTap"
	keyLongPress        = "longPress"
	keySwipe            = "swipe"
	keyTypeText         = "typeText"
	keyWait             = "wait"
	keyWaitFor          = "waitFor"
	keyAssertVisible    = "assertVisible"
	keyAssertNotVisible = "assertNotVisible"
	keyAssertExists     = "assertExists"
	keyAssertText       = "assertText"
	keyAssertTrue       = "assertTrue"
)

// header is the first YAML document of a scenario file.
type header struct {
	Name    string            `yaml:"name"`
	Tags    []string          `yaml:"tags"`
	Env     map[string]string `yaml:"env"`
	Launch  *bool             `yaml:"launch"`
	Fixture string            `yaml:"fixture"`
	Verify  []yaml.Node       `yaml:"verify"`
}

// elementFields are the query fields shared by element steps.
type elementFields struct {
	Label    string        `yaml:"label"`
	Text     string        `yaml:"text"`
	ID       string        `yaml:"id"`
	Type     string        `yaml:"type"`
	Index    *int          `yaml:"index"`
	Within   *ElementQuery `yaml:"within"`
	Timeout  int           `yaml:"timeout"` // ms
	Optional bool          `yaml:"optional"`
	Reason   string        `yaml:"reason"`
}

func (f elementFields) query() ElementQuery {
	return ElementQuery{
		Label:  f.Label,
		Text:   f.Text,
		ID:     f.ID,
		Type:   f.Type,
		Index:  f.Index,
		Within: f.Within,
	}
}

type swipeFields struct {
	elementFields `yaml:",inline"`
	Direction     string `yaml:"direction"`
}

type longPressFields struct {
	elementFields `yaml:",inline"`
	Duration      int `yaml:"duration"` // ms
}

type typeTextFields struct {
	Into     ElementQuery `yaml:"into"`
	Text     string       `yaml:"text"`
	Timeout  int          `yaml:"timeout"`
	Optional bool         `yaml:"optional"`
}

type assertTextFields struct {
	elementFields `yaml:",inline"`
	Equals        string `yaml:"equals"`
}

type waitForFields struct {
	Visible    *ElementQuery `yaml:"visible"`
	NotVisible *ElementQuery `yaml:"notVisible"`
	Exists     *ElementQuery `yaml:"exists"`
	Script     string        `yaml:"script"`
	Timeout    int           `yaml:"timeout"`
	Optional   bool          `yaml:"optional"`
}

type assertTrueFields struct {
	Script   string `yaml:"script"`
	Reason   string `yaml:"reason"`
	Optional bool   `yaml:"optional"`
}

// ParseFile parses a single YAML scenario file.
func ParseFile(path string) (*Scenario, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- path is user-provided scenario file
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return Parse(data, path)
}

// Parse parses YAML scenario content. A file is either a bare step list or
// a header document followed by "---" and the step list.
func Parse(data []byte, sourcePath string) (*Scenario, error) {
	docs := splitYAMLDocuments(string(data))
	if len(docs) == 0 {
		return nil, &ParseError{Path: sourcePath, Line: 1, Message: "empty scenario file"}
	}
	if len(docs) > 2 {
		return nil, &ParseError{
			Path:    sourcePath,
			Line:    docs[2].line,
			Message: "expected at most two documents (header and steps)",
		}
	}

	sc := &Scenario{
		SourcePath: sourcePath,
		Launch:     true,
	}

	stepsDoc := docs[0]
	if len(docs) == 2 {
		if err := parseHeader(docs[0], sc); err != nil {
			return nil, err
		}
		stepsDoc = docs[1]
	}
	if err := parseSteps(stepsDoc, sc); err != nil {
		return nil, err
	}

	if sc.Name == "" {
		sc.Name = strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath))
	}
	return sc, nil
}

// document is one YAML document and the file line it starts on.
type document struct {
	content string
	line    int
}

func splitYAMLDocuments(content string) []document {
	var docs []document
	var current strings.Builder
	start := 1
	inBlock := false
	blockIndent := 0

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)

		// A "---" inside a block scalar is text, not a separator.
		if !inBlock {
			if strings.HasSuffix(trimmed, "|") || strings.HasSuffix(trimmed, ">") ||
				strings.HasSuffix(trimmed, "|-") || strings.HasSuffix(trimmed, ">-") {
				inBlock = true
				if i+1 < len(lines) {
					next := lines[i+1]
					blockIndent = len(next) - len(strings.TrimLeft(next, " \t"))
				}
			}
		} else {
			indent := len(line) - len(strings.TrimLeft(line, " \t"))
			if trimmed != "" && indent < blockIndent {
				inBlock = false
			}
		}

		if !inBlock && strings.TrimRight(line, " \t\r") == "---" {
			if strings.TrimSpace(current.String()) != "" {
				docs = append(docs, document{content: current.String(), line: start})
			}
			current.Reset()
			start = i + 2
			continue
		}
		current.WriteString(line)
		current.WriteString("\n")
	}

	if strings.TrimSpace(current.String()) != "" {
		docs = append(docs, document{content: current.String(), line: start})
	}
	return docs
}

func parseHeader(doc document, sc *Scenario) error {
	var h header
	if err := yaml.Unmarshal([]byte(doc.content), &h); err != nil {
		return &ParseError{
			Path:    sc.SourcePath,
			Line:    doc.line,
			Message: fmt.Sprintf("invalid header: %v", err),
		}
	}

	sc.Name = h.Name
	sc.Tags = h.Tags
	sc.Env = h.Env
	sc.Fixture = h.Fixture
	if h.Launch != nil {
		sc.Launch = *h.Launch
	}

	p := parser{path: sc.SourcePath, offset: doc.line - 1}
	for i := range h.Verify {
		step, err := p.parseStep(&h.Verify[i])
		if err != nil {
			return err
		}
		if step.Assert == nil || step.Action != nil || step.WaitFor != nil {
			return &ParseError{
				Path:    sc.SourcePath,
				Line:    step.Location.Line,
				Message: "verify entries must be assertions",
			}
		}
		sc.Verify = append(sc.Verify, *step.Assert)
	}
	return nil
}

func parseSteps(doc document, sc *Scenario) error {
	var nodes []yaml.Node
	if err := yaml.Unmarshal([]byte(doc.content), &nodes); err != nil {
		return &ParseError{
			Path:    sc.SourcePath,
			Line:    doc.line,
			Message: fmt.Sprintf("invalid steps: %v", err),
		}
	}

	p := parser{path: sc.SourcePath, offset: doc.line - 1}
	for i := range nodes {
		step, err := p.parseStep(&nodes[i])
		if err != nil {
			return err
		}
		sc.Steps = append(sc.Steps, step)
	}
	return nil
}

// parser decodes step nodes of one document. offset converts node lines,
// which are relative to the document, into file lines.
type parser struct {
	path   string
	offset int
}

func (p parser) errorf(node *yaml.Node, format string, args ...interface{}) error {
	return &ParseError{Path: p.path, Line: node.Line + p.offset, Message: fmt.Sprintf(format, args...)}
}

func (p parser) wrap(node *yaml.Node, err error) error {
	return &ParseError{Path: p.path, Line: node.Line + p.offset, Message: err.Error()}
}

func (p parser) parseStep(node *yaml.Node) (Step, error) {
	if node.Kind != yaml.MappingNode {
		return Step{}, p.errorf(node, "step must be a mapping like \"- tap: Label\"")
	}
	if len(node.Content) != 2 {
		return Step{}, p.errorf(node, "step must have exactly one key")
	}

	key, value := node.Content[0].Value, node.Content[1]
	step, err := p.decodeStep(key, value)
	if err != nil {
		return Step{}, err
	}
	step.Location = Location{File: p.path, Line: node.Line + p.offset}
	if step.Assert != nil {
		step.Assert.Location = step.Location
	}
	if err := step.Validate(); err != nil {
		return Step{}, p.wrap(node, err)
	}
	return step, nil
}

//nolint:gocyclo
func (p parser) decodeStep(key string, value *yaml.Node) (Step, error) {
	switch key {
	case keyTap, keyDoubleTap:
		f, err := p.decodeElement(value)
		if err != nil {
			return Step{}, err
		}
		a := TapAction()
		if key == keyDoubleTap {
			a = DoubleTapAction()
		}
		return f.step(&a), nil

	case keyLongPress:
		var f longPressFields
		if value.Kind == yaml.ScalarNode {
			f.Label = value.Value
		} else if err := value.Decode(&f); err != nil {
			return Step{}, p.wrap(value, err)
		}
		d := DefaultLongPressDuration
		if f.Duration > 0 {
			d = time.Duration(f.Duration) * time.Millisecond
		}
		a := LongPressAction(d)
		return f.step(&a), nil

	case keySwipe:
		var f swipeFields
		if err := value.Decode(&f); err != nil {
			return Step{}, p.wrap(value, err)
		}
		dir, err := ParseDirection(f.Direction)
		if err != nil {
			return Step{}, p.wrap(value, err)
		}
		a := SwipeAction(dir)
		return f.step(&a), nil

	case keyTypeText:
		var f typeTextFields
		if err := value.Decode(&f); err != nil {
			return Step{}, p.wrap(value, err)
		}
		a := TypeTextAction(f.Text)
		q := f.Into
		return Step{
			Query:    &q,
			Action:   &a,
			Timeout:  millis(f.Timeout),
			Optional: f.Optional,
		}, nil

	case keyWait:
		var ms int
		if err := value.Decode(&ms); err != nil {
			return Step{}, p.errorf(value, "wait expects milliseconds")
		}
		a := WaitAction(millis(ms))
		return Step{Action: &a}, nil

	case keyWaitFor:
		return p.decodeWaitFor(value)

	case keyAssertVisible, keyAssertNotVisible, keyAssertExists:
		f, err := p.decodeElement(value)
		if err != nil {
			return Step{}, err
		}
		pred := Visible()
		switch key {
		case keyAssertNotVisible:
			pred = NotVisible()
		case keyAssertExists:
			pred = Exists()
		}
		return f.assertion(pred), nil

	case keyAssertText:
		var f assertTextFields
		if err := value.Decode(&f); err != nil {
			return Step{}, p.wrap(value, err)
		}
		return f.assertion(TextEquals(f.Equals)), nil

	case keyAssertTrue:
		var f assertTrueFields
		if value.Kind == yaml.ScalarNode {
			f.Script = value.Value
		} else if err := value.Decode(&f); err != nil {
			return Step{}, p.wrap(value, err)
		}
		reason := f.Reason
		if reason == "" {
			reason = fmt.Sprintf("expected %s to be true", f.Script)
		}
		return Step{
			Assert:   &Assertion{Predicate: Script(f.Script), Reason: reason},
			Optional: f.Optional,
		}, nil

	default:
		return Step{}, p.errorf(value, "unknown step type: %s", key)
	}
}

func (p parser) decodeElement(value *yaml.Node) (elementFields, error) {
	var f elementFields
	if value.Kind == yaml.ScalarNode {
		f.Label = value.Value
		return f, nil
	}
	if err := value.Decode(&f); err != nil {
		return f, p.wrap(value, err)
	}
	return f, nil
}

func (p parser) decodeWaitFor(value *yaml.Node) (Step, error) {
	var f waitForFields
	if err := value.Decode(&f); err != nil {
		return Step{}, p.wrap(value, err)
	}

	step := Step{Timeout: millis(f.Timeout), Optional: f.Optional}
	set := 0
	if f.Visible != nil {
		pred := Visible()
		step.Query, step.WaitFor = f.Visible, &pred
		set++
	}
	if f.NotVisible != nil {
		pred := NotVisible()
		step.Query, step.WaitFor = f.NotVisible, &pred
		set++
	}
	if f.Exists != nil {
		pred := Exists()
		step.Query, step.WaitFor = f.Exists, &pred
		set++
	}
	if f.Script != "" {
		pred := Script(f.Script)
		step.WaitFor = &pred
		set++
	}
	if set != 1 {
		return Step{}, p.errorf(value, "waitFor needs exactly one of visible, notVisible, exists or script")
	}
	return step, nil
}

func (f elementFields) step(a *Action) Step {
	q := f.query()
	return Step{
		Query:    &q,
		Action:   a,
		Timeout:  millis(f.Timeout),
		Optional: f.Optional,
	}
}

func (f elementFields) assertion(pred Predicate) Step {
	q := f.query()
	reason := f.Reason
	if reason == "" {
		reason = fmt.Sprintf("expected %s to be %s", q.Describe(), pred.Describe())
	}
	return Step{
		Assert:   &Assertion{Subject: &q, Predicate: pred, Reason: reason},
		Optional: f.Optional,
	}
}

func millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// ParseDirectory parses all YAML files under dir, keeping those that pass
// the tag filters.
func ParseDirectory(dir string, includeTags, excludeTags []string) ([]*Scenario, error) {
	var scenarios []*Scenario

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !IsScenarioFile(path) {
			return nil
		}

		sc, err := ParseFile(path)
		if err != nil {
			return err
		}
		if ShouldInclude(sc, includeTags, excludeTags) {
			scenarios = append(scenarios, sc)
		}
		return nil
	})

	return scenarios, err
}

// IsScenarioFile returns true for .yaml and .yml files.
func IsScenarioFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// ShouldInclude checks if a scenario matches tag filters.
func ShouldInclude(sc *Scenario, includeTags, excludeTags []string) bool {
	if len(includeTags) > 0 {
		hasTag := false
		for _, include := range includeTags {
			if sc.HasTag(include) {
				hasTag = true
				break
			}
		}
		if !hasTag {
			return false
		}
	}

	for _, exclude := range excludeTags {
		if sc.HasTag(exclude) {
			return false
		}
	}
	return true
}
