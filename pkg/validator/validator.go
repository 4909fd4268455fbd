// Package validator checks scenario files before execution. It parses every
// file upfront so a run never starts with a broken scenario queued.
package validator

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/devicelab-dev/uiscript/pkg/scenario"
)

// ValidationError represents a validation error with context.
type ValidationError struct {
	File    string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.File, e.Message)
}

// Result contains the validation result.
type Result struct {
	// Files is the list of scenario file paths in execution order.
	Files []string
	// Scenarios holds the parsed scenarios, parallel to Files.
	Scenarios []*scenario.Scenario
	// Errors contains all validation errors found.
	Errors []error
}

// IsValid returns true if there are no validation errors.
func (r *Result) IsValid() bool {
	return len(r.Errors) == 0
}

// Merge appends other's files, scenarios and errors to r, skipping files
// already present.
func (r *Result) Merge(other *Result) {
	seen := make(map[string]bool, len(r.Files))
	for _, f := range r.Files {
		seen[f] = true
	}
	for i, f := range other.Files {
		if seen[f] {
			continue
		}
		seen[f] = true
		r.Files = append(r.Files, f)
		r.Scenarios = append(r.Scenarios, other.Scenarios[i])
	}
	r.Errors = append(r.Errors, other.Errors...)
}

// Validator validates scenario files.
type Validator struct {
	includeTags []string
	excludeTags []string
}

// New creates a new Validator.
func New(includeTags, excludeTags []string) *Validator {
	return &Validator{
		includeTags: includeTags,
		excludeTags: excludeTags,
	}
}

// Validate validates a file, a directory or a glob pattern.
func (v *Validator) Validate(path string) *Result {
	result := &Result{}

	files, err := v.collect(path)
	if err != nil {
		result.Errors = append(result.Errors, &ValidationError{File: path, Message: err.Error()})
		return result
	}
	for _, file := range files {
		v.validateFile(file, result)
	}
	return result
}

// ValidateAll validates several paths into one result.
func (v *Validator) ValidateAll(paths []string) *Result {
	result := &Result{}
	for _, p := range paths {
		result.Merge(v.Validate(p))
	}
	return result
}

func (v *Validator) collect(path string) ([]string, error) {
	if strings.ContainsAny(path, "*?[") {
		matches, err := filepath.Glob(path)
		if err != nil {
			return nil, fmt.Errorf("bad pattern: %v", err)
		}
		var files []string
		for _, m := range matches {
			if scenario.IsScenarioFile(m) {
				files = append(files, m)
			}
		}
		if len(files) == 0 {
			return nil, fmt.Errorf("pattern matched no scenario files")
		}
		return files, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot access: %v", err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	files, err := collectScenarioFiles(path)
	if err != nil {
		return nil, fmt.Errorf("failed to scan directory: %v", err)
	}
	return files, nil
}

// collectScenarioFiles finds all .yaml/.yml files in a directory, in lexical
// order so runs are reproducible.
func collectScenarioFiles(dir string) ([]string, error) {
	var files []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if scenario.IsScenarioFile(path) && !isConfigFile(path) {
			files = append(files, path)
		}
		return nil
	})
	sort.Strings(files)
	return files, err
}

// isConfigFile skips a workspace config.yaml that lives next to scenarios.
func isConfigFile(path string) bool {
	base := filepath.Base(path)
	return base == "config.yaml" || base == "config.yml"
}

func (v *Validator) validateFile(filePath string, result *Result) {
	sc, err := scenario.ParseFile(filePath)
	if err != nil {
		result.Errors = append(result.Errors, &ValidationError{
			File:    filePath,
			Message: fmt.Sprintf("parse error: %v", err),
		})
		return
	}
	if !scenario.ShouldInclude(sc, v.includeTags, v.excludeTags) {
		return
	}
	if err := sc.Validate(); err != nil {
		result.Errors = append(result.Errors, &ValidationError{
			File:    filePath,
			Message: err.Error(),
		})
		return
	}
	result.Files = append(result.Files, filePath)
	result.Scenarios = append(result.Scenarios, sc)
}

var variableRef = regexp.MustCompile(`\$\{\s*([A-Za-z_][A-Za-z0-9_]*)\s*\}`)

// References returns the plain ${NAME} variables a scenario file uses,
// sorted and deduplicated. Script expressions such as ${a + b} are ignored.
func References(path string) ([]string, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- scenario path chosen by the user
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var names []string
	for _, m := range variableRef.FindAllStringSubmatch(string(data), -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	sort.Strings(names)
	return names, nil
}

// Unresolved returns the references in names that vars does not define.
func Unresolved(names []string, vars ...map[string]string) []string {
	var missing []string
	for _, n := range names {
		found := false
		for _, m := range vars {
			if _, ok := m[n]; ok {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, n)
		}
	}
	return missing
}
