// Package report writes suite results to disk.
//
// Layout:
//   - report.json: index with run status, summary and one entry per scenario
//   - scenarios/scenario-XXX.json: per-scenario step details
//   - assets/scenario-XXX/: failure artifacts (screenshots, element trees)
//   - junit-report.xml: optional JUnit rendering of the same data
package report

import "time"

// Version is the report schema version.
const Version = "1.0.0"

// Status represents the execution status.
type Status string

// Status values.
const (
	StatusPassed  Status = "passed"
	StatusWarned  Status = "warned"
	StatusFailed  Status = "failed"
	StatusErrored Status = "errored"
	StatusSkipped Status = "skipped"
)

// IsFailure reports whether the status counts as a failed test.
func (s Status) IsFailure() bool {
	return s == StatusFailed || s == StatusErrored
}

// ============================================================================
// INDEX (report.json)
// ============================================================================

// Index is the main report file that binds everything together.
type Index struct {
	Version   string          `json:"version"`
	RunID     string          `json:"runId"`
	Name      string          `json:"name,omitempty"`
	Status    Status          `json:"status"`
	StartTime time.Time       `json:"startTime"`
	EndTime   *time.Time      `json:"endTime,omitempty"`
	Duration  int64           `json:"duration"` // milliseconds
	Device    Device          `json:"device"`
	App       App             `json:"app"`
	Runner    RunnerInfo      `json:"runner"`
	Summary   Summary         `json:"summary"`
	Scenarios []ScenarioEntry `json:"scenarios"`
}

// Device contains device information.
type Device struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Platform    string `json:"platform"`
	OSVersion   string `json:"osVersion,omitempty"`
	IsSimulator bool   `json:"isSimulator"`
}

// App contains application information.
type App struct {
	ID string `json:"id"` // Bundle ID
}

// RunnerInfo describes the uiscript build that produced the report.
type RunnerInfo struct {
	Version string `json:"version"`
	Target  string `json:"target"` // sample, wda, appium
}

// Summary contains aggregated counts.
type Summary struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// ScenarioEntry is the index entry for a scenario (minimal info).
type ScenarioEntry struct {
	Index      int         `json:"index"`
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	SourceFile string      `json:"sourceFile,omitempty"`
	DataFile   string      `json:"dataFile"`
	AssetsDir  string      `json:"assetsDir"`
	Target     string      `json:"target,omitempty"`
	Device     *Device     `json:"device,omitempty"` // Set when it differs from the index device
	Status     Status      `json:"status"`
	Duration   int64       `json:"duration"` // milliseconds
	Steps      StepSummary `json:"steps"`
	Error      *string     `json:"error,omitempty"`
	Location   string      `json:"location,omitempty"` // file:line of the failing step
}

// StepSummary contains step counts for a scenario.
type StepSummary struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
	Warned  int `json:"warned"`
}

// ============================================================================
// SCENARIO DETAIL (scenarios/scenario-XXX.json)
// ============================================================================

// ScenarioDetail contains full scenario execution details.
type ScenarioDetail struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	SourceFile string    `json:"sourceFile,omitempty"`
	Tags       []string  `json:"tags,omitempty"`
	StartTime  time.Time `json:"startTime"`
	Duration   int64     `json:"duration"` // milliseconds
	Steps      []Step    `json:"steps"`
}

// Step represents a single executed step or final check.
type Step struct {
	Index       int        `json:"index"`
	Description string     `json:"description"`
	Location    string     `json:"location,omitempty"`
	Verify      bool       `json:"verify,omitempty"`
	Status      Status     `json:"status"`
	Duration    int64      `json:"duration"` // milliseconds
	Message     string     `json:"message,omitempty"`
	Element     *Element   `json:"element,omitempty"`
	Error       *Error     `json:"error,omitempty"`
	Artifacts   []Artifact `json:"artifacts,omitempty"`
}

// Element contains information about the element a step acted on.
type Element struct {
	Ref    string  `json:"ref,omitempty"`
	Type   string  `json:"type,omitempty"`
	Label  string  `json:"label,omitempty"`
	Text   string  `json:"text,omitempty"`
	Bounds *Bounds `json:"bounds,omitempty"`
}

// Bounds represents element bounds.
type Bounds struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Error contains error details.
type Error struct {
	Type    string `json:"type"` // lookup, timeout, action, assertion, cancelled, connection, config
	Message string `json:"message"`
}

// Artifact is a file written under the scenario's assets directory. Paths
// are relative to the report directory; data is never inlined.
type Artifact struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Path        string `json:"path"`
}
