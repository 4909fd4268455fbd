package core

import (
	"time"

	"github.com/devicelab-dev/uiscript/pkg/scenario"
)

// StepResult captures the outcome of executing a single step or final check
type StepResult struct {
	// Identity
	Index       int               `json:"index"`       // 0-based position in scenario
	Description string            `json:"description"` // e.g. swipe left label="Page 1"[0]
	Location    scenario.Location `json:"location"`
	Verify      bool              `json:"verify,omitempty"` // Final state check

	// Status
	Status   StepStatus    `json:"status"`
	Category ErrorCategory `json:"errorCategory,omitempty"`

	// Timing
	StartTime time.Time     `json:"startTime"`
	Duration  time.Duration `json:"duration"`

	// Output
	Message string       `json:"message,omitempty"` // Human-readable explanation
	Element *ElementInfo `json:"element,omitempty"` // Element interacted with

	// Error details
	Error string `json:"error,omitempty"`
	Err   error  `json:"-"`

	// Debug artifacts
	Attachments []Attachment `json:"attachments,omitempty"`
}

// ScenarioResult captures the outcome of executing a scenario. A scenario
// either succeeds or fails at exactly one step.
type ScenarioResult struct {
	// Identity
	Name     string   `json:"name"`
	FilePath string   `json:"filePath,omitempty"`
	Tags     []string `json:"tags,omitempty"`
	Target   string   `json:"target,omitempty"` // Worker that ran the scenario

	// Platform info (captured once per scenario)
	PlatformInfo *PlatformInfo `json:"platformInfo,omitempty"`

	// Status (aggregated from steps)
	Status StepStatus `json:"status"`

	// Timing
	StartTime time.Time     `json:"startTime"`
	Duration  time.Duration `json:"duration"`

	// Results
	Steps []StepResult `json:"steps"`

	// FailedStep is the index of the step that ended the scenario, or -1.
	// Final checks are numbered after the last step.
	FailedStep int `json:"failedStep"`

	// Summary (computed)
	TotalSteps   int `json:"totalSteps"`
	PassedSteps  int `json:"passedSteps"`
	FailedSteps  int `json:"failedSteps"`
	SkippedSteps int `json:"skippedSteps"`
	WarnedSteps  int `json:"warnedSteps"`

	// Error info (if scenario failed)
	Err      error             `json:"-"`
	Error    string            `json:"error,omitempty"`
	Location scenario.Location `json:"location,omitempty"`
}

// Success returns true if the scenario ran to completion.
func (r *ScenarioResult) Success() bool {
	return r.Err == nil && r.Status.IsSuccess()
}

// ComputeSummary calculates step counts from the Steps slice
func (r *ScenarioResult) ComputeSummary() {
	r.TotalSteps = len(r.Steps)
	r.PassedSteps = 0
	r.FailedSteps = 0
	r.SkippedSteps = 0
	r.WarnedSteps = 0

	for _, step := range r.Steps {
		switch step.Status {
		case StatusPassed:
			r.PassedSteps++
		case StatusFailed, StatusErrored:
			r.FailedSteps++
		case StatusSkipped:
			r.SkippedSteps++
		case StatusWarned:
			r.WarnedSteps++
		}
	}
}

// AggregateStatus determines the scenario status from step results
// Rules:
// - Any errored step → StatusErrored
// - Any failed step → StatusFailed
// - All passed (with optional warned) → StatusPassed or StatusWarned
func (r *ScenarioResult) AggregateStatus() StepStatus {
	status := StatusPassed
	for _, step := range r.Steps {
		switch step.Status {
		case StatusErrored:
			return StatusErrored
		case StatusFailed:
			status = StatusFailed
		case StatusWarned:
			if status == StatusPassed {
				status = StatusWarned
			}
		}
	}
	return status
}

// SuiteResult captures the complete outcome of executing multiple scenarios
type SuiteResult struct {
	// Identity
	Name  string `json:"name"`
	RunID string `json:"runId"`

	// Timing
	StartTime time.Time     `json:"startTime"`
	Duration  time.Duration `json:"duration"`

	// Results
	Scenarios []ScenarioResult `json:"scenarios"`

	// Summary
	TotalScenarios   int `json:"totalScenarios"`
	PassedScenarios  int `json:"passedScenarios"`
	FailedScenarios  int `json:"failedScenarios"`
	SkippedScenarios int `json:"skippedScenarios"`
}

// ComputeSummary calculates scenario counts from the Scenarios slice
func (s *SuiteResult) ComputeSummary() {
	s.TotalScenarios = len(s.Scenarios)
	s.PassedScenarios = 0
	s.FailedScenarios = 0
	s.SkippedScenarios = 0

	for _, sc := range s.Scenarios {
		switch sc.Status {
		case StatusPassed, StatusWarned:
			s.PassedScenarios++
		case StatusFailed, StatusErrored:
			s.FailedScenarios++
		case StatusSkipped:
			s.SkippedScenarios++
		}
	}
}

// Success returns true if all scenarios passed (including warned)
func (s *SuiteResult) Success() bool {
	for _, sc := range s.Scenarios {
		if !sc.Status.IsSuccess() {
			return false
		}
	}
	return len(s.Scenarios) > 0
}
