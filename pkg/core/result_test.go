package core

import (
	"testing"
)

func TestScenarioResult_ComputeSummary(t *testing.T) {
	r := &ScenarioResult{
		Steps: []StepResult{
			{Status: StatusPassed},
			{Status: StatusPassed},
			{Status: StatusWarned},
			{Status: StatusFailed},
			{Status: StatusSkipped},
			{Status: StatusSkipped},
		},
	}

	r.ComputeSummary()

	if r.TotalSteps != 6 {
		t.Errorf("TotalSteps = %d, want 6", r.TotalSteps)
	}
	if r.PassedSteps != 2 {
		t.Errorf("PassedSteps = %d, want 2", r.PassedSteps)
	}
	if r.WarnedSteps != 1 {
		t.Errorf("WarnedSteps = %d, want 1", r.WarnedSteps)
	}
	if r.FailedSteps != 1 {
		t.Errorf("FailedSteps = %d, want 1", r.FailedSteps)
	}
	if r.SkippedSteps != 2 {
		t.Errorf("SkippedSteps = %d, want 2", r.SkippedSteps)
	}
}

func TestScenarioResult_AggregateStatus(t *testing.T) {
	tests := []struct {
		name     string
		steps    []StepStatus
		expected StepStatus
	}{
		{"all passed", []StepStatus{StatusPassed, StatusPassed}, StatusPassed},
		{"with warned", []StepStatus{StatusPassed, StatusWarned}, StatusWarned},
		{"with failed", []StepStatus{StatusPassed, StatusFailed, StatusSkipped}, StatusFailed},
		{"failed after warned", []StepStatus{StatusWarned, StatusFailed}, StatusFailed},
		{"with errored", []StepStatus{StatusFailed, StatusErrored}, StatusErrored},
		{"empty", nil, StatusPassed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &ScenarioResult{}
			for _, s := range tt.steps {
				r.Steps = append(r.Steps, StepResult{Status: s})
			}
			if got := r.AggregateStatus(); got != tt.expected {
				t.Errorf("AggregateStatus() = %s, want %s", got, tt.expected)
			}
		})
	}
}

func TestScenarioResult_Success(t *testing.T) {
	ok := &ScenarioResult{Status: StatusPassed, FailedStep: -1}
	if !ok.Success() {
		t.Error("passed scenario should be a success")
	}

	failed := &ScenarioResult{Status: StatusFailed, FailedStep: 2, Err: ErrTimeout}
	if failed.Success() {
		t.Error("failed scenario should not be a success")
	}
}

func TestSuiteResult_ComputeSummary(t *testing.T) {
	s := &SuiteResult{
		Scenarios: []ScenarioResult{
			{Status: StatusPassed},
			{Status: StatusWarned},
			{Status: StatusFailed},
			{Status: StatusErrored},
			{Status: StatusSkipped},
		},
	}

	s.ComputeSummary()

	if s.TotalScenarios != 5 {
		t.Errorf("TotalScenarios = %d, want 5", s.TotalScenarios)
	}
	if s.PassedScenarios != 2 {
		t.Errorf("PassedScenarios = %d, want 2", s.PassedScenarios)
	}
	if s.FailedScenarios != 2 {
		t.Errorf("FailedScenarios = %d, want 2", s.FailedScenarios)
	}
	if s.SkippedScenarios != 1 {
		t.Errorf("SkippedScenarios = %d, want 1", s.SkippedScenarios)
	}
}

func TestSuiteResult_Success(t *testing.T) {
	tests := []struct {
		name      string
		scenarios []ScenarioResult
		expected  bool
	}{
		{"all passed", []ScenarioResult{{Status: StatusPassed}, {Status: StatusWarned}}, true},
		{"one failed", []ScenarioResult{{Status: StatusPassed}, {Status: StatusFailed}}, false},
		{"empty", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &SuiteResult{Scenarios: tt.scenarios}
			if got := s.Success(); got != tt.expected {
				t.Errorf("Success() = %v, want %v", got, tt.expected)
			}
		})
	}
}
