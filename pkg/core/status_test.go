package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestStepStatus_String(t *testing.T) {
	tests := []struct {
		status   StepStatus
		expected string
	}{
		{StatusPending, "pending"},
		{StatusRunning, "running"},
		{StatusPassed, "passed"},
		{StatusFailed, "failed"},
		{StatusErrored, "errored"},
		{StatusSkipped, "skipped"},
		{StatusWarned, "warned"},
		{StepStatus(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.status.String(); got != tt.expected {
			t.Errorf("StepStatus(%d).String() = %q, want %q", tt.status, got, tt.expected)
		}
	}
}

func TestStepStatus_IsTerminal(t *testing.T) {
	terminalStatuses := []StepStatus{StatusPassed, StatusFailed, StatusErrored, StatusSkipped, StatusWarned}
	nonTerminalStatuses := []StepStatus{StatusPending, StatusRunning}

	for _, s := range terminalStatuses {
		if !s.IsTerminal() {
			t.Errorf("StepStatus(%s).IsTerminal() = false, want true", s)
		}
	}
	for _, s := range nonTerminalStatuses {
		if s.IsTerminal() {
			t.Errorf("StepStatus(%s).IsTerminal() = true, want false", s)
		}
	}
}

func TestStepStatus_IsSuccess(t *testing.T) {
	successStatuses := []StepStatus{StatusPassed, StatusWarned}
	failureStatuses := []StepStatus{StatusPending, StatusRunning, StatusFailed, StatusErrored, StatusSkipped}

	for _, s := range successStatuses {
		if !s.IsSuccess() {
			t.Errorf("StepStatus(%s).IsSuccess() = false, want true", s)
		}
	}
	for _, s := range failureStatuses {
		if s.IsSuccess() {
			t.Errorf("StepStatus(%s).IsSuccess() = true, want false", s)
		}
	}
}

func TestErrorCategory_String(t *testing.T) {
	tests := []struct {
		category ErrorCategory
		expected string
	}{
		{ErrCategoryNone, "none"},
		{ErrCategoryLookup, "lookup"},
		{ErrCategoryTimeout, "timeout"},
		{ErrCategoryAction, "action"},
		{ErrCategoryAssertion, "assertion"},
		{ErrCategoryCancelled, "cancelled"},
		{ErrCategoryConnection, "connection"},
		{ErrCategoryConfig, "config"},
		{ErrorCategory(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.category.String(); got != tt.expected {
			t.Errorf("ErrorCategory(%d).String() = %q, want %q", tt.category, got, tt.expected)
		}
	}
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected StepStatus
	}{
		{"not found", ErrNotFound, StatusFailed},
		{"ambiguous", ErrAmbiguousMatch.WithMessage("two matches"), StatusFailed},
		{"timeout", ErrTimeout, StatusFailed},
		{"action", ErrActionFailed, StatusFailed},
		{"assertion wrapped", fmt.Errorf("step 3: %w", ErrAssertionFailed), StatusFailed},
		{"cancelled", ErrCancelled, StatusErrored},
		{"unreachable", ErrTargetUnreachable, StatusErrored},
		{"plain error", errors.New("boom"), StatusErrored},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusForError(tt.err); got != tt.expected {
				t.Errorf("StatusForError() = %s, want %s", got, tt.expected)
			}
		})
	}
}

func TestStepStatus_MarshalText(t *testing.T) {
	b, err := StatusWarned.MarshalText()
	if err != nil || string(b) != "warned" {
		t.Errorf("MarshalText() = %q, %v", b, err)
	}
}
