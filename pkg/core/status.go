package core

// StepStatus represents the execution status of a step
type StepStatus int

const (
	StatusPending   StepStatus = iota // Not yet started
	StatusRunning                     // Currently executing
	StatusPassed                      // Completed successfully
	StatusFailed                      // Assertion failed (expected behavior didn't occur)
	StatusErrored                     // Unexpected error (infrastructure, timeout, crash)
	StatusSkipped                     // Condition not met or previous step failed
	StatusWarned                      // Optional step failed (non-blocking)
)

// String returns the string representation of StepStatus
func (s StepStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusPassed:
		return "passed"
	case StatusFailed:
		return "failed"
	case StatusErrored:
		return "errored"
	case StatusSkipped:
		return "skipped"
	case StatusWarned:
		return "warned"
	default:
		return "unknown"
	}
}

// IsTerminal returns true if the status is a final state
func (s StepStatus) IsTerminal() bool {
	switch s {
	case StatusPassed, StatusFailed, StatusErrored, StatusSkipped, StatusWarned:
		return true
	default:
		return false
	}
}

// IsSuccess returns true if the status indicates success (passed or warned)
func (s StepStatus) IsSuccess() bool {
	return s == StatusPassed || s == StatusWarned
}

// StatusForError maps a step error to a status. Scenario failures caused by
// the app's observable behavior are Failed; infrastructure problems and
// cancellation are Errored.
func StatusForError(err error) StepStatus {
	switch CategoryOf(err) {
	case ErrCategoryLookup, ErrCategoryTimeout, ErrCategoryAction, ErrCategoryAssertion:
		return StatusFailed
	default:
		return StatusErrored
	}
}

// ErrorCategory classifies the type of error for better debugging and reporting
type ErrorCategory int

const (
	ErrCategoryNone       ErrorCategory = iota // No error
	ErrCategoryLookup                          // Element not found or ambiguous
	ErrCategoryTimeout                         // Wait condition never held
	ErrCategoryAction                          // Gesture could not be performed
	ErrCategoryAssertion                       // Assertion did not hold
	ErrCategoryCancelled                       // Context cancelled by the caller
	ErrCategoryConnection                      // Automation server unreachable
	ErrCategoryConfig                          // Invalid scenario or configuration
)

// String returns the string representation of ErrorCategory
func (c ErrorCategory) String() string {
	switch c {
	case ErrCategoryNone:
		return "none"
	case ErrCategoryLookup:
		return "lookup"
	case ErrCategoryTimeout:
		return "timeout"
	case ErrCategoryAction:
		return "action"
	case ErrCategoryAssertion:
		return "assertion"
	case ErrCategoryCancelled:
		return "cancelled"
	case ErrCategoryConnection:
		return "connection"
	case ErrCategoryConfig:
		return "config"
	default:
		return "unknown"
	}
}

// MarshalText encodes the category by name in JSON reports.
func (c ErrorCategory) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// MarshalText encodes the status by name in JSON reports.
func (s StepStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
