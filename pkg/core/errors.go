package core

import (
	"errors"
	"fmt"

	"github.com/devicelab-dev/uiscript/pkg/scenario"
)

// ExecutionError represents a structured error with category and details.
// Two ExecutionErrors match under errors.Is when their codes are equal, so
// callers compare against the predefined sentinels.
type ExecutionError struct {
	Category ErrorCategory
	Code     string                 // Machine-readable code: not_found, timeout, etc.
	Message  string                 // Human-readable message
	Details  map[string]interface{} // Additional context
	Location scenario.Location      // Where the failing step or assertion was declared
	Cause    error                  // Underlying error
}

// Error implements the error interface
func (e *ExecutionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an ExecutionError with the same code.
func (e *ExecutionError) Is(target error) bool {
	t, ok := target.(*ExecutionError)
	return ok && t.Code == e.Code
}

func (e *ExecutionError) clone() *ExecutionError {
	c := *e
	return &c
}

// WithCause returns a copy of the error with the given cause
func (e *ExecutionError) WithCause(cause error) *ExecutionError {
	c := e.clone()
	c.Cause = cause
	return c
}

// WithMessage returns a copy of the error with a custom message
func (e *ExecutionError) WithMessage(msg string) *ExecutionError {
	c := e.clone()
	c.Message = msg
	return c
}

// WithMessagef returns a copy of the error with a formatted message
func (e *ExecutionError) WithMessagef(format string, args ...interface{}) *ExecutionError {
	return e.WithMessage(fmt.Sprintf(format, args...))
}

// WithLocation returns a copy of the error pointing at loc
func (e *ExecutionError) WithLocation(loc scenario.Location) *ExecutionError {
	c := e.clone()
	c.Location = loc
	return c
}

// WithDetails returns a copy of the error with additional details
func (e *ExecutionError) WithDetails(details map[string]interface{}) *ExecutionError {
	merged := make(map[string]interface{}, len(e.Details)+len(details))
	for k, v := range e.Details {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	c := e.clone()
	c.Details = merged
	return c
}

// Detail keys used by the runner
const (
	DetailQuery     = "query"
	DetailMatches   = "matches"
	DetailObserved  = "observed"
	DetailPredicate = "predicate"
	DetailTimeout   = "timeout"
	DetailAction    = "action"
)

// Predefined errors. All of them end the current scenario.
var (
	ErrNotFound = &ExecutionError{
		Category: ErrCategoryLookup,
		Code:     "not_found",
		Message:  "element not found",
	}
	ErrAmbiguousMatch = &ExecutionError{
		Category: ErrCategoryLookup,
		Code:     "ambiguous_match",
		Message:  "query matched more than one element",
	}
	ErrTimeout = &ExecutionError{
		Category: ErrCategoryTimeout,
		Code:     "timeout",
		Message:  "wait condition timed out",
	}
	ErrActionFailed = &ExecutionError{
		Category: ErrCategoryAction,
		Code:     "action_failed",
		Message:  "action failed",
	}
	ErrAssertionFailed = &ExecutionError{
		Category: ErrCategoryAssertion,
		Code:     "assertion_failed",
		Message:  "assertion failed",
	}
	ErrCancelled = &ExecutionError{
		Category: ErrCategoryCancelled,
		Code:     "cancelled",
		Message:  "execution cancelled",
	}
	ErrUnsupportedAction = &ExecutionError{
		Category: ErrCategoryAction,
		Code:     "unsupported_action",
		Message:  "action not supported by target",
	}
	ErrTargetUnreachable = &ExecutionError{
		Category: ErrCategoryConnection,
		Code:     "target_unreachable",
		Message:  "could not reach automation server",
	}
	ErrInvalidScenario = &ExecutionError{
		Category: ErrCategoryConfig,
		Code:     "invalid_scenario",
		Message:  "invalid scenario",
	}
)

// NewExecutionError creates a new ExecutionError with the given parameters
func NewExecutionError(category ErrorCategory, code, message string) *ExecutionError {
	return &ExecutionError{
		Category: category,
		Code:     code,
		Message:  message,
	}
}

// CategoryOf returns the category of err, or ErrCategoryNone for errors that
// are not ExecutionErrors.
func CategoryOf(err error) ErrorCategory {
	if ee, ok := AsExecutionError(err); ok {
		return ee.Category
	}
	return ErrCategoryNone
}

// LocationOf returns the location carried by err, if any.
func LocationOf(err error) scenario.Location {
	if ee, ok := AsExecutionError(err); ok {
		return ee.Location
	}
	return scenario.Location{}
}

// AsExecutionError returns the first ExecutionError in err's chain.
func AsExecutionError(err error) (*ExecutionError, bool) {
	var ee *ExecutionError
	if errors.As(err, &ee) {
		return ee, true
	}
	return nil, false
}
