package scenario

import (
	"fmt"
)

// Fixture names accepted in the scenario header.
const (
	FixtureQuickStart     = "quickStart"
	FixtureEmptyBookmarks = "emptyBookmarks"
)

// Scenario is one ordered, self-contained UI test flow. It is built fresh
// for each run and not modified while running.
type Scenario struct {
	Name       string
	SourcePath string
	Tags       []string
	Env        map[string]string

	// Launch resets the target to its initial screen before the first step.
	Launch bool

	// Fixture names the starting document the target should be built from.
	// Interpreted by whoever constructs the target; the runner ignores it.
	Fixture string

	Steps []Step

	// Verify holds final state checks, run after every step succeeded.
	Verify []Assertion
}

// New creates a scenario that launches the target and runs steps in order.
func New(name string, steps ...Step) *Scenario {
	return &Scenario{Name: name, Launch: true, Steps: steps}
}

// WithVerify appends final state checks and returns s.
func (s *Scenario) WithVerify(checks ...Assertion) *Scenario {
	s.Verify = append(s.Verify, checks...)
	return s
}

// WithTags appends tags and returns s.
func (s *Scenario) WithTags(tags ...string) *Scenario {
	s.Tags = append(s.Tags, tags...)
	return s
}

// HasTag returns true if the scenario carries tag.
func (s *Scenario) HasTag(tag string) bool {
	for _, t := range s.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// StepError reports an invalid step.
type StepError struct {
	Index    int
	Location Location
	Err      error
}

func (e *StepError) Error() string {
	if e.Location.IsZero() {
		return fmt.Sprintf("step %d: %v", e.Index+1, e.Err)
	}
	return fmt.Sprintf("%s: step %d: %v", e.Location, e.Index+1, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// Validate checks every step and final check. It returns the first problem.
func (s *Scenario) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("scenario has no name")
	}
	if len(s.Steps) == 0 && len(s.Verify) == 0 {
		return fmt.Errorf("scenario %q has no steps", s.Name)
	}
	switch s.Fixture {
	case "", FixtureQuickStart, FixtureEmptyBookmarks:
	default:
		return fmt.Errorf("scenario %q: unknown fixture %q", s.Name, s.Fixture)
	}
	for i, step := range s.Steps {
		if err := step.Validate(); err != nil {
			return &StepError{Index: i, Location: step.Location, Err: err}
		}
	}
	for i, check := range s.Verify {
		if err := check.Validate(); err != nil {
			return &StepError{Index: len(s.Steps) + i, Location: check.Location, Err: err}
		}
	}
	return nil
}

// Expander replaces variable references in a string.
type Expander interface {
	ExpandVariables(s string) string
}

// Expand returns a deep copy of s with every query string, typed text and
// script passed through e. The receiver is left untouched.
func (s *Scenario) Expand(e Expander) *Scenario {
	out := *s
	out.Tags = append([]string(nil), s.Tags...)
	if s.Env != nil {
		out.Env = make(map[string]string, len(s.Env))
		for k, v := range s.Env {
			out.Env[k] = v
		}
	}

	out.Steps = make([]Step, len(s.Steps))
	for i, step := range s.Steps {
		out.Steps[i] = expandStep(step, e)
	}
	out.Verify = make([]Assertion, len(s.Verify))
	for i, check := range s.Verify {
		out.Verify[i] = expandAssertion(check, e)
	}
	return &out
}

func expandStep(s Step, e Expander) Step {
	if s.Query != nil {
		q := expandQuery(*s.Query, e)
		s.Query = &q
	}
	if s.WaitFor != nil {
		p := expandPredicate(*s.WaitFor, e)
		s.WaitFor = &p
	}
	if s.Action != nil {
		a := *s.Action
		a.Text = e.ExpandVariables(a.Text)
		s.Action = &a
	}
	if s.Assert != nil {
		a := expandAssertion(*s.Assert, e)
		s.Assert = &a
	}
	return s
}

func expandAssertion(a Assertion, e Expander) Assertion {
	if a.Subject != nil {
		q := expandQuery(*a.Subject, e)
		a.Subject = &q
	}
	a.Predicate = expandPredicate(a.Predicate, e)
	a.Reason = e.ExpandVariables(a.Reason)
	return a
}

func expandPredicate(p Predicate, e Expander) Predicate {
	p.Text = e.ExpandVariables(p.Text)
	return p
}

func expandQuery(q ElementQuery, e Expander) ElementQuery {
	q.Label = e.ExpandVariables(q.Label)
	q.Text = e.ExpandVariables(q.Text)
	q.ID = e.ExpandVariables(q.ID)
	if q.Index != nil {
		n := *q.Index
		q.Index = &n
	}
	if q.Within != nil {
		w := expandQuery(*q.Within, e)
		q.Within = &w
	}
	return q
}
