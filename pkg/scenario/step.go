package scenario

import (
	"fmt"
	"strings"
	"time"
)

// Assertion is a predicate checked once, with the reason reported when it
// does not hold. Subject is nil for script assertions.
type Assertion struct {
	Subject   *ElementQuery
	Predicate Predicate
	Reason    string
	Location  Location
}

// Describe returns a human-readable description.
func (a Assertion) Describe() string {
	if a.Subject == nil {
		return "assert " + a.Predicate.Describe()
	}
	return fmt.Sprintf("assert %s %s", a.Subject.Describe(), a.Predicate.Describe())
}

// Validate checks that the assertion is well-formed.
func (a Assertion) Validate() error {
	if err := a.Predicate.Validate(); err != nil {
		return err
	}
	if a.Predicate.NeedsElement() {
		if a.Subject == nil {
			return fmt.Errorf("%s assertion requires an element", a.Predicate.Kind)
		}
		if a.Subject.IsEmpty() {
			return fmt.Errorf("%s assertion has an empty query", a.Predicate.Kind)
		}
	}
	return nil
}

// Step is one (query, precondition, action, assertion) unit of a scenario.
// Every part is optional, but a step must do something.
type Step struct {
	// Query is the element the step waits for and acts on.
	Query *ElementQuery

	// WaitFor is the precondition polled before acting. Nil means the
	// runner's default: sufficiently visible for element actions.
	WaitFor *Predicate

	// Timeout bounds the precondition wait. Zero uses the runner default.
	Timeout time.Duration

	Action *Action
	Assert *Assertion

	// Optional steps log their failure and let the scenario continue.
	Optional bool

	Location Location
}

// Tap returns a step tapping the element matched by q.
func Tap(q ElementQuery) Step {
	a := TapAction()
	return Step{Query: &q, Action: &a, Location: Caller(1)}
}

// DoubleTap returns a step double-tapping the element matched by q.
func DoubleTap(q ElementQuery) Step {
	a := DoubleTapAction()
	return Step{Query: &q, Action: &a, Location: Caller(1)}
}

// LongPress returns a step pressing the element matched by q for d.
func LongPress(q ElementQuery, d time.Duration) Step {
	a := LongPressAction(d)
	return Step{Query: &q, Action: &a, Location: Caller(1)}
}

// Swipe returns a step swiping the element matched by q.
func Swipe(q ElementQuery, dir Direction) Step {
	a := SwipeAction(dir)
	return Step{Query: &q, Action: &a, Location: Caller(1)}
}

// TypeText returns a step typing text into the element matched by q.
func TypeText(q ElementQuery, text string) Step {
	a := TypeTextAction(text)
	return Step{Query: &q, Action: &a, Location: Caller(1)}
}

// Wait returns a step pausing for d.
func Wait(d time.Duration) Step {
	a := WaitAction(d)
	return Step{Action: &a, Location: Caller(1)}
}

// WaitFor returns a step polling until the element matched by q satisfies p.
func WaitFor(q ElementQuery, p Predicate) Step {
	return Step{Query: &q, WaitFor: &p, Location: Caller(1)}
}

// WaitForScript returns a step polling until expr evaluates truthy.
func WaitForScript(expr string) Step {
	p := Script(expr)
	return Step{WaitFor: &p, Location: Caller(1)}
}

// AssertThat returns a step asserting p for the element matched by q.
func AssertThat(q ElementQuery, p Predicate, reason string) Step {
	loc := Caller(1)
	return Step{
		Assert:   &Assertion{Subject: &q, Predicate: p, Reason: reason, Location: loc},
		Location: loc,
	}
}

// AssertScript returns a step asserting that expr evaluates truthy against
// the target state.
func AssertScript(expr, reason string) Step {
	loc := Caller(1)
	return Step{
		Assert:   &Assertion{Predicate: Script(expr), Reason: reason, Location: loc},
		Location: loc,
	}
}

// Check returns a final state check for Scenario.Verify.
func Check(q ElementQuery, p Predicate, reason string) Assertion {
	return Assertion{Subject: &q, Predicate: p, Reason: reason, Location: Caller(1)}
}

// CheckScript returns a script final state check.
func CheckScript(expr, reason string) Assertion {
	return Assertion{Predicate: Script(expr), Reason: reason, Location: Caller(1)}
}

// Within returns a copy of the step with its precondition wait bounded by d.
func (s Step) Within(d time.Duration) Step {
	s.Timeout = d
	return s
}

// When returns a copy of the step that waits for p before acting.
func (s Step) When(p Predicate) Step {
	s.WaitFor = &p
	return s
}

// Then returns a copy of the step that asserts p on the step's element
// after acting.
func (s Step) Then(p Predicate, reason string) Step {
	a := Assertion{Subject: s.Query, Predicate: p, Reason: reason, Location: s.Location}
	if !p.NeedsElement() {
		a.Subject = nil
	}
	s.Assert = &a
	return s
}

// AsOptional returns a copy of the step whose failure does not end the
// scenario.
func (s Step) AsOptional() Step {
	s.Optional = true
	return s
}

// Validate checks that the step is well-formed.
func (s Step) Validate() error {
	if s.Query == nil && s.WaitFor == nil && s.Action == nil && s.Assert == nil {
		return fmt.Errorf("step does nothing")
	}
	if s.Query != nil && s.Query.IsEmpty() {
		return fmt.Errorf("empty element query")
	}
	if s.Action != nil {
		if err := s.Action.Validate(); err != nil {
			return err
		}
		if s.Action.NeedsElement() && s.Query == nil {
			return fmt.Errorf("%s requires an element", s.Action.Kind)
		}
	}
	if s.WaitFor != nil {
		if err := s.WaitFor.Validate(); err != nil {
			return err
		}
		if s.WaitFor.NeedsElement() && s.Query == nil {
			return fmt.Errorf("waiting for %s requires an element", s.WaitFor.Kind)
		}
	}
	if s.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	if s.Assert != nil {
		if err := s.Assert.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Describe returns a human-readable description like
// `swipe left label="Page 1"[0]`.
func (s Step) Describe() string {
	var parts []string
	if s.Action != nil {
		part := s.Action.Describe()
		if s.Query != nil {
			part += " " + s.Query.Describe()
		}
		parts = append(parts, part)
	} else if s.WaitFor != nil {
		part := "waitFor " + s.WaitFor.Describe()
		if s.Query != nil {
			part = "waitFor " + s.Query.Describe() + " " + s.WaitFor.Describe()
		}
		parts = append(parts, part)
	}
	if s.Assert != nil {
		parts = append(parts, s.Assert.Describe())
	}
	return strings.Join(parts, ", then ")
}
