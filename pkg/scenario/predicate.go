package scenario

import (
	"fmt"
)

// PredicateKind identifies a predicate variant.
type PredicateKind string

const (
	PredicateExists     PredicateKind = "exists"
	PredicateVisible    PredicateKind = "visible"
	PredicateNotVisible PredicateKind = "notVisible"
	PredicateTextEquals PredicateKind = "textEquals"
	PredicateScript     PredicateKind = "script"
)

// VisibleThreshold is the minimum visible fraction of an element's frame for
// it to count as sufficiently visible.
const VisibleThreshold = 0.75

// Predicate is a condition checked against the live UI each time it is
// evaluated. Element predicates are evaluated against a resolved element;
// script predicates are evaluated against target state.
type Predicate struct {
	Kind   PredicateKind
	Text   string // textEquals
	Script string // script
}

// Exists matches when the element is present in the tree.
func Exists() Predicate { return Predicate{Kind: PredicateExists} }

// Visible matches when at least VisibleThreshold of the element is on screen.
func Visible() Predicate { return Predicate{Kind: PredicateVisible} }

// NotVisible matches when the element is absent or not sufficiently visible.
func NotVisible() Predicate { return Predicate{Kind: PredicateNotVisible} }

// TextEquals matches when the element's text equals text exactly.
func TextEquals(text string) Predicate {
	return Predicate{Kind: PredicateTextEquals, Text: text}
}

// Script matches when the JavaScript expression evaluates truthy.
func Script(expr string) Predicate {
	return Predicate{Kind: PredicateScript, Script: expr}
}

// NeedsElement returns true if the predicate is checked against an element.
func (p Predicate) NeedsElement() bool {
	return p.Kind != PredicateScript
}

// AcceptsMissing returns true if the predicate can hold when no element
// matches the query.
func (p Predicate) AcceptsMissing() bool {
	return p.Kind == PredicateNotVisible
}

// Validate checks the predicate is well-formed.
func (p Predicate) Validate() error {
	switch p.Kind {
	case PredicateExists, PredicateVisible, PredicateNotVisible, PredicateTextEquals:
		return nil
	case PredicateScript:
		if p.Script == "" {
			return fmt.Errorf("script predicate requires an expression")
		}
		return nil
	case "":
		return fmt.Errorf("predicate kind is empty")
	default:
		return fmt.Errorf("unknown predicate %q", p.Kind)
	}
}

// Describe returns a human-readable description.
func (p Predicate) Describe() string {
	switch p.Kind {
	case PredicateTextEquals:
		return fmt.Sprintf("text == %q", p.Text)
	case PredicateScript:
		return fmt.Sprintf("script %q", p.Script)
	default:
		return string(p.Kind)
	}
}
