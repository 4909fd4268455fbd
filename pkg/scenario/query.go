// Package scenario defines the vocabulary of UI test scripts: element queries,
// predicates, actions, steps and scenarios, plus the YAML scenario format.
package scenario

import (
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ElementQuery identifies a target in the element tree of the app under test.
// Queries are values: the builder methods return modified copies and never
// mutate the receiver.
type ElementQuery struct {
	Label string `yaml:"label"` // Accessibility label
	Text  string `yaml:"text"`  // Visible text (static texts, cell titles)
	ID    string `yaml:"id"`    // Accessibility identifier
	Type  string `yaml:"type"`  // Element type: Button, Cell, NavigationBar, ...

	// Index picks one of several matches (0-based). Must be set explicitly
	// when a query matches more than one element.
	Index *int `yaml:"index"`

	// Within restricts matches to descendants of the element it matches.
	Within *ElementQuery `yaml:"within"`
}

// Label returns a query matching elements by accessibility label.
func Label(label string) ElementQuery {
	return ElementQuery{Label: label}
}

// Text returns a query matching elements by visible text.
func Text(text string) ElementQuery {
	return ElementQuery{Text: text}
}

// ID returns a query matching elements by accessibility identifier.
func ID(id string) ElementQuery {
	return ElementQuery{ID: id}
}

// Type returns a query matching elements by element type.
func Type(elemType string) ElementQuery {
	return ElementQuery{Type: elemType}
}

// WithLabel returns a copy of q that also requires the accessibility label.
func (q ElementQuery) WithLabel(label string) ElementQuery {
	q.Label = label
	return q
}

// OfType returns a copy of q that also requires the element type.
func (q ElementQuery) OfType(elemType string) ElementQuery {
	q.Type = elemType
	return q
}

// AtIndex returns a copy of q that picks the n-th match.
func (q ElementQuery) AtIndex(n int) ElementQuery {
	q.Index = &n
	return q
}

// In returns a copy of q scoped to descendants of container.
func (q ElementQuery) In(container ElementQuery) ElementQuery {
	c := container
	q.Within = &c
	return q
}

// WithoutIndex returns a copy of q with the index cleared.
// Targets receive index-free queries; the runner applies the index.
func (q ElementQuery) WithoutIndex() ElementQuery {
	q.Index = nil
	return q
}

// HasIndex reports whether an explicit index was given.
func (q ElementQuery) HasIndex() bool {
	return q.Index != nil
}

// IsEmpty returns true if no matching criteria are set.
func (q ElementQuery) IsEmpty() bool {
	return q.Label == "" && q.Text == "" && q.ID == "" && q.Type == ""
}

// Describe returns a human-readable description like
// label="Page 1"[0] in type=NavigationBar label="Outline".
func (q ElementQuery) Describe() string {
	var parts []string
	if q.Type != "" {
		parts = append(parts, "type="+q.Type)
	}
	if q.Label != "" {
		parts = append(parts, "label="+strconv.Quote(q.Label))
	}
	if q.Text != "" {
		parts = append(parts, "text="+strconv.Quote(q.Text))
	}
	if q.ID != "" {
		parts = append(parts, "id="+strconv.Quote(q.ID))
	}
	s := strings.Join(parts, " ")
	if s == "" {
		s = "<any>"
	}
	if q.Index != nil {
		s += "[" + strconv.Itoa(*q.Index) + "]"
	}
	if q.Within != nil {
		s += " in " + q.Within.Describe()
	}
	return s
}

// queryRaw mirrors ElementQuery for YAML decoding.
type queryRaw struct {
	Label  string        `yaml:"label"`
	Text   string        `yaml:"text"`
	ID     string        `yaml:"id"`
	Type   string        `yaml:"type"`
	Index  *int          `yaml:"index"`
	Within *ElementQuery `yaml:"within"`
}

// UnmarshalYAML allows a query to be written as a bare label or as a map.
func (q *ElementQuery) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*q = ElementQuery{Label: node.Value}
		return nil
	}

	var raw queryRaw
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*q = ElementQuery(raw)
	return nil
}
