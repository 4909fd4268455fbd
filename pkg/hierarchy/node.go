// Package hierarchy models an app's element tree: nodes with type, label,
// text and bounds, query matching with container scoping, and parsing of
// XCUITest page source XML.
package hierarchy

import (
	"encoding/json"
	"strings"

	"github.com/devicelab-dev/uiscript/pkg/core"
)

// xcuiPrefix is stripped from XCUITest element types.
const xcuiPrefix = "XCUIElementType"

// Node is one element of the tree.
type Node struct {
	Ref      string      `json:"ref,omitempty"` // Assigned by the tree's owner
	Type     string      `json:"type"`          // Button, Cell, StaticText, ...
	ID       string      `json:"id,omitempty"`  // Accessibility identifier
	Label    string      `json:"label,omitempty"`
	Value    string      `json:"value,omitempty"` // Text content
	Bounds   core.Bounds `json:"bounds"`
	Enabled  bool        `json:"enabled"`
	Visible  bool        `json:"visible"`
	Children []*Node     `json:"children,omitempty"`

	Parent *Node `json:"-"`
	Depth  int   `json:"-"`
}

// NormalizeType strips the XCUIElementType prefix: XCUIElementTypeButton
// becomes Button.
func NormalizeType(t string) string {
	return strings.TrimPrefix(t, xcuiPrefix)
}

// XCUIType returns the XCUITest spelling of a normalized type.
func XCUIType(t string) string {
	if t == "" || strings.HasPrefix(t, xcuiPrefix) {
		return t
	}
	return xcuiPrefix + t
}

// Add appends children and sets their parent links. It returns n.
func (n *Node) Add(children ...*Node) *Node {
	for _, c := range children {
		if c == nil {
			continue
		}
		c.Parent = n
		n.Children = append(n.Children, c)
	}
	return n
}

// Link sets Parent and Depth on every node below n. Trees built by
// decoding or by hand call it once before matching.
func (n *Node) Link() {
	var link func(node *Node, depth int)
	link = func(node *Node, depth int) {
		node.Depth = depth
		for _, c := range node.Children {
			c.Parent = node
			link(c, depth+1)
		}
	}
	link(n, n.Depth)
}

// Walk visits n and its descendants in document order. Returning false from
// fn skips the node's children.
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Flatten returns n and all descendants in document order.
func (n *Node) Flatten() []*Node {
	var out []*Node
	n.Walk(func(node *Node) bool {
		out = append(out, node)
		return true
	})
	return out
}

// FindRef returns the node with the given reference, or nil.
func (n *Node) FindRef(ref string) *Node {
	var found *Node
	n.Walk(func(node *Node) bool {
		if found != nil {
			return false
		}
		if node.Ref == ref {
			found = node
			return false
		}
		return true
	})
	return found
}

// IsDescendantOf returns true if ancestor is a strict ancestor of n.
func (n *Node) IsDescendantOf(ancestor *Node) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if p == ancestor {
			return true
		}
	}
	return false
}

// Displayed returns true if n and all its ancestors are visible.
func (n *Node) Displayed() bool {
	for p := n; p != nil; p = p.Parent {
		if !p.Visible {
			return false
		}
	}
	return true
}

// Info converts n to the element info reported to the runner. screen is
// used to compute the visible fraction.
func (n *Node) Info(screen core.Bounds) *core.ElementInfo {
	info := &core.ElementInfo{
		Ref:     n.Ref,
		ID:      n.ID,
		Label:   n.Label,
		Text:    n.Value,
		Type:    n.Type,
		Bounds:  n.Bounds,
		Visible: n.Displayed(),
		Enabled: n.Enabled,
	}
	if info.Visible {
		if screen.Area() == 0 {
			info.VisibleFraction = 1
		} else {
			info.VisibleFraction = n.Bounds.VisibleFraction(screen)
		}
	}
	return info
}

// JSON encodes the tree rooted at n.
func (n *Node) JSON() ([]byte, error) {
	return json.MarshalIndent(n, "", "  ")
}
