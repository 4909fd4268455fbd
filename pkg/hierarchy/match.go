package hierarchy

import (
	"github.com/devicelab-dev/uiscript/pkg/scenario"
)

// Matches reports whether n satisfies the query's own criteria. Index and
// Within are ignored; Match applies scoping.
// Label and ID compare exactly. Text matches the node's value, or its label
// for elements whose label is their visible text. Type compares normalized
// types.
func Matches(n *Node, q scenario.ElementQuery) bool {
	if q.IsEmpty() {
		return false
	}
	if q.Label != "" && n.Label != q.Label {
		return false
	}
	if q.ID != "" && n.ID != q.ID {
		return false
	}
	if q.Type != "" && NormalizeType(n.Type) != NormalizeType(q.Type) {
		return false
	}
	if q.Text != "" && n.Value != q.Text && n.Label != q.Text {
		return false
	}
	return true
}

// Match returns every node under root that matches q, in document order.
// When q is scoped, only strict descendants of the matching containers are
// considered; a container query with an index selects one container.
// q.Index itself is not applied.
func Match(root *Node, q scenario.ElementQuery) []*Node {
	if root == nil {
		return nil
	}
	if q.Within == nil {
		return collect(root, q, nil)
	}

	containers := Match(root, *q.Within)
	if q.Within.Index != nil {
		i := *q.Within.Index
		if i < 0 || i >= len(containers) {
			return nil
		}
		containers = containers[i : i+1]
	}
	if len(containers) == 0 {
		return nil
	}

	seen := make(map[*Node]bool)
	var out []*Node
	for _, c := range containers {
		for _, child := range c.Children {
			out = append(out, collect(child, q, seen)...)
		}
	}
	return sortDocumentOrder(root, out)
}

func collect(root *Node, q scenario.ElementQuery, seen map[*Node]bool) []*Node {
	var out []*Node
	root.Walk(func(n *Node) bool {
		if seen != nil {
			if seen[n] {
				return false
			}
			seen[n] = true
		}
		if Matches(n, q) {
			out = append(out, n)
		}
		return true
	})
	return out
}

// sortDocumentOrder orders nodes as a walk from root would visit them.
// Nested containers can otherwise yield matches out of order.
func sortDocumentOrder(root *Node, nodes []*Node) []*Node {
	if len(nodes) < 2 {
		return nodes
	}
	want := make(map[*Node]bool, len(nodes))
	for _, n := range nodes {
		want[n] = true
	}
	out := make([]*Node, 0, len(nodes))
	root.Walk(func(n *Node) bool {
		if want[n] {
			out = append(out, n)
		}
		return true
	})
	return out
}
