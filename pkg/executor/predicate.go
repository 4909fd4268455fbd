package executor

import (
	"fmt"

	"github.com/devicelab-dev/uiscript/pkg/core"
	"github.com/devicelab-dev/uiscript/pkg/scenario"
)

// evaluate checks an element predicate against the element as observed. info
// is nil when the element is not in the tree. The second value describes
// what was observed, for failure messages.
func evaluate(info *core.ElementInfo, pred scenario.Predicate) (bool, string) {
	observed := observe(info)
	switch pred.Kind {
	case scenario.PredicateExists:
		return info != nil, observed
	case scenario.PredicateVisible:
		return info.SufficientlyVisible(), observed
	case scenario.PredicateNotVisible:
		return !info.SufficientlyVisible(), observed
	case scenario.PredicateTextEquals:
		return info != nil && elementText(info) == pred.Text, observed
	default:
		return false, fmt.Sprintf("unsupported predicate %q", pred.Kind)
	}
}

// elementText is the text compared by textEquals: the value, else the label.
func elementText(info *core.ElementInfo) string {
	if info.Text != "" {
		return info.Text
	}
	return info.Label
}

func observe(info *core.ElementInfo) string {
	if info == nil {
		return "not found"
	}
	switch {
	case !info.Visible:
		return fmt.Sprintf("%s hidden", info.Describe())
	case !info.SufficientlyVisible():
		return fmt.Sprintf("%s %.0f%% visible", info.Describe(), info.VisibleFraction*100)
	}
	return fmt.Sprintf("%s visible, text %q", info.Describe(), elementText(info))
}
