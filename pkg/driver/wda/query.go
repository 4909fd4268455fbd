package wda

import (
	"fmt"
	"strings"

	"github.com/devicelab-dev/uiscript/pkg/hierarchy"
	"github.com/devicelab-dev/uiscript/pkg/scenario"
)

// Locator strategy for class chain queries.
const usingClassChain = "class chain"

// ClassChain translates a query into an XCUITest class chain. Scoping
// becomes a descendant step:
//
//	**/XCUIElementTypeNavigationBar[`name == "Outline"`]/**/XCUIElementTypeButton[`label == "Done"`]
//
// The query's own index is left to the caller; container indexes become
// 1-based chain indexes.
func ClassChain(q scenario.ElementQuery) string {
	chain := "**/" + segment(q)
	if q.Within == nil {
		return chain
	}
	container := ClassChain(*q.Within)
	if q.Within.Index != nil {
		container += fmt.Sprintf("[%d]", *q.Within.Index+1)
	}
	return container + "/" + chain
}

func segment(q scenario.ElementQuery) string {
	typ := "*"
	if q.Type != "" {
		typ = hierarchy.XCUIType(q.Type)
	}

	var preds []string
	if q.Label != "" {
		preds = append(preds, "label == "+quote(q.Label))
	}
	if q.ID != "" {
		preds = append(preds, "name == "+quote(q.ID))
	}
	if q.Text != "" {
		preds = append(preds, fmt.Sprintf("(value == %s OR label == %s)", quote(q.Text), quote(q.Text)))
	}
	if len(preds) == 0 {
		return typ
	}
	return typ + "[`" + strings.Join(preds, " AND ") + "`]"
}

func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}
