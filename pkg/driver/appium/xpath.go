package appium

import (
	"fmt"
	"strings"

	"github.com/devicelab-dev/uiscript/pkg/hierarchy"
	"github.com/devicelab-dev/uiscript/pkg/scenario"
)

// XPath translates a query into an XPath over XCUITest page source.
// Scoping becomes a descendant axis:
//
//	//XCUIElementTypeTable[@name="Bookmarks"]//XCUIElementTypeCell[@label="Page 1"]
//
// The query's own index is left to the caller; container indexes select one
// container with a 1-based positional predicate.
func XPath(q scenario.ElementQuery) string {
	step := "//" + xpathStep(q)
	if q.Within == nil {
		return step
	}
	container := XPath(*q.Within)
	if q.Within.Index != nil {
		container = fmt.Sprintf("(%s)[%d]", container, *q.Within.Index+1)
	}
	return container + step
}

func xpathStep(q scenario.ElementQuery) string {
	typ := "*"
	if q.Type != "" {
		typ = hierarchy.XCUIType(q.Type)
	}

	var preds []string
	if q.Label != "" {
		preds = append(preds, "@label="+literal(q.Label))
	}
	if q.ID != "" {
		preds = append(preds, "@name="+literal(q.ID))
	}
	if q.Text != "" {
		preds = append(preds, fmt.Sprintf("(@value=%s or @label=%s)", literal(q.Text), literal(q.Text)))
	}
	if len(preds) == 0 {
		return typ
	}
	return typ + "[" + strings.Join(preds, " and ") + "]"
}

// literal quotes s as an XPath 1.0 string literal. XPath has no escapes, so
// a value holding both quote characters is built with concat().
func literal(s string) string {
	switch {
	case !strings.Contains(s, `"`):
		return `"` + s + `"`
	case !strings.Contains(s, `'`):
		return `'` + s + `'`
	}
	parts := strings.Split(s, `"`)
	quoted := make([]string, 0, 2*len(parts)-1)
	for i, p := range parts {
		if i > 0 {
			quoted = append(quoted, `'"'`)
		}
		if p != "" {
			quoted = append(quoted, `"`+p+`"`)
		}
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}
