package hierarchy

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// appiumRoot wraps the application element in Appium page source.
const appiumRoot = "AppiumAUT"

// ParseXML parses XCUITest page source, as returned by WDA's /source and
// Appium's XCUITest driver, into a linked tree.
// Attributes read:
// - type: XCUIElementTypeButton, XCUIElementTypeCell, etc.
// - name: accessibility identifier
// - label: accessibility label
// - value: current value
// - enabled, visible: states
// - x, y, width, height: bounds
func ParseXML(data []byte) (*Node, error) {
	decoder := xml.NewDecoder(strings.NewReader(string(data)))

	var root *Node
	var stack []*Node

	for {
		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if root != nil {
				// Truncated source still yields a usable tree.
				break
			}
			return nil, fmt.Errorf("parse page source: %w", err)
		}

		switch t := token.(type) {
		case xml.StartElement:
			if t.Name.Local == appiumRoot {
				continue
			}
			n := nodeFromElement(t)
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("parse page source: multiple root elements")
				}
				root = n
			} else {
				stack[len(stack)-1].Add(n)
			}
			stack = append(stack, n)

		case xml.EndElement:
			if t.Name.Local == appiumRoot || len(stack) == 0 {
				continue
			}
			stack = stack[:len(stack)-1]
		}
	}

	if root == nil {
		return nil, fmt.Errorf("no elements found in page source")
	}
	root.Link()
	return root, nil
}

func nodeFromElement(t xml.StartElement) *Node {
	n := &Node{
		Type:    NormalizeType(t.Name.Local),
		Enabled: true, // default
		Visible: true, // default
	}

	for _, attr := range t.Attr {
		switch attr.Name.Local {
		case "type":
			n.Type = NormalizeType(attr.Value)
		case "name":
			n.ID = attr.Value
		case "label":
			n.Label = attr.Value
		case "value":
			n.Value = attr.Value
		case "enabled":
			n.Enabled = attr.Value == "true"
		case "visible":
			n.Visible = attr.Value == "true"
		case "x":
			n.Bounds.X = atoi(attr.Value)
		case "y":
			n.Bounds.Y = atoi(attr.Value)
		case "width":
			n.Bounds.Width = atoi(attr.Value)
		case "height":
			n.Bounds.Height = atoi(attr.Value)
		}
	}
	return n
}

// atoi parses integer attributes. WDA sometimes reports fractional points.
func atoi(s string) int {
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f)
	}
	return 0
}
