package appium

import (
	"testing"

	"github.com/devicelab-dev/uiscript/pkg/scenario"
)

func TestXPath(t *testing.T) {
	tests := []struct {
		name  string
		query scenario.ElementQuery
		want  string
	}{
		{"label", scenario.Label("Thumbnails"), `//*[@label="Thumbnails"]`},
		{"type and id", scenario.ID("Search Document").OfType("SearchField"),
			`//XCUIElementTypeSearchField[@name="Search Document"]`},
		{"text", scenario.Text("No Bookmarks"),
			`//*[(@value="No Bookmarks" or @label="No Bookmarks")]`},
		{"label and type", scenario.Label("Done").OfType("Button"),
			`//XCUIElementTypeButton[@label="Done"]`},
		{"scoped", scenario.Label("Page 1").In(scenario.ID("Bookmarks").OfType("Table")),
			`//XCUIElementTypeTable[@name="Bookmarks"]//*[@label="Page 1"]`},
		{"container index", scenario.Type("Cell").In(scenario.Type("Table").AtIndex(0)),
			`(//XCUIElementTypeTable)[1]//XCUIElementTypeCell`},
		{"own index ignored", scenario.Label("Delete").AtIndex(2), `//*[@label="Delete"]`},
		{"double quote", scenario.Label(`Say "hi"`), `//*[@label='Say "hi"']`},
		{"both quotes", scenario.Label(`it's "x"`), `//*[@label=concat("it's ", '"', "x", '"')]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := XPath(tt.query); got != tt.want {
				t.Errorf("XPath() = %s, want %s", got, tt.want)
			}
		})
	}
}
