package appium

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/devicelab-dev/uiscript/pkg/core"
	"github.com/devicelab-dev/uiscript/pkg/scenario"
)

type fakeElement struct {
	attrs              map[string]string
	text               string
	rect               [4]float64
	displayed, enabled bool
}

// fakeAppium serves elements for xpaths registered in found.
type fakeAppium struct {
	mu       sync.Mutex
	elements map[string]*fakeElement
	found    map[string][]string
	requests []string
}

func newFakeAppium(t *testing.T) (*fakeAppium, *Driver) {
	t.Helper()
	f := &fakeAppium{elements: map[string]*fakeElement{}, found: map[string][]string{}}
	server := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(server.Close)

	caps := map[string]interface{}{
		"platformName":           "iOS",
		"appium:bundleId":        "com.pspdfkit.UITestingComparison",
		"appium:deviceName":      "iPhone 15",
		"appium:platformVersion": "17.2",
	}
	d, err := NewDriver(context.Background(), server.URL, caps)
	if err != nil {
		t.Fatalf("NewDriver() error: %v", err)
	}
	return f, d
}

func (f *fakeAppium) log() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

func (f *fakeAppium) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var body map[string]interface{}
	json.NewDecoder(r.Body).Decode(&body)
	path := strings.TrimPrefix(r.URL.Path, "/session/s1")
	entry := r.Method + " " + path
	if script, ok := body["script"].(string); ok {
		entry += " " + script
	}
	f.requests = append(f.requests, entry)

	switch {
	case r.URL.Path == "/session":
		writeJSON(w, map[string]interface{}{"value": map[string]interface{}{
			"sessionId":    "s1",
			"capabilities": map[string]interface{}{"platformName": "iOS"},
		}})
		return
	case path == "/window/rect":
		writeJSON(w, map[string]interface{}{"value": map[string]interface{}{"width": 390.0, "height": 844.0}})
		return
	case path == "/elements":
		var found []interface{}
		for _, id := range f.found[body["value"].(string)] {
			found = append(found, map[string]interface{}{w3cElementKey: id})
		}
		writeJSON(w, map[string]interface{}{"value": found})
		return
	case path == "/source":
		writeJSON(w, map[string]interface{}{"value": `<AppiumAUT><XCUIElementTypeApplication name="App" x="0" y="0" width="390" height="844"/></AppiumAUT>`})
		return
	case !strings.HasPrefix(path, "/element/"):
		writeJSON(w, map[string]interface{}{"value": nil})
		return
	}

	parts := strings.SplitN(strings.TrimPrefix(path, "/element/"), "/", 2)
	e, ok := f.elements[parts[0]]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		writeJSON(w, map[string]interface{}{"value": map[string]interface{}{
			"error": "stale element reference", "message": "gone",
		}})
		return
	}
	var value interface{}
	switch {
	case parts[1] == "rect":
		value = map[string]interface{}{"x": e.rect[0], "y": e.rect[1], "width": e.rect[2], "height": e.rect[3]}
	case parts[1] == "displayed":
		value = e.displayed
	case parts[1] == "enabled":
		value = e.enabled
	case parts[1] == "text":
		value = e.text
	case strings.HasPrefix(parts[1], "attribute/"):
		value = e.attrs[strings.TrimPrefix(parts[1], "attribute/")]
	}
	writeJSON(w, map[string]interface{}{"value": value})
}

func TestDriver_NewDriverPlatformInfo(t *testing.T) {
	_, d := newFakeAppium(t)

	info := d.PlatformInfo()
	if info.Engine != "appium" || info.Platform != "ios" || info.AppID != "com.pspdfkit.UITestingComparison" {
		t.Errorf("PlatformInfo() = %+v", info)
	}
	if info.OSVersion != "17.2" || info.DeviceName != "iPhone 15" || !info.IsSimulator {
		t.Errorf("PlatformInfo() = %+v", info)
	}
	if info.ScreenWidth != 390 || info.ScreenHeight != 844 {
		t.Errorf("screen = %dx%d", info.ScreenWidth, info.ScreenHeight)
	}
}

func TestDriver_Launch(t *testing.T) {
	f, d := newFakeAppium(t)

	if err := d.Launch(context.Background()); err != nil {
		t.Fatalf("Launch() error: %v", err)
	}
	log := f.log()
	got := log[len(log)-2:]
	want := []string{"POST /execute/sync mobile: terminateApp", "POST /execute/sync mobile: launchApp"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("requests = %v, want %v", got, want)
	}
}

func TestDriver_Query(t *testing.T) {
	f, d := newFakeAppium(t)
	f.elements["el-1"] = &fakeElement{
		attrs:     map[string]string{"label": "Page 1", "type": "XCUIElementTypeCell"},
		rect:      [4]float64{0, 91, 390, 44},
		displayed: true, enabled: true,
	}
	q := scenario.Label("Page 1").In(scenario.ID("Bookmarks"))
	f.found[XPath(q)] = []string{"el-1", "el-gone"}

	matches, err := d.Query(context.Background(), q.AtIndex(0))
	if err != nil {
		t.Fatalf("Query() error: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("matches = %d, want 1 (stale one skipped)", len(matches))
	}
	m := matches[0]
	if m.Ref != "el-1" || m.Type != "Cell" || m.Label != "Page 1" || !m.SufficientlyVisible() {
		t.Errorf("match = %+v", m)
	}
}

func TestDriver_Perform(t *testing.T) {
	tests := []struct {
		name   string
		action scenario.Action
		want   string
	}{
		{"tap", scenario.TapAction(), "POST /element/el-1/click"},
		{"double tap", scenario.DoubleTapAction(), "POST /actions"},
		{"long press", scenario.LongPressAction(0), "POST /actions"},
		{"swipe", scenario.SwipeAction(scenario.DirectionLeft), "POST /actions"},
		{"type text", scenario.TypeTextAction("PSPDF"), "POST /element/el-1/value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, d := newFakeAppium(t)
			f.elements["el-1"] = &fakeElement{rect: [4]float64{0, 91, 390, 44}, displayed: true, enabled: true}

			if err := d.Perform(context.Background(), "el-1", tt.action); err != nil {
				t.Fatalf("Perform() error: %v", err)
			}
			log := f.log()
			if got := log[len(log)-1]; got != tt.want {
				t.Errorf("last request = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestDriver_PerformErrors(t *testing.T) {
	_, d := newFakeAppium(t)
	ctx := context.Background()

	if err := d.Perform(ctx, "el-gone", scenario.TapAction()); !errors.Is(err, core.ErrStale) {
		t.Errorf("Perform on gone element error = %v, want ErrStale", err)
	}
	if err := d.Perform(ctx, "el-1", scenario.WaitAction(0)); !errors.Is(err, core.ErrUnsupportedAction) {
		t.Errorf("Perform(wait) error = %v, want ErrUnsupportedAction", err)
	}
}

func TestDriver_Hierarchy(t *testing.T) {
	_, d := newFakeAppium(t)

	tree, err := d.Hierarchy(context.Background())
	if err != nil {
		t.Fatalf("Hierarchy() error: %v", err)
	}
	if !strings.Contains(string(tree), `"type": "Application"`) {
		t.Errorf("hierarchy = %s", tree)
	}
}
