package wda

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// mockWDAServer creates a mock WDA server for testing
func mockWDAServer(handler http.HandlerFunc) *httptest.Server {
	return httptest.NewServer(handler)
}

// jsonResponse writes a JSON response
func jsonResponse(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func testClient(server *httptest.Server, session string) *Client {
	return &Client{
		baseURL:    server.URL,
		httpClient: http.DefaultClient,
		sessionID:  session,
	}
}

func TestNewClient(t *testing.T) {
	client := NewClient(8100)
	if client.baseURL != "http://localhost:8100" {
		t.Errorf("Expected baseURL 'http://localhost:8100', got '%s'", client.baseURL)
	}
	if client.httpClient == nil {
		t.Error("Expected httpClient to be initialized")
	}

	if got := NewClientURL("http://10.0.0.5:8100/").baseURL; got != "http://10.0.0.5:8100" {
		t.Errorf("Expected trailing slash trimmed, got '%s'", got)
	}
}

func TestCreateSession(t *testing.T) {
	tests := []struct {
		name     string
		response map[string]interface{}
		want     string
		wantErr  bool
	}{
		{
			name:     "w3c",
			response: map[string]interface{}{"value": map[string]interface{}{"sessionId": "test-session-123"}},
			want:     "test-session-123",
		},
		{
			name:     "legacy",
			response: map[string]interface{}{"sessionId": "alternate-session-456"},
			want:     "alternate-session-456",
		},
		{
			name:     "missing id",
			response: map[string]interface{}{"value": map[string]interface{}{}},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := mockWDAServer(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != "POST" || r.URL.Path != "/session" {
					t.Errorf("Expected POST /session, got %s %s", r.Method, r.URL.Path)
				}
				body, _ := io.ReadAll(r.Body)
				if !strings.Contains(string(body), "com.example.app") {
					t.Errorf("Expected bundleId in capabilities, got %s", body)
				}
				jsonResponse(w, tt.response)
			})
			defer server.Close()

			client := testClient(server, "")
			err := client.CreateSession(context.Background(), "com.example.app")
			if (err != nil) != tt.wantErr {
				t.Fatalf("CreateSession error = %v, wantErr %v", err, tt.wantErr)
			}
			if client.sessionID != tt.want {
				t.Errorf("Expected sessionID '%s', got '%s'", tt.want, client.sessionID)
			}
		})
	}
}

func TestDeleteSession(t *testing.T) {
	server := mockWDAServer(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "DELETE" || r.URL.Path != "/session/test-session" {
			t.Errorf("Expected DELETE /session/test-session, got %s %s", r.Method, r.URL.Path)
		}
		jsonResponse(w, map[string]interface{}{"value": nil})
	})
	defer server.Close()

	client := testClient(server, "test-session")
	if err := client.DeleteSession(context.Background()); err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}
	if client.HasSession() {
		t.Error("Expected session to be cleared")
	}

	// No session: no request.
	if err := client.DeleteSession(context.Background()); err != nil {
		t.Errorf("DeleteSession should not fail when no session: %v", err)
	}
}

func TestAppLifecycle(t *testing.T) {
	var paths []string
	server := mockWDAServer(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		if body["bundleId"] != "com.example.app" {
			t.Errorf("Expected bundleId, got %v", body)
		}
		jsonResponse(w, map[string]interface{}{"value": nil})
	})
	defer server.Close()

	client := testClient(server, "s1")
	ctx := context.Background()
	if err := client.TerminateApp(ctx, "com.example.app"); err != nil {
		t.Fatalf("TerminateApp failed: %v", err)
	}
	if err := client.LaunchApp(ctx, "com.example.app"); err != nil {
		t.Fatalf("LaunchApp failed: %v", err)
	}

	want := []string{"/session/s1/wda/apps/terminate", "/session/s1/wda/apps/launch"}
	if strings.Join(paths, ",") != strings.Join(want, ",") {
		t.Errorf("paths = %v, want %v", paths, want)
	}
}

func TestFindElements(t *testing.T) {
	server := mockWDAServer(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/session/s1/elements" {
			t.Errorf("Expected /session/s1/elements, got %s", r.URL.Path)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["using"] != "class chain" || body["value"] != "**/XCUIElementTypeCell" {
			t.Errorf("unexpected locator %v", body)
		}
		jsonResponse(w, map[string]interface{}{
			"value": []interface{}{
				map[string]interface{}{"ELEMENT": "legacy-1"},
				map[string]interface{}{"element-6066-11e4-a52e-4f735466cecf": "w3c-2"},
			},
		})
	})
	defer server.Close()

	ids, err := testClient(server, "s1").FindElements(context.Background(), "class chain", "**/XCUIElementTypeCell")
	if err != nil {
		t.Fatalf("FindElements failed: %v", err)
	}
	if len(ids) != 2 || ids[0] != "legacy-1" || ids[1] != "w3c-2" {
		t.Errorf("ids = %v", ids)
	}
}

func TestElementState(t *testing.T) {
	server := mockWDAServer(func(w http.ResponseWriter, r *http.Request) {
		var value interface{}
		switch strings.TrimPrefix(r.URL.Path, "/session/s1/element/e1") {
		case "/rect":
			value = map[string]interface{}{"x": 10.0, "y": 20.0, "width": 100.0, "height": 44.0}
		case "/displayed", "/enabled":
			value = true
		case "/text":
			value = "Page 1"
		case "/name":
			value = "XCUIElementTypeCell"
		case "/attribute/label":
			value = "Page 1"
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		jsonResponse(w, map[string]interface{}{"value": value})
	})
	defer server.Close()

	client := testClient(server, "s1")
	ctx := context.Background()

	x, y, width, height, err := client.ElementRect(ctx, "e1")
	if err != nil || x != 10 || y != 20 || width != 100 || height != 44 {
		t.Errorf("ElementRect = %d,%d,%d,%d, %v", x, y, width, height, err)
	}
	if ok, err := client.ElementDisplayed(ctx, "e1"); !ok || err != nil {
		t.Errorf("ElementDisplayed = %v, %v", ok, err)
	}
	if ok, err := client.ElementEnabled(ctx, "e1"); !ok || err != nil {
		t.Errorf("ElementEnabled = %v, %v", ok, err)
	}
	if text, _ := client.ElementText(ctx, "e1"); text != "Page 1" {
		t.Errorf("ElementText = %q", text)
	}
	if typ, _ := client.ElementType(ctx, "e1"); typ != "XCUIElementTypeCell" {
		t.Errorf("ElementType = %q", typ)
	}
	if label, _ := client.ElementAttribute(ctx, "e1", "label"); label != "Page 1" {
		t.Errorf("ElementAttribute = %q", label)
	}
}

func TestElementActions(t *testing.T) {
	type request struct {
		path string
		body map[string]interface{}
	}
	var got []request
	server := mockWDAServer(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		got = append(got, request{r.URL.Path, body})
		jsonResponse(w, map[string]interface{}{"value": nil})
	})
	defer server.Close()

	client := testClient(server, "s1")
	ctx := context.Background()
	client.ElementClick(ctx, "e1")
	client.ElementDoubleTap(ctx, "e1")
	client.ElementTouchAndHold(ctx, "e1", 1500*time.Millisecond)
	client.ElementSwipe(ctx, "e1", "left")
	client.ElementSendKeys(ctx, "e1", "hi")

	want := []string{
		"/session/s1/element/e1/click",
		"/session/s1/wda/element/e1/doubleTap",
		"/session/s1/wda/element/e1/touchAndHold",
		"/session/s1/wda/element/e1/swipe",
		"/session/s1/element/e1/value",
	}
	if len(got) != len(want) {
		t.Fatalf("got %d requests, want %d", len(got), len(want))
	}
	for i, p := range want {
		if got[i].path != p {
			t.Errorf("request %d path = %s, want %s", i, got[i].path, p)
		}
	}
	if got[2].body["duration"] != 1.5 {
		t.Errorf("touchAndHold duration = %v, want 1.5", got[2].body["duration"])
	}
	if got[3].body["direction"] != "left" {
		t.Errorf("swipe direction = %v", got[3].body["direction"])
	}
	if keys, _ := got[4].body["value"].([]interface{}); len(keys) != 2 || keys[0] != "h" {
		t.Errorf("value keys = %v", got[4].body["value"])
	}
}

func TestScreenshotAndSource(t *testing.T) {
	png := []byte("\x89PNG fake")
	server := mockWDAServer(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/session/s1/screenshot":
			jsonResponse(w, map[string]interface{}{"value": base64.StdEncoding.EncodeToString(png)})
		case "/session/s1/source":
			jsonResponse(w, map[string]interface{}{"value": "<XCUIElementTypeApplication/>"})
		case "/session/s1/window/size":
			jsonResponse(w, map[string]interface{}{"value": map[string]interface{}{"width": 390.0, "height": 844.0}})
		}
	})
	defer server.Close()

	client := testClient(server, "s1")
	ctx := context.Background()

	data, err := client.Screenshot(ctx)
	if err != nil || string(data) != string(png) {
		t.Errorf("Screenshot = %q, %v", data, err)
	}
	source, err := client.Source(ctx)
	if err != nil || source != "<XCUIElementTypeApplication/>" {
		t.Errorf("Source = %q, %v", source, err)
	}
	width, height, err := client.WindowSize(ctx)
	if err != nil || width != 390 || height != 844 {
		t.Errorf("WindowSize = %dx%d, %v", width, height, err)
	}
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantStale bool
		wantMsg   string
	}{
		{
			name:      "stale element",
			status:    404,
			body:      `{"value":{"error":"stale element reference","message":"The element 'e1' is not linked to the same object"}}`,
			wantStale: true,
			wantMsg:   "not linked",
		},
		{
			name:      "no such element",
			status:    404,
			body:      `{"value":{"error":"no such element","message":"unable to find"}}`,
			wantStale: true,
		},
		{
			name:    "other error",
			status:  500,
			body:    `{"value":{"error":"unknown error","message":"boom"}}`,
			wantMsg: "boom",
		},
		{
			name:    "bare http error",
			status:  502,
			body:    `{}`,
			wantMsg: "Bad Gateway",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := mockWDAServer(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})
			defer server.Close()

			err := testClient(server, "s1").ElementClick(context.Background(), "e1")
			if err == nil {
				t.Fatal("expected error")
			}
			if IsStale(err) != tt.wantStale {
				t.Errorf("IsStale(%v) = %v, want %v", err, IsStale(err), tt.wantStale)
			}
			var wdaErr *Error
			if !errors.As(err, &wdaErr) || wdaErr.Status != tt.status {
				t.Errorf("error = %#v, want *Error with status %d", err, tt.status)
			}
			if tt.wantMsg != "" && !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q should contain %q", err, tt.wantMsg)
			}
		})
	}
}

func TestInvalidJSON(t *testing.T) {
	server := mockWDAServer(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	})
	defer server.Close()

	if _, err := testClient(server, "").Status(context.Background()); err == nil {
		t.Error("expected parse error")
	}
}

func TestCancelledContext(t *testing.T) {
	server := mockWDAServer(func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, map[string]interface{}{"value": nil})
	})
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := testClient(server, "s1").ElementClick(ctx, "e1"); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}
