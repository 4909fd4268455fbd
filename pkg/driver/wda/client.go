package wda

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// W3C error codes WDA reports for elements that are gone.
const (
	errStaleElement = "stale element reference"
	errNoSuchElem   = "no such element"
)

// Error is an error reported by WDA in a response body.
type Error struct {
	Code    string // W3C error code, e.g. "stale element reference"
	Message string
	Status  int // HTTP status
}

func (e *Error) Error() string {
	if e.Message != "" && e.Message != e.Code {
		return fmt.Sprintf("WDA error: %s: %s", e.Code, e.Message)
	}
	return "WDA error: " + e.Code
}

// IsStale reports whether err says the element no longer exists.
func IsStale(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Code == errStaleElement || e.Code == errNoSuchElem
}

// Client is an HTTP client for WebDriverAgent.
type Client struct {
	baseURL    string
	sessionID  string
	httpClient *http.Client
}

// NewClient creates a client for WDA listening on localhost:port.
func NewClient(port uint16) *Client {
	return NewClientURL(fmt.Sprintf("http://localhost:%d", port))
}

// NewClientURL creates a client for WDA at baseURL.
func NewClientURL(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Session management

// CreateSession creates a new WDA session for the app.
func (c *Client) CreateSession(ctx context.Context, bundleID string) error {
	caps := map[string]interface{}{
		"capabilities": map[string]interface{}{
			"alwaysMatch": map[string]interface{}{
				"bundleId":                bundleID,
				"shouldWaitForQuiescence": false,
			},
		},
	}

	resp, err := c.post(ctx, "/session", caps)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	if value, ok := resp["value"].(map[string]interface{}); ok {
		if sessionID, ok := value["sessionId"].(string); ok {
			c.sessionID = sessionID
		}
	}
	if c.sessionID == "" {
		if sessionID, ok := resp["sessionId"].(string); ok {
			c.sessionID = sessionID
		}
	}
	if c.sessionID == "" {
		return fmt.Errorf("failed to create session: no session id in response")
	}
	return nil
}

// DeleteSession ends the current session.
func (c *Client) DeleteSession(ctx context.Context) error {
	if c.sessionID == "" {
		return nil
	}
	_, err := c.delete(ctx, fmt.Sprintf("/session/%s", c.sessionID))
	c.sessionID = ""
	return err
}

// HasSession returns true if a session is active.
func (c *Client) HasSession() bool {
	return c.sessionID != ""
}

// Status returns WDA status.
func (c *Client) Status(ctx context.Context) (map[string]interface{}, error) {
	return c.get(ctx, "/status")
}

// App management

// LaunchApp launches an app by bundle ID.
func (c *Client) LaunchApp(ctx context.Context, bundleID string) error {
	_, err := c.post(ctx, c.sessionPath("/wda/apps/launch"), map[string]interface{}{
		"bundleId": bundleID,
	})
	return err
}

// TerminateApp terminates an app by bundle ID.
func (c *Client) TerminateApp(ctx context.Context, bundleID string) error {
	_, err := c.post(ctx, c.sessionPath("/wda/apps/terminate"), map[string]interface{}{
		"bundleId": bundleID,
	})
	return err
}

// Element finding

// FindElements returns the IDs of all elements matching the locator.
func (c *Client) FindElements(ctx context.Context, using, value string) ([]string, error) {
	resp, err := c.post(ctx, c.sessionPath("/elements"), map[string]interface{}{
		"using": using,
		"value": value,
	})
	if err != nil {
		return nil, err
	}

	var elements []string
	if val, ok := resp["value"].([]interface{}); ok {
		for _, elem := range val {
			if id := elementID(elem); id != "" {
				elements = append(elements, id)
			}
		}
	}
	return elements, nil
}

// elementID extracts an element ID in either the JSONWP or the W3C format.
func elementID(v interface{}) string {
	m, ok := v.(map[string]interface{})
	if !ok {
		return ""
	}
	if id, ok := m["ELEMENT"].(string); ok {
		return id
	}
	for _, v := range m {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// Element state

// ElementRect returns an element's bounds.
func (c *Client) ElementRect(ctx context.Context, elementID string) (x, y, width, height int, err error) {
	resp, err := c.get(ctx, c.elementPath(elementID, "/rect"))
	if err != nil {
		return 0, 0, 0, 0, err
	}
	if value, ok := resp["value"].(map[string]interface{}); ok {
		x, y = number(value["x"]), number(value["y"])
		width, height = number(value["width"]), number(value["height"])
	}
	return x, y, width, height, nil
}

// ElementDisplayed checks if an element is visible.
func (c *Client) ElementDisplayed(ctx context.Context, elementID string) (bool, error) {
	return c.elementBool(ctx, elementID, "/displayed")
}

// ElementEnabled checks if an element accepts interaction.
func (c *Client) ElementEnabled(ctx context.Context, elementID string) (bool, error) {
	return c.elementBool(ctx, elementID, "/enabled")
}

// ElementText returns an element's text.
func (c *Client) ElementText(ctx context.Context, elementID string) (string, error) {
	return c.elementString(ctx, elementID, "/text")
}

// ElementType returns an element's XCUIElementType.
func (c *Client) ElementType(ctx context.Context, elementID string) (string, error) {
	return c.elementString(ctx, elementID, "/name")
}

// ElementAttribute returns a named attribute, e.g. label or name.
func (c *Client) ElementAttribute(ctx context.Context, elementID, name string) (string, error) {
	return c.elementString(ctx, elementID, "/attribute/"+name)
}

// Element actions

// ElementClick taps an element.
func (c *Client) ElementClick(ctx context.Context, elementID string) error {
	_, err := c.post(ctx, c.elementPath(elementID, "/click"), nil)
	return err
}

// ElementDoubleTap double-taps an element.
func (c *Client) ElementDoubleTap(ctx context.Context, elementID string) error {
	_, err := c.post(ctx, c.sessionPath(fmt.Sprintf("/wda/element/%s/doubleTap", elementID)), nil)
	return err
}

// ElementTouchAndHold long-presses an element.
func (c *Client) ElementTouchAndHold(ctx context.Context, elementID string, duration time.Duration) error {
	_, err := c.post(ctx, c.sessionPath(fmt.Sprintf("/wda/element/%s/touchAndHold", elementID)), map[string]interface{}{
		"duration": duration.Seconds(),
	})
	return err
}

// ElementSwipe swipes on an element in direction (up, down, left, right).
func (c *Client) ElementSwipe(ctx context.Context, elementID, direction string) error {
	_, err := c.post(ctx, c.sessionPath(fmt.Sprintf("/wda/element/%s/swipe", elementID)), map[string]interface{}{
		"direction": direction,
	})
	return err
}

// ElementSendKeys types text into an element.
func (c *Client) ElementSendKeys(ctx context.Context, elementID, text string) error {
	_, err := c.post(ctx, c.elementPath(elementID, "/value"), map[string]interface{}{
		"value": strings.Split(text, ""),
	})
	return err
}

// Screen

// Screenshot captures the screen as PNG.
func (c *Client) Screenshot(ctx context.Context) ([]byte, error) {
	resp, err := c.get(ctx, c.sessionPath("/screenshot"))
	if err != nil {
		return nil, err
	}
	if value, ok := resp["value"].(string); ok {
		return base64.StdEncoding.DecodeString(value)
	}
	return nil, fmt.Errorf("invalid screenshot response")
}

// Source returns the UI hierarchy as XML.
func (c *Client) Source(ctx context.Context) (string, error) {
	resp, err := c.get(ctx, c.sessionPath("/source"))
	if err != nil {
		return "", err
	}
	if value, ok := resp["value"].(string); ok {
		return value, nil
	}
	return "", fmt.Errorf("invalid source response")
}

// WindowSize returns the screen dimensions.
func (c *Client) WindowSize(ctx context.Context) (width, height int, err error) {
	resp, err := c.get(ctx, c.sessionPath("/window/size"))
	if err != nil {
		return 0, 0, err
	}
	if value, ok := resp["value"].(map[string]interface{}); ok {
		return number(value["width"]), number(value["height"]), nil
	}
	return 0, 0, fmt.Errorf("invalid window size response")
}

// HTTP helpers

func (c *Client) sessionPath(path string) string {
	if c.sessionID != "" {
		return fmt.Sprintf("/session/%s%s", c.sessionID, path)
	}
	return path
}

func (c *Client) elementPath(elementID, suffix string) string {
	return c.sessionPath(fmt.Sprintf("/element/%s%s", elementID, suffix))
}

func (c *Client) elementBool(ctx context.Context, elementID, suffix string) (bool, error) {
	resp, err := c.get(ctx, c.elementPath(elementID, suffix))
	if err != nil {
		return false, err
	}
	value, _ := resp["value"].(bool)
	return value, nil
}

func (c *Client) elementString(ctx context.Context, elementID, suffix string) (string, error) {
	resp, err := c.get(ctx, c.elementPath(elementID, suffix))
	if err != nil {
		return "", err
	}
	value, _ := resp["value"].(string)
	return value, nil
}

func (c *Client) get(ctx context.Context, path string) (map[string]interface{}, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

func (c *Client) post(ctx context.Context, path string, body interface{}) (map[string]interface{}, error) {
	return c.do(ctx, http.MethodPost, path, body)
}

func (c *Client) delete(ctx context.Context, path string) (map[string]interface{}, error) {
	return c.do(ctx, http.MethodDelete, path, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}) (map[string]interface{}, error) {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewReader(data)
	} else if method == http.MethodPost {
		reqBody = strings.NewReader("{}")
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, err
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return parseResponse(resp)
}

func parseResponse(resp *http.Response) (map[string]interface{}, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var result map[string]interface{}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w (body: %s)", err, string(body))
	}

	if value, ok := result["value"].(map[string]interface{}); ok {
		if code, ok := value["error"].(string); ok {
			e := &Error{Code: code, Status: resp.StatusCode}
			e.Message, _ = value["message"].(string)
			return nil, e
		}
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &Error{Code: http.StatusText(resp.StatusCode), Status: resp.StatusCode}
	}
	return result, nil
}

func number(v interface{}) int {
	f, _ := v.(float64)
	return int(f)
}
