package core

import (
	"context"
	"errors"

	"github.com/devicelab-dev/uiscript/pkg/scenario"
)

// ErrStale is returned by Target.Inspect and Target.Perform when a reference
// no longer points at a live element.
var ErrStale = errors.New("stale element reference")

// Target is the application under test as seen through one automation
// engine. The runner owns waiting, index selection and error mapping;
// targets only answer single queries and perform single gestures.
// Implementations: WDA, Appium, the in-memory mock and the simulated app.
type Target interface {
	// Launch resets the app to its initial screen.
	Launch(ctx context.Context) error

	// Query returns every element matching q in tree order. q never carries
	// an index. Zero matches is not an error.
	Query(ctx context.Context, q scenario.ElementQuery) ([]*ElementInfo, error)

	// Inspect re-reads a previously returned element by reference.
	Inspect(ctx context.Context, ref string) (*ElementInfo, error)

	// Perform executes one gesture on the referenced element.
	Perform(ctx context.Context, ref string, action scenario.Action) error

	// PlatformInfo returns engine and device details
	PlatformInfo() *PlatformInfo
}

// StateProvider is implemented by targets that expose app state to script
// predicates, e.g. {"bookmarks": {"count": 1}}.
type StateProvider interface {
	State(ctx context.Context) (map[string]interface{}, error)
}

// ArtifactSource is implemented by targets that can capture debug artifacts
// when a step fails.
type ArtifactSource interface {
	// Screenshot captures the current screen as PNG
	Screenshot(ctx context.Context) ([]byte, error)

	// Hierarchy captures the element tree as JSON
	Hierarchy(ctx context.Context) ([]byte, error)
}

// ElementInfo represents information about a UI element
type ElementInfo struct {
	Ref   string `json:"ref"` // Opaque, target-specific handle
	ID    string `json:"id,omitempty"`
	Label string `json:"label,omitempty"`
	Text  string `json:"text,omitempty"`
	Type  string `json:"type,omitempty"`

	Bounds  Bounds `json:"bounds"`
	Visible bool   `json:"visible"`
	Enabled bool   `json:"enabled"`

	// VisibleFraction is the share of Bounds currently on screen, 0..1.
	// Targets that cannot compute it report 1 for visible elements.
	VisibleFraction float64 `json:"visibleFraction"`

	Attributes map[string]string `json:"attributes,omitempty"`
}

// SufficientlyVisible returns true if the element is displayed and at least
// scenario.VisibleThreshold of it is on screen.
func (e *ElementInfo) SufficientlyVisible() bool {
	return e != nil && e.Visible && e.VisibleFraction >= scenario.VisibleThreshold
}

// Describe returns a short description for failure messages.
func (e *ElementInfo) Describe() string {
	if e == nil {
		return "<none>"
	}
	name := e.Label
	if name == "" {
		name = e.Text
	}
	if name == "" {
		name = e.ID
	}
	return e.Type + "(" + name + ")"
}

// Bounds represents element position and size
type Bounds struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Center returns the center point of the bounds
func (b Bounds) Center() (int, int) {
	return b.X + b.Width/2, b.Y + b.Height/2
}

// Contains checks if a point is within the bounds
func (b Bounds) Contains(x, y int) bool {
	return x >= b.X && x < b.X+b.Width && y >= b.Y && y < b.Y+b.Height
}

// Area returns width times height.
func (b Bounds) Area() int {
	if b.Width <= 0 || b.Height <= 0 {
		return 0
	}
	return b.Width * b.Height
}

// Intersect returns the overlap of two bounds.
func (b Bounds) Intersect(o Bounds) Bounds {
	x1, y1 := max(b.X, o.X), max(b.Y, o.Y)
	x2, y2 := min(b.X+b.Width, o.X+o.Width), min(b.Y+b.Height, o.Y+o.Height)
	if x2 <= x1 || y2 <= y1 {
		return Bounds{}
	}
	return Bounds{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}

// VisibleFraction returns the share of b that lies within screen.
func (b Bounds) VisibleFraction(screen Bounds) float64 {
	area := b.Area()
	if area == 0 {
		return 0
	}
	return float64(b.Intersect(screen).Area()) / float64(area)
}

// PlatformInfo contains engine, device and app details
type PlatformInfo struct {
	Platform     string `json:"platform"`               // ios, sample
	Engine       string `json:"engine"`                 // wda, appium, mock, sample
	OSVersion    string `json:"osVersion,omitempty"`    // e.g., "17.0"
	DeviceName   string `json:"deviceName,omitempty"`   // e.g., "iPhone 15 Pro"
	DeviceID     string `json:"deviceId,omitempty"`     // Unique device identifier
	IsSimulator  bool   `json:"isSimulator"`            // Simulator/emulator vs real device
	ScreenWidth  int    `json:"screenWidth,omitempty"`  // Screen width in points
	ScreenHeight int    `json:"screenHeight,omitempty"` // Screen height in points
	AppID        string `json:"appId,omitempty"`        // Bundle ID
}
