package sampleapp

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync"
	"time"

	"github.com/devicelab-dev/uiscript/pkg/core"
	"github.com/devicelab-dev/uiscript/pkg/hierarchy"
	"github.com/devicelab-dev/uiscript/pkg/logger"
	"github.com/devicelab-dev/uiscript/pkg/scenario"
)

// BundleID is the identifier reported by the simulated app.
const BundleID = "com.pspdfkit.UITestingComparison"

// Screen is the top-level screen the app shows.
type Screen string

const (
	ScreenViewer         Screen = "viewer"
	ScreenThumbnails     Screen = "thumbnails"
	ScreenDocumentEditor Screen = "documentEditor"
	ScreenOutline        Screen = "outline"
	ScreenSearch         Screen = "search"
)

// screenBounds is an iPhone in portrait orientation.
var screenBounds = core.Bounds{Width: 390, Height: 844}

// App is a simulated viewer app. It implements core.Target,
// core.StateProvider and core.ArtifactSource. All methods are safe for
// concurrent use.
type App struct {
	mu sync.Mutex

	doc    *Document
	config Config

	screen      Screen
	page        int // 1-based current page
	presentedAt time.Time

	outlineTab   string // "outline" or "bookmarks"
	swipedRow    int    // bookmarked page showing its Delete button, 0 if none
	searchText   string
	editorSheet  bool // New Page sheet shown
	editorAlert  bool // unsaved changes action sheet shown
	pendingPages int  // pages added in the document editor, not yet saved

	annotations  int
	authorName   string
	authorPrompt bool // author name alert shown; a note is created on Done
}

// New creates an app showing doc. Init must have been called.
func New(doc *Document, cfg Config) (*App, error) {
	if !licensed() {
		return nil, ErrNotLicensed
	}
	if doc == nil {
		return nil, fmt.Errorf("sampleapp: nil document")
	}
	a := &App{}
	a.load(doc, cfg)
	return a, nil
}

// Load replaces the document and configuration and resets the UI, as if a
// freshly configured controller was presented.
func (a *App) Load(doc *Document, cfg Config) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.load(doc, cfg)
}

func (a *App) load(doc *Document, cfg Config) {
	a.doc = doc
	a.config = cfg
	a.annotations = 0
	a.authorName = ""
	a.reset()
}

// reset returns to the viewer on page 1. Document state is kept.
func (a *App) reset() {
	a.screen = ScreenViewer
	a.page = 1
	a.outlineTab = "outline"
	a.swipedRow = 0
	a.searchText = ""
	a.editorSheet = false
	a.editorAlert = false
	a.pendingPages = 0
	a.authorPrompt = false
	a.present()
}

// present records a transition; elements it reveals settle after the
// configured animation delay.
func (a *App) present() {
	a.presentedAt = time.Now()
}

func (a *App) settled() bool {
	return time.Since(a.presentedAt) >= a.config.AnimationDelay
}

// Document returns the document shown by the app.
func (a *App) Document() *Document {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.doc
}

// CurrentScreen returns the screen on top.
func (a *App) CurrentScreen() Screen {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.screen
}

// Launch implements core.Target. The UI restarts on the viewer; the document
// and its bookmarks persist.
func (a *App) Launch(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.reset()
	logger.Debug("sampleapp: launched %q (%d bookmarks)", a.doc.Title, len(a.doc.bookmarks))
	return nil
}

// Query implements core.Target.
func (a *App) Query(ctx context.Context, q scenario.ElementQuery) ([]*core.ElementInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	v := a.build()
	matches := hierarchy.Match(v.root, q)
	out := make([]*core.ElementInfo, len(matches))
	for i, n := range matches {
		out[i] = n.Info(screenBounds)
	}
	return out, nil
}

// Inspect implements core.Target.
func (a *App) Inspect(ctx context.Context, ref string) (*core.ElementInfo, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	n := a.build().root.FindRef(ref)
	if n == nil {
		return nil, core.ErrStale
	}
	return n.Info(screenBounds), nil
}

// Perform implements core.Target.
func (a *App) Perform(ctx context.Context, ref string, action scenario.Action) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	v := a.build()
	n := v.root.FindRef(ref)
	if n == nil {
		return core.ErrStale
	}
	if !n.Displayed() {
		return fmt.Errorf("%s is not hittable", ref)
	}
	h, ok := v.handlers[ref]
	if !ok {
		// Static elements absorb gestures.
		if action.Kind == scenario.ActionTypeText {
			return errNotEditable
		}
		return nil
	}
	return h(action)
}

// PlatformInfo implements core.Target.
func (a *App) PlatformInfo() *core.PlatformInfo {
	return &core.PlatformInfo{
		Platform:     "ios",
		Engine:       "sample",
		OSVersion:    "17.0",
		DeviceName:   "Simulated iPhone",
		DeviceID:     "sample",
		IsSimulator:  true,
		ScreenWidth:  screenBounds.Width,
		ScreenHeight: screenBounds.Height,
		AppID:        BundleID,
	}
}

// State implements core.StateProvider.
func (a *App) State(ctx context.Context) (map[string]interface{}, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	bookmarks := a.doc.Bookmarks()
	pages := make([]interface{}, len(bookmarks))
	for i, p := range bookmarks {
		pages[i] = p
	}
	return map[string]interface{}{
		"bookmarks":   map[string]interface{}{"count": len(bookmarks), "pages": pages},
		"pages":       map[string]interface{}{"count": a.doc.PageCount()},
		"annotations": map[string]interface{}{"count": a.annotations},
		"page":        a.page,
		"screen":      string(a.screen),
		"document":    map[string]interface{}{"uid": a.doc.UID, "title": a.doc.Title},
	}, nil
}

// Screenshot implements core.ArtifactSource. It renders a blank frame the
// size of the screen.
func (a *App) Screenshot(ctx context.Context) ([]byte, error) {
	img := image.NewGray(image.Rect(0, 0, screenBounds.Width, screenBounds.Height))
	for i := range img.Pix {
		img.Pix[i] = color.Gray{Y: 0xF2}.Y
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Hierarchy implements core.ArtifactSource.
func (a *App) Hierarchy(ctx context.Context) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.build().root.JSON()
}
