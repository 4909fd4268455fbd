// Package wda drives an iOS app through a running WebDriverAgent server.
// Queries become class chains; gestures use WDA's element endpoints.
package wda

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/devicelab-dev/uiscript/pkg/core"
	"github.com/devicelab-dev/uiscript/pkg/hierarchy"
	"github.com/devicelab-dev/uiscript/pkg/logger"
	"github.com/devicelab-dev/uiscript/pkg/scenario"
)

// inspectConcurrency bounds the elements a query inspects at once. Each
// element's attributes are read in parallel as well.
const inspectConcurrency = 4

// Driver implements core.Target and core.ArtifactSource using WebDriverAgent.
type Driver struct {
	client   *Client
	bundleID string
	info     *core.PlatformInfo

	mu     sync.Mutex
	screen core.Bounds // cached window size
}

// NewDriver creates a driver for the app with bundleID. info describes the
// device; the driver fills in engine, app and screen size.
func NewDriver(client *Client, bundleID string, info *core.PlatformInfo) *Driver {
	if info == nil {
		info = &core.PlatformInfo{Platform: "ios"}
	}
	info.Engine = "wda"
	info.AppID = bundleID
	return &Driver{client: client, bundleID: bundleID, info: info}
}

// Launch terminates and relaunches the app, creating a session on first use.
func (d *Driver) Launch(ctx context.Context) error {
	if !d.client.HasSession() {
		if err := d.client.CreateSession(ctx, d.bundleID); err != nil {
			return err
		}
	}
	if err := d.client.TerminateApp(ctx, d.bundleID); err != nil {
		logger.Debug("wda: terminate %s: %v", d.bundleID, err)
	}
	if err := d.client.LaunchApp(ctx, d.bundleID); err != nil {
		return fmt.Errorf("launch %s: %w", d.bundleID, err)
	}
	d.mu.Lock()
	d.screen = core.Bounds{}
	d.mu.Unlock()
	return nil
}

// Query implements core.Target.
func (d *Driver) Query(ctx context.Context, q scenario.ElementQuery) ([]*core.ElementInfo, error) {
	chain := ClassChain(q.WithoutIndex())
	ids, err := d.client.FindElements(ctx, usingClassChain, chain)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", chain, err)
	}

	infos := make([]*core.ElementInfo, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(inspectConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			info, err := d.Inspect(gctx, id)
			if errors.Is(err, core.ErrStale) {
				// Gone between find and inspect; the next poll sees the new tree.
				return nil
			}
			infos[i] = info
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]*core.ElementInfo, 0, len(infos))
	for _, info := range infos {
		if info != nil {
			out = append(out, info)
		}
	}
	return out, nil
}

// Inspect implements core.Target.
func (d *Driver) Inspect(ctx context.Context, ref string) (*core.ElementInfo, error) {
	var (
		x, y, w, h         int
		displayed, enabled bool
		text, label, id    string
		typ                string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		x, y, w, h, err = d.client.ElementRect(gctx, ref)
		return err
	})
	g.Go(func() (err error) {
		displayed, err = d.client.ElementDisplayed(gctx, ref)
		return err
	})
	g.Go(func() (err error) {
		enabled, err = d.client.ElementEnabled(gctx, ref)
		return err
	})
	g.Go(func() (err error) {
		text, err = d.client.ElementText(gctx, ref)
		return err
	})
	g.Go(func() (err error) {
		label, err = d.client.ElementAttribute(gctx, ref, "label")
		return err
	})
	g.Go(func() (err error) {
		id, err = d.client.ElementAttribute(gctx, ref, "name")
		return err
	})
	g.Go(func() (err error) {
		typ, err = d.client.ElementType(gctx, ref)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, d.mapError(err)
	}

	info := &core.ElementInfo{
		Ref:     ref,
		ID:      id,
		Label:   label,
		Text:    text,
		Type:    hierarchy.NormalizeType(typ),
		Bounds:  core.Bounds{X: x, Y: y, Width: w, Height: h},
		Visible: displayed,
		Enabled: enabled,
	}
	if displayed {
		info.VisibleFraction = 1
		if screen := d.screenBounds(ctx); screen.Area() > 0 {
			info.VisibleFraction = info.Bounds.VisibleFraction(screen)
		}
	}
	return info, nil
}

// Perform implements core.Target.
func (d *Driver) Perform(ctx context.Context, ref string, action scenario.Action) error {
	var err error
	switch action.Kind {
	case scenario.ActionTap:
		err = d.client.ElementClick(ctx, ref)
	case scenario.ActionDoubleTap:
		err = d.client.ElementDoubleTap(ctx, ref)
	case scenario.ActionLongPress:
		duration := action.Duration
		if duration == 0 {
			duration = scenario.DefaultLongPressDuration
		}
		err = d.client.ElementTouchAndHold(ctx, ref, duration)
	case scenario.ActionSwipe:
		err = d.client.ElementSwipe(ctx, ref, string(action.Direction))
	case scenario.ActionTypeText:
		err = d.client.ElementSendKeys(ctx, ref, action.Text)
	default:
		return core.ErrUnsupportedAction.WithMessagef("wda: %s is not an element gesture", action.Kind)
	}
	return d.mapError(err)
}

// PlatformInfo implements core.Target.
func (d *Driver) PlatformInfo() *core.PlatformInfo {
	d.mu.Lock()
	defer d.mu.Unlock()
	info := *d.info
	if d.screen.Area() > 0 {
		info.ScreenWidth, info.ScreenHeight = d.screen.Width, d.screen.Height
	}
	return &info
}

// Screenshot implements core.ArtifactSource.
func (d *Driver) Screenshot(ctx context.Context) ([]byte, error) {
	return d.client.Screenshot(ctx)
}

// Hierarchy implements core.ArtifactSource. The XML page source is
// converted to the JSON element tree.
func (d *Driver) Hierarchy(ctx context.Context) ([]byte, error) {
	source, err := d.client.Source(ctx)
	if err != nil {
		return nil, err
	}
	root, err := hierarchy.ParseXML([]byte(source))
	if err != nil {
		return nil, err
	}
	return root.JSON()
}

// screenBounds returns the window size, fetched once per launch.
func (d *Driver) screenBounds(ctx context.Context) core.Bounds {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.screen.Area() == 0 {
		w, h, err := d.client.WindowSize(ctx)
		if err != nil {
			logger.Debug("wda: window size: %v", err)
			return core.Bounds{}
		}
		d.screen = core.Bounds{Width: w, Height: h}
	}
	return d.screen
}

func (d *Driver) mapError(err error) error {
	if err == nil {
		return nil
	}
	if IsStale(err) {
		return core.ErrStale
	}
	return err
}
