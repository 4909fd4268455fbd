package appium

import (
	"context"
	"errors"
	"fmt"

	"github.com/devicelab-dev/uiscript/pkg/core"
	"github.com/devicelab-dev/uiscript/pkg/hierarchy"
	"github.com/devicelab-dev/uiscript/pkg/logger"
	"github.com/devicelab-dev/uiscript/pkg/scenario"
)

// swipeDurationMs is how long a swipe takes.
const swipeDurationMs = 300

// Driver implements core.Target and core.ArtifactSource using an Appium
// server.
type Driver struct {
	client   *Client
	bundleID string
	info     *core.PlatformInfo
}

// NewDriver connects to serverURL with capabilities and returns a driver for
// the app they name (appium:bundleId).
func NewDriver(ctx context.Context, serverURL string, capabilities map[string]interface{}) (*Driver, error) {
	client := NewClient(serverURL)
	if err := client.Connect(ctx, capabilities); err != nil {
		return nil, err
	}
	return newDriver(client, capabilities), nil
}

func newDriver(client *Client, capabilities map[string]interface{}) *Driver {
	d := &Driver{client: client}
	d.bundleID, _ = capabilities["appium:bundleId"].(string)

	w, h := client.ScreenSize()
	d.info = &core.PlatformInfo{
		Platform:     client.Platform(),
		Engine:       "appium",
		ScreenWidth:  w,
		ScreenHeight: h,
		AppID:        d.bundleID,
	}
	d.info.OSVersion, _ = capabilities["appium:platformVersion"].(string)
	d.info.DeviceName, _ = capabilities["appium:deviceName"].(string)
	d.info.DeviceID, _ = capabilities["appium:udid"].(string)
	d.info.IsSimulator = d.info.DeviceID == ""
	return d
}

// Close disconnects from Appium server.
func (d *Driver) Close(ctx context.Context) error {
	return d.client.Disconnect(ctx)
}

// Launch terminates and relaunches the app.
func (d *Driver) Launch(ctx context.Context) error {
	if d.bundleID == "" {
		return fmt.Errorf("appium: no appium:bundleId capability")
	}
	if err := d.client.TerminateApp(ctx, d.bundleID); err != nil {
		logger.Debug("appium: terminate %s: %v", d.bundleID, err)
	}
	if err := d.client.LaunchApp(ctx, d.bundleID); err != nil {
		return fmt.Errorf("launch %s: %w", d.bundleID, err)
	}
	return nil
}

// Query implements core.Target.
func (d *Driver) Query(ctx context.Context, q scenario.ElementQuery) ([]*core.ElementInfo, error) {
	xpath := XPath(q.WithoutIndex())
	ids, err := d.client.FindElements(ctx, "xpath", xpath)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", xpath, err)
	}

	out := make([]*core.ElementInfo, 0, len(ids))
	for _, id := range ids {
		info, err := d.Inspect(ctx, id)
		if errors.Is(err, core.ErrStale) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	return out, nil
}

// Inspect implements core.Target.
func (d *Driver) Inspect(ctx context.Context, ref string) (*core.ElementInfo, error) {
	x, y, w, h, err := d.client.GetElementRect(ctx, ref)
	if err != nil {
		return nil, mapError(err)
	}
	info := &core.ElementInfo{Ref: ref, Bounds: core.Bounds{X: x, Y: y, Width: w, Height: h}}

	if info.Visible, err = d.client.IsElementDisplayed(ctx, ref); err != nil {
		return nil, mapError(err)
	}
	if info.Enabled, err = d.client.IsElementEnabled(ctx, ref); err != nil {
		return nil, mapError(err)
	}
	if info.Text, err = d.client.GetElementText(ctx, ref); err != nil {
		return nil, mapError(err)
	}
	attrs := map[string]*string{"label": &info.Label, "name": &info.ID, "type": &info.Type}
	for name, dst := range attrs {
		if *dst, err = d.client.GetElementAttribute(ctx, ref, name); err != nil {
			return nil, mapError(err)
		}
	}
	info.Type = hierarchy.NormalizeType(info.Type)

	if info.Visible {
		info.VisibleFraction = 1
		if sw, sh := d.client.ScreenSize(); sw > 0 && sh > 0 {
			info.VisibleFraction = info.Bounds.VisibleFraction(core.Bounds{Width: sw, Height: sh})
		}
	}
	return info, nil
}

// Perform implements core.Target.
func (d *Driver) Perform(ctx context.Context, ref string, action scenario.Action) error {
	var err error
	switch action.Kind {
	case scenario.ActionTap:
		err = d.client.ClickElement(ctx, ref)
	case scenario.ActionDoubleTap:
		err = d.client.DoubleTapElement(ctx, ref)
	case scenario.ActionLongPress:
		duration := action.Duration
		if duration == 0 {
			duration = scenario.DefaultLongPressDuration
		}
		err = d.client.LongPressElement(ctx, ref, duration)
	case scenario.ActionSwipe:
		err = d.swipe(ctx, ref, action.Direction)
	case scenario.ActionTypeText:
		err = d.client.SendElementKeys(ctx, ref, action.Text)
	default:
		return core.ErrUnsupportedAction.WithMessagef("appium: %s is not an element gesture", action.Kind)
	}
	return mapError(err)
}

// swipe drags across the middle two thirds of the element.
func (d *Driver) swipe(ctx context.Context, ref string, dir scenario.Direction) error {
	_, _, w, h, err := d.client.GetElementRect(ctx, ref)
	if err != nil {
		return err
	}
	dx, dy := 0, 0
	switch dir {
	case scenario.DirectionLeft:
		dx = -w / 3
	case scenario.DirectionRight:
		dx = w / 3
	case scenario.DirectionUp:
		dy = -h / 3
	case scenario.DirectionDown:
		dy = h / 3
	default:
		return fmt.Errorf("invalid swipe direction %q", dir)
	}
	return d.client.SwipeElement(ctx, ref, dx, dy, swipeDurationMs)
}

// PlatformInfo implements core.Target.
func (d *Driver) PlatformInfo() *core.PlatformInfo {
	info := *d.info
	return &info
}

// Screenshot implements core.ArtifactSource.
func (d *Driver) Screenshot(ctx context.Context) ([]byte, error) {
	return d.client.Screenshot(ctx)
}

// Hierarchy implements core.ArtifactSource.
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

func mapError(err error) error {
	if IsStale(err) {
		return core.ErrStale
	}
	return err
}
