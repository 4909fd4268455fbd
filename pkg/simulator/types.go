// Package simulator lists and boots iOS simulators through xcrun simctl so
// WebDriverAgent runs have a device to attach to.
package simulator

import (
	"context"
	"time"

	"github.com/devicelab-dev/uiscript/pkg/core"
)

// Simulator states reported by simctl.
const (
	StateBooted   = "Booted"
	StateShutdown = "Shutdown"
)

// Device is an available simulator from simctl list.
type Device struct {
	Name      string // e.g., "iPhone 15 Pro"
	UDID      string // e.g., "A1B2C3D4-E5F6-..."
	Runtime   string // e.g., "com.apple.CoreSimulator.SimRuntime.iOS-17-2"
	OSVersion string // e.g., "17.2" (extracted from Runtime)
	State     string
}

// Booted reports whether simctl lists the device as booted.
func (d Device) Booted() bool {
	return d.State == StateBooted
}

// PlatformInfo describes the device for results and reports.
func (d Device) PlatformInfo() *core.PlatformInfo {
	return &core.PlatformInfo{
		Platform:    "ios",
		OSVersion:   d.OSVersion,
		DeviceName:  d.Name,
		DeviceID:    d.UDID,
		IsSimulator: true,
	}
}

// instance tracks a simulator booted by this process.
type instance struct {
	Device
	BootStart    time.Time
	BootDuration time.Duration
}

// Runner runs xcrun with args and returns its combined output.
type Runner func(ctx context.Context, args ...string) ([]byte, error)
