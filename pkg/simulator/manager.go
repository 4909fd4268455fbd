package simulator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/devicelab-dev/uiscript/pkg/logger"
)

// Manager boots simulators and shuts down the ones it booted.
type Manager struct {
	run  Runner
	poll time.Duration

	mu     sync.Mutex
	booted map[string]*instance
}

// NewManager creates a manager that runs the real xcrun.
func NewManager() *Manager {
	return NewManagerWithRunner(xcrun)
}

// NewManagerWithRunner creates a manager that runs simctl through run.
func NewManagerWithRunner(run Runner) *Manager {
	return &Manager{run: run, poll: time.Second, booted: make(map[string]*instance)}
}

// List returns the available iOS simulators.
func (m *Manager) List(ctx context.Context) ([]Device, error) {
	out, err := m.run(ctx, "simctl", "list", "devices", "available", "-j")
	if err != nil {
		return nil, fmt.Errorf("failed to list simulators: %w: %s", err, strings.TrimSpace(string(out)))
	}
	devices, err := parseDevices(out)
	if err != nil {
		return nil, err
	}
	logger.Debug("Found %d available simulators", len(devices))
	return devices, nil
}

// Find returns the simulator with the given UDID or name. Among devices
// sharing a name, a booted one wins, then the newest OS.
func (m *Manager) Find(ctx context.Context, nameOrUDID string) (Device, error) {
	devices, err := m.List(ctx)
	if err != nil {
		return Device{}, err
	}

	var match *Device
	for i := range devices {
		d := &devices[i]
		if d.UDID == nameOrUDID {
			return *d, nil
		}
		if !strings.EqualFold(d.Name, nameOrUDID) {
			continue
		}
		if match == nil || (d.Booted() && !match.Booted()) {
			match = d
		}
	}
	if match == nil {
		return Device{}, fmt.Errorf("simulator not found: %s", nameOrUDID)
	}
	return *match, nil
}

// Boot finds and boots a simulator, waiting until simctl reports it booted.
// A simulator that is already running is returned as is and left running
// by Shutdown.
func (m *Manager) Boot(ctx context.Context, nameOrUDID string, timeout time.Duration) (Device, error) {
	dev, err := m.Find(ctx, nameOrUDID)
	if err != nil {
		return Device{}, err
	}
	if dev.Booted() {
		logger.Info("Simulator already booted: %s (%s)", dev.Name, dev.UDID)
		return dev, nil
	}

	logger.Info("Booting simulator: %s (%s)", dev.Name, dev.UDID)
	start := time.Now()
	if out, err := m.run(ctx, "simctl", "boot", dev.UDID); err != nil {
		if !strings.Contains(string(out), "current state: Booted") {
			return Device{}, fmt.Errorf("failed to boot simulator %s: %s", dev.UDID, strings.TrimSpace(string(out)))
		}
	}
	if err := m.waitForState(ctx, dev.UDID, StateBooted, timeout); err != nil {
		return Device{}, err
	}

	dev.State = StateBooted
	inst := &instance{Device: dev, BootStart: start, BootDuration: time.Since(start)}
	m.mu.Lock()
	m.booted[dev.UDID] = inst
	m.mu.Unlock()

	logger.Info("Simulator booted: %s (%s, boot time: %v)", dev.Name, dev.UDID, inst.BootDuration)
	return dev, nil
}

// waitForState polls simctl until the device reaches state.
func (m *Manager) waitForState(ctx context.Context, udid, state string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(m.poll)
	defer ticker.Stop()
	for {
		devices, err := m.List(ctx)
		if err != nil {
			logger.Debug("simctl state check for %s: %v", udid, err)
		}
		for _, d := range devices {
			if d.UDID == udid && d.State == state {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("simulator %s did not reach %s within %v", udid, state, timeout)
		case <-ticker.C:
		}
	}
}

// Shutdown shuts down a simulator if this manager booted it.
func (m *Manager) Shutdown(ctx context.Context, udid string) error {
	m.mu.Lock()
	inst, ok := m.booted[udid]
	m.mu.Unlock()
	if !ok {
		logger.Debug("Simulator %s not booted by us, skipping shutdown", udid)
		return nil
	}

	logger.Info("Shutting down simulator: %s", udid)
	if out, err := m.run(ctx, "simctl", "shutdown", udid); err != nil &&
		!strings.Contains(string(out), "current state: Shutdown") {
		return fmt.Errorf("failed to shut down simulator %s: %s", udid, strings.TrimSpace(string(out)))
	}

	m.mu.Lock()
	delete(m.booted, udid)
	m.mu.Unlock()
	logger.Debug("Simulator %s ran for %v", udid, time.Since(inst.BootStart))
	return nil
}

// ShutdownAll shuts down every simulator this manager booted, in parallel.
func (m *Manager) ShutdownAll(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, udid := range m.Booted() {
		udid := udid
		g.Go(func() error { return m.Shutdown(ctx, udid) })
	}
	return g.Wait()
}

// Booted returns the UDIDs this manager booted.
func (m *Manager) Booted() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	udids := make([]string, 0, len(m.booted))
	for udid := range m.booted {
		udids = append(udids, udid)
	}
	return udids
}
