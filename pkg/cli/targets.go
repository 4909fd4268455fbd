package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/devicelab-dev/uiscript/pkg/config"
	"github.com/devicelab-dev/uiscript/pkg/core"
	appiumdriver "github.com/devicelab-dev/uiscript/pkg/driver/appium"
	wdadriver "github.com/devicelab-dev/uiscript/pkg/driver/wda"
	"github.com/devicelab-dev/uiscript/pkg/executor"
	"github.com/devicelab-dev/uiscript/pkg/fixture"
	"github.com/devicelab-dev/uiscript/pkg/logger"
	"github.com/devicelab-dev/uiscript/pkg/sampleapp"
	"github.com/devicelab-dev/uiscript/pkg/scenario"
	"github.com/devicelab-dev/uiscript/pkg/simulator"
)

const simulatorBootTimeout = 3 * time.Minute

// createWorkers connects to every target. sampleApps is the number of
// simulated apps for the sample target; other targets get one worker per
// endpoint. On error, workers already created are cleaned up.
func createWorkers(ctx context.Context, tc *TargetConfig, sampleApps int, animationDelay time.Duration) ([]executor.Worker, error) {
	switch tc.Target {
	case config.TargetSample:
		return createSampleWorkers(tc, sampleApps, animationDelay)
	case config.TargetWDA:
		return createWDAWorkers(ctx, tc)
	case config.TargetAppium:
		w, err := createAppiumWorker(ctx, tc)
		if err != nil {
			return nil, err
		}
		return []executor.Worker{w}, nil
	default:
		return nil, fmt.Errorf("unknown target %q", tc.Target)
	}
}

func createSampleWorkers(tc *TargetConfig, n int, animationDelay time.Duration) ([]executor.Worker, error) {
	if err := sampleapp.Init(tc.LicenseKey); err != nil {
		return nil, err
	}
	if n < 1 {
		n = 1
	}
	factory := fixture.Factory{AnimationDelay: animationDelay}

	workers := make([]executor.Worker, 0, n)
	for i := 0; i < n; i++ {
		app, err := factory.QuickStart().NewApp()
		if err != nil {
			return nil, err
		}
		workers = append(workers, executor.Worker{
			ID:     fmt.Sprintf("sample-%d", i+1),
			Target: app,
			Setup: func(ctx context.Context, sc *scenario.Scenario) error {
				fx, err := factory.Build(sc.Fixture)
				if err != nil {
					return err
				}
				fx.Load(app)
				return nil
			},
		})
	}
	return workers, nil
}

// createWDAWorkers makes one worker per WebDriverAgent URL. With a
// simulator configured it is booted first, and shut down on cleanup when
// this run booted it.
func createWDAWorkers(ctx context.Context, tc *TargetConfig) ([]executor.Worker, error) {
	var sims *simulator.Manager
	var device *simulator.Device
	if tc.Simulator != "" {
		sims = simulator.NewManager()
		d, err := sims.Boot(ctx, tc.Simulator, simulatorBootTimeout)
		if err != nil {
			return nil, err
		}
		device = &d
	}

	workers := make([]executor.Worker, 0, len(tc.WDAURLs))
	for _, url := range tc.WDAURLs {
		info := &core.PlatformInfo{Platform: "ios", DeviceName: url}
		if device != nil {
			info = device.PlatformInfo()
		}
		client := wdadriver.NewClientURL(url)
		workers = append(workers, executor.Worker{
			ID:     "wda@" + url,
			Target: wdadriver.NewDriver(client, tc.BundleID, info),
			Setup:  ignoreFixture,
			Cleanup: func() {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()
				if client.HasSession() {
					if err := client.DeleteSession(ctx); err != nil {
						logger.Warn("wda: delete session on %s: %v", url, err)
					}
				}
				if sims != nil {
					if err := sims.ShutdownAll(ctx); err != nil {
						logger.Warn("wda: %v", err)
					}
				}
			},
		})
	}
	return workers, nil
}

func createAppiumWorker(ctx context.Context, tc *TargetConfig) (executor.Worker, error) {
	caps := appiumCapabilities(tc)
	driver, err := appiumdriver.NewDriver(ctx, tc.AppiumURL, caps)
	if err != nil {
		return executor.Worker{}, fmt.Errorf("connect to appium at %s: %w", tc.AppiumURL, err)
	}
	return executor.Worker{
		ID:     "appium@" + tc.AppiumURL,
		Target: driver,
		Setup:  ignoreFixture,
		Cleanup: func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := driver.Close(ctx); err != nil {
				logger.Warn("appium: close session: %v", err)
			}
		},
	}, nil
}

// appiumCapabilities fills iOS defaults and the bundle ID into a copy of the
// configured capabilities.
func appiumCapabilities(tc *TargetConfig) map[string]interface{} {
	caps := make(map[string]interface{}, len(tc.Capabilities)+3)
	for k, v := range tc.Capabilities {
		caps[k] = v
	}
	if _, ok := caps["platformName"]; !ok {
		caps["platformName"] = "iOS"
	}
	if _, ok := caps["appium:automationName"]; !ok {
		caps["appium:automationName"] = "XCUITest"
	}
	if _, ok := caps["appium:bundleId"]; !ok && tc.BundleID != "" {
		caps["appium:bundleId"] = tc.BundleID
	}
	return caps
}

// ignoreFixture notes scenarios that name a fixture on a real device, where
// the starting document is whatever the installed app ships.
func ignoreFixture(ctx context.Context, sc *scenario.Scenario) error {
	if sc.Fixture != "" {
		logger.Debug("scenario %q: fixture %q only applies to the sample target", sc.Name, sc.Fixture)
	}
	return nil
}

// closeWorkers runs every worker's cleanup.
func closeWorkers(workers []executor.Worker) {
	for _, w := range workers {
		if w.Cleanup != nil {
			w.Cleanup()
		}
	}
}
