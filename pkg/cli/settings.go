package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/uiscript/pkg/config"
)

// TargetConfig says how to reach the targets scenarios run against.
type TargetConfig struct {
	Target     string // sample, wda, appium
	BundleID   string
	LicenseKey string

	WDAURLs      []string
	Simulator    string
	AppiumURL    string
	Capabilities map[string]interface{}
}

// loadWorkspace loads --config, or config.yaml from the working directory
// when present.
func loadWorkspace(c *cli.Context) (*config.Config, error) {
	if path := c.String("config"); path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		return cfg, nil
	}
	cfg, err := config.LoadFromDir(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// resolveTarget merges the workspace config with global flags. Flags win.
func resolveTarget(c *cli.Context, ws *config.Config) (*TargetConfig, error) {
	tc := &TargetConfig{
		Target:       ws.Target,
		BundleID:     ws.BundleID,
		LicenseKey:   ws.LicenseKey,
		Simulator:    ws.WDA.Simulator,
		AppiumURL:    ws.Appium.URL,
		Capabilities: ws.Appium.Capabilities,
	}
	if c.IsSet("target") {
		tc.Target = c.String("target")
	}
	if tc.Target == "" {
		tc.Target = config.TargetSample
	}
	tc.Target = strings.ToLower(tc.Target)

	if c.IsSet("bundle-id") {
		tc.BundleID = c.String("bundle-id")
	}
	if c.IsSet("license-key") {
		tc.LicenseKey = c.String("license-key")
	}
	if c.IsSet("simulator") {
		tc.Simulator = c.String("simulator")
	}
	if c.IsSet("appium-url") || tc.AppiumURL == "" {
		tc.AppiumURL = c.String("appium-url")
	}

	switch {
	case c.IsSet("wda-url"):
		tc.WDAURLs = splitList(c.String("wda-url"))
	case c.IsSet("wda-port"):
		tc.WDAURLs = []string{fmt.Sprintf("http://localhost:%d", c.Uint("wda-port"))}
	default:
		tc.WDAURLs = []string{ws.WDAURL()}
	}

	if path := c.String("caps"); path != "" {
		caps, err := loadCapabilities(path)
		if err != nil {
			return nil, err
		}
		tc.Capabilities = caps
	}

	switch tc.Target {
	case config.TargetSample:
		if tc.LicenseKey == "" {
			return nil, fmt.Errorf("the sample target needs a license key (--license-key or licenseKey in config.yaml)")
		}
	case config.TargetWDA:
		if tc.BundleID == "" {
			return nil, fmt.Errorf("--bundle-id is required for the wda target")
		}
		if tc.Simulator != "" && len(tc.WDAURLs) > 1 {
			return nil, fmt.Errorf("--simulator needs a single --wda-url")
		}
	case config.TargetAppium:
	default:
		return nil, fmt.Errorf("unknown target %q (want sample, wda or appium)", tc.Target)
	}
	return tc, nil
}

// splitList splits a comma-separated flag value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseEnvVars parses KEY=VALUE pairs. Entries without '=' are ignored.
func parseEnvVars(envs []string) map[string]string {
	result := make(map[string]string)
	for _, e := range envs {
		parts := strings.SplitN(e, "=", 2)
		if len(parts) == 2 {
			result[parts[0]] = parts[1]
		}
	}
	return result
}

// loadCapabilities loads Appium capabilities from a JSON file.
func loadCapabilities(capsFile string) (map[string]interface{}, error) {
	data, err := os.ReadFile(capsFile) //#nosec G304 -- user-provided caps file
	if err != nil {
		return nil, fmt.Errorf("failed to read caps file: %w", err)
	}

	var caps map[string]interface{}
	if err := json.Unmarshal(data, &caps); err != nil {
		return nil, fmt.Errorf("failed to parse caps JSON: %w", err)
	}
	return caps, nil
}
