// Package config handles workspace configuration for uiscript.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/devicelab-dev/uiscript/pkg/core"
	"github.com/devicelab-dev/uiscript/pkg/executor"
)

// Target names accepted in config and on the command line.
const (
	TargetSample = "sample"
	TargetWDA    = "wda"
	TargetAppium = "appium"
)

// DefaultWDAPort is the port WebDriverAgent listens on.
const DefaultWDAPort = 8100

// Config represents the workspace configuration (config.yaml).
type Config struct {
	// Scenario selection
	Scenarios   []string `yaml:"scenarios"`   // Files, directories or glob patterns
	IncludeTags []string `yaml:"includeTags"` // Tags to include
	ExcludeTags []string `yaml:"excludeTags"` // Tags to exclude

	// Variables
	Env    map[string]string `yaml:"env"`    // Exposed to ${VAR} and scripts
	Labels map[string]string `yaml:"labels"` // Product specific labels, same namespace as env

	// Target selection
	Target   string `yaml:"target"`   // sample, wda or appium
	BundleID string `yaml:"bundleId"` // App under test

	Timeouts  Timeouts            `yaml:"timeouts"`
	WDA       WDAConfig           `yaml:"wda"`
	Appium    AppiumConfig        `yaml:"appium"`
	Artifacts *core.ArtifactConfig `yaml:"artifacts"`

	// LicenseKey initializes the sample app.
	LicenseKey string `yaml:"licenseKey"`
}

// Timeouts in milliseconds. Zero keeps the runner default.
type Timeouts struct {
	Find   int `yaml:"find"`
	Wait   int `yaml:"wait"`
	Action int `yaml:"action"`
	Poll   int `yaml:"poll"`
}

// WDAConfig locates a running WebDriverAgent.
type WDAConfig struct {
	Port uint16 `yaml:"port"`
	URL  string `yaml:"url"` // Overrides Port, e.g. http://192.168.1.10:8100

	// Simulator is booted before connecting, by name or UDID.
	Simulator string `yaml:"simulator"`
}

// AppiumConfig locates an Appium server.
type AppiumConfig struct {
	URL          string                 `yaml:"url"`
	Capabilities map[string]interface{} `yaml:"capabilities"`
}

// Load loads configuration from a file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- user-provided config file
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, nil
}

// LoadFromDir looks for config.yaml or config.yml in the directory.
func LoadFromDir(dir string) (*Config, error) {
	for _, name := range []string{"config.yaml", "config.yml"} {
		configPath := filepath.Join(dir, name)
		if _, err := os.Stat(configPath); err == nil {
			return Load(configPath)
		}
	}

	// No config file found, return empty config
	return &Config{}, nil
}

// Validate checks values that yaml decoding cannot.
func (c *Config) Validate() error {
	switch c.Target {
	case "", TargetSample, TargetWDA, TargetAppium:
	default:
		return fmt.Errorf("unknown target %q (want %s, %s or %s)", c.Target, TargetSample, TargetWDA, TargetAppium)
	}
	t := c.Timeouts
	if t.Find < 0 || t.Wait < 0 || t.Action < 0 || t.Poll < 0 {
		return fmt.Errorf("timeouts must not be negative")
	}
	return nil
}

// Vars merges labels and env. Env wins on conflicts.
func (c *Config) Vars() map[string]string {
	vars := make(map[string]string, len(c.Labels)+len(c.Env))
	for k, v := range c.Labels {
		vars[k] = v
	}
	for k, v := range c.Env {
		vars[k] = v
	}
	return vars
}

// WDAURL returns the WebDriverAgent base URL.
func (c *Config) WDAURL() string {
	if c.WDA.URL != "" {
		return c.WDA.URL
	}
	port := c.WDA.Port
	if port == 0 {
		port = DefaultWDAPort
	}
	return fmt.Sprintf("http://localhost:%d", port)
}

// RunnerConfig returns the executor configuration described by c.
func (c *Config) RunnerConfig() executor.Config {
	rc := executor.DefaultConfig()
	set := func(dst *time.Duration, ms int) {
		if ms > 0 {
			*dst = time.Duration(ms) * time.Millisecond
		}
	}
	set(&rc.FindTimeout, c.Timeouts.Find)
	set(&rc.WaitTimeout, c.Timeouts.Wait)
	set(&rc.ActionTimeout, c.Timeouts.Action)
	set(&rc.PollInterval, c.Timeouts.Poll)
	if c.Artifacts != nil {
		rc.Artifacts = *c.Artifacts
	}
	rc.Vars = c.Vars()
	return rc
}
