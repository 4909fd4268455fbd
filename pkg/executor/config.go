package executor

import (
	"time"

	"github.com/devicelab-dev/uiscript/pkg/core"
)

// Default timing. Thirty seconds is the usual UI test helper wait on iOS.
const (
	DefaultFindTimeout   = 30 * time.Second
	DefaultWaitTimeout   = 30 * time.Second
	DefaultActionTimeout = 30 * time.Second
	DefaultPollInterval  = 100 * time.Millisecond
)

// Config configures a Runner.
type Config struct {
	FindTimeout   time.Duration // Bound for locating an element
	WaitTimeout   time.Duration // Bound for a precondition, per step unless overridden
	ActionTimeout time.Duration // Bound for one gesture; not cancellable
	PollInterval  time.Duration

	// Vars are exposed to ${...} expansion and script predicates, e.g.
	// product specific labels.
	Vars map[string]string

	Artifacts core.ArtifactConfig

	// Callbacks for live progress
	OnScenarioStart func(name string)
	OnStepComplete  func(name string, result *core.StepResult)
	OnScenarioEnd   func(result *core.ScenarioResult)
}

// DefaultConfig returns the default runner configuration.
func DefaultConfig() Config {
	return Config{
		FindTimeout:   DefaultFindTimeout,
		WaitTimeout:   DefaultWaitTimeout,
		ActionTimeout: DefaultActionTimeout,
		PollInterval:  DefaultPollInterval,
		Artifacts:     core.DefaultArtifactConfig(),
	}
}

// withDefaults fills zero durations with defaults.
func (c Config) withDefaults() Config {
	if c.FindTimeout <= 0 {
		c.FindTimeout = DefaultFindTimeout
	}
	if c.WaitTimeout <= 0 {
		c.WaitTimeout = DefaultWaitTimeout
	}
	if c.ActionTimeout <= 0 {
		c.ActionTimeout = DefaultActionTimeout
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	return c
}
