// Package uitest runs scenarios as Go test cases. A failing scenario fails
// the test at the location of the step that ended it.
package uitest

import (
	"context"

	"github.com/devicelab-dev/uiscript/pkg/core"
	"github.com/devicelab-dev/uiscript/pkg/executor"
	"github.com/devicelab-dev/uiscript/pkg/logger"
	"github.com/devicelab-dev/uiscript/pkg/scenario"
)

// TB is the part of testing.TB the bridge uses.
type TB interface {
	Helper()
	Fatalf(format string, args ...interface{})
	Logf(format string, args ...interface{})
	Cleanup(func())
}

type options struct {
	ctx    context.Context
	config executor.Config
}

// Option configures Run.
type Option func(*options)

// WithConfig sets the runner configuration. Unset fields use defaults.
func WithConfig(cfg executor.Config) Option {
	return func(o *options) { o.config = cfg }
}

// WithContext bounds the scenario by ctx.
func WithContext(ctx context.Context) Option {
	return func(o *options) { o.ctx = ctx }
}

// Run executes sc against target as one test case and returns the result.
// On failure it stops the test with "file:line: reason".
func Run(t TB, target core.Target, sc *scenario.Scenario, opts ...Option) *core.ScenarioResult {
	t.Helper()
	r := NewRunner(t, target, opts...)
	return r.Run(t, sc)
}

// Runner runs several scenarios against one target, sharing the script
// engine and its variables.
type Runner struct {
	ctx    context.Context
	runner *executor.Runner
}

// NewRunner creates a runner closed when the test ends.
func NewRunner(t TB, target core.Target, opts ...Option) *Runner {
	o := options{ctx: context.Background(), config: executor.DefaultConfig()}
	for _, opt := range opts {
		opt(&o)
	}
	r := &Runner{ctx: o.ctx, runner: executor.New(target, o.config)}
	t.Cleanup(r.runner.Close)
	return r
}

// Run executes sc. See the package-level Run.
func (r *Runner) Run(t TB, sc *scenario.Scenario) *core.ScenarioResult {
	t.Helper()
	result := r.runner.RunScenario(r.ctx, sc)
	for _, st := range result.Steps {
		if st.Status == core.StatusWarned {
			t.Logf("%s: optional step %d (%s) failed: %s", st.Location, st.Index, st.Description, st.Error)
		}
	}
	if result.Success() {
		logger.Debug("uitest: %s passed (%d steps)", sc.Name, result.TotalSteps)
		return result
	}

	loc := result.Location
	if loc.IsZero() {
		loc = scenario.Location{File: sc.SourcePath}
	}
	reason := result.Error
	if result.Err != nil {
		reason = result.Err.Error()
	}
	t.Fatalf("%s:%d: %s", loc.File, loc.Line, reason)
	return result
}
