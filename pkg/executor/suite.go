package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/devicelab-dev/uiscript/pkg/core"
	"github.com/devicelab-dev/uiscript/pkg/logger"
	"github.com/devicelab-dev/uiscript/pkg/scenario"
)

// Worker is one independent target that pulls scenarios from the suite
// queue. A worker runs one scenario at a time.
type Worker struct {
	ID     string
	Target core.Target

	// Setup prepares the target for a scenario, e.g. loads its fixture.
	// A Setup error fails that scenario only.
	Setup func(ctx context.Context, sc *scenario.Scenario) error

	Cleanup func()
}

// SuiteConfig configures a suite run.
type SuiteConfig struct {
	Name       string
	Runner     Config
	StopOnFail bool // Skip queued scenarios after the first failure
}

// Suite runs scenarios across workers. Scenarios are distributed through a
// shared queue; parallelism only ever spans distinct targets.
type Suite struct {
	workers []Worker
	config  SuiteConfig
}

// workItem is a scenario and its position in the input list.
type workItem struct {
	scenario *scenario.Scenario
	index    int
}

var errStopped = errors.New("suite stopped after failure")

// NewSuite creates a suite over workers.
func NewSuite(workers []Worker, cfg SuiteConfig) *Suite {
	return &Suite{workers: workers, config: cfg}
}

// Run executes every scenario once. Results keep the input order. Scenarios
// never started (after cancellation or StopOnFail) are reported as skipped.
func (s *Suite) Run(ctx context.Context, scenarios []*scenario.Scenario) (*core.SuiteResult, error) {
	if len(s.workers) == 0 {
		return nil, fmt.Errorf("no workers available")
	}
	seen := make(map[core.Target]string, len(s.workers))
	for _, w := range s.workers {
		if w.Target == nil {
			return nil, fmt.Errorf("worker %s has no target", w.ID)
		}
		if other, dup := seen[w.Target]; dup {
			return nil, fmt.Errorf("workers %s and %s share a target", other, w.ID)
		}
		seen[w.Target] = w.ID
	}

	suite := &core.SuiteResult{
		Name:      s.config.Name,
		RunID:     uuid.NewString(),
		StartTime: time.Now(),
	}
	log := logger.WithFields(logger.Fields{"run": suite.RunID})
	log.Infof("running %d scenarios on %d targets", len(scenarios), len(s.workers))

	queue := make(chan workItem, len(scenarios))
	for i, sc := range scenarios {
		queue <- workItem{scenario: sc, index: i}
	}
	close(queue)

	// Each index is written by exactly one worker.
	results := make([]*core.ScenarioResult, len(scenarios))

	g, gctx := errgroup.WithContext(ctx)
	for i := range s.workers {
		w := s.workers[i]
		g.Go(func() error {
			if w.Cleanup != nil {
				defer w.Cleanup()
			}
			runner := New(w.Target, s.config.Runner)
			defer runner.Close()

			for item := range queue {
				if gctx.Err() != nil {
					return nil
				}
				res := s.runOne(gctx, w, runner, item.scenario)
				results[item.index] = res
				if s.config.StopOnFail && !res.Success() {
					return errStopped
				}
			}
			return nil
		})
	}
	err := g.Wait()
	if errors.Is(err, errStopped) {
		err = nil
	}

	for i, res := range results {
		if res == nil {
			results[i] = skipped(scenarios[i])
		}
	}
	suite.Scenarios = make([]core.ScenarioResult, len(results))
	for i, res := range results {
		suite.Scenarios[i] = *res
	}
	suite.Duration = time.Since(suite.StartTime)
	suite.ComputeSummary()
	log.Infof("suite finished: %d passed, %d failed, %d skipped",
		suite.PassedScenarios, suite.FailedScenarios, suite.SkippedScenarios)
	return suite, err
}

func (s *Suite) runOne(ctx context.Context, w Worker, runner *Runner, sc *scenario.Scenario) *core.ScenarioResult {
	if w.Setup != nil {
		if err := w.Setup(ctx, sc); err != nil {
			res := skipped(sc)
			res.Status = core.StatusErrored
			res.FailedStep = 0
			res.Err = fmt.Errorf("setup on %s: %w", w.ID, err)
			res.Error = res.Err.Error()
			res.Target = w.ID
			return res
		}
	}
	res := runner.RunScenario(ctx, sc)
	res.Target = w.ID
	return res
}

func skipped(sc *scenario.Scenario) *core.ScenarioResult {
	return &core.ScenarioResult{
		Name:       sc.Name,
		FilePath:   sc.SourcePath,
		Tags:       sc.Tags,
		Status:     core.StatusSkipped,
		FailedStep: -1,
	}
}
