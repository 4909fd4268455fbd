package executor

import (
	"context"
	"errors"
	"time"

	"github.com/devicelab-dev/uiscript/pkg/core"
	"github.com/devicelab-dev/uiscript/pkg/logger"
	"github.com/devicelab-dev/uiscript/pkg/scenario"
)

// RunScenario executes the scenario's steps in order, then its final checks.
// Execution stops at the first failing step that is not optional; the
// remaining steps are reported as skipped and never touch the target.
func (r *Runner) RunScenario(ctx context.Context, sc *scenario.Scenario) *core.ScenarioResult {
	start := time.Now()
	result := &core.ScenarioResult{
		Name:         sc.Name,
		FilePath:     sc.SourcePath,
		Tags:         sc.Tags,
		PlatformInfo: r.target.PlatformInfo(),
		StartTime:    start,
		FailedStep:   -1,
	}
	log := logger.WithFields(logger.Fields{"scenario": sc.Name})

	if r.config.OnScenarioStart != nil {
		r.config.OnScenarioStart(sc.Name)
	}
	defer func() {
		result.Duration = time.Since(start)
		result.ComputeSummary()
		if result.Err != nil {
			result.Error = result.Err.Error()
			result.Location = core.LocationOf(result.Err)
			if result.Status = result.AggregateStatus(); result.Status.IsSuccess() {
				result.Status = core.StatusForError(result.Err)
			}
		} else {
			result.Status = result.AggregateStatus()
		}
		log.WithField("status", result.Status.String()).Infof("scenario finished in %s", result.Duration.Round(time.Millisecond))
		if r.config.OnScenarioEnd != nil {
			r.config.OnScenarioEnd(result)
		}
	}()

	if err := sc.Validate(); err != nil {
		result.Err = invalidScenario(err)
		var se *scenario.StepError
		if errors.As(err, &se) {
			result.FailedStep = se.Index
		}
		r.skipFrom(result, sc, 0)
		return result
	}

	// Scenario env holds defaults; configured variables win. Defaults are
	// dropped again so they never leak into the next scenario.
	var defaults []string
	for k, v := range sc.Env {
		if _, ok := r.config.Vars[k]; ok {
			continue
		}
		r.js.SetVariable(k, v)
		defaults = append(defaults, k)
	}
	defer r.js.Unset(defaults...)
	sc = sc.Expand(r.js)

	if sc.Launch {
		log.Info("launching target")
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.config.ActionTimeout)
		err := r.target.Launch(lctx)
		cancel()
		if err != nil {
			if ctx.Err() != nil {
				result.Err = core.ErrCancelled.WithCause(ctx.Err())
			} else {
				result.Err = core.ErrTargetUnreachable.WithMessage("launch failed").WithCause(err)
			}
			result.FailedStep = 0
			r.skipFrom(result, sc, 0)
			return result
		}
	}

	total := len(sc.Steps) + len(sc.Verify)
	for i := 0; i < total; i++ {
		if err := ctx.Err(); err != nil {
			result.Err = core.ErrCancelled.WithCause(err)
			result.FailedStep = i
			r.skipFrom(result, sc, i)
			break
		}

		var sr core.StepResult
		var optional bool
		if i < len(sc.Steps) {
			step := sc.Steps[i]
			optional = step.Optional
			sr = r.runStep(ctx, i, step)
		} else {
			sr = r.runCheck(ctx, i, sc.Verify[i-len(sc.Steps)])
		}

		if sr.Err != nil {
			if optional && sr.Status != core.StatusErrored {
				sr.Status = core.StatusWarned
				log.WithField("step", i).Warnf("optional step failed: %v", sr.Err)
			} else {
				r.attachArtifacts(ctx, &sr)
			}
		} else if r.config.Artifacts.ShouldCapture(core.StatusPassed) {
			r.attachArtifacts(ctx, &sr)
		}

		result.Steps = append(result.Steps, sr)
		if r.config.OnStepComplete != nil {
			r.config.OnStepComplete(sc.Name, &result.Steps[len(result.Steps)-1])
		}

		if sr.Err != nil && sr.Status != core.StatusWarned {
			log.WithField("step", i).Errorf("%s: %v", sr.Location, sr.Err)
			result.Err = sr.Err
			result.FailedStep = i
			r.skipFrom(result, sc, i+1)
			break
		}
	}
	return result
}

// runStep executes one step: locate, wait for the precondition, act, assert.
func (r *Runner) runStep(ctx context.Context, index int, step scenario.Step) core.StepResult {
	sr := core.StepResult{
		Index:       index,
		Description: step.Describe(),
		Location:    step.Location,
		StartTime:   time.Now(),
	}
	logger.WithFields(logger.Fields{"step": index, "at": step.Location.String()}).Debug(sr.Description)

	h, err := r.executeStep(ctx, step)
	if h != nil {
		sr.Element = h.Info
	}
	return finish(sr, err, step.Location)
}

func (r *Runner) executeStep(ctx context.Context, step scenario.Step) (*Handle, error) {
	var h *Handle
	findTimeout := r.config.FindTimeout
	if step.Timeout > 0 {
		findTimeout = step.Timeout
	}

	if step.Query != nil {
		switch {
		case step.WaitFor != nil && !step.WaitFor.NeedsElement():
			// Script precondition on an element step: wait first, then find.
			if err := r.WaitUntil(ctx, nil, *step.WaitFor, step.Timeout); err != nil {
				return nil, err
			}
			found, err := r.find(ctx, *step.Query, findTimeout)
			if err != nil {
				return nil, err
			}
			h = found
		case step.WaitFor != nil && (step.WaitFor.AcceptsMissing() || step.Action == nil):
			// A wait on its own covers the lookup, and absence may be the goal.
			h = Unresolved(*step.Query)
			if err := r.WaitUntil(ctx, h, *step.WaitFor, step.Timeout); err != nil {
				return h, err
			}
		default:
			found, err := r.find(ctx, *step.Query, findTimeout)
			if err != nil {
				return nil, err
			}
			h = found
			pred := scenario.Visible()
			if step.WaitFor != nil {
				pred = *step.WaitFor
			}
			if step.Action != nil || step.WaitFor != nil {
				if err := r.WaitUntil(ctx, h, pred, step.Timeout); err != nil {
					return h, err
				}
			}
		}
	} else if step.WaitFor != nil {
		if err := r.WaitUntil(ctx, nil, *step.WaitFor, step.Timeout); err != nil {
			return nil, err
		}
	}

	if step.Action != nil {
		if err := r.Perform(ctx, h, *step.Action); err != nil {
			return h, err
		}
	}

	if step.Assert != nil {
		if err := r.AssertQuery(ctx, step.Assert.Subject, step.Assert.Predicate, step.Assert.Reason, step.Assert.Location); err != nil {
			return h, err
		}
	}
	return h, nil
}

// runCheck evaluates one final state check.
func (r *Runner) runCheck(ctx context.Context, index int, check scenario.Assertion) core.StepResult {
	sr := core.StepResult{
		Index:       index,
		Description: check.Describe(),
		Location:    check.Location,
		Verify:      true,
		StartTime:   time.Now(),
	}
	err := r.AssertQuery(ctx, check.Subject, check.Predicate, check.Reason, check.Location)
	return finish(sr, err, check.Location)
}

// finish records err on sr. Errors without a location get the step's.
func finish(sr core.StepResult, err error, loc scenario.Location) core.StepResult {
	sr.Duration = time.Since(sr.StartTime)
	if err == nil {
		sr.Status = core.StatusPassed
		return sr
	}
	if ee, ok := core.AsExecutionError(err); ok && ee.Location.IsZero() {
		err = ee.WithLocation(loc)
	}
	sr.Err = err
	sr.Error = err.Error()
	sr.Message = err.Error()
	sr.Status = core.StatusForError(err)
	sr.Category = core.CategoryOf(err)
	return sr
}

// skipFrom appends skipped results for everything from index on.
func (r *Runner) skipFrom(result *core.ScenarioResult, sc *scenario.Scenario, from int) {
	for i := from; i < len(sc.Steps)+len(sc.Verify); i++ {
		sr := core.StepResult{Index: i, Status: core.StatusSkipped}
		if i < len(sc.Steps) {
			sr.Description = sc.Steps[i].Describe()
			sr.Location = sc.Steps[i].Location
		} else {
			check := sc.Verify[i-len(sc.Steps)]
			sr.Description = check.Describe()
			sr.Location = check.Location
			sr.Verify = true
		}
		result.Steps = append(result.Steps, sr)
	}
}

// attachArtifacts captures debug artifacts for a step when configured.
func (r *Runner) attachArtifacts(ctx context.Context, sr *core.StepResult) {
	if !r.config.Artifacts.ShouldCapture(sr.Status) {
		return
	}
	src, ok := r.target.(core.ArtifactSource)
	if !ok {
		return
	}
	attachments, err := r.config.Artifacts.Capture(context.WithoutCancel(ctx), src)
	if err != nil {
		logger.Warn("artifact capture for step %d failed: %v", sr.Index, err)
	}
	sr.Attachments = append(sr.Attachments, attachments...)
}

func invalidScenario(err error) *core.ExecutionError {
	e := core.ErrInvalidScenario.WithMessage(err.Error()).WithCause(err)
	var se *scenario.StepError
	if errors.As(err, &se) {
		e = e.WithLocation(se.Location)
	}
	return e
}
