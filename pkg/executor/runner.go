// Package executor runs scenarios against a core.Target: it locates elements,
// waits for preconditions, performs gestures and checks assertions, and owns
// every timeout and error mapping on the way.
package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/devicelab-dev/uiscript/pkg/core"
	"github.com/devicelab-dev/uiscript/pkg/jsengine"
	"github.com/devicelab-dev/uiscript/pkg/logger"
	"github.com/devicelab-dev/uiscript/pkg/scenario"
)

// Handle is a resolved element. Info is the element as last observed; the
// reference may go stale and is re-resolved through Query when it does.
type Handle struct {
	Query scenario.ElementQuery
	Info  *core.ElementInfo
}

// Ref returns the target reference, or "" for an unresolved handle.
func (h *Handle) Ref() string {
	if h == nil || h.Info == nil {
		return ""
	}
	return h.Info.Ref
}

// Unresolved returns a handle that is resolved by query on every poll. It is
// used to wait for elements that may not exist yet, or should disappear.
func Unresolved(q scenario.ElementQuery) *Handle {
	return &Handle{Query: q}
}

// Runner executes steps against one target. A Runner is not safe for
// concurrent use; one scenario runs at a time.
type Runner struct {
	target core.Target
	config Config
	js     *jsengine.Engine
}

// New creates a runner for target.
func New(target core.Target, cfg Config) *Runner {
	cfg = cfg.withDefaults()
	js := jsengine.New()
	js.SetStrings(cfg.Vars)
	if info := target.PlatformInfo(); info != nil {
		js.SetPlatform(info.Platform)
	}
	return &Runner{target: target, config: cfg, js: js}
}

// Target returns the target the runner drives.
func (r *Runner) Target() core.Target {
	return r.target
}

// Close releases the script engine.
func (r *Runner) Close() {
	r.js.Close()
}

// Find locates the single element matching q, polling until it appears or
// the find timeout elapses.
func (r *Runner) Find(ctx context.Context, q scenario.ElementQuery) (*Handle, error) {
	return r.find(ctx, q, r.config.FindTimeout)
}

func (r *Runner) find(ctx context.Context, q scenario.ElementQuery, timeout time.Duration) (*Handle, error) {
	var found *core.ElementInfo
	var matches int
	var lastErr error

	err := poll(ctx, timeout, r.config.PollInterval, func(ctx context.Context) (bool, error) {
		info, n, err := r.resolve(ctx, q)
		if err != nil {
			if isFatal(err) {
				return false, err
			}
			lastErr = err
			return false, nil
		}
		matches = n
		found = info
		return info != nil, nil
	})

	switch {
	case err == nil:
		logger.Debug("found %s as %s", q.Describe(), found.Describe())
		return &Handle{Query: q, Info: found}, nil
	case errors.Is(err, errDeadline):
		e := core.ErrNotFound.
			WithMessagef("no element matching %s after %s", q.Describe(), timeout).
			WithDetails(map[string]interface{}{
				core.DetailQuery:   q.Describe(),
				core.DetailMatches: matches,
				core.DetailTimeout: timeout.String(),
			})
		if q.HasIndex() && matches > 0 {
			e = e.WithMessagef("no element matching %s after %s (%d matches, index %d)", q.Describe(), timeout, matches, *q.Index)
		}
		if lastErr != nil {
			e = e.WithCause(lastErr)
		}
		return nil, e
	default:
		return nil, r.mapError(err)
	}
}

// resolve runs one query and applies the index. It returns nil when the
// element is not there yet, and ErrAmbiguousMatch when more than one element
// matches a query without an index.
func (r *Runner) resolve(ctx context.Context, q scenario.ElementQuery) (*core.ElementInfo, int, error) {
	matches, err := r.target.Query(ctx, q.WithoutIndex())
	if err != nil {
		return nil, 0, err
	}
	n := len(matches)
	if !q.HasIndex() {
		switch {
		case n == 0:
			return nil, 0, nil
		case n > 1:
			return nil, n, core.ErrAmbiguousMatch.
				WithMessagef("%s matched %d elements; add an index or narrow the query", q.Describe(), n).
				WithDetails(map[string]interface{}{
					core.DetailQuery:   q.Describe(),
					core.DetailMatches: n,
				})
		}
		return matches[0], n, nil
	}
	if idx := *q.Index; idx >= 0 && idx < n {
		return matches[idx], n, nil
	}
	return nil, n, nil
}

// WaitUntil polls pred against the element until it holds or timeout
// elapses. A zero timeout uses the configured wait timeout. h may be nil for
// script predicates.
func (r *Runner) WaitUntil(ctx context.Context, h *Handle, pred scenario.Predicate, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = r.config.WaitTimeout
	}
	if pred.NeedsElement() && h == nil {
		return core.ErrInvalidScenario.WithMessagef("waiting for %s requires an element", pred.Describe())
	}

	var observed string
	var lastErr error
	err := poll(ctx, timeout, r.config.PollInterval, func(ctx context.Context) (bool, error) {
		ok, obs, err := r.check(ctx, h, pred)
		if err != nil {
			if isFatal(err) {
				return false, err
			}
			lastErr = err
			return false, nil
		}
		observed = obs
		return ok, nil
	})

	switch {
	case err == nil:
		return nil
	case errors.Is(err, errDeadline):
		subject := "condition"
		if h != nil {
			subject = h.Query.Describe()
		}
		e := core.ErrTimeout.
			WithMessagef("timed out after %s waiting for %s to be %s (last observed: %s)", timeout, subject, pred.Describe(), observed).
			WithDetails(map[string]interface{}{
				core.DetailPredicate: pred.Describe(),
				core.DetailObserved:  observed,
				core.DetailTimeout:   timeout.String(),
			})
		if h != nil {
			e = e.WithDetails(map[string]interface{}{core.DetailQuery: h.Query.Describe()})
		}
		if lastErr != nil {
			e = e.WithCause(lastErr)
		}
		return e
	default:
		return r.mapError(err)
	}
}

// check evaluates pred once. For element predicates the handle is refreshed:
// a live reference is inspected, a stale or missing one is re-resolved with a
// single query.
func (r *Runner) check(ctx context.Context, h *Handle, pred scenario.Predicate) (bool, string, error) {
	if !pred.NeedsElement() {
		return r.evalScript(ctx, pred.Script)
	}
	info, err := r.refresh(ctx, h)
	if err != nil {
		return false, "", err
	}
	ok, observed := evaluate(info, pred)
	return ok, observed, nil
}

// refresh re-reads the element behind h, updating h.Info. It returns nil
// info when the element is gone.
func (r *Runner) refresh(ctx context.Context, h *Handle) (*core.ElementInfo, error) {
	if ref := h.Ref(); ref != "" {
		info, err := r.target.Inspect(ctx, ref)
		if err == nil {
			h.Info = info
			return info, nil
		}
		if !errors.Is(err, core.ErrStale) {
			return nil, err
		}
		logger.Debug("%s went stale, re-resolving", h.Query.Describe())
	}
	info, _, err := r.resolve(ctx, h.Query)
	if err != nil {
		return nil, err
	}
	h.Info = info
	return info, nil
}

// evalScript evaluates a script predicate against the current target state.
func (r *Runner) evalScript(ctx context.Context, script string) (bool, string, error) {
	if sp, ok := r.target.(core.StateProvider); ok {
		state, err := sp.State(ctx)
		if err != nil {
			return false, "", fmt.Errorf("read target state: %w", err)
		}
		r.js.SetState(state)
	}
	ok, err := r.js.EvalBool(script)
	if err != nil {
		return false, "", core.ErrInvalidScenario.WithMessagef("script %q failed", script).WithCause(err)
	}
	return ok, fmt.Sprintf("%s is %v", script, ok), nil
}

// Perform executes action on the element behind h. The element is
// re-resolved first; a stale handle that no longer resolves, a hidden element
// or a disabled one fails without retry. Once started, a gesture runs to
// completion even if ctx is cancelled, bounded by the action timeout.
func (r *Runner) Perform(ctx context.Context, h *Handle, action scenario.Action) error {
	if err := ctx.Err(); err != nil {
		return r.mapError(err)
	}
	if action.Kind == scenario.ActionWait {
		if err := sleep(ctx, action.Duration); err != nil {
			return r.mapError(err)
		}
		return nil
	}
	if h == nil {
		return core.ErrInvalidScenario.WithMessagef("%s requires an element", action.Kind)
	}

	info, err := r.refresh(ctx, h)
	if err != nil {
		if isFatal(err) {
			return err
		}
		if ctx.Err() != nil {
			return r.mapError(ctx.Err())
		}
		return r.actionFailed(h, action, "could not re-read element").WithCause(err)
	}
	switch {
	case info == nil:
		return r.actionFailed(h, action, "element is stale and no longer resolves")
	case !info.Visible || info.VisibleFraction <= 0:
		return r.actionFailed(h, action, "element is not visible")
	case !info.Enabled:
		return r.actionFailed(h, action, "element is disabled")
	}

	actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.config.ActionTimeout)
	defer cancel()

	logger.Debug("%s on %s", action.Describe(), info.Describe())
	if err := r.target.Perform(actx, info.Ref, action); err != nil {
		if errors.Is(err, core.ErrUnsupportedAction) {
			return err
		}
		return r.actionFailed(h, action, "target rejected gesture").WithCause(err)
	}
	return nil
}

func (r *Runner) actionFailed(h *Handle, action scenario.Action, msg string) *core.ExecutionError {
	return core.ErrActionFailed.
		WithMessagef("%s on %s failed: %s", action.Describe(), h.Query.Describe(), msg).
		WithDetails(map[string]interface{}{
			core.DetailAction:   action.Describe(),
			core.DetailQuery:    h.Query.Describe(),
			core.DetailObserved: h.Info.Describe(),
		})
}

// Assert evaluates pred once against h. h may be nil for script predicates.
func (r *Runner) Assert(ctx context.Context, h *Handle, pred scenario.Predicate, reason string, loc scenario.Location) error {
	if err := ctx.Err(); err != nil {
		return r.mapError(err)
	}
	ok, observed, err := r.check(ctx, h, pred)
	if err != nil {
		if ctx.Err() != nil {
			return core.ErrCancelled.WithCause(ctx.Err()).WithLocation(loc)
		}
		if ee, isEE := core.AsExecutionError(err); isEE {
			return ee.WithLocation(loc)
		}
		return core.ErrAssertionFailed.WithMessage(reason).WithLocation(loc).WithCause(err)
	}
	if ok {
		return nil
	}
	details := map[string]interface{}{
		core.DetailPredicate: pred.Describe(),
		core.DetailObserved:  observed,
	}
	if h != nil {
		details[core.DetailQuery] = h.Query.Describe()
	}
	return core.ErrAssertionFailed.
		WithMessagef("%s (observed: %s)", reason, observed).
		WithLocation(loc).
		WithDetails(details)
}

// AssertQuery evaluates pred once against the element matched by q, without
// waiting for it to appear.
func (r *Runner) AssertQuery(ctx context.Context, q *scenario.ElementQuery, pred scenario.Predicate, reason string, loc scenario.Location) error {
	var h *Handle
	if q != nil {
		h = Unresolved(*q)
	}
	return r.Assert(ctx, h, pred, reason, loc)
}

// mapError turns context errors into ErrCancelled.
func (r *Runner) mapError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return core.ErrCancelled.WithCause(err)
	}
	return err
}

// isFatal reports whether err ends a poll immediately instead of being
// retried on the next tick.
func isFatal(err error) bool {
	_, ok := core.AsExecutionError(err)
	return ok
}
