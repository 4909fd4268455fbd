// Package mock provides an in-memory target for testing without a device.
// The UI is a hierarchy.Node tree; elements can be scheduled to appear or
// disappear, and calls can be made to fail by call number.
package mock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/devicelab-dev/uiscript/pkg/core"
	"github.com/devicelab-dev/uiscript/pkg/hierarchy"
	"github.com/devicelab-dev/uiscript/pkg/scenario"
)

// Config configures mock target behavior.
type Config struct {
	// Platform info to report
	Platform string
	DeviceID string

	// Screen bounds for visibility; defaults to 390x844
	Screen core.Bounds

	// PerformDelay adds artificial delay per gesture
	PerformDelay time.Duration
}

// Call is one recorded target call.
type Call struct {
	Method string // Launch, Query, Inspect, Perform
	Query  string // Query: described query
	Ref    string // Inspect and Perform
	Action string // Perform: described action
	Label  string // Perform: label of the element acted on
}

func (c Call) String() string {
	switch c.Method {
	case "Query":
		return "Query " + c.Query
	case "Inspect":
		return "Inspect " + c.Ref
	case "Perform":
		return fmt.Sprintf("Perform %s %q", c.Action, c.Label)
	}
	return c.Method
}

// PerformFunc reacts to a gesture, typically by editing the tree.
type PerformFunc func(t *Target, n *hierarchy.Node, action scenario.Action) error

type presence struct {
	appearReads    int
	disappearReads int
	appearAt         time.Duration
	disappearAt      time.Duration
}

// Target is a mock implementation of core.Target. It is safe for concurrent
// use.
type Target struct {
	config Config

	mu        sync.Mutex
	root      *hierarchy.Node
	rules     map[*hierarchy.Node]*presence
	calls     []Call
	queries   int
	reads     int // Query and Inspect calls
	performs  int
	failQuery map[int]error
	failPerf  map[int]error
	nextRef   int
	started   time.Time
	state     map[string]interface{}

	// OnPerform, when set, runs for every gesture that is not failed by
	// injection.
	OnPerform PerformFunc
	// OnLaunch, when set, runs on Launch.
	OnLaunch func(t *Target) error
}

// New creates a mock target over root. Nodes without a Ref get one.
func New(root *hierarchy.Node, cfg Config) *Target {
	if cfg.Platform == "" {
		cfg.Platform = "mock"
	}
	if cfg.DeviceID == "" {
		cfg.DeviceID = "mock-device"
	}
	if cfg.Screen.Area() == 0 {
		cfg.Screen = core.Bounds{Width: 390, Height: 844}
	}
	t := &Target{
		config:    cfg,
		rules:     make(map[*hierarchy.Node]*presence),
		failQuery: make(map[int]error),
		failPerf:  make(map[int]error),
		started:   time.Now(),
		state:     make(map[string]interface{}),
	}
	t.SetRoot(root)
	return t
}

// SetRoot replaces the whole tree.
func (t *Target) SetRoot(root *hierarchy.Node) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if root != nil {
		root.Link()
		t.assignRefs(root)
	}
	t.root = root
}

func (t *Target) assignRefs(root *hierarchy.Node) {
	root.Walk(func(n *hierarchy.Node) bool {
		if n.Ref == "" {
			t.nextRef++
			n.Ref = fmt.Sprintf("e%d", t.nextRef)
		}
		return true
	})
}

// Root returns the current tree.
func (t *Target) Root() *hierarchy.Node {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.root
}

// Add attaches children to parent and gives them references.
func (t *Target) Add(parent *hierarchy.Node, children ...*hierarchy.Node) {
	t.mu.Lock()
	defer t.mu.Unlock()
	parent.Add(children...)
	t.root.Link()
	for _, c := range children {
		t.assignRefs(c)
	}
}

// Remove detaches n from its parent. Its references become stale.
func (t *Target) Remove(n *hierarchy.Node) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p := n.Parent
	if p == nil {
		return
	}
	for i, c := range p.Children {
		if c == n {
			p.Children = append(p.Children[:i:i], p.Children[i+1:]...)
			break
		}
	}
	n.Parent = nil
}

// Invalidate gives n a new reference, making the old one stale while the
// element itself stays on screen.
func (t *Target) Invalidate(n *hierarchy.Node) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.nextRef++
	n.Ref = fmt.Sprintf("e%d", t.nextRef)
}

// AppearAfterReads hides n from the first count reads. Both Query and
// Inspect count as reads.
func (t *Target) AppearAfterReads(n *hierarchy.Node, count int) {
	t.rule(n, func(r *presence) { r.appearReads = count })
}

// DisappearAfterReads removes n from view once count reads were made.
func (t *Target) DisappearAfterReads(n *hierarchy.Node, count int) {
	t.rule(n, func(r *presence) { r.disappearReads = count })
}

// AppearAfter hides n until d has passed since the target was created or
// last reset with ResetClock.
func (t *Target) AppearAfter(n *hierarchy.Node, d time.Duration) {
	t.rule(n, func(r *presence) { r.appearAt = d })
}

// DisappearAfter removes n from view once d has passed.
func (t *Target) DisappearAfter(n *hierarchy.Node, d time.Duration) {
	t.rule(n, func(r *presence) { r.disappearAt = d })
}

func (t *Target) rule(n *hierarchy.Node, set func(*presence)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	r, ok := t.rules[n]
	if !ok {
		r = &presence{}
		t.rules[n] = r
	}
	set(r)
}

// ResetClock restarts the clock used by time-based presence rules.
func (t *Target) ResetClock() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.started = time.Now()
}

// FailQuery makes the Nth Query call (1-indexed) return err.
func (t *Target) FailQuery(call int, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failQuery[call] = err
}

// FailPerform makes the Nth Perform call (1-indexed) return err.
func (t *Target) FailPerform(call int, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failPerf[call] = err
}

// SetState sets the state exposed to script predicates.
func (t *Target) SetState(state map[string]interface{}) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = state
}

// Calls returns the recorded calls in order.
func (t *Target) Calls() []Call {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Call, len(t.calls))
	copy(out, t.calls)
	return out
}

// Performed returns the recorded Perform calls in order.
func (t *Target) Performed() []Call {
	var out []Call
	for _, c := range t.Calls() {
		if c.Method == "Perform" {
			out = append(out, c)
		}
	}
	return out
}

// QueryCount returns the number of Query calls so far.
func (t *Target) QueryCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.queries
}

// present reports whether n is currently on screen according to its rule.
// Rules on ancestors apply to descendants.
func (t *Target) present(n *hierarchy.Node) bool {
	elapsed := time.Since(t.started)
	for p := n; p != nil; p = p.Parent {
		r, ok := t.rules[p]
		if !ok {
			continue
		}
		if t.reads <= r.appearReads {
			return false
		}
		if r.disappearReads > 0 && t.reads > r.disappearReads {
			return false
		}
		if elapsed < r.appearAt {
			return false
		}
		if r.disappearAt > 0 && elapsed >= r.disappearAt {
			return false
		}
	}
	return true
}

// Launch implements core.Target.
func (t *Target) Launch(ctx context.Context) error {
	t.mu.Lock()
	t.calls = append(t.calls, Call{Method: "Launch"})
	t.started = time.Now()
	hook := t.OnLaunch
	t.mu.Unlock()

	if hook != nil {
		return hook(t)
	}
	return nil
}

// Query implements core.Target.
func (t *Target) Query(ctx context.Context, q scenario.ElementQuery) ([]*core.ElementInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	t.queries++
	t.reads++
	t.calls = append(t.calls, Call{Method: "Query", Query: q.Describe()})
	if err, ok := t.failQuery[t.queries]; ok {
		return nil, err
	}

	var out []*core.ElementInfo
	for _, n := range hierarchy.Match(t.root, q) {
		if t.present(n) {
			out = append(out, n.Info(t.config.Screen))
		}
	}
	return out, nil
}

// Inspect implements core.Target.
func (t *Target) Inspect(ctx context.Context, ref string) (*core.ElementInfo, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.reads++
	t.calls = append(t.calls, Call{Method: "Inspect", Ref: ref})
	n := t.root.FindRef(ref)
	if n == nil || !t.present(n) {
		return nil, core.ErrStale
	}
	return n.Info(t.config.Screen), nil
}

// Perform implements core.Target.
func (t *Target) Perform(ctx context.Context, ref string, action scenario.Action) error {
	t.mu.Lock()
	t.performs++
	n := t.root.FindRef(ref)
	label := ""
	if n != nil {
		label = n.Label
	}
	t.calls = append(t.calls, Call{Method: "Perform", Ref: ref, Action: action.Describe(), Label: label})
	failure, failed := t.failPerf[t.performs]
	hook := t.OnPerform
	delay := t.config.PerformDelay
	t.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if failed {
		return failure
	}
	if n == nil {
		return core.ErrStale
	}
	if hook != nil {
		return hook(t, n, action)
	}
	return nil
}

// Edit runs fn with the tree locked, then relinks it and gives new nodes
// references. Hooks and tests use it for edits Add and Remove do not cover.
func (t *Target) Edit(fn func(root *hierarchy.Node)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fn(t.root)
	t.root.Link()
	t.assignRefs(t.root)
}

// PlatformInfo implements core.Target.
func (t *Target) PlatformInfo() *core.PlatformInfo {
	return &core.PlatformInfo{
		Platform:     t.config.Platform,
		Engine:       "mock",
		DeviceID:     t.config.DeviceID,
		DeviceName:   "Mock Device",
		IsSimulator:  true,
		ScreenWidth:  t.config.Screen.Width,
		ScreenHeight: t.config.Screen.Height,
	}
}

// State implements core.StateProvider.
func (t *Target) State(ctx context.Context) (map[string]interface{}, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]interface{}, len(t.state))
	for k, v := range t.state {
		out[k] = v
	}
	return out, nil
}

// Screenshot implements core.ArtifactSource with a fixed PNG header.
func (t *Target) Screenshot(ctx context.Context) ([]byte, error) {
	return []byte{0x89, 0x50, 0x4E, 0x47}, nil
}

// Hierarchy implements core.ArtifactSource.
func (t *Target) Hierarchy(ctx context.Context) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.root.JSON()
}
