// Package jsengine evaluates JavaScript predicates and ${...} expressions in
// scenario strings.
package jsengine

import (
	"fmt"
	"strings"
	"sync"

	"github.com/dop251/goja"

	"github.com/devicelab-dev/uiscript/pkg/logger"
)

// Engine wraps a goja runtime. Variables and target state are globals.
// An Engine is safe for use by one runner; calls are serialized.
type Engine struct {
	runtime   *goja.Runtime
	variables map[string]interface{}
	stateKeys map[string]bool
	platform  string
	mu        sync.Mutex
}

// New creates a new JS engine instance
func New() *Engine {
	e := &Engine{
		runtime:   goja.New(),
		variables: make(map[string]interface{}),
		stateKeys: make(map[string]bool),
	}

	e.setupBuiltins()
	return e
}

// setupBuiltins registers all built-in functions and objects
func (e *Engine) setupBuiltins() {
	e.setupConsole()

	// JSON helper
	_ = e.runtime.Set("json", e.jsonFunc())

	// uiscript object
	_ = e.runtime.Set("uiscript", e.uiscriptObject())
}

// setupConsole routes console.log, console.error, etc. to the log file.
func (e *Engine) setupConsole() {
	makeConsoleFunc := func(logf func(string, ...interface{})) func(goja.FunctionCall) goja.Value {
		return func(call goja.FunctionCall) goja.Value {
			args := make([]string, len(call.Arguments))
			for i, arg := range call.Arguments {
				args[i] = fmt.Sprintf("%v", arg.Export())
			}
			logf("[js] %s", strings.Join(args, " "))
			return goja.Undefined()
		}
	}

	console := e.runtime.NewObject()
	_ = console.Set("log", makeConsoleFunc(logger.Info))
	_ = console.Set("error", makeConsoleFunc(logger.Error))
	_ = console.Set("warn", makeConsoleFunc(logger.Warn))
	_ = e.runtime.Set("console", console)
}

// jsonFunc returns the json() helper function
func (e *Engine) jsonFunc() func(call goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 1 {
			panic(e.runtime.NewTypeError("json requires 1 argument"))
		}

		str := call.Arguments[0].String()

		result, err := e.runtime.RunString(fmt.Sprintf("JSON.parse(%q)", str))
		if err != nil {
			panic(e.runtime.NewTypeError(fmt.Sprintf("invalid JSON: %v", err)))
		}
		return result
	}
}

// uiscriptObject returns the uiscript global object
func (e *Engine) uiscriptObject() *goja.Object {
	obj := e.runtime.NewObject()

	// uiscript.platform - platform of the current target
	_ = obj.DefineAccessorProperty("platform", e.runtime.ToValue(func() string {
		return e.platform
	}), nil, goja.FLAG_FALSE, goja.FLAG_TRUE)

	return obj
}

// SetVariable sets a variable accessible in JS as a global
func (e *Engine) SetVariable(name string, value interface{}) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.variables[name] = value
	_ = e.runtime.Set(name, value)
}

// SetVariables sets multiple variables
func (e *Engine) SetVariables(vars map[string]interface{}) {
	for k, v := range vars {
		e.SetVariable(k, v)
	}
}

// SetStrings sets string variables, e.g. labels and env values.
func (e *Engine) SetStrings(vars map[string]string) {
	for k, v := range vars {
		e.SetVariable(k, v)
	}
}

// Unset resets variables to undefined.
func (e *Engine) Unset(names ...string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, name := range names {
		delete(e.variables, name)
		_ = e.runtime.Set(name, goja.Undefined())
	}
}

// SetState publishes target state as globals: {"bookmarks": {"count": 1}}
// makes bookmarks.count available to scripts. Keys from an earlier state
// that are absent now are reset to undefined.
func (e *Engine) SetState(state map[string]interface{}) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for k := range e.stateKeys {
		if _, ok := state[k]; !ok {
			_ = e.runtime.Set(k, goja.Undefined())
			delete(e.stateKeys, k)
		}
	}
	for k, v := range state {
		e.stateKeys[k] = true
		_ = e.runtime.Set(k, v)
	}
}

// SetPlatform sets the current platform
func (e *Engine) SetPlatform(platform string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.platform = platform
}

// Eval evaluates a JavaScript expression and returns the result
func (e *Engine) Eval(script string) (interface{}, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	result, err := e.runtime.RunString(script)
	if err != nil {
		return nil, fmt.Errorf("JS eval error: %w", err)
	}

	return result.Export(), nil
}

// EvalString evaluates a JavaScript expression and returns string result
func (e *Engine) EvalString(script string) (string, error) {
	result, err := e.Eval(script)
	if err != nil {
		return "", err
	}

	if result == nil {
		return "", nil
	}

	return fmt.Sprintf("%v", result), nil
}

// EvalBool evaluates a condition with JavaScript truthiness.
func (e *Engine) EvalBool(script string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	result, err := e.runtime.RunString(script)
	if err != nil {
		return false, fmt.Errorf("JS eval error: %w", err)
	}
	return result.ToBoolean(), nil
}

// ExpandVariables expands ${...} expressions in a string using JS
// evaluation. Expressions that fail to evaluate are left as written.
func (e *Engine) ExpandVariables(text string) string {
	result := text
	start := 0

	for {
		// Find ${
		idx := strings.Index(result[start:], "${")
		if idx == -1 {
			break
		}
		idx += start

		// Find matching }
		depth := 1
		end := idx + 2
		for end < len(result) && depth > 0 {
			if result[end] == '{' {
				depth++
			} else if result[end] == '}' {
				depth--
			}
			end++
		}

		if depth != 0 {
			// Unmatched brace, skip
			start = idx + 2
			continue
		}

		expr := result[idx+2 : end-1]

		value, err := e.EvalString(expr)
		if err != nil {
			logger.Debug("leaving ${%s} unexpanded: %v", expr, err)
			start = end
			continue
		}

		result = result[:idx] + value + result[end:]
		start = idx + len(value)
	}

	return result
}

// Close interrupts any running script. Safe to call multiple times.
func (e *Engine) Close() {
	e.runtime.Interrupt("engine closed")
}
