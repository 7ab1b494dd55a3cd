package scripting

import (
	"fmt"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/simfell/internal/rotation"
)

// Evaluator implements rotation.Evaluator. Every condition is a Lua
// expression; an action is permitted when all of its conditions are truthy.
//
// An Evaluator owns one LState and serializes calls; create one per
// simulation run so parallel runs do not contend.
type Evaluator struct {
	mu       sync.Mutex
	L        *lua.LState
	env      *lua.LTable
	compiled map[string]*lua.LFunction
	warned   map[string]bool
	state    rotation.State
	limit    int
	logger   *zap.Logger
}

// NewEvaluator creates an Evaluator with its own sandboxed VM.
//
// Precondition: logger must be non-nil; instLimit <= 0 uses DefaultInstructionLimit.
// Postcondition: the caller must call Close when done.
func NewEvaluator(logger *zap.Logger, instLimit int) *Evaluator {
	if instLimit <= 0 {
		instLimit = DefaultInstructionLimit
	}
	e := &Evaluator{
		L:        NewSandboxedState(),
		compiled: make(map[string]*lua.LFunction),
		warned:   make(map[string]bool),
		limit:    instLimit,
		logger:   logger,
	}
	e.env = NewReadOnlyEnv(e.L, e.helpers(e.L))
	return e
}

// Close releases the VM.
func (e *Evaluator) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.L.Close()
}

// Compile checks that cond is a valid Lua expression and caches it.
func (e *Evaluator) Compile(cond string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, err := e.compile(cond)
	return err
}

func (e *Evaluator) compile(cond string) (*lua.LFunction, error) {
	if fn, ok := e.compiled[cond]; ok {
		return fn, nil
	}
	fn, err := e.L.LoadString("return (" + cond + ")")
	if err != nil {
		return nil, fmt.Errorf("scripting: compiling condition %q: %w", cond, err)
	}
	fn.Env = e.env
	e.compiled[cond] = fn
	return fn, nil
}

// Evaluate reports whether every condition holds against st. An empty list
// holds. A condition that fails to compile or run is false and logged at warn
// once.
func (e *Evaluator) Evaluate(conditions []string, st rotation.State) bool {
	if len(conditions) == 0 {
		return true
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = st
	defer func() { e.state = nil }()

	for _, cond := range conditions {
		ok, err := e.eval(cond)
		if err != nil {
			if !e.warned[cond] {
				e.warned[cond] = true
				e.logger.Warn("scripting: condition failed", zap.String("condition", cond), zap.Error(err))
			}
			return false
		}
		if !ok {
			return false
		}
	}
	return true
}

func (e *Evaluator) eval(cond string) (bool, error) {
	fn, err := e.compile(cond)
	if err != nil {
		return false, err
	}
	var ret lua.LValue = lua.LNil
	err = withBudget(e.L, e.limit, func() error {
		if err := e.L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}); err != nil {
			return err
		}
		ret = e.L.Get(-1)
		e.L.Pop(1)
		return nil
	})
	if err != nil {
		return false, err
	}
	return lua.LVAsBool(ret), nil
}
