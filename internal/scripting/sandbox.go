// Package scripting evaluates rotation conditions as sandboxed GopherLua
// expressions. Conditions can read the simulation through helper functions
// but have no way to change it.
package scripting

import (
	"context"
	"sync/atomic"

	lua "github.com/yuin/gopher-lua"
)

// DefaultInstructionLimit is the maximum number of Lua opcodes one condition
// may execute when no override is configured.
const DefaultInstructionLimit = 10_000

// countingContext is a context.Context that cancels itself after Done() has
// been called limit times. GopherLua's mainLoopWithContext calls Done() once
// per opcode, making this an exact instruction-count limit.
type countingContext struct {
	context.Context
	cancel    context.CancelFunc
	remaining *atomic.Int64
}

// Done returns the underlying cancellation channel. Each call decrements the
// remaining counter; when it reaches zero the cancel function fires,
// terminating the Lua VM on the next opcode boundary.
func (c *countingContext) Done() <-chan struct{} {
	if c.remaining.Add(-1) <= 0 {
		c.cancel()
	}
	return c.Context.Done()
}

// newCountingContext returns a context that cancels after limit calls to Done().
// Precondition: limit > 0.
func newCountingContext(limit int) (context.Context, context.CancelFunc) {
	base, cancel := context.WithCancel(context.Background())
	rem := &atomic.Int64{}
	rem.Store(int64(limit))
	return &countingContext{Context: base, cancel: cancel, remaining: rem}, cancel
}

// NewSandboxedState creates a GopherLua LState with only the base, table,
// string and math libraries, and with dofile, loadfile, load, collectgarbage
// and require removed.
//
// Postcondition: The caller owns the LState and must call L.Close() when done.
func NewSandboxedState() *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
	for _, name := range []string{"dofile", "loadfile", "load", "collectgarbage", "require"} {
		L.SetGlobal(name, lua.LNil)
	}
	return L
}

// conditionBaseFuncs are the base-library functions visible to conditions.
// Raw access, metatable and environment functions are left out.
var conditionBaseFuncs = []string{
	"assert", "error", "ipairs", "next", "pairs", "pcall",
	"select", "tonumber", "tostring", "type", "unpack",
}

// NewReadOnlyEnv returns an environment table for condition chunks. It
// exposes conditionBaseFuncs, read-only views of the table, string and math
// libraries, and extra. _G resolves to the environment itself.
//
// Precondition: L was created by NewSandboxedState.
// Postcondition: any assignment through the environment or its library
// views raises an error, and the underlying tables are unreachable.
func NewReadOnlyEnv(L *lua.LState, extra map[string]lua.LValue) *lua.LTable {
	base := L.NewTable()
	for _, name := range conditionBaseFuncs {
		if v := L.GetGlobal(name); v != lua.LNil {
			base.RawSetString(name, v)
		}
	}
	for _, lib := range []string{"table", "string", "math"} {
		if t, ok := L.GetGlobal(lib).(*lua.LTable); ok {
			base.RawSetString(lib, readOnly(L, t))
		}
	}
	for name, v := range extra {
		base.RawSetString(name, v)
	}
	env := readOnly(L, base)
	base.RawSetString("_G", env)
	return env
}

// readOnly returns an empty proxy that reads through to t and rejects writes.
func readOnly(L *lua.LState, t *lua.LTable) *lua.LTable {
	mt := L.NewTable()
	mt.RawSetString("__index", t)
	mt.RawSetString("__newindex", L.NewFunction(func(L *lua.LState) int {
		L.RaiseError("conditions are read-only")
		return 0
	}))
	mt.RawSetString("__metatable", lua.LString("read-only"))
	proxy := L.NewTable()
	L.SetMetatable(proxy, mt)
	return proxy
}

// withBudget runs fn with L limited to at most limit opcodes.
//
// Precondition: limit > 0.
func withBudget(L *lua.LState, limit int, fn func() error) error {
	ctx, cancel := newCountingContext(limit)
	defer cancel()
	L.SetContext(ctx)
	defer L.RemoveContext()
	return fn()
}
