package scripting

import lua "github.com/yuin/gopher-lua"

// helpers returns the read-only condition helpers by name. Each helper reads
// e.state, which is only set while Evaluate runs.
func (e *Evaluator) helpers(L *lua.LState) map[string]lua.LValue {
	num := func(f func() float64) lua.LGFunction {
		return func(L *lua.LState) int {
			L.Push(lua.LNumber(f()))
			return 1
		}
	}
	byID := func(f func(id string) lua.LValue) lua.LGFunction {
		return func(L *lua.LState) int {
			L.Push(f(L.CheckString(1)))
			return 1
		}
	}

	funcs := map[string]lua.LGFunction{
		"time":      num(func() float64 { return e.state.Now() }),
		"remaining": num(func() float64 { return e.state.Remaining() }),
		"enemies":   num(func() float64 { return float64(e.state.Enemies()) }),
		"stat": byID(func(name string) lua.LValue {
			v, ok := e.state.Stat(name)
			if !ok {
				return lua.LNil
			}
			return lua.LNumber(v)
		}),
		"resource": byID(func(name string) lua.LValue { return lua.LNumber(e.state.Resource(name)) }),
		"talent":   byID(func(id string) lua.LValue { return lua.LBool(e.state.HasTalent(id)) }),

		"buff_active":    byID(func(id string) lua.LValue { return lua.LBool(e.state.Buff(id).Active) }),
		"buff_stacks":    byID(func(id string) lua.LValue { return lua.LNumber(e.state.Buff(id).Stacks) }),
		"buff_remaining": byID(func(id string) lua.LValue { return lua.LNumber(e.state.Buff(id).Remaining) }),

		"debuff_active":    byID(func(id string) lua.LValue { return lua.LBool(e.state.Debuff(id).Active) }),
		"debuff_stacks":    byID(func(id string) lua.LValue { return lua.LNumber(e.state.Debuff(id).Stacks) }),
		"debuff_remaining": byID(func(id string) lua.LValue { return lua.LNumber(e.state.Debuff(id).Remaining) }),

		"cooldown": byID(func(id string) lua.LValue { return lua.LNumber(e.state.Cooldown(id)) }),
		"ready":    byID(func(id string) lua.LValue { return lua.LBool(e.state.Ready(id)) }),
	}
	out := make(map[string]lua.LValue, len(funcs))
	for name, fn := range funcs {
		out[name] = L.NewFunction(fn)
	}
	return out
}
