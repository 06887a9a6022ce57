package rules

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/nathoo/storyloom/engine/state"
	"github.com/nathoo/storyloom/types"
)

// ScriptModule runs a rule module written in Lua. The script declares its
// identity and optional handlers as globals:
//
//	module_id = "rules.script"
//	module_system = "Custom"
//	compatible_systems = { "d20" }            -- optional
//
//	function evaluate_condition(kind, key, operator, value)
//	    -- return true/false to decide, nil to pass
//	end
//
//	function resolve(hook_type, payload)
//	    return { narrative = "...", outcome = "success",
//	             effects = { { type = "setFlag", key = "x", value = true } } }
//	end
//
// Scripts read game state through a registered API: get_flag, get_stat,
// get_var, has_item, item_count, get_reputation, and roll (dice notation).
// The VM is sandboxed: only base, table, string, and math libraries are
// open, file and load primitives are removed, and math.randomseed is
// stripped to preserve determinism.
//
// A ScriptModule owns one Lua state and is not safe for concurrent use,
// matching the one-turn-at-a-time contract of the engine.
type ScriptModule struct {
	id         string
	system     string
	compatible []string

	vm  *lua.LState
	cur *Context
}

// NewScriptModule compiles a Lua source string into a module. The script
// must set module_id and module_system.
func NewScriptModule(source string) (*ScriptModule, error) {
	vm := lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibs(vm)
	sandboxVM(vm)

	m := &ScriptModule{vm: vm}
	m.registerAPI()

	if err := vm.DoString(source); err != nil {
		vm.Close()
		return nil, fmt.Errorf("executing rule script: %w", err)
	}

	id, ok := vm.GetGlobal("module_id").(lua.LString)
	if !ok || id == "" {
		vm.Close()
		return nil, fmt.Errorf("rule script must set module_id")
	}
	system, ok := vm.GetGlobal("module_system").(lua.LString)
	if !ok || system == "" {
		vm.Close()
		return nil, fmt.Errorf("rule script must set module_system")
	}
	m.id = string(id)
	m.system = string(system)

	if tbl, ok := vm.GetGlobal("compatible_systems").(*lua.LTable); ok {
		tbl.ForEach(func(_, v lua.LValue) {
			if s, ok := v.(lua.LString); ok {
				m.compatible = append(m.compatible, string(s))
			}
		})
	}

	return m, nil
}

// Close releases the Lua state.
func (m *ScriptModule) Close() {
	m.vm.Close()
}

func (m *ScriptModule) ID() string {
	return m.id
}

func (m *ScriptModule) System() string {
	return m.system
}

func (m *ScriptModule) SupportsSystem(system string) bool {
	for _, s := range m.compatible {
		if s == system {
			return true
		}
	}
	return false
}

// Init hands the reference's config payload to an optional init(config)
// function in the script. The script rejects the config by returning
// false, message or by raising an error.
func (m *ScriptModule) Init(config map[string]any) error {
	fn := m.vm.GetGlobal("init")
	if fn == lua.LNil {
		return nil
	}
	if err := m.vm.CallByParam(lua.P{Fn: fn, NRet: 2, Protect: true}, goToLua(m.vm, config)); err != nil {
		return err
	}
	defer m.vm.Pop(2)
	ok := m.vm.Get(-2)
	msg := m.vm.Get(-1)
	if ok == lua.LFalse {
		if s, isStr := msg.(lua.LString); isStr {
			return fmt.Errorf("%s", string(s))
		}
		return fmt.Errorf("invalid config")
	}
	return nil
}

func (m *ScriptModule) EvaluateCondition(cond types.Condition, s *types.GameState, _ EvalContext) (bool, bool) {
	fn := m.vm.GetGlobal("evaluate_condition")
	if fn == lua.LNil {
		return false, false
	}

	m.cur = &Context{State: s}
	defer func() { m.cur = nil }()

	err := m.vm.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true},
		lua.LString(cond.Type),
		lua.LString(cond.Key),
		lua.LString(cond.Operator),
		goToLua(m.vm, cond.Value),
	)
	if err != nil {
		return false, false
	}
	ret := m.vm.Get(-1)
	m.vm.Pop(1)

	if b, ok := ret.(lua.LBool); ok {
		return bool(b), true
	}
	return false, false
}

func (m *ScriptModule) Resolve(ctx Context) types.RuleResult {
	fn := m.vm.GetGlobal("resolve")
	if fn == lua.LNil {
		return types.RuleResult{}
	}

	m.cur = &ctx
	defer func() { m.cur = nil }()

	err := m.vm.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true},
		lua.LString(ctx.Hook.Type),
		goToLua(m.vm, ctx.Hook.Payload),
	)
	if err != nil {
		return types.RuleResult{}
	}
	ret := m.vm.Get(-1)
	m.vm.Pop(1)

	tbl, ok := ret.(*lua.LTable)
	if !ok {
		return types.RuleResult{}
	}
	return resultFromTable(tbl)
}

// registerAPI exposes read-only state accessors and the RNG to scripts.
// Each function reads through the context of the in-flight call.
func (m *ScriptModule) registerAPI() {
	m.vm.SetGlobal("get_flag", m.vm.NewFunction(func(L *lua.LState) int {
		key := L.CheckString(1)
		if m.cur == nil || m.cur.State == nil {
			L.Push(lua.LFalse)
			return 1
		}
		L.Push(lua.LBool(state.GetFlag(m.cur.State, key)))
		return 1
	}))
	m.vm.SetGlobal("get_stat", m.vm.NewFunction(func(L *lua.LState) int {
		key := L.CheckString(1)
		if m.cur == nil || m.cur.State == nil {
			L.Push(lua.LNumber(0))
			return 1
		}
		L.Push(lua.LNumber(state.GetStat(m.cur.State, key)))
		return 1
	}))
	m.vm.SetGlobal("get_var", m.vm.NewFunction(func(L *lua.LState) int {
		key := L.CheckString(1)
		if m.cur == nil || m.cur.State == nil {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(goToLua(L, state.GetVar(m.cur.State, key)))
		return 1
	}))
	m.vm.SetGlobal("get_reputation", m.vm.NewFunction(func(L *lua.LState) int {
		key := L.CheckString(1)
		if m.cur == nil || m.cur.State == nil {
			L.Push(lua.LNumber(0))
			return 1
		}
		L.Push(lua.LNumber(state.GetReputation(m.cur.State, key)))
		return 1
	}))
	m.vm.SetGlobal("has_item", m.vm.NewFunction(func(L *lua.LState) int {
		id := L.CheckString(1)
		if m.cur == nil || m.cur.State == nil {
			L.Push(lua.LFalse)
			return 1
		}
		L.Push(lua.LBool(state.HasItem(m.cur.State, id)))
		return 1
	}))
	m.vm.SetGlobal("item_count", m.vm.NewFunction(func(L *lua.LState) int {
		id := L.CheckString(1)
		if m.cur == nil || m.cur.State == nil {
			L.Push(lua.LNumber(0))
			return 1
		}
		L.Push(lua.LNumber(state.ItemCount(m.cur.State, id)))
		return 1
	}))
	m.vm.SetGlobal("roll", m.vm.NewFunction(func(L *lua.LState) int {
		notation := L.CheckString(1)
		if m.cur == nil || m.cur.RNG == nil {
			L.Push(lua.LNumber(0))
			return 1
		}
		n, err := m.cur.RNG.Roll(notation)
		if err != nil {
			L.RaiseError("%v", err)
			return 0
		}
		L.Push(lua.LNumber(n))
		return 1
	}))
}

// openSafeLibs opens only the safe subset of Lua standard libraries.
func openSafeLibs(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
}

// sandboxVM removes dangerous globals and functions.
func sandboxVM(L *lua.LState) {
	dangerous := []string{
		"dofile", "loadfile", "load", "loadstring",
		"rawset", "rawget", "rawequal",
		"collectgarbage",
	}
	for _, name := range dangerous {
		L.SetGlobal(name, lua.LNil)
	}

	// Remove math.randomseed to preserve determinism.
	if mathTbl := L.GetGlobal("math"); mathTbl != lua.LNil {
		if tbl, ok := mathTbl.(*lua.LTable); ok {
			tbl.RawSetString("randomseed", lua.LNil)
		}
	}
}

// resultFromTable converts a script's return table into a RuleResult.
func resultFromTable(tbl *lua.LTable) types.RuleResult {
	var result types.RuleResult

	if s, ok := tbl.RawGetString("narrative").(lua.LString); ok {
		result.Narrative = types.PlainText(string(s))
	}
	if s, ok := tbl.RawGetString("outcome").(lua.LString); ok {
		result.Outcome = string(s)
	}
	if effects, ok := tbl.RawGetString("effects").(*lua.LTable); ok {
		effects.ForEach(func(_, v lua.LValue) {
			entry, ok := v.(*lua.LTable)
			if !ok {
				return
			}
			if fields, ok := luaToGo(entry).(map[string]any); ok {
				result.Effects = append(result.Effects, effectFromMap(fields))
			}
		})
	}
	if data, ok := tbl.RawGetString("data").(*lua.LTable); ok {
		if fields, ok := luaToGo(data).(map[string]any); ok {
			result.Data = fields
		}
	}

	return result
}

// effectFromMap maps a loosely-typed effect table onto the Effect struct.
// Unknown fields are ignored; unknown types surface later when the applier
// rejects them.
func effectFromMap(fields map[string]any) types.Effect {
	eff := types.Effect{
		Type:             str(fields["type"]),
		Key:              str(fields["key"]),
		Value:            fields["value"],
		Delta:            fields["delta"],
		ItemID:           str(fields["itemId"]),
		TargetScene:      str(fields["targetScene"]),
		TargetLocationID: str(fields["targetLocationId"]),
		FactionID:        str(fields["factionId"]),
		TargetID:         str(fields["targetId"]),
		CompanionID:      str(fields["companionId"]),
		Stage:            str(fields["stage"]),
	}
	if n, ok := fields["count"].(float64); ok {
		eff.Count = int(n)
	}
	if n, ok := fields["min"].(float64); ok {
		eff.Min = &n
	}
	if n, ok := fields["max"].(float64); ok {
		eff.Max = &n
	}
	return eff
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

// goToLua converts a JSON-shaped Go value into a Lua value.
func goToLua(L *lua.LState, v any) lua.LValue {
	switch v := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(v)
	case float64:
		return lua.LNumber(v)
	case int:
		return lua.LNumber(v)
	case string:
		return lua.LString(v)
	case []any:
		tbl := L.NewTable()
		for _, item := range v {
			tbl.Append(goToLua(L, item))
		}
		return tbl
	case map[string]any:
		tbl := L.NewTable()
		for key, item := range v {
			tbl.RawSetString(key, goToLua(L, item))
		}
		return tbl
	default:
		return lua.LNil
	}
}

// luaToGo converts a Lua value into a JSON-shaped Go value. Tables with
// only sequential integer keys become slices, everything else a map.
func luaToGo(v lua.LValue) any {
	switch v := v.(type) {
	case *lua.LNilType:
		return nil
	case lua.LBool:
		return bool(v)
	case lua.LNumber:
		return float64(v)
	case lua.LString:
		return string(v)
	case *lua.LTable:
		if n := v.Len(); n > 0 {
			list := make([]any, 0, n)
			for i := 1; i <= n; i++ {
				list = append(list, luaToGo(v.RawGetInt(i)))
			}
			return list
		}
		m := map[string]any{}
		v.ForEach(func(k, item lua.LValue) {
			if key, ok := k.(lua.LString); ok {
				m[string(key)] = luaToGo(item)
			}
		})
		return m
	default:
		return nil
	}
}
