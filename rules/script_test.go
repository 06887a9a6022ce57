package rules

import (
	"testing"

	"github.com/nathoo/storyloom/types"
)

const testScript = `
module_id = "rules.script"
module_system = "Custom"
compatible_systems = { "d20" }

function init(config)
	if config.forbidden then
		return false, "forbidden option set"
	end
	return true
end

function evaluate_condition(kind, key, operator, value)
	if kind == "custom" and key == "wealthy" then
		return get_stat("gold") >= 100
	end
	return nil
end

function resolve(hook_type, payload)
	if hook_type == "blessing" then
		return {
			narrative = "A warm light surrounds you.",
			outcome = "success",
			effects = {
				{ type = "setFlag", key = "blessed", value = true },
				{ type = "modifyStat", key = "hp", delta = 5 },
			},
			data = { source = payload.shrine },
		}
	end
	return {}
end
`

func newTestScriptModule(t *testing.T) *ScriptModule {
	t.Helper()
	mod, err := NewScriptModule(testScript)
	if err != nil {
		t.Fatalf("NewScriptModule: %v", err)
	}
	t.Cleanup(mod.Close)
	return mod
}

func TestScriptModule_Identity(t *testing.T) {
	mod := newTestScriptModule(t)
	if mod.ID() != "rules.script" {
		t.Errorf("ID = %q", mod.ID())
	}
	if mod.System() != "Custom" {
		t.Errorf("System = %q", mod.System())
	}
	if !mod.SupportsSystem("d20") {
		t.Error("compatible_systems should be honored")
	}
	if mod.SupportsSystem("GURPS") {
		t.Error("undeclared system accepted")
	}
}

func TestScriptModule_MissingIdentity(t *testing.T) {
	if _, err := NewScriptModule(`module_system = "Custom"`); err == nil {
		t.Error("script without module_id should fail")
	}
	if _, err := NewScriptModule(`module_id = "x"`); err == nil {
		t.Error("script without module_system should fail")
	}
}

func TestScriptModule_Init(t *testing.T) {
	mod := newTestScriptModule(t)
	if err := mod.Init(map[string]any{"level": float64(2)}); err != nil {
		t.Errorf("benign config rejected: %v", err)
	}
	if err := mod.Init(map[string]any{"forbidden": true}); err == nil {
		t.Error("script rejection should surface as an error")
	}
}

func TestScriptModule_EvaluateCondition(t *testing.T) {
	mod := newTestScriptModule(t)
	rich := &types.GameState{Character: types.Character{Stats: map[string]float64{"gold": 150}}}
	poor := &types.GameState{Character: types.Character{Stats: map[string]float64{"gold": 10}}}
	cond := types.Condition{Type: "custom", Key: "wealthy"}

	if value, ok := mod.EvaluateCondition(cond, rich, EvalContext{}); !ok || !value {
		t.Errorf("wealthy with 150 gold = (%v, %v), want (true, true)", value, ok)
	}
	if value, ok := mod.EvaluateCondition(cond, poor, EvalContext{}); !ok || value {
		t.Errorf("wealthy with 10 gold = (%v, %v), want (false, true)", value, ok)
	}

	// nil return means unhandled.
	if _, ok := mod.EvaluateCondition(types.Condition{Type: "custom", Key: "other"}, rich, EvalContext{}); ok {
		t.Error("script returning nil should pass the condition on")
	}
}

func TestScriptModule_Resolve(t *testing.T) {
	mod := newTestScriptModule(t)
	result := mod.Resolve(Context{
		State: &types.GameState{},
		Hook: types.RuleHook{Type: "blessing", Payload: map[string]any{
			"shrine": "shrine.dawn",
		}},
	})

	if result.Narrative.Plain != "A warm light surrounds you." {
		t.Errorf("narrative = %+v", result.Narrative)
	}
	if result.Outcome != types.OutcomeSuccess {
		t.Errorf("outcome = %q", result.Outcome)
	}
	if len(result.Effects) != 2 {
		t.Fatalf("effects = %+v", result.Effects)
	}
	if result.Effects[0].Type != types.EffSetFlag || result.Effects[0].Key != "blessed" {
		t.Errorf("first effect = %+v", result.Effects[0])
	}
	if result.Effects[1].Type != types.EffModifyStat || result.Effects[1].Delta != float64(5) {
		t.Errorf("second effect = %+v", result.Effects[1])
	}
	if result.Data["source"] != "shrine.dawn" {
		t.Errorf("data = %+v", result.Data)
	}
}

func TestScriptModule_UnhandledHook(t *testing.T) {
	mod := newTestScriptModule(t)
	result := mod.Resolve(Context{State: &types.GameState{}, Hook: types.RuleHook{Type: "unknown"}})
	if !result.Empty() {
		t.Errorf("unhandled hook should return an empty result, got %+v", result)
	}
}
