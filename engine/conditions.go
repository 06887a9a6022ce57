package engine

import (
	"strings"

	"github.com/nathoo/storyloom/engine/expr"
	"github.com/nathoo/storyloom/engine/state"
	"github.com/nathoo/storyloom/types"
)

// EvalCondition evaluates a condition against a state. Unknown condition
// types, and expression errors, fall back to the registered rule modules
// when the runtime runs in engine+modules mode; with no answer the
// condition is false.
func (r *Runtime) EvalCondition(s *types.GameState, cond types.Condition) bool {
	switch cond.Type {
	case types.CondFlag:
		return r.evalFlagCondition(s, cond)
	case types.CondStat:
		return evalStatCondition(s, cond)
	case types.CondInventory:
		return evalInventoryCondition(s, cond)
	case types.CondExpression:
		return r.evalExpressionCondition(s, cond)
	case types.CondLore:
		return r.evalLoreCondition(s, cond)
	default:
		return r.moduleFallback(s, cond)
	}
}

// evalFlagCondition compares flags strictly: an unset flag is not the
// same as a flag set to false, so equals(false) on a never-set flag is
// false and notEquals(false) is true.
func (r *Runtime) evalFlagCondition(s *types.GameState, cond types.Condition) bool {
	exists := state.FlagExists(s, cond.Key)
	value := state.GetFlag(s, cond.Key)
	want := true
	if b, ok := cond.Value.(bool); ok {
		want = b
	}

	switch cond.Operator {
	case "exists":
		return exists
	case "notExists":
		return !exists
	case "notEquals":
		return !exists || value != want
	case "equals", "":
		return exists && value == want
	default:
		return exists && value == want
	}
}

func evalStatCondition(s *types.GameState, cond types.Condition) bool {
	value := state.GetStat(s, cond.Key)
	target := toComparable(cond.Value)

	switch cond.Operator {
	case "gt":
		return value > target
	case "gte":
		return value >= target
	case "lt":
		return value < target
	case "lte":
		return value <= target
	case "eq":
		return value == target
	case "neq":
		return value != target
	default:
		// Unknown operator never matches.
		return false
	}
}

func evalInventoryCondition(s *types.GameState, cond types.Condition) bool {
	count := state.ItemCount(s, cond.Key)
	threshold := 1
	if n, ok := cond.Value.(float64); ok {
		threshold = int(n)
	} else if n, ok := cond.Value.(int); ok {
		threshold = n
	}

	switch cond.Operator {
	case "has", "":
		return count > 0
	case "notHas":
		return count == 0
	case "countGte":
		return count >= threshold
	case "countLte":
		return count <= threshold
	default:
		return false
	}
}

func (r *Runtime) evalExpressionCondition(s *types.GameState, cond types.Condition) bool {
	result := expr.Evaluate(cond.Expr, s)
	if result.Err != "" {
		r.recordWarning(types.Issue{
			Path:     "/runtime/conditions/expression",
			Message:  "expression parse warning: " + result.Err,
			Severity: types.SeverityWarning,
		})
		state.RecordHistory(s, types.HistoryEvent{
			Type: types.HistoryRule,
			Data: map[string]any{"kind": "expression", "error": result.Err, "expr": cond.Expr},
		})
		if r.mode == ConditionEngineModules {
			if value, ok := r.registry.EvaluateCondition(cond, s, r.evalCtx(s)); ok {
				return value
			}
			return false
		}
	}
	return result.Value
}

// evalLoreCondition dispatches on the key's prefix. The lore: reveal-state
// branch only exists when the feature is enabled; the race:/faction:/knows:
// prefixes are always live; anything else is a generic var-then-flag
// lookup. The two addressing schemes stay separate on purpose: behavior
// differs with the feature flag off.
func (r *Runtime) evalLoreCondition(s *types.GameState, cond types.Condition) bool {
	key := cond.Key

	if r.features.LoreRevealStates && strings.HasPrefix(key, "lore:") {
		loreKey := strings.TrimPrefix(key, "lore:")
		var reveal string
		if s.LoreKnowledge != nil {
			reveal = s.LoreKnowledge[loreKey]
		}
		want, _ := cond.Value.(string)
		switch cond.Operator {
		case "has":
			return reveal == types.LoreKnown
		case "notHas":
			return reveal != types.LoreKnown
		case "notEquals":
			return reveal != want
		case "equals", "":
			return reveal == want
		default:
			return reveal == want
		}
	}

	if id, ok := strings.CutPrefix(key, "race:"); ok {
		return s.Character.RaceID == id
	}
	if id, ok := strings.CutPrefix(key, "faction:"); ok {
		for _, factionID := range s.Character.FactionIDs {
			if factionID == id {
				return true
			}
		}
		return false
	}
	if name, ok := strings.CutPrefix(key, "knows:"); ok {
		knowledgeKey := "knows." + name
		if s.Flags[knowledgeKey] {
			return true
		}
		return s.Vars[knowledgeKey] == true
	}

	// Generic lookup: vars shadow flags.
	var value any
	if v, ok := s.Vars[key]; ok && v != nil {
		value = v
	} else if v, ok := s.Flags[key]; ok {
		value = v
	}

	switch cond.Operator {
	case "has":
		return truthy(value)
	case "notHas":
		return !truthy(value)
	case "notEquals":
		return !looseEqual(value, cond.Value)
	case "equals", "":
		return looseEqual(value, cond.Value)
	default:
		return looseEqual(value, cond.Value)
	}
}

// moduleFallback broadcasts an unrecognized condition to the registered
// modules, in engine+modules mode only.
func (r *Runtime) moduleFallback(s *types.GameState, cond types.Condition) bool {
	if r.mode != ConditionEngineModules {
		return false
	}
	value, _ := r.registry.EvaluateCondition(cond, s, r.evalCtx(s))
	return value
}

func toComparable(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return 0
	}
}

func truthy(v any) bool {
	switch v := v.(type) {
	case nil:
		return false
	case bool:
		return v
	case float64:
		return v != 0
	case string:
		return v != ""
	default:
		return true
	}
}

func looseEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch av := a.(type) {
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case float64:
		bv, ok := asNumber(b)
		return ok && av == bv
	case int:
		bv, ok := asNumber(b)
		return ok && float64(av) == bv
	default:
		return false
	}
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}
