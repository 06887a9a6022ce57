package rules

import (
	"fmt"

	"github.com/nathoo/storyloom/engine/state"
	"github.com/nathoo/storyloom/types"
)

// DiceModule implements d20-style skill checks as a rule module. It
// handles hooks of type "skillCheck" with a payload like:
//
//	{stat: "str", notation: "d20", target: 12, flag: "door.forced"}
//
// The roll plus the named stat is compared against the target. When the
// payload names a flag, the check's success is written to it as an effect.
type DiceModule struct {
	defaultTarget int
}

func NewDiceModule() *DiceModule {
	return &DiceModule{defaultTarget: 12}
}

func (m *DiceModule) ID() string {
	return "rules.dice"
}

func (m *DiceModule) System() string {
	return "d20"
}

// SupportsSystem also accepts the generic Custom system so stories without
// a dedicated dice system can still request skill checks.
func (m *DiceModule) SupportsSystem(system string) bool {
	return system == "d20" || system == "Custom"
}

// Init accepts an optional defaultTarget override.
func (m *DiceModule) Init(config map[string]any) error {
	if raw, ok := config["defaultTarget"]; ok {
		target, ok := raw.(float64)
		if !ok || target < 1 {
			return fmt.Errorf("defaultTarget must be a number >= 1, got %v", raw)
		}
		m.defaultTarget = int(target)
	}
	return nil
}

func (m *DiceModule) EvaluateCondition(types.Condition, *types.GameState, EvalContext) (bool, bool) {
	return false, false
}

func (m *DiceModule) Resolve(ctx Context) types.RuleResult {
	if ctx.Hook.Type != "skillCheck" || ctx.RNG == nil {
		return types.RuleResult{}
	}

	payload := ctx.Hook.Payload
	notation := stringField(payload, "notation", "d20")
	statKey := stringField(payload, "stat", "")

	roll, err := ctx.RNG.Roll(notation)
	if err != nil {
		return types.RuleResult{}
	}

	target := m.defaultTarget
	if raw, ok := payload["target"].(float64); ok {
		target = int(raw)
	}

	total := roll
	if statKey != "" {
		total += int(state.GetStat(ctx.State, statKey))
	}

	outcome := types.OutcomeFailure
	if total >= target {
		outcome = types.OutcomeSuccess
	}

	result := types.RuleResult{
		Narrative: types.PlainText(fmt.Sprintf("Check (%s): rolled %d, total %d vs %d.",
			notation, roll, total, target)),
		Outcome: outcome,
		Data: map[string]any{
			"roll":   roll,
			"total":  total,
			"target": target,
		},
	}

	if flag := stringField(payload, "flag", ""); flag != "" {
		result.Effects = []types.Effect{{
			Type:  types.EffSetFlag,
			Key:   flag,
			Value: total >= target,
		}}
	}

	return result
}

func stringField(payload map[string]any, key, fallback string) string {
	if s, ok := payload[key].(string); ok && s != "" {
		return s
	}
	return fallback
}
