package rules

import "github.com/nathoo/storyloom/types"

// CoreModule is the baseline module for stories that declare a rule system
// without custom mechanics. It affirms every condition it is asked about
// and handles no hooks.
type CoreModule struct{}

func NewCoreModule() *CoreModule {
	return &CoreModule{}
}

func (m *CoreModule) ID() string {
	return "rules.core"
}

func (m *CoreModule) System() string {
	return "Custom"
}

func (m *CoreModule) EvaluateCondition(types.Condition, *types.GameState, EvalContext) (bool, bool) {
	return true, true
}

func (m *CoreModule) Resolve(Context) types.RuleResult {
	return types.RuleResult{}
}
