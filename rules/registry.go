package rules

import (
	"fmt"

	"github.com/nathoo/storyloom/types"
)

// Registry holds the modules accepted for one story bundle, in the order
// the bundle's ruleModules references declare them. It is built once at
// runtime construction and treated as read-only afterwards.
type Registry struct {
	order []Module
	byID  map[string]Module
}

// NewRegistry matches the story's rule-module references against the
// injected modules. Every returned issue with SeverityError makes the
// runtime unusable: a missing implementation, a system mismatch, or a
// rejected config payload.
func NewRegistry(refs []types.RuleModuleRef, modules []Module) (*Registry, []types.Issue) {
	var issues []types.Issue
	reg := &Registry{byID: make(map[string]Module)}

	byID := make(map[string]Module, len(modules))
	for _, m := range modules {
		byID[m.ID()] = m
	}

	for i, ref := range refs {
		mod, ok := byID[ref.ID]
		if !ok {
			issues = append(issues, types.Issue{
				Path:     fmt.Sprintf("/ruleModules/%d", i),
				Message:  fmt.Sprintf("missing rule module implementation for %s", ref.ID),
				Severity: types.SeverityError,
			})
			continue
		}

		matches := mod.System() == ref.System
		if !matches {
			if sm, ok := mod.(SystemMatcher); ok {
				matches = sm.SupportsSystem(ref.System)
			}
		}
		if !matches {
			issues = append(issues, types.Issue{
				Path: fmt.Sprintf("/ruleModules/%d/system", i),
				Message: fmt.Sprintf("rule module %s system mismatch (expected %s, got %s)",
					ref.ID, ref.System, mod.System()),
				Severity: types.SeverityError,
			})
			continue
		}

		if len(ref.Config) > 0 {
			if init, ok := mod.(Initializer); ok {
				if err := init.Init(ref.Config); err != nil {
					issues = append(issues, types.Issue{
						Path:     fmt.Sprintf("/ruleModules/%d/config", i),
						Message:  fmt.Sprintf("rule module %s rejected config: %v", ref.ID, err),
						Severity: types.SeverityError,
					})
					continue
				}
			}
		}

		reg.order = append(reg.order, mod)
		reg.byID[ref.ID] = mod
	}

	return reg, issues
}

// Len returns the number of registered modules.
func (r *Registry) Len() int {
	return len(r.order)
}

// Get returns the registered module with the given id.
func (r *Registry) Get(id string) (Module, bool) {
	m, ok := r.byID[id]
	return m, ok
}

// ResolveHook dispatches a hook. A hook naming a specific module goes to
// that module only; a missing module is a silent no-op. Otherwise the hook
// is broadcast in registration order and the first non-empty result wins.
// The bool reports whether any module produced a result.
func (r *Registry) ResolveHook(ctx Context) (types.RuleResult, bool) {
	if ctx.Hook.ModuleID != "" {
		mod, ok := r.byID[ctx.Hook.ModuleID]
		if !ok {
			return types.RuleResult{}, false
		}
		return mod.Resolve(ctx), true
	}

	for _, mod := range r.order {
		result := mod.Resolve(ctx)
		if !result.Empty() {
			return result, true
		}
	}
	return types.RuleResult{}, false
}

// EvaluateCondition broadcasts a condition in registration order. The first
// module that handles it decides the value; (_, false) means no module
// responded.
func (r *Registry) EvaluateCondition(cond types.Condition, s *types.GameState, ctx EvalContext) (bool, bool) {
	for _, mod := range r.order {
		if value, ok := mod.EvaluateCondition(cond, s, ctx); ok {
			return value, true
		}
	}
	return false, false
}
