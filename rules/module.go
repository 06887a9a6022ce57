// Package rules defines the pluggable rule-module protocol: external
// modules that the engine consults for condition overrides and for
// resolving scene-entry, scene-exit, and action hooks. Modules register
// against the rule-module references a story bundle declares, keyed by id
// and gated on a matching game system.
package rules

import "github.com/nathoo/storyloom/types"

// RNG is the random source handed to modules during hook resolution.
// Implementations must be deterministic for a given seed.
type RNG interface {
	// Next returns the next value in [0, 1).
	Next() float64
	// Int returns a uniform integer in [min, max].
	Int(min, max int) int
	// Roll evaluates dice notation like "2d6+1".
	Roll(notation string) (int, error)
}

// EvalContext carries where-am-I context for condition evaluation.
type EvalContext struct {
	SceneID    string
	LocationID string
}

// Context is the full context passed to a module's Resolve call.
// Action is nil for scene entry/exit hooks.
type Context struct {
	State  *types.GameState
	Scene  *types.Scene
	Action *types.Action
	Hook   types.RuleHook
	RNG    RNG
}

// Module is implemented by pluggable rule logic. Identity is (ID, System);
// the registry only accepts a module whose System matches the story's
// reference, unless the module also implements SystemMatcher.
type Module interface {
	ID() string
	System() string

	// EvaluateCondition gives the module a chance to decide a condition the
	// engine could not. The second return reports whether the module
	// handled it; (_, false) passes the condition to the next module.
	EvaluateCondition(cond types.Condition, s *types.GameState, ctx EvalContext) (bool, bool)

	// Resolve handles a rule hook. An empty result means "did not handle"
	// during broadcast dispatch.
	Resolve(ctx Context) types.RuleResult
}

// SystemMatcher is optionally implemented by modules compatible with more
// systems than their own System tag.
type SystemMatcher interface {
	SupportsSystem(system string) bool
}

// Initializer is optionally implemented by modules that accept a config
// payload from the story's rule-module reference. A returned error rejects
// the config and fails runtime construction.
type Initializer interface {
	Init(config map[string]any) error
}
