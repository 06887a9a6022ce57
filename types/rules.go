package types

// Condition type tags.
const (
	CondFlag       = "flag"
	CondStat       = "stat"
	CondInventory  = "inventory"
	CondExpression = "expression"
	CondLore       = "lore"
)

// Condition is a tagged predicate over game state. The operator vocabulary
// depends on the tag; Value carries the comparison operand where one exists.
type Condition struct {
	Type     string `json:"type"`
	Key      string `json:"key,omitempty"`
	Operator string `json:"operator,omitempty"`
	Value    any    `json:"value,omitempty"`
	Expr     string `json:"expr,omitempty"` // expression conditions only
}

// Effect type tags.
const (
	EffSetFlag                     = "setFlag"
	EffModifyStat                  = "modifyStat"
	EffAddItem                     = "addItem"
	EffRemoveItem                  = "removeItem"
	EffSetVar                      = "setVar"
	EffModifyVar                   = "modifyVar"
	EffTeleport                    = "teleport"
	EffSetReputation               = "setReputation"
	EffSetRelationship             = "setRelationship"
	EffModifyRelationship          = "modifyRelationship"
	EffAddCompanion                = "addCompanion"
	EffRemoveCompanion             = "removeCompanion"
	EffSetCompanionFlag            = "setCompanionFlag"
	EffModifyCompanionRelationship = "modifyCompanionRelationship"
)

// Effect is a tagged state mutation instruction. Only the fields relevant
// to its type are populated.
type Effect struct {
	Type             string          `json:"type"`
	Key              string          `json:"key,omitempty"`
	Value            any             `json:"value,omitempty"`
	Delta            any             `json:"delta,omitempty"` // number for stats, any for vars
	Min              *float64        `json:"min,omitempty"`
	Max              *float64        `json:"max,omitempty"`
	Item             *Item           `json:"item,omitempty"`
	ItemID           string          `json:"itemId,omitempty"`
	Count            int             `json:"count,omitempty"` // 0 means default 1
	TargetScene      string          `json:"targetScene,omitempty"`
	TargetLocationID string          `json:"targetLocationId,omitempty"`
	FactionID        string          `json:"factionId,omitempty"`
	TargetID         string          `json:"targetId,omitempty"`
	CompanionID      string          `json:"companionId,omitempty"`
	Stage            string          `json:"stage,omitempty"`
	Flags            map[string]bool `json:"flags,omitempty"`
}

// RuleModuleRef declares which rule module a story expects, and under
// which system contract.
type RuleModuleRef struct {
	ID      string         `json:"id"`
	System  string         `json:"system"` // e.g. "SRD5e", "OpenD6", "Custom"
	Version string         `json:"version,omitempty"`
	Config  map[string]any `json:"config,omitempty"`
}

// RuleHook is a named extension point dispatched to one or all registered
// rule modules. An empty ModuleID means broadcast.
type RuleHook struct {
	ModuleID string         `json:"moduleId,omitempty"`
	Type     string         `json:"type"` // e.g. "skillCheck", "attackRoll"
	Payload  map[string]any `json:"payload,omitempty"`
}

// Rule hook outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeNeutral = "neutral"
)

// RuleResult is what a rule module produces when it handles a hook.
type RuleResult struct {
	Narrative NarrativeText  `json:"narrative,omitzero"`
	Effects   []Effect       `json:"effects,omitempty"`
	Outcome   string         `json:"outcome,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

// Empty reports whether the result carries nothing: no narrative, effects,
// outcome, or data. Empty results do not stop a hook broadcast.
func (r RuleResult) Empty() bool {
	return r.Narrative.IsZero() && len(r.Effects) == 0 && r.Outcome == "" && len(r.Data) == 0
}
