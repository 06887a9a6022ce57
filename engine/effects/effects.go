// Package effects implements centralized state mutation via the Apply
// function. Every effect type is one atomic operation applied in input
// order; each one appends an audit entry to the history log.
package effects

import (
	"github.com/nathoo/storyloom/engine/state"
	"github.com/nathoo/storyloom/types"
)

// Outcome reports what Apply did beyond mutating the state. A non-empty
// TeleportTarget means a teleport effect requested a scene change; the
// caller must re-enter that scene. When several effects teleport, the last
// one wins.
type Outcome struct {
	TeleportTarget string
}

// Apply applies a list of effects to the game state, mutating it. The
// world definition is consulted only to seed companion state for
// addCompanion. Unknown effect types are ignored.
func Apply(s *types.GameState, world *types.WorldDefinition, effects []types.Effect) Outcome {
	var out Outcome

	for _, eff := range effects {
		switch eff.Type {
		case types.EffSetFlag:
			value, _ := eff.Value.(bool)
			s.Flags[eff.Key] = value

		case types.EffModifyStat:
			next := s.Character.Stats[eff.Key] + toFloat(eff.Delta)
			if eff.Min != nil && next < *eff.Min {
				next = *eff.Min
			}
			if eff.Max != nil && next > *eff.Max {
				next = *eff.Max
			}
			s.Character.Stats[eff.Key] = next

		case types.EffAddItem:
			item := eff.Item
			if item == nil {
				if eff.ItemID == "" {
					break
				}
				item = &types.Item{ID: eff.ItemID, Name: eff.ItemID}
			}
			count := eff.Count
			if count == 0 {
				count = 1
			}
			addItem(s, *item, count)

		case types.EffRemoveItem:
			count := eff.Count
			if count == 0 {
				count = 1
			}
			removeItem(s, eff.ItemID, count)

		case types.EffSetVar:
			s.Vars[eff.Key] = eff.Value

		case types.EffModifyVar:
			s.Vars[eff.Key] = modifyVar(s.Vars[eff.Key], eff.Delta)

		case types.EffTeleport:
			out.TeleportTarget = eff.TargetScene
			if eff.TargetLocationID != "" {
				s.CurrentLocationID = eff.TargetLocationID
			}

		case types.EffSetReputation:
			if s.Reputation == nil {
				s.Reputation = map[string]float64{}
			}
			s.Reputation[eff.FactionID] = toFloat(eff.Value)

		case types.EffSetRelationship:
			if s.Relationships == nil {
				s.Relationships = map[string]types.RelationshipState{}
			}
			s.Relationships[eff.TargetID] = types.RelationshipState{
				Value: toFloat(eff.Value),
				Stage: eff.Stage,
				Flags: eff.Flags,
			}

		case types.EffModifyRelationship:
			if s.Relationships == nil {
				s.Relationships = map[string]types.RelationshipState{}
			}
			entry := s.Relationships[eff.TargetID]
			entry.Value = clamp(entry.Value+toFloat(eff.Delta), eff.Min, eff.Max)
			if eff.Stage != "" {
				entry.Stage = eff.Stage
			}
			s.Relationships[eff.TargetID] = entry

		case types.EffAddCompanion:
			addCompanion(s, world, eff.CompanionID)

		case types.EffRemoveCompanion:
			removeCompanion(s, eff.CompanionID)

		case types.EffSetCompanionFlag:
			if comp := state.FindCompanion(s, eff.CompanionID); comp != nil {
				if comp.Flags == nil {
					comp.Flags = map[string]bool{}
				}
				value, _ := eff.Value.(bool)
				comp.Flags[eff.Key] = value
			}

		case types.EffModifyCompanionRelationship:
			if comp := state.FindCompanion(s, eff.CompanionID); comp != nil {
				if comp.Relationship == nil {
					comp.Relationship = &types.RelationshipState{}
				}
				comp.Relationship.Value = clamp(comp.Relationship.Value+toFloat(eff.Delta), eff.Min, eff.Max)
				if eff.Stage != "" {
					comp.Relationship.Stage = eff.Stage
				}
			}

		default:
			// Unknown effect type: ignore silently.
		}

		state.RecordHistory(s, types.HistoryEvent{
			Type: types.HistoryEffect,
			Data: map[string]any{"effect": eff.Type},
		})
	}

	return out
}

// addItem increments an existing inventory entry or appends a new one.
func addItem(s *types.GameState, item types.Item, count int) {
	for i := range s.Character.Inventory {
		if s.Character.Inventory[i].Item.ID == item.ID {
			s.Character.Inventory[i].Count += count
			return
		}
	}
	s.Character.Inventory = append(s.Character.Inventory, types.InventoryEntry{
		Item:  item,
		Count: count,
	})
}

// removeItem decrements a matching entry, deleting it outright when the
// count reaches zero or below. Absent items are a no-op.
func removeItem(s *types.GameState, itemID string, count int) {
	for i := range s.Character.Inventory {
		if s.Character.Inventory[i].Item.ID != itemID {
			continue
		}
		s.Character.Inventory[i].Count -= count
		if s.Character.Inventory[i].Count <= 0 {
			s.Character.Inventory = append(s.Character.Inventory[:i], s.Character.Inventory[i+1:]...)
		}
		return
	}
}

// modifyVar adds when both sides are numbers, concatenates when both are
// strings, and otherwise overwrites with the delta verbatim.
func modifyVar(current, delta any) any {
	if cn, ok := toNumber(current); ok {
		if dn, ok := toNumber(delta); ok {
			return cn + dn
		}
	}
	if cs, ok := current.(string); ok {
		if ds, ok := delta.(string); ok {
			return cs + ds
		}
	}
	return delta
}

// addCompanion joins a companion to the party, seeded from the world's
// companion definitions. Already-present companions are a no-op; unknown
// ids join with a bare entry.
func addCompanion(s *types.GameState, world *types.WorldDefinition, companionID string) {
	if companionID == "" || state.FindCompanion(s, companionID) != nil {
		return
	}
	if world != nil {
		for _, def := range world.Companions {
			if def.ID == companionID {
				s.Companions = append(s.Companions, BuildCompanionState(def))
				return
			}
		}
	}
	s.Companions = append(s.Companions, types.CompanionState{ID: companionID, Name: companionID})
}

func removeCompanion(s *types.GameState, companionID string) {
	for i := range s.Companions {
		if s.Companions[i].ID == companionID {
			s.Companions = append(s.Companions[:i], s.Companions[i+1:]...)
			return
		}
	}
}

// BuildCompanionState instantiates a companion's runtime state from its
// story definition.
func BuildCompanionState(def types.CompanionDefinition) types.CompanionState {
	comp := types.CompanionState{
		ID:   def.ID,
		Name: def.Name,
		Role: def.Role,
	}
	if def.DefaultRelationship != nil {
		rel := *def.DefaultRelationship
		comp.Relationship = &rel
	}
	return comp
}

func clamp(v float64, min, max *float64) float64 {
	if min != nil && v < *min {
		v = *min
	}
	if max != nil && v > *max {
		v = *max
	}
	return v
}

func toFloat(v any) float64 {
	n, _ := toNumber(v)
	return n
}

func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
