package effects

import (
	"testing"

	"github.com/nathoo/storyloom/types"
)

func newState() *types.GameState {
	return &types.GameState{
		Character: types.Character{
			Stats:     map[string]float64{"hp": 10},
			Inventory: []types.InventoryEntry{},
		},
		Flags:   map[string]bool{},
		Vars:    map[string]any{},
		History: []types.HistoryEvent{},
	}
}

func f(v float64) *float64 { return &v }

func TestApply_SetFlag(t *testing.T) {
	s := newState()
	Apply(s, nil, []types.Effect{{Type: types.EffSetFlag, Key: "met", Value: true}})
	if !s.Flags["met"] {
		t.Error("setFlag should write the flag")
	}
}

func TestApply_ModifyStat_Clamps(t *testing.T) {
	tests := []struct {
		name   string
		effect types.Effect
		want   float64
	}{
		{"plain delta", types.Effect{Type: types.EffModifyStat, Key: "hp", Delta: float64(5)}, 15},
		{"negative delta", types.Effect{Type: types.EffModifyStat, Key: "hp", Delta: float64(-4)}, 6},
		{"min clamp", types.Effect{Type: types.EffModifyStat, Key: "hp", Delta: float64(-50), Min: f(0)}, 0},
		{"max clamp", types.Effect{Type: types.EffModifyStat, Key: "hp", Delta: float64(50), Max: f(20)}, 20},
		{"unset stat starts at zero", types.Effect{Type: types.EffModifyStat, Key: "mana", Delta: float64(3)}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newState()
			Apply(s, nil, []types.Effect{tt.effect})
			if got := s.Character.Stats[tt.effect.Key]; got != tt.want {
				t.Errorf("stat %s = %v, want %v", tt.effect.Key, got, tt.want)
			}
		})
	}
}

func TestApply_AddItem_IncrementsExisting(t *testing.T) {
	s := newState()
	torch := &types.Item{ID: "torch", Name: "Torch"}

	Apply(s, nil, []types.Effect{{Type: types.EffAddItem, Item: torch}})
	Apply(s, nil, []types.Effect{{Type: types.EffAddItem, Item: torch, Count: 2}})

	if len(s.Character.Inventory) != 1 {
		t.Fatalf("expected a single inventory entry, got %d", len(s.Character.Inventory))
	}
	if s.Character.Inventory[0].Count != 3 {
		t.Errorf("count = %d, want 3", s.Character.Inventory[0].Count)
	}
}

func TestApply_RemoveItem(t *testing.T) {
	s := newState()
	s.Character.Inventory = []types.InventoryEntry{
		{Item: types.Item{ID: "torch"}, Count: 2},
	}

	// Decrement leaves the entry.
	Apply(s, nil, []types.Effect{{Type: types.EffRemoveItem, ItemID: "torch"}})
	if len(s.Character.Inventory) != 1 || s.Character.Inventory[0].Count != 1 {
		t.Fatalf("after one removal: %+v", s.Character.Inventory)
	}

	// Reaching zero deletes the entry entirely.
	Apply(s, nil, []types.Effect{{Type: types.EffRemoveItem, ItemID: "torch"}})
	if len(s.Character.Inventory) != 0 {
		t.Errorf("entry at zero should be deleted: %+v", s.Character.Inventory)
	}

	// Absent item is a no-op.
	Apply(s, nil, []types.Effect{{Type: types.EffRemoveItem, ItemID: "sword"}})
	if len(s.Character.Inventory) != 0 {
		t.Errorf("removing an absent item should be a no-op")
	}
}

func TestApply_ModifyVar(t *testing.T) {
	tests := []struct {
		name    string
		current any
		delta   any
		want    any
	}{
		{"number plus number", float64(3), float64(2), float64(5)},
		{"string plus string", "ab", "cd", "abcd"},
		{"number plus string overwrites", float64(3), "x", "x"},
		{"nil current overwrites", nil, float64(7), float64(7)},
		{"bool current overwrites", true, float64(1), float64(1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newState()
			if tt.current != nil {
				s.Vars["v"] = tt.current
			}
			Apply(s, nil, []types.Effect{{Type: types.EffModifyVar, Key: "v", Delta: tt.delta}})
			if got := s.Vars["v"]; got != tt.want {
				t.Errorf("modifyVar(%v, %v) = %v, want %v", tt.current, tt.delta, got, tt.want)
			}
		})
	}
}

func TestApply_Teleport_LastWins(t *testing.T) {
	s := newState()
	out := Apply(s, nil, []types.Effect{
		{Type: types.EffTeleport, TargetScene: "scene.a"},
		{Type: types.EffTeleport, TargetScene: "scene.b", TargetLocationID: "loc.docks"},
	})

	if out.TeleportTarget != "scene.b" {
		t.Errorf("teleport target = %q, want the last effect's scene.b", out.TeleportTarget)
	}
	if s.CurrentLocationID != "loc.docks" {
		t.Errorf("target location should be set immediately, got %q", s.CurrentLocationID)
	}
}

func TestApply_Reputation_LazyMap(t *testing.T) {
	s := newState()
	Apply(s, nil, []types.Effect{{Type: types.EffSetReputation, FactionID: "guild", Value: float64(-3)}})
	if s.Reputation["guild"] != -3 {
		t.Errorf("reputation = %v", s.Reputation)
	}
}

func TestApply_Relationships(t *testing.T) {
	s := newState()
	Apply(s, nil, []types.Effect{
		{Type: types.EffSetRelationship, TargetID: "npc.mara", Value: float64(10), Stage: "acquaintance"},
		{Type: types.EffModifyRelationship, TargetID: "npc.mara", Delta: float64(200), Max: f(100)},
	})

	rel := s.Relationships["npc.mara"]
	if rel.Value != 100 {
		t.Errorf("relationship value = %v, want clamped 100", rel.Value)
	}
	if rel.Stage != "acquaintance" {
		t.Errorf("stage = %q", rel.Stage)
	}
}

func TestApply_Companions(t *testing.T) {
	world := &types.WorldDefinition{
		Companions: []types.CompanionDefinition{
			{
				ID: "comp.lyra", Name: "Lyra", Role: "scout",
				DefaultRelationship: &types.RelationshipState{Value: 5},
			},
		},
	}

	s := newState()
	Apply(s, world, []types.Effect{{Type: types.EffAddCompanion, CompanionID: "comp.lyra"}})
	if len(s.Companions) != 1 || s.Companions[0].Name != "Lyra" {
		t.Fatalf("companion not seeded from world definition: %+v", s.Companions)
	}
	if s.Companions[0].Relationship == nil || s.Companions[0].Relationship.Value != 5 {
		t.Error("default relationship should seed the companion")
	}

	// Duplicate add is a no-op.
	Apply(s, world, []types.Effect{{Type: types.EffAddCompanion, CompanionID: "comp.lyra"}})
	if len(s.Companions) != 1 {
		t.Errorf("duplicate addCompanion should not duplicate the roster")
	}

	Apply(s, world, []types.Effect{
		{Type: types.EffSetCompanionFlag, CompanionID: "comp.lyra", Key: "loyal", Value: true},
		{Type: types.EffModifyCompanionRelationship, CompanionID: "comp.lyra", Delta: float64(3)},
	})
	if !s.Companions[0].Flags["loyal"] {
		t.Error("setCompanionFlag should write the flag")
	}
	if s.Companions[0].Relationship.Value != 8 {
		t.Errorf("companion relationship = %v, want 8", s.Companions[0].Relationship.Value)
	}

	Apply(s, world, []types.Effect{{Type: types.EffRemoveCompanion, CompanionID: "comp.lyra"}})
	if len(s.Companions) != 0 {
		t.Errorf("removeCompanion should empty the roster: %+v", s.Companions)
	}
}

func TestApply_HistoryPerEffect(t *testing.T) {
	s := newState()
	Apply(s, nil, []types.Effect{
		{Type: types.EffSetFlag, Key: "a", Value: true},
		{Type: types.EffSetVar, Key: "b", Value: float64(1)},
		{Type: "unknownEffect"},
	})

	if len(s.History) != 3 {
		t.Fatalf("history length = %d, want one entry per effect", len(s.History))
	}
	for i, event := range s.History {
		if event.Type != types.HistoryEffect {
			t.Errorf("history[%d].Type = %q", i, event.Type)
		}
	}
	if s.History[0].Data["effect"] != types.EffSetFlag {
		t.Errorf("history data = %v", s.History[0].Data)
	}
}
