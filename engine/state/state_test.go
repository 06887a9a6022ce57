package state

import (
	"testing"

	"github.com/nathoo/storyloom/types"
)

func testState() *types.GameState {
	return &types.GameState{
		Character: types.Character{
			Stats: map[string]float64{"str": 12},
			Inventory: []types.InventoryEntry{
				{Item: types.Item{ID: "torch"}, Count: 2},
			},
		},
		Flags:      map[string]bool{"met": true, "open": false},
		Vars:       map[string]any{"visits": float64(3)},
		Reputation: map[string]float64{"guild": -5},
		Companions: []types.CompanionState{{ID: "comp.lyra", Name: "Lyra"}},
		History:    []types.HistoryEvent{},
	}
}

func TestGetFlag_Defaults(t *testing.T) {
	s := testState()

	if !GetFlag(s, "met") {
		t.Error("set flag should read true")
	}
	if GetFlag(s, "open") {
		t.Error("false flag should read false")
	}
	if GetFlag(s, "unset") {
		t.Error("unset flag should default to false")
	}
}

func TestFlagExists(t *testing.T) {
	s := testState()

	if !FlagExists(s, "open") {
		t.Error("a flag explicitly set to false still exists")
	}
	if FlagExists(s, "unset") {
		t.Error("unset flag should not exist")
	}
}

func TestGetStat_DefaultZero(t *testing.T) {
	s := testState()

	if got := GetStat(s, "str"); got != 12 {
		t.Errorf("GetStat(str) = %v, want 12", got)
	}
	if got := GetStat(s, "luck"); got != 0 {
		t.Errorf("GetStat(luck) = %v, want 0", got)
	}
}

func TestGetReputation_NilMap(t *testing.T) {
	s := testState()
	s.Reputation = nil

	if got := GetReputation(s, "guild"); got != 0 {
		t.Errorf("GetReputation with nil map = %v, want 0", got)
	}
}

func TestItemCount(t *testing.T) {
	s := testState()

	if got := ItemCount(s, "torch"); got != 2 {
		t.Errorf("ItemCount(torch) = %d, want 2", got)
	}
	if got := ItemCount(s, "sword"); got != 0 {
		t.Errorf("ItemCount(sword) = %d, want 0", got)
	}
	if !HasItem(s, "torch") || HasItem(s, "sword") {
		t.Error("HasItem should follow ItemCount")
	}
}

func TestFindCompanion(t *testing.T) {
	s := testState()

	comp := FindCompanion(s, "comp.lyra")
	if comp == nil {
		t.Fatal("companion in roster should be found")
	}
	// The pointer must reach the roster entry itself so callers can mutate.
	comp.Role = "scout"
	if s.Companions[0].Role != "scout" {
		t.Error("FindCompanion should return a pointer into the roster")
	}

	if FindCompanion(s, "comp.gone") != nil {
		t.Error("absent companion should return nil")
	}
}

func TestRecordHistory_SequenceStamps(t *testing.T) {
	s := testState()

	RecordHistory(s, types.HistoryEvent{Type: types.HistorySceneEnter, SceneID: "scene.a"})
	RecordHistory(s, types.HistoryEvent{Type: types.HistoryEffect})

	if len(s.History) != 2 {
		t.Fatalf("history length = %d, want 2", len(s.History))
	}
	if s.History[0].At != 1 || s.History[1].At != 2 {
		t.Errorf("stamps = %d, %d, want 1, 2", s.History[0].At, s.History[1].At)
	}
}

func TestRecordHistory_NilLogSkips(t *testing.T) {
	s := testState()
	s.History = nil

	RecordHistory(s, types.HistoryEvent{Type: types.HistorySceneEnter})
	if s.History != nil {
		t.Error("states without a history log should not start one")
	}
}
