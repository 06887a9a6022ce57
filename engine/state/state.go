// Package state provides lookup helpers with defaulting semantics over the
// mutable GameState, plus the append-only history log.
package state

import "github.com/nathoo/storyloom/types"

// GetFlag returns the value of a flag. Unset flags return false.
func GetFlag(s *types.GameState, key string) bool {
	return s.Flags[key]
}

// FlagExists reports whether a flag has been set at all, regardless of value.
func FlagExists(s *types.GameState, key string) bool {
	_, ok := s.Flags[key]
	return ok
}

// GetStat returns a character stat. Unset stats return 0.
func GetStat(s *types.GameState, key string) float64 {
	return s.Character.Stats[key]
}

// GetVar returns an arbitrary variable. Unset vars return nil.
func GetVar(s *types.GameState, key string) any {
	return s.Vars[key]
}

// GetReputation returns the reputation value for a faction. Unset
// reputation (or a nil map) returns 0.
func GetReputation(s *types.GameState, factionID string) float64 {
	if s.Reputation == nil {
		return 0
	}
	return s.Reputation[factionID]
}

// ItemCount returns the inventory count for an item id, 0 if absent.
func ItemCount(s *types.GameState, itemID string) int {
	for _, entry := range s.Character.Inventory {
		if entry.Item.ID == itemID {
			return entry.Count
		}
	}
	return 0
}

// HasItem reports whether the character holds at least one of the item.
func HasItem(s *types.GameState, itemID string) bool {
	return ItemCount(s, itemID) > 0
}

// FindCompanion returns a pointer into the companion roster, or nil if the
// companion is not in the party.
func FindCompanion(s *types.GameState, companionID string) *types.CompanionState {
	for i := range s.Companions {
		if s.Companions[i].ID == companionID {
			return &s.Companions[i]
		}
	}
	return nil
}

// RecordHistory appends an event to the audit log, stamping it with the
// next logical sequence number. States without a history log (legacy
// saves) skip recording. Entries are never mutated or removed afterwards.
func RecordHistory(s *types.GameState, event types.HistoryEvent) {
	if s.History == nil {
		return
	}
	event.At = nextSeq(s)
	s.History = append(s.History, event)
}

func nextSeq(s *types.GameState) int64 {
	if len(s.History) == 0 {
		return 1
	}
	return s.History[len(s.History)-1].At + 1
}
