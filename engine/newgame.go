package engine

import (
	"fmt"

	"github.com/nathoo/storyloom/engine/effects"
	"github.com/nathoo/storyloom/types"
)

// NewGame creates a fresh game state positioned at the story's start
// scene. The seed overrides the default character field by field; nil
// means an anonymous "Player" with no stats or inventory. Unresolved
// race/faction ids in the seed degrade to warnings, not errors.
func (r *Runtime) NewGame(seed *types.Character) *types.GameState {
	startID := r.story.Story.StartScene
	startScene := r.sceneByID[startID]

	character := types.Character{
		Name:      "Player",
		Stats:     map[string]float64{},
		Inventory: []types.InventoryEntry{},
	}
	if seed != nil {
		if seed.ID != "" {
			character.ID = seed.ID
		}
		if seed.Name != "" {
			character.Name = seed.Name
		}
		if seed.Stats != nil {
			character.Stats = seed.Stats
		}
		if seed.Inventory != nil {
			character.Inventory = seed.Inventory
		}
		character.RaceID = seed.RaceID
		character.FactionIDs = seed.FactionIDs
		character.Flags = seed.Flags
	}

	s := &types.GameState{
		Version:        r.story.Version,
		SchemaVersion:  r.story.SchemaVersion,
		StoryBundleID:  r.story.ID,
		CurrentSceneID: startID,
		Character:      character,
		Flags:          map[string]bool{},
		Vars:           map[string]any{},
		History:        []types.HistoryEvent{},
	}
	for _, bundle := range r.lore {
		s.LoreBundleIDs = append(s.LoreBundleIDs, bundle.ID)
	}
	if startScene != nil && startScene.LocationID != "" {
		s.CurrentLocationID = startScene.LocationID
	}

	r.ApplyFeatureDefaults(s)
	for _, warning := range r.ValidateCharacterLore(s) {
		r.recordWarning(warning)
	}

	return s
}

// ApplyFeatureDefaults initializes the state maps backing each enabled
// optional feature, once per new or loaded game. The companion roster is
// seeded from the world's companion definitions.
func (r *Runtime) ApplyFeatureDefaults(s *types.GameState) {
	if r.features.LoreRevealStates && s.LoreKnowledge == nil {
		s.LoreKnowledge = map[string]string{}
	}
	if r.features.Relationships && s.Relationships == nil {
		s.Relationships = map[string]types.RelationshipState{}
	}
	if r.features.Companions && s.Companions == nil {
		s.Companions = make([]types.CompanionState, 0, len(r.story.World.Companions))
		for _, def := range r.story.World.Companions {
			s.Companions = append(s.Companions, effects.BuildCompanionState(def))
		}
	}
	if r.features.Sessions && s.Session == nil {
		s.Session = &types.SessionState{
			ID:      "session.local",
			Players: []types.SessionPlayer{},
		}
	}
}

// ValidateCharacterLore cross-checks the character's race and faction ids
// against the loaded lore. Unknown ids are warnings.
func (r *Runtime) ValidateCharacterLore(s *types.GameState) []types.Issue {
	var issues []types.Issue
	if raceID := s.Character.RaceID; raceID != "" {
		if _, ok := r.loreIdx.raceByID[raceID]; !ok {
			issues = append(issues, types.Issue{
				Path:     "/character/raceId",
				Message:  fmt.Sprintf("race %s not found in lore", raceID),
				Severity: types.SeverityWarning,
			})
		}
	}
	for i, factionID := range s.Character.FactionIDs {
		if _, ok := r.loreIdx.factionByID[factionID]; !ok {
			issues = append(issues, types.Issue{
				Path:     fmt.Sprintf("/character/factionIds/%d", i),
				Message:  fmt.Sprintf("faction %s not found in lore", factionID),
				Severity: types.SeverityWarning,
			})
		}
	}
	return issues
}

// ValidateInventoryItems cross-checks inventory item ids against the lore
// item catalog. With no lore items loaded there is nothing to check.
func (r *Runtime) ValidateInventoryItems(s *types.GameState) []types.Issue {
	if len(r.loreIdx.itemByID) == 0 {
		return nil
	}
	var issues []types.Issue
	for i, entry := range s.Character.Inventory {
		if _, ok := r.loreIdx.itemByID[entry.Item.ID]; !ok {
			issues = append(issues, types.Issue{
				Path:     fmt.Sprintf("/character/inventory/%d/item/id", i),
				Message:  fmt.Sprintf("item %s not found in lore items", entry.Item.ID),
				Severity: types.SeverityWarning,
			})
		}
	}
	return issues
}

// ValidateLoreKnowledge checks reveal-state entries: the value must be a
// known reveal state and the category-prefixed key must resolve in lore.
// Only meaningful with the lore reveal feature enabled.
func (r *Runtime) ValidateLoreKnowledge(s *types.GameState) []types.Issue {
	if !r.features.LoreRevealStates || s.LoreKnowledge == nil {
		return nil
	}

	var issues []types.Issue
	warn := func(key, message string) {
		issues = append(issues, types.Issue{
			Path:     "/loreKnowledge/" + key,
			Message:  message,
			Severity: types.SeverityWarning,
		})
	}

	for key, value := range s.LoreKnowledge {
		switch value {
		case types.LoreKnown, types.LoreDiscoverable, types.LoreHidden:
		default:
			warn(key, "lore reveal state must be known, discoverable, or hidden")
		}

		prefix, id, found := cutCategory(key)
		if !found {
			warn(key, "lore key should include a category prefix (e.g. race:elf)")
			continue
		}

		exists := true
		switch prefix {
		case "race":
			_, exists = r.loreIdx.raceByID[id]
		case "faction":
			_, exists = r.loreIdx.factionByID[id]
		case "deity":
			_, exists = r.loreIdx.deityByID[id]
		case "trait":
			_, exists = r.loreIdx.traitByID[id]
		case "location":
			_, exists = r.loreIdx.locationByID[id]
		case "item":
			_, exists = r.loreIdx.itemByID[id]
		case "event":
			_, exists = r.loreIdx.eventByID[id]
		case "other":
		default:
			warn(key, fmt.Sprintf("unknown lore category prefix %s", prefix))
			continue
		}
		if !exists {
			warn(key, fmt.Sprintf("%s %s not found in lore", prefix, id))
		}
	}
	return issues
}

func cutCategory(key string) (prefix, id string, found bool) {
	for i := 0; i < len(key); i++ {
		if key[i] == ':' {
			if i+1 >= len(key) {
				return key[:i], "", false
			}
			return key[:i], key[i+1:], true
		}
	}
	return key, "", false
}
