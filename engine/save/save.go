// Package save implements JSON serialization and deserialization of game
// state, including normalization of partial or legacy save documents and
// re-validation against the live story bundle.
package save

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nathoo/storyloom/engine"
	"github.com/nathoo/storyloom/types"
)

// SaveData is the on-disk save format: the full game state plus the RNG
// stream position so variant narrative stays deterministic across a
// save/load boundary.
type SaveData struct {
	types.GameState
	RNGSeed     int64 `json:"rngSeed,omitempty"`
	RNGPosition int64 `json:"rngPosition,omitempty"`
}

// payload additionally accepts the legacy currentScene alias written by
// older saves.
type payload struct {
	SaveData
	CurrentScene string `json:"currentScene,omitempty"`
}

// Options controls Load behavior.
type Options struct {
	// ReplayEntryRulesOnLoad re-runs scene entry on the loaded scene,
	// replaying entry-rule side effects and producing a fresh render
	// model.
	ReplayEntryRulesOnLoad bool
}

// Result is a successful load: the validated state, non-blocking warnings,
// and a render model when entry rules were replayed.
type Result struct {
	State       *types.GameState
	RenderModel *engine.RenderModel
	Warnings    []types.Issue
}

// LoadError aggregates the issues that made a save unusable.
type LoadError struct {
	Issues []types.Issue
}

func (e *LoadError) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("save rejected with %d error(s):", len(e.Issues)))
	for _, issue := range e.Issues {
		sb.WriteString("\n  ")
		sb.WriteString(issue.Path)
		sb.WriteString(": ")
		sb.WriteString(issue.Message)
	}
	return sb.String()
}

// Save serializes game state to JSON bytes. A nil rng omits the stream
// position.
func Save(s *types.GameState, rng *engine.RNG) ([]byte, error) {
	data := SaveData{GameState: *s}
	if rng != nil {
		data.RNGSeed = rng.Seed()
		data.RNGPosition = rng.Position()
	}
	return json.MarshalIndent(data, "", "  ")
}

// RNGState extracts the RNG seed and position from save bytes without
// touching the rest of the document. Callers use it to construct the
// runtime with a restored RNG before loading.
func RNGState(data []byte) (seed, position int64, ok bool) {
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		return 0, 0, false
	}
	return p.RNGSeed, p.RNGPosition, p.RNGSeed != 0
}

// Load deserializes and validates a save against the runtime's story
// bundle. Partial saves are normalized onto a fresh game state; a story
// bundle mismatch or an unknown scene id is a *LoadError. Soft issues
// (unknown lore items, races, factions) come back as warnings.
func Load(rt *engine.Runtime, data []byte, opts Options) (*Result, error) {
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing save: %w", err)
	}

	state, issues := normalize(rt, &p)
	if state == nil {
		return nil, &LoadError{Issues: issues}
	}
	rt.ApplyFeatureDefaults(state)

	if state.StoryBundleID != rt.Story().ID {
		return nil, &LoadError{Issues: []types.Issue{{
			Path: "/storyBundleId",
			Message: fmt.Sprintf("save storyBundleId %s does not match %s",
				state.StoryBundleID, rt.Story().ID),
			Severity: types.SeverityError,
		}}}
	}

	var warnings []types.Issue
	warnings = append(warnings, rt.ValidateInventoryItems(state)...)
	warnings = append(warnings, rt.ValidateCharacterLore(state)...)
	warnings = append(warnings, rt.ValidateLoreKnowledge(state)...)

	if _, ok := rt.Scene(state.CurrentSceneID); !ok {
		issue := types.Issue{
			Path:     "/currentSceneId",
			Message:  fmt.Sprintf("scene %s not found in story bundle", state.CurrentSceneID),
			Severity: types.SeverityError,
		}
		return nil, &LoadError{Issues: append([]types.Issue{issue}, warnings...)}
	}

	result := &Result{State: state, Warnings: warnings}
	if opts.ReplayEntryRulesOnLoad {
		rm, err := rt.EnterScene(state, state.CurrentSceneID)
		if err != nil {
			return nil, err
		}
		result.RenderModel = rm
	}
	return result, nil
}

// normalize turns a complete save into a state directly, and overlays a
// partial save onto a fresh new game. A partial save without any scene id
// is unusable.
func normalize(rt *engine.Runtime, p *payload) (*types.GameState, []types.Issue) {
	if isComplete(&p.GameState) {
		return &p.GameState, nil
	}

	sceneID := p.CurrentSceneID
	if sceneID == "" {
		sceneID = p.CurrentScene
	}
	if sceneID == "" {
		return nil, []types.Issue{{
			Path:     "/currentSceneId",
			Message:  "missing currentSceneId",
			Severity: types.SeverityError,
		}}
	}

	state := rt.NewGame(&p.Character)
	state.CurrentSceneID = sceneID
	if scene, ok := rt.Scene(sceneID); ok && scene.LocationID != "" {
		state.CurrentLocationID = scene.LocationID
	}
	if p.CurrentLocationID != "" {
		state.CurrentLocationID = p.CurrentLocationID
	}
	if p.StoryBundleID != "" {
		state.StoryBundleID = p.StoryBundleID
	}
	if p.Version != "" {
		state.Version = p.Version
	}
	if p.SchemaVersion != "" {
		state.SchemaVersion = p.SchemaVersion
	}
	if p.LoreBundleIDs != nil {
		state.LoreBundleIDs = p.LoreBundleIDs
	}
	if p.Flags != nil {
		state.Flags = p.Flags
	}
	if p.Vars != nil {
		state.Vars = p.Vars
	}
	if p.Reputation != nil {
		state.Reputation = p.Reputation
	}
	if p.History != nil {
		state.History = p.History
	}
	return state, nil
}

// isComplete reports whether the document already carries a full game
// state rather than a partial save.
func isComplete(s *types.GameState) bool {
	return s.StoryBundleID != "" && s.CurrentSceneID != "" && s.Flags != nil && s.Vars != nil
}
