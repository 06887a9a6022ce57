package engine

import (
	"fmt"
	"strings"

	"github.com/nathoo/storyloom/engine/effects"
	"github.com/nathoo/storyloom/engine/state"
	"github.com/nathoo/storyloom/rules"
	"github.com/nathoo/storyloom/types"
)

// RenderModel is the engine's output snapshot for one turn: the resolved
// narrative plus the choices currently available. Presentation layers
// consume it and call SelectExit/SelectAction with the player's pick.
type RenderModel struct {
	SceneID          string               `json:"sceneId"`
	LocationID       string               `json:"locationId,omitempty"`
	NarrativeText    string               `json:"narrativeText"`
	Ambience         *types.AmbienceBlock `json:"ambience,omitempty"`
	AvailableExits   []types.Exit         `json:"availableExits"`
	AvailableActions []types.Action       `json:"availableActions"`
	RecentNarrative  []string             `json:"recentNarrative,omitempty"`
}

// EnterScene moves the state to a scene, runs its entry rule hooks, and
// follows any teleport chain to the terminal scene. Hook effects apply
// immediately; hook narrative becomes an overlay under the scene text. A
// teleport discards the intermediate scene's render model and records a
// sceneExit before moving on. Chains longer than the configured hop limit
// fail rather than loop forever.
func (r *Runtime) EnterScene(s *types.GameState, sceneID string) (*RenderModel, error) {
	hops := 0
	for {
		scene, ok := r.sceneByID[sceneID]
		if !ok {
			return nil, fmt.Errorf("scene %s not found", sceneID)
		}

		s.CurrentSceneID = sceneID
		if scene.LocationID != "" {
			s.CurrentLocationID = scene.LocationID
		}
		state.RecordHistory(s, types.HistoryEvent{Type: types.HistorySceneEnter, SceneID: sceneID})

		var overlays []string
		teleportTarget := ""
		for _, hook := range scene.EntryRules {
			result, handled := r.registry.ResolveHook(rules.Context{
				State: s,
				Scene: scene,
				Hook:  hook,
				RNG:   r.rng,
			})
			if !handled {
				continue
			}
			if len(result.Effects) > 0 {
				out := effects.Apply(s, &r.story.World, result.Effects)
				if out.TeleportTarget != "" {
					teleportTarget = out.TeleportTarget
				}
			}
			if !result.Narrative.IsZero() {
				overlays = append(overlays, r.resolveNarrative(result.Narrative, s))
			}
		}

		if teleportTarget == "" {
			return r.buildRenderModel(s, scene, overlays, nil), nil
		}

		state.RecordHistory(s, types.HistoryEvent{Type: types.HistorySceneExit, SceneID: scene.ID})
		hops++
		if hops >= r.maxHops {
			return nil, fmt.Errorf("teleport chain exceeded %d hops at scene %s", r.maxHops, scene.ID)
		}
		sceneID = teleportTarget
	}
}

// GetRenderModel rebuilds the render model for the current scene without
// mutating anything beyond RNG draws for variant narrative.
func (r *Runtime) GetRenderModel(s *types.GameState) (*RenderModel, error) {
	scene, ok := r.sceneByID[s.CurrentSceneID]
	if !ok {
		return nil, fmt.Errorf("scene %s not found", s.CurrentSceneID)
	}
	return r.buildRenderModel(s, scene, nil, nil), nil
}

// SelectExit takes the exit at the given index of the current scene's full
// exit list. The exit's condition is re-checked; a failing condition is an
// error, since the caller offered a choice the state no longer allows.
// Exit rule hooks run before leaving, and a teleport from them overrides
// the exit's nominal target.
func (r *Runtime) SelectExit(s *types.GameState, index int) (*RenderModel, error) {
	scene, ok := r.sceneByID[s.CurrentSceneID]
	if !ok {
		return nil, fmt.Errorf("scene %s not found", s.CurrentSceneID)
	}
	if index < 0 || index >= len(scene.Exits) {
		return nil, fmt.Errorf("exit %d not found on scene %s", index, scene.ID)
	}
	return r.selectExit(s, scene, &scene.Exits[index])
}

// SelectExitRef is SelectExit for callers holding the exit value itself,
// e.g. one taken from a RenderModel's AvailableExits.
func (r *Runtime) SelectExitRef(s *types.GameState, exit *types.Exit) (*RenderModel, error) {
	scene, ok := r.sceneByID[s.CurrentSceneID]
	if !ok {
		return nil, fmt.Errorf("scene %s not found", s.CurrentSceneID)
	}
	if exit == nil {
		return nil, fmt.Errorf("exit not found on scene %s", scene.ID)
	}
	return r.selectExit(s, scene, exit)
}

func (r *Runtime) selectExit(s *types.GameState, scene *types.Scene, exit *types.Exit) (*RenderModel, error) {
	if exit.Condition != nil && !r.EvalCondition(s, *exit.Condition) {
		return nil, fmt.Errorf("exit %q condition failed", exit.Label)
	}

	state.RecordHistory(s, types.HistoryEvent{
		Type:    types.HistoryAction,
		SceneID: scene.ID,
		Data:    map[string]any{"kind": "exit", "label": exit.Label},
	})

	travelText := r.resolveNarrative(exit.TravelText, s)

	teleportTarget := ""
	for _, hook := range scene.ExitRules {
		result, handled := r.registry.ResolveHook(rules.Context{
			State: s,
			Scene: scene,
			Hook:  hook,
			RNG:   r.rng,
		})
		if !handled {
			continue
		}
		if len(result.Effects) > 0 {
			out := effects.Apply(s, &r.story.World, result.Effects)
			if out.TeleportTarget != "" {
				teleportTarget = out.TeleportTarget
			}
		}
	}

	state.RecordHistory(s, types.HistoryEvent{Type: types.HistorySceneExit, SceneID: scene.ID})

	target := exit.TargetScene
	if teleportTarget != "" {
		target = teleportTarget
	}

	rm, err := r.EnterScene(s, target)
	if err != nil {
		return nil, err
	}
	if travelText != "" {
		rm.RecentNarrative = append([]string{travelText}, rm.RecentNarrative...)
	}
	return rm, nil
}

// SelectAction performs an in-scene action by id: applies its effects,
// runs its rule hooks, and either teleports or returns the current scene's
// render model with the hooks' narrative as recent narrative.
func (r *Runtime) SelectAction(s *types.GameState, actionID string) (*RenderModel, error) {
	scene, ok := r.sceneByID[s.CurrentSceneID]
	if !ok {
		return nil, fmt.Errorf("scene %s not found", s.CurrentSceneID)
	}

	var action *types.Action
	for i := range scene.Actions {
		if scene.Actions[i].ID == actionID {
			action = &scene.Actions[i]
			break
		}
	}
	if action == nil {
		return nil, fmt.Errorf("action %s not found on scene %s", actionID, scene.ID)
	}
	if action.Condition != nil && !r.EvalCondition(s, *action.Condition) {
		return nil, fmt.Errorf("action %s condition failed", actionID)
	}

	state.RecordHistory(s, types.HistoryEvent{
		Type:     types.HistoryAction,
		SceneID:  scene.ID,
		ActionID: actionID,
	})

	teleportTarget := ""
	if len(action.Effects) > 0 {
		out := effects.Apply(s, &r.story.World, action.Effects)
		teleportTarget = out.TeleportTarget
	}

	var actionNarrative []string
	for _, hook := range action.RuleHooks {
		result, handled := r.registry.ResolveHook(rules.Context{
			State:  s,
			Scene:  scene,
			Action: action,
			Hook:   hook,
			RNG:    r.rng,
		})
		if !handled {
			continue
		}
		if len(result.Effects) > 0 {
			out := effects.Apply(s, &r.story.World, result.Effects)
			if out.TeleportTarget != "" {
				teleportTarget = out.TeleportTarget
			}
		}
		if !result.Narrative.IsZero() {
			actionNarrative = append(actionNarrative, r.resolveNarrative(result.Narrative, s))
		}
	}

	if teleportTarget != "" {
		state.RecordHistory(s, types.HistoryEvent{Type: types.HistorySceneExit, SceneID: scene.ID})
		return r.EnterScene(s, teleportTarget)
	}

	return r.buildRenderModel(s, scene, nil, actionNarrative), nil
}

func (r *Runtime) buildRenderModel(s *types.GameState, scene *types.Scene, overlays, recent []string) *RenderModel {
	parts := []string{r.resolveNarrative(scene.Narrative.Text, s)}
	parts = append(parts, overlays...)
	var nonEmpty []string
	for _, part := range parts {
		if part != "" {
			nonEmpty = append(nonEmpty, part)
		}
	}

	return &RenderModel{
		SceneID:          scene.ID,
		LocationID:       scene.LocationID,
		NarrativeText:    strings.Join(nonEmpty, "\n\n"),
		Ambience:         scene.Ambience,
		AvailableExits:   r.collectExits(s, scene),
		AvailableActions: r.collectActions(s, scene),
		RecentNarrative:  recent,
	}
}

func (r *Runtime) collectExits(s *types.GameState, scene *types.Scene) []types.Exit {
	exits := make([]types.Exit, 0, len(scene.Exits))
	for _, exit := range scene.Exits {
		if exit.Condition == nil || r.EvalCondition(s, *exit.Condition) {
			exits = append(exits, exit)
		}
	}
	return exits
}

func (r *Runtime) collectActions(s *types.GameState, scene *types.Scene) []types.Action {
	actions := make([]types.Action, 0, len(scene.Actions))
	for _, action := range scene.Actions {
		if action.Condition == nil || r.EvalCondition(s, *action.Condition) {
			actions = append(actions, action)
		}
	}
	return actions
}
