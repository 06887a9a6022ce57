package save

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/nathoo/storyloom/engine"
	"github.com/nathoo/storyloom/types"
)

func saveStory() *types.StoryBundle {
	return &types.StoryBundle{
		ID:      "bundle.save",
		Version: "2.1.0",
		Name:    "Save Test Story",
		World: types.WorldDefinition{
			Locations: []types.Location{
				{ID: "loc.camp", Name: "Camp", Type: "camp", EntryScene: "scene.camp"},
			},
		},
		Story: types.StoryGraph{
			StartScene: "scene.camp",
			Scenes: []types.Scene{
				{
					ID:         "scene.camp",
					LocationID: "loc.camp",
					Narrative:  types.NarrativeBlock{Text: types.PlainText("Embers glow in the fire pit.")},
					Exits: []types.Exit{
						{Label: "Walk to the ridge", TargetScene: "scene.ridge"},
					},
				},
				{
					ID:        "scene.ridge",
					Narrative: types.NarrativeBlock{Text: types.PlainText("Wind tears across the ridge.")},
				},
			},
		},
	}
}

func saveRuntime(t *testing.T, rng *engine.RNG) *engine.Runtime {
	t.Helper()
	rt, err := engine.NewRuntime(engine.Config{Story: saveStory(), RNG: rng})
	if err != nil {
		t.Fatalf("NewRuntime: %v", err)
	}
	return rt
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	rng := engine.NewRNG(99)
	rt := saveRuntime(t, rng)
	s := rt.NewGame(&types.Character{Name: "Wren"})
	if _, err := rt.EnterScene(s, "scene.camp"); err != nil {
		t.Fatal(err)
	}
	s.Flags["fire_lit"] = true
	s.Vars["night"] = float64(3)

	data, err := Save(s, rng)
	if err != nil {
		t.Fatal(err)
	}

	result, err := Load(rt, data, Options{})
	if err != nil {
		t.Fatal(err)
	}
	loaded := result.State

	if loaded.CurrentSceneID != "scene.camp" || loaded.CurrentLocationID != "loc.camp" {
		t.Errorf("position = %q / %q", loaded.CurrentSceneID, loaded.CurrentLocationID)
	}
	if loaded.Character.Name != "Wren" {
		t.Errorf("character = %+v", loaded.Character)
	}
	if !reflect.DeepEqual(loaded.Flags, s.Flags) {
		t.Errorf("flags = %v, want %v", loaded.Flags, s.Flags)
	}
	if !reflect.DeepEqual(loaded.Vars, s.Vars) {
		t.Errorf("vars = %v, want %v", loaded.Vars, s.Vars)
	}
	// Loading without replay adds no history of its own.
	if len(loaded.History) != len(s.History) {
		t.Errorf("history grew from %d to %d entries", len(s.History), len(loaded.History))
	}
	if result.RenderModel != nil {
		t.Error("no render model without replay")
	}
}

func TestSaveLoad_RNGStateSurvives(t *testing.T) {
	rng := engine.NewRNG(7)
	rng.Next()
	rng.Next()
	rng.Next()

	data, err := Save(&types.GameState{StoryBundleID: "bundle.save"}, rng)
	if err != nil {
		t.Fatal(err)
	}

	seed, position, ok := RNGState(data)
	if !ok {
		t.Fatal("RNG state missing from save")
	}
	if seed != 7 || position != 3 {
		t.Errorf("seed, position = %d, %d", seed, position)
	}

	restored := engine.RestoreRNG(seed, position)
	if restored.Next() != rng.Next() {
		t.Error("restored stream diverged")
	}
}

func TestRNGState_AbsentWhenSavedWithoutRNG(t *testing.T) {
	data, err := Save(&types.GameState{StoryBundleID: "bundle.save"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, ok := RNGState(data); ok {
		t.Error("save without an RNG should report no RNG state")
	}
}

func TestLoad_PartialSaveNormalized(t *testing.T) {
	rt := saveRuntime(t, engine.NewRNG(1))

	// A minimal legacy document: the old currentScene alias and a
	// character, nothing else.
	doc := []byte(`{
		"currentScene": "scene.camp",
		"character": {"name": "Ash", "stats": {"wits": 11}}
	}`)

	result, err := Load(rt, doc, Options{})
	if err != nil {
		t.Fatal(err)
	}
	s := result.State

	if s.CurrentSceneID != "scene.camp" {
		t.Errorf("scene = %q", s.CurrentSceneID)
	}
	if s.CurrentLocationID != "loc.camp" {
		t.Errorf("location = %q, should come from the scene", s.CurrentLocationID)
	}
	if s.StoryBundleID != "bundle.save" || s.Version != "2.1.0" {
		t.Errorf("bundle identity = %q / %q, should come from the runtime", s.StoryBundleID, s.Version)
	}
	if s.Character.Name != "Ash" || s.Character.Stats["wits"] != 11 {
		t.Errorf("character = %+v", s.Character)
	}
	if s.Flags == nil || s.Vars == nil {
		t.Error("normalization must initialize the core maps")
	}
}

func TestLoad_PartialSaveWithoutSceneRejected(t *testing.T) {
	rt := saveRuntime(t, engine.NewRNG(1))

	_, err := Load(rt, []byte(`{"character": {"name": "Nobody"}}`), Options{})
	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("err = %v", err)
	}
	if len(loadErr.Issues) != 1 || loadErr.Issues[0].Path != "/currentSceneId" {
		t.Errorf("issues = %v", loadErr.Issues)
	}
}

func TestLoad_BundleMismatchRejected(t *testing.T) {
	rt := saveRuntime(t, engine.NewRNG(1))
	s := rt.NewGame(nil)
	s.StoryBundleID = "bundle.other"

	data, err := Save(s, nil)
	if err != nil {
		t.Fatal(err)
	}

	_, err = Load(rt, data, Options{})
	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("err = %v", err)
	}
	if loadErr.Issues[0].Path != "/storyBundleId" ||
		!strings.Contains(loadErr.Issues[0].Message, "bundle.other") {
		t.Errorf("issues = %v", loadErr.Issues)
	}
}

func TestLoad_UnknownSceneRejected(t *testing.T) {
	rt := saveRuntime(t, engine.NewRNG(1))
	s := rt.NewGame(nil)
	s.CurrentSceneID = "scene.demolished"

	data, err := Save(s, nil)
	if err != nil {
		t.Fatal(err)
	}

	_, err = Load(rt, data, Options{})
	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("err = %v", err)
	}
	if loadErr.Issues[0].Path != "/currentSceneId" {
		t.Errorf("issues = %v", loadErr.Issues)
	}
}

func TestLoad_MalformedJSON(t *testing.T) {
	rt := saveRuntime(t, engine.NewRNG(1))
	if _, err := Load(rt, []byte(`{"currentSceneId": `), Options{}); err == nil {
		t.Error("malformed JSON should fail")
	}
}

func TestLoad_ReplayEntryRules(t *testing.T) {
	rt := saveRuntime(t, engine.NewRNG(1))
	s := rt.NewGame(nil)
	if _, err := rt.EnterScene(s, "scene.camp"); err != nil {
		t.Fatal(err)
	}
	if _, err := rt.SelectExit(s, 0); err != nil {
		t.Fatal(err)
	}
	historyBefore := len(s.History)

	data, err := Save(s, nil)
	if err != nil {
		t.Fatal(err)
	}

	result, err := Load(rt, data, Options{ReplayEntryRulesOnLoad: true})
	if err != nil {
		t.Fatal(err)
	}
	if result.RenderModel == nil || result.RenderModel.SceneID != "scene.ridge" {
		t.Fatalf("render model = %+v", result.RenderModel)
	}
	if !strings.Contains(result.RenderModel.NarrativeText, "ridge") {
		t.Errorf("narrative = %q", result.RenderModel.NarrativeText)
	}
	// Replay re-enters the scene, so history gains a fresh enter event.
	if len(result.State.History) != historyBefore+1 {
		t.Errorf("history = %d entries, want %d", len(result.State.History), historyBefore+1)
	}
}

func TestLoad_LoreWarningsAreSoft(t *testing.T) {
	lore := &types.LoreBundle{
		ID:    "lore.save",
		Races: []types.Race{{ID: "race.human", Name: "Human"}},
	}
	rt, err := engine.NewRuntime(engine.Config{
		Story:       saveStory(),
		LoreBundles: []*types.LoreBundle{lore},
		RNG:         engine.NewRNG(1),
	})
	if err != nil {
		t.Fatal(err)
	}

	s := rt.NewGame(nil)
	s.Character.RaceID = "race.forgotten"

	data, err := Save(s, nil)
	if err != nil {
		t.Fatal(err)
	}

	result, err := Load(rt, data, Options{})
	if err != nil {
		t.Fatalf("soft lore issues must not block loading: %v", err)
	}
	if len(result.Warnings) != 1 || result.Warnings[0].Path != "/character/raceId" {
		t.Errorf("warnings = %v", result.Warnings)
	}
}
