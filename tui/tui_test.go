package tui

import (
	"strings"
	"testing"

	"github.com/nathoo/storyloom/engine"
	"github.com/nathoo/storyloom/types"
)

// tuiStory returns a two-scene story for TUI testing: a hall with an
// exit to the garden and a local action.
func tuiStory() *types.StoryBundle {
	return &types.StoryBundle{
		ID:      "bundle.tui",
		Version: "1.0.0",
		Name:    "TUI Test Story",
		World: types.WorldDefinition{
			Locations: []types.Location{
				{ID: "loc.manor", Name: "Manor", Type: "interior", EntryScene: "scene.hall"},
			},
		},
		Story: types.StoryGraph{
			StartScene: "scene.hall",
			Scenes: []types.Scene{
				{
					ID:         "scene.hall",
					LocationID: "loc.manor",
					Narrative:  types.NarrativeBlock{Text: types.PlainText("A grand hall.")},
					Exits: []types.Exit{
						{Label: "Go north to the garden", TargetScene: "scene.garden"},
					},
					Actions: []types.Action{
						{ID: "act.ring", Label: "Ring the bell",
							Effects: []types.Effect{{Type: types.EffSetFlag, Key: "bell_rung", Value: true}}},
					},
				},
				{
					ID:        "scene.garden",
					Narrative: types.NarrativeBlock{Text: types.PlainText("A peaceful garden.")},
					Exits: []types.Exit{
						{Label: "Go south to the hall", TargetScene: "scene.hall"},
					},
				},
			},
		},
	}
}

func newTestModel(t *testing.T) Model {
	t.Helper()
	rng := engine.NewRNG(1)
	rt, err := engine.NewRuntime(engine.Config{Story: tuiStory(), RNG: rng})
	if err != nil {
		t.Fatal(err)
	}
	m := New(rt, rt.NewGame(nil), rng, t.TempDir())

	rm, err := rt.EnterScene(m.state, m.state.CurrentSceneID)
	if err != nil {
		t.Fatal(err)
	}
	m.current = rm
	return m
}

func lineTexts(lines []rawLine) string {
	texts := make([]string, 0, len(lines))
	for _, rl := range lines {
		texts = append(texts, rl.text)
	}
	return strings.Join(texts, "\n")
}

func TestRenderModelLines(t *testing.T) {
	m := newTestModel(t)

	joined := lineTexts(renderModelLines(m.current))
	if !strings.Contains(joined, "A grand hall.") {
		t.Error("expected scene narrative")
	}
	if !strings.Contains(joined, "1) Go north to the garden") {
		t.Error("expected numbered exit")
	}
	if !strings.Contains(joined, "2) Ring the bell") {
		t.Error("expected numbered action after the exits")
	}
}

func TestRenderModelLines_NoChoices(t *testing.T) {
	rm := &engine.RenderModel{SceneID: "scene.end", NarrativeText: "It is over."}
	joined := lineTexts(renderModelLines(rm))
	if !strings.Contains(joined, "The story ends here.") {
		t.Errorf("expected terminal message, got %q", joined)
	}
}

func TestDispatch_ChoiceNumber(t *testing.T) {
	m := newTestModel(t)

	lines := m.dispatch("1")
	joined := lineTexts(lines)
	if !strings.Contains(joined, "A peaceful garden.") {
		t.Errorf("expected garden narrative, got %q", joined)
	}
	if m.state.CurrentSceneID != "scene.garden" {
		t.Errorf("expected scene.garden, got %s", m.state.CurrentSceneID)
	}
}

func TestDispatch_Action(t *testing.T) {
	m := newTestModel(t)

	m.dispatch("2")
	if !m.state.Flags["bell_rung"] {
		t.Error("expected action effect to set the flag")
	}
}

func TestDispatch_OutOfRange(t *testing.T) {
	m := newTestModel(t)

	joined := lineTexts(m.dispatch("9"))
	if !strings.Contains(joined, "Choice 9 is not on offer.") {
		t.Errorf("expected rejection, got %q", joined)
	}
	if m.state.CurrentSceneID != "scene.hall" {
		t.Error("state should not move on a rejected choice")
	}
}

func TestDispatch_Look(t *testing.T) {
	m := newTestModel(t)

	joined := lineTexts(m.dispatch("look"))
	if !strings.Contains(joined, "A grand hall.") {
		t.Errorf("expected scene re-render, got %q", joined)
	}
}

func TestDispatch_NonNumeric(t *testing.T) {
	m := newTestModel(t)

	joined := lineTexts(m.dispatch("dance"))
	if !strings.Contains(joined, "Enter a choice number") {
		t.Errorf("expected hint, got %q", joined)
	}
}

func TestHandleMeta_Quit(t *testing.T) {
	m := newTestModel(t)

	_, quit := m.handleMeta("/quit")
	if !quit {
		t.Error("expected quit=true for /quit")
	}

	_, quit = m.handleMeta("/exit")
	if !quit {
		t.Error("expected quit=true for /exit")
	}
}

func TestHandleMeta_SaveAndLoad(t *testing.T) {
	m := newTestModel(t)

	output, quit := m.handleMeta("/save test")
	if quit {
		t.Error("save should not quit")
	}
	if joined := lineTexts(output); !strings.Contains(joined, "Game saved to test.") {
		t.Errorf("expected save confirmation, got %q", joined)
	}

	m.dispatch("1")

	output, _ = m.handleMeta("/load test")
	joined := lineTexts(output)
	if !strings.Contains(joined, "Game loaded from test.") {
		t.Errorf("expected load confirmation, got %q", joined)
	}
	if !strings.Contains(joined, "A grand hall.") {
		t.Error("expected the restored scene to be shown")
	}
	if m.state.CurrentSceneID != "scene.hall" {
		t.Errorf("expected restored scene.hall, got %s", m.state.CurrentSceneID)
	}
}

func TestHandleMeta_LoadNonexistent(t *testing.T) {
	m := newTestModel(t)

	output, quit := m.handleMeta("/load nonexistent")
	if quit {
		t.Error("load should not quit")
	}
	if joined := lineTexts(output); !strings.Contains(joined, "Load failed") {
		t.Errorf("expected load failure, got %q", joined)
	}
}

func TestHandleMeta_Help(t *testing.T) {
	m := newTestModel(t)

	output, quit := m.handleMeta("/help")
	if quit {
		t.Error("help should not quit")
	}

	joined := lineTexts(output)
	for _, expected := range []string{"/save", "/load", "/quit", "look", "<number>"} {
		if !strings.Contains(joined, expected) {
			t.Errorf("expected %q in help output", expected)
		}
	}
}

func TestHandleMeta_Unknown(t *testing.T) {
	m := newTestModel(t)

	output, quit := m.handleMeta("/bogus")
	if quit {
		t.Error("unknown command should not quit")
	}
	if joined := lineTexts(output); !strings.Contains(joined, "Unknown command") {
		t.Errorf("expected unknown command message, got %q", joined)
	}
}

func TestHandleMeta_State(t *testing.T) {
	m := newTestModel(t)

	output, quit := m.handleMeta("/state")
	if quit {
		t.Error("state should not quit")
	}

	joined := lineTexts(output)
	if !strings.Contains(joined, "Scene: scene.hall") {
		t.Error("expected scene in state output")
	}
	if !strings.Contains(joined, "Character:") {
		t.Error("expected character in state output")
	}
}

func TestRenderStatusBar(t *testing.T) {
	m := newTestModel(t)
	m.width = 60

	bar := m.renderStatusBar()
	if !strings.Contains(bar, "scene.hall") {
		t.Error("expected scene id in status bar")
	}
	if !strings.Contains(bar, "loc.manor") {
		t.Error("expected location id in status bar")
	}
}

func TestWordWrap(t *testing.T) {
	tests := []struct {
		text  string
		width int
		want  string
	}{
		{"short", 80, "short"},
		{"hello world", 5, "hello\nworld"},
		{"The great hall stretches before you with its vaulted ceiling.", 30,
			"The great hall stretches\nbefore you with its vaulted\nceiling."},
		{"", 80, ""},
		{"one", 80, "one"},
		{"a b c d e", 3, "a b\nc d\ne"},
	}
	for _, tt := range tests {
		got := wordWrap(tt.text, tt.width)
		if got != tt.want {
			t.Errorf("wordWrap(%q, %d) =\n  %q\nwant:\n  %q", tt.text, tt.width, got, tt.want)
		}
	}
}

func TestInputHistory_Recall(t *testing.T) {
	h := newInputHistory(5)
	h.Remember("look")
	h.Remember("1")
	h.Remember("/save test")

	for _, want := range []string{"/save test", "1", "look"} {
		got, ok := h.Older()
		if !ok || got != want {
			t.Errorf("Older() = %q (ok=%v), want %q", got, ok, want)
		}
	}

	// At the oldest line, stays there.
	if got, ok := h.Older(); !ok || got != "look" {
		t.Errorf("Older() at boundary = %q (ok=%v), want 'look'", got, ok)
	}
}

func TestInputHistory_Newer(t *testing.T) {
	h := newInputHistory(5)
	h.Remember("look")
	h.Remember("2")

	h.Older() // "2"
	h.Older() // "look"

	if got, ok := h.Newer(); !ok || got != "2" {
		t.Errorf("Newer() = %q (ok=%v), want '2'", got, ok)
	}

	if _, ok := h.Newer(); ok {
		t.Error("stepping past the newest line must end the recall")
	}
}

func TestInputHistory_Empty(t *testing.T) {
	h := newInputHistory(5)
	if _, ok := h.Older(); ok {
		t.Error("expected false with nothing remembered")
	}
	if _, ok := h.Newer(); ok {
		t.Error("expected false with nothing remembered")
	}
}

func TestInputHistory_Capacity(t *testing.T) {
	h := newInputHistory(2)
	h.Remember("a")
	h.Remember("b")
	h.Remember("c") // "a" falls off

	if got, _ := h.Older(); got != "c" {
		t.Errorf("expected 'c', got %q", got)
	}
	if got, _ := h.Older(); got != "b" {
		t.Errorf("expected 'b', got %q", got)
	}
	// "a" is gone.
	if got, _ := h.Older(); got != "b" {
		t.Errorf("expected 'b' at boundary, got %q", got)
	}
}

func TestInputHistory_RepeatNotRemembered(t *testing.T) {
	h := newInputHistory(5)
	h.Remember("look")
	h.Remember("look")
	h.Remember("look")

	if len(h.lines) != 1 {
		t.Errorf("expected 1 line, got %d", len(h.lines))
	}
}

func TestInputHistory_Reset(t *testing.T) {
	h := newInputHistory(5)
	h.Remember("look")
	h.Remember("1")

	h.Older() // "1"
	h.Reset()

	// After a reset, recall starts from the newest line again.
	if got, ok := h.Older(); !ok || got != "1" {
		t.Errorf("Older() after reset = %q, want '1'", got)
	}
}
