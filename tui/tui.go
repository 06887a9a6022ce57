// Package tui provides a full-screen terminal front end built on Bubble
// Tea: a scrolling narrative viewport, a numbered-choice prompt, and the
// same meta-commands as the line-mode cli package.
package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nathoo/storyloom/engine"
	"github.com/nathoo/storyloom/engine/save"
	"github.com/nathoo/storyloom/types"
)

// rawLine stores an unstyled output line with its classification,
// so we can re-wrap and re-style when the terminal is resized.
type rawLine struct {
	text    string
	kind    lineKind
	isInput bool // true for echoed player input
}

// Model is the Bubble Tea model for the Storyloom TUI.
type Model struct {
	runtime *engine.Runtime
	state   *types.GameState
	rng     *engine.RNG

	viewport viewport.Model
	input    textinput.Model
	history  *inputHistory

	rawLines []rawLine // accumulated narrative lines (unstyled, for re-wrapping)
	current  *engine.RenderModel

	width    int
	height   int
	ready    bool
	quitting bool
	saveDir  string
}

// gameOutputMsg carries output from the runtime into the Update loop.
type gameOutputMsg struct {
	input string // echoed player input (empty for intro)
	lines []rawLine
	rm    *engine.RenderModel // non-nil when the scene view changed
}

// New creates a TUI model wired to the given runtime and state.
func New(rt *engine.Runtime, state *types.GameState, rng *engine.RNG, saveDir string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Focus()
	ti.CharLimit = 256
	ti.PromptStyle = styleInputPrompt

	if saveDir == "" {
		home, _ := os.UserHomeDir()
		saveDir = filepath.Join(home, ".storyloom", "saves")
	}

	return Model{
		runtime: rt,
		state:   state,
		rng:     rng,
		input:   ti,
		history: newInputHistory(100),
		saveDir: saveDir,
	}
}

// Run starts the Bubble Tea program.
func Run(rt *engine.Runtime, state *types.GameState, rng *engine.RNG, saveDir string) error {
	m := New(rt, state, rng, saveDir)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}

// Init returns the initial command that produces the story header and the
// opening scene.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.initialOutput())
}

func (m *Model) initialOutput() tea.Cmd {
	story := m.runtime.Story()
	rm, err := m.runtime.EnterScene(m.state, m.state.CurrentSceneID)
	return func() tea.Msg {
		var lines []rawLine

		lines = append(lines, rawLine{text: story.Name, kind: kindTitle})
		lines = append(lines, rawLine{})

		if err != nil {
			lines = append(lines, rawLine{text: fmt.Sprintf("Error: %v", err), kind: kindError})
			return gameOutputMsg{lines: lines}
		}

		lines = append(lines, renderModelLines(rm)...)
		return gameOutputMsg{lines: lines, rm: rm}
	}
}

// renderModelLines formats a render model the same way the cli package
// does: recent narrative, scene narrative, then numbered choices.
func renderModelLines(rm *engine.RenderModel) []rawLine {
	var lines []rawLine

	for _, line := range rm.RecentNarrative {
		lines = append(lines, rawLine{text: line, kind: kindTravel})
		lines = append(lines, rawLine{})
	}
	if rm.NarrativeText != "" {
		lines = append(lines, rawLine{text: rm.NarrativeText, kind: kindNarrative})
	}

	n := 0
	if len(rm.AvailableExits) > 0 || len(rm.AvailableActions) > 0 {
		lines = append(lines, rawLine{})
	}
	for _, exit := range rm.AvailableExits {
		n++
		lines = append(lines, rawLine{text: fmt.Sprintf("  %d) %s", n, exit.Label), kind: kindChoice})
	}
	for _, action := range rm.AvailableActions {
		n++
		lines = append(lines, rawLine{text: fmt.Sprintf("  %d) %s", n, action.Label), kind: kindChoice})
	}
	if n == 0 {
		lines = append(lines, rawLine{text: "The story ends here.", kind: kindSystem})
	}

	return lines
}

func systemLines(texts ...string) []rawLine {
	lines := make([]rawLine, 0, len(texts))
	for _, t := range texts {
		lines = append(lines, rawLine{text: t, kind: kindSystem})
	}
	return lines
}

// Update handles messages (key presses, window resize, game output).
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		vpHeight := m.height - 2 // 1 status bar + 1 input line
		if vpHeight < 1 {
			vpHeight = 1
		}

		if !m.ready {
			m.viewport = viewport.New(m.width, vpHeight)
			m.viewport.KeyMap = viewportKeyMap()
			m.ready = true
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = vpHeight
		}

		m.refreshViewport()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.quitting = true
			return m, tea.Quit

		case "enter":
			return m.handleEnter()

		case "up":
			if line, ok := m.history.Older(); ok {
				m.input.SetValue(line)
				m.input.CursorEnd()
			}
			return m, nil

		case "down":
			if line, ok := m.history.Newer(); ok {
				m.input.SetValue(line)
				m.input.CursorEnd()
			} else {
				m.input.SetValue("")
			}
			return m, nil

		case "pgup", "pgdown":
			var vpCmd tea.Cmd
			m.viewport, vpCmd = m.viewport.Update(msg)
			return m, vpCmd
		}

	case gameOutputMsg:
		if msg.rm != nil {
			m.current = msg.rm
		}
		m = m.appendOutput(msg)
	}

	var inputCmd tea.Cmd
	m.input, inputCmd = m.input.Update(msg)
	cmds = append(cmds, inputCmd)

	return m, tea.Batch(cmds...)
}

// handleEnter processes the submitted input line.
func (m Model) handleEnter() (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.input.Value())
	m.input.SetValue("")

	if input == "" {
		return m, nil
	}

	m.history.Remember(input)
	m.history.Reset()

	// Meta-commands.
	if strings.HasPrefix(input, "/") {
		output, quit := m.handleMeta(input)
		m = m.appendOutput(gameOutputMsg{input: input, lines: output})
		if quit {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	}

	lines := m.dispatch(input)
	m = m.appendOutput(gameOutputMsg{input: input, lines: lines})
	return m, nil
}

// dispatch interprets a game input: a choice number, or look.
func (m *Model) dispatch(input string) []rawLine {
	lower := strings.ToLower(input)
	if lower == "look" || lower == "l" {
		rm, err := m.runtime.GetRenderModel(m.state)
		if err != nil {
			return systemLines(fmt.Sprintf("Error: %v", err))
		}
		m.current = rm
		return renderModelLines(rm)
	}

	n, err := strconv.Atoi(input)
	if err != nil {
		return systemLines("Enter a choice number, or /help for commands.")
	}
	return m.choose(n)
}

// choose selects the nth offered choice: exits come first, actions after.
func (m *Model) choose(n int) []rawLine {
	if m.current == nil {
		return systemLines("Nothing to choose from.")
	}
	exits := m.current.AvailableExits
	actions := m.current.AvailableActions
	if n < 1 || n > len(exits)+len(actions) {
		return systemLines(fmt.Sprintf("Choice %d is not on offer.", n))
	}

	var rm *engine.RenderModel
	var err error
	if n <= len(exits) {
		rm, err = m.runtime.SelectExitRef(m.state, &exits[n-1])
	} else {
		rm, err = m.runtime.SelectAction(m.state, actions[n-1-len(exits)].ID)
	}
	if err != nil {
		return systemLines(fmt.Sprintf("Error: %v", err))
	}
	m.current = rm
	return renderModelLines(rm)
}

// appendOutput adds lines to the narrative and refreshes the viewport.
func (m Model) appendOutput(msg gameOutputMsg) Model {
	if msg.input != "" {
		m.rawLines = append(m.rawLines, rawLine{
			text: "> " + msg.input, isInput: true,
		})
	}

	m.rawLines = append(m.rawLines, msg.lines...)

	// Blank line separator between turns.
	m.rawLines = append(m.rawLines, rawLine{})

	m.refreshViewport()

	return m
}

// refreshViewport re-wraps and re-styles all raw lines at the current width
// and updates the viewport content.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}

	width := m.width
	if width < 10 {
		width = 10
	}

	var styled []string
	for _, rl := range m.rawLines {
		if rl.text == "" {
			styled = append(styled, "")
			continue
		}

		wrapped := wordWrap(rl.text, width)

		if rl.isInput {
			styled = append(styled, stylePlayerInput.Render(wrapped))
		} else {
			styled = append(styled, renderLineKind(wrapped, rl.kind))
		}
	}

	m.viewport.SetContent(strings.Join(styled, "\n"))
	m.viewport.GotoBottom()
}

// View renders the full TUI layout: status bar + viewport + input.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Loading..."
	}

	return m.renderStatusBar() + "\n" + m.viewport.View() + "\n" + m.input.View()
}

// handleMeta dispatches meta-commands. Returns output lines and quit flag.
func (m *Model) handleMeta(input string) ([]rawLine, bool) {
	parts := strings.Fields(input)
	cmd := parts[0]
	var arg string
	if len(parts) > 1 {
		arg = parts[1]
	}

	switch cmd {
	case "/quit", "/exit":
		return systemLines("Goodbye."), true

	case "/save":
		return m.cmdSave(arg), false

	case "/load":
		return m.cmdLoad(arg), false

	case "/help":
		return m.cmdHelp(), false

	case "/state":
		return m.cmdState(), false

	default:
		return systemLines(fmt.Sprintf("Unknown command: %s. Type /help for available commands.", cmd)), false
	}
}

func (m *Model) cmdSave(name string) []rawLine {
	if name == "" {
		name = "quicksave"
	}

	data, err := save.Save(m.state, m.rng)
	if err != nil {
		return systemLines(fmt.Sprintf("Save failed: %v", err))
	}

	if err := os.MkdirAll(m.saveDir, 0o755); err != nil {
		return systemLines(fmt.Sprintf("Save failed: %v", err))
	}

	path := filepath.Join(m.saveDir, name+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return systemLines(fmt.Sprintf("Save failed: %v", err))
	}

	return systemLines(fmt.Sprintf("Game saved to %s.", name))
}

func (m *Model) cmdLoad(name string) []rawLine {
	if name == "" {
		name = "quicksave"
	}

	path := filepath.Join(m.saveDir, name+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		return systemLines(fmt.Sprintf("Load failed: %v", err))
	}

	if seed, position, ok := save.RNGState(data); ok && m.rng != nil {
		m.rng.Restore(seed, position)
	}

	result, err := save.Load(m.runtime, data, save.Options{})
	if err != nil {
		return systemLines(fmt.Sprintf("Load failed: %v", err))
	}

	output := systemLines(fmt.Sprintf("Game loaded from %s.", name))
	for _, warning := range result.Warnings {
		output = append(output, rawLine{
			text: fmt.Sprintf("warning: %s: %s", warning.Path, warning.Message),
			kind: kindWarning,
		})
	}

	m.state = result.State

	rm, err := m.runtime.GetRenderModel(m.state)
	if err != nil {
		return append(output, rawLine{text: fmt.Sprintf("Error: %v", err), kind: kindError})
	}
	m.current = rm
	output = append(output, rawLine{})
	return append(output, renderModelLines(rm)...)
}

func (m *Model) cmdHelp() []rawLine {
	return systemLines(
		"System:",
		"  /save [name]  — Save game (default: quicksave)",
		"  /load [name]  — Load game (default: quicksave)",
		"  /quit         — Exit game",
		"  /help         — Show this help",
		"  /state        — Debug: dump current state",
		"",
		"Play:",
		"  <number>  — Take the numbered exit or action",
		"  look (l)  — Show the scene again",
		"",
		"Navigation: PgUp/PgDn to scroll, Up/Down for command history",
	)
}

func (m *Model) cmdState() []rawLine {
	s := m.state
	texts := []string{fmt.Sprintf("Scene: %s", s.CurrentSceneID)}
	if s.CurrentLocationID != "" {
		texts = append(texts, fmt.Sprintf("Location: %s", s.CurrentLocationID))
	}
	texts = append(texts, fmt.Sprintf("Character: %s", s.Character.Name))
	if len(s.Character.Stats) > 0 {
		texts = append(texts, fmt.Sprintf("Stats: %v", s.Character.Stats))
	}
	if len(s.Character.Inventory) > 0 {
		var items []string
		for _, entry := range s.Character.Inventory {
			items = append(items, fmt.Sprintf("%s x%d", entry.Item.Name, entry.Count))
		}
		texts = append(texts, fmt.Sprintf("Inventory: %s", strings.Join(items, ", ")))
	}
	if len(s.Flags) > 0 {
		texts = append(texts, fmt.Sprintf("Flags: %v", s.Flags))
	}
	if len(s.Vars) > 0 {
		texts = append(texts, fmt.Sprintf("Vars: %v", s.Vars))
	}
	texts = append(texts, fmt.Sprintf("History: %d events", len(s.History)))
	return systemLines(texts...)
}

// viewportKeyMap returns a viewport keymap with Up/Down disabled
// (we use those for input history).
func viewportKeyMap() viewport.KeyMap {
	return viewport.KeyMap{
		PageDown:     key.NewBinding(key.WithKeys("pgdown")),
		PageUp:       key.NewBinding(key.WithKeys("pgup")),
		HalfPageDown: key.NewBinding(key.WithKeys("ctrl+d")),
		HalfPageUp:   key.NewBinding(key.WithKeys("ctrl+u")),
		Up:           key.NewBinding(key.WithDisabled()),
		Down:         key.NewBinding(key.WithDisabled()),
	}
}
