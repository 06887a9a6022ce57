// Package cli provides the line-mode presentation loop: it prints render
// models as numbered choices, reads selections, and dispatches
// meta-commands for saving, loading, and state inspection.
package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nathoo/storyloom/engine"
	"github.com/nathoo/storyloom/engine/save"
	"github.com/nathoo/storyloom/types"
)

// CLI handles terminal interaction with the player.
type CLI struct {
	Runtime *engine.Runtime
	State   *types.GameState

	// RNG is the generator the runtime was built with. When set, saves
	// carry the stream position and loads restore it.
	RNG *engine.RNG

	In        io.Reader
	Out       io.Writer
	Err       io.Writer
	SaveDir   string
	EchoInput bool // echo each input line after the prompt (for script playback)

	current *engine.RenderModel
}

// New creates a CLI wired to the given runtime and state.
func New(rt *engine.Runtime, state *types.GameState, rng *engine.RNG, saveDir string) *CLI {
	return &CLI{
		Runtime: rt,
		State:   state,
		RNG:     rng,
		In:      os.Stdin,
		Out:     os.Stdout,
		Err:     os.Stderr,
		SaveDir: saveDir,
	}
}

// Run starts the game loop: enter the current scene, then loop over
// prompt, input, and dispatch until EOF or /quit.
func (c *CLI) Run() error {
	rm, err := c.Runtime.EnterScene(c.State, c.State.CurrentSceneID)
	if err != nil {
		return err
	}
	c.show(rm)

	scanner := bufio.NewScanner(c.In)
	for {
		c.print("> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		// Skip comment lines (for script files).
		if strings.HasPrefix(input, "#") {
			continue
		}
		if c.EchoInput {
			c.printLine(input)
		}

		// Meta-commands start with '/'.
		if strings.HasPrefix(input, "/") {
			if c.handleMeta(input) {
				return nil // /quit
			}
			continue
		}

		c.dispatch(input)
	}
	return scanner.Err()
}

// dispatch interprets a game input: a choice number, or look.
func (c *CLI) dispatch(input string) {
	lower := strings.ToLower(input)
	if lower == "look" || lower == "l" {
		rm, err := c.Runtime.GetRenderModel(c.State)
		if err != nil {
			c.printSystem(fmt.Sprintf("Error: %v", err))
			return
		}
		c.show(rm)
		return
	}

	n, err := strconv.Atoi(input)
	if err != nil {
		c.printSystem("Enter a choice number, or /help for commands.")
		return
	}
	c.choose(n)
}

// choose selects the nth offered choice: exits come first, actions after.
func (c *CLI) choose(n int) {
	if c.current == nil {
		c.printSystem("Nothing to choose from.")
		return
	}
	exits := c.current.AvailableExits
	actions := c.current.AvailableActions
	if n < 1 || n > len(exits)+len(actions) {
		c.printSystem(fmt.Sprintf("Choice %d is not on offer.", n))
		return
	}

	var rm *engine.RenderModel
	var err error
	if n <= len(exits) {
		rm, err = c.Runtime.SelectExitRef(c.State, &exits[n-1])
	} else {
		rm, err = c.Runtime.SelectAction(c.State, actions[n-1-len(exits)].ID)
	}
	if err != nil {
		c.printSystem(fmt.Sprintf("Error: %v", err))
		return
	}
	c.show(rm)
}

// show prints a render model: recent narrative, scene narrative, then
// the numbered choices.
func (c *CLI) show(rm *engine.RenderModel) {
	c.current = rm

	for _, line := range rm.RecentNarrative {
		c.printLine(line)
		c.printLine("")
	}
	if rm.NarrativeText != "" {
		c.printLine(rm.NarrativeText)
	}

	n := 0
	if len(rm.AvailableExits) > 0 || len(rm.AvailableActions) > 0 {
		c.printLine("")
	}
	for _, exit := range rm.AvailableExits {
		n++
		c.printLine(fmt.Sprintf("  %d) %s", n, exit.Label))
	}
	for _, action := range rm.AvailableActions {
		n++
		c.printLine(fmt.Sprintf("  %d) %s", n, action.Label))
	}
	if n == 0 {
		c.printSystem("The story ends here.")
	}
}

// handleMeta dispatches meta-commands. Returns true if the game should exit.
func (c *CLI) handleMeta(input string) bool {
	parts := strings.Fields(input)
	cmd := parts[0]
	var arg string
	if len(parts) > 1 {
		arg = parts[1]
	}

	switch cmd {
	case "/quit", "/exit":
		c.printSystem("Goodbye.")
		return true

	case "/save":
		c.cmdSave(arg)

	case "/load":
		c.cmdLoad(arg)

	case "/help":
		c.cmdHelp()

	case "/state":
		c.cmdState()

	default:
		c.printSystem(fmt.Sprintf("Unknown command: %s. Type /help for available commands.", cmd))
	}

	return false
}

func (c *CLI) cmdSave(name string) {
	if name == "" {
		name = "quicksave"
	}

	data, err := save.Save(c.State, c.RNG)
	if err != nil {
		c.printSystem(fmt.Sprintf("Save failed: %v", err))
		return
	}

	if err := os.MkdirAll(c.SaveDir, 0o755); err != nil {
		c.printSystem(fmt.Sprintf("Save failed: %v", err))
		return
	}

	path := filepath.Join(c.SaveDir, name+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		c.printSystem(fmt.Sprintf("Save failed: %v", err))
		return
	}

	c.printSystem(fmt.Sprintf("Game saved to %s.", name))
}

func (c *CLI) cmdLoad(name string) {
	if name == "" {
		name = "quicksave"
	}

	path := filepath.Join(c.SaveDir, name+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		c.printSystem(fmt.Sprintf("Load failed: %v", err))
		return
	}

	if seed, position, ok := save.RNGState(data); ok && c.RNG != nil {
		c.RNG.Restore(seed, position)
	}

	result, err := save.Load(c.Runtime, data, save.Options{})
	if err != nil {
		c.printSystem(fmt.Sprintf("Load failed: %v", err))
		return
	}
	for _, warning := range result.Warnings {
		fmt.Fprintf(c.Err, "warning: %s: %s\n", warning.Path, warning.Message)
	}

	c.State = result.State
	c.printSystem(fmt.Sprintf("Game loaded from %s.", name))

	rm, err := c.Runtime.GetRenderModel(c.State)
	if err != nil {
		c.printSystem(fmt.Sprintf("Error: %v", err))
		return
	}
	c.show(rm)
}

func (c *CLI) cmdHelp() {
	help := []string{
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
	}
	for _, line := range help {
		c.printLine(line)
	}
}

func (c *CLI) cmdState() {
	s := c.State
	c.printSystem(fmt.Sprintf("Scene: %s", s.CurrentSceneID))
	if s.CurrentLocationID != "" {
		c.printSystem(fmt.Sprintf("Location: %s", s.CurrentLocationID))
	}
	c.printSystem(fmt.Sprintf("Character: %s", s.Character.Name))
	if len(s.Character.Stats) > 0 {
		c.printSystem(fmt.Sprintf("Stats: %v", s.Character.Stats))
	}
	if len(s.Character.Inventory) > 0 {
		var items []string
		for _, entry := range s.Character.Inventory {
			items = append(items, fmt.Sprintf("%s x%d", entry.Item.Name, entry.Count))
		}
		c.printSystem(fmt.Sprintf("Inventory: %s", strings.Join(items, ", ")))
	}
	if len(s.Flags) > 0 {
		c.printSystem(fmt.Sprintf("Flags: %v", s.Flags))
	}
	if len(s.Vars) > 0 {
		c.printSystem(fmt.Sprintf("Vars: %v", s.Vars))
	}
	c.printSystem(fmt.Sprintf("History: %d events", len(s.History)))
}

func (c *CLI) printLine(text string) {
	fmt.Fprintln(c.Out, text)
}

func (c *CLI) print(text string) {
	fmt.Fprint(c.Out, text)
}

func (c *CLI) printSystem(text string) {
	fmt.Fprintf(c.Out, "[%s]\n", text)
}
