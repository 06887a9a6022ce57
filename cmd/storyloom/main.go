// Storyloom is a deterministic runtime for data-driven narrative games.
// Usage: storyloom [--version] [--plain] [--seed <n>] [--locale <tag>]
// [--rules <file.lua>] [--script <file>] <story.json|yaml> [lore...]
package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/nathoo/storyloom/cli"
	"github.com/nathoo/storyloom/config"
	"github.com/nathoo/storyloom/engine"
	"github.com/nathoo/storyloom/loader"
	"github.com/nathoo/storyloom/rules"
	"github.com/nathoo/storyloom/tui"
	"github.com/nathoo/storyloom/types"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const usage = "Usage: storyloom [--version] [--plain] [--seed <n>] [--locale <tag>] [--rules <file.lua>] [--script <file>] <story.json|yaml> [lore...]"

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	plain := cfg.Plain
	seed := cfg.Seed
	locale := cfg.Locale
	var storyPath string
	var lorePaths []string
	var rulesFile string
	var scriptFile string

	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--version":
			fmt.Printf("storyloom %s (commit %s, built %s)\n", version, commit, date)
			return
		case "--plain":
			plain = true
		case "--seed":
			if i+1 >= len(args) {
				fmt.Fprintf(os.Stderr, "--seed requires a number\n")
				os.Exit(1)
			}
			i++
			if _, err := fmt.Sscan(args[i], &seed); err != nil {
				fmt.Fprintf(os.Stderr, "--seed: %v\n", err)
				os.Exit(1)
			}
		case "--locale":
			if i+1 >= len(args) {
				fmt.Fprintf(os.Stderr, "--locale requires a language tag\n")
				os.Exit(1)
			}
			i++
			locale = args[i]
		case "--rules":
			if i+1 >= len(args) {
				fmt.Fprintf(os.Stderr, "--rules requires a file path\n")
				os.Exit(1)
			}
			i++
			rulesFile = args[i]
		case "--script":
			if i+1 >= len(args) {
				fmt.Fprintf(os.Stderr, "--script requires a file path\n")
				os.Exit(1)
			}
			i++
			scriptFile = args[i]
		default:
			if storyPath == "" {
				storyPath = args[i]
			} else {
				lorePaths = append(lorePaths, args[i])
			}
		}
	}

	if storyPath == "" {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(1)
	}

	story, lore, warnings, err := loader.Load(storyPath, lorePaths...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading story: %v\n", err)
		os.Exit(1)
	}
	printIssues(warnings)

	modules := []rules.Module{rules.NewCoreModule(), rules.NewDiceModule()}
	if rulesFile != "" {
		source, err := os.ReadFile(rulesFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading rules: %v\n", err)
			os.Exit(1)
		}
		scripted, err := rules.NewScriptModule(string(source))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading rules: %v\n", err)
			os.Exit(1)
		}
		defer scripted.Close()
		modules = append(modules, scripted)
	}

	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := engine.NewRNG(seed)

	rt, err := engine.NewRuntime(engine.Config{
		Story:       story,
		LoreBundles: lore,
		Modules:     modules,
		RNG:         rng,
		Locale:      locale,
		OnWarning: func(issue types.Issue) {
			fmt.Fprintf(os.Stderr, "%s: %s: %s\n", issue.Severity, issue.Path, issue.Message)
		},
	})
	if err != nil {
		var initErr *engine.InitError
		if errors.As(err, &initErr) {
			printIssues(initErr.Issues)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	state := rt.NewGame(nil)

	// Script mode: open file, force plain, echo commands.
	if scriptFile != "" {
		f, err := os.Open(scriptFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening script: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		fmt.Printf("%s v%s\n\n", story.Name, story.Version)
		c := cli.New(rt, state, rng, cfg.SaveDir)
		c.In = f
		c.EchoInput = true
		c.Run()
		return
	}

	// Use plain CLI if --plain flag or stdout is not a terminal.
	if plain || !isTerminal() {
		fmt.Printf("%s v%s\n\n", story.Name, story.Version)
		c := cli.New(rt, state, rng, cfg.SaveDir)
		c.Run()
		return
	}

	if err := tui.Run(rt, state, rng, cfg.SaveDir); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printIssues(issues []types.Issue) {
	for _, issue := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", issue.Severity, issue.Path, issue.Message)
	}
}

// isTerminal returns true if stdout is a terminal (not piped/redirected).
func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
