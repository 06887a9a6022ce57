// Package engine implements the rule-evaluation and scene-transition
// runtime: condition evaluation, narrative resolution, rule-hook dispatch,
// and the state machine that moves a game state between scenes.
package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/nathoo/storyloom/rules"
	"github.com/nathoo/storyloom/types"
)

// ConditionMode selects who answers conditions the engine cannot.
type ConditionMode string

const (
	// ConditionEngine evaluates conditions in the engine only; unknown
	// condition types are false.
	ConditionEngine ConditionMode = "engine"
	// ConditionEngineModules falls back to registered rule modules for
	// unknown condition types and failed expressions.
	ConditionEngineModules ConditionMode = "engine+modules"
)

// DefaultMaxTeleportHops bounds teleport chains during scene entry. A
// bundle whose entry rules teleport in a cycle would otherwise never
// terminate.
const DefaultMaxTeleportHops = 64

// Features enables the optional state subsystems. Disabled features leave
// their GameState maps nil.
type Features struct {
	LoreRevealStates bool
	Companions       bool
	Relationships    bool
	Sessions         bool
}

// Config assembles a Runtime.
type Config struct {
	Story       *types.StoryBundle
	LoreBundles []*types.LoreBundle
	Modules     []rules.Module

	// RNG defaults to a time-seeded generator. Pass a seeded one for
	// reproducible runs.
	RNG    rules.RNG
	Locale string

	ConditionMode ConditionMode
	Features      Features

	// MaxTeleportHops defaults to DefaultMaxTeleportHops when zero.
	MaxTeleportHops int

	// OnWarning receives each runtime warning as it is recorded, in
	// addition to the accumulated Warnings slice.
	OnWarning func(types.Issue)
}

// InitError aggregates the construction issues that made a runtime
// unusable.
type InitError struct {
	Issues []types.Issue
}

func (e *InitError) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("runtime initialization failed with %d error(s):", len(e.Issues)))
	for _, issue := range e.Issues {
		sb.WriteString("\n  ")
		sb.WriteString(issue.Path)
		sb.WriteString(": ")
		sb.WriteString(issue.Message)
	}
	return sb.String()
}

// loreIndex holds per-category lookup maps across all lore bundles.
type loreIndex struct {
	raceByID     map[string]types.Race
	factionByID  map[string]types.Faction
	deityByID    map[string]types.Deity
	traitByID    map[string]types.Trait
	locationByID map[string]types.LoreLocation
	itemByID     map[string]types.LoreItem
	eventByID    map[string]types.LoreEvent
}

// Runtime is the engine context for one story bundle: precomputed indices,
// the module registry, and the RNG. It is read-only after construction
// (apart from the warning log) and may be shared across sessions; each
// GameState must be driven by one turn at a time.
type Runtime struct {
	story    *types.StoryBundle
	lore     []*types.LoreBundle
	registry *rules.Registry
	rng      rules.RNG
	locale   string
	mode     ConditionMode
	features Features
	maxHops  int

	sceneByID    map[string]*types.Scene
	locationByID map[string]*types.Location
	assetByID    map[string]*types.Asset
	loreIdx      loreIndex

	onWarning func(types.Issue)
	warnings  []types.Issue
}

// NewRuntime builds a runtime from a validated story bundle. Rule-module
// references that cannot be satisfied make construction fail with an
// *InitError; the caller should run bundle validation beforehand.
func NewRuntime(cfg Config) (*Runtime, error) {
	if cfg.Story == nil {
		return nil, fmt.Errorf("story bundle is required")
	}

	registry, issues := rules.NewRegistry(cfg.Story.RuleModules, cfg.Modules)
	var fatal []types.Issue
	for _, issue := range issues {
		if issue.Severity == types.SeverityError {
			fatal = append(fatal, issue)
		}
	}
	if len(fatal) > 0 {
		return nil, &InitError{Issues: fatal}
	}

	rng := cfg.RNG
	if rng == nil {
		rng = NewRNG(time.Now().UnixNano())
	}
	mode := cfg.ConditionMode
	if mode == "" {
		mode = ConditionEngine
	}
	maxHops := cfg.MaxTeleportHops
	if maxHops <= 0 {
		maxHops = DefaultMaxTeleportHops
	}

	r := &Runtime{
		story:     cfg.Story,
		lore:      cfg.LoreBundles,
		registry:  registry,
		rng:       rng,
		locale:    cfg.Locale,
		mode:      mode,
		features:  cfg.Features,
		maxHops:   maxHops,
		onWarning: cfg.OnWarning,
	}
	r.buildIndex()

	for _, issue := range issues {
		r.recordWarning(issue)
	}

	return r, nil
}

// buildIndex precomputes the scene, location, asset, and lore lookup maps.
// Indices are never rebuilt; the bundle is immutable for the runtime's
// lifetime.
func (r *Runtime) buildIndex() {
	r.sceneByID = make(map[string]*types.Scene, len(r.story.Story.Scenes))
	for i := range r.story.Story.Scenes {
		scene := &r.story.Story.Scenes[i]
		r.sceneByID[scene.ID] = scene
	}

	r.locationByID = make(map[string]*types.Location, len(r.story.World.Locations))
	for i := range r.story.World.Locations {
		loc := &r.story.World.Locations[i]
		r.locationByID[loc.ID] = loc
	}

	r.assetByID = make(map[string]*types.Asset, len(r.story.Assets))
	for i := range r.story.Assets {
		asset := &r.story.Assets[i]
		r.assetByID[asset.ID] = asset
	}

	r.loreIdx = loreIndex{
		raceByID:     map[string]types.Race{},
		factionByID:  map[string]types.Faction{},
		deityByID:    map[string]types.Deity{},
		traitByID:    map[string]types.Trait{},
		locationByID: map[string]types.LoreLocation{},
		itemByID:     map[string]types.LoreItem{},
		eventByID:    map[string]types.LoreEvent{},
	}
	for _, bundle := range r.lore {
		for _, race := range bundle.Races {
			r.loreIdx.raceByID[race.ID] = race
		}
		for _, faction := range bundle.Factions {
			r.loreIdx.factionByID[faction.ID] = faction
		}
		for _, deity := range bundle.Deities {
			r.loreIdx.deityByID[deity.ID] = deity
		}
		for _, trait := range bundle.Traits {
			r.loreIdx.traitByID[trait.ID] = trait
		}
		for _, loc := range bundle.Locations {
			r.loreIdx.locationByID[loc.ID] = loc
		}
		for _, item := range bundle.Items {
			r.loreIdx.itemByID[item.ID] = item
		}
		for _, event := range bundle.History {
			r.loreIdx.eventByID[event.ID] = event
		}
	}
}

// Story returns the runtime's story bundle.
func (r *Runtime) Story() *types.StoryBundle {
	return r.story
}

// Scene returns an indexed scene by id.
func (r *Runtime) Scene(id string) (*types.Scene, bool) {
	scene, ok := r.sceneByID[id]
	return scene, ok
}

// Location returns an indexed world location by id.
func (r *Runtime) Location(id string) (*types.Location, bool) {
	loc, ok := r.locationByID[id]
	return loc, ok
}

// Asset returns an indexed asset by id.
func (r *Runtime) Asset(id string) (*types.Asset, bool) {
	asset, ok := r.assetByID[id]
	return asset, ok
}

// Warnings returns every warning recorded since construction.
func (r *Runtime) Warnings() []types.Issue {
	return r.warnings
}

func (r *Runtime) recordWarning(issue types.Issue) {
	r.warnings = append(r.warnings, issue)
	if r.onWarning != nil {
		r.onWarning(issue)
	}
}

func (r *Runtime) evalCtx(s *types.GameState) rules.EvalContext {
	return rules.EvalContext{
		SceneID:    s.CurrentSceneID,
		LocationID: s.CurrentLocationID,
	}
}
