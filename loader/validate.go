package loader

import (
	"fmt"
	"strings"

	"github.com/nathoo/storyloom/engine/expr"
	"github.com/nathoo/storyloom/types"
)

// ValidationError aggregates the error-severity findings that make a
// bundle set unusable.
type ValidationError struct {
	Issues []types.Issue
}

func (e *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("validation failed with %d error(s):", len(e.Issues)))
	for _, issue := range e.Issues {
		sb.WriteString("\n  ")
		sb.WriteString(issue.Path)
		sb.WriteString(": ")
		sb.WriteString(issue.Message)
	}
	return sb.String()
}

// validator accumulates findings while walking a bundle set.
type validator struct {
	issues []types.Issue
}

func (v *validator) errorf(path, format string, args ...any) {
	v.issues = append(v.issues, types.Issue{
		Path:     path,
		Message:  fmt.Sprintf(format, args...),
		Severity: types.SeverityError,
	})
}

func (v *validator) warnf(path, format string, args ...any) {
	v.issues = append(v.issues, types.Issue{
		Path:     path,
		Message:  fmt.Sprintf(format, args...),
		Severity: types.SeverityWarning,
	})
}

func (v *validator) requireString(value, path string) {
	if strings.TrimSpace(value) == "" {
		v.errorf(path, "expected non-empty string")
	}
}

// warnOnExpression records a warning when an expression condition fails
// to parse. Broken expressions degrade to false at runtime, so this is
// never an error.
func (v *validator) warnOnExpression(cond *types.Condition, path string) {
	if cond == nil || cond.Type != types.CondExpression {
		return
	}
	if err := expr.Validate(cond.Expr); err != nil {
		v.warnf(path, "expression parse warning: %v", err)
	}
}

// loreIndex collects lore entity ids per category for cross-referencing.
type loreIndex struct {
	byCategory map[string]map[string]bool
}

func buildLoreIndex(bundles []*types.LoreBundle) loreIndex {
	idx := loreIndex{byCategory: map[string]map[string]bool{
		"race": {}, "faction": {}, "deity": {}, "trait": {},
		"location": {}, "item": {}, "event": {},
	}}
	for _, bundle := range bundles {
		for _, race := range bundle.Races {
			idx.byCategory["race"][race.ID] = true
		}
		for _, faction := range bundle.Factions {
			idx.byCategory["faction"][faction.ID] = true
		}
		for _, deity := range bundle.Deities {
			idx.byCategory["deity"][deity.ID] = true
		}
		for _, trait := range bundle.Traits {
			idx.byCategory["trait"][trait.ID] = true
		}
		for _, loc := range bundle.Locations {
			idx.byCategory["location"][loc.ID] = true
		}
		for _, item := range bundle.Items {
			idx.byCategory["item"][item.ID] = true
		}
		for _, event := range bundle.History {
			idx.byCategory["event"][event.ID] = true
		}
	}
	return idx
}

// resolves reports whether a lore reference points at a loaded entity.
// The other category is a free-form escape hatch and always resolves.
func (idx loreIndex) resolves(ref types.LoreRef) bool {
	if ref.Type == "other" {
		return true
	}
	ids, ok := idx.byCategory[ref.Type]
	if !ok {
		return false
	}
	return ids[ref.ID]
}

// Validate checks a story bundle and its lore bundles for structural
// integrity. Duplicate ids and dangling scene references are errors;
// unresolved lore references, unknown location ids, missing assets, and
// unparseable condition expressions are warnings.
func Validate(story *types.StoryBundle, lore []*types.LoreBundle) []types.Issue {
	v := &validator{}

	v.requireString(story.ID, "/id")
	v.requireString(story.Version, "/version")
	v.requireString(story.Name, "/name")
	if story.World.Locations == nil {
		v.errorf("/world/locations", "expected locations array")
	}
	if story.Story.Scenes == nil {
		v.errorf("/story/scenes", "expected scenes array")
	}
	if strings.TrimSpace(story.Story.StartScene) == "" {
		v.errorf("/story/startScene", "expected startScene id")
	}
	if story.RuleModules == nil {
		v.errorf("/ruleModules", "expected ruleModules array")
	}

	sceneIDs := map[string]bool{}
	for i, scene := range story.Story.Scenes {
		v.requireString(scene.ID, fmt.Sprintf("/story/scenes/%d/id", i))
		if sceneIDs[scene.ID] {
			v.errorf(fmt.Sprintf("/story/scenes/%d/id", i), "duplicate scene id %s", scene.ID)
		}
		sceneIDs[scene.ID] = true
	}

	locationIDs := map[string]bool{}
	for i, loc := range story.World.Locations {
		path := fmt.Sprintf("/world/locations/%d", i)
		v.requireString(loc.ID, path+"/id")
		if locationIDs[loc.ID] {
			v.errorf(path+"/id", "duplicate location id %s", loc.ID)
		}
		locationIDs[loc.ID] = true

		if !sceneIDs[loc.EntryScene] {
			v.errorf(path+"/entryScene", "location entryScene %s not found", loc.EntryScene)
		}
		v.validateLayout(loc.Layout, sceneIDs, path+"/layout")
	}

	if start := story.Story.StartScene; start != "" && !sceneIDs[start] {
		v.errorf("/story/startScene", "start scene %s not found", start)
	}

	assetIDs := map[string]bool{}
	for i, asset := range story.Assets {
		if assetIDs[asset.ID] {
			v.errorf(fmt.Sprintf("/assets/%d/id", i), "duplicate asset id %s", asset.ID)
		}
		assetIDs[asset.ID] = true
	}

	loreIdx := buildLoreIndex(lore)
	for i := range story.Story.Scenes {
		v.validateScene(&story.Story.Scenes[i], sceneIDs, locationIDs, assetIDs, loreIdx,
			fmt.Sprintf("/story/scenes/%d", i))
	}

	for i, loc := range story.World.Locations {
		if loc.Layout == nil {
			continue
		}
		for j, conn := range loc.Layout.Connections {
			v.warnOnExpression(conn.LockedBy,
				fmt.Sprintf("/world/locations/%d/layout/connections/%d/lockedBy", i, j))
		}
	}
	if graph := story.World.SpatialGraph; graph != nil {
		for i, edge := range graph.Edges {
			v.warnOnExpression(edge.Condition, fmt.Sprintf("/world/spatialGraph/edges/%d/condition", i))
		}
	}

	return v.issues
}

func (v *validator) validateLayout(layout *types.LocationLayout, sceneIDs map[string]bool, path string) {
	if layout == nil {
		return
	}
	nodeIDs := map[string]bool{}
	for i, node := range layout.Nodes {
		if nodeIDs[node.ID] {
			v.errorf(fmt.Sprintf("%s/nodes/%d/id", path, i), "duplicate layout node id %s", node.ID)
		}
		nodeIDs[node.ID] = true
		if !sceneIDs[node.SceneID] {
			v.errorf(fmt.Sprintf("%s/nodes/%d/sceneId", path, i), "layout node sceneId %s not found", node.SceneID)
		}
	}
	for i, conn := range layout.Connections {
		if !nodeIDs[conn.From] {
			v.errorf(fmt.Sprintf("%s/connections/%d/from", path, i), "layout connection from %s not found", conn.From)
		}
		if !nodeIDs[conn.To] {
			v.errorf(fmt.Sprintf("%s/connections/%d/to", path, i), "layout connection to %s not found", conn.To)
		}
	}
}

func (v *validator) validateScene(scene *types.Scene, sceneIDs, locationIDs, assetIDs map[string]bool, loreIdx loreIndex, path string) {
	if scene.LocationID != "" && !locationIDs[scene.LocationID] {
		v.warnf(path+"/locationId", "scene locationId %s not found", scene.LocationID)
	}

	for i, variant := range scene.Narrative.Text.Variants {
		v.warnOnExpression(variant.Condition, fmt.Sprintf("%s/narrative/text/%d/condition", path, i))
	}
	for i, ref := range scene.Narrative.LoreRefs {
		if !loreIdx.resolves(ref) {
			v.warnf(fmt.Sprintf("%s/narrative/loreRefs/%d", path, i),
				"lore ref %s:%s does not resolve", ref.Type, ref.ID)
		}
	}

	for i, ref := range collectAssetRefs(scene.Ambience) {
		if !assetIDs[ref.ID] {
			v.warnf(fmt.Sprintf("%s/ambience/%d", path, i),
				"asset ref %s not found in story assets", ref.ID)
		}
	}

	for i, exit := range scene.Exits {
		if !sceneIDs[exit.TargetScene] {
			v.errorf(fmt.Sprintf("%s/exits/%d/targetScene", path, i),
				"exit targetScene %s not found", exit.TargetScene)
		}
		v.warnOnExpression(exit.Condition, fmt.Sprintf("%s/exits/%d/condition", path, i))
	}

	for i, action := range scene.Actions {
		actionPath := fmt.Sprintf("%s/actions/%d", path, i)
		v.warnOnExpression(action.Condition, actionPath+"/condition")
		for j, eff := range action.Effects {
			if eff.Type == types.EffTeleport && !sceneIDs[eff.TargetScene] {
				v.errorf(fmt.Sprintf("%s/effects/%d/targetScene", actionPath, j),
					"teleport targetScene %s not found", eff.TargetScene)
			}
		}
	}
}

func collectAssetRefs(ambience *types.AmbienceBlock) []types.AssetRef {
	if ambience == nil {
		return nil
	}
	var refs []types.AssetRef
	if ambience.Soundscape != nil {
		refs = append(refs, *ambience.Soundscape)
	}
	if ambience.Music != nil {
		refs = append(refs, *ambience.Music)
	}
	refs = append(refs, ambience.Imagery...)
	if ambience.Voice != nil && ambience.Voice.NarrationAsset != nil {
		refs = append(refs, *ambience.Voice.NarrationAsset)
	}
	return refs
}
