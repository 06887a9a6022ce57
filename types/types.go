// Package types defines the shared data structures for the Storyloom engine.
// This package contains only type definitions and their JSON encodings,
// no engine logic.
package types

// Severity classifies a validation issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is a single validation finding, addressed by a JSON-pointer-ish path.
type Issue struct {
	Path     string   `json:"path"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// StoryBundle is the immutable, externally supplied story definition:
// scene graph, world, rule-module references, and optional assets.
type StoryBundle struct {
	ID            string          `json:"id"`
	Version       string          `json:"version"`
	SchemaVersion string          `json:"schemaVersion,omitempty"`
	Name          string          `json:"name"`
	Description   string          `json:"description,omitempty"`
	LoreRefs      []LoreBundleRef `json:"loreRefs,omitempty"`
	World         WorldDefinition `json:"world"`
	Story         StoryGraph      `json:"story"`
	RuleModules   []RuleModuleRef `json:"ruleModules"`
	Assets        []Asset         `json:"assets,omitempty"`
	Metadata      *BundleMetadata `json:"metadata,omitempty"`
}

// LoreBundleRef links a story bundle to a lore pack by id.
type LoreBundleRef struct {
	ID string `json:"id"`
}

// BundleMetadata holds authoring metadata carried alongside a bundle.
type BundleMetadata struct {
	Author        string   `json:"author,omitempty"`
	License       string   `json:"license,omitempty"`
	CreatedAt     string   `json:"createdAt,omitempty"`
	UpdatedAt     string   `json:"updatedAt,omitempty"`
	Themes        []string `json:"themes,omitempty"`
	ContentRating string   `json:"contentRating,omitempty"`
}

// StoryGraph is the scene graph plus its designated starting scene.
type StoryGraph struct {
	Scenes     []Scene `json:"scenes"`
	StartScene string  `json:"startScene"`
}

// Scene is a node in the story graph: the unit of narrative presented
// to the player.
type Scene struct {
	ID         string         `json:"id"`
	Title      string         `json:"title,omitempty"`
	Narrative  NarrativeBlock `json:"narrative"`
	Ambience   *AmbienceBlock `json:"ambience,omitempty"`
	Exits      []Exit         `json:"exits,omitempty"`
	Actions    []Action       `json:"actions,omitempty"`
	EntryRules []RuleHook     `json:"entryRules,omitempty"`
	ExitRules  []RuleHook     `json:"exitRules,omitempty"`
	Tags       []string       `json:"tags,omitempty"`
	LocationID string         `json:"locationId,omitempty"`
}

// NarrativeBlock is a scene's narrative text plus authoring hints.
type NarrativeBlock struct {
	Text        NarrativeText `json:"text"`
	POV         string        `json:"pov,omitempty"`
	Tone        string        `json:"tone,omitempty"`
	LoreRefs    []LoreRef     `json:"loreRefs,omitempty"`
	AuthorNotes string        `json:"authorNotes,omitempty"`
}

// LoreRef points at a lore entity by category and id.
type LoreRef struct {
	Type string `json:"type"` // race, faction, deity, trait, location, item, event, other
	ID   string `json:"id"`
	Note string `json:"note,omitempty"`
}

// Exit is a labeled edge to a target scene, optionally condition-gated.
type Exit struct {
	Label       string        `json:"label"`
	TargetScene string        `json:"targetScene"`
	Condition   *Condition    `json:"condition,omitempty"`
	TravelText  NarrativeText `json:"travelText,omitzero"`
}

// Action is an in-scene player choice with optional effects and rule hooks.
type Action struct {
	ID        string     `json:"id"`
	Label     string     `json:"label"`
	Condition *Condition `json:"condition,omitempty"`
	Effects   []Effect   `json:"effects,omitempty"`
	RuleHooks []RuleHook `json:"ruleHooks,omitempty"`
	Category  string     `json:"category,omitempty"`
}

// WorldDefinition holds the story's locations and optional macro structure.
type WorldDefinition struct {
	ID           string                `json:"id,omitempty"`
	Name         string                `json:"name,omitempty"`
	Description  string                `json:"description,omitempty"`
	Regions      []Region              `json:"regions,omitempty"`
	Locations    []Location            `json:"locations"`
	Companions   []CompanionDefinition `json:"companions,omitempty"`
	SpatialGraph *SpatialGraph         `json:"spatialGraph,omitempty"`
}

// Region groups locations for macro navigation and theming.
type Region struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Climate     string   `json:"climate,omitempty"`
	Themes      []string `json:"themes,omitempty"`
	LocationIDs []string `json:"locationIds,omitempty"`
}

// Location is a navigable place in the world, entered through entryScene.
type Location struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Type           string          `json:"type"` // town, dungeon, wilderness, interior, other
	Description    string          `json:"description,omitempty"`
	EntryScene     string          `json:"entryScene"`
	SceneIDs       []string        `json:"sceneIds,omitempty"`
	Layout         *LocationLayout `json:"layout,omitempty"`
	LoreLocationID string          `json:"loreLocationId,omitempty"`
	Tags           []string        `json:"tags,omitempty"`
}

// LocationLayout describes intra-location navigation intent.
type LocationLayout struct {
	LayoutType  string             `json:"layoutType"` // nodeGraph, grid, abstract
	Nodes       []LayoutNode       `json:"nodes,omitempty"`
	Connections []LayoutConnection `json:"connections,omitempty"`
	Grid        *GridLayout        `json:"grid,omitempty"`
}

// LayoutNode binds a layout position to a scene.
type LayoutNode struct {
	ID      string   `json:"id"`
	SceneID string   `json:"sceneId"`
	Tags    []string `json:"tags,omitempty"`
	Label   string   `json:"label,omitempty"`
}

// LayoutConnection is a traversable edge between layout nodes.
type LayoutConnection struct {
	From      string     `json:"from"`
	To        string     `json:"to"`
	Direction string     `json:"direction,omitempty"`
	LockedBy  *Condition `json:"lockedBy,omitempty"`
	Label     string     `json:"label,omitempty"`
}

// GridLayout is a sparse tile map keyed by "x,y".
type GridLayout struct {
	Width  int                 `json:"width"`
	Height int                 `json:"height"`
	Tiles  map[string]GridTile `json:"tiles"`
}

// GridTile places a scene on a grid cell.
type GridTile struct {
	SceneID  string   `json:"sceneId"`
	Walkable bool     `json:"walkable,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

// SpatialGraph is an optional macro navigation graph between regions,
// locations, and landmarks.
type SpatialGraph struct {
	Nodes []SpatialNode `json:"nodes"`
	Edges []SpatialEdge `json:"edges"`
}

// SpatialNode is a point in the macro navigation graph.
type SpatialNode struct {
	ID    string   `json:"id"`
	Type  string   `json:"type"` // region, location, landmark
	RefID string   `json:"refId,omitempty"`
	Name  string   `json:"name,omitempty"`
	Tags  []string `json:"tags,omitempty"`
}

// SpatialEdge connects two spatial nodes, optionally condition-gated.
type SpatialEdge struct {
	From       string     `json:"from"`
	To         string     `json:"to"`
	TravelMode string     `json:"travelMode,omitempty"`
	Distance   float64    `json:"distance,omitempty"`
	Condition  *Condition `json:"condition,omitempty"`
}

// Asset is a media file shipped with a story bundle.
type Asset struct {
	ID         string   `json:"id"`
	Type       string   `json:"type"` // image, audio, voice, other
	Path       string   `json:"path"`
	MimeType   string   `json:"mimeType,omitempty"`
	DurationMs float64  `json:"durationMs,omitempty"`
	Width      int      `json:"width,omitempty"`
	Height     int      `json:"height,omitempty"`
	Tags       []string `json:"tags,omitempty"`
}

// AssetRef names an asset by id, optionally with a remote URI.
type AssetRef struct {
	ID  string `json:"id"`
	URI string `json:"uri,omitempty"`
}

// VoiceSpec describes narration voicing for a scene.
type VoiceSpec struct {
	Mode           string    `json:"mode"` // none, partial, full
	NarrationAsset *AssetRef `json:"narrationAsset,omitempty"`
	VoiceID        string    `json:"voiceId,omitempty"`
	Scope          string    `json:"scope,omitempty"`
}

// AmbienceBlock bundles a scene's presentation hints.
type AmbienceBlock struct {
	Soundscape *AssetRef  `json:"soundscape,omitempty"`
	Music      *AssetRef  `json:"music,omitempty"`
	Imagery    []AssetRef `json:"imagery,omitempty"`
	Voice      *VoiceSpec `json:"voice,omitempty"`
	Lighting   string     `json:"lighting,omitempty"`
	Mood       string     `json:"mood,omitempty"`
}

// LoreBundle is read-only world canon cross-referenced by the engine.
type LoreBundle struct {
	ID            string          `json:"id"`
	Version       string          `json:"version"`
	SchemaVersion string          `json:"schemaVersion,omitempty"`
	Name          string          `json:"name"`
	Description   string          `json:"description,omitempty"`
	Races         []Race          `json:"races,omitempty"`
	Factions      []Faction       `json:"factions,omitempty"`
	Deities       []Deity         `json:"deities,omitempty"`
	Traits        []Trait         `json:"traits,omitempty"`
	Locations     []LoreLocation  `json:"locations,omitempty"`
	Items         []LoreItem      `json:"items,omitempty"`
	History       []LoreEvent     `json:"history,omitempty"`
	Tags          []string        `json:"tags,omitempty"`
	Metadata      *BundleMetadata `json:"metadata,omitempty"`
}

// Trait is a named lore trait.
type Trait struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Race is a playable or non-playable people in the lore canon.
type Race struct {
	ID            string             `json:"id"`
	Name          string             `json:"name"`
	Description   string             `json:"description"`
	Culture       string             `json:"culture,omitempty"`
	Physiology    string             `json:"physiology,omitempty"`
	Playable      bool               `json:"playable"`
	TraitIDs      []string           `json:"traitIds,omitempty"`
	StatModifiers map[string]float64 `json:"statModifiers,omitempty"`
	Tags          []string           `json:"tags,omitempty"`
}

// FactionRelationship is one faction's stance toward another.
type FactionRelationship struct {
	FactionID string `json:"factionId"`
	Stance    string `json:"stance"` // ally, enemy, neutral, unknown
	Note      string `json:"note,omitempty"`
}

// Faction is an organized group in the lore canon.
type Faction struct {
	ID            string                `json:"id"`
	Name          string                `json:"name"`
	Description   string                `json:"description"`
	Ideology      string                `json:"ideology,omitempty"`
	Alignment     string                `json:"alignment,omitempty"`
	Goals         []string              `json:"goals,omitempty"`
	Relationships []FactionRelationship `json:"relationships,omitempty"`
	Tags          []string              `json:"tags,omitempty"`
}

// Deity is a worshipped power in the lore canon.
type Deity struct {
	ID                   string   `json:"id"`
	Name                 string   `json:"name"`
	Domains              []string `json:"domains"`
	Alignment            string   `json:"alignment,omitempty"`
	WorshipperFactionIDs []string `json:"worshipperFactionIds,omitempty"`
	Tags                 []string `json:"tags,omitempty"`
}

// LoreLocation is an abstract canon location, not runtime navigation.
type LoreLocation struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Region      string   `json:"region,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// LoreItem is a canon item definition.
type LoreItem struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Rarity      string   `json:"rarity,omitempty"`
	Myth        string   `json:"myth,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// LoreEvent is a historical canon event.
type LoreEvent struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	Description       string   `json:"description"`
	Era               string   `json:"era,omitempty"`
	RelatedFactionIDs []string `json:"relatedFactionIds,omitempty"`
	Tags              []string `json:"tags,omitempty"`
}

// Item is a concrete inventory item carried by a character.
type Item struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Tags        []string       `json:"tags,omitempty"`
	LoreItemID  string         `json:"loreItemId,omitempty"`
	Properties  map[string]any `json:"properties,omitempty"`
}

// InventoryEntry is an item plus a non-negative count.
type InventoryEntry struct {
	Item  Item `json:"item"`
	Count int  `json:"count"`
}

// Character is the player character's sheet.
type Character struct {
	ID         string             `json:"id,omitempty"`
	Name       string             `json:"name"`
	Stats      map[string]float64 `json:"stats"`
	Inventory  []InventoryEntry   `json:"inventory"`
	RaceID     string             `json:"raceId,omitempty"`
	FactionIDs []string           `json:"factionIds,omitempty"`
	Flags      map[string]bool    `json:"flags,omitempty"`
}

// RelationshipState tracks standing toward one target.
type RelationshipState struct {
	Value float64         `json:"value"`
	Stage string          `json:"stage,omitempty"`
	Flags map[string]bool `json:"flags,omitempty"`
}

// CompanionDefinition is a story-authored companion template.
type CompanionDefinition struct {
	ID                  string             `json:"id"`
	Name                string             `json:"name"`
	Role                string             `json:"role,omitempty"`
	Description         string             `json:"description,omitempty"`
	DefaultRelationship *RelationshipState `json:"defaultRelationship,omitempty"`
	Tags                []string           `json:"tags,omitempty"`
}

// CompanionState is a companion's runtime state in the party.
type CompanionState struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	Role         string             `json:"role,omitempty"`
	Relationship *RelationshipState `json:"relationship,omitempty"`
	Flags        map[string]bool    `json:"flags,omitempty"`
}

// SessionPlayer identifies a participant in a shared session.
type SessionPlayer struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
	Role string `json:"role,omitempty"`
}

// SessionAction is a queued player choice awaiting resolution.
type SessionAction struct {
	PlayerID  string `json:"playerId"`
	ActionID  string `json:"actionId,omitempty"`
	ExitLabel string `json:"exitLabel,omitempty"`
	At        int64  `json:"at"`
}

// SessionState is the optional multi-player orchestration scaffold.
type SessionState struct {
	ID             string          `json:"id"`
	Players        []SessionPlayer `json:"players"`
	CurrentTurn    int             `json:"currentTurn,omitempty"`
	PendingActions []SessionAction `json:"pendingActions,omitempty"`
}

// History event types.
const (
	HistorySceneEnter = "sceneEnter"
	HistorySceneExit  = "sceneExit"
	HistoryAction     = "action"
	HistoryEffect     = "effect"
	HistoryRule       = "rule"
)

// HistoryEvent is one entry of the append-only audit log, stamped with a
// logical sequence number.
type HistoryEvent struct {
	At       int64          `json:"at"`
	Type     string         `json:"type"`
	SceneID  string         `json:"sceneId,omitempty"`
	ActionID string         `json:"actionId,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
}

// Lore reveal states.
const (
	LoreKnown        = "known"
	LoreDiscoverable = "discoverable"
	LoreHidden       = "hidden"
)

// GameState is the single mutable entity of the system. It is created by
// the engine, mutated exclusively through effects and session helpers, and
// owned by the caller for persistence.
type GameState struct {
	Version           string                       `json:"version"`
	SchemaVersion     string                       `json:"schemaVersion,omitempty"`
	StoryBundleID     string                       `json:"storyBundleId"`
	LoreBundleIDs     []string                     `json:"loreBundleIds,omitempty"`
	CurrentSceneID    string                       `json:"currentSceneId"`
	CurrentLocationID string                       `json:"currentLocationId,omitempty"`
	Character         Character                    `json:"character"`
	Flags             map[string]bool              `json:"flags"`
	Vars              map[string]any               `json:"vars"`
	LoreKnowledge     map[string]string            `json:"loreKnowledge,omitempty"`
	Reputation        map[string]float64           `json:"reputation,omitempty"`
	Companions        []CompanionState             `json:"companions,omitempty"`
	Relationships     map[string]RelationshipState `json:"relationships,omitempty"`
	Session           *SessionState                `json:"session,omitempty"`
	History           []HistoryEvent               `json:"history,omitempty"`
}
