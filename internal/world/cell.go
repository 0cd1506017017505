// Package world provides the cell grid, terrain, stockpile, construction
// sites, and pathfinding. The grid is a flat arena indexed by y*size+x;
// citizens reference cells by coordinate, never by pointer.
package world

// Terrain classifies a cell's biome. Terrain never changes after generation
// except for river carving and shoreline conversion during the generation
// passes themselves.
type Terrain uint8

const (
	TerrainOcean     Terrain = iota // Impassable water
	TerrainBeach                    // Shoreline, buildable
	TerrainGrassland                // Fertile plains, prime farmland
	TerrainForest                   // Wood clusters, game
	TerrainDesert                   // Arid, sparse stone
	TerrainTundra                   // Cold steppe, some stone
	TerrainSnow                     // Impassable high cold
	TerrainMountain                 // Stone-rich high ground, walkable
	TerrainSwamp                    // Wet lowland, herbs and food
	TerrainRiver                    // Freshwater, fish and irrigation
)

// TerrainName returns a human-readable name for a terrain type.
func TerrainName(t Terrain) string {
	switch t {
	case TerrainOcean:
		return "Ocean"
	case TerrainBeach:
		return "Beach"
	case TerrainGrassland:
		return "Grassland"
	case TerrainForest:
		return "Forest"
	case TerrainDesert:
		return "Desert"
	case TerrainTundra:
		return "Tundra"
	case TerrainSnow:
		return "Snow"
	case TerrainMountain:
		return "Mountain"
	case TerrainSwamp:
		return "Swamp"
	case TerrainRiver:
		return "River"
	default:
		return "Unknown"
	}
}

// ResourceType enumerates the stockpiled resource kinds.
type ResourceType uint8

const (
	ResourceFood ResourceType = iota
	ResourceWood
	ResourceStone
	ResourceWater
)

// NumResources is the total number of resource types.
const NumResources = 4

// ResourceName returns a human-readable name for a resource type.
func ResourceName(r ResourceType) string {
	switch r {
	case ResourceFood:
		return "food"
	case ResourceWood:
		return "wood"
	case ResourceStone:
		return "stone"
	case ResourceWater:
		return "water"
	default:
		return "unknown"
	}
}

// ResourceNode is a harvestable deposit inside a cell.
// Quantity stays clamped to [0, Max]. Non-renewable nodes never regrow;
// renewable nodes regrow only during UpdateEnvironment.
type ResourceNode struct {
	Type      ResourceType `json:"type"`
	Quantity  float64      `json:"quantity"`
	Max       float64      `json:"max"`
	Renewable bool         `json:"renewable"`
	Regrowth  float64      `json:"regrowth"` // units per sim-hour
}

// PriorityMark is a player-assigned designation biasing AI target selection.
type PriorityMark uint8

const (
	MarkNone PriorityMark = iota
	MarkFarm
	MarkMine
	MarkGather
	MarkExplore
	MarkDefend
	MarkBuild
)

// MarkName returns a human-readable name for a priority mark.
func MarkName(m PriorityMark) string {
	switch m {
	case MarkNone:
		return "none"
	case MarkFarm:
		return "farm"
	case MarkMine:
		return "mine"
	case MarkGather:
		return "gather"
	case MarkExplore:
		return "explore"
	case MarkDefend:
		return "defend"
	case MarkBuild:
		return "build"
	default:
		return "unknown"
	}
}

// ParseMark resolves a mark name to its value. Unknown names map to MarkNone.
func ParseMark(name string) PriorityMark {
	switch name {
	case "farm":
		return MarkFarm
	case "mine":
		return MarkMine
	case "gather":
		return MarkGather
	case "explore":
		return MarkExplore
	case "defend":
		return MarkDefend
	case "build":
		return MarkBuild
	default:
		return MarkNone
	}
}

// FarmStage tracks the farm task cycle on a farm-marked cell.
type FarmStage uint8

const (
	FarmSow FarmStage = iota
	FarmGrow
	FarmHarvest
)

// FarmTask holds the stage and within-stage progress of a farm-marked cell.
// Progress runs 0..1 inside each of sow and grow; the harvest stage waits for
// a farmer to collect.
type FarmTask struct {
	Stage    FarmStage `json:"stage"`
	Progress float64   `json:"progress"`
}

// Cell is a single tile of the world grid.
type Cell struct {
	X int `json:"x"`
	Y int `json:"y"`

	Terrain   Terrain `json:"terrain"`
	Fertility float64 `json:"fertility"` // 0–1
	Moisture  float64 `json:"moisture"`  // 0–1

	Node *ResourceNode `json:"node,omitempty"`

	Priority PriorityMark `json:"priority"`
	Farm     *FarmTask    `json:"farm,omitempty"`

	// SiteID references an active construction site (0 = none).
	SiteID uint64 `json:"site_id,omitempty"`

	// Structure is the completed building on this cell (StructureNone = none).
	Structure StructureType `json:"structure"`

	// Explored marks visibility gained by the tribe.
	Explored bool `json:"explored"`

	// Occupants holds ids of citizens currently standing on this cell.
	Occupants map[uint64]struct{} `json:"-"`
}

// HasResource reports whether the cell holds a non-empty node of the type.
func (c *Cell) HasResource(t ResourceType) bool {
	return c.Node != nil && c.Node.Type == t && c.Node.Quantity > 0
}

// neighborOffsets is the fixed 8-neighborhood iteration order (N, NE, E, SE,
// S, SW, W, NW). Stable order keeps paths and tie-breaks deterministic.
var neighborOffsets = [8][2]int{
	{0, -1}, {1, -1}, {1, 0}, {1, 1},
	{0, 1}, {-1, 1}, {-1, 0}, {-1, -1},
}

// ChebyshevDist returns the grid distance between two coordinates under
// 8-neighborhood movement.
func ChebyshevDist(x1, y1, x2, y2 int) int {
	dx := x1 - x2
	if dx < 0 {
		dx = -dx
	}
	dy := y1 - y2
	if dy < 0 {
		dy = -dy
	}
	if dx > dy {
		return dx
	}
	return dy
}

// Adjacent reports whether two coordinates are within one step of each other
// (including the same cell).
func Adjacent(x1, y1, x2, y2 int) bool {
	return ChebyshevDist(x1, y1, x2, y2) <= 1
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
