// Resource placement: fertility assignment and deterministic clustered node
// placement over a generated terrain grid.
package world

import (
	"math/rand"
)

// ResourceGenConfig tunes node placement density and yields.
type ResourceGenConfig struct {
	Seed int64

	FoodAnchorsPer64  float64 // anchors per 64 cells of eligible terrain
	WoodAnchorsPer64  float64
	StoneAnchorsPer64 float64

	FoodYield  float64
	WoodYield  float64
	StoneYield float64
	WaterYield float64
}

// DefaultResourceGenConfig returns the standard placement densities.
func DefaultResourceGenConfig(seed int64) ResourceGenConfig {
	return ResourceGenConfig{
		Seed:              seed,
		FoodAnchorsPer64:  1.5,
		WoodAnchorsPer64:  1.2,
		StoneAnchorsPer64: 1.0,
		FoodYield:         30,
		WoodYield:         45,
		StoneYield:        60,
		WaterYield:        40,
	}
}

// GenerateResources assigns fertility and places resource nodes onto the
// cells of a world built from the given terrain grid. Cells must already be
// populated with coordinates and biomes; placement mutates Fertility and Node.
func GenerateResources(g *TerrainGrid, cells []Cell, cfg ResourceGenConfig) {
	rng := rand.New(rand.NewSource(cfg.Seed + 200))

	for i := range cells {
		c := &cells[i]
		c.Fertility = fertility(c.Terrain, g.Moisture[i])
	}

	placeFood(g, cells, cfg, rng)
	placeWood(g, cells, cfg, rng)
	placeStone(g, cells, cfg, rng)
	placeSprings(g, cells, cfg)
}

// fertility derives a cell's base fertility from terrain, modulated by
// moisture.
func fertility(t Terrain, moisture float64) float64 {
	var base float64
	switch t {
	case TerrainGrassland:
		base = 0.8
	case TerrainRiver:
		base = 0.9
	case TerrainSwamp:
		base = 0.7
	case TerrainForest:
		base = 0.6
	case TerrainBeach:
		base = 0.4
	case TerrainTundra:
		base = 0.2
	case TerrainDesert:
		base = 0.1
	case TerrainMountain, TerrainSnow:
		base = 0.05
	default: // ocean
		return 0
	}
	return clamp01(base * (0.6 + 0.8*moisture))
}

// anchorCandidates collects, in row-major order, indices of cells matching
// the predicate. Deterministic input for the seeded anchor selection.
func anchorCandidates(cells []Cell, pred func(*Cell) bool) []int {
	var out []int
	for i := range cells {
		if pred(&cells[i]) {
			out = append(out, i)
		}
	}
	return out
}

// pickAnchors selects count anchor indices from candidates with seeded
// shuffling.
func pickAnchors(candidates []int, count int, rng *rand.Rand) []int {
	if count <= 0 || len(candidates) == 0 {
		return nil
	}
	picked := make([]int, len(candidates))
	copy(picked, candidates)
	rng.Shuffle(len(picked), func(i, j int) {
		picked[i], picked[j] = picked[j], picked[i]
	})
	if len(picked) > count {
		picked = picked[:count]
	}
	return picked
}

// cluster places nodes around an anchor with seeded jitter: the anchor always
// gets a node, and each neighbor has an independent chance.
func cluster(g *TerrainGrid, cells []Cell, anchor int, rng *rand.Rand,
	eligible func(*Cell) bool, build func(*rand.Rand) *ResourceNode) {

	if cells[anchor].Node == nil {
		cells[anchor].Node = build(rng)
	}
	x, y := anchor%g.Size, anchor/g.Size
	for _, off := range neighborOffsets {
		nx, ny := x+off[0], y+off[1]
		if nx < 0 || ny < 0 || nx >= g.Size || ny >= g.Size {
			continue
		}
		ni := ny*g.Size + nx
		// Jitter roll consumed even when the cell is ineligible so the rng
		// stream stays aligned with the anchor list.
		roll := rng.Float64()
		if roll > 0.4 {
			continue
		}
		if cells[ni].Node == nil && eligible(&cells[ni]) {
			cells[ni].Node = build(rng)
		}
	}
}

func placeFood(g *TerrainGrid, cells []Cell, cfg ResourceGenConfig, rng *rand.Rand) {
	eligible := func(c *Cell) bool {
		switch c.Terrain {
		case TerrainGrassland, TerrainForest, TerrainSwamp:
			return c.Fertility > 0.35
		}
		return false
	}
	candidates := anchorCandidates(cells, eligible)
	count := int(float64(len(candidates)) / 64.0 * cfg.FoodAnchorsPer64 * 4)
	if count < 2 {
		count = 2
	}
	for _, a := range pickAnchors(candidates, count, rng) {
		cluster(g, cells, a, rng, eligible, func(r *rand.Rand) *ResourceNode {
			max := cfg.FoodYield * (0.7 + 0.6*r.Float64())
			return &ResourceNode{
				Type: ResourceFood, Quantity: max, Max: max,
				Renewable: true, Regrowth: 0.15,
			}
		})
	}
}

func placeWood(g *TerrainGrid, cells []Cell, cfg ResourceGenConfig, rng *rand.Rand) {
	eligible := func(c *Cell) bool { return c.Terrain == TerrainForest }
	candidates := anchorCandidates(cells, eligible)
	count := int(float64(len(candidates)) / 64.0 * cfg.WoodAnchorsPer64 * 4)
	if count < 2 {
		count = 2
	}
	for _, a := range pickAnchors(candidates, count, rng) {
		cluster(g, cells, a, rng, eligible, func(r *rand.Rand) *ResourceNode {
			max := cfg.WoodYield * (0.7 + 0.6*r.Float64())
			return &ResourceNode{
				Type: ResourceWood, Quantity: max, Max: max,
				Renewable: true, Regrowth: 0.05,
			}
		})
	}
}

func placeStone(g *TerrainGrid, cells []Cell, cfg ResourceGenConfig, rng *rand.Rand) {
	eligible := func(c *Cell) bool {
		switch c.Terrain {
		case TerrainMountain, TerrainTundra, TerrainDesert:
			return true
		}
		return false
	}
	candidates := anchorCandidates(cells, eligible)
	count := int(float64(len(candidates)) / 64.0 * cfg.StoneAnchorsPer64 * 4)
	if count < 1 {
		count = 1
	}
	for _, a := range pickAnchors(candidates, count, rng) {
		cluster(g, cells, a, rng, eligible, func(r *rand.Rand) *ResourceNode {
			max := cfg.StoneYield * (0.7 + 0.6*r.Float64())
			return &ResourceNode{
				Type: ResourceStone, Quantity: max, Max: max,
				Renewable: false,
			}
		})
	}

	// Guarantee: the main mountain region always holds at least one stone
	// cluster, regardless of where the shuffled anchors landed.
	region := MountainCells(g)
	for _, i := range region {
		if cells[i].HasResource(ResourceStone) {
			return
		}
	}
	if len(region) > 0 {
		a := region[len(region)/2]
		max := cfg.StoneYield
		cells[a].Node = &ResourceNode{
			Type: ResourceStone, Quantity: max, Max: max, Renewable: false,
		}
	}
}

// placeSprings puts renewable water nodes on river cells and food springs on
// beaches next to rivers. No rng: springs follow the water itself.
func placeSprings(g *TerrainGrid, cells []Cell, cfg ResourceGenConfig) {
	for i := range cells {
		c := &cells[i]
		if c.Node != nil {
			continue
		}
		switch c.Terrain {
		case TerrainRiver:
			c.Node = &ResourceNode{
				Type: ResourceWater, Quantity: cfg.WaterYield, Max: cfg.WaterYield,
				Renewable: true, Regrowth: 0.5,
			}
		case TerrainBeach:
			// Beach cells touching a river become food springs (fishing).
			x, y := i%g.Size, i/g.Size
			for _, off := range neighborOffsets {
				nx, ny := x+off[0], y+off[1]
				if nx < 0 || ny < 0 || nx >= g.Size || ny >= g.Size {
					continue
				}
				if g.Biomes[ny*g.Size+nx] == TerrainRiver {
					max := cfg.FoodYield * 0.8
					c.Node = &ResourceNode{
						Type: ResourceFood, Quantity: max, Max: max,
						Renewable: true, Regrowth: 0.2,
					}
					break
				}
			}
		}
	}
}
