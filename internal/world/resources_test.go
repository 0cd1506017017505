package world

import "testing"

func buildCells(g *TerrainGrid) []Cell {
	cells := make([]Cell, len(g.Biomes))
	for y := 0; y < g.Size; y++ {
		for x := 0; x < g.Size; x++ {
			i := y*g.Size + x
			cells[i] = Cell{X: x, Y: y, Terrain: g.Biomes[i], Moisture: g.Moisture[i]}
		}
	}
	return cells
}

func TestGenerateResourcesDeterministic(t *testing.T) {
	g := GenerateTerrain(DefaultGenConfig(32, 42))

	c1 := buildCells(g)
	c2 := buildCells(g)
	GenerateResources(g, c1, DefaultResourceGenConfig(42))
	GenerateResources(g, c2, DefaultResourceGenConfig(42))

	for i := range c1 {
		n1, n2 := c1[i].Node, c2[i].Node
		if (n1 == nil) != (n2 == nil) {
			t.Fatalf("node presence mismatch at index %d", i)
		}
		if n1 != nil && *n1 != *n2 {
			t.Fatalf("node mismatch at index %d: %+v vs %+v", i, n1, n2)
		}
		if c1[i].Fertility != c2[i].Fertility {
			t.Fatalf("fertility mismatch at index %d", i)
		}
	}
}

func TestMountainRegionHasStone(t *testing.T) {
	for _, seed := range []int64{1, 42, 12345} {
		g := GenerateTerrain(DefaultGenConfig(32, seed))
		cells := buildCells(g)
		GenerateResources(g, cells, DefaultResourceGenConfig(seed))

		found := false
		for _, i := range MountainCells(g) {
			if cells[i].HasResource(ResourceStone) {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("seed %d: mountain region holds no stone cluster", seed)
		}
	}
}

func TestNodeBounds(t *testing.T) {
	g := GenerateTerrain(DefaultGenConfig(32, 42))
	cells := buildCells(g)
	GenerateResources(g, cells, DefaultResourceGenConfig(42))

	for i := range cells {
		n := cells[i].Node
		if n == nil {
			continue
		}
		if n.Quantity < 0 || n.Quantity > n.Max {
			t.Fatalf("node at index %d out of bounds: quantity %f, max %f", i, n.Quantity, n.Max)
		}
		if !n.Renewable && n.Regrowth != 0 {
			t.Fatalf("non-renewable node at index %d has regrowth %f", i, n.Regrowth)
		}
	}
}

func TestFertilityRanges(t *testing.T) {
	tests := []struct {
		terrain Terrain
		moist   float64
		wantMin float64
		wantMax float64
	}{
		{TerrainGrassland, 0.5, 0.5, 1.0},
		{TerrainOcean, 0.9, 0, 0},
		{TerrainDesert, 0.1, 0, 0.2},
		{TerrainRiver, 0.8, 0.8, 1.0},
	}
	for _, tt := range tests {
		got := fertility(tt.terrain, tt.moist)
		if got < tt.wantMin || got > tt.wantMax {
			t.Errorf("fertility(%s, %.1f) = %.3f, want in [%.1f, %.1f]",
				TerrainName(tt.terrain), tt.moist, got, tt.wantMin, tt.wantMax)
		}
	}
}
