package world

import "testing"

func TestGenerateTerrainDeterministic(t *testing.T) {
	tests := []struct {
		name string
		size int
		seed int64
	}{
		{"small", 16, 12345},
		{"medium", 32, 7},
		{"negative seed", 24, -99},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultGenConfig(tt.size, tt.seed)
			g1 := GenerateTerrain(cfg)
			g2 := GenerateTerrain(cfg)

			for i := range g1.Biomes {
				if g1.Biomes[i] != g2.Biomes[i] {
					t.Fatalf("biome mismatch at index %d: %v vs %v", i, g1.Biomes[i], g2.Biomes[i])
				}
				if g1.Elevation[i] != g2.Elevation[i] {
					t.Fatalf("elevation mismatch at index %d", i)
				}
				if g1.Moisture[i] != g2.Moisture[i] {
					t.Fatalf("moisture mismatch at index %d", i)
				}
			}
		})
	}
}

func TestGenerateTerrainSeedsDiffer(t *testing.T) {
	g1 := GenerateTerrain(DefaultGenConfig(32, 1))
	g2 := GenerateTerrain(DefaultGenConfig(32, 2))

	same := 0
	for i := range g1.Biomes {
		if g1.Biomes[i] == g2.Biomes[i] {
			same++
		}
	}
	if same == len(g1.Biomes) {
		t.Fatal("different seeds produced identical grids")
	}
}

func TestMountainRegionGuarantee(t *testing.T) {
	for _, seed := range []int64{1, 2, 3, 42, 12345, 999} {
		cfg := DefaultGenConfig(32, seed)
		g := GenerateTerrain(cfg)
		if got := largestMountainRegion(g); got < cfg.MinMountainRegion {
			t.Errorf("seed %d: largest mountain region %d, want >= %d", seed, got, cfg.MinMountainRegion)
		}
	}
}

func TestBeachesBorderOcean(t *testing.T) {
	g := GenerateTerrain(DefaultGenConfig(32, 42))

	for y := 0; y < g.Size; y++ {
		for x := 0; x < g.Size; x++ {
			if g.BiomeAt(x, y) != TerrainBeach {
				continue
			}
			touchesOcean := false
			for _, off := range neighborOffsets {
				nx, ny := x+off[0], y+off[1]
				if nx < 0 || ny < 0 || nx >= g.Size || ny >= g.Size {
					continue
				}
				if g.BiomeAt(nx, ny) == TerrainOcean {
					touchesOcean = true
					break
				}
			}
			if !touchesOcean {
				t.Fatalf("beach at (%d,%d) does not touch ocean", x, y)
			}
		}
	}
}

func TestMapEdgeIsOcean(t *testing.T) {
	g := GenerateTerrain(DefaultGenConfig(32, 42))

	// The radial falloff should leave the map corners submerged.
	corners := [][2]int{{0, 0}, {g.Size - 1, 0}, {0, g.Size - 1}, {g.Size - 1, g.Size - 1}}
	for _, c := range corners {
		if got := g.BiomeAt(c[0], c[1]); got != TerrainOcean {
			t.Errorf("corner (%d,%d) = %v, want ocean", c[0], c[1], got)
		}
	}
}
