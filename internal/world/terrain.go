// Terrain generation using layered, domain-warped simplex noise.
// Identical (size, seed) inputs always produce a bit-identical grid: every
// pass iterates the flat arena in row-major order and all randomness comes
// from rand.NewSource(seed)-derived generators.
package world

import (
	"math"
	"math/rand"
	"sort"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// GenConfig holds terrain generation parameters.
type GenConfig struct {
	Size              int
	Seed              int64
	SeaLevel          float64
	MountainLevel     float64
	SnowLevel         float64
	SmoothingPasses   int
	MinMountainRegion int
}

// DefaultGenConfig returns a reasonable starting configuration.
func DefaultGenConfig(size int, seed int64) GenConfig {
	return GenConfig{
		Size:              size,
		Seed:              seed,
		SeaLevel:          0.30,
		MountainLevel:     0.80,
		SnowLevel:         0.74,
		SmoothingPasses:   2,
		MinMountainRegion: 5,
	}
}

// TerrainGrid is the raw output of terrain generation, consumed by resource
// placement and the world engine.
type TerrainGrid struct {
	Size      int
	Biomes    []Terrain
	Elevation []float64
	Moisture  []float64
}

func (g *TerrainGrid) idx(x, y int) int { return y*g.Size + x }

// BiomeAt returns the biome at (x, y) without bounds checking.
func (g *TerrainGrid) BiomeAt(x, y int) Terrain { return g.Biomes[g.idx(x, y)] }

// GenerateTerrain deterministically produces a size × size biome grid.
func GenerateTerrain(cfg GenConfig) *TerrainGrid {
	n := cfg.Size * cfg.Size
	g := &TerrainGrid{
		Size:      cfg.Size,
		Biomes:    make([]Terrain, n),
		Elevation: make([]float64, n),
		Moisture:  make([]float64, n),
	}

	elevNoise := opensimplex.NewNormalized(cfg.Seed)
	moistNoise := opensimplex.NewNormalized(cfg.Seed + 1)
	warpNoiseX := opensimplex.NewNormalized(cfg.Seed + 2)
	warpNoiseY := opensimplex.NewNormalized(cfg.Seed + 3)

	half := float64(cfg.Size) / 2.0

	for y := 0; y < cfg.Size; y++ {
		for x := 0; x < cfg.Size; x++ {
			fx, fy := float64(x), float64(y)

			// Domain warp: offset the sample position by a second noise field
			// to break up the grid-aligned look of raw simplex.
			wx := fx + 6.0*(warpNoiseX.Eval2(fx*0.05, fy*0.05)-0.5)
			wy := fy + 6.0*(warpNoiseY.Eval2(fx*0.05, fy*0.05)-0.5)

			elev := octaveNoise(elevNoise, wx, wy, 4, 0.06, 0.5)
			moist := octaveNoise(moistNoise, wx, wy, 3, 0.05, 0.5)

			// Continental shaping: fall off toward the edges so the map is
			// ringed by ocean.
			dx := (fx - half) / half
			dy := (fy - half) / half
			dist := math.Sqrt(dx*dx + dy*dy)
			falloff := 1.0 - math.Pow(dist, 3.0)
			if falloff < 0 {
				falloff = 0
			}
			elev *= falloff

			i := g.idx(x, y)
			g.Elevation[i] = elev
			g.Moisture[i] = moist
			g.Biomes[i] = deriveBiome(elev, moist, cfg)
		}
	}

	for p := 0; p < cfg.SmoothingPasses; p++ {
		smoothBiomes(g)
	}
	traceRivers(g, cfg)
	markBeaches(g)
	ensureMountainRegion(g, cfg)

	return g
}

// deriveBiome maps elevation and moisture to a terrain type.
func deriveBiome(elev, moist float64, cfg GenConfig) Terrain {
	switch {
	case elev < cfg.SeaLevel:
		return TerrainOcean
	case elev > cfg.MountainLevel:
		return TerrainMountain
	case elev > cfg.SnowLevel:
		if moist > 0.5 {
			return TerrainSnow
		}
		return TerrainTundra
	case moist < 0.22 && elev < 0.6:
		return TerrainDesert
	case moist > 0.78 && elev < 0.45:
		return TerrainSwamp
	case moist > 0.55:
		return TerrainForest
	default:
		return TerrainGrassland
	}
}

// smoothBiomes removes single-cell noise islands: a land cell surrounded by a
// clear majority of one other land biome adopts it. Ocean and mountain are
// left alone so coastlines and ranges keep their shape.
func smoothBiomes(g *TerrainGrid) {
	next := make([]Terrain, len(g.Biomes))
	copy(next, g.Biomes)

	for y := 0; y < g.Size; y++ {
		for x := 0; x < g.Size; x++ {
			i := g.idx(x, y)
			self := g.Biomes[i]
			if self == TerrainOcean || self == TerrainMountain {
				continue
			}

			var counts [10]int
			for _, off := range neighborOffsets {
				nx, ny := x+off[0], y+off[1]
				if nx < 0 || ny < 0 || nx >= g.Size || ny >= g.Size {
					continue
				}
				counts[g.Biomes[g.idx(nx, ny)]]++
			}

			for b := Terrain(0); b < 10; b++ {
				if b == self || b == TerrainOcean || b == TerrainMountain {
					continue
				}
				if counts[b] >= 5 {
					next[i] = b
					break
				}
			}
		}
	}

	copy(g.Biomes, next)
}

// traceRivers flows from local elevation peaks downhill to the sea, marking
// river cells along the way.
func traceRivers(g *TerrainGrid, cfg GenConfig) {
	rng := rand.New(rand.NewSource(cfg.Seed + 100))

	// Local maxima above the snow line are river sources. Collected in
	// row-major order so the candidate list is deterministic.
	var sources []int
	for y := 0; y < g.Size; y++ {
		for x := 0; x < g.Size; x++ {
			i := g.idx(x, y)
			if g.Elevation[i] < cfg.SnowLevel {
				continue
			}
			peak := true
			for _, off := range neighborOffsets {
				nx, ny := x+off[0], y+off[1]
				if nx < 0 || ny < 0 || nx >= g.Size || ny >= g.Size {
					continue
				}
				if g.Elevation[g.idx(nx, ny)] > g.Elevation[i] {
					peak = false
					break
				}
			}
			if peak {
				sources = append(sources, i)
			}
		}
	}

	want := g.Size / 12
	if want < 2 {
		want = 2
	}
	rng.Shuffle(len(sources), func(i, j int) {
		sources[i], sources[j] = sources[j], sources[i]
	})
	if len(sources) > want {
		sources = sources[:want]
	}

	for _, src := range sources {
		traceRiver(g, src)
	}
}

func traceRiver(g *TerrainGrid, start int) {
	cur := start
	visited := make(map[int]bool)
	maxSteps := g.Size * 2

	for step := 0; step < maxSteps; step++ {
		visited[cur] = true
		if g.Biomes[cur] == TerrainOcean {
			return
		}

		// Carve: river replaces everything but mountain along the channel.
		if g.Biomes[cur] != TerrainMountain {
			g.Biomes[cur] = TerrainRiver
		}

		x, y := cur%g.Size, cur/g.Size
		best := -1
		bestElev := g.Elevation[cur]
		for _, off := range neighborOffsets {
			nx, ny := x+off[0], y+off[1]
			if nx < 0 || ny < 0 || nx >= g.Size || ny >= g.Size {
				continue
			}
			ni := g.idx(nx, ny)
			if visited[ni] {
				continue
			}
			if g.Elevation[ni] < bestElev {
				bestElev = g.Elevation[ni]
				best = ni
			}
		}
		if best < 0 {
			return // no downhill path; the river ends in a basin
		}
		cur = best
	}
}

// markBeaches converts land cells adjacent to ocean into beach.
func markBeaches(g *TerrainGrid) {
	for y := 0; y < g.Size; y++ {
		for x := 0; x < g.Size; x++ {
			i := g.idx(x, y)
			b := g.Biomes[i]
			if b == TerrainOcean || b == TerrainMountain || b == TerrainRiver || b == TerrainSnow {
				continue
			}
			for _, off := range neighborOffsets {
				nx, ny := x+off[0], y+off[1]
				if nx < 0 || ny < 0 || nx >= g.Size || ny >= g.Size {
					continue
				}
				if g.Biomes[g.idx(nx, ny)] == TerrainOcean {
					g.Biomes[i] = TerrainBeach
					break
				}
			}
		}
	}
}

// ensureMountainRegion guarantees at least one contiguous mountain region of
// MinMountainRegion cells so stone is always mineable. If generation produced
// none, a compact range is raised around the highest interior land cell.
func ensureMountainRegion(g *TerrainGrid, cfg GenConfig) {
	if largestMountainRegion(g) >= cfg.MinMountainRegion {
		return
	}

	// Pick the highest non-ocean cell in the interior third of the map.
	lo := g.Size / 3
	hi := g.Size - lo
	bestI := -1
	bestElev := -1.0
	for y := lo; y < hi; y++ {
		for x := lo; x < hi; x++ {
			i := g.idx(x, y)
			if g.Biomes[i] == TerrainOcean {
				continue
			}
			if g.Elevation[i] > bestElev {
				bestElev = g.Elevation[i]
				bestI = i
			}
		}
	}
	if bestI < 0 {
		return // degenerate all-ocean map; nothing sensible to do
	}

	cx, cy := bestI%g.Size, bestI/g.Size
	placed := 0
	for dy := -1; dy <= 1 && placed < cfg.MinMountainRegion+3; dy++ {
		for dx := -1; dx <= 1 && placed < cfg.MinMountainRegion+3; dx++ {
			nx, ny := cx+dx, cy+dy
			if nx < 0 || ny < 0 || nx >= g.Size || ny >= g.Size {
				continue
			}
			i := g.idx(nx, ny)
			if g.Biomes[i] == TerrainOcean {
				continue
			}
			g.Biomes[i] = TerrainMountain
			if g.Elevation[i] < cfg.MountainLevel {
				g.Elevation[i] = cfg.MountainLevel + 0.01
			}
			placed++
		}
	}
}

// largestMountainRegion returns the size of the biggest 8-connected mountain
// component.
func largestMountainRegion(g *TerrainGrid) int {
	seen := make([]bool, len(g.Biomes))
	largest := 0

	for start := range g.Biomes {
		if seen[start] || g.Biomes[start] != TerrainMountain {
			continue
		}
		size := 0
		stack := []int{start}
		seen[start] = true
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			size++
			x, y := cur%g.Size, cur/g.Size
			for _, off := range neighborOffsets {
				nx, ny := x+off[0], y+off[1]
				if nx < 0 || ny < 0 || nx >= g.Size || ny >= g.Size {
					continue
				}
				ni := g.idx(nx, ny)
				if !seen[ni] && g.Biomes[ni] == TerrainMountain {
					seen[ni] = true
					stack = append(stack, ni)
				}
			}
		}
		if size > largest {
			largest = size
		}
	}
	return largest
}

// MountainCells returns the coordinates of the largest mountain region in
// row-major order. Used by resource placement to guarantee a stone cluster.
func MountainCells(g *TerrainGrid) []int {
	seen := make([]bool, len(g.Biomes))
	var largest []int

	for start := range g.Biomes {
		if seen[start] || g.Biomes[start] != TerrainMountain {
			continue
		}
		var region []int
		stack := []int{start}
		seen[start] = true
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			region = append(region, cur)
			x, y := cur%g.Size, cur/g.Size
			for _, off := range neighborOffsets {
				nx, ny := x+off[0], y+off[1]
				if nx < 0 || ny < 0 || nx >= g.Size || ny >= g.Size {
					continue
				}
				ni := g.idx(nx, ny)
				if !seen[ni] && g.Biomes[ni] == TerrainMountain {
					seen[ni] = true
					stack = append(stack, ni)
				}
			}
		}
		if len(region) > len(largest) {
			largest = region
		}
	}
	sort.Ints(largest)
	return largest
}

// octaveNoise generates fractal noise by layering multiple frequencies.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}
