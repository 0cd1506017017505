package citizen

import (
	"github.com/talgya/tribelands/internal/config"
	"github.com/talgya/tribelands/internal/world"
)

// testWorld builds a small flat world: all grassland except a mountain strip
// on the right edge, village at the center, no resource nodes.
func testWorld(size int) *world.Engine {
	g := &world.TerrainGrid{
		Size:      size,
		Biomes:    make([]world.Terrain, size*size),
		Elevation: make([]float64, size*size),
		Moisture:  make([]float64, size*size),
	}
	for i := range g.Biomes {
		g.Biomes[i] = world.TerrainGrassland
		g.Moisture[i] = 0.5
	}
	for y := 0; y < size; y++ {
		g.Biomes[y*size+size-1] = world.TerrainMountain
	}
	e := world.NewEngine(g, world.ResourceGenConfig{Seed: 1}, world.DefaultEnvConfig())
	for i := range e.Cells {
		e.Cells[i].Node = nil
	}
	e.PlaceVillage(size/2, size/2)
	return e
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.World.Size = 8
	cfg.World.Seed = 7
	return cfg
}

// placeNode drops a resource node on a cell.
func placeNode(e *world.Engine, x, y int, t world.ResourceType, qty float64) {
	e.GetCell(x, y).Node = &world.ResourceNode{Type: t, Quantity: qty, Max: qty}
}

// testCitizen creates a standalone citizen registered with the world.
func testCitizen(e *world.Engine, id uint64, role Role, x, y int) *Citizen {
	c := &Citizen{
		ID:       id,
		Name:     "Testan",
		X:        x,
		Y:        y,
		Role:     role,
		State:    StateAlive,
		Age:      20,
		Health:   100,
		Morale:   60,
		CarryCap: 10,
		Goal:     Goal{Kind: GoalIdle, TargetX: x, TargetY: y},
		Gather:   GatherState{Phase: PhaseSeekResource, TargetX: -1, TargetY: -1},
	}
	e.AddCitizen(id, x, y)
	return c
}

// stubThreats is a single-threat ThreatSource for director and executor tests.
type stubThreats struct {
	id     uint64
	x, y   int
	health float64
}

func (s *stubThreats) NearestThreat(x, y, radius int) (uint64, int, int, bool) {
	if s.health <= 0 || world.ChebyshevDist(x, y, s.x, s.y) > radius {
		return 0, 0, 0, false
	}
	return s.id, s.x, s.y, true
}

func (s *stubThreats) ThreatPosition(id uint64) (int, int, bool) {
	if id != s.id || s.health <= 0 {
		return 0, 0, false
	}
	return s.x, s.y, true
}

func (s *stubThreats) StrikeThreat(id uint64, damage float64) (float64, bool) {
	if id != s.id || s.health <= 0 {
		return 0, false
	}
	s.health -= damage
	return s.health, true
}
