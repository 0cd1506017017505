package sim

import (
	"testing"

	"github.com/talgya/tribelands/internal/citizen"
	"github.com/talgya/tribelands/internal/config"
	"github.com/talgya/tribelands/internal/events"
	"github.com/talgya/tribelands/internal/world"
)

// flatWorld builds an all-grassland engine with the village at the center.
func flatWorld(size int) *world.Engine {
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
	e := world.NewEngine(g, world.ResourceGenConfig{Seed: 1}, world.DefaultEnvConfig())
	for i := range e.Cells {
		e.Cells[i].Node = nil
	}
	e.PlaceVillage(size/2, size/2)
	return e
}

func testThreatCfg() config.ThreatConfig {
	return config.ThreatConfig{SpawnIntervalTicks: 2, Health: 30, Damage: 8}
}

func TestThreatSpawnsOnEdgeAndAdvances(t *testing.T) {
	e := flatWorld(10)
	q := events.NewQueue()
	ts := NewThreatSystem(e, testThreatCfg(), 1.0, 42, q)

	for tick := uint64(1); tick <= 2; tick++ {
		ts.Tick(tick, 1, nil)
	}
	if len(ts.Threats()) != 1 {
		t.Fatalf("threats = %d after the spawn interval, want 1", len(ts.Threats()))
	}
	th := ts.Threats()[0]
	before := world.ChebyshevDist(th.X, th.Y, e.VillageX, e.VillageY)
	ts.Tick(3, 1, nil)
	after := world.ChebyshevDist(th.X, th.Y, e.VillageX, e.VillageY)
	if after >= before {
		t.Errorf("distance to village %d -> %d, want strictly closer", before, after)
	}

	found := false
	for _, ev := range q.Drain() {
		if ev.Kind == events.KindThreat {
			found = true
		}
	}
	if !found {
		t.Error("no threat event emitted on spawn")
	}
}

func TestThreatSpawnDeterminism(t *testing.T) {
	run := func() []Threat {
		e := flatWorld(10)
		ts := NewThreatSystem(e, testThreatCfg(), 1.0, 42, events.NewQueue())
		for tick := uint64(1); tick <= 20; tick++ {
			ts.Tick(tick, 1, nil)
		}
		var out []Threat
		for _, th := range ts.Threats() {
			out = append(out, *th)
		}
		return out
	}
	a, b := run(), run()
	if len(a) != len(b) {
		t.Fatalf("threat counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("threat %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestThreatAttacksAdjacentCitizen(t *testing.T) {
	e := flatWorld(10)
	q := events.NewQueue()
	ts := NewThreatSystem(e, testThreatCfg(), 1.0, 42, q)
	for tick := uint64(1); tick <= 2; tick++ {
		ts.Tick(tick, 1, nil)
	}
	th := ts.Threats()[0]

	victim := &citizen.Citizen{ID: 1, Name: "Belan", State: citizen.StateAlive, Health: 100, X: th.X + 1, Y: th.Y}
	ts.Tick(3, 1, []*citizen.Citizen{victim})

	if victim.Health != 92 {
		t.Errorf("victim health = %f, want 92 after one 8-damage blow", victim.Health)
	}
	// Attacking threats hold position.
	if ts.Threats()[0].X != th.X || ts.Threats()[0].Y != th.Y {
		t.Error("threat moved while attacking")
	}
}

func TestStrikeThreatRemovesOnKill(t *testing.T) {
	e := flatWorld(10)
	ts := NewThreatSystem(e, testThreatCfg(), 1.0, 42, events.NewQueue())
	for tick := uint64(1); tick <= 2; tick++ {
		ts.Tick(tick, 1, nil)
	}
	id := ts.Threats()[0].ID

	if remaining, ok := ts.StrikeThreat(id, 10); !ok || remaining != 20 {
		t.Fatalf("strike = (%f, %v), want (20, true)", remaining, ok)
	}
	if remaining, ok := ts.StrikeThreat(id, 100); !ok || remaining != 0 {
		t.Fatalf("killing strike = (%f, %v), want (0, true)", remaining, ok)
	}
	if len(ts.Threats()) != 0 {
		t.Error("dead threat still listed")
	}
	if _, _, ok := ts.ThreatPosition(id); ok {
		t.Error("dead threat still queryable")
	}
	if _, ok := ts.StrikeThreat(id, 5); ok {
		t.Error("striking a dead threat succeeded")
	}
}

func TestNoSpawnsWhenDisabled(t *testing.T) {
	e := flatWorld(10)
	cfg := testThreatCfg()
	cfg.SpawnIntervalTicks = 0
	ts := NewThreatSystem(e, cfg, 1.0, 42, events.NewQueue())
	for tick := uint64(1); tick <= 50; tick++ {
		ts.Tick(tick, 1, nil)
	}
	if len(ts.Threats()) != 0 {
		t.Errorf("threats = %d with spawning disabled, want 0", len(ts.Threats()))
	}
}
