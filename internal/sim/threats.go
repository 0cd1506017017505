// Hostile creature spawning, movement, and attacks. The system implements
// citizen.ThreatSource so the behavior director and action executor can query
// and strike threats without a package cycle.
package sim

import (
	"fmt"
	"math/rand"

	"github.com/talgya/tribelands/internal/citizen"
	"github.com/talgya/tribelands/internal/config"
	"github.com/talgya/tribelands/internal/events"
	"github.com/talgya/tribelands/internal/world"
)

const threatSeedOffset = 500

// Threat is one hostile creature.
type Threat struct {
	ID     uint64  `json:"id"`
	X      int     `json:"x"`
	Y      int     `json:"y"`
	Health float64 `json:"health"`
	Damage float64 `json:"damage"`
}

// ThreatSystem spawns threats near the map edge on a difficulty-scaled
// interval and marches them toward the village.
type ThreatSystem struct {
	world   *world.Engine
	cfg     config.ThreatConfig
	rateMul float64
	rng     *rand.Rand
	events  citizen.EventSink

	// threats stays in ascending id order.
	threats   []*Threat
	nextID    uint64
	lastSpawn uint64
}

// NewThreatSystem wires the threat subsystem; rateMul scales the spawn rate
// by difficulty.
func NewThreatSystem(w *world.Engine, cfg config.ThreatConfig, rateMul float64, seed int64, sink citizen.EventSink) *ThreatSystem {
	return &ThreatSystem{
		world:   w,
		cfg:     cfg,
		rateMul: rateMul,
		rng:     rand.New(rand.NewSource(seed + threatSeedOffset)),
		events:  sink,
		nextID:  1,
	}
}

// Threats returns the living threats in ascending id order.
func (ts *ThreatSystem) Threats() []*Threat { return ts.threats }

// NearestThreat implements citizen.ThreatSource.
func (ts *ThreatSystem) NearestThreat(x, y, radius int) (uint64, int, int, bool) {
	best := -1
	for i, th := range ts.threats {
		d := world.ChebyshevDist(x, y, th.X, th.Y)
		if d > radius {
			continue
		}
		if best < 0 || d < world.ChebyshevDist(x, y, ts.threats[best].X, ts.threats[best].Y) {
			best = i
		}
	}
	if best < 0 {
		return 0, 0, 0, false
	}
	th := ts.threats[best]
	return th.ID, th.X, th.Y, true
}

// ThreatPosition implements citizen.ThreatSource.
func (ts *ThreatSystem) ThreatPosition(id uint64) (int, int, bool) {
	for _, th := range ts.threats {
		if th.ID == id {
			return th.X, th.Y, true
		}
	}
	return 0, 0, false
}

// StrikeThreat implements citizen.ThreatSource. A threat reduced to zero
// health is removed immediately so later strikes the same tick miss.
func (ts *ThreatSystem) StrikeThreat(id uint64, damage float64) (float64, bool) {
	for i, th := range ts.threats {
		if th.ID != id {
			continue
		}
		th.Health -= damage
		if th.Health <= 0 {
			ts.threats = append(ts.threats[:i], ts.threats[i+1:]...)
			return 0, true
		}
		return th.Health, true
	}
	return 0, false
}

// Tick spawns due threats, then moves each one toward the village or attacks
// an adjacent citizen. Runs before the citizen pass so inflicted damage
// resolves through the needs simulator the same tick.
func (ts *ThreatSystem) Tick(tick uint64, tickHours float64, citizens []*citizen.Citizen) {
	ts.spawn(tick)
	for _, th := range ts.threats {
		if target := ts.adjacentCitizen(th, citizens); target != nil {
			ts.attack(tick, th, target)
			continue
		}
		ts.advance(th)
	}
}

// spawnInterval is the difficulty-scaled tick gap between spawns.
func (ts *ThreatSystem) spawnInterval() uint64 {
	if ts.rateMul <= 0 {
		return ^uint64(0)
	}
	iv := uint64(float64(ts.cfg.SpawnIntervalTicks) / ts.rateMul)
	if iv == 0 {
		iv = 1
	}
	return iv
}

func (ts *ThreatSystem) spawn(tick uint64) {
	if ts.cfg.SpawnIntervalTicks == 0 || tick-ts.lastSpawn < ts.spawnInterval() {
		return
	}
	ts.lastSpawn = tick

	// Walkable edge cells, row-major for a stable candidate order.
	var edges []world.Point
	size := ts.world.Size
	for i := range ts.world.Cells {
		c := &ts.world.Cells[i]
		onEdge := c.X == 0 || c.Y == 0 || c.X == size-1 || c.Y == size-1
		if onEdge && ts.world.IsWalkable(c.X, c.Y) {
			edges = append(edges, world.Point{X: c.X, Y: c.Y})
		}
	}
	if len(edges) == 0 {
		return
	}
	p := edges[ts.rng.Intn(len(edges))]
	th := &Threat{ID: ts.nextID, X: p.X, Y: p.Y, Health: ts.cfg.Health, Damage: ts.cfg.Damage}
	ts.nextID++
	ts.threats = append(ts.threats, th)
	ts.events.Append(events.Event{
		Tick:    tick,
		Kind:    events.KindThreat,
		Message: fmt.Sprintf("a beast appeared at (%d, %d)", p.X, p.Y),
		X:       p.X,
		Y:       p.Y,
	})
}

// adjacentCitizen returns the lowest-id living citizen next to the threat.
func (ts *ThreatSystem) adjacentCitizen(th *Threat, citizens []*citizen.Citizen) *citizen.Citizen {
	for _, c := range citizens {
		if c.Alive() && world.Adjacent(th.X, th.Y, c.X, c.Y) {
			return c
		}
	}
	return nil
}

// attack wounds the citizen; towers near the victim blunt the blow. The needs
// simulator resolves any resulting death on the citizen pass.
func (ts *ThreatSystem) attack(tick uint64, th *Threat, c *citizen.Citizen) {
	dmg := th.Damage - ts.world.DefenseBonus(c.X, c.Y)*0.5
	if dmg < 1 {
		dmg = 1
	}
	c.Health -= dmg
	if c.Health < 0 {
		c.Health = 0
	}
	ts.events.Append(events.Event{
		Tick:      tick,
		Kind:      events.KindThreat,
		Message:   fmt.Sprintf("%s was attacked by a beast", c.Name),
		X:         c.X,
		Y:         c.Y,
		CitizenID: c.ID,
	})
}

// advance steps the threat one cell along a path toward the village.
func (ts *ThreatSystem) advance(th *Threat) {
	path := world.FindPathAdjacent(ts.world.Size,
		world.Point{X: th.X, Y: th.Y},
		world.Point{X: ts.world.VillageX, Y: ts.world.VillageY},
		ts.world.IsWalkable)
	if len(path) == 0 {
		return
	}
	th.X, th.Y = path[0].X, path[0].Y
}
