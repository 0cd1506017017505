// Goal arbitration: one goal per alive citizen per tick, chosen by a fixed
// priority order (urgent survival > role duty > passive roles > idle) and
// re-evaluated every tick so higher-priority needs interrupt anything.
package citizen

import (
	"sort"

	"github.com/talgya/tribelands/internal/config"
	"github.com/talgya/tribelands/internal/world"
)

// ThreatSource exposes hostile positions to the director and executor.
type ThreatSource interface {
	// NearestThreat returns the closest living threat within radius of
	// (x, y), or ok=false.
	NearestThreat(x, y, radius int) (id uint64, tx, ty int, ok bool)
	// ThreatPosition reports a threat's current position.
	ThreatPosition(id uint64) (x, y int, ok bool)
	// StrikeThreat applies damage and reports remaining health.
	StrikeThreat(id uint64, damage float64) (remaining float64, ok bool)
}

// noThreats is the default, threat-free source.
type noThreats struct{}

func (noThreats) NearestThreat(x, y, radius int) (uint64, int, int, bool) { return 0, 0, 0, false }
func (noThreats) ThreatPosition(id uint64) (int, int, bool)               { return 0, 0, false }
func (noThreats) StrikeThreat(id uint64, d float64) (float64, bool)       { return 0, false }

// Director selects each citizen's current goal.
type Director struct {
	world   *world.Engine
	gather  *CollectionEngine
	needs   *NeedsSimulator
	threats ThreatSource
	combat  config.CombatConfig

	duties map[Role]func(*Director, *Citizen) bool

	// pending carries a duty function's proposed goal back to choose. The
	// director runs strictly single-threaded within a tick, so a scratch
	// field is safe.
	pending Goal
}

// NewDirector wires the arbitration policy.
func NewDirector(w *world.Engine, g *CollectionEngine, n *NeedsSimulator, threats ThreatSource, combat config.CombatConfig) *Director {
	if threats == nil {
		threats = noThreats{}
	}
	d := &Director{world: w, gather: g, needs: n, threats: threats, combat: combat}
	d.duties = map[Role]func(*Director, *Citizen) bool{
		RoleFarmer:  (*Director).farmerDuty,
		RoleWorker:  (*Director).workerDuty,
		RoleWarrior: (*Director).warriorDuty,
		RoleScout:   (*Director).scoutDuty,
		RoleChild:   (*Director).childPassive,
		RoleElder:   (*Director).elderPassive,
	}
	return d
}

// roleWalkable returns the walkability predicate for a citizen's role.
// Scouts may cross snow; everyone else uses the default, which blocks only
// ocean and snow.
func roleWalkable(w *world.Engine, c *Citizen) func(x, y int) bool {
	if c.Role == RoleScout {
		return func(x, y int) bool {
			cell := w.GetCell(x, y)
			return cell != nil && cell.Terrain != world.TerrainOcean
		}
	}
	return w.IsWalkable
}

// WalkableFor exposes the role predicate bound to the director's world.
func (d *Director) WalkableFor(c *Citizen) func(x, y int) bool {
	return roleWalkable(d.world, c)
}

// Decide picks the citizen's goal for this tick. A changed goal clears the
// current path and gathering state.
func (d *Director) Decide(c *Citizen) {
	prev := c.Goal
	c.Goal = d.choose(c)
	if c.Goal != prev {
		c.Path = nil
		if c.Goal.Kind == GoalGather && (prev.Kind != GoalGather || prev.Resource != c.Goal.Resource) {
			d.gather.Reset(c)
		}
	}
}

func (d *Director) choose(c *Citizen) Goal {
	// 1. Urgent survival.
	if id, _, _, ok := d.threats.NearestThreat(c.X, c.Y, d.combat.FleeRadius); ok && c.Role != RoleWarrior {
		return Goal{Kind: GoalFlee, TargetX: d.world.VillageX, TargetY: d.world.VillageY, ThreatID: id}
	}
	if c.Hunger > d.needs.HungerCritical() && d.world.Stockpile.Available(world.ResourceFood) > 0 {
		if sx, sy, ok := d.world.NearestStorage(c.X, c.Y); ok {
			return Goal{Kind: GoalEat, TargetX: sx, TargetY: sy}
		}
	}
	if c.Fatigue > d.needs.FatigueCritical() {
		return Goal{Kind: GoalRest, TargetX: c.X, TargetY: c.Y}
	}

	// 2–3. Role duty / passive behavior via the dispatch table. A duty
	// either proposes a goal through d.pending or declines.
	if duty, ok := d.duties[c.Role]; ok {
		d.pending = Goal{Kind: GoalIdle, TargetX: c.X, TargetY: c.Y}
		if duty(d, c) {
			return d.pending
		}
	}

	// 4. Idle fallback.
	return Goal{Kind: GoalIdle, TargetX: c.X, TargetY: c.Y}
}

// farmerDuty: tend or harvest farm-marked cells, falling back to food
// gathering when no farm task is ready.
func (d *Director) farmerDuty(c *Citizen) bool {
	// Harvest-ready cells first, then cells that benefit from tending.
	if x, y, ok := d.nearestFarmCell(c, true); ok {
		d.pending = Goal{Kind: GoalFarm, TargetX: x, TargetY: y}
		return true
	}
	if x, y, ok := d.nearestFarmCell(c, false); ok {
		d.pending = Goal{Kind: GoalFarm, TargetX: x, TargetY: y}
		return true
	}
	if d.gather.HasTarget(c, world.ResourceFood, d.WalkableFor(c)) || c.CarryingAny() {
		d.pending = Goal{Kind: GoalGather, Resource: world.ResourceFood, TargetX: -1, TargetY: -1}
		return true
	}
	return false
}

// workerDuty: haul to and build active construction sites, falling back to
// stone/wood gathering.
func (d *Director) workerDuty(c *Citizen) bool {
	for _, site := range d.world.Sites() {
		if site.State == world.SiteComplete || site.State == world.SiteCanceled {
			continue
		}
		d.pending = Goal{Kind: GoalBuild, TargetX: site.X, TargetY: site.Y, SiteID: site.ID}
		return true
	}
	walk := d.WalkableFor(c)
	// Mine/gather marks override the default scarcer-bank preference.
	order := []world.ResourceType{world.ResourceStone, world.ResourceWood}
	switch {
	case d.hasMark(world.MarkMine):
	case d.hasMark(world.MarkGather):
		order[0], order[1] = order[1], order[0]
	case d.world.Stockpile.Amount(world.ResourceStone) > d.world.Stockpile.Amount(world.ResourceWood):
		order[0], order[1] = order[1], order[0]
	}
	for _, t := range order {
		if d.gather.HasTarget(c, t, walk) {
			d.pending = Goal{Kind: GoalGather, Resource: t, TargetX: -1, TargetY: -1}
			return true
		}
	}
	return false
}

// warriorDuty: engage detected threats, else patrol near the village (or a
// defend-marked cell).
func (d *Director) warriorDuty(c *Citizen) bool {
	if id, tx, ty, ok := d.threats.NearestThreat(c.X, c.Y, d.combat.ThreatDetectRadius); ok {
		d.pending = Goal{Kind: GoalFight, TargetX: tx, TargetY: ty, ThreatID: id}
		return true
	}
	if id, tx, ty, ok := d.threats.NearestThreat(d.world.VillageX, d.world.VillageY, d.combat.ThreatDetectRadius); ok {
		d.pending = Goal{Kind: GoalFight, TargetX: tx, TargetY: ty, ThreatID: id}
		return true
	}
	if x, y, ok := d.nearestMarked(c, world.MarkDefend); ok {
		d.pending = Goal{Kind: GoalPatrol, TargetX: x, TargetY: y}
		return true
	}
	d.pending = Goal{Kind: GoalPatrol, TargetX: d.world.VillageX, TargetY: d.world.VillageY}
	return true
}

// scoutDuty: move toward explore-marked cells, else roam toward the nearest
// unexplored cell.
func (d *Director) scoutDuty(c *Citizen) bool {
	if x, y, ok := d.nearestMarked(c, world.MarkExplore); ok {
		d.pending = Goal{Kind: GoalExplore, TargetX: x, TargetY: y}
		return true
	}
	if x, y, ok := d.nearestUnexplored(c); ok {
		d.pending = Goal{Kind: GoalExplore, TargetX: x, TargetY: y}
		return true
	}
	return false
}

// childPassive: wander near the village until maturity.
func (d *Director) childPassive(c *Citizen) bool {
	d.pending = Goal{Kind: GoalWander, TargetX: d.world.VillageX, TargetY: d.world.VillageY}
	return true
}

// elderPassive: rest more, work less.
func (d *Director) elderPassive(c *Citizen) bool {
	if c.Fatigue > d.needs.FatigueCritical()/2 {
		d.pending = Goal{Kind: GoalRest, TargetX: c.X, TargetY: c.Y}
		return true
	}
	d.pending = Goal{Kind: GoalWander, TargetX: d.world.VillageX, TargetY: d.world.VillageY}
	return true
}

// nearestFarmCell finds the closest reachable farm-marked cell, either
// harvest-ready or tendable, by path length with (x, y) lexical tie-break.
func (d *Director) nearestFarmCell(c *Citizen, harvestReady bool) (int, int, bool) {
	return d.nearestCell(c, func(cell *world.Cell) bool {
		if cell.Priority != world.MarkFarm || cell.Farm == nil {
			return false
		}
		if harvestReady {
			return cell.Farm.Stage == world.FarmHarvest
		}
		return cell.Farm.Stage != world.FarmHarvest
	})
}

// hasMark reports whether any cell carries the given priority mark.
func (d *Director) hasMark(mark world.PriorityMark) bool {
	for i := range d.world.Cells {
		if d.world.Cells[i].Priority == mark {
			return true
		}
	}
	return false
}

// nearestMarked finds the closest reachable cell carrying a priority mark.
func (d *Director) nearestMarked(c *Citizen, mark world.PriorityMark) (int, int, bool) {
	return d.nearestCell(c, func(cell *world.Cell) bool {
		return cell.Priority == mark
	})
}

// nearestUnexplored finds the closest reachable unexplored land cell.
func (d *Director) nearestUnexplored(c *Citizen) (int, int, bool) {
	walk := d.WalkableFor(c)
	return d.nearestCell(c, func(cell *world.Cell) bool {
		return !cell.Explored && walk(cell.X, cell.Y)
	})
}

// nearestCell is the shared nearest-reachable-by-path-length selector.
func (d *Director) nearestCell(c *Citizen, pred func(*world.Cell) bool) (int, int, bool) {
	type cand struct {
		x, y, cheb int
	}
	var cands []cand
	for i := range d.world.Cells {
		cell := &d.world.Cells[i]
		if !pred(cell) {
			continue
		}
		cands = append(cands, cand{cell.X, cell.Y, world.ChebyshevDist(c.X, c.Y, cell.X, cell.Y)})
	}
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].cheb != cands[j].cheb {
			return cands[i].cheb < cands[j].cheb
		}
		if cands[i].x != cands[j].x {
			return cands[i].x < cands[j].x
		}
		return cands[i].y < cands[j].y
	})

	walk := d.WalkableFor(c)
	bestLen := -1
	bx, by := 0, 0
	for _, cd := range cands {
		if bestLen >= 0 && cd.cheb > bestLen {
			break
		}
		p := world.FindPathAdjacent(d.world.Size, world.Point{X: c.X, Y: c.Y}, world.Point{X: cd.x, Y: cd.y}, walk)
		if p == nil {
			continue
		}
		if bestLen < 0 || len(p) < bestLen ||
			(len(p) == bestLen && (cd.x < bx || (cd.x == bx && cd.y < by))) {
			bestLen = len(p)
			bx, by = cd.x, cd.y
		}
	}
	if bestLen < 0 {
		return 0, 0, false
	}
	return bx, by, true
}
