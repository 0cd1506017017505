// Goal execution: the per-tick effects of whatever the director decided.
// Movement is the navigator's job; the executor plans paths, applies work
// when the citizen is in range, and reports notable outcomes as events.
package citizen

import (
	"fmt"

	"github.com/talgya/tribelands/internal/config"
	"github.com/talgya/tribelands/internal/events"
	"github.com/talgya/tribelands/internal/world"
)

// EventSink receives notable occurrences. *events.Queue satisfies it.
type EventSink interface {
	Append(e events.Event)
}

// nullSink drops events; used when the caller does not care.
type nullSink struct{}

func (nullSink) Append(events.Event) {}

const (
	// hungerPerFood is the hunger relief per unit of food eaten.
	hungerPerFood = 10.0
	// buildLaborRate is base labor applied per sim-hour of construction work.
	buildLaborRate = 2.0
	// scoutRevealRadius is how far a scout reveals around itself as it moves.
	scoutRevealRadius = 2
)

// Executor applies goal effects each tick.
type Executor struct {
	world   *world.Engine
	gather  *CollectionEngine
	skills  *SkillProgression
	threats ThreatSource
	combat  config.CombatConfig
	farm    config.FarmConfig
	events  EventSink
}

// NewExecutor wires the goal execution stage.
func NewExecutor(w *world.Engine, g *CollectionEngine, skills *SkillProgression, threats ThreatSource, combat config.CombatConfig, farm config.FarmConfig, sink EventSink) *Executor {
	if threats == nil {
		threats = noThreats{}
	}
	if sink == nil {
		sink = nullSink{}
	}
	return &Executor{world: w, gather: g, skills: skills, threats: threats, combat: combat, farm: farm, events: sink}
}

// Execute applies one tick of the citizen's current goal.
func (ex *Executor) Execute(c *Citizen, tick uint64, tickHours float64) {
	switch c.Goal.Kind {
	case GoalGather:
		res := ex.gather.Step(c, c.Goal.Resource, tickHours, roleWalkable(ex.world, c))
		if res.NoTarget && !c.CarryingAny() {
			c.Goal = Goal{Kind: GoalIdle, TargetX: c.X, TargetY: c.Y}
		}
	case GoalFarm:
		ex.execFarm(c, tick, tickHours)
	case GoalBuild:
		ex.execBuild(c, tick, tickHours)
	case GoalEat:
		ex.execEat(c)
	case GoalFight:
		ex.execFight(c, tick, tickHours)
	case GoalExplore:
		ex.execExplore(c, tickHours)
	case GoalFlee, GoalPatrol, GoalWander:
		ex.ensurePath(c, c.Goal.TargetX, c.Goal.TargetY)
	case GoalRest, GoalIdle:
		// Recovery and idleness are handled by the needs simulator.
	}

	if c.Role == RoleScout {
		ex.world.Explore(c.X, c.Y, scoutRevealRadius)
	}
}

// ensurePath plans a route to (adjacent to) the target when none exists.
func (ex *Executor) ensurePath(c *Citizen, tx, ty int) {
	if world.Adjacent(c.X, c.Y, tx, ty) || len(c.Path) > 0 {
		return
	}
	c.Path = world.FindPathAdjacent(ex.world.Size, world.Point{X: c.X, Y: c.Y}, world.Point{X: tx, Y: ty}, roleWalkable(ex.world, c))
}

func (ex *Executor) execFarm(c *Citizen, tick uint64, tickHours float64) {
	cell := ex.world.GetCell(c.Goal.TargetX, c.Goal.TargetY)
	if cell == nil || cell.Priority != world.MarkFarm || cell.Farm == nil {
		c.Goal = Goal{Kind: GoalIdle, TargetX: c.X, TargetY: c.Y}
		return
	}
	if !c.AtTarget() {
		ex.ensurePath(c, c.Goal.TargetX, c.Goal.TargetY)
		return
	}
	if cell.Farm.Stage == world.FarmHarvest {
		yield := ex.farm.HarvestYield * (0.5 + cell.Fertility) * ex.skills.Bonus(c, SkillFarming)
		stored := ex.world.Stockpile.Deposit(world.ResourceFood, yield)
		cell.Farm.Stage = world.FarmSow
		cell.Farm.Progress = 0
		ex.skills.Grant(c, SkillFarming, 2)
		ex.events.Append(events.Event{
			Tick:      tick,
			Kind:      events.KindHarvest,
			Message:   fmt.Sprintf("%s harvested %.1f food", c.Name, stored),
			X:         cell.X,
			Y:         cell.Y,
			CitizenID: c.ID,
		})
		return
	}
	// Tending accelerates the passive stage progression.
	cell.Farm.Progress += ex.farm.TendBonus * tickHours
	ex.skills.Grant(c, SkillFarming, 0.2*tickHours)
}

func (ex *Executor) execBuild(c *Citizen, tick uint64, tickHours float64) {
	site := ex.world.GetConstructionSite(c.Goal.SiteID)
	if site == nil || site.State == world.SiteComplete || site.State == world.SiteCanceled {
		c.Goal = Goal{Kind: GoalIdle, TargetX: c.X, TargetY: c.Y}
		return
	}

	if !site.MaterialsComplete() {
		carryingMat := c.Carrying[world.ResourceStone] > 0 || c.Carrying[world.ResourceWood] > 0
		if !carryingMat {
			sx, sy, ok := ex.world.NearestStorage(c.X, c.Y)
			if !ok {
				c.Goal = Goal{Kind: GoalIdle, TargetX: c.X, TargetY: c.Y}
				return
			}
			if !world.Adjacent(c.X, c.Y, sx, sy) {
				ex.ensurePath(c, sx, sy)
				return
			}
			stone, wood := ex.world.PickupForSite(site.ID, c.CarryCap)
			c.Carrying[world.ResourceStone] += stone
			c.Carrying[world.ResourceWood] += wood
			if stone == 0 && wood == 0 {
				// Nothing reserved remains to haul; wait for labor phase.
				return
			}
			c.Path = nil
		}
		if !world.Adjacent(c.X, c.Y, site.X, site.Y) {
			ex.ensurePath(c, site.X, site.Y)
			return
		}
		accStone, accWood := ex.world.DeliverToSite(site.ID, c.Carrying[world.ResourceStone], c.Carrying[world.ResourceWood])
		c.Carrying[world.ResourceStone] -= accStone
		c.Carrying[world.ResourceWood] -= accWood
		return
	}

	if !world.Adjacent(c.X, c.Y, site.X, site.Y) {
		ex.ensurePath(c, site.X, site.Y)
		return
	}
	labor := buildLaborRate * ex.skills.Bonus(c, SkillBuilding) * tickHours
	done := ex.world.AddLabor(site.ID, labor)
	ex.skills.Grant(c, SkillBuilding, labor*0.5)
	if done {
		ex.events.Append(events.Event{
			Tick:      tick,
			Kind:      events.KindStructure,
			Message:   fmt.Sprintf("%s completed at (%d, %d)", world.StructureName(site.Type), site.X, site.Y),
			X:         site.X,
			Y:         site.Y,
			CitizenID: c.ID,
		})
		c.Goal = Goal{Kind: GoalIdle, TargetX: c.X, TargetY: c.Y}
	}
}

func (ex *Executor) execEat(c *Citizen) {
	if !c.AtTarget() {
		ex.ensurePath(c, c.Goal.TargetX, c.Goal.TargetY)
		return
	}
	want := c.Hunger / hungerPerFood
	got := ex.world.Stockpile.Withdraw(world.ResourceFood, want)
	if got <= 0 {
		c.Goal = Goal{Kind: GoalIdle, TargetX: c.X, TargetY: c.Y}
		return
	}
	c.Hunger -= got * hungerPerFood
	if c.Hunger < 0 {
		c.Hunger = 0
	}
	c.Morale = clamp100(c.Morale + 5)
}

func (ex *Executor) execFight(c *Citizen, tick uint64, tickHours float64) {
	tx, ty, ok := ex.threats.ThreatPosition(c.Goal.ThreatID)
	if !ok {
		c.Goal = Goal{Kind: GoalIdle, TargetX: c.X, TargetY: c.Y}
		return
	}
	// Threats move; chase the live position.
	if tx != c.Goal.TargetX || ty != c.Goal.TargetY {
		c.Goal.TargetX, c.Goal.TargetY = tx, ty
		c.Path = nil
	}
	if !world.Adjacent(c.X, c.Y, tx, ty) {
		ex.ensurePath(c, tx, ty)
		return
	}
	damage := ex.combat.CitizenDamage
	if c.Role == RoleWarrior {
		damage = ex.combat.WarriorDamage
	}
	damage *= ex.skills.Bonus(c, SkillCombat) * tickHours
	remaining, struck := ex.threats.StrikeThreat(c.Goal.ThreatID, damage)
	if !struck {
		c.Goal = Goal{Kind: GoalIdle, TargetX: c.X, TargetY: c.Y}
		return
	}
	ex.skills.Grant(c, SkillCombat, damage*0.3)
	if remaining <= 0 {
		ex.events.Append(events.Event{
			Tick:      tick,
			Kind:      events.KindCombat,
			Message:   fmt.Sprintf("%s slew a threat at (%d, %d)", c.Name, tx, ty),
			X:         tx,
			Y:         ty,
			CitizenID: c.ID,
		})
		c.Goal = Goal{Kind: GoalIdle, TargetX: c.X, TargetY: c.Y}
	}
}

func (ex *Executor) execExplore(c *Citizen, tickHours float64) {
	if !c.AtTarget() {
		ex.ensurePath(c, c.Goal.TargetX, c.Goal.TargetY)
		return
	}
	ex.world.Explore(c.Goal.TargetX, c.Goal.TargetY, scoutRevealRadius)
	ex.skills.Grant(c, SkillScouting, tickHours)
	cell := ex.world.GetCell(c.Goal.TargetX, c.Goal.TargetY)
	if cell != nil && cell.Priority == world.MarkExplore {
		ex.world.ClearPriorityAt(cell.X, cell.Y)
	}
	c.Goal = Goal{Kind: GoalIdle, TargetX: c.X, TargetY: c.Y}
}
