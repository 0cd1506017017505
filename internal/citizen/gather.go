// The resource collection phase machine: seek → gather → return → deposit.
// One capability shared by every gathering duty (farmer food fallback,
// worker stone/wood fallback), not a per-role copy.
package citizen

import (
	"sort"

	"github.com/talgya/tribelands/internal/config"
	"github.com/talgya/tribelands/internal/world"
)

// GatherPhase is the collection state machine phase.
type GatherPhase uint8

const (
	PhaseSeekResource GatherPhase = iota
	PhaseGather
	PhaseSeekStorage
	PhaseDeposit
)

// GatherState is the per-citizen slice of the phase machine.
type GatherState struct {
	Phase   GatherPhase `json:"phase"`
	TargetX int         `json:"target_x"`
	TargetY int         `json:"target_y"`
}

// CollectionEngine drives the phase machine against the world.
type CollectionEngine struct {
	world  *world.Engine
	cfg    config.GatherConfig
	skills *SkillProgression
}

// NewCollectionEngine wires the gathering capability.
func NewCollectionEngine(w *world.Engine, cfg config.GatherConfig, skills *SkillProgression) *CollectionEngine {
	return &CollectionEngine{world: w, cfg: cfg, skills: skills}
}

// gatherSkill maps a resource to the skill it trains.
func gatherSkill(t world.ResourceType) Skill {
	if t == world.ResourceFood {
		return SkillFarming
	}
	return SkillGathering
}

// HasTarget reports whether any node of the type is reachable from the
// citizen's position. The behavior director consults this before assigning a
// gathering goal.
func (ce *CollectionEngine) HasTarget(c *Citizen, t world.ResourceType, walkable func(x, y int) bool) bool {
	_, _, ok := ce.findNearest(c, t, walkable)
	return ok
}

// findNearest returns the nearest reachable node of the given type by path
// length. Equidistant ties break to the lowest (x, y) lexical coordinate.
func (ce *CollectionEngine) findNearest(c *Citizen, t world.ResourceType, walkable func(x, y int) bool) (world.Point, []world.Point, bool) {
	type cand struct {
		x, y, cheb int
	}
	var cands []cand
	for i := range ce.world.Cells {
		cell := &ce.world.Cells[i]
		if !cell.HasResource(t) {
			continue
		}
		cands = append(cands, cand{cell.X, cell.Y, world.ChebyshevDist(c.X, c.Y, cell.X, cell.Y)})
	}
	// Chebyshev distance lower-bounds path length, so sorting by it lets the
	// scan stop early once no candidate can beat the best path.
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].cheb != cands[j].cheb {
			return cands[i].cheb < cands[j].cheb
		}
		if cands[i].x != cands[j].x {
			return cands[i].x < cands[j].x
		}
		return cands[i].y < cands[j].y
	})

	var bestPath []world.Point
	var best world.Point
	bestLen := -1
	for _, cd := range cands {
		if bestLen >= 0 && cd.cheb > bestLen {
			break
		}
		p := world.FindPathAdjacent(ce.world.Size, world.Point{X: c.X, Y: c.Y}, world.Point{X: cd.x, Y: cd.y}, walkable)
		if p == nil {
			continue
		}
		if bestLen < 0 || len(p) < bestLen ||
			(len(p) == bestLen && (cd.x < best.X || (cd.x == best.X && cd.y < best.Y))) {
			bestLen = len(p)
			bestPath = p
			best = world.Point{X: cd.x, Y: cd.y}
		}
	}
	if bestLen < 0 {
		return world.Point{}, nil, false
	}
	return best, bestPath, true
}

// StepResult reports what the phase machine did this tick.
type StepResult struct {
	NoTarget  bool    // no reachable node of the requested type
	Deposited float64 // units banked this tick
}

// Step advances the phase machine one tick for a citizen whose goal is
// gathering the given resource. Movement itself happens in the navigator;
// Step only transitions phases, applies gather/deposit effects, and
// (re)plans paths.
func (ce *CollectionEngine) Step(c *Citizen, t world.ResourceType, tickHours float64, walkable func(x, y int) bool) StepResult {
	switch c.Gather.Phase {
	case PhaseSeekResource:
		target := world.Point{X: c.Gather.TargetX, Y: c.Gather.TargetY}
		cell := ce.world.GetCell(target.X, target.Y)
		if cell == nil || !cell.HasResource(t) {
			// Pick a new target (first entry, or the previous one was
			// depleted by an earlier citizen).
			tp, path, ok := ce.findNearest(c, t, walkable)
			if !ok {
				return StepResult{NoTarget: true}
			}
			c.Gather.TargetX, c.Gather.TargetY = tp.X, tp.Y
			c.Path = path
			target = tp
		}
		if world.Adjacent(c.X, c.Y, target.X, target.Y) {
			c.Gather.Phase = PhaseGather
			c.Path = nil
		}

	case PhaseGather:
		cell := ce.world.GetCell(c.Gather.TargetX, c.Gather.TargetY)
		room := ce.cfg.CarryCapacity - c.Carrying[t]
		if cell == nil || !cell.HasResource(t) || room <= 0 {
			ce.toStorage(c, walkable)
			break
		}
		rate := ce.cfg.BaseRate * (1 + c.Skills[gatherSkill(t)]*ce.cfg.SkillBonus) * tickHours
		got := ce.world.GatherFromNode(c.Gather.TargetX, c.Gather.TargetY, min(rate, room))
		c.Carrying[t] += got
		ce.skills.Grant(c, gatherSkill(t), got*0.2)
		if c.Carrying[t] >= ce.cfg.CarryCapacity || !cell.HasResource(t) {
			ce.toStorage(c, walkable)
		}

	case PhaseSeekStorage:
		if ce.world.IsStorageAt(c.Gather.TargetX, c.Gather.TargetY) &&
			world.Adjacent(c.X, c.Y, c.Gather.TargetX, c.Gather.TargetY) {
			c.Gather.Phase = PhaseDeposit
			c.Path = nil
			break
		}
		if len(c.Path) == 0 {
			ce.toStorage(c, walkable)
		}

	case PhaseDeposit:
		total := 0.0
		for rt := world.ResourceType(0); rt < world.NumResources; rt++ {
			if c.Carrying[rt] <= 0 {
				continue
			}
			stored := ce.world.Stockpile.Deposit(rt, c.Carrying[rt])
			c.Carrying[rt] -= stored
			total += stored
		}
		// Anything the stockpile had no room for stays in inventory and is
		// retried next tick; otherwise the cycle restarts.
		if !c.CarryingAny() {
			c.Gather.Phase = PhaseSeekResource
			c.Gather.TargetX, c.Gather.TargetY = -1, -1
		}
		return StepResult{Deposited: total}
	}
	return StepResult{}
}

// toStorage flips the machine toward the nearest deposit point.
func (ce *CollectionEngine) toStorage(c *Citizen, walkable func(x, y int) bool) {
	sx, sy, ok := ce.world.NearestStorage(c.X, c.Y)
	if !ok {
		return
	}
	c.Gather.Phase = PhaseSeekStorage
	c.Gather.TargetX, c.Gather.TargetY = sx, sy
	c.Path = world.FindPathAdjacent(ce.world.Size, world.Point{X: c.X, Y: c.Y}, world.Point{X: sx, Y: sy}, walkable)
}

// Reset returns the machine to its initial phase, e.g. when the director
// reassigns the citizen.
func (ce *CollectionEngine) Reset(c *Citizen) {
	c.Gather = GatherState{Phase: PhaseSeekResource, TargetX: -1, TargetY: -1}
}
