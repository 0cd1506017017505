// The simulation session: the top-level facade the orchestration layer talks
// to. It owns the world engine, citizen system, climate, and threats, applies
// the player's per-tick intent, and exposes read-only snapshots plus a
// drainable visual-event queue.
package sim

import (
	"fmt"
	"log/slog"

	"github.com/talgya/tribelands/internal/citizen"
	"github.com/talgya/tribelands/internal/config"
	"github.com/talgya/tribelands/internal/events"
	"github.com/talgya/tribelands/internal/telemetry"
	"github.com/talgya/tribelands/internal/world"
)

// statsWindow bounds the telemetry history backing trend aggregates.
const statsWindow = 512

// PaintCommand sets or clears a priority mark on one cell.
type PaintCommand struct {
	X, Y  int
	Mark  world.PriorityMark
	Clear bool
}

// ConstructionCommand plans a new site or cancels an existing one.
type ConstructionCommand struct {
	Cancel  bool
	Type    world.StructureType
	X, Y    int
	SiteID  uint64
	Reclaim bool
}

// Intent is the player's input for one tick. Zero value means "no input".
type Intent struct {
	// Priority is the active designation brush; it is recorded in the
	// snapshot for the UI and biases nothing by itself — painting cells
	// requires explicit Paints entries.
	Priority     world.PriorityMark
	Paints       []PaintCommand
	Construction []ConstructionCommand
	RoleTargets  map[citizen.Role]int
	PriorityRole citizen.Role
	TribeID      uint8
}

// Session is the running simulation.
type Session struct {
	cfg *config.Config
	log *slog.Logger

	engine   *world.Engine
	citizens *citizen.CitizenSystem
	threats  *ThreatSystem
	climate  *ClimateModel
	queue    *events.Queue
	stats    *telemetry.Collector

	tick           uint64
	activePriority world.PriorityMark
}

// NewSession builds a fully initialized session: terrain, resources, village
// placement, difficulty-scaled starting stockpile, and starting population.
func NewSession(cfg *config.Config, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	diff := cfg.Difficulty()

	gen := world.GenConfig{
		Size:              cfg.World.Size,
		Seed:              cfg.World.Seed,
		SeaLevel:          cfg.Terrain.SeaLevel,
		MountainLevel:     cfg.Terrain.MountainLevel,
		SnowLevel:         cfg.Terrain.SnowLevel,
		SmoothingPasses:   cfg.Terrain.SmoothingPasses,
		MinMountainRegion: cfg.Terrain.MinMountainRegion,
	}
	grid := world.GenerateTerrain(gen)
	engine := world.NewEngine(grid, world.DefaultResourceGenConfig(cfg.World.Seed), world.EnvConfig{
		FarmGrowthRate:  cfg.Farm.GrowthRate,
		RegrowthMul:     diff.RegrowthMul,
		RainWaterRate:   2.0,
		ShrineFaithRate: cfg.Faith.ShrineRate,
	})

	vx, vy := pickVillageSite(engine)
	engine.PlaceVillage(vx, vy)
	engine.Stockpile.Deposit(world.ResourceFood, diff.StartingFood)
	engine.Stockpile.Deposit(world.ResourceWood, diff.StartingWood)
	engine.Stockpile.Deposit(world.ResourceStone, diff.StartingStone)

	queue := events.NewQueue()
	threats := NewThreatSystem(engine, cfg.Threats, diff.ThreatRateMul, cfg.World.Seed, queue)
	citizens := citizen.NewCitizenSystem(cfg, engine, threats, queue)
	citizens.SpawnStarting()

	s := &Session{
		cfg:      cfg,
		log:      logger,
		engine:   engine,
		citizens: citizens,
		threats:  threats,
		climate:  NewClimateModel(cfg.World.Seed),
		queue:    queue,
		stats:    telemetry.NewCollector(statsWindow),
	}
	s.log.Info("session initialized",
		"size", cfg.World.Size,
		"seed", cfg.World.Seed,
		"difficulty", cfg.World.Difficulty,
		"village_x", vx,
		"village_y", vy,
		"population", citizens.AliveCount())
	return s
}

// pickVillageSite scores buildable land near the map center by surrounding
// fertility and picks the best cell, row-major on ties.
func pickVillageSite(e *world.Engine) (int, int) {
	center := e.Size / 2
	bestScore := -1.0
	bx, by := center, center
	for i := range e.Cells {
		c := &e.Cells[i]
		if c.Terrain != world.TerrainGrassland && c.Terrain != world.TerrainBeach {
			continue
		}
		score := 0.0
		for dy := -2; dy <= 2; dy++ {
			for dx := -2; dx <= 2; dx++ {
				if n := e.GetCell(c.X+dx, c.Y+dy); n != nil {
					score += n.Fertility
				}
			}
		}
		score -= 0.3 * float64(world.ChebyshevDist(c.X, c.Y, center, center))
		if score > bestScore {
			bestScore = score
			bx, by = c.X, c.Y
		}
	}
	return bx, by
}

// Tick returns the number of completed ticks.
func (s *Session) Tick() uint64 { return s.tick }

// World exposes the engine for read-only inspection and direct player
// commands.
func (s *Session) World() *world.Engine { return s.engine }

// CitizenSystem exposes the population for read-only inspection.
func (s *Session) CitizenSystem() *citizen.CitizenSystem { return s.citizens }

// Climate returns the active climate state.
func (s *Session) Climate() world.Climate { return s.climate.Current() }

// Stats exposes the telemetry collector.
func (s *Session) Stats() *telemetry.Collector { return s.stats }

// RunTick advances the simulation by one tickHours step under the given
// player intent.
func (s *Session) RunTick(tickHours float64, intent Intent) {
	s.tick++
	s.applyIntent(intent)

	climate, changed := s.climate.Advance()
	if changed {
		s.queue.Append(events.Event{
			Tick:    s.tick,
			Kind:    events.KindClimate,
			Message: fmt.Sprintf("the weather turned to %s", world.ClimateName(climate)),
			X:       s.engine.VillageX,
			Y:       s.engine.VillageY,
		})
		s.log.Info("climate changed", "tick", s.tick, "climate", world.ClimateName(climate))
	}

	s.engine.UpdateEnvironment(tickHours, climate)
	bornBefore := s.citizens.NextID()
	s.threats.Tick(s.tick, tickHours, s.citizens.Citizens())
	s.citizens.Tick(s.tick, tickHours)
	s.convertFaith()
	s.record(climate, int(s.citizens.NextID()-bornBefore))

	if s.tick%24 == 0 {
		s.log.Info("daily report",
			"tick", s.tick,
			"population", s.citizens.AliveCount(),
			"food", s.engine.Stockpile.Amount(world.ResourceFood),
			"wood", s.engine.Stockpile.Amount(world.ResourceWood),
			"stone", s.engine.Stockpile.Amount(world.ResourceStone),
			"faith", s.engine.Faith,
			"climate", world.ClimateName(climate))
	}
}

func (s *Session) applyIntent(intent Intent) {
	if intent.Priority != world.MarkNone {
		s.activePriority = intent.Priority
	}
	for _, p := range intent.Paints {
		var res world.Result
		if p.Clear {
			res = s.engine.ClearPriorityAt(p.X, p.Y)
		} else {
			res = s.engine.SetPriorityAt(p.X, p.Y, p.Mark)
		}
		if !res.OK {
			s.log.Warn("priority paint rejected", "x", p.X, "y", p.Y, "reason", res.Reason)
		}
	}
	for _, c := range intent.Construction {
		if c.Cancel {
			res := s.engine.CancelConstruction(c.SiteID, c.Reclaim)
			if !res.OK {
				s.log.Warn("cancel rejected", "site", c.SiteID, "reason", res.Reason)
			}
			continue
		}
		res := s.engine.PlanConstruction(c.Type, c.X, c.Y)
		if !res.OK {
			s.log.Warn("construction rejected",
				"type", world.StructureName(c.Type), "x", c.X, "y", c.Y, "reason", res.Reason)
		}
	}
	if intent.RoleTargets != nil {
		s.citizens.RebalanceRoles(intent.RoleTargets, intent.TribeID, intent.PriorityRole)
	}
}

// convertFaith spends accumulated faith on blessings for the lowest-morale
// citizens.
func (s *Session) convertFaith() {
	for s.engine.Faith >= s.cfg.Faith.BlessingCost {
		if !s.citizens.BlessLowestMorale(s.tick, s.cfg.Faith.BlessingYears) {
			return
		}
		s.engine.Faith -= s.cfg.Faith.BlessingCost
	}
}

func (s *Session) record(climate world.Climate, births int) {
	deaths := 0
	for _, c := range s.citizens.Citizens() {
		if !c.Alive() && c.DiedTick == s.tick {
			deaths++
		}
	}
	s.stats.Record(telemetry.SimStats{
		Tick:       s.tick,
		Population: s.citizens.AliveCount(),
		Births:     births,
		Deaths:     deaths,
		Food:       s.engine.Stockpile.Amount(world.ResourceFood),
		Wood:       s.engine.Stockpile.Amount(world.ResourceWood),
		Stone:      s.engine.Stockpile.Amount(world.ResourceStone),
		Water:      s.engine.Stockpile.Amount(world.ResourceWater),
		Faith:      s.engine.Faith,
		Structures: s.structureTotal(),
		Climate:    world.ClimateName(climate),
		Explored:   s.engine.ExploredFraction(),
	})
}

func (s *Session) structureTotal() int {
	total := 0
	for t := world.StructureVillage; t <= world.StructureShrine; t++ {
		total += s.engine.GetStructureCount(t)
	}
	return total
}

// ConsumeVisualEvents drains every event produced since the last call.
func (s *Session) ConsumeVisualEvents() []events.Event {
	return s.queue.Drain()
}

// PlanConstruction forwards the player command to the engine.
func (s *Session) PlanConstruction(t world.StructureType, x, y int) world.PlanResult {
	return s.engine.PlanConstruction(t, x, y)
}

// CancelConstruction forwards the player command to the engine.
func (s *Session) CancelConstruction(id uint64, reclaim bool) world.CancelResult {
	return s.engine.CancelConstruction(id, reclaim)
}

// SetPriorityAt forwards the player command to the engine.
func (s *Session) SetPriorityAt(x, y int, mark world.PriorityMark) world.Result {
	return s.engine.SetPriorityAt(x, y, mark)
}

// ClearPriorityAt forwards the player command to the engine.
func (s *Session) ClearPriorityAt(x, y int) world.Result {
	return s.engine.ClearPriorityAt(x, y)
}

// RebalanceRoles forwards the player command to the citizen system and
// returns the feasible assignment.
func (s *Session) RebalanceRoles(targets map[citizen.Role]int, tribeID uint8, priority citizen.Role) map[citizen.Role]int {
	return s.citizens.RebalanceRoles(targets, tribeID, priority)
}

// Snapshot is a read-only summary of session state for the UI and API.
type Snapshot struct {
	Tick           uint64             `json:"tick"`
	Climate        string             `json:"climate"`
	Faith          float64            `json:"faith"`
	Population     int                `json:"population"`
	PopulationCap  int                `json:"population_cap"`
	Stockpile      map[string]float64 `json:"stockpile"`
	Capacity       map[string]float64 `json:"capacity"`
	Explored       float64            `json:"explored"`
	ActivePriority string             `json:"active_priority"`
	FoodTrend      telemetry.Trend    `json:"food_trend"`
	PopTrend       telemetry.Trend    `json:"population_trend"`
}

// Snapshot assembles the current read-only summary.
func (s *Session) Snapshot() Snapshot {
	stock := make(map[string]float64, world.NumResources)
	capacity := make(map[string]float64, world.NumResources)
	for t := world.ResourceType(0); t < world.NumResources; t++ {
		stock[world.ResourceName(t)] = s.engine.Stockpile.Amount(t)
		capacity[world.ResourceName(t)] = s.engine.Stockpile.Capacity[t]
	}
	return Snapshot{
		Tick:           s.tick,
		Climate:        world.ClimateName(s.climate.Current()),
		Faith:          s.engine.Faith,
		Population:     s.citizens.AliveCount(),
		PopulationCap:  s.citizens.PopulationCap(),
		Stockpile:      stock,
		Capacity:       capacity,
		Explored:       s.engine.ExploredFraction(),
		ActivePriority: world.MarkName(s.activePriority),
		FoodTrend:      s.stats.FoodTrend(),
		PopTrend:       s.stats.PopulationTrend(),
	}
}
