// Population orchestration: spawning, the per-citizen tick pipeline, births,
// maturation, death handling, and role rebalancing. Citizens are processed in
// ascending id order so same-tick resource contention resolves identically on
// every run with the same seed.
package citizen

import (
	"fmt"
	"math/rand"

	"github.com/talgya/tribelands/internal/config"
	"github.com/talgya/tribelands/internal/events"
	"github.com/talgya/tribelands/internal/world"
)

// namePrefixes and nameSuffixes combine into citizen names.
var namePrefixes = []string{
	"Bel", "Dar", "Ela", "Fen", "Gor", "Hala", "Ira", "Jor",
	"Kel", "Lira", "Mor", "Nia", "Ode", "Pria", "Run", "Sela",
	"Tor", "Ula", "Vor", "Wen",
}

var nameSuffixes = []string{
	"an", "eth", "ira", "oth", "une", "ar", "iel", "os",
	"wyn", "ek", "ala", "orn",
}

// CitizenSystem owns the population and runs its per-tick pipeline.
type CitizenSystem struct {
	cfg    *config.Config
	world  *world.Engine
	events EventSink

	needs    *NeedsSimulator
	skills   *SkillProgression
	gather   *CollectionEngine
	director *Director
	nav      *Navigator
	exec     *Executor

	// citizens stays sorted by ascending id; index maps id to slice position.
	citizens []*Citizen
	index    map[uint64]int
	nextID   uint64

	rng *rand.Rand
}

// NewCitizenSystem wires the population pipeline over a world.
func NewCitizenSystem(cfg *config.Config, w *world.Engine, threats ThreatSource, sink EventSink) *CitizenSystem {
	if sink == nil {
		sink = nullSink{}
	}
	diff := cfg.Difficulty()
	skills := NewSkillProgression()
	needs := NewNeedsSimulator(cfg.Needs, diff.HungerRateMul)
	gather := NewCollectionEngine(w, cfg.Gather, skills)
	s := &CitizenSystem{
		cfg:      cfg,
		world:    w,
		events:   sink,
		needs:    needs,
		skills:   skills,
		gather:   gather,
		director: NewDirector(w, gather, needs, threats, cfg.Combat),
		nav:      NewNavigator(w),
		exec:     NewExecutor(w, gather, skills, threats, cfg.Combat, cfg.Farm, sink),
		index:    make(map[uint64]int),
		nextID:   1,
		rng:      rand.New(rand.NewSource(cfg.World.Seed + 300)),
	}
	return s
}

// Restore replaces the population with previously saved citizens, reregisters
// the living with the world's occupant sets, and resumes id assignment.
func (s *CitizenSystem) Restore(citizens []*Citizen, nextID uint64) {
	s.citizens = citizens
	s.index = make(map[uint64]int, len(citizens))
	for i, c := range citizens {
		s.index[c.ID] = i
		if c.Alive() {
			s.world.AddCitizen(c.ID, c.X, c.Y)
		}
		if c.ID >= nextID {
			nextID = c.ID + 1
		}
	}
	s.nextID = nextID
}

// startingRoleOrder fixes the spawn order of the starting population.
var startingRoleOrder = []Role{RoleWorker, RoleFarmer, RoleWarrior, RoleScout, RoleChild, RoleElder}

// SpawnStarting creates the configured starting population at the village.
func (s *CitizenSystem) SpawnStarting() {
	for _, role := range startingRoleOrder {
		n := s.cfg.Population.Starting[RoleName(role)]
		for i := 0; i < n; i++ {
			s.Spawn(role, s.world.VillageX, s.world.VillageY)
		}
	}
}

// Spawn creates one citizen at (x, y) and registers it with the world.
func (s *CitizenSystem) Spawn(role Role, x, y int) *Citizen {
	name := namePrefixes[s.rng.Intn(len(namePrefixes))] + nameSuffixes[s.rng.Intn(len(nameSuffixes))]
	age := s.needs.MaturityAge() + s.rng.Float64()*20
	switch role {
	case RoleChild:
		age = s.rng.Float64() * s.needs.MaturityAge()
	case RoleElder:
		age = s.needs.ElderAge() + s.rng.Float64()*8
	}
	c := &Citizen{
		ID:       s.nextID,
		Name:     name,
		X:        x,
		Y:        y,
		Role:     role,
		State:    StateAlive,
		Age:      age,
		Health:   100,
		Morale:   s.cfg.Needs.MoraleBaseline,
		CarryCap: s.cfg.Gather.CarryCapacity,
		Goal:     Goal{Kind: GoalIdle, TargetX: x, TargetY: y},
		Gather:   GatherState{Phase: PhaseSeekResource, TargetX: -1, TargetY: -1},
	}
	s.nextID++
	s.index[c.ID] = len(s.citizens)
	s.citizens = append(s.citizens, c)
	s.world.AddCitizen(c.ID, x, y)
	return c
}

// Citizens returns the population in ascending id order, dead included until
// pruned.
func (s *CitizenSystem) Citizens() []*Citizen { return s.citizens }

// NextID returns the id the next spawn will receive. The delta across a tick
// is the tick's birth count.
func (s *CitizenSystem) NextID() uint64 { return s.nextID }

// Get returns a citizen by id, or nil.
func (s *CitizenSystem) Get(id uint64) *Citizen {
	i, ok := s.index[id]
	if !ok {
		return nil
	}
	return s.citizens[i]
}

// AliveCount returns the number of living citizens.
func (s *CitizenSystem) AliveCount() int {
	n := 0
	for _, c := range s.citizens {
		if c.Alive() {
			n++
		}
	}
	return n
}

// PopulationCap returns the current birth ceiling: a base plus a bonus per
// granary.
func (s *CitizenSystem) PopulationCap() int {
	return s.cfg.Population.BaseCap +
		s.cfg.Population.MaxPerGranary*s.world.GetStructureCount(world.StructureGranary)
}

// Tick runs the full population pipeline for one tick.
func (s *CitizenSystem) Tick(tick uint64, tickHours float64) {
	wasAlive := s.AliveCount()

	for _, c := range s.citizens {
		if !c.Alive() {
			continue
		}
		if s.needs.Tick(c, tickHours) {
			c.DiedTick = tick
			s.world.RemoveCitizen(c.ID, c.X, c.Y)
			s.events.Append(events.Event{
				Tick:      tick,
				Kind:      events.KindDeath,
				Message:   fmt.Sprintf("%s died at age %.0f", c.Name, c.Age),
				X:         c.X,
				Y:         c.Y,
				CitizenID: c.ID,
			})
			continue
		}
		s.mature(c)
		s.director.Decide(c)
		s.nav.Step(c)
		s.exec.Execute(c, tick, tickHours)
	}

	s.births(tick, tickHours)
	s.prune(tick)

	if wasAlive > 0 && s.AliveCount() == 0 {
		s.events.Append(events.Event{
			Tick:    tick,
			Kind:    events.KindExtinction,
			Message: "the last citizen has died",
			X:       s.world.VillageX,
			Y:       s.world.VillageY,
		})
	}
}

// mature promotes children to workers and retires adults to elders.
func (s *CitizenSystem) mature(c *Citizen) {
	if c.Role == RoleChild && c.Age >= s.needs.MaturityAge() {
		c.Role = RoleWorker
		return
	}
	if c.Role.Assignable() && c.Age >= s.needs.ElderAge() {
		c.Role = RoleElder
	}
}

// births spawns at most one child per tick when food reserves and the
// population cap allow.
func (s *CitizenSystem) births(tick uint64, tickHours float64) {
	if s.world.Stockpile.Amount(world.ResourceFood) < s.cfg.Population.BirthFoodReserve {
		return
	}
	if s.AliveCount() >= s.PopulationCap() {
		return
	}
	if s.rng.Float64() >= s.cfg.Population.BirthChance*tickHours {
		return
	}
	c := s.Spawn(RoleChild, s.world.VillageX, s.world.VillageY)
	c.Age = 0
	s.events.Append(events.Event{
		Tick:      tick,
		Kind:      events.KindBirth,
		Message:   fmt.Sprintf("%s was born", c.Name),
		X:         c.X,
		Y:         c.Y,
		CitizenID: c.ID,
	})
}

// prune drops citizens dead for longer than the configured retention.
func (s *CitizenSystem) prune(tick uint64) {
	keep := s.citizens[:0]
	for _, c := range s.citizens {
		if !c.Alive() && tick-c.DiedTick >= s.cfg.Population.PruneAfterTicks {
			delete(s.index, c.ID)
			continue
		}
		keep = append(keep, c)
	}
	s.citizens = keep
	for i, c := range s.citizens {
		s.index[c.ID] = i
	}
}

// rebalanceOrder fixes the fill order of role reassignment.
var rebalanceOrder = []Role{RoleWorker, RoleFarmer, RoleWarrior, RoleScout}

// RebalanceRoles reassigns the tribe's assignable citizens toward the
// requested role counts and returns the feasible assignment. Citizens already
// in a wanted role keep it (lowest ids first); surplus citizens move to
// deficit roles, the priority role filled first. When the targets exceed the
// assignable population they are scaled down proportionally. Citizens beyond
// the targeted total keep their roles.
func (s *CitizenSystem) RebalanceRoles(targets map[Role]int, tribeID uint8, priority Role) map[Role]int {
	var pool []*Citizen
	for _, c := range s.citizens {
		if c.Alive() && c.TribeID == tribeID && c.Role.Assignable() {
			pool = append(pool, c)
		}
	}
	n := len(pool)
	if n == 0 {
		return map[Role]int{}
	}

	want := make(map[Role]int, len(rebalanceOrder))
	total := 0
	for _, r := range rebalanceOrder {
		t := targets[r]
		if t < 0 {
			t = 0
		}
		want[r] = t
		total += t
	}
	if total > n {
		scaled := 0
		for _, r := range rebalanceOrder {
			want[r] = want[r] * n / total
			scaled += want[r]
		}
		// Hand out the rounding remainder, priority role first.
		fill := append([]Role{priority}, rebalanceOrder...)
		for scaled < n {
			progressed := false
			for _, r := range fill {
				if scaled >= n {
					break
				}
				if targets[r] > want[r] {
					want[r]++
					scaled++
					progressed = true
				}
			}
			if !progressed {
				break
			}
		}
	}

	// Stability pass: citizens already in a wanted role stay put.
	assigned := make(map[Role]int, len(rebalanceOrder))
	var movable []*Citizen
	for _, c := range pool {
		if assigned[c.Role] < want[c.Role] {
			assigned[c.Role]++
		} else {
			movable = append(movable, c)
		}
	}

	fill := []Role{priority}
	for _, r := range rebalanceOrder {
		if r != priority {
			fill = append(fill, r)
		}
	}
	i := 0
	for _, r := range fill {
		for assigned[r] < want[r] && i < len(movable) {
			movable[i].Role = r
			assigned[r]++
			i++
		}
	}
	// Citizens beyond the targeted total keep their current roles but still
	// count toward the returned assignment.
	for _, c := range movable[i:] {
		assigned[c.Role]++
	}
	return assigned
}

// BlessLowestMorale grants a blessing to the living citizen with the lowest
// morale (lowest id on ties). Returns false when no one is alive.
func (s *CitizenSystem) BlessLowestMorale(tick uint64, years float64) bool {
	var target *Citizen
	for _, c := range s.citizens {
		if !c.Alive() {
			continue
		}
		if target == nil || c.Morale < target.Morale {
			target = c
		}
	}
	if target == nil {
		return false
	}
	target.BlessedUntilAge = target.Age + years
	target.Morale = clamp100(target.Morale + s.cfg.Faith.MoraleBonus)
	s.events.Append(events.Event{
		Tick:      tick,
		Kind:      events.KindBlessing,
		Message:   fmt.Sprintf("%s received a blessing", target.Name),
		X:         target.X,
		Y:         target.Y,
		CitizenID: target.ID,
	})
	return true
}
