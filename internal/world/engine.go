// The world engine owns the cell arena, stockpile, construction sites,
// priority marks, and visibility. Everything above it mutates world state
// through these methods only, which keeps the clamping invariants in one
// place.
package world

import "fmt"

// Climate is the coarse weather state scaling growth and regrowth.
type Climate uint8

const (
	ClimateNormal Climate = iota
	ClimateRain
	ClimateDrought
)

// ClimateName returns a human-readable name for a climate state.
func ClimateName(c Climate) string {
	switch c {
	case ClimateRain:
		return "rain"
	case ClimateDrought:
		return "drought"
	default:
		return "normal"
	}
}

// GrowthFactor scales regrowth and farm progression under this climate.
func (c Climate) GrowthFactor() float64 {
	switch c {
	case ClimateRain:
		return 1.4
	case ClimateDrought:
		return 0.4
	default:
		return 1.0
	}
}

// Result is the outcome of a player-facing mutation. Gameplay failures carry
// a reason instead of an error; nothing here panics or throws.
type Result struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
}

func resultOK() Result { return Result{OK: true} }

func resultFail(reason string) Result { return Result{OK: false, Reason: reason} }

// PlanResult is the outcome of PlanConstruction.
type PlanResult struct {
	Result
	SiteID uint64 `json:"site_id,omitempty"`
}

// CancelResult is the outcome of CancelConstruction.
type CancelResult struct {
	Result
	StoneReturned float64 `json:"stone_returned"`
	WoodReturned  float64 `json:"wood_returned"`
}

// EnvConfig tunes the per-tick environment pass.
type EnvConfig struct {
	FarmGrowthRate  float64 // farm stage progress per sim-hour at fertility 1
	RegrowthMul     float64 // difficulty multiplier on node regrowth
	RainWaterRate   float64 // water collected per sim-hour of rain per well (+1)
	ShrineFaithRate float64 // faith generated per sim-hour per shrine
}

// DefaultEnvConfig returns standard environment tuning.
func DefaultEnvConfig() EnvConfig {
	return EnvConfig{FarmGrowthRate: 0.18, RegrowthMul: 1.0, RainWaterRate: 2.0, ShrineFaithRate: 0.2}
}

// Engine owns all world state.
type Engine struct {
	Size  int
	Cells []Cell

	Stockpile *Stockpile
	Faith     float64

	VillageX int
	VillageY int

	env EnvConfig

	sites      map[uint64]*ConstructionSite
	siteOrder  []uint64
	nextSiteID uint64

	structures map[StructureType]int
	baseCap    [NumResources]float64
}

// NewEngine builds a world from a generated terrain grid, placing resources
// and initializing the stockpile.
func NewEngine(grid *TerrainGrid, resCfg ResourceGenConfig, env EnvConfig) *Engine {
	n := grid.Size * grid.Size
	cells := make([]Cell, n)
	for y := 0; y < grid.Size; y++ {
		for x := 0; x < grid.Size; x++ {
			i := y*grid.Size + x
			cells[i] = Cell{
				X:         x,
				Y:         y,
				Terrain:   grid.Biomes[i],
				Moisture:  grid.Moisture[i],
				Occupants: make(map[uint64]struct{}),
			}
		}
	}
	GenerateResources(grid, cells, resCfg)

	e := &Engine{
		Size:       grid.Size,
		Cells:      cells,
		Stockpile:  NewStockpile(100, 100, 100, 50),
		env:        env,
		sites:      make(map[uint64]*ConstructionSite),
		nextSiteID: 1,
		structures: make(map[StructureType]int),
		VillageX:   -1,
		VillageY:   -1,
	}
	e.baseCap = [NumResources]float64{100, 100, 100, 50}
	return e
}

// RestoreEngine rebuilds an engine from previously saved state. Derived
// bookkeeping (site order, structure counts, capacities) is recomputed from
// the cells and sites rather than trusted from the save.
func RestoreEngine(size int, cells []Cell, stock *Stockpile, faith float64, vx, vy int, sites []*ConstructionSite, env EnvConfig) *Engine {
	e := &Engine{
		Size:       size,
		Cells:      cells,
		Stockpile:  stock,
		Faith:      faith,
		VillageX:   vx,
		VillageY:   vy,
		env:        env,
		sites:      make(map[uint64]*ConstructionSite),
		nextSiteID: 1,
		structures: make(map[StructureType]int),
	}
	e.baseCap = [NumResources]float64{100, 100, 100, 50}
	for i := range e.Cells {
		if e.Cells[i].Occupants == nil {
			e.Cells[i].Occupants = make(map[uint64]struct{})
		}
		if t := e.Cells[i].Structure; t != StructureNone {
			e.structures[t]++
		}
	}
	for _, s := range sites {
		e.sites[s.ID] = s
		e.siteOrder = append(e.siteOrder, s.ID)
		if s.ID >= e.nextSiteID {
			e.nextSiteID = s.ID + 1
		}
	}
	e.recomputeCapacities()
	return e
}

func (e *Engine) idx(x, y int) int { return y*e.Size + x }

// InBounds reports whether (x, y) lies inside the grid.
func (e *Engine) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < e.Size && y < e.Size
}

// GetCell returns the cell at (x, y), or nil for out-of-grid coordinates.
func (e *Engine) GetCell(x, y int) *Cell {
	if !e.InBounds(x, y) {
		return nil
	}
	return &e.Cells[e.idx(x, y)]
}

// ── Priority marks ───────────────────────────────────────────────────

// SetPriorityAt assigns a priority mark to a cell. Entering farm initializes
// the farm task at sow; leaving farm clears it.
func (e *Engine) SetPriorityAt(x, y int, mark PriorityMark) Result {
	c := e.GetCell(x, y)
	if c == nil {
		return resultFail("out of bounds")
	}
	if mark == MarkFarm {
		switch c.Terrain {
		case TerrainOcean, TerrainMountain, TerrainSnow:
			return resultFail(fmt.Sprintf("cannot farm %s", TerrainName(c.Terrain)))
		}
		if c.Farm == nil {
			c.Farm = &FarmTask{Stage: FarmSow}
		}
	} else if c.Priority == MarkFarm {
		c.Farm = nil
	}
	c.Priority = mark
	return resultOK()
}

// ClearPriorityAt removes any priority mark from a cell.
func (e *Engine) ClearPriorityAt(x, y int) Result {
	return e.SetPriorityAt(x, y, MarkNone)
}

// ── Construction ─────────────────────────────────────────────────────

// buildableTerrain is where structures may be placed.
func buildableTerrain(t Terrain) bool {
	switch t {
	case TerrainGrassland, TerrainBeach, TerrainDesert, TerrainTundra, TerrainForest:
		return true
	}
	return false
}

// PlanConstruction validates a build order and, on success, creates a pending
// site and reserves its material costs in the stockpile. Failure leaves the
// stockpile untouched.
func (e *Engine) PlanConstruction(t StructureType, x, y int) PlanResult {
	spec, ok := Spec(t)
	if !ok || t == StructureVillage || t == StructureNone {
		return PlanResult{Result: resultFail("not a buildable structure")}
	}
	c := e.GetCell(x, y)
	if c == nil {
		return PlanResult{Result: resultFail("out of bounds")}
	}
	if !buildableTerrain(c.Terrain) {
		return PlanResult{Result: resultFail(fmt.Sprintf("cannot build on %s", TerrainName(c.Terrain)))}
	}
	if c.Structure != StructureNone {
		return PlanResult{Result: resultFail("cell already has a structure")}
	}
	if c.SiteID != 0 {
		return PlanResult{Result: resultFail("cell already has a construction site")}
	}
	if c.Node != nil && c.Node.Quantity > 0 {
		return PlanResult{Result: resultFail("cell holds a resource node")}
	}
	if !e.Stockpile.Reserve(spec.Stone, spec.Wood) {
		return PlanResult{Result: resultFail("insufficient materials in stockpile")}
	}

	site := &ConstructionSite{
		ID:            e.nextSiteID,
		Type:          t,
		X:             x,
		Y:             y,
		RequiredStone: spec.Stone,
		RequiredWood:  spec.Wood,
		ReservedStone: spec.Stone,
		ReservedWood:  spec.Wood,
		LaborRequired: spec.Labor,
		State:         SitePending,
	}
	e.nextSiteID++
	e.sites[site.ID] = site
	e.siteOrder = append(e.siteOrder, site.ID)
	c.SiteID = site.ID

	return PlanResult{Result: resultOK(), SiteID: site.ID}
}

// CancelConstruction removes a site. With reclaim, the delivered materials go
// back into the stockpile and are reported in the result; the site's
// outstanding reservation is always released.
func (e *Engine) CancelConstruction(id uint64, reclaim bool) CancelResult {
	site, ok := e.sites[id]
	if !ok {
		return CancelResult{Result: resultFail("unknown construction site")}
	}
	if site.State == SiteComplete {
		return CancelResult{Result: resultFail("site already complete")}
	}

	e.Stockpile.Release(site.ReservedStone, site.ReservedWood)
	site.ReservedStone, site.ReservedWood = 0, 0

	res := CancelResult{Result: resultOK()}
	if reclaim {
		res.StoneReturned = site.DeliveredStone
		res.WoodReturned = site.DeliveredWood
		e.Stockpile.Deposit(ResourceStone, site.DeliveredStone)
		e.Stockpile.Deposit(ResourceWood, site.DeliveredWood)
	}

	site.State = SiteCanceled
	e.removeSite(id)
	return res
}

func (e *Engine) removeSite(id uint64) {
	site, ok := e.sites[id]
	if !ok {
		return
	}
	if c := e.GetCell(site.X, site.Y); c != nil && c.SiteID == id {
		c.SiteID = 0
	}
	delete(e.sites, id)
	for i, sid := range e.siteOrder {
		if sid == id {
			e.siteOrder = append(e.siteOrder[:i], e.siteOrder[i+1:]...)
			break
		}
	}
}

// GetConstructionSite returns the site with the given id, or nil.
func (e *Engine) GetConstructionSite(id uint64) *ConstructionSite {
	return e.sites[id]
}

// Sites returns active sites in creation order.
func (e *Engine) Sites() []*ConstructionSite {
	out := make([]*ConstructionSite, 0, len(e.siteOrder))
	for _, id := range e.siteOrder {
		out = append(out, e.sites[id])
	}
	return out
}

// PickupForSite converts up to carry units of the site's outstanding
// reserved materials into carried cargo for a hauling worker. Stone first,
// then wood. Returns the amounts granted.
func (e *Engine) PickupForSite(id uint64, carry float64) (stone, wood float64) {
	site, ok := e.sites[id]
	if !ok || carry <= 0 {
		return 0, 0
	}
	needStone := min(site.RemainingStone(), site.ReservedStone)
	if needStone > 0 {
		stone = e.Stockpile.ConsumeReserved(ResourceStone, min(carry, needStone))
		site.ReservedStone -= stone
		carry -= stone
	}
	needWood := min(site.RemainingWood(), site.ReservedWood)
	if needWood > 0 && carry > 0 {
		wood = e.Stockpile.ConsumeReserved(ResourceWood, min(carry, needWood))
		site.ReservedWood -= wood
	}
	return stone, wood
}

// DeliverToSite adds hauled materials to a site's delivered totals, clamped
// so delivered never exceeds required. Returns the amounts accepted; any
// excess stays with the hauler.
func (e *Engine) DeliverToSite(id uint64, stone, wood float64) (accStone, accWood float64) {
	site, ok := e.sites[id]
	if !ok {
		return 0, 0
	}
	accStone = min(stone, site.RemainingStone())
	accWood = min(wood, site.RemainingWood())
	site.DeliveredStone += accStone
	site.DeliveredWood += accWood
	e.settleReservation(site)
	if site.State == SitePending {
		site.State = SiteInProgress
	}
	return accStone, accWood
}

// settleReservation trims a site's reservation down to what is still needed.
// Deliveries sourced from stockpile pickup already consumed their share, so
// this only releases anything when materials arrived from a hauler's own
// cargo.
func (e *Engine) settleReservation(site *ConstructionSite) {
	if surplus := site.ReservedStone - site.RemainingStone(); surplus > 0 {
		e.Stockpile.Release(surplus, 0)
		site.ReservedStone -= surplus
	}
	if surplus := site.ReservedWood - site.RemainingWood(); surplus > 0 {
		e.Stockpile.Release(0, surplus)
		site.ReservedWood -= surplus
	}
}

// AddLabor applies build work to a site. Labor only counts once materials
// are complete. Returns true when the site finishes, at which point the
// structure stands and capacities are recomputed.
func (e *Engine) AddLabor(id uint64, amount float64) bool {
	site, ok := e.sites[id]
	if !ok || !site.MaterialsComplete() {
		return false
	}
	if site.State == SitePending {
		site.State = SiteInProgress
	}
	site.Labor += amount
	if site.Labor < site.LaborRequired {
		return false
	}
	site.Labor = site.LaborRequired
	site.State = SiteComplete
	e.Stockpile.Release(site.ReservedStone, site.ReservedWood)
	site.ReservedStone, site.ReservedWood = 0, 0

	if c := e.GetCell(site.X, site.Y); c != nil {
		c.Structure = site.Type
	}
	e.structures[site.Type]++
	e.removeSite(id)
	e.recomputeCapacities()
	return true
}

// PlaceVillage puts the village center at (x, y) at world initialization.
func (e *Engine) PlaceVillage(x, y int) {
	c := e.GetCell(x, y)
	if c == nil {
		return
	}
	c.Structure = StructureVillage
	e.structures[StructureVillage]++
	e.VillageX, e.VillageY = x, y
	e.recomputeCapacities()
	e.Explore(x, y, 6)
}

// GetStructureCount returns how many completed structures of a type exist.
func (e *Engine) GetStructureCount(t StructureType) int {
	return e.structures[t]
}

// DefenseBonus sums tower defense within 3 cells of (x, y).
func (e *Engine) DefenseBonus(x, y int) float64 {
	total := 0.0
	for i := range e.Cells {
		c := &e.Cells[i]
		if c.Structure == StructureNone {
			continue
		}
		spec, ok := Spec(c.Structure)
		if !ok || spec.Defense == 0 {
			continue
		}
		if ChebyshevDist(x, y, c.X, c.Y) <= 3 {
			total += spec.Defense
		}
	}
	return total
}

// ── Citizens on the grid ─────────────────────────────────────────────

// AddCitizen registers a citizen on its starting cell.
func (e *Engine) AddCitizen(id uint64, x, y int) {
	if c := e.GetCell(x, y); c != nil {
		c.Occupants[id] = struct{}{}
	}
}

// MoveCitizen updates occupant sets for a one-step move.
func (e *Engine) MoveCitizen(id uint64, fromX, fromY, toX, toY int) {
	if c := e.GetCell(fromX, fromY); c != nil {
		delete(c.Occupants, id)
	}
	if c := e.GetCell(toX, toY); c != nil {
		c.Occupants[id] = struct{}{}
	}
}

// RemoveCitizen clears a citizen from its cell (death or pruning).
func (e *Engine) RemoveCitizen(id uint64, x, y int) {
	if c := e.GetCell(x, y); c != nil {
		delete(c.Occupants, id)
	}
}

// ── Walkability, storage, visibility ─────────────────────────────────

// IsWalkable is the default walkability predicate: inside the grid and not
// ocean or snow. Role-specific predicates wrap this.
func (e *Engine) IsWalkable(x, y int) bool {
	c := e.GetCell(x, y)
	if c == nil {
		return false
	}
	switch c.Terrain {
	case TerrainOcean, TerrainSnow:
		return false
	}
	return true
}

// IsStorageAt reports whether the cell holds a deposit point (village,
// granary, warehouse).
func (e *Engine) IsStorageAt(x, y int) bool {
	c := e.GetCell(x, y)
	if c == nil || c.Structure == StructureNone {
		return false
	}
	spec, ok := Spec(c.Structure)
	return ok && spec.Storage
}

// NearestStorage returns the closest deposit point to (x, y) by grid
// distance, ties broken by lowest (x, y) lexical order.
func (e *Engine) NearestStorage(x, y int) (sx, sy int, ok bool) {
	bestDist := -1
	for i := range e.Cells {
		c := &e.Cells[i]
		if !e.IsStorageAt(c.X, c.Y) {
			continue
		}
		d := ChebyshevDist(x, y, c.X, c.Y)
		if bestDist < 0 || d < bestDist ||
			(d == bestDist && (c.X < sx || (c.X == sx && c.Y < sy))) {
			bestDist = d
			sx, sy = c.X, c.Y
			ok = true
		}
	}
	return sx, sy, ok
}

// Explore marks all cells within radius of (x, y) as visible.
func (e *Engine) Explore(x, y, radius int) {
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if c := e.GetCell(x+dx, y+dy); c != nil {
				c.Explored = true
			}
		}
	}
}

// ExploredFraction returns the share of cells currently visible.
func (e *Engine) ExploredFraction() float64 {
	if len(e.Cells) == 0 {
		return 0
	}
	n := 0
	for i := range e.Cells {
		if e.Cells[i].Explored {
			n++
		}
	}
	return float64(n) / float64(len(e.Cells))
}

// ── Resource access ──────────────────────────────────────────────────

// GatherFromNode extracts up to amount units from the node at (x, y),
// clamping at zero, and returns the amount taken.
func (e *Engine) GatherFromNode(x, y int, amount float64) float64 {
	c := e.GetCell(x, y)
	if c == nil || c.Node == nil || amount <= 0 {
		return 0
	}
	if amount > c.Node.Quantity {
		amount = c.Node.Quantity
	}
	c.Node.Quantity -= amount
	return amount
}

// ── Environment pass ─────────────────────────────────────────────────

// UpdateEnvironment advances the world by tickHours under the given climate:
// capacity recomputation, renewable node regrowth, farm stage progression,
// rain collection, and faith generation. Runs before the citizen population
// each tick.
func (e *Engine) UpdateEnvironment(tickHours float64, climate Climate) {
	e.recomputeCapacities()

	growth := climate.GrowthFactor()

	for i := range e.Cells {
		c := &e.Cells[i]

		if c.Node != nil && c.Node.Renewable && c.Node.Quantity < c.Node.Max {
			c.Node.Quantity += c.Node.Regrowth * tickHours * growth * e.env.RegrowthMul
			if c.Node.Quantity > c.Node.Max {
				c.Node.Quantity = c.Node.Max
			}
		}

		if c.Priority == MarkFarm && c.Farm != nil && c.Farm.Stage != FarmHarvest {
			c.Farm.Progress += e.env.FarmGrowthRate * (0.5 + c.Fertility) * growth * tickHours
			if c.Farm.Progress >= 1 {
				c.Farm.Progress = 0
				c.Farm.Stage++
			}
		}
	}

	if climate == ClimateRain {
		wells := float64(e.structures[StructureWell] + 1)
		e.Stockpile.Deposit(ResourceWater, e.env.RainWaterRate*wells*tickHours)
	}

	e.Faith += e.env.ShrineFaithRate * float64(e.structures[StructureShrine]) * tickHours
}

// structureOrder fixes iteration order over the structure count map so float
// accumulation stays deterministic.
var structureOrder = []StructureType{
	StructureVillage, StructureGranary, StructureWarehouse,
	StructureWell, StructureTower, StructureShrine,
}

// recomputeCapacities derives stockpile capacities from the current
// structure counts.
func (e *Engine) recomputeCapacities() {
	caps := e.baseCap
	for _, t := range structureOrder {
		n := float64(e.structures[t])
		if n == 0 {
			continue
		}
		spec, ok := Spec(t)
		if !ok {
			continue
		}
		caps[ResourceFood] += spec.FoodCap * n
		caps[ResourceWood] += spec.WoodCap * n
		caps[ResourceStone] += spec.StoneCap * n
		caps[ResourceWater] += spec.WaterCap * n
	}
	for t := ResourceType(0); t < NumResources; t++ {
		e.Stockpile.SetCapacity(t, caps[t])
	}
}
