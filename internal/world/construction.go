// Structure catalog and construction site bookkeeping.
package world

// StructureType enumerates buildable structures.
type StructureType uint8

const (
	StructureNone StructureType = iota
	StructureVillage
	StructureGranary
	StructureWarehouse
	StructureWell
	StructureTower
	StructureShrine
)

// StructureName returns a human-readable name for a structure type.
func StructureName(t StructureType) string {
	switch t {
	case StructureVillage:
		return "village"
	case StructureGranary:
		return "granary"
	case StructureWarehouse:
		return "warehouse"
	case StructureWell:
		return "well"
	case StructureTower:
		return "tower"
	case StructureShrine:
		return "shrine"
	default:
		return "none"
	}
}

// ParseStructure resolves a structure name. Unknown names map to
// StructureNone.
func ParseStructure(name string) StructureType {
	switch name {
	case "village":
		return StructureVillage
	case "granary":
		return StructureGranary
	case "warehouse":
		return StructureWarehouse
	case "well":
		return StructureWell
	case "tower":
		return StructureTower
	case "shrine":
		return StructureShrine
	default:
		return StructureNone
	}
}

// StructureSpec describes a structure's cost and effect.
type StructureSpec struct {
	Stone float64
	Wood  float64
	Labor float64

	// Per-structure capacity bonuses applied by the engine's capacity pass.
	FoodCap  float64
	WoodCap  float64
	StoneCap float64
	WaterCap float64

	Defense float64 // defense bonus near the structure

	Storage bool // counts as a deposit point for gatherers
}

// structureSpecs is the build catalog. The village itself is placed at world
// init and is not player-buildable, so it carries no cost.
var structureSpecs = map[StructureType]StructureSpec{
	StructureVillage:   {FoodCap: 60, WoodCap: 60, StoneCap: 60, WaterCap: 30, Storage: true},
	StructureGranary:   {Stone: 10, Wood: 15, Labor: 30, FoodCap: 150, Storage: true},
	StructureWarehouse: {Stone: 15, Wood: 20, Labor: 40, WoodCap: 150, StoneCap: 150, Storage: true},
	StructureWell:      {Stone: 12, Wood: 4, Labor: 20, WaterCap: 100},
	StructureTower:     {Stone: 25, Wood: 10, Labor: 50, Defense: 10},
	StructureShrine:    {Stone: 20, Wood: 12, Labor: 45},
}

// Spec returns the build catalog entry for a structure type.
func Spec(t StructureType) (StructureSpec, bool) {
	s, ok := structureSpecs[t]
	return s, ok
}

// SiteState tracks a construction site's lifecycle.
type SiteState uint8

const (
	SitePending SiteState = iota
	SiteInProgress
	SiteComplete
	SiteCanceled
)

// ConstructionSite is an in-progress building placement. Delivered totals
// never exceed the required totals; Labor never exceeds LaborRequired.
type ConstructionSite struct {
	ID   uint64        `json:"id"`
	Type StructureType `json:"type"`
	X    int           `json:"x"`
	Y    int           `json:"y"`

	RequiredStone  float64 `json:"required_stone"`
	RequiredWood   float64 `json:"required_wood"`
	DeliveredStone float64 `json:"delivered_stone"`
	DeliveredWood  float64 `json:"delivered_wood"`

	// ReservedStone/ReservedWood are the share of the stockpile reservation
	// this site still holds. Pickup consumes it; deliveries from a hauler's
	// own cargo shrink the need instead, and the surplus is released.
	ReservedStone float64 `json:"reserved_stone"`
	ReservedWood  float64 `json:"reserved_wood"`

	Labor         float64 `json:"labor"`
	LaborRequired float64 `json:"labor_required"`

	State SiteState `json:"state"`
}

// MaterialsComplete reports whether all required materials have arrived.
func (s *ConstructionSite) MaterialsComplete() bool {
	return s.DeliveredStone >= s.RequiredStone && s.DeliveredWood >= s.RequiredWood
}

// RemainingStone returns the undelivered stone requirement.
func (s *ConstructionSite) RemainingStone() float64 {
	return s.RequiredStone - s.DeliveredStone
}

// RemainingWood returns the undelivered wood requirement.
func (s *ConstructionSite) RemainingWood() float64 {
	return s.RequiredWood - s.DeliveredWood
}
