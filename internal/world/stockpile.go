// The tribe's shared resource bank. All counters stay within [0, capacity];
// deposits and withdrawals clamp rather than fail hard, and reserved amounts
// (pending construction deliveries) cannot be withdrawn by other consumers.
package world

// Stockpile holds the tribe's banked resources.
type Stockpile struct {
	Amounts  [NumResources]float64 `json:"amounts"`
	Capacity [NumResources]float64 `json:"capacity"`

	// Reserved earmarks stone/wood for planned construction. Reserved units
	// remain counted in Amounts but are unavailable to Withdraw.
	Reserved [NumResources]float64 `json:"reserved"`
}

// NewStockpile creates a stockpile with the given base capacities.
func NewStockpile(food, wood, stone, water float64) *Stockpile {
	s := &Stockpile{}
	s.Capacity[ResourceFood] = food
	s.Capacity[ResourceWood] = wood
	s.Capacity[ResourceStone] = stone
	s.Capacity[ResourceWater] = water
	return s
}

// Amount returns the current counter for a resource.
func (s *Stockpile) Amount(t ResourceType) float64 { return s.Amounts[t] }

// Available returns the amount withdrawable right now (counter minus
// reservations).
func (s *Stockpile) Available(t ResourceType) float64 {
	v := s.Amounts[t] - s.Reserved[t]
	if v < 0 {
		return 0
	}
	return v
}

// Deposit adds up to amount units, clamped to capacity, and returns how much
// was actually stored. The remainder is the caller's to keep.
func (s *Stockpile) Deposit(t ResourceType, amount float64) float64 {
	if amount <= 0 {
		return 0
	}
	room := s.Capacity[t] - s.Amounts[t]
	if room <= 0 {
		return 0
	}
	if amount > room {
		amount = room
	}
	s.Amounts[t] += amount
	return amount
}

// Withdraw removes up to amount unreserved units and returns how much was
// actually granted. Never goes below zero.
func (s *Stockpile) Withdraw(t ResourceType, amount float64) float64 {
	if amount <= 0 {
		return 0
	}
	avail := s.Available(t)
	if amount > avail {
		amount = avail
	}
	s.Amounts[t] -= amount
	return amount
}

// Reserve earmarks stone and wood for a construction site. Fails without
// side effects when either resource is short.
func (s *Stockpile) Reserve(stone, wood float64) bool {
	if s.Available(ResourceStone) < stone || s.Available(ResourceWood) < wood {
		return false
	}
	s.Reserved[ResourceStone] += stone
	s.Reserved[ResourceWood] += wood
	return true
}

// Release gives up a reservation without consuming it.
func (s *Stockpile) Release(stone, wood float64) {
	s.Reserved[ResourceStone] -= stone
	if s.Reserved[ResourceStone] < 0 {
		s.Reserved[ResourceStone] = 0
	}
	s.Reserved[ResourceWood] -= wood
	if s.Reserved[ResourceWood] < 0 {
		s.Reserved[ResourceWood] = 0
	}
}

// ConsumeReserved converts up to amount units of a reservation into an actual
// withdrawal (worker hauling to a site). Returns the amount consumed.
func (s *Stockpile) ConsumeReserved(t ResourceType, amount float64) float64 {
	if amount <= 0 {
		return 0
	}
	if amount > s.Reserved[t] {
		amount = s.Reserved[t]
	}
	if amount > s.Amounts[t] {
		amount = s.Amounts[t]
	}
	s.Reserved[t] -= amount
	s.Amounts[t] -= amount
	return amount
}

// SetCapacity updates a per-resource capacity, clamping the counter down if
// the new capacity is lower.
func (s *Stockpile) SetCapacity(t ResourceType, cap float64) {
	s.Capacity[t] = cap
	if s.Amounts[t] > cap {
		s.Amounts[t] = cap
	}
}
