// Needs evolution per alive citizen per tick: hunger, fatigue, morale,
// health, aging, and death.
package citizen

import "github.com/talgya/tribelands/internal/config"

// NeedsSimulator advances a citizen's physical and mental state.
type NeedsSimulator struct {
	cfg       config.NeedsConfig
	hungerMul float64
}

// NewNeedsSimulator builds a simulator from config; hungerMul comes from
// difficulty.
func NewNeedsSimulator(cfg config.NeedsConfig, hungerMul float64) *NeedsSimulator {
	return &NeedsSimulator{cfg: cfg, hungerMul: hungerMul}
}

// HungerCritical returns the hunger threshold that triggers urgent eating.
func (n *NeedsSimulator) HungerCritical() float64 { return n.cfg.HungerCritical }

// FatigueCritical returns the fatigue threshold that triggers urgent rest.
func (n *NeedsSimulator) FatigueCritical() float64 { return n.cfg.FatigueCritical }

// MaturityAge returns the age at which children become assignable.
func (n *NeedsSimulator) MaturityAge() float64 { return n.cfg.MaturityAge }

// ElderAge returns the age at which adults retire to the elder role.
func (n *NeedsSimulator) ElderAge() float64 { return n.cfg.ElderAge }

// Tick advances one citizen by tickHours. Returns true if the citizen died
// this tick. Dead citizens are left untouched.
func (n *NeedsSimulator) Tick(c *Citizen, tickHours float64) bool {
	if !c.Alive() {
		return false
	}
	// A citizen brought to zero health by an attack dies here, before any
	// regen could pull them back over the line.
	if c.Health <= 0 {
		c.State = StateDead
		return true
	}

	c.Age += tickHours / n.cfg.HoursPerYear

	c.Hunger += n.cfg.HungerRate * n.hungerMul * tickHours
	if c.Hunger > 100 {
		c.Hunger = 100
	}

	if c.Goal.Kind == GoalRest {
		c.Fatigue -= n.cfg.FatigueRestRate * tickHours
	} else {
		rate := n.cfg.FatigueActiveRate
		if c.Role == RoleElder {
			rate *= 1.5 // elders tire faster
		}
		c.Fatigue += rate * tickHours
	}
	c.Fatigue = clamp100(c.Fatigue)

	// Morale drifts toward a baseline lifted by blessings and dragged down by
	// unmet needs.
	baseline := n.cfg.MoraleBaseline
	if c.Blessed() {
		baseline += 15
	}
	if c.Hunger > n.cfg.HungerCritical {
		baseline -= 20
	}
	if c.Fatigue > n.cfg.FatigueCritical {
		baseline -= 10
	}
	drift := n.cfg.MoraleDriftRate * tickHours
	if c.Morale < baseline {
		c.Morale += drift
		if c.Morale > baseline {
			c.Morale = baseline
		}
	} else if c.Morale > baseline {
		c.Morale -= drift
		if c.Morale < baseline {
			c.Morale = baseline
		}
	}
	c.Morale = clamp100(c.Morale)

	// Health decays under critical hunger/fatigue and regenerates slowly when
	// both are satisfied.
	stressed := 0.0
	if c.Hunger >= n.cfg.HungerCritical {
		stressed++
	}
	if c.Fatigue >= n.cfg.FatigueCritical {
		stressed++
	}
	if stressed > 0 {
		c.Health -= n.cfg.HealthDecayRate * stressed * tickHours
	} else if c.Hunger < n.cfg.HungerCritical*0.5 && c.Fatigue < n.cfg.FatigueCritical*0.5 {
		c.Health += n.cfg.HealthRegenRate * tickHours
	}
	if c.Role == RoleElder {
		c.Health -= n.cfg.ElderDecayBonus * tickHours
	}
	c.Health = clamp100(c.Health)

	if c.Health <= 0 {
		c.State = StateDead
		return true
	}
	return false
}

func clamp100(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
