// Skill progression as an explicitly constructed service: simulation
// instances each own one, so parallel sessions never share state.
package citizen

// Skill enumerates trainable capabilities.
type Skill uint8

const (
	SkillFarming Skill = iota
	SkillGathering
	SkillBuilding
	SkillCombat
	SkillScouting
)

// NumSkills is the total number of skills.
const NumSkills = 5

// SkillName returns a human-readable name for a skill.
func SkillName(s Skill) string {
	switch s {
	case SkillFarming:
		return "farming"
	case SkillGathering:
		return "gathering"
	case SkillBuilding:
		return "building"
	case SkillCombat:
		return "combat"
	case SkillScouting:
		return "scouting"
	default:
		return "unknown"
	}
}

// SkillSet holds per-skill XP, each bounded to the progression's range.
type SkillSet [NumSkills]float64

// SkillProgression grants XP and enforces the per-skill bounds.
type SkillProgression struct {
	Min  float64
	Max  float64
	Rate float64 // multiplier applied to every grant
}

// NewSkillProgression returns the standard 0–100 progression.
func NewSkillProgression() *SkillProgression {
	return &SkillProgression{Min: 0, Max: 100, Rate: 1}
}

// Grant adds XP to a citizen's skill, clamped to [Min, Max].
func (p *SkillProgression) Grant(c *Citizen, s Skill, xp float64) {
	v := c.Skills[s] + xp*p.Rate
	if v < p.Min {
		v = p.Min
	}
	if v > p.Max {
		v = p.Max
	}
	c.Skills[s] = v
}

// Bonus converts a skill's XP into a multiplicative work bonus: 1.0 at zero
// XP, up to 2.0 at the cap.
func (p *SkillProgression) Bonus(c *Citizen, s Skill) float64 {
	if p.Max <= p.Min {
		return 1
	}
	return 1 + (c.Skills[s]-p.Min)/(p.Max-p.Min)
}
