// Package citizen provides the citizen data model, needs simulation,
// behavior arbitration, and the per-tick population orchestration.
package citizen

import (
	"github.com/talgya/tribelands/internal/world"
)

// Role is a citizen's duty assignment.
type Role uint8

const (
	RoleWorker Role = iota
	RoleFarmer
	RoleWarrior
	RoleScout
	RoleChild
	RoleElder
)

// NumRoles is the total number of roles.
const NumRoles = 6

// RoleName returns a human-readable name for a role.
func RoleName(r Role) string {
	switch r {
	case RoleWorker:
		return "worker"
	case RoleFarmer:
		return "farmer"
	case RoleWarrior:
		return "warrior"
	case RoleScout:
		return "scout"
	case RoleChild:
		return "child"
	case RoleElder:
		return "elder"
	default:
		return "unknown"
	}
}

// ParseRole resolves a role name. Unknown names map to RoleWorker.
func ParseRole(name string) Role {
	switch name {
	case "farmer":
		return RoleFarmer
	case "warrior":
		return RoleWarrior
	case "scout":
		return RoleScout
	case "child":
		return RoleChild
	case "elder":
		return RoleElder
	default:
		return RoleWorker
	}
}

// Assignable reports whether the role participates in role rebalancing.
// Children and elders are never reassigned.
func (r Role) Assignable() bool {
	switch r {
	case RoleWorker, RoleFarmer, RoleWarrior, RoleScout:
		return true
	}
	return false
}

// State is a citizen's lifecycle state.
type State uint8

const (
	StateAlive State = iota
	StateDead
)

// GoalKind tags the citizen's current activity.
type GoalKind uint8

const (
	GoalIdle GoalKind = iota
	GoalEat
	GoalRest
	GoalFlee
	GoalGather
	GoalFarm
	GoalBuild
	GoalFight
	GoalPatrol
	GoalExplore
	GoalWander
)

// GoalName returns a human-readable activity tag.
func GoalName(k GoalKind) string {
	switch k {
	case GoalEat:
		return "eat"
	case GoalRest:
		return "rest"
	case GoalFlee:
		return "flee"
	case GoalGather:
		return "gather"
	case GoalFarm:
		return "farm"
	case GoalBuild:
		return "build"
	case GoalFight:
		return "fight"
	case GoalPatrol:
		return "patrol"
	case GoalExplore:
		return "explore"
	case GoalWander:
		return "wander"
	default:
		return "idle"
	}
}

// Goal is the citizen's current objective, re-evaluated every tick.
type Goal struct {
	Kind     GoalKind           `json:"kind"`
	TargetX  int                `json:"target_x"`
	TargetY  int                `json:"target_y"`
	Resource world.ResourceType `json:"resource,omitempty"`
	SiteID   uint64             `json:"site_id,omitempty"`
	ThreatID uint64             `json:"threat_id,omitempty"`
}

// Citizen is a single autonomous agent. All need scalars run 0–100; hunger
// and fatigue count upward toward trouble, health and morale downward.
type Citizen struct {
	ID      uint64 `json:"id"`
	Name    string `json:"name"`
	TribeID uint8  `json:"tribe_id"`

	X int `json:"x"`
	Y int `json:"y"`

	Role  Role  `json:"role"`
	State State `json:"state"`

	Age     float64 `json:"age"` // sim-years
	Health  float64 `json:"health"`
	Hunger  float64 `json:"hunger"`
	Fatigue float64 `json:"fatigue"`
	Morale  float64 `json:"morale"`

	Skills SkillSet `json:"skills"`

	Carrying [world.NumResources]float64 `json:"carrying"`
	CarryCap float64                     `json:"carry_cap"`

	Goal Goal          `json:"goal"`
	Path []world.Point `json:"-"`

	Gather GatherState `json:"gather"`

	// BlessedUntilAge marks a temporary blessing; zero when unblessed.
	BlessedUntilAge float64 `json:"blessed_until_age,omitempty"`

	// DiedTick records when the citizen died, for pruning.
	DiedTick uint64 `json:"died_tick,omitempty"`
}

// Alive reports whether the citizen is still simulated.
func (c *Citizen) Alive() bool { return c.State == StateAlive }

// Blessed reports whether the citizen currently carries a blessing.
func (c *Citizen) Blessed() bool {
	return c.BlessedUntilAge > 0 && c.Age < c.BlessedUntilAge
}

// CarryTotal returns the total units the citizen is carrying.
func (c *Citizen) CarryTotal() float64 {
	t := 0.0
	for _, v := range c.Carrying {
		t += v
	}
	return t
}

// CarryingAny reports whether the citizen holds anything at all.
func (c *Citizen) CarryingAny() bool {
	for _, v := range c.Carrying {
		if v > 0 {
			return true
		}
	}
	return false
}

// AtTarget reports whether the citizen stands adjacent to (or on) its goal
// cell.
func (c *Citizen) AtTarget() bool {
	return world.Adjacent(c.X, c.Y, c.Goal.TargetX, c.Goal.TargetY)
}
