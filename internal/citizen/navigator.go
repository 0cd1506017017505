// Per-tick path execution: exactly one cell step, no validity checking.
// Stale destinations are the director's problem on its next evaluation.
package citizen

import "github.com/talgya/tribelands/internal/world"

// Navigator advances citizens along their current paths.
type Navigator struct {
	world *world.Engine
}

// NewNavigator creates a navigator over the given world.
func NewNavigator(w *world.Engine) *Navigator {
	return &Navigator{world: w}
}

// Step moves the citizen one cell along its path, keeping the world's
// occupant sets in sync. No-op without a path.
func (n *Navigator) Step(c *Citizen) {
	if len(c.Path) == 0 {
		return
	}
	next := c.Path[0]
	c.Path = c.Path[1:]
	n.world.MoveCitizen(c.ID, c.X, c.Y, next.X, next.Y)
	c.X, c.Y = next.X, next.Y
}
