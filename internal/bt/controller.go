package bt

import "github.com/rdowning07/starter-town-tactics-sub001/internal/sim"

// Controller drives one unit from a behavior tree. It implements
// sim.Controller: the scheduler asks it to plan, and a rejected command
// masks the action node that proposed it for the rest of the turn, so
// the next evaluation falls through to another branch instead of
// repeating the refused one.
type Controller struct {
	tree    *Tree
	masked  map[int]bool
	lastSrc int
}

// NewController wraps a tree as a per-unit controller. Controllers hold
// per-turn state and must not be shared between units.
func NewController(tree *Tree) *Controller {
	return &Controller{tree: tree, masked: make(map[int]bool), lastSrc: -1}
}

// Tree exposes the wrapped tree, mainly for inspection and logs.
func (c *Controller) Tree() *Tree { return c.tree }

// BeginTurn clears the rejection mask.
func (c *Controller) BeginTurn(sim.UnitID) {
	c.masked = make(map[int]bool)
	c.lastSrc = -1
}

// PlanCommand evaluates the tree against the current battle state.
// A nil return tells the scheduler to end the turn.
func (c *Controller) PlanCommand(s *sim.Sim, unit sim.UnitID) sim.Command {
	self, ok := s.Unit(unit)
	if !ok {
		return nil
	}
	cmd, src, ok := c.tree.plan(s, self, c.masked)
	if !ok || cmd == nil {
		c.lastSrc = -1
		return nil
	}
	c.lastSrc = src
	return cmd
}

// CommandRejected masks the action node behind the refused command.
func (c *Controller) CommandRejected(sim.Command, *sim.Rejection) {
	if c.lastSrc >= 0 {
		c.masked[c.lastSrc] = true
		c.lastSrc = -1
	}
}
