package bt

import "github.com/rdowning07/starter-town-tactics-sub001/internal/sim"

// plan evaluates the tree for one unit and returns the chosen command
// together with the arena index of the action node that produced it.
// masked action nodes fail outright, which is how a selector falls
// through to its next branch after a rejection.
func (t *Tree) plan(s *sim.Sim, self sim.Unit, masked map[int]bool) (sim.Command, int, bool) {
	return t.eval(s, self, masked, t.Root)
}

func (t *Tree) eval(s *sim.Sim, self sim.Unit, masked map[int]bool, idx int) (sim.Command, int, bool) {
	n := t.Nodes[idx]
	switch n.Kind {
	case KindCondition:
		return nil, -1, evalCondition(s, self, n)

	case KindAction:
		if masked[idx] {
			return nil, -1, false
		}
		cmd, ok := buildAction(s, self, n)
		if !ok {
			return nil, -1, false
		}
		return cmd, idx, true

	case KindSequence:
		// Conditions gate, the first action decides. Anything after a
		// command would run against stale state, so evaluation stops
		// there.
		for _, c := range n.Children {
			cmd, src, ok := t.eval(s, self, masked, c)
			if !ok {
				return nil, -1, false
			}
			if cmd != nil {
				return cmd, src, true
			}
		}
		return nil, -1, true

	case KindSelector:
		for _, c := range n.Children {
			if cmd, src, ok := t.eval(s, self, masked, c); ok {
				return cmd, src, true
			}
		}
		return nil, -1, false
	}
	return nil, -1, false
}
