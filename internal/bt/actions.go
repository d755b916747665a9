package bt

import "github.com/rdowning07/starter-town-tactics-sub001/internal/sim"

// ActionID names one command-producing behavior from the closed
// vocabulary.
type ActionID string

const (
	// ActAttackNearest strikes the closest hostile in range.
	ActAttackNearest ActionID = "attack_nearest"
	// ActAttackWeakest strikes the lowest-hp hostile in range.
	ActAttackWeakest ActionID = "attack_weakest"
	// ActMoveToNearestEnemy walks toward the closest hostile, as far as
	// the AP budget allows.
	ActMoveToNearestEnemy ActionID = "move_to_nearest_enemy"
	// ActRetreat steps to a neighbor cell that gains distance from the
	// closest hostile.
	ActRetreat ActionID = "retreat"
	// ActHoldPosition stands the ground and ends the turn.
	ActHoldPosition ActionID = "hold_position"
	// ActHealWeakestAlly puts a regen effect on the most wounded
	// friendly unit in reach, the unit itself included.
	ActHealWeakestAlly ActionID = "heal_weakest_ally"
	// ActPoisonNearest poisons the closest unpoisoned hostile in range.
	ActPoisonNearest ActionID = "poison_nearest"
	// ActEndTurn yields.
	ActEndTurn ActionID = "end_turn"
)

// KnownAction reports whether the id is part of the vocabulary.
func KnownAction(id ActionID) bool {
	switch id {
	case ActAttackNearest, ActAttackWeakest, ActMoveToNearestEnemy, ActRetreat,
		ActHoldPosition, ActHealWeakestAlly, ActPoisonNearest, ActEndTurn:
		return true
	}
	return false
}

// buildAction turns an action leaf into a concrete command, or reports
// that the action is impossible right now. Target choices break distance
// and hp ties by the lexicographically smallest unit id, which keeps
// planning deterministic.
func buildAction(s *sim.Sim, self sim.Unit, n Node) (sim.Command, bool) {
	switch n.Action {
	case ActAttackNearest:
		target, ok := nearestEnemyInRange(s, self, false)
		if !ok || self.AP < sim.AttackAPCost {
			return nil, false
		}
		return sim.Attack{Attacker: self.ID, Target: target.ID}, true

	case ActAttackWeakest:
		target, ok := weakestEnemyInRange(s, self)
		if !ok || self.AP < sim.AttackAPCost {
			return nil, false
		}
		return sim.Attack{Attacker: self.ID, Target: target.ID}, true

	case ActMoveToNearestEnemy:
		target, ok := nearestEnemy(s, self)
		if !ok {
			return nil, false
		}
		path, ok := s.ApproachPath(self.ID, target.ID)
		if !ok || len(path) < 2 {
			return nil, false
		}
		prefix := s.AffordablePrefix(path, self.AP)
		if len(prefix) < 2 {
			return nil, false
		}
		return sim.Move{Unit: self.ID, To: prefix[len(prefix)-1]}, true

	case ActRetreat:
		return buildRetreat(s, self)

	case ActHealWeakestAlly:
		target, ok := mostWoundedAlly(s, self)
		if !ok || self.AP < sim.StatusAPCost {
			return nil, false
		}
		magnitude, duration := n.Value, n.Duration
		if magnitude < 1 {
			magnitude = 2
		}
		if duration < 1 {
			duration = 2
		}
		return sim.ApplyStatus{
			Source: self.ID,
			Target: target.ID,
			Effect: sim.StatusEffect{Kind: sim.StatusRegen, Magnitude: magnitude, Duration: duration},
		}, true

	case ActPoisonNearest:
		target, ok := nearestEnemyInRange(s, self, true)
		if !ok || self.AP < sim.StatusAPCost {
			return nil, false
		}
		magnitude, duration := n.Value, n.Duration
		if magnitude < 1 {
			magnitude = 2
		}
		if duration < 1 {
			duration = 2
		}
		return sim.ApplyStatus{
			Source: self.ID,
			Target: target.ID,
			Effect: sim.StatusEffect{Kind: sim.StatusPoison, Magnitude: magnitude, Duration: duration},
		}, true

	case ActHoldPosition, ActEndTurn:
		return sim.EndTurn{Unit: self.ID}, true
	}
	return nil, false
}

// buildRetreat picks the neighbor cell that gains the most distance
// from the closest hostile. No gaining cell means the action fails and
// the tree falls through.
func buildRetreat(s *sim.Sim, self sim.Unit) (sim.Command, bool) {
	threat, ok := nearestEnemy(s, self)
	if !ok {
		return nil, false
	}
	baseline := sim.Manhattan(self.Pos, threat.Pos)
	steps := [4]sim.Cell{{X: 0, Y: -1}, {X: 1, Y: 0}, {X: 0, Y: 1}, {X: -1, Y: 0}}
	var best sim.Cell
	bestGain := 0
	for _, step := range steps {
		c := sim.C(self.Pos.X+step.X, self.Pos.Y+step.Y)
		tile, inBounds := s.TileAt(c)
		if !inBounds || !tile.Terrain.Passable() || tile.Occupant != "" {
			continue
		}
		if tile.Terrain.MoveCost() > self.AP {
			continue
		}
		if gain := sim.Manhattan(c, threat.Pos) - baseline; gain > bestGain {
			best, bestGain = c, gain
		}
	}
	if bestGain <= 0 {
		return nil, false
	}
	return sim.Move{Unit: self.ID, To: best}, true
}

// nearestEnemy returns the closest living hostile by Manhattan
// distance. LivingEnemies iterates in id order, so ties settle on the
// smallest id.
func nearestEnemy(s *sim.Sim, self sim.Unit) (sim.Unit, bool) {
	var best sim.Unit
	bestDist, found := 0, false
	for _, e := range s.LivingEnemies(self.Team) {
		d := sim.Manhattan(self.Pos, e.Pos)
		if !found || d < bestDist {
			best, bestDist, found = e, d, true
		}
	}
	return best, found
}

// nearestEnemyInRange restricts nearestEnemy to attackable targets.
// With skipPoisoned set, hostiles already carrying poison are passed
// over.
func nearestEnemyInRange(s *sim.Sim, self sim.Unit, skipPoisoned bool) (sim.Unit, bool) {
	var best sim.Unit
	bestDist, found := 0, false
	for _, e := range s.LivingEnemies(self.Team) {
		e := e
		if !sim.InAttackRange(&self, &e) {
			continue
		}
		if skipPoisoned && e.StatusActive(sim.StatusPoison) {
			continue
		}
		d := sim.Manhattan(self.Pos, e.Pos)
		if !found || d < bestDist {
			best, bestDist, found = e, d, true
		}
	}
	return best, found
}

// weakestEnemyInRange returns the attackable hostile with the lowest
// hp.
func weakestEnemyInRange(s *sim.Sim, self sim.Unit) (sim.Unit, bool) {
	var best sim.Unit
	found := false
	for _, e := range s.LivingEnemies(self.Team) {
		e := e
		if !sim.InAttackRange(&self, &e) {
			continue
		}
		if !found || e.HP < best.HP {
			best, found = e, true
		}
	}
	return best, found
}

// mostWoundedAlly returns the friendly unit with the lowest hp share
// that is actually damaged, reachable (self counts), and not already
// regenerating.
func mostWoundedAlly(s *sim.Sim, self sim.Unit) (sim.Unit, bool) {
	var best sim.Unit
	found := false
	for _, a := range s.LivingUnits(self.Team) {
		a := a
		if a.HP >= a.MaxHP || a.StatusActive(sim.StatusRegen) {
			continue
		}
		if a.ID != self.ID && !sim.InAttackRange(&self, &a) {
			continue
		}
		// Integer ratio compare: a is worse off than best when
		// a.HP/a.MaxHP < best.HP/best.MaxHP.
		if !found || a.HP*best.MaxHP < best.HP*a.MaxHP {
			best, found = a, true
		}
	}
	return best, found
}
