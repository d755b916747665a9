package bt

import "github.com/rdowning07/starter-town-tactics-sub001/internal/sim"

// ConditionID names one predicate from the closed vocabulary.
type ConditionID string

const (
	// CondEnemyInRange holds when any living hostile is attackable from
	// where the unit stands.
	CondEnemyInRange ConditionID = "enemy_in_range"
	// CondEnemyAdjacent holds when a hostile stands on an orthogonal
	// neighbor cell.
	CondEnemyAdjacent ConditionID = "enemy_adjacent"
	// CondHPBelow holds when the unit's hp is under Value percent of max.
	CondHPBelow ConditionID = "hp_below"
	// CondAllyHPBelow holds when any friendly unit, the unit itself
	// included, is under Value percent of max hp.
	CondAllyHPBelow ConditionID = "ally_hp_below"
	// CondHasAP holds when the unit has at least Value action points.
	CondHasAP ConditionID = "has_ap"
	// CondHasStatus holds when the Status effect kind is active on the
	// unit.
	CondHasStatus ConditionID = "has_status"
	// CondOutnumbered holds when living hostiles outnumber the unit's
	// own side.
	CondOutnumbered ConditionID = "outnumbered"
)

// KnownCondition reports whether the id is part of the vocabulary.
func KnownCondition(id ConditionID) bool {
	switch id {
	case CondEnemyInRange, CondEnemyAdjacent, CondHPBelow, CondAllyHPBelow,
		CondHasAP, CondHasStatus, CondOutnumbered:
		return true
	}
	return false
}

// evalCondition resolves one predicate against the battle state.
func evalCondition(s *sim.Sim, self sim.Unit, n Node) bool {
	switch n.Condition {
	case CondEnemyInRange:
		for _, e := range s.LivingEnemies(self.Team) {
			e := e
			if sim.InAttackRange(&self, &e) {
				return true
			}
		}
		return false
	case CondEnemyAdjacent:
		for _, e := range s.LivingEnemies(self.Team) {
			if sim.Adjacent4(self.Pos, e.Pos) {
				return true
			}
		}
		return false
	case CondHPBelow:
		return self.MaxHP > 0 && self.HP*100 < n.Value*self.MaxHP
	case CondAllyHPBelow:
		for _, a := range s.LivingUnits(self.Team) {
			if a.MaxHP > 0 && a.HP*100 < n.Value*a.MaxHP {
				return true
			}
		}
		return false
	case CondHasAP:
		return self.AP >= n.Value
	case CondHasStatus:
		return self.StatusActive(n.Status)
	case CondOutnumbered:
		return len(s.LivingEnemies(self.Team)) > s.LivingCount(self.Team)
	}
	return false
}
