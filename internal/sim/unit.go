package sim

// UnitID uniquely identifies a unit within one battle.
type UnitID string

// Team labels the side a unit fights for. The engine only compares
// labels for equality; scenarios may declare any label they like.
type Team string

// Common team labels used by the built-in scenarios.
const (
	TeamPlayer Team = "player"
	TeamEnemy  Team = "enemy"
)

// StatusKind identifies one of the supported status effects.
type StatusKind string

const (
	StatusPoison StatusKind = "poison"
	StatusSlow   StatusKind = "slow"
	StatusRegen  StatusKind = "regen"
)

// Harmful reports whether the status hurts its target. Harmful effects
// may only be applied to hostiles, beneficial ones to self or allies.
func (k StatusKind) Harmful() bool {
	return k == StatusPoison || k == StatusSlow
}

// Valid reports whether the kind is part of the closed vocabulary.
func (k StatusKind) Valid() bool {
	switch k {
	case StatusPoison, StatusSlow, StatusRegen:
		return true
	}
	return false
}

// StatusEffect is one active (or requested) effect on a unit.
// Duration counts the afflicted unit's own turn ends.
type StatusEffect struct {
	Kind      StatusKind `json:"kind"`
	Magnitude int        `json:"magnitude"`
	Duration  int        `json:"duration"`
}

// Unit is one combatant. Height mirrors the height of the occupied grid
// cell; the pipeline keeps it in sync on every placement and move.
type Unit struct {
	ID         UnitID
	Name       string
	Team       Team
	Pos        Cell
	Facing     Facing
	HP         int
	MaxHP      int
	AP         int
	MaxAP      int
	APRegen    int
	Power      int // base attack damage
	Range      int // 1 = melee, >1 = ranged radius (Chebyshev)
	Initiative int
	Height     int
	Statuses   []StatusEffect
}

// Alive reports whether the unit is still in the fight.
func (u *Unit) Alive() bool {
	return u.HP > 0
}

// StatusActive reports whether an effect of the given kind is in force.
func (u *Unit) StatusActive(kind StatusKind) bool {
	for _, s := range u.Statuses {
		if s.Kind == kind {
			return true
		}
	}
	return false
}

// slowPenalty sums the magnitudes of all active Slow effects.
func (u *Unit) slowPenalty() int {
	total := 0
	for _, s := range u.Statuses {
		if s.Kind == StatusSlow {
			total += s.Magnitude
		}
	}
	return total
}

// addStatus applies a new effect or refreshes an existing one of the
// same kind: the duration resets and the larger magnitude wins. Effect
// order stays insertion order so ticking is deterministic.
func (u *Unit) addStatus(e StatusEffect) {
	for i := range u.Statuses {
		if u.Statuses[i].Kind == e.Kind {
			if e.Magnitude > u.Statuses[i].Magnitude {
				u.Statuses[i].Magnitude = e.Magnitude
			}
			u.Statuses[i].Duration = e.Duration
			return
		}
	}
	u.Statuses = append(u.Statuses, e)
}
