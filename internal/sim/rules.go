package sim

// Combat tuning constants. The damage tests pin these exact numbers;
// changing one is a balance change, not a refactor.
const (
	AttackAPCost = 3
	StatusAPCost = 2

	heightBonusCap   = 2
	facingFlankBonus = 1
	facingRearBonus  = 2

	swingMin = -1
	swingMax = 1
)

// AttackArc classifies which side of the defender an attack lands on.
type AttackArc int

const (
	ArcFront AttackArc = iota
	ArcFlank
	ArcRear
)

// String returns a readable name for the arc.
func (a AttackArc) String() string {
	switch a {
	case ArcFlank:
		return "flank"
	case ArcRear:
		return "rear"
	default:
		return "front"
	}
}

// arcBonus returns the flat damage bonus for the arc.
func arcBonus(a AttackArc) int {
	switch a {
	case ArcFlank:
		return facingFlankBonus
	case ArcRear:
		return facingRearBonus
	default:
		return 0
	}
}

// ClassifyArc judges the attack direction against the defender's
// facing: an attack arriving from the side the defender looks at is
// frontal, from straight behind is rear, anything else is a flank.
func ClassifyArc(attacker, defender Cell, defFacing Facing) AttackArc {
	incoming := FacingTo(defender, attacker)
	switch incoming {
	case defFacing:
		return ArcFront
	case defFacing.Opposite():
		return ArcRear
	default:
		return ArcFlank
	}
}

// DamageBreakdown itemizes one attack resolution.
type DamageBreakdown struct {
	Base        int
	HeightBonus int
	ArcBonus    int
	Swing       int
	Arc         AttackArc
	Total       int
}

// ResolveDamage computes attack damage: the attacker's power, plus the
// height advantage clamped to ±heightBonusCap, plus the facing arc
// bonus, plus a swing drawn from the battle stream. The total never
// goes below zero; damage cannot heal.
func ResolveDamage(attacker, defender *Unit, rng *RNG) DamageBreakdown {
	arc := ClassifyArc(attacker.Pos, defender.Pos, defender.Facing)
	d := DamageBreakdown{
		Base:        attacker.Power,
		HeightBonus: clamp(attacker.Height-defender.Height, -heightBonusCap, heightBonusCap),
		ArcBonus:    arcBonus(arc),
		Swing:       rng.Roll(swingMin, swingMax),
		Arc:         arc,
	}
	d.Total = d.Base + d.HeightBonus + d.ArcBonus + d.Swing
	if d.Total < 0 {
		d.Total = 0
	}
	return d
}

// InAttackRange reports whether the defender stands within the
// attacker's reach: orthogonal adjacency for melee, a Chebyshev radius
// for ranged units.
func InAttackRange(attacker, defender *Unit) bool {
	if attacker.Range <= 1 {
		return Adjacent4(attacker.Pos, defender.Pos)
	}
	return Chebyshev(attacker.Pos, defender.Pos) <= attacker.Range
}

// regenAmount computes end-of-turn action point recovery: base regen
// minus Slow penalties, never negative, clamped to the cap.
func regenAmount(u *Unit) int {
	amount := u.APRegen - u.slowPenalty()
	if amount < 0 {
		amount = 0
	}
	if u.AP+amount > u.MaxAP {
		amount = u.MaxAP - u.AP
	}
	return amount
}
