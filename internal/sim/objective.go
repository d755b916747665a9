package sim

// ObjectiveStatus is the resolution state of one objective node.
type ObjectiveStatus int

const (
	ObjectivePending ObjectiveStatus = iota
	ObjectiveSucceeded
	ObjectiveFailed
)

// ObjectiveContext is the read-only world view objectives resolve
// units against.
type ObjectiveContext interface {
	TeamOf(id UnitID) (Team, bool)
	LivingCount(team Team) int
	OccupantAt(c Cell) (UnitID, bool)
}

// Objective observes the event stream and settles on success or
// failure. Implementations track progress incrementally from the
// events relevant to them; nothing rescans full battle state. Once
// resolved, an objective ignores further events.
type Objective interface {
	// Prime seeds progress from the starting positions, before any
	// event is emitted.
	Prime(ctx ObjectiveContext)
	// Observe consumes one event and reports whether progress changed.
	Observe(ctx ObjectiveContext, ev Event) bool
	// Status returns the current resolution state.
	Status() ObjectiveStatus
	// Describe returns a label and progress counters for reporting.
	Describe() (label string, progress, goal int)
}

// eliminateBoss succeeds when the marked unit dies.
type eliminateBoss struct {
	target UnitID
	status ObjectiveStatus
}

// NewEliminateBoss tracks the death of one specific unit.
func NewEliminateBoss(target UnitID) Objective {
	return &eliminateBoss{target: target}
}

func (o *eliminateBoss) Prime(ObjectiveContext) {}

func (o *eliminateBoss) Observe(_ ObjectiveContext, ev Event) bool {
	if o.status != ObjectivePending {
		return false
	}
	if k, ok := ev.(UnitKilled); ok && k.Unit == o.target {
		o.status = ObjectiveSucceeded
		return true
	}
	return false
}

func (o *eliminateBoss) Status() ObjectiveStatus { return o.status }

func (o *eliminateBoss) Describe() (string, int, int) {
	if o.status == ObjectiveSucceeded {
		return "eliminate_boss", 1, 1
	}
	return "eliminate_boss", 0, 1
}

// surviveTurns counts TurnEnded events of the tracked team's units and
// succeeds exactly on the n-th one. It fails if the team is wiped out
// first.
type surviveTurns struct {
	team   Team
	goal   int
	count  int
	status ObjectiveStatus
}

// NewSurviveTurns tracks a team staying alive for the given number of
// its own turn ends.
func NewSurviveTurns(team Team, turns int) Objective {
	if turns < 1 {
		turns = 1
	}
	return &surviveTurns{team: team, goal: turns}
}

func (o *surviveTurns) Prime(ObjectiveContext) {}

func (o *surviveTurns) Observe(ctx ObjectiveContext, ev Event) bool {
	if o.status != ObjectivePending {
		return false
	}
	switch e := ev.(type) {
	case TurnEnded:
		team, ok := ctx.TeamOf(e.Unit)
		if !ok || team != o.team {
			return false
		}
		o.count++
		if o.count >= o.goal {
			o.status = ObjectiveSucceeded
		}
		return true
	case UnitKilled:
		if team, ok := ctx.TeamOf(e.Unit); ok && team == o.team && ctx.LivingCount(o.team) == 0 {
			o.status = ObjectiveFailed
			return true
		}
	}
	return false
}

func (o *surviveTurns) Status() ObjectiveStatus { return o.status }

func (o *surviveTurns) Describe() (string, int, int) {
	return "survive_turns", o.count, o.goal
}

// holdZones succeeds once the tracked team has occupied every zone at
// holdGoal consecutive round ends. Zone occupancy is maintained from
// movement and death events, not rescanned.
type holdZones struct {
	team     Team
	zones    []Cell
	holdGoal int
	streak   int
	occupant map[Cell]UnitID
	status   ObjectiveStatus
}

// NewHoldZones tracks a team holding all listed cells for holdRounds
// consecutive round ends (minimum 1).
func NewHoldZones(team Team, zones []Cell, holdRounds int) Objective {
	if holdRounds < 1 {
		holdRounds = 1
	}
	return &holdZones{
		team:     team,
		zones:    append([]Cell(nil), zones...),
		holdGoal: holdRounds,
		occupant: make(map[Cell]UnitID),
	}
}

func (o *holdZones) Prime(ctx ObjectiveContext) {
	for _, z := range o.zones {
		if id, ok := ctx.OccupantAt(z); ok {
			o.occupant[z] = id
		}
	}
}

func (o *holdZones) inZone(c Cell) bool {
	for _, z := range o.zones {
		if z == c {
			return true
		}
	}
	return false
}

func (o *holdZones) Observe(ctx ObjectiveContext, ev Event) bool {
	if o.status != ObjectivePending {
		return false
	}
	switch e := ev.(type) {
	case UnitMoved:
		if o.inZone(e.From) && o.occupant[e.From] == e.Unit {
			delete(o.occupant, e.From)
		}
		if o.inZone(e.To) {
			o.occupant[e.To] = e.Unit
		}
	case UnitKilled:
		for z, id := range o.occupant {
			if id == e.Unit {
				delete(o.occupant, z)
			}
		}
	case RoundEnded:
		prev := o.streak
		if o.heldBy(ctx) {
			o.streak++
		} else {
			o.streak = 0
		}
		if o.streak >= o.holdGoal {
			o.status = ObjectiveSucceeded
			return true
		}
		return o.streak != prev
	}
	return false
}

// heldBy reports whether every zone currently carries a living unit of
// the tracked team.
func (o *holdZones) heldBy(ctx ObjectiveContext) bool {
	for _, z := range o.zones {
		id, ok := o.occupant[z]
		if !ok {
			return false
		}
		team, ok := ctx.TeamOf(id)
		if !ok || team != o.team {
			return false
		}
	}
	return true
}

func (o *holdZones) Status() ObjectiveStatus { return o.status }

func (o *holdZones) Describe() (string, int, int) {
	return "hold_zones", o.streak, o.holdGoal
}

// escort succeeds when the escorted unit reaches the goal cell and
// fails the moment it dies.
type escort struct {
	unit   UnitID
	goal   Cell
	status ObjectiveStatus
}

// NewEscort tracks a unit reaching a destination cell alive.
func NewEscort(unit UnitID, goal Cell) Objective {
	return &escort{unit: unit, goal: goal}
}

func (o *escort) Prime(ctx ObjectiveContext) {
	if id, ok := ctx.OccupantAt(o.goal); ok && id == o.unit {
		o.status = ObjectiveSucceeded
	}
}

func (o *escort) Observe(_ ObjectiveContext, ev Event) bool {
	if o.status != ObjectivePending {
		return false
	}
	switch e := ev.(type) {
	case UnitMoved:
		if e.Unit == o.unit && e.To == o.goal {
			o.status = ObjectiveSucceeded
			return true
		}
	case UnitKilled:
		if e.Unit == o.unit {
			o.status = ObjectiveFailed
			return true
		}
	}
	return false
}

func (o *escort) Status() ObjectiveStatus { return o.status }

func (o *escort) Describe() (string, int, int) {
	if o.status == ObjectiveSucceeded {
		return "escort", 1, 1
	}
	return "escort", 0, 1
}

// compound combines children under AND or OR semantics. Resolution
// latches: once settled, the subtree stops observing.
type compound struct {
	label    string
	children []Objective
	all      bool
	status   ObjectiveStatus
}

// AllOf succeeds when every child succeeds and fails as soon as any
// child fails.
func AllOf(children ...Objective) Objective {
	return &compound{label: "all_of", children: children, all: true}
}

// AnyOf succeeds as soon as any child succeeds and fails only when
// every child has failed.
func AnyOf(children ...Objective) Objective {
	return &compound{label: "any_of", children: children}
}

func (o *compound) Prime(ctx ObjectiveContext) {
	for _, c := range o.children {
		c.Prime(ctx)
	}
	o.refresh()
}

func (o *compound) Observe(ctx ObjectiveContext, ev Event) bool {
	if o.status != ObjectivePending {
		return false
	}
	changed := false
	for _, c := range o.children {
		if c.Status() == ObjectivePending && c.Observe(ctx, ev) {
			changed = true
		}
	}
	if o.refresh() {
		changed = true
	}
	return changed
}

// refresh recomputes the compound status from the children and reports
// a transition.
func (o *compound) refresh() bool {
	succeeded, failed := 0, 0
	for _, c := range o.children {
		switch c.Status() {
		case ObjectiveSucceeded:
			succeeded++
		case ObjectiveFailed:
			failed++
		}
	}
	prev := o.status
	if o.all {
		switch {
		case failed > 0:
			o.status = ObjectiveFailed
		case succeeded == len(o.children):
			o.status = ObjectiveSucceeded
		}
	} else {
		switch {
		case succeeded > 0:
			o.status = ObjectiveSucceeded
		case failed == len(o.children):
			o.status = ObjectiveFailed
		}
	}
	return o.status != prev
}

func (o *compound) Status() ObjectiveStatus { return o.status }

func (o *compound) Describe() (string, int, int) {
	succeeded := 0
	for _, c := range o.children {
		if c.Status() == ObjectiveSucceeded {
			succeeded++
		}
	}
	return o.label, succeeded, len(o.children)
}
