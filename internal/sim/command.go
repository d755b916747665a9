package sim

// Command is an intended action submitted to the pipeline. Commands are
// immutable values and carry no side effects until resolved; AI and
// player commands travel the same path. The unexported marker keeps the
// variant set closed.
type Command interface {
	// Actor returns the unit the command acts for.
	Actor() UnitID
	// Kind returns the stable wire name of the variant.
	Kind() string
	command()
}

// Move walks a unit to a destination cell along the cheapest path.
type Move struct {
	Unit UnitID `json:"unit"`
	To   Cell   `json:"to"`
}

// Attack strikes a hostile unit within range.
type Attack struct {
	Attacker UnitID `json:"attacker"`
	Target   UnitID `json:"target"`
}

// ApplyStatus puts a status effect on a target: harmful kinds on
// hostiles, beneficial kinds on self or allies.
type ApplyStatus struct {
	Source UnitID       `json:"source"`
	Target UnitID       `json:"target"`
	Effect StatusEffect `json:"effect"`
}

// EndTurn finishes the unit's turn, ticking its statuses and then
// regenerating action points.
type EndTurn struct {
	Unit UnitID `json:"unit"`
}

func (m Move) Actor() UnitID        { return m.Unit }
func (a Attack) Actor() UnitID      { return a.Attacker }
func (a ApplyStatus) Actor() UnitID { return a.Source }
func (e EndTurn) Actor() UnitID     { return e.Unit }

func (Move) Kind() string        { return "move" }
func (Attack) Kind() string      { return "attack" }
func (ApplyStatus) Kind() string { return "apply_status" }
func (EndTurn) Kind() string     { return "end_turn" }

func (Move) command()        {}
func (Attack) command()      {}
func (ApplyStatus) command() {}
func (EndTurn) command()     {}

// RejectReason is the machine-readable code of a refused command.
type RejectReason string

const (
	RejectNotYourTurn    RejectReason = "not_your_turn"
	RejectUnknownUnit    RejectReason = "unknown_unit"
	RejectActorDead      RejectReason = "actor_dead"
	RejectTargetDead     RejectReason = "target_dead"
	RejectOutOfBounds    RejectReason = "out_of_bounds"
	RejectImpassable     RejectReason = "impassable"
	RejectOccupied       RejectReason = "destination_occupied"
	RejectNoPath         RejectReason = "no_path"
	RejectInsufficientAP RejectReason = "insufficient_ap"
	RejectOutOfRange     RejectReason = "out_of_range"
	RejectFriendlyFire   RejectReason = "friendly_fire"
	RejectInvalidTarget  RejectReason = "invalid_target"
	RejectBattleOver     RejectReason = "battle_over"
)

// Rejection explains a refused command. It is a value, not a Go error:
// rejections are expected control flow (AI probing an illegal move, a
// player mis-click) and must leave the battle state untouched.
type Rejection struct {
	Reason  RejectReason
	Message string
}

// String formats the rejection for logs.
func (r *Rejection) String() string {
	if r.Message == "" {
		return string(r.Reason)
	}
	return string(r.Reason) + ": " + r.Message
}

func reject(reason RejectReason, msg string) *Rejection {
	return &Rejection{Reason: reason, Message: msg}
}
