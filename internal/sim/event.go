package sim

import "fmt"

// Event is one append-only log entry describing something that
// happened. Events are immutable once emitted; the unexported marker
// keeps the variant set closed. Every variant has a String method so
// event feeds and logs share one phrasing.
type Event interface {
	event()
}

// Outcome is the terminal result of a battle.
type Outcome int

const (
	OutcomeOpen Outcome = iota
	OutcomeVictory
	OutcomeDefeat
)

// String returns a readable name for the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeVictory:
		return "victory"
	case OutcomeDefeat:
		return "defeat"
	default:
		return "open"
	}
}

// UnitMoved reports a completed walk, with the full path taken and the
// action points spent.
type UnitMoved struct {
	Unit UnitID
	From Cell
	To   Cell
	Path []Cell
	Cost int
}

// UnitDamaged reports resolved attack damage. Amount is already floored
// at zero.
type UnitDamaged struct {
	Target   UnitID
	Attacker UnitID
	Amount   int
	HPLeft   int
}

// UnitKilled reports a death. By is empty when a status effect was the
// cause; Cause is "attack" or the status kind.
type UnitKilled struct {
	Unit  UnitID
	By    UnitID
	Cause string
}

// StatusApplied reports a new or refreshed status effect.
type StatusApplied struct {
	Unit   UnitID
	Source UnitID
	Effect StatusEffect
}

// StatusTicked reports one end-of-turn status tick. Amount is the HP
// change magnitude (poison damage or regen healing).
type StatusTicked struct {
	Unit   UnitID
	Kind   StatusKind
	Amount int
	HPLeft int
}

// StatusExpired reports an effect whose duration ran out.
type StatusExpired struct {
	Unit UnitID
	Kind StatusKind
}

// APRegenerated reports end-of-turn action point recovery, after Slow
// penalties and the cap.
type APRegenerated struct {
	Unit   UnitID
	Amount int
	Total  int
}

// TurnStarted marks a unit's turn becoming active.
type TurnStarted struct {
	Unit  UnitID
	Round int
}

// TurnEnded marks a unit's turn finishing.
type TurnEnded struct {
	Unit  UnitID
	Round int
}

// RoundEnded marks every living unit having taken a turn.
type RoundEnded struct {
	Round int
}

// CommandRejected reports a refused command. It is informational; the
// rejected command mutated nothing.
type CommandRejected struct {
	Unit    UnitID
	Reason  RejectReason
	Message string
}

// ObjectiveProgressed reports incremental objective progress.
type ObjectiveProgressed struct {
	Objective string
	Progress  int
	Goal      int
}

// ObjectiveCompleted is the terminal event: the battle is decided. It
// is emitted exactly once.
type ObjectiveCompleted struct {
	Result Outcome
}

func (UnitMoved) event()           {}
func (UnitDamaged) event()         {}
func (UnitKilled) event()          {}
func (StatusApplied) event()       {}
func (StatusTicked) event()        {}
func (StatusExpired) event()       {}
func (APRegenerated) event()       {}
func (TurnStarted) event()         {}
func (TurnEnded) event()           {}
func (RoundEnded) event()          {}
func (CommandRejected) event()     {}
func (ObjectiveProgressed) event() {}
func (ObjectiveCompleted) event()  {}

func (e UnitMoved) String() string {
	return fmt.Sprintf("%s moved %s -> %s for %d ap", e.Unit, e.From, e.To, e.Cost)
}

func (e UnitDamaged) String() string {
	return fmt.Sprintf("%s hit %s for %d (%d hp left)", e.Attacker, e.Target, e.Amount, e.HPLeft)
}

func (e UnitKilled) String() string {
	if e.By == "" {
		return fmt.Sprintf("%s died of %s", e.Unit, e.Cause)
	}
	return fmt.Sprintf("%s was slain by %s", e.Unit, e.By)
}

func (e StatusApplied) String() string {
	return fmt.Sprintf("%s put %s(%d) on %s for %d turns",
		e.Source, e.Effect.Kind, e.Effect.Magnitude, e.Unit, e.Effect.Duration)
}

func (e StatusTicked) String() string {
	return fmt.Sprintf("%s ticked %s for %d (%d hp left)", e.Kind, e.Unit, e.Amount, e.HPLeft)
}

func (e StatusExpired) String() string {
	return fmt.Sprintf("%s wore off %s", e.Kind, e.Unit)
}

func (e APRegenerated) String() string {
	return fmt.Sprintf("%s regained %d ap (%d total)", e.Unit, e.Amount, e.Total)
}

func (e TurnStarted) String() string {
	return fmt.Sprintf("round %d: %s's turn", e.Round, e.Unit)
}

func (e TurnEnded) String() string {
	return fmt.Sprintf("%s ended their turn", e.Unit)
}

func (e RoundEnded) String() string {
	return fmt.Sprintf("round %d complete", e.Round)
}

func (e CommandRejected) String() string {
	if e.Message == "" {
		return fmt.Sprintf("%s refused: %s", e.Unit, e.Reason)
	}
	return fmt.Sprintf("%s refused: %s: %s", e.Unit, e.Reason, e.Message)
}

func (e ObjectiveProgressed) String() string {
	return fmt.Sprintf("objective %s: %d/%d", e.Objective, e.Progress, e.Goal)
}

func (e ObjectiveCompleted) String() string {
	return fmt.Sprintf("battle decided: %s", e.Result)
}
