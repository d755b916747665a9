package sim

import (
	"fmt"
	"sort"
)

// maxPlanAttempts bounds how often a controller may replan within one
// tick after rejections before the scheduler forces an end of turn.
const maxPlanAttempts = 8

// defaultMaxRounds caps battles whose objectives never resolve.
const defaultMaxRounds = 100

// Controller plans commands for one unit. The scheduler calls
// PlanCommand when the unit's turn is active; a rejected command is
// reported back through CommandRejected and the controller is asked
// again, so a behavior tree can mask the refused branch and fall
// through to its next option.
type Controller interface {
	// BeginTurn resets per-turn planning state.
	BeginTurn(unit UnitID)
	// PlanCommand returns the unit's next command. Returning nil ends
	// the turn.
	PlanCommand(s *Sim, unit UnitID) Command
	// CommandRejected informs the controller its last command was
	// refused.
	CommandRejected(cmd Command, rej *Rejection)
}

// Setup is the pure data a battle is constructed from. The scenario
// package produces it; the core never reads files.
type Setup struct {
	Name        string
	Seed        uint64
	Grid        *Grid
	Units       []Unit
	Objective   Objective
	PlayerTeam  Team
	MaxRounds   int
	Controllers map[UnitID]Controller
}

// Sim is one battle instance. All mutation funnels through Submit;
// everything else is a read-only query. A Sim is not safe for
// concurrent use and never starts goroutines.
type Sim struct {
	name       string
	seed       uint64
	grid       *Grid
	units      map[UnitID]*Unit
	sorted     []UnitID // all unit ids, lexicographic
	order      []UnitID // initiative order, fixed at battle start
	turnIdx    int
	turnOpen   bool
	round      int
	tick       uint64
	maxRounds  int
	playerTeam Team

	rng         *RNG
	bus         *Bus
	objective   Objective
	controllers map[UnitID]Controller
	recorder    *recorder

	outcome   Outcome
	batch     []Event
	resolving bool
	ticking   bool
}

// TickReport summarizes one scheduler step.
type TickReport struct {
	Tick    uint64
	Round   int
	Unit    UnitID
	Events  []Event
	Waiting bool
	Done    bool
}

// New builds a battle from a setup. Validation failures here are
// ingestion-class errors: the battle never starts.
func New(setup Setup) (*Sim, error) {
	if setup.Grid == nil {
		return nil, fmt.Errorf("sim: setup has no grid")
	}
	if len(setup.Units) == 0 {
		return nil, fmt.Errorf("sim: setup has no units")
	}
	s := &Sim{
		name:        setup.Name,
		seed:        setup.Seed,
		grid:        setup.Grid.clone(),
		units:       make(map[UnitID]*Unit, len(setup.Units)),
		maxRounds:   setup.MaxRounds,
		playerTeam:  setup.PlayerTeam,
		rng:         NewRNG(setup.Seed),
		bus:         &Bus{},
		objective:   setup.Objective,
		controllers: make(map[UnitID]Controller, len(setup.Controllers)),
		round:       1,
	}
	if s.maxRounds <= 0 {
		s.maxRounds = defaultMaxRounds
	}
	if s.playerTeam == "" {
		s.playerTeam = TeamPlayer
	}
	for id, c := range setup.Controllers {
		s.controllers[id] = c
	}

	for _, spec := range setup.Units {
		u := spec
		if u.ID == "" {
			return nil, fmt.Errorf("sim: unit %q has empty id", u.Name)
		}
		if _, dup := s.units[u.ID]; dup {
			return nil, fmt.Errorf("sim: duplicate unit id %q", u.ID)
		}
		if u.HP <= 0 {
			return nil, fmt.Errorf("sim: unit %q starts with %d hp", u.ID, u.HP)
		}
		if u.MaxHP < u.HP {
			u.MaxHP = u.HP
		}
		if u.MaxAP < u.AP {
			u.MaxAP = u.AP
		}
		if u.Range < 1 {
			u.Range = 1
		}
		if err := s.grid.Place(u.ID, u.Pos); err != nil {
			return nil, fmt.Errorf("sim: placing %q: %w", u.ID, err)
		}
		u.Height = s.grid.HeightAt(u.Pos)
		u.Statuses = append([]StatusEffect(nil), u.Statuses...)
		s.units[u.ID] = &u
		s.sorted = append(s.sorted, u.ID)
		s.order = append(s.order, u.ID)
	}
	sort.Slice(s.sorted, func(i, j int) bool { return s.sorted[i] < s.sorted[j] })
	sort.Slice(s.order, func(i, j int) bool {
		a, b := s.units[s.order[i]], s.units[s.order[j]]
		if a.Initiative != b.Initiative {
			return a.Initiative > b.Initiative
		}
		return a.ID < b.ID
	})

	s.recorder = newRecorder(setup.Name, setup.Seed)
	if s.objective != nil {
		s.objective.Prime(s)
	}
	return s, nil
}

// Subscribe registers an event listener on the battle's bus.
func (s *Sim) Subscribe(fn func(Event)) {
	s.bus.Subscribe(fn)
}

// Submit resolves one command. On success it returns every event the
// command produced, in emission order, after all listeners saw them.
// On rejection nothing has changed: validation runs to completion
// before the first mutation, and a CommandRejected event is published
// for observers.
func (s *Sim) Submit(cmd Command) ([]Event, *Rejection) {
	if s.resolving {
		panic("invariant: reentrant command submission")
	}
	s.resolving = true
	defer func() { s.resolving = false }()

	s.batch = s.batch[:0]
	s.openTurn()

	rej := s.dispatch(cmd)
	if rej != nil {
		s.emit(CommandRejected{Unit: cmd.Actor(), Reason: rej.Reason, Message: rej.Message})
		s.flush()
		return nil, rej
	}
	s.recorder.record(s.tick, cmd)
	return s.flush(), nil
}

// dispatch validates and applies one command. Every apply method checks
// all preconditions before its first mutation, which is what makes
// rejection atomic.
func (s *Sim) dispatch(cmd Command) *Rejection {
	if s.outcome != OutcomeOpen {
		return reject(RejectBattleOver, "the battle is decided")
	}
	u, ok := s.units[cmd.Actor()]
	if !ok {
		return reject(RejectUnknownUnit, fmt.Sprintf("no unit %q", cmd.Actor()))
	}
	if !u.Alive() {
		return reject(RejectActorDead, fmt.Sprintf("%q is dead", u.ID))
	}
	if cmd.Actor() != s.ActiveUnit() {
		return reject(RejectNotYourTurn, fmt.Sprintf("it is %q's turn", s.ActiveUnit()))
	}
	switch c := cmd.(type) {
	case Move:
		return s.applyMove(u, c)
	case Attack:
		return s.applyAttack(u, c)
	case ApplyStatus:
		return s.applyStatus(u, c)
	case EndTurn:
		s.applyEndTurn(u)
		return nil
	default:
		return reject(RejectInvalidTarget, fmt.Sprintf("unsupported command %q", cmd.Kind()))
	}
}

func (s *Sim) applyMove(u *Unit, c Move) *Rejection {
	if !s.grid.InBounds(c.To) {
		return reject(RejectOutOfBounds, fmt.Sprintf("(%d,%d) is off the board", c.To.X, c.To.Y))
	}
	if !s.grid.Passable(c.To) {
		return reject(RejectImpassable, fmt.Sprintf("(%d,%d) cannot be entered", c.To.X, c.To.Y))
	}
	if c.To == u.Pos {
		return reject(RejectInvalidTarget, "already at the destination")
	}
	if occ, taken := s.grid.OccupantAt(c.To); taken && occ != u.ID {
		return reject(RejectOccupied, fmt.Sprintf("(%d,%d) is held by %q", c.To.X, c.To.Y, occ))
	}
	path, ok := FindPath(s.grid, u.ID, u.Pos, c.To)
	if !ok {
		return reject(RejectNoPath, fmt.Sprintf("no route to (%d,%d)", c.To.X, c.To.Y))
	}
	cost := PathCost(s.grid, path)
	if cost > u.AP {
		return reject(RejectInsufficientAP, fmt.Sprintf("path costs %d ap, %d available", cost, u.AP))
	}

	if err := s.grid.MoveOccupant(u.ID, u.Pos, c.To); err != nil {
		panic("invariant: " + err.Error())
	}
	from := u.Pos
	u.Pos = c.To
	u.Height = s.grid.HeightAt(c.To)
	if n := len(path); n >= 2 {
		u.Facing = FacingTo(path[n-2], path[n-1])
	}
	u.AP -= cost
	s.emit(UnitMoved{Unit: u.ID, From: from, To: c.To, Path: path, Cost: cost})
	return nil
}

func (s *Sim) applyAttack(u *Unit, c Attack) *Rejection {
	t, ok := s.units[c.Target]
	if !ok {
		return reject(RejectUnknownUnit, fmt.Sprintf("no unit %q", c.Target))
	}
	if !t.Alive() {
		return reject(RejectTargetDead, fmt.Sprintf("%q is already dead", t.ID))
	}
	if t.Team == u.Team {
		return reject(RejectFriendlyFire, fmt.Sprintf("%q is on your side", t.ID))
	}
	if !InAttackRange(u, t) {
		return reject(RejectOutOfRange, fmt.Sprintf("%q is out of reach", t.ID))
	}
	if u.AP < AttackAPCost {
		return reject(RejectInsufficientAP, fmt.Sprintf("attack costs %d ap, %d available", AttackAPCost, u.AP))
	}

	u.AP -= AttackAPCost
	u.Facing = FacingTo(u.Pos, t.Pos)
	d := ResolveDamage(u, t, s.rng)
	t.HP -= d.Total
	if t.HP < 0 {
		t.HP = 0
	}
	s.emit(UnitDamaged{Target: t.ID, Attacker: u.ID, Amount: d.Total, HPLeft: t.HP})
	if t.HP == 0 {
		s.kill(t, u.ID, "attack")
	}
	return nil
}

func (s *Sim) applyStatus(u *Unit, c ApplyStatus) *Rejection {
	t, ok := s.units[c.Target]
	if !ok {
		return reject(RejectUnknownUnit, fmt.Sprintf("no unit %q", c.Target))
	}
	if !t.Alive() {
		return reject(RejectTargetDead, fmt.Sprintf("%q is already dead", t.ID))
	}
	e := c.Effect
	if !e.Kind.Valid() || e.Magnitude < 1 || e.Duration < 1 {
		return reject(RejectInvalidTarget, "malformed status effect")
	}
	if e.Kind.Harmful() && t.Team == u.Team {
		return reject(RejectFriendlyFire, fmt.Sprintf("%s on %q would hit your side", e.Kind, t.ID))
	}
	if !e.Kind.Harmful() && t.Team != u.Team {
		return reject(RejectInvalidTarget, fmt.Sprintf("%s cannot target hostiles", e.Kind))
	}
	if t.ID != u.ID && !InAttackRange(u, t) {
		return reject(RejectOutOfRange, fmt.Sprintf("%q is out of reach", t.ID))
	}
	if u.AP < StatusAPCost {
		return reject(RejectInsufficientAP, fmt.Sprintf("status costs %d ap, %d available", StatusAPCost, u.AP))
	}

	u.AP -= StatusAPCost
	if t.ID != u.ID {
		u.Facing = FacingTo(u.Pos, t.Pos)
	}
	t.addStatus(e)
	s.emit(StatusApplied{Unit: t.ID, Source: u.ID, Effect: e})
	return nil
}

// applyEndTurn ticks the unit's statuses in insertion order, then
// regenerates action points, then closes the turn. Death by poison
// still closes the turn with TurnEnded; the kill event precedes it.
func (s *Sim) applyEndTurn(u *Unit) {
	remaining := u.Statuses[:0]
	for _, st := range u.Statuses {
		switch st.Kind {
		case StatusPoison:
			dmg := st.Magnitude
			if dmg > u.HP {
				dmg = u.HP
			}
			u.HP -= dmg
			s.emit(StatusTicked{Unit: u.ID, Kind: st.Kind, Amount: dmg, HPLeft: u.HP})
			if u.HP == 0 {
				s.kill(u, "", string(StatusPoison))
			}
		case StatusRegen:
			heal := st.Magnitude
			if u.HP+heal > u.MaxHP {
				heal = u.MaxHP - u.HP
			}
			if heal > 0 {
				u.HP += heal
				s.emit(StatusTicked{Unit: u.ID, Kind: st.Kind, Amount: heal, HPLeft: u.HP})
			}
		}
		if !u.Alive() {
			break
		}
		st.Duration--
		if st.Duration > 0 {
			remaining = append(remaining, st)
		} else {
			s.emit(StatusExpired{Unit: u.ID, Kind: st.Kind})
		}
	}
	if u.Alive() {
		u.Statuses = remaining
		amount := regenAmount(u)
		u.AP += amount
		s.emit(APRegenerated{Unit: u.ID, Amount: amount, Total: u.AP})
	}
	s.emit(TurnEnded{Unit: u.ID, Round: s.round})
	if s.outcome == OutcomeOpen {
		s.advanceTurn()
	}
}

// kill removes a unit from play: occupancy freed, statuses cleared,
// turn order skips it from now on.
func (s *Sim) kill(u *Unit, by UnitID, cause string) {
	s.grid.Remove(u.ID, u.Pos)
	u.Statuses = nil
	s.emit(UnitKilled{Unit: u.ID, By: by, Cause: cause})
}

// advanceTurn moves to the next living unit, emitting RoundEnded when
// the order wraps.
func (s *Sim) advanceTurn() {
	s.turnOpen = false
	for i := s.turnIdx + 1; i < len(s.order); i++ {
		if s.units[s.order[i]].Alive() {
			s.turnIdx = i
			return
		}
	}
	s.emit(RoundEnded{Round: s.round})
	if s.outcome != OutcomeOpen {
		return
	}
	s.round++
	for i := 0; i < len(s.order); i++ {
		if s.units[s.order[i]].Alive() {
			s.turnIdx = i
			return
		}
	}
}

// openTurn emits TurnStarted once per turn.
func (s *Sim) openTurn() {
	if s.turnOpen || s.outcome != OutcomeOpen {
		return
	}
	s.turnOpen = true
	s.emit(TurnStarted{Unit: s.ActiveUnit(), Round: s.round})
}

// emit records an event into the current batch and lets the objective
// layer react to it immediately, so derived objective events land in
// the same batch, in causal order.
func (s *Sim) emit(ev Event) {
	s.batch = append(s.batch, ev)
	if s.outcome != OutcomeOpen {
		return
	}
	switch ev.(type) {
	case ObjectiveProgressed, ObjectiveCompleted, CommandRejected:
		return
	}
	if s.objective != nil && s.objective.Observe(s, ev) {
		label, progress, goal := s.objective.Describe()
		s.batch = append(s.batch, ObjectiveProgressed{Objective: label, Progress: progress, Goal: goal})
	}
	s.checkResolution(ev)
}

// checkResolution settles the outcome after an event: the configured
// objective first, then the player-wipe watchdog, then the round cap.
func (s *Sim) checkResolution(ev Event) {
	if s.objective != nil {
		switch s.objective.Status() {
		case ObjectiveSucceeded:
			s.finish(OutcomeVictory)
			return
		case ObjectiveFailed:
			s.finish(OutcomeDefeat)
			return
		}
	}
	if _, died := ev.(UnitKilled); died && s.LivingCount(s.playerTeam) == 0 {
		s.finish(OutcomeDefeat)
		return
	}
	if r, wrapped := ev.(RoundEnded); wrapped && r.Round >= s.maxRounds {
		s.finish(OutcomeDefeat)
	}
}

// finish latches the terminal outcome and emits the completion event
// exactly once.
func (s *Sim) finish(o Outcome) {
	s.outcome = o
	s.batch = append(s.batch, ObjectiveCompleted{Result: o})
}

// flush publishes the batch to the bus in order and returns a copy.
func (s *Sim) flush() []Event {
	if len(s.batch) == 0 {
		return nil
	}
	out := make([]Event, len(s.batch))
	copy(out, s.batch)
	s.batch = s.batch[:0]
	for _, ev := range out {
		s.bus.publish(ev)
	}
	return out
}

// Tick advances the battle by at most one command: it opens the active
// unit's turn, asks that unit's controller to plan, and submits the
// plan through the normal pipeline. Controller-less units leave the
// tick waiting for an external Submit. Tick never sleeps; pacing is
// the caller's business.
func (s *Sim) Tick() TickReport {
	if s.ticking {
		panic("invariant: reentrant tick")
	}
	s.ticking = true
	defer func() { s.ticking = false }()

	rep := TickReport{Tick: s.tick, Round: s.round}
	if s.outcome != OutcomeOpen {
		rep.Done = true
		return rep
	}
	s.tick++
	rep.Tick = s.tick
	active := s.ActiveUnit()
	rep.Unit = active

	ctrl, driven := s.controllers[active]
	if !driven {
		if !s.turnOpen {
			s.batch = s.batch[:0]
			s.openTurn()
			rep.Events = s.flush()
		}
		rep.Waiting = true
		return rep
	}

	if !s.turnOpen {
		ctrl.BeginTurn(active)
	}
	for attempt := 0; attempt < maxPlanAttempts; attempt++ {
		cmd := ctrl.PlanCommand(s, active)
		if cmd == nil {
			cmd = EndTurn{Unit: active}
		}
		events, rej := s.Submit(cmd)
		if rej == nil {
			rep.Events = append(rep.Events, events...)
			break
		}
		ctrl.CommandRejected(cmd, rej)
		if attempt == maxPlanAttempts-1 {
			events, rej = s.Submit(EndTurn{Unit: active})
			if rej != nil {
				panic("invariant: end turn rejected: " + rej.String())
			}
			rep.Events = append(rep.Events, events...)
		}
	}
	rep.Round = s.round
	rep.Done = s.outcome != OutcomeOpen
	return rep
}

// ActiveUnit returns the unit whose turn it is, or "" once the battle
// is decided.
func (s *Sim) ActiveUnit() UnitID {
	if s.outcome != OutcomeOpen || len(s.order) == 0 {
		return ""
	}
	return s.order[s.turnIdx]
}

// WaitingForInput reports whether the active unit has no controller and
// the battle expects an external Submit.
func (s *Sim) WaitingForInput() bool {
	if s.outcome != OutcomeOpen {
		return false
	}
	_, driven := s.controllers[s.ActiveUnit()]
	return !driven
}

// Name returns the scenario name the battle was built from.
func (s *Sim) Name() string { return s.name }

// Seed returns the battle's RNG seed.
func (s *Sim) Seed() uint64 { return s.seed }

// TickCount returns how many ticks have run.
func (s *Sim) TickCount() uint64 { return s.tick }

// Round returns the current 1-based round number.
func (s *Sim) Round() int { return s.round }

// Outcome returns the terminal result, or OutcomeOpen while fighting.
func (s *Sim) Outcome() Outcome { return s.outcome }

// Done reports whether the battle is decided.
func (s *Sim) Done() bool { return s.outcome != OutcomeOpen }

// EventsDelivered returns the bus's publish counter.
func (s *Sim) EventsDelivered() uint64 { return s.bus.Delivered() }

// Unit returns a copy of the unit's current state.
func (s *Sim) Unit(id UnitID) (Unit, bool) {
	u, ok := s.units[id]
	if !ok {
		return Unit{}, false
	}
	out := *u
	out.Statuses = append([]StatusEffect(nil), u.Statuses...)
	return out, true
}

// UnitIDs returns every unit id, dead or alive, in lexicographic
// order.
func (s *Sim) UnitIDs() []UnitID {
	return append([]UnitID(nil), s.sorted...)
}

// TurnOrder returns the fixed initiative order.
func (s *Sim) TurnOrder() []UnitID {
	return append([]UnitID(nil), s.order...)
}

// LivingUnits returns copies of the team's living units in
// lexicographic id order. An empty team matches everyone.
func (s *Sim) LivingUnits(team Team) []Unit {
	var out []Unit
	for _, id := range s.sorted {
		u := s.units[id]
		if !u.Alive() {
			continue
		}
		if team != "" && u.Team != team {
			continue
		}
		c := *u
		c.Statuses = append([]StatusEffect(nil), u.Statuses...)
		out = append(out, c)
	}
	return out
}

// LivingEnemies returns copies of living units hostile to the team.
func (s *Sim) LivingEnemies(team Team) []Unit {
	var out []Unit
	for _, id := range s.sorted {
		u := s.units[id]
		if u.Alive() && u.Team != team {
			c := *u
			c.Statuses = append([]StatusEffect(nil), u.Statuses...)
			out = append(out, c)
		}
	}
	return out
}

// TeamOf resolves a unit's team.
func (s *Sim) TeamOf(id UnitID) (Team, bool) {
	u, ok := s.units[id]
	if !ok {
		return "", false
	}
	return u.Team, true
}

// LivingCount returns how many of the team's units are alive.
func (s *Sim) LivingCount(team Team) int {
	n := 0
	for _, u := range s.units {
		if u.Alive() && u.Team == team {
			n++
		}
	}
	return n
}

// OccupantAt returns the unit standing on the cell, if any.
func (s *Sim) OccupantAt(c Cell) (UnitID, bool) {
	return s.grid.OccupantAt(c)
}

// Width returns the board's column count.
func (s *Sim) Width() int { return s.grid.Width() }

// BoardHeight returns the board's row count.
func (s *Sim) BoardHeight() int { return s.grid.Height() }

// TileAt returns a copy of the board tile.
func (s *Sim) TileAt(c Cell) (Tile, bool) {
	return s.grid.Tile(c)
}

// PathTo plans a route for a unit to a destination cell.
func (s *Sim) PathTo(mover UnitID, to Cell) ([]Cell, bool) {
	u, ok := s.units[mover]
	if !ok {
		return nil, false
	}
	return FindPath(s.grid, mover, u.Pos, to)
}

// ApproachPath plans a route for a unit to a cell adjacent to the
// target unit.
func (s *Sim) ApproachPath(mover, target UnitID) ([]Cell, bool) {
	u, ok := s.units[mover]
	t, tok := s.units[target]
	if !ok || !tok {
		return nil, false
	}
	return FindApproach(s.grid, mover, u.Pos, t.Pos)
}

// PathCostOf sums the action point cost of a planned path.
func (s *Sim) PathCostOf(path []Cell) int {
	return PathCost(s.grid, path)
}

// AffordablePrefix trims a planned path to what the budget covers.
func (s *Sim) AffordablePrefix(path []Cell, budget int) []Cell {
	return TruncateByCost(s.grid, path, budget)
}
