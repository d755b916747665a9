package sim

import (
	"fmt"
	"reflect"
	"strings"
	"testing"
)

func mustGrid(t *testing.T, w, h int) *Grid {
	t.Helper()
	g, err := NewGrid(w, h)
	if err != nil {
		t.Fatalf("NewGrid(%d,%d): %v", w, h, err)
	}
	return g
}

func mustSim(t *testing.T, setup Setup) *Sim {
	t.Helper()
	s, err := New(setup)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func mustSubmit(t *testing.T, s *Sim, cmd Command) []Event {
	t.Helper()
	events, rej := s.Submit(cmd)
	if rej != nil {
		t.Fatalf("%s rejected: %s", cmd.Kind(), rej)
	}
	return events
}

// duelSetup is a flat 5x5 board with one player unit at (1,2) and one
// enemy at (3,2). Both act at 6 AP per round; the player unit moves
// first on initiative.
func duelSetup(t *testing.T, seed uint64) Setup {
	t.Helper()
	return Setup{
		Name: "duel",
		Seed: seed,
		Grid: mustGrid(t, 5, 5),
		Units: []Unit{
			{ID: "ash", Name: "Ash", Team: TeamPlayer, Pos: C(1, 2), Facing: FaceEast,
				HP: 12, MaxHP: 12, AP: 6, MaxAP: 6, APRegen: 6, Power: 3, Range: 1, Initiative: 5},
			{ID: "gor", Name: "Gor", Team: TeamEnemy, Pos: C(3, 2), Facing: FaceWest,
				HP: 12, MaxHP: 12, AP: 6, MaxAP: 6, APRegen: 6, Power: 3, Range: 1, Initiative: 3},
		},
	}
}

// kindsOf flattens an event batch to bare type names for order checks.
func kindsOf(events []Event) string {
	kinds := make([]string, len(events))
	for i, ev := range events {
		kinds[i] = strings.TrimPrefix(fmt.Sprintf("%T", ev), "sim.")
	}
	return strings.Join(kinds, " ")
}

func TestNewRejectsBrokenSetups(t *testing.T) {
	grid := func() *Grid { return mustGrid(t, 3, 3) }
	unit := func(id UnitID, pos Cell, hp int) Unit {
		return Unit{ID: id, Team: TeamPlayer, Pos: pos, HP: hp, AP: 3, Initiative: 1}
	}
	cases := []struct {
		name  string
		setup Setup
	}{
		{"no grid", Setup{Units: []Unit{unit("a", C(0, 0), 5)}}},
		{"no units", Setup{Grid: grid()}},
		{"empty id", Setup{Grid: grid(), Units: []Unit{unit("", C(0, 0), 5)}}},
		{"duplicate id", Setup{Grid: grid(), Units: []Unit{unit("a", C(0, 0), 5), unit("a", C(1, 0), 5)}}},
		{"dead on arrival", Setup{Grid: grid(), Units: []Unit{unit("a", C(0, 0), 0)}}},
		{"stacked units", Setup{Grid: grid(), Units: []Unit{unit("a", C(1, 1), 5), unit("b", C(1, 1), 5)}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(tc.setup); err == nil {
				t.Error("New accepted a broken setup")
			}
		})
	}
}

func TestNewSyncsUnitHeightFromGrid(t *testing.T) {
	setup := duelSetup(t, 1)
	if err := setup.Grid.SetHeight(C(1, 2), 3); err != nil {
		t.Fatalf("SetHeight: %v", err)
	}
	s := mustSim(t, setup)
	u, ok := s.Unit("ash")
	if !ok {
		t.Fatal("ash missing")
	}
	if u.Height != 3 {
		t.Errorf("height: got %d, want 3 from the grid", u.Height)
	}
}

func TestTurnOrderInitiativeThenID(t *testing.T) {
	s := mustSim(t, Setup{
		Name: "order",
		Grid: mustGrid(t, 4, 4),
		Units: []Unit{
			{ID: "b", Team: TeamPlayer, Pos: C(0, 0), HP: 5, Initiative: 5},
			{ID: "c", Team: TeamEnemy, Pos: C(1, 0), HP: 5, Initiative: 3},
			{ID: "a", Team: TeamEnemy, Pos: C(2, 0), HP: 5, Initiative: 5},
		},
	})
	got := s.TurnOrder()
	want := []UnitID{"a", "b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("turn order: got %v, want %v", got, want)
	}
	if s.ActiveUnit() != "a" {
		t.Errorf("active: got %q, want %q", s.ActiveUnit(), "a")
	}
}

func TestMoveSpendsAPAndUpdatesOccupancy(t *testing.T) {
	s := mustSim(t, duelSetup(t, 1))

	events := mustSubmit(t, s, Move{Unit: "ash", To: C(1, 0)})
	if got, want := kindsOf(events), "TurnStarted UnitMoved"; got != want {
		t.Fatalf("events: got %q, want %q", got, want)
	}
	mv := events[1].(UnitMoved)
	if mv.From != C(1, 2) || mv.To != C(1, 0) || mv.Cost != 2 {
		t.Errorf("move event: got %+v", mv)
	}
	wantPath := []Cell{C(1, 2), C(1, 1), C(1, 0)}
	if !reflect.DeepEqual(mv.Path, wantPath) {
		t.Errorf("path: got %v, want %v", mv.Path, wantPath)
	}

	u, _ := s.Unit("ash")
	if u.Pos != C(1, 0) || u.AP != 4 || u.Facing != FaceNorth {
		t.Errorf("unit after move: pos %v ap %d facing %v", u.Pos, u.AP, u.Facing)
	}
	if _, taken := s.OccupantAt(C(1, 2)); taken {
		t.Error("old cell still occupied")
	}
	if occ, _ := s.OccupantAt(C(1, 0)); occ != "ash" {
		t.Errorf("new cell occupant: got %q, want ash", occ)
	}
}

func TestAttackDamagePinnedThroughPipeline(t *testing.T) {
	// Attacker two levels up, defender looking east while hit from the
	// north: 3 power +2 height +1 flank -1 swing = 5.
	setup := Setup{
		Name: "cliff",
		Seed: 3,
		Grid: mustGrid(t, 5, 5),
		Units: []Unit{
			{ID: "ash", Team: TeamPlayer, Pos: C(2, 1), HP: 12, AP: 6, MaxAP: 6, Power: 3, Initiative: 5},
			{ID: "gor", Team: TeamEnemy, Pos: C(2, 2), Facing: FaceEast, HP: 12, AP: 6, MaxAP: 6, Power: 3, Initiative: 3},
		},
	}
	if err := setup.Grid.SetHeight(C(2, 1), 2); err != nil {
		t.Fatalf("SetHeight: %v", err)
	}
	s := mustSim(t, setup)

	events := mustSubmit(t, s, Attack{Attacker: "ash", Target: "gor"})
	if got, want := kindsOf(events), "TurnStarted UnitDamaged"; got != want {
		t.Fatalf("events: got %q, want %q", got, want)
	}
	dmg := events[1].(UnitDamaged)
	if dmg.Target != "gor" || dmg.Attacker != "ash" {
		t.Errorf("participants: got %+v", dmg)
	}
	if dmg.Amount != 5 || dmg.HPLeft != 7 {
		t.Errorf("damage: got %d leaving %d hp, want 5 leaving 7", dmg.Amount, dmg.HPLeft)
	}
	u, _ := s.Unit("ash")
	if u.AP != 3 {
		t.Errorf("attacker ap: got %d, want 3", u.AP)
	}
	if u.Facing != FaceSouth {
		t.Errorf("attacker facing: got %v, want south", u.Facing)
	}
}

func TestKillFreesTheCell(t *testing.T) {
	setup := duelSetup(t, 1)
	setup.Units[0].Pos = C(2, 2)
	setup.Units[1].HP = 1
	s := mustSim(t, setup)

	events := mustSubmit(t, s, Attack{Attacker: "ash", Target: "gor"})
	if got, want := kindsOf(events), "TurnStarted UnitDamaged UnitKilled"; got != want {
		t.Fatalf("events: got %q, want %q", got, want)
	}
	killed := events[2].(UnitKilled)
	if killed.Unit != "gor" || killed.By != "ash" || killed.Cause != "attack" {
		t.Errorf("kill event: got %+v", killed)
	}
	if _, taken := s.OccupantAt(C(3, 2)); taken {
		t.Error("dead unit still occupies its cell")
	}
	if s.LivingCount(TeamEnemy) != 0 {
		t.Errorf("living enemies: got %d, want 0", s.LivingCount(TeamEnemy))
	}
	gor, _ := s.Unit("gor")
	if gor.Alive() || gor.HP != 0 {
		t.Errorf("dead unit state: hp %d", gor.HP)
	}

	// The freed cell is immediately walkable.
	events = mustSubmit(t, s, Move{Unit: "ash", To: C(3, 2)})
	if got, want := kindsOf(events), "UnitMoved"; got != want {
		t.Fatalf("move onto freed cell: got %q, want %q", got, want)
	}
}

func TestApplyStatusTargetsAndCosts(t *testing.T) {
	setup := duelSetup(t, 1)
	setup.Units[0].Pos = C(2, 2) // adjacent to gor at (3,2)
	s := mustSim(t, setup)

	poison := StatusEffect{Kind: StatusPoison, Magnitude: 2, Duration: 2}
	events := mustSubmit(t, s, ApplyStatus{Source: "ash", Target: "gor", Effect: poison})
	if got, want := kindsOf(events), "TurnStarted StatusApplied"; got != want {
		t.Fatalf("events: got %q, want %q", got, want)
	}
	applied := events[1].(StatusApplied)
	if applied.Unit != "gor" || applied.Source != "ash" || applied.Effect != poison {
		t.Errorf("status event: got %+v", applied)
	}
	gor, _ := s.Unit("gor")
	if !gor.StatusActive(StatusPoison) {
		t.Error("poison not on target")
	}
	ash, _ := s.Unit("ash")
	if ash.AP != 4 {
		t.Errorf("ap after status: got %d, want 4", ash.AP)
	}

	// Regen is self-castable without a range check.
	regen := StatusEffect{Kind: StatusRegen, Magnitude: 1, Duration: 2}
	mustSubmit(t, s, ApplyStatus{Source: "ash", Target: "ash", Effect: regen})
	ash, _ = s.Unit("ash")
	if !ash.StatusActive(StatusRegen) || ash.AP != 2 {
		t.Errorf("self regen: active=%v ap=%d", ash.StatusActive(StatusRegen), ash.AP)
	}

	// Harmful on an ally and helpful on an enemy are both refused.
	if _, rej := s.Submit(ApplyStatus{Source: "ash", Target: "ash", Effect: poison}); rej == nil || rej.Reason != RejectFriendlyFire {
		t.Errorf("poison on self: got %v, want friendly_fire", rej)
	}
	if _, rej := s.Submit(ApplyStatus{Source: "ash", Target: "gor", Effect: regen}); rej == nil || rej.Reason != RejectInvalidTarget {
		t.Errorf("regen on enemy: got %v, want invalid_target", rej)
	}
}

func TestEndTurnTickSequence(t *testing.T) {
	setup := duelSetup(t, 1)
	setup.Units[0].AP = 3
	setup.Units[0].Statuses = []StatusEffect{{Kind: StatusPoison, Magnitude: 2, Duration: 1}}
	s := mustSim(t, setup)

	events := mustSubmit(t, s, EndTurn{Unit: "ash"})
	want := "TurnStarted StatusTicked StatusExpired APRegenerated TurnEnded"
	if got := kindsOf(events); got != want {
		t.Fatalf("events: got %q, want %q", got, want)
	}
	tick := events[1].(StatusTicked)
	if tick.Kind != StatusPoison || tick.Amount != 2 || tick.HPLeft != 10 {
		t.Errorf("poison tick: got %+v", tick)
	}
	regen := events[3].(APRegenerated)
	if regen.Amount != 3 || regen.Total != 6 {
		t.Errorf("regen: got %+v, want amount 3 total 6", regen)
	}
	ash, _ := s.Unit("ash")
	if len(ash.Statuses) != 0 {
		t.Errorf("statuses after expiry: got %v", ash.Statuses)
	}
	if s.ActiveUnit() != "gor" {
		t.Errorf("active after end turn: got %q, want gor", s.ActiveUnit())
	}
}

func TestSlowCutsRegenWithoutTicking(t *testing.T) {
	setup := duelSetup(t, 1)
	setup.Units[0].AP = 2
	setup.Units[0].APRegen = 4
	setup.Units[0].Statuses = []StatusEffect{{Kind: StatusSlow, Magnitude: 2, Duration: 2}}
	s := mustSim(t, setup)

	events := mustSubmit(t, s, EndTurn{Unit: "ash"})
	want := "TurnStarted APRegenerated TurnEnded"
	if got := kindsOf(events); got != want {
		t.Fatalf("events: got %q, want %q", got, want)
	}
	regen := events[1].(APRegenerated)
	if regen.Amount != 2 || regen.Total != 4 {
		t.Errorf("slowed regen: got %+v, want amount 2 total 4", regen)
	}
	ash, _ := s.Unit("ash")
	if len(ash.Statuses) != 1 || ash.Statuses[0].Duration != 1 {
		t.Errorf("slow after one turn: got %v, want duration 1", ash.Statuses)
	}
}

func TestPoisonDeathStillClosesTheTurn(t *testing.T) {
	setup := duelSetup(t, 1)
	setup.Units[0].HP = 2
	setup.Units[0].MaxHP = 12
	setup.Units[0].Statuses = []StatusEffect{{Kind: StatusPoison, Magnitude: 5, Duration: 3}}
	s := mustSim(t, setup)

	events := mustSubmit(t, s, EndTurn{Unit: "ash"})
	want := "TurnStarted StatusTicked UnitKilled ObjectiveCompleted TurnEnded"
	if got := kindsOf(events); got != want {
		t.Fatalf("events: got %q, want %q", got, want)
	}
	tick := events[1].(StatusTicked)
	if tick.Amount != 2 || tick.HPLeft != 0 {
		t.Errorf("clamped poison tick: got %+v, want amount 2 hp 0", tick)
	}
	killed := events[2].(UnitKilled)
	if killed.Unit != "ash" || killed.By != "" || killed.Cause != "poison" {
		t.Errorf("kill event: got %+v", killed)
	}
	done := events[3].(ObjectiveCompleted)
	if done.Result != OutcomeDefeat {
		t.Errorf("result: got %v, want defeat", done.Result)
	}
	if !s.Done() || s.Outcome() != OutcomeDefeat {
		t.Errorf("battle state: done=%v outcome=%v", s.Done(), s.Outcome())
	}
	if _, taken := s.OccupantAt(C(1, 2)); taken {
		t.Error("poisoned corpse still occupies its cell")
	}
}

func TestSurviveTurnsVictoryOnTheFifthTurnEnd(t *testing.T) {
	s := mustSim(t, Setup{
		Name: "holdout",
		Seed: 11,
		Grid: mustGrid(t, 4, 4),
		Units: []Unit{
			{ID: "ash", Team: TeamPlayer, Pos: C(1, 1), HP: 10, AP: 6, MaxAP: 6, APRegen: 6, Initiative: 1},
		},
		Objective: NewSurviveTurns(TeamPlayer, 5),
	})

	completions := 0
	for turn := 1; turn <= 5; turn++ {
		events := mustSubmit(t, s, EndTurn{Unit: "ash"})
		for _, ev := range events {
			if done, ok := ev.(ObjectiveCompleted); ok {
				completions++
				if turn != 5 {
					t.Fatalf("completed on turn %d, want 5", turn)
				}
				if done.Result != OutcomeVictory {
					t.Errorf("result: got %v, want victory", done.Result)
				}
			}
		}
		if turn < 5 {
			want := "TurnStarted APRegenerated TurnEnded ObjectiveProgressed RoundEnded"
			if got := kindsOf(events); got != want {
				t.Fatalf("turn %d events: got %q, want %q", turn, got, want)
			}
			prog := events[3].(ObjectiveProgressed)
			if prog.Objective != "survive_turns" || prog.Progress != turn || prog.Goal != 5 {
				t.Errorf("turn %d progress: got %+v", turn, prog)
			}
		} else {
			// Victory latches before the turn rotation, so no round end
			// trails the final turn.
			want := "TurnStarted APRegenerated TurnEnded ObjectiveProgressed ObjectiveCompleted"
			if got := kindsOf(events); got != want {
				t.Fatalf("final events: got %q, want %q", got, want)
			}
		}
	}
	if completions != 1 {
		t.Errorf("completions: got %d, want exactly 1", completions)
	}
	if s.Outcome() != OutcomeVictory || !s.Done() {
		t.Errorf("battle state: outcome=%v done=%v", s.Outcome(), s.Done())
	}
}

func TestRoundCapDefeat(t *testing.T) {
	setup := duelSetup(t, 1)
	setup.MaxRounds = 2
	s := mustSim(t, setup)

	mustSubmit(t, s, EndTurn{Unit: "ash"})
	mustSubmit(t, s, EndTurn{Unit: "gor"})
	if s.Done() {
		t.Fatal("battle decided before the round cap")
	}
	mustSubmit(t, s, EndTurn{Unit: "ash"})
	events := mustSubmit(t, s, EndTurn{Unit: "gor"})
	want := "TurnStarted APRegenerated TurnEnded RoundEnded ObjectiveCompleted"
	if got := kindsOf(events); got != want {
		t.Fatalf("events: got %q, want %q", got, want)
	}
	if s.Outcome() != OutcomeDefeat {
		t.Errorf("outcome: got %v, want defeat at the round cap", s.Outcome())
	}
}

func TestRejectionLeavesStateUntouched(t *testing.T) {
	terrainAt := func(c Cell, terrain Terrain) func(*testing.T, *Setup) {
		return func(t *testing.T, setup *Setup) {
			if err := setup.Grid.SetTerrain(c, terrain); err != nil {
				t.Fatalf("SetTerrain: %v", err)
			}
		}
	}
	cases := []struct {
		name   string
		adjust func(*testing.T, *Setup)
		prep   []Command
		cmd    Command
		reason RejectReason
	}{
		{"not your turn", nil, nil,
			Move{Unit: "gor", To: C(3, 1)}, RejectNotYourTurn},
		{"unknown actor", nil, nil,
			Move{Unit: "zed", To: C(0, 0)}, RejectUnknownUnit},
		{"out of bounds", nil, nil,
			Move{Unit: "ash", To: C(9, 9)}, RejectOutOfBounds},
		{"impassable", terrainAt(C(0, 0), TerrainWater), nil,
			Move{Unit: "ash", To: C(0, 0)}, RejectImpassable},
		{"destination occupied", nil, nil,
			Move{Unit: "ash", To: C(3, 2)}, RejectOccupied},
		{"already there", nil, nil,
			Move{Unit: "ash", To: C(1, 2)}, RejectInvalidTarget},
		{"no path", func(t *testing.T, setup *Setup) {
			terrainAt(C(4, 3), TerrainWall)(t, setup)
			terrainAt(C(3, 4), TerrainWall)(t, setup)
		}, nil, Move{Unit: "ash", To: C(4, 4)}, RejectNoPath},
		{"move too expensive", func(_ *testing.T, setup *Setup) { setup.Units[0].AP = 1 }, nil,
			Move{Unit: "ash", To: C(1, 0)}, RejectInsufficientAP},
		{"attack out of range", nil, nil,
			Attack{Attacker: "ash", Target: "gor"}, RejectOutOfRange},
		{"attack unknown target", nil, nil,
			Attack{Attacker: "ash", Target: "zed"}, RejectUnknownUnit},
		{"attack too expensive", func(_ *testing.T, setup *Setup) {
			setup.Units[0].Pos = C(2, 2)
			setup.Units[0].AP = 2
		}, nil, Attack{Attacker: "ash", Target: "gor"}, RejectInsufficientAP},
		{"attack a corpse", func(_ *testing.T, setup *Setup) {
			setup.Units[0].Pos = C(2, 2)
			setup.Units[1].HP = 1
		}, []Command{Attack{Attacker: "ash", Target: "gor"}},
			Attack{Attacker: "ash", Target: "gor"}, RejectTargetDead},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			setup := duelSetup(t, 1)
			if tc.adjust != nil {
				tc.adjust(t, &setup)
			}
			s := mustSim(t, setup)
			for _, cmd := range tc.prep {
				mustSubmit(t, s, cmd)
			}

			before := s.Snapshot().Hash()
			events, rej := s.Submit(tc.cmd)
			if rej == nil {
				t.Fatal("command accepted, want rejection")
			}
			if rej.Reason != tc.reason {
				t.Errorf("reason: got %s, want %s", rej.Reason, tc.reason)
			}
			if events != nil {
				t.Errorf("rejected command returned events: %v", events)
			}
			if after := s.Snapshot().Hash(); after != before {
				t.Error("rejected command changed battle state")
			}
		})
	}
}

func TestFriendlyFireRefused(t *testing.T) {
	setup := duelSetup(t, 1)
	setup.Units = append(setup.Units, Unit{
		ID: "bo", Team: TeamPlayer, Pos: C(1, 1), HP: 8, AP: 4, Initiative: 1,
	})
	s := mustSim(t, setup)
	_, rej := s.Submit(Attack{Attacker: "ash", Target: "bo"})
	if rej == nil || rej.Reason != RejectFriendlyFire {
		t.Errorf("attack on ally: got %v, want friendly_fire", rej)
	}
}

func TestBattleOverRefusesEverything(t *testing.T) {
	s := mustSim(t, Setup{
		Name: "over",
		Grid: mustGrid(t, 3, 3),
		Units: []Unit{
			{ID: "ash", Team: TeamPlayer, Pos: C(1, 1), HP: 5, AP: 3, Initiative: 1},
		},
		Objective: NewSurviveTurns(TeamPlayer, 1),
	})
	mustSubmit(t, s, EndTurn{Unit: "ash"})
	if s.Outcome() != OutcomeVictory {
		t.Fatalf("outcome: got %v, want victory", s.Outcome())
	}

	if _, rej := s.Submit(EndTurn{Unit: "ash"}); rej == nil || rej.Reason != RejectBattleOver {
		t.Errorf("submit after victory: got %v, want battle_over", rej)
	}
	ticksBefore := s.TickCount()
	rep := s.Tick()
	if !rep.Done {
		t.Error("tick after victory not marked done")
	}
	if s.TickCount() != ticksBefore {
		t.Error("tick advanced a decided battle")
	}
	if s.ActiveUnit() != "" {
		t.Errorf("active unit after victory: got %q, want none", s.ActiveUnit())
	}
	if s.WaitingForInput() {
		t.Error("decided battle claims to wait for input")
	}
}

func TestSameSeedSameHash(t *testing.T) {
	script := []Command{
		Move{Unit: "ash", To: C(2, 2)},
		Attack{Attacker: "ash", Target: "gor"},
		EndTurn{Unit: "ash"},
		Attack{Attacker: "gor", Target: "ash"},
		EndTurn{Unit: "gor"},
	}
	run := func(seed uint64) Snapshot {
		s := mustSim(t, duelSetup(t, seed))
		for round := 0; round < 3; round++ {
			for _, cmd := range script {
				s.Submit(cmd) // rejections are part of the scripted flow
			}
		}
		return s.Snapshot()
	}

	a, b := run(2025), run(2025)
	if a.Hash() != b.Hash() {
		t.Errorf("same seed diverged: %016x vs %016x", a.Hash(), b.Hash())
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("same seed produced different snapshots")
	}
	if other := run(7); other.Hash() == a.Hash() {
		t.Error("different seed produced an identical hash")
	}
}

func TestSnapshotIsIsolated(t *testing.T) {
	s := mustSim(t, duelSetup(t, 1))
	mustSubmit(t, s, Move{Unit: "ash", To: C(2, 2)})

	snap := s.Snapshot()
	pristine := s.Snapshot()
	snap.Units[0].HP = 0
	snap.Tiles[0].Occupant = "ghost"
	snap.Units[0].Statuses = append(snap.Units[0].Statuses, StatusEffect{Kind: StatusPoison, Magnitude: 9, Duration: 9})

	if !reflect.DeepEqual(s.Snapshot(), pristine) {
		t.Error("mutating a snapshot reached the battle")
	}

	u, _ := s.Unit("ash")
	u.HP = 0
	u.Statuses = append(u.Statuses, StatusEffect{Kind: StatusSlow, Magnitude: 1, Duration: 1})
	fresh, _ := s.Unit("ash")
	if fresh.HP == 0 || len(fresh.Statuses) != 0 {
		t.Error("mutating a unit copy reached the battle")
	}
}

func TestListenerCannotSubmit(t *testing.T) {
	s := mustSim(t, duelSetup(t, 1))
	s.Subscribe(func(Event) {
		s.Submit(EndTurn{Unit: "ash"})
	})
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("reentrant submit did not panic")
		}
		if !strings.Contains(fmt.Sprint(r), "invariant") {
			t.Errorf("panic message: got %v", r)
		}
	}()
	s.Submit(EndTurn{Unit: "ash"})
}

func TestBusSeesEveryEventInOrder(t *testing.T) {
	s := mustSim(t, duelSetup(t, 1))
	var first, second []Event
	s.Subscribe(func(ev Event) { first = append(first, ev) })
	s.Subscribe(func(ev Event) { second = append(second, ev) })

	var returned []Event
	returned = append(returned, mustSubmit(t, s, Move{Unit: "ash", To: C(2, 2)})...)
	returned = append(returned, mustSubmit(t, s, EndTurn{Unit: "ash"})...)

	if kindsOf(first) != kindsOf(returned) || kindsOf(second) != kindsOf(returned) {
		t.Errorf("listener order: first %q second %q returned %q",
			kindsOf(first), kindsOf(second), kindsOf(returned))
	}
	if got := s.EventsDelivered(); got != uint64(len(returned)) {
		t.Errorf("delivered: got %d, want %d", got, len(returned))
	}
}

func TestTickWaitsForExternalInput(t *testing.T) {
	s := mustSim(t, duelSetup(t, 1))

	rep := s.Tick()
	if !rep.Waiting || rep.Unit != "ash" || rep.Tick != 1 {
		t.Fatalf("first tick: %+v", rep)
	}
	if got, want := kindsOf(rep.Events), "TurnStarted"; got != want {
		t.Errorf("first tick events: got %q, want %q", got, want)
	}

	// The opened turn is not re-announced on later idle ticks.
	rep = s.Tick()
	if !rep.Waiting || len(rep.Events) != 0 || rep.Tick != 2 {
		t.Errorf("idle tick: %+v", rep)
	}
	if !s.WaitingForInput() {
		t.Error("battle not reported as waiting")
	}

	mustSubmit(t, s, EndTurn{Unit: "ash"})
	if s.ActiveUnit() != "gor" {
		t.Errorf("active after external end turn: got %q, want gor", s.ActiveUnit())
	}
}

// scriptController feeds a fixed command list, then ends the turn.
type scriptController struct {
	cmds     []Command
	rejected []RejectReason
	begun    int
}

func (c *scriptController) BeginTurn(UnitID) { c.begun++ }

func (c *scriptController) PlanCommand(*Sim, UnitID) Command {
	if len(c.cmds) == 0 {
		return nil
	}
	cmd := c.cmds[0]
	c.cmds = c.cmds[1:]
	return cmd
}

func (c *scriptController) CommandRejected(_ Command, rej *Rejection) {
	c.rejected = append(c.rejected, rej.Reason)
}

// stubbornController repeats one hopeless command forever.
type stubbornController struct {
	cmd        Command
	rejections int
}

func (c *stubbornController) BeginTurn(UnitID) {}

func (c *stubbornController) PlanCommand(*Sim, UnitID) Command { return c.cmd }

func (c *stubbornController) CommandRejected(Command, *Rejection) { c.rejections++ }

func TestTickRunsControllers(t *testing.T) {
	ashCtrl := &scriptController{cmds: []Command{
		Move{Unit: "ash", To: C(2, 2)},
		Attack{Attacker: "ash", Target: "gor"},
	}}
	gorCtrl := &scriptController{}
	setup := duelSetup(t, 5)
	setup.Controllers = map[UnitID]Controller{"ash": ashCtrl, "gor": gorCtrl}
	s := mustSim(t, setup)

	rep := s.Tick()
	if got, want := kindsOf(rep.Events), "TurnStarted UnitMoved"; got != want {
		t.Fatalf("tick 1: got %q, want %q", got, want)
	}
	rep = s.Tick()
	if got, want := kindsOf(rep.Events), "UnitDamaged"; got != want {
		t.Fatalf("tick 2: got %q, want %q", got, want)
	}
	rep = s.Tick()
	if got, want := kindsOf(rep.Events), "APRegenerated TurnEnded"; got != want {
		t.Fatalf("tick 3: got %q, want %q", got, want)
	}
	rep = s.Tick()
	if got, want := kindsOf(rep.Events), "TurnStarted APRegenerated TurnEnded RoundEnded"; got != want {
		t.Fatalf("tick 4: got %q, want %q", got, want)
	}

	if ashCtrl.begun != 1 || gorCtrl.begun != 1 {
		t.Errorf("begin turn calls: ash %d gor %d, want 1 each", ashCtrl.begun, gorCtrl.begun)
	}
	if s.Round() != 2 || s.ActiveUnit() != "ash" || s.TickCount() != 4 {
		t.Errorf("after round: round=%d active=%q ticks=%d", s.Round(), s.ActiveUnit(), s.TickCount())
	}
}

func TestTickReplansAfterRejection(t *testing.T) {
	setup := duelSetup(t, 5)
	if err := setup.Grid.SetTerrain(C(0, 0), TerrainWater); err != nil {
		t.Fatalf("SetTerrain: %v", err)
	}
	ctrl := &scriptController{cmds: []Command{
		Move{Unit: "ash", To: C(0, 0)}, // into water, refused
		Move{Unit: "ash", To: C(2, 2)},
	}}
	setup.Controllers = map[UnitID]Controller{"ash": ctrl}
	s := mustSim(t, setup)

	var seen []Event
	s.Subscribe(func(ev Event) { seen = append(seen, ev) })

	rep := s.Tick()
	if got, want := kindsOf(rep.Events), "UnitMoved"; got != want {
		t.Fatalf("tick events: got %q, want %q", got, want)
	}
	if len(ctrl.rejected) != 1 || ctrl.rejected[0] != RejectImpassable {
		t.Errorf("rejections: got %v, want [impassable]", ctrl.rejected)
	}
	if got, want := kindsOf(seen), "TurnStarted CommandRejected UnitMoved"; got != want {
		t.Errorf("bus events: got %q, want %q", got, want)
	}
	if s.TickCount() != 1 {
		t.Errorf("ticks: got %d, want 1 for a replanned turn", s.TickCount())
	}
}

func TestTickForcesEndTurnOnHopelessController(t *testing.T) {
	setup := duelSetup(t, 5)
	ctrl := &stubbornController{cmd: Move{Unit: "ash", To: C(9, 9)}}
	setup.Controllers = map[UnitID]Controller{"ash": ctrl}
	s := mustSim(t, setup)

	rep := s.Tick()
	if ctrl.rejections != maxPlanAttempts {
		t.Errorf("rejections: got %d, want %d", ctrl.rejections, maxPlanAttempts)
	}
	found := false
	for _, ev := range rep.Events {
		if _, ok := ev.(TurnEnded); ok {
			found = true
		}
	}
	if !found {
		t.Error("forced end of turn missing from tick events")
	}
	if s.ActiveUnit() != "gor" {
		t.Errorf("active: got %q, want gor after the forced end", s.ActiveUnit())
	}
}
