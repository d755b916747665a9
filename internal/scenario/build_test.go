package scenario

import (
	"errors"
	"testing"

	"github.com/rdowning07/starter-town-tactics-sub001/internal/sim"
)

func TestSetupAssemblesBattle(t *testing.T) {
	d := validDescriptor()
	d.Grid.Heights = []HeightSpec{{X: 1, Y: 0, H: 2}}
	setup, err := d.Setup(99)
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if setup.Name != "proving" || setup.Seed != 99 || setup.MaxRounds != 10 {
		t.Errorf("header: %q seed %d rounds %d", setup.Name, setup.Seed, setup.MaxRounds)
	}
	if setup.PlayerTeam != sim.TeamPlayer {
		t.Errorf("player team: %q", setup.PlayerTeam)
	}

	if tile, _ := setup.Grid.Tile(sim.C(2, 1)); tile.Terrain != sim.TerrainForest {
		t.Errorf("terrain at (2,1): %s", tile.Terrain)
	}
	if tile, _ := setup.Grid.Tile(sim.C(4, 3)); tile.Terrain != sim.TerrainWall {
		t.Errorf("terrain at (4,3): %s", tile.Terrain)
	}
	if tile, _ := setup.Grid.Tile(sim.C(1, 0)); tile.Height != 2 {
		t.Errorf("height at (1,0): %d", tile.Height)
	}

	if len(setup.Units) != 2 {
		t.Fatalf("units: %d", len(setup.Units))
	}
	ally := setup.Units[0]
	if ally.ID != "ally" || ally.Facing != sim.FaceEast {
		t.Errorf("ally: %+v", ally)
	}
	if ally.MaxHP != 10 || ally.MaxAP != 6 || ally.Range != 1 {
		t.Errorf("ally defaults: maxhp %d maxap %d range %d", ally.MaxHP, ally.MaxAP, ally.Range)
	}

	if len(setup.Controllers) != 2 {
		t.Errorf("controllers: %d", len(setup.Controllers))
	}
	if setup.Controllers[sim.UnitID("ally")] == nil || setup.Controllers[sim.UnitID("foe")] == nil {
		t.Error("ai units missing controllers")
	}
	if setup.Objective == nil {
		t.Error("objective not built")
	}
}

func TestControllersOnlyForAIUnits(t *testing.T) {
	d := validDescriptor()
	d.Units[0].AI = ""
	setup, err := d.Setup(d.Seed)
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if len(setup.Controllers) != 1 {
		t.Fatalf("controllers: %d, want only the ai unit", len(setup.Controllers))
	}
	if setup.Controllers[sim.UnitID("foe")] == nil {
		t.Error("foe lost its controller")
	}
}

func TestDifficultyScalesHostilesOnly(t *testing.T) {
	base := validDescriptor()
	base.Units[1].Power = 4

	cases := []struct {
		preset            Preset
		wantHP, wantPower int
	}{
		{PresetEasy, 6, 3},
		{PresetNormal, 8, 4},
		{Preset(""), 8, 4},
		{PresetHard, 10, 5},
	}
	for _, tc := range cases {
		t.Run(string(tc.preset), func(t *testing.T) {
			d := base
			d.Difficulty = tc.preset
			setup, err := d.Setup(d.Seed)
			if err != nil {
				t.Fatalf("Setup: %v", err)
			}
			foe := setup.Units[1]
			if foe.HP != tc.wantHP || foe.MaxHP != tc.wantHP || foe.Power != tc.wantPower {
				t.Errorf("foe: hp %d/%d power %d, want %d/%d power %d",
					foe.HP, foe.MaxHP, foe.Power, tc.wantHP, tc.wantHP, tc.wantPower)
			}
			ally := setup.Units[0]
			if ally.HP != 10 || ally.Power != 3 {
				t.Errorf("ally scaled: hp %d power %d", ally.HP, ally.Power)
			}
		})
	}
}

func TestDifficultyNeverZeroesHP(t *testing.T) {
	d := validDescriptor()
	d.Units[1].HP = 1
	d.Difficulty = PresetEasy
	setup, err := d.Setup(d.Seed)
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if setup.Units[1].HP != 1 {
		t.Errorf("hp: %d, want the floor of 1", setup.Units[1].HP)
	}
}

func TestBuildSeeds(t *testing.T) {
	d := validDescriptor()
	s, err := d.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if s.Seed() != 3 {
		t.Errorf("Build seed: %d", s.Seed())
	}
	s, err = d.BuildSeeded(123)
	if err != nil {
		t.Fatalf("BuildSeeded: %v", err)
	}
	if s.Seed() != 123 {
		t.Errorf("BuildSeeded seed: %d", s.Seed())
	}
}

func TestBuildRejectsInvalidDescriptor(t *testing.T) {
	d := validDescriptor()
	d.Units[0].HP = 0
	if _, err := d.Build(); !errors.Is(err, ErrInvalidScenario) {
		t.Errorf("Build error: %v", err)
	}
}

// A one-turn survival scenario driven entirely by archetype ai ends in
// victory as soon as the tracked side finishes a turn.
func TestBuiltBattleRunsItsObjective(t *testing.T) {
	d := Descriptor{
		Name: "footrace",
		Seed: 2,
		Grid: GridSpec{Rows: []string{"....."}},
		Units: []UnitSpec{
			{ID: "ina", Team: "player", At: CellSpec{X: 0, Y: 0},
				HP: 6, AP: 4, APRegen: 4, Power: 2, Initiative: 5, AI: "guardian"},
			{ID: "gob", Team: "enemy", At: CellSpec{X: 4, Y: 0},
				HP: 6, AP: 4, APRegen: 4, Power: 2, Initiative: 3, AI: "guardian"},
		},
		Objective: &ObjectiveSpec{Kind: KindSurviveTurns, Team: "player", Turns: 1},
	}
	s, err := d.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	for i := 0; i < 10 && !s.Done(); i++ {
		s.Tick()
	}
	if got := s.Outcome(); got != sim.OutcomeVictory {
		t.Errorf("outcome: %v, want victory after one held turn", got)
	}
}
