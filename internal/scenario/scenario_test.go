package scenario

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func validDescriptor() Descriptor {
	return Descriptor{
		Name:      "proving",
		Seed:      3,
		MaxRounds: 10,
		Grid: GridSpec{
			Rows: []string{
				".....",
				"..f..",
				".....",
				"....#",
			},
		},
		Units: []UnitSpec{
			{ID: "ally", Team: "player", At: CellSpec{X: 0, Y: 0}, Facing: "east",
				HP: 10, AP: 6, APRegen: 6, Power: 3, Initiative: 5, AI: "guardian"},
			{ID: "foe", Team: "enemy", At: CellSpec{X: 4, Y: 2},
				HP: 8, AP: 6, APRegen: 6, Power: 2, Initiative: 3, AI: "aggressive"},
		},
		Objective: &ObjectiveSpec{Kind: KindEliminateBoss, Unit: "foe"},
	}
}

func TestValidDescriptorPasses(t *testing.T) {
	d := validDescriptor()
	if err := d.Validate(); err != nil {
		t.Fatalf("valid descriptor refused: %v", err)
	}
}

func TestValidateCatchesBrokenDescriptors(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Descriptor)
		wantSub string
	}{
		{"no name", func(d *Descriptor) { d.Name = "" }, "no name"},
		{"unknown difficulty", func(d *Descriptor) { d.Difficulty = "brutal" }, "unknown difficulty"},
		{"negative max rounds", func(d *Descriptor) { d.MaxRounds = -1 }, "negative"},
		{"legend key too long", func(d *Descriptor) {
			d.Grid.Legend = map[string]string{"ab": "plains"}
		}, "not a single rune"},
		{"legend unknown terrain", func(d *Descriptor) {
			d.Grid.Legend = map[string]string{"x": "lava"}
		}, "unknown terrain"},
		{"no rows", func(d *Descriptor) { d.Grid.Rows = nil }, "no rows"},
		{"ragged rows", func(d *Descriptor) {
			d.Grid.Rows = append(d.Grid.Rows, "..")
		}, "cells, want"},
		{"unknown rune", func(d *Descriptor) { d.Grid.Rows[0] = "..x.." }, "unknown terrain rune"},
		{"height off board", func(d *Descriptor) {
			d.Grid.Heights = []HeightSpec{{X: 9, Y: 0, H: 1}}
		}, "off the"},
		{"negative height", func(d *Descriptor) {
			d.Grid.Heights = []HeightSpec{{X: 1, Y: 1, H: -2}}
		}, "negative"},
		{"no units", func(d *Descriptor) { d.Units = nil }, "no units"},
		{"missing id", func(d *Descriptor) { d.Units[0].ID = "" }, "has no id"},
		{"duplicate id", func(d *Descriptor) { d.Units[1].ID = "ally" }, "duplicate unit id"},
		{"duplicate name", func(d *Descriptor) {
			d.Units[0].Name = "Twin"
			d.Units[1].Name = "Twin"
		}, "duplicate unit name"},
		{"missing team", func(d *Descriptor) { d.Units[1].Team = "" }, "has no team"},
		{"unit off board", func(d *Descriptor) { d.Units[0].At = CellSpec{X: 7, Y: 0} }, "off the"},
		{"unit on wall", func(d *Descriptor) { d.Units[0].At = CellSpec{X: 4, Y: 3} }, "stands on"},
		{"shared cell", func(d *Descriptor) { d.Units[1].At = d.Units[0].At }, "share cell"},
		{"zero hp", func(d *Descriptor) { d.Units[0].HP = 0 }, "has 0 hp"},
		{"negative stat", func(d *Descriptor) { d.Units[0].Power = -1 }, "negative stat"},
		{"bad facing", func(d *Descriptor) { d.Units[0].Facing = "up" }, "unknown direction"},
		{"unknown archetype", func(d *Descriptor) { d.Units[0].AI = "berserker" }, "unknown archetype"},
		{"no player units", func(d *Descriptor) { d.Units[0].Team = "enemy" }, "no unit fights for"},
		{"no opposition", func(d *Descriptor) { d.Units[1].Team = "player" }, "fights against"},
		{"unknown objective", func(d *Descriptor) { d.Objective.Kind = "annihilate" }, "unknown objective kind"},
		{"objective unknown unit", func(d *Descriptor) { d.Objective.Unit = "ghost" }, "unknown unit"},
		{"survive zero turns", func(d *Descriptor) {
			d.Objective = &ObjectiveSpec{Kind: KindSurviveTurns, Team: "player"}
		}, "0 turns"},
		{"hold no zones", func(d *Descriptor) {
			d.Objective = &ObjectiveSpec{Kind: KindHoldZones, Team: "player", Rounds: 2}
		}, "no zones"},
		{"hold zone off board", func(d *Descriptor) {
			d.Objective = &ObjectiveSpec{Kind: KindHoldZones, Team: "player", Rounds: 2,
				Zones: []CellSpec{{X: 9, Y: 9}}}
		}, "off the board"},
		{"escort no goal", func(d *Descriptor) {
			d.Objective = &ObjectiveSpec{Kind: KindEscort, Unit: "ally"}
		}, "no goal"},
		{"escort goal on wall", func(d *Descriptor) {
			d.Objective = &ObjectiveSpec{Kind: KindEscort, Unit: "ally", Goal: &CellSpec{X: 4, Y: 3}}
		}, "is wall"},
		{"compound no children", func(d *Descriptor) {
			d.Objective = &ObjectiveSpec{Kind: KindAllOf}
		}, "no children"},
		{"nested invalid child", func(d *Descriptor) {
			d.Objective = &ObjectiveSpec{Kind: KindAnyOf,
				Children: []ObjectiveSpec{{Kind: "bogus"}}}
		}, "unknown objective kind"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := validDescriptor()
			tc.mutate(&d)
			err := d.Validate()
			if err == nil {
				t.Fatal("broken descriptor accepted")
			}
			if !errors.Is(err, ErrInvalidScenario) {
				t.Errorf("error %v does not wrap ErrInvalidScenario", err)
			}
			if !strings.Contains(err.Error(), tc.wantSub) {
				t.Errorf("error %q does not mention %q", err, tc.wantSub)
			}
		})
	}
}

func TestParseRoundTrip(t *testing.T) {
	src := `
name: trial
description: two fighters on a strip
seed: 21
max_rounds: 12
grid:
  legend:
    "o": road
  rows:
    - "ooooo"
    - ".f..."
  heights:
    - {x: 2, y: 0, h: 1}
units:
  - id: ina
    team: player
    at: {x: 0, y: 0}
    facing: east
    hp: 9
    ap: 6
    ap_regen: 6
    power: 3
    initiative: 4
  - id: gob
    team: enemy
    at: {x: 4, y: 0}
    facing: west
    hp: 7
    ap: 6
    ap_regen: 6
    power: 2
    initiative: 2
    ai: aggressive
objective:
  kind: survive_turns
  team: player
  turns: 4
`
	d, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if d.Name != "trial" || d.Seed != 21 || d.MaxRounds != 12 {
		t.Errorf("header: got %q seed %d rounds %d", d.Name, d.Seed, d.MaxRounds)
	}
	if len(d.Grid.Rows) != 2 || d.Grid.Legend["o"] != "road" {
		t.Errorf("grid: %+v", d.Grid)
	}
	if len(d.Units) != 2 || d.Units[1].AI != "aggressive" || d.Units[0].Facing != "east" {
		t.Errorf("units: %+v", d.Units)
	}
	if d.Objective == nil || d.Objective.Kind != KindSurviveTurns || d.Objective.Turns != 4 {
		t.Errorf("objective: %+v", d.Objective)
	}
}

func TestParseRejectsBadYAML(t *testing.T) {
	_, err := Parse([]byte(":\n\t- not yaml"))
	if err == nil {
		t.Fatal("malformed yaml accepted")
	}
	if !errors.Is(err, ErrInvalidScenario) {
		t.Errorf("error %v does not wrap ErrInvalidScenario", err)
	}
}

func TestLoadReportsPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.yaml")
	if err := os.WriteFile(path, []byte("name: broken\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Load(path)
	if err == nil {
		t.Fatal("descriptor without a grid accepted")
	}
	if !errors.Is(err, ErrInvalidScenario) || !strings.Contains(err.Error(), path) {
		t.Errorf("error %q should wrap the sentinel and name %s", err, path)
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("missing file accepted")
	}
}

func TestResolvePrefersFilesOverBuiltins(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mine.yaml")
	src := `
name: homebrew
seed: 1
grid:
  rows: ["...", "..."]
units:
  - {id: a, team: player, at: {x: 0, y: 0}, hp: 5, ap: 4, ap_regen: 4, power: 2, initiative: 2}
  - {id: b, team: enemy, at: {x: 2, y: 1}, hp: 5, ap: 4, ap_regen: 4, power: 2, initiative: 1}
`
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	d, err := Resolve(path)
	if err != nil {
		t.Fatalf("Resolve(file): %v", err)
	}
	if d.Name != "homebrew" {
		t.Errorf("file resolution: got %q", d.Name)
	}

	d, err = Resolve("skirmish")
	if err != nil {
		t.Fatalf("Resolve(builtin): %v", err)
	}
	if d.Name != "skirmish" {
		t.Errorf("builtin resolution: got %q", d.Name)
	}

	_, err = Resolve("nonesuch")
	if err == nil {
		t.Fatal("unknown reference accepted")
	}
	if !errors.Is(err, ErrInvalidScenario) || !strings.Contains(err.Error(), "skirmish") {
		t.Errorf("error %q should wrap the sentinel and list the built-ins", err)
	}
}
