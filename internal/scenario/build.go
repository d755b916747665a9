package scenario

import (
	"fmt"

	"github.com/rdowning07/starter-town-tactics-sub001/internal/bt"
	"github.com/rdowning07/starter-town-tactics-sub001/internal/sim"
)

// Preset names a difficulty level. Presets scale the stats of every
// unit fighting against the player team at build time; the scaled
// numbers are part of the Setup, so determinism is untouched.
type Preset string

const (
	PresetEasy   Preset = "easy"
	PresetNormal Preset = "normal"
	PresetHard   Preset = "hard"
)

// presetTable holds the published scaling percentages per preset.
var presetTable = map[Preset]struct{ hpPct, powerPct int }{
	PresetEasy:   {hpPct: 75, powerPct: 75},
	PresetNormal: {hpPct: 100, powerPct: 100},
	PresetHard:   {hpPct: 130, powerPct: 125},
}

func (p Preset) known() bool {
	if p == "" {
		return true
	}
	_, ok := presetTable[p]
	return ok
}

// scaleHP applies the preset's hit point percentage, never below 1.
func (p Preset) scaleHP(v int) int {
	spec, ok := presetTable[p]
	if !ok {
		return v
	}
	scaled := v * spec.hpPct / 100
	if scaled < 1 {
		scaled = 1
	}
	return scaled
}

// scalePower applies the preset's damage percentage.
func (p Preset) scalePower(v int) int {
	spec, ok := presetTable[p]
	if !ok {
		return v
	}
	return v * spec.powerPct / 100
}

// Setup assembles the sim.Setup for this descriptor under the given
// seed: board, units with difficulty scaling, objective tree and
// behavior-tree controllers. The descriptor is validated first.
func (d *Descriptor) Setup(seed uint64) (sim.Setup, error) {
	if err := d.Validate(); err != nil {
		return sim.Setup{}, err
	}

	legend, err := d.legend()
	if err != nil {
		return sim.Setup{}, err
	}
	w, h, err := d.boardSize(legend)
	if err != nil {
		return sim.Setup{}, err
	}
	grid, err := sim.NewGrid(w, h)
	if err != nil {
		return sim.Setup{}, fmt.Errorf("scenario: %s: %w", d.Name, err)
	}
	for y, row := range d.Grid.Rows {
		for x, r := range []rune(row) {
			if t := legend[r]; t != sim.TerrainPlains {
				if err := grid.SetTerrain(sim.C(x, y), t); err != nil {
					return sim.Setup{}, fmt.Errorf("scenario: %s: %w", d.Name, err)
				}
			}
		}
	}
	for _, hs := range d.Grid.Heights {
		if err := grid.SetHeight(sim.C(hs.X, hs.Y), hs.H); err != nil {
			return sim.Setup{}, fmt.Errorf("scenario: %s: %w", d.Name, err)
		}
	}

	playerTeam := sim.Team(d.playerTeam())
	units := make([]sim.Unit, 0, len(d.Units))
	controllers := make(map[sim.UnitID]sim.Controller)
	for _, spec := range d.Units {
		u := sim.Unit{
			ID:         sim.UnitID(spec.ID),
			Name:       spec.Name,
			Team:       sim.Team(spec.Team),
			Pos:        spec.At.cell(),
			HP:         spec.HP,
			MaxHP:      spec.MaxHP,
			AP:         spec.AP,
			MaxAP:      spec.MaxAP,
			APRegen:    spec.APRegen,
			Power:      spec.Power,
			Range:      spec.Range,
			Initiative: spec.Initiative,
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
		if spec.Facing != "" {
			u.Facing, _ = sim.ParseFacing(spec.Facing)
		}
		if u.Team != playerTeam {
			u.HP = d.Difficulty.scaleHP(u.HP)
			u.MaxHP = d.Difficulty.scaleHP(u.MaxHP)
			u.Power = d.Difficulty.scalePower(u.Power)
		}
		units = append(units, u)

		if spec.AI != "" {
			tree, err := bt.Build(spec.AI)
			if err != nil {
				return sim.Setup{}, fmt.Errorf("scenario: %s: unit %q: %w", d.Name, spec.ID, err)
			}
			controllers[u.ID] = bt.NewController(tree)
		}
	}

	var objective sim.Objective
	if d.Objective != nil {
		objective = buildObjective(d.Objective)
	}

	return sim.Setup{
		Name:        d.Name,
		Seed:        seed,
		Grid:        grid,
		Units:       units,
		Objective:   objective,
		PlayerTeam:  playerTeam,
		MaxRounds:   d.MaxRounds,
		Controllers: controllers,
	}, nil
}

// Build constructs the battle with the descriptor's own seed.
func (d *Descriptor) Build() (*sim.Sim, error) {
	return d.BuildSeeded(d.Seed)
}

// BuildSeeded constructs the battle under a caller-chosen seed, which
// is how the CLI's --seed flag and the soak harness vary runs.
func (d *Descriptor) BuildSeeded(seed uint64) (*sim.Sim, error) {
	setup, err := d.Setup(seed)
	if err != nil {
		return nil, err
	}
	s, err := sim.New(setup)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidScenario, d.Name, err)
	}
	return s, nil
}

// buildObjective turns a validated spec tree into the sim's objective
// tree.
func buildObjective(o *ObjectiveSpec) sim.Objective {
	switch o.Kind {
	case KindEliminateBoss:
		return sim.NewEliminateBoss(sim.UnitID(o.Unit))
	case KindSurviveTurns:
		return sim.NewSurviveTurns(sim.Team(o.Team), o.Turns)
	case KindHoldZones:
		zones := make([]sim.Cell, len(o.Zones))
		for i, z := range o.Zones {
			zones[i] = z.cell()
		}
		return sim.NewHoldZones(sim.Team(o.Team), zones, o.Rounds)
	case KindEscort:
		return sim.NewEscort(sim.UnitID(o.Unit), o.Goal.cell())
	case KindAllOf, KindAnyOf:
		children := make([]sim.Objective, len(o.Children))
		for i := range o.Children {
			children[i] = buildObjective(&o.Children[i])
		}
		if o.Kind == KindAllOf {
			return sim.AllOf(children...)
		}
		return sim.AnyOf(children...)
	default:
		panic("invariant: unvalidated objective kind " + o.Kind)
	}
}
