// Package scenario loads and validates battle descriptors. The sim
// core parses no files: this package owns the YAML format, turns a
// descriptor into a sim.Setup and attaches behavior-tree controllers.
// It depends on sim and bt; neither depends back.
package scenario

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rdowning07/starter-town-tactics-sub001/internal/bt"
	"github.com/rdowning07/starter-town-tactics-sub001/internal/sim"
)

// ErrInvalidScenario marks every descriptor validation failure. Callers
// test with errors.Is and treat it as fatal before battle start.
var ErrInvalidScenario = errors.New("scenario: invalid descriptor")

// Descriptor is one battle declaration as written in YAML.
type Descriptor struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description,omitempty"`
	Seed        uint64         `yaml:"seed"`
	MaxRounds   int            `yaml:"max_rounds,omitempty"`
	PlayerTeam  string         `yaml:"player_team,omitempty"`
	Difficulty  Preset         `yaml:"difficulty,omitempty"`
	Grid        GridSpec       `yaml:"grid"`
	Units       []UnitSpec     `yaml:"units"`
	Objective   *ObjectiveSpec `yaml:"objective,omitempty"`
}

// GridSpec declares the board as rows of terrain runes. Legend entries
// override the default rune mapping; heights raise individual cells.
type GridSpec struct {
	Rows    []string          `yaml:"rows"`
	Legend  map[string]string `yaml:"legend,omitempty"`
	Heights []HeightSpec      `yaml:"heights,omitempty"`
}

// HeightSpec sets the elevation of one cell.
type HeightSpec struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
	H int `yaml:"h"`
}

// CellSpec is a board coordinate in a descriptor.
type CellSpec struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

func (c CellSpec) cell() sim.Cell { return sim.C(c.X, c.Y) }

// UnitSpec declares one combatant. MaxHP, MaxAP and Range default to
// HP, AP and 1. A non-empty AI names a behavior-tree archetype; units
// without one wait for external input.
type UnitSpec struct {
	ID         string   `yaml:"id"`
	Name       string   `yaml:"name,omitempty"`
	Team       string   `yaml:"team"`
	At         CellSpec `yaml:"at"`
	Facing     string   `yaml:"facing,omitempty"`
	HP         int      `yaml:"hp"`
	MaxHP      int      `yaml:"max_hp,omitempty"`
	AP         int      `yaml:"ap"`
	MaxAP      int      `yaml:"max_ap,omitempty"`
	APRegen    int      `yaml:"ap_regen"`
	Power      int      `yaml:"power"`
	Range      int      `yaml:"range,omitempty"`
	Initiative int      `yaml:"initiative"`
	AI         string   `yaml:"ai,omitempty"`
}

// ObjectiveSpec declares one node of the objective tree. Leaf kinds use
// the scalar fields; all_of and any_of nest children.
type ObjectiveSpec struct {
	Kind     string          `yaml:"kind"`
	Unit     string          `yaml:"unit,omitempty"`
	Team     string          `yaml:"team,omitempty"`
	Turns    int             `yaml:"turns,omitempty"`
	Rounds   int             `yaml:"rounds,omitempty"`
	Zones    []CellSpec      `yaml:"zones,omitempty"`
	Goal     *CellSpec       `yaml:"goal,omitempty"`
	Children []ObjectiveSpec `yaml:"children,omitempty"`
}

// Objective kinds accepted in descriptors.
const (
	KindEliminateBoss = "eliminate_boss"
	KindSurviveTurns  = "survive_turns"
	KindHoldZones     = "hold_zones"
	KindEscort        = "escort"
	KindAllOf         = "all_of"
	KindAnyOf         = "any_of"
)

// defaultLegend maps board runes to terrain names. Descriptor legends
// are merged over it, so a scenario only lists what it changes.
var defaultLegend = map[rune]sim.Terrain{
	'.': sim.TerrainPlains,
	'r': sim.TerrainRoad,
	'f': sim.TerrainForest,
	'h': sim.TerrainHills,
	'~': sim.TerrainWater,
	'#': sim.TerrainWall,
}

// Parse decodes and validates one YAML descriptor.
func Parse(data []byte) (Descriptor, error) {
	var d Descriptor
	if err := yaml.Unmarshal(data, &d); err != nil {
		return Descriptor{}, fmt.Errorf("%w: yaml: %v", ErrInvalidScenario, err)
	}
	if err := d.Validate(); err != nil {
		return Descriptor{}, err
	}
	return d, nil
}

// Load reads and parses a descriptor file.
func Load(path string) (Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Descriptor{}, fmt.Errorf("scenario: reading %s: %w", path, err)
	}
	d, err := Parse(data)
	if err != nil {
		return Descriptor{}, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// Resolve loads a scenario reference: an existing file path wins,
// otherwise the reference names a built-in.
func Resolve(ref string) (Descriptor, error) {
	if _, err := os.Stat(ref); err == nil {
		return Load(ref)
	}
	d, err := Builtin(ref)
	if err == nil {
		return d, nil
	}
	names, _ := BuiltinNames()
	return Descriptor{}, fmt.Errorf("%w: no file or built-in scenario %q (built-ins: %s)",
		ErrInvalidScenario, ref, strings.Join(names, ", "))
}

// invalid formats a validation failure for this descriptor.
func (d *Descriptor) invalid(format string, args ...any) error {
	name := d.Name
	if name == "" {
		name = "(unnamed)"
	}
	return fmt.Errorf("%w: %s: %s", ErrInvalidScenario, name, fmt.Sprintf(format, args...))
}

// Validate checks everything that can be checked without building the
// battle: board shape, legend, unit placement, team makeup, objective
// tree. Every failure wraps ErrInvalidScenario.
func (d *Descriptor) Validate() error {
	if d.Name == "" {
		return d.invalid("descriptor has no name")
	}
	if !d.Difficulty.known() {
		return d.invalid("unknown difficulty %q", d.Difficulty)
	}
	if d.MaxRounds < 0 {
		return d.invalid("max_rounds %d is negative", d.MaxRounds)
	}

	legend, err := d.legend()
	if err != nil {
		return err
	}
	w, h, err := d.boardSize(legend)
	if err != nil {
		return err
	}

	terrainAt := func(c CellSpec) sim.Terrain {
		return legend[[]rune(d.Grid.Rows[c.Y])[c.X]]
	}
	inBounds := func(c CellSpec) bool {
		return c.X >= 0 && c.X < w && c.Y >= 0 && c.Y < h
	}

	for _, hs := range d.Grid.Heights {
		if !inBounds(CellSpec{X: hs.X, Y: hs.Y}) {
			return d.invalid("height override (%d,%d) is off the %dx%d board", hs.X, hs.Y, w, h)
		}
		if hs.H < 0 {
			return d.invalid("height override (%d,%d) is negative", hs.X, hs.Y)
		}
	}

	if len(d.Units) == 0 {
		return d.invalid("descriptor has no units")
	}
	ids := make(map[string]bool, len(d.Units))
	names := make(map[string]bool, len(d.Units))
	cells := make(map[CellSpec]string, len(d.Units))
	playerTeam := d.playerTeam()
	onPlayerTeam, against := 0, 0
	for _, u := range d.Units {
		if u.ID == "" {
			return d.invalid("unit %q has no id", u.Name)
		}
		if ids[u.ID] {
			return d.invalid("duplicate unit id %q", u.ID)
		}
		ids[u.ID] = true
		if u.Name != "" {
			if names[u.Name] {
				return d.invalid("duplicate unit name %q", u.Name)
			}
			names[u.Name] = true
		}
		if u.Team == "" {
			return d.invalid("unit %q has no team", u.ID)
		}
		if u.Team == playerTeam {
			onPlayerTeam++
		} else {
			against++
		}
		if !inBounds(u.At) {
			return d.invalid("unit %q at (%d,%d) is off the %dx%d board", u.ID, u.At.X, u.At.Y, w, h)
		}
		if t := terrainAt(u.At); !t.Passable() {
			return d.invalid("unit %q stands on %s at (%d,%d)", u.ID, t, u.At.X, u.At.Y)
		}
		if holder, taken := cells[u.At]; taken {
			return d.invalid("units %q and %q share cell (%d,%d)", holder, u.ID, u.At.X, u.At.Y)
		}
		cells[u.At] = u.ID
		if u.HP < 1 {
			return d.invalid("unit %q has %d hp", u.ID, u.HP)
		}
		if u.AP < 0 || u.APRegen < 0 || u.Power < 0 || u.Range < 0 {
			return d.invalid("unit %q has a negative stat", u.ID)
		}
		if u.Facing != "" {
			if _, ok := sim.ParseFacing(u.Facing); !ok {
				return d.invalid("unit %q faces unknown direction %q", u.ID, u.Facing)
			}
		}
		if u.AI != "" && !bt.Exists(u.AI) {
			return d.invalid("unit %q uses unknown archetype %q (known: %s)",
				u.ID, u.AI, strings.Join(bt.List(), ", "))
		}
	}
	if onPlayerTeam == 0 {
		return d.invalid("no unit fights for team %q", playerTeam)
	}
	if against == 0 {
		return d.invalid("no unit fights against team %q", playerTeam)
	}

	if d.Objective != nil {
		if err := d.validateObjective(d.Objective, ids, inBounds, terrainAt); err != nil {
			return err
		}
	}
	return nil
}

func (d *Descriptor) validateObjective(o *ObjectiveSpec, ids map[string]bool,
	inBounds func(CellSpec) bool, terrainAt func(CellSpec) sim.Terrain) error {
	switch o.Kind {
	case KindEliminateBoss:
		if !ids[o.Unit] {
			return d.invalid("objective %s names unknown unit %q", o.Kind, o.Unit)
		}
	case KindSurviveTurns:
		if o.Team == "" {
			return d.invalid("objective %s has no team", o.Kind)
		}
		if o.Turns < 1 {
			return d.invalid("objective %s wants %d turns", o.Kind, o.Turns)
		}
	case KindHoldZones:
		if o.Team == "" {
			return d.invalid("objective %s has no team", o.Kind)
		}
		if o.Rounds < 1 {
			return d.invalid("objective %s wants %d rounds", o.Kind, o.Rounds)
		}
		if len(o.Zones) == 0 {
			return d.invalid("objective %s has no zones", o.Kind)
		}
		for _, z := range o.Zones {
			if !inBounds(z) {
				return d.invalid("objective %s zone (%d,%d) is off the board", o.Kind, z.X, z.Y)
			}
			if t := terrainAt(z); !t.Passable() {
				return d.invalid("objective %s zone (%d,%d) is %s", o.Kind, z.X, z.Y, t)
			}
		}
	case KindEscort:
		if !ids[o.Unit] {
			return d.invalid("objective %s names unknown unit %q", o.Kind, o.Unit)
		}
		if o.Goal == nil {
			return d.invalid("objective %s has no goal", o.Kind)
		}
		if !inBounds(*o.Goal) {
			return d.invalid("objective %s goal (%d,%d) is off the board", o.Kind, o.Goal.X, o.Goal.Y)
		}
		if t := terrainAt(*o.Goal); !t.Passable() {
			return d.invalid("objective %s goal (%d,%d) is %s", o.Kind, o.Goal.X, o.Goal.Y, t)
		}
	case KindAllOf, KindAnyOf:
		if len(o.Children) == 0 {
			return d.invalid("objective %s has no children", o.Kind)
		}
		for i := range o.Children {
			if err := d.validateObjective(&o.Children[i], ids, inBounds, terrainAt); err != nil {
				return err
			}
		}
	default:
		return d.invalid("unknown objective kind %q", o.Kind)
	}
	return nil
}

// legend resolves the effective rune mapping: descriptor entries merged
// over the defaults.
func (d *Descriptor) legend() (map[rune]sim.Terrain, error) {
	legend := make(map[rune]sim.Terrain, len(defaultLegend)+len(d.Grid.Legend))
	for r, t := range defaultLegend {
		legend[r] = t
	}
	for key, name := range d.Grid.Legend {
		runes := []rune(key)
		if len(runes) != 1 {
			return nil, d.invalid("legend key %q is not a single rune", key)
		}
		t, ok := sim.ParseTerrain(name)
		if !ok {
			return nil, d.invalid("legend maps %q to unknown terrain %q", key, name)
		}
		legend[runes[0]] = t
	}
	return legend, nil
}

// boardSize checks the row block is rectangular and every rune is in
// the legend.
func (d *Descriptor) boardSize(legend map[rune]sim.Terrain) (w, h int, err error) {
	if len(d.Grid.Rows) == 0 {
		return 0, 0, d.invalid("grid has no rows")
	}
	w = len([]rune(d.Grid.Rows[0]))
	if w == 0 {
		return 0, 0, d.invalid("grid row 0 is empty")
	}
	for y, row := range d.Grid.Rows {
		runes := []rune(row)
		if len(runes) != w {
			return 0, 0, d.invalid("grid row %d is %d cells, want %d", y, len(runes), w)
		}
		for x, r := range runes {
			if _, ok := legend[r]; !ok {
				return 0, 0, d.invalid("grid row %d col %d: unknown terrain rune %q", y, x, string(r))
			}
		}
	}
	return w, len(d.Grid.Rows), nil
}

// playerTeam returns the team the outcome watchdog tracks.
func (d *Descriptor) playerTeam() string {
	if d.PlayerTeam != "" {
		return d.PlayerTeam
	}
	return string(sim.TeamPlayer)
}
