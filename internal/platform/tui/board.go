package tui

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/rdowning07/starter-town-tactics-sub001/internal/sim"
)

// terrainRunes maps terrain to its board glyph.
var terrainRunes = map[sim.Terrain]rune{
	sim.TerrainPlains: '.',
	sim.TerrainRoad:   '=',
	sim.TerrainForest: '"',
	sim.TerrainHills:  '^',
	sim.TerrainWater:  '~',
	sim.TerrainWall:   '#',
}

// terrainColors maps terrain to its base color. Raised tiles use the
// bright variant so elevation reads at a glance.
var terrainColors = map[sim.Terrain]Color{
	sim.TerrainPlains: ColorGray,
	sim.TerrainRoad:   ColorYellow,
	sim.TerrainForest: ColorGreen,
	sim.TerrainHills:  ColorOrange,
	sim.TerrainWater:  ColorBlue,
	sim.TerrainWall:   ColorWhite,
}

// brighten maps a color to its bright variant.
func brighten(c Color) Color {
	switch c {
	case ColorRed:
		return ColorBrightRed
	case ColorGreen:
		return ColorBrightGreen
	case ColorYellow:
		return ColorBrightYellow
	case ColorBlue:
		return ColorBrightBlue
	case ColorMagenta:
		return ColorBrightMagenta
	case ColorCyan:
		return ColorBrightCyan
	case ColorWhite:
		return ColorBrightWhite
	case ColorOrange:
		return ColorBrightYellow
	case ColorGray:
		return ColorWhite
	default:
		return c
	}
}

// unitRune picks the glyph for a unit: the first rune of its name,
// falling back to its id, uppercased.
func unitRune(u sim.UnitView) rune {
	for _, r := range u.Name {
		return unicode.ToUpper(r)
	}
	for _, r := range string(u.ID) {
		return unicode.ToUpper(r)
	}
	return '?'
}

// unitColor picks the unit's glyph color: bright white for the active
// unit, otherwise a team color. Unknown team labels (third parties)
// render cyan.
func unitColor(u sim.UnitView, active sim.UnitID) Color {
	if u.ID == active {
		return ColorBrightWhite
	}
	switch u.Team {
	case sim.TeamPlayer:
		return ColorBrightGreen
	case sim.TeamEnemy:
		return ColorBrightRed
	default:
		return ColorBrightCyan
	}
}

// facingArrow returns the direction glyph for a unit's facing.
func facingArrow(f sim.Facing) rune {
	switch f {
	case sim.FaceNorth:
		return '↑'
	case sim.FaceEast:
		return '→'
	case sim.FaceSouth:
		return '↓'
	case sim.FaceWest:
		return '←'
	default:
		return '?'
	}
}

// PaintBoard draws the snapshot's board into the canvas: terrain
// first, then living units on top. Board cells are two columns wide so
// the grid reads roughly square in a terminal.
func PaintBoard(c *Canvas, snap *sim.Snapshot) {
	c.Clear()
	for y := 0; y < snap.Height; y++ {
		for x := 0; x < snap.Width; x++ {
			t, _ := snap.TileAt(sim.C(x, y))
			col := terrainColors[t.Terrain]
			if t.Height > 0 {
				col = brighten(col)
			}
			c.Set(x*2, y, terrainRunes[t.Terrain], col)
		}
	}
	for _, u := range snap.Units {
		if !u.Alive {
			continue
		}
		c.Set(u.Pos.X*2, u.Pos.Y, unitRune(u), unitColor(u, snap.ActiveUnit))
	}
}

// BoardCanvas paints the snapshot into a freshly sized canvas.
func BoardCanvas(snap *sim.Snapshot) *Canvas {
	c := NewCanvas(snap.Width*2-1, snap.Height)
	PaintBoard(c, snap)
	return c
}

// hpBar renders hit points as a fixed-width bar of full and empty
// blocks.
func hpBar(hp, maxHP, width int) string {
	if width <= 0 {
		return ""
	}
	if maxHP <= 0 {
		maxHP = 1
	}
	if hp < 0 {
		hp = 0
	}
	filled := hp * width / maxHP
	if hp > 0 && filled == 0 {
		filled = 1
	}
	if filled > width {
		filled = width
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// statusLine summarizes a unit's active effects, e.g. "poison(2) 3t".
func statusLine(u sim.UnitView) string {
	if len(u.Statuses) == 0 {
		return ""
	}
	parts := make([]string, 0, len(u.Statuses))
	for _, s := range u.Statuses {
		parts = append(parts, fmt.Sprintf("%s(%d) %dt", s.Kind, s.Magnitude, s.Duration))
	}
	return strings.Join(parts, " ")
}
