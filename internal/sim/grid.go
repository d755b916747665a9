package sim

import "fmt"

// Terrain is the ground type of one cell.
type Terrain byte

const (
	TerrainPlains Terrain = iota
	TerrainRoad
	TerrainForest
	TerrainHills
	TerrainWater
	TerrainWall
)

// terrainSpec holds the per-terrain movement parameters. A zero cost
// marks the terrain impassable.
type terrainSpec struct {
	name string
	cost int
}

var terrainTable = [...]terrainSpec{
	TerrainPlains: {"plains", 1},
	TerrainRoad:   {"road", 1},
	TerrainForest: {"forest", 2},
	TerrainHills:  {"hills", 3},
	TerrainWater:  {"water", 0},
	TerrainWall:   {"wall", 0},
}

// String returns the terrain's name.
func (t Terrain) String() string {
	if int(t) < len(terrainTable) {
		return terrainTable[t].name
	}
	return "unknown"
}

// Passable reports whether units can enter this terrain.
func (t Terrain) Passable() bool {
	return int(t) < len(terrainTable) && terrainTable[t].cost > 0
}

// MoveCost returns the action-point cost of entering this terrain,
// or 0 for impassable terrain.
func (t Terrain) MoveCost() int {
	if int(t) < len(terrainTable) {
		return terrainTable[t].cost
	}
	return 0
}

// ParseTerrain resolves a terrain by name.
func ParseTerrain(name string) (Terrain, bool) {
	for t, spec := range terrainTable {
		if spec.name == name {
			return Terrain(t), true
		}
	}
	return TerrainPlains, false
}

// Tile is one board cell: its ground, its elevation and, at most, one
// occupant. An empty Occupant means the cell is free.
type Tile struct {
	Terrain  Terrain
	Height   int
	Occupant UnitID
}

// Grid is the battle board. It owns terrain, heights and the
// single-occupancy invariant; it knows nothing about unit stats.
type Grid struct {
	w, h  int
	tiles []Tile
}

// NewGrid creates a board of the given size filled with plains at
// height zero.
func NewGrid(w, h int) (*Grid, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("sim: grid size %dx%d is not positive", w, h)
	}
	return &Grid{w: w, h: h, tiles: make([]Tile, w*h)}, nil
}

// Width returns the number of columns.
func (g *Grid) Width() int { return g.w }

// Height returns the number of rows.
func (g *Grid) Height() int { return g.h }

// InBounds reports whether the cell lies on the board.
func (g *Grid) InBounds(c Cell) bool {
	return c.X >= 0 && c.X < g.w && c.Y >= 0 && c.Y < g.h
}

func (g *Grid) idx(c Cell) int {
	return c.Y*g.w + c.X
}

// Tile returns a copy of the cell's tile. Out-of-bounds cells report
// ok=false and an impassable wall tile.
func (g *Grid) Tile(c Cell) (Tile, bool) {
	if !g.InBounds(c) {
		return Tile{Terrain: TerrainWall}, false
	}
	return g.tiles[g.idx(c)], true
}

// Passable reports whether the cell is on the board and enterable by
// terrain. Occupancy is a separate question.
func (g *Grid) Passable(c Cell) bool {
	t, ok := g.Tile(c)
	return ok && t.Terrain.Passable()
}

// CostAt returns the action-point cost of entering the cell, or 0 when
// the cell is off the board or impassable.
func (g *Grid) CostAt(c Cell) int {
	t, _ := g.Tile(c)
	return t.Terrain.MoveCost()
}

// HeightAt returns the cell's elevation; off-board cells are height 0.
func (g *Grid) HeightAt(c Cell) int {
	t, _ := g.Tile(c)
	return t.Height
}

// OccupantAt returns the unit standing on the cell, if any.
func (g *Grid) OccupantAt(c Cell) (UnitID, bool) {
	t, ok := g.Tile(c)
	if !ok || t.Occupant == "" {
		return "", false
	}
	return t.Occupant, true
}

// SetTerrain replaces the ground type of a cell.
func (g *Grid) SetTerrain(c Cell, t Terrain) error {
	if !g.InBounds(c) {
		return fmt.Errorf("sim: cell (%d,%d) outside %dx%d grid", c.X, c.Y, g.w, g.h)
	}
	g.tiles[g.idx(c)].Terrain = t
	return nil
}

// SetHeight replaces the elevation of a cell.
func (g *Grid) SetHeight(c Cell, height int) error {
	if !g.InBounds(c) {
		return fmt.Errorf("sim: cell (%d,%d) outside %dx%d grid", c.X, c.Y, g.w, g.h)
	}
	if height < 0 {
		return fmt.Errorf("sim: negative height %d at (%d,%d)", height, c.X, c.Y)
	}
	g.tiles[g.idx(c)].Height = height
	return nil
}

// Place puts a unit on a free, passable cell.
func (g *Grid) Place(id UnitID, c Cell) error {
	if !g.InBounds(c) {
		return fmt.Errorf("sim: cell (%d,%d) outside %dx%d grid", c.X, c.Y, g.w, g.h)
	}
	tile := &g.tiles[g.idx(c)]
	if !tile.Terrain.Passable() {
		return fmt.Errorf("sim: cell (%d,%d) is impassable %s", c.X, c.Y, tile.Terrain)
	}
	if tile.Occupant != "" && tile.Occupant != id {
		return fmt.Errorf("sim: cell (%d,%d) already occupied by %q", c.X, c.Y, tile.Occupant)
	}
	tile.Occupant = id
	return nil
}

// MoveOccupant relocates a unit between cells, preserving the
// single-occupancy invariant.
func (g *Grid) MoveOccupant(id UnitID, from, to Cell) error {
	if !g.InBounds(from) || !g.InBounds(to) {
		return fmt.Errorf("sim: move %q (%d,%d)->(%d,%d) leaves %dx%d grid",
			id, from.X, from.Y, to.X, to.Y, g.w, g.h)
	}
	src := &g.tiles[g.idx(from)]
	if src.Occupant != id {
		return fmt.Errorf("sim: %q does not occupy (%d,%d)", id, from.X, from.Y)
	}
	dst := &g.tiles[g.idx(to)]
	if !dst.Terrain.Passable() {
		return fmt.Errorf("sim: cell (%d,%d) is impassable %s", to.X, to.Y, dst.Terrain)
	}
	if dst.Occupant != "" && dst.Occupant != id {
		return fmt.Errorf("sim: cell (%d,%d) already occupied by %q", to.X, to.Y, dst.Occupant)
	}
	src.Occupant = ""
	dst.Occupant = id
	return nil
}

// Remove clears a unit from a cell. Removing an absent occupant is a
// no-op.
func (g *Grid) Remove(id UnitID, c Cell) {
	if !g.InBounds(c) {
		return
	}
	tile := &g.tiles[g.idx(c)]
	if tile.Occupant == id {
		tile.Occupant = ""
	}
}

// Neighbors appends the in-bounds orthogonal neighbors of c to dst in
// fixed N, E, S, W order and returns the extended slice.
func (g *Grid) Neighbors(c Cell, dst []Cell) []Cell {
	for _, d := range dirs4 {
		n := Cell{X: c.X + d.X, Y: c.Y + d.Y}
		if g.InBounds(n) {
			dst = append(dst, n)
		}
	}
	return dst
}

// clone deep-copies the board.
func (g *Grid) clone() *Grid {
	tiles := make([]Tile, len(g.tiles))
	copy(tiles, g.tiles)
	return &Grid{w: g.w, h: g.h, tiles: tiles}
}
