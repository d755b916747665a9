// Package sim implements the deterministic battle core: grid, units,
// command resolution, objectives and the turn scheduler. It contains no
// presentation dependencies (especially no Bubble Tea) so the identical
// core can run headless or underneath an interactive front end.
package sim

import "strconv"

// Cell is a board coordinate. X grows east, Y grows south.
type Cell struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// C is a shorthand constructor for Cell.
func C(x, y int) Cell {
	return Cell{X: x, Y: y}
}

// String renders the cell as (x,y).
func (c Cell) String() string {
	return "(" + strconv.Itoa(c.X) + "," + strconv.Itoa(c.Y) + ")"
}

// Facing is one of the four cardinal directions a unit can look at.
type Facing int

const (
	FaceNorth Facing = iota
	FaceEast
	FaceSouth
	FaceWest
)

// String returns a readable name for the facing.
func (f Facing) String() string {
	switch f {
	case FaceNorth:
		return "north"
	case FaceEast:
		return "east"
	case FaceSouth:
		return "south"
	case FaceWest:
		return "west"
	default:
		return "unknown"
	}
}

// ParseFacing resolves a facing by name.
func ParseFacing(name string) (Facing, bool) {
	switch name {
	case "north":
		return FaceNorth, true
	case "east":
		return FaceEast, true
	case "south":
		return FaceSouth, true
	case "west":
		return FaceWest, true
	}
	return FaceNorth, false
}

// Opposite returns the facing turned 180 degrees.
func (f Facing) Opposite() Facing {
	switch f {
	case FaceNorth:
		return FaceSouth
	case FaceEast:
		return FaceWest
	case FaceSouth:
		return FaceNorth
	default:
		return FaceEast
	}
}

// Delta returns the unit step vector for the facing.
func (f Facing) Delta() (dx, dy int) {
	switch f {
	case FaceNorth:
		return 0, -1
	case FaceEast:
		return 1, 0
	case FaceSouth:
		return 0, 1
	default:
		return -1, 0
	}
}

// dirs4 is the neighbor expansion order. Fixed N, E, S, W order keeps
// pathfinding and target scans byte-stable between runs.
var dirs4 = [4]Cell{{0, -1}, {1, 0}, {0, 1}, {-1, 0}}

// FacingTo returns the facing that looks from a toward b, collapsing
// diagonals onto the dominant axis. An exact diagonal prefers the
// horizontal axis so the result never depends on map iteration order.
func FacingTo(from, to Cell) Facing {
	dx, dy := to.X-from.X, to.Y-from.Y
	if abs(dx) >= abs(dy) {
		if dx >= 0 {
			return FaceEast
		}
		return FaceWest
	}
	if dy >= 0 {
		return FaceSouth
	}
	return FaceNorth
}

// Manhattan returns the 4-directional walking distance between cells.
func Manhattan(a, b Cell) int {
	return abs(a.X-b.X) + abs(a.Y-b.Y)
}

// Chebyshev returns the king-move distance, used for ranged attack radii.
func Chebyshev(a, b Cell) int {
	dx, dy := abs(a.X-b.X), abs(a.Y-b.Y)
	if dx > dy {
		return dx
	}
	return dy
}

// Adjacent4 reports whether b is one of a's four orthogonal neighbors.
func Adjacent4(a, b Cell) bool {
	return Manhattan(a, b) == 1
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
