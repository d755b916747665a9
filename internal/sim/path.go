package sim

import "container/heap"

// pathNode is one A* search entry. seq records heap insertion order so
// equal-cost frontier nodes pop in a stable order, which keeps path
// selection identical between runs.
type pathNode struct {
	cell   Cell
	g, h   int
	seq    int
	parent *pathNode
	index  int
}

// openList is a min-heap over f = g + h.
type openList []*pathNode

func (l openList) Len() int { return len(l) }

func (l openList) Less(i, j int) bool {
	fi, fj := l[i].g+l[i].h, l[j].g+l[j].h
	if fi != fj {
		return fi < fj
	}
	return l[i].seq < l[j].seq
}

func (l openList) Swap(i, j int) {
	l[i], l[j] = l[j], l[i]
	l[i].index = i
	l[j].index = j
}

func (l *openList) Push(x any) {
	n := x.(*pathNode)
	n.index = len(*l)
	*l = append(*l, n)
}

func (l *openList) Pop() any {
	old := *l
	n := old[len(old)-1]
	old[len(old)-1] = nil
	*l = old[:len(old)-1]
	return n
}

// FindPath returns the cheapest walking path from start to goal over
// the four orthogonal directions, including both endpoints. Cells
// occupied by other units block traversal. Returns ok=false when the
// goal is unreachable; never a partial path.
func FindPath(g *Grid, mover UnitID, start, goal Cell) ([]Cell, bool) {
	if !g.InBounds(start) || !g.InBounds(goal) || !g.Passable(goal) {
		return nil, false
	}
	if occ, ok := g.OccupantAt(goal); ok && occ != mover {
		return nil, false
	}
	return astar(g, mover, start,
		func(c Cell) bool { return c == goal },
		func(c Cell) int { return Manhattan(c, goal) })
}

// FindApproach returns the cheapest path from start to any free cell
// orthogonally adjacent to target. The target cell itself is never
// entered, so it may be occupied; this is the query AI units use to
// close on an enemy.
func FindApproach(g *Grid, mover UnitID, start, target Cell) ([]Cell, bool) {
	if !g.InBounds(start) || !g.InBounds(target) {
		return nil, false
	}
	return astar(g, mover, start,
		func(c Cell) bool { return Adjacent4(c, target) },
		func(c Cell) int {
			if h := Manhattan(c, target) - 1; h > 0 {
				return h
			}
			return 0
		})
}

// astar runs the search. Neighbor expansion follows the grid's fixed
// N, E, S, W order; the Manhattan-family heuristics above are
// admissible for 4-directional movement, so the first goal pop is
// optimal.
func astar(g *Grid, mover UnitID, start Cell, isGoal func(Cell) bool, heur func(Cell) int) ([]Cell, bool) {
	if isGoal(start) {
		return []Cell{start}, true
	}
	open := &openList{}
	heap.Init(open)
	seq := 0
	heap.Push(open, &pathNode{cell: start, h: heur(start)})

	best := map[Cell]int{start: 0}
	closed := make(map[Cell]bool)
	var scratch []Cell

	for open.Len() > 0 {
		cur := heap.Pop(open).(*pathNode)
		if closed[cur.cell] {
			continue
		}
		closed[cur.cell] = true
		if isGoal(cur.cell) {
			return buildPath(cur), true
		}

		scratch = g.Neighbors(cur.cell, scratch[:0])
		for _, n := range scratch {
			if closed[n] || !g.Passable(n) {
				continue
			}
			if occ, ok := g.OccupantAt(n); ok && occ != mover {
				continue
			}
			ng := cur.g + g.CostAt(n)
			if prev, ok := best[n]; ok && prev <= ng {
				continue
			}
			best[n] = ng
			seq++
			heap.Push(open, &pathNode{cell: n, g: ng, h: heur(n), seq: seq, parent: cur})
		}
	}
	return nil, false
}

// buildPath walks parent links back to the start and reverses.
func buildPath(n *pathNode) []Cell {
	var rev []Cell
	for cur := n; cur != nil; cur = cur.parent {
		rev = append(rev, cur.cell)
	}
	path := make([]Cell, len(rev))
	for i, c := range rev {
		path[len(rev)-1-i] = c
	}
	return path
}

// PathCost sums the entry cost of every cell after the start.
func PathCost(g *Grid, path []Cell) int {
	total := 0
	for i := 1; i < len(path); i++ {
		total += g.CostAt(path[i])
	}
	return total
}

// TruncateByCost returns the longest path prefix affordable within the
// budget. The start cell is always kept.
func TruncateByCost(g *Grid, path []Cell, budget int) []Cell {
	if len(path) == 0 {
		return path
	}
	total := 0
	end := 1
	for i := 1; i < len(path); i++ {
		total += g.CostAt(path[i])
		if total > budget {
			break
		}
		end = i + 1
	}
	return path[:end]
}
