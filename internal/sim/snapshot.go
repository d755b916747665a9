package sim

import (
	"encoding/binary"
	"hash/fnv"
)

// UnitView is a read-only copy of one unit.
type UnitView struct {
	ID         UnitID
	Name       string
	Team       Team
	Pos        Cell
	Facing     Facing
	HP         int
	MaxHP      int
	AP         int
	MaxAP      int
	APRegen    int
	Power      int
	Range      int
	Initiative int
	Height     int
	Statuses   []StatusEffect
	Alive      bool
}

// TileView is a read-only copy of one board cell.
type TileView struct {
	Terrain  Terrain
	Height   int
	Occupant UnitID
}

// ObjectiveView summarizes the configured objective tree.
type ObjectiveView struct {
	Label    string
	Progress int
	Goal     int
	Status   ObjectiveStatus
}

// Snapshot is a deep copy of the battle at one instant. Presentation
// layers and tests consume snapshots; mutating one cannot touch the
// Sim.
type Snapshot struct {
	Name       string
	Seed       uint64
	Tick       uint64
	Round      int
	ActiveUnit UnitID
	Waiting    bool
	Outcome    Outcome
	Width      int
	Height     int
	Tiles      []TileView // row-major
	Units      []UnitView // lexicographic id order
	Objective  *ObjectiveView
}

// Snapshot captures the current battle state.
func (s *Sim) Snapshot() Snapshot {
	snap := Snapshot{
		Name:       s.name,
		Seed:       s.seed,
		Tick:       s.tick,
		Round:      s.round,
		ActiveUnit: s.ActiveUnit(),
		Waiting:    s.WaitingForInput(),
		Outcome:    s.outcome,
		Width:      s.grid.Width(),
		Height:     s.grid.Height(),
	}
	snap.Tiles = make([]TileView, 0, snap.Width*snap.Height)
	for y := 0; y < snap.Height; y++ {
		for x := 0; x < snap.Width; x++ {
			t, _ := s.grid.Tile(C(x, y))
			snap.Tiles = append(snap.Tiles, TileView{Terrain: t.Terrain, Height: t.Height, Occupant: t.Occupant})
		}
	}
	snap.Units = make([]UnitView, 0, len(s.sorted))
	for _, id := range s.sorted {
		u := s.units[id]
		snap.Units = append(snap.Units, UnitView{
			ID:         u.ID,
			Name:       u.Name,
			Team:       u.Team,
			Pos:        u.Pos,
			Facing:     u.Facing,
			HP:         u.HP,
			MaxHP:      u.MaxHP,
			AP:         u.AP,
			MaxAP:      u.MaxAP,
			APRegen:    u.APRegen,
			Power:      u.Power,
			Range:      u.Range,
			Initiative: u.Initiative,
			Height:     u.Height,
			Statuses:   append([]StatusEffect(nil), u.Statuses...),
			Alive:      u.Alive(),
		})
	}
	if s.objective != nil {
		label, progress, goal := s.objective.Describe()
		snap.Objective = &ObjectiveView{
			Label:    label,
			Progress: progress,
			Goal:     goal,
			Status:   s.objective.Status(),
		}
	}
	return snap
}

// TileAt returns the tile at a cell, row-major indexed.
func (snap *Snapshot) TileAt(c Cell) (TileView, bool) {
	if c.X < 0 || c.X >= snap.Width || c.Y < 0 || c.Y >= snap.Height {
		return TileView{Terrain: TerrainWall}, false
	}
	return snap.Tiles[c.Y*snap.Width+c.X], true
}

// Unit looks a unit view up by id.
func (snap *Snapshot) Unit(id UnitID) (UnitView, bool) {
	for _, u := range snap.Units {
		if u.ID == id {
			return u, true
		}
	}
	return UnitView{}, false
}

// Hash folds the snapshot into a 64-bit FNV-1a digest over a canonical
// encoding: fixed field order, fixed integer widths, length-prefixed
// strings. Two battles with equal hashes went through the same state.
func (snap Snapshot) Hash() uint64 {
	h := fnv.New64a()
	var buf [8]byte
	w64 := func(v uint64) {
		binary.BigEndian.PutUint64(buf[:], v)
		h.Write(buf[:])
	}
	wint := func(v int) { w64(uint64(int64(v))) }
	wstr := func(s string) {
		wint(len(s))
		h.Write([]byte(s))
	}

	wstr(snap.Name)
	w64(snap.Seed)
	w64(snap.Tick)
	wint(snap.Round)
	wint(int(snap.Outcome))
	wstr(string(snap.ActiveUnit))
	wint(snap.Width)
	wint(snap.Height)
	for _, t := range snap.Tiles {
		wint(int(t.Terrain))
		wint(t.Height)
		wstr(string(t.Occupant))
	}
	for _, u := range snap.Units {
		wstr(string(u.ID))
		wstr(string(u.Team))
		wint(int(u.Facing))
		wint(u.Pos.X)
		wint(u.Pos.Y)
		wint(u.HP)
		wint(u.MaxHP)
		wint(u.AP)
		wint(u.MaxAP)
		wint(u.APRegen)
		wint(u.Power)
		wint(u.Range)
		wint(u.Initiative)
		wint(u.Height)
		wint(len(u.Statuses))
		for _, st := range u.Statuses {
			wstr(string(st.Kind))
			wint(st.Magnitude)
			wint(st.Duration)
		}
		if u.Alive {
			wint(1)
		} else {
			wint(0)
		}
	}
	if snap.Objective != nil {
		wstr(snap.Objective.Label)
		wint(snap.Objective.Progress)
		wint(snap.Objective.Goal)
		wint(int(snap.Objective.Status))
	}
	return h.Sum64()
}
