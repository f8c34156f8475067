package engine

import (
	"encoding/json"
	"fmt"
	"sort"
)

const (
	// Validation constants
	MinGridSize = 1
	MaxGridSize = 1024

	// DefaultBulletRangeDivisor derives a config's bullet range from its grid size
	DefaultBulletRangeDivisor = 8
	DefaultMoveBudget         = 3
	DefaultUnitSpeed          = 1
)

// Cell represents x,y coordinates on the grid
type Cell struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// String renders the cell as "(x,y)"
func (c Cell) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// Less orders cells row-major by Y, then X
func (c Cell) Less(o Cell) bool {
	if c.Y != o.Y {
		return c.Y < o.Y
	}
	return c.X < o.X
}

// CellSet is an immutable set of distinct cells returned by range queries.
// The engine hands out the same *CellSet for repeated queries with the same key.
type CellSet struct {
	cells map[Cell]struct{}
}

func newCellSet() *CellSet {
	return &CellSet{cells: make(map[Cell]struct{})}
}

func (s *CellSet) add(c Cell) {
	s.cells[c] = struct{}{}
}

// Contains reports whether c is in the set
func (s *CellSet) Contains(c Cell) bool {
	if s == nil {
		return false
	}
	_, ok := s.cells[c]
	return ok
}

// Len returns the number of cells in the set
func (s *CellSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.cells)
}

// Cells returns a sorted copy of the set's members
func (s *CellSet) Cells() []Cell {
	if s == nil {
		return []Cell{}
	}
	out := make([]Cell, 0, len(s.cells))
	for c := range s.cells {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// MarshalJSON encodes the set as a sorted array of cells
func (s *CellSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Cells())
}

// CacheStats reports how many distinct query keys each memo table holds
type CacheStats struct {
	LegalMoves  int `json:"legal_moves"`
	BulletPaths int `json:"bullet_paths"`
	UnitPaths   int `json:"unit_paths"`
}

// Memo keys. Coordinates are kept raw so out-of-bounds origins still key distinctly.
type rangeKey struct {
	origin Cell
	n      int
}

type bulletKey struct {
	origin, target Cell
	maxRange       int
}

type pathKey struct {
	origin, dest Cell
}
