package engine

import (
	"errors"
	"fmt"
	"math/rand"
	"time"
)

var (
	ErrOutOfBounds = errors.New("cell out of bounds")
	ErrInvalidSize = errors.New("grid size must be positive")
)

// Engine tracks which entities occupy which cells of an N×N grid and answers
// the geometric queries game rules need. E is the caller's entity identity;
// the engine only uses it as a map key.
//
// Engine is not safe for concurrent use. Range and path results are memoized
// for the lifetime of the instance.
type Engine[E comparable] struct {
	size int

	// Occupancy index: positions[e] == c iff e appears in occupants[c]
	positions map[E]Cell
	occupants map[Cell][]E

	legalMoves  map[rangeKey]*CellSet
	bulletPaths map[bulletKey][]Cell
	unitPaths   map[pathKey][]Cell

	rng *rand.Rand
}

// NewEngine creates an engine for a size×size grid. The size is fixed for the
// instance's lifetime.
func NewEngine[E comparable](size int) (*Engine[E], error) {
	if size < MinGridSize {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSize, size)
	}

	return &Engine[E]{
		size:        size,
		positions:   make(map[E]Cell),
		occupants:   make(map[Cell][]E),
		legalMoves:  make(map[rangeKey]*CellSet),
		bulletPaths: make(map[bulletKey][]Cell),
		unitPaths:   make(map[pathKey][]Cell),
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// Size returns the grid dimension N
func (e *Engine[E]) Size() int {
	return e.size
}

// IsValid reports whether c lies inside the grid, 0 <= x,y < N
func (e *Engine[E]) IsValid(c Cell) bool {
	return c.X >= 0 && c.X < e.size && c.Y >= 0 && c.Y < e.size
}

// Place records entity at c. Invalid cells are ignored.
//
// Place does not relocate: placing an entity that is already on the board
// leaves a stale entry in its old cell. Use Move for relocation.
func (e *Engine[E]) Place(entity E, c Cell) {
	if !e.IsValid(c) {
		return
	}
	e.positions[entity] = c
	e.occupants[c] = append(e.occupants[c], entity)
}

// Remove takes entity off the board. Unplaced entities are ignored.
func (e *Engine[E]) Remove(entity E) {
	c, ok := e.positions[entity]
	if !ok {
		return
	}

	list := e.occupants[c]
	for i, occupant := range list {
		if occupant == entity {
			// Keep insertion order for the remaining occupants
			list = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		delete(e.occupants, c)
	} else {
		e.occupants[c] = list
	}
	delete(e.positions, entity)
}

// Move relocates entity to c, removing it from its previous cell first.
// If c is invalid the entity stays where it was and Move returns false.
func (e *Engine[E]) Move(entity E, c Cell) bool {
	if !e.IsValid(c) {
		return false
	}
	e.Remove(entity)
	e.Place(entity, c)
	return true
}

// Position returns the cell entity occupies and whether it is placed
func (e *Engine[E]) Position(entity E) (Cell, bool) {
	c, ok := e.positions[entity]
	return c, ok
}

// Occupants returns the entities on c in placement order. Unlike placement
// and range queries, an invalid cell is an error here.
func (e *Engine[E]) Occupants(c Cell) ([]E, error) {
	if !e.IsValid(c) {
		return nil, fmt.Errorf("%w: %s on %dx%d grid", ErrOutOfBounds, c, e.size, e.size)
	}

	list := e.occupants[c]
	out := make([]E, len(list))
	copy(out, list)
	return out, nil
}

// Entities returns every placed entity in unspecified order
func (e *Engine[E]) Entities() []E {
	out := make([]E, 0, len(e.positions))
	for entity := range e.positions {
		out = append(out, entity)
	}
	return out
}

// Occupancy returns a copy of the entity → cell mapping
func (e *Engine[E]) Occupancy() map[E]Cell {
	out := make(map[E]Cell, len(e.positions))
	for entity, c := range e.positions {
		out[entity] = c
	}
	return out
}

// Count returns the number of placed entities
func (e *Engine[E]) Count() int {
	return len(e.positions)
}

// CacheStats reports the size of each memo table
func (e *Engine[E]) CacheStats() CacheStats {
	return CacheStats{
		LegalMoves:  len(e.legalMoves),
		BulletPaths: len(e.bulletPaths),
		UnitPaths:   len(e.unitPaths),
	}
}

// RandomCell returns a uniformly chosen cell. Both coordinates are drawn from
// [0, N), so the result is always valid; callers placing entities should
// still check IsValid.
func (e *Engine[E]) RandomCell() Cell {
	return Cell{X: e.rng.Intn(e.size), Y: e.rng.Intn(e.size)}
}

// Seed resets the random source used by RandomCell
func (e *Engine[E]) Seed(seed int64) {
	e.rng = rand.New(rand.NewSource(seed))
}
