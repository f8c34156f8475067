// Package engine provides the discrete-grid spatial core of the tactical
// simulation.
//
// The engine package implements:
//   - Bounds checks for an N×N grid
//   - An occupancy index mapping entities to cells and cells to entities
//   - Range queries: the cells reachable within a movement budget
//   - Line tracing: bullet paths bounded by range and unit paths that end
//     exactly at the destination
//   - Euclidean, Manhattan and Chebyshev distances
//   - Match configuration validation
//
// Core Types:
//
// Engine is generic over the caller's entity identity, which must be
// comparable; the engine never looks inside it. Cell is an integer (x, y)
// coordinate. CellSet is the immutable result of a range query.
//
// Usage:
//
//	eng, err := engine.NewEngine[string](200)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	eng.Place("alpha", engine.Cell{X: 6, Y: 16})
//	moves := eng.LegalMoves(engine.Cell{X: 6, Y: 16}, 3)
//	path := eng.BulletPath(engine.Cell{X: 6, Y: 16}, engine.Cell{X: 6, Y: 70}, 25)
//
// Error Handling:
//
// Placement and range queries degrade quietly: invalid cells are dropped.
// Occupants is strict and returns ErrOutOfBounds for an invalid cell.
// Position reports an unplaced entity through its boolean result.
//
// Concurrency:
//
// An Engine is meant to be owned by one match and is not safe for concurrent
// use. Range and path results are memoized for the instance's lifetime and
// never evicted; discard the engine when the match ends.
package engine
