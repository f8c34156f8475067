package service

import (
	"time"

	"github.com/wricardo/mcp-training/tacticalgrid/game/engine"
)

// MatchInfo provides information about a match
type MatchInfo struct {
	ID             string              `json:"id"`
	ConfigName     string              `json:"config_name"`
	CreatedAt      time.Time           `json:"created_at"`
	LastAccessedAt time.Time           `json:"last_accessed_at"`
	GridSize       int                 `json:"grid_size"`
	EntityCount    int                 `json:"entity_count"`
	Entities       []EntityInfo        `json:"entities"`
	Config         *engine.MatchConfig `json:"config"`
}

// EntityInfo pairs an entity with the cell it occupies
type EntityInfo struct {
	Entity string      `json:"entity"`
	Cell   engine.Cell `json:"cell"`
}

// PlacementResult reports the outcome of a place, spawn or relocate.
// Placed is false when the target cell was off the grid; the engine ignores
// such placements rather than failing.
type PlacementResult struct {
	Placed bool         `json:"placed"`
	Entity string       `json:"entity"`
	Cell   engine.Cell  `json:"cell"`
	From   *engine.Cell `json:"from,omitempty"`
}

// CellInfo lists the occupants of a cell in placement order
type CellInfo struct {
	Cell      engine.Cell `json:"cell"`
	Occupants []string    `json:"occupants"`
}

// RangeResult is the set of cells reachable within a move budget
type RangeResult struct {
	Origin engine.Cell     `json:"origin"`
	Budget int             `json:"budget"`
	Count  int             `json:"count"`
	Cells  *engine.CellSet `json:"cells"`
}

// PathResult is an ordered list of cells from a bullet or unit trace
type PathResult struct {
	Origin   engine.Cell   `json:"origin"`
	Target   engine.Cell   `json:"target"`
	MaxRange int           `json:"max_range,omitempty"`
	Length   int           `json:"length"`
	Path     []engine.Cell `json:"path"`
}

// DistanceResult reports the distance between two cells under three metrics
type DistanceResult struct {
	From      engine.Cell `json:"from"`
	To        engine.Cell `json:"to"`
	Euclidean float64     `json:"euclidean"`
	Manhattan int         `json:"manhattan"`
	Chebyshev int         `json:"chebyshev"`
}

// VictimsResult lists who stands on a shooter's bullet path, nearest first
type VictimsResult struct {
	Shooter string        `json:"shooter"`
	From    engine.Cell   `json:"from"`
	Target  engine.Cell   `json:"target"`
	Path    []engine.Cell `json:"path"`
	Victims []EntityInfo  `json:"victims"`
}

// AdvanceResult reports one incremental walk along a unit path
type AdvanceResult struct {
	Entity      string        `json:"entity"`
	From        engine.Cell   `json:"from"`
	To          engine.Cell   `json:"to"`
	Destination engine.Cell   `json:"destination"`
	Steps       int           `json:"steps"`
	Walked      []engine.Cell `json:"walked"`
	Remaining   int           `json:"remaining"`
	Arrived     bool          `json:"arrived"`
}

// Event type values
const (
	EventPlaced   = "placed"
	EventRemoved  = "removed"
	EventMoved    = "moved"
	EventAdvanced = "advanced"
	EventDeleted  = "match_deleted"
)

// Event represents an occupancy change in a match
type Event struct {
	Type      string       `json:"type"`
	MatchID   string       `json:"match_id"`
	Entity    string       `json:"entity,omitempty"`
	From      *engine.Cell `json:"from,omitempty"`
	To        *engine.Cell `json:"to,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

// ConfigInfo provides information about a match configuration
type ConfigInfo struct {
	Filename    string `json:"filename"`
	ConfigID    string `json:"config_id"` // The identifier to use for match creation
	Name        string `json:"name"`      // Display name
	Description string `json:"description"`
	GridSize    int    `json:"grid_size"`
	BulletRange int    `json:"bullet_range"`
	MoveBudget  int    `json:"move_budget"`
	UnitSpeed   int    `json:"unit_speed"`
	Entities    int    `json:"entities"`
}
