package world

import "github.com/wricardo/mcp-training/tacticalgrid/game/engine"

// Locator is the geometric half of the world authority. Every answer comes
// from the spatial engine.
type Locator interface {
	Position(u *Unit) (engine.Cell, bool)
	BulletPath(u *Unit, target engine.Cell) []engine.Cell
	Distance(u *Unit, target engine.Cell) float64
	UnitPath(u *Unit, target engine.Cell) []engine.Cell
	Victims(u *Unit, target engine.Cell) []*Unit
}

// Rules is the game-rules half of the world authority. Health, teams,
// capture state, visibility and turn timing all live behind it.
type Rules interface {
	IsAlive(u *Unit) bool
	IsCapturing(u *Unit) bool
	IsMoving(u *Unit) bool
	IsShooting(u *Unit) bool
	IsUnderAttack(u *Unit) bool
	Stats(u *Unit) Stats
	Team(u *Unit) string
	VisibleSquares(u *Unit) []engine.Cell
	VisibleBuildings(u *Unit) []Building
	VisibleEnemies(u *Unit) []*Unit

	Capture(u *Unit, b Building) error
	Move(u *Unit, dest engine.Cell) error
	Shoot(u *Unit, target engine.Cell) error
}

// Authority is everything a Unit can ask of the world
type Authority interface {
	Locator
	Rules
}

// Stats carries the per-unit numbers the rules layer tracks
type Stats struct {
	Energy int `json:"energy"`
	Speed  int `json:"speed"`
	Sight  int `json:"sight"`
}

// Building is a capturable map object
type Building struct {
	ID       string      `json:"id"`
	Position engine.Cell `json:"position"`
	Team     string      `json:"team,omitempty"`
}
