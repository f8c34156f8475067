package world

import (
	"slices"

	"github.com/wricardo/mcp-training/tacticalgrid/game/engine"
)

// Unit is a thin handle the world authority hands to AI code. It holds no
// state of its own: every property and action is answered by the authority.
// Units are compared by pointer identity.
type Unit struct {
	Name string
	wt   Authority
}

// NewUnit binds a unit to the authority that answers for it
func NewUnit(name string, wt Authority) *Unit {
	return &Unit{Name: name, wt: wt}
}

// Position returns the cell this unit is on
func (u *Unit) Position() (engine.Cell, bool) { return u.wt.Position(u) }

func (u *Unit) IsAlive() bool { return u.wt.IsAlive(u) }
func (u *Unit) IsCapturing() bool { return u.wt.IsCapturing(u) }
func (u *Unit) IsMoving() bool { return u.wt.IsMoving(u) }
func (u *Unit) IsShooting() bool { return u.wt.IsShooting(u) }
func (u *Unit) IsUnderAttack() bool { return u.wt.IsUnderAttack(u) }

// Energy represents the health of the unit
func (u *Unit) Energy() int { return u.wt.Stats(u).Energy }

// Team returns the owner of the unit
func (u *Unit) Team() string { return u.wt.Team(u) }

// IsVisible reports whether other stands on one of this unit's visible squares
func (u *Unit) IsVisible(other *Unit) bool {
	pos, ok := u.wt.Position(other)
	if !ok {
		return false
	}
	return slices.Contains(u.wt.VisibleSquares(u), pos)
}

func (u *Unit) VisibleSquares() []engine.Cell { return u.wt.VisibleSquares(u) }
func (u *Unit) VisibleBuildings() []Building { return u.wt.VisibleBuildings(u) }
func (u *Unit) VisibleEnemies() []*Unit { return u.wt.VisibleEnemies(u) }

// BulletPath returns the cells a bullet fired at target would cross
func (u *Unit) BulletPath(target engine.Cell) []engine.Cell { return u.wt.BulletPath(u, target) }

// Distance returns the straight-line distance to target, NaN when unplaced
func (u *Unit) Distance(target engine.Cell) float64 { return u.wt.Distance(u, target) }

// UnitPath returns the steps this unit would walk to reach target
func (u *Unit) UnitPath(target engine.Cell) []engine.Cell { return u.wt.UnitPath(u, target) }

// Victims returns who would be hit if this unit shot at target
func (u *Unit) Victims(target engine.Cell) []*Unit { return u.wt.Victims(u, target) }

// Capture starts capturing b; the unit must share its square and stay there
// for the capture period.
func (u *Unit) Capture(b Building) error { return u.wt.Capture(u, b) }

// Move walks the unit toward dest by its speed this round. Call again on
// later rounds until it arrives.
func (u *Unit) Move(dest engine.Cell) error { return u.wt.Move(u, dest) }

// Shoot fires toward target even when it is out of range; the bullet flies
// as far as it can.
func (u *Unit) Shoot(target engine.Cell) error { return u.wt.Shoot(u, target) }
