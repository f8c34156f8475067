package world

import (
	"math"

	"github.com/wricardo/mcp-training/tacticalgrid/game/engine"
)

// Geometry implements Locator on top of a spatial engine keyed by *Unit.
// A world authority embeds it and supplies Rules itself.
type Geometry struct {
	Grid        *engine.Engine[*Unit]
	BulletRange int
}

// NewGeometry creates a Geometry for a size×size board
func NewGeometry(size, bulletRange int) (*Geometry, error) {
	grid, err := engine.NewEngine[*Unit](size)
	if err != nil {
		return nil, err
	}
	return &Geometry{Grid: grid, BulletRange: bulletRange}, nil
}

func (g *Geometry) Position(u *Unit) (engine.Cell, bool) {
	return g.Grid.Position(u)
}

// BulletPath traces from the unit's cell; an unplaced unit has no path
func (g *Geometry) BulletPath(u *Unit, target engine.Cell) []engine.Cell {
	pos, ok := g.Grid.Position(u)
	if !ok {
		return nil
	}
	return g.Grid.BulletPath(pos, target, g.BulletRange)
}

// Distance is NaN for an unplaced unit
func (g *Geometry) Distance(u *Unit, target engine.Cell) float64 {
	pos, ok := g.Grid.Position(u)
	if !ok {
		return math.NaN()
	}
	return engine.Distance(pos, target)
}

func (g *Geometry) UnitPath(u *Unit, target engine.Cell) []engine.Cell {
	pos, ok := g.Grid.Position(u)
	if !ok {
		return nil
	}
	return g.Grid.UnitPath(pos, target)
}

// Victims returns every other unit standing on the bullet path, nearest first.
// service.MatchService.Victims is the equivalent for served matches.
func (g *Geometry) Victims(u *Unit, target engine.Cell) []*Unit {
	var hit []*Unit
	for _, c := range g.BulletPath(u, target) {
		occupants, err := g.Grid.Occupants(c)
		if err != nil {
			continue
		}
		for _, o := range occupants {
			if o != u {
				hit = append(hit, o)
			}
		}
	}
	return hit
}
