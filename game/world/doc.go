// Package world defines the boundary between AI-facing units and the world
// authority that owns game rules.
//
// A Unit exposes properties (position, energy, team, visibility) and actions
// (move, shoot, capture) but decides nothing: each call is forwarded to an
// Authority. The authority is split into two capabilities:
//   - Locator: geometry answered by the spatial engine
//   - Rules: health, teams, capture state, visibility, turn timing
//
// Geometry is a ready-made Locator backed by an engine.Engine[*Unit].
//
// Usage:
//
//	geo, _ := world.NewGeometry(200, 25)
//	auth := &myAuthority{Geometry: geo} // supplies Rules
//	u := world.NewUnit("scout", auth)
//	geo.Grid.Place(u, engine.Cell{X: 6, Y: 16})
//	victims := u.Victims(engine.Cell{X: 6, Y: 70})
package world
