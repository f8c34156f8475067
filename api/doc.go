// Package api provides the HTTP REST API for tactical grid matches.
//
// Endpoints:
//
// Matches:
//   - POST /api/matches - Create a match from a config ({"config_id": "duel"})
//   - GET /api/matches - List matches (?sort=created|accessed&order=asc|desc&limit=N)
//   - GET /api/matches/{id} - Match details with entity snapshot
//   - DELETE /api/matches/{id} - Delete a match
//
// Occupancy:
//   - GET /api/matches/{id}/entities - Every placed entity
//   - POST /api/matches/{id}/entities - Place an entity ({"entity", "x", "y"})
//   - POST /api/matches/{id}/spawn - Place an entity on a random cell
//   - GET|PUT|DELETE /api/matches/{id}/entities/{entity} - Position, relocate, remove
//   - POST /api/matches/{id}/entities/{entity}/advance - Walk toward a cell ({"x", "y", "steps"})
//   - GET /api/matches/{id}/cells/{x}/{y} - Occupants of one cell
//
// Geometry:
//   - GET /api/matches/{id}/legal-moves?x&y[&n]
//   - GET /api/matches/{id}/bullet-path?from_x&from_y&to_x&to_y[&range]
//   - GET /api/matches/{id}/unit-path?from_x&from_y&to_x&to_y
//   - GET /api/matches/{id}/victims?shooter&x&y
//   - GET /api/distance?from_x&from_y&to_x&to_y
//
// Configuration:
//   - GET /api/configs, POST /api/configs, GET /api/configs/{name}
//
// Live updates are served at /ws?match={id}.
//
// Omitted budgets and ranges fall back to the match config. Errors are
// returned as {"error": "message"} with 404 for unknown matches, entities
// and configs, and 400 for off-grid cells or invalid arguments.
package api
