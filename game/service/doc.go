// Package service provides the business logic layer for tactical grid matches.
//
// The service package implements:
//   - Multi-match management on top of a SessionManager
//   - Occupancy operations (place, spawn, relocate, remove)
//   - Geometry queries (legal moves, bullet and unit paths, distance)
//   - Victim lookup along a bullet path and incremental unit advances
//   - Configuration passthrough
//
// Core Interfaces:
//
// MatchService is the single entry point used by the REST API, the MCP
// server and the CLI. SessionManager stores matches. ConfigManager loads match
// configurations. Notifier receives an Event after each occupancy change.
//
// Concurrency:
//
// A spatial engine is not safe for concurrent use. Every Session carries its
// own mutex and the service holds it around each engine call, so different
// matches proceed in parallel while calls within one match are serialized.
// Notifications are sent after the lock is released.
//
// Usage:
//
//	sessionMgr := session.NewManager(logger)
//	configMgr, _ := config.NewManager("configs")
//	svc := service.NewMatchService(sessionMgr, configMgr, hub, logger)
//
//	info, err := svc.CreateMatch(ctx, "skirmish")
//	svc.Place(ctx, info.ID, "scout", engine.Cell{X: 6, Y: 16})
//	victims, err := svc.Victims(ctx, info.ID, "scout", engine.Cell{X: 6, Y: 70})
package service
