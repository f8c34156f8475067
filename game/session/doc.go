// Package session provides the match registry.
//
// Each match is a service.Session holding its own spatial engine built from a
// match config, plus creation and last-access times. Engines are never shared
// between matches, so the range and path caches of one match cannot leak
// into another.
//
// Match Identifiers:
//
// Matches use 4-character hex IDs generated from crypto/rand. Caller-chosen
// IDs are accepted too; lookups are case-insensitive.
//
// Concurrency:
//
// The registry map is guarded by an RWMutex. Engine access is serialized by
// the service layer through the per-session lock, not here.
//
// Usage:
//
//	manager := session.NewManager(logger)
//	sess, err := manager.Create("", "skirmish", config)
//	...
//	removed := manager.CleanupExpiredSessions(24 * time.Hour)
//
// Matches live in memory only; a restart starts from an empty registry.
package session
