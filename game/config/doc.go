// Package config provides configuration management for tactical grid matches.
//
// The config package handles:
//   - Loading match configurations from JSON or YAML files
//   - Configuration validation and default filling
//   - Default configuration management
//   - Configuration discovery and listing
//   - Server settings from a TOML file
//
// Configuration Format:
//
// Match configurations live one per file in the configs directory, as .json,
// .yaml or .yml. Each configuration defines:
//   - grid_size: the board dimension N (1 to 1024)
//   - bullet_range: cells a bullet travels (default N/8, at least 1)
//   - move_budget: default budget for range queries
//   - unit_speed: cells a unit advances per turn
//   - entities: initial placements as {id, x, y}
//
// When the directory has no default.{json,yaml,yml}, the built-in skirmish
// config (200x200, bullet range 25) is the default.
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	matchConfig, err := manager.LoadConfig("duel")
//	configs, err := manager.ListConfigs()
//
//	settings, err := config.LoadSettings("tacticalgrid.toml")
package config
