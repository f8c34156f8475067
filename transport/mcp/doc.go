// Package mcp exposes tactical grid matches as Model Context Protocol tools.
//
// The Client is a thin proxy: every tool call becomes one or two REST
// requests against the api package, and the JSON answer is rendered as
// compact text for the agent.
//
// Tools:
//   - create_match, list_matches, get_match, list_configs
//   - place_entity, spawn_entity, move_entity, remove_entity
//   - entity_position, cell_occupants, render_board
//   - legal_moves, bullet_path, unit_path, distance
//   - victims, advance_entity
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080", logger)
//
//	// stdio
//	server.ServeStdio(client.GetMCPServer())
//
//	// HTTP: POST /mcp
//	resp := client.GetMCPServer().HandleMessage(ctx, body)
package mcp
