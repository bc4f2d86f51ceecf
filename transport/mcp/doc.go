// Package mcp exposes the block world to AI agents over the Model Context
// Protocol.
//
// The Client is a thin proxy: every tool call becomes a request against the
// REST API served by the api package, and the JSON answer is turned into
// plain text that a language model can read. The client keeps no world
// state of its own, so any number of agents can share one server.
//
// MCP Tools:
//   - create_session, list_sessions, get_session: session management
//   - world_state: grid with row and column indices, gripper and block count
//   - grasp, move_to: the two gripper commands
//   - describe_cell: what occupies a single cell
//   - action_history: paginated events, rejected commands included
//   - export_log: append the action log to the session's log file
//   - list_configs, world_instructions: discovery
//
// Rejected commands are not tool errors. They come back as normal text
// starting with ✗ and carrying the engine's error code, so the agent can
// correct itself. Tool errors are reserved for transport problems, unknown
// sessions and malformed arguments.
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	if err := client.Listen(ctx, os.Stdin, os.Stdout); err != nil {
//		log.Fatal(err)
//	}
package mcp
