// Package api provides HTTP REST API handlers for the block world.
//
// Endpoints:
//
// Session Management:
//   - POST /api/sessions - Create new session ({"config_id": "puzzle"})
//   - GET /api/sessions - List sessions (?sort=created|accessed&order=asc|desc&limit=N)
//   - GET /api/sessions/{id} - Get specific session
//   - DELETE /api/sessions/{id} - Delete session
//
// World Operations:
//   - GET /api/sessions/{id}/state - Current grid, gripper and block count
//   - GET /api/sessions/{id}/cells/{x}/{y} - What occupies one cell
//   - POST /api/sessions/{id}/grasp - Pick up a block ({"x": 0, "y": 2})
//   - POST /api/sessions/{id}/move - Carry the held block ({"x": 3, "y": 1})
//   - GET /api/sessions/{id}/history - Action events (?page=1&limit=20&order=desc)
//   - POST /api/sessions/{id}/log - Append the action log to the config's log file
//
// Configuration:
//   - GET /api/configs - List available configurations
//   - GET /api/configs/{name} - Get one configuration
//   - POST /api/configs - Save a new configuration
//
// Grasp and move always answer 200 for a known session. Whether the engine
// accepted the command is in the result:
//
//	{
//	  "success": false,
//	  "action": "move",
//	  "target": {"x": 9, "y": 0},
//	  "events": [{"seq": 4, "kind": "failed_move", "reason": "..."}],
//	  "error_code": "out_of_bounds",
//	  "message": "Can't move A to (9, 0): outside the 3x3 world",
//	  "world_state": {...}
//	}
//
// A successful move lists every step_moved event, then any adjacent_removed
// events, then move_completed. When a hub is attached the same events are
// pushed to /ws?session=<id> watchers followed by a state_update.
//
// Errors are returned as JSON with an appropriate HTTP status code:
//
//	{"error": "error message"}
package api
