// Package websocket provides WebSocket transport for the block world.
//
// The package uses a hub-and-spoke model where a central Hub tracks every
// connection by session ID. Each client connection runs a read goroutine
// (which only keeps the connection alive) and a write goroutine.
//
// Message Protocol:
//
// Clients connect with ?session=<id> and receive JSON messages, one per frame:
//   - {"event": "action_event", "data": {...}} for every engine event of a
//     command, in emission order
//   - {"event": "state_update", "world_state": {...}} after each command
//   - {"event": "session_deleted"} when the session goes away
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run(ctx)
//
//	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, r.URL.Query().Get("session"))
//	})
//
// A client whose send buffer fills up is dropped rather than slowing down
// the broadcaster.
package websocket
