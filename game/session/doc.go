// Package session provides session management for the block world.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Unique session ID generation
//   - File persistence of complete worlds
//   - Session cleanup and expiration
//
// Core Types:
//
// Manager is the session manager that handles all session operations.
// FilePersistence stores each session as one JSON file holding the config ID
// and the full world state: grid, gripper and action history. A world that
// was populated randomly cannot be regenerated from its config, so the grid
// is always saved as-is.
//
// Session Identifiers:
//
// Sessions use 4-character hex IDs for easy reference. Lookups are
// case-insensitive. Generated IDs are retried on collision.
//
// Usage:
//
//	persistence, _ := session.NewFilePersistence("sessions", configManager)
//	manager := session.NewManagerWithPersistence(persistence)
//	manager.LoadPersistedSessions()
//
//	sess, err := manager.Create("", worldConfig)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	sess, err = manager.Get(sess.ID)
//
// Cleanup:
//
// CleanupExpiredSessions evicts idle sessions from memory. Their files stay
// on disk and are loaded again on the next Get.
package session
