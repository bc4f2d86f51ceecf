// Package service provides the business logic layer for the block world.
//
// The service package implements:
//   - Multi-session world management
//   - Grasp and move commands with in-band failure reporting
//   - Paginated action history and action log export
//   - Configuration listing, loading and saving
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level operations.
// SessionManager handles session creation, retrieval, and lifecycle.
// ConfigManager manages world configuration loading and validation.
//
// Architecture:
//
// The service layer sits between the transport layer (HTTP/WebSocket/MCP) and
// the world engine. Each session owns its own engine. Engines are not safe for
// concurrent use, so the service serialises every command behind one lock.
//
// A rejected command (grasping an empty cell, moving with an empty gripper,
// moving off the world) is not a Go error here: the ActionResult carries
// Success false, the engine's error code and its message, and the failed
// event is still part of the history.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	configMgr, _ := config.NewManager("configs")
//	gameService := service.NewGameService(sessionMgr, configMgr)
//
//	info, err := gameService.CreateSession(ctx, "small")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := gameService.Grasp(ctx, info.ID, 0, 1)
//	result, err = gameService.MoveTo(ctx, info.ID, 2, 3)
package service
