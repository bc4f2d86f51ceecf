package service

import (
	"time"

	"github.com/wricardo/mcp-training/blockworld/game/engine"
)

// SessionInfo provides information about a world session
type SessionInfo struct {
	ID             string              `json:"id"`
	ConfigName     string              `json:"config_name"`
	CreatedAt      time.Time           `json:"created_at"`
	LastAccessedAt time.Time           `json:"last_accessed_at"`
	WorldState     *engine.WorldState  `json:"world_state"`
	WorldConfig    *engine.WorldConfig `json:"world_config"`
}

// ActionResult contains the outcome of a grasp or move command. Rejected
// commands are reported here with Success false rather than as an error.
type ActionResult struct {
	Success    bool                 `json:"success"`
	Action     string               `json:"action"` // "grasp" or "move"
	Target     engine.Position      `json:"target"`
	Events     []engine.ActionEvent `json:"events"`
	WorldState *engine.WorldState   `json:"world_state"`
	Message    string               `json:"message"`
	ErrorCode  string               `json:"error_code,omitempty"`
	Merged     bool                 `json:"merged,omitempty"`
	Removed    int                  `json:"removed,omitempty"` // Blocks cleared by merging, the moved one included
}

// HistoryOptions configures action history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryEntry is one recorded event with its log line
type HistoryEntry struct {
	engine.ActionEvent
	Text string `json:"text"`
}

// HistoryResponse contains a page of the action history
type HistoryResponse struct {
	Events       []HistoryEntry `json:"events"`
	TotalEvents  int            `json:"total_events"`
	Page         int            `json:"page"`
	PageSize     int            `json:"page_size"`
	TotalPages   int            `json:"total_pages"`
	HasNext      bool           `json:"has_next"`
	HasPrevious  bool           `json:"has_previous"`
	FailedEvents int            `json:"failed_events"`
}

// ConfigInfo provides information about a world configuration
type ConfigInfo struct {
	Filename    string `json:"filename"`
	ConfigID    string `json:"config_id"` // The identifier to use for session creation
	Name        string `json:"name"`      // Display name
	Description string `json:"description"`
	Length      int    `json:"length"`
	Width       int    `json:"width"`
	Fixed       bool   `json:"fixed"` // Layout-based rather than random
}

// CellInfo describes a single cell of a session's world
type CellInfo struct {
	Position engine.Position  `json:"position"`
	Block    engine.BlockType `json:"block,omitempty"`
	Empty    bool             `json:"empty"`
	Held     bool             `json:"held"` // The gripper's block came from here
}
