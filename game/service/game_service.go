package service

import (
	"context"
	"time"

	"github.com/wricardo/mcp-training/blockworld/game/engine"
)

// GameService defines all world-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, configName string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Gripper Commands
	Grasp(ctx context.Context, sessionID string, x, y int) (*ActionResult, error)
	MoveTo(ctx context.Context, sessionID string, x, y int) (*ActionResult, error)

	// World State
	GetWorldState(ctx context.Context, sessionID string) (*engine.WorldState, error)
	DescribeCell(ctx context.Context, sessionID string, x, y int) (*CellInfo, error)
	GetHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error)
	ExportLog(ctx context.Context, sessionID, path string) (string, error)

	// Configuration
	ListConfigs(ctx context.Context) ([]*ConfigInfo, error)
	LoadConfig(ctx context.Context, configName string) (*engine.WorldConfig, error)
	SaveConfig(ctx context.Context, configName string, config *engine.WorldConfig) error
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id string, config *engine.WorldConfig) (*Session, error)
	Get(id string) (*Session, error)
	GetOrCreate(id string, config *engine.WorldConfig) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
	Save(id string) error
}

// ConfigManager handles world configuration loading
type ConfigManager interface {
	LoadConfig(name string) (*engine.WorldConfig, error)
	ListConfigs() ([]*ConfigInfo, error)
	GetDefault() *engine.WorldConfig
	SaveConfig(name string, config *engine.WorldConfig) error
}

// Session represents an active world session
type Session struct {
	ID             string
	Engine         *engine.WorldEngine
	Config         *engine.WorldConfig
	CreatedAt      time.Time
	LastAccessedAt time.Time
}
