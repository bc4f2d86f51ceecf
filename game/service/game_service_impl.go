package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/wricardo/mcp-training/blockworld/game/actionlog"
	"github.com/wricardo/mcp-training/blockworld/game/engine"
)

// ErrConfigNotFound mirrors the config manager's lookup failure so callers
// of the service do not need to import it
var ErrConfigNotFound = errors.New("configuration not found")

// gameServiceImpl implements the GameService interface. One mutex
// serialises every command, so each session sees a single ordered stream.
type gameServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	mu       sync.RWMutex
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager) GameService {
	return &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
	}
}

// getConfigID returns the config_id for a given config name, used for consistent API responses
func (s *gameServiceImpl) getConfigID(configName string) string {
	availableConfigs, err := s.configs.ListConfigs()
	if err == nil {
		for _, cfg := range availableConfigs {
			if cfg.Name == configName {
				return cfg.ConfigID
			}
		}
	}
	if configName == "" {
		return "default"
	}
	return configName
}

func (s *gameServiceImpl) sessionInfo(sess *Session, configID string) *SessionInfo {
	if configID == "" {
		configID = s.getConfigID(sess.Config.Name)
	}
	return &SessionInfo{
		ID:             sess.ID,
		ConfigName:     configID,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		WorldState:     sess.Engine.State(),
		WorldConfig:    sess.Config,
	}
}

// CreateSession creates a new world session from a named or the default config
func (s *gameServiceImpl) CreateSession(ctx context.Context, configName string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var config *engine.WorldConfig
	var err error
	if configName != "" {
		config, err = s.configs.LoadConfig(configName)
		if err != nil {
			// Provide helpful error message with available options
			if strings.Contains(err.Error(), "configuration not found") {
				availableConfigs, listErr := s.configs.ListConfigs()
				if listErr == nil && len(availableConfigs) > 0 {
					var configIDs []string
					for _, cfg := range availableConfigs {
						configIDs = append(configIDs, cfg.ConfigID)
					}
					return nil, fmt.Errorf("%w: '%s'. Available configs: %v", ErrConfigNotFound, configName, configIDs)
				}
				return nil, fmt.Errorf("%w: '%s'. Use /api/configs to list available configurations", ErrConfigNotFound, configName)
			}
			return nil, fmt.Errorf("failed to load config %s: %w", configName, err)
		}
	} else {
		config = s.configs.GetDefault()
	}

	// Let session manager generate a 4-character ID
	sess, err := s.sessions.Create("", config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return s.sessionInfo(sess, strings.TrimSuffix(configName, ".json")), nil
}

// GetSession retrieves session information. It touches the session, so it
// takes the write lock like the commands do.
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	s.sessions.UpdateLastAccessed(sessionID)

	return s.sessionInfo(sess, ""), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))

	for _, sess := range sessions {
		result = append(result, s.sessionInfo(sess, ""))
	}

	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sessions.Delete(sessionID)
}

// Grasp picks up the block at (x, y) in a session's world
func (s *gameServiceImpl) Grasp(ctx context.Context, sessionID string, x, y int) (*ActionResult, error) {
	return s.command(sessionID, "grasp", engine.Position{X: x, Y: y}, func(e *engine.WorldEngine) ([]engine.ActionEvent, error) {
		ev, err := e.Grasp(x, y)
		return []engine.ActionEvent{ev}, err
	})
}

// MoveTo carries the held block of a session to (x, y)
func (s *gameServiceImpl) MoveTo(ctx context.Context, sessionID string, x, y int) (*ActionResult, error) {
	return s.command(sessionID, "move", engine.Position{X: x, Y: y}, func(e *engine.WorldEngine) ([]engine.ActionEvent, error) {
		return e.MoveTo(x, y)
	})
}

// command runs one engine command under the service lock and persists the
// session afterwards. Engine rejections become an unsuccessful result.
func (s *gameServiceImpl) command(sessionID, action string, target engine.Position, run func(*engine.WorldEngine) ([]engine.ActionEvent, error)) (*ActionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	events, cmdErr := run(sess.Engine)
	code := engine.ErrorCode(cmdErr)
	if code == "internal" {
		return nil, fmt.Errorf("%s failed: %w", action, cmdErr)
	}

	// UpdateLastAccessed also persists the session
	s.sessions.UpdateLastAccessed(sessionID)

	result := &ActionResult{
		Success:    cmdErr == nil,
		Action:     action,
		Target:     target,
		Events:     events,
		WorldState: sess.Engine.State(),
		Message:    sess.Engine.Message(),
		ErrorCode:  code,
	}

	for _, ev := range events {
		if ev.Kind == engine.EventAdjacentRemoved {
			result.Removed++
		}
	}
	if result.Removed > 0 {
		result.Merged = true
		result.Removed++
	}

	return result, nil
}

// GetWorldState returns the current world state
func (s *gameServiceImpl) GetWorldState(ctx context.Context, sessionID string) (*engine.WorldState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	return sess.Engine.State(), nil
}

// DescribeCell reports what occupies one cell
func (s *gameServiceImpl) DescribeCell(ctx context.Context, sessionID string, x, y int) (*CellInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	grid := sess.Engine.Snapshot()
	if x < 0 || x >= len(grid) || y < 0 || y >= len(grid[x]) {
		return nil, fmt.Errorf("%w: (%d, %d) in a %dx%d world",
			engine.ErrOutOfBounds, x, y, sess.Engine.Length(), sess.Engine.Width())
	}

	gripper := sess.Engine.Gripper()
	pos := engine.Position{X: x, Y: y}
	return &CellInfo{
		Position: pos,
		Block:    grid[x][y],
		Empty:    grid[x][y].IsEmpty(),
		Held:     gripper.Holding && gripper.Origin == pos,
	}, nil
}

// GetHistory returns a page of the session's action events
func (s *gameServiceImpl) GetHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	history := sess.Engine.History()
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	entries := []HistoryEntry{}
	if opts.Order == "desc" {
		// Most recent first
		for i := total - 1 - start; i >= 0 && i >= total-end; i-- {
			entries = append(entries, HistoryEntry{ActionEvent: history[i], Text: actionlog.FormatEvent(history[i])})
		}
	} else if start < total {
		for _, ev := range history[start:end] {
			entries = append(entries, HistoryEntry{ActionEvent: ev, Text: actionlog.FormatEvent(ev)})
		}
	}

	failed := 0
	for _, ev := range history {
		if ev.Failed() {
			failed++
		}
	}

	return &HistoryResponse{
		Events:       entries,
		TotalEvents:  total,
		Page:         opts.Page,
		PageSize:     opts.Limit,
		TotalPages:   totalPages,
		HasNext:      opts.Page < totalPages,
		HasPrevious:  opts.Page > 1,
		FailedEvents: failed,
	}, nil
}

// ExportLog appends the session's full action log to path, falling back to
// the config's log file and then the default file name
func (s *gameServiceImpl) ExportLog(ctx context.Context, sessionID, path string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return "", fmt.Errorf("session not found: %w", err)
	}

	if path == "" && sess.Config != nil {
		path = sess.Config.LogFile
	}
	if path == "" {
		path = actionlog.DefaultFile
	}

	if err := actionlog.WriteFile(path, sess.Engine.History()); err != nil {
		return "", err
	}
	return path, nil
}

// ListConfigs returns all available world configurations
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific world configuration
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.WorldConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a world configuration to disk
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.WorldConfig) error {
	return s.configs.SaveConfig(configName, config)
}
