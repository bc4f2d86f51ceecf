package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wricardo/mcp-training/blockworld/game/engine"
	"github.com/wricardo/mcp-training/blockworld/game/service"
)

// FilePersistence implements SessionPersistence with one JSON file per session
type FilePersistence struct {
	sessionsDir   string
	configManager service.ConfigManager
}

// NewFilePersistence creates a new file-based session persistence layer
func NewFilePersistence(sessionsDir string, configManager service.ConfigManager) (*FilePersistence, error) {
	if err := os.MkdirAll(sessionsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create sessions directory: %w", err)
	}

	return &FilePersistence{
		sessionsDir:   sessionsDir,
		configManager: configManager,
	}, nil
}

// Save persists a session to a JSON file
func (fp *FilePersistence) Save(session *service.Session) error {
	if session == nil {
		return fmt.Errorf("session cannot be nil")
	}

	configID := ""
	if session.Config != nil {
		configID = fp.getConfigIDFromName(session.Config.Name)
	}

	data := PersistedSessionData{
		ID:             session.ID,
		ConfigName:     configID, // Store config ID, not display name
		CreatedAt:      session.CreatedAt,
		LastAccessedAt: session.LastAccessedAt,
		WorldState:     session.Engine.State(),
	}

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session data: %w", err)
	}

	// Write then rename so a crash never leaves half a session behind
	filePath := fp.getFilePath(session.ID)
	tmpPath := filePath + ".tmp"
	if err := os.WriteFile(tmpPath, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := os.Rename(tmpPath, filePath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write session file: %w", err)
	}

	return nil
}

// Load rebuilds a session from its JSON file. The engine is created from
// the stored config and then overwritten with the stored world.
func (fp *FilePersistence) Load(id string) (*service.Session, error) {
	filePath := fp.getFilePath(id)

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil, ErrSessionNotFound
	}

	jsonData, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var data PersistedSessionData
	if err := json.Unmarshal(jsonData, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session data: %w", err)
	}
	if data.WorldState == nil {
		return nil, fmt.Errorf("session %s has no world state", id)
	}

	worldConfig := fp.resolveConfig(data)

	world, err := engine.NewWorldEngine(data.WorldState.Length, data.WorldState.Width)
	if err != nil {
		return nil, fmt.Errorf("failed to create world engine: %w", err)
	}
	if err := world.SetState(data.WorldState); err != nil {
		return nil, fmt.Errorf("failed to set world state: %w", err)
	}

	return &service.Session{
		ID:             data.ID,
		Engine:         world,
		Config:         worldConfig,
		CreatedAt:      data.CreatedAt,
		LastAccessedAt: data.LastAccessedAt,
	}, nil
}

// resolveConfig loads the session's config by ID. When it is gone or no
// longer matches the stored dimensions, a default config sized to the stored
// world is used instead so the session stays playable.
func (fp *FilePersistence) resolveConfig(data PersistedSessionData) *engine.WorldConfig {
	if data.ConfigName != "" {
		cfg, err := fp.configManager.LoadConfig(data.ConfigName)
		if err == nil && cfg.Length == data.WorldState.Length && cfg.Width == data.WorldState.Width {
			return cfg
		}
		fmt.Printf("Warning: Config '%s' for session %s unavailable, using defaults\n", data.ConfigName, data.ID)
	}

	cfg := engine.DefaultWorldConfig()
	if data.ConfigName != "" {
		cfg.Name = data.ConfigName
	}
	cfg.Length = data.WorldState.Length
	cfg.Width = data.WorldState.Width
	return cfg
}

// Delete removes a session file
func (fp *FilePersistence) Delete(id string) error {
	if !fp.Exists(id) {
		return ErrSessionNotFound
	}

	if err := os.Remove(fp.getFilePath(id)); err != nil {
		return fmt.Errorf("failed to remove session file: %w", err)
	}

	return nil
}

// ListAll returns all persisted session IDs
func (fp *FilePersistence) ListAll() ([]string, error) {
	entries, err := os.ReadDir(fp.sessionsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read sessions directory: %w", err)
	}

	var sessionIDs []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		if name := entry.Name(); strings.HasSuffix(name, ".json") {
			sessionIDs = append(sessionIDs, strings.TrimSuffix(name, ".json"))
		}
	}

	return sessionIDs, nil
}

// Exists checks if a session file exists
func (fp *FilePersistence) Exists(id string) bool {
	_, err := os.Stat(fp.getFilePath(id))
	return err == nil
}

// getFilePath returns the full file path for a session ID
func (fp *FilePersistence) getFilePath(id string) string {
	return filepath.Join(fp.sessionsDir, fmt.Sprintf("%s.json", strings.ToLower(id)))
}

// getConfigIDFromName returns the config ID (filename without extension)
// for a display name, or the name itself when no config matches
func (fp *FilePersistence) getConfigIDFromName(displayName string) string {
	configs, err := fp.configManager.ListConfigs()
	if err != nil {
		return displayName
	}

	for _, config := range configs {
		if config.Name == displayName {
			return config.ConfigID
		}
	}

	return displayName
}
