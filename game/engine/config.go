package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ValidateWorldConfig validates a world configuration for correctness
func ValidateWorldConfig(config *WorldConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is required")
	}

	// Validate required fields
	if config.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}

	// Validate dimensions
	if config.Length < MinDimension || config.Length > MaxDimension {
		return fmt.Errorf("config validation: length must be between %d and %d, got %d", MinDimension, MaxDimension, config.Length)
	}
	if config.Width < MinDimension || config.Width > MaxDimension {
		return fmt.Errorf("config validation: width must be between %d and %d, got %d", MinDimension, MaxDimension, config.Width)
	}

	// Validate block types
	seen := make(map[BlockType]bool)
	for _, b := range config.BlockTypes {
		if !b.IsValid() {
			return fmt.Errorf("config validation: invalid block type %q", b)
		}
		if seen[b] {
			return fmt.Errorf("config validation: duplicate block type %q", b)
		}
		seen[b] = true
	}

	if config.MaxDensity < 0 || config.MaxDensity > 1 {
		return fmt.Errorf("config validation: max_density must be between 0 and 1, got %v", config.MaxDensity)
	}

	// Validate layout
	if len(config.Layout) > 0 {
		if len(config.Layout) != config.Length {
			return fmt.Errorf("config validation: layout must have %d rows to match length, got %d",
				config.Length, len(config.Layout))
		}
		rows, err := ParseLayout(config.Layout)
		if err != nil {
			return fmt.Errorf("config validation: %v", err)
		}
		for i, row := range rows {
			if len(row) != config.Width {
				return fmt.Errorf("config validation: row %d must have %d characters to match width, got %d",
					i+1, config.Width, len(row))
			}
			for _, b := range row {
				if !b.IsEmpty() && len(seen) > 0 && !seen[b] {
					return fmt.Errorf("config validation: layout uses block %q not listed in block_types", b)
				}
			}
		}
	}

	return nil
}

// DefaultWorldConfig returns the configuration used when none is available
func DefaultWorldConfig() *WorldConfig {
	return &WorldConfig{
		Name:        "default",
		Description: "Default 5x5 world with random blocks",
		Length:      5,
		Width:       5,
		BlockTypes:  append([]BlockType(nil), DefaultBlockTypes...),
		MaxDensity:  DefaultMaxDensity,
		LogFile:     "cube_logs.txt",
	}
}

// LoadWorldConfig loads a world configuration from a JSON file
func LoadWorldConfig(filename string) (*WorldConfig, error) {
	// Support CONFIG_DIR environment variable for alternative config directory
	configPath := filename
	if configDir := os.Getenv("CONFIG_DIR"); configDir != "" {
		if strings.HasPrefix(filename, "configs/") {
			configPath = filepath.Join(configDir, strings.TrimPrefix(filename, "configs/"))
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	var config WorldConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	if err := ValidateWorldConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
