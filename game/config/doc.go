// Package config provides world configuration management for the block world.
//
// The config package handles:
//   - Loading world configurations from JSON files
//   - Caching loaded configurations
//   - Default configuration management
//   - Configuration discovery and listing
//
// Configuration Format:
//
// World configurations are stored as JSON files in the configs directory.
// Each configuration defines the world dimensions (length rows by width
// columns), which block types may appear, and either a fixed layout or the
// density used to scatter random blocks:
//
//	{
//	  "name": "Puzzle",
//	  "length": 3,
//	  "width": 4,
//	  "block_types": ["A", "B"],
//	  "layout": ["A__A", "_B__", "B___"]
//	}
//
// In a layout '_' or '.' is an empty cell and the letters A to D are blocks.
// A config without a layout is populated randomly; seed 0 means a fresh
// world every time.
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//
//	// Load specific configuration
//	worldConfig, err := manager.LoadConfig("small")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Get default configuration (classic, else the first valid file,
//	// else a built-in 5x5 world)
//	defaultConfig := manager.GetDefault()
//
//	// List available configurations
//	configs, err := manager.ListConfigs()
package config
