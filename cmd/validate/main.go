// Command validate checks world configuration JSON files. It checks:
//   - JSON structure and the rules enforced when a config is loaded
//     (name, dimensions, block types, density and layout shape)
//   - For fixed layouts, that every block type placed has a partner to merge
//     with, and where a held block could be dropped to merge
//
// It reads ./configs unless a directory is given as the first argument and
// exits with a non-zero status if any file is invalid.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wricardo/mcp-training/blockworld/game/engine"
)

// ValidationResult captures the outcome of validating a single file.
// Errors stops the file from loading; Info and Warnings are reported either way.
type ValidationResult struct {
	File     string
	Valid    bool
	Errors   []string
	Warnings []string
	Info     []string
}

// validateConfig loads and validates a single configuration JSON file
func validateConfig(filePath string) ValidationResult {
	result := ValidationResult{
		File:  filepath.Base(filePath),
		Valid: true,
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	var config engine.WorldConfig
	if err := json.Unmarshal(data, &config); err != nil {
		result.fail("Invalid JSON: %v", err)
		return result
	}

	if err := engine.ValidateWorldConfig(&config); err != nil {
		result.fail("%s", strings.TrimPrefix(err.Error(), "config validation: "))
		return result
	}

	result.Info = append(result.Info,
		fmt.Sprintf("✓ Name: %s", config.Name),
		fmt.Sprintf("✓ Grid: %dx%d", config.Length, config.Width),
	)

	if len(config.Layout) == 0 {
		density := config.MaxDensity
		if density == 0 {
			density = engine.DefaultMaxDensity
		}
		cells := config.Length * config.Width
		result.Info = append(result.Info,
			fmt.Sprintf("✓ Random population: up to %d blocks (density %.2f)", maxBlocks(cells, density), density))
		return result
	}

	checkLayout(&result, config.Layout)
	return result
}

// maxBlocks is the most blocks a random population may place
func maxBlocks(cells int, density float64) int {
	n := int(float64(cells) * density)
	if n < 1 {
		n = 1
	}
	return n
}

// checkLayout reports per-type block counts and merge opportunities for a
// fixed layout. A type with a single block can never merge.
func checkLayout(result *ValidationResult, layout []string) {
	rows, err := engine.ParseLayout(layout)
	if err != nil {
		result.fail("%v", err)
		return
	}

	result.Info = append(result.Info, fmt.Sprintf("✓ Blocks: %d", engine.CountBlocks(rows)))

	for _, bt := range blockTypesIn(rows) {
		count := engine.CountBlockType(rows, bt)
		targets := engine.FindMergeTargets(rows, bt)
		result.Info = append(result.Info,
			fmt.Sprintf("✓ %s: %d blocks, %d merge targets", bt, count, len(targets)))

		if count < 2 {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("Block %s appears once and can never merge", bt))
		}
	}
}

// blockTypesIn lists the block types present in rows, in order of first
// appearance
func blockTypesIn(rows [][]engine.BlockType) []engine.BlockType {
	seen := make(map[engine.BlockType]bool)
	var types []engine.BlockType
	for _, row := range rows {
		for _, b := range row {
			if b.IsEmpty() || seen[b] {
				continue
			}
			seen[b] = true
			types = append(types, b)
		}
	}
	return types
}

func (r *ValidationResult) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// main scans the config directory for *.json files and validates each one,
// printing a concise report
func main() {
	configDir := "configs"
	if len(os.Args) > 1 {
		configDir = os.Args[1]
	}

	files, err := filepath.Glob(filepath.Join(configDir, "*.json"))
	if err != nil {
		fmt.Printf("Error finding config files: %v\n", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Printf("No config files found in %s\n", configDir)
		os.Exit(1)
	}

	allValid := true
	for _, file := range files {
		result := validateConfig(file)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Info {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, e := range result.Errors {
				fmt.Println("  ❌ " + e)
			}
		}
		for _, w := range result.Warnings {
			fmt.Println("  ⚠️  " + w)
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All configurations are valid!")
	} else {
		fmt.Println("❌ Some configurations have errors")
		os.Exit(1)
	}
}
