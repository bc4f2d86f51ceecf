package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test_config.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func hasEntry(entries []string, substr string) bool {
	for _, e := range entries {
		if strings.Contains(e, substr) {
			return true
		}
	}
	return false
}

func TestValidateConfig_Layout(t *testing.T) {
	path := writeTempConfig(t, `{
		"name": "Pairs",
		"length": 3,
		"width": 3,
		"block_types": ["A", "B", "C"],
		"layout": ["A_B", "___", "B_C"]
	}`)

	result := validateConfig(path)
	if !result.Valid {
		t.Fatalf("Expected valid config, got errors: %v", result.Errors)
	}
	if result.File != "test_config.json" {
		t.Errorf("Expected file name test_config.json, got %s", result.File)
	}

	want := []string{
		"✓ Name: Pairs",
		"✓ Grid: 3x3",
		"✓ Blocks: 4",
		"✓ A: 1 blocks, 2 merge targets",
		"✓ B: 2 blocks, 4 merge targets",
		"✓ C: 1 blocks, 2 merge targets",
	}
	if diff := cmp.Diff(want, result.Info); diff != "" {
		t.Errorf("Info mismatch (-want +got):\n%s", diff)
	}

	wantWarnings := []string{
		"Block A appears once and can never merge",
		"Block C appears once and can never merge",
	}
	if diff := cmp.Diff(wantWarnings, result.Warnings); diff != "" {
		t.Errorf("Warnings mismatch (-want +got):\n%s", diff)
	}
}

func TestValidateConfig_Random(t *testing.T) {
	path := writeTempConfig(t, `{"name": "Open", "length": 4, "width": 5}`)

	result := validateConfig(path)
	if !result.Valid {
		t.Fatalf("Expected valid config, got errors: %v", result.Errors)
	}
	if !hasEntry(result.Info, "up to 10 blocks (density 0.50)") {
		t.Errorf("Expected random population info, got %v", result.Info)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("No warnings expected, got %v", result.Warnings)
	}
}

func TestValidateConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"bad json", `{"name": "test", invalid json}`, "Invalid JSON"},
		{"missing name", `{"length": 3, "width": 3}`, "name is required"},
		{"too long", `{"name": "x", "length": 51, "width": 3}`, "length must be between"},
		{"bad block type", `{"name": "x", "length": 2, "width": 2, "block_types": ["Z"]}`, "invalid block type"},
		{"short layout", `{"name": "x", "length": 2, "width": 2, "layout": ["A_"]}`, "layout must have 2 rows"},
		{"bad character", `{"name": "x", "length": 1, "width": 2, "layout": ["AX"]}`, "invalid character"},
		{"density", `{"name": "x", "length": 2, "width": 2, "max_density": 1.5}`, "max_density"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := validateConfig(writeTempConfig(t, tt.content))
			if result.Valid {
				t.Fatal("Expected invalid config")
			}
			if !hasEntry(result.Errors, tt.want) {
				t.Errorf("Expected error containing %q, got %v", tt.want, result.Errors)
			}
		})
	}
}

func TestValidateConfig_MissingFile(t *testing.T) {
	result := validateConfig("/non/existent/file.json")
	if result.Valid {
		t.Error("Expected invalid result for missing file")
	}
	if !hasEntry(result.Errors, "Failed to read file") {
		t.Errorf("Expected 'Failed to read file' error, got %v", result.Errors)
	}
}

func TestMaxBlocks(t *testing.T) {
	tests := []struct {
		cells   int
		density float64
		want    int
	}{
		{25, 0.5, 12},
		{1, 0.5, 1},
		{10, 0.01, 1},
		{4, 1, 4},
	}
	for _, tt := range tests {
		if got := maxBlocks(tt.cells, tt.density); got != tt.want {
			t.Errorf("maxBlocks(%d, %v) = %d, want %d", tt.cells, tt.density, got, tt.want)
		}
	}
}

func TestShippedConfigs(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("..", "..", "configs", "*.json"))
	if err != nil {
		t.Fatal(err)
	}
	if len(files) == 0 {
		t.Skip("no configs directory")
	}

	for _, file := range files {
		result := validateConfig(file)
		if !result.Valid {
			t.Errorf("%s is invalid: %v", result.File, result.Errors)
		}
	}
}
