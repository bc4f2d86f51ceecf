package engine

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNewGrid(t *testing.T) {
	tests := []struct {
		name          string
		length, width int
		wantErr       bool
	}{
		{"square", 3, 3, false},
		{"single cell", 1, 1, false},
		{"single row", 1, 5, false},
		{"zero length", 0, 3, true},
		{"zero width", 3, 0, true},
		{"negative", -1, -1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			grid, err := NewGrid(tt.length, tt.width)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidDimensions) {
					t.Errorf("Expected ErrInvalidDimensions, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if grid.Length() != tt.length || grid.Width() != tt.width {
				t.Errorf("Expected %dx%d grid, got %dx%d", tt.length, tt.width, grid.Length(), grid.Width())
			}
			if grid.Count() != 0 {
				t.Errorf("Expected empty grid, got %d blocks", grid.Count())
			}
		})
	}
}

func TestGrid_GetSetClear(t *testing.T) {
	grid, err := NewGrid(2, 3)
	if err != nil {
		t.Fatalf("Failed to create grid: %v", err)
	}

	if err := grid.Set(1, 2, BlockC); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, err := grid.Get(1, 2)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != BlockC {
		t.Errorf("Expected C at (1, 2), got %q", got)
	}

	if err := grid.Clear(1, 2); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if got, _ := grid.Get(1, 2); !got.IsEmpty() {
		t.Errorf("Expected empty cell after clear, got %q", got)
	}
}

func TestGrid_OutOfBounds(t *testing.T) {
	grid, _ := NewGrid(2, 3)

	positions := []Position{{-1, 0}, {0, -1}, {2, 0}, {0, 3}, {5, 5}}
	for _, pos := range positions {
		if _, err := grid.Get(pos.X, pos.Y); !errors.Is(err, ErrOutOfBounds) {
			t.Errorf("Get(%d, %d): expected ErrOutOfBounds, got %v", pos.X, pos.Y, err)
		}
		if err := grid.Set(pos.X, pos.Y, BlockA); !errors.Is(err, ErrOutOfBounds) {
			t.Errorf("Set(%d, %d): expected ErrOutOfBounds, got %v", pos.X, pos.Y, err)
		}
		if err := grid.Clear(pos.X, pos.Y); !errors.Is(err, ErrOutOfBounds) {
			t.Errorf("Clear(%d, %d): expected ErrOutOfBounds, got %v", pos.X, pos.Y, err)
		}
		if grid.InBounds(pos.X, pos.Y) {
			t.Errorf("InBounds(%d, %d) should be false", pos.X, pos.Y)
		}
	}

	if grid.Count() != 0 {
		t.Error("Out of bounds writes must not change the grid")
	}
}

func TestGrid_SnapshotIsCopy(t *testing.T) {
	grid, _ := NewGrid(2, 2)
	grid.Set(0, 1, BlockA)

	snap := grid.Snapshot()
	snap[0][1] = BlockB
	snap[1][0] = BlockD

	want := [][]BlockType{
		{Empty, BlockA},
		{Empty, Empty},
	}
	if diff := cmp.Diff(want, grid.Snapshot()); diff != "" {
		t.Errorf("Snapshot mutation leaked into grid (-want +got):\n%s", diff)
	}
}

func TestGrid_Cells(t *testing.T) {
	grid, _ := NewGrid(3, 2)
	grid.Set(2, 1, BlockA)
	grid.Set(0, 0, BlockB)

	want := []Position{{X: 0, Y: 0}, {X: 2, Y: 1}}
	if diff := cmp.Diff(want, grid.Cells()); diff != "" {
		t.Errorf("Cells mismatch (-want +got):\n%s", diff)
	}
}
