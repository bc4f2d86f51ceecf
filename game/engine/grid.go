package engine

import "fmt"

// Grid is a fixed-size length x width array of cells. All reads and writes
// go through bounds-checked accessors.
type Grid struct {
	length int
	width  int
	cells  [][]BlockType
}

// NewGrid creates an all-empty grid
func NewGrid(length, width int) (*Grid, error) {
	if length < MinDimension || width < MinDimension {
		return nil, fmt.Errorf("%w: got %dx%d", ErrInvalidDimensions, length, width)
	}

	cells := make([][]BlockType, length)
	for i := range cells {
		cells[i] = make([]BlockType, width)
	}

	return &Grid{length: length, width: width, cells: cells}, nil
}

// Length returns the number of rows (X extent)
func (g *Grid) Length() int {
	return g.length
}

// Width returns the number of columns (Y extent)
func (g *Grid) Width() int {
	return g.width
}

// InBounds checks if the coordinates are inside the grid
func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && x < g.length && y >= 0 && y < g.width
}

// Get returns the block at the given position
func (g *Grid) Get(x, y int) (BlockType, error) {
	if !g.InBounds(x, y) {
		return Empty, g.outOfBounds(x, y)
	}
	return g.cells[x][y], nil
}

// Set writes a block at the given position
func (g *Grid) Set(x, y int, b BlockType) error {
	if !g.InBounds(x, y) {
		return g.outOfBounds(x, y)
	}
	g.cells[x][y] = b
	return nil
}

// Clear empties the cell at the given position
func (g *Grid) Clear(x, y int) error {
	return g.Set(x, y, Empty)
}

// Snapshot returns a deep copy of the rows
func (g *Grid) Snapshot() [][]BlockType {
	rows := make([][]BlockType, g.length)
	for i, row := range g.cells {
		rows[i] = append([]BlockType(nil), row...)
	}
	return rows
}

// Count returns the number of occupied cells
func (g *Grid) Count() int {
	count := 0
	for _, row := range g.cells {
		for _, cell := range row {
			if !cell.IsEmpty() {
				count++
			}
		}
	}
	return count
}

// Cells returns the positions of all occupied cells in row-major order
func (g *Grid) Cells() []Position {
	var positions []Position
	for x, row := range g.cells {
		for y, cell := range row {
			if !cell.IsEmpty() {
				positions = append(positions, Position{X: x, Y: y})
			}
		}
	}
	return positions
}

// load replaces the contents from rows of matching dimensions
func (g *Grid) load(rows [][]BlockType) error {
	if len(rows) != g.length {
		return fmt.Errorf("%w: expected %d rows, got %d", ErrInvalidDimensions, g.length, len(rows))
	}
	for x, row := range rows {
		if len(row) != g.width {
			return fmt.Errorf("%w: row %d has %d cells, expected %d", ErrInvalidDimensions, x, len(row), g.width)
		}
	}
	for x, row := range rows {
		copy(g.cells[x], row)
	}
	return nil
}

func (g *Grid) outOfBounds(x, y int) error {
	return fmt.Errorf("%w: (%d, %d) outside %dx%d grid", ErrOutOfBounds, x, y, g.length, g.width)
}
