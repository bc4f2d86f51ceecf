package engine

// CountBlocks counts the occupied cells in a snapshot
func CountBlocks(grid [][]BlockType) int {
	count := 0
	for _, row := range grid {
		for _, cell := range row {
			if !cell.IsEmpty() {
				count++
			}
		}
	}
	return count
}

// CountBlockType counts the cells holding a specific block type
func CountBlockType(grid [][]BlockType, blockType BlockType) int {
	count := 0
	for _, row := range grid {
		for _, cell := range row {
			if cell == blockType {
				count++
			}
		}
	}
	return count
}

// ManhattanDistance calculates the Manhattan distance between two positions.
// It is also the number of unit steps a move between them takes.
func ManhattanDistance(from, to Position) int {
	return abs(from.X-to.X) + abs(from.Y-to.Y)
}

// FindMergeTargets returns the empty cells where dropping a block of the given
// type would trigger a merge, in row-major order
func FindMergeTargets(grid [][]BlockType, blockType BlockType) []Position {
	var targets []Position

	for x, row := range grid {
		for y, cell := range row {
			if !cell.IsEmpty() {
				continue
			}
			for _, off := range neighborOffsets {
				nx, ny := x+off.dx, y+off.dy
				if nx < 0 || nx >= len(grid) || ny < 0 || ny >= len(grid[nx]) {
					continue
				}
				if grid[nx][ny] == blockType {
					targets = append(targets, Position{X: x, Y: y})
					break
				}
			}
		}
	}

	return targets
}

// abs returns the absolute value of x
func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
