package engine

import (
	"fmt"
	"math/rand"
	"time"
)

// Generator places blocks onto empty cells of a grid
type Generator interface {
	Populate(g *Grid) error
}

// RandomGenerator picks a block count in [1, cells*MaxDensity] and drops
// random block types on random positions, skipping occupied cells
type RandomGenerator struct {
	BlockTypes []BlockType
	MaxDensity float64
	rng        *rand.Rand
}

// NewRandomGenerator creates a random generator. A zero seed seeds from the
// clock; maxDensity <= 0 selects DefaultMaxDensity.
func NewRandomGenerator(blockTypes []BlockType, maxDensity float64, seed int64) (*RandomGenerator, error) {
	if len(blockTypes) == 0 {
		blockTypes = DefaultBlockTypes
	}
	for _, b := range blockTypes {
		if !b.IsValid() {
			return nil, fmt.Errorf("invalid block type %q", b)
		}
	}
	if maxDensity <= 0 {
		maxDensity = DefaultMaxDensity
	}
	if maxDensity > 1 {
		return nil, fmt.Errorf("max density must be at most 1, got %v", maxDensity)
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &RandomGenerator{
		BlockTypes: append([]BlockType(nil), blockTypes...),
		MaxDensity: maxDensity,
		rng:        rand.New(rand.NewSource(seed)),
	}, nil
}

// Populate implements Generator
func (r *RandomGenerator) Populate(g *Grid) error {
	maxBlocks := int(float64(g.Length()*g.Width()) * r.MaxDensity)
	if maxBlocks < 1 {
		maxBlocks = 1
	}

	attempts := r.rng.Intn(maxBlocks) + 1
	for i := 0; i < attempts; i++ {
		x, y := r.rng.Intn(g.Length()), r.rng.Intn(g.Width())
		if cell, _ := g.Get(x, y); cell.IsEmpty() {
			g.Set(x, y, r.BlockTypes[r.rng.Intn(len(r.BlockTypes))])
		}
	}

	return nil
}

// LayoutGenerator fills the grid from fixed rows. Row i maps to X = i and
// character j to Y = j; '_' and '.' mean empty.
type LayoutGenerator struct {
	Layout []string
}

// Populate implements Generator
func (l *LayoutGenerator) Populate(g *Grid) error {
	rows, err := ParseLayout(l.Layout)
	if err != nil {
		return err
	}
	if len(rows) != g.Length() {
		return fmt.Errorf("layout has %d rows, world length is %d", len(rows), g.Length())
	}

	for x, row := range rows {
		if len(row) != g.Width() {
			return fmt.Errorf("layout row %d has %d cells, world width is %d", x, len(row), g.Width())
		}
		for y, b := range row {
			if b.IsEmpty() {
				continue
			}
			if cell, _ := g.Get(x, y); cell.IsEmpty() {
				g.Set(x, y, b)
			}
		}
	}

	return nil
}

// ParseLayout converts layout strings into block rows
func ParseLayout(layout []string) ([][]BlockType, error) {
	rows := make([][]BlockType, len(layout))
	for i, line := range layout {
		rows[i] = make([]BlockType, 0, len(line))
		for j, char := range line {
			switch char {
			case '_', '.':
				rows[i] = append(rows[i], Empty)
			case 'A', 'B', 'C', 'D':
				rows[i] = append(rows[i], BlockType(string(char)))
			default:
				return nil, fmt.Errorf("invalid character '%c' at row %d, col %d", char, i+1, j+1)
			}
		}
	}
	return rows, nil
}

// GeneratorFromConfig selects a layout generator when the config carries a
// layout and a random generator otherwise
func GeneratorFromConfig(config *WorldConfig) (Generator, error) {
	if len(config.Layout) > 0 {
		return &LayoutGenerator{Layout: config.Layout}, nil
	}
	return NewRandomGenerator(config.BlockTypes, config.MaxDensity, config.Seed)
}
