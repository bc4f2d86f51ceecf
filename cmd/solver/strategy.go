package main

import (
	"github.com/wricardo/mcp-training/blockworld/game/engine"
)

// Plan is one grasp followed by one move
type Plan struct {
	From  engine.Position
	To    engine.Position
	Block engine.BlockType
}

// Steps is the number of unit steps the move takes
func (p Plan) Steps() int {
	return engine.ManhattanDistance(p.From, p.To)
}

// GreedyStrategy picks, on every turn, the cheapest move that makes a block
// merge. It never plans more than one move ahead.
type GreedyStrategy struct {
	// failed remembers plans the server rejected so they are not retried
	failed map[Plan]bool
}

func NewGreedyStrategy() *GreedyStrategy {
	return &GreedyStrategy{failed: make(map[Plan]bool)}
}

// Reject marks a plan as not worth trying again
func (s *GreedyStrategy) Reject(p Plan) {
	s.failed[p] = true
}

// Next returns the plan with the fewest steps that ends in a merge. Ties go
// to the first block in row-major order. ok is false when no move can merge.
func (s *GreedyStrategy) Next(grid [][]engine.BlockType) (Plan, bool) {
	var best Plan
	found := false

	for x, row := range grid {
		for y, block := range row {
			if block.IsEmpty() || engine.CountBlockType(grid, block) < 2 {
				continue
			}
			from := engine.Position{X: x, Y: y}

			// The block leaves its cell when grasped, so targets are searched
			// without it. Otherwise it would count as its own partner.
			lifted := withCleared(grid, from)
			for _, to := range engine.FindMergeTargets(lifted, block) {
				p := Plan{From: from, To: to, Block: block}
				if s.failed[p] {
					continue
				}
				if !found || p.Steps() < best.Steps() {
					best, found = p, true
				}
			}
		}
	}

	return best, found
}

// withCleared returns a copy of grid with pos emptied
func withCleared(grid [][]engine.BlockType, pos engine.Position) [][]engine.BlockType {
	out := make([][]engine.BlockType, len(grid))
	for i, row := range grid {
		out[i] = append([]engine.BlockType(nil), row...)
	}
	out[pos.X][pos.Y] = engine.Empty
	return out
}
