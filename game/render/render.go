// Package render draws the world grid as text for the console.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/logrusorgru/aurora"
	"github.com/wricardo/mcp-training/blockworld/game/engine"
)

// EmptyCell is drawn for free cells
const EmptyCell = "_"

// Renderer writes grid frames to an output stream
type Renderer struct {
	out io.Writer
	au  aurora.Aurora
}

// NewRenderer creates a renderer; color enables ANSI colours per block type
func NewRenderer(out io.Writer, color bool) *Renderer {
	return &Renderer{
		out: out,
		au:  aurora.NewAurora(color),
	}
}

// Frame renders the grid, one row per X, cells separated by spaces. When
// overlay is non-nil, block is drawn there for this frame only.
func (r *Renderer) Frame(grid [][]engine.BlockType, overlay *engine.Position, block engine.BlockType) string {
	var b strings.Builder

	for x, row := range grid {
		cells := make([]string, len(row))
		for y, cell := range row {
			if overlay != nil && overlay.X == x && overlay.Y == y {
				cells[y] = r.au.Bold(r.paint(block)).String()
				continue
			}
			if cell.IsEmpty() {
				cells[y] = EmptyCell
				continue
			}
			cells[y] = r.paint(cell)
		}
		b.WriteString(strings.Join(cells, " "))
		b.WriteString("\n")
	}

	return b.String()
}

// Draw writes a frame followed by a blank line
func (r *Renderer) Draw(grid [][]engine.BlockType) {
	fmt.Fprintln(r.out, r.Frame(grid, nil, engine.Empty))
}

// Observer returns an engine observer that draws the world after grasps,
// during each step and after completed moves
func (r *Renderer) Observer(snapshot func() [][]engine.BlockType) engine.Observer {
	return func(ev engine.ActionEvent) {
		switch ev.Kind {
		case engine.EventGrasped:
			fmt.Fprintf(r.out, "Grasped %s from (%d, %d)\n", ev.Block, ev.Position.X, ev.Position.Y)
			r.Draw(snapshot())
		case engine.EventStepMoved:
			pos := ev.Position
			fmt.Fprintln(r.out, r.Frame(snapshot(), &pos, ev.Block))
		case engine.EventMoveCompleted:
			r.Draw(snapshot())
		}
	}
}

// paint colours a block letter
func (r *Renderer) paint(b engine.BlockType) string {
	s := string(b)
	switch b {
	case engine.BlockA:
		return r.au.Red(s).String()
	case engine.BlockB:
		return r.au.Green(s).String()
	case engine.BlockC:
		return r.au.Yellow(s).String()
	case engine.BlockD:
		return r.au.Cyan(s).String()
	}
	return s
}
