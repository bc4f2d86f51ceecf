// Package command implements the interactive console loop: it parses typed
// commands, runs them against a world and prints what happened.
package command

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/wricardo/mcp-training/blockworld/game/actionlog"
	"github.com/wricardo/mcp-training/blockworld/game/engine"
	"github.com/wricardo/mcp-training/blockworld/game/render"
)

// Names of the supported commands
const (
	Grasp   = "grasp"
	Move    = "move"
	Show    = "show"
	History = "history"
	Help    = "help"
	Quit    = "quit"
)

// UnknownMessage is printed for anything that does not parse
const UnknownMessage = "Unknown command. Use 'grasp x y' or 'move x y'."

// Prompt is written before each command is read
const Prompt = "Enter command: "

// ErrUnknownCommand is returned by Parse for unrecognised input
var ErrUnknownCommand = errors.New("unknown command")

// Command is one parsed console instruction
type Command struct {
	Name string
	X    int
	Y    int
}

// Parse reads a single command line. Input is case-insensitive and
// surrounding whitespace is ignored.
func Parse(line string) (Command, error) {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(line)))
	if len(fields) == 0 {
		return Command{}, ErrUnknownCommand
	}

	switch fields[0] {
	case Grasp, Move:
		if len(fields) != 3 {
			return Command{}, ErrUnknownCommand
		}
		x, err := strconv.Atoi(fields[1])
		if err != nil {
			return Command{}, fmt.Errorf("%w: bad x %q", ErrUnknownCommand, fields[1])
		}
		y, err := strconv.Atoi(fields[2])
		if err != nil {
			return Command{}, fmt.Errorf("%w: bad y %q", ErrUnknownCommand, fields[2])
		}
		return Command{Name: fields[0], X: x, Y: y}, nil
	case Show, History, Help, Quit:
		if len(fields) != 1 {
			return Command{}, ErrUnknownCommand
		}
		return Command{Name: fields[0]}, nil
	}

	return Command{}, ErrUnknownCommand
}

// Dispatcher runs commands against one world
type Dispatcher struct {
	world    *engine.WorldEngine
	renderer *render.Renderer
	recorder *actionlog.Recorder
	out      io.Writer
}

// NewDispatcher wires a renderer and an action recorder to the world's
// event stream
func NewDispatcher(world *engine.WorldEngine, out io.Writer, color bool) *Dispatcher {
	d := &Dispatcher{
		world:    world,
		renderer: render.NewRenderer(out, color),
		recorder: actionlog.NewRecorder(),
		out:      out,
	}

	world.Subscribe(d.renderer.Observer(world.Snapshot))
	world.Subscribe(d.recorder.Observe)

	return d
}

// Recorder returns the recorder collecting this session's events
func (d *Dispatcher) Recorder() *actionlog.Recorder {
	return d.recorder
}

// Execute runs one command line and reports whether the loop should stop
func (d *Dispatcher) Execute(line string) bool {
	cmd, err := Parse(line)
	if err != nil {
		fmt.Fprintln(d.out, UnknownMessage)
		return false
	}

	switch cmd.Name {
	case Grasp:
		if _, err := d.world.Grasp(cmd.X, cmd.Y); err != nil {
			fmt.Fprintln(d.out, d.world.Message())
		}
	case Move:
		if _, err := d.world.MoveTo(cmd.X, cmd.Y); err != nil {
			fmt.Fprintln(d.out, d.world.Message())
		}
	case Show:
		d.renderer.Draw(d.world.Snapshot())
	case History:
		lines := d.recorder.Lines()
		if len(lines) == 0 {
			fmt.Fprintln(d.out, "No actions yet.")
		}
		for i, line := range lines {
			fmt.Fprintf(d.out, "%3d. %s\n", i+1, line)
		}
	case Help:
		d.printHelp()
	case Quit:
		fmt.Fprintln(d.out, "Quitting program.")
		return true
	}

	return false
}

// Run reads commands from in until quit, end of input or cancellation
func (d *Dispatcher) Run(ctx context.Context, in io.Reader) error {
	fmt.Fprintln(d.out, "Type 'quit' to exit.")
	scanner := bufio.NewScanner(in)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		fmt.Fprint(d.out, Prompt)
		if !scanner.Scan() {
			fmt.Fprintln(d.out)
			return scanner.Err()
		}

		if d.Execute(scanner.Text()) {
			return nil
		}
	}
}

func (d *Dispatcher) printHelp() {
	fmt.Fprintln(d.out, "Commands:")
	fmt.Fprintln(d.out, "  grasp x y   pick up the block at row x, column y")
	fmt.Fprintln(d.out, "  move x y    carry the held block to row x, column y")
	fmt.Fprintln(d.out, "  show        print the world")
	fmt.Fprintln(d.out, "  history     list actions so far")
	fmt.Fprintln(d.out, "  quit        save the action log and exit")
}
