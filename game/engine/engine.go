package engine

import "fmt"

// Engine provides the main interface for world operations
type Engine interface {
	// Commands
	Grasp(x, y int) (ActionEvent, error)
	MoveTo(x, y int) ([]ActionEvent, error)

	// Population
	Populate(g Generator) error
	PopulateRandom(blockTypes []BlockType, maxDensity float64) error

	// World state
	Snapshot() [][]BlockType
	Gripper() Gripper
	Length() int
	Width() int
	State() *WorldState
	SetState(state *WorldState) error

	// Events
	Subscribe(o Observer)
	History() []ActionEvent
	LastEvent() *ActionEvent
}

// WorldEngine implements the Engine interface. It is not safe for concurrent
// use; callers serialise commands.
type WorldEngine struct {
	grid       *Grid
	gripper    Gripper
	history    []ActionEvent
	observers  []Observer
	configName string
	message    string
}

// NewWorldEngine creates an engine over an all-empty grid
func NewWorldEngine(length, width int) (*WorldEngine, error) {
	grid, err := NewGrid(length, width)
	if err != nil {
		return nil, err
	}

	return &WorldEngine{
		grid:    grid,
		history: []ActionEvent{},
	}, nil
}

// NewEngineFromConfig creates an engine and populates it according to the
// configuration: a fixed layout when present, random blocks otherwise
func NewEngineFromConfig(config *WorldConfig) (*WorldEngine, error) {
	if err := ValidateWorldConfig(config); err != nil {
		return nil, err
	}

	e, err := NewWorldEngine(config.Length, config.Width)
	if err != nil {
		return nil, err
	}
	e.configName = config.Name

	gen, err := GeneratorFromConfig(config)
	if err != nil {
		return nil, err
	}
	if err := e.Populate(gen); err != nil {
		return nil, fmt.Errorf("failed to populate world: %w", err)
	}

	return e, nil
}

// Length returns the number of rows
func (e *WorldEngine) Length() int {
	return e.grid.Length()
}

// Width returns the number of columns
func (e *WorldEngine) Width() int {
	return e.grid.Width()
}

// Snapshot returns a read-only copy of the grid rows for rendering
func (e *WorldEngine) Snapshot() [][]BlockType {
	return e.grid.Snapshot()
}

// Gripper returns the current gripper state
func (e *WorldEngine) Gripper() Gripper {
	return e.gripper
}

// Populate fills the grid using the given generator
func (e *WorldEngine) Populate(g Generator) error {
	if g == nil {
		return fmt.Errorf("generator cannot be nil")
	}
	return g.Populate(e.grid)
}

// PopulateRandom places random blocks of the given types onto empty cells
func (e *WorldEngine) PopulateRandom(blockTypes []BlockType, maxDensity float64) error {
	gen, err := NewRandomGenerator(blockTypes, maxDensity, 0)
	if err != nil {
		return err
	}
	return e.Populate(gen)
}

// Subscribe registers an observer for every future event
func (e *WorldEngine) Subscribe(o Observer) {
	if o != nil {
		e.observers = append(e.observers, o)
	}
}

// History returns a copy of every event emitted so far
func (e *WorldEngine) History() []ActionEvent {
	return append([]ActionEvent(nil), e.history...)
}

// LastEvent returns the last event emitted, or nil if none
func (e *WorldEngine) LastEvent() *ActionEvent {
	if len(e.history) == 0 {
		return nil
	}
	last := e.history[len(e.history)-1]
	return &last
}

// Message returns a human-readable description of the last command outcome
func (e *WorldEngine) Message() string {
	return e.message
}

// State returns a serialisable copy of the world
func (e *WorldEngine) State() *WorldState {
	return &WorldState{
		Grid:       e.grid.Snapshot(),
		Length:     e.grid.Length(),
		Width:      e.grid.Width(),
		Gripper:    e.gripper,
		ConfigName: e.configName,
		History:    e.History(),
		Blocks:     e.grid.Count(),
		Message:    e.message,
	}
}

// SetState restores the world (used for persistence loading)
func (e *WorldEngine) SetState(state *WorldState) error {
	if state == nil {
		return fmt.Errorf("state cannot be nil")
	}

	grid, err := NewGrid(state.Length, state.Width)
	if err != nil {
		return err
	}
	if err := grid.load(state.Grid); err != nil {
		return err
	}
	for _, pos := range grid.Cells() {
		if b, _ := grid.Get(pos.X, pos.Y); !b.IsValid() {
			return fmt.Errorf("invalid block type %q at (%d, %d)", b, pos.X, pos.Y)
		}
	}

	if state.Gripper.Holding {
		origin, err := grid.Get(state.Gripper.Origin.X, state.Gripper.Origin.Y)
		if err != nil {
			return fmt.Errorf("gripper origin: %w", err)
		}
		if !origin.IsEmpty() {
			return fmt.Errorf("gripper origin (%d, %d) must be empty while holding",
				state.Gripper.Origin.X, state.Gripper.Origin.Y)
		}
		if !state.Gripper.Block.IsValid() {
			return fmt.Errorf("gripper holds invalid block type %q", state.Gripper.Block)
		}
	}

	e.grid = grid
	e.gripper = state.Gripper
	e.history = append([]ActionEvent{}, state.History...)
	e.configName = state.ConfigName
	e.message = state.Message
	return nil
}

// emit stamps, records and publishes one event
func (e *WorldEngine) emit(ev ActionEvent) ActionEvent {
	ev.Seq = len(e.history) + 1
	ev.Timestamp = now()
	e.history = append(e.history, ev)
	for _, o := range e.observers {
		o(ev)
	}
	return ev
}
