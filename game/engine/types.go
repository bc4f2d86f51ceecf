package engine

import "time"

// BlockType identifies the kind of block occupying a cell. The empty string
// means the cell is free.
type BlockType string

const (
	Empty  BlockType = ""
	BlockA BlockType = "A"
	BlockB BlockType = "B"
	BlockC BlockType = "C"
	BlockD BlockType = "D"

	// Validation constants
	MinDimension      = 1
	MaxDimension      = 50
	DefaultMaxDensity = 0.5
)

// DefaultBlockTypes is the closed set of block types a world may contain
var DefaultBlockTypes = []BlockType{BlockA, BlockB, BlockC, BlockD}

// IsValid reports whether b is one of the known block types
func (b BlockType) IsValid() bool {
	switch b {
	case BlockA, BlockB, BlockC, BlockD:
		return true
	}
	return false
}

// IsEmpty reports whether the cell holds no block
func (b BlockType) IsEmpty() bool {
	return b == Empty
}

// Position represents x,y coordinates. X indexes rows (0..length-1) and
// Y indexes columns (0..width-1).
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Gripper is the state of the single block holder
type Gripper struct {
	Holding bool      `json:"holding"`
	Origin  Position  `json:"origin"`
	Block   BlockType `json:"block,omitempty"`
}

// EventKind classifies an ActionEvent
type EventKind string

const (
	EventGrasped         EventKind = "grasped"
	EventFailedGrasp     EventKind = "failed_grasp"
	EventStepMoved       EventKind = "step_moved"
	EventAdjacentRemoved EventKind = "adjacent_removed"
	EventMoveCompleted   EventKind = "move_completed"
	EventFailedMove      EventKind = "failed_move"
)

// ActionEvent is one atomic, ordered change emitted by the engine
type ActionEvent struct {
	Seq       int       `json:"seq"`
	Kind      EventKind `json:"kind"`
	Block     BlockType `json:"block,omitempty"`
	Position  Position  `json:"position"`
	Merged    bool      `json:"merged,omitempty"`
	Reason    string    `json:"reason,omitempty"` // For failed attempts
	Timestamp int64     `json:"timestamp"`
}

// Failed reports whether the event records a rejected command
func (e ActionEvent) Failed() bool {
	return e.Kind == EventFailedGrasp || e.Kind == EventFailedMove
}

// Observer consumes engine events synchronously, in emission order
type Observer func(ActionEvent)

// WorldConfig represents a world configuration loaded from JSON
type WorldConfig struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Length      int         `json:"length"`
	Width       int         `json:"width"`
	BlockTypes  []BlockType `json:"block_types,omitempty"`
	MaxDensity  float64     `json:"max_density,omitempty"`
	Seed        int64       `json:"seed,omitempty"`   // 0 means time-seeded
	Layout      []string    `json:"layout,omitempty"` // Fixed population, overrides random
	LogFile     string      `json:"log_file,omitempty"`
}

// WorldState represents the complete, serialisable world state
type WorldState struct {
	Grid       [][]BlockType `json:"grid"`
	Length     int           `json:"length"`
	Width      int           `json:"width"`
	Gripper    Gripper       `json:"gripper"`
	ConfigName string        `json:"config_name,omitempty"`
	History    []ActionEvent `json:"history"`
	Blocks     int           `json:"blocks"`
	Message    string        `json:"message,omitempty"`
}

// now is swapped in tests that need stable timestamps
var now = func() int64 { return time.Now().Unix() }
