package engine

import "errors"

var (
	ErrOutOfBounds       = errors.New("position out of bounds")
	ErrNothingToGrasp    = errors.New("no block to grasp at the specified coordinates")
	ErrGripperOccupied   = errors.New("gripper is already holding a block")
	ErrNothingGrasped    = errors.New("no block grasped")
	ErrInvalidDimensions = errors.New("world dimensions must be positive")
	ErrCellOccupied      = errors.New("destination cell is occupied")
)

// ErrorCode maps an engine error to a short machine-friendly code. Unknown
// errors map to "internal".
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrOutOfBounds):
		return "out_of_bounds"
	case errors.Is(err, ErrNothingToGrasp):
		return "nothing_to_grasp"
	case errors.Is(err, ErrGripperOccupied):
		return "gripper_occupied"
	case errors.Is(err, ErrNothingGrasped):
		return "nothing_grasped"
	case errors.Is(err, ErrInvalidDimensions):
		return "invalid_dimensions"
	case errors.Is(err, ErrCellOccupied):
		return "cell_occupied"
	}
	return "internal"
}
