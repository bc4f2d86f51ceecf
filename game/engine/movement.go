package engine

import "fmt"

// Grasp lifts the block at (x, y) into the gripper
func (e *WorldEngine) Grasp(x, y int) (ActionEvent, error) {
	pos := Position{X: x, Y: y}

	if e.gripper.Holding {
		e.message = fmt.Sprintf("Already holding %s grasped from (%d, %d)",
			e.gripper.Block, e.gripper.Origin.X, e.gripper.Origin.Y)
		ev := e.emit(ActionEvent{Kind: EventFailedGrasp, Position: pos, Reason: ErrorCode(ErrGripperOccupied)})
		return ev, ErrGripperOccupied
	}

	block, err := e.grid.Get(x, y)
	if err != nil || block.IsEmpty() {
		e.message = "No block to grasp at the specified coordinates."
		ev := e.emit(ActionEvent{Kind: EventFailedGrasp, Position: pos, Reason: ErrorCode(ErrNothingToGrasp)})
		return ev, fmt.Errorf("%w: (%d, %d)", ErrNothingToGrasp, x, y)
	}

	// Remove the block from the world while it is held
	if err := e.grid.Clear(x, y); err != nil {
		return ActionEvent{}, err
	}
	e.gripper = Gripper{Holding: true, Origin: pos, Block: block}
	e.message = fmt.Sprintf("Grasped %s from (%d, %d)", block, x, y)

	return e.emit(ActionEvent{Kind: EventGrasped, Block: block, Position: pos}), nil
}

// MoveTo carries the held block to (toX, toY) one unit step at a time, x-axis
// first, places it there and resolves adjacent matches. On failure nothing
// but the failed_move event changes.
func (e *WorldEngine) MoveTo(toX, toY int) ([]ActionEvent, error) {
	target := Position{X: toX, Y: toY}

	if !e.gripper.Holding {
		e.message = "No block grasped."
		ev := e.emit(ActionEvent{Kind: EventFailedMove, Position: target, Reason: ErrorCode(ErrNothingGrasped)})
		return []ActionEvent{ev}, ErrNothingGrasped
	}

	block := e.gripper.Block

	dest, err := e.grid.Get(toX, toY)
	if err != nil {
		e.message = fmt.Sprintf("Can't move %s to (%d, %d): outside the %dx%d world",
			block, toX, toY, e.grid.Length(), e.grid.Width())
		ev := e.emit(ActionEvent{Kind: EventFailedMove, Block: block, Position: target, Reason: ErrorCode(ErrOutOfBounds)})
		return []ActionEvent{ev}, err
	}
	if !dest.IsEmpty() {
		e.message = fmt.Sprintf("Can't move %s to (%d, %d): occupied by %s", block, toX, toY, dest)
		ev := e.emit(ActionEvent{Kind: EventFailedMove, Block: block, Position: target, Reason: ErrorCode(ErrCellOccupied)})
		return []ActionEvent{ev}, fmt.Errorf("%w: (%d, %d) holds %s", ErrCellOccupied, toX, toY, dest)
	}

	var events []ActionEvent

	// Transient steps are reported, never written to the grid
	for _, step := range StepPath(e.gripper.Origin, target) {
		events = append(events, e.emit(ActionEvent{Kind: EventStepMoved, Block: block, Position: step}))
	}

	if err := e.grid.Set(toX, toY, block); err != nil {
		return events, err
	}

	removed, err := e.resolveAdjacency(target, block)
	events = append(events, removed...)
	if err != nil {
		return events, err
	}
	merged := len(removed) > 0

	e.gripper = Gripper{}
	if merged {
		e.message = fmt.Sprintf("Moved %s to (%d, %d) and merged with %d adjacent block(s)", block, toX, toY, len(removed))
	} else {
		e.message = fmt.Sprintf("Moved %s to (%d, %d)", block, toX, toY)
	}

	events = append(events, e.emit(ActionEvent{Kind: EventMoveCompleted, Block: block, Position: target, Merged: merged}))
	return events, nil
}

// neighborOffsets lists up, down, left, right. Never diagonal.
var neighborOffsets = []struct{ dx, dy int }{
	{-1, 0},
	{1, 0},
	{0, -1},
	{0, 1},
}

// resolveAdjacency removes every orthogonal neighbour of pos holding the same
// block type. If any matched, the block at pos is removed as well. Neighbours
// outside the grid are skipped.
func (e *WorldEngine) resolveAdjacency(pos Position, block BlockType) ([]ActionEvent, error) {
	var events []ActionEvent

	for _, off := range neighborOffsets {
		nx, ny := pos.X+off.dx, pos.Y+off.dy
		neighbor, err := e.grid.Get(nx, ny)
		if err != nil || neighbor != block {
			continue
		}
		if err := e.grid.Clear(nx, ny); err != nil {
			return events, fmt.Errorf("remove adjacent %s at (%d, %d): %w", block, nx, ny, err)
		}
		events = append(events, e.emit(ActionEvent{
			Kind:     EventAdjacentRemoved,
			Block:    block,
			Position: Position{X: nx, Y: ny},
		}))
	}

	if len(events) > 0 {
		if err := e.grid.Clear(pos.X, pos.Y); err != nil {
			return events, fmt.Errorf("remove merged %s at (%d, %d): %w", block, pos.X, pos.Y, err)
		}
	}

	return events, nil
}

// StepPath returns the unit steps from one position to another, exhausting
// the x-axis before the y-axis. The start is excluded and the end included;
// the path is empty when both are equal.
func StepPath(from, to Position) []Position {
	steps := make([]Position, 0, ManhattanDistance(from, to))
	cur := from

	for cur != to {
		if cur.X != to.X {
			cur.X += sign(to.X - cur.X)
		} else {
			cur.Y += sign(to.Y - cur.Y)
		}
		steps = append(steps, cur)
	}

	return steps
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
