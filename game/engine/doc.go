// Package engine provides the core world logic for Block World.
//
// The engine package implements:
//   - A bounds-checked grid of typed blocks (A, B, C, D)
//   - A single gripper that holds at most one block
//   - Stepped movement, x-axis first, then y-axis
//   - Adjacent-match removal (merge) after each placement
//   - An ordered stream of ActionEvents for renderers and loggers
//   - World configuration loading and validation
//
// Core Types:
//
// Grid owns the cells and centralises bounds checks. WorldEngine owns a Grid
// plus the gripper and implements the Engine interface. WorldConfig describes
// a world loaded from JSON, and WorldState is its serialisable snapshot.
//
// Usage:
//
//	world, err := engine.NewWorldEngine(3, 1)
//	if err != nil {
//		log.Fatal(err)
//	}
//	world.Populate(&engine.LayoutGenerator{Layout: []string{"A", "_", "A"}})
//
//	world.Subscribe(func(ev engine.ActionEvent) {
//		fmt.Println(ev.Kind, ev.Position)
//	})
//
//	if _, err := world.Grasp(0, 0); err != nil {
//		log.Fatal(err)
//	}
//	events, err := world.MoveTo(1, 0) // merges with the A at (2, 0)
//
// Rules:
//
// Grasp lifts a block out of the grid; the origin cell stays empty while the
// block is held. MoveTo emits one step event per unit step, writes the block
// at the destination and then removes every orthogonally adjacent block of the
// same type. If anything matched, the moved block is removed too. Failed
// commands leave the grid and the gripper exactly as they were.
package engine
