// Package actionlog turns engine events into the plain-text action history
// written at the end of a session, one line per event.
package actionlog

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/wricardo/mcp-training/blockworld/game/engine"
)

// DefaultFile is used when neither the caller nor the config names a file
const DefaultFile = "cube_logs.txt"

// FormatEvent renders one event as a log line
func FormatEvent(ev engine.ActionEvent) string {
	switch ev.Kind {
	case engine.EventGrasped:
		return fmt.Sprintf("Grasped %s from (%d, %d)", ev.Block, ev.Position.X, ev.Position.Y)
	case engine.EventFailedGrasp:
		if ev.Reason == "gripper_occupied" {
			return fmt.Sprintf("Attempted to grasp at (%d, %d) while already holding a block.", ev.Position.X, ev.Position.Y)
		}
		return "Attempted to grasp but no block was found."
	case engine.EventStepMoved:
		return fmt.Sprintf("Block %s moved to (%d, %d)", ev.Block, ev.Position.X, ev.Position.Y)
	case engine.EventAdjacentRemoved:
		return fmt.Sprintf("Adjacent block %s at (%d, %d) removed", ev.Block, ev.Position.X, ev.Position.Y)
	case engine.EventMoveCompleted:
		if ev.Merged {
			return fmt.Sprintf("Moved %s to (%d, %d) and merged", ev.Block, ev.Position.X, ev.Position.Y)
		}
		return fmt.Sprintf("Moved %s to (%d, %d)", ev.Block, ev.Position.X, ev.Position.Y)
	case engine.EventFailedMove:
		switch ev.Reason {
		case "out_of_bounds":
			return fmt.Sprintf("Attempted to move %s to (%d, %d) outside the world.", ev.Block, ev.Position.X, ev.Position.Y)
		case "cell_occupied":
			return fmt.Sprintf("Attempted to move %s to occupied cell (%d, %d).", ev.Block, ev.Position.X, ev.Position.Y)
		}
		return "Attempted to move but no block was grasped."
	}
	return fmt.Sprintf("Unknown event %s at (%d, %d)", ev.Kind, ev.Position.X, ev.Position.Y)
}

// linePrefixes maps the start of a log line back to its event kind. Order
// matters: "Attempted to grasp" must be tried before a bare prefix match.
var linePrefixes = []struct {
	prefix string
	kind   engine.EventKind
}{
	{"Grasped ", engine.EventGrasped},
	{"Attempted to grasp", engine.EventFailedGrasp},
	{"Block ", engine.EventStepMoved},
	{"Adjacent block ", engine.EventAdjacentRemoved},
	{"Moved ", engine.EventMoveCompleted},
	{"Attempted to move", engine.EventFailedMove},
}

// KindOf reports which event kind produced a log line
func KindOf(line string) (engine.EventKind, bool) {
	for _, p := range linePrefixes {
		if strings.HasPrefix(line, p.prefix) {
			return p.kind, true
		}
	}
	return "", false
}

// IsMerge reports whether a log line records a move that merged
func IsMerge(line string) bool {
	return strings.HasPrefix(line, "Moved ") && strings.HasSuffix(line, " and merged")
}

// FormatEvents renders events in order
func FormatEvents(events []engine.ActionEvent) []string {
	lines := make([]string, len(events))
	for i, ev := range events {
		lines[i] = FormatEvent(ev)
	}
	return lines
}

// WriteFile appends the formatted events to path, creating it if needed
func WriteFile(path string, events []engine.ActionEvent) error {
	if path == "" {
		path = DefaultFile
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open action log: %w", err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	for _, line := range FormatEvents(events) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("failed to write action log: %w", err)
		}
	}

	return w.Flush()
}

// Recorder collects events while a session runs so they can be written in
// one go when it ends
type Recorder struct {
	mu     sync.Mutex
	events []engine.ActionEvent
}

// NewRecorder creates an empty recorder
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Observe implements engine.Observer
func (r *Recorder) Observe(ev engine.ActionEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Events returns a copy of the recorded events
func (r *Recorder) Events() []engine.ActionEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]engine.ActionEvent(nil), r.events...)
}

// Lines returns the recorded events as log lines
func (r *Recorder) Lines() []string {
	return FormatEvents(r.Events())
}

// Flush appends the recorded events to path and forgets them
func (r *Recorder) Flush(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := WriteFile(path, r.events); err != nil {
		return err
	}
	r.events = nil
	return nil
}
