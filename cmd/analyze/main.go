// Command analyze prints quick, human-readable summaries of action log files.
// For each file it counts the lines per event kind, merges, failed commands
// and the blocks removed by merges, and reports lines it does not recognise.
//
// Usage:
//
//	go run ./cmd/analyze logs/puzzle.txt cube_logs.txt
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/wricardo/mcp-training/blockworld/game/actionlog"
	"github.com/wricardo/mcp-training/blockworld/game/engine"
)

// LogSummary holds the counts gathered from one action log
type LogSummary struct {
	Lines   int
	ByKind  map[engine.EventKind]int
	Merges  int
	Removed int // blocks removed by merges, the placed block included
	Unknown []int
}

// kindOrder fixes the print order of the per-kind counts
var kindOrder = []engine.EventKind{
	engine.EventGrasped,
	engine.EventStepMoved,
	engine.EventAdjacentRemoved,
	engine.EventMoveCompleted,
	engine.EventFailedGrasp,
	engine.EventFailedMove,
}

func main() {
	files := os.Args[1:]
	if len(files) == 0 {
		files = []string{actionlog.DefaultFile}
	}

	failed := false
	for _, path := range files {
		fmt.Printf("\n=== Analyzing %s ===\n", path)
		summary, err := analyzeFile(path)
		if err != nil {
			fmt.Printf("Error reading file: %v\n", err)
			failed = true
			continue
		}
		printSummary(os.Stdout, summary)
	}

	if failed {
		os.Exit(1)
	}
}

func analyzeFile(path string) (*LogSummary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return analyze(f)
}

// analyze reads an action log line by line
func analyze(r io.Reader) (*LogSummary, error) {
	summary := &LogSummary{ByKind: make(map[engine.EventKind]int)}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		summary.Lines++

		kind, ok := actionlog.KindOf(line)
		if !ok {
			summary.Unknown = append(summary.Unknown, summary.Lines)
			continue
		}
		summary.ByKind[kind]++

		if actionlog.IsMerge(line) {
			summary.Merges++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if summary.Merges > 0 {
		summary.Removed = summary.ByKind[engine.EventAdjacentRemoved] + summary.Merges
	}

	return summary, nil
}

// Failures returns the number of rejected commands
func (s *LogSummary) Failures() int {
	return s.ByKind[engine.EventFailedGrasp] + s.ByKind[engine.EventFailedMove]
}

func printSummary(w io.Writer, s *LogSummary) {
	fmt.Fprintf(w, "Lines: %d\n", s.Lines)
	for _, kind := range kindOrder {
		fmt.Fprintf(w, "  %-17s %d\n", kind, s.ByKind[kind])
	}
	fmt.Fprintf(w, "Merges: %d (%d blocks removed)\n", s.Merges, s.Removed)

	if moves := s.ByKind[engine.EventMoveCompleted]; moves > 0 {
		fmt.Fprintf(w, "Average steps per move: %.1f\n", float64(s.ByKind[engine.EventStepMoved])/float64(moves))
	}

	if f := s.Failures(); f > 0 {
		fmt.Fprintf(w, "⚠️  %d commands were rejected\n", f)
	} else {
		fmt.Fprintln(w, "✅ No rejected commands")
	}

	if len(s.Unknown) > 0 {
		fmt.Fprintf(w, "⚠️  %d unrecognised lines\n", len(s.Unknown))
		for i, n := range s.Unknown {
			if i == 5 {
				fmt.Fprintf(w, "   ... and %d more\n", len(s.Unknown)-5)
				break
			}
			fmt.Fprintf(w, "   line %d\n", n)
		}
	}
}
