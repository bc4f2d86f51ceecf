// Command solver plays a block world session through the REST API. Each turn
// it grasps the block with the shortest route to a same-type neighbour and
// moves it there, until no move can merge or the move budget runs out.
//
// Usage:
//
//	go run ./cmd/solver --url http://localhost:8080 --config puzzle
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/urfave/cli/v3"
)

// Result summarises one solver run
type Result struct {
	Moves    int
	Merges   int
	Rejected int
	Blocks   int // left on the grid at the end
}

type solveOptions struct {
	MaxMoves int
	Delay    time.Duration
	Verbose  bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newCommand().Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "solver",
		Usage: "Merge as many blocks as possible in a block world session",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "http://localhost:8080", Usage: "Block world server URL", Sources: cli.EnvVars("BLOCKWORLD_API_URL")},
			&cli.StringFlag{Name: "config", Usage: "Config ID for a new session"},
			&cli.StringFlag{Name: "session", Usage: "Play an existing session by ID instead of creating one"},
			&cli.IntFlag{Name: "max-moves", Value: 500, Usage: "Maximum grasp and move pairs"},
			&cli.IntFlag{Name: "delay", Usage: "Delay between moves in milliseconds"},
			&cli.BoolFlag{Name: "export-log", Usage: "Append the session's action log to its log file when done"},
			&cli.BoolFlag{Name: "v", Usage: "Verbose output"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log.Printf("Connecting to block world server at %s", cmd.String("url"))
			client := NewClient(cmd.String("url"))

			if id := cmd.String("session"); id != "" {
				client.UseSession(id)
				log.Printf("🔄 Resuming session: %s", id)
			} else {
				if _, err := client.CreateSession(ctx, cmd.String("config")); err != nil {
					return err
				}
				log.Printf("✨ Session created: %s", client.SessionID())
			}

			result, err := solve(ctx, client, NewGreedyStrategy(), solveOptions{
				MaxMoves: cmd.Int("max-moves"),
				Delay:    time.Duration(cmd.Int("delay")) * time.Millisecond,
				Verbose:  cmd.Bool("v"),
			})
			if err != nil {
				return err
			}

			log.Printf("Moves=%d, Merges=%d, Rejected=%d, Blocks left=%d",
				result.Moves, result.Merges, result.Rejected, result.Blocks)
			log.Printf("Session: %s", client.SessionID())

			if cmd.Bool("export-log") {
				if err := client.ExportLog(ctx); err != nil {
					return fmt.Errorf("export log: %w", err)
				}
				log.Printf("Action log exported")
			}
			return nil
		},
	}
}

// solve plays until no merge is possible, the move budget is spent or ctx ends
func solve(ctx context.Context, client *Client, strategy *GreedyStrategy, opts solveOptions) (*Result, error) {
	state, err := client.GetState(ctx)
	if err != nil {
		return nil, err
	}

	// A session resumed mid-move may still hold a block. Put it back first.
	if state.Gripper.Holding {
		origin := state.Gripper.Origin
		res, err := client.MoveTo(ctx, origin)
		if err != nil {
			return nil, err
		}
		if !res.Success {
			return nil, fmt.Errorf("could not release held block: %s", res.Message)
		}
		state = res.WorldState
	}

	result := &Result{Blocks: state.Blocks}

	for result.Moves < opts.MaxMoves {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		plan, ok := strategy.Next(state.Grid)
		if !ok {
			log.Printf("No merge left, %d blocks remain", state.Blocks)
			break
		}
		if opts.Verbose {
			log.Printf("Plan: %s (%d,%d) -> (%d,%d), %d steps",
				plan.Block, plan.From.X, plan.From.Y, plan.To.X, plan.To.Y, plan.Steps())
		}

		grasp, err := client.Grasp(ctx, plan.From)
		if err != nil {
			return result, err
		}
		if !grasp.Success {
			result.Rejected++
			strategy.Reject(plan)
			state = grasp.WorldState
			continue
		}

		move, err := client.MoveTo(ctx, plan.To)
		if err != nil {
			return result, err
		}
		if !move.Success {
			result.Rejected++
			strategy.Reject(plan)
			// Drop the block back where it came from
			back, err := client.MoveTo(ctx, plan.From)
			if err != nil {
				return result, err
			}
			state = back.WorldState
			continue
		}

		result.Moves++
		if move.Merged {
			result.Merges++
		}
		state = move.WorldState
		result.Blocks = state.Blocks

		if opts.Delay > 0 {
			time.Sleep(opts.Delay)
		}
	}

	result.Blocks = state.Blocks
	return result, nil
}
