package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/mcp-training/tacticalgrid/game/engine"
)

func traceFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:  "size",
			Usage: "grid size N",
			Value: engine.DefaultMatchConfig().GridSize,
		},
		&cli.BoolFlag{
			Name:  "json",
			Usage: "print JSON instead of text",
		},
	}
}

// traceCommand answers geometry queries against a fresh, empty engine
func traceCommand() *cli.Command {
	return &cli.Command{
		Name:  "trace",
		Usage: "run a geometry query offline",
		Commands: []*cli.Command{
			{
				Name:      "range",
				Usage:     "cells reachable within a move budget",
				ArgsUsage: "X Y N",
				Flags:     traceFlags(),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					args, err := intArgs(cmd, 3, 3)
					if err != nil {
						return err
					}
					eng, err := engine.NewEngine[string](cmd.Int("size"))
					if err != nil {
						return err
					}
					origin := engine.Cell{X: args[0], Y: args[1]}
					moves := eng.LegalMoves(origin, args[2])
					return printCells(cmd.Root().Writer, cmd.Bool("json"),
						fmt.Sprintf("%d cells reachable from %s within %d", moves.Len(), origin, args[2]), moves.Cells())
				},
			},
			{
				Name:      "bullet",
				Usage:     "cells a projectile crosses toward a target",
				ArgsUsage: "FROM_X FROM_Y TO_X TO_Y [RANGE]",
				Flags:     traceFlags(),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					args, err := intArgs(cmd, 4, 5)
					if err != nil {
						return err
					}
					eng, err := engine.NewEngine[string](cmd.Int("size"))
					if err != nil {
						return err
					}
					maxRange := max(eng.Size()/engine.DefaultBulletRangeDivisor, 1)
					if len(args) == 5 {
						maxRange = args[4]
					}
					origin, target := engine.Cell{X: args[0], Y: args[1]}, engine.Cell{X: args[2], Y: args[3]}
					path := eng.BulletPath(origin, target, maxRange)
					return printCells(cmd.Root().Writer, cmd.Bool("json"),
						fmt.Sprintf("bullet %s -> %s, range %d: %d cells", origin, target, maxRange, len(path)), path)
				},
			},
			{
				Name:      "unit",
				Usage:     "exact walk between two cells",
				ArgsUsage: "FROM_X FROM_Y TO_X TO_Y",
				Flags:     traceFlags(),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					args, err := intArgs(cmd, 4, 4)
					if err != nil {
						return err
					}
					eng, err := engine.NewEngine[string](cmd.Int("size"))
					if err != nil {
						return err
					}
					origin, dest := engine.Cell{X: args[0], Y: args[1]}, engine.Cell{X: args[2], Y: args[3]}
					path := eng.UnitPath(origin, dest)
					return printCells(cmd.Root().Writer, cmd.Bool("json"),
						fmt.Sprintf("walk %s -> %s: %d steps", origin, dest, len(path)), path)
				},
			},
			{
				Name:      "distance",
				Usage:     "distance between two cells",
				ArgsUsage: "FROM_X FROM_Y TO_X TO_Y",
				Flags:     traceFlags(),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					args, err := intArgs(cmd, 4, 4)
					if err != nil {
						return err
					}
					from, to := engine.Cell{X: args[0], Y: args[1]}, engine.Cell{X: args[2], Y: args[3]}
					result := map[string]interface{}{
						"from":      from,
						"to":        to,
						"euclidean": engine.Distance(from, to),
						"manhattan": engine.ManhattanDistance(from, to),
						"chebyshev": engine.ChebyshevDistance(from, to),
					}
					w := cmd.Root().Writer
					if cmd.Bool("json") {
						return json.NewEncoder(w).Encode(result)
					}
					_, err = fmt.Fprintf(w, "%s -> %s: euclidean %.3f, manhattan %d, chebyshev %d\n",
						from, to, result["euclidean"], result["manhattan"], result["chebyshev"])
					return err
				},
			},
		},
	}
}

// intArgs parses between lo and hi positional integer arguments
func intArgs(cmd *cli.Command, lo, hi int) ([]int, error) {
	n := cmd.NArg()
	if n < lo || n > hi {
		if lo == hi {
			return nil, fmt.Errorf("expected %d arguments (%s), got %d", lo, cmd.ArgsUsage, n)
		}
		return nil, fmt.Errorf("expected %d to %d arguments (%s), got %d", lo, hi, cmd.ArgsUsage, n)
	}

	out := make([]int, n)
	for i := 0; i < n; i++ {
		v, err := strconv.Atoi(cmd.Args().Get(i))
		if err != nil {
			return nil, fmt.Errorf("argument %d: %q is not an integer", i+1, cmd.Args().Get(i))
		}
		out[i] = v
	}
	return out, nil
}

func printCells(w io.Writer, asJSON bool, header string, cells []engine.Cell) error {
	if asJSON {
		if cells == nil {
			cells = []engine.Cell{}
		}
		return json.NewEncoder(w).Encode(cells)
	}

	parts := make([]string, len(cells))
	for i, c := range cells {
		parts[i] = c.String()
	}
	_, err := fmt.Fprintf(w, "%s\n%s\n", header, strings.Join(parts, " "))
	return err
}
