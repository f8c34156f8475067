// Command analyze prints quick, human-readable statistics about the range
// shapes produced by LegalMoves for every match configuration in a
// directory. For each budget it compares the reachable cell count with the
// Manhattan and Euclidean disks of the same radius and lists the interior
// cells the ring construction leaves out.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/mcp-training/tacticalgrid/game/config"
	"github.com/wricardo/mcp-training/tacticalgrid/game/engine"
)

// ShapeStats compares one LegalMoves result with the canonical disks
type ShapeStats struct {
	Budget    int
	Reachable int
	Manhattan int
	Euclidean int
	// Missing are cells within Manhattan distance n that LegalMoves omits
	Missing []engine.Cell
	// Extra are returned cells beyond Manhattan distance n
	Extra []engine.Cell
}

func main() {
	cmd := &cli.Command{
		Name:  "analyze",
		Usage: "range-shape statistics for match configs",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config-dir",
				Usage:   "directory containing match configurations",
				Value:   "configs",
				Sources: cli.EnvVars("CONFIG_DIR"),
			},
			&cli.IntFlag{
				Name:  "max-budget",
				Usage: "analyze budgets 0..N instead of each config's move_budget",
				Value: -1,
			},
			&cli.BoolFlag{
				Name:  "no-ascii",
				Usage: "skip the ASCII rendering",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return run(cmd.Root().Writer, cmd.String("config-dir"), cmd.Int("max-budget"), !cmd.Bool("no-ascii"))
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run analyzes every config in dir. The built-in default is included when
// the directory has no default file.
func run(w io.Writer, dir string, maxBudget int, ascii bool) error {
	manager, err := config.NewManager(dir)
	if err != nil {
		return err
	}
	configs, err := manager.ListConfigs()
	if err != nil {
		return err
	}

	hasDefault := false
	for _, info := range configs {
		cfg, err := manager.LoadConfig(info.ConfigID)
		if err != nil {
			fmt.Fprintf(w, "\n=== %s ===\nError: %v\n", info.Filename, err)
			continue
		}
		if info.ConfigID == config.DefaultConfigName {
			hasDefault = true
		}
		if err := analyzeConfig(w, info.Filename, cfg, maxBudget, ascii); err != nil {
			return err
		}
	}
	if !hasDefault {
		return analyzeConfig(w, "(built-in default)", manager.GetDefault(), maxBudget, ascii)
	}
	return nil
}

func analyzeConfig(w io.Writer, label string, cfg *engine.MatchConfig, maxBudget int, ascii bool) error {
	fmt.Fprintf(w, "\n=== Analyzing %s ===\n", label)
	fmt.Fprintf(w, "Name: %s\n", cfg.Name)
	fmt.Fprintf(w, "Grid Size: %d x %d\n", cfg.GridSize, cfg.GridSize)
	fmt.Fprintf(w, "Bullet Range: %d  Move Budget: %d  Unit Speed: %d\n", cfg.BulletRange, cfg.MoveBudget, cfg.UnitSpeed)

	eng, err := engine.NewEngine[string](cfg.GridSize)
	if err != nil {
		return err
	}

	budget := cfg.MoveBudget
	if maxBudget >= 0 {
		budget = maxBudget
	}
	origin := engine.Cell{X: cfg.GridSize / 2, Y: cfg.GridSize / 2}

	fmt.Fprintf(w, "\nLegal moves from %s:\n", origin)
	fmt.Fprintf(w, "%6s %9s %9s %9s %7s %5s\n", "n", "reachable", "manhattan", "euclidean", "missing", "extra")
	var last ShapeStats
	for n := 0; n <= budget; n++ {
		last = analyzeShape(eng, origin, n)
		fmt.Fprintf(w, "%6d %9d %9d %9d %7d %5d\n",
			n, last.Reachable, last.Manhattan, last.Euclidean, len(last.Missing), len(last.Extra))
	}

	if len(last.Missing) > 0 {
		fmt.Fprintf(w, "Missing at n=%d: %s\n", budget, formatCells(last.Missing))
	}

	if ascii {
		fmt.Fprintf(w, "\nShape at n=%d (# reachable, o missing, @ origin):\n", budget)
		fmt.Fprint(w, renderShape(eng.LegalMoves(origin, budget), origin, budget))
	}
	return nil
}

// analyzeShape measures LegalMoves(origin, n) against the disks of radius n
// clipped to the grid
func analyzeShape(eng *engine.Engine[string], origin engine.Cell, n int) ShapeStats {
	moves := eng.LegalMoves(origin, n)
	stats := ShapeStats{Budget: n, Reachable: moves.Len()}

	for y := origin.Y - n; y <= origin.Y+n; y++ {
		for x := origin.X - n; x <= origin.X+n; x++ {
			c := engine.Cell{X: x, Y: y}
			if !eng.IsValid(c) {
				continue
			}
			inManhattan := engine.ManhattanDistance(origin, c) <= n
			if inManhattan {
				stats.Manhattan++
				if !moves.Contains(c) {
					stats.Missing = append(stats.Missing, c)
				}
			} else if moves.Contains(c) {
				stats.Extra = append(stats.Extra, c)
			}
			if engine.Distance(origin, c) <= float64(n)+1e-9 {
				stats.Euclidean++
			}
		}
	}
	return stats
}

// renderShape draws the (2n+1)² window around origin
func renderShape(moves *engine.CellSet, origin engine.Cell, n int) string {
	var b strings.Builder
	for y := origin.Y - n; y <= origin.Y+n; y++ {
		for x := origin.X - n; x <= origin.X+n; x++ {
			c := engine.Cell{X: x, Y: y}
			switch {
			case c == origin:
				b.WriteByte('@')
			case moves.Contains(c):
				b.WriteByte('#')
			case engine.ManhattanDistance(origin, c) <= n:
				b.WriteByte('o')
			default:
				b.WriteByte('.')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func formatCells(cells []engine.Cell) string {
	parts := make([]string, len(cells))
	for i, c := range cells {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}
