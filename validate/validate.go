// Command validate checks every match configuration file (.json, .yaml,
// .yml) in a directory. It checks:
//   - syntax and required fields (name, description, grid_size)
//   - grid size limits and non-negative bullet range, move budget, unit speed
//   - unique entity IDs
//
// and warns about placements that lie off the grid (they are dropped when a
// match starts) and budgets larger than the grid itself.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/mcp-training/tacticalgrid/game/config"
	"github.com/wricardo/mcp-training/tacticalgrid/game/engine"
)

// ValidationResult captures the outcome of validating a single file.
// Info lists what was checked successfully; Warnings never make a file invalid.
type ValidationResult struct {
	File     string
	Valid    bool
	Errors   []string
	Warnings []string
	Info     []string
}

// validateConfig loads and validates a single configuration file
func validateConfig(filePath string) ValidationResult {
	result := ValidationResult{
		File:  filepath.Base(filePath),
		Valid: true,
	}

	cfg, err := config.ParseFile(filePath)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	result.Info = append(result.Info,
		fmt.Sprintf("✓ %s: %dx%d grid", cfg.Name, cfg.GridSize, cfg.GridSize),
		fmt.Sprintf("✓ bullet range %d, move budget %d, unit speed %d", cfg.BulletRange, cfg.MoveBudget, cfg.UnitSpeed))

	eng, err := engine.NewEngine[string](cfg.GridSize)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	onGrid := 0
	shared := make(map[engine.Cell]int)
	for _, p := range cfg.Entities {
		if !eng.IsValid(p.Cell()) {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("entity %q at %s is off the %dx%d grid and will not be placed", p.ID, p.Cell(), cfg.GridSize, cfg.GridSize))
			continue
		}
		onGrid++
		shared[p.Cell()]++
	}
	if len(cfg.Entities) > 0 {
		result.Info = append(result.Info, fmt.Sprintf("✓ %d of %d placements on the grid", onGrid, len(cfg.Entities)))
	}

	stacked := make([]string, 0)
	for cell, n := range shared {
		if n > 1 {
			stacked = append(stacked, fmt.Sprintf("%s (%d)", cell, n))
		}
	}
	if len(stacked) > 0 {
		sort.Strings(stacked)
		result.Info = append(result.Info, "✓ shared cells: "+strings.Join(stacked, ", "))
	}

	if cfg.BulletRange > cfg.GridSize {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("bullet_range %d exceeds grid size %d; paths always stop at the edge", cfg.BulletRange, cfg.GridSize))
	}
	if cfg.MoveBudget > cfg.GridSize {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("move_budget %d exceeds grid size %d", cfg.MoveBudget, cfg.GridSize))
	}

	return result
}

// configFiles lists the config files in dir in name order
func configFiles(dir string) ([]string, error) {
	var files []string
	for _, pattern := range []string{"*.json", "*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	sort.Strings(files)
	return files, nil
}

// report validates every file in dir, printing a concise report. It returns
// false if any file is invalid.
func report(w io.Writer, dir string) (bool, error) {
	files, err := configFiles(dir)
	if err != nil {
		return false, fmt.Errorf("error finding config files: %w", err)
	}
	if len(files) == 0 {
		return false, fmt.Errorf("no config files in %s", dir)
	}

	allValid := true
	for _, file := range files {
		result := validateConfig(file)

		fmt.Fprintf(w, "\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Fprintln(w, "✅ VALID")
			for _, info := range result.Info {
				fmt.Fprintln(w, "  "+info)
			}
		} else {
			fmt.Fprintln(w, "❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				fmt.Fprintln(w, "  ❌ "+err)
			}
		}
		for _, warning := range result.Warnings {
			fmt.Fprintln(w, "  ⚠️  "+warning)
		}
	}

	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Fprintln(w, "✅ All configurations are valid!")
	} else {
		fmt.Fprintln(w, "❌ Some configurations have errors")
	}
	return allValid, nil
}

// main validates the directory given as the first argument (default
// ../configs) and exits with non-zero status if any file is invalid
func main() {
	cmd := &cli.Command{
		Name:      "validate",
		Usage:     "validate match configuration files",
		ArgsUsage: "[CONFIG_DIR]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			dir := "../configs"
			if cmd.NArg() > 0 {
				dir = cmd.Args().First()
			}
			ok, err := report(cmd.Root().Writer, dir)
			if err != nil {
				return err
			}
			if !ok {
				return cli.Exit("", 1)
			}
			return nil
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
