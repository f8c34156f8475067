package engine

import (
	"fmt"
)

// Placement is an initial entity position declared by a match config
type Placement struct {
	ID string `json:"id" yaml:"id"`
	X  int    `json:"x" yaml:"x"`
	Y  int    `json:"y" yaml:"y"`
}

// Cell returns the placement's coordinates
func (p Placement) Cell() Cell {
	return Cell{X: p.X, Y: p.Y}
}

// MatchConfig represents a match configuration loaded from JSON or YAML
type MatchConfig struct {
	Name        string      `json:"name" yaml:"name"`
	Description string      `json:"description" yaml:"description"`
	GridSize    int         `json:"grid_size" yaml:"grid_size"`
	BulletRange int         `json:"bullet_range,omitempty" yaml:"bullet_range,omitempty"`
	MoveBudget  int         `json:"move_budget,omitempty" yaml:"move_budget,omitempty"`
	UnitSpeed   int         `json:"unit_speed,omitempty" yaml:"unit_speed,omitempty"`
	Entities    []Placement `json:"entities,omitempty" yaml:"entities,omitempty"`
}

// DefaultMatchConfig returns the built-in skirmish configuration
func DefaultMatchConfig() *MatchConfig {
	return &MatchConfig{
		Name:        "skirmish",
		Description: "Open 200x200 field with no initial placements",
		GridSize:    200,
		BulletRange: 200 / DefaultBulletRangeDivisor,
		MoveBudget:  DefaultMoveBudget,
		UnitSpeed:   4,
	}
}

// ApplyDefaults fills zero-valued tunables. Bullet range defaults to an
// eighth of the grid, never less than one cell.
func (c *MatchConfig) ApplyDefaults() {
	if c.BulletRange == 0 {
		c.BulletRange = max(c.GridSize/DefaultBulletRangeDivisor, 1)
	}
	if c.MoveBudget == 0 {
		c.MoveBudget = DefaultMoveBudget
	}
	if c.UnitSpeed == 0 {
		c.UnitSpeed = DefaultUnitSpeed
	}
}

// ValidateMatchConfig validates a match configuration for correctness
func ValidateMatchConfig(config *MatchConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is nil")
	}
	if config.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}
	if config.Description == "" {
		return fmt.Errorf("config validation: description is required")
	}

	if config.GridSize < MinGridSize || config.GridSize > MaxGridSize {
		return fmt.Errorf("config validation: grid_size must be between %d and %d, got %d", MinGridSize, MaxGridSize, config.GridSize)
	}
	if config.BulletRange < 0 {
		return fmt.Errorf("config validation: bullet_range must not be negative, got %d", config.BulletRange)
	}
	if config.MoveBudget < 0 {
		return fmt.Errorf("config validation: move_budget must not be negative, got %d", config.MoveBudget)
	}
	if config.UnitSpeed < 0 {
		return fmt.Errorf("config validation: unit_speed must not be negative, got %d", config.UnitSpeed)
	}

	// Out-of-bounds placements are allowed (they are dropped on load like any
	// invalid placement) but IDs must be unique.
	seen := make(map[string]bool, len(config.Entities))
	for i, p := range config.Entities {
		if p.ID == "" {
			return fmt.Errorf("config validation: entities[%d] has no id", i)
		}
		if seen[p.ID] {
			return fmt.Errorf("config validation: duplicate entity id %q", p.ID)
		}
		seen[p.ID] = true
	}

	return nil
}

// NewEngineFromConfig builds a string-keyed engine for the config's grid and
// applies its initial placements
func NewEngineFromConfig(config *MatchConfig) (*Engine[string], error) {
	if err := ValidateMatchConfig(config); err != nil {
		return nil, err
	}

	eng, err := NewEngine[string](config.GridSize)
	if err != nil {
		return nil, err
	}
	for _, p := range config.Entities {
		eng.Place(p.ID, p.Cell())
	}
	return eng, nil
}
