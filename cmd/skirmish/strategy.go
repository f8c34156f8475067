package main

import (
	"sort"

	"github.com/wricardo/mcp-training/tacticalgrid/game/engine"
	"github.com/wricardo/mcp-training/tacticalgrid/game/service"
)

// Action kinds
const (
	ActionNone    = "none"
	ActionFire    = "fire"
	ActionAdvance = "advance"
	ActionStrike  = "strike" // target shares the shooter's cell
)

// Action is what one entity does on its turn
type Action struct {
	Kind   string
	Target string
	Cell   engine.Cell
	Steps  int
}

// NearestTargetStrategy sends every entity after its closest rival. It fires
// once the rival is inside bullet range and otherwise closes in, stopping
// one cell short of it.
type NearestTargetStrategy struct {
	bulletRange int
	unitSpeed   int
	positions   map[string]engine.Cell
}

func NewNearestTargetStrategy(match *service.MatchInfo) *NearestTargetStrategy {
	s := &NearestTargetStrategy{
		bulletRange: engine.DefaultMatchConfig().BulletRange,
		unitSpeed:   engine.DefaultUnitSpeed,
		positions:   make(map[string]engine.Cell, len(match.Entities)),
	}
	if match.Config != nil {
		s.bulletRange = match.Config.BulletRange
		s.unitSpeed = max(match.Config.UnitSpeed, 1)
	}
	for _, e := range match.Entities {
		s.positions[e.Entity] = e.Cell
	}
	return s
}

// Order returns the living entities in turn order
func (s *NearestTargetStrategy) Order() []string {
	names := make([]string, 0, len(s.positions))
	for name := range s.positions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *NearestTargetStrategy) Alive(entity string) bool {
	_, ok := s.positions[entity]
	return ok
}

func (s *NearestTargetStrategy) Remaining() int {
	return len(s.positions)
}

func (s *NearestTargetStrategy) Moved(entity string, to engine.Cell) {
	if _, ok := s.positions[entity]; ok {
		s.positions[entity] = to
	}
}

func (s *NearestTargetStrategy) Removed(entity string) {
	delete(s.positions, entity)
}

// nearest finds the closest rival, breaking ties by name
func (s *NearestTargetStrategy) nearest(entity string) (string, engine.Cell, bool) {
	from, ok := s.positions[entity]
	if !ok {
		return "", engine.Cell{}, false
	}

	best, bestDist, found := "", 0.0, false
	for _, name := range s.Order() {
		if name == entity {
			continue
		}
		d := engine.Distance(from, s.positions[name])
		if !found || d < bestDist {
			best, bestDist, found = name, d, true
		}
	}
	return best, s.positions[best], found
}

// NextAction decides the entity's turn
func (s *NearestTargetStrategy) NextAction(entity string) Action {
	target, cell, ok := s.nearest(entity)
	if !ok {
		return Action{Kind: ActionNone}
	}

	from := s.positions[entity]
	switch {
	case from == cell:
		return Action{Kind: ActionStrike, Target: target, Cell: cell}
	case engine.Distance(from, cell) <= float64(s.bulletRange):
		return Action{Kind: ActionFire, Target: target, Cell: cell}
	}

	// A unit path is as long as the manhattan distance
	steps := max(min(s.unitSpeed, engine.ManhattanDistance(from, cell)-1), 1)
	return Action{Kind: ActionAdvance, Target: target, Cell: cell, Steps: steps}
}
