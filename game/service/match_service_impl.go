package service

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wricardo/mcp-training/tacticalgrid/game/engine"
)

// maxSpawnAttempts bounds how many random cells Spawn draws before giving up
const maxSpawnAttempts = 32

// maxBudgetFactor bounds range queries at this many grid widths. No offset
// beyond twice the grid size can reach a valid cell from a valid origin.
const maxBudgetFactor = 2

// matchServiceImpl implements the MatchService interface
type matchServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	notifier Notifier
	logger   *zap.Logger
}

// NewMatchService creates a new match service instance. notifier and logger
// may be nil.
func NewMatchService(sessions SessionManager, configs ConfigManager, notifier Notifier, logger *zap.Logger) MatchService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &matchServiceImpl{
		sessions: sessions,
		configs:  configs,
		notifier: notifier,
		logger:   logger,
	}
}

// CreateMatch creates a new match from a named config, or the default config
// when configName is empty
func (s *matchServiceImpl) CreateMatch(ctx context.Context, configName string) (*MatchInfo, error) {
	var config *engine.MatchConfig
	if configName != "" {
		var err error
		config, err = s.configs.LoadConfig(configName)
		if err != nil {
			// Provide helpful error message with available options
			if strings.Contains(err.Error(), "configuration not found") {
				if available, listErr := s.configs.ListConfigs(); listErr == nil && len(available) > 0 {
					ids := make([]string, 0, len(available))
					for _, cfg := range available {
						ids = append(ids, cfg.ConfigID)
					}
					return nil, fmt.Errorf("config '%s' not found, available configs %v: %w", configName, ids, err)
				}
			}
			return nil, fmt.Errorf("failed to load config %s: %w", configName, err)
		}
	} else {
		config = s.configs.GetDefault()
		configName = "default"
	}

	// Let session manager generate a proper 4-character ID
	sess, err := s.sessions.Create("", configName, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create match: %w", err)
	}

	s.logger.Info("match created",
		zap.String("match", sess.ID),
		zap.String("config", configName),
		zap.Int("grid", config.GridSize),
		zap.Int("entities", sess.Engine.Count()))

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return matchInfo(sess), nil
}

// GetMatch retrieves match information
func (s *matchServiceImpl) GetMatch(ctx context.Context, matchID string) (*MatchInfo, error) {
	sess, err := s.session(matchID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return matchInfo(sess), nil
}

// ListMatches returns all active matches ordered by creation time
func (s *matchServiceImpl) ListMatches(ctx context.Context) ([]*MatchInfo, error) {
	sessions := s.sessions.List()
	result := make([]*MatchInfo, 0, len(sessions))

	for _, sess := range sessions {
		sess.mu.Lock()
		info := matchInfo(sess)
		sess.mu.Unlock()
		result = append(result, info)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

// DeleteMatch removes a match and its engine
func (s *matchServiceImpl) DeleteMatch(ctx context.Context, matchID string) error {
	if err := s.sessions.Delete(matchID); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMatchNotFound, matchID, err)
	}
	s.logger.Info("match deleted", zap.String("match", matchID))
	s.notify(matchID, Event{Type: EventDeleted})
	return nil
}

// Place puts an entity on a cell. An empty entity gets a generated ID.
// Placing an entity already on the board is rejected; use Relocate.
func (s *matchServiceImpl) Place(ctx context.Context, matchID, entity string, cell engine.Cell) (*PlacementResult, error) {
	sess, err := s.session(matchID)
	if err != nil {
		return nil, err
	}
	if entity == "" {
		entity = uuid.NewString()
	}

	sess.mu.Lock()
	if at, ok := sess.Engine.Position(entity); ok {
		sess.mu.Unlock()
		return nil, fmt.Errorf("%w: entity %s already placed at %s", ErrInvalidArgument, entity, at)
	}
	sess.Engine.Place(entity, cell)
	_, placed := sess.Engine.Position(entity)
	sess.mu.Unlock()

	result := &PlacementResult{Placed: placed, Entity: entity, Cell: cell}
	if placed {
		s.notify(matchID, Event{Type: EventPlaced, Entity: entity, To: &cell})
	}
	return result, nil
}

// Spawn places an entity on a random cell, re-validating each draw
func (s *matchServiceImpl) Spawn(ctx context.Context, matchID, entity string) (*PlacementResult, error) {
	sess, err := s.session(matchID)
	if err != nil {
		return nil, err
	}
	if entity == "" {
		entity = uuid.NewString()
	}

	sess.mu.Lock()
	if at, ok := sess.Engine.Position(entity); ok {
		sess.mu.Unlock()
		return nil, fmt.Errorf("%w: entity %s already placed at %s", ErrInvalidArgument, entity, at)
	}

	var cell engine.Cell
	placed := false
	for attempt := 0; attempt < maxSpawnAttempts; attempt++ {
		cell = sess.Engine.RandomCell()
		if sess.Engine.IsValid(cell) {
			sess.Engine.Place(entity, cell)
			placed = true
			break
		}
	}
	sess.mu.Unlock()

	if !placed {
		s.logger.Warn("spawn found no valid cell", zap.String("match", matchID), zap.String("entity", entity))
		return &PlacementResult{Placed: false, Entity: entity}, nil
	}

	s.notify(matchID, Event{Type: EventPlaced, Entity: entity, To: &cell})
	return &PlacementResult{Placed: true, Entity: entity, Cell: cell}, nil
}

// Relocate moves an entity to a new cell. An off-grid target leaves the
// entity where it was and reports placed=false.
func (s *matchServiceImpl) Relocate(ctx context.Context, matchID, entity string, cell engine.Cell) (*PlacementResult, error) {
	sess, err := s.session(matchID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	from, ok := sess.Engine.Position(entity)
	if !ok {
		sess.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrEntityNotPlaced, entity)
	}
	moved := sess.Engine.Move(entity, cell)
	sess.mu.Unlock()

	result := &PlacementResult{Placed: moved, Entity: entity, Cell: cell, From: &from}
	if moved {
		s.notify(matchID, Event{Type: EventMoved, Entity: entity, From: &from, To: &cell})
	}
	return result, nil
}

// Remove takes an entity off the board
func (s *matchServiceImpl) Remove(ctx context.Context, matchID, entity string) error {
	sess, err := s.session(matchID)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	from, ok := sess.Engine.Position(entity)
	if ok {
		sess.Engine.Remove(entity)
	}
	sess.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrEntityNotPlaced, entity)
	}
	s.notify(matchID, Event{Type: EventRemoved, Entity: entity, From: &from})
	return nil
}

// Position returns the cell an entity occupies
func (s *matchServiceImpl) Position(ctx context.Context, matchID, entity string) (*EntityInfo, error) {
	sess, err := s.session(matchID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	cell, ok := sess.Engine.Position(entity)
	sess.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEntityNotPlaced, entity)
	}
	return &EntityInfo{Entity: entity, Cell: cell}, nil
}

// Occupants lists who is on a cell. Off-grid cells are an error.
func (s *matchServiceImpl) Occupants(ctx context.Context, matchID string, cell engine.Cell) (*CellInfo, error) {
	sess, err := s.session(matchID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	occupants, err := sess.Engine.Occupants(cell)
	sess.mu.Unlock()

	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCell, err)
	}
	return &CellInfo{Cell: cell, Occupants: occupants}, nil
}

// Entities returns every placed entity ordered by cell, then by ID
func (s *matchServiceImpl) Entities(ctx context.Context, matchID string) ([]EntityInfo, error) {
	sess, err := s.session(matchID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return entitySnapshot(sess.Engine), nil
}

// LegalMoves returns the cells reachable within n moves. A negative n uses
// the match's configured move budget.
func (s *matchServiceImpl) LegalMoves(ctx context.Context, matchID string, origin engine.Cell, n int) (*RangeResult, error) {
	sess, err := s.session(matchID)
	if err != nil {
		return nil, err
	}
	if n < 0 {
		n = sess.Config.MoveBudget
	}
	if limit := maxBudgetFactor * sess.Config.GridSize; n > limit {
		return nil, fmt.Errorf("%w: budget %d exceeds %d for a %dx%d grid", ErrInvalidArgument, n, limit, sess.Config.GridSize, sess.Config.GridSize)
	}

	sess.mu.Lock()
	cells := sess.Engine.LegalMoves(origin, n)
	sess.mu.Unlock()

	return &RangeResult{Origin: origin, Budget: n, Count: cells.Len(), Cells: cells}, nil
}

// BulletPath traces a shot from origin toward target. A negative maxRange
// uses the match's configured bullet range.
func (s *matchServiceImpl) BulletPath(ctx context.Context, matchID string, origin, target engine.Cell, maxRange int) (*PathResult, error) {
	sess, err := s.session(matchID)
	if err != nil {
		return nil, err
	}
	if maxRange < 0 {
		maxRange = sess.Config.BulletRange
	}

	sess.mu.Lock()
	path := slices.Clone(sess.Engine.BulletPath(origin, target, maxRange))
	sess.mu.Unlock()

	return &PathResult{Origin: origin, Target: target, MaxRange: maxRange, Length: len(path), Path: path}, nil
}

// UnitPath returns the unit-step walk from origin to dest. Both endpoints
// must be on the grid.
func (s *matchServiceImpl) UnitPath(ctx context.Context, matchID string, origin, dest engine.Cell) (*PathResult, error) {
	sess, err := s.session(matchID)
	if err != nil {
		return nil, err
	}
	if !sess.Engine.IsValid(origin) {
		return nil, fmt.Errorf("%w: origin %s is off the grid", ErrInvalidCell, origin)
	}
	if !sess.Engine.IsValid(dest) {
		return nil, fmt.Errorf("%w: destination %s is off the grid", ErrInvalidCell, dest)
	}

	sess.mu.Lock()
	path := slices.Clone(sess.Engine.UnitPath(origin, dest))
	sess.mu.Unlock()

	return &PathResult{Origin: origin, Target: dest, Length: len(path), Path: path}, nil
}

// Distance needs no match: it is pure geometry
func (s *matchServiceImpl) Distance(ctx context.Context, a, b engine.Cell) (*DistanceResult, error) {
	return &DistanceResult{
		From:      a,
		To:        b,
		Euclidean: engine.Distance(a, b),
		Manhattan: engine.ManhattanDistance(a, b),
		Chebyshev: engine.ChebyshevDistance(a, b),
	}, nil
}

// Victims lists the entities standing on the shooter's bullet path toward
// target, nearest first. The shooter is never its own victim. This is the
// canonical victims query for served matches; world.Geometry answers the same
// question for in-process authorities keyed by *world.Unit.
func (s *matchServiceImpl) Victims(ctx context.Context, matchID, shooter string, target engine.Cell) (*VictimsResult, error) {
	sess, err := s.session(matchID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	from, ok := sess.Engine.Position(shooter)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEntityNotPlaced, shooter)
	}

	path := slices.Clone(sess.Engine.BulletPath(from, target, sess.Config.BulletRange))
	victims := []EntityInfo{}
	for _, c := range path {
		occupants, err := sess.Engine.Occupants(c)
		if err != nil {
			continue
		}
		for _, o := range occupants {
			if o != shooter {
				victims = append(victims, EntityInfo{Entity: o, Cell: c})
			}
		}
	}

	return &VictimsResult{Shooter: shooter, From: from, Target: target, Path: path, Victims: victims}, nil
}

// Advance walks an entity along its unit path toward dest by at most steps
// cells. A negative steps uses the match's configured unit speed.
func (s *matchServiceImpl) Advance(ctx context.Context, matchID, entity string, dest engine.Cell, steps int) (*AdvanceResult, error) {
	sess, err := s.session(matchID)
	if err != nil {
		return nil, err
	}
	if steps < 0 {
		steps = sess.Config.UnitSpeed
	}
	if !sess.Engine.IsValid(dest) {
		return nil, fmt.Errorf("%w: destination %s is off the grid", ErrInvalidCell, dest)
	}

	sess.mu.Lock()
	from, ok := sess.Engine.Position(entity)
	if !ok {
		sess.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrEntityNotPlaced, entity)
	}

	path := sess.Engine.UnitPath(from, dest)
	if from == dest {
		// A unit path between identical cells is the cell itself
		path = nil
	}
	walk := min(steps, len(path))
	walked := slices.Clone(path[:walk])
	to := from
	if walk > 0 {
		to = walked[walk-1]
		sess.Engine.Move(entity, to)
	}
	sess.mu.Unlock()

	result := &AdvanceResult{
		Entity:      entity,
		From:        from,
		To:          to,
		Destination: dest,
		Steps:       walk,
		Walked:      walked,
		Remaining:   len(path) - walk,
		Arrived:     to == dest,
	}
	if walk > 0 {
		s.notify(matchID, Event{Type: EventAdvanced, Entity: entity, From: &from, To: &to})
	}
	return result, nil
}

// ListConfigs returns available match configurations
func (s *matchServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific match configuration
func (s *matchServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.MatchConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a match configuration to disk
func (s *matchServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.MatchConfig) error {
	return s.configs.SaveConfig(configName, config)
}

// session looks a match up and marks it accessed
func (s *matchServiceImpl) session(matchID string) (*Session, error) {
	sess, err := s.sessions.Get(matchID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMatchNotFound, matchID)
	}
	s.sessions.UpdateLastAccessed(matchID)
	return sess, nil
}

func (s *matchServiceImpl) notify(matchID string, event Event) {
	if s.notifier == nil {
		return
	}
	event.MatchID = matchID
	event.Timestamp = time.Now()
	s.notifier.Notify(matchID, event)
}

// matchInfo builds the API view of a match. Caller holds sess.mu.
func matchInfo(sess *Session) *MatchInfo {
	entities := entitySnapshot(sess.Engine)
	return &MatchInfo{
		ID:             sess.ID,
		ConfigName:     sess.ConfigID,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessed(),
		GridSize:       sess.Engine.Size(),
		EntityCount:    len(entities),
		Entities:       entities,
		Config:         sess.Config,
	}
}

func entitySnapshot(eng *engine.Engine[string]) []EntityInfo {
	occupancy := eng.Occupancy()
	out := make([]EntityInfo, 0, len(occupancy))
	for entity, c := range occupancy {
		out = append(out, EntityInfo{Entity: entity, Cell: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Cell != out[j].Cell {
			return out[i].Cell.Less(out[j].Cell)
		}
		return out[i].Entity < out[j].Entity
	})
	return out
}
