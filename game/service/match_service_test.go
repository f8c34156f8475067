package service_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/wricardo/mcp-training/tacticalgrid/game/engine"
	"github.com/wricardo/mcp-training/tacticalgrid/game/service"
)

// MockSessionManager implements service.SessionManager for testing
type MockSessionManager struct {
	sessions map[string]*service.Session
	mu       sync.Mutex
}

func NewMockSessionManager() *MockSessionManager {
	return &MockSessionManager{
		sessions: make(map[string]*service.Session),
	}
}

func (m *MockSessionManager) Create(id, configID string, config *engine.MatchConfig) (*service.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Generate ID if empty (mimics real session manager behavior)
	if id == "" {
		id = fmt.Sprintf("test_%d", len(m.sessions)+1)
	}
	if _, exists := m.sessions[id]; exists {
		return nil, errors.New("session already exists")
	}

	eng, err := engine.NewEngineFromConfig(config)
	if err != nil {
		return nil, err
	}
	eng.Seed(1)

	sess := service.NewSession(id, configID, eng, config)
	m.sessions[id] = sess
	return sess, nil
}

func (m *MockSessionManager) Get(id string) (*service.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, exists := m.sessions[id]
	if !exists {
		return nil, errors.New("session not found")
	}
	return sess, nil
}

func (m *MockSessionManager) List() []*service.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*service.Session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		result = append(result, sess)
	}
	return result
}

func (m *MockSessionManager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.sessions[id]; !exists {
		return errors.New("session not found")
	}
	delete(m.sessions, id)
	return nil
}

func (m *MockSessionManager) UpdateLastAccessed(id string) error {
	sess, err := m.Get(id)
	if err != nil {
		return err
	}
	sess.Touch()
	return nil
}

// MockConfigManager implements service.ConfigManager for testing
type MockConfigManager struct {
	configs map[string]*engine.MatchConfig
}

func NewMockConfigManager() *MockConfigManager {
	return &MockConfigManager{
		configs: map[string]*engine.MatchConfig{
			"default": createTestConfig(),
		},
	}
}

func (m *MockConfigManager) LoadConfig(name string) (*engine.MatchConfig, error) {
	config, exists := m.configs[name]
	if !exists {
		return nil, errors.New("configuration not found")
	}
	return config, nil
}

func (m *MockConfigManager) ListConfigs() ([]*service.ConfigInfo, error) {
	var configs []*service.ConfigInfo
	for name, config := range m.configs {
		configs = append(configs, &service.ConfigInfo{
			Filename:    name + ".json",
			ConfigID:    name,
			Name:        config.Name,
			Description: config.Description,
			GridSize:    config.GridSize,
		})
	}
	return configs, nil
}

func (m *MockConfigManager) GetDefault() *engine.MatchConfig {
	return m.configs["default"]
}

func (m *MockConfigManager) SaveConfig(name string, config *engine.MatchConfig) error {
	m.configs[name] = config
	return nil
}

// recordingNotifier keeps every event it receives
type recordingNotifier struct {
	mu     sync.Mutex
	events []service.Event
}

func (n *recordingNotifier) Notify(matchID string, event service.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *recordingNotifier) types() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.events))
	for i, e := range n.events {
		out[i] = e.Type
	}
	return out
}

func createTestConfig() *engine.MatchConfig {
	return &engine.MatchConfig{
		Name:        "Test Config",
		Description: "Test configuration",
		GridSize:    200,
		BulletRange: 25,
		MoveBudget:  3,
		UnitSpeed:   4,
		Entities: []engine.Placement{
			{ID: "alpha", X: 6, Y: 16},
			{ID: "bravo", X: 6, Y: 30},
		},
	}
}

func newTestService(t *testing.T) (service.MatchService, *recordingNotifier, string) {
	t.Helper()
	notifier := &recordingNotifier{}
	svc := service.NewMatchService(NewMockSessionManager(), NewMockConfigManager(), notifier, nil)

	info, err := svc.CreateMatch(context.Background(), "")
	if err != nil {
		t.Fatalf("Failed to create match: %v", err)
	}
	return svc, notifier, info.ID
}

func cell(x, y int) engine.Cell {
	return engine.Cell{X: x, Y: y}
}

func TestMatchService_CreateMatch(t *testing.T) {
	svc := service.NewMatchService(NewMockSessionManager(), NewMockConfigManager(), nil, nil)
	ctx := context.Background()

	t.Run("default config", func(t *testing.T) {
		info, err := svc.CreateMatch(ctx, "")
		if err != nil {
			t.Fatalf("Failed to create match: %v", err)
		}
		if info.ConfigName != "default" {
			t.Errorf("Expected config name 'default', got '%s'", info.ConfigName)
		}
		if info.GridSize != 200 {
			t.Errorf("Expected grid size 200, got %d", info.GridSize)
		}
		if info.EntityCount != 2 || len(info.Entities) != 2 {
			t.Errorf("Expected 2 initial entities, got %d", info.EntityCount)
		}
		if info.Entities[0].Entity != "alpha" {
			t.Errorf("Expected alpha first in row-major order, got %s", info.Entities[0].Entity)
		}
	})

	t.Run("unknown config lists available", func(t *testing.T) {
		_, err := svc.CreateMatch(ctx, "nope")
		if err == nil {
			t.Fatal("Expected error for unknown config")
		}
		if !strings.Contains(err.Error(), "default") {
			t.Errorf("Expected available configs in error, got %v", err)
		}
	})
}

func TestMatchService_Lifecycle(t *testing.T) {
	svc, notifier, id := newTestService(t)
	ctx := context.Background()

	if _, err := svc.GetMatch(ctx, id); err != nil {
		t.Fatalf("Failed to get match: %v", err)
	}

	matches, _ := svc.ListMatches(ctx)
	if len(matches) != 1 {
		t.Errorf("Expected 1 match, got %d", len(matches))
	}

	if err := svc.DeleteMatch(ctx, id); err != nil {
		t.Fatalf("Failed to delete match: %v", err)
	}
	if _, err := svc.GetMatch(ctx, id); !errors.Is(err, service.ErrMatchNotFound) {
		t.Errorf("Expected ErrMatchNotFound, got %v", err)
	}
	if err := svc.DeleteMatch(ctx, id); !errors.Is(err, service.ErrMatchNotFound) {
		t.Errorf("Expected ErrMatchNotFound on second delete, got %v", err)
	}
	if got := notifier.types(); len(got) != 1 || got[0] != service.EventDeleted {
		t.Errorf("Expected one match_deleted event, got %v", got)
	}
}

func TestMatchService_Place(t *testing.T) {
	svc, notifier, id := newTestService(t)
	ctx := context.Background()

	t.Run("valid cell", func(t *testing.T) {
		result, err := svc.Place(ctx, id, "charlie", cell(10, 10))
		if err != nil {
			t.Fatalf("Failed to place: %v", err)
		}
		if !result.Placed {
			t.Error("Expected placement to succeed")
		}
		pos, err := svc.Position(ctx, id, "charlie")
		if err != nil || pos.Cell != cell(10, 10) {
			t.Errorf("Expected charlie at (10,10), got %v (%v)", pos, err)
		}
	})

	t.Run("invalid cell is a silent no-op", func(t *testing.T) {
		result, err := svc.Place(ctx, id, "delta", cell(200, 0))
		if err != nil {
			t.Fatalf("Expected no error for off-grid placement, got %v", err)
		}
		if result.Placed {
			t.Error("Expected off-grid placement to report placed=false")
		}
		if _, err := svc.Position(ctx, id, "delta"); !errors.Is(err, service.ErrEntityNotPlaced) {
			t.Errorf("Expected ErrEntityNotPlaced, got %v", err)
		}
	})

	t.Run("generated ID", func(t *testing.T) {
		result, err := svc.Place(ctx, id, "", cell(1, 1))
		if err != nil {
			t.Fatalf("Failed to place: %v", err)
		}
		if len(result.Entity) != 36 {
			t.Errorf("Expected a UUID entity ID, got %q", result.Entity)
		}
	})

	t.Run("already placed", func(t *testing.T) {
		_, err := svc.Place(ctx, id, "alpha", cell(3, 3))
		if !errors.Is(err, service.ErrInvalidArgument) {
			t.Errorf("Expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("unknown match", func(t *testing.T) {
		_, err := svc.Place(ctx, "zzzz", "x", cell(1, 1))
		if !errors.Is(err, service.ErrMatchNotFound) {
			t.Errorf("Expected ErrMatchNotFound, got %v", err)
		}
	})

	placed := 0
	for _, typ := range notifier.types() {
		if typ == service.EventPlaced {
			placed++
		}
	}
	if placed != 2 {
		t.Errorf("Expected 2 placed events, got %d", placed)
	}
}

func TestMatchService_Spawn(t *testing.T) {
	svc, _, id := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		result, err := svc.Spawn(ctx, id, fmt.Sprintf("spawn-%d", i))
		if err != nil {
			t.Fatalf("Failed to spawn: %v", err)
		}
		if !result.Placed {
			t.Fatal("Expected spawn to place the entity")
		}
		if result.Cell.X < 0 || result.Cell.X >= 200 || result.Cell.Y < 0 || result.Cell.Y >= 200 {
			t.Errorf("Spawned on invalid cell %s", result.Cell)
		}
	}

	entities, _ := svc.Entities(ctx, id)
	if len(entities) != 22 {
		t.Errorf("Expected 22 entities, got %d", len(entities))
	}
}

func TestMatchService_RelocateAndRemove(t *testing.T) {
	svc, notifier, id := newTestService(t)
	ctx := context.Background()

	result, err := svc.Relocate(ctx, id, "alpha", cell(6, 30))
	if err != nil {
		t.Fatalf("Failed to relocate: %v", err)
	}
	if !result.Placed || result.From == nil || *result.From != cell(6, 16) {
		t.Errorf("Unexpected relocate result %+v", result)
	}

	occupants, err := svc.Occupants(ctx, id, cell(6, 30))
	if err != nil {
		t.Fatalf("Failed to get occupants: %v", err)
	}
	if len(occupants.Occupants) != 2 || occupants.Occupants[0] != "bravo" || occupants.Occupants[1] != "alpha" {
		t.Errorf("Expected [bravo alpha], got %v", occupants.Occupants)
	}

	empty, _ := svc.Occupants(ctx, id, cell(6, 16))
	if len(empty.Occupants) != 0 {
		t.Errorf("Expected old cell to be empty, got %v", empty.Occupants)
	}

	t.Run("off-grid target keeps entity", func(t *testing.T) {
		result, err := svc.Relocate(ctx, id, "alpha", cell(-1, 0))
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if result.Placed {
			t.Error("Expected placed=false for off-grid target")
		}
		pos, _ := svc.Position(ctx, id, "alpha")
		if pos.Cell != cell(6, 30) {
			t.Errorf("Expected alpha to stay at (6,30), got %s", pos.Cell)
		}
	})

	t.Run("unplaced entity", func(t *testing.T) {
		if _, err := svc.Relocate(ctx, id, "ghost", cell(1, 1)); !errors.Is(err, service.ErrEntityNotPlaced) {
			t.Errorf("Expected ErrEntityNotPlaced, got %v", err)
		}
	})

	if err := svc.Remove(ctx, id, "alpha"); err != nil {
		t.Fatalf("Failed to remove: %v", err)
	}
	if err := svc.Remove(ctx, id, "alpha"); !errors.Is(err, service.ErrEntityNotPlaced) {
		t.Errorf("Expected ErrEntityNotPlaced on second remove, got %v", err)
	}

	got := notifier.types()
	expected := []string{service.EventMoved, service.EventRemoved}
	if len(got) != len(expected) || got[0] != expected[0] || got[1] != expected[1] {
		t.Errorf("Expected events %v, got %v", expected, got)
	}
}

func TestMatchService_OccupantsOutOfBounds(t *testing.T) {
	svc, _, id := newTestService(t)

	_, err := svc.Occupants(context.Background(), id, cell(200, 200))
	if !errors.Is(err, service.ErrInvalidCell) {
		t.Errorf("Expected ErrInvalidCell, got %v", err)
	}
	if !errors.Is(err, engine.ErrOutOfBounds) {
		t.Errorf("Expected wrapped engine.ErrOutOfBounds, got %v", err)
	}
}

func TestMatchService_Geometry(t *testing.T) {
	svc, _, id := newTestService(t)
	ctx := context.Background()

	t.Run("legal moves uses configured budget", func(t *testing.T) {
		result, err := svc.LegalMoves(ctx, id, cell(20, 20), -1)
		if err != nil {
			t.Fatalf("Failed to get legal moves: %v", err)
		}
		if result.Budget != 3 || result.Count != 45 {
			t.Errorf("Expected budget 3 with 45 cells, got budget %d with %d", result.Budget, result.Count)
		}
	})

	t.Run("legal moves explicit budget", func(t *testing.T) {
		result, _ := svc.LegalMoves(ctx, id, cell(20, 20), 1)
		if result.Count != 9 {
			t.Errorf("Expected 9 cells, got %d", result.Count)
		}
	})

	t.Run("legal moves budget limit", func(t *testing.T) {
		if _, err := svc.LegalMoves(ctx, id, cell(20, 20), 400); err != nil {
			t.Errorf("Expected budget of twice the grid to be accepted, got %v", err)
		}
		_, err := svc.LegalMoves(ctx, id, cell(20, 20), 401)
		if !errors.Is(err, service.ErrInvalidArgument) {
			t.Errorf("Expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("bullet path uses configured range", func(t *testing.T) {
		result, err := svc.BulletPath(ctx, id, cell(6, 16), cell(6, 70), -1)
		if err != nil {
			t.Fatalf("Failed to get bullet path: %v", err)
		}
		if result.MaxRange != 25 || result.Length != 25 {
			t.Errorf("Expected 25 cells at range 25, got %d at %d", result.Length, result.MaxRange)
		}
		if result.Path[0] != cell(6, 17) || result.Path[24] != cell(6, 41) {
			t.Errorf("Expected (6,17)..(6,41), got %s..%s", result.Path[0], result.Path[24])
		}
	})

	t.Run("unit path", func(t *testing.T) {
		result, err := svc.UnitPath(ctx, id, cell(0, 0), cell(4, 2))
		if err != nil {
			t.Fatalf("Failed to get unit path: %v", err)
		}
		if result.Length != 6 || result.Path[5] != cell(4, 2) {
			t.Errorf("Expected 6 steps ending at (4,2), got %v", result.Path)
		}
	})

	t.Run("unit path off grid", func(t *testing.T) {
		tests := []struct {
			from, to engine.Cell
		}{
			{cell(0, 0), cell(2_000_000_000, 0)},
			{cell(0, 0), cell(200, 5)},
			{cell(-3, 0), cell(4, 2)},
		}
		for _, tt := range tests {
			if _, err := svc.UnitPath(ctx, id, tt.from, tt.to); !errors.Is(err, service.ErrInvalidCell) {
				t.Errorf("%s->%s: expected ErrInvalidCell, got %v", tt.from, tt.to, err)
			}
		}
	})

	t.Run("distance", func(t *testing.T) {
		result, _ := svc.Distance(ctx, cell(0, 0), cell(3, 4))
		if result.Euclidean != 5 || result.Manhattan != 7 || result.Chebyshev != 4 {
			t.Errorf("Unexpected distances %+v", result)
		}
	})
}

func TestMatchService_Victims(t *testing.T) {
	svc, _, id := newTestService(t)
	ctx := context.Background()

	svc.Place(ctx, id, "charlie", cell(6, 20))
	svc.Place(ctx, id, "far-away", cell(6, 60))
	svc.Place(ctx, id, "beside", cell(7, 20))

	result, err := svc.Victims(ctx, id, "alpha", cell(6, 70))
	if err != nil {
		t.Fatalf("Failed to get victims: %v", err)
	}
	if len(result.Victims) != 2 {
		t.Fatalf("Expected 2 victims, got %v", result.Victims)
	}
	if result.Victims[0].Entity != "charlie" || result.Victims[1].Entity != "bravo" {
		t.Errorf("Expected [charlie bravo] nearest first, got %v", result.Victims)
	}

	if _, err := svc.Victims(ctx, id, "ghost", cell(0, 0)); !errors.Is(err, service.ErrEntityNotPlaced) {
		t.Errorf("Expected ErrEntityNotPlaced, got %v", err)
	}
}

func TestMatchService_Advance(t *testing.T) {
	svc, notifier, id := newTestService(t)
	ctx := context.Background()

	svc.Place(ctx, id, "walker", cell(0, 0))

	first, err := svc.Advance(ctx, id, "walker", cell(4, 2), -1)
	if err != nil {
		t.Fatalf("Failed to advance: %v", err)
	}
	if first.Steps != 4 || first.To != cell(3, 1) || first.Arrived || first.Remaining != 2 {
		t.Errorf("Unexpected first advance %+v", first)
	}

	second, err := svc.Advance(ctx, id, "walker", cell(4, 2), -1)
	if err != nil {
		t.Fatalf("Failed to advance: %v", err)
	}
	if second.Steps != 2 || second.To != cell(4, 2) || !second.Arrived {
		t.Errorf("Unexpected second advance %+v", second)
	}

	third, _ := svc.Advance(ctx, id, "walker", cell(4, 2), -1)
	if third.Steps != 0 || !third.Arrived {
		t.Errorf("Expected no-op advance at destination, got %+v", third)
	}

	pos, _ := svc.Position(ctx, id, "walker")
	if pos.Cell != cell(4, 2) {
		t.Errorf("Expected walker at (4,2), got %s", pos.Cell)
	}

	if _, err := svc.Advance(ctx, id, "walker", cell(500, 0), 1); !errors.Is(err, service.ErrInvalidCell) {
		t.Errorf("Expected ErrInvalidCell, got %v", err)
	}

	advanced := 0
	for _, typ := range notifier.types() {
		if typ == service.EventAdvanced {
			advanced++
		}
	}
	if advanced != 2 {
		t.Errorf("Expected 2 advanced events, got %d", advanced)
	}
}

func TestMatchService_ConcurrentMutations(t *testing.T) {
	svc, _, id := newTestService(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			entity := fmt.Sprintf("unit-%d", n)
			svc.Place(ctx, id, entity, cell(n, n))
			svc.Relocate(ctx, id, entity, cell(n, 0))
			svc.LegalMoves(ctx, id, cell(n, 0), 2)
		}(i)
	}
	wg.Wait()

	entities, _ := svc.Entities(ctx, id)
	if len(entities) != 52 {
		t.Errorf("Expected 52 entities, got %d", len(entities))
	}
}

func TestMatchService_Configs(t *testing.T) {
	svc := service.NewMatchService(NewMockSessionManager(), NewMockConfigManager(), nil, nil)
	ctx := context.Background()

	config := createTestConfig()
	config.Name = "Duel"
	if err := svc.SaveConfig(ctx, "duel", config); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	loaded, err := svc.LoadConfig(ctx, "duel")
	if err != nil || loaded.Name != "Duel" {
		t.Errorf("Expected Duel, got %v (%v)", loaded, err)
	}

	configs, _ := svc.ListConfigs(ctx)
	if len(configs) != 2 {
		t.Errorf("Expected 2 configs, got %d", len(configs))
	}

	info, err := svc.CreateMatch(ctx, "duel")
	if err != nil {
		t.Fatalf("Failed to create match from saved config: %v", err)
	}
	if info.ConfigName != "duel" {
		t.Errorf("Expected config name 'duel', got '%s'", info.ConfigName)
	}
}
