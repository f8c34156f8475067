package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/wricardo/mcp-training/tacticalgrid/api"
	"github.com/wricardo/mcp-training/tacticalgrid/game/config"
	"github.com/wricardo/mcp-training/tacticalgrid/game/engine"
	"github.com/wricardo/mcp-training/tacticalgrid/game/service"
	"github.com/wricardo/mcp-training/tacticalgrid/game/session"
	"github.com/wricardo/mcp-training/tacticalgrid/transport/websocket"
)

var testConfigs = map[string]string{
	"duel.json": `{
  "name": "Duel",
  "description": "Two scouts in a line",
  "grid_size": 100,
  "bullet_range": 25,
  "move_budget": 3,
  "unit_speed": 4,
  "entities": [
    {"id": "alpha", "x": 6, "y": 16},
    {"id": "bravo", "x": 6, "y": 30}
  ]
}`,
	"approach.json": `{
  "name": "Approach",
  "description": "Closing distance on a short range",
  "grid_size": 20,
  "bullet_range": 2,
  "unit_speed": 3,
  "entities": [
    {"id": "alpha", "x": 0, "y": 0},
    {"id": "bravo", "x": 10, "y": 0}
  ]
}`,
	"standoff.json": `{
  "name": "Standoff",
  "description": "Too far apart to finish quickly",
  "grid_size": 50,
  "bullet_range": 1,
  "unit_speed": 1,
  "entities": [
    {"id": "alpha", "x": 0, "y": 0},
    {"id": "bravo", "x": 40, "y": 40}
  ]
}`,
}

func setupServer(t *testing.T) (*httptest.Server, service.MatchService) {
	t.Helper()

	dir := t.TempDir()
	for name, content := range testConfigs {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write config: %v", err)
		}
	}
	configMgr, err := config.NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create config manager: %v", err)
	}

	hub := websocket.NewHub(nil)
	go hub.Run()
	svc := service.NewMatchService(session.NewManager(nil), configMgr, hub, nil)

	server := httptest.NewServer(api.NewServer(svc, hub, nil))
	t.Cleanup(server.Close)
	return server, svc
}

func newPlayer(t *testing.T, baseURL, configName string, out *bytes.Buffer) *player {
	t.Helper()
	ctx := context.Background()

	client := NewClient(baseURL + "/")
	if _, err := client.CreateMatch(ctx, configName); err != nil {
		t.Fatalf("CreateMatch failed: %v", err)
	}
	match, err := client.GetMatch(ctx)
	if err != nil {
		t.Fatalf("GetMatch failed: %v", err)
	}

	return &player{
		client:   client,
		strategy: NewNearestTargetStrategy(match),
		out:      out,
		logger:   zap.NewNop(),
	}
}

func TestPlay_ShotInRange(t *testing.T) {
	server, svc := setupServer(t)
	var out bytes.Buffer
	p := newPlayer(t, server.URL, "duel", &out)

	outcome, err := p.play(context.Background(), 10)
	if err != nil {
		t.Fatalf("play failed: %v", err)
	}

	if outcome.Rounds != 1 {
		t.Errorf("Expected 1 round, got %d", outcome.Rounds)
	}
	if len(outcome.Survivors) != 1 || outcome.Survivors[0] != "alpha" {
		t.Errorf("Expected alpha to survive, got %v", outcome.Survivors)
	}
	if !strings.Contains(out.String(), "alpha fires from (6,16) at (6,30) and hits bravo at (6,30)") {
		t.Errorf("Unexpected transcript: %s", out.String())
	}

	entities, err := svc.Entities(context.Background(), outcome.MatchID)
	if err != nil {
		t.Fatalf("Entities failed: %v", err)
	}
	if len(entities) != 1 {
		t.Errorf("Expected server to hold 1 entity, got %v", entities)
	}
}

func TestPlay_ApproachThenFire(t *testing.T) {
	server, _ := setupServer(t)
	var out bytes.Buffer
	p := newPlayer(t, server.URL, "approach", &out)

	outcome, err := p.play(context.Background(), 10)
	if err != nil {
		t.Fatalf("play failed: %v", err)
	}

	expected := []string{
		"round 1: alpha advances (0,0) -> (3,0) toward bravo",
		"round 1: bravo advances (10,0) -> (7,0) toward alpha",
		"round 2: alpha advances (3,0) -> (6,0) toward bravo",
		"round 2: bravo fires from (7,0) at (6,0) and hits alpha at (6,0)",
	}
	for _, line := range expected {
		if !strings.Contains(out.String(), line) {
			t.Errorf("Expected transcript line %q, got:\n%s", line, out.String())
		}
	}
	if outcome.Rounds != 2 {
		t.Errorf("Expected 2 rounds, got %d", outcome.Rounds)
	}
	if len(outcome.Eliminated) != 1 || outcome.Eliminated[0] != "alpha" {
		t.Errorf("Expected alpha eliminated, got %v", outcome.Eliminated)
	}
}

func TestPlay_MaxRounds(t *testing.T) {
	server, _ := setupServer(t)
	var out bytes.Buffer
	p := newPlayer(t, server.URL, "standoff", &out)

	outcome, err := p.play(context.Background(), 2)
	if err != nil {
		t.Fatalf("play failed: %v", err)
	}
	if outcome.Rounds != 2 {
		t.Errorf("Expected to stop after 2 rounds, got %d", outcome.Rounds)
	}
	if len(outcome.Survivors) != 2 {
		t.Errorf("Expected both entities standing, got %v", outcome.Survivors)
	}
}

func TestNextAction(t *testing.T) {
	match := &service.MatchInfo{
		Config: &engine.MatchConfig{BulletRange: 5, UnitSpeed: 4},
		Entities: []service.EntityInfo{
			{Entity: "alpha", Cell: engine.Cell{X: 0, Y: 0}},
			{Entity: "bravo", Cell: engine.Cell{X: 3, Y: 4}},
			{Entity: "charlie", Cell: engine.Cell{X: 20, Y: 0}},
			{Entity: "delta", Cell: engine.Cell{X: 20, Y: 0}},
			{Entity: "echo", Cell: engine.Cell{X: 40, Y: 2}},
		},
	}
	s := NewNearestTargetStrategy(match)

	tests := []struct {
		entity   string
		expected Action
	}{
		{"alpha", Action{Kind: ActionFire, Target: "bravo", Cell: engine.Cell{X: 3, Y: 4}}},
		{"charlie", Action{Kind: ActionStrike, Target: "delta", Cell: engine.Cell{X: 20, Y: 0}}},
		{"echo", Action{Kind: ActionAdvance, Target: "charlie", Cell: engine.Cell{X: 20, Y: 0}, Steps: 4}},
		{"ghost", Action{Kind: ActionNone}},
	}

	for _, tt := range tests {
		if got := s.NextAction(tt.entity); got != tt.expected {
			t.Errorf("%s: expected %+v, got %+v", tt.entity, tt.expected, got)
		}
	}

	s.Removed("bravo")
	s.Removed("charlie")
	s.Removed("delta")
	s.Moved("echo", engine.Cell{X: 1, Y: 0})
	s.Moved("ghost", engine.Cell{X: 1, Y: 1})

	got := s.NextAction("echo")
	if got.Kind != ActionFire || got.Target != "alpha" {
		t.Errorf("Expected echo to fire at alpha, got %+v", got)
	}
	if s.Remaining() != 2 || s.Alive("ghost") {
		t.Errorf("Expected 2 entities left and no ghost, got %v", s.Order())
	}
}

func TestNextAction_StopsShort(t *testing.T) {
	s := NewNearestTargetStrategy(&service.MatchInfo{
		Config: &engine.MatchConfig{BulletRange: 0, UnitSpeed: 10},
		Entities: []service.EntityInfo{
			{Entity: "alpha", Cell: engine.Cell{X: 0, Y: 0}},
			{Entity: "bravo", Cell: engine.Cell{X: 2, Y: 1}},
		},
	})

	if got := s.NextAction("alpha"); got.Kind != ActionAdvance || got.Steps != 2 {
		t.Errorf("Expected a 2 step advance, got %+v", got)
	}
}

func TestClient_Errors(t *testing.T) {
	server, _ := setupServer(t)
	ctx := context.Background()

	client := NewClient(server.URL)
	if _, err := client.CreateMatch(ctx, "missing"); err == nil || !strings.Contains(err.Error(), "404") {
		t.Errorf("Expected 404 for unknown config, got %v", err)
	}

	client.UseMatch("nope")
	if _, err := client.GetMatch(ctx); err == nil || !strings.Contains(err.Error(), "match not found") {
		t.Errorf("Expected match not found, got %v", err)
	}
	if err := client.Remove(ctx, "alpha"); err == nil {
		t.Error("Expected error removing from unknown match")
	}
}

func TestRun(t *testing.T) {
	server, svc := setupServer(t)

	var out bytes.Buffer
	cmd := newCommand()
	cmd.Writer = &out

	if err := cmd.Run(context.Background(), []string{"skirmish", "--url", server.URL, "--config", "duel"}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if !strings.Contains(out.String(), "after 1 rounds: eliminated [bravo], standing [alpha]") {
		t.Errorf("Unexpected output: %s", out.String())
	}

	matches, err := svc.ListMatches(context.Background())
	if err != nil {
		t.Fatalf("ListMatches failed: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("Expected match to be deleted, got %d", len(matches))
	}
}
