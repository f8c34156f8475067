package world

import (
	"errors"
	"math"
	"testing"

	"github.com/wricardo/mcp-training/tacticalgrid/game/engine"
)

// stubRules records the actions forwarded to it and answers rule queries
// from fixed tables
type stubRules struct {
	alive   map[*Unit]bool
	teams   map[*Unit]string
	stats   map[*Unit]Stats
	visible map[*Unit][]engine.Cell

	moves  []engine.Cell
	shots  []engine.Cell
	claims []Building
}

func newStubRules() *stubRules {
	return &stubRules{
		alive:   make(map[*Unit]bool),
		teams:   make(map[*Unit]string),
		stats:   make(map[*Unit]Stats),
		visible: make(map[*Unit][]engine.Cell),
	}
}

func (r *stubRules) IsAlive(u *Unit) bool { return r.alive[u] }
func (r *stubRules) IsCapturing(u *Unit) bool { return len(r.claims) > 0 }
func (r *stubRules) IsMoving(u *Unit) bool { return len(r.moves) > 0 }
func (r *stubRules) IsShooting(u *Unit) bool { return len(r.shots) > 0 }
func (r *stubRules) IsUnderAttack(u *Unit) bool { return false }
func (r *stubRules) Stats(u *Unit) Stats { return r.stats[u] }
func (r *stubRules) Team(u *Unit) string { return r.teams[u] }
func (r *stubRules) VisibleSquares(u *Unit) []engine.Cell { return r.visible[u] }
func (r *stubRules) VisibleBuildings(u *Unit) []Building { return nil }
func (r *stubRules) VisibleEnemies(u *Unit) []*Unit { return nil }
func (r *stubRules) Capture(u *Unit, b Building) error { r.claims = append(r.claims, b); return nil }
func (r *stubRules) Move(u *Unit, dest engine.Cell) error { r.moves = append(r.moves, dest); return nil }
func (r *stubRules) Shoot(u *Unit, target engine.Cell) error { r.shots = append(r.shots, target); return nil }

type testAuthority struct {
	*Geometry
	*stubRules
}

func newTestWorld(t *testing.T) (*testAuthority, *Geometry, *stubRules) {
	t.Helper()
	geo, err := NewGeometry(200, 25)
	if err != nil {
		t.Fatalf("Failed to create geometry: %v", err)
	}
	rules := newStubRules()
	return &testAuthority{Geometry: geo, stubRules: rules}, geo, rules
}

func TestUnit_PositionDelegates(t *testing.T) {
	auth, geo, _ := newTestWorld(t)
	u := NewUnit("scout", auth)

	if _, ok := u.Position(); ok {
		t.Error("Expected unplaced unit to have no position")
	}

	geo.Grid.Place(u, engine.Cell{X: 6, Y: 16})
	pos, ok := u.Position()
	if !ok || pos != (engine.Cell{X: 6, Y: 16}) {
		t.Errorf("Expected (6,16), got %s (placed=%v)", pos, ok)
	}
}

func TestUnit_GeometryQueries(t *testing.T) {
	auth, geo, _ := newTestWorld(t)
	u := NewUnit("scout", auth)
	geo.Grid.Place(u, engine.Cell{X: 0, Y: 0})

	if d := u.Distance(engine.Cell{X: 3, Y: 4}); d != 5.0 {
		t.Errorf("Expected distance 5, got %v", d)
	}

	path := u.UnitPath(engine.Cell{X: 5, Y: 0})
	if len(path) != 5 || path[4] != (engine.Cell{X: 5, Y: 0}) {
		t.Errorf("Expected five-step walk ending at (5,0), got %v", path)
	}

	bullet := u.BulletPath(engine.Cell{X: 0, Y: 100})
	if len(bullet) != 25 {
		t.Errorf("Expected bullet to fly 25 cells, got %d", len(bullet))
	}
}

func TestUnit_Victims(t *testing.T) {
	auth, geo, _ := newTestWorld(t)
	shooter := NewUnit("shooter", auth)
	near := NewUnit("near", auth)
	far := NewUnit("far", auth)
	beside := NewUnit("beside", auth)
	outOfRange := NewUnit("out-of-range", auth)

	geo.Grid.Place(shooter, engine.Cell{X: 6, Y: 16})
	geo.Grid.Place(far, engine.Cell{X: 6, Y: 30})
	geo.Grid.Place(near, engine.Cell{X: 6, Y: 20})
	geo.Grid.Place(beside, engine.Cell{X: 7, Y: 20})
	geo.Grid.Place(outOfRange, engine.Cell{X: 6, Y: 60})

	victims := shooter.Victims(engine.Cell{X: 6, Y: 70})
	if len(victims) != 2 || victims[0] != near || victims[1] != far {
		names := make([]string, len(victims))
		for i, v := range victims {
			names[i] = v.Name
		}
		t.Errorf("Expected [near far], got %v", names)
	}
}

func TestUnit_VictimsExcludesShooter(t *testing.T) {
	auth, geo, _ := newTestWorld(t)
	shooter := NewUnit("shooter", auth)
	geo.Grid.Place(shooter, engine.Cell{X: 10, Y: 10})

	if victims := shooter.Victims(engine.Cell{X: 20, Y: 10}); len(victims) != 0 {
		t.Errorf("Expected no victims, got %d", len(victims))
	}
}

func TestUnit_UnplacedHasNoPaths(t *testing.T) {
	auth, _, _ := newTestWorld(t)
	u := NewUnit("ghost", auth)

	if path := u.BulletPath(engine.Cell{X: 1, Y: 1}); path != nil {
		t.Errorf("Expected nil bullet path, got %v", path)
	}
	if path := u.UnitPath(engine.Cell{X: 1, Y: 1}); path != nil {
		t.Errorf("Expected nil unit path, got %v", path)
	}
	if d := u.Distance(engine.Cell{X: 3, Y: 4}); !math.IsNaN(d) {
		t.Errorf("Expected NaN distance for unplaced unit, got %f", d)
	}
}

func TestUnit_IsVisible(t *testing.T) {
	auth, geo, rules := newTestWorld(t)
	watcher := NewUnit("watcher", auth)
	target := NewUnit("target", auth)
	hidden := NewUnit("hidden", auth)

	geo.Grid.Place(target, engine.Cell{X: 3, Y: 3})
	geo.Grid.Place(hidden, engine.Cell{X: 50, Y: 50})
	rules.visible[watcher] = geo.Grid.LegalMoves(engine.Cell{X: 2, Y: 2}, 2).Cells()

	if !watcher.IsVisible(target) {
		t.Error("Expected target to be visible")
	}
	if watcher.IsVisible(hidden) {
		t.Error("Expected hidden unit not to be visible")
	}
	if watcher.IsVisible(NewUnit("unplaced", auth)) {
		t.Error("Expected unplaced unit not to be visible")
	}
}

func TestUnit_RulesDelegates(t *testing.T) {
	auth, _, rules := newTestWorld(t)
	u := NewUnit("scout", auth)
	rules.alive[u] = true
	rules.teams[u] = "red"
	rules.stats[u] = Stats{Energy: 7}

	if !u.IsAlive() {
		t.Error("Expected unit to be alive")
	}
	if u.Team() != "red" {
		t.Errorf("Expected team red, got %s", u.Team())
	}
	if u.Energy() != 7 {
		t.Errorf("Expected energy 7, got %d", u.Energy())
	}

	dest := engine.Cell{X: 9, Y: 9}
	if err := u.Move(dest); err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	if err := u.Shoot(dest); err != nil {
		t.Fatalf("Shoot failed: %v", err)
	}
	if err := u.Capture(Building{ID: "hq", Position: dest}); err != nil {
		t.Fatalf("Capture failed: %v", err)
	}

	if !u.IsMoving() || !u.IsShooting() || !u.IsCapturing() {
		t.Error("Expected actions to reach the rules layer")
	}
	if rules.moves[0] != dest || rules.shots[0] != dest || rules.claims[0].ID != "hq" {
		t.Error("Expected actions to carry their arguments")
	}
}

type refusingRules struct{ *stubRules }

func (refusingRules) Move(u *Unit, dest engine.Cell) error { return errors.New("not your turn") }

func TestUnit_ActionErrorsPropagate(t *testing.T) {
	_, geo, rules := newTestWorld(t)
	auth := &struct {
		*Geometry
		refusingRules
	}{geo, refusingRules{rules}}
	u := NewUnit("scout", auth)

	if err := u.Move(engine.Cell{X: 1, Y: 1}); err == nil {
		t.Error("Expected the authority's error to reach the caller")
	}
}
