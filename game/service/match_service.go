package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wricardo/mcp-training/tacticalgrid/game/engine"
)

var (
	ErrMatchNotFound   = errors.New("match not found")
	ErrEntityNotPlaced = errors.New("entity not placed")
	ErrInvalidCell     = errors.New("invalid cell")
	ErrInvalidArgument = errors.New("invalid argument")
)

// MatchService defines all match-related operations
type MatchService interface {
	// Match lifecycle
	CreateMatch(ctx context.Context, configName string) (*MatchInfo, error)
	GetMatch(ctx context.Context, matchID string) (*MatchInfo, error)
	ListMatches(ctx context.Context) ([]*MatchInfo, error)
	DeleteMatch(ctx context.Context, matchID string) error

	// Occupancy
	Place(ctx context.Context, matchID, entity string, cell engine.Cell) (*PlacementResult, error)
	Spawn(ctx context.Context, matchID, entity string) (*PlacementResult, error)
	Relocate(ctx context.Context, matchID, entity string, cell engine.Cell) (*PlacementResult, error)
	Remove(ctx context.Context, matchID, entity string) error
	Position(ctx context.Context, matchID, entity string) (*EntityInfo, error)
	Occupants(ctx context.Context, matchID string, cell engine.Cell) (*CellInfo, error)
	Entities(ctx context.Context, matchID string) ([]EntityInfo, error)

	// Geometry
	LegalMoves(ctx context.Context, matchID string, origin engine.Cell, n int) (*RangeResult, error)
	BulletPath(ctx context.Context, matchID string, origin, target engine.Cell, maxRange int) (*PathResult, error)
	UnitPath(ctx context.Context, matchID string, origin, dest engine.Cell) (*PathResult, error)
	Distance(ctx context.Context, a, b engine.Cell) (*DistanceResult, error)
	Victims(ctx context.Context, matchID, shooter string, target engine.Cell) (*VictimsResult, error)
	Advance(ctx context.Context, matchID, entity string, dest engine.Cell, steps int) (*AdvanceResult, error)

	// Configuration
	ListConfigs(ctx context.Context) ([]*ConfigInfo, error)
	LoadConfig(ctx context.Context, configName string) (*engine.MatchConfig, error)
	SaveConfig(ctx context.Context, configName string, config *engine.MatchConfig) error
}

// SessionManager defines match storage operations
type SessionManager interface {
	Create(id, configID string, config *engine.MatchConfig) (*Session, error)
	Get(id string) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
}

// ConfigManager handles match configuration loading
type ConfigManager interface {
	LoadConfig(name string) (*engine.MatchConfig, error)
	ListConfigs() ([]*ConfigInfo, error)
	GetDefault() *engine.MatchConfig
	SaveConfig(name string, config *engine.MatchConfig) error
}

// Notifier receives match events after a mutation completes. The websocket
// hub implements it.
type Notifier interface {
	Notify(matchID string, event Event)
}

// Session represents an active match. Engine is not safe for concurrent use;
// the service holds the session lock around every engine call.
type Session struct {
	ID        string
	ConfigID  string
	Engine    *engine.Engine[string]
	Config    *engine.MatchConfig
	CreatedAt time.Time

	lastAccess atomic.Int64
	mu         sync.Mutex
}

// NewSession wraps an engine built for config
func NewSession(id, configID string, eng *engine.Engine[string], config *engine.MatchConfig) *Session {
	s := &Session{
		ID:        id,
		ConfigID:  configID,
		Engine:    eng,
		Config:    config,
		CreatedAt: time.Now(),
	}
	s.Touch()
	return s
}

// Touch records an access at the current time
func (s *Session) Touch() {
	s.lastAccess.Store(time.Now().UnixNano())
}

// SetLastAccessed overrides the access time
func (s *Session) SetLastAccessed(t time.Time) {
	s.lastAccess.Store(t.UnixNano())
}

// LastAccessed returns the time of the most recent access
func (s *Session) LastAccessed() time.Time {
	return time.Unix(0, s.lastAccess.Load())
}
