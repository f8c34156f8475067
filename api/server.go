package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/wricardo/mcp-training/tacticalgrid/game/config"
	"github.com/wricardo/mcp-training/tacticalgrid/game/engine"
	"github.com/wricardo/mcp-training/tacticalgrid/game/service"
	"github.com/wricardo/mcp-training/tacticalgrid/transport/websocket"
)

// Server represents the REST API server
type Server struct {
	service service.MatchService
	hub     *websocket.Hub
	router  *mux.Router
	logger  *zap.Logger
}

// NewServer creates a new API server. hub and logger may be nil.
func NewServer(matchService service.MatchService, hub *websocket.Hub, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		service: matchService,
		hub:     hub,
		router:  mux.NewRouter(),
		logger:  logger,
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/health", s.handleHealth).Methods("GET")

	// Match management
	api.HandleFunc("/matches", s.handleCreateMatch).Methods("POST")
	api.HandleFunc("/matches", s.handleListMatches).Methods("GET")
	api.HandleFunc("/matches/{id}", s.handleGetMatch).Methods("GET")
	api.HandleFunc("/matches/{id}", s.handleDeleteMatch).Methods("DELETE")

	// Occupancy
	api.HandleFunc("/matches/{id}/entities", s.handleListEntities).Methods("GET")
	api.HandleFunc("/matches/{id}/entities", s.handlePlaceEntity).Methods("POST")
	api.HandleFunc("/matches/{id}/spawn", s.handleSpawnEntity).Methods("POST")
	api.HandleFunc("/matches/{id}/entities/{entity}", s.handleGetEntity).Methods("GET")
	api.HandleFunc("/matches/{id}/entities/{entity}", s.handleRelocateEntity).Methods("PUT")
	api.HandleFunc("/matches/{id}/entities/{entity}", s.handleRemoveEntity).Methods("DELETE")
	api.HandleFunc("/matches/{id}/entities/{entity}/advance", s.handleAdvanceEntity).Methods("POST")
	api.HandleFunc("/matches/{id}/cells/{x}/{y}", s.handleCellOccupants).Methods("GET")

	// Geometry
	api.HandleFunc("/matches/{id}/legal-moves", s.handleLegalMoves).Methods("GET")
	api.HandleFunc("/matches/{id}/bullet-path", s.handleBulletPath).Methods("GET")
	api.HandleFunc("/matches/{id}/unit-path", s.handleUnitPath).Methods("GET")
	api.HandleFunc("/matches/{id}/victims", s.handleVictims).Methods("GET")
	api.HandleFunc("/distance", s.handleDistance).Methods("GET")

	// Configuration
	api.HandleFunc("/configs", s.handleListConfigs).Methods("GET")
	api.HandleFunc("/configs", s.handleCreateConfig).Methods("POST")
	api.HandleFunc("/configs/{name}", s.handleGetConfig).Methods("GET")

	// WebSocket
	s.router.HandleFunc("/ws", s.handleWebSocket)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps service sentinels to HTTP status codes
func respondServiceError(w http.ResponseWriter, err error) {
	respondError(w, statusFor(err), err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrMatchNotFound),
		errors.Is(err, service.ErrEntityNotPlaced),
		errors.Is(err, config.ErrConfigNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidCell),
		errors.Is(err, service.ErrInvalidArgument),
		errors.Is(err, engine.ErrOutOfBounds),
		errors.Is(err, config.ErrInvalidConfig):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Parameter helpers

// cellParam reads a required cell from two query parameters
func cellParam(q url.Values, xKey, yKey string) (engine.Cell, error) {
	x, err := strconv.Atoi(q.Get(xKey))
	if err != nil {
		return engine.Cell{}, fmt.Errorf("query parameter %s must be an integer", xKey)
	}
	y, err := strconv.Atoi(q.Get(yKey))
	if err != nil {
		return engine.Cell{}, fmt.Errorf("query parameter %s must be an integer", yKey)
	}
	return engine.Cell{X: x, Y: y}, nil
}

// intParam reads an optional integer query parameter
func intParam(q url.Values, key string, def int) (int, error) {
	raw := q.Get(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("query parameter %s must be an integer", key)
	}
	return v, nil
}

// cellRequest is the body accepted by placement and movement endpoints
type cellRequest struct {
	Entity string `json:"entity,omitempty"`
	X      *int   `json:"x"`
	Y      *int   `json:"y"`
	Steps  *int   `json:"steps,omitempty"`
}

func (c cellRequest) cell() (engine.Cell, error) {
	if c.X == nil || c.Y == nil {
		return engine.Cell{}, errors.New("x and y are required")
	}
	return engine.Cell{X: *c.X, Y: *c.Y}, nil
}

// Match Handlers

func (s *Server) handleCreateMatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ConfigID string `json:"config_id,omitempty"`
	}

	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}

	match, err := s.service.CreateMatch(r.Context(), req.ConfigID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, match)
}

func (s *Server) handleListMatches(w http.ResponseWriter, r *http.Request) {
	matches, err := s.service.ListMatches(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	query := r.URL.Query()
	sortBy := query.Get("sort")    // "created", "accessed" (default)
	order := query.Get("order")    // "asc", "desc" (default: "desc")
	limitStr := query.Get("limit") // number of matches to return

	if sortBy == "" {
		sortBy = "accessed"
	}
	if order == "" {
		order = "desc"
	}

	sort.SliceStable(matches, func(i, j int) bool {
		var ti, tj time.Time
		if sortBy == "created" {
			ti, tj = matches[i].CreatedAt, matches[j].CreatedAt
		} else {
			ti, tj = matches[i].LastAccessedAt, matches[j].LastAccessedAt
		}

		if order == "asc" {
			return ti.Before(tj)
		}
		return ti.After(tj)
	})

	total := len(matches)
	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l < len(matches) {
			matches = matches[:l]
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(matches),
		"total":   total,
		"matches": matches,
		"sort":    sortBy,
		"order":   order,
	})
}

func (s *Server) handleGetMatch(w http.ResponseWriter, r *http.Request) {
	matchID := mux.Vars(r)["id"]

	match, err := s.service.GetMatch(r.Context(), matchID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, match)
}

func (s *Server) handleDeleteMatch(w http.ResponseWriter, r *http.Request) {
	matchID := mux.Vars(r)["id"]

	if err := s.service.DeleteMatch(r.Context(), matchID); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Match %s deleted", matchID),
	})
}

// Occupancy Handlers

func (s *Server) handleListEntities(w http.ResponseWriter, r *http.Request) {
	matchID := mux.Vars(r)["id"]

	entities, err := s.service.Entities(r.Context(), matchID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(entities),
		"entities": entities,
	})
}

func (s *Server) handlePlaceEntity(w http.ResponseWriter, r *http.Request) {
	matchID := mux.Vars(r)["id"]

	var req cellRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	cell, err := req.cell()
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.service.Place(r.Context(), matchID, req.Entity, cell)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.logger.Info("place",
		zap.String("match", matchID),
		zap.String("entity", result.Entity),
		zap.Stringer("to", result.Cell),
		zap.Bool("placed", result.Placed))

	status := http.StatusCreated
	if !result.Placed {
		status = http.StatusOK
	}
	respondJSON(w, status, result)
}

func (s *Server) handleSpawnEntity(w http.ResponseWriter, r *http.Request) {
	matchID := mux.Vars(r)["id"]

	var req cellRequest
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}

	result, err := s.service.Spawn(r.Context(), matchID, req.Entity)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.logger.Info("spawn",
		zap.String("match", matchID),
		zap.String("entity", result.Entity),
		zap.Stringer("to", result.Cell))

	respondJSON(w, http.StatusCreated, result)
}

func (s *Server) handleGetEntity(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	info, err := s.service.Position(r.Context(), vars["id"], vars["entity"])
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, info)
}

func (s *Server) handleRelocateEntity(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	matchID, entity := vars["id"], vars["entity"]

	var req cellRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	cell, err := req.cell()
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.service.Relocate(r.Context(), matchID, entity, cell)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.logger.Info("move",
		zap.String("match", matchID),
		zap.String("entity", entity),
		zap.Stringer("from", result.From),
		zap.Stringer("to", result.Cell),
		zap.Bool("moved", result.Placed))

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleRemoveEntity(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	matchID, entity := vars["id"], vars["entity"]

	if err := s.service.Remove(r.Context(), matchID, entity); err != nil {
		respondServiceError(w, err)
		return
	}

	s.logger.Info("remove", zap.String("match", matchID), zap.String("entity", entity))

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Entity %s removed", entity),
	})
}

func (s *Server) handleAdvanceEntity(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	matchID, entity := vars["id"], vars["entity"]

	var req cellRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	dest, err := req.cell()
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	steps := -1
	if req.Steps != nil {
		steps = *req.Steps
	}

	result, err := s.service.Advance(r.Context(), matchID, entity, dest, steps)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.logger.Info("advance",
		zap.String("match", matchID),
		zap.String("entity", entity),
		zap.Stringer("from", result.From),
		zap.Stringer("to", result.To),
		zap.Int("steps", result.Steps),
		zap.Bool("arrived", result.Arrived))

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleCellOccupants(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	x, errX := strconv.Atoi(vars["x"])
	y, errY := strconv.Atoi(vars["y"])
	if errX != nil || errY != nil {
		respondError(w, http.StatusBadRequest, "x and y must be integers")
		return
	}

	info, err := s.service.Occupants(r.Context(), vars["id"], engine.Cell{X: x, Y: y})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, info)
}

// Geometry Handlers

func (s *Server) handleLegalMoves(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	origin, err := cellParam(query, "x", "y")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	n, err := intParam(query, "n", -1)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.service.LegalMoves(r.Context(), mux.Vars(r)["id"], origin, n)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleBulletPath(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	origin, err := cellParam(query, "from_x", "from_y")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	target, err := cellParam(query, "to_x", "to_y")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	maxRange, err := intParam(query, "range", -1)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.service.BulletPath(r.Context(), mux.Vars(r)["id"], origin, target, maxRange)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleUnitPath(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	origin, err := cellParam(query, "from_x", "from_y")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	dest, err := cellParam(query, "to_x", "to_y")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.service.UnitPath(r.Context(), mux.Vars(r)["id"], origin, dest)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleVictims(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	shooter := query.Get("shooter")
	if shooter == "" {
		respondError(w, http.StatusBadRequest, "shooter parameter required")
		return
	}
	target, err := cellParam(query, "x", "y")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.service.Victims(r.Context(), mux.Vars(r)["id"], shooter, target)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleDistance(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	from, err := cellParam(query, "from_x", "from_y")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	to, err := cellParam(query, "to_x", "to_y")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.service.Distance(r.Context(), from, to)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// Configuration Handlers

func (s *Server) handleListConfigs(w http.ResponseWriter, r *http.Request) {
	configs, err := s.service.ListConfigs(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, configs)
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	configName := mux.Vars(r)["name"]

	matchConfig, err := s.service.LoadConfig(r.Context(), configName)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, matchConfig)
}

func (s *Server) handleCreateConfig(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ConfigID string `json:"config_id"`
		engine.MatchConfig
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "Config name is required")
		return
	}
	configID := req.ConfigID
	if configID == "" {
		configID = req.Name
	}

	if err := s.service.SaveConfig(r.Context(), configID, &req.MatchConfig); err != nil {
		respondError(w, statusFor(err), fmt.Sprintf("Failed to save config: %v", err))
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message":   "Configuration saved successfully",
		"config_id": configID,
	})
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	matchID := r.URL.Query().Get("match")
	if matchID == "" {
		http.Error(w, "match parameter required", http.StatusBadRequest)
		return
	}
	if s.hub == nil {
		http.Error(w, "websocket updates disabled", http.StatusServiceUnavailable)
		return
	}

	if _, err := s.service.GetMatch(r.Context(), matchID); err != nil {
		http.Error(w, "Invalid match", http.StatusNotFound)
		return
	}

	s.hub.ServeWS(w, r, matchID)
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
