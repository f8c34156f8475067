package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/wricardo/mcp-training/tacticalgrid/game/engine"
	"github.com/wricardo/mcp-training/tacticalgrid/game/service"
)

// defaultBoardRadius is the half-width of the render_board window when the
// caller omits one
const defaultBoardRadius = 10

// maxBoardRadius keeps rendered boards readable
const maxBoardRadius = 40

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
	logger     *zap.Logger
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Tactical Grid",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Tactical Grid - MCP Interface

This is a thin client that proxies all requests to the REST API server.

A match is an N x N board of integer cells (x, y), 0 <= x, y < N. Entities
are placed on cells; several entities may share a cell. The server answers
geometric questions for game rules but never decides outcomes.

AVAILABLE TOOLS:
- create_match / list_matches / get_match / list_configs
- place_entity, spawn_entity, move_entity, remove_entity
- entity_position, cell_occupants, render_board
- legal_moves: cells reachable within a move budget
- bullet_path: cells a projectile crosses toward a target, up to a range
- unit_path: exact step-by-step walk between two cells
- victims: entities standing on a shooter's bullet path
- advance_entity: walk an entity part of the way toward a destination
- distance: Euclidean, Manhattan and Chebyshev distance

Omitted budgets, ranges and speeds fall back to the match config.`),
	)

	c.registerTools()
}

// Schema helpers
func stringProp(description string) map[string]interface{} {
	return map[string]interface{}{"type": "string", "description": description}
}

func intProp(description string) map[string]interface{} {
	return map[string]interface{}{"type": "integer", "description": description}
}

func matchProp() map[string]interface{} {
	return stringProp("Match ID")
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Match management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_match",
		Description: "Create a new match with optional config selection",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config_name": stringProp("Name of the config to use (optional)"),
			},
		},
	}, c.handleCreateMatch)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_matches",
		Description: "List all active matches",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListMatches)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_match",
		Description: "Get details of a match including every placed entity",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"match_id": matchProp(),
			},
			Required: []string{"match_id"},
		},
	}, c.handleGetMatch)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available match configurations",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListConfigs)

	// Occupancy
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "place_entity",
		Description: "Place an entity on a cell. Off-grid cells are ignored and reported as not placed",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"match_id": matchProp(),
				"entity":   stringProp("Entity ID (generated when omitted)"),
				"x":        intProp("Column"),
				"y":        intProp("Row"),
			},
			Required: []string{"match_id", "x", "y"},
		},
	}, c.handlePlaceEntity)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "spawn_entity",
		Description: "Place an entity on a random valid cell",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"match_id": matchProp(),
				"entity":   stringProp("Entity ID (generated when omitted)"),
			},
			Required: []string{"match_id"},
		},
	}, c.handleSpawnEntity)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move_entity",
		Description: "Relocate a placed entity directly to a cell",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"match_id": matchProp(),
				"entity":   stringProp("Entity ID"),
				"x":        intProp("Destination column"),
				"y":        intProp("Destination row"),
			},
			Required: []string{"match_id", "entity", "x", "y"},
		},
	}, c.handleMoveEntity)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "remove_entity",
		Description: "Take an entity off the board",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"match_id": matchProp(),
				"entity":   stringProp("Entity ID"),
			},
			Required: []string{"match_id", "entity"},
		},
	}, c.handleRemoveEntity)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "entity_position",
		Description: "Get the cell an entity occupies",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"match_id": matchProp(),
				"entity":   stringProp("Entity ID"),
			},
			Required: []string{"match_id", "entity"},
		},
	}, c.handleEntityPosition)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "cell_occupants",
		Description: "List the entities on a cell",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"match_id": matchProp(),
				"x":        intProp("Column"),
				"y":        intProp("Row"),
			},
			Required: []string{"match_id", "x", "y"},
		},
	}, c.handleCellOccupants)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "render_board",
		Description: "Render an ASCII window of the board around a cell",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"match_id": matchProp(),
				"x":        intProp("Window center column (default: board center)"),
				"y":        intProp("Window center row (default: board center)"),
				"radius":   intProp(fmt.Sprintf("Cells shown on each side of the center (default %d, max %d)", defaultBoardRadius, maxBoardRadius)),
			},
			Required: []string{"match_id"},
		},
	}, c.handleRenderBoard)

	// Geometry
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "legal_moves",
		Description: "Cells reachable from an origin within a move budget",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"match_id": matchProp(),
				"x":        intProp("Origin column"),
				"y":        intProp("Origin row"),
				"n":        intProp("Move budget (default: match config)"),
			},
			Required: []string{"match_id", "x", "y"},
		},
	}, c.handleLegalMoves)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "bullet_path",
		Description: "Cells a projectile crosses from an origin toward a target, stopping at the range or the grid edge",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"match_id": matchProp(),
				"from_x":   intProp("Origin column"),
				"from_y":   intProp("Origin row"),
				"to_x":     intProp("Target column"),
				"to_y":     intProp("Target row"),
				"range":    intProp("Maximum cells travelled (default: match config)"),
			},
			Required: []string{"match_id", "from_x", "from_y", "to_x", "to_y"},
		},
	}, c.handleBulletPath)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "unit_path",
		Description: "Exact step-by-step walk from an origin to a destination",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"match_id": matchProp(),
				"from_x":   intProp("Origin column"),
				"from_y":   intProp("Origin row"),
				"to_x":     intProp("Destination column"),
				"to_y":     intProp("Destination row"),
			},
			Required: []string{"match_id", "from_x", "from_y", "to_x", "to_y"},
		},
	}, c.handleUnitPath)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "distance",
		Description: "Distance between two cells",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"from_x": intProp("First column"),
				"from_y": intProp("First row"),
				"to_x":   intProp("Second column"),
				"to_y":   intProp("Second row"),
			},
			Required: []string{"from_x", "from_y", "to_x", "to_y"},
		},
	}, c.handleDistance)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "victims",
		Description: "Entities standing on a shooter's bullet path toward a target, nearest first",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"match_id": matchProp(),
				"shooter":  stringProp("Shooting entity ID"),
				"x":        intProp("Target column"),
				"y":        intProp("Target row"),
			},
			Required: []string{"match_id", "shooter", "x", "y"},
		},
	}, c.handleVictims)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "advance_entity",
		Description: "Walk an entity along its unit path toward a destination by at most steps cells",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"match_id": matchProp(),
				"entity":   stringProp("Entity ID"),
				"x":        intProp("Destination column"),
				"y":        intProp("Destination row"),
				"steps":    intProp("Cells to walk this turn (default: match unit speed)"),
			},
			Required: []string{"match_id", "entity", "x", "y"},
		},
	}, c.handleAdvanceEntity)
}

// GetMCPServer returns the underlying MCP server
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// apiCall makes an HTTP request to the REST API
func (c *Client) apiCall(method, path string, body interface{}, result interface{}) error {
	endpoint := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, endpoint, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("api call failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

// Argument helpers. JSON numbers arrive as float64.

func stringArg(args map[string]interface{}, key string) string {
	s, _ := args[key].(string)
	return s
}

func intArg(args map[string]interface{}, key string) (int, bool) {
	switch v := args[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case json.Number:
		n, err := v.Int64()
		return int(n), err == nil
	}
	return 0, false
}

func requireInts(args map[string]interface{}, keys ...string) ([]int, error) {
	out := make([]int, len(keys))
	for i, key := range keys {
		v, ok := intArg(args, key)
		if !ok {
			return nil, fmt.Errorf("%s is required and must be an integer", key)
		}
		out[i] = v
	}
	return out, nil
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		args = map[string]interface{}{}
	}
	return args
}

func matchPath(matchID, suffix string) string {
	return "/api/matches/" + url.PathEscape(matchID) + suffix
}

// Tool handlers

func (c *Client) handleCreateMatch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	body := map[string]string{}
	if configName := stringArg(args, "config_name"); configName != "" {
		body["config_id"] = configName
	}

	var match service.MatchInfo
	if err := c.apiCall("POST", "/api/matches", body, &match); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatMatchInfo(&match)), nil
}

func (c *Client) handleListMatches(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Matches []service.MatchInfo `json:"matches"`
	}
	if err := c.apiCall("GET", "/api/matches", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if len(response.Matches) == 0 {
		return mcp.NewToolResultText("No active matches"), nil
	}

	var result strings.Builder
	result.WriteString(fmt.Sprintf("Active matches (%d):\n", len(response.Matches)))
	for _, m := range response.Matches {
		result.WriteString(fmt.Sprintf("- %s (config: %s, %dx%d, %d entities, last accessed %s)\n",
			m.ID, m.ConfigName, m.GridSize, m.GridSize, m.EntityCount,
			m.LastAccessedAt.Format("2006-01-02 15:04:05")))
	}
	return mcp.NewToolResultText(result.String()), nil
}

func (c *Client) handleGetMatch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	matchID := stringArg(arguments(request), "match_id")

	var match service.MatchInfo
	if err := c.apiCall("GET", matchPath(matchID, ""), nil, &match); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatMatchInfo(&match)), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	if err := c.apiCall("GET", "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result strings.Builder
	result.WriteString("Available configurations:\n")
	for _, cfg := range configs {
		result.WriteString(fmt.Sprintf("- %s: %s (%dx%d, bullet range %d, move budget %d, speed %d, %d entities)\n  %s\n",
			cfg.ConfigID, cfg.Name, cfg.GridSize, cfg.GridSize,
			cfg.BulletRange, cfg.MoveBudget, cfg.UnitSpeed, cfg.Entities, cfg.Description))
	}
	return mcp.NewToolResultText(result.String()), nil
}

func (c *Client) handlePlaceEntity(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	xy, err := requireInts(args, "x", "y")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	body := map[string]interface{}{"entity": stringArg(args, "entity"), "x": xy[0], "y": xy[1]}
	var result service.PlacementResult
	if err := c.apiCall("POST", matchPath(stringArg(args, "match_id"), "/entities"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatPlacement("placed", &result)), nil
}

func (c *Client) handleSpawnEntity(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	body := map[string]interface{}{"entity": stringArg(args, "entity")}
	var result service.PlacementResult
	if err := c.apiCall("POST", matchPath(stringArg(args, "match_id"), "/spawn"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatPlacement("spawned", &result)), nil
}

func (c *Client) handleMoveEntity(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	xy, err := requireInts(args, "x", "y")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	entity := stringArg(args, "entity")
	body := map[string]interface{}{"x": xy[0], "y": xy[1]}
	var result service.PlacementResult
	if err := c.apiCall("PUT", matchPath(stringArg(args, "match_id"), "/entities/"+url.PathEscape(entity)), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatPlacement("moved", &result)), nil
}

func (c *Client) handleRemoveEntity(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	entity := stringArg(args, "entity")

	if err := c.apiCall("DELETE", matchPath(stringArg(args, "match_id"), "/entities/"+url.PathEscape(entity)), nil, nil); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Removed %s from the board", entity)), nil
}

func (c *Client) handleEntityPosition(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	entity := stringArg(args, "entity")

	var info service.EntityInfo
	if err := c.apiCall("GET", matchPath(stringArg(args, "match_id"), "/entities/"+url.PathEscape(entity)), nil, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("%s is at %s", info.Entity, info.Cell)), nil
}

func (c *Client) handleCellOccupants(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	xy, err := requireInts(args, "x", "y")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var info service.CellInfo
	path := matchPath(stringArg(args, "match_id"), fmt.Sprintf("/cells/%d/%d", xy[0], xy[1]))
	if err := c.apiCall("GET", path, nil, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if len(info.Occupants) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("%s is empty", info.Cell)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s holds %d: %s", info.Cell, len(info.Occupants), strings.Join(info.Occupants, ", "))), nil
}

func (c *Client) handleRenderBoard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	var match service.MatchInfo
	if err := c.apiCall("GET", matchPath(stringArg(args, "match_id"), ""), nil, &match); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	center := engine.Cell{X: match.GridSize / 2, Y: match.GridSize / 2}
	if x, ok := intArg(args, "x"); ok {
		center.X = x
	}
	if y, ok := intArg(args, "y"); ok {
		center.Y = y
	}
	radius := defaultBoardRadius
	if r, ok := intArg(args, "radius"); ok {
		radius = r
	}
	if radius < 0 || radius > maxBoardRadius {
		return mcp.NewToolResultError(fmt.Sprintf("radius must be between 0 and %d", maxBoardRadius)), nil
	}

	return mcp.NewToolResultText(formatBoard(match.GridSize, match.Entities, center, radius)), nil
}

func (c *Client) handleLegalMoves(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	xy, err := requireInts(args, "x", "y")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	query := url.Values{}
	query.Set("x", fmt.Sprint(xy[0]))
	query.Set("y", fmt.Sprint(xy[1]))
	if n, ok := intArg(args, "n"); ok {
		query.Set("n", fmt.Sprint(n))
	}

	var result struct {
		Origin engine.Cell   `json:"origin"`
		Budget int           `json:"budget"`
		Count  int           `json:"count"`
		Cells  []engine.Cell `json:"cells"`
	}
	if err := c.apiCall("GET", matchPath(stringArg(args, "match_id"), "/legal-moves?"+query.Encode()), nil, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("%d cells reachable from %s within %d moves:\n%s",
		result.Count, result.Origin, result.Budget, formatCells(result.Cells))), nil
}

func (c *Client) handleBulletPath(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	coords, err := requireInts(args, "from_x", "from_y", "to_x", "to_y")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	query := pathQuery(coords)
	if r, ok := intArg(args, "range"); ok {
		query.Set("range", fmt.Sprint(r))
	}

	var result service.PathResult
	if err := c.apiCall("GET", matchPath(stringArg(args, "match_id"), "/bullet-path?"+query.Encode()), nil, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Bullet from %s toward %s crosses %d cells (range %d):\n%s",
		result.Origin, result.Target, result.Length, result.MaxRange, formatCells(result.Path))), nil
}

func (c *Client) handleUnitPath(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	coords, err := requireInts(args, "from_x", "from_y", "to_x", "to_y")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result service.PathResult
	if err := c.apiCall("GET", matchPath(stringArg(args, "match_id"), "/unit-path?"+pathQuery(coords).Encode()), nil, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Walk from %s to %s takes %d steps:\n%s",
		result.Origin, result.Target, result.Length, formatCells(result.Path))), nil
}

func (c *Client) handleDistance(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	coords, err := requireInts(arguments(request), "from_x", "from_y", "to_x", "to_y")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result service.DistanceResult
	if err := c.apiCall("GET", "/api/distance?"+pathQuery(coords).Encode(), nil, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Distance %s -> %s: euclidean %.3f, manhattan %d, chebyshev %d",
		result.From, result.To, result.Euclidean, result.Manhattan, result.Chebyshev)), nil
}

func (c *Client) handleVictims(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	xy, err := requireInts(args, "x", "y")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	query := url.Values{}
	query.Set("shooter", stringArg(args, "shooter"))
	query.Set("x", fmt.Sprint(xy[0]))
	query.Set("y", fmt.Sprint(xy[1]))

	var result service.VictimsResult
	if err := c.apiCall("GET", matchPath(stringArg(args, "match_id"), "/victims?"+query.Encode()), nil, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatVictims(&result)), nil
}

func (c *Client) handleAdvanceEntity(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	xy, err := requireInts(args, "x", "y")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	body := map[string]interface{}{"x": xy[0], "y": xy[1]}
	if steps, ok := intArg(args, "steps"); ok {
		body["steps"] = steps
	}

	entity := stringArg(args, "entity")
	var result service.AdvanceResult
	if err := c.apiCall("POST", matchPath(stringArg(args, "match_id"), "/entities/"+url.PathEscape(entity)+"/advance"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatAdvance(&result)), nil
}

func pathQuery(coords []int) url.Values {
	query := url.Values{}
	query.Set("from_x", fmt.Sprint(coords[0]))
	query.Set("from_y", fmt.Sprint(coords[1]))
	query.Set("to_x", fmt.Sprint(coords[2]))
	query.Set("to_y", fmt.Sprint(coords[3]))
	return query
}

// Formatting

func formatMatchInfo(match *service.MatchInfo) string {
	var result strings.Builder
	result.WriteString(fmt.Sprintf("Match: %s\nConfig: %s\nGrid: %dx%d\nCreated: %s\nEntities (%d):\n",
		match.ID, match.ConfigName, match.GridSize, match.GridSize,
		match.CreatedAt.Format("2006-01-02 15:04:05"), match.EntityCount))
	for _, e := range match.Entities {
		result.WriteString(fmt.Sprintf("  %s at %s\n", e.Entity, e.Cell))
	}
	return result.String()
}

func formatPlacement(verb string, result *service.PlacementResult) string {
	if !result.Placed {
		return fmt.Sprintf("✗ %s not %s: %s is off the board", result.Entity, verb, result.Cell)
	}
	if result.From != nil {
		return fmt.Sprintf("✓ %s %s from %s to %s", result.Entity, verb, *result.From, result.Cell)
	}
	return fmt.Sprintf("✓ %s %s at %s", result.Entity, verb, result.Cell)
}

func formatCells(cells []engine.Cell) string {
	parts := make([]string, len(cells))
	for i, c := range cells {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}

func formatVictims(result *service.VictimsResult) string {
	if len(result.Victims) == 0 {
		return fmt.Sprintf("%s at %s has a clear shot toward %s (%d cells)",
			result.Shooter, result.From, result.Target, len(result.Path))
	}

	var out strings.Builder
	out.WriteString(fmt.Sprintf("%s at %s firing toward %s would hit, nearest first:\n",
		result.Shooter, result.From, result.Target))
	for i, v := range result.Victims {
		out.WriteString(fmt.Sprintf("  %d. %s at %s\n", i+1, v.Entity, v.Cell))
	}
	return out.String()
}

func formatAdvance(result *service.AdvanceResult) string {
	status := fmt.Sprintf("%d cells remaining", result.Remaining)
	if result.Arrived {
		status = "arrived"
	}
	return fmt.Sprintf("%s advanced %d steps from %s to %s toward %s (%s)\nWalked: %s",
		result.Entity, result.Steps, result.From, result.To, result.Destination, status, formatCells(result.Walked))
}

// formatBoard draws the cells within radius of center. '.' is an empty
// cell, a letter is the first character of a lone occupant, a digit counts
// a shared cell ('+' above nine) and ' ' is outside the grid.
func formatBoard(size int, entities []service.EntityInfo, center engine.Cell, radius int) string {
	occupants := make(map[engine.Cell][]string)
	for _, e := range entities {
		occupants[e.Cell] = append(occupants[e.Cell], e.Entity)
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Board %dx%d around %s (radius %d)\n", size, size, center, radius))

	for y := center.Y - radius; y <= center.Y+radius; y++ {
		b.WriteString(fmt.Sprintf("%4d ", y))
		for x := center.X - radius; x <= center.X+radius; x++ {
			if x < 0 || y < 0 || x >= size || y >= size {
				b.WriteByte(' ')
				continue
			}
			names := occupants[engine.Cell{X: x, Y: y}]
			switch {
			case len(names) == 0:
				b.WriteByte('.')
			case len(names) == 1 && names[0] != "":
				b.WriteString(strings.ToUpper(names[0][:1]))
			case len(names) > 9:
				b.WriteByte('+')
			default:
				b.WriteString(fmt.Sprint(len(names)))
			}
		}
		b.WriteByte('\n')
	}

	// Legend for every entity visible in the window
	var legend []string
	for _, e := range entities {
		if abs(e.Cell.X-center.X) <= radius && abs(e.Cell.Y-center.Y) <= radius {
			legend = append(legend, fmt.Sprintf("%s %s", e.Entity, e.Cell))
		}
	}
	if len(legend) > 0 {
		b.WriteString("\nVisible: " + strings.Join(legend, ", ") + "\n")
	}
	return b.String()
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
