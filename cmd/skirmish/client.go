package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/wricardo/mcp-training/tacticalgrid/game/engine"
	"github.com/wricardo/mcp-training/tacticalgrid/game/service"
)

// Client drives one match through the REST API
type Client struct {
	baseURL string
	matchID string
	client  *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// CreateMatch starts a match from a named config and remembers its ID
func (c *Client) CreateMatch(ctx context.Context, configName string) (*service.MatchInfo, error) {
	var body interface{}
	if configName != "" {
		body = map[string]string{"config_id": configName}
	}

	var match service.MatchInfo
	if err := c.do(ctx, http.MethodPost, "/api/matches", body, &match); err != nil {
		return nil, fmt.Errorf("create match: %w", err)
	}
	c.matchID = match.ID
	return &match, nil
}

// UseMatch points the client at an existing match
func (c *Client) UseMatch(matchID string) {
	c.matchID = matchID
}

func (c *Client) GetMatch(ctx context.Context) (*service.MatchInfo, error) {
	var match service.MatchInfo
	if err := c.do(ctx, http.MethodGet, c.matchPath(), nil, &match); err != nil {
		return nil, fmt.Errorf("get match: %w", err)
	}
	return &match, nil
}

func (c *Client) DeleteMatch(ctx context.Context) error {
	if err := c.do(ctx, http.MethodDelete, c.matchPath(), nil, nil); err != nil {
		return fmt.Errorf("delete match: %w", err)
	}
	return nil
}

// Advance walks entity toward dest by at most steps cells
func (c *Client) Advance(ctx context.Context, entity string, dest engine.Cell, steps int) (*service.AdvanceResult, error) {
	body := map[string]int{"x": dest.X, "y": dest.Y, "steps": steps}

	var result service.AdvanceResult
	if err := c.do(ctx, http.MethodPost, c.entityPath(entity)+"/advance", body, &result); err != nil {
		return nil, fmt.Errorf("advance %s: %w", entity, err)
	}
	return &result, nil
}

// Victims lists who a shot from shooter toward target would cross
func (c *Client) Victims(ctx context.Context, shooter string, target engine.Cell) (*service.VictimsResult, error) {
	query := url.Values{}
	query.Set("shooter", shooter)
	query.Set("x", strconv.Itoa(target.X))
	query.Set("y", strconv.Itoa(target.Y))

	var result service.VictimsResult
	if err := c.do(ctx, http.MethodGet, c.matchPath()+"/victims?"+query.Encode(), nil, &result); err != nil {
		return nil, fmt.Errorf("victims for %s: %w", shooter, err)
	}
	return &result, nil
}

func (c *Client) Remove(ctx context.Context, entity string) error {
	if err := c.do(ctx, http.MethodDelete, c.entityPath(entity), nil, nil); err != nil {
		return fmt.Errorf("remove %s: %w", entity, err)
	}
	return nil
}

func (c *Client) matchPath() string {
	return "/api/matches/" + url.PathEscape(c.matchID)
}

func (c *Client) entityPath(entity string) string {
	return c.matchPath() + "/entities/" + url.PathEscape(entity)
}

func (c *Client) do(ctx context.Context, method, path string, body, target interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s: %s", resp.Status, apiErr.Error)
		}
		return fmt.Errorf("%s", resp.Status)
	}

	if target == nil {
		return nil
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}
