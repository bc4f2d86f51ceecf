package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/wricardo/mcp-training/blockworld/game/engine"
	"github.com/wricardo/mcp-training/blockworld/game/service"
)

// Client drives one session of a running block world server over REST
type Client struct {
	baseURL   string
	sessionID string
	client    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SessionID returns the session the client is playing
func (c *Client) SessionID() string {
	return c.sessionID
}

// UseSession points the client at an existing session
func (c *Client) UseSession(id string) {
	c.sessionID = id
}

func (c *Client) CreateSession(ctx context.Context, configID string) (*engine.WorldState, error) {
	var body interface{}
	if configID != "" {
		body = map[string]string{"config_id": configID}
	}

	var session service.SessionInfo
	if err := c.do(ctx, http.MethodPost, "/api/sessions", body, &session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	c.sessionID = session.ID
	return session.WorldState, nil
}

func (c *Client) GetState(ctx context.Context) (*engine.WorldState, error) {
	var state engine.WorldState
	if err := c.do(ctx, http.MethodGet, c.sessionPath("/state"), nil, &state); err != nil {
		return nil, fmt.Errorf("get state: %w", err)
	}
	return &state, nil
}

func (c *Client) Grasp(ctx context.Context, pos engine.Position) (*service.ActionResult, error) {
	return c.command(ctx, "/grasp", pos)
}

func (c *Client) MoveTo(ctx context.Context, pos engine.Position) (*service.ActionResult, error) {
	return c.command(ctx, "/move", pos)
}

// ExportLog asks the server to append the session's action log to its file
func (c *Client) ExportLog(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, c.sessionPath("/log"), nil, nil)
}

// command sends a grasp or move. A rejected command is not an error here;
// the caller inspects Success on the result.
func (c *Client) command(ctx context.Context, suffix string, pos engine.Position) (*service.ActionResult, error) {
	var result service.ActionResult
	if err := c.do(ctx, http.MethodPost, c.sessionPath(suffix), pos, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) sessionPath(suffix string) string {
	return "/api/sessions/" + url.PathEscape(c.sessionID) + suffix
}

func (c *Client) do(ctx context.Context, method, path string, body, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
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
	if resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s - %s", resp.Status, apiErr.Error)
		}
		return fmt.Errorf("%s - %s", resp.Status, string(data))
	}

	if result == nil {
		return nil
	}
	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}
