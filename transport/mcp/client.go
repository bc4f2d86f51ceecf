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
	"github.com/wricardo/mcp-training/blockworld/game/engine"
	"github.com/wricardo/mcp-training/blockworld/game/render"
	"github.com/wricardo/mcp-training/blockworld/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Block World",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Block World - MCP Interface

This is a thin client that proxies all requests to the REST API server.

A rectangular grid holds lettered blocks (A-D). A single gripper can hold one
block at a time. Grasp a block, then move it to an empty cell. The block
travels along the x axis first, then the y axis. When it lands next to a block
of the same letter, the neighbours and the moved block are all removed.

AVAILABLE TOOLS:
- create_session: Create a new world (optionally from a config)
- list_sessions / get_session: Inspect sessions
- world_state: Current grid, gripper and block count
- grasp: Pick up the block at (x, y)
- move_to: Carry the held block to (x, y)
- describe_cell: What occupies one cell
- action_history: Past events, including rejected commands
- list_configs: Available world configurations
- export_log: Append the action log to the session's log file
- world_instructions: Full rules

Coordinates: x is the row (0 at the top), y is the column (0 at the left).`),
	)

	c.registerTools()
}

func sessionProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

func coordinateProperties(action string) map[string]interface{} {
	return map[string]interface{}{
		"session_id": sessionProperty(),
		"x": map[string]interface{}{
			"type":        "integer",
			"description": fmt.Sprintf("Row to %s (0-based, top to bottom)", action),
		},
		"y": map[string]interface{}{
			"type":        "integer",
			"description": fmt.Sprintf("Column to %s (0-based, left to right)", action),
		},
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new world session with optional config selection",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config_id": map[string]interface{}{
					"type":        "string",
					"description": "ID of the config to use (optional, see list_configs)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active world sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleGetSession)

	// World operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "world_state",
		Description: "Get the current grid, gripper state and block count",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleWorldState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "grasp",
		Description: "Pick up the block at (x, y). The gripper must be empty.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: coordinateProperties("grasp"),
			Required:   []string{"session_id", "x", "y"},
		},
	}, c.handleGrasp)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move_to",
		Description: "Carry the held block to the empty cell (x, y), x axis first. Same-letter neighbours at the destination are removed together with the block.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: coordinateProperties("move to"),
			Required:   []string{"session_id", "x", "y"},
		},
	}, c.handleMoveTo)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "describe_cell",
		Description: "Get what occupies a specific grid cell",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: coordinateProperties("describe"),
			Required:   []string{"session_id", "x", "y"},
		},
	}, c.handleDescribeCell)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "action_history",
		Description: "Get the action events of a session with pagination",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"page": map[string]interface{}{
					"type":        "integer",
					"description": "Page number (default 1)",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Events per page (default 20, max 100)",
				},
				"order": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"asc", "desc"},
					"description": "asc for oldest first, desc (default) for newest first",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleActionHistory)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "export_log",
		Description: "Append the session's action log to its configured log file",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleExportLog)

	// Configuration
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available world configurations",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListConfigs)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "world_instructions",
		Description: "Get the full rules of the block world",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleWorldInstructions)
}

// GetMCPServer returns the underlying MCP server
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Listen serves the MCP protocol over in and out until ctx ends or in closes.
// Nothing else may write to out while it runs.
func (c *Client) Listen(ctx context.Context, in io.Reader, out io.Writer) error {
	return server.NewStdioServer(c.mcpServer).Listen(ctx, in, out)
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
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

// arguments returns the tool arguments, never nil
func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		return map[string]interface{}{}
	}
	return args
}

// intArg reads a required integer argument. JSON numbers arrive as float64.
func intArg(args map[string]interface{}, key string) (int, error) {
	switch v := args[key].(type) {
	case float64:
		if v != float64(int(v)) {
			return 0, fmt.Errorf("%s must be a whole number, got %v", key, v)
		}
		return int(v), nil
	case int:
		return v, nil
	case nil:
		return 0, fmt.Errorf("%s is required", key)
	}
	return 0, fmt.Errorf("%s must be a number", key)
}

func sessionPath(sessionID, suffix string) string {
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	configID, _ := args["config_id"].(string)

	body := map[string]string{}
	if configID != "" {
		body["config_id"] = configID
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Created session: %s\nConfig: %s\n\n%s",
		session.ID, session.ConfigName, formatWorldState(session.WorldState))), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		blocks := 0
		if s.WorldState != nil {
			blocks = s.WorldState.Blocks
		}
		fmt.Fprintf(&b, "- %s (Config: %s, Blocks: %d, Created: %s)\n",
			s.ID, s.ConfigName, blocks, s.CreatedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, ""), nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleWorldState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var state engine.WorldState
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/state"), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatWorldState(&state)), nil
}

func (c *Client) handleGrasp(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.command(ctx, request, "/grasp")
}

func (c *Client) handleMoveTo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.command(ctx, request, "/move")
}

// command posts a coordinate command and formats the action result
func (c *Client) command(ctx context.Context, request mcp.CallToolRequest, suffix string) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)

	x, err := intArg(args, "x")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	y, err := intArg(args, "y")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result service.ActionResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, suffix), map[string]int{"x": x, "y": y}, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatActionResult(&result)), nil
}

func (c *Client) handleDescribeCell(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)

	x, err := intArg(args, "x")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	y, err := intArg(args, "y")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var cell service.CellInfo
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, fmt.Sprintf("/cells/%d/%d", x, y)), nil, &cell); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatCell(&cell)), nil
}

func (c *Client) handleActionHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)

	params := url.Values{}
	if page, ok := args["page"].(float64); ok {
		params.Set("page", fmt.Sprintf("%d", int(page)))
	}
	if limit, ok := args["limit"].(float64); ok {
		params.Set("limit", fmt.Sprintf("%d", int(limit)))
	}
	if order, ok := args["order"].(string); ok && order != "" {
		params.Set("order", order)
	}

	path := sessionPath(sessionID, "/history")
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, "GET", path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatHistory(&history)), nil
}

func (c *Client) handleExportLog(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var response struct {
		Message string `json:"message"`
		Path    string `json:"path"`
	}
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/log"), nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("%s to %s", response.Message, response.Path)), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	if err := c.apiCall(ctx, "GET", "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available Configurations:\n\n")
	for _, config := range configs {
		kind := "random"
		if config.Fixed {
			kind = "fixed layout"
		}
		fmt.Fprintf(&b, "• %s (config_id: %s)\n  %s\n  Grid: %dx%d, %s\n\n",
			config.Name, config.ConfigID, config.Description, config.Length, config.Width, kind)
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleWorldInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	instructions := `Block World - Complete Instructions

THE WORLD:
A grid of length x width cells. Each cell is empty (_) or holds one block
lettered A, B, C or D. x is the row, counted from 0 at the top. y is the
column, counted from 0 at the left.

THE GRIPPER:
There is one gripper and it holds at most one block.

GRASP (x, y):
• Picks up the block at (x, y). The cell is empty while the block is held.
• Fails when (x, y) is outside the grid, the cell is empty, or the gripper
  already holds a block.

MOVE TO (x, y):
• Carries the held block to (x, y), one cell per step.
• The block first walks along x until the row matches, then along y.
• Steps may pass over other blocks. Only the destination must be empty
  (moving a block back to where it came from is allowed).
• On arrival the four neighbours (up, down, left, right) are checked. Every
  neighbour with the same letter is removed, and so is the moved block.
• Otherwise the block stays at the destination.
• Either way the gripper is empty afterwards.
• Fails when (x, y) is outside the grid, the destination is occupied, or
  nothing is held. A failed move leaves the world and the gripper unchanged.

HISTORY:
Every grasp, step, removal and completion is recorded as an event. Rejected
commands are recorded too (failed_grasp, failed_move).

STRATEGY:
• Use world_state to read the grid before each command.
• Clear blocks by placing a block beside one or more blocks of its letter.
• A single move can clear up to five blocks (the moved one and four neighbours).`

	return mcp.NewToolResultText(instructions), nil
}

// Formatting helpers

func formatSessionInfo(session *service.SessionInfo) string {
	return fmt.Sprintf("Session: %s\nConfig: %s\nCreated: %s\n\n%s",
		session.ID, session.ConfigName,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		formatWorldState(session.WorldState))
}

// formatGrid draws the grid with row and column indices
func formatGrid(grid [][]engine.BlockType) string {
	if len(grid) == 0 {
		return "(empty world)\n"
	}

	frame := render.NewRenderer(io.Discard, false).Frame(grid, nil, engine.Empty)
	rows := strings.Split(strings.TrimSuffix(frame, "\n"), "\n")

	var b strings.Builder
	b.WriteString("    ")
	for y := range grid[0] {
		fmt.Fprintf(&b, "%d ", y%10)
	}
	b.WriteString("  (y)\n")
	for x, row := range rows {
		fmt.Fprintf(&b, "%2d  %s\n", x, row)
	}
	b.WriteString("(x)\n")
	return b.String()
}

func formatGripper(g engine.Gripper) string {
	if !g.Holding {
		return "Gripper: empty"
	}
	return fmt.Sprintf("Gripper: holding %s from (%d,%d)", g.Block, g.Origin.X, g.Origin.Y)
}

func formatWorldState(state *engine.WorldState) string {
	if state == nil {
		return "No world state available"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "World: %dx%d, Blocks: %d\n", state.Length, state.Width, state.Blocks)
	b.WriteString(formatGripper(state.Gripper))
	b.WriteString("\n\n")
	b.WriteString(formatGrid(state.Grid))
	if state.Message != "" {
		fmt.Fprintf(&b, "\nMessage: %s\n", state.Message)
	}
	return b.String()
}

func formatActionResult(result *service.ActionResult) string {
	var b strings.Builder

	action := "Move to"
	if result.Action == "grasp" {
		action = "Grasp at"
	}
	if result.Success {
		fmt.Fprintf(&b, "✓ %s (%d,%d) successful\n", action, result.Target.X, result.Target.Y)
	} else {
		fmt.Fprintf(&b, "✗ %s (%d,%d) failed (%s)\n", action, result.Target.X, result.Target.Y, result.ErrorCode)
	}
	if result.Message != "" {
		fmt.Fprintf(&b, "%s\n", result.Message)
	}

	if len(result.Events) > 0 {
		b.WriteString("\nEvents:\n")
		for _, ev := range result.Events {
			b.WriteString("  " + formatEvent(ev) + "\n")
		}
	}

	if result.Merged {
		fmt.Fprintf(&b, "\nMerged: %d blocks removed\n", result.Removed)
	}

	b.WriteString("\n")
	b.WriteString(formatWorldState(result.WorldState))
	return b.String()
}

func formatEvent(ev engine.ActionEvent) string {
	line := fmt.Sprintf("#%d %s", ev.Seq, ev.Kind)
	if ev.Block != engine.Empty {
		line += " " + string(ev.Block)
	}
	line += fmt.Sprintf(" at (%d,%d)", ev.Position.X, ev.Position.Y)
	if ev.Merged {
		line += " merged"
	}
	if ev.Reason != "" {
		line += ": " + ev.Reason
	}
	return line
}

func formatCell(cell *service.CellInfo) string {
	contents := "empty"
	if !cell.Empty {
		contents = "block " + string(cell.Block)
	}
	result := fmt.Sprintf("Cell (%d,%d): %s", cell.Position.X, cell.Position.Y, contents)
	if cell.Held {
		result += " (held by the gripper)"
	}
	return result
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Action History (Page %d/%d), Total: %d, Failed: %d\n\n",
		history.Page, history.TotalPages, history.TotalEvents, history.FailedEvents)

	if len(history.Events) == 0 {
		b.WriteString("(no actions yet)\n")
		return b.String()
	}

	for _, entry := range history.Events {
		status := "✓"
		if entry.Failed() {
			status = "✗"
		}
		text := entry.Text
		if text == "" {
			text = formatEvent(entry.ActionEvent)
		}
		fmt.Fprintf(&b, "%d. %s %s\n", entry.Seq, status, text)
	}

	if history.HasNext {
		fmt.Fprintf(&b, "\nMore on page %d\n", history.Page+1)
	}
	return b.String()
}
