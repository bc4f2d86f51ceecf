package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	gorillaws "github.com/gorilla/websocket"
	"github.com/wricardo/mcp-training/blockworld/game/engine"
	"github.com/wricardo/mcp-training/blockworld/game/service"
	"github.com/wricardo/mcp-training/blockworld/transport/websocket"
)

// MockGameService implements service.GameService for testing
type MockGameService struct {
	// Session Management
	CreateSessionFunc func(ctx context.Context, configName string) (*service.SessionInfo, error)
	GetSessionFunc    func(ctx context.Context, sessionID string) (*service.SessionInfo, error)
	ListSessionsFunc  func(ctx context.Context) ([]*service.SessionInfo, error)
	DeleteSessionFunc func(ctx context.Context, sessionID string) error

	// Gripper Commands
	GraspFunc  func(ctx context.Context, sessionID string, x, y int) (*service.ActionResult, error)
	MoveToFunc func(ctx context.Context, sessionID string, x, y int) (*service.ActionResult, error)

	// World State
	GetWorldStateFunc func(ctx context.Context, sessionID string) (*engine.WorldState, error)
	DescribeCellFunc  func(ctx context.Context, sessionID string, x, y int) (*service.CellInfo, error)
	GetHistoryFunc    func(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error)
	ExportLogFunc     func(ctx context.Context, sessionID, path string) (string, error)

	// Configuration
	ListConfigsFunc func(ctx context.Context) ([]*service.ConfigInfo, error)
	LoadConfigFunc  func(ctx context.Context, configName string) (*engine.WorldConfig, error)
	SaveConfigFunc  func(ctx context.Context, configName string, config *engine.WorldConfig) error
}

// Session Management
func (m *MockGameService) CreateSession(ctx context.Context, configName string) (*service.SessionInfo, error) {
	if m.CreateSessionFunc != nil {
		return m.CreateSessionFunc(ctx, configName)
	}
	return &service.SessionInfo{
		ID:         "test-session",
		ConfigName: configName,
		CreatedAt:  time.Now(),
	}, nil
}

func (m *MockGameService) GetSession(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
	if m.GetSessionFunc != nil {
		return m.GetSessionFunc(ctx, sessionID)
	}
	return &service.SessionInfo{
		ID:         sessionID,
		ConfigName: "test-config",
		CreatedAt:  time.Now(),
	}, nil
}

func (m *MockGameService) ListSessions(ctx context.Context) ([]*service.SessionInfo, error) {
	if m.ListSessionsFunc != nil {
		return m.ListSessionsFunc(ctx)
	}
	return []*service.SessionInfo{}, nil
}

func (m *MockGameService) DeleteSession(ctx context.Context, sessionID string) error {
	if m.DeleteSessionFunc != nil {
		return m.DeleteSessionFunc(ctx, sessionID)
	}
	return nil
}

// Gripper Commands
func (m *MockGameService) Grasp(ctx context.Context, sessionID string, x, y int) (*service.ActionResult, error) {
	if m.GraspFunc != nil {
		return m.GraspFunc(ctx, sessionID, x, y)
	}
	return &service.ActionResult{
		Success:    true,
		Action:     "grasp",
		Target:     engine.Position{X: x, Y: y},
		WorldState: &engine.WorldState{},
	}, nil
}

func (m *MockGameService) MoveTo(ctx context.Context, sessionID string, x, y int) (*service.ActionResult, error) {
	if m.MoveToFunc != nil {
		return m.MoveToFunc(ctx, sessionID, x, y)
	}
	return &service.ActionResult{
		Success:    true,
		Action:     "move",
		Target:     engine.Position{X: x, Y: y},
		WorldState: &engine.WorldState{},
	}, nil
}

// World State
func (m *MockGameService) GetWorldState(ctx context.Context, sessionID string) (*engine.WorldState, error) {
	if m.GetWorldStateFunc != nil {
		return m.GetWorldStateFunc(ctx, sessionID)
	}
	return &engine.WorldState{}, nil
}

func (m *MockGameService) DescribeCell(ctx context.Context, sessionID string, x, y int) (*service.CellInfo, error) {
	if m.DescribeCellFunc != nil {
		return m.DescribeCellFunc(ctx, sessionID, x, y)
	}
	return &service.CellInfo{Position: engine.Position{X: x, Y: y}, Empty: true}, nil
}

func (m *MockGameService) GetHistory(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error) {
	if m.GetHistoryFunc != nil {
		return m.GetHistoryFunc(ctx, sessionID, opts)
	}
	return &service.HistoryResponse{
		Events:     []service.HistoryEntry{},
		Page:       opts.Page,
		PageSize:   opts.Limit,
		TotalPages: 1,
	}, nil
}

func (m *MockGameService) ExportLog(ctx context.Context, sessionID, path string) (string, error) {
	if m.ExportLogFunc != nil {
		return m.ExportLogFunc(ctx, sessionID, path)
	}
	return "cube_logs.txt", nil
}

// Configuration
func (m *MockGameService) ListConfigs(ctx context.Context) ([]*service.ConfigInfo, error) {
	if m.ListConfigsFunc != nil {
		return m.ListConfigsFunc(ctx)
	}
	return []*service.ConfigInfo{}, nil
}

func (m *MockGameService) LoadConfig(ctx context.Context, configName string) (*engine.WorldConfig, error) {
	if m.LoadConfigFunc != nil {
		return m.LoadConfigFunc(ctx, configName)
	}
	return &engine.WorldConfig{
		Name:        configName,
		Description: "Test config",
		Length:      3,
		Width:       3,
	}, nil
}

func (m *MockGameService) SaveConfig(ctx context.Context, configName string, config *engine.WorldConfig) error {
	if m.SaveConfigFunc != nil {
		return m.SaveConfigFunc(ctx, configName, config)
	}
	return nil
}

// Test helpers
func setupTestServer(t *testing.T, mockService *MockGameService) (*Server, *websocket.Hub) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := websocket.NewHub()
	go hub.Run(ctx)
	return NewServer(mockService, hub), hub
}

func makeRequest(method, path string, body interface{}) *http.Request {
	var bodyBytes []byte
	if body != nil {
		bodyBytes, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewBuffer(bodyBytes))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder, target interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), target); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
}

// Session Management Tests

func TestCreateSession(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    map[string]string
		setupMock      func(*MockGameService)
		expectedStatus int
		validateResp   func(*testing.T, *httptest.ResponseRecorder)
	}{
		{
			name:        "Create session with default config",
			requestBody: nil,
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, configName string) (*service.SessionInfo, error) {
					if configName != "" {
						t.Errorf("Expected empty config name, got %q", configName)
					}
					return &service.SessionInfo{ID: "ab12", ConfigName: "classic"}, nil
				}
			},
			expectedStatus: http.StatusCreated,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp service.SessionInfo
				parseResponse(t, w, &resp)
				if resp.ID != "ab12" {
					t.Errorf("Expected session ID ab12, got %s", resp.ID)
				}
			},
		},
		{
			name:        "Create session with config_id",
			requestBody: map[string]string{"config_id": "puzzle"},
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, configName string) (*service.SessionInfo, error) {
					return &service.SessionInfo{ID: "cd34", ConfigName: configName}, nil
				}
			},
			expectedStatus: http.StatusCreated,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp service.SessionInfo
				parseResponse(t, w, &resp)
				if resp.ConfigName != "puzzle" {
					t.Errorf("Expected config puzzle, got %s", resp.ConfigName)
				}
			},
		},
		{
			name:        "Deprecated config_name still accepted",
			requestBody: map[string]string{"config_name": "small"},
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, configName string) (*service.SessionInfo, error) {
					return &service.SessionInfo{ID: "ef56", ConfigName: configName}, nil
				}
			},
			expectedStatus: http.StatusCreated,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp service.SessionInfo
				parseResponse(t, w, &resp)
				if resp.ConfigName != "small" {
					t.Errorf("Expected config small, got %s", resp.ConfigName)
				}
			},
		},
		{
			name:        "Unknown config",
			requestBody: map[string]string{"config_id": "missing"},
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, configName string) (*service.SessionInfo, error) {
					return nil, fmt.Errorf("%w: '%s'", service.ErrConfigNotFound, configName)
				}
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:        "Service failure",
			requestBody: nil,
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, configName string) (*service.SessionInfo, error) {
					return nil, fmt.Errorf("disk full")
				}
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGameService{}
			if tt.setupMock != nil {
				tt.setupMock(mockService)
			}
			server, _ := setupTestServer(t, mockService)

			var body interface{}
			if tt.requestBody != nil {
				body = tt.requestBody
			}
			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("POST", "/api/sessions", body))

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
			if tt.validateResp != nil {
				tt.validateResp(t, w)
			}
		})
	}
}

func TestListSessions(t *testing.T) {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	sessions := []*service.SessionInfo{
		{ID: "old", CreatedAt: base, LastAccessedAt: base.Add(3 * time.Hour)},
		{ID: "mid", CreatedAt: base.Add(time.Hour), LastAccessedAt: base.Add(time.Hour)},
		{ID: "new", CreatedAt: base.Add(2 * time.Hour), LastAccessedAt: base.Add(2 * time.Hour)},
	}

	tests := []struct {
		name     string
		query    string
		expected []string
		total    int
	}{
		{"default sorts by last access, newest first", "", []string{"old", "new", "mid"}, 3},
		{"created ascending", "?sort=created&order=asc", []string{"old", "mid", "new"}, 3},
		{"created descending", "?sort=created", []string{"new", "mid", "old"}, 3},
		{"limit", "?sort=created&limit=2", []string{"new", "mid"}, 3},
		{"invalid limit ignored", "?sort=created&limit=abc", []string{"new", "mid", "old"}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGameService{
				ListSessionsFunc: func(ctx context.Context) ([]*service.SessionInfo, error) {
					cp := make([]*service.SessionInfo, len(sessions))
					copy(cp, sessions)
					return cp, nil
				},
			}
			server, _ := setupTestServer(t, mockService)

			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("GET", "/api/sessions"+tt.query, nil))

			if w.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d", w.Code)
			}

			var resp struct {
				Count    int                    `json:"count"`
				Total    int                    `json:"total"`
				Sessions []*service.SessionInfo `json:"sessions"`
			}
			parseResponse(t, w, &resp)

			var ids []string
			for _, s := range resp.Sessions {
				ids = append(ids, s.ID)
			}
			if diff := cmp.Diff(tt.expected, ids); diff != "" {
				t.Errorf("session order mismatch (-want +got):\n%s", diff)
			}
			if resp.Total != tt.total || resp.Count != len(tt.expected) {
				t.Errorf("Expected count %d total %d, got %d/%d", len(tt.expected), tt.total, resp.Count, resp.Total)
			}
		})
	}
}

func TestGetSession(t *testing.T) {
	mockService := &MockGameService{
		GetSessionFunc: func(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
			if sessionID == "gone" {
				return nil, fmt.Errorf("session not found: gone")
			}
			return &service.SessionInfo{ID: sessionID, ConfigName: "classic"}, nil
		},
	}
	server, _ := setupTestServer(t, mockService)

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/sessions/ab12", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var resp service.SessionInfo
	parseResponse(t, w, &resp)
	if resp.ID != "ab12" {
		t.Errorf("Expected ab12, got %s", resp.ID)
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/sessions/gone", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestDeleteSession(t *testing.T) {
	deleted := ""
	mockService := &MockGameService{
		DeleteSessionFunc: func(ctx context.Context, sessionID string) error {
			if sessionID == "gone" {
				return fmt.Errorf("session not found")
			}
			deleted = sessionID
			return nil
		},
	}
	server, _ := setupTestServer(t, mockService)

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("DELETE", "/api/sessions/ab12", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if deleted != "ab12" {
		t.Errorf("Expected ab12 to be deleted, got %q", deleted)
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("DELETE", "/api/sessions/gone", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

// Gripper Command Tests

func TestGrasp(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		setupMock      func(*MockGameService)
		expectedStatus int
		validateResp   func(*testing.T, *httptest.ResponseRecorder)
	}{
		{
			name: "Successful grasp",
			body: map[string]int{"x": 0, "y": 2},
			setupMock: func(m *MockGameService) {
				m.GraspFunc = func(ctx context.Context, sessionID string, x, y int) (*service.ActionResult, error) {
					if x != 0 || y != 2 {
						t.Errorf("Expected (0, 2), got (%d, %d)", x, y)
					}
					return &service.ActionResult{
						Success: true,
						Action:  "grasp",
						Target:  engine.Position{X: x, Y: y},
						Events: []engine.ActionEvent{
							{Seq: 1, Kind: engine.EventGrasped, Block: engine.BlockA, Position: engine.Position{X: x, Y: y}},
						},
						WorldState: &engine.WorldState{Blocks: 3},
						Message:    "Grasped A from (0, 2)",
					}, nil
				}
			},
			expectedStatus: http.StatusOK,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp service.ActionResult
				parseResponse(t, w, &resp)
				if !resp.Success || len(resp.Events) != 1 || resp.Events[0].Kind != engine.EventGrasped {
					t.Errorf("Unexpected result %+v", resp)
				}
			},
		},
		{
			name: "Rejected grasp is still 200",
			body: map[string]int{"x": 1, "y": 1},
			setupMock: func(m *MockGameService) {
				m.GraspFunc = func(ctx context.Context, sessionID string, x, y int) (*service.ActionResult, error) {
					return &service.ActionResult{
						Success:    false,
						Action:     "grasp",
						ErrorCode:  "nothing_to_grasp",
						Message:    "No block to grasp at the specified coordinates.",
						WorldState: &engine.WorldState{},
					}, nil
				}
			},
			expectedStatus: http.StatusOK,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp service.ActionResult
				parseResponse(t, w, &resp)
				if resp.Success || resp.ErrorCode != "nothing_to_grasp" {
					t.Errorf("Unexpected result %+v", resp)
				}
			},
		},
		{
			name:           "Missing coordinate",
			body:           map[string]int{"x": 1},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Malformed body",
			body:           "not json",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "Unknown session",
			body: map[string]int{"x": 0, "y": 0},
			setupMock: func(m *MockGameService) {
				m.GraspFunc = func(ctx context.Context, sessionID string, x, y int) (*service.ActionResult, error) {
					return nil, fmt.Errorf("session not found: %s", sessionID)
				}
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGameService{}
			if tt.setupMock != nil {
				tt.setupMock(mockService)
			}
			server, _ := setupTestServer(t, mockService)

			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("POST", "/api/sessions/ab12/grasp", tt.body))

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
			if tt.validateResp != nil {
				tt.validateResp(t, w)
			}
		})
	}
}

func TestMove(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		setupMock      func(*MockGameService)
		expectedStatus int
		validateResp   func(*testing.T, *httptest.ResponseRecorder)
	}{
		{
			name: "Move with merge",
			body: map[string]int{"x": 1, "y": 0},
			setupMock: func(m *MockGameService) {
				m.MoveToFunc = func(ctx context.Context, sessionID string, x, y int) (*service.ActionResult, error) {
					return &service.ActionResult{
						Success: true,
						Action:  "move",
						Target:  engine.Position{X: x, Y: y},
						Events: []engine.ActionEvent{
							{Seq: 2, Kind: engine.EventStepMoved, Block: engine.BlockA, Position: engine.Position{X: 1, Y: 0}},
							{Seq: 3, Kind: engine.EventAdjacentRemoved, Block: engine.BlockA, Position: engine.Position{X: 2, Y: 0}},
							{Seq: 4, Kind: engine.EventMoveCompleted, Block: engine.BlockA, Position: engine.Position{X: 1, Y: 0}, Merged: true},
						},
						WorldState: &engine.WorldState{Blocks: 1},
						Merged:     true,
						Removed:    2,
					}, nil
				}
			},
			expectedStatus: http.StatusOK,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp service.ActionResult
				parseResponse(t, w, &resp)
				if !resp.Merged || resp.Removed != 2 || len(resp.Events) != 3 {
					t.Errorf("Unexpected result %+v", resp)
				}
			},
		},
		{
			name: "Negative coordinates are passed through",
			body: map[string]int{"x": -1, "y": 0},
			setupMock: func(m *MockGameService) {
				m.MoveToFunc = func(ctx context.Context, sessionID string, x, y int) (*service.ActionResult, error) {
					if x != -1 {
						t.Errorf("Expected x=-1, got %d", x)
					}
					return &service.ActionResult{ErrorCode: "out_of_bounds", WorldState: &engine.WorldState{}}, nil
				}
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "Internal failure",
			body: map[string]int{"x": 0, "y": 0},
			setupMock: func(m *MockGameService) {
				m.MoveToFunc = func(ctx context.Context, sessionID string, x, y int) (*service.ActionResult, error) {
					return nil, fmt.Errorf("move failed: corrupted grid")
				}
			},
			expectedStatus: http.StatusInternalServerError,
		},
		{
			name:           "Empty body",
			body:           nil,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGameService{}
			if tt.setupMock != nil {
				tt.setupMock(mockService)
			}
			server, _ := setupTestServer(t, mockService)

			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("POST", "/api/sessions/ab12/move", tt.body))

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
			if tt.validateResp != nil {
				tt.validateResp(t, w)
			}
		})
	}
}

func TestGetHistory(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		expected service.HistoryOptions
	}{
		{"defaults", "", service.HistoryOptions{Page: 1, Limit: 20, Order: "desc"}},
		{"explicit", "?page=3&limit=5&order=asc", service.HistoryOptions{Page: 3, Limit: 5, Order: "asc"}},
		{"invalid values fall back", "?page=-2&limit=zero&order=sideways", service.HistoryOptions{Page: 1, Limit: 20, Order: "desc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got service.HistoryOptions
			mockService := &MockGameService{
				GetHistoryFunc: func(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error) {
					got = opts
					return &service.HistoryResponse{Page: opts.Page, PageSize: opts.Limit, TotalPages: 1}, nil
				},
			}
			server, _ := setupTestServer(t, mockService)

			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("GET", "/api/sessions/ab12/history"+tt.query, nil))

			if w.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d", w.Code)
			}
			if diff := cmp.Diff(tt.expected, got); diff != "" {
				t.Errorf("history options mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestGetWorldState(t *testing.T) {
	mockService := &MockGameService{
		GetWorldStateFunc: func(ctx context.Context, sessionID string) (*engine.WorldState, error) {
			if sessionID != "ab12" {
				return nil, fmt.Errorf("session not found")
			}
			return &engine.WorldState{
				Grid:   [][]engine.BlockType{{engine.BlockA, engine.Empty}},
				Length: 1,
				Width:  2,
				Blocks: 1,
			}, nil
		},
	}
	server, _ := setupTestServer(t, mockService)

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/sessions/ab12/state", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var state engine.WorldState
	parseResponse(t, w, &state)
	if state.Blocks != 1 || state.Grid[0][0] != engine.BlockA {
		t.Errorf("Unexpected state %+v", state)
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/sessions/zz99/state", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestDescribeCell(t *testing.T) {
	mockService := &MockGameService{
		DescribeCellFunc: func(ctx context.Context, sessionID string, x, y int) (*service.CellInfo, error) {
			if x > 2 {
				return nil, fmt.Errorf("%w: (%d, %d)", engine.ErrOutOfBounds, x, y)
			}
			return &service.CellInfo{Position: engine.Position{X: x, Y: y}, Block: engine.BlockB}, nil
		},
	}
	server, _ := setupTestServer(t, mockService)

	tests := []struct {
		path   string
		status int
	}{
		{"/api/sessions/ab12/cells/1/2", http.StatusOK},
		{"/api/sessions/ab12/cells/9/0", http.StatusBadRequest},
		{"/api/sessions/ab12/cells/a/0", http.StatusBadRequest},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		server.ServeHTTP(w, makeRequest("GET", tt.path, nil))
		if w.Code != tt.status {
			t.Errorf("%s: expected status %d, got %d", tt.path, tt.status, w.Code)
		}
	}
}

func TestExportLog(t *testing.T) {
	var gotPath string
	mockService := &MockGameService{
		ExportLogFunc: func(ctx context.Context, sessionID, path string) (string, error) {
			gotPath = path
			return "logs/puzzle.txt", nil
		},
	}
	server, _ := setupTestServer(t, mockService)

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("POST", "/api/sessions/ab12/log", map[string]string{"path": "/etc/passwd"}))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if gotPath != "" {
		t.Errorf("Clients must not choose the log path, got %q", gotPath)
	}

	var resp map[string]string
	parseResponse(t, w, &resp)
	if resp["path"] != "logs/puzzle.txt" {
		t.Errorf("Expected configured path, got %q", resp["path"])
	}
}

// Configuration Tests

func TestListConfigs(t *testing.T) {
	mockService := &MockGameService{
		ListConfigsFunc: func(ctx context.Context) ([]*service.ConfigInfo, error) {
			return []*service.ConfigInfo{
				{Filename: "classic.json", ConfigID: "classic", Name: "Classic", Length: 5, Width: 5},
				{Filename: "puzzle.json", ConfigID: "puzzle", Name: "Puzzle", Length: 4, Width: 5, Fixed: true},
			}, nil
		},
	}
	server, _ := setupTestServer(t, mockService)

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/configs", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var configs []*service.ConfigInfo
	parseResponse(t, w, &configs)
	if len(configs) != 2 || !configs[1].Fixed {
		t.Errorf("Unexpected configs %+v", configs)
	}
}

func TestGetConfig(t *testing.T) {
	var requested string
	mockService := &MockGameService{
		LoadConfigFunc: func(ctx context.Context, configName string) (*engine.WorldConfig, error) {
			requested = configName
			if configName == "missing" {
				return nil, fmt.Errorf("configuration not found: missing")
			}
			return &engine.WorldConfig{Name: "Puzzle", Length: 4, Width: 5}, nil
		},
	}
	server, _ := setupTestServer(t, mockService)

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/configs/puzzle.json", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if requested != "puzzle" {
		t.Errorf("Expected .json suffix to be trimmed, got %q", requested)
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/configs/missing", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestCreateConfig(t *testing.T) {
	var savedID string
	var saved *engine.WorldConfig
	mockService := &MockGameService{
		SaveConfigFunc: func(ctx context.Context, configName string, config *engine.WorldConfig) error {
			savedID = configName
			saved = config
			return nil
		},
	}
	server, _ := setupTestServer(t, mockService)

	body := map[string]interface{}{
		"name":   "My Puzzle",
		"length": 2,
		"width":  3,
		"layout": []string{"A_A", "___"},
	}
	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("POST", "/api/configs", body))
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	if savedID != "my_puzzle" {
		t.Errorf("Expected derived config ID my_puzzle, got %q", savedID)
	}
	if saved == nil || saved.Length != 2 || len(saved.Layout) != 2 {
		t.Errorf("Unexpected saved config %+v", saved)
	}

	invalid := []map[string]interface{}{
		{"length": 2, "width": 2},
		{"name": "bad", "length": 0, "width": 2},
		{"name": "bad", "length": 1, "width": 2, "layout": []string{"AX"}},
	}
	for i, body := range invalid {
		w := httptest.NewRecorder()
		server.ServeHTTP(w, makeRequest("POST", "/api/configs", body))
		if w.Code != http.StatusBadRequest {
			t.Errorf("invalid config %d: expected status 400, got %d", i, w.Code)
		}
	}
}

func TestHealth(t *testing.T) {
	server, _ := setupTestServer(t, &MockGameService{})

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "healthy") {
		t.Errorf("Unexpected body %s", w.Body.String())
	}
}

// WebSocket Tests

func TestWebSocket(t *testing.T) {
	t.Run("requires session parameter", func(t *testing.T) {
		server, _ := setupTestServer(t, &MockGameService{})
		w := httptest.NewRecorder()
		server.ServeHTTP(w, makeRequest("GET", "/ws", nil))
		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", w.Code)
		}
	})

	t.Run("rejects unknown session", func(t *testing.T) {
		server, _ := setupTestServer(t, &MockGameService{
			GetSessionFunc: func(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
				return nil, fmt.Errorf("session not found")
			},
		})
		w := httptest.NewRecorder()
		server.ServeHTTP(w, makeRequest("GET", "/ws?session=nope", nil))
		if w.Code != http.StatusNotFound {
			t.Errorf("Expected status 404, got %d", w.Code)
		}
	})

	t.Run("disabled without hub", func(t *testing.T) {
		server := NewServer(&MockGameService{}, nil)
		w := httptest.NewRecorder()
		server.ServeHTTP(w, makeRequest("GET", "/ws?session=ab12", nil))
		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("Expected status 503, got %d", w.Code)
		}
	})

	t.Run("commands are pushed to watchers", func(t *testing.T) {
		mockService := &MockGameService{
			GraspFunc: func(ctx context.Context, sessionID string, x, y int) (*service.ActionResult, error) {
				return &service.ActionResult{
					Success:    true,
					Events:     []engine.ActionEvent{{Seq: 1, Kind: engine.EventGrasped, Block: engine.BlockA}},
					WorldState: &engine.WorldState{Blocks: 2},
				}, nil
			},
		}
		server, hub := setupTestServer(t, mockService)
		ts := httptest.NewServer(server)
		defer ts.Close()

		wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?session=ab12"
		conn, _, err := gorillaws.DefaultDialer.Dial(wsURL, nil)
		if err != nil {
			t.Fatalf("Failed to connect: %v", err)
		}
		defer conn.Close()

		deadline := time.Now().Add(time.Second)
		for hub.ClientCount("ab12") == 0 && time.Now().Before(deadline) {
			time.Sleep(5 * time.Millisecond)
		}

		resp, err := http.Post(ts.URL+"/api/sessions/ab12/grasp", "application/json", strings.NewReader(`{"x":0,"y":0}`))
		if err != nil {
			t.Fatalf("grasp request failed: %v", err)
		}
		resp.Body.Close()

		conn.SetReadDeadline(time.Now().Add(time.Second))
		var events []string
		for i := 0; i < 2; i++ {
			var msg websocket.Message
			if err := conn.ReadJSON(&msg); err != nil {
				t.Fatalf("Failed to read message %d: %v", i, err)
			}
			events = append(events, msg.Event)
		}

		want := []string{websocket.EventAction, websocket.EventStateUpdate}
		if diff := cmp.Diff(want, events); diff != "" {
			t.Errorf("websocket events mismatch (-want +got):\n%s", diff)
		}
	})
}
