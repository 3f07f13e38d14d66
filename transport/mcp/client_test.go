package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/wricardo/mars-rover/game/engine"
	"github.com/wricardo/mars-rover/game/service"
)

func callRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil {
		t.Fatal("Expected result, got nil")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatal("Expected text content in result")
	}
	return text.Text
}

func classicSnapshot() *engine.Snapshot {
	return &engine.Snapshot{
		PlateauReady: true,
		Plateau:      &engine.Boundary{Right: 5, Top: 5},
		Rovers: []engine.RoverPose{
			{Index: 0, X: 1, Y: 3, Facing: engine.North, Commands: "LMLMLMLMM"},
			{Index: 1, X: 5, Y: 1, Facing: engine.East, Commands: "MMRMMRMRRM"},
		},
		TotalSteps: 19,
	}
}

func TestNewClient(t *testing.T) {
	baseURL := "http://localhost:8080"
	client := NewClient(baseURL + "/")

	if client == nil {
		t.Fatal("Expected client to be created")
	}

	if client.baseURL != baseURL {
		t.Errorf("Expected baseURL %s, got %s", baseURL, client.baseURL)
	}

	if client.httpClient == nil {
		t.Error("Expected HTTP client to be initialized")
	}

	if client.GetMCPServer() == nil {
		t.Error("Expected MCP server to be initialized")
	}
}

func TestClient_apiCall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"id": "test-session"})
	}))
	defer server.Close()

	client := NewClient(server.URL)

	var response map[string]interface{}
	if err := client.apiCall(context.Background(), "GET", "/api", nil, &response); err != nil {
		t.Fatalf("apiCall failed: %v", err)
	}

	if response["id"] != "test-session" {
		t.Errorf("Expected id test-session, got %v", response["id"])
	}
}

func TestClient_apiCall_Error(t *testing.T) {
	client := NewClient("http://invalid-url-that-does-not-exist:9999")

	if err := client.apiCall(context.Background(), "GET", "/api", nil, nil); err == nil {
		t.Error("Expected error for invalid URL")
	}
}

func TestClient_apiCall_HTTPError(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    string
	}{
		{
			name: "plain body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte("Internal Server Error"))
			},
			want: "API error: 500",
		},
		{
			name: "error message passes through",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnprocessableEntity)
				json.NewEncoder(w).Encode(map[string]string{"error": engine.ErrPlateauNotReady.Error()})
			},
			want: "The plateau of planet is not ready",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			err := NewClient(server.URL).apiCall(context.Background(), "GET", "/api", nil, nil)
			if err == nil {
				t.Fatal("Expected error")
			}
			if err.Error() != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, err.Error())
			}
		})
	}
}

func TestClient_createSession(t *testing.T) {
	var gotBody map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" || r.URL.Path != "/api/sessions" {
			t.Errorf("Expected POST /api/sessions, got %s %s", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&gotBody)

		resp := service.SessionInfo{
			ID:          "test-session-123",
			MissionName: "Classic",
			State:       classicSnapshot(),
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewClient(server.URL)

	result, err := client.handleCreateSession(context.Background(), callRequest("create_session", map[string]interface{}{
		"mission": "classic",
	}))
	if err != nil {
		t.Fatalf("createSession failed: %v", err)
	}

	text := resultText(t, result)
	for _, want := range []string{"test-session-123", "Mission: Classic", "0: 1 3 N"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in result, got: %s", want, text)
		}
	}
	if gotBody["mission"] != "classic" {
		t.Errorf("Expected mission classic in request, got %v", gotBody)
	}
}

func TestClient_sendCommand(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/sessions/abc/rovers/1/command" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		var req map[string]string
		json.NewDecoder(r.Body).Decode(&req)
		if req["command"] != "M" {
			t.Errorf("Expected command M, got %v", req)
		}

		json.NewEncoder(w).Encode(service.CommandResult{
			Rover: 1,
			Pose:  "5 1 E",
			Step:  &engine.StepRecord{Command: engine.MoveForward, FacingAfter: engine.East},
			State: classicSnapshot(),
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)

	result, err := client.handleSendCommand(context.Background(), callRequest("send_command", map[string]interface{}{
		"session_id": "abc",
		"rover":      float64(1),
		"command":    "M",
	}))
	if err != nil {
		t.Fatal(err)
	}

	text := resultText(t, result)
	if !strings.Contains(text, "plateau edge") {
		t.Errorf("Expected blocked move notice, got: %s", text)
	}

	result, _ = client.handleSendCommand(context.Background(), callRequest("send_command", map[string]interface{}{
		"session_id": "abc",
		"command":    "M",
	}))
	if !result.IsError {
		t.Error("Expected error result without rover index")
	}
}

func TestClient_toolErrorsAreResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "session nope: session not found"})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.handleExecute(context.Background(), callRequest("execute", map[string]interface{}{
		"session_id": "nope",
	}))
	if err != nil {
		t.Fatalf("Expected nil error, got %v", err)
	}
	if !result.IsError {
		t.Error("Expected error result")
	}
	if text := resultText(t, result); !strings.Contains(text, "session not found") {
		t.Errorf("Expected API message, got: %s", text)
	}
}

func TestClient_stepHistoryQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("page") != "2" || q.Get("limit") != "5" || q.Get("order") != "asc" || q.Get("rover") != "0" {
			t.Errorf("Unexpected query %s", r.URL.RawQuery)
		}
		json.NewEncoder(w).Encode(service.HistoryResponse{
			Steps: []engine.StepRecord{
				{StepNumber: 6, Command: engine.TurnLeft, FacingBefore: engine.North, FacingAfter: engine.West},
			},
			TotalSteps: 9,
			Page:       2,
			PageSize:   5,
			TotalPages: 2,
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.handleStepHistory(context.Background(), callRequest("step_history", map[string]interface{}{
		"session_id": "abc",
		"page":       float64(2),
		"limit":      float64(5),
		"order":      "asc",
		"rover":      float64(0),
	}))
	if err != nil {
		t.Fatal(err)
	}

	text := resultText(t, result)
	if !strings.Contains(text, "Page 2/2") || !strings.Contains(text, "6. rover 0 L (0,0 N) -> (0,0 W)") {
		t.Errorf("Unexpected history output: %s", text)
	}
}

func TestFormatSnapshot(t *testing.T) {
	result := formatSnapshot(classicSnapshot())

	expectedFields := []string{
		"Plateau: (0,0) to (5,5)",
		"Rovers (2):",
		"0: 1 3 N program LMLMLMLMM",
		"1: 5 1 E program MMRMMRMRRM",
		"Total Steps: 19",
		"Map:",
	}

	for _, field := range expectedFields {
		if !strings.Contains(result, field) {
			t.Errorf("Expected field '%s' in formatted output, got: %s", field, result)
		}
	}
}

func TestFormatSnapshot_NoPlateau(t *testing.T) {
	result := formatSnapshot(&engine.Snapshot{})

	if !strings.Contains(result, "Plateau: not set") {
		t.Errorf("Expected 'Plateau: not set', got: %s", result)
	}
	if strings.Contains(result, "Map:") {
		t.Errorf("Did not expect a map without a plateau: %s", result)
	}
}

func TestFormatPlateauMap(t *testing.T) {
	snap := &engine.Snapshot{
		PlateauReady: true,
		Plateau:      &engine.Boundary{Right: 2, Top: 1},
		Rovers: []engine.RoverPose{
			{Index: 0, X: 0, Y: 1, Facing: engine.North},
			{Index: 1, X: 2, Y: 0, Facing: engine.West},
			{Index: 2, X: 2, Y: 0, Facing: engine.South},
		},
	}

	want := "  1 ^..\n" +
		"  0 ..2\n" +
		"    012\n"
	if got := formatPlateauMap(snap); got != want {
		t.Errorf("Expected map:\n%s\ngot:\n%s", want, got)
	}

	snap.Plateau = &engine.Boundary{Right: maxMapSize, Top: 1}
	if got := formatPlateauMap(snap); got != "" {
		t.Errorf("Expected no map for a wide plateau, got:\n%s", got)
	}
}

func TestClient_handleRoverInstructions(t *testing.T) {
	client := NewClient("http://localhost:8080")

	result, err := client.handleRoverInstructions(context.Background(), callRequest("rover_instructions", map[string]interface{}{}))
	if err != nil {
		t.Fatalf("handleRoverInstructions failed: %v", err)
	}

	text := resultText(t, result)
	expectedContent := []string{
		"Mars Rover Mission Control - Complete Instructions",
		"PLATEAU:",
		"COMMANDS:",
		"MOVEMENT RULES:",
		engine.ErrBoundriesNotCorrectFormat.Error(),
		engine.ErrNoRover.Error(),
		"\"1 3 N\" and \"5 1 E\"",
	}

	for _, content := range expectedContent {
		if !strings.Contains(text, content) {
			t.Errorf("Expected '%s' in instructions, got: %s", content, text)
		}
	}
}
