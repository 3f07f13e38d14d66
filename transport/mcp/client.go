package mcp

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

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/mars-rover/game/engine"
	"github.com/wricardo/mars-rover/game/service"
)

// Plateaus larger than this are described without a map
const maxMapSize = 40

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
		"Mars Rover Mission Control",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Mars Rover Mission Control - MCP Interface

This is a thin client that proxies all requests to the REST API server.

OBJECTIVE:
Define a rectangular plateau, land rovers on it and drive them with L, R and M commands.
Rovers never leave the plateau: a move into the edge leaves the rover where it is.

AVAILABLE TOOLS:
- create_session: Create a mission session, optionally from a stored mission
- list_sessions: List all active sessions
- get_session: Get session details
- mission_state: Plateau, rover poses and a map
- set_plateau: Set the plateau boundaries ("5 5")
- add_rover: Land a rover ("1 2 N") with its command program ("LMLMLMLMM")
- send_command: Send a single L, R or M to one rover
- execute: Run every rover's program in order
- step_history: View executed steps
- list_missions: List stored missions
- rover_instructions: Full rules and input formats`),
	)

	c.registerTools()
}

func sessionProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new mission session. Without a mission the session starts blank.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"mission": map[string]interface{}{
					"type":        "string",
					"description": "Stored mission to load, or 'default' (optional)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active mission sessions",
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

	// Rover operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "mission_state",
		Description: "Get the plateau, rover poses and a map of the mission",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleMissionState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "set_plateau",
		Description: "Set the plateau's upper-right corner. The lower-left corner is always 0 0.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"boundaries": map[string]interface{}{
					"type":        "string",
					"description": "Two integers separated by one space, e.g. \"5 5\"",
				},
			},
			Required: []string{"session_id", "boundaries"},
		},
	}, c.handleSetPlateau)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "add_rover",
		Description: "Land a rover on the plateau with its command program",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"location": map[string]interface{}{
					"type":        "string",
					"description": "x y and facing separated by single spaces, e.g. \"1 2 N\"",
				},
				"commands": map[string]interface{}{
					"type":        "string",
					"description": "Program of L, R and M letters, e.g. \"LMLMLMLMM\"",
				},
			},
			Required: []string{"session_id", "location", "commands"},
		},
	}, c.handleAddRover)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "send_command",
		Description: "Send a single command to one rover",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"rover": map[string]interface{}{
					"type":        "integer",
					"description": "Rover index, 0-based in landing order",
				},
				"command": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"L", "R", "M"},
					"description": "Command to send",
				},
			},
			Required: []string{"session_id", "rover", "command"},
		},
	}, c.handleSendCommand)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "execute",
		Description: "Run every rover's program, rover by rover in landing order",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleExecute)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "step_history",
		Description: "Get the paginated history of executed steps",
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
					"description": "Steps per page (default 20, max 100)",
				},
				"order": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"asc", "desc"},
					"description": "Sort order (default desc)",
				},
				"rover": map[string]interface{}{
					"type":        "integer",
					"description": "Only show steps of this rover (optional)",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleStepHistory)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_missions",
		Description: "List stored missions that sessions can be created from",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListMissions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "rover_instructions",
		Description: "Get the movement rules and input formats",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleRoverInstructions)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
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

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		return map[string]interface{}{}
	}
	return args
}

// intArg reads an integer argument. JSON numbers arrive as float64.
func intArg(args map[string]interface{}, key string) (int, bool) {
	switch v := args[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case string:
		n, err := strconv.Atoi(v)
		return n, err == nil
	}
	return 0, false
}

func sessionPath(sessionID, suffix string) string {
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	missionName, _ := args["mission"].(string)

	body := map[string]string{}
	if missionName != "" {
		body["mission"] = missionName
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\n", session.ID)
	if session.MissionName != "" {
		result += fmt.Sprintf("Mission: %s\n", session.MissionName)
	}
	result += "\n" + formatSnapshot(session.State)
	return mcp.NewToolResultText(result), nil
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
		mission := s.MissionName
		if mission == "" {
			mission = "blank"
		}
		rovers := 0
		if s.State != nil {
			rovers = len(s.State.Rovers)
		}
		fmt.Fprintf(&b, "- %s (Mission: %s, Rovers: %d, Runs: %d, Created: %s)\n",
			s.ID, mission, rovers, s.Runs, s.CreatedAt.Format("15:04:05"))
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

func (c *Client) handleMissionState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var state service.MissionState
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/state"), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Session: %s\n", state.SessionID)
	if state.MissionName != "" {
		result += fmt.Sprintf("Mission: %s\n", state.MissionName)
	}
	result += fmt.Sprintf("Runs: %d\n\n", state.Runs)
	result += formatSnapshot(state.Snapshot)
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleSetPlateau(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	boundaries, _ := args["boundaries"].(string)

	var snap engine.Snapshot
	err := c.apiCall(ctx, "PUT", sessionPath(sessionID, "/plateau"), map[string]string{"boundaries": boundaries}, &snap)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText("✓ Plateau set\n\n" + formatSnapshot(&snap)), nil
}

func (c *Client) handleAddRover(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	location, _ := args["location"].(string)
	commands, _ := args["commands"].(string)

	body := map[string]string{
		"location": location,
		"commands": commands,
	}

	var result service.RoverResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/rovers"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	response := fmt.Sprintf("✓ Rover %d landed at %s\nProgram: %s\n\n%s",
		result.Index, result.Pose, result.Commands, formatSnapshot(result.State))
	return mcp.NewToolResultText(response), nil
}

func (c *Client) handleSendCommand(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	command, _ := args["command"].(string)
	rover, ok := intArg(args, "rover")
	if !ok {
		return mcp.NewToolResultError("rover index is required"), nil
	}

	var result service.CommandResult
	err := c.apiCall(ctx, "POST", sessionPath(sessionID, fmt.Sprintf("/rovers/%d/command", rover)),
		map[string]string{"command": command}, &result)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatCommandResult(&result)), nil
}

func (c *Client) handleExecute(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var result service.ExecuteResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/execute"), nil, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatExecuteResult(&result)), nil
}

func (c *Client) handleStepHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)

	params := url.Values{}
	if page, ok := intArg(args, "page"); ok {
		params.Set("page", strconv.Itoa(page))
	}
	if limit, ok := intArg(args, "limit"); ok {
		params.Set("limit", strconv.Itoa(limit))
	}
	if order, _ := args["order"].(string); order != "" {
		params.Set("order", order)
	}
	if rover, ok := intArg(args, "rover"); ok {
		params.Set("rover", strconv.Itoa(rover))
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

func (c *Client) handleListMissions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var missions []service.MissionInfo
	if err := c.apiCall(ctx, "GET", "/api/missions", nil, &missions); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Available Missions (%d):\n\n", len(missions))
	for _, m := range missions {
		fmt.Fprintf(&b, "- %s: %s (plateau %s, %d rovers)\n", m.MissionID, m.Name, m.Plateau, m.RoverCount)
		if m.Description != "" {
			fmt.Fprintf(&b, "  %s\n", m.Description)
		}
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleRoverInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	instructions := `Mars Rover Mission Control - Complete Instructions

PLATEAU:
The plateau is a rectangle whose lower-left corner is 0 0. Set its upper-right
corner with set_plateau using two integers separated by exactly one space ("5 5").
Coordinates are inclusive: on a "5 5" plateau x and y run from 0 to 5.

ROVERS:
Land a rover with add_rover. The location is x, y and a facing letter separated
by single spaces ("1 2 N"). Facing is one of N, E, S, W. North is +y and east is +x.
Rovers are numbered from 0 in the order they land.

COMMANDS:
- L: turn 90 degrees left without moving
- R: turn 90 degrees right without moving
- M: move one grid point forward

A command program is a string of these letters with nothing else ("LMLMLMLMM").

MOVEMENT RULES:
- A rover never leaves the plateau. Moving into an edge succeeds and leaves the
  rover where it is.
- Rovers do not collide. Several rovers may share a grid point.
- execute runs each rover's whole program before the next rover starts.
- Running execute again replays every program from the rovers' current poses.

ERRORS:
- "Boundries you entered are not in correct format"
- "Rover locations you entered are not in correct format"
- "Rover commands you entered are not in correct format"
- "The plateau of planet is not ready": set the plateau first
- "There is not any rover to command": land a rover first

EXAMPLE:
  set_plateau "5 5"
  add_rover "1 2 N" "LMLMLMLMM"
  add_rover "3 3 E" "MMRMMRMRRM"
  execute
Final poses: "1 3 N" and "5 1 E".`

	return mcp.NewToolResultText(instructions), nil
}

// Formatting helpers

func formatSessionInfo(session *service.SessionInfo) string {
	result := fmt.Sprintf("Session: %s\n", session.ID)
	if session.MissionName != "" {
		result += fmt.Sprintf("Mission: %s\n", session.MissionName)
	}
	result += fmt.Sprintf("Runs: %d\nCreated: %s\nLast Accessed: %s\n\n",
		session.Runs,
		session.CreatedAt.Format(time.RFC3339),
		session.LastAccessedAt.Format(time.RFC3339))
	result += formatSnapshot(session.State)
	return result
}

func formatSnapshot(snap *engine.Snapshot) string {
	if snap == nil {
		return "State: unavailable\n"
	}

	var b strings.Builder
	if snap.PlateauReady && snap.Plateau != nil {
		fmt.Fprintf(&b, "Plateau: (%d,%d) to (%d,%d)\n", snap.Plateau.Left, snap.Plateau.Bottom, snap.Plateau.Right, snap.Plateau.Top)
	} else {
		b.WriteString("Plateau: not set\n")
	}

	fmt.Fprintf(&b, "Rovers (%d):\n", len(snap.Rovers))
	for _, r := range snap.Rovers {
		fmt.Fprintf(&b, "  %d: %s", r.Index, r.Pose())
		if r.Commands != "" {
			fmt.Fprintf(&b, " program %s", r.Commands)
		}
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "Total Steps: %d\n", snap.TotalSteps)

	if m := formatPlateauMap(snap); m != "" {
		b.WriteString("\nMap:\n")
		b.WriteString(m)
	}
	return b.String()
}

// formatPlateauMap draws the plateau with north at the top. A cell holding
// more than one rover shows how many.
func formatPlateauMap(snap *engine.Snapshot) string {
	if !snap.PlateauReady || snap.Plateau == nil {
		return ""
	}
	p := snap.Plateau
	if p.Right-p.Left >= maxMapSize || p.Top-p.Bottom >= maxMapSize {
		return ""
	}

	cells := map[engine.Position][]engine.RoverPose{}
	for _, r := range snap.Rovers {
		pos := engine.Position{X: r.X, Y: r.Y}
		cells[pos] = append(cells[pos], r)
	}

	var b strings.Builder
	for y := p.Top; y >= p.Bottom; y-- {
		fmt.Fprintf(&b, "%3d ", y)
		for x := p.Left; x <= p.Right; x++ {
			b.WriteString(cellGlyph(cells[engine.Position{X: x, Y: y}]))
		}
		b.WriteByte('\n')
	}
	b.WriteString("    ")
	for x := p.Left; x <= p.Right; x++ {
		b.WriteString(strconv.Itoa(x % 10))
	}
	b.WriteByte('\n')
	return b.String()
}

func cellGlyph(rovers []engine.RoverPose) string {
	switch len(rovers) {
	case 0:
		return "."
	case 1:
		return headingGlyph(rovers[0].Facing)
	}
	if len(rovers) > 9 {
		return "*"
	}
	return strconv.Itoa(len(rovers))
}

func headingGlyph(d engine.Direction) string {
	switch d {
	case engine.North:
		return "^"
	case engine.East:
		return ">"
	case engine.South:
		return "v"
	case engine.West:
		return "<"
	}
	return "?"
}

func formatCommandResult(result *service.CommandResult) string {
	var b strings.Builder
	switch {
	case result.Step == nil:
		fmt.Fprintf(&b, "✓ Rover %d: %s\n", result.Rover, result.Pose)
	case result.Step.Command == engine.MoveForward && !result.Moved:
		fmt.Fprintf(&b, "⚠ Rover %d is at the plateau edge facing %s and stayed at %s\n",
			result.Rover, result.Step.FacingAfter, result.Pose)
	default:
		fmt.Fprintf(&b, "✓ Rover %d %s: %s\n", result.Rover, result.Step.Command, result.Pose)
	}
	b.WriteByte('\n')
	b.WriteString(formatSnapshot(result.State))
	return b.String()
}

func formatExecuteResult(result *service.ExecuteResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "✓ Run %d executed %d steps\n\nFinal poses:\n", result.Run, result.StepsExecuted)
	for _, pose := range result.Poses {
		b.WriteString(pose)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	b.WriteString(formatSnapshot(result.State))
	return b.String()
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Step History (Page %d/%d) - Total: %d\n\n",
		history.Page, history.TotalPages, history.TotalSteps)

	for _, step := range history.Steps {
		status := "✓"
		if step.Command == engine.MoveForward && !step.Moved {
			status = "⚠ blocked"
		}
		fmt.Fprintf(&b, "%d. rover %d %s (%d,%d %s) -> (%d,%d %s) %s\n",
			step.StepNumber, step.Rover, step.Command,
			step.From.X, step.From.Y, step.FacingBefore,
			step.To.X, step.To.Y, step.FacingAfter,
			status)
	}

	if history.HasNext {
		fmt.Fprintf(&b, "\nMore steps on page %d\n", history.Page+1)
	}
	return b.String()
}
