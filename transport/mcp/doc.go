// Package mcp exposes the rover mission server to AI agents through the
// Model Context Protocol.
//
// The Client is a thin proxy: every tool call becomes a REST request against
// the API server, and the JSON response is rendered as text for the agent.
// Rule violations reported by the API come back as tool errors carrying the
// server's message.
//
// MCP Tools:
//   - create_session: Create a session, blank or from a stored mission
//   - list_sessions: List all active sessions
//   - get_session: Get specific session details
//   - mission_state: Plateau, rover poses and an ASCII map
//   - set_plateau: Set the plateau boundaries
//   - add_rover: Land a rover with its command program
//   - send_command: Send one command to one rover
//   - execute: Run every rover's program
//   - step_history: Retrieve executed steps with pagination
//   - list_missions: List stored missions
//   - rover_instructions: Movement rules and input formats
//
// Transport Modes:
//
// The same MCPServer can be served over stdio for local MCP clients or over
// streamable HTTP next to the REST API.
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//
//	// Stdio mode
//	server.ServeStdio(client.GetMCPServer())
//
//	// HTTP mode
//	router.Handle("/mcp", server.NewStreamableHTTPServer(client.GetMCPServer()))
package mcp
