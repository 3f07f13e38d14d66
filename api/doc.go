// Package api provides the HTTP REST API for the Mars rover mission server.
//
// Endpoints:
//
// Session Management:
//   - POST /api/sessions - Create a session ({"mission": "classic"}, optional)
//   - GET /api/sessions - List sessions (sort=created|accessed, order, limit)
//   - GET /api/sessions/{id} - Get a session
//   - DELETE /api/sessions/{id} - Delete a session
//
// Rover Operations:
//   - GET /api/sessions/{id}/state - Current plateau and rover poses
//   - PUT /api/sessions/{id}/plateau - Set the plateau ({"boundaries": "5 5"})
//   - POST /api/sessions/{id}/rovers - Add a rover ({"location": "1 2 N", "commands": "LMLMLMLMM"})
//   - POST /api/sessions/{id}/rovers/{index}/command - Run one command ({"command": "M"})
//   - POST /api/sessions/{id}/execute - Run every queued command
//   - GET /api/sessions/{id}/history - Step history (page, limit, order, rover)
//
// Missions:
//   - GET /api/missions - List mission files
//   - POST /api/missions - Save a mission
//   - GET /api/missions/{name} - Load a mission
//
// WebSocket:
//   - GET /ws?session={id} - Stream session snapshots
//
// Error Handling:
//
// Errors are returned as JSON:
//
//	{"error": "Rover locations you entered are not in correct format"}
//
// Movement rule violations use 422 and carry the engine message unchanged.
// Unknown sessions and missions use 404 and malformed bodies use 400.
//
// Usage:
//
//	server := api.NewServer(roverService, hub)
//	http.ListenAndServe(":8080", server)
package api
