// Package service provides the business logic layer for the Mars rover
// mission server.
//
// The service package implements:
//   - Multi-session mission management
//   - Mission loading by name
//   - Plateau, rover and command operations on a session's engine
//   - Step history pagination
//
// Core Interfaces:
//
// RoverService is the main service interface used by the REST API.
// SessionManager handles session creation, retrieval, and lifecycle.
// MissionManager loads and saves mission files.
//
// Architecture:
//
// The service layer sits between the transport layer (HTTP/WebSocket/MCP)
// and the movement engine. Each session owns its own engine. The engine is
// not safe for concurrent use, so the service serializes every call with a
// single mutex.
//
// Errors from the engine are returned unwrapped so that callers can show
// their message verbatim and match them with errors.Is.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	missionMgr, _ := config.NewManager("missions")
//	roverService := service.NewRoverService(sessionMgr, missionMgr)
//
//	info, err := roverService.CreateSession(ctx, "classic")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := roverService.Execute(ctx, info.ID)
//	fmt.Println(result.Poses) // [1 3 N 5 1 E]
package service
