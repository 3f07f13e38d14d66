// Package websocket streams rover session updates to browser clients.
//
// A central Hub owns every connection. Clients attach to one session with
// the ?session=<id> query parameter on /ws and receive a JSON Message each
// time the session changes:
//
//	{"session_id": "a1b2", "event": "executed", "state": {...snapshot...}}
//
// Events are plateau_set, rover_added, command and executed. Incoming
// client messages are read and discarded.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run(ctx)
//
//	hub.BroadcastToSession(sessionID, websocket.EventExecuted, snapshot)
//
// Broadcasts are queued and never block the caller. When the queue is full
// the message is dropped and a warning is logged.
package websocket
