// Package session provides session management for the Mars rover server.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Unique session ID generation
//   - Session persistence to JSON files or SQLite
//   - Session cleanup and expiration
//
// Core Types:
//
// Manager is the main session manager that handles all session operations.
// Each session owns its own movement engine, built from the mission the
// session was created with.
//
// Session Identifiers:
//
// Generated IDs are 4 hex characters. Caller supplied IDs may contain
// letters, digits, dashes and underscores and are matched case-insensitively.
//
// Persistence:
//
// A persisted session stores the mission inputs the engine accepted and the
// current pose of every rover. Loading replays the inputs into a new engine
// and moves the rovers back to their poses. Step history starts empty after
// a reload.
//
// Usage:
//
//	store, err := session.NewSQLitePersistence("data/sessions.db")
//	if err != nil {
//		log.Fatal(err)
//	}
//	manager := session.NewManagerWithPersistence(store)
//	manager.LoadPersistedSessions()
//
//	sess, err := manager.Create("", mission)
//	if err != nil {
//		log.Fatal(err)
//	}
package session
