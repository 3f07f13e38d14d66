package session

import (
	"fmt"
	"time"

	"github.com/wricardo/mars-rover/game/engine"
	"github.com/wricardo/mars-rover/game/service"
)

// SessionPersistence defines the interface for persisting sessions
type SessionPersistence interface {
	// Save persists a session to storage
	Save(session *service.Session) error

	// Load retrieves a session from storage by ID
	Load(id string) (*service.Session, error)

	// Delete removes a session from storage
	Delete(id string) error

	// ListAll returns all persisted session IDs
	ListAll() ([]string, error)

	// Exists checks if a session exists in storage
	Exists(id string) bool
}

// PersistedSessionData is the stored form of a session. The mission holds the
// accepted inputs and Rovers the poses at save time. Step history is not
// stored.
type PersistedSessionData struct {
	ID             string             `json:"id"`
	Mission        *engine.Mission    `json:"mission"`
	Rovers         []engine.RoverPose `json:"rovers"`
	Runs           int                `json:"runs"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
}

func newPersistedSessionData(session *service.Session) *PersistedSessionData {
	return &PersistedSessionData{
		ID:             session.ID,
		Mission:        session.Mission,
		Rovers:         session.Engine.Snapshot().Rovers,
		Runs:           session.Runs,
		CreatedAt:      session.CreatedAt,
		LastAccessedAt: session.LastAccessedAt,
	}
}

// restore rebuilds a session by replaying the mission inputs into a new
// engine and moving every rover to its saved pose.
func (data *PersistedSessionData) restore() (*service.Session, error) {
	mission := data.Mission
	if mission == nil {
		mission = &engine.Mission{}
	}

	ctrl, err := buildEngine(mission)
	if err != nil {
		return nil, fmt.Errorf("failed to replay mission: %w", err)
	}

	rovers := ctrl.Rovers()
	if len(rovers) != len(data.Rovers) {
		return nil, fmt.Errorf("persisted session has %d rover poses for %d rovers", len(data.Rovers), len(rovers))
	}
	for i, pose := range data.Rovers {
		rovers[i].Location = &engine.Position{X: pose.X, Y: pose.Y}
		rovers[i].Facing = pose.Facing
	}

	return &service.Session{
		ID:             data.ID,
		Engine:         ctrl,
		Mission:        mission,
		Runs:           data.Runs,
		CreatedAt:      data.CreatedAt,
		LastAccessedAt: data.LastAccessedAt,
	}, nil
}
