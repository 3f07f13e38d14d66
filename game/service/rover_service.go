package service

import (
	"context"
	"errors"
	"time"

	"github.com/wricardo/mars-rover/game/engine"
)

// Lookup errors shared by the session and mission managers
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrMissionNotFound = errors.New("mission not found")
)

// RoverService defines all mission-related operations
type RoverService interface {
	// Session Management
	CreateSession(ctx context.Context, missionName string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Rover Operations
	SetPlateau(ctx context.Context, sessionID, boundaries string) (*engine.Snapshot, error)
	AddRover(ctx context.Context, sessionID, location, commands string) (*RoverResult, error)
	Command(ctx context.Context, sessionID string, roverIndex int, command string) (*CommandResult, error)
	// Execute runs every rover's program. When a step fails after earlier
	// steps moved rovers, the partial result is returned with the error.
	Execute(ctx context.Context, sessionID string) (*ExecuteResult, error)

	// Mission State
	GetState(ctx context.Context, sessionID string) (*MissionState, error)
	GetHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error)

	// Missions
	ListMissions(ctx context.Context) ([]*MissionInfo, error)
	LoadMission(ctx context.Context, missionName string) (*engine.Mission, error)
	SaveMission(ctx context.Context, missionName string, mission *engine.Mission) error
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id string, mission *engine.Mission) (*Session, error)
	Get(id string) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
	Save(id string) error
}

// MissionManager handles mission loading
type MissionManager interface {
	LoadMission(name string) (*engine.Mission, error)
	ListMissions() ([]*MissionInfo, error)
	GetDefault() *engine.Mission
	SaveMission(name string, mission *engine.Mission) error
}

// Session represents an active rover mission. Mission holds every input the
// engine accepted so far, which is enough to rebuild the engine.
type Session struct {
	ID             string
	Engine         *engine.Controller
	Mission        *engine.Mission
	Runs           int
	CreatedAt      time.Time
	LastAccessedAt time.Time
}
