package service

import (
	"time"

	"github.com/wricardo/mars-rover/game/engine"
)

// SessionInfo provides information about a rover session
type SessionInfo struct {
	ID             string           `json:"id"`
	MissionName    string           `json:"mission_name"`
	Runs           int              `json:"runs"`
	CreatedAt      time.Time        `json:"created_at"`
	LastAccessedAt time.Time        `json:"last_accessed_at"`
	State          *engine.Snapshot `json:"state"`
}

// MissionState is the current state of a session's mission
type MissionState struct {
	SessionID   string           `json:"session_id"`
	MissionName string           `json:"mission_name"`
	Runs        int              `json:"runs"`
	Poses       []string         `json:"poses"`
	Snapshot    *engine.Snapshot `json:"snapshot"`
}

// RoverResult is returned after a rover has been registered
type RoverResult struct {
	Index    int              `json:"index"`
	Pose     string           `json:"pose"`
	Commands string           `json:"commands"`
	State    *engine.Snapshot `json:"state"`
}

// CommandResult contains the result of a single rover command
type CommandResult struct {
	Rover int                `json:"rover"`
	Pose  string             `json:"pose"`
	Moved bool               `json:"moved"`
	Step  *engine.StepRecord `json:"step,omitempty"`
	State *engine.Snapshot   `json:"state"`
}

// ExecuteResult contains the result of running every queued command
type ExecuteResult struct {
	Run           int              `json:"run"`
	StepsExecuted int              `json:"steps_executed"`
	Poses         []string         `json:"poses"`
	State         *engine.Snapshot `json:"state"`
}

// HistoryOptions configures step history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
	Rover *int   `json:"rover,omitempty"`
}

// HistoryResponse contains paginated step history
type HistoryResponse struct {
	Steps       []engine.StepRecord `json:"steps"`
	TotalSteps  int                 `json:"total_steps"`
	Page        int                 `json:"page"`
	PageSize    int                 `json:"page_size"`
	TotalPages  int                 `json:"total_pages"`
	HasNext     bool                `json:"has_next"`
	HasPrevious bool                `json:"has_previous"`
}

// MissionInfo provides information about a mission file
type MissionInfo struct {
	Filename    string `json:"filename"`
	MissionID   string `json:"mission_id"` // The identifier to use for session creation
	Name        string `json:"name"`       // Display name
	Description string `json:"description"`
	Plateau     string `json:"plateau"`
	RoverCount  int    `json:"rover_count"`
	Format      string `json:"format"`
}

// Poses lists the "x y F" pose of every rover in registration order
func Poses(snap *engine.Snapshot) []string {
	if snap == nil {
		return []string{}
	}
	out := make([]string, 0, len(snap.Rovers))
	for _, r := range snap.Rovers {
		out = append(out, r.Pose())
	}
	return out
}
