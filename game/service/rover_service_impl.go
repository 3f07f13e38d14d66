package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/wricardo/mars-rover/game/engine"
)

// DefaultMissionName selects the mission manager's default mission
const DefaultMissionName = "default"

// roverServiceImpl implements the RoverService interface. A single mutex
// serializes every engine call since the engine is not safe for concurrent
// use.
type roverServiceImpl struct {
	sessions SessionManager
	missions MissionManager
	mu       sync.Mutex
}

// NewRoverService creates a new rover service instance
func NewRoverService(sessions SessionManager, missions MissionManager) RoverService {
	return &roverServiceImpl{
		sessions: sessions,
		missions: missions,
	}
}

// CreateSession creates a session. An empty mission name starts a blank
// session with no plateau and no rovers; "default" uses the default mission.
// The mission's rovers are registered but their commands are not run.
func (s *roverServiceImpl) CreateSession(ctx context.Context, missionName string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var mission *engine.Mission
	switch missionName {
	case "":
		mission = &engine.Mission{}
	case DefaultMissionName:
		mission = s.missions.GetDefault()
	default:
		var err error
		mission, err = s.missions.LoadMission(missionName)
		if err != nil {
			if errors.Is(err, ErrMissionNotFound) {
				available, listErr := s.missions.ListMissions()
				if listErr == nil && len(available) > 0 {
					ids := make([]string, 0, len(available))
					for _, m := range available {
						ids = append(ids, m.MissionID)
					}
					sort.Strings(ids)
					return nil, fmt.Errorf("%w: '%s'. Available missions: %v", ErrMissionNotFound, missionName, ids)
				}
				return nil, fmt.Errorf("%w: '%s'. Use /api/missions to list available missions", ErrMissionNotFound, missionName)
			}
			return nil, fmt.Errorf("failed to load mission %s: %w", missionName, err)
		}
	}

	sess, err := s.sessions.Create("", mission)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	log.Info().Str("session", sess.ID).Str("mission", mission.Name).Msg("session created")
	return sessionInfo(sess), nil
}

// GetSession retrieves session information
func (s *roverServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return sessionInfo(sess), nil
}

// ListSessions returns all active sessions ordered by creation time
func (s *roverServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, sessionInfo(sess))
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})

	return result, nil
}

// DeleteSession removes a session
func (s *roverServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessions.Delete(sessionID); err != nil {
		return fmt.Errorf("session %s: %w", sessionID, err)
	}
	return nil
}

// SetPlateau sets or replaces the session's plateau. Engine errors are
// returned unwrapped.
func (s *roverServiceImpl) SetPlateau(ctx context.Context, sessionID, boundaries string) (*engine.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	if err := sess.Engine.SetPlanetArea(boundaries); err != nil {
		return nil, err
	}
	sess.Mission.Plateau = boundaries

	s.persist(sess.ID, "plateau")
	return sess.Engine.Snapshot(), nil
}

// AddRover registers a new rover with its command program
func (s *roverServiceImpl) AddRover(ctx context.Context, sessionID, location, commands string) (*RoverResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	rover, err := sess.Engine.AddRover(&engine.Rover{}, location, commands)
	if err != nil {
		return nil, err
	}
	sess.Mission.Rovers = append(sess.Mission.Rovers, engine.RoverPlan{
		Location: location,
		Commands: commands,
	})

	s.persist(sess.ID, "rover")

	return &RoverResult{
		Index:    len(sess.Engine.Rovers()) - 1,
		Pose:     rover.Pose(),
		Commands: engine.FormatCommands(sess.Engine.Commands(rover)),
		State:    sess.Engine.Snapshot(),
	}, nil
}

// Command runs one L, R or M command on the rover at roverIndex. An index
// with no rover behind it is reported the same way the engine reports a
// missing rover.
func (s *roverServiceImpl) Command(ctx context.Context, sessionID string, roverIndex int, command string) (*CommandResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	program, err := engine.ParseCommands(command)
	if err != nil {
		return nil, err
	}
	if len(program) != 1 {
		return nil, engine.ErrCommandsNotCorrectFormat
	}

	var rover *engine.Rover
	rovers := sess.Engine.Rovers()
	if roverIndex >= 0 && roverIndex < len(rovers) {
		rover = rovers[roverIndex]
	}

	before := len(sess.Engine.History())
	if err := sess.Engine.Step(rover, program[0]); err != nil {
		return nil, err
	}

	result := &CommandResult{
		Rover: roverIndex,
		Pose:  rover.Pose(),
		State: sess.Engine.Snapshot(),
	}
	if history := sess.Engine.History(); len(history) > before {
		step := history[len(history)-1]
		result.Step = &step
		result.Moved = step.Moved
	}

	s.persist(sess.ID, "command")
	return result, nil
}

// Execute runs every rover's queued commands. Running again continues from
// the rovers' current poses.
func (s *roverServiceImpl) Execute(ctx context.Context, sessionID string) (*ExecuteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	before := len(sess.Engine.History())
	err = sess.Engine.ExecuteCommands()
	executed := len(sess.Engine.History()) - before
	if err != nil {
		if executed == 0 {
			return nil, err
		}
		// Steps that ran before the failure still moved rovers
		s.persist(sess.ID, "execute")
		snap := sess.Engine.Snapshot()
		log.Warn().Err(err).Str("session", sess.ID).Int("steps", executed).Msg("mission stopped after partial execution")
		return &ExecuteResult{
			Run:           sess.Runs,
			StepsExecuted: executed,
			Poses:         Poses(snap),
			State:         snap,
		}, err
	}

	sess.Runs++
	s.persist(sess.ID, "execute")

	snap := sess.Engine.Snapshot()
	log.Info().Str("session", sess.ID).Int("run", sess.Runs).Int("steps", executed).Msg("mission executed")

	return &ExecuteResult{
		Run:           sess.Runs,
		StepsExecuted: executed,
		Poses:         Poses(snap),
		State:         snap,
	}, nil
}

// GetState retrieves the current mission state
func (s *roverServiceImpl) GetState(ctx context.Context, sessionID string) (*MissionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	snap := sess.Engine.Snapshot()
	return &MissionState{
		SessionID:   sess.ID,
		MissionName: sess.Mission.Name,
		Runs:        sess.Runs,
		Poses:       Poses(snap),
		Snapshot:    snap,
	}, nil
}

// GetHistory returns paginated step history
func (s *roverServiceImpl) GetHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	history := sess.Engine.History()
	if opts.Rover != nil {
		filtered := history[:0]
		for _, step := range history {
			if step.Rover == *opts.Rover {
				filtered = append(filtered, step)
			}
		}
		history = filtered
	}

	return paginate(history, opts), nil
}

// ListMissions returns available missions
func (s *roverServiceImpl) ListMissions(ctx context.Context) ([]*MissionInfo, error) {
	return s.missions.ListMissions()
}

// LoadMission loads a specific mission
func (s *roverServiceImpl) LoadMission(ctx context.Context, missionName string) (*engine.Mission, error) {
	if missionName == DefaultMissionName {
		return s.missions.GetDefault(), nil
	}
	return s.missions.LoadMission(missionName)
}

// SaveMission saves a mission to disk
func (s *roverServiceImpl) SaveMission(ctx context.Context, missionName string, mission *engine.Mission) error {
	if missionName == DefaultMissionName {
		return errors.New("mission name 'default' is reserved")
	}
	return s.missions.SaveMission(missionName, mission)
}

// session looks up a session and marks it accessed. Callers hold s.mu.
func (s *roverServiceImpl) session(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}
	if err := s.sessions.UpdateLastAccessed(sess.ID); err != nil {
		log.Debug().Err(err).Str("session", sess.ID).Msg("failed to update last access")
	}
	return sess, nil
}

func (s *roverServiceImpl) persist(sessionID, after string) {
	if err := s.sessions.Save(sessionID); err != nil {
		log.Warn().Err(err).Str("session", sessionID).Str("after", after).Msg("failed to persist session")
	}
}

func sessionInfo(sess *Session) *SessionInfo {
	return &SessionInfo{
		ID:             sess.ID,
		MissionName:    sess.Mission.Name,
		Runs:           sess.Runs,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		State:          sess.Engine.Snapshot(),
	}
}

// paginate applies defaults and slices one page of history
func paginate(history []engine.StepRecord, opts HistoryOptions) *HistoryResponse {
	total := len(history)

	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	steps := []engine.StepRecord{}
	// Pages past the end are empty; start is only computed in range.
	if opts.Page <= totalPages {
		start := (opts.Page - 1) * opts.Limit
		end := start + opts.Limit
		if end > total {
			end = total
		}

		if opts.Order == "desc" {
			// Most recent first
			for i := total - 1 - start; i >= 0 && i >= total-end; i-- {
				steps = append(steps, history[i])
			}
		} else if start < total {
			steps = append(steps, history[start:end]...)
		}
	}

	return &HistoryResponse{
		Steps:       steps,
		TotalSteps:  total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}
}
