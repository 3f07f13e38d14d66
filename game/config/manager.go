package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/wricardo/mars-rover/game/engine"
	"github.com/wricardo/mars-rover/game/service"
)

var (
	ErrMissionNotFound = service.ErrMissionNotFound
	ErrInvalidMission  = errors.New("invalid mission")
)

// Manager handles mission loading and caching
type Manager struct {
	missionDir     string
	defaultMission *engine.Mission
	missions       map[string]*engine.Mission
	mu             sync.RWMutex
}

// NewManager creates a new mission manager for missionDir
func NewManager(missionDir string) (*Manager, error) {
	if _, err := os.Stat(missionDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("mission directory does not exist: %s", missionDir)
	}

	m := &Manager{
		missionDir: missionDir,
		missions:   make(map[string]*engine.Mission),
	}

	m.loadDefaultMission()
	return m, nil
}

// LoadMission loads a mission by id. The id is the file name with or
// without its extension; JSON is tried before the text format.
func (m *Manager) LoadMission(id string) (*engine.Mission, error) {
	m.mu.RLock()
	if mission, exists := m.missions[id]; exists {
		m.mu.RUnlock()
		return cloneMission(mission), nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	if mission, exists := m.missions[id]; exists {
		return cloneMission(mission), nil
	}

	path, err := m.resolve(id)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mission file: %w", err)
	}

	mission, err := DecodeMission(path, data)
	if err != nil {
		return nil, err
	}

	if err := engine.ValidateMission(mission); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMission, err)
	}

	m.missions[id] = mission
	return cloneMission(mission), nil
}

// resolve finds the file backing a mission id
func (m *Manager) resolve(id string) (string, error) {
	if strings.ContainsAny(id, `/\`) || id == "" || id == "." || id == ".." {
		return "", ErrMissionNotFound
	}

	candidates := []string{id}
	if formatOf(id) == "" {
		candidates = []string{id + ".json", id + ".txt"}
	}

	for _, name := range candidates {
		path := filepath.Join(m.missionDir, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", ErrMissionNotFound
}

// ListMissions returns information about all valid missions in the directory
func (m *Manager) ListMissions() ([]*service.MissionInfo, error) {
	entries, err := os.ReadDir(m.missionDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read mission directory: %w", err)
	}

	var missions []*service.MissionInfo

	for _, entry := range entries {
		format := formatOf(entry.Name())
		if entry.IsDir() || format == "" {
			continue
		}

		mission, err := m.LoadMission(entry.Name())
		if err != nil {
			log.Debug().Err(err).Str("file", entry.Name()).Msg("skipping invalid mission")
			continue
		}

		missions = append(missions, &service.MissionInfo{
			Filename:    entry.Name(),
			MissionID:   missionIDFromFilename(entry.Name()),
			Name:        mission.Name,
			Description: mission.Description,
			Plateau:     mission.Plateau,
			RoverCount:  len(mission.Rovers),
			Format:      format,
		})
	}

	sort.Slice(missions, func(i, j int) bool {
		return missions[i].Filename < missions[j].Filename
	})

	return missions, nil
}

// GetDefault returns the default mission
func (m *Manager) GetDefault() *engine.Mission {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneMission(m.defaultMission)
}

// SetDefault sets the default mission by id
func (m *Manager) SetDefault(id string) error {
	mission, err := m.LoadMission(id)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultMission = mission
	return nil
}

// RefreshCache drops cached missions and reloads the default
func (m *Manager) RefreshCache() {
	m.mu.Lock()
	m.missions = make(map[string]*engine.Mission)
	m.mu.Unlock()

	m.loadDefaultMission()
}

// loadDefaultMission prefers the "classic" mission file and falls back to
// the built-in mission.
func (m *Manager) loadDefaultMission() {
	mission, err := m.LoadMission(engine.DefaultMissionKey)
	if err != nil {
		mission = engine.DefaultMission()
	}

	m.mu.Lock()
	m.defaultMission = mission
	m.mu.Unlock()
}

// SaveMission validates and writes a mission. The format follows the
// extension of id and defaults to JSON.
func (m *Manager) SaveMission(id string, mission *engine.Mission) error {
	if err := engine.ValidateMission(mission); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMission, err)
	}
	if strings.ContainsAny(id, `/\`) || strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: invalid mission id %q", ErrInvalidMission, id)
	}

	filename := id
	if formatOf(filename) == "" {
		filename = id + ".json"
	}

	var data []byte
	switch formatOf(filename) {
	case FormatText:
		data = []byte(FormatScript(mission))
	default:
		var err error
		data, err = json.MarshalIndent(mission, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal mission: %w", err)
		}
	}

	path := filepath.Join(m.missionDir, filename)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write mission file: %w", err)
	}

	m.mu.Lock()
	m.missions[id] = cloneMission(mission)
	m.missions[filename] = cloneMission(mission)
	m.mu.Unlock()

	return nil
}

func cloneMission(mission *engine.Mission) *engine.Mission {
	if mission == nil {
		return nil
	}
	out := *mission
	out.Rovers = append([]engine.RoverPlan(nil), mission.Rovers...)
	return &out
}
