package engine

import (
	"fmt"
	"strings"
)

// Validation limits for missions
const (
	MaxMissionRovers  = 50
	MaxRoverCommands  = 1000
	DefaultMissionKey = "classic"
)

// RoverPlan is a rover as written in a mission: raw location and command text
type RoverPlan struct {
	Location string `json:"location"`
	Commands string `json:"commands"`
}

// Mission is a plateau plus the rovers to deploy on it
type Mission struct {
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Plateau     string      `json:"plateau"`
	Rovers      []RoverPlan `json:"rovers"`
}

// DefaultMission returns the two-rover mission used when no mission file is
// available.
func DefaultMission() *Mission {
	return &Mission{
		Name:        "Classic",
		Description: "Two rovers on a 5x5 plateau",
		Plateau:     "5 5",
		Rovers: []RoverPlan{
			{Location: "1 2 N", Commands: "LMLMLMLMM"},
			{Location: "3 3 E", Commands: "MMRMMRMRRM"},
		},
	}
}

// Apply sets the plateau on eng and registers every rover in order. Errors
// from the engine are returned unchanged for the plateau and wrapped with the
// rover number for rovers.
func (m *Mission) Apply(eng Engine) ([]*Rover, error) {
	if err := eng.SetPlanetArea(m.Plateau); err != nil {
		return nil, err
	}

	rovers := make([]*Rover, 0, len(m.Rovers))
	for i, plan := range m.Rovers {
		rover, err := eng.AddRover(&Rover{}, plan.Location, plan.Commands)
		if err != nil {
			return nil, fmt.Errorf("rover %d: %w", i+1, err)
		}
		rovers = append(rovers, rover)
	}

	return rovers, nil
}

// ValidateMission checks required fields and dry-runs the mission against a
// fresh controller.
func ValidateMission(m *Mission) error {
	if m == nil {
		return fmt.Errorf("mission validation: mission is nil")
	}
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("mission validation: name is required")
	}
	if strings.TrimSpace(m.Plateau) == "" {
		return fmt.Errorf("mission validation: plateau is required")
	}
	if len(m.Rovers) == 0 {
		return fmt.Errorf("mission validation: at least one rover is required")
	}
	if len(m.Rovers) > MaxMissionRovers {
		return fmt.Errorf("mission validation: at most %d rovers allowed, got %d", MaxMissionRovers, len(m.Rovers))
	}
	for i, plan := range m.Rovers {
		if len(plan.Commands) > MaxRoverCommands {
			return fmt.Errorf("mission validation: rover %d has %d commands, limit is %d", i+1, len(plan.Commands), MaxRoverCommands)
		}
	}

	ctrl := NewController()
	if _, err := m.Apply(ctrl); err != nil {
		return fmt.Errorf("mission validation: %w", err)
	}
	if err := ctrl.ExecuteCommands(); err != nil {
		return fmt.Errorf("mission validation: %w", err)
	}

	return nil
}

// Run applies the mission to a new controller, executes it and returns the
// controller with the rovers in their final poses.
func (m *Mission) Run(opts ...Option) (*Controller, error) {
	ctrl := NewController(opts...)
	if _, err := m.Apply(ctrl); err != nil {
		return nil, err
	}
	if err := ctrl.ExecuteCommands(); err != nil {
		return nil, err
	}
	return ctrl, nil
}
