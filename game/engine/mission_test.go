package engine

import (
	"errors"
	"strings"
	"testing"
)

func TestDefaultMission(t *testing.T) {
	m := DefaultMission()
	if err := ValidateMission(m); err != nil {
		t.Fatalf("Default mission should be valid: %v", err)
	}

	ctrl, err := m.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	rovers := ctrl.Rovers()
	if len(rovers) != 2 {
		t.Fatalf("Expected 2 rovers, got %d", len(rovers))
	}
	if rovers[0].Pose() != "1 3 N" || rovers[1].Pose() != "5 1 E" {
		t.Errorf("Unexpected final poses %s / %s", rovers[0].Pose(), rovers[1].Pose())
	}
}

func TestValidateMission(t *testing.T) {
	valid := func() *Mission {
		return &Mission{
			Name:    "test",
			Plateau: "5 5",
			Rovers:  []RoverPlan{{Location: "1 2 N", Commands: "M"}},
		}
	}

	tests := []struct {
		name    string
		mutate  func(m *Mission)
		wantErr string
		wantIs  error
	}{
		{"valid", func(m *Mission) {}, "", nil},
		{"missing name", func(m *Mission) { m.Name = " " }, "name is required", nil},
		{"missing plateau", func(m *Mission) { m.Plateau = "" }, "plateau is required", nil},
		{"no rovers", func(m *Mission) { m.Rovers = nil }, "at least one rover", nil},
		{"bad plateau", func(m *Mission) { m.Plateau = "5" }, "", ErrBoundriesNotCorrectFormat},
		{"bad location", func(m *Mission) { m.Rovers[0].Location = "1 2" }, "rover 1", ErrLocationsNotCorrectFormat},
		{"bad commands", func(m *Mission) { m.Rovers[0].Commands = "MX" }, "rover 1", ErrCommandsNotCorrectFormat},
		{"too many commands", func(m *Mission) { m.Rovers[0].Commands = strings.Repeat("M", MaxRoverCommands+1) }, "limit is", nil},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			m := valid()
			test.mutate(m)
			err := ValidateMission(m)

			if test.wantErr == "" && test.wantIs == nil {
				if err != nil {
					t.Fatalf("Expected valid mission, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if test.wantErr != "" && !strings.Contains(err.Error(), test.wantErr) {
				t.Errorf("Expected error containing %q, got %v", test.wantErr, err)
			}
			if test.wantIs != nil && !errors.Is(err, test.wantIs) {
				t.Errorf("Expected error wrapping %v, got %v", test.wantIs, err)
			}
		})
	}

	if err := ValidateMission(nil); err == nil {
		t.Error("Expected error for nil mission")
	}
}

func TestMission_ApplyStopsAtFirstBadRover(t *testing.T) {
	m := &Mission{
		Name:    "partial",
		Plateau: "5 5",
		Rovers: []RoverPlan{
			{Location: "1 1 N", Commands: "M"},
			{Location: "bad", Commands: "M"},
			{Location: "2 2 N", Commands: "M"},
		},
	}

	ctrl := NewController()
	_, err := m.Apply(ctrl)
	if !errors.Is(err, ErrLocationsNotCorrectFormat) {
		t.Fatalf("Expected ErrLocationsNotCorrectFormat, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "rover 2:") {
		t.Errorf("Expected error to name rover 2, got %v", err)
	}
	if len(ctrl.Rovers()) != 1 {
		t.Errorf("Expected only the first rover to be registered, got %d", len(ctrl.Rovers()))
	}
}
