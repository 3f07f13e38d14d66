package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/wricardo/mars-rover/game/engine"
)

func createValidMission() *engine.Mission {
	return &engine.Mission{
		Name:        "Test Mission",
		Description: "Test mission",
		Plateau:     "5 5",
		Rovers: []engine.RoverPlan{
			{Location: "1 2 N", Commands: "LMLMLMLMM"},
		},
	}
}

func writeMissionFile(t *testing.T, dir, name string, mission *engine.Mission) {
	t.Helper()
	data, err := json.MarshalIndent(mission, "", "  ")
	if err != nil {
		t.Fatalf("Failed to marshal mission: %v", err)
	}

	filename := name
	if filepath.Ext(filename) == "" {
		filename = name + ".json"
	}

	if err := os.WriteFile(filepath.Join(dir, filename), data, 0644); err != nil {
		t.Fatalf("Failed to write mission file: %v", err)
	}
}

func writeRawFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
}

func TestNewManager(t *testing.T) {
	t.Run("missing directory", func(t *testing.T) {
		_, err := NewManager(filepath.Join(t.TempDir(), "nope"))
		if err == nil {
			t.Error("Expected error for missing directory")
		}
	})

	t.Run("empty directory uses built-in default", func(t *testing.T) {
		m, err := NewManager(t.TempDir())
		if err != nil {
			t.Fatalf("NewManager: %v", err)
		}
		def := m.GetDefault()
		if def == nil || def.Name != engine.DefaultMission().Name {
			t.Errorf("Expected built-in default mission, got %+v", def)
		}
	})

	t.Run("classic file becomes default", func(t *testing.T) {
		dir := t.TempDir()
		mission := createValidMission()
		mission.Name = "From Disk"
		writeMissionFile(t, dir, "classic", mission)

		m, err := NewManager(dir)
		if err != nil {
			t.Fatalf("NewManager: %v", err)
		}
		if m.GetDefault().Name != "From Disk" {
			t.Errorf("Expected default from classic.json, got %q", m.GetDefault().Name)
		}
	})
}

func TestManager_LoadMission(t *testing.T) {
	dir := t.TempDir()
	writeMissionFile(t, dir, "alpha", createValidMission())
	writeRawFile(t, dir, "beta.txt", "5 5\n1 2 N\nLMLMLMLMM\n3 3 E\nMMRMMRMRRM\n")
	writeRawFile(t, dir, "broken.json", "{not json")

	invalid := createValidMission()
	invalid.Rovers[0].Commands = "XYZ"
	writeMissionFile(t, dir, "invalid", invalid)

	m, err := NewManager(dir)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	t.Run("json by id", func(t *testing.T) {
		mission, err := m.LoadMission("alpha")
		if err != nil {
			t.Fatalf("LoadMission: %v", err)
		}
		if mission.Name != "Test Mission" || len(mission.Rovers) != 1 {
			t.Errorf("Unexpected mission %+v", mission)
		}
	})

	t.Run("text by id", func(t *testing.T) {
		mission, err := m.LoadMission("beta")
		if err != nil {
			t.Fatalf("LoadMission: %v", err)
		}
		if mission.Name != "beta" || len(mission.Rovers) != 2 {
			t.Errorf("Unexpected mission %+v", mission)
		}
	})

	t.Run("by filename", func(t *testing.T) {
		if _, err := m.LoadMission("beta.txt"); err != nil {
			t.Errorf("LoadMission by filename: %v", err)
		}
	})

	t.Run("not found", func(t *testing.T) {
		if _, err := m.LoadMission("missing"); !errors.Is(err, ErrMissionNotFound) {
			t.Errorf("Expected ErrMissionNotFound, got %v", err)
		}
	})

	t.Run("path traversal", func(t *testing.T) {
		if _, err := m.LoadMission("../alpha"); !errors.Is(err, ErrMissionNotFound) {
			t.Errorf("Expected ErrMissionNotFound, got %v", err)
		}
	})

	t.Run("broken json", func(t *testing.T) {
		if _, err := m.LoadMission("broken"); !errors.Is(err, ErrInvalidMission) {
			t.Errorf("Expected ErrInvalidMission, got %v", err)
		}
	})

	t.Run("invalid commands", func(t *testing.T) {
		if _, err := m.LoadMission("invalid"); !errors.Is(err, ErrInvalidMission) {
			t.Errorf("Expected ErrInvalidMission, got %v", err)
		}
	})

	t.Run("returns copies", func(t *testing.T) {
		first, _ := m.LoadMission("alpha")
		first.Rovers[0].Commands = "M"
		second, _ := m.LoadMission("alpha")
		if second.Rovers[0].Commands != "LMLMLMLMM" {
			t.Error("Mutating a loaded mission must not change the cache")
		}
	})
}

func TestManager_ListMissions(t *testing.T) {
	dir := t.TempDir()
	writeMissionFile(t, dir, "b_json", createValidMission())
	writeRawFile(t, dir, "a_text.txt", "3 3\n0 0 E\nMM\n")
	writeRawFile(t, dir, "notes.md", "ignored")
	writeRawFile(t, dir, "bad.txt", "this is not a mission")
	if err := os.Mkdir(filepath.Join(dir, "sub.json"), 0755); err != nil {
		t.Fatal(err)
	}

	m, err := NewManager(dir)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	missions, err := m.ListMissions()
	if err != nil {
		t.Fatalf("ListMissions: %v", err)
	}
	if len(missions) != 2 {
		t.Fatalf("Expected 2 valid missions, got %d", len(missions))
	}

	if missions[0].MissionID != "a_text" || missions[0].Format != FormatText || missions[0].RoverCount != 1 {
		t.Errorf("Unexpected first mission %+v", missions[0])
	}
	if missions[1].MissionID != "b_json" || missions[1].Format != FormatJSON || missions[1].Plateau != "5 5" {
		t.Errorf("Unexpected second mission %+v", missions[1])
	}
}

func TestManager_SaveMission(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	t.Run("json", func(t *testing.T) {
		if err := m.SaveMission("saved", createValidMission()); err != nil {
			t.Fatalf("SaveMission: %v", err)
		}
		if _, err := os.Stat(filepath.Join(dir, "saved.json")); err != nil {
			t.Errorf("Expected saved.json on disk: %v", err)
		}
		m.RefreshCache()
		mission, err := m.LoadMission("saved")
		if err != nil {
			t.Fatalf("LoadMission after refresh: %v", err)
		}
		if mission.Name != "Test Mission" {
			t.Errorf("Unexpected name %q", mission.Name)
		}
	})

	t.Run("text", func(t *testing.T) {
		if err := m.SaveMission("saved_text.txt", createValidMission()); err != nil {
			t.Fatalf("SaveMission: %v", err)
		}
		m.RefreshCache()
		mission, err := m.LoadMission("saved_text")
		if err != nil {
			t.Fatalf("LoadMission: %v", err)
		}
		if mission.Plateau != "5 5" || mission.Rovers[0].Location != "1 2 N" {
			t.Errorf("Unexpected mission %+v", mission)
		}
	})

	t.Run("invalid mission", func(t *testing.T) {
		bad := createValidMission()
		bad.Plateau = "five"
		if err := m.SaveMission("bad", bad); !errors.Is(err, ErrInvalidMission) {
			t.Errorf("Expected ErrInvalidMission, got %v", err)
		}
	})

	t.Run("invalid id", func(t *testing.T) {
		if err := m.SaveMission("../escape", createValidMission()); !errors.Is(err, ErrInvalidMission) {
			t.Errorf("Expected ErrInvalidMission, got %v", err)
		}
	})
}

func TestManager_SetDefault(t *testing.T) {
	dir := t.TempDir()
	writeMissionFile(t, dir, "other", createValidMission())

	m, err := NewManager(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := m.SetDefault("other"); err != nil {
		t.Fatalf("SetDefault: %v", err)
	}
	if m.GetDefault().Name != "Test Mission" {
		t.Errorf("Expected new default, got %q", m.GetDefault().Name)
	}
	if err := m.SetDefault("missing"); err == nil {
		t.Error("Expected error for missing mission")
	}
}

func TestManager_ConcurrentLoad(t *testing.T) {
	dir := t.TempDir()
	writeMissionFile(t, dir, "shared", createValidMission())

	m, err := NewManager(dir)
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.LoadMission("shared"); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("Concurrent load failed: %v", err)
	}
}
