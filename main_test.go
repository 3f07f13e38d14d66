package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/wricardo/mars-rover/game/engine"
	"github.com/wricardo/mars-rover/transport/websocket"
)

func TestConstants(t *testing.T) {
	if Version == "" {
		t.Error("Version should not be empty")
	}
	if AppName != "Mars Rover Mission Server" {
		t.Errorf("Unexpected app name %s", AppName)
	}
}

func TestNewApp(t *testing.T) {
	app := newApp()

	if app.DefaultCommand != "server" {
		t.Errorf("Expected default command server, got %q", app.DefaultCommand)
	}

	for _, name := range []string{"server", "mcp", "stdio-mcp", "prompt", "run", "validate"} {
		if app.Command(name) == nil {
			t.Errorf("Expected command %q", name)
		}
	}
}

func TestRunPrompt(t *testing.T) {
	input := strings.Join([]string{
		"5 5",
		"1 2 N",
		"LMLMLMLMM",
		"3 3 E",
		"MMRMMRMRRM",
	}, "\n") + "\n"

	var out bytes.Buffer
	if err := runPrompt(context.Background(), strings.NewReader(input), &out, engine.NewController(), 2); err != nil {
		t.Fatalf("runPrompt failed: %v", err)
	}

	output := out.String()
	for _, want := range []string{
		"Type plateau boundries (1 2) : ",
		"Type first rover's location coordinates and facing direction (1 2 N) : ",
		"Type second rover's location coordinates and facing direction (1 2 N) : ",
		"Type commands to move rover direction (MLMRM) : ",
		"Rovers have started to move, please wait to see last location",
		"Rovers' last locations are :\n1 3 N\n5 1 E\n",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected %q in output:\n%s", want, output)
		}
	}
}

func TestRunPrompt_RetriesUntilAccepted(t *testing.T) {
	input := strings.Join([]string{
		"5",
		"5  5",
		"5 5",
		"1 2 n",
		"M",
		"1 2 N",
		"MX",
		"1 2 N",
		"M",
	}, "\n") + "\n"

	var out bytes.Buffer
	if err := runPrompt(context.Background(), strings.NewReader(input), &out, engine.NewController(), 1); err != nil {
		t.Fatalf("runPrompt failed: %v", err)
	}

	output := out.String()
	if n := strings.Count(output, "Type plateau boundries"); n != 3 {
		t.Errorf("Expected 3 plateau prompts, got %d", n)
	}
	if n := strings.Count(output, engine.ErrBoundriesNotCorrectFormat.Error()); n != 2 {
		t.Errorf("Expected 2 boundary errors, got %d", n)
	}
	if !strings.Contains(output, engine.ErrLocationsNotCorrectFormat.Error()) {
		t.Error("Expected location error")
	}
	if !strings.Contains(output, engine.ErrCommandsNotCorrectFormat.Error()) {
		t.Error("Expected commands error")
	}
	if !strings.HasSuffix(output, "Rovers' last locations are :\n1 3 N\n") {
		t.Errorf("Unexpected final output:\n%s", output)
	}
}

func TestRunPrompt_InputEnds(t *testing.T) {
	var out bytes.Buffer
	err := runPrompt(context.Background(), strings.NewReader("5 5\n1 2 N\n"), &out, engine.NewController(), 2)
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("Expected io.ErrUnexpectedEOF, got %v", err)
	}
}

func TestRunPrompt_Delays(t *testing.T) {
	var slept []time.Duration
	eng := engine.NewController(
		engine.WithDelays(2*time.Second, time.Second),
		engine.WithSleeper(func(d time.Duration) { slept = append(slept, d) }),
	)

	var out bytes.Buffer
	if err := runPrompt(context.Background(), strings.NewReader("1 1\n0 1 N\nMR\n"), &out, eng, 1); err != nil {
		t.Fatal(err)
	}

	// The move into the edge does not sleep; the turn does
	if len(slept) != 1 || slept[0] != time.Second {
		t.Errorf("Expected a single 1s turn delay, got %v", slept)
	}
}

func TestRunPrompt_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := runPrompt(ctx, strings.NewReader("5 5\n"), io.Discard, engine.NewController(), 1)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestRunMissionFiles(t *testing.T) {
	dir := t.TempDir()
	classic := filepath.Join(dir, "classic.txt")
	os.WriteFile(classic, []byte("5 5\n1 2 N\nLMLMLMLMM\n3 3 E\nMMRMMRMRRM\n"), 0644)
	broken := filepath.Join(dir, "broken.json")
	os.WriteFile(broken, []byte(`{"name":"Broken","plateau":"5 5","rovers":[{"location":"1 2 X","commands":"M"}]}`), 0644)

	var out bytes.Buffer
	if err := runMissionFiles(&out, []string{classic}); err != nil {
		t.Fatalf("runMissionFiles failed: %v", err)
	}
	if !strings.Contains(out.String(), "1 3 N\n5 1 E\n") {
		t.Errorf("Unexpected output:\n%s", out.String())
	}

	out.Reset()
	err := runMissionFiles(&out, []string{broken, classic})
	if !errors.Is(err, engine.ErrLocationsNotCorrectFormat) {
		t.Errorf("Expected location error, got %v", err)
	}
	if !strings.Contains(out.String(), "1 3 N") {
		t.Error("Remaining files should still run after a failure")
	}
}

func TestInitializeServices(t *testing.T) {
	missionDir := t.TempDir()
	os.WriteFile(filepath.Join(missionDir, "classic.txt"), []byte("5 5\n1 2 N\nLMLMLMLMM\n"), 0644)

	tests := []struct {
		name    string
		opts    storageOptions
		wantErr bool
	}{
		{"memory", storageOptions{MissionDir: missionDir, Store: StoreMemory}, false},
		{"file", storageOptions{MissionDir: missionDir, Store: StoreFile, SessionsDir: filepath.Join(t.TempDir(), "sessions")}, false},
		{"sqlite", storageOptions{MissionDir: missionDir, Store: StoreSQLite, SQLitePath: filepath.Join(t.TempDir(), "sessions.db")}, false},
		{"unknown store", storageOptions{MissionDir: missionDir, Store: "redis"}, true},
		{"missing mission dir", storageOptions{MissionDir: "/non/existent/path", Store: StoreMemory}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			roverService, err := initializeServices(ctx, tt.opts)
			if tt.wantErr {
				if err == nil {
					t.Error("Expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Failed to initialize services: %v", err)
			}

			info, err := roverService.CreateSession(ctx, "classic")
			if err != nil {
				t.Fatalf("CreateSession: %v", err)
			}
			result, err := roverService.Execute(ctx, info.ID)
			if err != nil {
				t.Fatalf("Execute: %v", err)
			}
			if len(result.Poses) != 1 || result.Poses[0] != "1 3 N" {
				t.Errorf("Expected 1 3 N, got %v", result.Poses)
			}
		})
	}
}

func TestNewHandler(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	roverService, err := initializeServices(ctx, storageOptions{MissionDir: t.TempDir(), Store: StoreMemory})
	if err != nil {
		t.Fatal(err)
	}

	hub := websocket.NewHub()
	go hub.Run(ctx)

	handler := newHandler(roverService, hub, "http://localhost:0")

	t.Run("api", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/health", nil))
		if w.Code != http.StatusOK {
			t.Errorf("Expected 200, got %d", w.Code)
		}
	})

	t.Run("mcp tools/list", func(t *testing.T) {
		body := `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest("POST", "/mcp", strings.NewReader(body)))
		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", w.Code)
		}

		var resp struct {
			Result struct {
				Tools []struct {
					Name string `json:"name"`
				} `json:"tools"`
			} `json:"result"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatal(err)
		}

		names := map[string]bool{}
		for _, tool := range resp.Result.Tools {
			names[tool.Name] = true
		}
		for _, want := range []string{"create_session", "set_plateau", "add_rover", "send_command", "execute"} {
			if !names[want] {
				t.Errorf("Expected tool %s in %v", want, names)
			}
		}
	})

	t.Run("mcp rejects GET", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest("GET", "/mcp", nil))
		if w.Code != http.StatusMethodNotAllowed {
			t.Errorf("Expected 405, got %d", w.Code)
		}
	})
}

func TestSetupLogging(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	tests := []struct {
		level string
		debug bool
		want  zerolog.Level
	}{
		{"info", false, zerolog.InfoLevel},
		{"warn", false, zerolog.WarnLevel},
		{"warn", true, zerolog.DebugLevel},
		{"nonsense", false, zerolog.InfoLevel},
		{"", false, zerolog.InfoLevel},
	}

	for _, tt := range tests {
		setupLogging(tt.level, tt.debug)
		if got := zerolog.GlobalLevel(); got != tt.want {
			t.Errorf("setupLogging(%q, %v): expected %s, got %s", tt.level, tt.debug, tt.want, got)
		}
	}
}
