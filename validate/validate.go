// Package validate checks mission files before they are served. It checks:
//   - File format (JSON or classic text) and required fields
//   - Plateau boundaries and every rover's location and command program
//   - Mission size limits
//   - A dry run of the whole mission, reporting final poses
//   - Moves blocked by the plateau edge and rovers finishing on the same point
package validate

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wricardo/mars-rover/game/config"
	"github.com/wricardo/mars-rover/game/engine"
)

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
	Poses  []string
}

func (r *ValidationResult) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) info(format string, args ...interface{}) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// File loads and validates a single mission file.
func File(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	mission, err := config.DecodeMission(filePath, data)
	if err != nil {
		result.fail("Invalid format: %v", err)
		return result
	}

	Mission(mission, &result)
	return result
}

// Mission validates a decoded mission into result. Every rover is checked
// so that one report lists all broken rovers.
func Mission(mission *engine.Mission, result *ValidationResult) {
	if strings.TrimSpace(mission.Name) == "" {
		result.fail("Missing required field: name")
	}
	if len(mission.Rovers) == 0 {
		result.fail("Mission must have at least one rover")
	}
	if len(mission.Rovers) > engine.MaxMissionRovers {
		result.fail("Mission has %d rovers, limit is %d", len(mission.Rovers), engine.MaxMissionRovers)
	}

	ctrl := engine.NewController()
	if err := ctrl.SetPlanetArea(mission.Plateau); err != nil {
		result.fail("Plateau %q: %v", mission.Plateau, err)
		return
	}
	plateau, _ := ctrl.Plateau()

	var outside []string
	for i, plan := range mission.Rovers {
		if len(plan.Commands) > engine.MaxRoverCommands {
			result.fail("Rover %d has %d commands, limit is %d", i+1, len(plan.Commands), engine.MaxRoverCommands)
			continue
		}
		rover, err := ctrl.AddRover(&engine.Rover{}, plan.Location, plan.Commands)
		if err != nil {
			result.fail("Rover %d (%q, %q): %v", i+1, plan.Location, plan.Commands, err)
			continue
		}
		if !plateau.Contains(*rover.Location) {
			outside = append(outside, fmt.Sprintf("⚠ Rover %d lands outside the plateau at %s", i+1, rover.Pose()))
		}
	}

	if !result.Valid {
		return
	}

	dryRun(ctrl, result)
	result.Errors = append(result.Errors, outside...)
}

// dryRun executes the registered programs and reports what happened
func dryRun(ctrl *engine.Controller, result *ValidationResult) {
	plateau, _ := ctrl.Plateau()
	result.info("✓ Plateau %dx%d", plateau.Right+1, plateau.Top+1)

	if err := ctrl.ExecuteCommands(); err != nil {
		result.fail("Dry run failed: %v", err)
		return
	}

	blocked := map[int]int{}
	for _, step := range ctrl.History() {
		if step.Command == engine.MoveForward && !step.Moved {
			blocked[step.Rover]++
		}
	}

	snap := ctrl.Snapshot()
	occupied := map[engine.Position][]int{}
	for _, r := range snap.Rovers {
		result.Poses = append(result.Poses, r.Pose())
		pos := engine.Position{X: r.X, Y: r.Y}
		occupied[pos] = append(occupied[pos], r.Index+1)
	}

	result.info("✓ %d rovers, %d steps", len(snap.Rovers), snap.TotalSteps)
	result.info("✓ Final poses: %s", strings.Join(result.Poses, ", "))

	for _, r := range snap.Rovers {
		if n := blocked[r.Index]; n > 0 {
			result.info("⚠ Rover %d: %d moves blocked by the plateau edge", r.Index+1, n)
		}
	}

	var shared []string
	for pos, rovers := range occupied {
		if len(rovers) > 1 {
			shared = append(shared, fmt.Sprintf("⚠ Rovers %s finish on (%d,%d)", joinInts(rovers), pos.X, pos.Y))
		}
	}
	sort.Strings(shared)
	result.Errors = append(result.Errors, shared...)
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, ", ")
}

// Dir validates every mission file in dir, sorted by file name.
func Dir(dir string) ([]ValidationResult, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read mission directory: %w", err)
	}

	var results []ValidationResult
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".json", ".txt":
			results = append(results, File(filepath.Join(dir, entry.Name())))
		}
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].File < results[j].File
	})
	return results, nil
}

// Report prints a concise report and returns true when every result is valid.
func Report(w io.Writer, results []ValidationResult) bool {
	allValid := true
	for _, result := range results {
		fmt.Fprintf(w, "\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Fprintln(w, "✅ VALID")
			for _, info := range result.Errors {
				fmt.Fprintln(w, "  "+info)
			}
		} else {
			fmt.Fprintln(w, "❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Fprintln(w, "  ❌ "+err)
				}
			}
		}
	}

	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 40))
	if len(results) == 0 {
		fmt.Fprintln(w, "No mission files found")
	} else if allValid {
		fmt.Fprintln(w, "✅ All missions are valid!")
	} else {
		fmt.Fprintln(w, "❌ Some missions have errors")
	}
	return allValid
}
