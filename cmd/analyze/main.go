// Command analyze prints quick, human-readable heuristics about the mission
// files in a directory (default "missions"). It runs every mission and
// summarizes plateau size, steps, how much of the plateau the rovers cover,
// moves lost against the plateau edge, and rovers that end on the same point.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/wricardo/mars-rover/game/config"
	"github.com/wricardo/mars-rover/game/engine"
)

// RoverAnalysis summarizes one rover's run
type RoverAnalysis struct {
	Start    string
	End      string
	Moves    int
	Blocked  int
	Turns    int
	Distinct int
}

// MissionAnalysis summarizes a whole mission run
type MissionAnalysis struct {
	Name          string
	Width         int
	Height        int
	Steps         int
	Visited       int
	Rovers        []RoverAnalysis
	SharedEndings map[engine.Position][]int
}

// Coverage is the share of grid points visited by any rover, in percent
func (a *MissionAnalysis) Coverage() float64 {
	total := a.Width * a.Height
	if total == 0 {
		return 0
	}
	return float64(a.Visited) * 100 / float64(total)
}

func main() {
	dir := "missions"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}

	manager, err := config.NewManager(dir)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	missions, err := manager.ListMissions()
	if err != nil {
		fmt.Printf("Error listing missions: %v\n", err)
		os.Exit(1)
	}

	for _, info := range missions {
		fmt.Printf("\n=== Analyzing %s ===\n", info.Filename)

		mission, err := manager.LoadMission(info.Filename)
		if err != nil {
			fmt.Printf("Error loading mission: %v\n", err)
			continue
		}

		analysis, err := analyzeMission(mission)
		if err != nil {
			fmt.Printf("Error running mission: %v\n", err)
			continue
		}
		printAnalysis(os.Stdout, analysis)
	}
}

// analyzeMission runs the mission and collects statistics from its steps
func analyzeMission(mission *engine.Mission) (*MissionAnalysis, error) {
	ctrl := engine.NewController()
	rovers, err := mission.Apply(ctrl)
	if err != nil {
		return nil, err
	}

	starts := make([]string, len(rovers))
	visitedBy := make([]map[engine.Position]bool, len(rovers))
	visited := map[engine.Position]bool{}
	for i, rover := range rovers {
		starts[i] = rover.Pose()
		visitedBy[i] = map[engine.Position]bool{*rover.Location: true}
		visited[*rover.Location] = true
	}

	if err := ctrl.ExecuteCommands(); err != nil {
		return nil, err
	}

	plateau, _ := ctrl.Plateau()
	analysis := &MissionAnalysis{
		Name:          mission.Name,
		Width:         plateau.Right - plateau.Left + 1,
		Height:        plateau.Top - plateau.Bottom + 1,
		Rovers:        make([]RoverAnalysis, len(rovers)),
		SharedEndings: map[engine.Position][]int{},
	}

	for _, step := range ctrl.History() {
		analysis.Steps++
		r := &analysis.Rovers[step.Rover]
		switch {
		case step.Command != engine.MoveForward:
			r.Turns++
		case step.Moved:
			r.Moves++
			visitedBy[step.Rover][step.To] = true
			visited[step.To] = true
		default:
			r.Blocked++
		}
	}

	endings := map[engine.Position][]int{}
	for i, rover := range rovers {
		analysis.Rovers[i].Start = starts[i]
		analysis.Rovers[i].End = rover.Pose()
		analysis.Rovers[i].Distinct = len(visitedBy[i])
		endings[*rover.Location] = append(endings[*rover.Location], i+1)
	}
	for pos, ids := range endings {
		if len(ids) > 1 {
			analysis.SharedEndings[pos] = ids
		}
	}

	for pos := range visited {
		if plateau.Contains(pos) {
			analysis.Visited++
		}
	}

	return analysis, nil
}

func printAnalysis(w io.Writer, a *MissionAnalysis) {
	fmt.Fprintf(w, "Name: %s\n", a.Name)
	fmt.Fprintf(w, "Plateau: %d x %d\n", a.Width, a.Height)
	fmt.Fprintf(w, "Rovers: %d\n", len(a.Rovers))
	fmt.Fprintf(w, "Steps: %d\n", a.Steps)
	fmt.Fprintf(w, "Coverage: %d/%d grid points (%.1f%%)\n", a.Visited, a.Width*a.Height, a.Coverage())

	for i, r := range a.Rovers {
		fmt.Fprintf(w, "Rover %d: %s -> %s, %d moves, %d turns, %d distinct points\n",
			i+1, r.Start, r.End, r.Moves, r.Turns, r.Distinct)
		if r.Blocked > 0 {
			fmt.Fprintf(w, "⚠️  Rover %d lost %d moves against the plateau edge\n", i+1, r.Blocked)
		}
		if r.Moves == 0 {
			fmt.Fprintf(w, "⚠️  Rover %d never leaves its landing point\n", i+1)
		}
	}

	if len(a.SharedEndings) == 0 {
		fmt.Fprintf(w, "✅ Every rover ends on its own grid point\n")
		return
	}
	for pos, ids := range a.SharedEndings {
		fmt.Fprintf(w, "⚠️  Rovers %v end together at (%d, %d)\n", ids, pos.X, pos.Y)
	}
}
