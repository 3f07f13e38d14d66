package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/wricardo/mars-rover/game/config"
	"github.com/wricardo/mars-rover/game/engine"
)

var ordinals = []string{"first", "second", "third", "fourth", "fifth", "sixth", "seventh", "eighth", "ninth", "tenth"}

func ordinal(i int) string {
	if i < len(ordinals) {
		return ordinals[i]
	}
	return fmt.Sprintf("#%d", i+1)
}

// lineReader reads one line per prompt and reports io.ErrUnexpectedEOF when
// input ends before the mission is complete.
type lineReader struct {
	scanner *bufio.Scanner
}

func (r *lineReader) ask(ctx context.Context, out io.Writer, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	fmt.Fprint(out, prompt)
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.ErrUnexpectedEOF
	}
	return r.scanner.Text(), nil
}

// runPrompt asks for the plateau and then for each rover until the input is
// accepted, executes the programs and prints every rover's final pose.
func runPrompt(ctx context.Context, in io.Reader, out io.Writer, eng engine.Engine, roverCount int) error {
	if roverCount < 1 {
		return fmt.Errorf("at least one rover is required, got %d", roverCount)
	}

	input := &lineReader{scanner: bufio.NewScanner(in)}

	for {
		boundaries, err := input.ask(ctx, out, "Type plateau boundries (1 2) : ")
		if err != nil {
			return err
		}
		err = eng.SetPlanetArea(boundaries)
		fmt.Fprintln(out)
		if err == nil {
			break
		}
		fmt.Fprintln(out, err)
	}

	for i := 0; i < roverCount; i++ {
		for {
			location, err := input.ask(ctx, out, fmt.Sprintf("Type %s rover's location coordinates and facing direction (1 2 N) : ", ordinal(i)))
			if err != nil {
				return err
			}
			commands, err := input.ask(ctx, out, "Type commands to move rover direction (MLMRM) : ")
			if err != nil {
				return err
			}
			_, err = eng.AddRover(&engine.Rover{}, location, commands)
			fmt.Fprintln(out)
			if err == nil {
				break
			}
			fmt.Fprintln(out, err)
		}
	}

	fmt.Fprintln(out, "Rovers have started to move, please wait to see last location")

	if err := eng.ExecuteCommands(); err != nil {
		fmt.Fprintln(out, err)
		return err
	}

	fmt.Fprintln(out, "Rovers have finished to move")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Rovers' last locations are :")
	for _, rover := range eng.Rovers() {
		fmt.Fprintln(out, rover.Pose())
	}
	return nil
}

// runMissionFiles executes each mission file on a fresh engine and prints
// the final poses. All files are attempted; the first failure is returned.
func runMissionFiles(out io.Writer, paths []string, opts ...engine.Option) error {
	var firstErr error
	for _, path := range paths {
		fmt.Fprintf(out, "== %s\n", path)

		poses, err := runMissionFile(path, opts...)
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			if firstErr == nil {
				firstErr = fmt.Errorf("%s: %w", path, err)
			}
			continue
		}

		for _, pose := range poses {
			fmt.Fprintln(out, pose)
		}
	}
	return firstErr
}

func runMissionFile(path string, opts ...engine.Option) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	mission, err := config.DecodeMission(path, data)
	if err != nil {
		return nil, err
	}

	ctrl, err := mission.Run(opts...)
	if err != nil {
		return nil, err
	}

	var poses []string
	for _, rover := range ctrl.Rovers() {
		poses = append(poses, rover.Pose())
	}
	return poses, nil
}
