// Package engine provides the movement and command-execution engine for the
// Mars rover mission.
//
// The engine package implements:
//   - The compass used for turning (fixed N, E, S, W cycle)
//   - Boundary-clamped movement on a square plateau
//   - Rover registration with validated pose and command text
//   - Sequential execution of every registered rover's command list
//   - Mission definitions and their validation
//
// Core Types:
//
// The Engine interface defines the main contract for rover operations,
// implemented by Controller. Rover holds a position and a facing, Boundary
// describes the plateau, and Mission bundles a plateau with the rovers that
// should be deployed on it.
//
// Usage:
//
//	ctrl := engine.NewController()
//	if err := ctrl.SetPlanetArea("5 5"); err != nil {
//		log.Fatal(err)
//	}
//
//	rover, err := ctrl.AddRover(&engine.Rover{}, "1 2 N", "LMLMLMLMM")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	if err := ctrl.ExecuteCommands(); err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(rover.Pose()) // 1 3 N
//
// Rules:
//
// A rover never leaves the plateau. A move that would cross the boundary is
// ignored and still reported as successful. Every failure is returned as one
// of the package's sentinel errors; their text is meant to be shown to the
// operator verbatim.
//
// Concurrency:
//
// A Controller is not safe for concurrent use. Callers that share one between
// goroutines must serialize registration and execution.
package engine
