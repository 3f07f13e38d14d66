package engine

import (
	"fmt"
	"time"
)

// Direction is a cardinal facing. The zero value means the facing is not set.
type Direction int

const (
	DirectionUndefined Direction = iota
	North
	East
	South
	West
)

// String returns the single letter token used in location text.
func (d Direction) String() string {
	switch d {
	case North:
		return "N"
	case East:
		return "E"
	case South:
		return "S"
	case West:
		return "W"
	}
	return ""
}

// ParseDirection maps an exact, case-sensitive token to a Direction.
func ParseDirection(token string) (Direction, bool) {
	switch token {
	case "N":
		return North, true
	case "E":
		return East, true
	case "S":
		return South, true
	case "W":
		return West, true
	}
	return DirectionUndefined, false
}

// MarshalText implements encoding.TextMarshaler
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. An empty token decodes
// to DirectionUndefined.
func (d *Direction) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*d = DirectionUndefined
		return nil
	}
	parsed, ok := ParseDirection(string(text))
	if !ok {
		return fmt.Errorf("invalid direction %q", string(text))
	}
	*d = parsed
	return nil
}

// Command is a single rover instruction
type Command byte

const (
	TurnLeft    Command = 'L'
	TurnRight   Command = 'R'
	MoveForward Command = 'M'
)

// String returns the command letter
func (c Command) String() string {
	return string(rune(c))
}

// MarshalText implements encoding.TextMarshaler
func (c Command) MarshalText() ([]byte, error) {
	return []byte{byte(c)}, nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (c *Command) UnmarshalText(text []byte) error {
	if len(text) != 1 || !isCommand(text[0]) {
		return fmt.Errorf("invalid command %q", string(text))
	}
	*c = Command(text[0])
	return nil
}

func isCommand(b byte) bool {
	return b == byte(TurnLeft) || b == byte(TurnRight) || b == byte(MoveForward)
}

// Position represents x,y coordinates
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Boundary is the plateau rectangle a rover may not leave
type Boundary struct {
	Left   int `json:"left"`
	Bottom int `json:"bottom"`
	Right  int `json:"right"`
	Top    int `json:"top"`
}

// Contains reports whether p lies inside the boundary, edges included
func (b Boundary) Contains(p Position) bool {
	return p.X >= b.Left && p.X <= b.Right && p.Y >= b.Bottom && p.Y <= b.Top
}

// Rover is a vehicle on the plateau. Location and Facing stay unset until
// the rover is registered with an engine.
type Rover struct {
	Location *Position `json:"location,omitempty"`
	Facing   Direction `json:"facing"`
}

// Pose formats the rover as "x y F", the same shape used for location input.
func (r *Rover) Pose() string {
	if r == nil || r.Location == nil {
		return ""
	}
	return fmt.Sprintf("%d %d %s", r.Location.X, r.Location.Y, r.Facing)
}

// StepRecord describes one executed command
type StepRecord struct {
	StepNumber   int       `json:"step_number"`
	Rover        int       `json:"rover"` // index in registration order, -1 if unregistered
	Command      Command   `json:"command"`
	From         Position  `json:"from"`
	To           Position  `json:"to"`
	FacingBefore Direction `json:"facing_before"`
	FacingAfter  Direction `json:"facing_after"`
	Moved        bool      `json:"moved"`
	Timestamp    int64     `json:"timestamp"`
}

// RoverPose is a read-only view of a registered rover
type RoverPose struct {
	Index    int       `json:"index"`
	X        int       `json:"x"`
	Y        int       `json:"y"`
	Facing   Direction `json:"facing"`
	Commands string    `json:"commands"`
}

// Pose renders the pose as "x y F"
func (p RoverPose) Pose() string {
	return fmt.Sprintf("%d %d %s", p.X, p.Y, p.Facing)
}

// Snapshot is a point-in-time copy of the engine state
type Snapshot struct {
	PlateauReady bool        `json:"plateau_ready"`
	Plateau      *Boundary   `json:"plateau,omitempty"`
	Rovers       []RoverPose `json:"rovers"`
	TotalSteps   int         `json:"total_steps"`
	TakenAt      time.Time   `json:"taken_at"`
}
