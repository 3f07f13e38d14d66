package engine

import (
	"time"
)

// Engine provides the main interface for rover operations
type Engine interface {
	// Plateau
	SetPlanetArea(boundaries string) error
	IsPlateauReady() bool
	Plateau() (Boundary, bool)

	// Registration
	AddRover(rover *Rover, location, commands string) (*Rover, error)
	Rovers() []*Rover
	Commands(rover *Rover) []Command

	// Single steps
	Move(rover *Rover) error
	Left(rover *Rover) error
	Right(rover *Rover) error
	Step(rover *Rover, command Command) error

	// Execution
	ExecuteCommands() error

	// History
	History() []StepRecord
	Snapshot() *Snapshot
}

// Option configures a Controller
type Option func(*Controller)

// WithDelays sets how long a move and a turn take. A move only waits when
// the rover actually moved.
func WithDelays(move, turn time.Duration) Option {
	return func(c *Controller) {
		c.moveDelay = move
		c.turnDelay = turn
	}
}

// WithSleeper replaces time.Sleep for actuation delays
func WithSleeper(sleep func(time.Duration)) Option {
	return func(c *Controller) {
		if sleep != nil {
			c.sleep = sleep
		}
	}
}

// WithStepObserver registers a callback invoked after every successful step
func WithStepObserver(observer func(StepRecord)) Option {
	return func(c *Controller) {
		c.observer = observer
	}
}

// Controller implements the Engine interface
type Controller struct {
	compass  *Compass
	plateau  *Boundary
	rovers   []*Rover
	programs map[*Rover][]Command
	history  []StepRecord

	moveDelay time.Duration
	turnDelay time.Duration
	sleep     func(time.Duration)
	observer  func(StepRecord)
}

// NewController creates an engine with no plateau and no rovers
func NewController(opts ...Option) *Controller {
	c := &Controller{
		compass:  NewCompass(),
		programs: make(map[*Rover][]Command),
		history:  []StepRecord{},
		sleep:    time.Sleep,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetPlanetArea sets the plateau from "<w> <h>". The plateau is always a
// square from the origin to the first number; the second is checked but
// not used. Calling it again replaces the plateau for later moves.
func (c *Controller) SetPlanetArea(boundaries string) error {
	size, err := parseBoundaries(boundaries)
	if err != nil {
		return err
	}

	c.plateau = &Boundary{Left: 0, Bottom: 0, Right: size, Top: size}
	return nil
}

// IsPlateauReady reports whether a plateau has been set
func (c *Controller) IsPlateauReady() bool {
	return c.plateau != nil
}

// Plateau returns the current plateau
func (c *Controller) Plateau() (Boundary, bool) {
	if c.plateau == nil {
		return Boundary{}, false
	}
	return *c.plateau, true
}

// AddRover validates the location and command text, places the rover and
// queues its commands. Nothing is changed if any check fails.
func (c *Controller) AddRover(rover *Rover, location, commands string) (*Rover, error) {
	if rover == nil {
		return nil, ErrNoRover
	}

	pos, facing, err := parseLocation(location)
	if err != nil {
		return nil, err
	}

	program, err := ParseCommands(commands)
	if err != nil {
		return nil, err
	}

	facing, _ = c.compass.Lookup(facing)
	rover.Location = &pos
	rover.Facing = facing

	c.rovers = append(c.rovers, rover)
	c.programs[rover] = program

	return rover, nil
}

// Rovers returns the registered rovers in registration order
func (c *Controller) Rovers() []*Rover {
	out := make([]*Rover, len(c.rovers))
	copy(out, c.rovers)
	return out
}

// Commands returns the queued commands of a registered rover
func (c *Controller) Commands(rover *Rover) []Command {
	program := c.programs[rover]
	out := make([]Command, len(program))
	copy(out, program)
	return out
}

// ExecuteCommands runs every rover's queued commands, rover by rover in
// registration order. The first failing step stops the whole run.
func (c *Controller) ExecuteCommands() error {
	if !c.IsPlateauReady() {
		return ErrPlateauNotReady
	}

	if len(c.rovers) < 1 {
		return ErrNoRover
	}

	for _, rover := range c.rovers {
		for _, command := range c.programs[rover] {
			if err := c.Step(rover, command); err != nil {
				return err
			}
		}
	}

	return nil
}

// History returns every step executed so far
func (c *Controller) History() []StepRecord {
	out := make([]StepRecord, len(c.history))
	copy(out, c.history)
	return out
}

// Snapshot copies the plateau and rover poses
func (c *Controller) Snapshot() *Snapshot {
	snap := &Snapshot{
		PlateauReady: c.IsPlateauReady(),
		Rovers:       make([]RoverPose, 0, len(c.rovers)),
		TotalSteps:   len(c.history),
		TakenAt:      time.Now(),
	}
	if c.plateau != nil {
		b := *c.plateau
		snap.Plateau = &b
	}

	for i, rover := range c.rovers {
		pose := RoverPose{
			Index:    i,
			Facing:   rover.Facing,
			Commands: FormatCommands(c.programs[rover]),
		}
		if rover.Location != nil {
			pose.X, pose.Y = rover.Location.X, rover.Location.Y
		}
		snap.Rovers = append(snap.Rovers, pose)
	}

	return snap
}

// indexOf returns the registration index of rover, or -1
func (c *Controller) indexOf(rover *Rover) int {
	for i, r := range c.rovers {
		if r == rover {
			return i
		}
	}
	return -1
}
