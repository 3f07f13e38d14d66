package engine

import (
	"fmt"
	"time"
)

// Move advances the rover one unit in the direction it faces. If that would
// take it past the plateau edge the rover stays put and Move still succeeds.
func (c *Controller) Move(rover *Rover) error {
	if rover == nil {
		return ErrNoRover
	}

	if rover.Location == nil {
		return ErrRoverLocationNotDefined
	}

	if rover.Facing == DirectionUndefined {
		return ErrRoverDirectionNotDefined
	}

	if !c.IsPlateauReady() {
		return ErrPlateauNotReady
	}

	from := *rover.Location
	to, moved := c.nextPosition(from, rover.Facing)
	if moved {
		rover.Location.X, rover.Location.Y = to.X, to.Y
		c.pause(c.moveDelay)
	}

	c.record(rover, MoveForward, from, rover.Facing, moved)
	return nil
}

// nextPosition applies the boundary rule for a single step
func (c *Controller) nextPosition(from Position, facing Direction) (Position, bool) {
	b := c.plateau
	to := from

	switch facing {
	case North:
		if from.Y < b.Top {
			to.Y++
		}
	case East:
		if from.X < b.Right {
			to.X++
		}
	case South:
		if from.Y > b.Bottom {
			to.Y--
		}
	case West:
		if from.X > b.Left {
			to.X--
		}
	}

	return to, to != from
}

// Left turns the rover 90 degrees counter-clockwise
func (c *Controller) Left(rover *Rover) error {
	return c.turn(rover, TurnLeft)
}

// Right turns the rover 90 degrees clockwise
func (c *Controller) Right(rover *Rover) error {
	return c.turn(rover, TurnRight)
}

func (c *Controller) turn(rover *Rover, command Command) error {
	if rover == nil {
		return ErrNoRover
	}

	if rover.Facing == DirectionUndefined {
		return ErrRoverDirectionNotDefined
	}

	before := rover.Facing
	var after Direction
	if command == TurnLeft {
		after = c.compass.Left(before)
	} else {
		after = c.compass.Right(before)
	}
	if after == DirectionUndefined {
		return ErrRoverDirectionNotDefined
	}

	rover.Facing = after
	c.pause(c.turnDelay)

	var from Position
	if rover.Location != nil {
		from = *rover.Location
	}
	c.record(rover, command, from, before, false)
	return nil
}

// Step dispatches a single command to Left, Right or Move
func (c *Controller) Step(rover *Rover, command Command) error {
	switch command {
	case TurnLeft:
		return c.Left(rover)
	case TurnRight:
		return c.Right(rover)
	case MoveForward:
		return c.Move(rover)
	}
	return fmt.Errorf("%w: unknown command %q", ErrCommandsNotCorrectFormat, byte(command))
}

func (c *Controller) pause(d time.Duration) {
	if d > 0 {
		c.sleep(d)
	}
}

// record appends a step to the history and notifies the observer
func (c *Controller) record(rover *Rover, command Command, from Position, before Direction, moved bool) {
	to := from
	if rover.Location != nil {
		to = *rover.Location
	}

	entry := StepRecord{
		StepNumber:   len(c.history) + 1,
		Rover:        c.indexOf(rover),
		Command:      command,
		From:         from,
		To:           to,
		FacingBefore: before,
		FacingAfter:  rover.Facing,
		Moved:        moved,
		Timestamp:    time.Now().Unix(),
	}
	c.history = append(c.history, entry)

	if c.observer != nil {
		c.observer(entry)
	}
}
