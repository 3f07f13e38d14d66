package engine

import "errors"

// Rule violations reported by the engine. The messages are shown to
// operators as-is.
var (
	ErrBoundriesNotCorrectFormat = errors.New("Boundries you entered are not in correct format")
	ErrLocationsNotCorrectFormat = errors.New("Rover locations you entered are not in correct format")
	ErrCommandsNotCorrectFormat  = errors.New("Rover commands you entered are not in correct format")
	ErrPlateauNotReady           = errors.New("The plateau of planet is not ready")
	ErrNoRover                   = errors.New("There is not any rover to command")
	ErrRoverLocationNotDefined   = errors.New("Rover's location is not defined")
	ErrRoverDirectionNotDefined  = errors.New("Rover's facing direction is not defined")
)

var ruleViolations = []error{
	ErrBoundriesNotCorrectFormat,
	ErrLocationsNotCorrectFormat,
	ErrCommandsNotCorrectFormat,
	ErrPlateauNotReady,
	ErrNoRover,
	ErrRoverLocationNotDefined,
	ErrRoverDirectionNotDefined,
}

// IsRuleViolation reports whether err wraps one of the engine's sentinel errors
func IsRuleViolation(err error) bool {
	if err == nil {
		return false
	}
	for _, target := range ruleViolations {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
