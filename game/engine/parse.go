package engine

import (
	"strconv"
	"strings"
)

// fieldSeparator splits boundary and location text. Only a single space is
// accepted, so "5  5" or a trailing space produce an empty token.
const fieldSeparator = " "

// parseBoundaries returns the plateau dimension from "<w> <h>". Both tokens
// must be non-negative integers; only the first one is used.
func parseBoundaries(text string) (int, error) {
	if strings.TrimSpace(text) == "" {
		return 0, ErrBoundriesNotCorrectFormat
	}

	parts := strings.Split(text, fieldSeparator)
	if len(parts) != 2 {
		return 0, ErrBoundriesNotCorrectFormat
	}

	width, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, ErrBoundriesNotCorrectFormat
	}
	height, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, ErrBoundriesNotCorrectFormat
	}
	if width < 0 || height < 0 {
		return 0, ErrBoundriesNotCorrectFormat
	}

	return width, nil
}

// parseLocation reads "<x> <y> <facing>"
func parseLocation(text string) (Position, Direction, error) {
	if strings.TrimSpace(text) == "" {
		return Position{}, DirectionUndefined, ErrLocationsNotCorrectFormat
	}

	parts := strings.Split(text, fieldSeparator)
	if len(parts) != 3 {
		return Position{}, DirectionUndefined, ErrLocationsNotCorrectFormat
	}

	x, err := strconv.Atoi(parts[0])
	if err != nil {
		return Position{}, DirectionUndefined, ErrLocationsNotCorrectFormat
	}
	y, err := strconv.Atoi(parts[1])
	if err != nil {
		return Position{}, DirectionUndefined, ErrLocationsNotCorrectFormat
	}

	facing, ok := ParseDirection(parts[2])
	if !ok {
		return Position{}, DirectionUndefined, ErrLocationsNotCorrectFormat
	}

	return Position{X: x, Y: y}, facing, nil
}

// ParseCommands converts command text such as "LMLMR" into commands. Any
// character outside L, M and R, whitespace included, rejects the whole text.
func ParseCommands(text string) ([]Command, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrCommandsNotCorrectFormat
	}

	commands := make([]Command, 0, len(text))
	for i := 0; i < len(text); i++ {
		if !isCommand(text[i]) {
			return nil, ErrCommandsNotCorrectFormat
		}
		commands = append(commands, Command(text[i]))
	}
	return commands, nil
}

// FormatCommands is the inverse of ParseCommands
func FormatCommands(commands []Command) string {
	var b strings.Builder
	b.Grow(len(commands))
	for _, c := range commands {
		b.WriteByte(byte(c))
	}
	return b.String()
}
