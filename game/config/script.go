package config

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/wricardo/mars-rover/game/engine"
)

// Mission file formats
const (
	FormatJSON = "json"
	FormatText = "txt"
)

// The classic text format:
//
//	5 5
//	1 2 N
//	LMLMLMLMM
//	3 3 E
//	MMRMMRMRRM
//
// The first line is the plateau, then one location line and one command
// line per rover. Blank lines and # comments are ignored.
var scriptLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `#[^\n]*`},
	{Name: "Int", Pattern: `[-+]?\d+`},
	{Name: "Heading", Pattern: `[NESW]\b`},
	{Name: "Commands", Pattern: `[LMR]+`},
	{Name: "EOL", Pattern: `[\r\n]+`},
	{Name: "Whitespace", Pattern: `[ \t]+`},
})

type missionScript struct {
	Plateau *scriptPlateau `parser:"EOL* @@"`
	Rovers  []*scriptRover `parser:"@@*"`
}

type scriptPlateau struct {
	Width  int `parser:"@Int"`
	Height int `parser:"@Int EOL+"`
}

type scriptRover struct {
	X        int    `parser:"@Int"`
	Y        int    `parser:"@Int"`
	Facing   string `parser:"@Heading EOL+"`
	Commands string `parser:"@Commands EOL+"`
}

var scriptParser = participle.MustBuild[missionScript](
	participle.Lexer(scriptLexer),
	participle.Elide("Whitespace", "Comment"),
)

// ParseScript reads a mission in the classic text format. The mission is
// named after name with its extension removed.
func ParseScript(name, data string) (*engine.Mission, error) {
	if !strings.HasSuffix(data, "\n") {
		data += "\n"
	}

	script, err := scriptParser.ParseString(name, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMission, err)
	}

	mission := &engine.Mission{
		Name:    missionIDFromFilename(name),
		Plateau: fmt.Sprintf("%d %d", script.Plateau.Width, script.Plateau.Height),
		Rovers:  make([]engine.RoverPlan, 0, len(script.Rovers)),
	}
	for _, r := range script.Rovers {
		mission.Rovers = append(mission.Rovers, engine.RoverPlan{
			Location: fmt.Sprintf("%d %d %s", r.X, r.Y, r.Facing),
			Commands: r.Commands,
		})
	}

	return mission, nil
}

// FormatScript renders a mission in the classic text format
func FormatScript(m *engine.Mission) string {
	var b strings.Builder
	if m.Name != "" {
		fmt.Fprintf(&b, "# %s\n", m.Name)
	}
	b.WriteString(m.Plateau)
	b.WriteByte('\n')
	for _, r := range m.Rovers {
		b.WriteString(r.Location)
		b.WriteByte('\n')
		b.WriteString(r.Commands)
		b.WriteByte('\n')
	}
	return b.String()
}

// DecodeMission decodes a mission file, choosing the format by extension
func DecodeMission(filename string, data []byte) (*engine.Mission, error) {
	switch formatOf(filename) {
	case FormatJSON:
		var mission engine.Mission
		if err := json.Unmarshal(data, &mission); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidMission, err)
		}
		if mission.Name == "" {
			mission.Name = missionIDFromFilename(filename)
		}
		return &mission, nil
	case FormatText:
		return ParseScript(filepath.Base(filename), string(data))
	}
	return nil, fmt.Errorf("%w: unsupported mission file %s", ErrInvalidMission, filepath.Base(filename))
}

// formatOf returns the mission format for a filename, or "" if unsupported
func formatOf(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		return FormatJSON
	case ".txt":
		return FormatText
	}
	return ""
}

func missionIDFromFilename(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
