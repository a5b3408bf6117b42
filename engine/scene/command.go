package scene

import (
	"fmt"
	"strconv"
	"strings"
)

// CommandType identifies a harness or particle command.
type CommandType int

const (
	CommandCreate CommandType = iota
	CommandDestroy
	CommandResize
	CommandPrintIDs
	CommandToggleSpawn
	CommandOpen
	CommandBack
)

var commandNames = map[CommandType]string{
	CommandCreate:      "create",
	CommandDestroy:     "destroy",
	CommandResize:      "resize",
	CommandPrintIDs:    "print-ids",
	CommandToggleSpawn: "toggle-spawn",
	CommandOpen:        "open",
	CommandBack:        "back",
}

// String returns the keyword of the command type.
func (t CommandType) String() string {
	if name, ok := commandNames[t]; ok {
		return name
	}
	return "unknown"
}

// Command is one request queued from the window thread or a config script.
// ID is set for destroy, Capacity for resize and Scene for open.
type Command struct {
	Type     CommandType
	ID       uint32
	Capacity int
	Scene    string
}

// IsHarness reports whether the command is handled by the engine rather than the active scene.
//
// Returns:
//   - bool: true for open and back
func (c Command) IsHarness() bool {
	return c.Type == CommandOpen || c.Type == CommandBack
}

// String returns the textual form accepted by ParseCommand.
func (c Command) String() string {
	switch c.Type {
	case CommandDestroy:
		return fmt.Sprintf("destroy %d", c.ID)
	case CommandResize:
		return fmt.Sprintf("resize %d", c.Capacity)
	case CommandOpen:
		return "open " + c.Scene
	default:
		return c.Type.String()
	}
}

// ParseCommand parses one command in its textual form:
// create, destroy <id>, resize <n>, print-ids, toggle-spawn, open <scene> or back.
//
// Parameters:
//   - line: the command text; surrounding whitespace is ignored
//
// Returns:
//   - Command: the parsed command
//   - error: an error wrapping ErrInvalidCommand
func ParseCommand(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, fmt.Errorf("%w: empty", ErrInvalidCommand)
	}

	want := 1
	var cmd Command
	switch fields[0] {
	case "create":
		cmd.Type = CommandCreate
	case "print-ids":
		cmd.Type = CommandPrintIDs
	case "toggle-spawn":
		cmd.Type = CommandToggleSpawn
	case "back":
		cmd.Type = CommandBack
	case "destroy":
		cmd.Type, want = CommandDestroy, 2
	case "resize":
		cmd.Type, want = CommandResize, 2
	case "open":
		cmd.Type, want = CommandOpen, 2
	default:
		return Command{}, fmt.Errorf("%w: unknown keyword %q", ErrInvalidCommand, fields[0])
	}
	if len(fields) != want {
		return Command{}, fmt.Errorf("%w: %s takes %d argument(s)", ErrInvalidCommand, fields[0], want-1)
	}

	switch cmd.Type {
	case CommandDestroy:
		id, err := strconv.ParseUint(fields[1], 10, 32)
		if err != nil {
			return Command{}, fmt.Errorf("%w: destroy id %q", ErrInvalidCommand, fields[1])
		}
		cmd.ID = uint32(id)
	case CommandResize:
		n, err := strconv.Atoi(fields[1])
		if err != nil || n < 0 {
			return Command{}, fmt.Errorf("%w: resize capacity %q", ErrInvalidCommand, fields[1])
		}
		cmd.Capacity = n
	case CommandOpen:
		cmd.Scene = fields[1]
	}
	return cmd, nil
}

// ParseScript parses a list of commands, stopping at the first invalid one.
//
// Parameters:
//   - lines: the command texts
//
// Returns:
//   - []Command: the parsed commands
//   - error: an error naming the failing line
func ParseScript(lines []string) ([]Command, error) {
	cmds := make([]Command, 0, len(lines))
	for i, line := range lines {
		cmd, err := ParseCommand(line)
		if err != nil {
			return nil, fmt.Errorf("script line %d: %w", i+1, err)
		}
		cmds = append(cmds, cmd)
	}
	return cmds, nil
}
