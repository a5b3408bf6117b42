package scene

import "errors"

var (
	// ErrUnknownScene is returned by Menu.Open for a name with no registered constructor.
	ErrUnknownScene = errors.New("unknown scene")

	// ErrInvalidCommand is returned by ParseCommand for malformed input.
	ErrInvalidCommand = errors.New("invalid command")

	// ErrNoDevice is returned when a particle scene is opened without a device factory.
	ErrNoDevice = errors.New("no compute device configured")
)
