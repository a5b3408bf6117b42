package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"

	"github.com/pelletier/go-toml/v2"
)

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("invalid config")

// Device names accepted by GPU.Device.
const (
	DeviceWGPU = "wgpu"
	DeviceGL   = "gl"
	DeviceHost = "host"
)

// Config is the full application configuration as read from TOML.
type Config struct {
	Window    Window    `toml:"window"`
	Engine    Engine    `toml:"engine"`
	Particles Particles `toml:"particles"`
	GPU       GPU       `toml:"gpu"`
	Log       Log       `toml:"log"`
	Metrics   Metrics   `toml:"metrics"`
	Script    Script    `toml:"script"`
}

// Window configures the platform window.
type Window struct {
	Title       string `toml:"title"`
	Width       int    `toml:"width"`
	Height      int    `toml:"height"`
	PresentMode string `toml:"present_mode"` // fifo or immediate
	MSAA        int    `toml:"msaa"`
	Resizable   bool   `toml:"resizable"`
	MinWidth    int    `toml:"min_width"`
	MinHeight   int    `toml:"min_height"`
	MaxWidth    int    `toml:"max_width"`  // 0 leaves the width unbounded
	MaxHeight   int    `toml:"max_height"` // 0 leaves the height unbounded
}

// Engine configures the frame loop.
type Engine struct {
	Headless   bool    `toml:"headless"`
	Frames     int     `toml:"frames"` // frames to run headless; 0 runs the script only
	FixedDelta float32 `toml:"fixed_delta"`
	Profiling  bool    `toml:"profiling"`
	FrameLimit int     `toml:"frame_limit"`
	StartScene string  `toml:"start_scene"`
}

// Particles configures the particle pool and the default spawn parameters.
type Particles struct {
	MaxCapacity  int        `toml:"max_capacity"`
	Position     [3]float32 `toml:"position"`
	Velocity     [3]float32 `toml:"velocity"`
	Acceleration [3]float32 `toml:"acceleration"`
	Color        [4]float32 `toml:"color"`
	Mass         float32    `toml:"mass"`
	Radius       float32    `toml:"radius"`
}

// GPU selects the compute device and its shader sources.
type GPU struct {
	Device          string `toml:"device"`
	KineticWGSL     string `toml:"kinetic_wgsl"`
	KineticGLSL     string `toml:"kinetic_glsl"`
	ParticlesShader string `toml:"particles_shader"`
	CircleShader    string `toml:"circle_shader"`
	HostWorkers     int    `toml:"host_workers"`
}

// Log configures the zap logger.
type Log struct {
	Level       string `toml:"level"`
	Environment string `toml:"environment"`
}

// Metrics configures the prometheus endpoint. An empty Listen disables it.
type Metrics struct {
	Listen string `toml:"listen"`
}

// Script holds harness commands queued at startup, in their textual form.
type Script struct {
	Commands []string `toml:"commands"`
}

// Default returns the configuration used when no file is present.
//
// Returns:
//   - Config: the default configuration
func Default() Config {
	return Config{
		Window: Window{
			Title:       "Particle Simulation",
			Width:       960,
			Height:      540,
			PresentMode: "fifo",
			MSAA:        4,
			Resizable:   true,
			MinWidth:    480,
			MinHeight:   270,
			MaxWidth:    1920,
			MaxHeight:   1080,
		},
		Engine: Engine{
			FixedDelta: 0.01,
			StartScene: "menu",
		},
		Particles: Particles{
			MaxCapacity:  1000,
			Position:     [3]float32{1, 1, 0},
			Velocity:     [3]float32{1, 1, 0},
			Acceleration: [3]float32{1, 1, 0},
			Color:        [4]float32{1, 0, 0, 1},
			Mass:         1,
			Radius:       1,
		},
		GPU: GPU{
			Device:          DeviceWGPU,
			KineticWGSL:     "assets/shaders/kinetic.wgsl",
			KineticGLSL:     "assets/shaders/kinetic.comp.glsl",
			ParticlesShader: "assets/shaders/particles.shader",
			CircleShader:    "assets/shaders/circle.shader",
			HostWorkers:     4,
		},
		Log: Log{
			Level:       "info",
			Environment: "development",
		},
	}
}

// Load reads the TOML file at path over the defaults and validates the result.
// A missing file yields the defaults.
//
// Parameters:
//   - path: the config file path
//
// Returns:
//   - Config: the loaded configuration
//   - error: an error if the file cannot be read, parsed or validated
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg := Default()
		return cfg, cfg.Validate()
	}
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes TOML over the defaults and validates the result.
// Unknown keys are rejected.
//
// Parameters:
//   - data: the TOML document
//
// Returns:
//   - Config: the parsed configuration
//   - error: an error if decoding or validation fails
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return Config{}, fmt.Errorf("%w: %s", ErrInvalidConfig, strict.String())
		}
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks ranges and enumerations.
//
// Returns:
//   - error: an error wrapping ErrInvalidConfig describing the first problem found
func (c Config) Validate() error {
	switch {
	case c.Window.Width <= 0 || c.Window.Height <= 0:
		return fmt.Errorf("%w: window size %dx%d", ErrInvalidConfig, c.Window.Width, c.Window.Height)
	case c.Window.MinWidth < 0 || c.Window.MinHeight < 0 || c.Window.MaxWidth < 0 || c.Window.MaxHeight < 0:
		return fmt.Errorf("%w: window size limits must not be negative", ErrInvalidConfig)
	case !withinLimit(c.Window.Width, c.Window.MinWidth, c.Window.MaxWidth) ||
		!withinLimit(c.Window.Height, c.Window.MinHeight, c.Window.MaxHeight):
		return fmt.Errorf("%w: window size %dx%d outside limits %dx%d..%dx%d", ErrInvalidConfig,
			c.Window.Width, c.Window.Height,
			c.Window.MinWidth, c.Window.MinHeight, c.Window.MaxWidth, c.Window.MaxHeight)
	case !slices.Contains([]string{"fifo", "immediate"}, c.Window.PresentMode):
		return fmt.Errorf("%w: present_mode %q", ErrInvalidConfig, c.Window.PresentMode)
	case !slices.Contains([]int{1, 4}, c.Window.MSAA):
		return fmt.Errorf("%w: msaa must be 1 or 4, got %d", ErrInvalidConfig, c.Window.MSAA)
	case c.Engine.FixedDelta <= 0:
		return fmt.Errorf("%w: fixed_delta must be positive", ErrInvalidConfig)
	case c.Engine.Frames < 0 || c.Engine.FrameLimit < 0:
		return fmt.Errorf("%w: frame counts must not be negative", ErrInvalidConfig)
	case c.Particles.MaxCapacity < 0:
		return fmt.Errorf("%w: max_capacity must not be negative", ErrInvalidConfig)
	case !slices.Contains([]string{DeviceWGPU, DeviceGL, DeviceHost}, c.GPU.Device):
		return fmt.Errorf("%w: gpu device %q", ErrInvalidConfig, c.GPU.Device)
	case c.GPU.HostWorkers < 1:
		return fmt.Errorf("%w: host_workers must be at least 1", ErrInvalidConfig)
	case !slices.Contains([]string{"debug", "info", "warn", "error"}, c.Log.Level):
		return fmt.Errorf("%w: log level %q", ErrInvalidConfig, c.Log.Level)
	case c.Engine.Headless && c.GPU.Device == DeviceWGPU:
		return fmt.Errorf("%w: headless mode needs the gl or host device", ErrInvalidConfig)
	case !c.Engine.Headless && c.GPU.Device == DeviceGL:
		return fmt.Errorf("%w: the gl device runs headless only", ErrInvalidConfig)
	}
	return nil
}

// withinLimit reports whether v lies in [lo, hi]; hi 0 means unbounded.
func withinLimit(v, lo, hi int) bool {
	return v >= lo && (hi == 0 || v <= hi)
}

// Marshal encodes the configuration as TOML.
//
// Returns:
//   - []byte: the TOML document
//   - error: an error if encoding fails
func (c Config) Marshal() ([]byte, error) {
	return toml.Marshal(c)
}
