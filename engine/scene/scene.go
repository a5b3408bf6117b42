package scene

import (
	"io"

	"github.com/Carmen-Shannon/oxy-particles/engine/config"
	"github.com/Carmen-Shannon/oxy-particles/engine/mirror"
	"github.com/Carmen-Shannon/oxy-particles/engine/profiler"
	"github.com/Carmen-Shannon/oxy-particles/engine/renderer"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// Scene is the capability set every demo scene provides to the harness.
// All methods are called from the render goroutine.
type Scene interface {
	// OnUpdate advances scene state by one frame.
	//
	// Parameters:
	//   - deltaTime: elapsed time in seconds
	OnUpdate(deltaTime float32)

	// OnRender records draw calls. Called between BeginFrame and EndFrame; never called headless.
	//
	// Parameters:
	//   - r: the renderer owning the open frame
	OnRender(r renderer.Renderer)

	// OnUIRender consumes the scene commands queued on ui since the last frame.
	//
	// Parameters:
	//   - ui: the shared UI state
	OnUIRender(ui *UIState)

	// Close releases the scene's resources.
	Close()
}

// ClearColorer is implemented by scenes that choose the frame clear color.
type ClearColorer interface {
	// ClearColor returns the RGBA color the frame is cleared to.
	//
	// Returns:
	//   - mgl32.Vec4: the clear color
	ClearColor() mgl32.Vec4
}

// DeviceFactory creates the compute device backing a particle mirror.
type DeviceFactory func() (mirror.Device, error)

// Env carries the collaborators a Constructor may use. Renderer is nil when headless.
type Env struct {
	Renderer  renderer.Renderer
	Config    config.Config
	NewDevice DeviceFactory
	Logger    *zap.Logger
	Metrics   *profiler.Metrics
	Out       io.Writer
}

// Constructor builds a scene from the environment.
type Constructor func(env Env) (Scene, error)

func (env Env) logger() *zap.Logger {
	if env.Logger == nil {
		return zap.NewNop()
	}
	return env.Logger
}

func (env Env) out() io.Writer {
	if env.Out == nil {
		return io.Discard
	}
	return env.Out
}
