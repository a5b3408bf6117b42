package engine

import (
	"time"

	"github.com/Carmen-Shannon/oxy-particles/engine/profiler"
	"github.com/Carmen-Shannon/oxy-particles/engine/renderer"
	"github.com/Carmen-Shannon/oxy-particles/engine/scene"
	"github.com/Carmen-Shannon/oxy-particles/engine/window"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithProfiling enables or disables performance profiling output.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
	}
}

// WithWindow sets the window the engine pumps events from. Omit it for headless runs.
//
// Parameters:
//   - w: a pre-configured Window instance
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithRenderer sets the renderer frames are drawn with. Omit it for headless runs.
//
// Parameters:
//   - r: the renderer
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderer(r renderer.Renderer) EngineBuilderOption {
	return func(e *engine) {
		e.renderer = r
	}
}

// WithMenu replaces the default scene menu.
//
// Parameters:
//   - m: the menu
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithMenu(m scene.Menu) EngineBuilderOption {
	return func(e *engine) {
		if m != nil {
			e.menu = m
		}
	}
}

// WithUIState sets the UI state commands are read from.
//
// Parameters:
//   - ui: the UI state
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithUIState(ui *scene.UIState) EngineBuilderOption {
	return func(e *engine) {
		if ui != nil {
			e.ui = ui
		}
	}
}

// WithSceneEnv sets the environment passed to scene constructors. The engine fills in its
// renderer, and its logger and metrics where the environment leaves them unset.
//
// Parameters:
//   - env: the scene environment
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithSceneEnv(env scene.Env) EngineBuilderOption {
	return func(e *engine) {
		e.env = env
	}
}

// WithFixedDelta makes every frame advance by delta seconds instead of the measured frame time.
//
// Parameters:
//   - delta: the fixed step in seconds; 0 uses measured time
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithFixedDelta(delta float32) EngineBuilderOption {
	return func(e *engine) {
		e.fixedDelta = max(delta, 0)
	}
}

// WithClearColor sets the clear color used on the menu and by scenes without their own.
//
// Parameters:
//   - color: RGBA clear color
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithClearColor(color mgl32.Vec4) EngineBuilderOption {
	return func(e *engine) {
		e.clearColor = color
	}
}

// WithLogger sets the engine logger.
//
// Parameters:
//   - logger: the zap logger
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithLogger(logger *zap.Logger) EngineBuilderOption {
	return func(e *engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMetrics attaches the prometheus collectors updated every frame.
//
// Parameters:
//   - m: the metrics set
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithMetrics(m *profiler.Metrics) EngineBuilderOption {
	return func(e *engine) {
		e.metrics = m
	}
}

// WithRenderFrameLimit sets an optional render frame rate cap in frames per second.
// Pass 0 to uncap the render loop (default).
//
// Parameters:
//   - fps: maximum render frames per second (0 = uncapped)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			e.renderFrameLimit = 0
			return
		}
		e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
	}
}
