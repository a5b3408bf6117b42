package window

import (
	"fmt"
	"runtime"

	"github.com/Carmen-Shannon/oxy-particles/common"
	"github.com/Carmen-Shannon/oxy-particles/engine/config"
	"github.com/cogentcore/webgpu/wgpu"
	"go.uber.org/zap"
)

// Window is the sandbox's platform window: a WebGPU surface source that forwards key,
// scroll and framebuffer-resize events to the engine. Shift+Esc closes it; every other
// key, Esc included, reaches the key callback.
type Window interface {
	// SetResizeCallback sets the function called when the framebuffer changes size.
	// Zero sizes (a minimized window) are not reported.
	//
	// Parameters:
	//   - callback: function receiving new width and height in pixels
	SetResizeCallback(callback func(width, height int))

	// SetScrollCallback sets the callback for mouse scroll wheel events. The particle
	// scene uses it to zoom its camera.
	//
	// Parameters:
	//   - callback: function receiving scroll delta (positive = up/zoom in, negative = down/zoom out)
	SetScrollCallback(callback func(delta float32))

	// SetKeyDownCallback sets the callback for key presses and repeats.
	//
	// Parameters:
	//   - callback: function receiving the virtual key code
	SetKeyDownCallback(callback func(keyCode uint32))

	// SurfaceDescriptor returns a wgpu.SurfaceDescriptor for the platform window,
	// or nil if the window is not initialized.
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// IsRunning reports whether the window is open and no close was requested.
	IsRunning() bool

	// Close destroys the window and terminates the platform layer.
	//
	// Returns:
	//   - error: an error if the window was never created
	Close() error

	// ProcessMessages polls window events until the window closes. It must run on
	// the thread that created the window.
	ProcessMessages()

	// Title returns the window title.
	Title() string

	// Width returns the framebuffer width in pixels.
	Width() int

	// Height returns the framebuffer height in pixels.
	Height() int
}

// SizeLimits bounds the window size. A zero maximum leaves that axis unbounded.
type SizeLimits struct {
	MinWidth, MinHeight int
	MaxWidth, MaxHeight int
}

// Clamp fits a size into the limits.
//
// Parameters:
//   - width, height: the requested size
//
// Returns:
//   - int, int: the clamped width and height
func (l SizeLimits) Clamp(width, height int) (int, int) {
	return clampAxis(width, l.MinWidth, l.MaxWidth), clampAxis(height, l.MinHeight, l.MaxHeight)
}

func clampAxis(v, lo, hi int) int {
	v = max(v, lo)
	if hi > 0 {
		v = min(v, hi)
	}
	return v
}

type keyAction int

const (
	keyPress keyAction = iota
	keyRepeat
	keyRelease
)

type engineWindow struct {
	title         string
	width, height int
	limits        SizeLimits
	resizable     bool
	quit          bool

	logger   *zap.Logger
	platform *glfwWindow

	onResize  func(width, height int)
	onScroll  func(delta float32)
	onKeyDown func(keyCode uint32)
}

var _ Window = &engineWindow{}

// NewWindow creates and shows the window. It starts from the default [window] config,
// applies the options in order and clamps the size into the limits.
// It panics if the platform window cannot be created.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the open window
func NewWindow(options ...WindowBuilderOption) Window {
	w := newEngineWindow(options...)
	if err := newPlatformWindow(w); err != nil {
		panic(fmt.Sprintf("failed to create platform window: %v", err))
	}
	w.logger.Info("window created",
		zap.String("title", w.title),
		zap.Int("width", w.width),
		zap.Int("height", w.height),
		zap.Bool("resizable", w.resizable),
	)
	return w
}

func newEngineWindow(options ...WindowBuilderOption) *engineWindow {
	w := &engineWindow{logger: zap.NewNop()}
	WithConfig(config.Default().Window)(w)
	for _, opt := range options {
		opt(w)
	}
	w.width, w.height = w.limits.Clamp(w.width, w.height)
	return w
}

func (w *engineWindow) SetResizeCallback(callback func(width, height int)) {
	w.onResize = callback
}

func (w *engineWindow) SetScrollCallback(callback func(delta float32)) {
	w.onScroll = callback
}

func (w *engineWindow) SetKeyDownCallback(callback func(keyCode uint32)) {
	w.onKeyDown = callback
}

func (w *engineWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	if w.platform == nil {
		return nil
	}
	return w.platform.surfaceDescriptor()
}

func (w *engineWindow) IsRunning() bool {
	return !w.quit && w.platform != nil && w.platform.open()
}

func (w *engineWindow) Close() error {
	if w.platform == nil {
		return fmt.Errorf("window is not initialized")
	}
	w.quit = true
	w.platform.destroy()
	w.platform = nil
	return nil
}

func (w *engineWindow) ProcessMessages() {
	for w.IsRunning() {
		w.platform.poll()
		runtime.Gosched()
	}
}

func (w *engineWindow) Title() string {
	return w.title
}

func (w *engineWindow) Width() int {
	return w.width
}

func (w *engineWindow) Height() int {
	return w.height
}

// handleKey routes one key event. Shift+Esc requests a close; presses and repeats of
// any other key go to the key callback.
func (w *engineWindow) handleKey(key uint32, action keyAction, shift bool) {
	if action == keyRelease {
		return
	}
	if key == common.KeyEsc && shift && action == keyPress {
		w.quit = true
		w.logger.Info("window close requested")
		return
	}
	if w.onKeyDown != nil {
		w.onKeyDown(key)
	}
}

func (w *engineWindow) handleScroll(yoff float64) {
	if w.onScroll != nil {
		w.onScroll(float32(yoff))
	}
}

// handleFramebufferSize records a new framebuffer size. A zero size means the window
// was minimized; the last real size is kept so the surface is never configured empty.
func (w *engineWindow) handleFramebufferSize(width, height int) {
	if width <= 0 || height <= 0 {
		w.logger.Debug("window minimized, resize ignored")
		return
	}
	if width == w.width && height == w.height {
		return
	}
	w.width, w.height = width, height
	w.logger.Debug("window resized", zap.Int("width", width), zap.Int("height", height))
	if w.onResize != nil {
		w.onResize(width, height)
	}
}
