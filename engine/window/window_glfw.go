package window

import (
	"fmt"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// glfwWindow is the GLFW side of an engineWindow.
type glfwWindow struct {
	window *glfw.Window
}

// newPlatformWindow creates a NoAPI GLFW window for the WebGPU surface and routes its
// events into w. The calling goroutine stays locked to its OS thread, which must also
// run ProcessMessages.
//
// GLFW reference: https://www.glfw.org/docs/latest/window_guide.html
func newPlatformWindow(w *engineWindow) error {
	runtime.LockOSThread()

	if err := glfw.Init(); err != nil {
		return fmt.Errorf("failed to initialize GLFW: %w", err)
	}

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfwBool(w.resizable))

	win, err := glfw.CreateWindow(w.width, w.height, w.title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return fmt.Errorf("failed to create GLFW window: %w", err)
	}
	win.SetSizeLimits(
		glfwLimit(w.limits.MinWidth), glfwLimit(w.limits.MinHeight),
		glfwLimit(w.limits.MaxWidth), glfwLimit(w.limits.MaxHeight),
	)

	win.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, mods glfw.ModifierKey) {
		w.handleKey(uint32(key), keyActionOf(action), mods&glfw.ModShift != 0)
	})
	win.SetScrollCallback(func(_ *glfw.Window, _, yoff float64) {
		w.handleScroll(yoff)
	})
	// Framebuffer size, not window size: the surface is configured in pixels, which
	// differ from screen coordinates on high-DPI displays.
	win.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		w.handleFramebufferSize(width, height)
	})

	w.platform = &glfwWindow{window: win}
	if fbWidth, fbHeight := win.GetFramebufferSize(); fbWidth > 0 && fbHeight > 0 {
		w.width, w.height = fbWidth, fbHeight
	}
	return nil
}

func (g *glfwWindow) surfaceDescriptor() *wgpu.SurfaceDescriptor {
	return wgpuglfw.GetSurfaceDescriptor(g.window)
}

func (g *glfwWindow) open() bool {
	return !g.window.ShouldClose()
}

func (g *glfwWindow) poll() {
	glfw.PollEvents()
}

func (g *glfwWindow) destroy() {
	g.window.SetShouldClose(true)
	g.window.Destroy()
	glfw.Terminate()
}

func keyActionOf(action glfw.Action) keyAction {
	switch action {
	case glfw.Repeat:
		return keyRepeat
	case glfw.Release:
		return keyRelease
	default:
		return keyPress
	}
}

func glfwBool(b bool) int {
	if b {
		return glfw.True
	}
	return glfw.False
}

// glfwLimit maps an unset (zero) limit to glfw.DontCare.
func glfwLimit(v int) int {
	if v <= 0 {
		return glfw.DontCare
	}
	return v
}
