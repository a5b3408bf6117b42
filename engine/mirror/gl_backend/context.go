package gl_backend

import (
	"fmt"
	"runtime"

	"github.com/go-gl/gl/v4.3-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// Context is a hidden GLFW window carrying an OpenGL 4.3 core context, the minimum
// version with compute shaders and shader storage buffers.
type Context struct {
	window *glfw.Window
}

// NewContext initializes GLFW, creates an invisible window with a 4.3 core context, makes
// it current on the calling OS thread and loads the GL function pointers.
// The calling goroutine stays locked to its OS thread for the life of the context.
//
// Returns:
//   - *Context: the current context
//   - error: an error if GLFW, the window or the GL bindings could not be initialized
func NewContext() (*Context, error) {
	runtime.LockOSThread()

	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize GLFW: %v", err)
	}
	glfw.WindowHint(glfw.Visible, glfw.False)
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 3)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)

	win, err := glfw.CreateWindow(1, 1, "particle-compute", nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("failed to create GL context window: %v", err)
	}
	win.MakeContextCurrent()

	if err := gl.Init(); err != nil {
		win.Destroy()
		glfw.Terminate()
		return nil, fmt.Errorf("failed to initialize GL bindings: %v", err)
	}
	return &Context{window: win}, nil
}

// Version returns the GL_VERSION string of the current context.
//
// Returns:
//   - string: the driver version string
func (c *Context) Version() string {
	return gl.GoStr(gl.GetString(gl.VERSION))
}

// Release destroys the hidden window and terminates GLFW.
func (c *Context) Release() {
	if c.window == nil {
		return
	}
	c.window.Destroy()
	c.window = nil
	glfw.Terminate()
}
