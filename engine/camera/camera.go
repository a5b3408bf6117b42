package camera

import (
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-particles/engine/renderer/bind_group_provider"
	"github.com/go-gl/mathgl/mgl32"
)

// cameraCount is an atomic counter used to generate unique bind group provider names for each camera instance.
var cameraCount atomic.Uint64

type cameraImpl struct {
	mu *sync.Mutex

	width  float32
	height float32
	near   float32
	far    float32

	position mgl32.Vec2
	zoom     float32

	viewMatrix           mgl32.Mat4
	projectionMatrix     mgl32.Mat4
	viewProjectionMatrix mgl32.Mat4

	bindGroupProvider bind_group_provider.BindGroupProvider
}

// Camera defines the interface for the 2D orthographic camera.
// The visible region spans [0, width] x [0, height] in world units around the
// camera position, scaled by the zoom factor.
type Camera interface {
	// Viewport returns the width and height of the visible region at zoom 1.
	//
	// Returns:
	//   - width, height: the viewport size in world units
	Viewport() (width, height float32)

	// Position returns the world-space offset of the lower-left corner of the view.
	//
	// Returns:
	//   - mgl32.Vec2: the camera position
	Position() mgl32.Vec2

	// Zoom returns the zoom factor; values above 1 magnify.
	//
	// Returns:
	//   - float32: the zoom factor
	Zoom() float32

	// ViewMatrix returns the current view matrix.
	//
	// Returns:
	//   - mgl32.Mat4: the view matrix (column-major)
	ViewMatrix() mgl32.Mat4

	// ProjectionMatrix returns the current orthographic projection matrix.
	//
	// Returns:
	//   - mgl32.Mat4: the projection matrix (column-major)
	ProjectionMatrix() mgl32.Mat4

	// ViewProjectionMatrix returns the combined view-projection matrix.
	//
	// Returns:
	//   - mgl32.Mat4: the view-projection matrix (column-major)
	ViewProjectionMatrix() mgl32.Mat4

	// Uniform returns the GPU uniform holding the view-projection matrix.
	//
	// Returns:
	//   - GPUCameraUniform: the uniform ready for marshaling
	Uniform() GPUCameraUniform

	// BindGroupProvider returns the camera's bind group provider for GPU resources.
	//
	// Returns:
	//   - bind_group_provider.BindGroupProvider: the bind group provider
	BindGroupProvider() bind_group_provider.BindGroupProvider

	// SetViewport sets the visible region size and recomputes matrices.
	//
	// Parameters:
	//   - width, height: the viewport size in world units
	SetViewport(width, height float32)

	// SetPosition moves the camera and recomputes matrices.
	//
	// Parameters:
	//   - pos: the new lower-left corner of the view
	SetPosition(pos mgl32.Vec2)

	// SetZoom sets the zoom factor and recomputes matrices. Non-positive values are ignored.
	//
	// Parameters:
	//   - zoom: the zoom factor
	SetZoom(zoom float32)
}

var _ Camera = &cameraImpl{}

// NewCamera creates a new orthographic Camera with a 960x540 viewport at the origin.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the newly created camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		mu:     &sync.Mutex{},
		width:  960,
		height: 540,
		near:   -1,
		far:    1,
		zoom:   1,
		bindGroupProvider: bind_group_provider.NewBindGroupProvider(
			"camera_" + strconv.FormatUint(cameraCount.Load(), 10),
		),
	}
	for _, option := range options {
		option(c)
	}
	c.updateMatrices()
	cameraCount.Add(1)
	return c
}

func (c *cameraImpl) Viewport() (float32, float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.width, c.height
}

func (c *cameraImpl) Position() mgl32.Vec2 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position
}

func (c *cameraImpl) Zoom() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.zoom
}

func (c *cameraImpl) ViewMatrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewMatrix
}

func (c *cameraImpl) ProjectionMatrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projectionMatrix
}

func (c *cameraImpl) ViewProjectionMatrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewProjectionMatrix
}

func (c *cameraImpl) Uniform() GPUCameraUniform {
	c.mu.Lock()
	defer c.mu.Unlock()
	return GPUCameraUniform{ViewProj: c.viewProjectionMatrix}
}

func (c *cameraImpl) BindGroupProvider() bind_group_provider.BindGroupProvider {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bindGroupProvider
}

func (c *cameraImpl) SetViewport(width, height float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.width = width
	c.height = height
	c.updateMatrices()
}

func (c *cameraImpl) SetPosition(pos mgl32.Vec2) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.position = pos
	c.updateMatrices()
}

func (c *cameraImpl) SetZoom(zoom float32) {
	if zoom <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.zoom = zoom
	c.updateMatrices()
}

// updateMatrices recalculates the view, projection and view-projection matrices.
// Caller must hold the mutex.
func (c *cameraImpl) updateMatrices() {
	c.viewMatrix = mgl32.Translate3D(-c.position.X(), -c.position.Y(), 0)
	c.projectionMatrix = mgl32.Ortho(0, c.width/c.zoom, 0, c.height/c.zoom, c.near, c.far)
	c.viewProjectionMatrix = c.projectionMatrix.Mul4(c.viewMatrix)
}
