package camera

import "github.com/go-gl/mathgl/mgl32"

type CameraBuilderOption func(*cameraImpl)

// WithViewport sets the size of the visible region.
//
// Parameters:
//   - width, height: the viewport size in world units
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's viewport
func WithViewport(width, height float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.width = width
		c.height = height
	}
}

// WithPosition sets the lower-left corner of the view.
//
// Parameters:
//   - pos: the camera position
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's position
func WithPosition(pos mgl32.Vec2) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.position = pos
	}
}

// WithDepthRange sets the near and far clipping planes.
//
// Parameters:
//   - near: near plane distance
//   - far: far plane distance
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's depth range
func WithDepthRange(near, far float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.near = near
		c.far = far
	}
}
