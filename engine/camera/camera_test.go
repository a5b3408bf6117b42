package camera

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func project(c Camera, x, y float32) mgl32.Vec4 {
	return c.ViewProjectionMatrix().Mul4x1(mgl32.Vec4{x, y, 0, 1})
}

func TestOrthoMapsViewportToClipSpace(t *testing.T) {
	c := NewCamera()
	w, h := c.Viewport()
	assert.Equal(t, float32(960), w)
	assert.Equal(t, float32(540), h)

	assert.True(t, project(c, 0, 0).ApproxEqual(mgl32.Vec4{-1, -1, 0, 1}))
	assert.True(t, project(c, 960, 540).ApproxEqual(mgl32.Vec4{1, 1, 0, 1}))
	assert.True(t, project(c, 480, 270).ApproxEqual(mgl32.Vec4{0, 0, 0, 1}))
}

func TestPositionAndZoom(t *testing.T) {
	c := NewCamera(WithViewport(100, 100), WithPosition(mgl32.Vec2{50, 50}))
	assert.True(t, project(c, 50, 50).ApproxEqual(mgl32.Vec4{-1, -1, 0, 1}))

	c.SetZoom(2)
	assert.True(t, project(c, 100, 100).ApproxEqual(mgl32.Vec4{1, 1, 0, 1}))

	c.SetZoom(0)
	assert.Equal(t, float32(2), c.Zoom())
}

func TestUniformMatchesViewProjection(t *testing.T) {
	c := NewCamera()
	u := c.Uniform()
	assert.Equal(t, 64, u.Size())
	assert.Equal(t, [16]float32(c.ViewProjectionMatrix()), u.ViewProj)
	assert.Len(t, u.Marshal(), 64)
	assert.Contains(t, GPUCameraUniformSource, "struct CameraUniform")
}

func TestBindGroupProviderNamesAreUnique(t *testing.T) {
	a := NewCamera()
	b := NewCamera()
	assert.NotEqual(t, a.BindGroupProvider().Label(), b.BindGroupProvider().Label())
}
