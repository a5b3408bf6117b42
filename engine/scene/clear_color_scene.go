package scene

import (
	"github.com/Carmen-Shannon/oxy-particles/engine/renderer"
	"github.com/go-gl/mathgl/mgl32"
)

// ClearColorScene only clears the frame to a fixed color.
type ClearColorScene struct {
	color mgl32.Vec4
}

var (
	_ Scene        = &ClearColorScene{}
	_ ClearColorer = &ClearColorScene{}
)

// NewClearColorScene creates a scene clearing to (0.2, 0.3, 0.8, 1).
//
// Returns:
//   - *ClearColorScene: the scene
func NewClearColorScene() *ClearColorScene {
	return &ClearColorScene{color: mgl32.Vec4{0.2, 0.3, 0.8, 1}}
}

func (s *ClearColorScene) OnUpdate(float32) {}

func (s *ClearColorScene) OnRender(renderer.Renderer) {}

func (s *ClearColorScene) OnUIRender(*UIState) {}

func (s *ClearColorScene) ClearColor() mgl32.Vec4 {
	return s.color
}

func (s *ClearColorScene) Close() {}
