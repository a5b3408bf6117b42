package scene

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-particles/common"
	"github.com/Carmen-Shannon/oxy-particles/engine/camera"
	"github.com/Carmen-Shannon/oxy-particles/engine/renderer"
	"github.com/Carmen-Shannon/oxy-particles/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-particles/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-particles/engine/renderer/shader"
	"go.uber.org/zap"
)

const (
	circlePipelineKey = "circle"
	circleSegments    = 32
	circleRadius      = 50
	viewWidth         = 960
	viewHeight        = 540
)

// CircleScene draws one filled circle centered in a 960x540 orthographic view.
type CircleScene struct {
	camera camera.Camera
	mesh   bind_group_provider.BindGroupProvider
	logger *zap.Logger
}

var _ Scene = &CircleScene{}

// NewCircleScene builds the circle geometry and, when a renderer is present, its pipeline.
//
// Parameters:
//   - env: the scene environment
//
// Returns:
//   - *CircleScene: the scene
//   - error: a shader load, link or pipeline registration error
func NewCircleScene(env Env) (*CircleScene, error) {
	s := &CircleScene{
		camera: camera.NewCamera(camera.WithViewport(viewWidth, viewHeight)),
		mesh: bind_group_provider.NewBindGroupProvider(
			"circle_mesh",
			bind_group_provider.WithVertexCount(circleSegments*3),
			bind_group_provider.WithInstanceCount(1),
		),
		logger: env.logger(),
	}
	if env.Renderer == nil {
		return s, nil
	}

	prog, err := shader.LoadProgram(circlePipelineKey, env.Config.GPU.CircleShader)
	if err != nil {
		s.logger.Error("circle shader failed", zap.Error(err))
		return nil, err
	}
	if p, ok := prog.Provider(0); !ok || p != shader.AnnotationArgCamera {
		return nil, fmt.Errorf("%w: %s must bind the camera at group 0", shader.ErrShaderLinkFailed, prog.Key)
	}
	if err := initPipeline(env.Renderer, circlePipelineKey, prog, s.camera); err != nil {
		s.logger.Error("circle pipeline failed", zap.Error(err))
		return nil, err
	}

	vertices := common.CircleVertices(viewWidth/2, viewHeight/2, circleRadius, circleSegments)
	if err := env.Renderer.InitVertexBuffer(s.mesh, common.SliceToBytes(vertices), circleSegments*3); err != nil {
		return nil, fmt.Errorf("failed to upload circle geometry: %w", err)
	}
	return s, nil
}

func (s *CircleScene) OnUpdate(float32) {}

func (s *CircleScene) OnRender(r renderer.Renderer) {
	writeCamera(r, s.camera)
	if err := r.Draw(circlePipelineKey, s.mesh, []bind_group_provider.BindGroupProvider{s.camera.BindGroupProvider()}); err != nil {
		s.logger.Warn("circle draw failed", zap.Error(err))
	}
}

func (s *CircleScene) OnUIRender(*UIState) {}

func (s *CircleScene) Close() {
	s.mesh.Release()
	s.camera.BindGroupProvider().Release()
}

// initPipeline registers a render pipeline for prog and creates the camera bind group at group 0.
func initPipeline(r renderer.Renderer, key string, prog shader.Program, cam camera.Camera) error {
	if r.Pipeline(key) == nil {
		p := pipeline.NewPipeline(key, pipeline.PipelineTypeRender, pipeline.WithProgram(prog))
		if err := r.RegisterPipelines(p); err != nil {
			return err
		}
	}
	descs := prog.BindGroupLayoutDescriptors()
	if err := r.InitBindGroup(cam.BindGroupProvider(), descs[0], nil, nil); err != nil {
		return fmt.Errorf("failed to create camera bind group: %w", err)
	}
	return nil
}

func writeCamera(r renderer.Renderer, cam camera.Camera) {
	u := cam.Uniform()
	r.WriteBuffers([]bind_group_provider.BufferWrite{
		{Provider: cam.BindGroupProvider(), Binding: 0, Data: u.Marshal()},
	})
}
