package renderer

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-particles/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-particles/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-particles/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-particles/engine/window"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

type renderer struct {
	mu *sync.Mutex

	pipelineCache map[string]pipeline.Pipeline

	backendType RendererBackendType
	backend     RendererBackend
	logger      *zap.Logger

	// collected from builder options before the backend exists
	forceFallbackAdapter bool
	pendingPresentMode   *PresentMode
	pendingMSAA          *MSAASampleCount
	pendingClearColor    *mgl32.Vec4
}

// Renderer is the high-level rendering API used by scenes and GPU mirror devices.
// It caches registered pipelines by key and forwards GPU work to a backend.
//
// All methods must be called from the render goroutine. Compute work is batched between
// BeginComputeFrame and EndComputeFrame, draw work between BeginFrame and EndFrame.
type Renderer interface {
	// Pipeline retrieves a registered pipeline.
	//
	// Parameters:
	//   - key: the pipeline key
	//
	// Returns:
	//   - pipeline.Pipeline: the pipeline, or nil if not registered
	Pipeline(key string) pipeline.Pipeline

	// Pipelines returns the pipeline cache.
	//
	// Returns:
	//   - map[string]pipeline.Pipeline: registered pipelines by key
	Pipelines() map[string]pipeline.Pipeline

	// RegisterPipelines creates the device object for each pipeline and caches it by key.
	// Keys already registered are skipped. A pipeline whose creation fails is not cached.
	//
	// Parameters:
	//   - pipelines: the pipelines to register
	//
	// Returns:
	//   - error: an error wrapping shader.ErrShaderLinkFailed for render pipelines the device rejects
	RegisterPipelines(pipelines ...pipeline.Pipeline) error

	// Resize reconfigures the surface for a new size.
	//
	// Parameters:
	//   - width: the new width in pixels
	//   - height: the new height in pixels
	Resize(width, height int)

	// SetPresentMode changes the present mode. Takes effect on the next Resize.
	//
	// Parameters:
	//   - mode: PresentModeVSync or PresentModeUncapped
	SetPresentMode(mode PresentMode)

	// SetClearColor sets the color the main render pass clears to.
	//
	// Parameters:
	//   - color: RGBA clear color
	SetClearColor(color mgl32.Vec4)

	// ClearColor returns the current clear color.
	//
	// Returns:
	//   - mgl32.Vec4: RGBA clear color
	ClearColor() mgl32.Vec4

	// InitVertexBuffer uploads vertex data into a new vertex buffer on the provider.
	//
	// Parameters:
	//   - provider: the provider receiving the buffer
	//   - vertexData: the raw vertex bytes
	//   - vertexCount: the number of vertices drawn from the buffer
	//
	// Returns:
	//   - error: an error if buffer creation fails
	InitVertexBuffer(provider bind_group_provider.BindGroupProvider, vertexData []byte, vertexCount int) error

	// InitBindGroup creates any missing buffers for the descriptor's entries and a bind group
	// binding them, storing both on the provider.
	//
	// Parameters:
	//   - provider: the provider receiving the buffers and bind group
	//   - descriptor: the layout descriptor
	//   - bufferUsageOverrides: extra usage flags OR-ed in per binding (nil safe)
	//   - bufferSizeOverrides: sizes used instead of MinBindingSize per binding (nil safe)
	//
	// Returns:
	//   - error: an error if buffer or bind group creation fails
	InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, bufferUsageOverrides map[int]wgpu.BufferUsage, bufferSizeOverrides map[int]uint64) error

	// WriteBuffers queues buffer writes. Writes to bindings without a buffer are skipped.
	//
	// Parameters:
	//   - writes: the writes to queue
	WriteBuffers(writes []bind_group_provider.BufferWrite)

	// ReadBuffer copies a range of a provider buffer into a staging buffer and maps it,
	// blocking until the device has finished all previously submitted work.
	//
	// Parameters:
	//   - read: the buffer range to read
	//
	// Returns:
	//   - []byte: a copy of the mapped bytes
	//   - error: an error if the buffer is missing, too small, or the map fails
	ReadBuffer(read bind_group_provider.BufferRead) ([]byte, error)

	// BeginComputeFrame starts a command encoder batching the frame's compute passes.
	//
	// Returns:
	//   - error: an error if the encoder could not be created
	BeginComputeFrame() error

	// EndComputeFrame submits the batched compute passes.
	//
	// Returns:
	//   - error: an error if the encoder could not be finished
	EndComputeFrame() error

	// DispatchCompute encodes one compute pass with the provider's bind group at group 0.
	//
	// Parameters:
	//   - pipelineKey: the registered compute pipeline
	//   - computeProvider: the provider whose bind group is used
	//   - workGroupCount: workgroups in x, y and z
	//
	// Returns:
	//   - error: an error if the pipeline is unknown or no compute frame is open
	DispatchCompute(pipelineKey string, computeProvider bind_group_provider.BindGroupProvider, workGroupCount [3]uint32) error

	// BeginFrame acquires the swapchain texture and begins the main render pass.
	//
	// Returns:
	//   - error: an error if the swapchain texture could not be acquired
	BeginFrame() error

	// Draw encodes a non-indexed draw of VertexCount vertices and InstanceCount instances
	// taken from the mesh provider. bindGroups[i] is bound at group i.
	//
	// Parameters:
	//   - pipelineKey: the registered render pipeline
	//   - meshProvider: the provider holding the vertex buffer and counts
	//   - bindGroups: providers bound in group order
	//
	// Returns:
	//   - error: an error if the pipeline is unknown or no frame is open
	Draw(pipelineKey string, meshProvider bind_group_provider.BindGroupProvider, bindGroups []bind_group_provider.BindGroupProvider) error

	// EndFrame ends the render pass and submits it. Call Present afterwards.
	EndFrame()

	// Present presents the surface and releases the swapchain texture.
	Present()

	// Release frees every cached pipeline and the device.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a Renderer for the given window. Adapter or device acquisition
// failures panic, as the process cannot render without them.
//
// Parameters:
//   - backendType: the backend to use
//   - window: the window whose surface is rendered to
//   - options: builder options
//
// Returns:
//   - Renderer: the renderer
func NewRenderer(backendType RendererBackendType, window window.Window, options ...RendererBuilderOption) Renderer {
	r := &renderer{
		mu:            &sync.Mutex{},
		pipelineCache: make(map[string]pipeline.Pipeline),
		backendType:   backendType,
		logger:        zap.NewNop(),
	}
	for _, opt := range options {
		opt(r)
	}

	msaa := MSAA4x
	if r.pendingMSAA != nil {
		msaa = *r.pendingMSAA
	}

	switch backendType {
	case BackendTypeWGPU:
		fallthrough
	default:
		r.backend = newWGPURendererBackend(window.SurfaceDescriptor(), r.forceFallbackAdapter, msaa, r.logger)
	}

	if r.pendingPresentMode != nil {
		r.backend.SetPresentMode(*r.pendingPresentMode)
	}
	if r.pendingClearColor != nil {
		r.backend.SetClearColor(*r.pendingClearColor)
	}
	r.backend.ConfigureSurface(window.Width(), window.Height())
	return r
}

func (r *renderer) Resize(width, height int) {
	r.backend.ConfigureSurface(width, height)
}

func (r *renderer) SetPresentMode(mode PresentMode) {
	r.backend.SetPresentMode(mode)
}

func (r *renderer) SetClearColor(color mgl32.Vec4) {
	r.backend.SetClearColor(color)
}

func (r *renderer) ClearColor() mgl32.Vec4 {
	return r.backend.ClearColor()
}

func (r *renderer) Pipeline(key string) pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pipelineCache[key]
}

func (r *renderer) Pipelines() map[string]pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pipelineCache
}

func (r *renderer) RegisterPipelines(pipelines ...pipeline.Pipeline) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range pipelines {
		key := p.PipelineKey()
		if _, exists := r.pipelineCache[key]; exists {
			continue
		}
		var err error
		switch p.Type() {
		case pipeline.PipelineTypeCompute:
			err = r.backend.RegisterComputePipeline(p)
		case pipeline.PipelineTypeRender:
			if err = r.backend.RegisterRenderPipeline(p); err != nil {
				err = fmt.Errorf("%w: %s: %v", shader.ErrShaderLinkFailed, key, err)
			}
		}
		if err != nil {
			r.logger.Error("pipeline registration failed", zap.String("pipeline", key), zap.Error(err))
			return err
		}
		r.logger.Debug("pipeline registered", zap.String("pipeline", key))
		r.pipelineCache[key] = p
	}
	return nil
}

func (r *renderer) InitVertexBuffer(provider bind_group_provider.BindGroupProvider, vertexData []byte, vertexCount int) error {
	return r.backend.InitVertexBuffer(provider, vertexData, vertexCount)
}

func (r *renderer) InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, bufferUsageOverrides map[int]wgpu.BufferUsage, bufferSizeOverrides map[int]uint64) error {
	return r.backend.InitBindGroup(provider, descriptor, bufferUsageOverrides, bufferSizeOverrides)
}

func (r *renderer) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	r.backend.WriteBuffers(writes)
}

func (r *renderer) ReadBuffer(read bind_group_provider.BufferRead) ([]byte, error) {
	return r.backend.ReadBuffer(read)
}

func (r *renderer) BeginComputeFrame() error {
	return r.backend.BeginComputeFrame()
}

func (r *renderer) EndComputeFrame() error {
	return r.backend.EndComputeFrame()
}

func (r *renderer) DispatchCompute(pipelineKey string, computeProvider bind_group_provider.BindGroupProvider, workGroupCount [3]uint32) error {
	p := r.Pipeline(pipelineKey)
	if p == nil {
		return fmt.Errorf("compute pipeline %q not registered", pipelineKey)
	}
	return r.backend.DispatchCompute(p, computeProvider, workGroupCount)
}

func (r *renderer) BeginFrame() error {
	return r.backend.BeginFrame()
}

func (r *renderer) Draw(pipelineKey string, meshProvider bind_group_provider.BindGroupProvider, bindGroups []bind_group_provider.BindGroupProvider) error {
	p := r.Pipeline(pipelineKey)
	if p == nil {
		return fmt.Errorf("render pipeline %q not registered", pipelineKey)
	}
	return r.backend.Draw(p, meshProvider, bindGroups)
}

func (r *renderer) EndFrame() {
	r.backend.EndFrame()
}

func (r *renderer) Present() {
	r.backend.Present()
}

func (r *renderer) Release() {
	r.mu.Lock()
	for key, p := range r.pipelineCache {
		p.Release()
		delete(r.pipelineCache, key)
	}
	r.mu.Unlock()
	r.backend.Release()
}
