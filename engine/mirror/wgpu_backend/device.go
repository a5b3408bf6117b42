package wgpu_backend

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-particles/engine/mirror"
	"github.com/Carmen-Shannon/oxy-particles/engine/particle"
	"github.com/Carmen-Shannon/oxy-particles/engine/renderer"
	"github.com/Carmen-Shannon/oxy-particles/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-particles/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-particles/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"go.uber.org/zap"
)

// PipelineKey is the renderer cache key of the kinetic compute pipeline.
const PipelineKey = "kinetic"

const (
	bindingParticles = 0
	bindingParams    = 1
)

// Device is a mirror.Device backed by a WebGPU storage buffer and the kinetic compute
// pipeline, driven through a renderer.Renderer. WebGPU orders submitted passes, so the
// copy issued by Read always observes the preceding dispatch.
type Device struct {
	renderer renderer.Renderer
	shader   shader.Shader
	logger   *zap.Logger

	provider bind_group_provider.BindGroupProvider
	size     uint64
}

var _ mirror.Device = &Device{}

// NewDevice loads the kinetic WGSL kernel, registers its compute pipeline on the renderer
// and returns a Device ready for Allocate.
//
// Parameters:
//   - r: the renderer owning the WebGPU device
//   - shaderPath: path to the kinetic WGSL source
//   - options: builder options
//
// Returns:
//   - *Device: the device
//   - error: an error wrapping shader.ErrShaderCompileFailed, or a pipeline registration error
func NewDevice(r renderer.Renderer, shaderPath string, options ...DeviceBuilderOption) (*Device, error) {
	d := &Device{renderer: r, logger: zap.NewNop()}
	for _, option := range options {
		option(d)
	}

	s, err := shader.NewShader(PipelineKey, shader.ShaderTypeCompute, shaderPath)
	if err != nil {
		return nil, err
	}
	if s.EntryPoint() == "" {
		return nil, fmt.Errorf("%w: %s has no @compute entry point", shader.ErrShaderCompileFailed, shaderPath)
	}
	if _, ok := s.BindGroupFromVarName(0, "particles"); !ok {
		return nil, fmt.Errorf("%w: %s does not declare particles in group 0", shader.ErrShaderCompileFailed, shaderPath)
	}
	d.shader = s

	p := pipeline.NewPipeline(PipelineKey, pipeline.PipelineTypeCompute, pipeline.WithComputeShader(s))
	if err := r.RegisterPipelines(p); err != nil {
		return nil, err
	}
	d.logger.Info("kinetic pipeline ready", zap.Uint32("workgroup_size", d.WorkgroupSize()))
	return d, nil
}

func (d *Device) Allocate(size uint64) error {
	d.Release()

	provider := bind_group_provider.NewBindGroupProvider("particle_mirror")
	err := d.renderer.InitBindGroup(
		provider,
		d.shader.BindGroupLayoutDescriptor(0),
		map[int]wgpu.BufferUsage{bindingParticles: wgpu.BufferUsageCopySrc},
		map[int]uint64{bindingParticles: size, bindingParams: particle.GPUSimParamsSize},
	)
	if err != nil {
		provider.Release()
		return fmt.Errorf("allocate %d bytes: %w", size, err)
	}
	d.provider = provider
	d.size = size
	d.logger.Debug("mirror buffer allocated", zap.Uint64("bytes", size))
	return nil
}

func (d *Device) Write(data []byte) error {
	if d.provider == nil {
		return mirror.ErrNotAllocated
	}
	if uint64(len(data)) > d.size {
		return fmt.Errorf("write of %d bytes exceeds buffer of %d", len(data), d.size)
	}
	d.renderer.WriteBuffers([]bind_group_provider.BufferWrite{
		{Provider: d.provider, Binding: bindingParticles, Data: data},
	})
	return nil
}

func (d *Device) Dispatch(workgroups uint32, params particle.GPUSimParams) error {
	if d.provider == nil {
		return mirror.ErrNotAllocated
	}
	d.renderer.WriteBuffers([]bind_group_provider.BufferWrite{
		{Provider: d.provider, Binding: bindingParams, Data: params.Marshal()},
	})
	if err := d.renderer.BeginComputeFrame(); err != nil {
		return err
	}
	if err := d.renderer.DispatchCompute(PipelineKey, d.provider, [3]uint32{workgroups, 1, 1}); err != nil {
		_ = d.renderer.EndComputeFrame()
		return err
	}
	return d.renderer.EndComputeFrame()
}

func (d *Device) Read(size uint64) ([]byte, error) {
	if d.provider == nil {
		return nil, fmt.Errorf("%w: %w", mirror.ErrBufferMapFailed, mirror.ErrNotAllocated)
	}
	data, err := d.renderer.ReadBuffer(bind_group_provider.BufferRead{
		Provider: d.provider,
		Binding:  bindingParticles,
		Size:     size,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", mirror.ErrBufferMapFailed, err)
	}
	return data, nil
}

func (d *Device) WorkgroupSize() uint32 {
	return d.shader.WorkgroupSize()[0]
}

func (d *Device) Release() {
	if d.provider != nil {
		d.provider.Release()
		d.provider = nil
		d.size = 0
	}
}
