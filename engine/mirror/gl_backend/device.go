package gl_backend

import (
	"fmt"
	"os"
	"strings"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-particles/engine/mirror"
	"github.com/Carmen-Shannon/oxy-particles/engine/particle"
	"github.com/Carmen-Shannon/oxy-particles/engine/renderer/shader"
	"github.com/go-gl/gl/v4.3-core/gl"
	"go.uber.org/zap"
)

// particleBinding is the SSBO binding point declared by the kinetic compute shader.
const particleBinding = 0

// Device is a mirror.Device over an OpenGL shader storage buffer and a GLSL 430 compute
// program. All calls must come from the thread that owns the Context.
type Device struct {
	program       uint32
	ssbo          uint32
	size          uint64
	workgroupSize uint32

	uDeltaTime int32
	uCount     int32

	logger *zap.Logger
}

var (
	_ mirror.Device    = &Device{}
	_ mirror.Destroyer = &Device{}
)

// NewDevice compiles and links the kinetic compute program found at shaderPath.
// A context must be current on the calling thread.
//
// Parameters:
//   - shaderPath: path to the GLSL compute source
//   - options: builder options
//
// Returns:
//   - *Device: the device, with no buffer allocated
//   - error: an error wrapping shader.ErrShaderCompileFailed or shader.ErrShaderLinkFailed
func NewDevice(shaderPath string, options ...DeviceBuilderOption) (*Device, error) {
	src, err := os.ReadFile(shaderPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read compute shader %s: %w", shaderPath, err)
	}
	return NewDeviceFromSource(string(src), options...)
}

// NewDeviceFromSource is NewDevice for an in-memory GLSL source.
//
// Parameters:
//   - source: the GLSL compute source
//   - options: builder options
//
// Returns:
//   - *Device: the device, with no buffer allocated
//   - error: an error wrapping shader.ErrShaderCompileFailed or shader.ErrShaderLinkFailed
func NewDeviceFromSource(source string, options ...DeviceBuilderOption) (*Device, error) {
	d := &Device{logger: zap.NewNop()}
	for _, option := range options {
		option(d)
	}

	cs, err := compileShader(source, gl.COMPUTE_SHADER)
	if err != nil {
		return nil, err
	}
	defer gl.DeleteShader(cs)

	program := gl.CreateProgram()
	gl.AttachShader(program, cs)
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		msg := programInfoLog(program)
		gl.DeleteProgram(program)
		return nil, fmt.Errorf("%w: %s", shader.ErrShaderLinkFailed, msg)
	}

	var local [3]int32
	gl.GetProgramiv(program, gl.COMPUTE_WORK_GROUP_SIZE, &local[0])

	d.program = program
	d.workgroupSize = uint32(max(local[0], 1))
	d.uDeltaTime = gl.GetUniformLocation(program, gl.Str("deltaTime\x00"))
	d.uCount = gl.GetUniformLocation(program, gl.Str("count\x00"))
	d.logger.Info("gl compute program linked", zap.Uint32("workgroup_size", d.workgroupSize))
	return d, nil
}

func (d *Device) Allocate(size uint64) error {
	d.Release()

	gl.GenBuffers(1, &d.ssbo)
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, d.ssbo)
	gl.BufferData(gl.SHADER_STORAGE_BUFFER, int(size), nil, gl.DYNAMIC_DRAW)
	gl.BindBufferBase(gl.SHADER_STORAGE_BUFFER, particleBinding, d.ssbo)
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, 0)

	if code := gl.GetError(); code != gl.NO_ERROR {
		gl.DeleteBuffers(1, &d.ssbo)
		d.ssbo = 0
		return fmt.Errorf("glBufferData of %d bytes failed: 0x%x", size, code)
	}
	d.size = size
	return nil
}

func (d *Device) Write(data []byte) error {
	if d.ssbo == 0 {
		return mirror.ErrNotAllocated
	}
	if uint64(len(data)) > d.size {
		return fmt.Errorf("write of %d bytes exceeds buffer of %d", len(data), d.size)
	}
	if len(data) == 0 {
		return nil
	}
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, d.ssbo)
	gl.BufferSubData(gl.SHADER_STORAGE_BUFFER, 0, len(data), gl.Ptr(data))
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, 0)
	return nil
}

func (d *Device) Dispatch(workgroups uint32, params particle.GPUSimParams) error {
	if d.ssbo == 0 {
		return mirror.ErrNotAllocated
	}
	gl.UseProgram(d.program)
	gl.Uniform1f(d.uDeltaTime, params.DeltaTime)
	gl.Uniform1ui(d.uCount, params.Count)
	gl.BindBufferBase(gl.SHADER_STORAGE_BUFFER, particleBinding, d.ssbo)
	gl.DispatchCompute(workgroups, 1, 1)
	gl.MemoryBarrier(gl.SHADER_STORAGE_BARRIER_BIT | gl.BUFFER_UPDATE_BARRIER_BIT)
	gl.UseProgram(0)

	if code := gl.GetError(); code != gl.NO_ERROR {
		return fmt.Errorf("glDispatchCompute(%d) failed: 0x%x", workgroups, code)
	}
	return nil
}

func (d *Device) Read(size uint64) ([]byte, error) {
	if d.ssbo == 0 {
		return nil, fmt.Errorf("%w: %w", mirror.ErrBufferMapFailed, mirror.ErrNotAllocated)
	}
	if size > d.size {
		return nil, fmt.Errorf("%w: read of %d bytes exceeds buffer of %d", mirror.ErrBufferMapFailed, size, d.size)
	}

	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, d.ssbo)
	defer gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, 0)

	ptr := gl.MapBufferRange(gl.SHADER_STORAGE_BUFFER, 0, int(size), gl.MAP_READ_BIT)
	if ptr == nil {
		return nil, fmt.Errorf("%w: glMapBufferRange returned null", mirror.ErrBufferMapFailed)
	}
	out := make([]byte, size)
	copy(out, unsafe.Slice((*byte)(ptr), size))
	gl.UnmapBuffer(gl.SHADER_STORAGE_BUFFER)
	return out, nil
}

func (d *Device) WorkgroupSize() uint32 {
	return d.workgroupSize
}

func (d *Device) Release() {
	if d.ssbo != 0 {
		gl.DeleteBuffers(1, &d.ssbo)
		d.ssbo = 0
		d.size = 0
	}
}

// Destroy releases the buffer and deletes the compute program.
func (d *Device) Destroy() {
	d.Release()
	if d.program != 0 {
		gl.DeleteProgram(d.program)
		d.program = 0
	}
}

func compileShader(source string, shaderType uint32) (uint32, error) {
	handle := gl.CreateShader(shaderType)
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(handle, 1, csources, nil)
	free()
	gl.CompileShader(handle)

	var status int32
	gl.GetShaderiv(handle, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(handle, gl.INFO_LOG_LENGTH, &logLength)
		msg := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(handle, logLength, nil, gl.Str(msg))
		gl.DeleteShader(handle)
		return 0, fmt.Errorf("%w: %s", shader.ErrShaderCompileFailed, strings.TrimRight(msg, "\x00"))
	}
	return handle, nil
}

func programInfoLog(program uint32) string {
	var logLength int32
	gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
	msg := strings.Repeat("\x00", int(logLength+1))
	gl.GetProgramInfoLog(program, logLength, nil, gl.Str(msg))
	return strings.TrimRight(msg, "\x00")
}
