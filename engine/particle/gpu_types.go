package particle

import (
	_ "embed"
	"encoding/binary"
	"fmt"
	"math"
	"unsafe"
)

// GPUParticleSource is the canonical WGSL definition of the Particle struct.
// Matches GPUParticle layout exactly (64 bytes, std430 aligned).
//
//go:embed assets/particle.wgsl
var GPUParticleSource string

// GPUSimParamsSource is the canonical WGSL definition of the SimParams uniform struct.
// Matches GPUSimParams layout exactly (16 bytes).
//
//go:embed assets/sim_params.wgsl
var GPUSimParamsSource string

// GPUParticleSize is the byte stride of one particle record in a device buffer.
const GPUParticleSize = 64

// GPUSimParamsSize is the byte size of the compute kernel's parameter uniform.
const GPUSimParamsSize = 16

// GPUParticle is the GPU-aligned representation of a single particle record.
// Matches the WGSL Particle struct layout exactly (see GPUParticleSource) and the
// std430 Particle block declared by the GLSL compute shader.
// Each vec3 is 16-byte aligned; the scalar that follows it occupies the vec3's tail slot.
// Size: 64 bytes.
type GPUParticle struct {
	Position     [3]float32 // offset  0: vec3<f32>
	Mass         float32    // offset 12: f32
	Velocity     [3]float32 // offset 16: vec3<f32>
	Radius       float32    // offset 28: f32
	Acceleration [3]float32 // offset 32: vec3<f32>
	ID           uint32     // offset 44: u32
	Color        [4]float32 // offset 48: vec4<f32>
}

// Size returns the size of the GPUParticle struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (64)
func (g *GPUParticle) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUParticle struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 64-byte buffer ready for GPU upload
func (g *GPUParticle) Marshal() []byte {
	buf := make([]byte, GPUParticleSize)
	g.MarshalTo(buf)
	return buf
}

// MarshalTo serializes the GPUParticle into the first 64 bytes of dst.
// dst must be at least GPUParticleSize bytes long.
//
// Parameters:
//   - dst: the destination buffer
func (g *GPUParticle) MarshalTo(dst []byte) {
	putVec3(dst[0:], g.Position)
	binary.LittleEndian.PutUint32(dst[12:], math.Float32bits(g.Mass))
	putVec3(dst[16:], g.Velocity)
	binary.LittleEndian.PutUint32(dst[28:], math.Float32bits(g.Radius))
	putVec3(dst[32:], g.Acceleration)
	binary.LittleEndian.PutUint32(dst[44:], g.ID)
	for i := range 4 {
		binary.LittleEndian.PutUint32(dst[48+i*4:], math.Float32bits(g.Color[i]))
	}
}

// Unmarshal decodes a GPUParticle from the first 64 bytes of src.
//
// Parameters:
//   - src: the source buffer, at least GPUParticleSize bytes long
//
// Returns:
//   - error: an error if src is too short
func (g *GPUParticle) Unmarshal(src []byte) error {
	if len(src) < GPUParticleSize {
		return fmt.Errorf("particle record needs %d bytes, got %d", GPUParticleSize, len(src))
	}
	g.Position = getVec3(src[0:])
	g.Mass = math.Float32frombits(binary.LittleEndian.Uint32(src[12:]))
	g.Velocity = getVec3(src[16:])
	g.Radius = math.Float32frombits(binary.LittleEndian.Uint32(src[28:]))
	g.Acceleration = getVec3(src[32:])
	g.ID = binary.LittleEndian.Uint32(src[44:])
	for i := range 4 {
		g.Color[i] = math.Float32frombits(binary.LittleEndian.Uint32(src[48+i*4:]))
	}
	return nil
}

// GPUSimParams is the GPU-aligned representation of the compute kernel's per-dispatch parameters.
// Matches the WGSL SimParams struct layout exactly (see GPUSimParamsSource).
// Size: 16 bytes (uniform buffers require 16-byte multiples).
type GPUSimParams struct {
	DeltaTime float32 // offset 0: f32, seconds elapsed this step
	Count     uint32  // offset 4: u32, number of live records at the front of the buffer
	_pad0     uint32  // offset 8
	_pad1     uint32  // offset 12
}

// Size returns the size of the GPUSimParams struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (16)
func (g *GPUSimParams) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUSimParams struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 16-byte buffer ready for GPU upload
func (g *GPUSimParams) Marshal() []byte {
	buf := make([]byte, GPUSimParamsSize)
	binary.LittleEndian.PutUint32(buf[0:], math.Float32bits(g.DeltaTime))
	binary.LittleEndian.PutUint32(buf[4:], g.Count)
	binary.LittleEndian.PutUint32(buf[8:], 0)  // _pad0
	binary.LittleEndian.PutUint32(buf[12:], 0) // _pad1
	return buf
}

// MarshalParticles encodes live particles into one contiguous buffer, one 64-byte
// record per particle in slice order.
//
// Parameters:
//   - live: the particles to encode
//
// Returns:
//   - []byte: len(live)*GPUParticleSize bytes
func MarshalParticles(live []Particle) []byte {
	buf := make([]byte, len(live)*GPUParticleSize)
	for i := range live {
		g := live[i].GPU()
		g.MarshalTo(buf[i*GPUParticleSize:])
	}
	return buf
}

// UnmarshalParticles decodes count records from buf.
//
// Parameters:
//   - buf: the encoded records
//   - count: the number of records to decode
//
// Returns:
//   - []Particle: the decoded particles
//   - error: an error if buf holds fewer than count records
func UnmarshalParticles(buf []byte, count int) ([]Particle, error) {
	if len(buf) < count*GPUParticleSize {
		return nil, fmt.Errorf("buffer holds %d bytes, need %d for %d particles", len(buf), count*GPUParticleSize, count)
	}
	out := make([]Particle, count)
	var g GPUParticle
	for i := range count {
		if err := g.Unmarshal(buf[i*GPUParticleSize:]); err != nil {
			return nil, err
		}
		out[i] = FromGPU(g)
	}
	return out, nil
}

func putVec3(dst []byte, v [3]float32) {
	for i := range 3 {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(v[i]))
	}
}

func getVec3(src []byte) [3]float32 {
	var v [3]float32
	for i := range 3 {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(src[i*4:]))
	}
	return v
}
