package particle

import (
	"encoding/binary"
	"math"
	"testing"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGPUParticleLayout(t *testing.T) {
	var g GPUParticle
	assert.Equal(t, GPUParticleSize, g.Size())
	assert.Equal(t, uintptr(0), unsafe.Offsetof(g.Position))
	assert.Equal(t, uintptr(12), unsafe.Offsetof(g.Mass))
	assert.Equal(t, uintptr(16), unsafe.Offsetof(g.Velocity))
	assert.Equal(t, uintptr(28), unsafe.Offsetof(g.Radius))
	assert.Equal(t, uintptr(32), unsafe.Offsetof(g.Acceleration))
	assert.Equal(t, uintptr(44), unsafe.Offsetof(g.ID))
	assert.Equal(t, uintptr(48), unsafe.Offsetof(g.Color))

	var s GPUSimParams
	assert.Equal(t, GPUSimParamsSize, s.Size())
	assert.Equal(t, uintptr(4), unsafe.Offsetof(s.Count))
}

func TestGPUParticleMarshalOffsets(t *testing.T) {
	g := GPUParticle{
		Position:     [3]float32{1, 2, 3},
		Mass:         4,
		Velocity:     [3]float32{5, 6, 7},
		Radius:       8,
		Acceleration: [3]float32{9, 10, 11},
		ID:           12,
		Color:        [4]float32{13, 14, 15, 16},
	}
	buf := g.Marshal()
	require.Len(t, buf, GPUParticleSize)

	f := func(off int) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:])) }
	assert.Equal(t, float32(1), f(0))
	assert.Equal(t, float32(4), f(12))
	assert.Equal(t, float32(5), f(16))
	assert.Equal(t, float32(8), f(28))
	assert.Equal(t, float32(9), f(32))
	assert.Equal(t, uint32(12), binary.LittleEndian.Uint32(buf[44:]))
	assert.Equal(t, float32(13), f(48))
	assert.Equal(t, float32(16), f(60))

	var back GPUParticle
	require.NoError(t, back.Unmarshal(buf))
	assert.Equal(t, g, back)
}

func TestGPUParticleUnmarshalShortBuffer(t *testing.T) {
	var g GPUParticle
	assert.Error(t, g.Unmarshal(make([]byte, GPUParticleSize-1)))
}

func TestGPUSimParamsMarshal(t *testing.T) {
	buf := (&GPUSimParams{DeltaTime: 0.01, Count: 7}).Marshal()
	require.Len(t, buf, GPUSimParamsSize)
	assert.Equal(t, float32(0.01), math.Float32frombits(binary.LittleEndian.Uint32(buf[0:])))
	assert.Equal(t, uint32(7), binary.LittleEndian.Uint32(buf[4:]))
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0, 0}, buf[8:])
}

func TestMarshalParticlesPreservesOrder(t *testing.T) {
	live := []Particle{
		{ID: 3, Position: mgl32.Vec3{1, 0, 0}, Mass: 1, Radius: 1, Color: mgl32.Vec4{1, 0, 0, 1}},
		{ID: 0, Velocity: mgl32.Vec3{0, 2, 0}, Mass: 2, Radius: 3, Color: mgl32.Vec4{0, 0, 1, 1}},
	}
	buf := MarshalParticles(live)
	require.Len(t, buf, 2*GPUParticleSize)

	back, err := UnmarshalParticles(buf, 2)
	require.NoError(t, err)
	assert.Equal(t, live, back)

	_, err = UnmarshalParticles(buf, 3)
	assert.Error(t, err)
}

func TestEmbeddedSourcesDeclareStructs(t *testing.T) {
	assert.Contains(t, GPUParticleSource, "struct Particle")
	assert.Contains(t, GPUSimParamsSource, "struct SimParams")
}
