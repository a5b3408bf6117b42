package shader

import (
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-particles/engine/particle"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const kineticSource = `//@oxy:include particle
//@oxy:include sim_params
//@oxy:group 0 0 storage_read_write particles array<particle>
//@oxy:group 0 1 storage_uniform params sim_params

@compute @workgroup_size(64)
fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
    let i = gid.x;
    if (i >= params.count) {
        return;
    }
    particles[i].position = particles[i].position + particles[i].velocity * params.delta_time;
    particles[i].velocity = particles[i].velocity + particles[i].acceleration * params.delta_time;
}
`

func TestParticleStructSizeMatchesGPULayout(t *testing.T) {
	sizes := computeStructSizes(parseStructBlocks(stripComments(particle.GPUParticleSource)))
	require.Contains(t, sizes, "Particle")
	assert.Equal(t, uint64(particle.GPUParticleSize), sizes["Particle"].size)
	assert.Equal(t, uint64(16), sizes["Particle"].align)

	sizes = computeStructSizes(parseStructBlocks(particle.GPUSimParamsSource))
	assert.Equal(t, uint64(particle.GPUSimParamsSize), sizes["SimParams"].size)
}

func TestResolveTypeLayout(t *testing.T) {
	known := map[string]wgslTypeLayout{"Particle": {64, 16}}
	tests := []struct {
		typeName string
		want     wgslTypeLayout
		ok       bool
	}{
		{"f32", wgslTypeLayout{4, 4}, true},
		{"vec3<f32>", wgslTypeLayout{12, 16}, true},
		{"array<Particle>", wgslTypeLayout{64, 16}, true},
		{"array<vec3<f32>, 4>", wgslTypeLayout{64, 16}, true},
		{"array<Unknown>", wgslTypeLayout{}, false},
		{"texture_2d<f32>", wgslTypeLayout{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.typeName, func(t *testing.T) {
			got, ok := resolveTypeLayout(tt.typeName, known)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPreProcessorExpandsAnnotations(t *testing.T) {
	pp := NewPreProcessor()
	out, err := pp.Process(kineticSource)
	require.NoError(t, err)

	assert.Contains(t, out, "struct Particle")
	assert.Contains(t, out, "struct SimParams")
	assert.Contains(t, out, "@group(0) @binding(0) var<storage, read_write> particles: array<Particle>;")
	assert.Contains(t, out, "@group(0) @binding(1) var<uniform> params: SimParams;")
	assert.NotContains(t, out, "@oxy:")

	decls := pp.Declarations()
	require.Len(t, decls, 2)
	assert.Equal(t, AnnotationTypeBindingGroup, decls[0].Type)
	assert.Equal(t, 1, *decls[1].Binding)
}

func TestPreProcessorIncludesStructOnce(t *testing.T) {
	out, err := NewPreProcessor().Process("//@oxy:include camera\n//@oxy:include camera\n")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, "struct CameraUniform"))
}

func TestParseAnnotationErrors(t *testing.T) {
	tests := map[string]string{
		"empty":            "//@oxy:",
		"unknown type":     "//@oxy:texture 0 0 x",
		"unknown include":  "//@oxy:include light",
		"bad group":        "//@oxy:group a 0 storage_uniform camera camera",
		"bad address":      "//@oxy:group 0 0 storage_write camera camera",
		"unknown provider": "//@oxy:provider 0 0 material",
		"provider arity":   "//@oxy:provider 0 0 camera diffuse_texture",
	}
	for name, line := range tests {
		t.Run(name, func(t *testing.T) {
			a, err := parseAnnotation(line, 3)
			assert.Nil(t, a)
			assert.ErrorContains(t, err, "line 3")
		})
	}

	a, err := parseAnnotation("let x = 1; // plain comment", 1)
	assert.NoError(t, err)
	assert.Nil(t, a)
}

func TestParseBindGroupLayouts(t *testing.T) {
	expanded, err := NewPreProcessor().Process(kineticSource)
	require.NoError(t, err)

	layouts, names, err := parseBindGroupLayouts(expanded, wgpu.ShaderStageCompute)
	require.NoError(t, err)
	require.Contains(t, layouts, 0)

	entries := layouts[0].Entries
	require.Len(t, entries, 2)
	assert.Equal(t, wgpu.BufferBindingTypeStorage, entries[0].Buffer.Type)
	assert.Equal(t, uint64(particle.GPUParticleSize), entries[0].Buffer.MinBindingSize)
	assert.Equal(t, wgpu.BufferBindingTypeUniform, entries[1].Buffer.Type)
	assert.Equal(t, uint64(particle.GPUSimParamsSize), entries[1].Buffer.MinBindingSize)
	assert.Equal(t, "particles", names[0][0])

	_, _, err = parseBindGroupLayouts("@group(1) @binding(0) var tex: texture_2d<f32>;", wgpu.ShaderStageFragment)
	assert.Error(t, err)
}

func TestParseEntryPointAndWorkgroupSize(t *testing.T) {
	assert.Equal(t, "main", parseEntryPoint(kineticSource, ShaderTypeCompute))
	assert.Equal(t, "", parseEntryPoint(kineticSource, ShaderTypeVertex))
	assert.Equal(t, [3]uint32{64, 1, 1}, parseWorkgroupSize(kineticSource))
	assert.Equal(t, [3]uint32{8, 4, 1}, parseWorkgroupSize("@compute @workgroup_size(8, 4) fn f() {}"))
	assert.Equal(t, [3]uint32{1, 1, 1}, parseWorkgroupSize("/* @workgroup_size(8) */ fn f() {}"))
}

func TestParseVertexLayouts(t *testing.T) {
	src := `
struct VertexInput {
    @location(0) position: vec2<f32>,
};
struct VertexOutput {
    @builtin(position) clip: vec4<f32>,
    @location(0) color: vec4<f32>,
};`
	layouts := parseVertexLayouts(src)
	require.Len(t, layouts, 1)
	l := layouts[0][0]
	assert.Equal(t, uint64(8), l.ArrayStride)
	require.Len(t, l.Attributes, 1)
	assert.Equal(t, wgpu.VertexFormatFloat32x2, l.Attributes[0].Format)
}

func TestNewShaderFromSource(t *testing.T) {
	s, err := NewShaderFromSource("kinetic", ShaderTypeCompute, kineticSource)
	require.NoError(t, err)
	assert.Equal(t, "kinetic", s.Key())
	assert.Equal(t, "main", s.EntryPoint())
	assert.Equal(t, [3]uint32{64, 1, 1}, s.WorkgroupSize())
	assert.Equal(t, "kinetic", s.Module().Label)
	assert.Len(t, s.Declarations(), 2)

	binding, ok := s.BindGroupFromVarName(0, "params")
	assert.True(t, ok)
	assert.Equal(t, 1, binding)
}

func TestNewShaderCompileFailure(t *testing.T) {
	_, err := NewShaderFromSource("broken", ShaderTypeCompute, "@compute @workgroup_size(1) fn main() { let x: f32 = ; }")
	assert.ErrorIs(t, err, ErrShaderCompileFailed)

	_, err = NewShaderFromSource("bad-annotation", ShaderTypeCompute, "//@oxy:include light\n")
	assert.ErrorIs(t, err, ErrShaderCompileFailed)
}

func TestNewShaderMissingFile(t *testing.T) {
	_, err := NewShader("missing", ShaderTypeCompute, "does/not/exist.wgsl")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrShaderCompileFailed)
}
