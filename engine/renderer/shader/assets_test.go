package shader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const assetsDir = "../../../assets/shaders"

func readAsset(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(assetsDir, name))
	require.NoError(t, err)
	return string(data)
}

func TestParticlesShaderAsset(t *testing.T) {
	stages, err := SplitSource(readAsset(t, "particles.shader"))
	require.NoError(t, err)

	pp := NewPreProcessor()
	vs, err := pp.Process(stages[ShaderTypeVertex])
	require.NoError(t, err)
	assert.Equal(t, "vs_main", parseEntryPoint(vs, ShaderTypeVertex))
	assert.Empty(t, parseVertexLayouts(vs))

	layouts, names, err := parseBindGroupLayouts(vs, wgpu.ShaderStageVertex)
	require.NoError(t, err)
	require.Len(t, layouts, 2)
	assert.Equal(t, wgpu.BufferBindingTypeUniform, layouts[0].Entries[0].Buffer.Type)
	assert.Equal(t, wgpu.BufferBindingTypeReadOnlyStorage, layouts[1].Entries[0].Buffer.Type)
	assert.Equal(t, "particles", names[1][0])

	var providers []AnnotationArg
	for _, d := range pp.Declarations() {
		if d.Type == AnnotationTypeProvider {
			providers = append(providers, d.Args[0])
		}
	}
	assert.Equal(t, []AnnotationArg{AnnotationArgCamera, AnnotationArgParticles}, providers)

	assert.Equal(t, "fs_main", parseEntryPoint(stages[ShaderTypeFragment], ShaderTypeFragment))
}

func TestCircleShaderAsset(t *testing.T) {
	stages, err := SplitSource(readAsset(t, "circle.shader"))
	require.NoError(t, err)

	vs, err := NewPreProcessor().Process(stages[ShaderTypeVertex])
	require.NoError(t, err)
	layouts := parseVertexLayouts(vs)
	require.Len(t, layouts, 1)
	assert.Equal(t, uint64(8), layouts[0][0].ArrayStride)
	assert.Equal(t, wgpu.VertexFormatFloat32x2, layouts[0][0].Attributes[0].Format)
}

func TestKineticShaderAsset(t *testing.T) {
	src, err := NewPreProcessor().Process(readAsset(t, "kinetic.wgsl"))
	require.NoError(t, err)
	assert.Equal(t, [3]uint32{64, 1, 1}, parseWorkgroupSize(src))
	assert.Equal(t, "main", parseEntryPoint(src, ShaderTypeCompute))
}
