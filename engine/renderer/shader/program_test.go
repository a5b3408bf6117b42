package shader

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stage(st ShaderType, entry string, entries ...wgpu.BindGroupLayoutEntry) *shader {
	s := &shader{key: st.String(), shaderType: st, entryPoint: entry}
	if len(entries) > 0 {
		s.bindGroupLayoutDescriptors = map[int]wgpu.BindGroupLayoutDescriptor{0: {Entries: entries}}
	}
	return s
}

func bufferEntry(binding uint32, vis wgpu.ShaderStage, typ wgpu.BufferBindingType) wgpu.BindGroupLayoutEntry {
	e := wgpu.BindGroupLayoutEntry{Binding: binding, Visibility: vis}
	e.Buffer.Type = typ
	return e
}

func TestSplitSource(t *testing.T) {
	src := "\n#shader vertex\nvs line\n#shader fragment\nfs line\n#shader vertex\nmore vs\n"
	stages, err := SplitSource(src)
	require.NoError(t, err)
	assert.Equal(t, "vs line\nmore vs\n", stages[ShaderTypeVertex])
	assert.Equal(t, "fs line\n", stages[ShaderTypeFragment])
}

func TestSplitSourceErrors(t *testing.T) {
	_, err := SplitSource("fn stray() {}\n#shader vertex\n")
	assert.ErrorIs(t, err, ErrShaderNoStageMarker)

	_, err = SplitSource("#shader geometry\n")
	assert.ErrorIs(t, err, ErrShaderNoStageMarker)
}

func TestLink(t *testing.T) {
	t.Run("missing stage", func(t *testing.T) {
		_, err := Link("p", stage(ShaderTypeVertex, "vs_main"), nil)
		assert.ErrorIs(t, err, ErrShaderLinkFailed)
		_, err = Link("p", nil, stage(ShaderTypeFragment, "fs_main"))
		assert.ErrorIs(t, err, ErrShaderLinkFailed)
	})

	t.Run("missing entry point", func(t *testing.T) {
		_, err := Link("p", stage(ShaderTypeVertex, ""), stage(ShaderTypeFragment, "fs_main"))
		assert.ErrorIs(t, err, ErrShaderLinkFailed)
	})

	t.Run("swapped stages", func(t *testing.T) {
		_, err := Link("p", stage(ShaderTypeFragment, "fs_main"), stage(ShaderTypeVertex, "vs_main"))
		assert.ErrorIs(t, err, ErrShaderLinkFailed)
	})

	t.Run("conflicting binding", func(t *testing.T) {
		vs := stage(ShaderTypeVertex, "vs_main", bufferEntry(0, wgpu.ShaderStageVertex, wgpu.BufferBindingTypeUniform))
		fs := stage(ShaderTypeFragment, "fs_main", bufferEntry(0, wgpu.ShaderStageFragment, wgpu.BufferBindingTypeReadOnlyStorage))
		_, err := Link("p", vs, fs)
		assert.ErrorIs(t, err, ErrShaderLinkFailed)
	})

	t.Run("shared binding merges visibility", func(t *testing.T) {
		vs := stage(ShaderTypeVertex, "vs_main",
			bufferEntry(1, wgpu.ShaderStageVertex, wgpu.BufferBindingTypeReadOnlyStorage),
			bufferEntry(0, wgpu.ShaderStageVertex, wgpu.BufferBindingTypeUniform))
		fs := stage(ShaderTypeFragment, "fs_main", bufferEntry(0, wgpu.ShaderStageFragment, wgpu.BufferBindingTypeUniform))

		p, err := Link("p", vs, fs)
		require.NoError(t, err)
		entries := p.BindGroupLayoutDescriptors()[0].Entries
		require.Len(t, entries, 2)
		assert.Equal(t, uint32(0), entries[0].Binding)
		assert.Equal(t, wgpu.ShaderStageVertex|wgpu.ShaderStageFragment, entries[0].Visibility)
		assert.Equal(t, []int{0}, p.Groups())
	})
}

func TestProgramProvider(t *testing.T) {
	g, b := 1, 0
	vs := stage(ShaderTypeVertex, "vs_main")
	vs.declarations = []Annotation{
		{Type: AnnotationTypeBindingGroup, Args: []AnnotationArg{"storage_read", "particles", "array<particle>"}, Group: &g, Binding: &b},
		{Type: AnnotationTypeProvider, Args: []AnnotationArg{AnnotationArgParticles}, Group: &g, Binding: &b},
	}
	fs := stage(ShaderTypeFragment, "fs_main")
	fs.declarations = vs.declarations

	p, err := Link("p", vs, fs)
	require.NoError(t, err)
	assert.Len(t, p.Declarations(), 2)

	id, ok := p.Provider(1)
	assert.True(t, ok)
	assert.Equal(t, AnnotationArgParticles, id)
	_, ok = p.Provider(0)
	assert.False(t, ok)
}
