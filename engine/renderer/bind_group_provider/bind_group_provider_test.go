package bind_group_provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewBindGroupProvider(t *testing.T) {
	p := NewBindGroupProvider("particles", WithVertexCount(6), WithInstanceCount(0))
	assert.Equal(t, "particles", p.Label())
	assert.Equal(t, 6, p.VertexCount())
	assert.Equal(t, 1, p.InstanceCount())
	assert.Nil(t, p.Buffer(0))
	assert.Zero(t, p.BufferSize(0))

	p.SetInstanceCount(42)
	assert.Equal(t, 42, p.InstanceCount())
}

func TestSetBufferRecordsSize(t *testing.T) {
	p := NewBindGroupProvider("mirror")
	p.SetBuffer(1, nil, 640)
	assert.Equal(t, uint64(640), p.BufferSize(1))
	assert.Contains(t, p.Buffers(), 1)

	p.Release()
	assert.Empty(t, p.Buffers())
	assert.Zero(t, p.BufferSize(1))
}
