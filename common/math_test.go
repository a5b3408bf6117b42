package common

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkgroupCount(t *testing.T) {
	tests := []struct {
		count, size, want uint32
	}{
		{0, 64, 0},
		{1, 64, 1},
		{63, 64, 1},
		{64, 64, 1},
		{65, 64, 2},
		{1000, 64, 16},
		{5, 0, 5},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, WorkgroupCount(tt.count, tt.size), "count=%d size=%d", tt.count, tt.size)
	}
}

func TestCircleVertices(t *testing.T) {
	verts := CircleVertices(480, 270, 50, 32)
	require.Len(t, verts, 32*3*2)

	for i := 0; i < len(verts); i += 6 {
		assert.Equal(t, float32(480), verts[i])
		assert.Equal(t, float32(270), verts[i+1])
		for _, j := range []int{i + 2, i + 4} {
			dx, dy := verts[j]-480, verts[j+1]-270
			assert.InDelta(t, 50, math32.Sqrt(dx*dx+dy*dy), 1e-3)
		}
	}
}

func TestCircleVerticesClampsSegments(t *testing.T) {
	assert.Len(t, CircleVertices(0, 0, 1, 1), 3*3*2)
}

func TestSliceToBytes(t *testing.T) {
	assert.Nil(t, SliceToBytes([]float32{}))
	assert.Len(t, SliceToBytes([]float32{1, 2, 3}), 12)
}
