package common

import (
	"unsafe"

	"github.com/chewxy/math32"
)

// SliceToBytes converts any slice to a byte slice for GPU buffer uploads.
// Uses unsafe pointer operations to create a view into the original data.
// WARNING: The returned slice shares memory with the input - do not modify.
//
// Parameters:
//   - data: source slice of any type
//
// Returns:
//   - []byte: byte slice view of the input data, or nil if input is empty
func SliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	size := unsafe.Sizeof(zero)
	totalBytes := int(size) * len(data)
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), totalBytes)
}

// WorkgroupCount returns the number of workgroups needed to cover count invocations
// with the given workgroup size, i.e. ceil(count / size).
// A size of zero is treated as one.
//
// Parameters:
//   - count: the number of invocations to cover
//   - size: the number of invocations per workgroup
//
// Returns:
//   - uint32: the number of workgroups to dispatch
func WorkgroupCount(count, size uint32) uint32 {
	if size == 0 {
		size = 1
	}
	return (count + size - 1) / size
}

// CircleVertices builds a filled circle as a triangle list in the XY plane.
// Each segment contributes one triangle (center, edge i, edge i+1), so the result
// holds segments*3 vertices of two floats each.
//
// Parameters:
//   - cx, cy: the circle center
//   - radius: the circle radius
//   - segments: the number of triangles around the circumference (minimum 3)
//
// Returns:
//   - []float32: interleaved x, y positions
func CircleVertices(cx, cy, radius float32, segments int) []float32 {
	if segments < 3 {
		segments = 3
	}
	out := make([]float32, 0, segments*3*2)
	step := 2 * math32.Pi / float32(segments)
	for i := range segments {
		s0, c0 := math32.Sincos(step * float32(i))
		s1, c1 := math32.Sincos(step * float32(i+1))
		out = append(out,
			cx, cy,
			cx+radius*c0, cy+radius*s0,
			cx+radius*c1, cy+radius*s1,
		)
	}
	return out
}
