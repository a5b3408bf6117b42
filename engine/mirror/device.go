package mirror

import "github.com/Carmen-Shannon/oxy-particles/engine/particle"

// Device is a compute device owning one particle storage buffer and the kinetic kernel
// that advances it. Every call completes before returning; any barrier the device needs
// between a dispatch and a following read is issued inside Dispatch or Read.
type Device interface {
	// Allocate replaces the device buffer with a new one of the given size.
	// Contents of the new buffer are undefined.
	//
	// Parameters:
	//   - size: the buffer size in bytes
	//
	// Returns:
	//   - error: an error if the buffer could not be created
	Allocate(size uint64) error

	// Write copies data into the start of the buffer.
	//
	// Parameters:
	//   - data: the bytes to write, at most the allocated size
	//
	// Returns:
	//   - error: an error if no buffer exists or data does not fit
	Write(data []byte) error

	// Dispatch runs the kinetic kernel over the buffer.
	//
	// Parameters:
	//   - workgroups: the number of workgroups to launch
	//   - params: the per-dispatch parameters
	//
	// Returns:
	//   - error: an error if the dispatch could not be issued
	Dispatch(workgroups uint32, params particle.GPUSimParams) error

	// Read copies the first size bytes of the buffer back to the host.
	//
	// Parameters:
	//   - size: the number of bytes to read
	//
	// Returns:
	//   - []byte: the buffer contents
	//   - error: an error wrapping ErrBufferMapFailed if the buffer could not be mapped
	Read(size uint64) ([]byte, error)

	// WorkgroupSize returns the number of invocations per workgroup of the kinetic kernel.
	//
	// Returns:
	//   - uint32: the workgroup size
	WorkgroupSize() uint32

	// Release frees the buffer. The device may be allocated again afterwards.
	Release()
}

// Destroyer is implemented by devices that hold resources beyond the buffer, such as a
// compiled program or a worker pool. Destroy is final; the device is not used afterwards.
type Destroyer interface {
	Destroy()
}
