package mirror

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-particles/engine/particle"
)

// workerQueueSize bounds the tasks queued on an owned worker pool.
const workerQueueSize = 256

// Byte offsets of the kinetic fields inside one particle record.
const (
	offsetPosition     = 0
	offsetVelocity     = 16
	offsetAcceleration = 32
)

// HostDevice is a Device that keeps the particle buffer in host memory and runs the
// kinetic kernel on a worker pool, one task per workgroup. It produces the same
// results as the GPU kernels and backs headless runs and tests.
type HostDevice struct {
	mu sync.Mutex

	buf           []byte
	workers       int
	workgroupSize uint32
	pool          worker.DynamicWorkerPool
	ownsPool      bool
	readErr       error
}

var (
	_ Device    = &HostDevice{}
	_ Destroyer = &HostDevice{}
)

// HostDeviceBuilderOption configures a HostDevice.
type HostDeviceBuilderOption func(*HostDevice)

// WithHostWorkers sets the number of workers the kernel fans out to.
//
// Parameters:
//   - n: the worker count, at least 1
//
// Returns:
//   - HostDeviceBuilderOption: a function that sets the worker count
func WithHostWorkers(n int) HostDeviceBuilderOption {
	return func(d *HostDevice) {
		if n > 0 {
			d.workers = n
		}
	}
}

// WithHostWorkgroupSize sets the number of records each task advances.
//
// Parameters:
//   - size: the workgroup size, at least 1
//
// Returns:
//   - HostDeviceBuilderOption: a function that sets the workgroup size
func WithHostWorkgroupSize(size uint32) HostDeviceBuilderOption {
	return func(d *HostDevice) {
		if size > 0 {
			d.workgroupSize = size
		}
	}
}

// WithHostWorkerPool runs the kernel on a shared worker pool instead of one started
// by the device. The device never stops a shared pool, and WithHostWorkers has no
// effect on it.
//
// Parameters:
//   - pool: the shared worker pool
//
// Returns:
//   - HostDeviceBuilderOption: a function that sets the worker pool
func WithHostWorkerPool(pool worker.DynamicWorkerPool) HostDeviceBuilderOption {
	return func(d *HostDevice) {
		if pool != nil {
			d.pool = pool
			d.ownsPool = false
		}
	}
}

// NewHostDevice creates a HostDevice with 4 workers and a workgroup size of 64.
//
// Parameters:
//   - options: optional builder options
//
// Returns:
//   - *HostDevice: the new device
func NewHostDevice(options ...HostDeviceBuilderOption) *HostDevice {
	d := &HostDevice{
		workers:       4,
		workgroupSize: 64,
	}
	for _, option := range options {
		option(d)
	}
	return d
}

// FailReads makes every subsequent Read fail with an error wrapping ErrBufferMapFailed and err.
// Passing nil restores normal reads.
//
// Parameters:
//   - err: the underlying failure, or nil
func (d *HostDevice) FailReads(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.readErr = err
}

// Bytes returns a copy of the whole buffer.
//
// Returns:
//   - []byte: the buffer contents, nil when unallocated
func (d *HostDevice) Bytes() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.buf == nil {
		return nil
	}
	out := make([]byte, len(d.buf))
	copy(out, d.buf)
	return out
}

func (d *HostDevice) Allocate(size uint64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.buf = make([]byte, size)
	return nil
}

func (d *HostDevice) Write(data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.buf == nil {
		return ErrNotAllocated
	}
	if len(data) > len(d.buf) {
		return fmt.Errorf("write of %d bytes exceeds buffer of %d", len(data), len(d.buf))
	}
	copy(d.buf, data)
	return nil
}

func (d *HostDevice) Dispatch(workgroups uint32, params particle.GPUSimParams) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.buf == nil {
		return ErrNotAllocated
	}

	d.ensurePool()

	records := uint32(len(d.buf) / particle.GPUParticleSize)
	count := min(params.Count, records)
	dt := params.DeltaTime
	buf := d.buf

	var wg sync.WaitGroup
	for g := range workgroups {
		first := g * d.workgroupSize
		if first >= count {
			break
		}
		last := min(first+d.workgroupSize, count)

		wg.Add(1)
		d.pool.SubmitTask(worker.Task{
			ID: int(g),
			Do: func() (any, error) {
				defer wg.Done()
				for i := first; i < last; i++ {
					advance(buf[int(i)*particle.GPUParticleSize:], dt)
				}
				return nil, nil
			},
		})
	}
	wg.Wait()
	return nil
}

func (d *HostDevice) Read(size uint64) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.readErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrBufferMapFailed, d.readErr)
	}
	if d.buf == nil {
		return nil, fmt.Errorf("%w: %w", ErrBufferMapFailed, ErrNotAllocated)
	}
	if size > uint64(len(d.buf)) {
		return nil, fmt.Errorf("%w: read of %d bytes exceeds buffer of %d", ErrBufferMapFailed, size, len(d.buf))
	}
	out := make([]byte, size)
	copy(out, d.buf)
	return out, nil
}

func (d *HostDevice) WorkgroupSize() uint32 {
	return d.workgroupSize
}

// Release frees the buffer and keeps the worker pool for the next allocation.
func (d *HostDevice) Release() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.buf = nil
}

// Destroy releases the buffer and stops the worker pool if the device started it.
// A pool passed in with WithHostWorkerPool is left running for its owner.
func (d *HostDevice) Destroy() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.buf = nil
	if d.pool != nil && d.ownsPool {
		d.pool.Stop()
	}
	d.pool = nil
	d.ownsPool = false
}

// ensurePool starts the device's own worker pool on first use. The pool lives until Destroy.
func (d *HostDevice) ensurePool() {
	if d.pool != nil {
		return
	}
	d.pool = worker.NewDynamicWorkerPool(d.workers, workerQueueSize, 1*time.Second)
	d.ownsPool = true
}

// advance applies one explicit Euler step to the record at the start of rec:
// position += velocity*dt, then velocity += acceleration*dt.
func advance(rec []byte, dt float32) {
	for c := range 3 {
		p := offsetPosition + c*4
		v := offsetVelocity + c*4
		a := offsetAcceleration + c*4
		vel := readF32(rec[v:])
		writeF32(rec[p:], readF32(rec[p:])+vel*dt)
		writeF32(rec[v:], vel+readF32(rec[a:])*dt)
	}
}

func readF32(b []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}

func writeF32(b []byte, f float32) {
	binary.LittleEndian.PutUint32(b, math.Float32bits(f))
}
