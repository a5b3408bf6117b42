package mirror

import (
	"runtime"
	"testing"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-particles/engine/particle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cycleHostDevice(t *testing.T, d *HostDevice) {
	t.Helper()
	require.NoError(t, d.Allocate(8*particle.GPUParticleSize))
	require.NoError(t, d.Dispatch(2, particle.GPUSimParams{DeltaTime: 0.01, Count: 8}))
	d.Release()
}

func TestHostDeviceReallocationKeepsGoroutinesFlat(t *testing.T) {
	d := NewHostDevice(WithHostWorkers(2), WithHostWorkgroupSize(4))
	t.Cleanup(d.Destroy)
	cycleHostDevice(t, d)
	base := runtime.NumGoroutine()

	for range 50 {
		cycleHostDevice(t, d)
	}
	assert.LessOrEqual(t, runtime.NumGoroutine(), base)
}

func TestHostDevicesShareOneWorkerPool(t *testing.T) {
	pool := worker.NewDynamicWorkerPool(2, 256, 1*time.Second)
	t.Cleanup(pool.Stop)
	base := runtime.NumGoroutine()

	for range 50 {
		d := NewHostDevice(WithHostWorkerPool(pool), WithHostWorkgroupSize(4))
		cycleHostDevice(t, d)
		d.Destroy()
	}
	assert.LessOrEqual(t, runtime.NumGoroutine(), base)
}

func TestHostDeviceDispatchAfterRelease(t *testing.T) {
	d := NewHostDevice(WithHostWorkgroupSize(4))
	t.Cleanup(d.Destroy)
	cycleHostDevice(t, d)

	assert.ErrorIs(t, d.Dispatch(1, particle.GPUSimParams{Count: 1}), ErrNotAllocated)
	cycleHostDevice(t, d)
}
