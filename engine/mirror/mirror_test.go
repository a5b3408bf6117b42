package mirror

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-particles/engine/particle"
	"github.com/Carmen-Shannon/oxy-particles/engine/profiler"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPool(t *testing.T, n, live int) particle.Pool {
	t.Helper()
	p := particle.NewPool(n)
	for i := range live {
		f := float32(i)
		_, err := p.Create(
			mgl32.Vec3{f, -f, f * 0.5},
			mgl32.Vec3{1, f, 0},
			mgl32.Vec3{0, -1, f},
			1+f, 0.5, mgl32.Vec4{f, 0, 1, 1},
		)
		require.NoError(t, err)
	}
	return p
}

func TestStateTransitions(t *testing.T) {
	m := NewMirror(NewHostDevice())
	assert.Equal(t, StateUnallocated, m.State())
	assert.ErrorIs(t, m.UploadAll(nil), ErrNotAllocated)
	assert.ErrorIs(t, m.Dispatch(0.01), ErrNotAllocated)
	assert.ErrorIs(t, m.DownloadAll(nil), ErrNotAllocated)

	m.MarkDirty()
	assert.Equal(t, StateUnallocated, m.State())

	require.NoError(t, m.Allocate(8))
	assert.Equal(t, StateAllocated, m.State())
	assert.Equal(t, 8, m.Capacity())

	require.NoError(t, m.UploadAll(newPool(t, 8, 2).Particles()))
	assert.Equal(t, StateConsistent, m.State())
	assert.Equal(t, 2, m.LiveCount())

	m.MarkDirty()
	assert.Equal(t, StateDirty, m.State())

	m.Release()
	assert.Equal(t, StateUnallocated, m.State())
	assert.Equal(t, 0, m.Capacity())
}

func TestAllocateZeroReservesOneSlot(t *testing.T) {
	dev := NewHostDevice()
	m := NewMirror(dev)
	require.NoError(t, m.Allocate(0))
	assert.Equal(t, 1, m.Capacity())
	assert.Len(t, dev.Bytes(), particle.GPUParticleSize)
}

func TestUploadDownloadRoundTrip(t *testing.T) {
	const maxCapacity = 70
	for _, n := range []int{0, 1, 63, 64, 65, maxCapacity} {
		pool := newPool(t, maxCapacity, n)
		want := append([]particle.Particle(nil), pool.Particles()...)
		wantBytes := particle.MarshalParticles(want)

		dev := NewHostDevice()
		m := NewMirror(dev)
		require.NoError(t, m.Allocate(maxCapacity))
		require.NoError(t, m.UploadAll(pool.Particles()))
		assert.Equal(t, wantBytes, dev.Bytes()[:len(wantBytes)], "n=%d", n)

		got := make([]particle.Particle, n)
		require.NoError(t, m.DownloadAll(got))
		assert.Equal(t, wantBytes, particle.MarshalParticles(got), "n=%d", n)
	}
}

func TestUploadRejectsOverCapacity(t *testing.T) {
	m := NewMirror(NewHostDevice())
	require.NoError(t, m.Allocate(2))
	err := m.UploadAll(newPool(t, 3, 3).Particles())
	assert.ErrorIs(t, err, ErrCapacityExceeded)
	assert.Equal(t, StateAllocated, m.State())
}

func TestDispatchDeterminism(t *testing.T) {
	pool := particle.NewPool(1)
	_, err := pool.Create(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, -1, 0}, 1, 1, mgl32.Vec4{1, 0, 0, 1})
	require.NoError(t, err)

	m := NewMirror(NewHostDevice())
	require.NoError(t, m.Allocate(1))
	require.NoError(t, m.UploadAll(pool.Particles()))
	require.NoError(t, m.Dispatch(1))
	require.NoError(t, m.DownloadAll(pool.Particles()))

	got := pool.Particles()[0]
	assert.Equal(t, mgl32.Vec3{1, 0, 0}, got.Position)
	assert.Equal(t, mgl32.Vec3{1, -1, 0}, got.Velocity)
	assert.Equal(t, mgl32.Vec3{0, -1, 0}, got.Acceleration)
	assert.Equal(t, uint32(0), got.ID)
}

func TestDispatchAdvancesEveryWorkgroup(t *testing.T) {
	const n = 200
	pool := newPool(t, n, n)
	m := NewMirror(NewHostDevice(WithHostWorkers(3), WithHostWorkgroupSize(16)))
	require.NoError(t, m.Allocate(n))
	require.NoError(t, m.UploadAll(pool.Particles()))
	require.NoError(t, m.Dispatch(0.5))
	require.NoError(t, m.DownloadAll(pool.Particles()))

	for i, p := range pool.Particles() {
		f := float32(i)
		assert.Equal(t, f+0.5, p.Position.X(), "particle %d", i)
		assert.Equal(t, mgl32.Vec3{1, f - 0.5, f * 0.5}, p.Velocity, "particle %d", i)
	}
}

func TestDispatchLeavesSlotsPastCountAlone(t *testing.T) {
	dev := NewHostDevice()
	m := NewMirror(dev)
	require.NoError(t, m.Allocate(4))
	require.NoError(t, m.UploadAll(newPool(t, 4, 4).Particles()))
	before := dev.Bytes()

	pool := newPool(t, 4, 2)
	m.MarkDirty()
	require.NoError(t, m.UploadAll(pool.Particles()))
	require.NoError(t, m.Dispatch(1))

	after := dev.Bytes()
	assert.Equal(t, before[2*particle.GPUParticleSize:], after[2*particle.GPUParticleSize:])
}

func TestDirtyMirrorRefusesDispatchAndDownload(t *testing.T) {
	dev := NewHostDevice()
	m := NewMirror(dev)
	pool := newPool(t, 4, 2)
	require.NoError(t, m.Allocate(4))
	require.NoError(t, m.UploadAll(pool.Particles()))
	before := dev.Bytes()

	m.MarkDirty()
	assert.ErrorIs(t, m.Dispatch(1), ErrMirrorDirty)
	assert.ErrorIs(t, m.DownloadAll(pool.Particles()), ErrMirrorDirty)
	assert.Equal(t, before, dev.Bytes())
}

func TestDispatchWithNoLiveParticlesIsNoop(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := profiler.NewMetrics(reg)
	require.NoError(t, err)

	m := NewMirror(NewHostDevice(), WithMetrics(metrics))
	require.NoError(t, m.Allocate(4))
	require.NoError(t, m.UploadAll(nil))
	require.NoError(t, m.Dispatch(1))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.Dispatches))
	assert.Equal(t, float64(StateConsistent), testutil.ToFloat64(metrics.MirrorState))
}

func TestDownloadLengthMismatch(t *testing.T) {
	m := NewMirror(NewHostDevice())
	require.NoError(t, m.Allocate(4))
	require.NoError(t, m.UploadAll(newPool(t, 4, 3).Particles()))
	assert.ErrorIs(t, m.DownloadAll(make([]particle.Particle, 2)), ErrLiveCountMismatch)
}

func TestDownloadMapFailureLeavesHostUnchanged(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := profiler.NewMetrics(reg)
	require.NoError(t, err)

	dev := NewHostDevice()
	m := NewMirror(dev, WithMetrics(metrics))
	pool := newPool(t, 4, 3)
	require.NoError(t, m.Allocate(4))
	require.NoError(t, m.UploadAll(pool.Particles()))
	require.NoError(t, m.Dispatch(1))

	want := append([]particle.Particle(nil), pool.Particles()...)
	cause := errors.New("device lost")
	dev.FailReads(cause)

	err = m.DownloadAll(pool.Particles())
	assert.ErrorIs(t, err, ErrBufferMapFailed)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, want, pool.Particles())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.DownloadFailures))

	dev.FailReads(nil)
	require.NoError(t, m.DownloadAll(pool.Particles()))
	assert.NotEqual(t, want, pool.Particles())
}

func TestReallocateInvalidatesContents(t *testing.T) {
	m := NewMirror(NewHostDevice())
	require.NoError(t, m.Allocate(2))
	require.NoError(t, m.UploadAll(newPool(t, 2, 2).Particles()))

	require.NoError(t, m.Allocate(8))
	assert.Equal(t, StateAllocated, m.State())
	assert.Equal(t, 0, m.LiveCount())
	assert.Equal(t, 8, m.Capacity())
}

func TestReleaseThenAllocateAgain(t *testing.T) {
	m := NewMirror(NewHostDevice())
	require.NoError(t, m.Allocate(2))
	m.Release()
	m.Release()
	require.NoError(t, m.Allocate(2))
	require.NoError(t, m.UploadAll(newPool(t, 2, 1).Particles()))
	require.NoError(t, m.Dispatch(0.01))
}
