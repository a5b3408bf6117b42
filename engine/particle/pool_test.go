package particle

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var (
	one   = mgl32.Vec3{1, 1, 0}
	red   = mgl32.Vec4{1, 0, 0, 1}
	empty = mgl32.Vec3{}
)

func create(t *testing.T, p Pool) uint32 {
	t.Helper()
	id, err := p.Create(one, one, one, 1, 1, red)
	require.NoError(t, err)
	return id
}

// assertPartition checks that free and active ids partition [0, max) and that the
// live slice and id table agree.
func assertPartition(t *testing.T, p Pool) {
	t.Helper()
	active := p.ActiveIDs()
	free := p.FreeIDs()
	require.Len(t, p.Particles(), len(active))
	assert.Equal(t, p.Count(), len(active))

	seen := make(map[uint32]bool, p.MaxCapacity())
	for i, id := range active {
		assert.False(t, seen[id], "id %d listed twice", id)
		seen[id] = true
		assert.Equal(t, id, p.Particles()[i].ID)
	}
	for _, id := range free {
		assert.False(t, seen[id], "id %d both free and active", id)
		seen[id] = true
	}
	assert.Len(t, seen, p.MaxCapacity())
	for id := range seen {
		assert.Less(t, int(id), p.MaxCapacity())
	}
}

func TestNewPoolHandsOutAscendingIDs(t *testing.T) {
	p := NewPool(4)
	for want := uint32(0); want < 4; want++ {
		assert.Equal(t, want, create(t, p))
	}
	assertPartition(t, p)
}

func TestCreateStoresFields(t *testing.T) {
	p := NewPool(2)
	id, err := p.Create(mgl32.Vec3{1, 2, 3}, mgl32.Vec3{4, 5, 6}, mgl32.Vec3{7, 8, 9}, 2.5, 0.5, mgl32.Vec4{0, 1, 0, 1})
	require.NoError(t, err)

	got, ok := p.Particle(id)
	require.True(t, ok)
	assert.Equal(t, Particle{
		ID:           id,
		Position:     mgl32.Vec3{1, 2, 3},
		Velocity:     mgl32.Vec3{4, 5, 6},
		Acceleration: mgl32.Vec3{7, 8, 9},
		Mass:         2.5,
		Radius:       0.5,
		Color:        mgl32.Vec4{0, 1, 0, 1},
	}, got)
}

func TestExhaustionBoundary(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	p := NewPool(3, WithLogger(zap.New(core)))

	for range 3 {
		create(t, p)
	}
	_, err := p.Create(empty, empty, empty, 1, 1, red)
	assert.ErrorIs(t, err, ErrPoolExhausted)
	assert.Equal(t, 3, p.Count())
	assert.Equal(t, 1, logs.FilterMessage("particle pool exhausted").Len())

	require.NoError(t, p.Destroy(1))
	assert.Equal(t, uint32(1), create(t, p))

	_, err = p.Create(empty, empty, empty, 1, 1, red)
	assert.ErrorIs(t, err, ErrPoolExhausted)
}

func TestFreeListIsLIFO(t *testing.T) {
	p := NewPool(8)
	for range 5 {
		create(t, p)
	}
	require.NoError(t, p.Destroy(1))
	require.NoError(t, p.Destroy(3))

	assert.Equal(t, uint32(3), create(t, p))
	assert.Equal(t, uint32(1), create(t, p))
	assert.Equal(t, uint32(5), create(t, p))
}

func TestDestroyUnknownIDLeavesStateUnchanged(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	p := NewPool(4, WithLogger(zap.New(core)))
	create(t, p)
	create(t, p)
	before := p.ActiveIDs()
	beforeFree := p.FreeIDs()

	err := p.Destroy(7)
	assert.ErrorIs(t, err, ErrDestroyUnknownID)
	assert.Equal(t, before, p.ActiveIDs())
	assert.Equal(t, beforeFree, p.FreeIDs())
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, uint32(7), logs.All()[0].ContextMap()["id"])

	require.NoError(t, p.Destroy(0))
	assert.ErrorIs(t, p.Destroy(0), ErrDestroyUnknownID)
}

func TestDestroySwapRemoveKeepsLookupConsistent(t *testing.T) {
	p := NewPool(4)
	for range 4 {
		create(t, p)
	}
	require.NoError(t, p.Destroy(0))

	assert.Equal(t, []uint32{3, 1, 2}, p.ActiveIDs())
	for _, id := range p.ActiveIDs() {
		got, ok := p.Particle(id)
		require.True(t, ok)
		assert.Equal(t, id, got.ID)
	}
	_, ok := p.Particle(0)
	assert.False(t, ok)
	assertPartition(t, p)
}

func TestRandomSequencePreservesPartition(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	p := NewPool(16)
	for range 500 {
		if rng.Intn(3) > 0 {
			_, err := p.Create(empty, empty, empty, 1, 1, red)
			if err != nil {
				require.ErrorIs(t, err, ErrPoolExhausted)
			}
		} else if ids := p.ActiveIDs(); len(ids) > 0 {
			require.NoError(t, p.Destroy(ids[rng.Intn(len(ids))]))
		}
		assertPartition(t, p)
	}
}

func TestResize(t *testing.T) {
	t.Run("below live count is rejected", func(t *testing.T) {
		p := NewPool(4)
		for range 3 {
			create(t, p)
		}
		err := p.Resize(2)
		assert.ErrorIs(t, err, ErrPoolResizeBelowLiveCount)
		assert.Equal(t, 4, p.MaxCapacity())
		assert.Equal(t, []uint32{3}, p.FreeIDs())
	})

	t.Run("shrink that would orphan a live id is rejected", func(t *testing.T) {
		p := NewPool(4)
		for range 4 {
			create(t, p)
		}
		require.NoError(t, p.Destroy(0))
		require.NoError(t, p.Destroy(1))

		err := p.Resize(2)
		assert.ErrorIs(t, err, ErrPoolResizeOrphansLiveID)
		assert.Equal(t, 4, p.MaxCapacity())
		assertPartition(t, p)
	})

	t.Run("shrink drops high free ids", func(t *testing.T) {
		p := NewPool(8)
		create(t, p)
		create(t, p)
		require.NoError(t, p.Resize(4))
		assert.Equal(t, 4, p.MaxCapacity())
		assert.Equal(t, []uint32{3, 2}, p.FreeIDs())
		assertPartition(t, p)
	})

	t.Run("grow keeps released ids on top", func(t *testing.T) {
		p := NewPool(2)
		create(t, p)
		create(t, p)
		require.NoError(t, p.Destroy(0))

		require.NoError(t, p.Resize(4))
		assertPartition(t, p)
		assert.Equal(t, uint32(0), create(t, p))
		assert.Equal(t, uint32(2), create(t, p))
		assert.Equal(t, uint32(3), create(t, p))
	})
}

func TestChangeCallback(t *testing.T) {
	var events []PoolEvent
	p := NewPool(1, WithChangeCallback(func(e PoolEvent) { events = append(events, e) }))

	create(t, p)
	_, _ = p.Create(empty, empty, empty, 1, 1, red)
	_ = p.Destroy(9)
	require.NoError(t, p.Destroy(0))
	require.NoError(t, p.Resize(3))
	_ = p.Resize(-1)

	assert.Equal(t, []PoolEvent{PoolEventCreate, PoolEventDestroy, PoolEventResize}, events)
}

func TestParticlesIsLiveBackingSlice(t *testing.T) {
	p := NewPool(2)
	id := create(t, p)
	p.Particles()[0].Position = mgl32.Vec3{9, 9, 9}

	got, _ := p.Particle(id)
	assert.Equal(t, mgl32.Vec3{9, 9, 9}, got.Position)
}

func TestAccessorsReturnCopies(t *testing.T) {
	p := NewPool(3)
	create(t, p)
	ids := p.ActiveIDs()
	ids[0] = 99
	free := p.FreeIDs()
	free[0] = 99

	assert.Equal(t, []uint32{0}, p.ActiveIDs())
	assert.Equal(t, []uint32{2, 1}, p.FreeIDs())
}

func TestWriteIDs(t *testing.T) {
	p := NewPool(4)
	create(t, p)
	create(t, p)

	var buf bytes.Buffer
	require.NoError(t, p.WriteIDs(&buf))
	out := buf.String()
	assert.Contains(t, out, "slot")
	assert.Contains(t, out, "size")
	assert.Contains(t, out, "2")
}
