package mirror

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-particles/common"
	"github.com/Carmen-Shannon/oxy-particles/engine/particle"
	"github.com/Carmen-Shannon/oxy-particles/engine/profiler"
	"go.uber.org/zap"
)

// State is the synchronization state of a Mirror relative to its host pool.
type State int

const (
	// StateUnallocated means no device buffer exists.
	StateUnallocated State = iota
	// StateAllocated means a buffer exists but holds no uploaded data.
	StateAllocated
	// StateConsistent means the buffer holds exactly the host's live particles.
	StateConsistent
	// StateDirty means the host changed after the last upload.
	StateDirty
)

// String returns the lowercase name of the state.
func (s State) String() string {
	switch s {
	case StateUnallocated:
		return "unallocated"
	case StateAllocated:
		return "allocated"
	case StateConsistent:
		return "consistent"
	case StateDirty:
		return "dirty"
	default:
		return "unknown"
	}
}

type mirrorImpl struct {
	device Device

	state     State
	capacity  int
	liveCount int
	scratch   []particle.Particle

	logger  *zap.Logger
	metrics *profiler.Metrics
}

// Mirror defines the interface for the device-side copy of a particle pool.
// The only way to bring the device copy up to date is a full UploadAll; any host mutation
// must be followed by MarkDirty, and a dirty mirror refuses to dispatch or download.
type Mirror interface {
	// Allocate releases any previous buffer and reserves capacitySlots particle records.
	// A capacity of zero still reserves one slot.
	//
	// Parameters:
	//   - capacitySlots: the number of particle records to reserve
	//
	// Returns:
	//   - error: an error if the device could not allocate
	Allocate(capacitySlots int) error

	// UploadAll writes every live particle into slots [0, len(live)) in one bulk write.
	//
	// Parameters:
	//   - live: the host's live particles
	//
	// Returns:
	//   - error: ErrNotAllocated, ErrCapacityExceeded or a device error
	UploadAll(live []particle.Particle) error

	// Dispatch advances the uploaded particles by dt on the device.
	// Nothing is dispatched when no particles are live.
	//
	// Parameters:
	//   - dt: the time step in seconds
	//
	// Returns:
	//   - error: ErrNotAllocated, ErrMirrorDirty or a device error
	Dispatch(dt float32) error

	// DownloadAll reads the device copy back into live. On any error live is left untouched.
	//
	// Parameters:
	//   - live: the host's live particles, same length as the last upload
	//
	// Returns:
	//   - error: ErrNotAllocated, ErrMirrorDirty, ErrLiveCountMismatch or an error wrapping ErrBufferMapFailed
	DownloadAll(live []particle.Particle) error

	// MarkDirty records that the host changed since the last upload.
	MarkDirty()

	// State returns the current synchronization state.
	//
	// Returns:
	//   - State: the state
	State() State

	// Capacity returns the number of particle slots in the device buffer.
	//
	// Returns:
	//   - int: the slot count, 0 when unallocated
	Capacity() int

	// LiveCount returns the number of records written by the last upload.
	//
	// Returns:
	//   - int: the uploaded count
	LiveCount() int

	// Release frees the device buffer and returns the mirror to StateUnallocated.
	Release()
}

var _ Mirror = &mirrorImpl{}

// NewMirror creates a new unallocated Mirror over the given device.
//
// Parameters:
//   - device: the compute device that owns the buffer
//   - options: optional builder options
//
// Returns:
//   - Mirror: the new mirror
func NewMirror(device Device, options ...MirrorBuilderOption) Mirror {
	m := &mirrorImpl{
		device: device,
		logger: zap.NewNop(),
	}
	for _, option := range options {
		option(m)
	}
	m.metrics.SetMirrorState(int(m.state))
	return m
}

func (m *mirrorImpl) Allocate(capacitySlots int) error {
	slots := max(capacitySlots, 1)
	m.setState(StateUnallocated)
	m.capacity = 0
	m.liveCount = 0

	if err := m.device.Allocate(uint64(slots) * particle.GPUParticleSize); err != nil {
		m.logger.Error("mirror allocation failed", zap.Int("slots", slots), zap.Error(err))
		return fmt.Errorf("failed to allocate %d particle slots: %w", slots, err)
	}
	m.capacity = slots
	m.setState(StateAllocated)
	m.logger.Debug("mirror allocated", zap.Int("slots", slots))
	return nil
}

func (m *mirrorImpl) UploadAll(live []particle.Particle) error {
	if m.state == StateUnallocated {
		return ErrNotAllocated
	}
	if len(live) > m.capacity {
		return fmt.Errorf("%w: %d particles, %d slots", ErrCapacityExceeded, len(live), m.capacity)
	}

	data := particle.MarshalParticles(live)
	if len(data) > 0 {
		if err := m.device.Write(data); err != nil {
			m.logger.Error("mirror upload failed", zap.Int("count", len(live)), zap.Error(err))
			return fmt.Errorf("failed to upload %d particles: %w", len(live), err)
		}
	}
	m.liveCount = len(live)
	m.setState(StateConsistent)
	m.metrics.ObserveUpload(len(data))
	return nil
}

func (m *mirrorImpl) Dispatch(dt float32) error {
	switch m.state {
	case StateUnallocated:
		return ErrNotAllocated
	case StateDirty:
		return ErrMirrorDirty
	}
	if m.liveCount == 0 {
		return nil
	}

	groups := common.WorkgroupCount(uint32(m.liveCount), m.device.WorkgroupSize())
	params := particle.GPUSimParams{DeltaTime: dt, Count: uint32(m.liveCount)}
	if err := m.device.Dispatch(groups, params); err != nil {
		m.logger.Error("mirror dispatch failed", zap.Uint32("workgroups", groups), zap.Error(err))
		return fmt.Errorf("failed to dispatch %d workgroups: %w", groups, err)
	}
	m.metrics.ObserveDispatch()
	return nil
}

func (m *mirrorImpl) DownloadAll(live []particle.Particle) error {
	switch m.state {
	case StateUnallocated:
		return ErrNotAllocated
	case StateDirty:
		return ErrMirrorDirty
	}
	if len(live) != m.liveCount {
		return fmt.Errorf("%w: host has %d, mirror has %d", ErrLiveCountMismatch, len(live), m.liveCount)
	}
	if m.liveCount == 0 {
		return nil
	}

	data, err := m.device.Read(uint64(m.liveCount) * particle.GPUParticleSize)
	if err != nil {
		m.metrics.ObserveDownloadFailure()
		m.logger.Warn("mirror download failed", zap.Int("count", m.liveCount), zap.Error(err))
		if errors.Is(err, ErrBufferMapFailed) {
			return err
		}
		return fmt.Errorf("%w: %w", ErrBufferMapFailed, err)
	}

	if cap(m.scratch) < m.liveCount {
		m.scratch = make([]particle.Particle, m.liveCount)
	}
	m.scratch = m.scratch[:m.liveCount]
	var g particle.GPUParticle
	for i := range m.scratch {
		if err := g.Unmarshal(data[i*particle.GPUParticleSize:]); err != nil {
			m.metrics.ObserveDownloadFailure()
			return fmt.Errorf("%w: %w", ErrBufferMapFailed, err)
		}
		m.scratch[i] = particle.FromGPU(g)
	}
	copy(live, m.scratch)
	return nil
}

func (m *mirrorImpl) MarkDirty() {
	if m.state == StateAllocated || m.state == StateConsistent {
		m.setState(StateDirty)
	}
}

func (m *mirrorImpl) State() State {
	return m.state
}

func (m *mirrorImpl) Capacity() int {
	return m.capacity
}

func (m *mirrorImpl) LiveCount() int {
	return m.liveCount
}

func (m *mirrorImpl) Release() {
	if m.state == StateUnallocated {
		return
	}
	m.device.Release()
	m.capacity = 0
	m.liveCount = 0
	m.scratch = nil
	m.setState(StateUnallocated)
}

func (m *mirrorImpl) setState(s State) {
	m.state = s
	m.metrics.SetMirrorState(int(s))
}
