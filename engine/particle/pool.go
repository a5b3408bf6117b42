package particle

import (
	"fmt"
	"io"
	"strconv"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/olekukonko/tablewriter"
	"go.uber.org/zap"
)

// PoolEvent identifies the kind of mutation reported to a pool's change callback.
type PoolEvent int

const (
	PoolEventCreate PoolEvent = iota
	PoolEventDestroy
	PoolEventResize
)

// String returns the lowercase name of the event.
func (e PoolEvent) String() string {
	switch e {
	case PoolEventCreate:
		return "create"
	case PoolEventDestroy:
		return "destroy"
	case PoolEventResize:
		return "resize"
	default:
		return "unknown"
	}
}

type poolImpl struct {
	maxCapacity int

	live      []Particle
	activeIDs []uint32
	slots     map[uint32]int
	free      []uint32 // LIFO, top is the last element

	logger   *zap.Logger
	onChange func(PoolEvent)
}

// Pool defines the interface for a fixed-capacity particle pool with reusable ids.
// Live particles are kept in one contiguous slice in the same order as ActiveIDs,
// and released ids are handed out again most-recent-first.
// A Pool is not safe for concurrent use; callers own it from a single goroutine.
type Pool interface {
	// Create takes the most recently released id (or the next fresh one), appends a
	// particle carrying it and returns the id.
	//
	// Parameters:
	//   - pos, vel, acc: initial position, velocity and acceleration
	//   - mass: particle mass
	//   - radius: particle radius
	//   - color: RGBA color
	//
	// Returns:
	//   - uint32: the id assigned to the new particle
	//   - error: ErrPoolExhausted if every id is live
	Create(pos, vel, acc mgl32.Vec3, mass, radius float32, color mgl32.Vec4) (uint32, error)

	// Destroy removes the live particle with the given id and returns the id to the free-list.
	// The order of the remaining particles is not preserved.
	//
	// Parameters:
	//   - id: the id to release
	//
	// Returns:
	//   - error: an error wrapping ErrDestroyUnknownID if id is not live; the pool is unchanged
	Destroy(id uint32) error

	// Count returns the number of live particles.
	//
	// Returns:
	//   - int: the live count
	Count() int

	// MaxCapacity returns the number of ids the pool manages.
	//
	// Returns:
	//   - int: the max capacity
	MaxCapacity() int

	// Resize changes the max capacity. Growing adds the new ids beneath the existing
	// free-list so released ids are still reused first. Shrinking drops free ids at or
	// above newMax and never renumbers live particles.
	//
	// Parameters:
	//   - newMax: the new max capacity
	//
	// Returns:
	//   - error: ErrPoolResizeBelowLiveCount or ErrPoolResizeOrphansLiveID; the pool is unchanged on error
	Resize(newMax int) error

	// Particles returns the live backing slice. Writes through it mutate pool state;
	// its length always equals Count.
	//
	// Returns:
	//   - []Particle: the live particles
	Particles() []Particle

	// Particle returns a copy of the live particle with the given id.
	//
	// Parameters:
	//   - id: the id to look up
	//
	// Returns:
	//   - Particle: the particle
	//   - bool: false if id is not live
	Particle(id uint32) (Particle, bool)

	// ActiveIDs returns a copy of the live ids in slot order.
	//
	// Returns:
	//   - []uint32: the live ids
	ActiveIDs() []uint32

	// FreeIDs returns a copy of the free-list, bottom first.
	//
	// Returns:
	//   - []uint32: the free ids
	FreeIDs() []uint32

	// WriteIDs renders the live ids as a slot/id table followed by a size row.
	//
	// Parameters:
	//   - w: the destination writer
	//
	// Returns:
	//   - error: an error if the table could not be written
	WriteIDs(w io.Writer) error
}

var _ Pool = &poolImpl{}

// NewPool creates a new Pool managing ids [0, maxCapacity).
// A negative capacity is treated as zero.
//
// Parameters:
//   - maxCapacity: the number of ids to manage
//   - options: optional builder options
//
// Returns:
//   - Pool: the new pool
func NewPool(maxCapacity int, options ...PoolBuilderOption) Pool {
	if maxCapacity < 0 {
		maxCapacity = 0
	}
	p := &poolImpl{
		maxCapacity: maxCapacity,
		live:        make([]Particle, 0, maxCapacity),
		activeIDs:   make([]uint32, 0, maxCapacity),
		slots:       make(map[uint32]int, maxCapacity),
		free:        make([]uint32, 0, maxCapacity),
		logger:      zap.NewNop(),
	}
	for i := maxCapacity - 1; i >= 0; i-- {
		p.free = append(p.free, uint32(i))
	}
	for _, option := range options {
		option(p)
	}
	return p
}

func (p *poolImpl) Create(pos, vel, acc mgl32.Vec3, mass, radius float32, color mgl32.Vec4) (uint32, error) {
	if len(p.free) == 0 {
		p.logger.Warn("particle pool exhausted", zap.Int("max_capacity", p.maxCapacity))
		return 0, ErrPoolExhausted
	}
	id := p.free[len(p.free)-1]
	p.free = p.free[:len(p.free)-1]

	p.slots[id] = len(p.live)
	p.live = append(p.live, Particle{
		ID:           id,
		Position:     pos,
		Velocity:     vel,
		Acceleration: acc,
		Mass:         mass,
		Radius:       radius,
		Color:        color,
	})
	p.activeIDs = append(p.activeIDs, id)

	p.notify(PoolEventCreate)
	return id, nil
}

func (p *poolImpl) Destroy(id uint32) error {
	slot, ok := p.slots[id]
	if !ok {
		p.logger.Warn("destroy of unknown particle id", zap.Uint32("id", id))
		return fmt.Errorf("%w: %d", ErrDestroyUnknownID, id)
	}

	last := len(p.live) - 1
	if slot != last {
		p.live[slot] = p.live[last]
		p.activeIDs[slot] = p.activeIDs[last]
		p.slots[p.activeIDs[slot]] = slot
	}
	p.live = p.live[:last]
	p.activeIDs = p.activeIDs[:last]
	delete(p.slots, id)
	p.free = append(p.free, id)

	p.notify(PoolEventDestroy)
	return nil
}

func (p *poolImpl) Count() int {
	return len(p.activeIDs)
}

func (p *poolImpl) MaxCapacity() int {
	return p.maxCapacity
}

func (p *poolImpl) Resize(newMax int) error {
	if newMax < len(p.activeIDs) {
		p.logger.Warn("pool resize rejected",
			zap.Int("requested", newMax),
			zap.Int("live", len(p.activeIDs)),
		)
		return fmt.Errorf("%w: requested %d, live %d", ErrPoolResizeBelowLiveCount, newMax, len(p.activeIDs))
	}
	for _, id := range p.activeIDs {
		if int(id) >= newMax {
			p.logger.Warn("pool resize rejected",
				zap.Int("requested", newMax),
				zap.Uint32("live_id", id),
			)
			return fmt.Errorf("%w: id %d, requested %d", ErrPoolResizeOrphansLiveID, id, newMax)
		}
	}

	var free []uint32
	if newMax > p.maxCapacity {
		free = make([]uint32, 0, len(p.free)+newMax-p.maxCapacity)
		for i := newMax - 1; i >= p.maxCapacity; i-- {
			free = append(free, uint32(i))
		}
		free = append(free, p.free...)
	} else {
		free = make([]uint32, 0, len(p.free))
		for _, id := range p.free {
			if int(id) < newMax {
				free = append(free, id)
			}
		}
	}
	p.free = free
	p.maxCapacity = newMax

	p.notify(PoolEventResize)
	return nil
}

func (p *poolImpl) Particles() []Particle {
	return p.live
}

func (p *poolImpl) Particle(id uint32) (Particle, bool) {
	slot, ok := p.slots[id]
	if !ok {
		return Particle{}, false
	}
	return p.live[slot], true
}

func (p *poolImpl) ActiveIDs() []uint32 {
	out := make([]uint32, len(p.activeIDs))
	copy(out, p.activeIDs)
	return out
}

func (p *poolImpl) FreeIDs() []uint32 {
	out := make([]uint32, len(p.free))
	copy(out, p.free)
	return out
}

func (p *poolImpl) WriteIDs(w io.Writer) error {
	table := tablewriter.NewWriter(w)
	if err := table.Append([]string{"slot", "id"}); err != nil {
		return fmt.Errorf("failed to append header row: %w", err)
	}
	for slot, id := range p.activeIDs {
		if err := table.Append([]string{strconv.Itoa(slot), strconv.FormatUint(uint64(id), 10)}); err != nil {
			return fmt.Errorf("failed to append row: %w", err)
		}
	}
	if err := table.Append([]string{"size", strconv.Itoa(len(p.activeIDs))}); err != nil {
		return fmt.Errorf("failed to append size row: %w", err)
	}
	return table.Render()
}

func (p *poolImpl) notify(event PoolEvent) {
	if p.onChange != nil {
		p.onChange(event)
	}
}
