package scene

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-particles/engine/camera"
	"github.com/Carmen-Shannon/oxy-particles/engine/mirror"
	"github.com/Carmen-Shannon/oxy-particles/engine/particle"
	"github.com/Carmen-Shannon/oxy-particles/engine/profiler"
	"github.com/Carmen-Shannon/oxy-particles/engine/renderer"
	"github.com/Carmen-Shannon/oxy-particles/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-particles/engine/renderer/shader"
	"go.uber.org/zap"
)

const (
	particlesPipelineKey = "particles"
	quadVertices         = 6
)

// ParticlesScene drives the particle system: it applies queued commands to the pool,
// keeps the device mirror in sync with full re-uploads, advances the mirror every frame
// and draws the pool as instanced quads.
type ParticlesScene struct {
	pool    particle.Pool
	mirror  mirror.Mirror
	device  mirror.Device
	env     Env
	logger  *zap.Logger
	metrics *profiler.Metrics

	exhausted bool

	renderer  renderer.Renderer
	camera    camera.Camera
	program   shader.Program
	instances bind_group_provider.BindGroupProvider
	slots     int // particle slots in the instance buffer
}

var _ Scene = &ParticlesScene{}

// NewParticlesScene creates the pool and its mirror, allocates the mirror at the configured
// capacity and, when a renderer is present, builds the particle pipeline.
//
// Parameters:
//   - env: the scene environment; NewDevice is required
//
// Returns:
//   - *ParticlesScene: the scene
//   - error: ErrNoDevice, a device error or a shader error
func NewParticlesScene(env Env) (*ParticlesScene, error) {
	if env.NewDevice == nil {
		return nil, ErrNoDevice
	}
	device, err := env.NewDevice()
	if err != nil {
		return nil, fmt.Errorf("failed to create compute device: %w", err)
	}

	s := &ParticlesScene{
		device:   device,
		env:      env,
		logger:   env.logger(),
		metrics:  env.Metrics,
		renderer: env.Renderer,
	}
	s.mirror = mirror.NewMirror(device, mirror.WithLogger(s.logger), mirror.WithMetrics(env.Metrics))
	s.pool = particle.NewPool(
		env.Config.Particles.MaxCapacity,
		particle.WithLogger(s.logger),
		particle.WithChangeCallback(s.onPoolChange),
	)

	if err := s.mirror.Allocate(s.pool.MaxCapacity()); err != nil {
		destroyDevice(device)
		return nil, err
	}
	s.metrics.SetPool(s.pool.Count(), s.pool.MaxCapacity())

	if s.renderer != nil {
		if err := s.initRendering(); err != nil {
			s.mirror.Release()
			destroyDevice(device)
			return nil, err
		}
	}
	return s, nil
}

// Pool returns the host particle pool.
func (s *ParticlesScene) Pool() particle.Pool {
	return s.pool
}

// Mirror returns the device mirror of the pool.
func (s *ParticlesScene) Mirror() mirror.Mirror {
	return s.mirror
}

// OnUpdate advances every live particle by deltaTime on the device and reads the result
// back into the pool. A mirror left behind by a failed mutation is reallocated or
// re-uploaded first. A failed download leaves the pool unchanged for this frame.
func (s *ParticlesScene) OnUpdate(deltaTime float32) {
	if s.mirror.State() != mirror.StateConsistent {
		if err := s.sync(); err != nil {
			s.logger.Warn("particle mirror resync failed", zap.Error(err))
			return
		}
	}
	if s.pool.Count() == 0 {
		return
	}
	if err := s.mirror.Dispatch(deltaTime); err != nil {
		s.logger.Error("particle dispatch failed", zap.Error(err))
		return
	}
	if err := s.mirror.DownloadAll(s.pool.Particles()); err != nil {
		s.logger.Warn("particle download skipped", zap.Error(err))
	}
}

func (s *ParticlesScene) OnRender(r renderer.Renderer) {
	count := s.pool.Count()
	if count == 0 || s.instances == nil {
		return
	}
	if count > s.slots {
		if err := s.initInstances(); err != nil {
			s.logger.Warn("particle instance buffer unavailable", zap.Error(err))
			return
		}
	}
	writeCamera(r, s.camera)
	r.WriteBuffers([]bind_group_provider.BufferWrite{
		{Provider: s.instances, Binding: 0, Data: particle.MarshalParticles(s.pool.Particles())},
	})
	s.instances.SetInstanceCount(count)
	bindGroups := []bind_group_provider.BindGroupProvider{s.camera.BindGroupProvider(), s.instances}
	if err := r.Draw(particlesPipelineKey, s.instances, bindGroups); err != nil {
		s.logger.Warn("particle draw failed", zap.Error(err))
	}
}

// OnUIRender applies the queued particle commands in order, spawns one particle
// when continuous spawn is on and follows the scroll zoom.
func (s *ParticlesScene) OnUIRender(ui *UIState) {
	for _, cmd := range ui.Take(func(c Command) bool { return !c.IsHarness() }) {
		s.apply(cmd, ui)
	}
	if ui.ContinuousSpawn() {
		s.spawnContinuous(ui.Spawn())
	}
	if s.camera != nil {
		s.camera.SetZoom(ui.Zoom())
	}
}

func (s *ParticlesScene) Close() {
	s.mirror.Release()
	destroyDevice(s.device)
	if s.instances != nil {
		s.instances.Release()
		s.instances = nil
	}
	if s.camera != nil {
		s.camera.BindGroupProvider().Release()
	}
}

// Create adds one particle from the spawn parameters and re-uploads the pool.
//
// Parameters:
//   - p: the spawn parameters
//
// Returns:
//   - uint32: the new particle id
//   - error: particle.ErrPoolExhausted or an upload error
func (s *ParticlesScene) Create(p SpawnParams) (uint32, error) {
	id, err := s.pool.Create(p.Position, p.Velocity, p.Acceleration, p.Mass, p.Radius, p.Color)
	if err != nil {
		return 0, err
	}
	return id, s.sync()
}

// Destroy removes the particle with the given id and re-uploads the pool.
//
// Parameters:
//   - id: the particle id
//
// Returns:
//   - error: an error wrapping particle.ErrDestroyUnknownID, or an upload error
func (s *ParticlesScene) Destroy(id uint32) error {
	if err := s.pool.Destroy(id); err != nil {
		return err
	}
	return s.sync()
}

// Resize changes the pool capacity, reallocates the mirror and re-uploads the pool.
//
// Parameters:
//   - capacity: the new max capacity
//
// Returns:
//   - error: a pool resize error, leaving pool and mirror unchanged, or a device error;
//     after a device error the next frame retries the allocation
func (s *ParticlesScene) Resize(capacity int) error {
	if err := s.pool.Resize(capacity); err != nil {
		return err
	}
	if err := s.mirror.Allocate(capacity); err != nil {
		return err
	}
	if err := s.sync(); err != nil {
		return err
	}
	if s.renderer != nil {
		return s.initInstances()
	}
	return nil
}

func (s *ParticlesScene) apply(cmd Command, ui *UIState) {
	var err error
	switch cmd.Type {
	case CommandCreate:
		var id uint32
		if id, err = s.Create(ui.Spawn()); err == nil {
			s.logger.Debug("particle created", zap.Uint32("id", id))
		}
	case CommandDestroy:
		err = s.Destroy(cmd.ID)
	case CommandResize:
		err = s.Resize(cmd.Capacity)
	case CommandPrintIDs:
		err = s.pool.WriteIDs(s.env.out())
	case CommandToggleSpawn:
		on := ui.ToggleContinuousSpawn()
		s.exhausted = false
		s.logger.Info("continuous spawn toggled", zap.Bool("on", on))
	}
	if err != nil {
		s.logger.Warn("particle command failed", zap.Stringer("command", cmd), zap.Error(err))
	}
}

// spawnContinuous creates one particle per frame until the pool is full, reporting
// exhaustion once per streak of full frames.
func (s *ParticlesScene) spawnContinuous(p SpawnParams) {
	if s.pool.Count() >= s.pool.MaxCapacity() {
		if !s.exhausted {
			s.exhausted = true
			s.logger.Warn("continuous spawn stopped, pool exhausted", zap.Int("max_capacity", s.pool.MaxCapacity()))
		}
		return
	}
	s.exhausted = false
	if _, err := s.Create(p); err != nil {
		s.logger.Warn("continuous spawn failed", zap.Error(err))
	}
}

func (s *ParticlesScene) onPoolChange(particle.PoolEvent) {
	s.mirror.MarkDirty()
	s.metrics.SetPool(s.pool.Count(), s.pool.MaxCapacity())
}

// sync uploads the whole pool, first reallocating the mirror at the pool capacity if a
// previous allocation failed.
func (s *ParticlesScene) sync() error {
	if s.mirror.State() == mirror.StateUnallocated {
		if err := s.mirror.Allocate(s.pool.MaxCapacity()); err != nil {
			return err
		}
	}
	if err := s.mirror.UploadAll(s.pool.Particles()); err != nil {
		if errors.Is(err, mirror.ErrCapacityExceeded) {
			s.logger.Error("mirror smaller than pool", zap.Int("capacity", s.mirror.Capacity()), zap.Int("live", s.pool.Count()))
		}
		return err
	}
	return nil
}

func (s *ParticlesScene) initRendering() error {
	prog, err := shader.LoadProgram(particlesPipelineKey, s.env.Config.GPU.ParticlesShader)
	if err != nil {
		s.logger.Error("particle shader failed", zap.Error(err))
		return err
	}
	if p, ok := prog.Provider(1); !ok || p != shader.AnnotationArgParticles {
		return fmt.Errorf("%w: %s must bind particles at group 1", shader.ErrShaderLinkFailed, prog.Key)
	}
	s.program = prog
	s.camera = camera.NewCamera(camera.WithViewport(viewWidth, viewHeight))
	if err := initPipeline(s.renderer, particlesPipelineKey, prog, s.camera); err != nil {
		s.logger.Error("particle pipeline failed", zap.Error(err))
		return err
	}
	return s.initInstances()
}

// initInstances (re)creates the read-only instance buffer sized to the pool capacity.
func (s *ParticlesScene) initInstances() error {
	if s.instances != nil {
		s.instances.Release()
	}
	s.slots = 0
	s.instances = bind_group_provider.NewBindGroupProvider(
		"particle_instances",
		bind_group_provider.WithVertexCount(quadVertices),
	)
	slots := max(s.pool.MaxCapacity(), 1)
	size := uint64(slots) * particle.GPUParticleSize
	err := s.renderer.InitBindGroup(s.instances, s.program.BindGroupLayoutDescriptors()[1], nil, map[int]uint64{0: size})
	if err != nil {
		return fmt.Errorf("failed to create particle instance buffer: %w", err)
	}
	s.slots = slots
	return nil
}

// destroyDevice frees every resource the device holds, not only its buffer.
func destroyDevice(d mirror.Device) {
	if x, ok := d.(mirror.Destroyer); ok {
		x.Destroy()
		return
	}
	d.Release()
}
