package engine

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-particles/engine/config"
	"github.com/Carmen-Shannon/oxy-particles/engine/mirror"
	"github.com/Carmen-Shannon/oxy-particles/engine/particle"
	"github.com/Carmen-Shannon/oxy-particles/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newHeadless(t *testing.T, capacity int, logger *zap.Logger) Engine {
	t.Helper()
	cfg := config.Default()
	cfg.Particles.MaxCapacity = capacity
	cfg.Engine.Headless = true
	cfg.GPU.Device = config.DeviceHost

	e := NewEngine(
		WithLogger(logger),
		WithFixedDelta(cfg.Engine.FixedDelta),
		WithUIState(scene.NewUIState(scene.SpawnParamsFromConfig(cfg.Particles), capacity)),
		WithSceneEnv(scene.Env{
			Config:    cfg,
			NewDevice: func() (mirror.Device, error) { return mirror.NewHostDevice(), nil },
		}),
	)
	t.Cleanup(e.Back)
	return e
}

func TestHeadlessScript(t *testing.T) {
	e := newHeadless(t, 8, zap.NewNop())
	cmds, err := scene.ParseScript([]string{"open particles", "create", "create", "destroy 0"})
	require.NoError(t, err)
	e.UI().Push(cmds...)

	e.RunFrames(1)
	name, active := e.ActiveScene()
	require.Equal(t, scene.NameParticles, name)
	ps, ok := active.(*scene.ParticlesScene)
	require.True(t, ok)
	assert.Equal(t, []uint32{1}, ps.Pool().ActiveIDs())
	assert.Equal(t, mirror.StateConsistent, ps.Mirror().State())

	before, _ := ps.Pool().Particle(1)
	e.RunFrames(10)
	after, _ := ps.Pool().Particle(1)
	// ten steps of 0.01 with velocity 1 and acceleration 1 along x
	assert.InDelta(t, before.Position.X()+0.1045, after.Position.X(), 1e-3)
}

func TestOpenAndBack(t *testing.T) {
	e := newHeadless(t, 2, zap.NewNop())
	name, active := e.ActiveScene()
	assert.Equal(t, MenuSceneName, name)
	assert.Nil(t, active)

	require.NoError(t, e.Open(scene.NameClearColor))
	name, _ = e.ActiveScene()
	assert.Equal(t, scene.NameClearColor, name)

	e.UI().Push(scene.Command{Type: scene.CommandBack})
	e.Step(0)
	name, _ = e.ActiveScene()
	assert.Equal(t, MenuSceneName, name)
}

func TestOpenUnknownSceneStaysOnMenu(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	e := newHeadless(t, 2, zap.New(core))
	require.NoError(t, e.Open(scene.NameParticles))

	err := e.Open("fireworks")
	assert.ErrorIs(t, err, scene.ErrUnknownScene)
	name, _ := e.ActiveScene()
	assert.Equal(t, MenuSceneName, name)
	assert.Equal(t, 1, logs.FilterMessage("scene open failed").Len())
}

func TestMenuDropsSceneCommands(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	e := newHeadless(t, 2, zap.New(core))
	e.UI().Push(scene.Command{Type: scene.CommandCreate})
	e.Step(0)
	assert.Zero(t, e.UI().Pending())
	assert.Equal(t, 1, logs.FilterMessage("command ignored on the menu").Len())
}

func TestContinuousSpawnFillsPool(t *testing.T) {
	e := newHeadless(t, 5, zap.NewNop())
	e.UI().Push(scene.Command{Type: scene.CommandOpen, Scene: scene.NameParticles}, scene.Command{Type: scene.CommandToggleSpawn})
	e.RunFrames(20)

	_, active := e.ActiveScene()
	ps := active.(*scene.ParticlesScene)
	assert.Equal(t, 5, ps.Pool().Count())
	for _, p := range ps.Pool().Particles() {
		assert.Equal(t, mgl32.Vec4{1, 0, 0, 1}, p.Color)
	}
	assert.Len(t, particle.MarshalParticles(ps.Pool().Particles()), 5*particle.GPUParticleSize)
}

func TestQuitIsIdempotent(t *testing.T) {
	e := newHeadless(t, 1, zap.NewNop())
	assert.NotPanics(t, func() {
		e.Quit()
		e.Quit()
	})
}
