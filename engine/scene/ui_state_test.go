package scene

import (
	"sync"
	"testing"

	"github.com/Carmen-Shannon/oxy-particles/common"
	"github.com/Carmen-Shannon/oxy-particles/engine/config"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestDefaultSpawnParamsMatchConfigDefaults(t *testing.T) {
	assert.Equal(t, DefaultSpawnParams(), SpawnParamsFromConfig(config.Default().Particles))
	assert.Equal(t, mgl32.Vec4{1, 0, 0, 1}, DefaultSpawnParams().Color)
}

func TestTakeFiltersAndPreservesOrder(t *testing.T) {
	ui := NewUIState(DefaultSpawnParams(), 10)
	ui.Push(
		Command{Type: CommandCreate},
		Command{Type: CommandOpen, Scene: "circle"},
		Command{Type: CommandDestroy, ID: 2},
		Command{Type: CommandBack},
	)

	harness := ui.Take(Command.IsHarness)
	assert.Equal(t, []Command{{Type: CommandOpen, Scene: "circle"}, {Type: CommandBack}}, harness)
	assert.Equal(t, 2, ui.Pending())

	rest := ui.Take(nil)
	assert.Equal(t, []Command{{Type: CommandCreate}, {Type: CommandDestroy, ID: 2}}, rest)
	assert.Zero(t, ui.Pending())
}

func TestHandleKey(t *testing.T) {
	ui := NewUIState(DefaultSpawnParams(), 100)
	ui.SetSceneKeys([]string{NameClearColor, NameCircle, NameParticles})

	ui.HandleKey(common.KeyUp)
	ui.HandleKey(common.KeyUp)
	ui.HandleKey(common.KeyDown)
	ui.HandleKey(common.KeyD)
	ui.HandleKey(common.KeyEqual)
	ui.HandleKey(common.KeyR)
	ui.HandleKey(common.KeyC)
	ui.HandleKey(common.Key3)
	ui.HandleKey(common.KeyEsc)
	ui.HandleKey(0)

	assert.Equal(t, uint32(1), ui.SelectedID())
	assert.Equal(t, 200, ui.ResizeTarget())
	assert.Equal(t, []Command{
		{Type: CommandDestroy, ID: 1},
		{Type: CommandResize, Capacity: 200},
		{Type: CommandCreate},
		{Type: CommandOpen, Scene: NameParticles},
		{Type: CommandBack},
	}, ui.Take(nil))
}

func TestHandleKeyClampsAtZero(t *testing.T) {
	ui := NewUIState(DefaultSpawnParams(), 50)
	ui.HandleKey(common.KeyDown)
	ui.HandleKey(common.KeyMinus)
	assert.Zero(t, ui.SelectedID())
	assert.Zero(t, ui.ResizeTarget())
}

func TestUIStateConcurrentPush(t *testing.T) {
	ui := NewUIState(DefaultSpawnParams(), 0)
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				ui.HandleKey(common.KeyC)
			}
		}()
	}
	wg.Wait()
	assert.Len(t, ui.Take(nil), 800)
}

func TestAddZoomClamps(t *testing.T) {
	ui := NewUIState(DefaultSpawnParams(), 0)
	assert.Equal(t, float32(1), ui.Zoom())

	ui.AddZoom(1)
	assert.InDelta(t, 1.1, ui.Zoom(), 1e-6)

	for range 100 {
		ui.AddZoom(5)
	}
	assert.Equal(t, float32(10), ui.Zoom())

	for range 100 {
		ui.AddZoom(-5)
	}
	assert.InDelta(t, 0.1, ui.Zoom(), 1e-6)
}
