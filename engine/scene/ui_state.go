package scene

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-particles/common"
	"github.com/Carmen-Shannon/oxy-particles/engine/config"
	"github.com/go-gl/mathgl/mgl32"
)

// resizeStep is how far the -/= keys move the resize target.
const resizeStep = 100

const (
	zoomStep = 0.1
	minZoom  = 0.1
	maxZoom  = 10
)

// SpawnParams are the values given to every particle created from the UI.
type SpawnParams struct {
	Position     mgl32.Vec3
	Velocity     mgl32.Vec3
	Acceleration mgl32.Vec3
	Color        mgl32.Vec4
	Mass         float32
	Radius       float32
}

// DefaultSpawnParams returns position, velocity and acceleration {1,1,0}, red, mass 1 and radius 1.
//
// Returns:
//   - SpawnParams: the defaults
func DefaultSpawnParams() SpawnParams {
	return SpawnParams{
		Position:     mgl32.Vec3{1, 1, 0},
		Velocity:     mgl32.Vec3{1, 1, 0},
		Acceleration: mgl32.Vec3{1, 1, 0},
		Color:        mgl32.Vec4{1, 0, 0, 1},
		Mass:         1,
		Radius:       1,
	}
}

// SpawnParamsFromConfig converts the particles section of the configuration.
//
// Parameters:
//   - p: the particles config
//
// Returns:
//   - SpawnParams: the spawn parameters
func SpawnParamsFromConfig(p config.Particles) SpawnParams {
	return SpawnParams{
		Position:     p.Position,
		Velocity:     p.Velocity,
		Acceleration: p.Acceleration,
		Color:        p.Color,
		Mass:         p.Mass,
		Radius:       p.Radius,
	}
}

// UIState is the state shared between the window thread, which queues commands, and
// the render thread, which drains them. Every method is safe for concurrent use.
type UIState struct {
	mu sync.Mutex

	spawn           SpawnParams
	selectedID      uint32
	resizeTarget    int
	continuousSpawn bool
	zoom            float32
	sceneKeys       []string

	pending []Command
}

// NewUIState creates a UIState with the given spawn parameters and resize target.
//
// Parameters:
//   - spawn: the spawn parameters
//   - resizeTarget: the initial capacity used by the resize key
//
// Returns:
//   - *UIState: the state
func NewUIState(spawn SpawnParams, resizeTarget int) *UIState {
	return &UIState{
		spawn:        spawn,
		resizeTarget: max(resizeTarget, 0),
		zoom:         1,
	}
}

// Push appends commands to the pending queue.
func (u *UIState) Push(cmds ...Command) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.pending = append(u.pending, cmds...)
}

// Take removes and returns the pending commands matching keep, preserving order.
// A nil keep takes every command.
//
// Parameters:
//   - keep: the filter
//
// Returns:
//   - []Command: the removed commands
func (u *UIState) Take(keep func(Command) bool) []Command {
	u.mu.Lock()
	defer u.mu.Unlock()
	var taken []Command
	rest := u.pending[:0]
	for _, c := range u.pending {
		if keep == nil || keep(c) {
			taken = append(taken, c)
		} else {
			rest = append(rest, c)
		}
	}
	u.pending = rest
	return taken
}

// Pending returns the number of queued commands.
func (u *UIState) Pending() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.pending)
}

func (u *UIState) Spawn() SpawnParams {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.spawn
}

func (u *UIState) SetSpawn(p SpawnParams) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.spawn = p
}

func (u *UIState) SelectedID() uint32 {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.selectedID
}

func (u *UIState) SetSelectedID(id uint32) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.selectedID = id
}

func (u *UIState) ResizeTarget() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.resizeTarget
}

func (u *UIState) SetResizeTarget(n int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.resizeTarget = max(n, 0)
}

func (u *UIState) ContinuousSpawn() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.continuousSpawn
}

// ToggleContinuousSpawn flips the continuous spawn flag and returns the new value.
func (u *UIState) ToggleContinuousSpawn() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.continuousSpawn = !u.continuousSpawn
	return u.continuousSpawn
}

func (u *UIState) Zoom() float32 {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.zoom
}

// AddZoom scales the camera zoom by one step per unit of scroll delta, clamped to [0.1, 10].
//
// Parameters:
//   - delta: the scroll delta, positive zooms in
func (u *UIState) AddZoom(delta float32) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.zoom = min(max(u.zoom*(1+zoomStep*delta), minZoom), maxZoom)
}

// SetSceneKeys binds the number keys 1..n to the given scene names.
//
// Parameters:
//   - names: the scene names, in key order
func (u *UIState) SetSceneKeys(names []string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.sceneKeys = append([]string(nil), names...)
}

// HandleKey translates a key press into UI state changes and queued commands.
// Unbound keys are ignored.
//
// Parameters:
//   - key: the virtual key code
func (u *UIState) HandleKey(key uint32) {
	u.mu.Lock()
	defer u.mu.Unlock()

	switch key {
	case common.KeyC:
		u.pending = append(u.pending, Command{Type: CommandCreate})
	case common.KeyD:
		u.pending = append(u.pending, Command{Type: CommandDestroy, ID: u.selectedID})
	case common.KeyR:
		u.pending = append(u.pending, Command{Type: CommandResize, Capacity: u.resizeTarget})
	case common.KeyP:
		u.pending = append(u.pending, Command{Type: CommandPrintIDs})
	case common.KeyS:
		u.pending = append(u.pending, Command{Type: CommandToggleSpawn})
	case common.KeyEsc, common.KeyBackspace:
		u.pending = append(u.pending, Command{Type: CommandBack})
	case common.KeyUp:
		u.selectedID++
	case common.KeyDown:
		if u.selectedID > 0 {
			u.selectedID--
		}
	case common.KeyEqual:
		u.resizeTarget += resizeStep
	case common.KeyMinus:
		u.resizeTarget = max(u.resizeTarget-resizeStep, 0)
	case common.Key1, common.Key2, common.Key3:
		if i := int(key - common.Key1); i < len(u.sceneKeys) {
			u.pending = append(u.pending, Command{Type: CommandOpen, Scene: u.sceneKeys[i]})
		}
	}
}
