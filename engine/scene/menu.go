package scene

import (
	"fmt"
	"sync"
)

// Names of the scenes registered by DefaultMenu.
const (
	NameClearColor = "clear-color"
	NameCircle     = "circle"
	NameParticles  = "particles"
)

type menuImpl struct {
	mu    sync.Mutex
	names []string
	ctors map[string]Constructor
}

// Menu is the harness lookup table of named scene constructors.
type Menu interface {
	// Register adds or replaces the constructor for name. New names keep registration order.
	//
	// Parameters:
	//   - name: the scene name used by the open command
	//   - ctor: the constructor
	Register(name string, ctor Constructor)

	// Names returns the registered names in registration order.
	//
	// Returns:
	//   - []string: the scene names
	Names() []string

	// Open constructs the named scene.
	//
	// Parameters:
	//   - name: the scene name
	//   - env: the environment passed to the constructor
	//
	// Returns:
	//   - Scene: the constructed scene
	//   - error: ErrUnknownScene, or the constructor's error
	Open(name string, env Env) (Scene, error)
}

var _ Menu = &menuImpl{}

// NewMenu creates an empty Menu.
//
// Returns:
//   - Menu: the menu
func NewMenu() Menu {
	return &menuImpl{ctors: make(map[string]Constructor)}
}

// DefaultMenu creates a Menu with the clear-color, circle and particles scenes.
//
// Returns:
//   - Menu: the menu
func DefaultMenu() Menu {
	m := NewMenu()
	m.Register(NameClearColor, func(env Env) (Scene, error) { return NewClearColorScene(), nil })
	m.Register(NameCircle, func(env Env) (Scene, error) { return NewCircleScene(env) })
	m.Register(NameParticles, func(env Env) (Scene, error) { return NewParticlesScene(env) })
	return m
}

func (m *menuImpl) Register(name string, ctor Constructor) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.ctors[name]; !ok {
		m.names = append(m.names, name)
	}
	m.ctors[name] = ctor
}

func (m *menuImpl) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.names))
	copy(out, m.names)
	return out
}

func (m *menuImpl) Open(name string, env Env) (Scene, error) {
	m.mu.Lock()
	ctor, ok := m.ctors[name]
	m.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScene, name)
	}
	s, err := ctor(env)
	if err != nil {
		return nil, fmt.Errorf("failed to open scene %q: %w", name, err)
	}
	return s, nil
}
