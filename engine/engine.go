package engine

import (
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-particles/engine/profiler"
	"github.com/Carmen-Shannon/oxy-particles/engine/renderer"
	"github.com/Carmen-Shannon/oxy-particles/engine/scene"
	"github.com/Carmen-Shannon/oxy-particles/engine/window"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// MenuSceneName is the start scene name meaning "stay on the menu".
const MenuSceneName = "menu"

// engine implements the Engine interface.
// Coordinates the window thread and the render goroutine.
type engine struct {
	wg sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once

	window   window.Window
	renderer renderer.Renderer

	menu       scene.Menu
	ui         *scene.UIState
	env        scene.Env
	active     scene.Scene
	activeName string
	sceneMu    sync.Mutex

	clearColor mgl32.Vec4
	fixedDelta float32

	profiler         *profiler.Profiler
	profilingEnabled bool
	metrics          *profiler.Metrics
	logger           *zap.Logger

	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped
}

// Engine hosts the harness: it owns the active scene, drains harness commands and runs
// the per-frame sequence update, render, UI. Windowed runs render on a dedicated goroutine
// while the calling thread pumps window events; headless runs step frames on the caller.
type Engine interface {
	// Window returns the underlying window, or nil when headless.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// UI returns the UI state commands are queued on.
	//
	// Returns:
	//   - *scene.UIState: the shared UI state
	UI() *scene.UIState

	// Menu returns the scene menu.
	//
	// Returns:
	//   - scene.Menu: the menu
	Menu() scene.Menu

	// ActiveScene returns the name and instance of the open scene.
	//
	// Returns:
	//   - string: the scene name, MenuSceneName when none is open
	//   - scene.Scene: the scene, nil on the menu
	ActiveScene() (string, scene.Scene)

	// Open closes the active scene and opens the named one. On failure the engine
	// returns to the menu.
	//
	// Parameters:
	//   - name: the menu name of the scene
	//
	// Returns:
	//   - error: the menu's error
	Open(name string) error

	// Back closes the active scene and returns to the menu.
	Back()

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetRenderFrameLimit sets an optional render frame rate cap in frames per second.
	// Pass 0 to uncap the render loop (default).
	//
	// Parameters:
	//   - fps: maximum render frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// Step runs one frame on the calling goroutine.
	//
	// Parameters:
	//   - deltaTime: the frame time in seconds; the fixed delta is used instead when set
	Step(deltaTime float32)

	// RunFrames runs n frames on the calling goroutine with the fixed delta.
	//
	// Parameters:
	//   - n: the number of frames
	RunFrames(n int)

	// Run starts the render goroutine and pumps window events until the window closes,
	// then stops rendering and closes the active scene.
	Run()

	// Quit signals all engine goroutines to stop.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()
}

// NewEngine creates a new Engine with the given options. A window, when given, has its
// key callback bound to the UI state and its resize callback bound to the renderer.
//
// Parameters:
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		quitChannel: make(chan struct{}),
		menu:        scene.DefaultMenu(),
		ui:          scene.NewUIState(scene.DefaultSpawnParams(), 0),
		clearColor:  mgl32.Vec4{0.1, 0.1, 0.1, 1},
		logger:      zap.NewNop(),
	}
	for _, opt := range options {
		opt(e)
	}

	e.profiler = profiler.NewProfiler(profiler.WithLogger(e.logger), profiler.WithMetrics(e.metrics))
	e.ui.SetSceneKeys(e.menu.Names())
	if e.env.Logger == nil {
		e.env.Logger = e.logger
	}
	if e.env.Metrics == nil {
		e.env.Metrics = e.metrics
	}
	e.env.Renderer = e.renderer

	if e.window != nil {
		e.window.SetKeyDownCallback(e.ui.HandleKey)
		e.window.SetScrollCallback(e.ui.AddZoom)
		e.window.SetResizeCallback(func(width, height int) {
			if e.renderer != nil {
				e.renderer.Resize(width, height)
			}
		})
	}
	return e
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) UI() *scene.UIState {
	return e.ui
}

func (e *engine) Menu() scene.Menu {
	return e.menu
}

func (e *engine) ActiveScene() (string, scene.Scene) {
	e.sceneMu.Lock()
	defer e.sceneMu.Unlock()
	if e.active == nil {
		return MenuSceneName, nil
	}
	return e.activeName, e.active
}

func (e *engine) Open(name string) error {
	e.Back()
	s, err := e.menu.Open(name, e.env)
	if err != nil {
		e.logger.Error("scene open failed", zap.String("scene", name), zap.Error(err))
		return err
	}
	e.sceneMu.Lock()
	e.active, e.activeName = s, name
	e.sceneMu.Unlock()
	e.logger.Info("scene opened", zap.String("scene", name))
	return nil
}

func (e *engine) Back() {
	e.sceneMu.Lock()
	s, name := e.active, e.activeName
	e.active, e.activeName = nil, ""
	e.sceneMu.Unlock()
	if s != nil {
		s.Close()
		e.logger.Info("scene closed", zap.String("scene", name))
	}
}

func (e *engine) Step(deltaTime float32) {
	if e.fixedDelta > 0 {
		deltaTime = e.fixedDelta
	}

	for _, cmd := range e.ui.Take(scene.Command.IsHarness) {
		switch cmd.Type {
		case scene.CommandOpen:
			_ = e.Open(cmd.Scene)
		case scene.CommandBack:
			e.Back()
		}
	}

	_, active := e.ActiveScene()
	if active != nil {
		active.OnUpdate(deltaTime)
	}

	if e.renderer != nil {
		color := e.clearColor
		if cc, ok := active.(scene.ClearColorer); ok {
			color = cc.ClearColor()
		}
		e.renderer.SetClearColor(color)
		if err := e.renderer.BeginFrame(); err == nil {
			if active != nil {
				active.OnRender(e.renderer)
			}
			e.renderer.EndFrame()
			e.renderer.Present()
		} else {
			e.logger.Debug("frame skipped", zap.Error(err))
		}
	}

	if active != nil {
		active.OnUIRender(e.ui)
	} else {
		for _, cmd := range e.ui.Take(nil) {
			e.logger.Info("command ignored on the menu", zap.Stringer("command", cmd))
		}
	}

	if e.profilingEnabled {
		e.profiler.Tick()
	} else {
		e.metrics.ObserveFrame()
	}
}

func (e *engine) RunFrames(n int) {
	for range n {
		e.Step(e.fixedDelta)
	}
}

func (e *engine) Run() {
	e.handle()
	e.window.ProcessMessages()
	e.Quit()
	e.wg.Wait()
	e.Back()
}

// Quit signals all engine goroutines to stop and shuts down the engine.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.signalQuit()
}

// signalQuit closes the quit channel to signal all goroutines to exit.
// Uses sync.Once to ensure the channel is only closed once.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
	})
}

// handle launches the render goroutine, tracked by the engine's WaitGroup.
func (e *engine) handle() {
	e.wg.Add(1)
	go e.handleRender()
}

// handleRender runs the uncapped (or frame-limited) render loop in its own goroutine.
// Recovers from panics to avoid crashing the process and signals quit on recovery.
func (e *engine) handleRender() {
	defer e.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("render goroutine recovered from panic", zap.Any("panic", r))
			e.signalQuit()
		}
	}()

	lastRender := time.Now()
	for {
		select {
		case <-e.quitChannel:
			return
		default:
			now := time.Now()
			dt := float32(now.Sub(lastRender).Seconds())
			lastRender = now

			e.Step(dt)

			if e.renderFrameLimit > 0 {
				elapsed := time.Since(lastRender)
				if remaining := e.renderFrameLimit - elapsed; remaining > 0 {
					time.Sleep(remaining)
				}
			}
		}
	}
}

// EnableProfiler enables performance profiling output to the log.
func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
}

// DisableProfiler disables performance profiling output.
func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
}

// SetRenderFrameLimit sets an optional render frame rate cap.
// Pass 0 to uncap the render loop.
func (e *engine) SetRenderFrameLimit(fps float64) {
	if fps <= 0 {
		e.renderFrameLimit = 0
		return
	}
	e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
}
