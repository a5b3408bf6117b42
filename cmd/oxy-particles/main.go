package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-particles/common"
	"github.com/Carmen-Shannon/oxy-particles/engine"
	"github.com/Carmen-Shannon/oxy-particles/engine/config"
	"github.com/Carmen-Shannon/oxy-particles/engine/logger"
	"github.com/Carmen-Shannon/oxy-particles/engine/mirror"
	"github.com/Carmen-Shannon/oxy-particles/engine/mirror/gl_backend"
	"github.com/Carmen-Shannon/oxy-particles/engine/mirror/wgpu_backend"
	"github.com/Carmen-Shannon/oxy-particles/engine/profiler"
	"github.com/Carmen-Shannon/oxy-particles/engine/renderer"
	"github.com/Carmen-Shannon/oxy-particles/engine/scene"
	"github.com/Carmen-Shannon/oxy-particles/engine/window"
	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to the TOML configuration")
	headless := flag.Bool("headless", false, "run without a window (needs the gl or host device)")
	device := flag.String("device", "", "override gpu.device (wgpu, gl or host)")
	flag.Parse()

	if err := run(*configPath, *headless, *device); err != nil {
		color.New(color.FgHiRed, color.Bold).Fprintln(os.Stderr, "oxy-particles:", err)
		os.Exit(1)
	}
}

func run(configPath string, headless bool, device string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	cfg.Engine.Headless = cfg.Engine.Headless || headless
	cfg.GPU.Device = common.Coalesce(device, cfg.GPU.Device)
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logger.New(logger.Config{
		Environment: cfg.Log.Environment,
		Level:       cfg.Log.Level,
		Service:     "oxy-particles",
	})
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	reg := prometheus.NewRegistry()
	metrics, err := profiler.NewMetrics(reg)
	if err != nil {
		return err
	}
	if cfg.Metrics.Listen != "" {
		srv := profiler.NewServer(cfg.Metrics.Listen, reg)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server stopped", zap.Error(err))
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		}()
		log.Info("metrics listening", zap.String("addr", cfg.Metrics.Listen))
	}

	script, err := scene.ParseScript(cfg.Script.Commands)
	if err != nil {
		return err
	}
	ui := scene.NewUIState(scene.SpawnParamsFromConfig(cfg.Particles), cfg.Particles.MaxCapacity)
	if start := cfg.Engine.StartScene; start != "" && start != engine.MenuSceneName {
		ui.Push(scene.Command{Type: scene.CommandOpen, Scene: start})
	}
	ui.Push(script...)

	printBanner(os.Stdout, cfg)
	if cfg.Engine.Headless {
		return runHeadless(cfg, log, metrics, ui)
	}
	return runWindowed(cfg, log, metrics, ui)
}

func runHeadless(cfg config.Config, log *zap.Logger, metrics *profiler.Metrics, ui *scene.UIState) error {
	env := scene.Env{Config: cfg, Logger: log, Metrics: metrics, Out: os.Stdout}

	switch cfg.GPU.Device {
	case config.DeviceGL:
		ctx, err := gl_backend.NewContext()
		if err != nil {
			return err
		}
		defer ctx.Release()
		log.Info("gl context ready", zap.String("version", ctx.Version()))
		env.NewDevice = func() (mirror.Device, error) {
			return gl_backend.NewDevice(cfg.GPU.KineticGLSL, gl_backend.WithLogger(log))
		}
	default:
		pool := worker.NewDynamicWorkerPool(cfg.GPU.HostWorkers, 256, 1*time.Second)
		defer pool.Stop()
		env.NewDevice = hostDevice(pool)
	}

	e := engine.NewEngine(
		engine.WithLogger(log),
		engine.WithMetrics(metrics),
		engine.WithProfiling(cfg.Engine.Profiling),
		engine.WithFixedDelta(cfg.Engine.FixedDelta),
		engine.WithUIState(ui),
		engine.WithSceneEnv(env),
	)
	e.RunFrames(max(cfg.Engine.Frames, 1))

	name, active := e.ActiveScene()
	if ps, ok := active.(*scene.ParticlesScene); ok {
		log.Info("headless run finished",
			zap.String("scene", name),
			zap.Int("live", ps.Pool().Count()),
			zap.Int("max_capacity", ps.Pool().MaxCapacity()),
			zap.Stringer("mirror", ps.Mirror().State()),
		)
	}
	e.Back()
	return nil
}

func runWindowed(cfg config.Config, log *zap.Logger, metrics *profiler.Metrics, ui *scene.UIState) error {
	win := window.NewWindow(window.WithConfig(cfg.Window), window.WithLogger(log))
	presentMode, _ := renderer.ParsePresentMode(cfg.Window.PresentMode)
	r := renderer.NewRenderer(
		renderer.BackendTypeWGPU,
		win,
		renderer.WithPresentMode(presentMode),
		renderer.WithMSAA(renderer.MSAASampleCount(cfg.Window.MSAA)),
		renderer.WithLogger(log),
	)
	defer r.Release()

	env := scene.Env{Config: cfg, Logger: log, Metrics: metrics, Out: os.Stdout}
	switch cfg.GPU.Device {
	case config.DeviceWGPU:
		env.NewDevice = func() (mirror.Device, error) {
			return wgpu_backend.NewDevice(r, cfg.GPU.KineticWGSL, wgpu_backend.WithLogger(log))
		}
	default:
		pool := worker.NewDynamicWorkerPool(cfg.GPU.HostWorkers, 256, 1*time.Second)
		defer pool.Stop()
		env.NewDevice = hostDevice(pool)
	}

	e := engine.NewEngine(
		engine.WithWindow(win),
		engine.WithRenderer(r),
		engine.WithLogger(log),
		engine.WithMetrics(metrics),
		engine.WithProfiling(cfg.Engine.Profiling),
		engine.WithFixedDelta(cfg.Engine.FixedDelta),
		engine.WithRenderFrameLimit(float64(cfg.Engine.FrameLimit)),
		engine.WithUIState(ui),
		engine.WithSceneEnv(env),
	)
	e.Run()
	return win.Close()
}

// hostDevice builds host devices that all run on one worker pool, so reopening the
// particles scene does not start new workers.
func hostDevice(pool worker.DynamicWorkerPool) scene.DeviceFactory {
	return func() (mirror.Device, error) {
		return mirror.NewHostDevice(mirror.WithHostWorkerPool(pool)), nil
	}
}

func printBanner(w io.Writer, cfg config.Config) {
	title := color.New(color.FgHiMagenta, color.Bold)
	key := color.New(color.FgHiBlue, color.Bold)
	value := color.New(color.FgHiGreen)

	title.Fprintln(w, cfg.Window.Title)
	mode := "windowed"
	if cfg.Engine.Headless {
		mode = "headless"
	}
	for _, row := range [][2]string{
		{"mode", mode},
		{"device", cfg.GPU.Device},
		{"capacity", fmt.Sprint(cfg.Particles.MaxCapacity)},
		{"scenes", strings.Join(scene.DefaultMenu().Names(), ", ")},
	} {
		key.Fprintf(w, "  %-9s", row[0])
		value.Fprintln(w, row[1])
	}
	if !cfg.Engine.Headless {
		color.New(color.FgHiBlack).Fprintln(w, "  1-3 open scene, esc back, c create, d destroy, r resize, p print ids, s toggle spawn, shift+esc quit")
	}
}
