// Command oxyviewer loads a scene script and drives it through the resource lifecycle,
// either in a WebGPU window or headless against the in-memory backend.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Carmen-Shannon/oxy-gpu/engine"
	"github.com/Carmen-Shannon/oxy-gpu/engine/camera"
	"github.com/Carmen-Shannon/oxy-gpu/engine/config"
	"github.com/Carmen-Shannon/oxy-gpu/engine/gpu"
	"github.com/Carmen-Shannon/oxy-gpu/engine/gpu/memgpu"
	"github.com/Carmen-Shannon/oxy-gpu/engine/gpu/wgpubackend"
	"github.com/Carmen-Shannon/oxy-gpu/engine/loader"
	"github.com/Carmen-Shannon/oxy-gpu/engine/logger"
	"github.com/Carmen-Shannon/oxy-gpu/engine/profiler"
	"github.com/Carmen-Shannon/oxy-gpu/engine/scene"
	"github.com/Carmen-Shannon/oxy-gpu/engine/script"
	"github.com/Carmen-Shannon/oxy-gpu/engine/window"
)

func main() {
	var (
		configPath = flag.String("config", "", "TOML config file (defaults when empty)")
		headless   = flag.Bool("headless", false, "run against the in-memory backend without a window")
		scriptPath = flag.String("script", "", "Lua scene script (overrides assets.script)")
		frames     = flag.Uint64("frames", 0, "stop after n frames (overrides engine.max_frames)")
	)
	flag.Parse()

	if err := run(*configPath, *headless, *scriptPath, *frames); err != nil {
		fmt.Fprintln(os.Stderr, "oxyviewer:", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Defaults(), nil
	}
	return config.Load(path)
}

func run(configPath string, headless bool, scriptPath string, frames uint64) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if headless {
		cfg.Window.Headless = true
	}
	if scriptPath != "" {
		cfg.Assets.Script = scriptPath
	}
	if frames > 0 {
		cfg.Engine.MaxFrames = frames
	}

	log, err := logger.New(cfg.Logging)
	if err != nil {
		return err
	}
	defer log.Sync()

	presets := config.DefaultPresets()
	if cfg.Assets.Presets != "" {
		if presets, err = config.LoadPresets(cfg.Assets.Presets); err != nil {
			return err
		}
	}

	prefetcher := loader.NewPrefetcher(
		loader.WithWorkers(cfg.Prefetch.Workers),
		loader.WithQueueSize(cfg.Prefetch.QueueSize),
		loader.WithPrefetchLogger(log),
	)
	l := loader.NewLoader(
		loader.WithRoot(cfg.Assets.Root),
		loader.WithCache(cfg.Assets.Cache),
		loader.WithPrefetcher(prefetcher),
		loader.WithLogger(log),
	)
	l.Prefetch(append([]string{presets.Mesh, presets.Texture}, cfg.Prefetch.Paths...)...)

	var (
		backend    gpu.Backend
		live       profiler.LiveCounter
		win        window.Window
		wgpu       *wgpubackend.Backend
		engineOpts []engine.EngineBuilderOption
	)
	width, height := cfg.Window.Width, cfg.Window.Height
	if cfg.Window.Headless {
		mem := memgpu.New()
		backend, live = mem, mem
	} else {
		if win, err = window.NewWindow(window.WithTitle(cfg.Window.Title), window.WithSize(width, height)); err != nil {
			return err
		}
		defer win.Close()
		if wgpu, err = wgpubackend.New(win.SurfaceDescriptor(), wgpubackend.WithLogger(log)); err != nil {
			return err
		}
		defer wgpu.Release()
		width, height = win.Width(), win.Height()
		wgpu.ConfigureSurface(width, height)
		backend, live = wgpu, wgpu
		engineOpts = append(engineOpts,
			engine.WithWindow(win),
			engine.WithCamera(camera.NewCameraController()),
			engine.WithResizeCallback(wgpu.ConfigureSurface),
		)
	}

	c := scene.NewContext(backend, l,
		scene.WithPresets(presets),
		scene.WithViewportConfig(cfg.Viewport),
		scene.WithExtent(uint32(width), uint32(height)),
		scene.WithShadowResolution(cfg.Shadow.Resolution),
		scene.WithLogger(log),
	)
	defer c.Close()
	if wgpu != nil {
		c.OnStore("render.present", func(*scene.Context) {
			if err := wgpu.BeginFrame(); err != nil {
				log.Warn("skip frame", zap.Error(err))
				return
			}
			wgpu.EndFrame()
			wgpu.Present()
		})
	}

	scripts := script.NewEngine(c, log)
	defer scripts.Close()
	if cfg.Assets.Script != "" {
		if err := scripts.Load(cfg.Assets.Script); err != nil {
			return err
		}
	}

	engineOpts = append(engineOpts,
		engine.WithMaxFrames(cfg.Engine.MaxFrames),
		engine.WithFrameInterval(cfg.Engine.FrameInterval),
		engine.WithProfiler(profiler.NewProfiler(
			profiler.WithInterval(cfg.Engine.ProfileInterval),
			profiler.WithLiveCounter(live),
			profiler.WithLogger(log),
		)),
		engine.WithLogger(log),
	)
	eng := engine.NewEngine(c, engineOpts...)

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(signals)
	go func() {
		if _, ok := <-signals; ok {
			eng.Quit()
		}
	}()

	if err := eng.Run(); err != nil {
		return err
	}
	if n := scripts.Errors(); n > 0 {
		log.Warn("script errors", zap.Int("count", n))
	}
	return nil
}
