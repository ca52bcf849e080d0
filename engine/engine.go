// package engine drives frames: it polls the window, applies camera input, runs one scene
// frame and ticks the profiler, all on the calling goroutine.
package engine

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Carmen-Shannon/oxy-gpu/engine/camera"
	"github.com/Carmen-Shannon/oxy-gpu/engine/ecs"
	"github.com/Carmen-Shannon/oxy-gpu/engine/profiler"
	"github.com/Carmen-Shannon/oxy-gpu/engine/scene"
	"github.com/Carmen-Shannon/oxy-gpu/engine/viewport"
	"github.com/Carmen-Shannon/oxy-gpu/engine/window"
)

// Engine is the main entry point: a single-threaded frame loop around one scene context.
type Engine interface {
	// Run executes frames until Quit is called, the window closes or the frame limit is
	// reached. It must be called from the goroutine that created the window and backend.
	//
	// Returns:
	//   - error: error if a frame panicked
	Run() error

	// Quit stops the loop after the current frame. Safe to call multiple times.
	Quit()

	// SetTickCallback registers the function called before each scene frame.
	//
	// Parameters:
	//   - callback: function receiving the delta time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// Frames returns the number of frames run so far.
	//
	// Returns:
	//   - uint64: completed frames
	Frames() uint64

	Scene() *scene.Context
	Window() window.Window
}

type engine struct {
	scene    *scene.Context
	window   window.Window
	camera   camera.CameraController
	profiler *profiler.Profiler

	quitChannel chan struct{}
	quitOnce    sync.Once

	maxFrames     uint64
	frameInterval time.Duration
	frames        uint64

	tickCallback   func(deltaTime float32)
	resizeCallback func(width, height int)

	log *zap.Logger
}

var _ Engine = &engine{}

// NewEngine creates an engine driving c.
//
// Parameters:
//   - c: the scene context to progress every frame
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(c *scene.Context, options ...EngineBuilderOption) Engine {
	e := &engine{
		scene:       c,
		quitChannel: make(chan struct{}),
		log:         zap.NewNop(),
	}
	for _, opt := range options {
		opt(e)
	}
	e.log = e.log.Named("engine")

	if e.window != nil {
		e.window.SetResizeCallback(e.resize)
		if e.camera != nil {
			e.window.SetKeyDownCallback(e.camera.KeyDown)
			e.window.SetKeyUpCallback(e.camera.KeyUp)
		}
	}
	return e
}

// resize follows the framebuffer with the preset viewport's extent.
func (e *engine) resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	ecs.Set(e.scene.World, e.scene.Presets.Viewport, viewport.Extent{Width: uint32(width), Height: uint32(height)})
	if e.resizeCallback != nil {
		e.resizeCallback(width, height)
	}
	e.log.Debug("resized", zap.Int("width", width), zap.Int("height", height))
}

func (e *engine) Scene() *scene.Context {
	return e.scene
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Frames() uint64 {
	return e.frames
}

func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.tickCallback = callback
}

func (e *engine) Quit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
	})
}

func (e *engine) quitting() bool {
	select {
	case <-e.quitChannel:
		return true
	default:
		return false
	}
}

func (e *engine) Run() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("frame %d: %v", e.frames, r)
			e.log.Error("frame panicked", zap.Uint64("frame", e.frames), zap.Any("panic", r))
		}
	}()

	e.log.Info("running",
		zap.Uint64("max_frames", e.maxFrames),
		zap.Duration("frame_interval", e.frameInterval),
		zap.Bool("windowed", e.window != nil),
	)
	last := time.Now()
	for !e.quitting() {
		if e.maxFrames > 0 && e.frames >= e.maxFrames {
			break
		}
		if e.window != nil && !e.window.PollEvents() {
			break
		}

		start := time.Now()
		dt := float32(start.Sub(last).Seconds())
		last = start

		if e.camera != nil {
			e.camera.Apply(e.scene.World, e.scene.Presets.Viewport, dt)
		}
		if e.tickCallback != nil {
			e.tickCallback(dt)
		}
		stats := e.scene.Progress()
		e.frames++
		if stats.Erased > 0 || stats.PairsCreated > 0 {
			e.log.Debug("frame",
				zap.Uint64("frame", stats.Frame),
				zap.Int("pairs_created", stats.PairsCreated),
				zap.Int("heaps_rebuilt", stats.HeapsRebuilt),
				zap.Int("viewports_written", stats.ViewportsWritten),
				zap.Int("erased", stats.Erased),
			)
		}
		if e.profiler != nil {
			e.profiler.Tick()
		}

		if e.frameInterval > 0 {
			if remaining := e.frameInterval - time.Since(start); remaining > 0 {
				time.Sleep(remaining)
			}
		}
	}
	e.log.Info("stopped", zap.Uint64("frames", e.frames))
	return nil
}
