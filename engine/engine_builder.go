package engine

import (
	"time"

	"go.uber.org/zap"

	"github.com/Carmen-Shannon/oxy-gpu/engine/camera"
	"github.com/Carmen-Shannon/oxy-gpu/engine/profiler"
	"github.com/Carmen-Shannon/oxy-gpu/engine/window"
)

// EngineBuilderOption is a functional option for configuring an Engine.
type EngineBuilderOption func(*engine)

// WithWindow sets the window the engine polls each frame. Without a window the engine
// runs headless.
//
// Parameters:
//   - w: an open Window
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithCamera sets the controller that moves the preset viewport. When a window is set its
// key events are routed to the controller.
//
// Parameters:
//   - c: the camera controller
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithCamera(c camera.CameraController) EngineBuilderOption {
	return func(e *engine) {
		e.camera = c
	}
}

// WithProfiler ticks p after every frame.
func WithProfiler(p *profiler.Profiler) EngineBuilderOption {
	return func(e *engine) {
		e.profiler = p
	}
}

// WithMaxFrames stops the loop after n frames. Zero runs until quit.
func WithMaxFrames(n uint64) EngineBuilderOption {
	return func(e *engine) {
		e.maxFrames = n
	}
}

// WithFrameInterval sets the minimum duration of a frame. Zero leaves the loop uncapped.
//
// Parameters:
//   - d: the minimum frame duration
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithFrameInterval(d time.Duration) EngineBuilderOption {
	return func(e *engine) {
		e.frameInterval = d
	}
}

// WithResizeCallback registers a function called after the preset viewport followed a
// framebuffer resize, typically to reconfigure the surface.
func WithResizeCallback(callback func(width, height int)) EngineBuilderOption {
	return func(e *engine) {
		e.resizeCallback = callback
	}
}

// WithLogger sets the parent logger of the engine.
func WithLogger(log *zap.Logger) EngineBuilderOption {
	return func(e *engine) {
		e.log = log
	}
}
