package wgpubackend

import (
	"github.com/cogentcore/webgpu/wgpu"
	"go.uber.org/zap"
)

type BackendBuilderOption func(*Backend)

// WithLogger sets the parent logger of the backend.
func WithLogger(log *zap.Logger) BackendBuilderOption {
	return func(b *Backend) {
		b.log = log
	}
}

// WithVSync selects FIFO presentation when enabled and immediate presentation otherwise.
func WithVSync(enabled bool) BackendBuilderOption {
	return func(b *Backend) {
		if enabled {
			b.presentMode = wgpu.PresentModeFifo
		} else {
			b.presentMode = wgpu.PresentModeImmediate
		}
	}
}

// WithClearColor sets the colour the surface is cleared to at the start of every frame.
func WithClearColor(r, g, bl, a float64) BackendBuilderOption {
	return func(b *Backend) {
		b.clearColor = wgpu.Color{R: r, G: g, B: bl, A: a}
	}
}
