package scene

import (
	"github.com/Carmen-Shannon/oxy-gpu/engine/config"
	"github.com/Carmen-Shannon/oxy-gpu/engine/viewport"
	"go.uber.org/zap"
)

// ContextBuilderOption is a functional option for configuring a Context.
// Use the With* functions to create options.
type ContextBuilderOption func(c *Context)

// WithPresets sets the fallback mesh, texture, material and viewport pose.
//
// Parameters:
//   - p: the preset manifest
//
// Returns:
//   - ContextBuilderOption: option function to apply
func WithPresets(p *config.Presets) ContextBuilderOption {
	return func(c *Context) {
		if p != nil {
			c.presets = p
		}
	}
}

// WithViewportConfig sets the projection used by every viewport.
//
// Parameters:
//   - v: field of view and clip planes
//
// Returns:
//   - ContextBuilderOption: option function to apply
func WithViewportConfig(v config.ViewportConfig) ContextBuilderOption {
	return func(c *Context) {
		c.view = v
	}
}

// WithExtent sets the pixel size of the preset viewport.
//
// Parameters:
//   - width: the width in pixels
//   - height: the height in pixels
//
// Returns:
//   - ContextBuilderOption: option function to apply
func WithExtent(width, height uint32) ContextBuilderOption {
	return func(c *Context) {
		if width > 0 && height > 0 {
			c.extent = viewport.Extent{Width: width, Height: height}
		}
	}
}

// WithShadowResolution sets the face size of every shadow cube.
func WithShadowResolution(texels uint32) ContextBuilderOption {
	return func(c *Context) {
		if texels > 0 {
			c.resolution = texels
		}
	}
}

// WithLogger sets the parent logger of the context and every manager it creates.
func WithLogger(log *zap.Logger) ContextBuilderOption {
	return func(c *Context) {
		if log != nil {
			c.log = log
		}
	}
}
