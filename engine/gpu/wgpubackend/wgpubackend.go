// package wgpubackend implements gpu.Backend on WebGPU.
//
// Map windows are staging copies: MapBuffer hands out a CPU mirror of the buffer and
// UnmapBuffer flushes the whole mirror through Queue.WriteBuffer. Resource heaps are bind
// groups created over layouts cached by heap layout name.
package wgpubackend

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
	"go.uber.org/zap"

	"github.com/Carmen-Shannon/oxy-gpu/engine/gpu"
)

type buffer struct {
	buf    *wgpu.Buffer
	size   uint64
	mirror []byte
	// shadow holds the bytes last sent to the GPU for a mirrored buffer.
	shadow []byte
	mapped bool
}

type texture struct {
	tex  *wgpu.Texture
	view *wgpu.TextureView
}

type renderTarget struct {
	tex   *wgpu.Texture
	view  *wgpu.TextureView
	faces []*wgpu.TextureView
	desc  gpu.RenderTargetDescriptor
}

// Backend is the WebGPU graphics backend. It owns the device, the surface and every
// object created through the gpu.Backend interface.
type Backend struct {
	mu     *sync.Mutex
	device *wgpu.Device
	queue  *wgpu.Queue

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface

	surfaceFormat wgpu.TextureFormat
	presentMode   wgpu.PresentMode
	clearColor    wgpu.Color

	nextID   uint64
	buffers  map[uint64]*buffer
	textures map[uint64]*texture
	samplers map[uint64]*wgpu.Sampler
	targets  map[uint64]*renderTarget
	heaps    map[uint64]*wgpu.BindGroup
	layouts  map[string]*wgpu.BindGroupLayout

	// Frame state between BeginFrame and Present.
	frameEncoder *wgpu.CommandEncoder
	framePass    *wgpu.RenderPassEncoder
	frameSurface *wgpu.Texture
	frameView    *wgpu.TextureView

	log *zap.Logger
}

var _ gpu.Backend = &Backend{}

// New creates a WebGPU device able to present to the surface described by
// surfaceDescriptor. The calling goroutine is locked to its OS thread.
//
// Parameters:
//   - surfaceDescriptor: the platform surface, usually from the window
//   - options: builder options
//
// Returns:
//   - *Backend: the backend
//   - error: error if no adapter or device is available
func New(surfaceDescriptor *wgpu.SurfaceDescriptor, options ...BackendBuilderOption) (*Backend, error) {
	runtime.LockOSThread()
	b := &Backend{
		mu:          &sync.Mutex{},
		instance:    wgpu.CreateInstance(nil),
		presentMode: wgpu.PresentModeFifo,
		clearColor:  wgpu.Color{R: 0.1, G: 0.1, B: 0.1, A: 1.0},
		buffers:     make(map[uint64]*buffer),
		textures:    make(map[uint64]*texture),
		samplers:    make(map[uint64]*wgpu.Sampler),
		targets:     make(map[uint64]*renderTarget),
		heaps:       make(map[uint64]*wgpu.BindGroup),
		layouts:     make(map[string]*wgpu.BindGroupLayout),
		log:         zap.NewNop(),
	}
	for _, option := range options {
		option(b)
	}
	b.log = b.log.Named("wgpu")

	b.surface = b.instance.CreateSurface(surfaceDescriptor)
	adapter, err := b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: b.surface,
	})
	if err != nil {
		return nil, fmt.Errorf("request adapter: %w", err)
	}
	b.adapter = adapter

	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
	})
	if err != nil {
		return nil, fmt.Errorf("request device: %w", err)
	}
	b.device = device
	b.queue = device.GetQueue()
	return b, nil
}

// ConfigureSurface (re)configures the swapchain for a framebuffer of width x height.
func (b *Backend) ConfigureSurface(width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	capabilities := b.surface.GetCapabilities(b.adapter)
	b.surfaceFormat = capabilities.Formats[0]
	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      b.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: b.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})
	b.log.Debug("surface configured", zap.Int("width", width), zap.Int("height", height))
}

// BeginFrame acquires the next surface texture, clears every shadow cube and opens a
// render pass clearing the surface.
func (b *Backend) BeginFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameSurface != nil {
		return fmt.Errorf("previous frame surface not yet presented")
	}

	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return err
	}
	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return err
	}
	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		view.Release()
		surfaceTexture.Release()
		return err
	}

	b.clearShadowTargets(encoder)
	b.frameEncoder = encoder
	b.framePass = encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: b.clearColor,
		}},
	})
	b.frameSurface = surfaceTexture
	b.frameView = view
	return nil
}

// clearShadowTargets records a depth clear of every face of every cube render target.
// It must run before the main pass is opened on encoder.
func (b *Backend) clearShadowTargets(encoder *wgpu.CommandEncoder) {
	for _, rt := range b.targets {
		for _, face := range rt.faces {
			pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
				DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
					View:            face,
					DepthLoadOp:     wgpu.LoadOpClear,
					DepthStoreOp:    wgpu.StoreOpStore,
					DepthClearValue: 1.0,
				},
			})
			pass.End()
			pass.Release()
		}
	}
}

// EndFrame ends the render pass and submits the frame's command buffer.
func (b *Backend) EndFrame() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.framePass == nil {
		return
	}
	b.framePass.End()
	b.framePass.Release()
	b.framePass = nil

	commandBuffer, err := b.frameEncoder.Finish(nil)
	b.frameEncoder.Release()
	b.frameEncoder = nil
	if err != nil {
		b.log.Error("finish frame encoder", zap.Error(err))
		return
	}
	b.queue.Submit(commandBuffer)
	commandBuffer.Release()
}

// Present presents the acquired surface texture and releases the frame references.
func (b *Backend) Present() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameSurface == nil {
		return
	}
	b.surface.Present()
	b.frameView.Release()
	b.frameView = nil
	b.frameSurface.Release()
	b.frameSurface = nil
}

// LiveCounts returns the live object count of every kind keyed by kind name.
func (b *Backend) LiveCounts() map[string]int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return map[string]int{
		"buffer":        len(b.buffers),
		"texture":       len(b.textures),
		"sampler":       len(b.samplers),
		"render_target": len(b.targets),
		"resource_heap": len(b.heaps),
	}
}

// Release destroys every remaining object, the device and the surface.
func (b *Backend) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, hp := range b.heaps {
		hp.Release()
		delete(b.heaps, id)
	}
	for name, l := range b.layouts {
		l.Release()
		delete(b.layouts, name)
	}
	for id, buf := range b.buffers {
		buf.buf.Release()
		delete(b.buffers, id)
	}
	for id, t := range b.textures {
		t.view.Release()
		t.tex.Release()
		delete(b.textures, id)
	}
	for id, s := range b.samplers {
		s.Release()
		delete(b.samplers, id)
	}
	for id, rt := range b.targets {
		rt.release()
		delete(b.targets, id)
	}
	b.queue.Release()
	b.device.Release()
	b.adapter.Release()
	b.surface.Release()
	b.instance.Release()
}

func (rt *renderTarget) release() {
	for _, f := range rt.faces {
		f.Release()
	}
	rt.view.Release()
	rt.tex.Release()
}

func (b *Backend) id() uint64 {
	b.nextID++
	return b.nextID
}
