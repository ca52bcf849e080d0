// package memgpu is a headless gpu.Backend that keeps every resource in host memory.
// It enforces the ownership rules real drivers only report as validation errors:
// releasing a handle twice, releasing a mapped buffer, mapping a buffer twice and binding
// a released resource all panic.
package memgpu

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-gpu/engine/gpu"
)

// Kind identifies a handle kind in the live counters.
type Kind int

const (
	KindBuffer Kind = iota
	KindTexture
	KindSampler
	KindRenderTarget
	KindResourceHeap
	kindCount
)

func (k Kind) String() string {
	switch k {
	case KindBuffer:
		return "buffer"
	case KindTexture:
		return "texture"
	case KindSampler:
		return "sampler"
	case KindRenderTarget:
		return "render_target"
	case KindResourceHeap:
		return "resource_heap"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

type buffer struct {
	desc   gpu.BufferDescriptor
	data   []byte
	mapped bool
}

type texture struct {
	desc   gpu.TextureDescriptor
	pixels []byte
}

type heap struct {
	layout   gpu.HeapLayout
	bindings []gpu.Binding
}

// Backend is the in-memory backend. It is not safe for concurrent use.
type Backend struct {
	nextID  uint64
	buffers map[uint64]*buffer
	texs    map[uint64]*texture
	smps    map[uint64]gpu.SamplerDescriptor
	targets map[uint64]gpu.RenderTargetDescriptor
	heaps   map[uint64]*heap

	created [kindCount]int
	failOn  map[Kind]error
}

var _ gpu.Backend = &Backend{}

// New creates an empty Backend.
func New() *Backend {
	return &Backend{
		buffers: make(map[uint64]*buffer),
		texs:    make(map[uint64]*texture),
		smps:    make(map[uint64]gpu.SamplerDescriptor),
		targets: make(map[uint64]gpu.RenderTargetDescriptor),
		heaps:   make(map[uint64]*heap),
		failOn:  make(map[Kind]error),
	}
}

// FailNext makes the next creation of kind k return err.
func (b *Backend) FailNext(k Kind, err error) {
	b.failOn[k] = err
}

func (b *Backend) take(k Kind) (uint64, error) {
	if err, ok := b.failOn[k]; ok {
		delete(b.failOn, k)
		return 0, err
	}
	b.nextID++
	b.created[k]++
	return b.nextID, nil
}

func (b *Backend) CreateBuffer(desc gpu.BufferDescriptor, initial []byte) (gpu.Buffer, error) {
	if desc.Size == 0 {
		return gpu.Buffer{}, fmt.Errorf("memgpu: buffer %q has zero size", desc.Label)
	}
	if uint64(len(initial)) > desc.Size {
		return gpu.Buffer{}, fmt.Errorf("memgpu: buffer %q initial data %d exceeds size %d", desc.Label, len(initial), desc.Size)
	}
	id, err := b.take(KindBuffer)
	if err != nil {
		return gpu.Buffer{}, err
	}
	data := make([]byte, desc.Size)
	copy(data, initial)
	b.buffers[id] = &buffer{desc: desc, data: data}
	return gpu.Buffer{ID: id}, nil
}

func (b *Backend) buffer(buf gpu.Buffer, op string) *buffer {
	bb, ok := b.buffers[buf.ID]
	if !ok {
		panic(fmt.Sprintf("memgpu: %s on unknown or released buffer %d", op, buf.ID))
	}
	return bb
}

func (b *Backend) MapBuffer(buf gpu.Buffer, access gpu.MapAccess) ([]byte, error) {
	bb := b.buffer(buf, "MapBuffer")
	if bb.mapped {
		panic(fmt.Sprintf("memgpu: buffer %d (%s) is already mapped", buf.ID, bb.desc.Label))
	}
	bb.mapped = true
	return bb.data, nil
}

func (b *Backend) UnmapBuffer(buf gpu.Buffer) {
	bb := b.buffer(buf, "UnmapBuffer")
	if !bb.mapped {
		panic(fmt.Sprintf("memgpu: buffer %d (%s) is not mapped", buf.ID, bb.desc.Label))
	}
	bb.mapped = false
}

func (b *Backend) WriteBuffer(buf gpu.Buffer, offset uint64, data []byte) {
	bb := b.buffer(buf, "WriteBuffer")
	if bb.mapped {
		panic(fmt.Sprintf("memgpu: WriteBuffer on mapped buffer %d (%s)", buf.ID, bb.desc.Label))
	}
	if offset+uint64(len(data)) > uint64(len(bb.data)) {
		panic(fmt.Sprintf("memgpu: WriteBuffer of %d bytes at %d overflows buffer %d (%d bytes)", len(data), offset, buf.ID, len(bb.data)))
	}
	copy(bb.data[offset:], data)
}

func (b *Backend) CreateTexture(desc gpu.TextureDescriptor, pixels []byte) (gpu.Texture, error) {
	if desc.Width == 0 || desc.Height == 0 {
		return gpu.Texture{}, fmt.Errorf("memgpu: texture %q has zero extent", desc.Label)
	}
	if want := int(desc.Width * desc.Height * 4); pixels != nil && len(pixels) != want {
		return gpu.Texture{}, fmt.Errorf("memgpu: texture %q expects %d bytes, got %d", desc.Label, want, len(pixels))
	}
	id, err := b.take(KindTexture)
	if err != nil {
		return gpu.Texture{}, err
	}
	b.texs[id] = &texture{desc: desc, pixels: append([]byte(nil), pixels...)}
	return gpu.Texture{ID: id}, nil
}

func (b *Backend) CreateSampler(desc gpu.SamplerDescriptor) (gpu.Sampler, error) {
	id, err := b.take(KindSampler)
	if err != nil {
		return gpu.Sampler{}, err
	}
	b.smps[id] = desc
	return gpu.Sampler{ID: id}, nil
}

func (b *Backend) CreateRenderTarget(desc gpu.RenderTargetDescriptor) (gpu.RenderTarget, error) {
	if desc.Width == 0 || desc.Height == 0 || desc.Layers == 0 {
		return gpu.RenderTarget{}, fmt.Errorf("memgpu: render target %q has zero extent", desc.Label)
	}
	if desc.Cube && desc.Layers != 6 {
		return gpu.RenderTarget{}, fmt.Errorf("memgpu: cube render target %q needs 6 layers, got %d", desc.Label, desc.Layers)
	}
	id, err := b.take(KindRenderTarget)
	if err != nil {
		return gpu.RenderTarget{}, err
	}
	b.targets[id] = desc
	return gpu.RenderTarget{ID: id}, nil
}

func (b *Backend) CreateResourceHeap(layout gpu.HeapLayout, bindings []gpu.Binding) (gpu.ResourceHeap, error) {
	if err := layout.Validate(bindings); err != nil {
		return gpu.ResourceHeap{}, fmt.Errorf("memgpu: %w", err)
	}
	for _, bd := range bindings {
		switch {
		case bd.Buffer.Valid():
			b.buffer(bd.Buffer, "CreateResourceHeap")
		case bd.Texture.Valid():
			if _, ok := b.texs[bd.Texture.ID]; !ok {
				panic(fmt.Sprintf("memgpu: heap %q binds released texture %d", layout.Name, bd.Texture.ID))
			}
		case bd.Sampler.Valid():
			if _, ok := b.smps[bd.Sampler.ID]; !ok {
				panic(fmt.Sprintf("memgpu: heap %q binds released sampler %d", layout.Name, bd.Sampler.ID))
			}
		}
	}
	id, err := b.take(KindResourceHeap)
	if err != nil {
		return gpu.ResourceHeap{}, err
	}
	b.heaps[id] = &heap{layout: layout, bindings: append([]gpu.Binding(nil), bindings...)}
	return gpu.ResourceHeap{ID: id}, nil
}

func (b *Backend) ReleaseBuffer(buf gpu.Buffer) {
	bb, ok := b.buffers[buf.ID]
	if !ok {
		panic(fmt.Sprintf("memgpu: double release of buffer %d", buf.ID))
	}
	if bb.mapped {
		panic(fmt.Sprintf("memgpu: release of mapped buffer %d (%s)", buf.ID, bb.desc.Label))
	}
	delete(b.buffers, buf.ID)
}

func (b *Backend) ReleaseTexture(tex gpu.Texture) {
	if _, ok := b.texs[tex.ID]; !ok {
		panic(fmt.Sprintf("memgpu: double release of texture %d", tex.ID))
	}
	delete(b.texs, tex.ID)
}

func (b *Backend) ReleaseSampler(s gpu.Sampler) {
	if _, ok := b.smps[s.ID]; !ok {
		panic(fmt.Sprintf("memgpu: double release of sampler %d", s.ID))
	}
	delete(b.smps, s.ID)
}

func (b *Backend) ReleaseRenderTarget(rt gpu.RenderTarget) {
	if _, ok := b.targets[rt.ID]; !ok {
		panic(fmt.Sprintf("memgpu: double release of render target %d", rt.ID))
	}
	delete(b.targets, rt.ID)
}

func (b *Backend) ReleaseResourceHeap(h gpu.ResourceHeap) {
	if _, ok := b.heaps[h.ID]; !ok {
		panic(fmt.Sprintf("memgpu: double release of resource heap %d", h.ID))
	}
	delete(b.heaps, h.ID)
}

// Live returns the number of live handles of kind k.
func (b *Backend) Live(k Kind) int {
	switch k {
	case KindBuffer:
		return len(b.buffers)
	case KindTexture:
		return len(b.texs)
	case KindSampler:
		return len(b.smps)
	case KindRenderTarget:
		return len(b.targets)
	case KindResourceHeap:
		return len(b.heaps)
	}
	return 0
}

// Created returns the number of handles of kind k created over the backend's lifetime.
func (b *Backend) Created(k Kind) int {
	return b.created[k]
}

// LiveCounts returns the live handle count of every kind keyed by kind name.
func (b *Backend) LiveCounts() map[string]int {
	out := make(map[string]int, kindCount)
	for k := KindBuffer; k < kindCount; k++ {
		out[k.String()] = b.Live(k)
	}
	return out
}

// BufferData returns the current contents of buf. The slice aliases backend memory.
func (b *Backend) BufferData(buf gpu.Buffer) []byte {
	return b.buffer(buf, "BufferData").data
}

// IsMapped reports whether buf currently has an open map window.
func (b *Backend) IsMapped(buf gpu.Buffer) bool {
	return b.buffer(buf, "IsMapped").mapped
}

// HeapBindings returns the bindings a heap was created with.
func (b *Backend) HeapBindings(h gpu.ResourceHeap) []gpu.Binding {
	hp, ok := b.heaps[h.ID]
	if !ok {
		panic(fmt.Sprintf("memgpu: HeapBindings on unknown or released heap %d", h.ID))
	}
	return hp.bindings
}

// HeapAlive reports whether h was created and not yet released.
func (b *Backend) HeapAlive(h gpu.ResourceHeap) bool {
	_, ok := b.heaps[h.ID]
	return ok
}

// TextureSize returns the extent a texture was created with.
func (b *Backend) TextureSize(tex gpu.Texture) (uint32, uint32) {
	t, ok := b.texs[tex.ID]
	if !ok {
		panic(fmt.Sprintf("memgpu: TextureSize on unknown or released texture %d", tex.ID))
	}
	return t.desc.Width, t.desc.Height
}

// RenderTargetDesc returns the descriptor a render target was created with.
func (b *Backend) RenderTargetDesc(rt gpu.RenderTarget) gpu.RenderTargetDescriptor {
	d, ok := b.targets[rt.ID]
	if !ok {
		panic(fmt.Sprintf("memgpu: RenderTargetDesc on unknown or released target %d", rt.ID))
	}
	return d
}
