// package gpu defines the graphics backend contract the resource managers are written
// against: opaque comparable handles, creation descriptors and the Backend interface.
// Concrete implementations live in the memgpu (headless) and wgpubackend (WebGPU) packages.
package gpu

// Buffer is an opaque handle to a GPU buffer. The zero value is not a valid buffer.
type Buffer struct{ ID uint64 }

// Texture is an opaque handle to a sampled GPU texture.
type Texture struct{ ID uint64 }

// Sampler is an opaque handle to a GPU sampler.
type Sampler struct{ ID uint64 }

// ResourceHeap is an opaque handle to a bundle of bindings used by one draw call
// (a descriptor set / bind group).
type ResourceHeap struct{ ID uint64 }

// RenderTarget is an opaque handle to an off-screen render target.
type RenderTarget struct{ ID uint64 }

// Valid reports whether the handle refers to a created buffer.
func (b Buffer) Valid() bool { return b.ID != 0 }

// Valid reports whether the handle refers to a created texture.
func (t Texture) Valid() bool { return t.ID != 0 }

// Valid reports whether the handle refers to a created sampler.
func (s Sampler) Valid() bool { return s.ID != 0 }

// Valid reports whether the handle refers to a created heap.
func (h ResourceHeap) Valid() bool { return h.ID != 0 }

// Valid reports whether the handle refers to a created render target.
func (r RenderTarget) Valid() bool { return r.ID != 0 }

// BufferUsage is a bit set describing how a buffer is bound.
type BufferUsage uint32

const (
	BufferUsageVertex BufferUsage = 1 << iota
	BufferUsageIndex
	BufferUsageUniform
	BufferUsageStorage
	BufferUsageCopyDst
)

// MapAccess selects the access mode of a mapped buffer window.
type MapAccess int

const (
	MapWrite MapAccess = iota
	MapRead
	MapReadWrite
)

// TextureFormat is the texel format of a texture or render target.
type TextureFormat int

const (
	TextureFormatRGBA8 TextureFormat = iota
	TextureFormatDepth32
)

// BufferDescriptor describes a buffer to create.
type BufferDescriptor struct {
	Label string
	Size  uint64
	Usage BufferUsage
}

// TextureDescriptor describes a 2D sampled texture to create.
type TextureDescriptor struct {
	Label  string
	Width  uint32
	Height uint32
	Format TextureFormat
}

// SamplerDescriptor describes a sampler to create.
type SamplerDescriptor struct {
	Label string
	// Linear selects linear filtering; nearest filtering otherwise.
	Linear bool
	// Repeat selects repeat addressing; clamp-to-edge otherwise.
	Repeat bool
	// Compare creates a depth comparison sampler.
	Compare bool
}

// RenderTargetDescriptor describes an off-screen render target.
type RenderTargetDescriptor struct {
	Label  string
	Width  uint32
	Height uint32
	// Layers is the number of array layers; 6 for a cube.
	Layers uint32
	Format TextureFormat
	// Cube marks a six-layer target as a cube map.
	Cube bool
}

// Backend is the graphics backend consumed by the resource managers.
// It is driven from a single goroutine. Create calls return an error when the device
// refuses the request; managers treat that as fatal.
type Backend interface {
	// CreateBuffer creates a buffer and uploads initial when non-nil.
	//
	// Parameters:
	//   - desc: the buffer descriptor
	//   - initial: optional initial contents (at most desc.Size bytes)
	//
	// Returns:
	//   - Buffer: the new buffer handle
	//   - error: error if the device refused the allocation
	CreateBuffer(desc BufferDescriptor, initial []byte) (Buffer, error)

	// MapBuffer opens the exclusive write window on buf and returns the mapped bytes.
	// The slice must not be used after UnmapBuffer. Mapping a buffer that is already
	// mapped is a caller error.
	//
	// Parameters:
	//   - buf: the buffer to map
	//   - access: the requested access mode
	//
	// Returns:
	//   - []byte: the mapped contents, len == buffer size
	//   - error: error if the buffer cannot be mapped
	MapBuffer(buf Buffer, access MapAccess) ([]byte, error)

	// UnmapBuffer closes the window opened by MapBuffer and makes the writes visible to the GPU.
	UnmapBuffer(buf Buffer)

	// WriteBuffer copies data into buf at offset through the queue.
	WriteBuffer(buf Buffer, offset uint64, data []byte)

	// CreateTexture creates a sampled texture and uploads the RGBA pixels.
	CreateTexture(desc TextureDescriptor, pixels []byte) (Texture, error)

	// CreateSampler creates a sampler.
	CreateSampler(desc SamplerDescriptor) (Sampler, error)

	// CreateRenderTarget creates an off-screen render target.
	CreateRenderTarget(desc RenderTargetDescriptor) (RenderTarget, error)

	// CreateResourceHeap bundles bindings according to layout.
	// Every slot of the layout must be bound with a resource of the matching kind.
	CreateResourceHeap(layout HeapLayout, bindings []Binding) (ResourceHeap, error)

	ReleaseBuffer(buf Buffer)
	ReleaseTexture(tex Texture)
	ReleaseSampler(s Sampler)
	ReleaseRenderTarget(rt RenderTarget)
	ReleaseResourceHeap(h ResourceHeap)
}
