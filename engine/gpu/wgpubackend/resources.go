package wgpubackend

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/Carmen-Shannon/oxy-gpu/common"
	"github.com/Carmen-Shannon/oxy-gpu/engine/gpu"
)

func bufferUsage(u gpu.BufferUsage) wgpu.BufferUsage {
	var out wgpu.BufferUsage
	if u&gpu.BufferUsageVertex != 0 {
		out |= wgpu.BufferUsageVertex
	}
	if u&gpu.BufferUsageIndex != 0 {
		out |= wgpu.BufferUsageIndex
	}
	if u&gpu.BufferUsageUniform != 0 {
		out |= wgpu.BufferUsageUniform
	}
	if u&gpu.BufferUsageStorage != 0 {
		out |= wgpu.BufferUsageStorage
	}
	// Every upload goes through the queue.
	return out | wgpu.BufferUsageCopyDst
}

func textureFormat(f gpu.TextureFormat) wgpu.TextureFormat {
	switch f {
	case gpu.TextureFormatDepth32:
		return wgpu.TextureFormatDepth32Float
	default:
		return wgpu.TextureFormatRGBA8UnormSrgb
	}
}

func (b *Backend) CreateBuffer(desc gpu.BufferDescriptor, initial []byte) (gpu.Buffer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if desc.Size == 0 {
		return gpu.Buffer{}, fmt.Errorf("buffer %q: zero size", desc.Label)
	}
	if uint64(len(initial)) > desc.Size {
		return gpu.Buffer{}, fmt.Errorf("buffer %q: %d initial bytes exceed size %d", desc.Label, len(initial), desc.Size)
	}
	// WebGPU requires 4-byte aligned buffer sizes and copy lengths.
	size := (desc.Size + 3) &^ 3
	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: desc.Label,
		Size:  size,
		Usage: bufferUsage(desc.Usage),
	})
	if err != nil {
		return gpu.Buffer{}, err
	}

	rec := &buffer{buf: buf, size: desc.Size}
	// Uniform buffers keep a CPU mirror backing their map windows.
	if desc.Usage&gpu.BufferUsageUniform != 0 {
		rec.mirror = make([]byte, size)
		copy(rec.mirror, initial)
		rec.shadow = append([]byte(nil), rec.mirror...)
	}
	if len(initial) > 0 {
		b.queue.WriteBuffer(buf, 0, padded(initial))
	}
	id := b.id()
	b.buffers[id] = rec
	return gpu.Buffer{ID: id}, nil
}

// padded returns data extended with zeros to a multiple of four bytes.
func padded(data []byte) []byte {
	if len(data)%4 == 0 {
		return data
	}
	out := make([]byte, (len(data)+3)&^3)
	copy(out, data)
	return out
}

func (b *Backend) buffer(buf gpu.Buffer, op string) *buffer {
	rec, ok := b.buffers[buf.ID]
	if !ok {
		panic(fmt.Sprintf("wgpubackend: %s on unknown or released buffer %d", op, buf.ID))
	}
	return rec
}

func (b *Backend) MapBuffer(buf gpu.Buffer, access gpu.MapAccess) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	rec := b.buffer(buf, "MapBuffer")
	if rec.mapped {
		panic(fmt.Sprintf("wgpubackend: buffer %d is already mapped", buf.ID))
	}
	if rec.mirror == nil {
		return nil, fmt.Errorf("buffer %d is not mappable", buf.ID)
	}
	rec.mapped = true
	return rec.mirror[:rec.size], nil
}

func (b *Backend) UnmapBuffer(buf gpu.Buffer) {
	b.mu.Lock()
	defer b.mu.Unlock()

	rec := b.buffer(buf, "UnmapBuffer")
	if !rec.mapped {
		panic(fmt.Sprintf("wgpubackend: buffer %d is not mapped", buf.ID))
	}
	rec.mapped = false
	lo, hi := dirtySpan(rec.shadow, rec.mirror)
	if lo == hi {
		return
	}
	b.queue.WriteBuffer(rec.buf, uint64(lo), rec.mirror[lo:hi])
	copy(rec.shadow[lo:hi], rec.mirror[lo:hi])
}

// dirtySpan returns the 4-byte aligned range [lo, hi) covering every byte where cur
// differs from prev. Both slices have the same length, a multiple of four. lo == hi
// when nothing changed.
func dirtySpan(prev, cur []byte) (lo, hi int) {
	for lo < len(cur) && cur[lo] == prev[lo] {
		lo++
	}
	if lo == len(cur) {
		return 0, 0
	}
	hi = len(cur)
	for cur[hi-1] == prev[hi-1] {
		hi--
	}
	return lo &^ 3, (hi + 3) &^ 3
}

func (b *Backend) WriteBuffer(buf gpu.Buffer, offset uint64, data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()

	rec := b.buffer(buf, "WriteBuffer")
	if rec.mapped {
		panic(fmt.Sprintf("wgpubackend: WriteBuffer on mapped buffer %d", buf.ID))
	}
	if offset+uint64(len(data)) > rec.size {
		panic(fmt.Sprintf("wgpubackend: write of %d bytes at %d overflows buffer %d", len(data), offset, buf.ID))
	}
	if rec.mirror != nil {
		copy(rec.mirror[offset:], data)
		copy(rec.shadow[offset:], data)
	}
	b.queue.WriteBuffer(rec.buf, offset, padded(data))
}

func (b *Backend) CreateTexture(desc gpu.TextureDescriptor, pixels []byte) (gpu.Texture, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if desc.Width == 0 || desc.Height == 0 {
		return gpu.Texture{}, fmt.Errorf("texture %q: zero extent", desc.Label)
	}
	size := wgpu.Extent3D{Width: desc.Width, Height: desc.Height, DepthOrArrayLayers: 1}
	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         desc.Label,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension:     wgpu.TextureDimension2D,
		Size:          size,
		Format:        textureFormat(desc.Format),
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return gpu.Texture{}, err
	}
	if len(pixels) > 0 {
		b.queue.WriteTexture(
			&wgpu.ImageCopyTexture{
				Texture:  tex,
				MipLevel: 0,
				Origin:   wgpu.Origin3D{},
				Aspect:   wgpu.TextureAspectAll,
			},
			pixels,
			&wgpu.TextureDataLayout{
				Offset:       0,
				BytesPerRow:  desc.Width * 4,
				RowsPerImage: desc.Height,
			},
			&size,
		)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return gpu.Texture{}, err
	}

	id := b.id()
	b.textures[id] = &texture{tex: tex, view: view}
	return gpu.Texture{ID: id}, nil
}

func (b *Backend) CreateSampler(desc gpu.SamplerDescriptor) (gpu.Sampler, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var filter wgpu.FilterMode
	if desc.Linear {
		filter = wgpu.FilterModeLinear
	}
	address := wgpu.AddressModeClampToEdge
	if desc.Repeat {
		address = wgpu.AddressModeRepeat
	}
	var compare wgpu.CompareFunction
	if desc.Compare {
		compare = wgpu.CompareFunctionLess
	}
	s, err := b.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         desc.Label,
		AddressModeU:  address,
		AddressModeV:  address,
		AddressModeW:  address,
		MagFilter:     common.Coalesce(filter, wgpu.FilterModeNearest),
		MinFilter:     common.Coalesce(filter, wgpu.FilterModeNearest),
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		LodMinClamp:   0,
		LodMaxClamp:   32,
		Compare:       compare,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return gpu.Sampler{}, err
	}
	id := b.id()
	b.samplers[id] = s
	return gpu.Sampler{ID: id}, nil
}

func (b *Backend) CreateRenderTarget(desc gpu.RenderTargetDescriptor) (gpu.RenderTarget, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	layers := common.Coalesce(desc.Layers, 1)
	if desc.Cube && layers != 6 {
		return gpu.RenderTarget{}, fmt.Errorf("render target %q: cube needs 6 layers, got %d", desc.Label, layers)
	}
	if desc.Width == 0 || desc.Height == 0 {
		return gpu.RenderTarget{}, fmt.Errorf("render target %q: zero extent", desc.Label)
	}
	format := textureFormat(desc.Format)
	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: desc.Label,
		Size: wgpu.Extent3D{
			Width:              desc.Width,
			Height:             desc.Height,
			DepthOrArrayLayers: layers,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        format,
		Usage:         wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding,
	})
	if err != nil {
		return gpu.RenderTarget{}, err
	}

	dim := wgpu.TextureViewDimension2DArray
	if desc.Cube {
		dim = wgpu.TextureViewDimensionCube
	}
	rt := &renderTarget{tex: tex, desc: desc}
	rt.view, err = tex.CreateView(&wgpu.TextureViewDescriptor{
		Label:           desc.Label + " view",
		Format:          format,
		Dimension:       dim,
		MipLevelCount:   1,
		ArrayLayerCount: layers,
		Aspect:          wgpu.TextureAspectAll,
	})
	if err != nil {
		tex.Release()
		return gpu.RenderTarget{}, err
	}
	for i := uint32(0); i < layers; i++ {
		face, err := tex.CreateView(&wgpu.TextureViewDescriptor{
			Label:           fmt.Sprintf("%s layer %d", desc.Label, i),
			Format:          format,
			Dimension:       wgpu.TextureViewDimension2D,
			MipLevelCount:   1,
			BaseArrayLayer:  i,
			ArrayLayerCount: 1,
			Aspect:          wgpu.TextureAspectAll,
		})
		if err != nil {
			rt.release()
			return gpu.RenderTarget{}, err
		}
		rt.faces = append(rt.faces, face)
	}

	id := b.id()
	b.targets[id] = rt
	return gpu.RenderTarget{ID: id}, nil
}

// layout returns the bind group layout of l, creating and caching it on first use.
func (b *Backend) layout(l gpu.HeapLayout) (*wgpu.BindGroupLayout, error) {
	if cached, ok := b.layouts[l.Name]; ok {
		return cached, nil
	}
	entries := make([]wgpu.BindGroupLayoutEntry, len(l.Entries))
	for i, e := range l.Entries {
		entry := wgpu.BindGroupLayoutEntry{
			Binding:    e.Slot,
			Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
		}
		switch e.Kind {
		case gpu.BindingUniformBuffer:
			entry.Buffer.Type = wgpu.BufferBindingTypeUniform
			entry.Buffer.MinBindingSize = e.MinSize
		case gpu.BindingSampler:
			entry.Sampler.Type = wgpu.SamplerBindingTypeFiltering
		case gpu.BindingTexture:
			entry.Texture.SampleType = wgpu.TextureSampleTypeFloat
			entry.Texture.ViewDimension = wgpu.TextureViewDimension2D
		}
		entries[i] = entry
	}
	created, err := b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label:   l.Name + " layout",
		Entries: entries,
	})
	if err != nil {
		return nil, err
	}
	b.layouts[l.Name] = created
	return created, nil
}

func (b *Backend) CreateResourceHeap(layout gpu.HeapLayout, bindings []gpu.Binding) (gpu.ResourceHeap, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := layout.Validate(bindings); err != nil {
		return gpu.ResourceHeap{}, err
	}
	bgl, err := b.layout(layout)
	if err != nil {
		return gpu.ResourceHeap{}, err
	}

	entries := make([]wgpu.BindGroupEntry, len(bindings))
	for i, bd := range bindings {
		entry := wgpu.BindGroupEntry{Binding: bd.Slot}
		switch {
		case bd.Buffer.Valid():
			entry.Buffer = b.buffer(bd.Buffer, "CreateResourceHeap").buf
			entry.Size = wgpu.WholeSize
		case bd.Sampler.Valid():
			s, ok := b.samplers[bd.Sampler.ID]
			if !ok {
				panic(fmt.Sprintf("wgpubackend: heap binds released sampler %d", bd.Sampler.ID))
			}
			entry.Sampler = s
		case bd.Texture.Valid():
			t, ok := b.textures[bd.Texture.ID]
			if !ok {
				panic(fmt.Sprintf("wgpubackend: heap binds released texture %d", bd.Texture.ID))
			}
			entry.TextureView = t.view
		}
		entries[i] = entry
	}
	group, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   layout.Name + " heap",
		Layout:  bgl,
		Entries: entries,
	})
	if err != nil {
		return gpu.ResourceHeap{}, err
	}
	id := b.id()
	b.heaps[id] = group
	return gpu.ResourceHeap{ID: id}, nil
}

func (b *Backend) ReleaseBuffer(buf gpu.Buffer) {
	b.mu.Lock()
	defer b.mu.Unlock()

	rec := b.buffer(buf, "ReleaseBuffer")
	if rec.mapped {
		panic(fmt.Sprintf("wgpubackend: releasing mapped buffer %d", buf.ID))
	}
	rec.buf.Release()
	delete(b.buffers, buf.ID)
}

func (b *Backend) ReleaseTexture(tex gpu.Texture) {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, ok := b.textures[tex.ID]
	if !ok {
		panic(fmt.Sprintf("wgpubackend: ReleaseTexture on unknown or released texture %d", tex.ID))
	}
	t.view.Release()
	t.tex.Release()
	delete(b.textures, tex.ID)
}

func (b *Backend) ReleaseSampler(s gpu.Sampler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	smp, ok := b.samplers[s.ID]
	if !ok {
		panic(fmt.Sprintf("wgpubackend: ReleaseSampler on unknown or released sampler %d", s.ID))
	}
	smp.Release()
	delete(b.samplers, s.ID)
}

func (b *Backend) ReleaseRenderTarget(rt gpu.RenderTarget) {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, ok := b.targets[rt.ID]
	if !ok {
		panic(fmt.Sprintf("wgpubackend: ReleaseRenderTarget on unknown or released target %d", rt.ID))
	}
	t.release()
	delete(b.targets, rt.ID)
}

func (b *Backend) ReleaseResourceHeap(h gpu.ResourceHeap) {
	b.mu.Lock()
	defer b.mu.Unlock()

	group, ok := b.heaps[h.ID]
	if !ok {
		panic(fmt.Sprintf("wgpubackend: ReleaseResourceHeap on unknown or released heap %d", h.ID))
	}
	group.Release()
	delete(b.heaps, h.ID)
}
