package model

import (
	"github.com/Carmen-Shannon/oxy-gpu/engine/gpu"
	"github.com/Carmen-Shannon/oxy-gpu/engine/material"
	"github.com/Carmen-Shannon/oxy-gpu/engine/viewport"
)

// Heap binding slots of a model's resource heap.
const (
	BindingViewport uint32 = iota
	BindingMaterial
	BindingTransform
	BindingSampler
	BindingTexture
)

// HeapLayout is the layout shared by every model resource heap.
var HeapLayout = gpu.HeapLayout{
	Name: "model",
	Entries: []gpu.LayoutEntry{
		{Slot: BindingViewport, Kind: gpu.BindingUniformBuffer, MinSize: viewport.GPUViewportSize},
		{Slot: BindingMaterial, Kind: gpu.BindingUniformBuffer, MinSize: material.GPUMaterialSize},
		{Slot: BindingTransform, Kind: gpu.BindingUniformBuffer, MinSize: 64},
		{Slot: BindingSampler, Kind: gpu.BindingSampler},
		{Slot: BindingTexture, Kind: gpu.BindingTexture},
	},
}

// HandleSet is the set of handles a model heap binds. Two equal sets produce
// interchangeable heaps.
type HandleSet struct {
	Viewport  gpu.Buffer
	Material  gpu.Buffer
	Transform gpu.Buffer
	Sampler   gpu.Sampler
	Texture   gpu.Texture
}

// Complete reports whether every handle of the set is valid.
func (h HandleSet) Complete() bool {
	return h.Viewport.Valid() && h.Material.Valid() && h.Transform.Valid() &&
		h.Sampler.Valid() && h.Texture.Valid()
}

// Bindings returns the set as heap bindings in slot order.
func (h HandleSet) Bindings() []gpu.Binding {
	return []gpu.Binding{
		gpu.BufferBinding(BindingViewport, h.Viewport),
		gpu.BufferBinding(BindingMaterial, h.Material),
		gpu.BufferBinding(BindingTransform, h.Transform),
		gpu.SamplerBinding(BindingSampler, h.Sampler),
		gpu.TextureBinding(BindingTexture, h.Texture),
	}
}
