package gpu

import "fmt"

// BindingKind is the kind of resource occupying a heap slot.
type BindingKind int

const (
	BindingUniformBuffer BindingKind = iota
	BindingSampler
	BindingTexture
)

func (k BindingKind) String() string {
	switch k {
	case BindingUniformBuffer:
		return "uniform"
	case BindingSampler:
		return "sampler"
	case BindingTexture:
		return "texture"
	default:
		return fmt.Sprintf("BindingKind(%d)", int(k))
	}
}

// LayoutEntry declares one slot of a heap layout.
type LayoutEntry struct {
	Slot uint32
	Kind BindingKind
	// MinSize is the minimum byte size of a uniform binding.
	MinSize uint64
}

// HeapLayout names a fixed set of binding slots. Backends may cache native layout
// objects by Name, so two layouts with the same Name must declare the same entries.
type HeapLayout struct {
	Name    string
	Entries []LayoutEntry
}

// Binding binds one resource to a heap slot. Exactly one of Buffer, Sampler and Texture
// is set, according to the layout entry's kind.
type Binding struct {
	Slot    uint32
	Buffer  Buffer
	Sampler Sampler
	Texture Texture
}

// BufferBinding binds a uniform buffer to slot.
func BufferBinding(slot uint32, b Buffer) Binding {
	return Binding{Slot: slot, Buffer: b}
}

// SamplerBinding binds a sampler to slot.
func SamplerBinding(slot uint32, s Sampler) Binding {
	return Binding{Slot: slot, Sampler: s}
}

// TextureBinding binds a texture to slot.
func TextureBinding(slot uint32, t Texture) Binding {
	return Binding{Slot: slot, Texture: t}
}

// Validate checks that bindings cover every slot of the layout with the right kind.
//
// Parameters:
//   - bindings: the bindings to check
//
// Returns:
//   - error: the first mismatch found, or nil
func (l HeapLayout) Validate(bindings []Binding) error {
	if len(bindings) != len(l.Entries) {
		return fmt.Errorf("heap layout %q: %d bindings for %d slots", l.Name, len(bindings), len(l.Entries))
	}
	for _, entry := range l.Entries {
		var found *Binding
		for i := range bindings {
			if bindings[i].Slot == entry.Slot {
				found = &bindings[i]
				break
			}
		}
		if found == nil {
			return fmt.Errorf("heap layout %q: slot %d unbound", l.Name, entry.Slot)
		}
		var ok bool
		switch entry.Kind {
		case BindingUniformBuffer:
			ok = found.Buffer.Valid()
		case BindingSampler:
			ok = found.Sampler.Valid()
		case BindingTexture:
			ok = found.Texture.Valid()
		}
		if !ok {
			return fmt.Errorf("heap layout %q: slot %d needs a valid %s", l.Name, entry.Slot, entry.Kind)
		}
	}
	return nil
}
