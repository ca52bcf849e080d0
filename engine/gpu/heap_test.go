package gpu

import "testing"

func TestHeapLayoutValidate(t *testing.T) {
	layout := HeapLayout{
		Name: "test",
		Entries: []LayoutEntry{
			{Slot: 0, Kind: BindingUniformBuffer, MinSize: 16},
			{Slot: 1, Kind: BindingSampler},
			{Slot: 2, Kind: BindingTexture},
		},
	}
	good := []Binding{
		BufferBinding(0, Buffer{ID: 1}),
		SamplerBinding(1, Sampler{ID: 2}),
		TextureBinding(2, Texture{ID: 3}),
	}
	if err := layout.Validate(good); err != nil {
		t.Fatalf("Validate(good) = %v", err)
	}

	cases := map[string][]Binding{
		"missing slot": good[:2],
		"wrong kind": {
			BufferBinding(0, Buffer{ID: 1}),
			TextureBinding(1, Texture{ID: 2}),
			TextureBinding(2, Texture{ID: 3}),
		},
		"invalid handle": {
			BufferBinding(0, Buffer{}),
			SamplerBinding(1, Sampler{ID: 2}),
			TextureBinding(2, Texture{ID: 3}),
		},
	}
	for name, bindings := range cases {
		if err := layout.Validate(bindings); err == nil {
			t.Errorf("%s: Validate succeeded", name)
		}
	}
}
