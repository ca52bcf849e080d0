package material

import (
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUMaterialSize is the byte size of the material uniform buffer.
const GPUMaterialSize = 16

// GPUMaterial is the GPU-aligned material uniform.
// Layout (WGSL uniform):
//
//	struct Material {
//	    diffuse: vec4<f32>, // offset 0
//	}
type GPUMaterial struct {
	Diffuse [4]float32
}

// Size returns the size of the GPUMaterial struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (16)
func (g *GPUMaterial) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUMaterial struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 16-byte buffer ready for GPU upload
func (g *GPUMaterial) Marshal() []byte {
	buf := make([]byte, GPUMaterialSize)
	for i, c := range g.Diffuse {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(c))
	}
	return buf
}
