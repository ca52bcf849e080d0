package model

import (
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-gpu/common"
)

// GPUModelData is the GPU-aligned transform uniform of one model.
// Layout (WGSL uniform):
//
//	struct ModelData {
//	    model: mat4x4<f32>, // offset 0
//	}
type GPUModelData struct {
	Model [16]float32 // offset 0: 4x4 model-to-world transform matrix (64 bytes)
}

// Size returns the size of the GPUModelData struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUModelData) Size() int {
	return int(unsafe.Sizeof(*g))
}

// FromTransform fills the model matrix from a decomposed transform.
//
// Parameters:
//   - t: the transform
func (g *GPUModelData) FromTransform(t Transform) {
	common.BuildModelMatrix(g.Model[:], t.Position, t.Rotation, t.Scale)
}

// Marshal serializes the GPUModelData struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 64-byte buffer ready for GPU upload.
func (g *GPUModelData) Marshal() []byte {
	buf := make([]byte, 64)
	for i := 0; i < 16; i++ {
		binary.LittleEndian.PutUint32(buf[i*4:(i+1)*4], math.Float32bits(g.Model[i]))
	}
	return buf
}
