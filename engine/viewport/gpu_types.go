package viewport

import (
	"encoding/binary"
	"math"
	"unsafe"
)

// MaxLights is the number of point-light slots in a viewport uniform. Lights past the
// last slot are not uploaded.
const MaxLights = 32

const (
	// ViewOffset is the byte offset of the view matrix in the viewport uniform.
	ViewOffset = 0
	// ProjectionOffset is the byte offset of the projection matrix.
	ProjectionOffset = 64
	// LightsOffset is the byte offset of the first light slot.
	LightsOffset = 128
	// GPUPointLightSize is the byte size of one light slot.
	GPUPointLightSize = 32
	// GPUViewportSize is the byte size of the whole viewport uniform.
	GPUViewportSize = LightsOffset + MaxLights*GPUPointLightSize
)

// GPUPointLight is one light slot of the viewport uniform.
// Layout (WGSL uniform):
//
//	struct PointLight {
//	    position: vec3<f32>,  // offset  0
//	    distance: f32,        // offset 12
//	    color: vec3<f32>,     // offset 16
//	    intensity: f32,       // offset 28
//	}
type GPUPointLight struct {
	Position  [3]float32
	Distance  float32
	Color     [3]float32
	Intensity float32
}

// Size returns the size of the GPUPointLight struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (32)
func (g *GPUPointLight) Size() int {
	return int(unsafe.Sizeof(*g))
}

// MarshalInto writes the light into buf, which must hold at least 32 bytes.
//
// Parameters:
//   - buf: destination slice positioned at the light slot
func (g *GPUPointLight) MarshalInto(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(g.Position[0]))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(g.Position[1]))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(g.Position[2]))
	binary.LittleEndian.PutUint32(buf[12:16], math.Float32bits(g.Distance))
	binary.LittleEndian.PutUint32(buf[16:20], math.Float32bits(g.Color[0]))
	binary.LittleEndian.PutUint32(buf[20:24], math.Float32bits(g.Color[1]))
	binary.LittleEndian.PutUint32(buf[24:28], math.Float32bits(g.Color[2]))
	binary.LittleEndian.PutUint32(buf[28:32], math.Float32bits(g.Intensity))
}

// ReadPointLight decodes light slot i from a viewport uniform.
//
// Parameters:
//   - buf: the viewport uniform contents
//   - i: the slot index
//
// Returns:
//   - GPUPointLight: the decoded light
func ReadPointLight(buf []byte, i int) GPUPointLight {
	b := buf[LightsOffset+i*GPUPointLightSize:]
	f := func(off int) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(b[off:])) }
	return GPUPointLight{
		Position:  [3]float32{f(0), f(4), f(8)},
		Distance:  f(12),
		Color:     [3]float32{f(16), f(20), f(24)},
		Intensity: f(28),
	}
}
