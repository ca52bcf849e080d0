package light

import (
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-gpu/common"
)

// ShadowNear is the near plane of every cube shadow face.
const ShadowNear float32 = 0.1

// GPUCubeShadowUniformSize is the byte size of the cube shadow uniform (six mat4x4<f32>).
const GPUCubeShadowUniformSize = 6 * 64

// cubeFaces lists the look direction and up vector of each cube face in the
// +X, -X, +Y, -Y, +Z, -Z layer order.
var cubeFaces = [6]struct{ dir, up [3]float32 }{
	{dir: [3]float32{1, 0, 0}, up: [3]float32{0, -1, 0}},
	{dir: [3]float32{-1, 0, 0}, up: [3]float32{0, -1, 0}},
	{dir: [3]float32{0, 1, 0}, up: [3]float32{0, 0, 1}},
	{dir: [3]float32{0, -1, 0}, up: [3]float32{0, 0, -1}},
	{dir: [3]float32{0, 0, 1}, up: [3]float32{0, -1, 0}},
	{dir: [3]float32{0, 0, -1}, up: [3]float32{0, -1, 0}},
}

// GPUCubeShadowUniform is the per-light uniform consumed by the shadow pass: one
// view-projection per cube face.
// Layout (WGSL uniform):
//
//	struct CubeShadow {
//	    face_vp: array<mat4x4<f32>, 6>, // offset 0, stride 64
//	}
type GPUCubeShadowUniform struct {
	FaceVP [6][16]float32
}

// Size returns the size of the GPUCubeShadowUniform struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (384)
func (u *GPUCubeShadowUniform) Size() int {
	return int(unsafe.Sizeof(*u))
}

// ComputeFaces builds the six 90 degree face view-projections for a point light at
// position whose reach is far.
//
// Parameters:
//   - position: world-space light position
//   - far: far plane distance, the light's distance
func (u *GPUCubeShadowUniform) ComputeFaces(position [3]float32, far float32) {
	if far <= ShadowNear {
		far = ShadowNear * 2
	}
	var proj, view [16]float32
	common.Perspective(proj[:], math.Pi/2, 1, ShadowNear, far)
	for i, face := range cubeFaces {
		center := [3]float32{
			position[0] + face.dir[0],
			position[1] + face.dir[1],
			position[2] + face.dir[2],
		}
		common.LookAt(view[:], position, center, face.up)
		common.Mul4(u.FaceVP[i][:], proj[:], view[:])
	}
}

// Marshal serializes the GPUCubeShadowUniform struct into a byte buffer suitable for
// GPU uniform upload.
//
// Returns:
//   - []byte: 384-byte buffer ready for GPU upload
func (u *GPUCubeShadowUniform) Marshal() []byte {
	buf := make([]byte, GPUCubeShadowUniformSize)
	for f := 0; f < 6; f++ {
		for i := 0; i < 16; i++ {
			binary.LittleEndian.PutUint32(buf[f*64+i*4:], math.Float32bits(u.FaceVP[f][i]))
		}
	}
	return buf
}
