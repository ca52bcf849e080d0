package loader

import (
	"encoding/binary"
	"math"
)

// VertexSize is the byte size of one marshalled Vertex.
const VertexSize = 32

// Vertex is one interleaved mesh vertex as laid out in the vertex buffer:
// position (12 bytes), normal (12 bytes), uv (8 bytes).
type Vertex struct {
	Position [3]float32
	Normal   [3]float32
	UV       [2]float32
}

// MarshalVertices packs vertices little-endian for upload.
//
// Parameters:
//   - vertices: the vertices to pack
//
// Returns:
//   - []byte: len(vertices)*VertexSize bytes
func MarshalVertices(vertices []Vertex) []byte {
	buf := make([]byte, len(vertices)*VertexSize)
	for i, v := range vertices {
		off := i * VertexSize
		floats := [8]float32{
			v.Position[0], v.Position[1], v.Position[2],
			v.Normal[0], v.Normal[1], v.Normal[2],
			v.UV[0], v.UV[1],
		}
		for j, f := range floats {
			binary.LittleEndian.PutUint32(buf[off+j*4:], math.Float32bits(f))
		}
	}
	return buf
}

// MarshalIndices packs uint32 indices little-endian for upload.
func MarshalIndices(indices []uint32) []byte {
	buf := make([]byte, len(indices)*4)
	for i, idx := range indices {
		binary.LittleEndian.PutUint32(buf[i*4:], idx)
	}
	return buf
}

// Image is a decoded 2D image in tightly packed, row-major RGBA8.
type Image struct {
	Width  uint32
	Height uint32
	Pixels []byte
}
