package loader

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// loadOBJFile opens and parses a Wavefront OBJ file.
func loadOBJFile(path string) ([]Vertex, []uint32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	return ParseOBJ(f)
}

// ParseOBJ parses Wavefront OBJ geometry from r.
// Only v, vt, vn and f statements are read; everything else is ignored. Faces with more
// than three corners are fan-triangulated and negative (relative) indices are supported.
// A vertex shared by several faces with the same position, uv and normal is emitted once.
//
// Parameters:
//   - r: the OBJ text
//
// Returns:
//   - []Vertex: the unique vertices in first-use order
//   - []uint32: triangle list indices
//   - error: a parse error annotated with its line number, or ErrEmptyMesh
func ParseOBJ(r io.Reader) ([]Vertex, []uint32, error) {
	var (
		positions [][3]float32
		normals   [][3]float32
		uvs       [][2]float32
		vertices  []Vertex
		indices   []uint32
	)
	unique := make(map[Vertex]uint32)

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		switch fields[0] {
		case "v":
			v, err := parseFloats(fields[1:], 3)
			if err != nil {
				return nil, nil, fmt.Errorf("obj line %d: %w", line, err)
			}
			positions = append(positions, [3]float32{v[0], v[1], v[2]})
		case "vn":
			v, err := parseFloats(fields[1:], 3)
			if err != nil {
				return nil, nil, fmt.Errorf("obj line %d: %w", line, err)
			}
			normals = append(normals, [3]float32{v[0], v[1], v[2]})
		case "vt":
			v, err := parseFloats(fields[1:], 2)
			if err != nil {
				return nil, nil, fmt.Errorf("obj line %d: %w", line, err)
			}
			uvs = append(uvs, [2]float32{v[0], v[1]})
		case "f":
			if len(fields) < 4 {
				return nil, nil, fmt.Errorf("obj line %d: face needs at least 3 vertices", line)
			}
			corners := make([]uint32, 0, len(fields)-1)
			for _, ref := range fields[1:] {
				v, err := resolveCorner(ref, positions, uvs, normals)
				if err != nil {
					return nil, nil, fmt.Errorf("obj line %d: %w", line, err)
				}
				idx, ok := unique[v]
				if !ok {
					idx = uint32(len(vertices))
					vertices = append(vertices, v)
					unique[v] = idx
				}
				corners = append(corners, idx)
			}
			for i := 1; i+1 < len(corners); i++ {
				indices = append(indices, corners[0], corners[i], corners[i+1])
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}
	if len(indices) == 0 {
		return nil, nil, ErrEmptyMesh
	}
	return vertices, indices, nil
}

func parseFloats(fields []string, n int) ([]float32, error) {
	if len(fields) < n {
		return nil, fmt.Errorf("expected %d components, got %d", n, len(fields))
	}
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		f, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return nil, fmt.Errorf("bad number %q: %w", fields[i], err)
		}
		out[i] = float32(f)
	}
	return out, nil
}

// resolveCorner turns one face corner reference (p, p/t, p//n or p/t/n) into a vertex.
func resolveCorner(ref string, positions [][3]float32, uvs [][2]float32, normals [][3]float32) (Vertex, error) {
	parts := strings.Split(ref, "/")
	var v Vertex

	pi, err := objIndex(parts[0], len(positions))
	if err != nil {
		return v, fmt.Errorf("position %w", err)
	}
	v.Position = positions[pi]

	if len(parts) > 1 && parts[1] != "" {
		ti, err := objIndex(parts[1], len(uvs))
		if err != nil {
			return v, fmt.Errorf("uv %w", err)
		}
		v.UV = uvs[ti]
	}
	if len(parts) > 2 && parts[2] != "" {
		ni, err := objIndex(parts[2], len(normals))
		if err != nil {
			return v, fmt.Errorf("normal %w", err)
		}
		v.Normal = normals[ni]
	}
	return v, nil
}

// objIndex converts a 1-based or negative relative OBJ index into a 0-based one.
func objIndex(s string, count int) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("index %q: %w", s, err)
	}
	switch {
	case n > 0 && n <= count:
		return n - 1, nil
	case n < 0 && -n <= count:
		return count + n, nil
	default:
		return 0, fmt.Errorf("index %d out of range (%d defined)", n, count)
	}
}
