// package loader decodes mesh and image assets from disk into CPU-side data ready for upload.
//
// Mesh files are Wavefront OBJ; images are anything the standard library or
// golang.org/x/image can decode. A Prefetcher can decode assets on a worker pool ahead of
// use; loaders consult its cache before touching the disk.
package loader

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
)

var (
	// ErrUnsupportedFormat is returned for file extensions no loader understands.
	ErrUnsupportedFormat = errors.New("unsupported asset format")
	// ErrEmptyMesh is returned when a mesh file contains no faces.
	ErrEmptyMesh = errors.New("mesh has no faces")
)

// MeshLoader loads indexed triangle meshes.
type MeshLoader interface {
	// LoadMesh imports the mesh at path. Every unique vertex appears once in the vertex slice.
	//
	// Parameters:
	//   - path: the mesh file path, resolved against the loader's root directory
	//
	// Returns:
	//   - []Vertex: the unique vertices
	//   - []uint32: triangle list indices into the vertices
	//   - error: error if the file cannot be read or parsed
	LoadMesh(path string) ([]Vertex, []uint32, error)
}

// ImageLoader loads 2D images as tightly packed RGBA8 pixels.
type ImageLoader interface {
	// LoadImage decodes the image at path.
	//
	// Parameters:
	//   - path: the image file path, resolved against the loader's root directory
	//
	// Returns:
	//   - Image: the decoded pixels
	//   - error: error if the file cannot be read or decoded
	LoadImage(path string) (Image, error)
}

// Loader loads both meshes and images and caches the decoded results by path.
type Loader interface {
	MeshLoader
	ImageLoader

	// Resolve joins path onto the loader's root directory. Absolute paths are returned unchanged.
	Resolve(path string) string

	// Forget drops the cached data for path so the next load reads the file again.
	Forget(path string)

	// Prefetch starts decoding the given files in the background. Without a Prefetcher
	// configured it does nothing.
	//
	// Parameters:
	//   - paths: asset paths, resolved against the loader's root directory
	Prefetch(paths ...string)
}

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	root     string
	cache    bool
	meshes   map[string]meshData
	images   map[string]Image
	prefetch *Prefetcher
	log      *zap.Logger
}

type meshData struct {
	vertices []Vertex
	indices  []uint32
}

var _ Loader = &loader{}

// NewLoader creates a new Loader with the provided options applied.
//
// Parameters:
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: the new loader
func NewLoader(options ...LoaderBuilderOption) Loader {
	l := &loader{
		cache:  true,
		meshes: make(map[string]meshData),
		images: make(map[string]Image),
		log:    zap.NewNop(),
	}
	for _, option := range options {
		option(l)
	}
	return l
}

func (l *loader) Resolve(path string) string {
	if l.root == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(l.root, path)
}

func (l *loader) LoadMesh(path string) ([]Vertex, []uint32, error) {
	l.mu.RLock()
	if cached, ok := l.meshes[path]; ok {
		l.mu.RUnlock()
		return cached.vertices, cached.indices, nil
	}
	l.mu.RUnlock()

	var (
		vertices []Vertex
		indices  []uint32
		err      error
	)
	if res, ok := l.prefetch.take(l.Resolve(path)); ok {
		vertices, indices, err = res.vertices, res.indices, res.err
	} else {
		l.prefetch.discard(l.Resolve(path))
		vertices, indices, err = l.decodeMesh(path)
	}
	if err != nil {
		return nil, nil, err
	}

	if l.cache {
		l.mu.Lock()
		l.meshes[path] = meshData{vertices: vertices, indices: indices}
		l.mu.Unlock()
	}
	l.log.Debug("mesh loaded", zap.String("path", path), zap.Int("vertices", len(vertices)), zap.Int("indices", len(indices)))
	return vertices, indices, nil
}

func (l *loader) LoadImage(path string) (Image, error) {
	l.mu.RLock()
	if cached, ok := l.images[path]; ok {
		l.mu.RUnlock()
		return cached, nil
	}
	l.mu.RUnlock()

	var (
		img Image
		err error
	)
	if res, ok := l.prefetch.take(l.Resolve(path)); ok {
		img, err = res.image, res.err
	} else {
		l.prefetch.discard(l.Resolve(path))
		img, err = l.decodeImage(path)
	}
	if err != nil {
		return Image{}, err
	}

	if l.cache {
		l.mu.Lock()
		l.images[path] = img
		l.mu.Unlock()
	}
	l.log.Debug("image loaded", zap.String("path", path), zap.Uint32("width", img.Width), zap.Uint32("height", img.Height))
	return img, nil
}

func (l *loader) Prefetch(paths ...string) {
	if l.prefetch == nil {
		return
	}
	for _, p := range paths {
		l.prefetch.submit(l.Resolve(p))
	}
}

func (l *loader) Forget(path string) {
	l.mu.Lock()
	delete(l.meshes, path)
	delete(l.images, path)
	l.mu.Unlock()
	l.prefetch.discard(l.Resolve(path))
}

// decodeMesh selects a mesh decoder from the file extension.
func (l *loader) decodeMesh(path string) ([]Vertex, []uint32, error) {
	full := l.Resolve(path)
	switch kindOf(full) {
	case assetMesh:
		v, i, err := loadOBJFile(full)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load mesh %s: %w", path, err)
		}
		return v, i, nil
	default:
		return nil, nil, fmt.Errorf("mesh %s: %w", path, ErrUnsupportedFormat)
	}
}

func (l *loader) decodeImage(path string) (Image, error) {
	full := l.Resolve(path)
	if kindOf(full) != assetImage {
		return Image{}, fmt.Errorf("image %s: %w", path, ErrUnsupportedFormat)
	}
	img, err := loadImageFile(full)
	if err != nil {
		return Image{}, fmt.Errorf("failed to load image %s: %w", path, err)
	}
	return img, nil
}

type assetKind int

const (
	assetUnknown assetKind = iota
	assetMesh
	assetImage
)

func kindOf(path string) assetKind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".obj":
		return assetMesh
	case ".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp":
		return assetImage
	default:
		return assetUnknown
	}
}
