// package shadow allocates the GPU objects point-light shadows need: one six-layer depth
// cube per light, a shadow slot per light, and one resource heap per (light, model) pair
// binding the light's face matrices with the model's transform.
//
// Pair heaps are created in bulk by Create during the pre-store phase rather than inside
// the entity hooks, and are released through the pair manager's deferred removal queue.
package shadow

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-gpu/engine/gpu"
	"github.com/Carmen-Shannon/oxy-gpu/engine/light"
	"github.com/Carmen-Shannon/oxy-gpu/engine/model"
	"github.com/Carmen-Shannon/oxy-gpu/engine/resource"
	"github.com/Carmen-Shannon/oxy-gpu/engine/slot"
	"go.uber.org/zap"
)

// MaxSlots is the number of shadow slots; lights beyond it cast no shadow.
const MaxSlots = 32

// DefaultResolution is the edge length in texels of each cube face.
const DefaultResolution = 512

// NoSlot marks a light without a shadow slot.
const NoSlot = -1

// PairLayout is the heap layout of a (light, model) shadow pair.
var PairLayout = gpu.HeapLayout{
	Name: "shadow_pair",
	Entries: []gpu.LayoutEntry{
		{Slot: 0, Kind: gpu.BindingUniformBuffer, MinSize: light.GPUCubeShadowUniformSize},
		{Slot: 1, Kind: gpu.BindingUniformBuffer, MinSize: 64},
	},
}

// Pair is the shadow heap of one light drawing one model.
type Pair struct {
	Light slot.Key
	Model slot.Key
	Heap  gpu.ResourceHeap
}

// Cube is the depth cube a light renders its shadow into.
type Cube struct {
	Light  slot.Key
	Target gpu.RenderTarget
	Slot   int
}

type pairID struct {
	light slot.Key
	model slot.Key
}

// Manager owns every cube and pair record.
type Manager struct {
	Pairs *resource.Manager[Pair]
	Cubes *resource.Manager[Cube]

	lights     *light.Manager
	models     *model.Manager
	backend    gpu.Backend
	resolution uint32
	log        *zap.Logger

	pending []pairID
	pairs   map[pairID]slot.Key
	cubeOf  map[slot.Key]slot.Key
	used    [MaxSlots]bool
	// waiting holds lights without a slot, in creation order.
	waiting []slot.Key
}

// NewManager creates the shadow manager and subscribes it to light and model lifecycle events.
//
// Parameters:
//   - backend: the graphics backend
//   - lights: the light manager
//   - models: the model manager
//   - options: builder options
//
// Returns:
//   - *Manager: the new manager
func NewManager(backend gpu.Backend, lights *light.Manager, models *model.Manager, options ...ManagerBuilderOption) *Manager {
	m := &Manager{
		lights:     lights,
		models:     models,
		backend:    backend,
		resolution: DefaultResolution,
		log:        zap.NewNop(),
		pairs:      make(map[pairID]slot.Key),
		cubeOf:     make(map[slot.Key]slot.Key),
	}
	for _, option := range options {
		option(m)
	}
	m.Pairs = resource.NewManager("shadow_pair",
		resource.WithLogger[Pair](m.log),
		resource.WithRelease(func(p *Pair) {
			backend.ReleaseResourceHeap(p.Heap)
			delete(m.pairs, pairID{light: p.Light, model: p.Model})
		}),
	)
	m.Cubes = resource.NewManager("shadow_cube",
		resource.WithLogger[Cube](m.log),
		resource.WithRelease(func(c *Cube) {
			backend.ReleaseRenderTarget(c.Target)
			m.used[c.Slot] = false
		}),
	)
	m.log = m.log.Named("shadow")

	m.Cubes.OnErase(func(slot.Key) { m.promote() })

	lights.OnInsert(m.lightCreated)
	lights.OnRetire(m.lightRetired)
	models.OnInsert(m.modelCreated)
	models.OnRetire(m.modelRetired)
	return m
}

func (m *Manager) lightCreated(lk slot.Key) {
	if !m.allocate(lk) {
		m.waiting = append(m.waiting, lk)
		m.log.Debug("shadow slots exhausted", zap.Stringer("light", lk))
	}
}

// allocate gives lk a slot and a cube and queues its pairs. It returns false when every
// slot is taken.
func (m *Manager) allocate(lk slot.Key) bool {
	s := NoSlot
	for i, taken := range m.used {
		if !taken {
			s = i
			break
		}
	}
	if s == NoSlot {
		return false
	}
	target, err := m.backend.CreateRenderTarget(gpu.RenderTargetDescriptor{
		Label:  fmt.Sprintf("shadow_cube_%d", s),
		Width:  m.resolution,
		Height: m.resolution,
		Layers: 6,
		Format: gpu.TextureFormatDepth32,
		Cube:   true,
	})
	if err != nil {
		panic(fmt.Errorf("shadow: failed to create cube render target: %w", err))
	}
	m.used[s] = true
	m.cubeOf[lk] = m.Cubes.Insert(Cube{Light: lk, Target: target, Slot: s})

	for _, mk := range m.models.Keys() {
		if m.models.Usable(mk) {
			m.pending = append(m.pending, pairID{light: lk, model: mk})
		}
	}
	return true
}

// promote hands freed slots to waiting lights that are still alive.
func (m *Manager) promote() {
	for len(m.waiting) > 0 {
		lk := m.waiting[0]
		if !m.lights.Usable(lk) {
			m.waiting = m.waiting[1:]
			continue
		}
		if !m.allocate(lk) {
			return
		}
		m.waiting = m.waiting[1:]
	}
}

func (m *Manager) lightRetired(lk slot.Key) {
	for i, w := range m.waiting {
		if w == lk {
			m.waiting = append(m.waiting[:i], m.waiting[i+1:]...)
			break
		}
	}
	if ck, ok := m.cubeOf[lk]; ok {
		m.Cubes.EnqueueRemoval(ck)
		delete(m.cubeOf, lk)
	}
	for id, pk := range m.pairs {
		if id.light == lk {
			m.Pairs.EnqueueRemoval(pk)
		}
	}
}

func (m *Manager) modelCreated(mk slot.Key) {
	for lk := range m.cubeOf {
		if m.lights.Usable(lk) {
			m.pending = append(m.pending, pairID{light: lk, model: mk})
		}
	}
}

func (m *Manager) modelRetired(mk slot.Key) {
	for id, pk := range m.pairs {
		if id.model == mk {
			m.Pairs.EnqueueRemoval(pk)
		}
	}
}

// Create builds the heaps of every queued pair whose light and model are both still
// usable. Pairs that already exist are skipped.
//
// Returns:
//   - int: the number of pairs created
func (m *Manager) Create() int {
	n := 0
	for _, id := range m.pending {
		if _, exists := m.pairs[id]; exists {
			continue
		}
		if _, lit := m.cubeOf[id.light]; !lit || !m.lights.Usable(id.light) || !m.models.Usable(id.model) {
			continue
		}
		ls := m.lights.At(id.light)
		ms := m.models.At(id.model)
		heap, err := m.backend.CreateResourceHeap(PairLayout, []gpu.Binding{
			gpu.BufferBinding(0, ls.Shadow),
			gpu.BufferBinding(1, ms.Transform),
		})
		if err != nil {
			panic(fmt.Errorf("shadow: failed to create pair heap: %w", err))
		}
		m.pairs[id] = m.Pairs.Insert(Pair{Light: id.light, Model: id.model, Heap: heap})
		n++
	}
	m.pending = m.pending[:0]
	return n
}

// Pending returns the number of pair creations queued.
func (m *Manager) Pending() int {
	return len(m.pending)
}

// SlotOf returns the shadow slot of light lk, or NoSlot.
func (m *Manager) SlotOf(lk slot.Key) int {
	ck, ok := m.cubeOf[lk]
	if !ok {
		return NoSlot
	}
	return m.Cubes.At(ck).Slot
}

// PairOf returns the pair record of (lk, mk).
func (m *Manager) PairOf(lk, mk slot.Key) (*Pair, bool) {
	pk, ok := m.pairs[pairID{light: lk, model: mk}]
	if !ok {
		return nil, false
	}
	return m.Pairs.Get(pk)
}

// ManagerBuilderOption is a functional option for configuring a shadow Manager.
type ManagerBuilderOption func(*Manager)

// WithResolution is an option builder that sets the cube face resolution in texels.
//
// Parameters:
//   - texels: the face width and height
//
// Returns:
//   - ManagerBuilderOption: a function that applies the resolution option to a Manager
func WithResolution(texels uint32) ManagerBuilderOption {
	return func(m *Manager) {
		if texels > 0 {
			m.resolution = texels
		}
	}
}

// WithLogger is an option builder that sets the manager's logger.
func WithLogger(log *zap.Logger) ManagerBuilderOption {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}
