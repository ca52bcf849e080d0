package camera

import (
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-gpu/common"
	"github.com/Carmen-Shannon/oxy-gpu/engine/ecs"
	"github.com/Carmen-Shannon/oxy-gpu/engine/viewport"
)

func near(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-4
}

func newViewport(w *ecs.World) ecs.Entity {
	e := w.NewEntity()
	ecs.Set(w, e, viewport.Position{XYZ: [3]float32{0, 0, 3}})
	ecs.Set(w, e, viewport.Rotation{})
	return e
}

func TestForwardFollowsYaw(t *testing.T) {
	w := ecs.NewWorld()
	e := newViewport(w)
	cc := NewCameraController(WithMoveSpeed(2))

	cc.KeyDown(common.KeyW)
	if !cc.Apply(w, e, 1) {
		t.Fatal("held key did not move the viewport")
	}
	p, _ := ecs.Get[viewport.Position](w, e)
	if !near(p.XYZ[0], 0) || !near(p.XYZ[2], 1) {
		t.Errorf("position after forward = %v, want (0, 0, 1)", p.XYZ)
	}

	ecs.Set(w, e, viewport.Rotation{Yaw: math.Pi / 2})
	cc.Apply(w, e, 1)
	p, _ = ecs.Get[viewport.Position](w, e)
	if !near(p.XYZ[0], 2) || !near(p.XYZ[2], 1) {
		t.Errorf("position after turned forward = %v, want (2, 0, 1)", p.XYZ)
	}
}

func TestIdleControllerLeavesComponents(t *testing.T) {
	w := ecs.NewWorld()
	e := newViewport(w)
	sets := 0
	ecs.OnSet(w, func(ecs.Entity, *viewport.Position) { sets++ })

	cc := NewCameraController()
	cc.KeyDown(common.KeyA)
	cc.KeyDown(common.KeyD)
	if cc.Apply(w, e, 1) {
		t.Error("opposing keys reported movement")
	}
	cc.KeyUp(common.KeyA)
	cc.KeyUp(common.KeyD)
	if cc.Apply(w, e, 1) || sets != 0 {
		t.Errorf("idle apply set position %d times", sets)
	}
}

func TestPitchIsClamped(t *testing.T) {
	w := ecs.NewWorld()
	e := newViewport(w)
	cc := NewCameraController(WithTurnSpeed(10))
	cc.KeyDown(common.KeyUp)
	cc.Apply(w, e, 1)
	r, _ := ecs.Get[viewport.Rotation](w, e)
	if r.Pitch >= math.Pi/2 {
		t.Errorf("pitch = %v, not clamped below straight up", r.Pitch)
	}
}

func TestShiftBoostsSpeed(t *testing.T) {
	w := ecs.NewWorld()
	e := newViewport(w)
	cc := NewCameraController(WithMoveSpeed(1), WithBoost(3))
	cc.KeyDown(common.KeyE)
	cc.KeyDown(common.KeyLeftShift)
	cc.Apply(w, e, 1)
	p, _ := ecs.Get[viewport.Position](w, e)
	if !near(p.XYZ[1], 3) {
		t.Errorf("boosted lift = %v, want 3", p.XYZ[1])
	}
}
