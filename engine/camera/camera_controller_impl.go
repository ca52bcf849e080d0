package camera

import (
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-gpu/common"
	"github.com/Carmen-Shannon/oxy-gpu/engine/ecs"
	"github.com/Carmen-Shannon/oxy-gpu/engine/viewport"
)

type cameraControllerImpl struct {
	mu *sync.Mutex

	held map[uint32]bool

	moveSpeed  float32
	turnSpeed  float32
	boost      float32
	pitchLimit float32
}

var _ CameraController = &cameraControllerImpl{}

// NewCameraController creates a fly controller with sensible defaults.
//
// Parameters:
//   - options: functional options to configure the controller
//
// Returns:
//   - CameraController: the newly created controller
func NewCameraController(options ...CameraControllerOption) CameraController {
	cc := &cameraControllerImpl{
		mu:         &sync.Mutex{},
		held:       make(map[uint32]bool),
		moveSpeed:  3.0,
		turnSpeed:  1.5,
		boost:      4.0,
		pitchLimit: float32(math.Pi/2 - 0.05),
	}
	for _, option := range options {
		option(cc)
	}
	return cc
}

func (cc *cameraControllerImpl) KeyDown(keyCode uint32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.held[keyCode] = true
}

func (cc *cameraControllerImpl) KeyUp(keyCode uint32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	delete(cc.held, keyCode)
}

func (cc *cameraControllerImpl) MoveSpeed() float32 {
	return cc.moveSpeed
}

func (cc *cameraControllerImpl) TurnSpeed() float32 {
	return cc.turnSpeed
}

// axis returns +1, -1 or 0 from a pair of opposing keys.
// Caller must hold the mutex.
func (cc *cameraControllerImpl) axis(positive, negative uint32) float32 {
	var v float32
	if cc.held[positive] {
		v++
	}
	if cc.held[negative] {
		v--
	}
	return v
}

func (cc *cameraControllerImpl) Apply(w *ecs.World, e ecs.Entity, dt float32) bool {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	forward := cc.axis(common.KeyW, common.KeyS)
	strafe := cc.axis(common.KeyD, common.KeyA)
	lift := cc.axis(common.KeyE, common.KeyQ)
	turn := cc.axis(common.KeyRight, common.KeyLeft)
	tilt := cc.axis(common.KeyUp, common.KeyDown)
	if forward == 0 && strafe == 0 && lift == 0 && turn == 0 && tilt == 0 {
		return false
	}

	var rot viewport.Rotation
	if r, ok := ecs.Get[viewport.Rotation](w, e); ok {
		rot = *r
	}
	var pos viewport.Position
	if p, ok := ecs.Get[viewport.Position](w, e); ok {
		pos = *p
	}

	if turn != 0 || tilt != 0 {
		rot.Yaw += turn * cc.turnSpeed * dt
		rot.Pitch += tilt * cc.turnSpeed * dt
		rot.Pitch = common.Clamp(rot.Pitch, -cc.pitchLimit, cc.pitchLimit)
		ecs.Set(w, e, rot)
	}

	if forward != 0 || strafe != 0 || lift != 0 {
		speed := cc.moveSpeed
		if cc.held[common.KeyLeftShift] || cc.held[common.KeyRightShift] {
			speed *= cc.boost
		}
		step := speed * dt
		// Ground-plane axes from yaw only, matching the viewport's -Z forward at yaw 0.
		sin := float32(math.Sin(float64(rot.Yaw)))
		cos := float32(math.Cos(float64(rot.Yaw)))
		pos.XYZ[0] += (forward*sin + strafe*cos) * step
		pos.XYZ[1] += lift * step
		pos.XYZ[2] += (-forward*cos + strafe*sin) * step
		ecs.Set(w, e, pos)
	}
	return true
}
