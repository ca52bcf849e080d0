// package camera moves a viewport entity from keyboard input. The controller only edits
// the entity's viewport.Position and viewport.Rotation components; the viewport manager
// picks the change up in the next upload.
package camera

import "github.com/Carmen-Shannon/oxy-gpu/engine/ecs"

// CameraController defines a first-person fly controller.
// Movement is relative to the viewport's yaw: forward/back (W/S), strafe (A/D), down/up (Q/E).
// The arrow keys turn and tilt. Shift multiplies the move speed.
type CameraController interface {
	// KeyDown records a held key.
	//
	// Parameters:
	//   - keyCode: the virtual key code
	KeyDown(keyCode uint32)

	// KeyUp releases a held key.
	//
	// Parameters:
	//   - keyCode: the virtual key code
	KeyUp(keyCode uint32)

	// Apply moves the viewport entity e by the held keys over dt seconds.
	// Components are only set when they actually change.
	//
	// Parameters:
	//   - w: the world holding the viewport
	//   - e: the viewport entity
	//   - dt: elapsed time in seconds
	//
	// Returns:
	//   - bool: true if the viewport moved or turned
	Apply(w *ecs.World, e ecs.Entity, dt float32) bool

	// MoveSpeed returns the translation speed in units per second.
	MoveSpeed() float32

	// TurnSpeed returns the rotation speed in radians per second.
	TurnSpeed() float32
}
