package window

import (
	"fmt"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/Carmen-Shannon/oxy-gpu/common"
)

// glfwWindow is the GLFW platform window behind an engineWindow.
type glfwWindow struct {
	handle  *glfw.Window
	closing bool
}

// newPlatformWindow initializes GLFW on the locked OS thread, opens a window without a
// client API and routes its key and framebuffer events into w.
//
// GLFW reference: https://www.glfw.org/docs/latest/window_guide.html
func newPlatformWindow(w *engineWindow) error {
	runtime.LockOSThread()
	if err := glfw.Init(); err != nil {
		return fmt.Errorf("init glfw: %w", err)
	}

	// The surface is driven by WebGPU, not an OpenGL context.
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	handle, err := glfw.CreateWindow(w.width, w.height, w.title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return fmt.Errorf("create glfw window: %w", err)
	}
	pw := &glfwWindow{handle: handle}
	w.platform = pw

	handle.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		code := uint32(key)
		if code == common.KeyEsc && action == glfw.Press {
			pw.closing = true
			return
		}
		switch action {
		case glfw.Press:
			if w.onKeyDown != nil {
				w.onKeyDown(code)
			}
		case glfw.Release:
			if w.onKeyUp != nil {
				w.onKeyUp(code)
			}
		}
	})
	// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Window.SetFramebufferSizeCallback
	handle.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		w.width, w.height = width, height
		if w.onResize != nil {
			w.onResize(width, height)
		}
	})

	// High-DPI framebuffers can be larger than the requested size.
	w.width, w.height = handle.GetFramebufferSize()
	return nil
}

// surfaceDescriptor builds the per-platform surface descriptor through the wgpuglfw bridge.
// Reference: https://pkg.go.dev/github.com/cogentcore/webgpu/wgpuglfw#GetSurfaceDescriptor
func (pw *glfwWindow) surfaceDescriptor() *wgpu.SurfaceDescriptor {
	return wgpuglfw.GetSurfaceDescriptor(pw.handle)
}

// poll dispatches pending events and reports whether the window should stay open.
func (pw *glfwWindow) poll() bool {
	glfw.PollEvents()
	return !pw.closing && !pw.handle.ShouldClose()
}

// destroy closes the window and terminates GLFW.
func (pw *glfwWindow) destroy() {
	pw.handle.Destroy()
	glfw.Terminate()
}
