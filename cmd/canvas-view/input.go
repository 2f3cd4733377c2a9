package main

import (
	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"

	"mini-canvas/internal/config"
	"mini-canvas/internal/logging"
)

const (
	mouseSensitivity = 0.1
	flySpeed         = 12.0
	boostFactor      = 4.0
)

func setupInputHandlers(window *glfw.Window, v *viewer) {
	window.SetCursorPosCallback(func(w *glfw.Window, xpos, ypos float64) {
		if !v.captured {
			return
		}
		if v.firstLook {
			v.lastX, v.lastY = xpos, ypos
			v.firstLook = false
			return
		}
		dx := float32(xpos - v.lastX)
		dy := float32(v.lastY - ypos)
		v.lastX, v.lastY = xpos, ypos
		v.cam.Rotate(dx*mouseSensitivity, dy*mouseSensitivity)
	})

	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if action != glfw.Press {
			return
		}
		switch key {
		case glfw.KeyEscape:
			v.captured = !v.captured
			if v.captured {
				w.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
				v.firstLook = true
			} else {
				w.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
			}
		case glfw.KeyQ:
			w.SetShouldClose(true)
		case glfw.KeyF:
			v.wireframe = !v.wireframe
		case glfw.KeyL:
			v.shadows = !v.shadows
		case glfw.KeyN:
			if v.pass.Daylight > 0.5 {
				v.pass.Daylight = 0.1
			} else {
				v.pass.Daylight = 1
			}
		case glfw.KeyEqual, glfw.KeyKPAdd:
			config.SetRenderDistance(config.RenderDistance() + 1)
			logging.Info("render distance %d", config.RenderDistance())
		case glfw.KeyMinus, glfw.KeyKPSubtract:
			config.SetRenderDistance(config.RenderDistance() - 1)
			logging.Info("render distance %d", config.RenderDistance())
		}
	})

	window.SetFramebufferSizeCallback(func(w *glfw.Window, fbWidth, fbHeight int) {
		gl.Viewport(0, 0, int32(fbWidth), int32(fbHeight))
		v.cam.SetViewport(fbWidth, fbHeight)
	})
}

// fly moves the camera from the held keys.
func (v *viewer) fly(dt float32) {
	if !v.captured {
		return
	}
	pressed := func(k glfw.Key) bool { return v.window.GetKey(k) == glfw.Press }

	speed := float32(flySpeed) * dt
	if pressed(glfw.KeyLeftControl) {
		speed *= boostFactor
	}
	var forward, right, up float32
	if pressed(glfw.KeyW) {
		forward += speed
	}
	if pressed(glfw.KeyS) {
		forward -= speed
	}
	if pressed(glfw.KeyD) {
		right += speed
	}
	if pressed(glfw.KeyA) {
		right -= speed
	}
	if pressed(glfw.KeySpace) {
		up += speed
	}
	if pressed(glfw.KeyLeftShift) {
		up -= speed
	}
	v.cam.Move(forward, right, up)
}
