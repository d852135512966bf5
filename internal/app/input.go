package app

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
	"go.uber.org/zap"

	"github.com/philipparndt/goifc/internal/models"
)

const (
	rotateSpeed = 0.01
	zoomSpeed   = 0.1
	clickSlop   = 5.0 // pixels a click may move before it counts as a drag
	orbitStep   = math.Pi / 36
)

// handleInput processes user input
func (app *App) handleInput() {
	// Camera view preset shortcuts
	if rl.IsKeyPressed(rl.KeyHome) {
		app.resetCameraView()
	}
	if rl.IsKeyPressed(rl.KeyT) {
		app.setCameraTopView()
	}
	if rl.IsKeyPressed(rl.KeyOne) {
		app.setCameraFrontView()
	}
	if rl.IsKeyPressed(rl.KeyTwo) {
		app.setCameraBackView()
	}
	if rl.IsKeyPressed(rl.KeyThree) {
		app.setCameraLeftView()
	}
	if rl.IsKeyPressed(rl.KeyFour) {
		app.setCameraRightView()
	}
	if rl.IsKeyPressed(rl.KeyE) {
		app.View.showEdges = !app.View.showEdges
	}
	if rl.IsKeyPressed(rl.KeyTab) {
		app.View.showPanel = !app.View.showPanel
	}

	app.handleDroppedFiles()

	mouse := rl.GetMousePosition()
	orbit := app.Camera.orbit

	if rl.IsKeyPressed(rl.KeyLeft) {
		orbit.Rotate(-orbitStep, 0)
	}
	if rl.IsKeyPressed(rl.KeyRight) {
		orbit.Rotate(orbitStep, 0)
	}
	if rl.IsKeyPressed(rl.KeyUp) {
		orbit.Rotate(0, orbitStep)
	}
	if rl.IsKeyPressed(rl.KeyDown) {
		orbit.Rotate(0, -orbitStep)
	}

	panButton := rl.IsMouseButtonPressed(rl.MouseRightButton) || rl.IsMouseButtonPressed(rl.MouseMiddleButton)
	if rl.IsMouseButtonPressed(rl.MouseLeftButton) || panButton {
		app.Interaction.mouseDownPos = mouse
		app.Interaction.overPanel = app.toggleAt(mouse) != nil
		shiftPressed := rl.IsKeyDown(rl.KeyLeftShift) || rl.IsKeyDown(rl.KeyRightShift)
		app.Interaction.isPanning = shiftPressed || panButton
	}

	buttonDown := rl.IsMouseButtonDown(rl.MouseLeftButton) ||
		rl.IsMouseButtonDown(rl.MouseRightButton) ||
		rl.IsMouseButtonDown(rl.MouseMiddleButton)
	if buttonDown && !app.Interaction.overPanel {
		delta := rl.GetMouseDelta()
		if delta.X != 0 || delta.Y != 0 {
			if app.Interaction.isPanning {
				height := float64(max(app.Camera.viewport.Height, 1))
				orbit.Pan(float64(delta.X)/height, float64(delta.Y)/height)
			} else {
				orbit.Rotate(-float64(delta.X)*rotateSpeed, float64(delta.Y)*rotateSpeed)
			}
		}
	}

	if rl.IsMouseButtonReleased(rl.MouseLeftButton) {
		dragDistance := rl.Vector2Distance(app.Interaction.mouseDownPos, mouse)
		if app.Interaction.overPanel && dragDistance < clickSlop {
			if t := app.toggleAt(mouse); t != nil {
				app.toggle(t)
			}
		}
		app.Interaction.overPanel = false
		app.Interaction.isPanning = false
	}
	if rl.IsMouseButtonReleased(rl.MouseRightButton) || rl.IsMouseButtonReleased(rl.MouseMiddleButton) {
		app.Interaction.isPanning = false
	}

	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		orbit.Zoom(-float64(wheel) * zoomSpeed)
	}
}

// toggle flips a model in the background; activation may block on a load
func (app *App) toggle(t *models.Toggle) {
	go func() {
		if err := app.Models.controller.Toggle(app.ctx, t); err != nil {
			app.logger.Error("toggle failed", zap.String("model", t.ID), zap.Error(err))
			app.UI.setError(err.Error())
			return
		}
		app.UI.setError("")
	}()
}

// handleDroppedFiles registers dropped .ifc files and shows them
func (app *App) handleDroppedFiles() {
	if !rl.IsFileDropped() {
		return
	}
	files := rl.LoadDroppedFiles()
	defer rl.UnloadDroppedFiles()

	for _, path := range files {
		if !isIFC(path) {
			app.logger.Warn("ignoring dropped file", zap.String("path", path))
			continue
		}
		t, created := app.Models.controller.Register(path, models.Unknown)
		app.logger.Info("file dropped", zap.String("model", path), zap.Bool("new", created))
		if !t.Active() {
			app.toggle(t)
		}
	}
}
