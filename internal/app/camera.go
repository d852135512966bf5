package app

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
	"go.uber.org/zap"

	"github.com/philipparndt/goifc/pkg/geometry"
)

func toRaylib(v geometry.Vector3) rl.Vector3 {
	return rl.Vector3{X: float32(v.X), Y: float32(v.Y), Z: float32(v.Z)}
}

// updateCamera applies damping and copies the orbit into the raylib camera
func (app *App) updateCamera(dt float64) {
	orbit := app.Camera.orbit
	orbit.Update(dt)

	app.Camera.camera = rl.Camera3D{
		Position:   toRaylib(orbit.Position),
		Target:     toRaylib(orbit.Target),
		Up:         toRaylib(orbit.Up),
		Fovy:       float32(orbit.FOV * 180 / math.Pi),
		Projection: rl.CameraPerspective,
	}
}

// fitCamera aims the camera at all visible models
func (app *App) fitCamera() {
	bbox := app.Models.scene.boundingBox()
	if bbox.Empty() {
		return
	}
	app.Camera.orbit.Fit(bbox)
}

// resetCameraView fits the scene and returns to the default orbit
func (app *App) resetCameraView() {
	app.fitCamera()
	app.Camera.orbit.SetView(-math.Pi/4, math.Pi/6)
}

// setCameraTopView looks straight down
func (app *App) setCameraTopView() {
	app.Camera.orbit.SetView(-math.Pi/2, math.Pi/2)
}

// setCameraFrontView looks from the south (along +Y)
func (app *App) setCameraFrontView() {
	app.Camera.orbit.SetView(-math.Pi/2, 0)
}

// setCameraRightView looks from the east (along -X)
func (app *App) setCameraRightView() {
	app.Camera.orbit.SetView(0, 0)
}

// setCameraBackView looks from the north (along -Y)
func (app *App) setCameraBackView() {
	app.Camera.orbit.SetView(math.Pi/2, 0)
}

// setCameraLeftView looks from the west (along +X)
func (app *App) setCameraLeftView() {
	app.Camera.orbit.SetView(math.Pi, 0)
}

// handleResize keeps the viewport and camera aspect in sync with the window
func (app *App) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	vp := app.Camera.viewport
	if vp.Resize(rl.GetScreenWidth(), rl.GetScreenHeight()) {
		app.Camera.orbit.Aspect = vp.Aspect
		app.logger.Debug("window resized", zap.Int("width", vp.Width), zap.Int("height", vp.Height))
	}
}
