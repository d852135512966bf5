// Package app is the raylib front end of the IFC viewer.
package app

import (
	"context"
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"
	"go.uber.org/zap"

	"github.com/philipparndt/goifc/internal/config"
	"github.com/philipparndt/goifc/internal/models"
	"github.com/philipparndt/goifc/pkg/geometry"
	"github.com/philipparndt/goifc/pkg/loader"
	"github.com/philipparndt/goifc/pkg/viewer"
)

var background = rl.NewColor(30, 32, 38, 255)

// Run opens the viewer window with the configured models and the given files
// and blocks until the window is closed or ctx is done.
func Run(ctx context.Context, cfg *config.Config, files []string, logger *zap.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ld, err := loader.Open(ctx, cfg.BasePath, cfg.WasmPlugin, logger)
	if err != nil {
		return fmt.Errorf("failed to open loader: %w", err)
	}
	defer ld.Close(context.Background())

	app := &App{
		ctx:    ctx,
		logger: logger.Named("app"),
		Camera: CameraState{
			orbit:    viewer.NewCamera(geometry.NewBoundingBox()),
			viewport: viewer.NewViewport(cfg.Window.Width, cfg.Window.Height),
		},
		View: ViewSettings{
			showEdges: true,
			showPanel: true,
		},
		Models: ModelState{
			scene:   newGPUScene(),
			spinner: &spinner{},
		},
	}
	app.Camera.orbit.Aspect = app.Camera.viewport.Aspect
	app.Models.controller = models.NewController(ld, app.Models.scene, app.Models.spinner, logger, cfg.ModelOptions())
	cfg.Register(app.Models.controller, files...)

	if cfg.Watch {
		if dir, ok := cfg.LocalBase(); ok {
			if err := app.setupDirWatcher(dir); err != nil {
				app.logger.Warn("directory watch unavailable", zap.Error(err))
			} else {
				defer app.Models.watcher.Close()
			}
		} else {
			app.logger.Warn("watch ignored for remote base path", zap.String("base", cfg.BasePath))
		}
	}

	rl.SetTraceLogLevel(rl.LogWarning)
	rl.SetConfigFlags(rl.FlagWindowResizable | rl.FlagWindowHighdpi | rl.FlagMsaa4xHint) // Must be before InitWindow
	rl.InitWindow(int32(cfg.Window.Width), int32(cfg.Window.Height), "GoIFC")
	defer rl.CloseWindow()
	rl.SetTargetFPS(60)
	rl.DisableBackfaceCulling()

	app.UI.font = rl.GetFontDefault()
	material := rl.LoadMaterialDefault()

	app.activateAll()

	for !rl.WindowShouldClose() && ctx.Err() == nil {
		app.frame(material)
	}

	app.Models.scene.unload()
	return nil
}

// frame runs one iteration of the main loop
func (app *App) frame(material rl.Material) {
	if app.Models.scene.sync() && !app.Camera.fitted && len(app.Models.scene.visible) > 0 {
		app.fitCamera()
		app.Camera.fitted = true
	}

	app.handleResize()
	app.layoutToggles()
	app.handleInput()
	app.updateCamera(float64(rl.GetFrameTime()))

	rl.BeginDrawing()
	rl.ClearBackground(background)

	rl.BeginMode3D(app.Camera.camera)
	app.drawScene(material)
	rl.EndMode3D()

	app.drawUI()
	rl.EndDrawing()
}
