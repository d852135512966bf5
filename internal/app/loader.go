package app

import (
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/philipparndt/goifc/internal/models"
	"github.com/philipparndt/goifc/pkg/watcher"
)

// watchDebounce delays registration until a copied file has settled
const watchDebounce = 500 * time.Millisecond

func isIFC(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".ifc")
}

// setupDirWatcher registers .ifc files created in dir as inactive models
func (app *App) setupDirWatcher(dir string) error {
	dw, err := watcher.NewDirWatcher(".ifc", watchDebounce, app.logger)
	if err != nil {
		return err
	}

	callback := func(path string) {
		id := filepath.Base(path)
		if _, created := app.Models.controller.Register(id, models.Unknown); created {
			app.logger.Info("new model found", zap.String("model", id))
		}
	}

	if err := dw.Watch(dir, callback); err != nil {
		dw.Close()
		return err
	}

	app.Models.watcher = dw
	return nil
}

// activateAll shows every registered model in the background
func (app *App) activateAll() {
	go func() {
		start := time.Now()
		if err := app.Models.controller.ActivateAll(app.ctx); err != nil {
			app.logger.Error("initial load failed", zap.Error(err))
			app.UI.setError(err.Error())
			return
		}
		app.logger.Info("models loaded", zap.Int("count", len(app.Models.controller.IDs())), zap.Duration("elapsed", time.Since(start)))
	}()
}
