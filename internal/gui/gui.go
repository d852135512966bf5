// Package gui is the fyne front end of the IFC viewer.
package gui

import (
	"context"
	"fmt"
	"image/color"
	"path/filepath"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
	"go.uber.org/zap"

	"github.com/philipparndt/goifc/internal/config"
	"github.com/philipparndt/goifc/internal/models"
	"github.com/philipparndt/goifc/pkg/analysis"
	"github.com/philipparndt/goifc/pkg/loader"
	"github.com/philipparndt/goifc/pkg/viewer"
	"github.com/philipparndt/goifc/pkg/watcher"
	"github.com/philipparndt/goifc/version"
)

// watchDebounce delays registration until a copied file has settled
const watchDebounce = 500 * time.Millisecond

// App is the fyne viewer window
type App struct {
	window     fyne.Window
	controller *models.Controller
	scene      *viewer.Scene
	view       *viewer.SceneView

	progress *widget.ProgressBarInfinite
	toggles  *fyne.Container
	info     *widget.Label
	status   *widget.Label

	edgeThreshold float64

	ctx    context.Context
	logger *zap.Logger
}

// progressIndicator shows an infinite progress bar while loads are pending.
// Show and Hide are called from load goroutines and hand over to the fyne thread.
type progressIndicator struct {
	bar *widget.ProgressBarInfinite
}

func (p progressIndicator) Show() {
	fyne.Do(func() {
		p.bar.Show()
		p.bar.Start()
	})
}

func (p progressIndicator) Hide() {
	fyne.Do(func() {
		p.bar.Stop()
		p.bar.Hide()
	})
}

// Run opens the window and blocks until it is closed
func Run(ctx context.Context, cfg *config.Config, files []string, logger *zap.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ld, err := loader.Open(ctx, cfg.BasePath, cfg.WasmPlugin, logger)
	if err != nil {
		return fmt.Errorf("failed to open loader: %w", err)
	}
	defer ld.Close(context.Background())

	a := app.NewWithID("io.github.philipparndt.goifc")
	w := a.NewWindow("GoIFC - IFC Model Viewer")

	g := &App{
		window:        w,
		scene:         viewer.NewScene(),
		progress:      widget.NewProgressBarInfinite(),
		toggles:       container.NewVBox(),
		info:          widget.NewLabel(""),
		status:        widget.NewLabel(""),
		edgeThreshold: cfg.EdgeThresholdDeg,
		ctx:           ctx,
		logger:        logger.Named("gui"),
	}
	g.progress.Hide()
	g.info.Wrapping = fyne.TextWrapWord
	g.status.Wrapping = fyne.TextWrapWord
	g.view = viewer.NewSceneView(g.scene)
	g.controller = models.NewController(ld, g.scene, progressIndicator{bar: g.progress}, logger, cfg.ModelOptions())
	g.scene.OnChange(func() {
		count := g.scene.Len()
		fyne.Do(func() {
			g.status.SetText(fmt.Sprintf("%d model(s) visible", count))
		})
	})

	cfg.Register(g.controller, files...)
	// ActivateAll switches these on as well; doing it first lets the check boxes start checked
	for _, t := range g.controller.Toggles() {
		t.SetActive(true)
	}
	g.setupMainUI()

	if dir, ok := cfg.LocalBase(); cfg.Watch && ok {
		dw, err := g.watch(dir)
		if err != nil {
			g.logger.Warn("directory watch unavailable", zap.Error(err))
		} else {
			defer dw.Close()
		}
	}

	go g.view.Run(ctx)
	go func() {
		if err := g.controller.ActivateAll(ctx); err != nil {
			g.showError(err)
		}
		fyne.Do(g.rebuildToggles)
	}()

	w.Resize(fyne.NewSize(float32(cfg.Window.Width), float32(cfg.Window.Height)))
	w.ShowAndRun()
	return nil
}

func (g *App) setupMainUI() {
	openButton := widget.NewButton("Open IFC File", g.showFileDialog)
	resetButton := widget.NewButton("Reset View", g.view.ResetView)
	topButton := widget.NewButton("Top View", g.view.TopView)

	instructions := widget.NewLabel(
		"Instructions:\n" +
			"• Drag to rotate the view\n" +
			"• Right or Shift drag to pan\n" +
			"• Scroll to zoom in/out\n" +
			"• Check a model to show it",
	)
	instructions.Wrapping = fyne.TextWrapWord

	g.rebuildToggles()

	panel := container.NewVBox(
		widget.NewLabel("Models:"),
		widget.NewSeparator(),
		g.toggles,
		g.progress,
		widget.NewSeparator(),
		g.info,
		g.status,
		widget.NewSeparator(),
		instructions,
		widget.NewSeparator(),
		openButton,
		container.NewGridWithColumns(2, resetButton, topButton),
		widget.NewLabel("v"+version.GetVersion()),
	)

	panelScroll := container.NewVScroll(panel)
	panelScroll.SetMinSize(fyne.NewSize(300, 0))

	content := container.NewBorder(nil, nil, nil, panelScroll, g.view)
	g.window.SetContent(content)

	g.window.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
		switch ev.Name {
		case fyne.KeyHome:
			g.view.ResetView()
		case fyne.KeyT:
			g.view.TopView()
		}
	})
}

// rebuildToggles recreates one check box per registered model. Must run on the fyne thread.
func (g *App) rebuildToggles() {
	g.toggles.RemoveAll()
	for _, t := range g.controller.Toggles() {
		g.toggles.Add(g.toggleRow(t))
	}
	g.toggles.Refresh()
}

func (g *App) toggleRow(t *models.Toggle) fyne.CanvasObject {
	style := models.StyleFor(g.controller.Discipline(t.ID))
	c := style.Color
	swatch := canvas.NewRectangle(color.NRGBA{R: c.R, G: c.G, B: c.B, A: 255})
	swatch.SetMinSize(fyne.NewSize(12, 12))

	check := widget.NewCheck(filepath.Base(t.ID), nil)
	check.SetChecked(t.Active())
	check.OnChanged = func(checked bool) {
		if checked == t.Active() {
			return
		}
		g.toggle(t)
	}
	return container.NewBorder(nil, nil, container.NewCenter(swatch), nil, check)
}

// toggle flips a model in the background; activation may block on a load
func (g *App) toggle(t *models.Toggle) {
	go func() {
		err := g.controller.Toggle(g.ctx, t)
		if err != nil {
			g.showError(err)
			return
		}
		g.showStats(t.ID)
		fyne.Do(g.rebuildToggles)
	}()
}

func (g *App) showStats(id string) {
	record, ok := g.controller.Cached(id)
	if !ok || !g.controller.Visible(id) {
		return
	}
	stats := analysis.AnalyzeModel(record.Model, g.edgeThreshold)
	text := fmt.Sprintf(
		"Model: %s\nDiscipline: %s\nSchema: %s\nProducts: %d\nTriangles: %d\nSurface Area: %s\n\nDimensions:\n  X: %s\n  Y: %s\n  Z: %s",
		filepath.Base(id),
		record.Discipline,
		stats.Schema,
		stats.ProductCount,
		stats.TriangleCount,
		analysis.FormatMeasurement(stats.SurfaceArea, "m²"),
		analysis.FormatMeasurement(stats.Dimensions[0], ""),
		analysis.FormatMeasurement(stats.Dimensions[1], ""),
		analysis.FormatMeasurement(stats.Dimensions[2], ""),
	)
	fyne.Do(func() { g.info.SetText(text) })
}

func (g *App) showError(err error) {
	g.logger.Error("load failed", zap.Error(err))
	fyne.Do(func() {
		g.status.SetText(err.Error())
		g.rebuildToggles()
	})
}

func (g *App) showFileDialog() {
	d := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			dialog.ShowError(err, g.window)
			return
		}
		if reader == nil {
			return
		}
		defer reader.Close()

		g.openFile(reader.URI().Path())
	}, g.window)
	d.SetFilter(storage.NewExtensionFileFilter([]string{".ifc", ".IFC"}))
	d.Show()
}

// openFile registers a model and shows it
func (g *App) openFile(path string) {
	t, created := g.controller.Register(path, models.Unknown)
	g.logger.Info("file opened", zap.String("model", path), zap.Bool("new", created))
	if created {
		g.rebuildToggles()
	}
	if !t.Active() {
		g.toggle(t)
	}
}

// watch registers .ifc files created in dir as inactive models
func (g *App) watch(dir string) (*watcher.DirWatcher, error) {
	dw, err := watcher.NewDirWatcher(".ifc", watchDebounce, g.logger)
	if err != nil {
		return nil, err
	}
	err = dw.Watch(dir, func(path string) {
		if _, created := g.controller.Register(filepath.Base(path), models.Unknown); created {
			fyne.Do(g.rebuildToggles)
		}
	})
	if err != nil {
		dw.Close()
		return nil, err
	}
	return dw, nil
}
