package viewer

import (
	"context"
	"math"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"github.com/philipparndt/goifc/pkg/geometry"
)

// FrameInterval is the period of the render tick
const FrameInterval = time.Second / 60

// SceneView is a fyne widget showing a Scene through a software rasterizer
type SceneView struct {
	widget.BaseWidget
	scene *Scene
	view  *View
	image *canvas.Image

	drawnVersion uint64
	dirty        bool
	fitted       bool
	panning      bool
}

// NewSceneView creates a widget for the scene
func NewSceneView(scene *Scene) *SceneView {
	r := &SceneView{
		scene: scene,
		view:  NewView(400, 400, geometry.NewBoundingBox()),
		dirty: true,
	}
	r.image = canvas.NewImageFromImage(r.view.Frame.Image)
	r.image.FillMode = canvas.ImageFillStretch
	r.image.ScaleMode = canvas.ImageScalePixels
	r.ExtendBaseWidget(r)
	return r
}

// CreateRenderer creates the renderer for the widget
func (r *SceneView) CreateRenderer() fyne.WidgetRenderer {
	return &sceneWidgetRenderer{view: r}
}

// Camera returns the camera of the view
func (r *SceneView) Camera() *Camera {
	return r.view.Camera
}

// Tick advances camera damping by dt seconds and redraws when the picture changed.
// It must run on the fyne main goroutine.
func (r *SceneView) Tick(dt float64) bool {
	if !r.fitted && r.scene.Len() > 0 {
		r.FitScene()
		r.fitted = true
	}

	moved := r.view.Camera.Update(dt)
	version := r.scene.Version()
	if !moved && !r.dirty && version == r.drawnVersion {
		return false
	}

	r.view.Draw(r.scene.Records())
	r.drawnVersion = version
	r.dirty = false
	r.image.Image = r.view.Frame.Image
	r.image.Refresh()
	return true
}

// Run drives Tick at FrameInterval until ctx is done
func (r *SceneView) Run(ctx context.Context) {
	ticker := time.NewTicker(FrameInterval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now
			fyne.Do(func() {
				r.Tick(dt)
			})
		}
	}
}

// FitScene aims the camera at everything in the scene
func (r *SceneView) FitScene() {
	bbox := r.scene.BoundingBox()
	if bbox.Empty() {
		return
	}
	r.view.Camera.Fit(bbox)
	r.dirty = true
}

// ResetView fits the scene and returns to the default orbit
func (r *SceneView) ResetView() {
	r.FitScene()
	r.view.Camera.SetView(-math.Pi/4, math.Pi/6)
	r.dirty = true
}

// TopView looks straight down
func (r *SceneView) TopView() {
	r.view.Camera.SetView(-math.Pi/2, maxElevation)
	r.dirty = true
}

func (r *SceneView) resize(size fyne.Size) {
	if r.view.Resize(int(size.Width), int(size.Height)) {
		r.dirty = true
	}
}

// MouseDown starts panning with the secondary button
func (r *SceneView) MouseDown(event *desktop.MouseEvent) {
	r.panning = event.Button == desktop.MouseButtonSecondary || event.Modifier&fyne.KeyModifierShift != 0
}

// MouseUp ends panning
func (r *SceneView) MouseUp(*desktop.MouseEvent) {
	r.panning = false
}

// Dragged rotates or pans the camera
func (r *SceneView) Dragged(event *fyne.DragEvent) {
	height := float64(max(r.view.Viewport.Height, 1))
	if r.panning {
		r.view.Camera.Pan(float64(event.Dragged.DX)/height, float64(event.Dragged.DY)/height)
	} else {
		r.view.Camera.Rotate(-float64(event.Dragged.DX)*0.01, float64(event.Dragged.DY)*0.01)
	}
}

// DragEnd handles the end of a drag event
func (r *SceneView) DragEnd() {}

// Scrolled handles scroll events for zooming
func (r *SceneView) Scrolled(event *fyne.ScrollEvent) {
	r.view.Camera.Zoom(-float64(event.Scrolled.DY) * 0.002)
}

// sceneWidgetRenderer implements fyne.WidgetRenderer
type sceneWidgetRenderer struct {
	view *SceneView
}

func (m *sceneWidgetRenderer) Layout(size fyne.Size) {
	m.view.resize(size)
	m.view.image.Resize(size)
	m.view.image.Move(fyne.NewPos(0, 0))
}

func (m *sceneWidgetRenderer) MinSize() fyne.Size {
	return fyne.NewSize(400, 400)
}

func (m *sceneWidgetRenderer) Refresh() {
	canvas.Refresh(m.view.image)
}

func (m *sceneWidgetRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{m.view.image}
}

func (m *sceneWidgetRenderer) Destroy() {}
