package app

import (
	"context"
	"sync"

	rl "github.com/gen2brain/raylib-go/raylib"
	"go.uber.org/zap"

	"github.com/philipparndt/goifc/internal/models"
	"github.com/philipparndt/goifc/pkg/viewer"
	"github.com/philipparndt/goifc/pkg/watcher"
)

// App is the raylib viewer
type App struct {
	Camera      CameraState
	Models      ModelState
	View        ViewSettings
	Interaction InteractionState
	UI          UIState

	ctx    context.Context
	logger *zap.Logger
}

// CameraState holds all camera-related state
type CameraState struct {
	orbit    *viewer.Camera
	viewport *viewer.Viewport
	camera   rl.Camera3D
	fitted   bool // set once the first visible model framed the view
}

// ModelState holds the controller and the render-side scene it drives
type ModelState struct {
	controller *models.Controller
	scene      *gpuScene
	spinner    *spinner
	watcher    *watcher.DirWatcher
}

// ViewSettings holds display settings
type ViewSettings struct {
	showEdges bool
	showPanel bool
}

// InteractionState holds mouse state
type InteractionState struct {
	isPanning    bool
	mouseDownPos rl.Vector2
	overPanel    bool
}

// UIState holds UI-related state
type UIState struct {
	font       rl.Font
	toggleRect []toggleButton // rebuilt every frame

	mu        sync.Mutex
	lastError string
}

// toggleButton is the screen area of one model toggle
type toggleButton struct {
	toggle *models.Toggle
	bounds rl.Rectangle
}

func (ui *UIState) setError(msg string) {
	ui.mu.Lock()
	defer ui.mu.Unlock()
	ui.lastError = msg
}

func (ui *UIState) errorText() string {
	ui.mu.Lock()
	defer ui.mu.Unlock()
	return ui.lastError
}
