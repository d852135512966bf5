package app

import (
	"fmt"
	"path/filepath"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/philipparndt/goifc/internal/models"
	"github.com/philipparndt/goifc/version"
)

const (
	panelX       = float32(10)
	panelY       = float32(10)
	buttonWidth  = float32(280)
	buttonHeight = float32(26)
	buttonGap    = float32(4)
	swatchSize   = float32(14)
)

var (
	buttonActive   = rl.NewColor(45, 55, 75, 230)
	buttonInactive = rl.NewColor(25, 28, 35, 200)
	buttonHover    = rl.NewColor(70, 85, 110, 230)
)

// layoutToggles computes the toggle button rectangles for this frame
func (app *App) layoutToggles() {
	toggles := app.Models.controller.Toggles()
	app.UI.toggleRect = app.UI.toggleRect[:0]
	if !app.View.showPanel {
		return
	}
	y := panelY + 24
	for _, t := range toggles {
		app.UI.toggleRect = append(app.UI.toggleRect, toggleButton{
			toggle: t,
			bounds: rl.Rectangle{X: panelX, Y: y, Width: buttonWidth, Height: buttonHeight},
		})
		y += buttonHeight + buttonGap
	}
}

// toggleAt returns the toggle under the mouse, if any
func (app *App) toggleAt(pos rl.Vector2) *models.Toggle {
	for _, b := range app.UI.toggleRect {
		if rl.CheckCollisionPointRec(pos, b.bounds) {
			return b.toggle
		}
	}
	return nil
}

// drawUI draws the user interface
func (app *App) drawUI() {
	fontSize12 := float32(12)
	fontSize14 := float32(14)
	fontSize16 := float32(16)
	fontSize18 := float32(18)

	screenWidth := float32(rl.GetScreenWidth())
	screenHeight := float32(rl.GetScreenHeight())
	controller := app.Models.controller

	// === MODELS ===
	if app.View.showPanel {
		rl.DrawTextEx(app.UI.font, "Models:", rl.Vector2{X: panelX, Y: panelY}, fontSize16, 1, rl.Yellow)
		mouse := rl.GetMousePosition()
		for _, b := range app.UI.toggleRect {
			id := b.toggle.ID
			bg := buttonInactive
			if b.toggle.Active() {
				bg = buttonActive
			}
			if rl.CheckCollisionPointRec(mouse, b.bounds) {
				bg = buttonHover
			}
			rl.DrawRectangleRounded(b.bounds, 0.3, 8, bg)

			style := models.StyleFor(controller.Discipline(id))
			swatch := rl.Rectangle{
				X:      b.bounds.X + 6,
				Y:      b.bounds.Y + (buttonHeight-swatchSize)/2,
				Width:  swatchSize,
				Height: swatchSize,
			}
			c := style.Color
			rl.DrawRectangleRec(swatch, rl.NewColor(c.R, c.G, c.B, 255))
			if !b.toggle.Active() {
				rl.DrawRectangleLinesEx(swatch, 1, rl.Gray)
			}

			label := filepath.Base(id)
			switch {
			case controller.Loading(id):
				label += "  (loading)"
			case controller.LastError(id) != nil:
				label += "  (failed)"
			}
			textColor := rl.LightGray
			if b.toggle.Active() {
				textColor = rl.White
			}
			rl.DrawTextEx(app.UI.font, label, rl.Vector2{X: swatch.X + swatchSize + 8, Y: b.bounds.Y + 6}, fontSize14, 1, textColor)
		}
	}

	// Loading indicator
	if elapsed, ok := app.Models.spinner.elapsed(); ok {
		spinnerChars := []string{"|", "/", "-", "\\"}
		spinnerIdx := int(elapsed.Seconds()*10) % len(spinnerChars)
		loadingText := fmt.Sprintf("%s Loading... (%.1fs)", spinnerChars[spinnerIdx], elapsed.Seconds())

		boxWidth := float32(250)
		boxHeight := float32(40)
		boxX := screenWidth - boxWidth - 20
		boxY := float32(20)

		rl.DrawRectangle(int32(boxX), int32(boxY), int32(boxWidth), int32(boxHeight), rl.NewColor(0, 0, 0, 180))
		rl.DrawRectangleLines(int32(boxX), int32(boxY), int32(boxWidth), int32(boxHeight), rl.Yellow)

		textSize := rl.MeasureTextEx(app.UI.font, loadingText, fontSize18, 1)
		textX := boxX + (boxWidth-textSize.X)/2
		textY := boxY + (boxHeight-textSize.Y)/2
		rl.DrawTextEx(app.UI.font, loadingText, rl.Vector2{X: textX, Y: textY}, fontSize18, 1, rl.Yellow)
	}

	if msg := app.UI.errorText(); msg != "" {
		size := rl.MeasureTextEx(app.UI.font, msg, fontSize14, 1)
		x := screenWidth - size.X - 20
		rl.DrawTextEx(app.UI.font, msg, rl.Vector2{X: x, Y: screenHeight - 50}, fontSize14, 1, rl.NewColor(255, 100, 100, 255))
	}

	// === CONTROLS ===
	help := "Drag: rotate  Shift/Right/Middle drag: pan  Wheel: zoom  Click: toggle model  Home: reset  T: top  1-4: sides  E: edges  Tab: panel"
	rl.DrawTextEx(app.UI.font, help, rl.Vector2{X: 10, Y: screenHeight - 50}, fontSize12, 1, rl.LightGray)

	// Version and FPS in bottom-left corner
	bottomY := screenHeight - 30
	versionText := fmt.Sprintf("v%s", version.GetVersion())
	rl.DrawTextEx(app.UI.font, versionText, rl.Vector2{X: 10, Y: bottomY}, fontSize12, 1, rl.Gray)

	fpsText := fmt.Sprintf("FPS: %d", rl.GetFPS())
	versionWidth := rl.MeasureTextEx(app.UI.font, versionText, fontSize12, 1).X
	rl.DrawTextEx(app.UI.font, fpsText, rl.Vector2{X: 10 + versionWidth + 15, Y: bottomY}, fontSize12, 1, rl.Lime)
}
