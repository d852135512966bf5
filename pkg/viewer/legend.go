package viewer

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/philipparndt/goifc/internal/models"
)

const (
	legendMargin = 8
	legendSwatch = 10
	legendLine   = 16
)

// drawLegend writes one line per record: a swatch in the material color and the identifier
func drawLegend(dst *image.RGBA, records []*models.Record) {
	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.RGBA{R: 230, G: 230, B: 230, A: 255}),
		Face: face,
	}

	if len(records) == 0 {
		return
	}
	panel := image.Rect(legendMargin/2, legendMargin/2, legendWidth(records)+legendMargin, legendMargin+len(records)*legendLine)
	draw.Draw(dst, panel, image.NewUniform(color.NRGBA{A: 140}), image.Point{}, draw.Over)

	for i, r := range records {
		top := legendMargin + i*legendLine
		swatch := image.Rect(legendMargin, top, legendMargin+legendSwatch, top+legendSwatch)
		draw.Draw(dst, swatch, image.NewUniform(r.Material.Color), image.Point{}, draw.Src)

		d.Dot = fixed.P(legendMargin+legendSwatch+6, top+legendSwatch)
		d.DrawString(r.ID + " (" + r.Discipline.String() + ")")
	}
}

// legendWidth is the pixel width of the widest legend line
func legendWidth(records []*models.Record) int {
	widest := 0
	for _, r := range records {
		w := font.MeasureString(basicfont.Face7x13, r.ID+" ("+r.Discipline.String()+")").Ceil()
		widest = max(widest, w)
	}
	return legendMargin + legendSwatch + 6 + widest
}
