package models

import (
	"fmt"
	"image/color"
)

// DepthOffset is a polygon offset (factor, units) that pushes a surface away from the viewer
// so coincident faces of different models do not fight in the depth buffer
type DepthOffset struct {
	Factor float64
	Units  float64
}

// Material is the frozen render style of a loaded model
type Material struct {
	Color       color.NRGBA
	Opacity     float64
	Transparent bool
	DepthWrite  bool
	DepthOffset DepthOffset
}

var (
	colorArchitecture = color.NRGBA{R: 0xE0, G: 0xC9, B: 0xA6, A: 0xFF}
	colorStructural   = color.NRGBA{R: 0x6C, G: 0x8E, B: 0xBF, A: 0xFF}
	colorHVAC         = color.NRGBA{R: 0xF2, G: 0x8C, B: 0x28, A: 0xFF}
	colorNeutral      = color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
)

// architectureOpacity is the alpha of the translucent architecture shell
const architectureOpacity = 0.35

// StyleFor returns the material for a discipline
func StyleFor(d Discipline) Material {
	switch d {
	case Architecture:
		return Material{
			Color:       colorArchitecture,
			Opacity:     architectureOpacity,
			Transparent: true,
			DepthWrite:  false,
			DepthOffset: DepthOffset{Factor: 1, Units: 1},
		}
	case Structural:
		return opaque(colorStructural, 2)
	case HVAC:
		return opaque(colorHVAC, 3)
	default:
		return opaque(colorNeutral, 0)
	}
}

func opaque(c color.NRGBA, offset float64) Material {
	return Material{
		Color:       c,
		Opacity:     1,
		DepthWrite:  true,
		DepthOffset: DepthOffset{Factor: offset, Units: offset},
	}
}

// RGBA returns the base color with the material opacity applied to alpha
func (m Material) RGBA() color.NRGBA {
	c := m.Color
	c.A = uint8(m.Opacity*255 + 0.5)
	return c
}

// Hex formats the base color as #RRGGBB
func (m Material) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", m.Color.R, m.Color.G, m.Color.B)
}
