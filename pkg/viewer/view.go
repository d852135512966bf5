package viewer

import (
	"image/color"
	"math"
	"sort"

	"github.com/philipparndt/goifc/internal/models"
	"github.com/philipparndt/goifc/pkg/geometry"
)

var (
	// Background is the clear color of the view
	Background = color.RGBA{R: 30, G: 32, B: 38, A: 255}

	// edgeColor is the outline color
	edgeColor = color.NRGBA{R: 20, G: 20, B: 20, A: 255}

	lightDirection = geometry.NewVector3(-0.4, -0.3, 0.85).Normalize()
)

const (
	ambient   = 0.35
	diffuse   = 0.65
	edgeBias  = 1e-3
	nearPlane = 0.05
)

// View renders records into a frame from a camera. It is not safe for concurrent use.
type View struct {
	Camera   *Camera
	Viewport *Viewport
	Frame    *Frame
	// Legend enables the discipline legend in the top left corner
	Legend bool
}

// NewView creates a view of the given size looking at bbox
func NewView(width, height int, bbox geometry.BoundingBox) *View {
	v := &View{
		Camera:   NewCamera(bbox),
		Viewport: NewViewport(width, height),
		Frame:    NewFrame(width, height),
		Legend:   true,
	}
	v.Camera.Aspect = v.Viewport.Aspect
	return v
}

// Resize updates the camera aspect ratio and the output size
func (v *View) Resize(width, height int) bool {
	if !v.Viewport.Resize(width, height) {
		return false
	}
	v.Camera.Aspect = v.Viewport.Aspect
	v.Frame.Resize(v.Viewport.Width, v.Viewport.Height)
	return true
}

// Draw rasterizes the records. Opaque records are drawn first, translucent ones
// afterwards from far to near.
func (v *View) Draw(records []*models.Record) {
	v.Frame.Clear(Background)

	var translucent []*models.Record
	for _, r := range records {
		if r.Material.Transparent {
			translucent = append(translucent, r)
			continue
		}
		v.drawRecord(r)
	}

	eye := v.Camera.Position
	sort.SliceStable(translucent, func(i, j int) bool {
		return translucent[i].Model.BoundingBox().Center().Distance(eye) >
			translucent[j].Model.BoundingBox().Center().Distance(eye)
	})
	for _, r := range translucent {
		v.drawRecord(r)
	}

	if v.Legend {
		drawLegend(v.Frame.Image, records)
	}
}

func (v *View) project(p geometry.Vector3) (Vertex, bool) {
	w, h := float64(v.Viewport.Width), float64(v.Viewport.Height)
	if p.Sub(v.Camera.Position).Dot(v.Camera.ViewDirection()) < nearPlane {
		return Vertex{}, false
	}
	x, y, z := v.Camera.Project(p, w, h)
	return Vertex{X: x, Y: y, Z: z}, true
}

func (v *View) drawRecord(r *models.Record) {
	m := r.Material
	opts := DrawOptions{
		DepthWrite:   m.DepthWrite,
		OffsetFactor: m.DepthOffset.Factor,
		OffsetUnits:  m.DepthOffset.Units,
	}

	for _, mesh := range r.Model.Meshes {
		for _, tri := range mesh.Triangles {
			p1, ok1 := v.project(tri.V1)
			p2, ok2 := v.project(tri.V2)
			p3, ok3 := v.project(tri.V3)
			if !ok1 || !ok2 || !ok3 {
				continue
			}
			v.Frame.FillTriangle(p1, p2, p3, Shade(m, tri.Normal()), opts)
		}
	}

	for _, e := range r.Edges {
		p1, ok1 := v.project(e.A)
		p2, ok2 := v.project(e.B)
		if !ok1 || !ok2 {
			continue
		}
		v.Frame.DrawLine(p1, p2, edgeColor, edgeBias)
	}
}

// Shade applies two-sided Lambert lighting to the material color
func Shade(m models.Material, normal geometry.Vector3) color.NRGBA {
	brightness := ambient + diffuse*math.Abs(normal.Dot(lightDirection))
	c := m.RGBA()
	c.R = uint8(math.Min(255, float64(c.R)*brightness))
	c.G = uint8(math.Min(255, float64(c.G)*brightness))
	c.B = uint8(math.Min(255, float64(c.B)*brightness))
	return c
}
