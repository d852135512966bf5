package viewer

import (
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

var (
	red  = color.NRGBA{R: 255, A: 255}
	blue = color.NRGBA{B: 255, A: 255}
)

func flat(z float64) (Vertex, Vertex, Vertex) {
	return Vertex{X: 10, Y: 10, Z: z}, Vertex{X: 90, Y: 10, Z: z}, Vertex{X: 50, Y: 90, Z: z}
}

func pixel(f *Frame, x, y int) color.RGBA {
	return f.Image.RGBAAt(x, y)
}

func TestFillTriangleDepthTest(t *testing.T) {
	f := NewFrame(100, 100)
	f.Clear(color.RGBA{A: 255})

	a1, a2, a3 := flat(5)
	b1, b2, b3 := flat(3)
	f.FillTriangle(b1, b2, b3, blue, DrawOptions{DepthWrite: true})
	f.FillTriangle(a1, a2, a3, red, DrawOptions{DepthWrite: true})

	assert.Equal(t, uint8(255), pixel(f, 50, 40).B, "nearer triangle wins regardless of order")
	assert.Equal(t, 3.0, f.Depth(50, 40))
	assert.Equal(t, color.RGBA{A: 255}, pixel(f, 5, 5), "outside pixels untouched")
}

func TestDepthOffsetResolvesCoincidentFaces(t *testing.T) {
	v1, v2, v3 := flat(5)

	f := NewFrame(100, 100)
	f.Clear(color.RGBA{A: 255})
	f.FillTriangle(v1, v2, v3, red, DrawOptions{DepthWrite: true, OffsetFactor: 3, OffsetUnits: 3})
	f.FillTriangle(v1, v2, v3, blue, DrawOptions{DepthWrite: true})
	assert.Equal(t, uint8(255), pixel(f, 50, 40).B, "offset surface drawn first loses")

	f.Clear(color.RGBA{A: 255})
	f.FillTriangle(v1, v2, v3, blue, DrawOptions{DepthWrite: true})
	f.FillTriangle(v1, v2, v3, red, DrawOptions{DepthWrite: true, OffsetFactor: 3, OffsetUnits: 3})
	assert.Equal(t, uint8(255), pixel(f, 50, 40).B, "offset surface drawn second loses")

	f.Clear(color.RGBA{A: 255})
	f.FillTriangle(v1, v2, v3, blue, DrawOptions{DepthWrite: true})
	f.FillTriangle(v1, v2, v3, red, DrawOptions{DepthWrite: true})
	assert.Equal(t, uint8(255), pixel(f, 50, 40).B, "without offset the first surface keeps the pixel")
}

func TestPolygonOffsetGrowsWithSlope(t *testing.T) {
	opts := DrawOptions{OffsetFactor: 1}
	flatBias := polygonOffset(Vertex{0, 0, 1}, Vertex{10, 0, 1}, Vertex{0, 10, 1}, opts)
	steepBias := polygonOffset(Vertex{0, 0, 1}, Vertex{10, 0, 2}, Vertex{0, 10, 1}, opts)

	assert.Zero(t, flatBias)
	assert.InDelta(t, 0.1, steepBias, 1e-12)
	assert.Zero(t, polygonOffset(Vertex{}, Vertex{X: 1}, Vertex{Y: 1}, DrawOptions{}))
}

func TestTranslucentBlendWithoutDepthWrite(t *testing.T) {
	f := NewFrame(100, 100)
	f.Clear(color.RGBA{R: 255, G: 255, B: 255, A: 255})

	v1, v2, v3 := flat(5)
	f.FillTriangle(v1, v2, v3, color.NRGBA{R: 255, A: 128}, DrawOptions{DepthWrite: false})

	p := pixel(f, 50, 40)
	assert.Equal(t, uint8(255), p.R)
	assert.InDelta(t, 127, int(p.G), 1)
	assert.InDelta(t, 127, int(p.B), 1)
	assert.True(t, math.IsInf(f.Depth(50, 40), 1), "depth buffer untouched")

	// an opaque surface behind the translucent one still draws
	b1, b2, b3 := flat(8)
	f.FillTriangle(b1, b2, b3, blue, DrawOptions{DepthWrite: true})
	assert.Equal(t, color.RGBA{B: 255, A: 255}, pixel(f, 50, 40))
}

func TestDrawLine(t *testing.T) {
	f := NewFrame(20, 20)
	f.Clear(color.RGBA{A: 255})

	f.DrawLine(Vertex{X: 2, Y: 5, Z: 1}, Vertex{X: 12, Y: 5, Z: 1}, red, 0)
	for x := 2; x <= 12; x++ {
		assert.Equal(t, uint8(255), pixel(f, x, 5).R, "x=%d", x)
	}
	assert.Equal(t, uint8(0), pixel(f, 13, 5).R)

	// lines are hidden behind nearer surfaces
	f.FillTriangle(Vertex{0, 0, 0.5}, Vertex{19, 0, 0.5}, Vertex{0, 19, 0.5}, blue, DrawOptions{DepthWrite: true})
	f.DrawLine(Vertex{X: 1, Y: 1, Z: 1}, Vertex{X: 5, Y: 1, Z: 1}, red, 0)
	assert.Equal(t, uint8(0), pixel(f, 3, 1).R)
}

func TestFrameResize(t *testing.T) {
	f := NewFrame(10, 10)
	f.Resize(30, 20)
	w, h := f.Size()
	assert.Equal(t, 30, w)
	assert.Equal(t, 20, h)
	assert.Len(t, f.depth, 600)

	f.Resize(0, -5)
	w, h = f.Size()
	assert.Equal(t, 1, w)
	assert.Equal(t, 1, h)
}

func TestSharedNearlyHorizontalEdgeLeavesNoGap(t *testing.T) {
	f := NewFrame(100, 100)
	f.Clear(color.RGBA{A: 255})

	// a diamond split along y = 40, one corner off by a rounding error
	left := Vertex{X: 10, Y: 40.00000000000001, Z: 1}
	right := Vertex{X: 90, Y: 40, Z: 1}
	f.FillTriangle(Vertex{X: 50, Y: 10, Z: 1}, right, left, red, DrawOptions{DepthWrite: true})
	f.FillTriangle(right, Vertex{X: 50, Y: 70, Z: 1}, left, red, DrawOptions{DepthWrite: true})

	for y := 12; y < 68; y++ {
		assert.Equal(t, uint8(255), pixel(f, 50, y).R, "y=%d", y)
	}
	for x := 12; x < 88; x++ {
		assert.Equal(t, uint8(255), pixel(f, x, 40).R, "x=%d", x)
	}
}

func TestSharedEdgeIsBlendedOnce(t *testing.T) {
	f := NewFrame(100, 100)
	f.Clear(color.RGBA{R: 255, G: 255, B: 255, A: 255})

	a := Vertex{X: 10, Y: 10, Z: 1}
	b := Vertex{X: 90, Y: 10, Z: 1}
	c := Vertex{X: 90, Y: 90, Z: 1}
	d := Vertex{X: 10, Y: 90, Z: 1}
	translucent := color.NRGBA{R: 255, A: 128}
	f.FillTriangle(a, b, c, translucent, DrawOptions{})
	f.FillTriangle(a, c, d, translucent, DrawOptions{})

	for i := 11; i < 89; i++ {
		assert.InDelta(t, 127, int(pixel(f, i, i).G), 1, "diagonal pixel %d", i)
	}
	assert.InDelta(t, 127, int(pixel(f, 80, 20).G), 1)
	assert.InDelta(t, 127, int(pixel(f, 20, 80).G), 1)
}
