package viewer

import (
	"image"
	"image/color"
	"math"
)

// depthResolution is the depth of one offset unit relative to the view depth
const depthResolution = 1.0 / (1 << 16)

// Frame is a color buffer with a depth buffer of the same size
type Frame struct {
	Image *image.RGBA
	depth []float64
}

// NewFrame creates a frame of the given size
func NewFrame(width, height int) *Frame {
	f := &Frame{}
	f.Resize(width, height)
	return f
}

// Resize reallocates the buffers; the content is discarded
func (f *Frame) Resize(width, height int) {
	width, height = max(width, 1), max(height, 1)
	if f.Image != nil && f.Image.Bounds().Dx() == width && f.Image.Bounds().Dy() == height {
		return
	}
	f.Image = image.NewRGBA(image.Rect(0, 0, width, height))
	f.depth = make([]float64, width*height)
	f.clearDepth()
}

// Size returns the frame size in pixels
func (f *Frame) Size() (int, int) {
	b := f.Image.Bounds()
	return b.Dx(), b.Dy()
}

// Clear fills the color buffer and resets the depth buffer
func (f *Frame) Clear(bg color.RGBA) {
	pix := f.Image.Pix
	for i := 0; i < len(pix); i += 4 {
		pix[i], pix[i+1], pix[i+2], pix[i+3] = bg.R, bg.G, bg.B, bg.A
	}
	f.clearDepth()
}

func (f *Frame) clearDepth() {
	for i := range f.depth {
		f.depth[i] = math.Inf(1)
	}
}

// Depth returns the depth buffer value at a pixel
func (f *Frame) Depth(x, y int) float64 {
	w, _ := f.Size()
	return f.depth[y*w+x]
}

// Vertex is a projected vertex: screen position and view depth
type Vertex struct {
	X, Y, Z float64
}

// DrawOptions control depth testing and blending of one primitive
type DrawOptions struct {
	DepthWrite bool
	// OffsetFactor and OffsetUnits push the primitive away from the viewer,
	// scaled by its depth slope and by its depth
	OffsetFactor float64
	OffsetUnits  float64
}

// polygonOffset is the depth added to a triangle for its offset options
func polygonOffset(v1, v2, v3 Vertex, opts DrawOptions) float64 {
	if opts.OffsetFactor == 0 && opts.OffsetUnits == 0 {
		return 0
	}
	// depth change per pixel along the steeper screen axis
	slope := 0.0
	for _, e := range [][2]Vertex{{v1, v2}, {v2, v3}, {v1, v3}} {
		d := math.Max(math.Abs(e[1].X-e[0].X), math.Abs(e[1].Y-e[0].Y))
		if d > 0 {
			slope = math.Max(slope, math.Abs(e[1].Z-e[0].Z)/d)
		}
	}
	z := math.Max(v1.Z, math.Max(v2.Z, v3.Z))
	return opts.OffsetFactor*slope + opts.OffsetUnits*z*depthResolution
}

// FillTriangle rasterizes a triangle with depth testing. Colors with alpha below 255
// are blended over the existing pixels.
// Pixels are sampled at their centers with a top-left fill rule, so triangles that
// share an edge cover every pixel along it exactly once.
func (f *Frame) FillTriangle(v1, v2, v3 Vertex, col color.NRGBA, opts DrawOptions) {
	bias := polygonOffset(v1, v2, v3, opts)

	// Sort vertices by Y coordinate (top to bottom)
	if v1.Y > v2.Y {
		v1, v2 = v2, v1
	}
	if v2.Y > v3.Y {
		v2, v3 = v3, v2
	}
	if v1.Y > v2.Y {
		v1, v2 = v2, v1
	}
	if v3.Y == v1.Y {
		return
	}

	width, height := f.Size()
	yStart := max(0, int(math.Ceil(v1.Y-0.5)))
	yEnd := min(height, int(math.Ceil(v3.Y-0.5)))

	for y := yStart; y < yEnd; y++ {
		fy := float64(y) + 0.5

		// one side always runs along the long edge v1-v3
		start := edgeAt(v1, v3, fy)
		var end Vertex
		if fy < v2.Y {
			end = edgeAt(v1, v2, fy)
		} else {
			end = edgeAt(v2, v3, fy)
		}
		if start.X > end.X {
			start, end = end, start
		}

		xStart := max(0, int(math.Ceil(start.X-0.5)))
		xEnd := min(width, int(math.Ceil(end.X-0.5)))
		for x := xStart; x < xEnd; x++ {
			t := 0.0
			if end.X != start.X {
				t = (float64(x) + 0.5 - start.X) / (end.X - start.X)
			}
			z := start.Z + t*(end.Z-start.Z) + bias
			f.plot(x, y, z, col, opts.DepthWrite)
		}
	}
}

// edgeAt interpolates the edge a-b at height y
func edgeAt(a, b Vertex, y float64) Vertex {
	if b.Y == a.Y {
		return a
	}
	t := (y - a.Y) / (b.Y - a.Y)
	return Vertex{X: a.X + t*(b.X-a.X), Y: y, Z: a.Z + t*(b.Z-a.Z)}
}

// plot writes one fragment if it passes the depth test (closer means smaller z)
func (f *Frame) plot(x, y int, z float64, col color.NRGBA, depthWrite bool) {
	width := f.Image.Bounds().Dx()
	idx := y*width + x
	if idx < 0 || idx >= len(f.depth) || z >= f.depth[idx] {
		return
	}
	if depthWrite {
		f.depth[idx] = z
	}

	off := f.Image.PixOffset(x, y)
	pix := f.Image.Pix[off : off+4 : off+4]
	if col.A == 255 {
		pix[0], pix[1], pix[2], pix[3] = col.R, col.G, col.B, 255
		return
	}
	a := uint32(col.A)
	blend := func(src uint8, dst uint8) uint8 {
		return uint8((uint32(src)*a + uint32(dst)*(255-a) + 127) / 255)
	}
	pix[0] = blend(col.R, pix[0])
	pix[1] = blend(col.G, pix[1])
	pix[2] = blend(col.B, pix[2])
	pix[3] = uint8(a + uint32(pix[3])*(255-a)/255)
}

// DrawLine draws a depth-tested line using Bresenham's algorithm. The line is pulled
// towards the viewer by bias so outlines on a surface win the depth test.
func (f *Frame) DrawLine(p1, p2 Vertex, col color.NRGBA, bias float64) {
	x1, y1 := int(math.Round(p1.X)), int(math.Round(p1.Y))
	x2, y2 := int(math.Round(p2.X)), int(math.Round(p2.Y))
	width, height := f.Size()

	dx := abs(x2 - x1)
	dy := abs(y2 - y1)
	steps := max(dx, dy)

	sx, sy := 1, 1
	if x1 > x2 {
		sx = -1
	}
	if y1 > y2 {
		sy = -1
	}

	err := dx - dy
	for i := 0; ; i++ {
		if x1 >= 0 && x1 < width && y1 >= 0 && y1 < height {
			t := 0.0
			if steps > 0 {
				t = float64(i) / float64(steps)
			}
			z := p1.Z + t*(p2.Z-p1.Z)
			f.plot(x1, y1, z-bias*z, col, false)
		}

		if x1 == x2 && y1 == y2 {
			break
		}

		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
