package viewer

// Viewport is the output size of a view
type Viewport struct {
	Width  int
	Height int
	Aspect float64
}

// NewViewport creates a viewport of the given size
func NewViewport(width, height int) *Viewport {
	v := &Viewport{}
	v.Resize(width, height)
	return v
}

// Resize updates the size and aspect ratio and reports whether anything changed.
// Sizes below one pixel are clamped.
func (v *Viewport) Resize(width, height int) bool {
	width = max(width, 1)
	height = max(height, 1)
	if width == v.Width && height == v.Height {
		return false
	}
	v.Width = width
	v.Height = height
	v.Aspect = float64(width) / float64(height)
	return true
}
