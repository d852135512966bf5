package geometry

// Transform is an affine transform: a 3x3 rotation/scale basis plus a translation.
// Columns X, Y, Z are the images of the unit axes.
type Transform struct {
	X, Y, Z     Vector3
	Translation Vector3
}

// Identity returns the identity transform
func Identity() Transform {
	return Transform{
		X: NewVector3(1, 0, 0),
		Y: NewVector3(0, 1, 0),
		Z: NewVector3(0, 0, 1),
	}
}

// NewPlacement builds a right-handed frame from an origin, a Z axis and a reference X direction.
// Zero axis vectors fall back to the global axes, and the X direction is projected
// so the frame stays orthonormal.
func NewPlacement(origin, axis, refDirection Vector3) Transform {
	z := axis.Normalize()
	if z.IsZero() {
		z = NewVector3(0, 0, 1)
	}
	x := refDirection
	if x.IsZero() {
		x = NewVector3(1, 0, 0)
	}
	x = x.Reject(z).Normalize()
	if x.IsZero() {
		// reference direction parallel to the axis
		x = NewVector3(1, 0, 0)
		if abs(z.X) > 0.9 {
			x = NewVector3(0, 1, 0)
		}
		x = x.Reject(z).Normalize()
	}
	y := z.Cross(x)
	return Transform{X: x, Y: y, Z: z, Translation: origin}
}

// Scale returns a uniform scaling transform
func Scale(s float64) Transform {
	return Transform{
		X: NewVector3(s, 0, 0),
		Y: NewVector3(0, s, 0),
		Z: NewVector3(0, 0, s),
	}
}

// Apply maps a point through the transform
func (t Transform) Apply(p Vector3) Vector3 {
	return t.ApplyDirection(p).Add(t.Translation)
}

// ApplyDirection maps a direction (no translation)
func (t Transform) ApplyDirection(d Vector3) Vector3 {
	return t.X.Mul(d.X).Add(t.Y.Mul(d.Y)).Add(t.Z.Mul(d.Z))
}

// Then returns the transform that applies t first and then outer
func (t Transform) Then(outer Transform) Transform {
	return Transform{
		X:           outer.ApplyDirection(t.X),
		Y:           outer.ApplyDirection(t.Y),
		Z:           outer.ApplyDirection(t.Z),
		Translation: outer.Apply(t.Translation),
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
