package geometry

// Triangle is a single facet of a tessellated surface
type Triangle struct {
	V1, V2, V3 Vector3
}

// NewTriangle creates a new triangle from three corners in counter-clockwise order
func NewTriangle(v1, v2, v3 Vector3) Triangle {
	return Triangle{V1: v1, V2: v2, V3: v3}
}

// Normal computes the unit face normal from the winding order
func (t Triangle) Normal() Vector3 {
	return t.V2.Sub(t.V1).Cross(t.V3.Sub(t.V1)).Normalize()
}

// Area returns the surface area of the triangle
func (t Triangle) Area() float64 {
	return t.V2.Sub(t.V1).Cross(t.V3.Sub(t.V1)).Length() / 2.0
}

// Degenerate reports whether the triangle has (near) zero area
func (t Triangle) Degenerate() bool {
	return t.Area() < 1e-12
}

// Center returns the centroid of the triangle
func (t Triangle) Center() Vector3 {
	return t.V1.Add(t.V2).Add(t.V3).Mul(1.0 / 3.0)
}

// Transform returns the triangle with all corners mapped through m
func (t Triangle) Transform(m Transform) Triangle {
	return Triangle{V1: m.Apply(t.V1), V2: m.Apply(t.V2), V3: m.Apply(t.V3)}
}

// FanTriangulate splits a convex (or mildly concave) polygon into triangles sharing the first corner
func FanTriangulate(polygon []Vector3) []Triangle {
	if len(polygon) < 3 {
		return nil
	}
	triangles := make([]Triangle, 0, len(polygon)-2)
	for i := 1; i < len(polygon)-1; i++ {
		tri := NewTriangle(polygon[0], polygon[i], polygon[i+1])
		if !tri.Degenerate() {
			triangles = append(triangles, tri)
		}
	}
	return triangles
}
