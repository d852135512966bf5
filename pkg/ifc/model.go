package ifc

import (
	"fmt"
	"io"
	"strings"

	"github.com/philipparndt/goifc/pkg/geometry"
)

// Mesh is the tessellated body of one building product
type Mesh struct {
	EntityID  int
	Type      string // e.g. IFCWALLSTANDARDCASE
	GlobalID  string
	Name      string
	Triangles []geometry.Triangle
}

// Model is the renderable content of one IFC file
type Model struct {
	Header Header
	Schema string
	// UnitScale converts file length units to metres
	UnitScale float64
	Meshes    []Mesh
	// TypeCounts is the number of instances per entity type in the file
	TypeCounts map[string]int
	// Unsupported counts representation items that produced no geometry
	Unsupported map[string]int
}

// Parse reads an IFC (STEP) stream and builds its geometry
func Parse(r io.Reader) (*Model, error) {
	file, err := ParseSTEP(r)
	if err != nil {
		return nil, err
	}
	return Build(file)
}

// Name returns the file name recorded in the header
func (m *Model) Name() string {
	return m.Header.Name
}

// TriangleCount returns the number of triangles across all meshes
func (m *Model) TriangleCount() int {
	count := 0
	for _, mesh := range m.Meshes {
		count += len(mesh.Triangles)
	}
	return count
}

// Triangles returns all triangles of the model in one slice
func (m *Model) Triangles() []geometry.Triangle {
	result := make([]geometry.Triangle, 0, m.TriangleCount())
	for _, mesh := range m.Meshes {
		result = append(result, mesh.Triangles...)
	}
	return result
}

// BoundingBox calculates the bounding box of the entire model
func (m *Model) BoundingBox() geometry.BoundingBox {
	bbox := geometry.NewBoundingBox()
	for _, mesh := range m.Meshes {
		for _, tri := range mesh.Triangles {
			bbox.Extend(tri.V1)
			bbox.Extend(tri.V2)
			bbox.Extend(tri.V3)
		}
	}
	return bbox
}

// SurfaceArea calculates the total surface area of the model
func (m *Model) SurfaceArea() float64 {
	total := 0.0
	for _, mesh := range m.Meshes {
		for _, tri := range mesh.Triangles {
			total += tri.Area()
		}
	}
	return total
}

// ProductCounts returns the number of meshes per product type
func (m *Model) ProductCounts() map[string]int {
	counts := make(map[string]int)
	for _, mesh := range m.Meshes {
		counts[mesh.Type]++
	}
	return counts
}

// NewModel assembles a model from meshes produced outside of the STEP parser
func NewModel(schema string, meshes []Mesh) *Model {
	counts := make(map[string]int)
	for _, mesh := range meshes {
		counts[mesh.Type]++
	}
	return &Model{
		Schema:      strings.ToUpper(schema),
		UnitScale:   1,
		Meshes:      meshes,
		TypeCounts:  counts,
		Unsupported: make(map[string]int),
	}
}

func (m *Model) String() string {
	return fmt.Sprintf("%s model with %d products, %d triangles", m.Schema, len(m.Meshes), m.TriangleCount())
}
