package analysis

import (
	"fmt"
	"math"
	"sort"

	"github.com/philipparndt/goifc/pkg/geometry"
	"github.com/philipparndt/goifc/pkg/ifc"
)

// TypeCount is the number of occurrences of one entity type
type TypeCount struct {
	Type  string `yaml:"type"`
	Count int    `yaml:"count"`
}

// EdgeStats summarizes the feature-edge outline of a model
type EdgeStats struct {
	Count int     `yaml:"count"`
	Min   float64 `yaml:"min_length"`
	Max   float64 `yaml:"max_length"`
	Avg   float64 `yaml:"avg_length"`
	Total float64 `yaml:"total_length"`
}

// ModelStats contains the measurements of an IFC model, lengths in metres
type ModelStats struct {
	Schema        string               `yaml:"schema"`
	Name          string               `yaml:"name"`
	BoundingBox   geometry.BoundingBox `yaml:"-"`
	Min           [3]float64           `yaml:"min"`
	Max           [3]float64           `yaml:"max"`
	Dimensions    [3]float64           `yaml:"dimensions"`
	SurfaceArea   float64              `yaml:"surface_area"`
	ProductCount  int                  `yaml:"products"`
	TriangleCount int                  `yaml:"triangles"`
	Edges         EdgeStats            `yaml:"edges"`
	Products      []TypeCount          `yaml:"product_types"`
	Unsupported   []TypeCount          `yaml:"unsupported,omitempty"`
}

// AnalyzeModel measures a model; edges are feature edges at thresholdDeg
func AnalyzeModel(model *ifc.Model, thresholdDeg float64) *ModelStats {
	bbox := model.BoundingBox()
	result := &ModelStats{
		Schema:        model.Schema,
		Name:          model.Name(),
		BoundingBox:   bbox,
		SurfaceArea:   model.SurfaceArea(),
		ProductCount:  len(model.Meshes),
		TriangleCount: model.TriangleCount(),
		Products:      SortedCounts(model.ProductCounts()),
		Unsupported:   SortedCounts(model.Unsupported),
	}
	if !bbox.Empty() {
		result.Min = toArray(bbox.Min)
		result.Max = toArray(bbox.Max)
	}
	result.Dimensions = toArray(bbox.Size())
	result.Edges = MeasureEdges(geometry.FeatureEdges(model.Triangles(), thresholdDeg))
	return result
}

// MeasureEdges computes length statistics of edges
func MeasureEdges(edges []geometry.Edge) EdgeStats {
	stats := EdgeStats{Count: len(edges)}
	if len(edges) == 0 {
		return stats
	}

	stats.Min = math.MaxFloat64
	for _, edge := range edges {
		length := edge.Length()
		stats.Total += length
		stats.Min = math.Min(stats.Min, length)
		stats.Max = math.Max(stats.Max, length)
	}
	stats.Avg = stats.Total / float64(len(edges))
	return stats
}

// SortedCounts orders type counts by descending count, then by name
func SortedCounts(counts map[string]int) []TypeCount {
	result := make([]TypeCount, 0, len(counts))
	for typ, count := range counts {
		result = append(result, TypeCount{Type: typ, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Type < result[j].Type
	})
	return result
}

// FindLongestEdges returns the N longest edges
func FindLongestEdges(edges []geometry.Edge, count int) []geometry.Edge {
	sorted := make([]geometry.Edge, len(edges))
	copy(sorted, edges)

	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Length() > sorted[j].Length()
	})

	if count > len(sorted) {
		count = len(sorted)
	}
	return sorted[:count]
}

// FormatMeasurement formats a measurement with appropriate units
func FormatMeasurement(value float64, unit string) string {
	if unit == "" {
		unit = "m"
	}
	return fmt.Sprintf("%.3f %s", value, unit)
}

// FormatVector formats a 3D vector
func FormatVector(v geometry.Vector3) string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f)", v.X, v.Y, v.Z)
}

func toArray(v geometry.Vector3) [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}
