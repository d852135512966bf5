package geometry

import (
	"math"
	"sort"
)

// Edge is a line segment between two points
type Edge struct {
	A, B Vector3
}

// Length returns the length of the edge
func (e Edge) Length() float64 {
	return e.A.Distance(e.B)
}

// edgePrecision is the vertex welding grid used when matching shared edges
const edgePrecision = 1e4

type vertexKey [3]int64

type edgeKey [2]vertexKey

type edgeRecord struct {
	edge   Edge
	normal Vector3
	faces  int
	done   bool
}

func keyOf(v Vector3) vertexKey {
	return vertexKey{
		int64(math.Round(v.X * edgePrecision)),
		int64(math.Round(v.Y * edgePrecision)),
		int64(math.Round(v.Z * edgePrecision)),
	}
}

func lessKey(a, b vertexKey) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// FeatureEdges returns the outline of a triangle soup: edges shared by two faces whose
// normals differ by at least thresholdDeg, plus boundary edges used by a single face.
// Coplanar seams produced by tessellation are dropped.
func FeatureEdges(triangles []Triangle, thresholdDeg float64) []Edge {
	records := make(map[edgeKey]*edgeRecord)
	var result []Edge

	for _, tri := range triangles {
		if tri.Degenerate() {
			continue
		}
		normal := tri.Normal()
		corners := [3]Vector3{tri.V1, tri.V2, tri.V3}
		for i := 0; i < 3; i++ {
			a, b := corners[i], corners[(i+1)%3]
			ka, kb := keyOf(a), keyOf(b)
			if ka == kb {
				continue
			}
			if lessKey(kb, ka) {
				ka, kb = kb, ka
			}
			key := edgeKey{ka, kb}

			rec, ok := records[key]
			if !ok {
				records[key] = &edgeRecord{edge: Edge{A: a, B: b}, normal: normal, faces: 1}
				continue
			}
			rec.faces++
			if !rec.done && rec.normal.AngleTo(normal) >= thresholdDeg {
				result = append(result, rec.edge)
				rec.done = true
			}
		}
	}

	boundary := make([]edgeKey, 0)
	for key, rec := range records {
		if rec.faces == 1 {
			boundary = append(boundary, key)
		}
	}
	// map iteration order is random; keep output stable
	sort.Slice(boundary, func(i, j int) bool {
		if boundary[i][0] != boundary[j][0] {
			return lessKey(boundary[i][0], boundary[j][0])
		}
		return lessKey(boundary[i][1], boundary[j][1])
	})
	for _, key := range boundary {
		result = append(result, records[key].edge)
	}

	return result
}
