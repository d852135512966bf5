package ifc

import (
	"math"
	"strings"

	"github.com/philipparndt/goifc/pkg/geometry"
)

// maxMappingDepth bounds IFCMAPPEDITEM recursion in malformed files
const maxMappingDepth = 8

// circleSegments is the tessellation of circular profiles
const circleSegments = 24

// skippedProducts are voids and volumes that a viewer does not draw as solids
var skippedProducts = map[string]bool{
	"IFCOPENINGELEMENT":         true,
	"IFCOPENINGSTANDARDCASE":    true,
	"IFCSPACE":                  true,
	"IFCVIRTUALELEMENT":         true,
	"IFCANNOTATION":             true,
	"IFCGRID":                   true,
	"IFCSPATIALZONE":            true,
	"IFCEXTERNALSPATIALELEMENT": true,
}

// bodyRepresentations are the shape representation identifiers holding 3D bodies
var bodyRepresentations = map[string]bool{
	"BODY":       true,
	"FACETATION": true,
	"MESH":       true,
	"":           true,
}

type builder struct {
	file        *File
	scale       float64
	placements  map[int]geometry.Transform
	unsupported map[string]int
}

// Build converts the product shapes of a parsed file into world-space triangle meshes
func Build(file *File) (*Model, error) {
	b := &builder{
		file:        file,
		placements:  make(map[int]geometry.Transform),
		unsupported: make(map[string]int),
	}
	b.scale = b.lengthUnitScale()

	model := &Model{
		Header:      file.Header,
		UnitScale:   b.scale,
		TypeCounts:  file.TypeCounts(),
		Unsupported: b.unsupported,
	}
	if len(file.Header.Schemas) > 0 {
		model.Schema = strings.ToUpper(file.Header.Schemas[0])
	}

	toMetres := geometry.Scale(b.scale)
	file.Each(func(e *Entity) {
		if skippedProducts[e.Type] {
			return
		}
		shape := file.Deref(e.Arg(6))
		if shape == nil || shape.Type != "IFCPRODUCTDEFINITIONSHAPE" {
			return
		}

		world := b.placement(e.Arg(5), 0).Then(toMetres)
		var triangles []geometry.Triangle
		for _, rep := range shape.Arg(2).Refs() {
			triangles = append(triangles, b.representation(file.Entity(rep), world, 0)...)
		}
		if len(triangles) == 0 {
			return
		}

		mesh := Mesh{EntityID: e.ID, Type: e.Type, Triangles: triangles}
		mesh.GlobalID, _ = e.Arg(0).AsString()
		mesh.Name, _ = e.Arg(2).AsString()
		model.Meshes = append(model.Meshes, mesh)
	})

	return model, nil
}

// lengthUnitScale finds the assigned project length unit and returns its size in metres
func (b *builder) lengthUnitScale() float64 {
	for _, assignment := range b.file.ByType("IFCUNITASSIGNMENT") {
		for _, id := range assignment.Arg(0).Refs() {
			if scale, ok := b.unitScale(b.file.Entity(id)); ok {
				return scale
			}
		}
	}
	return 1
}

func (b *builder) unitScale(unit *Entity) (float64, bool) {
	if unit == nil {
		return 0, false
	}
	switch unit.Type {
	case "IFCSIUNIT":
		return siLengthScale(unit)
	case "IFCCONVERSIONBASEDUNIT":
		if kind, _ := unit.Arg(1).AsEnum(); kind != "LENGTHUNIT" {
			return 0, false
		}
		measure := b.file.Deref(unit.Arg(3))
		factor, ok := measure.Arg(0).AsNumber()
		if !ok || factor <= 0 {
			return 0, false
		}
		base := 1.0
		if si, ok := siLengthScale(b.file.Deref(measure.Arg(1))); ok {
			base = si
		}
		return factor * base, true
	}
	return 0, false
}

func siLengthScale(unit *Entity) (float64, bool) {
	if unit == nil || unit.Type != "IFCSIUNIT" {
		return 0, false
	}
	kind, _ := unit.Arg(1).AsEnum()
	name, _ := unit.Arg(3).AsEnum()
	if kind != "LENGTHUNIT" || name != "METRE" {
		return 0, false
	}
	prefix, _ := unit.Arg(2).AsEnum()
	switch prefix {
	case "MILLI":
		return 1e-3, true
	case "CENTI":
		return 1e-2, true
	case "DECI":
		return 1e-1, true
	case "KILO":
		return 1e3, true
	default:
		return 1, true
	}
}

// placement resolves an IFCLOCALPLACEMENT chain into a world transform
func (b *builder) placement(v Value, depth int) geometry.Transform {
	e := b.file.Deref(v)
	if e == nil || depth > 64 {
		return geometry.Identity()
	}
	if cached, ok := b.placements[e.ID]; ok {
		return cached
	}

	var result geometry.Transform
	switch e.Type {
	case "IFCLOCALPLACEMENT":
		local := b.axisPlacement(b.file.Deref(e.Arg(1)))
		result = local.Then(b.placement(e.Arg(0), depth+1))
	default:
		b.unsupported[e.Type]++
		result = geometry.Identity()
	}

	b.placements[e.ID] = result
	return result
}

// axisPlacement converts IFCAXIS2PLACEMENT3D / IFCAXIS2PLACEMENT2D into a transform
func (b *builder) axisPlacement(e *Entity) geometry.Transform {
	if e == nil {
		return geometry.Identity()
	}
	origin := b.point(b.file.Deref(e.Arg(0)))
	switch e.Type {
	case "IFCAXIS2PLACEMENT3D":
		axis := b.direction(b.file.Deref(e.Arg(1)))
		ref := b.direction(b.file.Deref(e.Arg(2)))
		return geometry.NewPlacement(origin, axis, ref)
	case "IFCAXIS2PLACEMENT2D":
		ref := b.direction(b.file.Deref(e.Arg(1)))
		return geometry.NewPlacement(origin, geometry.NewVector3(0, 0, 1), ref)
	default:
		return geometry.Identity()
	}
}

func (b *builder) point(e *Entity) geometry.Vector3 {
	if e == nil {
		return geometry.Vector3{}
	}
	return vectorOf(e.Arg(0).Numbers())
}

func (b *builder) direction(e *Entity) geometry.Vector3 {
	if e == nil {
		return geometry.Vector3{}
	}
	return vectorOf(e.Arg(0).Numbers())
}

func vectorOf(coords []float64) geometry.Vector3 {
	var v geometry.Vector3
	if len(coords) > 0 {
		v.X = coords[0]
	}
	if len(coords) > 1 {
		v.Y = coords[1]
	}
	if len(coords) > 2 {
		v.Z = coords[2]
	}
	return v
}

// representation tessellates the items of a body shape representation
func (b *builder) representation(rep *Entity, world geometry.Transform, depth int) []geometry.Triangle {
	if rep == nil {
		return nil
	}
	identifier, _ := rep.Arg(1).AsString()
	if !bodyRepresentations[strings.ToUpper(identifier)] {
		return nil
	}

	var triangles []geometry.Triangle
	for _, item := range rep.Arg(3).Refs() {
		for _, tri := range b.item(b.file.Entity(item), depth) {
			triangles = append(triangles, tri.Transform(world))
		}
	}
	return triangles
}

// item tessellates one geometric representation item in its own coordinate system
func (b *builder) item(e *Entity, depth int) []geometry.Triangle {
	if e == nil {
		return nil
	}

	var tris []geometry.Triangle
	switch e.Type {
	case "IFCTRIANGULATEDFACESET":
		tris = b.triangulatedFaceSet(e)
	case "IFCPOLYGONALFACESET":
		tris = b.polygonalFaceSet(e)
	case "IFCFACETEDBREP", "IFCFACETEDBREPWITHVOIDS":
		tris = b.shell(b.file.Deref(e.Arg(0)))
	case "IFCSHELLBASEDSURFACEMODEL", "IFCFACEBASEDSURFACEMODEL":
		for _, id := range e.Arg(0).Refs() {
			tris = append(tris, b.shell(b.file.Entity(id))...)
		}
	case "IFCEXTRUDEDAREASOLID":
		tris = b.extrudedAreaSolid(e)
	case "IFCBOOLEANCLIPPINGRESULT", "IFCBOOLEANRESULT":
		// the clipping volume is not subtracted; the first operand is drawn as is
		tris = b.item(b.file.Deref(e.Arg(1)), depth)
	case "IFCMAPPEDITEM":
		tris = b.mappedItem(e, depth)
	}

	if len(tris) == 0 {
		b.unsupported[e.Type]++
	}
	return tris
}

func (b *builder) pointList(e *Entity) []geometry.Vector3 {
	if e == nil {
		return nil
	}
	rows, _ := e.Arg(0).AsList()
	points := make([]geometry.Vector3, 0, len(rows))
	for _, row := range rows {
		points = append(points, vectorOf(row.Numbers()))
	}
	return points
}

// indexResolver maps 1-based coordinate indices, optionally through a PnIndex list
func indexResolver(points []geometry.Vector3, pnIndex []float64) func(float64) (geometry.Vector3, bool) {
	return func(i float64) (geometry.Vector3, bool) {
		idx := int(i)
		if len(pnIndex) > 0 {
			if idx < 1 || idx > len(pnIndex) {
				return geometry.Vector3{}, false
			}
			idx = int(pnIndex[idx-1])
		}
		if idx < 1 || idx > len(points) {
			return geometry.Vector3{}, false
		}
		return points[idx-1], true
	}
}

func (b *builder) triangulatedFaceSet(e *Entity) []geometry.Triangle {
	points := b.pointList(b.file.Deref(e.Arg(0)))
	resolve := indexResolver(points, e.Arg(4).Numbers())

	faces, _ := e.Arg(3).AsList()
	triangles := make([]geometry.Triangle, 0, len(faces))
	for _, face := range faces {
		idx := face.Numbers()
		if len(idx) != 3 {
			continue
		}
		v1, ok1 := resolve(idx[0])
		v2, ok2 := resolve(idx[1])
		v3, ok3 := resolve(idx[2])
		if !ok1 || !ok2 || !ok3 {
			continue
		}
		tri := geometry.NewTriangle(v1, v2, v3)
		if !tri.Degenerate() {
			triangles = append(triangles, tri)
		}
	}
	return triangles
}

func (b *builder) polygonalFaceSet(e *Entity) []geometry.Triangle {
	points := b.pointList(b.file.Deref(e.Arg(0)))
	resolve := indexResolver(points, e.Arg(3).Numbers())

	var triangles []geometry.Triangle
	for _, id := range e.Arg(2).Refs() {
		face := b.file.Entity(id)
		if face == nil {
			continue
		}
		var polygon []geometry.Vector3
		for _, i := range face.Arg(0).Numbers() {
			if v, ok := resolve(i); ok {
				polygon = append(polygon, v)
			}
		}
		triangles = append(triangles, geometry.FanTriangulate(polygon)...)
	}
	return triangles
}

// shell tessellates IFCCLOSEDSHELL / IFCOPENSHELL / IFCCONNECTEDFACESET faces by their outer bound
func (b *builder) shell(e *Entity) []geometry.Triangle {
	if e == nil {
		return nil
	}
	var triangles []geometry.Triangle
	for _, id := range e.Arg(0).Refs() {
		face := b.file.Entity(id)
		if face == nil {
			continue
		}
		bounds := face.Arg(0).Refs()
		var chosen *Entity
		for _, boundID := range bounds {
			bound := b.file.Entity(boundID)
			if bound == nil {
				continue
			}
			if bound.Type == "IFCFACEOUTERBOUND" {
				chosen = bound
				break
			}
			if chosen == nil {
				chosen = bound
			}
		}
		if chosen == nil {
			continue
		}

		loop := b.file.Deref(chosen.Arg(0))
		if loop == nil || loop.Type != "IFCPOLYLOOP" {
			continue
		}
		var polygon []geometry.Vector3
		for _, pid := range loop.Arg(0).Refs() {
			polygon = append(polygon, b.point(b.file.Entity(pid)))
		}
		if orientation, _ := chosen.Arg(1).AsEnum(); orientation == "F" {
			reverse(polygon)
		}
		triangles = append(triangles, geometry.FanTriangulate(polygon)...)
	}
	return triangles
}

func (b *builder) extrudedAreaSolid(e *Entity) []geometry.Triangle {
	profile := b.profile(b.file.Deref(e.Arg(0)))
	if len(profile) < 3 {
		return nil
	}
	position := b.axisPlacement(b.file.Deref(e.Arg(1)))
	direction := b.direction(b.file.Deref(e.Arg(2))).Normalize()
	depth, _ := e.Arg(3).AsNumber()
	if direction.Length() == 0 || depth == 0 {
		return nil
	}

	var triangles []geometry.Triangle
	for _, tri := range extrude(profile, direction.Mul(depth)) {
		triangles = append(triangles, tri.Transform(position))
	}
	return triangles
}

// profile returns the outer boundary of a 2D profile definition in the XY plane
func (b *builder) profile(e *Entity) []geometry.Vector3 {
	if e == nil {
		return nil
	}

	var polygon []geometry.Vector3
	var position geometry.Transform
	switch e.Type {
	case "IFCRECTANGLEPROFILEDEF":
		position = b.axisPlacement(b.file.Deref(e.Arg(2)))
		x, _ := e.Arg(3).AsNumber()
		y, _ := e.Arg(4).AsNumber()
		polygon = []geometry.Vector3{
			geometry.NewVector3(-x/2, -y/2, 0),
			geometry.NewVector3(x/2, -y/2, 0),
			geometry.NewVector3(x/2, y/2, 0),
			geometry.NewVector3(-x/2, y/2, 0),
		}
	case "IFCCIRCLEPROFILEDEF":
		position = b.axisPlacement(b.file.Deref(e.Arg(2)))
		r, _ := e.Arg(3).AsNumber()
		for i := 0; i < circleSegments; i++ {
			angle := 2 * math.Pi * float64(i) / circleSegments
			polygon = append(polygon, geometry.NewVector3(r*math.Cos(angle), r*math.Sin(angle), 0))
		}
	case "IFCARBITRARYCLOSEDPROFILEDEF", "IFCARBITRARYPROFILEDEFWITHVOIDS":
		position = geometry.Identity()
		polygon = b.curvePoints(b.file.Deref(e.Arg(2)))
	default:
		b.unsupported[e.Type]++
		return nil
	}

	for i := range polygon {
		polygon[i] = position.Apply(polygon[i])
	}
	return polygon
}

// curvePoints returns the vertices of a closed IFCPOLYLINE or line-only IFCINDEXEDPOLYCURVE
func (b *builder) curvePoints(e *Entity) []geometry.Vector3 {
	if e == nil {
		return nil
	}
	var points []geometry.Vector3
	switch e.Type {
	case "IFCPOLYLINE":
		for _, id := range e.Arg(0).Refs() {
			points = append(points, b.point(b.file.Entity(id)))
		}
	case "IFCINDEXEDPOLYCURVE":
		points = b.pointList(b.file.Deref(e.Arg(0)))
	default:
		b.unsupported[e.Type]++
		return nil
	}

	if n := len(points); n > 1 && points[0].ApproxEqual(points[n-1], 1e-9) {
		points = points[:n-1]
	}
	return points
}

func (b *builder) mappedItem(e *Entity, depth int) []geometry.Triangle {
	if depth >= maxMappingDepth {
		return nil
	}
	source := b.file.Deref(e.Arg(0))
	if source == nil || source.Type != "IFCREPRESENTATIONMAP" {
		return nil
	}
	origin := b.axisPlacement(b.file.Deref(source.Arg(0)))
	target := b.cartesianOperator(b.file.Deref(e.Arg(1)))

	return b.representation(b.file.Deref(source.Arg(1)), origin.Then(target), depth+1)
}

// cartesianOperator converts IFCCARTESIANTRANSFORMATIONOPERATOR3D(Axis1, Axis2, LocalOrigin, Scale, Axis3)
func (b *builder) cartesianOperator(e *Entity) geometry.Transform {
	if e == nil {
		return geometry.Identity()
	}
	xAxis := b.direction(b.file.Deref(e.Arg(0)))
	origin := b.point(b.file.Deref(e.Arg(2)))
	zAxis := b.direction(b.file.Deref(e.Arg(4)))
	scale, ok := e.Arg(3).AsNumber()
	if !ok || scale == 0 {
		scale = 1
	}

	frame := geometry.NewPlacement(origin, zAxis, xAxis)
	return geometry.Scale(scale).Then(frame)
}

// extrude sweeps a planar polygon along offset and returns outward-facing triangles
func extrude(polygon []geometry.Vector3, offset geometry.Vector3) []geometry.Triangle {
	base := make([]geometry.Vector3, len(polygon))
	copy(base, polygon)
	if signedArea(base) < 0 {
		reverse(base)
	}
	if offset.Z < 0 {
		// sweeping downwards flips which cap faces out
		reverse(base)
	}

	top := make([]geometry.Vector3, len(base))
	for i, p := range base {
		top[i] = p.Add(offset)
	}

	bottom := make([]geometry.Vector3, len(base))
	copy(bottom, base)
	reverse(bottom)

	triangles := geometry.FanTriangulate(bottom)
	triangles = append(triangles, geometry.FanTriangulate(top)...)
	for i := range base {
		j := (i + 1) % len(base)
		side := []geometry.Vector3{base[i], base[j], top[j], top[i]}
		triangles = append(triangles, geometry.FanTriangulate(side)...)
	}
	return triangles
}

// signedArea is the area of the polygon projected on XY; positive for counter-clockwise order
func signedArea(polygon []geometry.Vector3) float64 {
	area := 0.0
	for i := range polygon {
		j := (i + 1) % len(polygon)
		area += polygon[i].X*polygon[j].Y - polygon[j].X*polygon[i].Y
	}
	return area / 2
}

func reverse(points []geometry.Vector3) {
	for i, j := 0, len(points)-1; i < j; i, j = i+1, j-1 {
		points[i], points[j] = points[j], points[i]
	}
}
