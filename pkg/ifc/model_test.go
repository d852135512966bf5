package ifc

import (
	"os"
	"strings"
	"testing"

	"github.com/philipparndt/goifc/pkg/geometry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadSample(t *testing.T) *Model {
	t.Helper()
	f, err := os.Open("testdata/sample.ifc")
	require.NoError(t, err)
	defer f.Close()

	model, err := Parse(f)
	require.NoError(t, err)
	return model
}

func meshByType(t *testing.T, model *Model, typ string) Mesh {
	t.Helper()
	for _, mesh := range model.Meshes {
		if mesh.Type == typ {
			return mesh
		}
	}
	t.Fatalf("no %s mesh in model", typ)
	return Mesh{}
}

func TestParseSample(t *testing.T) {
	model := loadSample(t)

	assert.Equal(t, "IFC4", model.Schema)
	assert.Equal(t, "Café.ifc", model.Name())
	assert.Equal(t, []string{"Jane 'JD' Doe"}, model.Header.Authors)
	assert.InDelta(t, 0.001, model.UnitScale, 1e-12)

	assert.Len(t, model.Meshes, 4)
	assert.Equal(t, 16, model.TriangleCount())
	assert.Len(t, model.Triangles(), 16)
	assert.InDelta(t, 17.5, model.SurfaceArea(), 1e-9)

	assert.Equal(t, map[string]int{"IFCSWEPTDISKSOLID": 1}, model.Unsupported)
	assert.Equal(t, 2, model.TypeCounts["IFCSIUNIT"])
	assert.Equal(t, map[string]int{
		"IFCWALL":                 1,
		"IFCSLAB":                 1,
		"IFCBUILDINGELEMENTPROXY": 1,
		"IFCFURNISHINGELEMENT":    1,
	}, model.ProductCounts())

	assert.Equal(t, "IFC4 model with 4 products, 16 triangles", model.String())
}

func TestParseSampleBoundingBox(t *testing.T) {
	bbox := loadSample(t).BoundingBox()

	assert.InDelta(t, 0, bbox.Min.X, 1e-9)
	assert.InDelta(t, -0.1, bbox.Min.Y, 1e-9)
	assert.InDelta(t, 0, bbox.Min.Z, 1e-9)
	assert.InDelta(t, 2, bbox.Max.X, 1e-9)
	assert.InDelta(t, 2, bbox.Max.Y, 1e-9)
	assert.InDelta(t, 10, bbox.Max.Z, 1e-9)
}

func TestExtrudedWall(t *testing.T) {
	wall := meshByType(t, loadSample(t), "IFCWALL")

	assert.Equal(t, 27, wall.EntityID)
	assert.Equal(t, "Wall 'A'", wall.Name)
	assert.Equal(t, "2O2Fr$t4X7Zf8NOew3FLOH", wall.GlobalID)
	require.Len(t, wall.Triangles, 12)

	area := 0.0
	for _, tri := range wall.Triangles {
		area += tri.Area()
	}
	assert.InDelta(t, 14.0, area, 1e-9)

	// the wall is a convex box centred at (1, 0, 1.5): every face must point away from it
	center := geometry.NewVector3(1, 0, 1.5)
	for i, tri := range wall.Triangles {
		outward := tri.Center().Sub(center)
		assert.Greater(t, tri.Normal().Dot(outward), 0.0, "triangle %d faces inwards", i)
	}
}

func TestMappedItemScale(t *testing.T) {
	chair := meshByType(t, loadSample(t), "IFCFURNISHINGELEMENT")

	require.Len(t, chair.Triangles, 1)
	tri := chair.Triangles[0]
	assert.InDelta(t, 2.0, tri.Area(), 1e-9)
	assert.InDelta(t, 10.0, tri.V1.Z, 1e-9)
	assert.InDelta(t, 2.0, tri.V2.X, 1e-9)
}

func TestSkipsOpeningsAndNonBodyRepresentations(t *testing.T) {
	model := loadSample(t)

	for _, mesh := range model.Meshes {
		assert.NotEqual(t, "IFCOPENINGELEMENT", mesh.Type)
		assert.NotEqual(t, "IFCPIPESEGMENT", mesh.Type)
	}

	// the slab carries an additional Axis representation that must not be drawn
	slab := meshByType(t, model, "IFCSLAB")
	assert.Len(t, slab.Triangles, 2)
}

func TestUnitScaleConversionBased(t *testing.T) {
	model, err := Parse(strings.NewReader(`ISO-10303-21;
HEADER;
FILE_SCHEMA(('IFC2X3'));
ENDSEC;
DATA;
#1=IFCUNITASSIGNMENT((#4));
#2=IFCSIUNIT(*,.LENGTHUNIT.,$,.METRE.);
#3=IFCMEASUREWITHUNIT(IFCLENGTHMEASURE(0.3048),#2);
#4=IFCCONVERSIONBASEDUNIT(#5,.LENGTHUNIT.,'FOOT',#3);
#5=IFCDIMENSIONALEXPONENTS(1,0,0,0,0,0,0);
#10=IFCCARTESIANPOINTLIST3D(((0.,0.,0.),(10.,0.,0.),(0.,10.,0.)));
#11=IFCTRIANGULATEDFACESET(#10,$,$,((1,2,3)),$);
#12=IFCSHAPEREPRESENTATION($,'Body','Tessellation',(#11));
#13=IFCPRODUCTDEFINITIONSHAPE($,$,(#12));
#14=IFCCOLUMN('id',$,'Column',$,$,$,#13,$);
ENDSEC;
END-ISO-10303-21;
`))
	require.NoError(t, err)

	assert.Equal(t, "IFC2X3", model.Schema)
	assert.InDelta(t, 0.3048, model.UnitScale, 1e-12)
	require.Len(t, model.Meshes, 1)
	assert.InDelta(t, 3.048, model.BoundingBox().Max.X, 1e-9)
}

func TestPolygonalFaceSetAndPnIndex(t *testing.T) {
	model, err := Parse(strings.NewReader(`ISO-10303-21;
DATA;
#10=IFCCARTESIANPOINTLIST3D(((9.,9.,9.),(0.,0.,0.),(1.,0.,0.),(1.,1.,0.),(0.,1.,0.)));
#11=IFCINDEXEDPOLYGONALFACE((1,2,3,4));
#12=IFCPOLYGONALFACESET(#10,$,(#11),(2,3,4,5));
#13=IFCSHAPEREPRESENTATION($,'Body','Tessellation',(#12));
#14=IFCPRODUCTDEFINITIONSHAPE($,$,(#13));
#15=IFCPLATE('id',$,'Plate',$,$,$,#14,$,$);
ENDSEC;
`))
	require.NoError(t, err)

	require.Len(t, model.Meshes, 1)
	assert.Equal(t, 2, model.TriangleCount())
	assert.InDelta(t, 1.0, model.SurfaceArea(), 1e-9)
	assert.InDelta(t, 0, model.BoundingBox().Max.Z, 1e-9, "point 1 is not referenced through PnIndex")
}

func TestNewModel(t *testing.T) {
	model := NewModel("ifc4x3", []Mesh{{Type: "IFCWALL"}, {Type: "IFCWALL"}, {Type: "IFCDOOR"}})

	assert.Equal(t, "IFC4X3", model.Schema)
	assert.Equal(t, 1.0, model.UnitScale)
	assert.Equal(t, map[string]int{"IFCWALL": 2, "IFCDOOR": 1}, model.TypeCounts)
	assert.NotNil(t, model.Unsupported)
	assert.True(t, model.BoundingBox().Empty())
}
