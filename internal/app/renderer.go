package app

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/philipparndt/goifc/internal/models"
	"github.com/philipparndt/goifc/pkg/geometry"
	"github.com/philipparndt/goifc/pkg/viewer"
)

// depthOffsetScale converts a depth offset into a translation along the view
// direction, relative to the camera distance
const depthOffsetScale = 2e-4

var edgeColor = rl.NewColor(20, 20, 20, 255)

// recordToMesh converts a record to a Raylib mesh with baked lighting and the
// material color (including opacity) in the vertex colors
func recordToMesh(r *models.Record) rl.Mesh {
	triangleCount := r.Model.TriangleCount()
	vertexCount := triangleCount * 3

	mesh := rl.Mesh{
		VertexCount:   int32(vertexCount),
		TriangleCount: int32(triangleCount),
	}

	vertices := make([]float32, vertexCount*3)
	normals := make([]float32, vertexCount*3)
	colors := make([]uint8, vertexCount*4)

	idx := 0
	for _, m := range r.Model.Meshes {
		for _, triangle := range m.Triangles {
			normal := triangle.Normal()
			c := viewer.Shade(r.Material, normal)

			for _, v := range [3]geometry.Vector3{triangle.V1, triangle.V2, triangle.V3} {
				vertices[idx*3+0] = float32(v.X)
				vertices[idx*3+1] = float32(v.Y)
				vertices[idx*3+2] = float32(v.Z)
				normals[idx*3+0] = float32(normal.X)
				normals[idx*3+1] = float32(normal.Y)
				normals[idx*3+2] = float32(normal.Z)
				colors[idx*4+0] = c.R
				colors[idx*4+1] = c.G
				colors[idx*4+2] = c.B
				colors[idx*4+3] = c.A
				idx++
			}
		}
	}

	if vertexCount == 0 {
		return mesh
	}
	mesh.Vertices = &vertices[0]
	mesh.Normals = &normals[0]
	mesh.Colors = &colors[0]

	rl.UploadMesh(&mesh, false)

	// The buffers are Go memory: drop them so UnloadMesh only frees GPU objects
	mesh.Vertices = nil
	mesh.Normals = nil
	mesh.Colors = nil
	return mesh
}

// drawScene draws opaque records first, then translucent ones with alpha
// blending and depth writes disabled
func (app *App) drawScene(material rl.Material) {
	scene := app.Models.scene
	var translucent []*models.Record

	for _, r := range scene.visible {
		if r.Material.Transparent {
			translucent = append(translucent, r)
			continue
		}
		app.drawRecord(r, material)
	}

	if len(translucent) > 0 {
		rl.BeginBlendMode(rl.BlendAlpha)
		for _, r := range translucent {
			if !r.Material.DepthWrite {
				rl.DisableDepthMask()
			}
			app.drawRecord(r, material)
			rl.EnableDepthMask()
		}
		rl.EndBlendMode()
	}

	if app.View.showEdges {
		for _, r := range scene.visible {
			app.drawEdges(r)
		}
	}
}

// drawRecord draws one uploaded record, pushed away from the camera by its depth offset
func (app *App) drawRecord(r *models.Record, material rl.Material) {
	mesh, ok := app.Models.scene.meshes[r]
	if !ok || mesh.VertexCount == 0 {
		return
	}
	offset := app.depthOffset(r.Material.DepthOffset)
	rl.DrawMesh(mesh, material, rl.MatrixTranslate(offset.X, offset.Y, offset.Z))
}

// depthOffset translates a polygon offset into a world-space shift along the view direction
func (app *App) depthOffset(o models.DepthOffset) rl.Vector3 {
	amount := (o.Factor + o.Units) * app.Camera.orbit.Distance * depthOffsetScale
	return toRaylib(app.Camera.orbit.ViewDirection().Mul(amount))
}

func (app *App) drawEdges(r *models.Record) {
	for _, e := range r.Edges {
		rl.DrawLine3D(toRaylib(e.A), toRaylib(e.B), edgeColor)
	}
}
