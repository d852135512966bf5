package loader

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	extism "github.com/extism/go-sdk"
	"go.uber.org/zap"

	"github.com/philipparndt/goifc/pkg/geometry"
	"github.com/philipparndt/goifc/pkg/ifc"
)

// MeshExport is the plugin function converting IFC bytes to mesh JSON
const MeshExport = "ifc_to_mesh"

// Wasm loads models through an extism plugin exporting MeshExport.
// The plugin receives the raw file and returns
//
//	{"schema": "IFC4", "meshes": [{"id": 12, "type": "IFCWALL", "positions": [x,y,z,...], "indices": [i,j,k,...]}]}
//
// with positions in metres.
type Wasm struct {
	Base   string
	Client *http.Client
	logger *zap.Logger

	mu     sync.Mutex // plugin instances are not safe for concurrent calls
	plugin *extism.Plugin
}

// NewWasm instantiates the plugin at pluginPath
func NewWasm(ctx context.Context, base, pluginPath string, logger *zap.Logger) (*Wasm, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	manifest := extism.Manifest{
		Wasm: []extism.Wasm{
			extism.WasmFile{Path: pluginPath},
		},
	}
	plugin, err := extism.NewPlugin(ctx, manifest, extism.PluginConfig{EnableWasi: true}, []extism.HostFunction{})
	if err != nil {
		return nil, fmt.Errorf("failed to load WASM plugin %s: %w", pluginPath, err)
	}
	if !plugin.FunctionExists(MeshExport) {
		plugin.CloseWithContext(ctx)
		return nil, fmt.Errorf("WASM plugin %s does not export %s", pluginPath, MeshExport)
	}

	return &Wasm{
		Base:   base,
		logger: logger.Named("wasm"),
		plugin: plugin,
	}, nil
}

// Load fetches the file for id and converts it inside the plugin
func (w *Wasm) Load(ctx context.Context, id string) (*ifc.Model, error) {
	location := ResolveURL(w.Base, id)
	data, err := Fetch(ctx, w.Client, location)
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	exit, out, err := w.plugin.CallWithContext(ctx, MeshExport, data)
	w.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("plugin failed on %s (exit %d): %w", location, exit, err)
	}
	w.logger.Debug("plugin converted model",
		zap.String("location", location),
		zap.Int("input_bytes", len(data)),
		zap.Int("output_bytes", len(out)))

	model, err := DecodeMeshes(out)
	if err != nil {
		return nil, fmt.Errorf("invalid plugin output for %s: %w", location, err)
	}
	model.Header.Name = id
	return model, nil
}

// Close releases the plugin
func (w *Wasm) Close(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.plugin.CloseWithContext(ctx)
}

type meshOutput struct {
	Schema string     `json:"schema"`
	Meshes []meshJSON `json:"meshes"`
}

type meshJSON struct {
	ID        int       `json:"id"`
	Type      string    `json:"type"`
	GlobalID  string    `json:"global_id"`
	Name      string    `json:"name"`
	Positions []float64 `json:"positions"`
	Indices   []int     `json:"indices"`
}

// DecodeMeshes converts the plugin JSON into a model
func DecodeMeshes(data []byte) (*ifc.Model, error) {
	var output meshOutput
	if err := json.Unmarshal(data, &output); err != nil {
		return nil, fmt.Errorf("failed to decode mesh JSON: %w", err)
	}

	meshes := make([]ifc.Mesh, 0, len(output.Meshes))
	for i, m := range output.Meshes {
		if len(m.Positions)%3 != 0 {
			return nil, fmt.Errorf("mesh %d: %d position values are not a multiple of 3", i, len(m.Positions))
		}
		if len(m.Indices)%3 != 0 {
			return nil, fmt.Errorf("mesh %d: %d indices are not a multiple of 3", i, len(m.Indices))
		}

		vertexCount := len(m.Positions) / 3
		vertex := func(i int) geometry.Vector3 {
			return geometry.NewVector3(m.Positions[3*i], m.Positions[3*i+1], m.Positions[3*i+2])
		}

		triangles := make([]geometry.Triangle, 0, len(m.Indices)/3)
		for j := 0; j < len(m.Indices); j += 3 {
			a, b, c := m.Indices[j], m.Indices[j+1], m.Indices[j+2]
			if a < 0 || b < 0 || c < 0 || a >= vertexCount || b >= vertexCount || c >= vertexCount {
				return nil, fmt.Errorf("mesh %d: index out of range at triangle %d", i, j/3)
			}
			tri := geometry.NewTriangle(vertex(a), vertex(b), vertex(c))
			if !tri.Degenerate() {
				triangles = append(triangles, tri)
			}
		}
		if len(triangles) == 0 {
			continue
		}

		meshes = append(meshes, ifc.Mesh{
			EntityID:  m.ID,
			Type:      m.Type,
			GlobalID:  m.GlobalID,
			Name:      m.Name,
			Triangles: triangles,
		})
	}

	return ifc.NewModel(output.Schema, meshes), nil
}
