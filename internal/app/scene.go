package app

import (
	"slices"
	"sync"
	"sync/atomic"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/philipparndt/goifc/internal/models"
	"github.com/philipparndt/goifc/pkg/geometry"
)

type sceneOp struct {
	record *models.Record
	add    bool
}

// gpuScene implements models.Scene for raylib. Add and Remove may be called from
// any goroutine; they only queue work. sync applies the queue on the main thread,
// where GPU uploads are allowed.
type gpuScene struct {
	mu  sync.Mutex
	ops []sceneOp

	// main thread only
	meshes  map[*models.Record]rl.Mesh
	visible []*models.Record
}

func newGPUScene() *gpuScene {
	return &gpuScene{meshes: make(map[*models.Record]rl.Mesh)}
}

// Add queues a record for display
func (s *gpuScene) Add(r *models.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops = append(s.ops, sceneOp{record: r, add: true})
}

// Remove queues a record for removal
func (s *gpuScene) Remove(r *models.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops = append(s.ops, sceneOp{record: r})
}

// sync applies queued operations and reports whether the visible set changed.
// Meshes stay uploaded after removal so reactivation is free.
func (s *gpuScene) sync() bool {
	s.mu.Lock()
	ops := s.ops
	s.ops = nil
	s.mu.Unlock()

	changed := false
	for _, op := range ops {
		idx := slices.Index(s.visible, op.record)
		if !op.add {
			if idx >= 0 {
				s.visible = slices.Delete(s.visible, idx, idx+1)
				changed = true
			}
			continue
		}
		if idx >= 0 {
			continue
		}
		if _, ok := s.meshes[op.record]; !ok {
			s.meshes[op.record] = recordToMesh(op.record)
		}
		s.visible = append(s.visible, op.record)
		changed = true
	}
	return changed
}

// boundingBox returns the bounds of all visible records
func (s *gpuScene) boundingBox() geometry.BoundingBox {
	bbox := geometry.NewBoundingBox()
	for _, r := range s.visible {
		bbox.Union(r.Model.BoundingBox())
	}
	return bbox
}

// unload frees all GPU meshes
func (s *gpuScene) unload() {
	for r, mesh := range s.meshes {
		rl.UnloadMesh(&mesh)
		delete(s.meshes, r)
	}
	s.visible = nil
}

// spinner is the loading indicator drawn in the corner of the window
type spinner struct {
	visible atomic.Bool
	since   atomic.Int64 // unix nanos of the last Show
}

// Show makes the spinner visible
func (s *spinner) Show() {
	if s.visible.CompareAndSwap(false, true) {
		s.since.Store(time.Now().UnixNano())
	}
}

// Hide hides the spinner
func (s *spinner) Hide() {
	s.visible.Store(false)
}

// elapsed returns how long the spinner has been visible
func (s *spinner) elapsed() (time.Duration, bool) {
	if !s.visible.Load() {
		return 0, false
	}
	return time.Since(time.Unix(0, s.since.Load())), true
}
