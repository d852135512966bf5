package viewer

import (
	"sync"

	"github.com/philipparndt/goifc/internal/models"
	"github.com/philipparndt/goifc/pkg/geometry"
)

// Scene is the set of records to draw. It is safe for concurrent use.
type Scene struct {
	mu       sync.RWMutex
	records  []*models.Record
	version  uint64
	onChange func()
}

// NewScene creates an empty scene
func NewScene() *Scene {
	return &Scene{}
}

// OnChange sets a callback invoked after every change. It runs on the goroutine
// that changed the scene.
func (s *Scene) OnChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

// Add inserts a record; adding a present record does nothing
func (s *Scene) Add(r *models.Record) {
	s.mu.Lock()
	for _, existing := range s.records {
		if existing == r {
			s.mu.Unlock()
			return
		}
	}
	s.records = append(s.records, r)
	s.version++
	fn := s.onChange
	s.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// Remove deletes a record; removing an absent record does nothing
func (s *Scene) Remove(r *models.Record) {
	s.mu.Lock()
	removed := false
	for i, existing := range s.records {
		if existing == r {
			s.records = append(s.records[:i], s.records[i+1:]...)
			removed = true
			break
		}
	}
	if removed {
		s.version++
	}
	fn := s.onChange
	s.mu.Unlock()

	if removed && fn != nil {
		fn()
	}
}

// Records returns a snapshot of the records in insertion order
func (s *Scene) Records() []*models.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*models.Record(nil), s.records...)
}

// Len returns the number of records
func (s *Scene) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Version increases with every change
func (s *Scene) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// BoundingBox returns the union of the bounding boxes of all records
func (s *Scene) BoundingBox() geometry.BoundingBox {
	bbox := geometry.NewBoundingBox()
	for _, r := range s.Records() {
		bbox.Union(r.Model.BoundingBox())
	}
	return bbox
}
