package models

import (
	"github.com/philipparndt/goifc/pkg/geometry"
	"github.com/philipparndt/goifc/pkg/ifc"
)

// Record is a loaded and styled model. It is owned by the controller cache
// and handed to the scene by pointer; scenes must not modify it.
type Record struct {
	ID         string
	Discipline Discipline
	Model      *ifc.Model
	Material   Material
	// Edges is the feature-edge outline, empty when outlines are disabled
	Edges []geometry.Edge
}
