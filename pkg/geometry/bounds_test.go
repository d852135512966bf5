package geometry

import (
	"math"
	"testing"
)

func TestBoundingBoxExtend(t *testing.T) {
	bbox := NewBoundingBox()
	if !bbox.Empty() {
		t.Fatal("new bounding box should be empty")
	}

	bbox.Extend(NewVector3(1, 2, 3))
	bbox.Extend(NewVector3(4, 5, 6))
	bbox.Extend(NewVector3(-1, 0, 2))

	if bbox.Min != NewVector3(-1, 0, 2) {
		t.Errorf("Min failed: got %v", bbox.Min)
	}
	if bbox.Max != NewVector3(4, 5, 6) {
		t.Errorf("Max failed: got %v", bbox.Max)
	}
}

func TestBoundingBoxSizeAndCenter(t *testing.T) {
	bbox := NewBoundingBox()
	bbox.Extend(NewVector3(0, 0, 0))
	bbox.Extend(NewVector3(10, 20, 30))

	if size := bbox.Size(); size != NewVector3(10, 20, 30) {
		t.Errorf("Size failed: got %v", size)
	}
	if center := bbox.Center(); center != NewVector3(5, 10, 15) {
		t.Errorf("Center failed: got %v", center)
	}
	if dim := bbox.MaxDimension(); math.Abs(dim-30) > 1e-10 {
		t.Errorf("MaxDimension failed: got %v", dim)
	}
}

func TestBoundingBoxEmptyIsZeroSized(t *testing.T) {
	bbox := NewBoundingBox()

	if size := bbox.Size(); size != (Vector3{}) {
		t.Errorf("empty box should have zero size, got %v", size)
	}
	if center := bbox.Center(); center != (Vector3{}) {
		t.Errorf("empty box should have zero center, got %v", center)
	}
}

func TestBoundingBoxUnion(t *testing.T) {
	a := NewBoundingBox()
	a.Extend(NewVector3(0, 0, 0))
	a.Extend(NewVector3(1, 1, 1))

	b := NewBoundingBox()
	b.Extend(NewVector3(2, -1, 0))

	a.Union(b)
	a.Union(NewBoundingBox())

	if a.Min != NewVector3(0, -1, 0) || a.Max != NewVector3(2, 1, 1) {
		t.Errorf("Union failed: got %v..%v", a.Min, a.Max)
	}
}
