package geometry

import "testing"

func TestBoundingBoxExtend(t *testing.T) {
	bbox := NewBoundingBox()
	bbox.Extend(NewVector3(1, 2, 3), NewVector3(4, 5, 6), NewVector3(-1, 0, 2))

	expectedMin := NewVector3(-1, 0, 2)
	expectedMax := NewVector3(4, 5, 6)

	if bbox.Min != expectedMin {
		t.Errorf("Min failed: expected %v, got %v", expectedMin, bbox.Min)
	}
	if bbox.Max != expectedMax {
		t.Errorf("Max failed: expected %v, got %v", expectedMax, bbox.Max)
	}
}

func TestBoundingBoxEmpty(t *testing.T) {
	bbox := NewBoundingBox()
	if !bbox.IsEmpty() {
		t.Error("new bounding box should be empty")
	}
	if bbox.Size() != (Vector3{}) {
		t.Errorf("Size of empty box failed: got %v", bbox.Size())
	}
}

func TestBoundingBoxCenterAndPad(t *testing.T) {
	bbox := NewBoundingBox()
	bbox.Extend(NewVector3(0, 0, 0), NewVector3(10, 20, 30))

	if center := bbox.Center(); center != NewVector3(5, 10, 15) {
		t.Errorf("Center failed: expected (5,10,15), got %v", center)
	}

	padded := bbox.Pad(1)
	if padded.Size() != NewVector3(12, 22, 32) {
		t.Errorf("Pad failed: got size %v", padded.Size())
	}
}
