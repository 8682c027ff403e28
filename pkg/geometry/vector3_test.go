package geometry

import (
	"errors"
	"math"
	"testing"
)

func TestVector3Add(t *testing.T) {
	result := NewVector3(1, 2, 3).Add(NewVector3(4, 5, 6))

	expected := NewVector3(5, 7, 9)
	if result != expected {
		t.Errorf("Add failed: expected %v, got %v", expected, result)
	}
}

func TestVector3Sub(t *testing.T) {
	result := NewVector3(5, 7, 9).Sub(NewVector3(1, 2, 3))

	expected := NewVector3(4, 5, 6)
	if result != expected {
		t.Errorf("Sub failed: expected %v, got %v", expected, result)
	}
}

func TestVector3Cross(t *testing.T) {
	result := NewVector3(1, 0, 0).Cross(NewVector3(0, 1, 0))

	expected := NewVector3(0, 0, 1)
	if result != expected {
		t.Errorf("Cross failed: expected %v, got %v", expected, result)
	}
}

func TestVector3Dot(t *testing.T) {
	result := NewVector3(1, 2, 3).Dot(NewVector3(4, 5, 6))

	expected := 32.0
	if math.Abs(result-expected) > 1e-10 {
		t.Errorf("Dot failed: expected %v, got %v", expected, result)
	}
}

func TestVector3Normalize(t *testing.T) {
	normalized := NewVector3(3, 4, 0).Normalize()

	if math.Abs(normalized.Length()-1) > 1e-10 {
		t.Errorf("Normalize failed: expected length 1, got %v", normalized.Length())
	}
	if zero := (Vector3{}).Normalize(); zero != (Vector3{}) {
		t.Errorf("Normalize of zero vector failed: got %v", zero)
	}
}

func TestVector3NormalizeChecked(t *testing.T) {
	if _, err := NewVector3(1e-12, 0, 0).NormalizeChecked(DefaultEpsilon); !errors.Is(err, ErrDegenerateInput) {
		t.Errorf("NormalizeChecked failed: expected ErrDegenerateInput, got %v", err)
	}

	v, err := NewVector3(0, 0, 2).NormalizeChecked(DefaultEpsilon)
	if err != nil {
		t.Fatalf("NormalizeChecked failed: %v", err)
	}
	if v != NewVector3(0, 0, 1) {
		t.Errorf("NormalizeChecked failed: expected (0,0,1), got %v", v)
	}
}

func TestMean(t *testing.T) {
	center := Mean(NewVector3(0, 0, 0), NewVector3(2, 0, 0), NewVector3(2, 2, 0), NewVector3(0, 2, 0))

	expected := NewVector3(1, 1, 0)
	if center != expected {
		t.Errorf("Mean failed: expected %v, got %v", expected, center)
	}
}

func TestAngleBetween(t *testing.T) {
	angle := AngleBetween(NewVector3(1, 0, 0), NewVector3(0, 3, 0))
	if math.Abs(angle-90) > 1e-10 {
		t.Errorf("AngleBetween failed: expected 90, got %v", angle)
	}
}
