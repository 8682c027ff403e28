package geometry

import (
	"errors"
	"math"
	"testing"
)

func TestReconstructScenario(t *testing.T) {
	rect, err := Reconstruct(NewVector3(0, 1, 0), NewVector3(0.5, 1, 0), NewVector3(0.5, 0.8, 0))
	if err != nil {
		t.Fatalf("Reconstruct failed: %v", err)
	}

	if math.Abs(rect.Width-0.5) > 1e-10 {
		t.Errorf("Width failed: expected 0.5, got %v", rect.Width)
	}
	if math.Abs(rect.Height-0.2) > 1e-10 {
		t.Errorf("Height failed: expected 0.2, got %v", rect.Height)
	}
	if !rect.FourthCorner().ApproxEqual(NewVector3(0, 0.8, 0), 1e-10) {
		t.Errorf("FourthCorner failed: expected (0,0.8,0), got %v", rect.FourthCorner())
	}
	if !rect.Center.ApproxEqual(NewVector3(0.25, 0.9, 0), 1e-10) {
		t.Errorf("Center failed: expected (0.25,0.9,0), got %v", rect.Center)
	}
	if rect.CornerDeviation() > 1e-9 {
		t.Errorf("CornerDeviation failed: expected 0, got %v", rect.CornerDeviation())
	}
}

func TestReconstructClosesParallelogram(t *testing.T) {
	p1 := NewVector3(0.1, 1.7, -2.0)
	p2 := NewVector3(0.9, 1.75, -2.1)
	p3 := NewVector3(0.95, 1.2, -2.05)

	rect, err := Reconstruct(p1, p2, p3)
	if err != nil {
		t.Fatalf("Reconstruct failed: %v", err)
	}

	lhs := rect.FourthCorner().Sub(p1)
	rhs := p3.Sub(p2)
	if !lhs.ApproxEqual(rhs, 1e-12) {
		t.Errorf("parallelogram failed: p4-p1 = %v, p3-p2 = %v", lhs, rhs)
	}
}

func TestReconstructIsPure(t *testing.T) {
	p1 := NewVector3(0.123, 0.456, 0.789)
	p2 := NewVector3(1.1, 0.5, 0.7)
	p3 := NewVector3(1.0, -0.3, 0.75)

	first, err := Reconstruct(p1, p2, p3)
	if err != nil {
		t.Fatalf("Reconstruct failed: %v", err)
	}
	second, _ := Reconstruct(p1, p2, p3)

	if first != second {
		t.Errorf("Reconstruct is not deterministic: %+v vs %+v", first, second)
	}
}

func TestReconstructZeroEdge(t *testing.T) {
	p := NewVector3(1, 1, 1)
	_, err := Reconstruct(p, p, NewVector3(1, 0, 1))
	if !errors.Is(err, ErrDegenerateRectangle) {
		t.Errorf("Reconstruct failed: expected ErrDegenerateRectangle, got %v", err)
	}
	if !errors.Is(err, ErrDegenerateInput) {
		t.Errorf("ErrDegenerateRectangle should match ErrDegenerateInput, got %v", err)
	}
}

func TestReconstructCollinear(t *testing.T) {
	_, err := Reconstruct(NewVector3(0, 0, 0), NewVector3(1, 0, 0), NewVector3(2, 0, 0))
	if !errors.Is(err, ErrDegenerateInput) {
		t.Errorf("Reconstruct failed: expected ErrDegenerateInput, got %v", err)
	}
}

func TestCornerDeviation(t *testing.T) {
	// p3 leans 10 degrees away from the perpendicular at p2
	angle := 10 * math.Pi / 180
	p3 := NewVector3(1+math.Sin(angle), -math.Cos(angle), 0)

	rect, err := Reconstruct(NewVector3(0, 0, 0), NewVector3(1, 0, 0), p3)
	if err != nil {
		t.Fatalf("Reconstruct failed: %v", err)
	}
	if math.Abs(rect.CornerDeviation()-10) > 1e-9 {
		t.Errorf("CornerDeviation failed: expected 10, got %v", rect.CornerDeviation())
	}
}

func TestCornersFromCenterMatchesReconstruct(t *testing.T) {
	rect, err := Reconstruct(NewVector3(0, 1, 0), NewVector3(0.5, 1, 0), NewVector3(0.5, 0.8, 0))
	if err != nil {
		t.Fatalf("Reconstruct failed: %v", err)
	}

	corners := CornersFromCenter(rect.Center, rect.Width, rect.Height, rect.Basis)
	for i := range corners {
		if !corners[i].ApproxEqual(rect.Corners[i], 1e-10) {
			t.Errorf("corner %d failed: expected %v, got %v", i, rect.Corners[i], corners[i])
		}
	}
}
