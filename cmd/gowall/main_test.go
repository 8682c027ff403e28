package main

import (
	"testing"

	"github.com/philipparndt/gowall/pkg/geometry"
)

func TestParseVector(t *testing.T) {
	v, err := parseVector("0.5, 1,-2")
	if err != nil {
		t.Fatalf("parseVector failed: %v", err)
	}
	expected := geometry.NewVector3(0.5, 1, -2)
	if v != expected {
		t.Errorf("parseVector failed: expected %v, got %v", expected, v)
	}

	for _, bad := range []string{"", "1,2", "1,2,3,4", "a,b,c"} {
		if _, err := parseVector(bad); err == nil {
			t.Errorf("parseVector(%q) should fail", bad)
		}
	}
}

func TestFormatVector(t *testing.T) {
	got := formatVector(geometry.NewVector3(1, 0.25, -3))
	expected := "(1.000000, 0.250000, -3.000000)"
	if got != expected {
		t.Errorf("formatVector failed: expected %s, got %s", expected, got)
	}
}
