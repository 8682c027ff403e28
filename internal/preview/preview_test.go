package preview

import (
	"bytes"
	"errors"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/philipparndt/gowall/pkg/calibration"
	"github.com/philipparndt/gowall/pkg/geometry"
)

func snapshot(t *testing.T) calibration.Snapshot {
	t.Helper()
	rect, err := geometry.Reconstruct(
		geometry.NewVector3(0, 1, 0),
		geometry.NewVector3(0.5, 1, 0),
		geometry.NewVector3(0.5, 0.8, 0),
	)
	if err != nil {
		t.Fatalf("Reconstruct failed: %v", err)
	}
	obj := calibration.NewSpatialObject("obj", rect, time.Time{})
	return calibration.Snapshot{Wall: calibration.WallCalibration{Visible: true}, Objects: []calibration.SpatialObject{obj}}
}

func near(a, b color.RGBA) bool {
	diff := func(x, y uint8) int {
		if x > y {
			return int(x - y)
		}
		return int(y - x)
	}
	return diff(a.R, b.R) < 8 && diff(a.G, b.G) < 8 && diff(a.B, b.B) < 8
}

func TestRenderObject(t *testing.T) {
	img := Render(snapshot(t), Options{Size: 64, Supersample: 2})

	if b := img.Bounds(); b.Dx() != 64 || b.Dy() != 64 {
		t.Fatalf("Render failed: expected 64x64, got %v", b)
	}
	if got := img.RGBAAt(32, 32); !near(got, objectFill) {
		t.Errorf("center pixel: expected object fill %v, got %v", objectFill, got)
	}
	if got := img.RGBAAt(1, 1); !near(got, background) {
		t.Errorf("corner pixel: expected background %v, got %v", background, got)
	}
}

func TestRenderSkipsHiddenObjects(t *testing.T) {
	snap := snapshot(t)
	snap.Objects[0].Visible = false
	img := Render(snap, Options{Size: 32, Supersample: 1})
	if got := img.RGBAAt(16, 16); !near(got, background) {
		t.Errorf("hidden object was drawn: got %v", got)
	}
}

func TestRenderEmpty(t *testing.T) {
	img := Render(calibration.Snapshot{}, Options{Size: 16, Supersample: 2})
	if b := img.Bounds(); b.Dx() != 16 {
		t.Fatalf("Render failed: expected 16px, got %v", b)
	}
	if got := img.RGBAAt(8, 8); !near(got, background) {
		t.Errorf("empty render should be background, got %v", got)
	}
}

func TestEncode(t *testing.T) {
	img := Render(snapshot(t), Options{Size: 32, Supersample: 2})

	var buf bytes.Buffer
	if err := Encode(&buf, img, "png"); err != nil {
		t.Fatalf("Encode png failed: %v", err)
	}
	decoded, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("png.Decode failed: %v", err)
	}
	if decoded.Bounds().Dx() != 32 {
		t.Errorf("decoded png: expected width 32, got %d", decoded.Bounds().Dx())
	}

	buf.Reset()
	if err := Encode(&buf, img, "webp"); err != nil {
		t.Fatalf("Encode webp failed: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("RIFF")) {
		t.Error("webp output should start with a RIFF header")
	}

	if err := Encode(&buf, img, "gif"); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("expected ErrUnknownFormat, got %v", err)
	}
	if ContentType("webp") != "image/webp" || ContentType("png") != "image/png" {
		t.Error("ContentType failed")
	}
}
