package storage

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/philipparndt/gowall/pkg/calibration"
	"github.com/philipparndt/gowall/pkg/geometry"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func exercise(t *testing.T, store *calibration.Store) {
	t.Helper()
	store.Calibrate(
		geometry.Plane{Point: geometry.NewVector3(0, 0, 0), Normal: geometry.NewVector3(0, 0, 1)},
		geometry.IdentityBasis(), 2, 1,
	)
	for _, id := range []string{"a", "b"} {
		if err := store.AddObject(sampleObject(t, id)); err != nil {
			t.Fatalf("AddObject failed: %v", err)
		}
	}
	_ = store.SetVisible("a", false)
	_ = store.DeleteObject("b")
}

func checkRestored(t *testing.T, sink Sink) {
	t.Helper()
	restored := calibration.NewStore()
	p := NewPersister(context.Background(), restored, sink, quiet)
	if err := p.Restore(); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if !restored.Wall().IsCalibrated {
		t.Error("restored wall should be calibrated")
	}
	objs := restored.Objects()
	if len(objs) != 1 || objs[0].ID != "a" || objs[0].Visible {
		t.Errorf("restored objects failed: %+v", objs)
	}
}

func TestPersisterJSONFile(t *testing.T) {
	sink := NewJSONFile(filepath.Join(t.TempDir(), "state.json"))
	store := calibration.NewStore()
	p := NewPersister(context.Background(), store, sink, quiet)
	p.Attach()

	exercise(t, store)
	if err := p.Err(); err != nil {
		t.Fatalf("persist failed: %v", err)
	}
	checkRestored(t, sink)
}

func TestPersisterSQLite(t *testing.T) {
	repo := openRepo(t)
	store := calibration.NewStore()
	p := NewPersister(context.Background(), store, repo, quiet)
	p.Attach()

	exercise(t, store)
	if err := p.Err(); err != nil {
		t.Fatalf("persist failed: %v", err)
	}
	checkRestored(t, repo)
}
