package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/philipparndt/gowall/pkg/calibration"
)

// Sink saves and loads whole documents
type Sink interface {
	Save(ctx context.Context, doc Document) error
	Load(ctx context.Context) (Document, error)
}

// IncrementalSink can apply single changes without rewriting everything
type IncrementalSink interface {
	Sink
	SaveObject(ctx context.Context, rec Record) error
	DeleteObject(ctx context.Context, id string) error
	SaveWall(ctx context.Context, wall WallRecord) error
}

// Persister writes store mutations through to a sink
type Persister struct {
	store *calibration.Store
	sink  Sink
	log   *slog.Logger
	ctx   context.Context

	err error
}

// NewPersister creates a persister. ctx bounds every write it makes.
func NewPersister(ctx context.Context, store *calibration.Store, sink Sink, log *slog.Logger) *Persister {
	if log == nil {
		log = slog.Default()
	}
	return &Persister{store: store, sink: sink, log: log, ctx: ctx}
}

// Restore loads the sink contents into the store
func (p *Persister) Restore() error {
	doc, err := p.sink.Load(p.ctx)
	if err != nil {
		return err
	}
	snap, err := FromDocument(doc)
	if err != nil {
		return fmt.Errorf("failed to restore state: %w", err)
	}
	p.store.Restore(snap)
	p.log.Info("state restored", "objects", len(snap.Objects), "wallCalibrated", snap.Wall.IsCalibrated)
	return nil
}

// Attach subscribes to store events
func (p *Persister) Attach() {
	p.store.Subscribe(p.handle)
}

// Err returns the most recent write failure, if any
func (p *Persister) Err() error {
	return p.err
}

// Flush writes the whole store
func (p *Persister) Flush() error {
	if err := p.sink.Save(p.ctx, ToDocument(p.store.Snapshot())); err != nil {
		return p.fail(err)
	}
	return nil
}

func (p *Persister) handle(e calibration.Event) {
	inc, ok := p.sink.(IncrementalSink)
	if !ok {
		_ = p.Flush()
		return
	}

	var err error
	switch e.Kind {
	case calibration.ObjectCreated, calibration.ObjectUpdated, calibration.AnchorsCompleted:
		if e.Object != nil {
			err = inc.SaveObject(p.ctx, ToRecord(*e.Object))
		}
	case calibration.ObjectDeleted:
		err = inc.DeleteObject(p.ctx, e.ObjectID)
	case calibration.WallChanged:
		if e.Wall != nil {
			err = inc.SaveWall(p.ctx, ToWallRecord(*e.Wall))
		}
	}
	if err != nil {
		_ = p.fail(err)
		return
	}
	p.log.Debug("persisted", "event", e.Kind.String(), "id", e.ObjectID)
}

func (p *Persister) fail(err error) error {
	p.err = err
	p.log.Warn("failed to persist state", "error", err)
	return err
}
