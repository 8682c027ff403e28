package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

const schema = `
CREATE TABLE IF NOT EXISTS objects (
    id         TEXT PRIMARY KEY,
    created_at INTEGER NOT NULL,
    visible    INTEGER NOT NULL,
    locked     INTEGER NOT NULL,
    record     TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS wall (
    id     INTEGER PRIMARY KEY CHECK (id = 1),
    record TEXT NOT NULL
);
`

// Repository stores objects and the wall in SQLite, one row per object
type Repository struct {
	db *sql.DB
}

// NewRepository wraps an open database
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// OpenSQLite opens the database at dbPath, creating its directory
func OpenSQLite(dbPath string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?cache=shared&mode=rwc&_pragma=busy_timeout=5000", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

// Init creates the tables if needed
func (r *Repository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// SaveObject inserts or replaces one object
func (r *Repository) SaveObject(ctx context.Context, rec Record) error {
	return saveObject(ctx, r.db, rec)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func saveObject(ctx context.Context, db execer, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal object %s: %w", rec.ID, err)
	}
	_, err = db.ExecContext(ctx, `
        INSERT INTO objects (id, created_at, visible, locked, record)
        VALUES (?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            visible = excluded.visible,
            locked  = excluded.locked,
            record  = excluded.record
    `, rec.ID, rec.CreatedAt, rec.Visible, rec.Locked, string(data))
	if err != nil {
		return fmt.Errorf("save object %s: %w", rec.ID, err)
	}
	return nil
}

// DeleteObject removes one object. Unknown ids are not an error.
func (r *Repository) DeleteObject(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM objects WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete object %s: %w", id, err)
	}
	return nil
}

// ListObjects returns every object in insertion order
func (r *Repository) ListObjects(ctx context.Context) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT record FROM objects ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list objects: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var rec Record
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			return nil, fmt.Errorf("decode object: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// SaveWall replaces the wall calibration
func (r *Repository) SaveWall(ctx context.Context, wall WallRecord) error {
	return saveWall(ctx, r.db, wall)
}

func saveWall(ctx context.Context, db execer, wall WallRecord) error {
	data, err := json.Marshal(wall)
	if err != nil {
		return fmt.Errorf("failed to marshal wall: %w", err)
	}
	_, err = db.ExecContext(ctx, `
        INSERT INTO wall (id, record) VALUES (1, ?)
        ON CONFLICT(id) DO UPDATE SET record = excluded.record
    `, string(data))
	if err != nil {
		return fmt.Errorf("save wall: %w", err)
	}
	return nil
}

// LoadWall returns the saved wall, or nil when none was saved
func (r *Repository) LoadWall(ctx context.Context) (*WallRecord, error) {
	var data string
	err := r.db.QueryRowContext(ctx, `SELECT record FROM wall WHERE id = 1`).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load wall: %w", err)
	}
	var wall WallRecord
	if err := json.Unmarshal([]byte(data), &wall); err != nil {
		return nil, fmt.Errorf("decode wall: %w", err)
	}
	return &wall, nil
}

// Save replaces the stored state with doc in one transaction
func (r *Repository) Save(ctx context.Context, doc Document) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM objects`); err != nil {
		return fmt.Errorf("clear objects: %w", err)
	}
	for _, rec := range doc.Objects {
		if err := saveObject(ctx, tx, rec); err != nil {
			return err
		}
	}
	if doc.Wall != nil {
		if err := saveWall(ctx, tx, *doc.Wall); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Load reads the whole stored state
func (r *Repository) Load(ctx context.Context) (Document, error) {
	wall, err := r.LoadWall(ctx)
	if err != nil {
		return Document{}, err
	}
	objects, err := r.ListObjects(ctx)
	if err != nil {
		return Document{}, err
	}
	return Document{Version: DocumentVersion, Wall: wall, Objects: objects}, nil
}
