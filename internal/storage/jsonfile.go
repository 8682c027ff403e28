package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// JSONFile keeps the whole document in one indented JSON file
type JSONFile struct {
	path string
}

// NewJSONFile returns a sink writing to path
func NewJSONFile(path string) *JSONFile {
	return &JSONFile{path: path}
}

// Path returns the file location
func (f *JSONFile) Path() string {
	return f.path
}

// Save writes the document. An empty document removes the file instead.
func (f *JSONFile) Save(_ context.Context, doc Document) error {
	if doc.IsEmpty() {
		if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to remove state file: %w", err)
		}
		return nil
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	return nil
}

// Load reads the document. A missing file yields an empty document.
func (f *JSONFile) Load(_ context.Context) (Document, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Document{Version: DocumentVersion}, nil
	}
	if err != nil {
		return Document{}, fmt.Errorf("failed to read state file: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("failed to parse state file: %w", err)
	}
	return doc, nil
}
