package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"interview-backend/internal/shared/telemetry"
)

// FileStore keeps the document in a single JSON file. The write lock covers
// the full load-mutate-save cycle; saves go through a temp file in the same
// directory followed by a rename, so readers and crashes never observe a
// half-written document.
type FileStore struct {
	mu   sync.RWMutex
	path string
}

// NewFileStore constructs a FileStore persisting at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// View runs fn against the current document without allowing mutation to be
// persisted.
func (s *FileStore) View(ctx context.Context, fn func(doc *Document) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	return fn(doc)
}

// Update runs fn inside an exclusive read-modify-write transaction over the
// whole document. The document is saved only when fn returns nil.
func (s *FileStore) Update(ctx context.Context, fn func(doc *Document) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	if err := fn(doc); err != nil {
		return err
	}
	return s.save(doc)
}

func (s *FileStore) load() (*Document, error) {
	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return NewDocument(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state file: %w", err)
	}

	doc := &Document{}
	if len(raw) == 0 {
		return NewDocument(), nil
	}
	if err := json.Unmarshal(raw, doc); err != nil {
		// Last resort: an unparseable state file is reset to the empty shape
		// rather than wedging every operation.
		telemetry.Error("store.state_file_corrupt", map[string]any{
			"path": s.path,
			"err":  err.Error(),
		})
		return NewDocument(), nil
	}
	doc.normalize()
	return doc, nil
}

func (s *FileStore) save(doc *Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir state dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".recordings-*.json")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp state file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename state file: %w", err)
	}
	return nil
}

var _ Store = (*FileStore)(nil)
