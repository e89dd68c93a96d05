package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"interview-backend/internal/shared/telemetry"
)

const stateRowID = 1

// PGStore keeps the same whole-document semantics as FileStore but persists
// the document as a single jsonb row. Update holds a row lock for the full
// load-mutate-save cycle, so concurrent writers on different processes
// serialize the same way the in-process mutex does.
type PGStore struct {
	DB *sql.DB
}

// NewPGStore constructs a PGStore over an existing connection pool.
func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{DB: db}
}

// View runs fn against the latest committed document.
func (s *PGStore) View(ctx context.Context, fn func(doc *Document) error) error {
	var raw []byte
	err := s.DB.QueryRowContext(ctx,
		`SELECT doc FROM recorder_state WHERE id = $1`, stateRowID).Scan(&raw)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("select state: %w", err)
	}
	return fn(decodeDocument(raw))
}

// Update runs fn inside a transaction holding the state row lock, then
// writes the whole document back.
func (s *PGStore) Update(ctx context.Context, fn func(doc *Document) error) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin state tx: %w", err)
	}
	defer tx.Rollback()

	var raw []byte
	err = tx.QueryRowContext(ctx,
		`SELECT doc FROM recorder_state WHERE id = $1 FOR UPDATE`, stateRowID).Scan(&raw)
	missing := errors.Is(err, sql.ErrNoRows)
	if err != nil && !missing {
		return fmt.Errorf("lock state row: %w", err)
	}

	doc := decodeDocument(raw)
	if err := fn(doc); err != nil {
		return err
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	if missing {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO recorder_state (id, doc, updated_at) VALUES ($1, $2, now())`,
			stateRowID, data)
	} else {
		_, err = tx.ExecContext(ctx,
			`UPDATE recorder_state SET doc = $2, updated_at = now() WHERE id = $1`,
			stateRowID, data)
	}
	if err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	return tx.Commit()
}

func decodeDocument(raw []byte) *Document {
	if len(raw) == 0 {
		return NewDocument()
	}
	doc := &Document{}
	if err := json.Unmarshal(raw, doc); err != nil {
		telemetry.Error("store.state_row_corrupt", map[string]any{"err": err.Error()})
		return NewDocument()
	}
	doc.normalize()
	return doc
}

var _ Store = (*PGStore)(nil)
