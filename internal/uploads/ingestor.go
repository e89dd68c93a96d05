package uploads

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"interview-backend/internal/sessions"
	"interview-backend/internal/shared/telemetry"
	"interview-backend/internal/store"
)

var acceptedMediaTypes = map[string]string{
	"video/webm": ".webm",
	"video/mp4":  ".mp4",
}

// IncomingFile is an upload already buffered to disk by the HTTP layer.
type IncomingFile struct {
	TempPath     string
	OriginalName string
	ContentType  string
	Size         int64
}

// Receipt acknowledges an accepted (or idempotently replayed) upload.
type Receipt struct {
	Filename      string
	SessionID     string
	Question      int
	Size          int64
	UploadedAt    time.Time
	AlreadyExists bool
}

// Ingestor validates and durably lands one answer file per (session,
// question). The destination path is deterministic, so retries are safe: a
// nonzero file already at the destination turns the upload into a no-op that
// reports the stored file back.
type Ingestor struct {
	Store      store.Store
	Probe      *Probe
	UploadRoot string
	MaxBytes   int64
	MinBytes   int64

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewIngestor constructs an Ingestor. probe may be nil to skip content
// validation entirely.
func NewIngestor(st store.Store, probe *Probe, uploadRoot string, maxBytes, minBytes int64) *Ingestor {
	if minBytes <= 0 {
		minBytes = 1
	}
	return &Ingestor{
		Store:      st,
		Probe:      probe,
		UploadRoot: uploadRoot,
		MaxBytes:   maxBytes,
		MinBytes:   minBytes,
		locks:      map[string]*sync.Mutex{},
	}
}

// Ingest runs the full admission chain and lands the file. Every rejection
// path removes the buffered temp file before returning.
func (ing *Ingestor) Ingest(ctx context.Context, rawSessionID string, question int, file IncomingFile) (Receipt, error) {
	landed := false
	defer func() {
		if !landed && file.TempPath != "" {
			os.Remove(file.TempPath)
		}
	}()

	if strings.TrimSpace(rawSessionID) == "" {
		return Receipt{}, ErrSessionRequired
	}
	id, err := sessions.ParseID(rawSessionID)
	if err != nil {
		return Receipt{}, err
	}

	var session store.Session
	found := false
	err = ing.Store.View(ctx, func(doc *store.Document) error {
		if s := doc.Session(id.String()); s != nil {
			session = *s
			found = true
		}
		return nil
	})
	if err != nil {
		return Receipt{}, err
	}
	if !found {
		return Receipt{}, sessions.ErrNotFound
	}
	if session.Ended() {
		return Receipt{}, ErrSessionEnded
	}

	maxQuestions := session.MaxQuestions
	if maxQuestions <= 0 {
		maxQuestions = 5
	}
	if question < 1 || question > maxQuestions {
		return Receipt{}, ErrBadQuestion
	}

	if file.TempPath == "" {
		return Receipt{}, ErrFileRequired
	}
	info, err := os.Stat(file.TempPath)
	if err != nil {
		return Receipt{}, ErrFileRequired
	}
	size := info.Size()
	if size < ing.MinBytes {
		return Receipt{}, ErrFileTooSmall
	}

	mediaType := normalizeMediaType(file.ContentType)
	ext, ok := acceptedMediaTypes[mediaType]
	if !ok {
		return Receipt{}, ErrBadMediaType
	}
	if ing.MaxBytes > 0 && size > ing.MaxBytes {
		return Receipt{}, ErrFileTooLarge
	}

	if ing.Probe != nil {
		if err := ing.Probe.Check(ctx, file.TempPath); err != nil {
			return Receipt{}, err
		}
	}

	folderPath := ing.sessionFolderPath(&session)
	filename := fmt.Sprintf("Q%d%s", question, ext)
	dest := filepath.Join(folderPath, filename)

	// Serialize competing uploads for the same (session, question): the
	// loser must observe the winner's file and take the no-op path.
	unlock := ing.lock(id.String(), question)
	defer unlock()

	if existing, err := os.Stat(dest); err == nil && existing.Size() > 0 {
		return ing.replayExisting(ctx, &session, question, filename, existing)
	}

	if err := os.MkdirAll(folderPath, 0o755); err != nil {
		return Receipt{}, fmt.Errorf("mkdir session folder: %w", err)
	}
	if err := moveFile(file.TempPath, dest); err != nil {
		return Receipt{}, fmt.Errorf("land upload: %w", err)
	}
	landed = true

	rec := store.UploadRecord{
		Filename:   filename,
		SessionID:  session.SessionID,
		Question:   question,
		Size:       size,
		UploadedAt: time.Now().UTC(),
		TimeZone:   session.TimeZone,
		FolderName: session.FolderName,
	}
	// The document is only persisted after the file operation succeeded.
	err = ing.Store.Update(ctx, func(doc *store.Document) error {
		doc.UpsertUpload(rec)
		return nil
	})
	if err != nil {
		return Receipt{}, err
	}

	return Receipt{
		Filename:   rec.Filename,
		SessionID:  rec.SessionID,
		Question:   rec.Question,
		Size:       rec.Size,
		UploadedAt: rec.UploadedAt,
	}, nil
}

// replayExisting handles the idempotent no-op path: the incoming temp file
// is discarded (by Ingest's cleanup), the stored file's stat is reported
// back, and the ledger is refreshed rather than duplicated. The incoming
// content is intentionally dropped even if it differs; overwriting here
// would break retry safety.
func (ing *Ingestor) replayExisting(ctx context.Context, session *store.Session, question int, filename string, existing os.FileInfo) (Receipt, error) {
	uploadedAt := existing.ModTime().UTC()
	err := ing.Store.Update(ctx, func(doc *store.Document) error {
		for _, u := range doc.SessionUploads(session.SessionID) {
			if u.Question == question && !u.UploadedAt.IsZero() {
				uploadedAt = u.UploadedAt
				break
			}
		}
		doc.UpsertUpload(store.UploadRecord{
			Filename:   filename,
			SessionID:  session.SessionID,
			Question:   question,
			Size:       existing.Size(),
			UploadedAt: uploadedAt,
			TimeZone:   session.TimeZone,
			FolderName: session.FolderName,
		})
		return nil
	})
	if err != nil {
		return Receipt{}, err
	}

	telemetry.Info("uploads.already_exists", map[string]any{
		"session_id": session.SessionID,
		"question":   question,
		"size":       existing.Size(),
	})
	return Receipt{
		Filename:      filename,
		SessionID:     session.SessionID,
		Question:      question,
		Size:          existing.Size(),
		UploadedAt:    uploadedAt,
		AlreadyExists: true,
	}, nil
}

func (ing *Ingestor) sessionFolderPath(s *store.Session) string {
	if s.FolderPath != "" {
		return s.FolderPath
	}
	if s.FolderName != "" {
		return filepath.Join(ing.UploadRoot, s.FolderName)
	}
	return filepath.Join(ing.UploadRoot, s.SessionID)
}

func (ing *Ingestor) lock(sessionID string, question int) func() {
	key := fmt.Sprintf("%s/%d", sessionID, question)
	ing.mu.Lock()
	mu, ok := ing.locks[key]
	if !ok {
		mu = &sync.Mutex{}
		ing.locks[key] = mu
	}
	ing.mu.Unlock()
	mu.Lock()
	return mu.Unlock
}

// normalizeMediaType strips parameters such as codecs from a declared
// content type.
func normalizeMediaType(raw string) string {
	base, _, _ := strings.Cut(raw, ";")
	return strings.ToLower(strings.TrimSpace(base))
}
