package uploads

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"interview-backend/internal/sessions"
	"interview-backend/internal/store"
)

func newTestIngestor(t *testing.T) (*Ingestor, *store.Session) {
	t.Helper()
	dir := t.TempDir()
	st := store.NewFileStore(filepath.Join(dir, "recordings.json"))
	uploadRoot := filepath.Join(dir, "uploads")

	session := &store.Session{
		SessionID:    "sess_test1",
		Candidate:    "Jane",
		StartedAt:    time.Now().UTC(),
		TimeZone:     "UTC",
		FolderName:   "01_01_2026_00_00_Jane",
		FolderPath:   filepath.Join(uploadRoot, "01_01_2026_00_00_Jane"),
		MaxQuestions: 5,
		Answers:      []store.AnswerRecord{},
		Metadata:     map[string]any{},
	}
	err := st.Update(context.Background(), func(doc *store.Document) error {
		doc.PutSession(session)
		return nil
	})
	if err != nil {
		t.Fatalf("seed session: %v", err)
	}

	return NewIngestor(st, nil, uploadRoot, 10<<20, 10), session
}

func tempUpload(t *testing.T, size int) IncomingFile {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "upload-*")
	if err != nil {
		t.Fatalf("create temp upload: %v", err)
	}
	if _, err := f.Write(bytes.Repeat([]byte{0x1a}, size)); err != nil {
		t.Fatalf("write temp upload: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close temp upload: %v", err)
	}
	return IncomingFile{
		TempPath:     f.Name(),
		OriginalName: "blob.webm",
		ContentType:  "video/webm",
		Size:         int64(size),
	}
}

func TestIngestLandsFileAtDeterministicPath(t *testing.T) {
	ing, s := newTestIngestor(t)
	ctx := context.Background()

	rec, err := ing.Ingest(ctx, s.SessionID, 1, tempUpload(t, 50000))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if rec.Filename != "Q1.webm" || rec.Size != 50000 || rec.AlreadyExists {
		t.Fatalf("unexpected receipt: %+v", rec)
	}

	info, err := os.Stat(filepath.Join(s.FolderPath, "Q1.webm"))
	if err != nil {
		t.Fatalf("expected landed file: %v", err)
	}
	if info.Size() != 50000 {
		t.Fatalf("expected 50000 bytes on disk, got %d", info.Size())
	}

	err = ing.Store.View(ctx, func(doc *store.Document) error {
		ups := doc.SessionUploads(s.SessionID)
		if len(ups) != 1 || ups[0].Filename != "Q1.webm" || ups[0].Size != 50000 {
			t.Fatalf("unexpected ledger: %+v", ups)
		}
		sess := doc.Session(s.SessionID)
		if ans := sess.Answer(1); ans == nil || ans.Size != 50000 {
			t.Fatalf("expected answer recorded, got %+v", ans)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
}

func TestIngestReplaysExistingFile(t *testing.T) {
	ing, s := newTestIngestor(t)
	ctx := context.Background()

	first, err := ing.Ingest(ctx, s.SessionID, 1, tempUpload(t, 50000))
	if err != nil {
		t.Fatalf("first ingest: %v", err)
	}

	retry := tempUpload(t, 80000)
	second, err := ing.Ingest(ctx, s.SessionID, 1, retry)
	if err != nil {
		t.Fatalf("retry ingest: %v", err)
	}
	if !second.AlreadyExists {
		t.Fatalf("expected AlreadyExists on retry")
	}
	if second.Size != 50000 {
		t.Fatalf("retry must report the stored file, got size %d", second.Size)
	}
	if !second.UploadedAt.Equal(first.UploadedAt) {
		t.Fatalf("retry must report the original uploadedAt: %v vs %v", second.UploadedAt, first.UploadedAt)
	}

	// The stored file is untouched and the retry's temp file is gone.
	info, err := os.Stat(filepath.Join(s.FolderPath, "Q1.webm"))
	if err != nil || info.Size() != 50000 {
		t.Fatalf("stored file changed: %v %d", err, info.Size())
	}
	if _, err := os.Stat(retry.TempPath); !os.IsNotExist(err) {
		t.Fatalf("expected retry temp file removed, got %v", err)
	}
}

func TestIngestReplacesZeroByteRemnant(t *testing.T) {
	ing, s := newTestIngestor(t)
	ctx := context.Background()

	if err := os.MkdirAll(s.FolderPath, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(s.FolderPath, "Q1.webm"), nil, 0o644); err != nil {
		t.Fatalf("seed empty file: %v", err)
	}

	rec, err := ing.Ingest(ctx, s.SessionID, 1, tempUpload(t, 50000))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if rec.AlreadyExists || rec.Size != 50000 {
		t.Fatalf("expected fresh landing over empty remnant, got %+v", rec)
	}

	info, err := os.Stat(filepath.Join(s.FolderPath, "Q1.webm"))
	if err != nil || info.Size() != 50000 {
		t.Fatalf("expected remnant replaced: %v %d", err, info.Size())
	}
}

func TestIngestValidationChain(t *testing.T) {
	ing, s := newTestIngestor(t)
	ctx := context.Background()

	cases := []struct {
		name      string
		sessionID string
		question  int
		file      IncomingFile
		wantErr   error
	}{
		{"missing session id", "   ", 1, tempUpload(t, 50000), ErrSessionRequired},
		{"malformed session id", "nope", 1, tempUpload(t, 50000), sessions.ErrBadID},
		{"unknown session", "sess_unknown", 1, tempUpload(t, 50000), sessions.ErrNotFound},
		{"question too low", s.SessionID, 0, tempUpload(t, 50000), ErrBadQuestion},
		{"question too high", s.SessionID, 6, tempUpload(t, 50000), ErrBadQuestion},
		{"no file", s.SessionID, 1, IncomingFile{}, ErrFileRequired},
		{"too small", s.SessionID, 1, tempUpload(t, 5), ErrFileTooSmall},
		{"bad media type", s.SessionID, 1, func() IncomingFile {
			f := tempUpload(t, 50000)
			f.ContentType = "text/plain"
			return f
		}(), ErrBadMediaType},
	}

	for _, tc := range cases {
		_, err := ing.Ingest(ctx, tc.sessionID, tc.question, tc.file)
		if !errors.Is(err, tc.wantErr) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.wantErr, err)
		}
		if tc.file.TempPath != "" {
			if _, err := os.Stat(tc.file.TempPath); !os.IsNotExist(err) {
				t.Fatalf("%s: temp file not cleaned up", tc.name)
			}
		}
	}
}

func TestIngestRejectsOversizeFile(t *testing.T) {
	ing, s := newTestIngestor(t)
	ing.MaxBytes = 1024

	file := tempUpload(t, 2048)
	if _, err := ing.Ingest(context.Background(), s.SessionID, 1, file); !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("expected ErrFileTooLarge, got %v", err)
	}
	if _, err := os.Stat(file.TempPath); !os.IsNotExist(err) {
		t.Fatalf("temp file not cleaned up")
	}
}

func TestIngestRejectsEndedSession(t *testing.T) {
	ing, s := newTestIngestor(t)
	ctx := context.Background()

	err := ing.Store.Update(ctx, func(doc *store.Document) error {
		now := time.Now().UTC()
		doc.Session(s.SessionID).EndedAt = &now
		return nil
	})
	if err != nil {
		t.Fatalf("end session: %v", err)
	}

	file := tempUpload(t, 50000)
	if _, err := ing.Ingest(ctx, s.SessionID, 1, file); !errors.Is(err, ErrSessionEnded) {
		t.Fatalf("expected ErrSessionEnded, got %v", err)
	}
	if _, err := os.Stat(file.TempPath); !os.IsNotExist(err) {
		t.Fatalf("temp file not cleaned up")
	}
}

func TestIngestAcceptsCodecParameters(t *testing.T) {
	ing, s := newTestIngestor(t)

	file := tempUpload(t, 50000)
	file.ContentType = `video/webm;codecs="vp8,opus"`
	rec, err := ing.Ingest(context.Background(), s.SessionID, 2, file)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if rec.Filename != "Q2.webm" {
		t.Fatalf("expected Q2.webm, got %q", rec.Filename)
	}
}

func TestIngestConcurrentSameQuestionLandsOneFile(t *testing.T) {
	ing, s := newTestIngestor(t)
	ctx := context.Background()

	const racers = 8
	sizes := make([]int64, racers)
	var wg sync.WaitGroup
	errs := make(chan error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec, err := ing.Ingest(ctx, s.SessionID, 3, tempUpload(t, 40000+i))
			if err != nil {
				errs <- fmt.Errorf("racer %d: %w", i, err)
				return
			}
			sizes[i] = rec.Size
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}

	// All racers must report the same landed file.
	for i := 1; i < racers; i++ {
		if sizes[i] != sizes[0] {
			t.Fatalf("racers disagree on landed size: %v", sizes)
		}
	}

	info, err := os.Stat(filepath.Join(s.FolderPath, "Q3.webm"))
	if err != nil {
		t.Fatalf("expected landed file: %v", err)
	}
	if info.Size() != sizes[0] {
		t.Fatalf("disk size %d does not match reported %d", info.Size(), sizes[0])
	}

	err = ing.Store.View(ctx, func(doc *store.Document) error {
		if n := len(doc.SessionUploads(s.SessionID)); n != 1 {
			t.Fatalf("expected 1 ledger entry, got %d", n)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
}
