package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"interview-backend/internal/store"
	"interview-backend/internal/tokens"
)

func newTestManager(t *testing.T) (*Manager, *tokens.Registry) {
	t.Helper()
	dir := t.TempDir()
	st := store.NewFileStore(filepath.Join(dir, "recordings.json"))
	reg := tokens.NewRegistry(st)
	return NewManager(st, reg, filepath.Join(dir, "uploads"), time.UTC, 5), reg
}

func issueToken(t *testing.T, reg *tokens.Registry, raw string) tokens.Code {
	t.Helper()
	code, err := tokens.ParseCode(raw)
	if err != nil {
		t.Fatalf("ParseCode(%q): %v", raw, err)
	}
	if _, err := reg.Issue(context.Background(), code, nil); err != nil {
		t.Fatalf("issue %q: %v", raw, err)
	}
	return code
}

func TestCreateMakesFolderAndStubManifest(t *testing.T) {
	m, reg := newTestManager(t)
	ctx := context.Background()
	code := issueToken(t, reg, "11240001")

	s, err := m.Create(ctx, "  Jane Doe  ", code)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := ParseID(s.SessionID); err != nil {
		t.Fatalf("session id %q fails validation: %v", s.SessionID, err)
	}
	if s.Candidate != "Jane Doe" {
		t.Fatalf("expected trimmed candidate, got %q", s.Candidate)
	}
	if s.FolderPath == "" {
		t.Fatalf("expected folder path recorded")
	}

	info, err := os.Stat(s.FolderPath)
	if err != nil || !info.IsDir() {
		t.Fatalf("expected session folder on disk: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(s.FolderPath, ManifestFileName))
	if err != nil {
		t.Fatalf("read stub manifest: %v", err)
	}
	var man Manifest
	if err := json.Unmarshal(data, &man); err != nil {
		t.Fatalf("decode stub manifest: %v", err)
	}
	if man.Completed {
		t.Fatalf("stub manifest must not be completed")
	}
	if man.SessionID != s.SessionID || man.UserName != "Jane Doe" {
		t.Fatalf("stub manifest mismatch: %+v", man)
	}

	got, err := m.Get(ctx, s.SessionID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.FolderName != s.FolderName {
		t.Fatalf("expected persisted session, got %+v", got)
	}
}

func TestCreateFailsClosedOnUsedToken(t *testing.T) {
	m, reg := newTestManager(t)
	ctx := context.Background()
	code := issueToken(t, reg, "11240002")

	if _, err := m.Create(ctx, "First", code); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := m.Create(ctx, "Second", code); !errors.Is(err, tokens.ErrAlreadyUsed) {
		t.Fatalf("expected ErrAlreadyUsed, got %v", err)
	}

	// The rejected attempt must not leave a session behind.
	err := m.Store.View(ctx, func(doc *store.Document) error {
		if len(doc.Sessions) != 1 {
			t.Fatalf("expected 1 session, got %d", len(doc.Sessions))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
}

func TestGetUnknownAndMalformed(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	if _, err := m.Get(ctx, "sess_nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := m.Get(ctx, "not-a-session"); !errors.Is(err, ErrBadID) {
		t.Fatalf("expected ErrBadID, got %v", err)
	}
}

func TestUpdateDeepMergesMetadata(t *testing.T) {
	m, reg := newTestManager(t)
	ctx := context.Background()
	code := issueToken(t, reg, "11240003")

	s, err := m.Create(ctx, "Jane", code)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = m.Update(ctx, s.SessionID, Patch{Metadata: map[string]any{
		"browserInfo": map[string]any{"name": "Firefox"},
		"locale":      "th-TH",
	}})
	if err != nil {
		t.Fatalf("first update: %v", err)
	}

	updated, err := m.Update(ctx, s.SessionID, Patch{Metadata: map[string]any{
		"browserInfo": map[string]any{"version": "128"},
	}})
	if err != nil {
		t.Fatalf("second update: %v", err)
	}

	info, ok := updated.Metadata["browserInfo"].(map[string]any)
	if !ok {
		t.Fatalf("expected browserInfo map, got %T", updated.Metadata["browserInfo"])
	}
	if info["name"] != "Firefox" || info["version"] != "128" {
		t.Fatalf("expected deep merge to keep both keys, got %+v", info)
	}
	if updated.Metadata["locale"] != "th-TH" {
		t.Fatalf("expected untouched key preserved, got %+v", updated.Metadata)
	}
}

func TestEndIsIdempotent(t *testing.T) {
	m, reg := newTestManager(t)
	ctx := context.Background()
	code := issueToken(t, reg, "11240004")

	s, err := m.Create(ctx, "Jane", code)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	first, err := m.End(ctx, s.SessionID)
	if err != nil {
		t.Fatalf("first end: %v", err)
	}
	if first.EndedAt == nil {
		t.Fatalf("expected endedAt stamped")
	}

	second, err := m.End(ctx, s.SessionID)
	if err != nil {
		t.Fatalf("second end: %v", err)
	}
	if !second.EndedAt.Equal(*first.EndedAt) {
		t.Fatalf("endedAt changed on repeat end: %v vs %v", second.EndedAt, first.EndedAt)
	}
}

func TestEndWritesCompletedManifest(t *testing.T) {
	m, reg := newTestManager(t)
	ctx := context.Background()
	code := issueToken(t, reg, "11240005")

	s, err := m.Create(ctx, "Jane", code)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	now := time.Now().UTC()
	err = m.Store.Update(ctx, func(doc *store.Document) error {
		doc.UpsertUpload(store.UploadRecord{Filename: "Q2.webm", SessionID: s.SessionID, Question: 2, Size: 200, UploadedAt: now})
		doc.UpsertUpload(store.UploadRecord{Filename: "Q1.webm", SessionID: s.SessionID, Question: 1, Size: 100, UploadedAt: now})
		return nil
	})
	if err != nil {
		t.Fatalf("seed uploads: %v", err)
	}

	if _, err := m.End(ctx, s.SessionID); err != nil {
		t.Fatalf("end: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(s.FolderPath, ManifestFileName))
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	var man Manifest
	if err := json.Unmarshal(data, &man); err != nil {
		t.Fatalf("decode manifest: %v", err)
	}
	if !man.Completed {
		t.Fatalf("expected completed manifest")
	}
	if man.EndedAt == nil {
		t.Fatalf("expected endedAt in manifest")
	}
	if len(man.VideoFiles) != 2 || man.VideoFiles[0].FileName != "Q1.webm" || man.VideoFiles[1].FileName != "Q2.webm" {
		t.Fatalf("expected files ordered by question, got %+v", man.VideoFiles)
	}
	if len(man.ReceivedQuestions) != 2 || man.ReceivedQuestions[0] != 1 || man.ReceivedQuestions[1] != 2 {
		t.Fatalf("expected receivedQuestions [1 2], got %v", man.ReceivedQuestions)
	}
}

func TestEndUnknownSession(t *testing.T) {
	m, _ := newTestManager(t)

	if _, err := m.End(context.Background(), "sess_missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
