package sessions

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"interview-backend/internal/shared/telemetry"
	"interview-backend/internal/store"
	"interview-backend/internal/tokens"
)

const maxCandidateLen = 200

// Archiver copies a finished session's artifacts to long-term storage.
// Archiving is best-effort; failures never affect the session state.
type Archiver interface {
	ArchiveSession(ctx context.Context, s *store.Session, uploads []store.UploadRecord) error
}

// Manager owns session lifecycle: token-gated creation, lookups,
// allow-listed partial updates, and idempotent ending with manifest
// finalization.
type Manager struct {
	Store        store.Store
	Tokens       *tokens.Registry
	UploadRoot   string
	Location     *time.Location
	MaxQuestions int
	Archive      Archiver
}

// NewManager constructs a Manager.
func NewManager(st store.Store, reg *tokens.Registry, uploadRoot string, loc *time.Location, maxQuestions int) *Manager {
	if loc == nil {
		loc = time.UTC
	}
	if maxQuestions <= 0 {
		maxQuestions = 5
	}
	return &Manager{
		Store:        st,
		Tokens:       reg,
		UploadRoot:   uploadRoot,
		Location:     loc,
		MaxQuestions: maxQuestions,
	}
}

// Create redeems the admission code and creates a new session with its
// folder and manifest stub. Redemption failure aborts creation. Folder or
// stub failures leave the session degraded but valid: it is persisted
// without folder info and the failure is logged.
func (m *Manager) Create(ctx context.Context, candidate string, code tokens.Code) (*store.Session, error) {
	if _, err := m.Tokens.Redeem(ctx, code); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	candidate = strings.TrimSpace(candidate)
	if len(candidate) > maxCandidateLen {
		candidate = candidate[:maxCandidateLen]
	}

	session := &store.Session{
		SessionID:    NewID(now).String(),
		Candidate:    candidate,
		StartedAt:    now,
		TimeZone:     m.Location.String(),
		MaxQuestions: m.MaxQuestions,
		Answers:      []store.AnswerRecord{},
		Metadata:     map[string]any{},
	}

	folderName := FolderName(now, m.Location, candidate)
	folderPath := filepath.Join(m.UploadRoot, folderName)
	if err := os.MkdirAll(folderPath, 0o755); err != nil {
		telemetry.Warn("sessions.folder_create_failed", map[string]any{
			"session_id": session.SessionID,
			"path":       folderPath,
			"err":        err.Error(),
		})
	} else {
		session.FolderName = folderName
		session.FolderPath = folderPath
		if err := WriteManifest(folderPath, BuildManifest(session, nil, false)); err != nil {
			telemetry.Warn("sessions.manifest_stub_failed", map[string]any{
				"session_id": session.SessionID,
				"path":       folderPath,
				"err":        err.Error(),
			})
		}
	}

	err := m.Store.Update(ctx, func(doc *store.Document) error {
		doc.PutSession(session)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// Get returns the session for id. Absence and a malformed id are reported as
// ErrNotFound and ErrBadID respectively.
func (m *Manager) Get(ctx context.Context, rawID string) (*store.Session, error) {
	id, err := ParseID(rawID)
	if err != nil {
		return nil, err
	}

	var out *store.Session
	err = m.Store.View(ctx, func(doc *store.Document) error {
		if s := doc.Session(id.String()); s != nil {
			out = s
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, ErrNotFound
	}
	return out, nil
}

// Patch is the allow-listed partial update for a session. Nil fields are
// left untouched; Metadata is deep-merged into the existing map rather than
// replacing it.
type Patch struct {
	Candidate    *string
	FolderName   *string
	FolderPath   *string
	TimeZone     *string
	MaxQuestions *int
	Metadata     map[string]any
}

// Update merges patch into the session and persists it.
func (m *Manager) Update(ctx context.Context, rawID string, patch Patch) (*store.Session, error) {
	id, err := ParseID(rawID)
	if err != nil {
		return nil, err
	}

	var out *store.Session
	err = m.Store.Update(ctx, func(doc *store.Document) error {
		s := doc.Session(id.String())
		if s == nil {
			return ErrNotFound
		}
		if patch.Candidate != nil {
			s.Candidate = *patch.Candidate
		}
		if patch.FolderName != nil {
			s.FolderName = *patch.FolderName
		}
		if patch.FolderPath != nil {
			s.FolderPath = *patch.FolderPath
		}
		if patch.TimeZone != nil {
			s.TimeZone = *patch.TimeZone
		}
		if patch.MaxQuestions != nil {
			s.MaxQuestions = *patch.MaxQuestions
		}
		if len(patch.Metadata) > 0 {
			s.Metadata = mergeMaps(s.Metadata, patch.Metadata)
		}
		out = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// End stamps endedAt (idempotently: a second call returns the session
// unchanged) and finalizes the manifest. Manifest or archive failures never
// roll back the ended state.
func (m *Manager) End(ctx context.Context, rawID string) (*store.Session, error) {
	id, err := ParseID(rawID)
	if err != nil {
		return nil, err
	}

	var out *store.Session
	var uploads []store.UploadRecord
	err = m.Store.Update(ctx, func(doc *store.Document) error {
		s := doc.Session(id.String())
		if s == nil {
			return ErrNotFound
		}
		if s.EndedAt == nil {
			now := time.Now().UTC()
			s.EndedAt = &now
		}
		out = s
		uploads = doc.SessionUploads(s.SessionID)
		return nil
	})
	if err != nil {
		return nil, err
	}

	folderPath := m.sessionFolderPath(out)
	if err := WriteManifest(folderPath, BuildManifest(out, uploads, true)); err != nil {
		telemetry.Warn("sessions.manifest_write_failed", map[string]any{
			"session_id": out.SessionID,
			"path":       folderPath,
			"err":        err.Error(),
		})
	} else if m.Archive != nil {
		if err := m.Archive.ArchiveSession(ctx, out, uploads); err != nil {
			telemetry.Warn("sessions.archive_failed", map[string]any{
				"session_id": out.SessionID,
				"err":        err.Error(),
			})
		}
	}

	return out, nil
}

// sessionFolderPath resolves where the manifest belongs, falling back for
// degraded sessions that never got a folder.
func (m *Manager) sessionFolderPath(s *store.Session) string {
	if s.FolderPath != "" {
		return s.FolderPath
	}
	if s.FolderName != "" {
		return filepath.Join(m.UploadRoot, s.FolderName)
	}
	return filepath.Join(m.UploadRoot, s.SessionID)
}

func mergeMaps(dst, src map[string]any) map[string]any {
	if dst == nil {
		dst = map[string]any{}
	}
	for k, v := range src {
		if subSrc, ok := v.(map[string]any); ok {
			if subDst, ok := dst[k].(map[string]any); ok {
				dst[k] = mergeMaps(subDst, subSrc)
				continue
			}
		}
		dst[k] = v
	}
	return dst
}
