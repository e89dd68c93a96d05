package sessions

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"interview-backend/internal/store"
)

// ManifestFileName is the per-session summary written next to the videos.
const ManifestFileName = "metadata.json"

// Manifest is the durable summary of a session. It is a derived projection:
// the store document stays authoritative.
type Manifest struct {
	SessionID         string         `json:"sessionId"`
	UserName          string         `json:"userName"`
	TimeZone          string         `json:"timeZone"`
	FolderName        string         `json:"folderName"`
	StartedAt         time.Time      `json:"startedAt"`
	EndedAt           *time.Time     `json:"endedAt"`
	UploadedAt        time.Time      `json:"uploadedAt"`
	ReceivedQuestions []int          `json:"receivedQuestions"`
	VideoFiles        []ManifestFile `json:"videoFiles"`
	Completed         bool           `json:"completed"`
	BrowserInfo       any            `json:"browserInfo,omitempty"`
}

// ManifestFile describes one landed recording.
type ManifestFile struct {
	FileName   string    `json:"fileName"`
	UploadedAt time.Time `json:"uploadedAt"`
	SizeBytes  int64     `json:"sizeBytes"`
}

// BuildManifest projects a session and its ledger entries into a manifest.
// Uploads must already be ordered by question ascending (Document.SessionUploads).
func BuildManifest(s *store.Session, uploads []store.UploadRecord, completed bool) Manifest {
	files := make([]ManifestFile, 0, len(uploads))
	for _, u := range uploads {
		files = append(files, ManifestFile{
			FileName:   u.Filename,
			UploadedAt: u.UploadedAt,
			SizeBytes:  u.Size,
		})
	}

	m := Manifest{
		SessionID:         s.SessionID,
		UserName:          s.Candidate,
		TimeZone:          s.TimeZone,
		FolderName:        s.FolderName,
		StartedAt:         s.StartedAt,
		EndedAt:           s.EndedAt,
		UploadedAt:        time.Now().UTC(),
		ReceivedQuestions: s.AnsweredQuestions(),
		VideoFiles:        files,
		Completed:         completed,
	}
	if info, ok := s.Metadata["browserInfo"]; ok {
		m.BrowserInfo = info
	}
	return m
}

// WriteManifest persists the manifest into folderPath with the same
// temp-then-rename pattern as the store, overwriting any prior manifest.
func WriteManifest(folderPath string, m Manifest) error {
	if err := os.MkdirAll(folderPath, 0o755); err != nil {
		return fmt.Errorf("mkdir session folder: %w", err)
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}

	dest := filepath.Join(folderPath, ManifestFileName)
	tmp := dest + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp manifest: %w", err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename manifest: %w", err)
	}
	return nil
}
