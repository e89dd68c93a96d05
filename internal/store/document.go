package store

import (
	"sort"
	"time"
)

// Document is the entire persisted state: every session, the global upload
// ledger, and all admission tokens. Mutations always replace the document as
// a whole.
type Document struct {
	Sessions map[string]*Session `json:"sessions"`
	Uploads  []UploadRecord      `json:"uploads"`
	Tokens   []TokenRecord       `json:"tokens"`
}

// Session is one candidate's interview attempt.
type Session struct {
	SessionID    string         `json:"sessionId"`
	Candidate    string         `json:"candidate,omitempty"`
	StartedAt    time.Time      `json:"startedAt"`
	EndedAt      *time.Time     `json:"endedAt"`
	FolderName   string         `json:"folderName,omitempty"`
	FolderPath   string         `json:"folderPath,omitempty"`
	TimeZone     string         `json:"timeZone,omitempty"`
	MaxQuestions int            `json:"maxQuestions,omitempty"`
	Answers      []AnswerRecord `json:"answers"`
	Metadata     map[string]any `json:"metadata"`
}

// AnswerRecord is the accepted recording for one question of a session.
type AnswerRecord struct {
	Question   int       `json:"question"`
	Filename   string    `json:"filename"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// UploadRecord mirrors an AnswerRecord in the global ledger, keyed by
// (sessionId, question).
type UploadRecord struct {
	Filename   string    `json:"filename"`
	SessionID  string    `json:"sessionId"`
	Question   int       `json:"question"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploadedAt"`
	TimeZone   string    `json:"timeZone,omitempty"`
	FolderName string    `json:"folderName,omitempty"`
}

// TokenRecord is a single-use admission code.
type TokenRecord struct {
	Token     string     `json:"token"`
	Used      bool       `json:"used"`
	UsedAt    *time.Time `json:"usedAt,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// NewDocument returns an empty document with all collections materialized.
func NewDocument() *Document {
	return &Document{
		Sessions: map[string]*Session{},
		Uploads:  []UploadRecord{},
		Tokens:   []TokenRecord{},
	}
}

// normalize repairs nil collections after decoding older or partial state.
func (d *Document) normalize() {
	if d.Sessions == nil {
		d.Sessions = map[string]*Session{}
	}
	if d.Uploads == nil {
		d.Uploads = []UploadRecord{}
	}
	if d.Tokens == nil {
		d.Tokens = []TokenRecord{}
	}
	for _, s := range d.Sessions {
		if s.Answers == nil {
			s.Answers = []AnswerRecord{}
		}
		if s.Metadata == nil {
			s.Metadata = map[string]any{}
		}
	}
}

// Session returns the session for id, or nil.
func (d *Document) Session(id string) *Session {
	return d.Sessions[id]
}

// PutSession inserts or replaces a session.
func (d *Document) PutSession(s *Session) {
	d.Sessions[s.SessionID] = s
}

// FindToken returns a pointer into the token slice for value, or nil.
func (d *Document) FindToken(value string) *TokenRecord {
	for i := range d.Tokens {
		if d.Tokens[i].Token == value {
			return &d.Tokens[i]
		}
	}
	return nil
}

// UpsertUpload replaces the ledger entry for (sessionId, question) or appends
// a new one, and refreshes the owning session's answer for that question.
func (d *Document) UpsertUpload(rec UploadRecord) {
	replaced := false
	for i := range d.Uploads {
		if d.Uploads[i].SessionID == rec.SessionID && d.Uploads[i].Question == rec.Question {
			d.Uploads[i] = rec
			replaced = true
			break
		}
	}
	if !replaced {
		d.Uploads = append(d.Uploads, rec)
	}

	if s := d.Sessions[rec.SessionID]; s != nil {
		s.SetAnswer(AnswerRecord{
			Question:   rec.Question,
			Filename:   rec.Filename,
			Size:       rec.Size,
			UploadedAt: rec.UploadedAt,
		})
	}
}

// SessionUploads returns the ledger entries for a session ordered by
// question number ascending.
func (d *Document) SessionUploads(sessionID string) []UploadRecord {
	var out []UploadRecord
	for _, u := range d.Uploads {
		if u.SessionID == sessionID {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Question < out[j].Question })
	return out
}

// SetAnswer replaces the answer for the same question or appends a new one,
// keeping at most one record per question.
func (s *Session) SetAnswer(a AnswerRecord) {
	for i := range s.Answers {
		if s.Answers[i].Question == a.Question {
			s.Answers[i] = a
			return
		}
	}
	s.Answers = append(s.Answers, a)
}

// Answer returns the answer for a question, or nil.
func (s *Session) Answer(question int) *AnswerRecord {
	for i := range s.Answers {
		if s.Answers[i].Question == question {
			return &s.Answers[i]
		}
	}
	return nil
}

// Ended reports whether the session has reached its terminal state.
func (s *Session) Ended() bool {
	return s.EndedAt != nil
}

// AnsweredQuestions returns the unique question numbers answered so far,
// sorted ascending.
func (s *Session) AnsweredQuestions() []int {
	seen := map[int]struct{}{}
	out := []int{}
	for _, a := range s.Answers {
		if a.Question < 1 {
			continue
		}
		if _, ok := seen[a.Question]; ok {
			continue
		}
		seen[a.Question] = struct{}{}
		out = append(out, a.Question)
	}
	sort.Ints(out)
	return out
}
