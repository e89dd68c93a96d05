package sessions

import (
	"time"

	"interview-backend/internal/store"
)

// StatusPayload is the outward-facing representation of a session.
type StatusPayload struct {
	SessionID string         `json:"sessionId"`
	Candidate string         `json:"candidate,omitempty"`
	StartedAt time.Time      `json:"startedAt"`
	EndedAt   *time.Time     `json:"endedAt"`
	Finished  bool           `json:"finished"`
	Answered  []int          `json:"answered"`
	Metadata  map[string]any `json:"metadata"`
}

func toStatus(s *store.Session) StatusPayload {
	meta := s.Metadata
	if meta == nil {
		meta = map[string]any{}
	}
	return StatusPayload{
		SessionID: s.SessionID,
		Candidate: s.Candidate,
		StartedAt: s.StartedAt,
		EndedAt:   s.EndedAt,
		Finished:  s.Ended(),
		Answered:  s.AnsweredQuestions(),
		Metadata:  meta,
	}
}
