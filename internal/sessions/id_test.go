package sessions

import (
	"testing"
	"time"
)

func TestNewIDRoundTripsParseID(t *testing.T) {
	id := NewID(time.Now())
	if _, err := ParseID(id.String()); err != nil {
		t.Fatalf("generated id %q failed validation: %v", id, err)
	}

	other := NewID(time.Now())
	if id == other {
		t.Fatalf("expected distinct ids, got %q twice", id)
	}
}

func TestParseIDRejectsJunk(t *testing.T) {
	for _, raw := range []string{
		"",
		"sess_",
		"session_abc",
		"sess_abc/..",
		"sess_abc def",
		"../etc/passwd",
	} {
		if _, err := ParseID(raw); err != ErrBadID {
			t.Fatalf("ParseID(%q): expected ErrBadID, got %v", raw, err)
		}
	}
}

func TestParseIDTrimsWhitespace(t *testing.T) {
	id, err := ParseID("  sess_abc123  ")
	if err != nil {
		t.Fatalf("ParseID: %v", err)
	}
	if id.String() != "sess_abc123" {
		t.Fatalf("expected trimmed id, got %q", id)
	}
}
