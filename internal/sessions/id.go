package sessions

import (
	"crypto/rand"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ID is a validated session identifier. Construction goes through ParseID or
// NewID so the format check lives in one place.
type ID string

var idPattern = regexp.MustCompile(`^sess_[a-zA-Z0-9_]+$`)

// ParseID validates raw and returns it as an ID.
func ParseID(raw string) (ID, error) {
	trimmed := strings.TrimSpace(raw)
	if !idPattern.MatchString(trimmed) {
		return "", ErrBadID
	}
	return ID(trimmed), nil
}

// NewID generates a fresh session id: base36 creation millis plus a random
// base36 suffix, e.g. "sess_m5k3v1q8_4fz8ak".
func NewID(now time.Time) ID {
	return ID("sess_" + strconv.FormatInt(now.UnixMilli(), 36) + "_" + randomSuffix(8))
}

func (id ID) String() string { return string(id) }

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

func randomSuffix(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		// Degrades to nanos; still unique enough combined with the millis part.
		return strconv.FormatInt(time.Now().UnixNano(), 36)
	}
	for i, b := range buf {
		buf[i] = base36[int(b)%len(base36)]
	}
	return string(buf)
}
