package util

import (
	"errors"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const maxFolderNameLen = 30

// SanitizeFileName removes path separators and rejects traversal patterns.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", errors.New("invalid file name")
	}
	s := strings.TrimSpace(name)
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	if s == "" {
		return "", errors.New("invalid file name")
	}
	return s, nil
}

// FoldNameForFolder reduces a candidate name to a filesystem-safe ASCII
// token: accents stripped via NFKD, anything outside [a-zA-Z0-9 _-] dropped,
// runs of whitespace collapsed to underscores, capped at 30 characters.
// Empty input folds to "unknown".
func FoldNameForFolder(name string) string {
	decomposed := norm.NFKD.String(name)

	var b strings.Builder
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '_' || r == '-':
			b.WriteRune(r)
		}
	}

	compact := strings.Join(strings.Fields(strings.TrimSpace(b.String())), "_")
	if len(compact) > maxFolderNameLen {
		compact = compact[:maxFolderNameLen]
	}
	if compact == "" {
		return "unknown"
	}
	return compact
}
