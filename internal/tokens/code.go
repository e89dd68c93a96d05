package tokens

import (
	"regexp"
	"strings"
)

// Code is a validated admission code value. Construction goes through
// ParseCode so format checks never leak into call sites.
type Code string

// Admission codes are the fixed "1124" prefix followed by four digits.
var codePattern = regexp.MustCompile(`^1124[0-9]{4}$`)

// ParseCode validates raw and returns it as a Code.
func ParseCode(raw string) (Code, error) {
	trimmed := strings.TrimSpace(raw)
	if !codePattern.MatchString(trimmed) {
		return "", ErrBadFormat
	}
	return Code(trimmed), nil
}

func (c Code) String() string { return string(c) }
