package sessions

import "errors"

var (
	// ErrNotFound indicates no session exists for the id.
	ErrNotFound = errors.New("session not found")

	// ErrBadID indicates the id does not match the session id format.
	ErrBadID = errors.New("invalid session id format")
)
