package tokens

import "errors"

var (
	// ErrBadFormat indicates the value does not match the admission code pattern.
	ErrBadFormat = errors.New("invalid token format")

	// ErrNotFound indicates the token is unknown.
	ErrNotFound = errors.New("token not found")

	// ErrAlreadyUsed indicates the token was redeemed before.
	ErrAlreadyUsed = errors.New("token already used")

	// ErrExpired indicates the token's expiry is in the past.
	ErrExpired = errors.New("token expired")
)
