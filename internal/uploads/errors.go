package uploads

import "errors"

var (
	// ErrSessionRequired indicates no session id accompanied the upload.
	ErrSessionRequired = errors.New("session id required")

	// ErrSessionEnded indicates the session reached its terminal state before
	// the upload arrived.
	ErrSessionEnded = errors.New("session already finished")

	// ErrBadQuestion indicates the question number is outside [1, maxQuestions].
	ErrBadQuestion = errors.New("invalid question number")

	// ErrFileRequired indicates no file accompanied the upload.
	ErrFileRequired = errors.New("file required")

	// ErrFileTooSmall indicates the file is below the minimum size floor.
	ErrFileTooSmall = errors.New("file below minimum size")

	// ErrBadMediaType indicates the declared media type is not accepted.
	ErrBadMediaType = errors.New("unsupported media type")

	// ErrFileTooLarge indicates the file exceeds the configured maximum.
	ErrFileTooLarge = errors.New("file exceeds maximum size")

	// ErrNoVideoStream indicates the probe conclusively found no video stream.
	ErrNoVideoStream = errors.New("file contains no video stream")
)
