package domain

import "errors"

// Every failure kind is terminal for its request; nothing is retried.
var (
	ErrInvalidRequest = errors.New("userId and videoPath are required")
	ErrNotConfigured  = errors.New("analysis service is not configured")
	ErrSignedURL      = errors.New("could not produce a signed video URL")
	ErrAIUnreachable  = errors.New("analysis endpoint is unreachable")
	ErrAIService      = errors.New("analysis endpoint returned an error")
	ErrAIMalformed    = errors.New("analysis endpoint returned a malformed response")
	ErrPersistence    = errors.New("could not persist feedback session")
)
