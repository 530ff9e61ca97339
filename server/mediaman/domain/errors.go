package domain

import "errors"

var (
	ErrUnsupportedFormat = errors.New("unsupported format: only video/mp4 is accepted")
	ErrFileTooLarge      = errors.New("file exceeds the maximum allowed size")
	ErrUploadInProgress  = errors.New("an upload is already in progress for this user")
	ErrUploadFailed      = errors.New("upload failed")
	ErrNotOwner          = errors.New("object key does not belong to this user")
)
