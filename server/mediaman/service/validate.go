package service

import (
	"coach_server/server/mediaman/domain"
)

// AcceptedContentType is the single video type the pipeline analyzes.
const AcceptedContentType = "video/mp4"

// ValidateVideo checks a declared MIME type and byte size against the
// configured ceiling. Pure: no I/O, identical output for identical input.
// The type check runs first, so an oversized non-video reports the format.
func ValidateVideo(contentType string, sizeBytes, maxBytes int64) error {
	if contentType != AcceptedContentType {
		return domain.ErrUnsupportedFormat
	}
	if sizeBytes > maxBytes {
		return domain.ErrFileTooLarge
	}
	return nil
}
