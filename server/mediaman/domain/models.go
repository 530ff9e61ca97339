package domain

import "time"

// StoredVideo references one uploaded object: the immutable per-user key
// plus a time-limited preview URL.
type StoredVideo struct {
	ObjectKey  string    `json:"object_key"`
	PreviewURL string    `json:"preview_url"`
	SizeBytes  int64     `json:"size_bytes"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// PresignedUpload is the backend-bypassing upload variant: the client PUTs
// the bytes itself against a short-lived URL for the derived key.
type PresignedUpload struct {
	ObjectKey string `json:"object_key"`
	URL       string `json:"url"`
}
