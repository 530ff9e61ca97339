package domain

import "time"

// FeedbackSession pairs one stored video with the feedback text the AI
// endpoint returned for it. Insert-only in this system; many sessions may
// reference the same video path.
type FeedbackSession struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	VideoPath    string    `json:"video_path"`
	FeedbackText string    `json:"feedback_text"`
	CreatedAt    time.Time `json:"created_at"`
}
