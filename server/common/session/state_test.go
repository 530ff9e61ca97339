package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHappyPathTransitions(t *testing.T) {
	s := NewSnapshot()
	require.Equal(t, StateIdle, s.State)

	s, ok := s.Apply(Event{State: StateUploading, Progress: 10})
	require.True(t, ok)
	assert.Equal(t, 10, s.Progress)

	s, ok = s.Apply(Event{State: StateUploading, Progress: 80})
	require.True(t, ok)
	assert.Equal(t, 80, s.Progress)

	s, ok = s.Apply(Event{State: StateUploaded, VideoPath: "user_u1/1.mp4", PreviewURL: "https://p"})
	require.True(t, ok)
	assert.Equal(t, 100, s.Progress)
	assert.Equal(t, "user_u1/1.mp4", s.VideoPath)

	s, ok = s.Apply(Event{State: StateAnalyzing})
	require.True(t, ok)
	assert.Equal(t, "user_u1/1.mp4", s.VideoPath)

	s, ok = s.Apply(Event{State: StateFeedbackReady, Feedback: "slow down"})
	require.True(t, ok)
	assert.Equal(t, "slow down", s.Feedback)
	assert.Equal(t, "user_u1/1.mp4", s.VideoPath)
}

func TestProgressNeverGoesBackwards(t *testing.T) {
	s := Snapshot{State: StateUploading, Progress: 60}
	next, ok := s.Apply(Event{State: StateUploading, Progress: 40})
	assert.False(t, ok)
	assert.Equal(t, 60, next.Progress)
}

func TestIllegalTransitionsAreDropped(t *testing.T) {
	cases := []struct {
		from State
		to   State
	}{
		{StateIdle, StateUploaded},
		{StateIdle, StateFeedbackReady},
		{StateUploading, StateAnalyzing},
		{StateUploaded, StateFeedbackReady},
		{StateAnalyzing, StateUploaded},
	}
	for _, tc := range cases {
		s := Snapshot{State: tc.from}
		_, ok := s.Apply(Event{State: tc.to})
		assert.False(t, ok, "%s -> %s must be dropped", tc.from, tc.to)
	}
}

func TestErrorClearsProgress(t *testing.T) {
	s := Snapshot{State: StateUploading, Progress: 73}
	next, ok := s.Apply(Event{State: StateError, Message: "upload failed"})
	require.True(t, ok)
	assert.Equal(t, StateError, next.State)
	assert.Zero(t, next.Progress)
	assert.Equal(t, "upload failed", next.Message)
}

func TestRecoveryTransitions(t *testing.T) {
	// A failed workflow can start over.
	s := Snapshot{State: StateError}
	next, ok := s.Apply(Event{State: StateUploading, Progress: 0})
	require.True(t, ok)
	assert.Equal(t, StateUploading, next.State)

	// Re-analysis of a stored video works from a fresh snapshot.
	s = NewSnapshot()
	next, ok = s.Apply(Event{State: StateAnalyzing, VideoPath: "user_u1/9.mp4"})
	require.True(t, ok)
	assert.Equal(t, "user_u1/9.mp4", next.VideoPath)

	// A new upload can replace a finished one.
	s = Snapshot{State: StateFeedbackReady}
	next, ok = s.Apply(Event{State: StateUploading, Progress: 5})
	require.True(t, ok)
	assert.Equal(t, 5, next.Progress)
}
