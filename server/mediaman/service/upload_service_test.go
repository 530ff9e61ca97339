package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coach_server/server/common/infra/cache"
	"coach_server/server/common/session"
	"coach_server/server/mediaman/domain"
)

type putCall struct {
	key         string
	contentType string
	size        int64
}

type stubStore struct {
	putErr        error
	presignGetErr error
	puts          []putCall
}

func (s *stubStore) Put(_ context.Context, key, contentType string, r io.Reader, size int64) error {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return err
	}
	if s.putErr != nil {
		return s.putErr
	}
	s.puts = append(s.puts, putCall{key: key, contentType: contentType, size: size})
	return nil
}

func (s *stubStore) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	if s.presignGetErr != nil {
		return "", s.presignGetErr
	}
	return "https://storage.test/signed/" + key, nil
}

func (s *stubStore) PresignPut(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://storage.test/put/" + key, nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []session.Event
}

func (n *recordingNotifier) Publish(_ context.Context, ev session.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
	return nil
}

func newTestService(store *stubStore, notifier session.Notifier) *UploadService {
	svc := NewUploadService(store, cache.NewMemoryGuard(), notifier, testMaxBytes, 600*time.Second)
	svc.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return svc
}

func TestObjectKeyDerivation(t *testing.T) {
	at := time.UnixMilli(1700000000000)
	assert.Equal(t, "user_u1/1700000000000.mp4", ObjectKey("u1", at))
	assert.Equal(t, "user_u2/1700000000000.mp4", ObjectKey("u2", at))
}

func TestUploadStoresObjectAndReportsProgress(t *testing.T) {
	store := &stubStore{}
	notifier := &recordingNotifier{}
	svc := newTestService(store, notifier)

	payload := bytes.Repeat([]byte("a"), 256*1024)
	stored, err := svc.Upload(context.Background(), "u1", AcceptedContentType, int64(len(payload)), bytes.NewReader(payload))
	require.NoError(t, err)

	assert.Equal(t, "user_u1/1700000000000.mp4", stored.ObjectKey)
	assert.Equal(t, "https://storage.test/signed/user_u1/1700000000000.mp4", stored.PreviewURL)
	require.Len(t, store.puts, 1)
	assert.Equal(t, AcceptedContentType, store.puts[0].contentType)
	assert.Equal(t, int64(len(payload)), store.puts[0].size)

	// Progress is non-decreasing, stays under 100 until the backend
	// acknowledged, and the final report is exactly 100.
	var progress []int
	var last session.Event
	for _, ev := range notifier.events {
		if ev.State == session.StateUploading {
			progress = append(progress, ev.Progress)
		}
		last = ev
	}
	require.NotEmpty(t, progress)
	for i := 1; i < len(progress); i++ {
		assert.GreaterOrEqual(t, progress[i], progress[i-1])
	}
	assert.Equal(t, 100, progress[len(progress)-1])
	for _, pct := range progress[:len(progress)-1] {
		assert.Less(t, pct, 100)
	}
	assert.Equal(t, session.StateUploaded, last.State)
	assert.Equal(t, stored.ObjectKey, last.VideoPath)
}

func TestUploadFailureResetsProgressAndReleasesGuard(t *testing.T) {
	store := &stubStore{putErr: errors.New("quota exceeded")}
	notifier := &recordingNotifier{}
	svc := newTestService(store, notifier)

	payload := []byte("mp4-bytes")
	_, err := svc.Upload(context.Background(), "u1", AcceptedContentType, int64(len(payload)), bytes.NewReader(payload))
	require.ErrorIs(t, err, domain.ErrUploadFailed)

	last := notifier.events[len(notifier.events)-1]
	assert.Equal(t, session.StateError, last.State)
	assert.Zero(t, last.Progress)
	for _, ev := range notifier.events {
		assert.NotEqual(t, session.StateUploaded, ev.State)
	}

	// Guard must be free again: a retry is admitted.
	store.putErr = nil
	_, err = svc.Upload(context.Background(), "u1", AcceptedContentType, int64(len(payload)), bytes.NewReader(payload))
	require.NoError(t, err)
}

func TestUploadRejectedWhileAnotherInFlight(t *testing.T) {
	store := &stubStore{}
	guard := cache.NewMemoryGuard()
	svc := NewUploadService(store, guard, nil, testMaxBytes, 600*time.Second)

	ok, err := guard.Acquire(context.Background(), "u1")
	require.NoError(t, err)
	require.True(t, ok)

	_, err = svc.Upload(context.Background(), "u1", AcceptedContentType, 4, bytes.NewReader([]byte("abcd")))
	assert.ErrorIs(t, err, domain.ErrUploadInProgress)
	assert.Empty(t, store.puts)
}

func TestUploadRejectsInvalidFileBeforeAnyTransfer(t *testing.T) {
	store := &stubStore{}
	svc := newTestService(store, nil)

	_, err := svc.Upload(context.Background(), "u1", "video/webm", 4, bytes.NewReader([]byte("abcd")))
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)

	_, err = svc.Upload(context.Background(), "u1", AcceptedContentType, testMaxBytes+1, bytes.NewReader(nil))
	assert.ErrorIs(t, err, domain.ErrFileTooLarge)
	assert.Empty(t, store.puts)
}

func TestPresignDownloadEnforcesOwnership(t *testing.T) {
	svc := newTestService(&stubStore{}, nil)

	url, err := svc.PresignDownload(context.Background(), "u1", "user_u1/1700000000000.mp4")
	require.NoError(t, err)
	assert.Contains(t, url, "user_u1/1700000000000.mp4")

	_, err = svc.PresignDownload(context.Background(), "u1", "user_u2/1700000000000.mp4")
	assert.ErrorIs(t, err, domain.ErrNotOwner)
}

func TestPresignUploadDerivesOwnedKey(t *testing.T) {
	svc := newTestService(&stubStore{}, nil)

	presigned, err := svc.PresignUpload(context.Background(), "u7")
	require.NoError(t, err)
	assert.Equal(t, "user_u7/1700000000000.mp4", presigned.ObjectKey)
	assert.Equal(t, "https://storage.test/put/user_u7/1700000000000.mp4", presigned.URL)
}
