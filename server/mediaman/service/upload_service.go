package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	commonlog "coach_server/server/common/log"
	"coach_server/server/common/session"
	"coach_server/server/mediaman/domain"
)

type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, r io.Reader, size int64) error
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
	PresignPut(ctx context.Context, key string, ttl time.Duration) (string, error)
}

type UploadGuard interface {
	Acquire(ctx context.Context, userID string) (bool, error)
	Release(ctx context.Context, userID string) error
}

type UploadService struct {
	store    ObjectStore
	guard    UploadGuard
	notifier session.Notifier
	maxBytes int64
	signTTL  time.Duration
	now      func() time.Time
}

func NewUploadService(store ObjectStore, guard UploadGuard, notifier session.Notifier, maxBytes int64, signTTL time.Duration) *UploadService {
	if notifier == nil {
		notifier = session.NopNotifier{}
	}
	return &UploadService{
		store:    store,
		guard:    guard,
		notifier: notifier,
		maxBytes: maxBytes,
		signTTL:  signTTL,
		now:      time.Now,
	}
}

func (s *UploadService) MaxBytes() int64 { return s.maxBytes }

// ObjectKey derives the per-user storage key. The user prefix namespaces
// objects for prefix-keyed access policy; the millisecond timestamp keeps
// keys unique per user.
func ObjectKey(userID string, at time.Time) string {
	return fmt.Sprintf("user_%s/%d.mp4", userID, at.UnixMilli())
}

// Upload validates the declared type and size, then streams the bytes to
// object storage under a freshly derived key, reporting byte-level progress
// on the session channel. Progress stays below 100 until the backend
// acknowledges the object; failure resets it to 0.
func (s *UploadService) Upload(ctx context.Context, userID, contentType string, sizeBytes int64, r io.Reader) (domain.StoredVideo, error) {
	if err := ValidateVideo(contentType, sizeBytes, s.maxBytes); err != nil {
		return domain.StoredVideo{}, err
	}

	ok, err := s.guard.Acquire(ctx, userID)
	if err != nil {
		return domain.StoredVideo{}, fmt.Errorf("%w: acquire guard: %v", domain.ErrUploadFailed, err)
	}
	if !ok {
		return domain.StoredVideo{}, domain.ErrUploadInProgress
	}
	defer func() {
		if err := s.guard.Release(ctx, userID); err != nil {
			commonlog.Warnf("release upload guard user_id=%s: %v", userID, err)
		}
	}()

	uploadedAt := s.now()
	key := ObjectKey(userID, uploadedAt)

	reader := &progressReader{
		r:     r,
		total: sizeBytes,
		report: func(pct int) {
			s.notify(ctx, session.Event{UserID: userID, State: session.StateUploading, Progress: pct})
		},
	}
	s.notify(ctx, session.Event{UserID: userID, State: session.StateUploading, Progress: 0})

	if err := s.store.Put(ctx, key, contentType, reader, sizeBytes); err != nil {
		s.notify(ctx, session.Event{UserID: userID, State: session.StateError, Message: domain.ErrUploadFailed.Error()})
		return domain.StoredVideo{}, fmt.Errorf("%w: %v", domain.ErrUploadFailed, err)
	}
	s.notify(ctx, session.Event{UserID: userID, State: session.StateUploading, Progress: 100})

	previewURL, err := s.store.PresignGet(ctx, key, s.signTTL)
	if err != nil {
		// The object exists; the bare key still works as a reference.
		commonlog.Warnf("presign preview key=%s: %v", key, err)
		previewURL = ""
	}
	s.notify(ctx, session.Event{UserID: userID, State: session.StateUploaded, VideoPath: key, PreviewURL: previewURL})

	return domain.StoredVideo{
		ObjectKey:  key,
		PreviewURL: previewURL,
		SizeBytes:  sizeBytes,
		UploadedAt: uploadedAt,
	}, nil
}

// PresignUpload issues a short-lived PUT URL for a freshly derived key, for
// clients that push bytes to storage directly.
func (s *UploadService) PresignUpload(ctx context.Context, userID string) (domain.PresignedUpload, error) {
	key := ObjectKey(userID, s.now())
	url, err := s.store.PresignPut(ctx, key, s.signTTL)
	if err != nil {
		return domain.PresignedUpload{}, fmt.Errorf("%w: %v", domain.ErrUploadFailed, err)
	}
	return domain.PresignedUpload{ObjectKey: key, URL: url}, nil
}

// PresignDownload issues a read URL for a key the caller owns.
func (s *UploadService) PresignDownload(ctx context.Context, userID, objectKey string) (string, error) {
	if !strings.HasPrefix(objectKey, "user_"+userID+"/") {
		return "", domain.ErrNotOwner
	}
	return s.store.PresignGet(ctx, objectKey, s.signTTL)
}

func (s *UploadService) notify(ctx context.Context, ev session.Event) {
	if err := s.notifier.Publish(ctx, ev); err != nil {
		commonlog.Warnf("publish session event state=%s user_id=%s: %v", ev.State, ev.UserID, err)
	}
}

// progressReader reports whole-percent progress as bytes pass through,
// capped at 99 so 100 is only ever reported after the backend acknowledges.
type progressReader struct {
	r      io.Reader
	total  int64
	read   int64
	last   int
	report func(pct int)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 && p.total > 0 {
		p.read += int64(n)
		pct := int(p.read * 100 / p.total)
		if pct > 99 {
			pct = 99
		}
		if pct > p.last {
			p.last = pct
			p.report(pct)
		}
	}
	return n, err
}
