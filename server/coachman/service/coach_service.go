package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"coach_server/server/coachman/domain"
	commonlog "coach_server/server/common/log"
	"coach_server/server/common/session"
)

type URLSigner interface {
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

type FeedbackStore interface {
	Create(ctx context.Context, item domain.FeedbackSession) (domain.FeedbackSession, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]domain.FeedbackSession, error)
}

type FeedbackRequester interface {
	Configured() bool
	RequestFeedback(ctx context.Context, videoURL string) (string, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, key string, payload any) error
}

// CoachService runs one analysis request end to end: sign a read URL for
// the stored video, forward it to the AI endpoint, persist the feedback.
// Steps are strictly sequential; any failure is terminal for the request
// and no feedback row exists unless the whole chain succeeded.
type CoachService struct {
	signer   URLSigner
	ai       FeedbackRequester
	store    FeedbackStore
	events   EventPublisher
	notifier session.Notifier
	signTTL  time.Duration
}

func NewCoachService(signer URLSigner, ai FeedbackRequester, store FeedbackStore, events EventPublisher, notifier session.Notifier, signTTL time.Duration) *CoachService {
	if notifier == nil {
		notifier = session.NopNotifier{}
	}
	return &CoachService{
		signer:   signer,
		ai:       ai,
		store:    store,
		events:   events,
		notifier: notifier,
		signTTL:  signTTL,
	}
}

func (s *CoachService) Analyze(ctx context.Context, userID, videoPath string) (domain.FeedbackSession, error) {
	userID = strings.TrimSpace(userID)
	videoPath = strings.TrimSpace(videoPath)
	if userID == "" || videoPath == "" {
		return domain.FeedbackSession{}, domain.ErrInvalidRequest
	}
	if s.ai == nil || !s.ai.Configured() {
		return domain.FeedbackSession{}, domain.ErrNotConfigured
	}

	s.notify(ctx, session.Event{UserID: userID, State: session.StateAnalyzing, VideoPath: videoPath})

	signedURL, err := s.signer.PresignGet(ctx, videoPath, s.signTTL)
	if err != nil {
		return domain.FeedbackSession{}, s.fail(ctx, userID, fmt.Errorf("%w: %v", domain.ErrSignedURL, err))
	}

	feedback, err := s.ai.RequestFeedback(ctx, signedURL)
	if err != nil {
		return domain.FeedbackSession{}, s.fail(ctx, userID, err)
	}

	item, err := s.store.Create(ctx, domain.FeedbackSession{
		UserID:       userID,
		VideoPath:    videoPath,
		FeedbackText: feedback,
	})
	if err != nil {
		// Analysis succeeded but no record exists; surfaced as a failure
		// rather than hidden (accepted inconsistency window).
		return domain.FeedbackSession{}, s.fail(ctx, userID, fmt.Errorf("%w: %v", domain.ErrPersistence, err))
	}

	if s.events != nil {
		if err := s.events.Publish(ctx, "feedback.created", item); err != nil {
			commonlog.Warnf("publish feedback.created id=%s: %v", item.ID, err)
		}
	}
	s.notify(ctx, session.Event{UserID: userID, State: session.StateFeedbackReady, Feedback: item.FeedbackText})

	return item, nil
}

func (s *CoachService) ListSessions(ctx context.Context, userID string, limit int) ([]domain.FeedbackSession, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.store.ListByUser(ctx, userID, limit)
}

func (s *CoachService) fail(ctx context.Context, userID string, err error) error {
	s.notify(ctx, session.Event{UserID: userID, State: session.StateError, Message: err.Error()})
	return err
}

func (s *CoachService) notify(ctx context.Context, ev session.Event) {
	if err := s.notifier.Publish(ctx, ev); err != nil {
		commonlog.Warnf("publish session event state=%s user_id=%s: %v", ev.State, ev.UserID, err)
	}
}
