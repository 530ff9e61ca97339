package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"coach_server/server/coachman/domain"
)

type FeedbackRepository struct {
	db *pgxpool.Pool
}

func NewFeedbackRepository(db *pgxpool.Pool) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

func (r *FeedbackRepository) Create(ctx context.Context, item domain.FeedbackSession) (domain.FeedbackSession, error) {
	err := r.db.QueryRow(ctx, `
		INSERT INTO feedback_sessions(user_id, video_path, feedback_text)
		VALUES($1, $2, $3)
		RETURNING id, created_at
	`, item.UserID, item.VideoPath, item.FeedbackText).Scan(&item.ID, &item.CreatedAt)
	return item, err
}

func (r *FeedbackRepository) ListByUser(ctx context.Context, userID string, limit int) ([]domain.FeedbackSession, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, video_path, feedback_text, created_at
		FROM feedback_sessions
		WHERE user_id=$1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.FeedbackSession, 0)
	for rows.Next() {
		var item domain.FeedbackSession
		if err := rows.Scan(&item.ID, &item.UserID, &item.VideoPath, &item.FeedbackText, &item.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
