package repository

import (
	"context"

	"github.com/saeid-a/CoachMarketBack/internal/models"
)

type UpsertRatingInput struct {
	SessionID   int64
	RatingValue int
	Feedback    *string
}

type RatingRepository struct {
	db DBTX
}

func NewRatingRepository(db DBTX) *RatingRepository {
	return &RatingRepository{db: db}
}

// Upsert writes the single rating row of a session. An existing row is
// overwritten in place and its created_at refreshed.
func (r *RatingRepository) Upsert(ctx context.Context, input UpsertRatingInput) (*models.Rating, error) {
	query := `
		INSERT INTO ratings (session_id, rating_value, feedback, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (session_id) DO UPDATE
		SET rating_value = EXCLUDED.rating_value,
			feedback = EXCLUDED.feedback,
			created_at = NOW()
		RETURNING id, session_id, rating_value, feedback, created_at
	`
	var rating models.Rating
	err := r.db.QueryRow(ctx, query, input.SessionID, input.RatingValue, input.Feedback).Scan(
		&rating.ID,
		&rating.SessionID,
		&rating.RatingValue,
		&rating.Feedback,
		&rating.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rating, nil
}

func (r *RatingRepository) GetBySessionID(ctx context.Context, sessionID int64) (*models.Rating, error) {
	query := `
		SELECT id, session_id, rating_value, feedback, created_at
		FROM ratings
		WHERE session_id = $1
	`
	var rating models.Rating
	err := r.db.QueryRow(ctx, query, sessionID).Scan(
		&rating.ID,
		&rating.SessionID,
		&rating.RatingValue,
		&rating.Feedback,
		&rating.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rating, nil
}
