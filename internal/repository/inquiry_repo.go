package repository

import (
	"context"

	"github.com/saeid-a/CoachMarketBack/internal/models"
)

type CreateInquiryInput struct {
	UserID  int64
	CoachID int64
	TierID  int64
	Status  string
}

type InquiryRepository struct {
	db DBTX
}

func NewInquiryRepository(db DBTX) *InquiryRepository {
	return &InquiryRepository{db: db}
}

func (r *InquiryRepository) Create(ctx context.Context, input CreateInquiryInput) (*models.ServiceInquiry, error) {
	query := `
		INSERT INTO service_inquiries (user_id, coach_id, tier_id, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, user_id, coach_id, tier_id, status, created_at
	`
	var inquiry models.ServiceInquiry
	err := r.db.QueryRow(ctx, query, input.UserID, input.CoachID, input.TierID, input.Status).Scan(
		&inquiry.ID,
		&inquiry.UserID,
		&inquiry.CoachID,
		&inquiry.TierID,
		&inquiry.Status,
		&inquiry.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &inquiry, nil
}
