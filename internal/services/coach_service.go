package services

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/saeid-a/CoachMarketBack/internal/models"
	"github.com/saeid-a/CoachMarketBack/internal/repository"
)

type coachCatalogStore interface {
	GetByID(ctx context.Context, coachID int64) (*models.Coach, error)
	List(ctx context.Context, filter repository.CoachListFilter) ([]models.Coach, int, error)
	UpdateProfile(ctx context.Context, userID int64, input repository.UpdateCoachProfileInput) (*models.Coach, error)
}

type coachTierStore interface {
	ListByCoachID(ctx context.Context, coachID int64) ([]models.ServiceTier, error)
	ListByCoachIDs(ctx context.Context, coachIDs []int64) (map[int64][]models.ServiceTier, error)
}

type CoachService struct {
	coachRepo coachCatalogStore
	tierRepo  coachTierStore
}

func NewCoachService(coachRepo coachCatalogStore, tierRepo coachTierStore) *CoachService {
	return &CoachService{coachRepo: coachRepo, tierRepo: tierRepo}
}

// ListCoaches returns one page of coaches with their tiers and the total
// number of coaches.
func (s *CoachService) ListCoaches(
	ctx context.Context,
	page int,
	limit int,
) ([]models.CoachWithTiers, int, error) {
	if page <= 0 || limit <= 0 {
		return nil, 0, ErrInvalidInput
	}

	coaches, total, err := s.coachRepo.List(ctx, repository.CoachListFilter{
		Offset: (page - 1) * limit,
		Limit:  limit,
	})
	if err != nil {
		return nil, 0, storageError("list coaches", err)
	}

	coachIDs := make([]int64, 0, len(coaches))
	for _, coach := range coaches {
		coachIDs = append(coachIDs, coach.ID)
	}
	tiers, err := s.tierRepo.ListByCoachIDs(ctx, coachIDs)
	if err != nil {
		return nil, 0, storageError("list service tiers", err)
	}

	result := make([]models.CoachWithTiers, 0, len(coaches))
	for _, coach := range coaches {
		coachTiers := tiers[coach.ID]
		if coachTiers == nil {
			coachTiers = []models.ServiceTier{}
		}
		result = append(result, models.CoachWithTiers{Coach: coach, Tiers: coachTiers})
	}
	return result, total, nil
}

func (s *CoachService) GetCoach(ctx context.Context, coachID int64) (*models.CoachWithTiers, error) {
	if coachID <= 0 {
		return nil, ErrInvalidInput
	}
	coach, err := s.coachRepo.GetByID(ctx, coachID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCoachNotFound
		}
		return nil, storageError("load coach", err)
	}

	tiers, err := s.tierRepo.ListByCoachID(ctx, coachID)
	if err != nil {
		return nil, storageError("list service tiers", err)
	}
	return &models.CoachWithTiers{Coach: *coach, Tiers: tiers}, nil
}

type UpdateCoachProfileInput struct {
	Expertise    *string
	Availability *string
}

// UpdateProfile edits the coach record owned by actorID. Nil fields are left
// untouched.
func (s *CoachService) UpdateProfile(
	ctx context.Context,
	actorID int64,
	input UpdateCoachProfileInput,
) (*models.Coach, error) {
	if actorID <= 0 {
		return nil, ErrInvalidInput
	}
	if input.Expertise == nil && input.Availability == nil {
		return nil, ErrInvalidInput
	}

	coach, err := s.coachRepo.UpdateProfile(ctx, actorID, repository.UpdateCoachProfileInput{
		Expertise:    trimmedPtr(input.Expertise),
		Availability: trimmedPtr(input.Availability),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCoachNotFound
		}
		return nil, storageError("update coach profile", err)
	}
	return coach, nil
}

func trimmedPtr(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	return &trimmed
}
