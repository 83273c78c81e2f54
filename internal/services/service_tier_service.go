package services

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/saeid-a/CoachMarketBack/internal/models"
	"github.com/saeid-a/CoachMarketBack/internal/repository"
)

type tierOwnerStore interface {
	GetByID(ctx context.Context, coachID int64) (*models.Coach, error)
	GetByUserID(ctx context.Context, userID int64) (*models.Coach, error)
}

type tierStore interface {
	Create(ctx context.Context, coachID int64, input repository.ServiceTierInput) (*models.ServiceTier, error)
	GetByID(ctx context.Context, tierID int64) (*models.ServiceTier, error)
	ListByCoachID(ctx context.Context, coachID int64) ([]models.ServiceTier, error)
	Update(ctx context.Context, tierID int64, coachID int64, input repository.ServiceTierInput) (*models.ServiceTier, error)
	Delete(ctx context.Context, tierID int64, coachID int64) (bool, error)
	IsReferenced(ctx context.Context, tierID int64) (bool, error)
}

type ServiceTierService struct {
	coachRepo tierOwnerStore
	tierRepo  tierStore
}

func NewServiceTierService(coachRepo tierOwnerStore, tierRepo tierStore) *ServiceTierService {
	return &ServiceTierService{coachRepo: coachRepo, tierRepo: tierRepo}
}

type ServiceTierInput struct {
	Name        string
	Description string
	Price       float64
}

func (s *ServiceTierService) ListTiers(ctx context.Context, coachID int64) ([]models.ServiceTier, error) {
	if coachID <= 0 {
		return nil, ErrInvalidInput
	}
	if _, err := s.coachRepo.GetByID(ctx, coachID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCoachNotFound
		}
		return nil, storageError("load coach", err)
	}

	tiers, err := s.tierRepo.ListByCoachID(ctx, coachID)
	if err != nil {
		return nil, storageError("list service tiers", err)
	}
	return tiers, nil
}

func (s *ServiceTierService) CreateTier(
	ctx context.Context,
	actorID int64,
	input ServiceTierInput,
) (*models.ServiceTier, error) {
	normalized, err := normalizeTierInput(input)
	if err != nil {
		return nil, err
	}
	coach, err := s.actingCoach(ctx, actorID)
	if err != nil {
		return nil, err
	}

	tier, err := s.tierRepo.Create(ctx, coach.ID, normalized)
	if err != nil {
		return nil, storageError("create service tier", err)
	}
	return tier, nil
}

func (s *ServiceTierService) UpdateTier(
	ctx context.Context,
	actorID int64,
	tierID int64,
	input ServiceTierInput,
) (*models.ServiceTier, error) {
	if tierID <= 0 {
		return nil, ErrInvalidInput
	}
	normalized, err := normalizeTierInput(input)
	if err != nil {
		return nil, err
	}
	coach, err := s.actingCoach(ctx, actorID)
	if err != nil {
		return nil, err
	}

	tier, err := s.tierRepo.Update(ctx, tierID, coach.ID, normalized)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTierNotFound
		}
		return nil, storageError("update service tier", err)
	}
	return tier, nil
}

// DeleteTier removes a tier owned by the acting coach. Tiers referenced by an
// inquiry or session are kept and ErrTierInUse is returned.
func (s *ServiceTierService) DeleteTier(ctx context.Context, actorID int64, tierID int64) error {
	if tierID <= 0 {
		return ErrInvalidInput
	}
	coach, err := s.actingCoach(ctx, actorID)
	if err != nil {
		return err
	}

	tier, err := s.tierRepo.GetByID(ctx, tierID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrTierNotFound
		}
		return storageError("load service tier", err)
	}
	if tier.CoachID != coach.ID {
		return ErrTierNotFound
	}

	referenced, err := s.tierRepo.IsReferenced(ctx, tierID)
	if err != nil {
		return storageError("check service tier references", err)
	}
	if referenced {
		return ErrTierInUse
	}

	deleted, err := s.tierRepo.Delete(ctx, tierID, coach.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrTierInUse
		}
		return storageError("delete service tier", err)
	}
	if !deleted {
		return ErrTierNotFound
	}
	return nil
}

func (s *ServiceTierService) actingCoach(ctx context.Context, actorID int64) (*models.Coach, error) {
	if actorID <= 0 {
		return nil, ErrInvalidInput
	}
	coach, err := s.coachRepo.GetByUserID(ctx, actorID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrForbidden
		}
		return nil, storageError("load acting coach", err)
	}
	return coach, nil
}

// Tier prices are stored as NUMERIC(10,2).
const (
	minTierPrice = 0.01
	maxTierPrice = 1e8
)

func validTierPrice(price float64) bool {
	return price >= minTierPrice && price < maxTierPrice
}

func normalizeTierInput(input ServiceTierInput) (repository.ServiceTierInput, error) {
	name := strings.TrimSpace(input.Name)
	description := strings.TrimSpace(input.Description)
	if name == "" || description == "" || !validTierPrice(input.Price) {
		return repository.ServiceTierInput{}, ErrInvalidInput
	}
	return repository.ServiceTierInput{
		Name:        name,
		Description: description,
		Price:       input.Price,
	}, nil
}
