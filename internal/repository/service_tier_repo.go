package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/saeid-a/CoachMarketBack/internal/models"
)

type ServiceTierInput struct {
	Name        string
	Description string
	Price       float64
}

type ServiceTierRepository struct {
	db DBTX
}

func NewServiceTierRepository(db DBTX) *ServiceTierRepository {
	return &ServiceTierRepository{db: db}
}

const serviceTierColumns = `id, coach_id, name, description, price, created_at, updated_at`

func (r *ServiceTierRepository) Create(
	ctx context.Context,
	coachID int64,
	input ServiceTierInput,
) (*models.ServiceTier, error) {
	query := `
		INSERT INTO service_tiers (coach_id, name, description, price)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + serviceTierColumns
	return scanServiceTier(r.db.QueryRow(ctx, query, coachID, input.Name, input.Description, input.Price))
}

func (r *ServiceTierRepository) GetByID(ctx context.Context, tierID int64) (*models.ServiceTier, error) {
	query := `SELECT ` + serviceTierColumns + ` FROM service_tiers WHERE id = $1`
	return scanServiceTier(r.db.QueryRow(ctx, query, tierID))
}

func (r *ServiceTierRepository) ListByCoachID(ctx context.Context, coachID int64) ([]models.ServiceTier, error) {
	byCoach, err := r.ListByCoachIDs(ctx, []int64{coachID})
	if err != nil {
		return nil, err
	}
	tiers, ok := byCoach[coachID]
	if !ok {
		return []models.ServiceTier{}, nil
	}
	return tiers, nil
}

func (r *ServiceTierRepository) ListByCoachIDs(
	ctx context.Context,
	coachIDs []int64,
) (map[int64][]models.ServiceTier, error) {
	tiers := make(map[int64][]models.ServiceTier, len(coachIDs))
	if len(coachIDs) == 0 {
		return tiers, nil
	}

	query := `
		SELECT ` + serviceTierColumns + `
		FROM service_tiers
		WHERE coach_id = ANY($1)
		ORDER BY coach_id, price ASC, id ASC
	`
	rows, err := r.db.Query(ctx, query, coachIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		tier, err := scanServiceTier(rows)
		if err != nil {
			return nil, err
		}
		tiers[tier.CoachID] = append(tiers[tier.CoachID], *tier)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return tiers, nil
}

// Update changes a tier owned by coachID. It returns pgx.ErrNoRows when the
// tier does not exist or belongs to another coach.
func (r *ServiceTierRepository) Update(
	ctx context.Context,
	tierID int64,
	coachID int64,
	input ServiceTierInput,
) (*models.ServiceTier, error) {
	query := `
		UPDATE service_tiers
		SET name = $3, description = $4, price = $5, updated_at = NOW()
		WHERE id = $1 AND coach_id = $2
		RETURNING ` + serviceTierColumns
	return scanServiceTier(r.db.QueryRow(ctx, query, tierID, coachID, input.Name, input.Description, input.Price))
}

func (r *ServiceTierRepository) Delete(ctx context.Context, tierID int64, coachID int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM service_tiers WHERE id = $1 AND coach_id = $2`, tierID, coachID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// IsReferenced reports whether any inquiry or session uses the tier.
func (r *ServiceTierRepository) IsReferenced(ctx context.Context, tierID int64) (bool, error) {
	query := `
		SELECT EXISTS (SELECT 1 FROM service_inquiries WHERE tier_id = $1)
			OR EXISTS (SELECT 1 FROM sessions WHERE tier_id = $1)
	`
	var referenced bool
	if err := r.db.QueryRow(ctx, query, tierID).Scan(&referenced); err != nil {
		return false, err
	}
	return referenced, nil
}

func scanServiceTier(row pgx.Row) (*models.ServiceTier, error) {
	var tier models.ServiceTier
	err := row.Scan(
		&tier.ID,
		&tier.CoachID,
		&tier.Name,
		&tier.Description,
		&tier.Price,
		&tier.CreatedAt,
		&tier.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &tier, nil
}
