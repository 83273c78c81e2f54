package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/saeid-a/CoachMarketBack/internal/models"
)

type UpdateCoachProfileInput struct {
	Expertise    *string
	Availability *string
}

type CoachListFilter struct {
	Offset int
	Limit  int
}

type CoachRepository struct {
	db DBTX
}

func NewCoachRepository(db DBTX) *CoachRepository {
	return &CoachRepository{db: db}
}

const coachSelect = `
	SELECT c.id, c.user_id, u.username, c.expertise, c.availability, c.average_rating,
		   c.created_at, c.updated_at
	FROM coaches c
	JOIN users u ON u.id = c.user_id
`

func (r *CoachRepository) CreateEmpty(ctx context.Context, userID int64) error {
	query := `INSERT INTO coaches (user_id) VALUES ($1)`
	_, err := r.db.Exec(ctx, query, userID)
	return err
}

func (r *CoachRepository) GetByID(ctx context.Context, coachID int64) (*models.Coach, error) {
	return scanCoach(r.db.QueryRow(ctx, coachSelect+` WHERE c.id = $1`, coachID))
}

func (r *CoachRepository) GetByUserID(ctx context.Context, userID int64) (*models.Coach, error) {
	return scanCoach(r.db.QueryRow(ctx, coachSelect+` WHERE c.user_id = $1`, userID))
}

// List pages through coaches ordered by average rating, best first.
func (r *CoachRepository) List(ctx context.Context, filter CoachListFilter) ([]models.Coach, int, error) {
	query := `
		SELECT c.id, c.user_id, u.username, c.expertise, c.availability, c.average_rating,
			   c.created_at, c.updated_at, COUNT(*) OVER()
		FROM coaches c
		JOIN users u ON u.id = c.user_id
		ORDER BY c.average_rating DESC, c.id ASC
		OFFSET $1 LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, filter.Offset, filter.Limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	coaches := make([]models.Coach, 0)
	total := 0
	for rows.Next() {
		var coach models.Coach
		if err := rows.Scan(
			&coach.ID,
			&coach.UserID,
			&coach.Username,
			&coach.Expertise,
			&coach.Availability,
			&coach.AverageRating,
			&coach.CreatedAt,
			&coach.UpdatedAt,
			&total,
		); err != nil {
			return nil, 0, err
		}
		coaches = append(coaches, coach)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return coaches, total, nil
}

// ListAll returns every coach, best rated first.
func (r *CoachRepository) ListAll(ctx context.Context) ([]models.Coach, error) {
	rows, err := r.db.Query(ctx, coachSelect+` ORDER BY c.average_rating DESC, c.id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	coaches := make([]models.Coach, 0)
	for rows.Next() {
		coach, err := scanCoach(rows)
		if err != nil {
			return nil, err
		}
		coaches = append(coaches, *coach)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return coaches, nil
}

func (r *CoachRepository) UpdateProfile(
	ctx context.Context,
	userID int64,
	input UpdateCoachProfileInput,
) (*models.Coach, error) {
	query := `
		UPDATE coaches
		SET expertise = COALESCE($1, expertise),
			availability = COALESCE($2, availability),
			updated_at = NOW()
		WHERE user_id = $3
		RETURNING id
	`
	var coachID int64
	if err := r.db.QueryRow(ctx, query, input.Expertise, input.Availability, userID).Scan(&coachID); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, coachID)
}

// LockForUpdate takes the coach row lock that serialises rating writes for
// one coach until the surrounding transaction ends.
func (r *CoachRepository) LockForUpdate(ctx context.Context, coachID int64) error {
	var id int64
	return r.db.QueryRow(ctx, `SELECT id FROM coaches WHERE id = $1 FOR UPDATE`, coachID).Scan(&id)
}

// RecomputeAverageRating stores the mean of every rating on the coach's
// sessions, rounded to two decimals, or 0 when there are none. The caller
// must hold the coach row lock so the aggregate reads every committed rating.
func (r *CoachRepository) RecomputeAverageRating(ctx context.Context, coachID int64) (float64, error) {
	aggregate := `
		SELECT COALESCE(ROUND(AVG(r.rating_value)::numeric, 2), 0)
		FROM ratings r
		JOIN sessions s ON s.id = r.session_id
		WHERE s.coach_id = $1
	`
	var average float64
	if err := r.db.QueryRow(ctx, aggregate, coachID).Scan(&average); err != nil {
		return 0, err
	}

	update := `
		UPDATE coaches
		SET average_rating = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING average_rating
	`
	if err := r.db.QueryRow(ctx, update, average, coachID).Scan(&average); err != nil {
		return 0, err
	}
	return average, nil
}

func scanCoach(row pgx.Row) (*models.Coach, error) {
	var coach models.Coach
	err := row.Scan(
		&coach.ID,
		&coach.UserID,
		&coach.Username,
		&coach.Expertise,
		&coach.Availability,
		&coach.AverageRating,
		&coach.CreatedAt,
		&coach.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &coach, nil
}
