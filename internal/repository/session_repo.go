package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/saeid-a/CoachMarketBack/internal/models"
)

type CreateSessionInput struct {
	InquiryID     int64
	LearnerID     int64
	CoachID       int64
	TierID        int64
	ScheduledTime time.Time
}

type SessionListFilter struct {
	ActorID   int64
	Status    string
	Timeframe string
}

type SessionRepository struct {
	db DBTX
}

func NewSessionRepository(db DBTX) *SessionRepository {
	return &SessionRepository{db: db}
}

const sessionColumns = `id, inquiry_id, learner_id, coach_id, tier_id, scheduled_time, status, created_at, updated_at`

const sessionDetailSelect = `
	SELECT s.id, s.inquiry_id, s.learner_id, s.coach_id, s.tier_id, s.scheduled_time, s.status,
		   s.created_at, s.updated_at,
		   c.user_id, lu.username, cu.username, st.name, st.price,
		   r.id, r.rating_value, r.feedback, r.created_at
	FROM sessions s
	JOIN coaches c ON c.id = s.coach_id
	JOIN users lu ON lu.id = s.learner_id
	JOIN users cu ON cu.id = c.user_id
	JOIN service_tiers st ON st.id = s.tier_id
	LEFT JOIN ratings r ON r.session_id = s.id
`

func (r *SessionRepository) Create(
	ctx context.Context,
	input CreateSessionInput,
) (*models.Session, error) {
	query := `
		INSERT INTO sessions (inquiry_id, learner_id, coach_id, tier_id, scheduled_time, status)
		VALUES ($1, $2, $3, $4, $5, 'scheduled')
		RETURNING ` + sessionColumns

	return scanSession(r.db.QueryRow(
		ctx,
		query,
		input.InquiryID,
		input.LearnerID,
		input.CoachID,
		input.TierID,
		input.ScheduledTime,
	))
}

func (r *SessionRepository) GetDetail(ctx context.Context, sessionID int64) (*models.SessionDetail, error) {
	query := sessionDetailSelect + ` WHERE s.id = $1`
	return scanSessionDetail(r.db.QueryRow(ctx, query, sessionID))
}

// GetDetailForUpdate locks the session row until the enclosing transaction ends.
func (r *SessionRepository) GetDetailForUpdate(
	ctx context.Context,
	sessionID int64,
) (*models.SessionDetail, error) {
	query := sessionDetailSelect + ` WHERE s.id = $1 FOR UPDATE OF s`
	return scanSessionDetail(r.db.QueryRow(ctx, query, sessionID))
}

// List returns the sessions the actor takes part in, as learner or as the
// user owning the coach record.
func (r *SessionRepository) List(
	ctx context.Context,
	filter SessionListFilter,
) ([]models.SessionDetail, error) {
	args := []any{filter.ActorID}
	whereParts := []string{"(s.learner_id = $1 OR c.user_id = $1)"}

	if status := strings.TrimSpace(filter.Status); status != "" {
		args = append(args, status)
		whereParts = append(whereParts, fmt.Sprintf("s.status = $%d", len(args)))
	}

	switch strings.TrimSpace(filter.Timeframe) {
	case "upcoming":
		whereParts = append(whereParts, "s.scheduled_time > NOW()")
	case "past":
		whereParts = append(whereParts, "s.scheduled_time <= NOW()")
	}

	query := fmt.Sprintf(`%s
		WHERE %s
		ORDER BY s.scheduled_time ASC, s.id ASC
	`, sessionDetailSelect, strings.Join(whereParts, " AND "))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]models.SessionDetail, 0)
	for rows.Next() {
		detail, err := scanSessionDetail(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *detail)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}

// UpdateStatusIfCurrent is a compare-and-set on status. It returns
// pgx.ErrNoRows when the session is not in currentStatus.
func (r *SessionRepository) UpdateStatusIfCurrent(
	ctx context.Context,
	sessionID int64,
	currentStatus models.SessionStatus,
	nextStatus models.SessionStatus,
) (*models.Session, error) {
	query := `
		UPDATE sessions
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING ` + sessionColumns

	return scanSession(r.db.QueryRow(ctx, query, sessionID, string(currentStatus), string(nextStatus)))
}

func scanSession(row pgx.Row) (*models.Session, error) {
	var (
		session models.Session
		status  string
	)
	err := row.Scan(
		&session.ID,
		&session.InquiryID,
		&session.LearnerID,
		&session.CoachID,
		&session.TierID,
		&session.ScheduledTime,
		&status,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	session.Status = models.SessionStatus(status)
	return &session, nil
}

func scanSessionDetail(row pgx.Row) (*models.SessionDetail, error) {
	var (
		detail          models.SessionDetail
		status          string
		ratingID        *int64
		ratingValue     *int
		ratingFeedback  *string
		ratingCreatedAt *time.Time
	)
	err := row.Scan(
		&detail.ID,
		&detail.InquiryID,
		&detail.LearnerID,
		&detail.CoachID,
		&detail.TierID,
		&detail.ScheduledTime,
		&status,
		&detail.CreatedAt,
		&detail.UpdatedAt,
		&detail.CoachUserID,
		&detail.LearnerName,
		&detail.CoachName,
		&detail.TierName,
		&detail.TierPrice,
		&ratingID,
		&ratingValue,
		&ratingFeedback,
		&ratingCreatedAt,
	)
	if err != nil {
		return nil, err
	}
	detail.Status = models.SessionStatus(status)
	if ratingID != nil && ratingValue != nil {
		detail.Rating = &models.Rating{
			ID:          *ratingID,
			SessionID:   detail.ID,
			RatingValue: *ratingValue,
			Feedback:    ratingFeedback,
		}
		if ratingCreatedAt != nil {
			detail.Rating.CreatedAt = *ratingCreatedAt
		}
	}
	return &detail, nil
}
