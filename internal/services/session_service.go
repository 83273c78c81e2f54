package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/saeid-a/CoachMarketBack/internal/models"
	"github.com/saeid-a/CoachMarketBack/internal/repository"
)

type sessionReader interface {
	GetDetail(ctx context.Context, sessionID int64) (*models.SessionDetail, error)
	List(ctx context.Context, filter repository.SessionListFilter) ([]models.SessionDetail, error)
}

type SessionService struct {
	uow         UnitOfWork
	sessionRepo sessionReader
	publisher   SessionEventPublisher
	metrics     SessionMetrics
	now         func() time.Time
}

func NewSessionService(
	uow UnitOfWork,
	sessionRepo sessionReader,
	publisher SessionEventPublisher,
	metrics SessionMetrics,
) *SessionService {
	if publisher == nil {
		publisher = noopPublisher{}
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &SessionService{
		uow:         uow,
		sessionRepo: sessionRepo,
		publisher:   publisher,
		metrics:     metrics,
		now:         time.Now,
	}
}

type UpdateStatusInput struct {
	Status   models.SessionStatus
	Rating   *int
	Feedback *string
}

// UpdateStatus moves a scheduled session to completed or cancelled on behalf
// of one of its two parties. Completing with a rating upserts the session's
// rating and refreshes the coach average in the same transaction. A completed
// session accepts further completed+rating requests as rating edits; any other
// request on a terminal session fails with ErrInvalidStateTransition.
func (s *SessionService) UpdateStatus(
	ctx context.Context,
	actorID int64,
	sessionID int64,
	input UpdateStatusInput,
) (*models.TransitionResult, error) {
	if actorID <= 0 || sessionID <= 0 {
		return nil, ErrInvalidInput
	}
	if input.Rating != nil && !models.ValidRatingValue(*input.Rating) {
		return nil, ErrInvalidInput
	}
	feedback := normalizeFeedback(input.Feedback)

	var result *models.TransitionResult
	err := s.uow.Within(ctx, func(repos TxRepositories) error {
		detail, err := repos.Sessions.GetDetailForUpdate(ctx, sessionID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrSessionNotFound
			}
			return storageError("load session", err)
		}
		if !detail.IsParty(actorID) {
			return ErrForbidden
		}
		if !input.Status.IsTerminal() {
			return ErrInvalidStatus
		}

		writeRating := input.Status == models.SessionStatusCompleted && input.Rating != nil
		if detail.Status.IsTerminal() {
			if detail.Status != models.SessionStatusCompleted || !writeRating {
				return ErrInvalidStateTransition
			}
		} else {
			updated, err := repos.Sessions.UpdateStatusIfCurrent(ctx, sessionID, detail.Status, input.Status)
			if err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return ErrInvalidStateTransition
				}
				return storageError("update session status", err)
			}
			detail.Session = *updated
		}

		result = &models.TransitionResult{Session: *detail}
		if !writeRating {
			return nil
		}

		// Concurrent ratings for one coach queue here so each recompute
		// reads the ratings committed before it.
		if err := repos.Coaches.LockForUpdate(ctx, detail.CoachID); err != nil {
			return storageError("lock coach", err)
		}
		rating, err := repos.Ratings.Upsert(ctx, repository.UpsertRatingInput{
			SessionID:   sessionID,
			RatingValue: *input.Rating,
			Feedback:    feedback,
		})
		if err != nil {
			return storageError("upsert rating", err)
		}
		average, err := repos.Coaches.RecomputeAverageRating(ctx, detail.CoachID)
		if err != nil {
			return storageError("recompute coach rating", err)
		}

		result.Rating = rating
		result.Session.Rating = rating
		result.CoachAverageRating = &average
		return nil
	})
	s.metrics.RecordTransition(input.Status.String(), outcomeLabel(err))
	if err != nil {
		return nil, err
	}

	if result.Rating != nil && result.CoachAverageRating != nil {
		s.metrics.RecordRating(result.Rating.RatingValue, *result.CoachAverageRating)
	}
	s.publisher.PublishSessionEvent(models.SessionEvent{
		Type:        models.SessionEventUpdated,
		SessionID:   result.Session.ID,
		Status:      result.Session.Status,
		LearnerID:   result.Session.LearnerID,
		CoachUserID: result.Session.CoachUserID,
		Rating:      input.Rating,
		OccurredAt:  s.now().UTC(),
	})
	return result, nil
}

func (s *SessionService) ListSessions(
	ctx context.Context,
	actorID int64,
	filter repository.SessionListFilter,
) ([]models.SessionDetail, error) {
	if actorID <= 0 {
		return nil, ErrInvalidInput
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		parsed, err := models.ParseSessionStatus(status)
		if err != nil {
			return nil, ErrInvalidStatus
		}
		filter.Status = parsed.String()
	}

	sessions, err := s.sessionRepo.List(ctx, repository.SessionListFilter{
		ActorID:   actorID,
		Status:    filter.Status,
		Timeframe: filter.Timeframe,
	})
	if err != nil {
		return nil, storageError("list sessions", err)
	}
	return sessions, nil
}

func (s *SessionService) GetSession(
	ctx context.Context,
	actorID int64,
	sessionID int64,
) (*models.SessionDetail, error) {
	if sessionID <= 0 {
		return nil, ErrInvalidInput
	}
	detail, err := s.sessionRepo.GetDetail(ctx, sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, storageError("load session", err)
	}
	if !detail.IsParty(actorID) {
		return nil, ErrForbidden
	}
	return detail, nil
}

func normalizeFeedback(feedback *string) *string {
	if feedback == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*feedback)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
