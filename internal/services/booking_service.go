package services

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/saeid-a/CoachMarketBack/internal/models"
	"github.com/saeid-a/CoachMarketBack/internal/repository"
)

type BookingService struct {
	uow       UnitOfWork
	publisher SessionEventPublisher
	metrics   SessionMetrics
	now       func() time.Time
}

func NewBookingService(uow UnitOfWork, publisher SessionEventPublisher, metrics SessionMetrics) *BookingService {
	if publisher == nil {
		publisher = noopPublisher{}
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &BookingService{
		uow:       uow,
		publisher: publisher,
		metrics:   metrics,
		now:       time.Now,
	}
}

type BookSessionInput struct {
	CoachID       int64
	TierID        int64
	ScheduledTime time.Time
}

// BookSession records an accepted inquiry and the scheduled session it
// produces. Both rows are written in one transaction. Overlapping bookings
// for the same coach are not detected.
func (s *BookingService) BookSession(
	ctx context.Context,
	learnerID int64,
	input BookSessionInput,
) (*models.SessionDetail, error) {
	detail, err := s.book(ctx, learnerID, input)
	s.metrics.RecordBooking(outcomeLabel(err))
	if err != nil {
		return nil, err
	}

	s.publisher.PublishSessionEvent(models.SessionEvent{
		Type:        models.SessionEventBooked,
		SessionID:   detail.ID,
		Status:      detail.Status,
		LearnerID:   detail.LearnerID,
		CoachUserID: detail.CoachUserID,
		OccurredAt:  s.now().UTC(),
	})
	return detail, nil
}

func (s *BookingService) book(
	ctx context.Context,
	learnerID int64,
	input BookSessionInput,
) (*models.SessionDetail, error) {
	if learnerID <= 0 || input.CoachID <= 0 || input.TierID <= 0 || input.ScheduledTime.IsZero() {
		return nil, ErrInvalidInput
	}
	if input.ScheduledTime.Before(s.now().Add(-1 * time.Minute)) {
		return nil, ErrInvalidInput
	}

	var detail *models.SessionDetail
	err := s.uow.Within(ctx, func(repos TxRepositories) error {
		coach, err := repos.Coaches.GetByID(ctx, input.CoachID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrCoachNotFound
			}
			return storageError("load coach", err)
		}
		if coach.UserID == learnerID {
			return ErrInvalidInput
		}

		tier, err := repos.Tiers.GetByID(ctx, input.TierID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrTierNotFound
			}
			return storageError("load service tier", err)
		}
		if tier.CoachID != coach.ID {
			return ErrTierNotFound
		}

		inquiry, err := repos.Inquiries.Create(ctx, repository.CreateInquiryInput{
			UserID:  learnerID,
			CoachID: coach.ID,
			TierID:  tier.ID,
			Status:  models.InquiryStatusAccepted,
		})
		if err != nil {
			return storageError("create inquiry", err)
		}

		session, err := repos.Sessions.Create(ctx, repository.CreateSessionInput{
			InquiryID:     inquiry.ID,
			LearnerID:     learnerID,
			CoachID:       coach.ID,
			TierID:        tier.ID,
			ScheduledTime: input.ScheduledTime.UTC(),
		})
		if err != nil {
			return storageError("create session", err)
		}

		detail, err = repos.Sessions.GetDetail(ctx, session.ID)
		if err != nil {
			return storageError("load booked session", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}
