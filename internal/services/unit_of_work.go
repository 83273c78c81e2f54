package services

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/saeid-a/CoachMarketBack/internal/models"
	"github.com/saeid-a/CoachMarketBack/internal/repository"
)

type sessionTxStore interface {
	Create(ctx context.Context, input repository.CreateSessionInput) (*models.Session, error)
	GetDetail(ctx context.Context, sessionID int64) (*models.SessionDetail, error)
	GetDetailForUpdate(ctx context.Context, sessionID int64) (*models.SessionDetail, error)
	UpdateStatusIfCurrent(
		ctx context.Context,
		sessionID int64,
		currentStatus models.SessionStatus,
		nextStatus models.SessionStatus,
	) (*models.Session, error)
}

type ratingTxStore interface {
	Upsert(ctx context.Context, input repository.UpsertRatingInput) (*models.Rating, error)
}

type coachTxStore interface {
	GetByID(ctx context.Context, coachID int64) (*models.Coach, error)
	LockForUpdate(ctx context.Context, coachID int64) error
	RecomputeAverageRating(ctx context.Context, coachID int64) (float64, error)
}

type tierTxStore interface {
	GetByID(ctx context.Context, tierID int64) (*models.ServiceTier, error)
}

type inquiryTxStore interface {
	Create(ctx context.Context, input repository.CreateInquiryInput) (*models.ServiceInquiry, error)
}

// TxRepositories are bound to one transaction.
type TxRepositories struct {
	Sessions  sessionTxStore
	Ratings   ratingTxStore
	Coaches   coachTxStore
	Tiers     tierTxStore
	Inquiries inquiryTxStore
}

// UnitOfWork runs fn in a transaction: committed when fn returns nil, rolled
// back otherwise. The rollback completes before Within returns.
type UnitOfWork interface {
	Within(ctx context.Context, fn func(repos TxRepositories) error) error
}

type PgUnitOfWork struct {
	db *pgxpool.Pool
}

func NewUnitOfWork(db *pgxpool.Pool) *PgUnitOfWork {
	return &PgUnitOfWork{db: db}
}

func (u *PgUnitOfWork) Within(ctx context.Context, fn func(repos TxRepositories) error) error {
	tx, err := u.db.Begin(ctx)
	if err != nil {
		return storageError("begin transaction", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(TxRepositories{
		Sessions:  repository.NewSessionRepository(tx),
		Ratings:   repository.NewRatingRepository(tx),
		Coaches:   repository.NewCoachRepository(tx),
		Tiers:     repository.NewServiceTierRepository(tx),
		Inquiries: repository.NewInquiryRepository(tx),
	}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return storageError("commit transaction", err)
	}
	return nil
}
