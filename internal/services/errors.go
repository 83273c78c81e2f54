package services

import (
	"errors"
	"fmt"
)

var (
	ErrForbidden              = errors.New("forbidden")
	ErrInvalidStatus          = errors.New("invalid status")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrInvalidInput           = errors.New("invalid input")
	ErrSessionNotFound        = errors.New("session not found")
	ErrCoachNotFound          = errors.New("coach not found")
	ErrTierNotFound           = errors.New("service tier not found")
	ErrTierInUse              = errors.New("service tier is referenced by inquiries or sessions")
	ErrStorage                = errors.New("storage error")
)

func storageError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}

// outcomeLabel buckets an operation error for metrics.
func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, ErrCoachNotFound), errors.Is(err, ErrTierNotFound):
		return "not_found"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrInvalidStatus):
		return "invalid"
	case errors.Is(err, ErrInvalidStateTransition), errors.Is(err, ErrTierInUse):
		return "conflict"
	default:
		return "storage_error"
	}
}
