package services

import "github.com/saeid-a/CoachMarketBack/internal/models"

// SessionEventPublisher receives committed session changes. Publish must not block.
type SessionEventPublisher interface {
	PublishSessionEvent(event models.SessionEvent)
}

// SessionMetrics records session workflow outcomes.
type SessionMetrics interface {
	RecordTransition(status string, outcome string)
	RecordBooking(outcome string)
	RecordRating(value int, coachAverage float64)
}

type noopPublisher struct{}

func (noopPublisher) PublishSessionEvent(models.SessionEvent) {}

type noopMetrics struct{}

func (noopMetrics) RecordTransition(string, string) {}
func (noopMetrics) RecordBooking(string)            {}
func (noopMetrics) RecordRating(int, float64)       {}
