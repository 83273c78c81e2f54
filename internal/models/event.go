package models

import "time"

const (
	SessionEventBooked  = "session.booked"
	SessionEventUpdated = "session.updated"
)

// SessionEvent is pushed to both parties after a committed change.
type SessionEvent struct {
	Type        string        `json:"type"`
	SessionID   int64         `json:"session_id"`
	Status      SessionStatus `json:"status"`
	LearnerID   int64         `json:"learner_id"`
	CoachUserID int64         `json:"coach_user_id"`
	Rating      *int          `json:"rating,omitempty"`
	OccurredAt  time.Time     `json:"occurred_at"`
}

// Recipients returns the distinct user ids the event is addressed to.
func (e SessionEvent) Recipients() []int64 {
	if e.LearnerID == e.CoachUserID {
		return []int64{e.LearnerID}
	}
	return []int64{e.LearnerID, e.CoachUserID}
}
