package models

import (
	"errors"
	"strings"
	"time"
)

type SessionStatus string

const (
	SessionStatusScheduled SessionStatus = "scheduled"
	SessionStatusCompleted SessionStatus = "completed"
	SessionStatusCancelled SessionStatus = "cancelled"
)

var ErrUnknownSessionStatus = errors.New("unknown session status")

// ParseSessionStatus accepts the canonical names and the verb forms the
// calendar UI posts ("complete", "cancel").
func ParseSessionStatus(raw string) (SessionStatus, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "scheduled", "schedule":
		return SessionStatusScheduled, nil
	case "completed", "complete":
		return SessionStatusCompleted, nil
	case "cancelled", "canceled", "cancel":
		return SessionStatusCancelled, nil
	default:
		return "", ErrUnknownSessionStatus
	}
}

// IsTerminal reports whether no further status change is allowed.
func (s SessionStatus) IsTerminal() bool {
	return s == SessionStatusCompleted || s == SessionStatusCancelled
}

func (s SessionStatus) String() string {
	return string(s)
}

type Session struct {
	ID            int64         `json:"id"`
	InquiryID     int64         `json:"inquiry_id"`
	LearnerID     int64         `json:"learner_id"`
	CoachID       int64         `json:"coach_id"`
	TierID        int64         `json:"tier_id"`
	ScheduledTime time.Time     `json:"scheduled_time"`
	Status        SessionStatus `json:"status"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// SessionDetail is a session joined with both parties and its tier.
type SessionDetail struct {
	Session
	CoachUserID int64   `json:"coach_user_id"`
	LearnerName string  `json:"learner_name"`
	CoachName   string  `json:"coach_name"`
	TierName    string  `json:"tier_name"`
	TierPrice   float64 `json:"tier_price"`
	Rating      *Rating `json:"rating,omitempty"`
}

// IsParty reports whether userID is the learner or the user owning the coach record.
func (d *SessionDetail) IsParty(userID int64) bool {
	return d != nil && userID > 0 && (d.LearnerID == userID || d.CoachUserID == userID)
}

// TransitionResult is returned by a successful status change.
type TransitionResult struct {
	Session            SessionDetail `json:"session"`
	Rating             *Rating       `json:"rating,omitempty"`
	CoachAverageRating *float64      `json:"coach_average_rating,omitempty"`
}

type ServiceInquiry struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	CoachID   int64     `json:"coach_id"`
	TierID    int64     `json:"tier_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

const InquiryStatusAccepted = "accepted"
