package models

import "time"

const (
	MinRatingValue = 1
	MaxRatingValue = 5
)

type Rating struct {
	ID          int64     `json:"id"`
	SessionID   int64     `json:"session_id"`
	RatingValue int       `json:"rating_value"`
	Feedback    *string   `json:"feedback,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func ValidRatingValue(value int) bool {
	return value >= MinRatingValue && value <= MaxRatingValue
}
