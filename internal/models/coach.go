package models

import "time"

type Coach struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"user_id"`
	Username      string    `json:"username"`
	Expertise     *string   `json:"expertise"`
	Availability  *string   `json:"availability"`
	AverageRating float64   `json:"average_rating"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type CoachWithTiers struct {
	Coach
	Tiers []ServiceTier `json:"tiers"`
}

// CoachMatch is a coach ranked against a learner's stated needs.
type CoachMatch struct {
	CoachWithTiers
	MatchScore int `json:"match_score"`
}

type ServiceTier struct {
	ID          int64     `json:"id"`
	CoachID     int64     `json:"coach_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type PaginationMeta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}
