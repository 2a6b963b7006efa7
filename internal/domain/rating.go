package domain

import (
	"fmt"
	"time"
	"unicode/utf8"

	apperrors "github.com/kaustubh7916/Examprepshare/pkg/errors"
)

// Rating bounds.
const (
	MinStars        = 1
	MaxStars        = 5
	MaxReviewLength = 500
)

// Rating is one user's rating of one resource. At most one rating exists per
// (resource, user) pair; re-submission updates the existing row.
type Rating struct {
	ID         string    `json:"id"`
	ResourceID string    `json:"resource_id"`
	UserID     string    `json:"user_id"`
	Stars      int       `json:"stars"`
	Review     string    `json:"review,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Validate checks the stars range and review length.
func (r *Rating) Validate() error {
	if r.Stars < MinStars || r.Stars > MaxStars {
		return apperrors.InvalidInput(fmt.Sprintf("stars must be between %d and %d", MinStars, MaxStars))
	}
	if utf8.RuneCountInString(r.Review) > MaxReviewLength {
		return apperrors.InvalidInput(fmt.Sprintf("review must be at most %d characters", MaxReviewLength))
	}
	return nil
}

// RatingStats is the on-demand star distribution for a resource, computed
// fresh from the ratings table rather than the denormalized aggregate.
type RatingStats struct {
	AverageStars     float64     `json:"averageStars"`
	TotalRatings     int         `json:"totalRatings"`
	StarDistribution map[int]int `json:"starDistribution"`
}

// EmptyRatingStats returns zeroed stats with all five buckets present.
func EmptyRatingStats() *RatingStats {
	return &RatingStats{
		AverageStars:     0,
		TotalRatings:     0,
		StarDistribution: map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0},
	}
}

// ResourceAggregate is the denormalized (stars, total_ratings) pair returned
// by an aggregate recomputation.
type ResourceAggregate struct {
	Stars        float64 `json:"stars"`
	TotalRatings int     `json:"total_ratings"`
}
