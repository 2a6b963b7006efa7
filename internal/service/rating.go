package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/kaustubh7916/Examprepshare/internal/domain"
	"github.com/kaustubh7916/Examprepshare/internal/event"
	"github.com/kaustubh7916/Examprepshare/internal/repository"
	apperrors "github.com/kaustubh7916/Examprepshare/pkg/errors"
)

// RatingService implements the business logic for rating operations. Every
// write goes through a synchronous recompute of the rated resource's
// denormalized aggregate, so reads of Resource.Stars and
// Resource.TotalRatings never observe a stale value.
type RatingService struct {
	ratings   repository.RatingRepository
	resources repository.ResourceRepository
	producer  *event.Producer
	logger    *slog.Logger
}

// NewRatingService creates a new rating service.
func NewRatingService(ratings repository.RatingRepository, resources repository.ResourceRepository, producer *event.Producer, logger *slog.Logger) *RatingService {
	return &RatingService{
		ratings:   ratings,
		resources: resources,
		producer:  producer,
		logger:    logger,
	}
}

// aggregateStale reports a recompute failure after the rating write already
// landed. The message tells the caller the displayed average may lag rather
// than hiding the partial failure behind a generic 500.
func aggregateStale(err error) *apperrors.AppError {
	return &apperrors.AppError{
		Code:    "INTERNAL_ERROR",
		Message: "the rating was saved but the displayed average could not be refreshed; it will be corrected by the next rating change",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// SubmitRatingInput holds the parameters for submitting a rating.
type SubmitRatingInput struct {
	ResourceID string
	UserID     string
	Stars      int
	Review     *string
}

// SubmitRating creates the caller's rating for a resource, or updates it in
// place if one already exists. A nil Review on resubmission keeps the stored
// review text. The returned bool is true when a new rating was created.
func (s *RatingService) SubmitRating(ctx context.Context, input *SubmitRatingInput) (*domain.Rating, bool, error) {
	if input.Stars < domain.MinStars || input.Stars > domain.MaxStars {
		return nil, false, apperrors.InvalidInput(fmt.Sprintf("stars must be between %d and %d", domain.MinStars, domain.MaxStars))
	}
	if input.Review != nil && utf8.RuneCountInString(*input.Review) > domain.MaxReviewLength {
		return nil, false, apperrors.InvalidInput(fmt.Sprintf("review must not exceed %d characters", domain.MaxReviewLength))
	}

	resource, err := s.resources.GetByID(ctx, input.ResourceID)
	if err != nil {
		return nil, false, err
	}
	if !resource.IsActive {
		return nil, false, apperrors.NotFound("resource", input.ResourceID)
	}
	if resource.UploadedBy == input.UserID {
		return nil, false, apperrors.SelfRating()
	}

	existing, err := s.ratings.GetByResourceAndUser(ctx, input.ResourceID, input.UserID)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, false, err
	}

	now := time.Now().UTC()
	var rating *domain.Rating
	created := false

	if existing != nil {
		rating = existing
		rating.Stars = input.Stars
		if input.Review != nil {
			rating.Review = *input.Review
		}
		rating.UpdatedAt = now

		if err := s.ratings.Update(ctx, rating); err != nil {
			return nil, false, err
		}
	} else {
		rating = &domain.Rating{
			ID:         uuid.New().String(),
			ResourceID: input.ResourceID,
			UserID:     input.UserID,
			Stars:      input.Stars,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if input.Review != nil {
			rating.Review = *input.Review
		}

		err := s.ratings.Create(ctx, rating)
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			// Lost a race with a concurrent first submission by the same
			// user. Fall back to updating the row that won.
			winner, getErr := s.ratings.GetByResourceAndUser(ctx, input.ResourceID, input.UserID)
			if getErr != nil {
				return nil, false, getErr
			}
			rating = winner
			rating.Stars = input.Stars
			if input.Review != nil {
				rating.Review = *input.Review
			}
			rating.UpdatedAt = now
			if err := s.ratings.Update(ctx, rating); err != nil {
				return nil, false, err
			}
		} else if err != nil {
			return nil, false, err
		} else {
			created = true
		}
	}

	agg, err := s.ratings.RecomputeResourceAggregate(ctx, input.ResourceID)
	if err != nil {
		// The rating row is committed but the resource aggregate was not
		// refreshed. Surface the failure; a later write or an explicit
		// recompute will converge the aggregate.
		s.logger.ErrorContext(ctx, "failed to recompute resource aggregate after rating write",
			slog.String("resource_id", input.ResourceID),
			slog.String("rating_id", rating.ID),
			slog.String("error", err.Error()),
		)
		return nil, false, aggregateStale(err)
	}

	if err := s.producer.PublishRatingSubmitted(ctx, rating, agg, created); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish rating.submitted event",
			slog.String("rating_id", rating.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "rating submitted",
		slog.String("rating_id", rating.ID),
		slog.String("resource_id", input.ResourceID),
		slog.String("user_id", input.UserID),
		slog.Int("stars", input.Stars),
		slog.Bool("created", created),
		slog.Float64("resource_stars", agg.Stars),
		slog.Int("resource_total_ratings", agg.TotalRatings),
	)

	return rating, created, nil
}

// DeleteRating removes a rating. Only the rating's author may delete it.
func (s *RatingService) DeleteRating(ctx context.Context, ratingID, requesterID string) error {
	rating, err := s.ratings.GetByID(ctx, ratingID)
	if err != nil {
		return err
	}
	if rating.UserID != requesterID {
		return apperrors.Forbidden("you can only delete your own ratings")
	}

	if err := s.ratings.Delete(ctx, ratingID); err != nil {
		return err
	}

	agg, err := s.ratings.RecomputeResourceAggregate(ctx, rating.ResourceID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to recompute resource aggregate after rating delete",
			slog.String("resource_id", rating.ResourceID),
			slog.String("rating_id", ratingID),
			slog.String("error", err.Error()),
		)
		return aggregateStale(err)
	}

	if err := s.producer.PublishRatingDeleted(ctx, rating, agg); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish rating.deleted event",
			slog.String("rating_id", ratingID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "rating deleted",
		slog.String("rating_id", ratingID),
		slog.String("resource_id", rating.ResourceID),
		slog.Float64("resource_stars", agg.Stars),
		slog.Int("resource_total_ratings", agg.TotalRatings),
	)

	return nil
}

// ListRatingsByResource returns the ratings for a resource, newest first,
// with the total count. The resource must exist.
func (s *RatingService) ListRatingsByResource(ctx context.Context, resourceID string, limit, offset int) ([]domain.Rating, int, error) {
	if _, err := s.resources.GetByID(ctx, resourceID); err != nil {
		return nil, 0, err
	}
	return s.ratings.ListByResource(ctx, resourceID, limit, offset)
}

// ListRatingsByUser returns the ratings submitted by a user, newest first,
// with the total count.
func (s *RatingService) ListRatingsByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Rating, int, error) {
	return s.ratings.ListByUser(ctx, userID, limit, offset)
}

// GetResourceStats computes the rating statistics for a resource on demand.
// A resource with no ratings yields zeroed stats with all five star buckets
// present.
func (s *RatingService) GetResourceStats(ctx context.Context, resourceID string) (*domain.RatingStats, error) {
	if _, err := s.resources.GetByID(ctx, resourceID); err != nil {
		return nil, err
	}
	return s.ratings.GetResourceStats(ctx, resourceID)
}

// RecomputeResourceAggregate re-derives a resource's denormalized stars and
// total_ratings from its live ratings. The operation is idempotent.
func (s *RatingService) RecomputeResourceAggregate(ctx context.Context, resourceID string) (*domain.ResourceAggregate, error) {
	agg, err := s.ratings.RecomputeResourceAggregate(ctx, resourceID)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "resource aggregate recomputed",
		slog.String("resource_id", resourceID),
		slog.Float64("stars", agg.Stars),
		slog.Int("total_ratings", agg.TotalRatings),
	)

	return agg, nil
}
