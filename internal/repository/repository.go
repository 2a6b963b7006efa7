package repository

import (
	"context"
	"time"

	"github.com/kaustubh7916/Examprepshare/internal/domain"
)

// UserRepository persists user accounts.
type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// RefreshTokenRepository persists refresh token hashes.
type RefreshTokenRepository interface {
	Create(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error
	GetByHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error)
	Revoke(ctx context.Context, tokenHash string) error
	RevokeByUserID(ctx context.Context, userID string) error
	DeleteExpired(ctx context.Context) (int64, error)
}

// ResourceFilter narrows resource listings.
type ResourceFilter struct {
	Category   *string
	Search     *string
	UploadedBy *string
	Limit      int
	Offset     int
}

// ResourceRepository persists study resources.
type ResourceRepository interface {
	Create(ctx context.Context, res *domain.Resource) error
	GetByID(ctx context.Context, id string) (*domain.Resource, error)
	List(ctx context.Context, filter ResourceFilter) ([]domain.Resource, int, error)
	IncrementDownloads(ctx context.Context, id string) (int, error)
	Deactivate(ctx context.Context, id string) error
}

// RatingRepository persists ratings and owns the denormalized rating
// aggregate on resources.
type RatingRepository interface {
	Create(ctx context.Context, rating *domain.Rating) error
	Update(ctx context.Context, rating *domain.Rating) error
	GetByID(ctx context.Context, id string) (*domain.Rating, error)
	GetByResourceAndUser(ctx context.Context, resourceID, userID string) (*domain.Rating, error)
	Delete(ctx context.Context, id string) error
	ListByResource(ctx context.Context, resourceID string, limit, offset int) ([]domain.Rating, int, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Rating, int, error)

	// RecomputeResourceAggregate recalculates stars and total_ratings for the
	// resource from its live ratings in a single atomic statement and returns
	// the new pair. It is the only writer of those columns.
	RecomputeResourceAggregate(ctx context.Context, resourceID string) (*domain.ResourceAggregate, error)

	// GetResourceStats computes the average, count, and per-star distribution
	// directly from the ratings table.
	GetResourceStats(ctx context.Context, resourceID string) (*domain.RatingStats, error)
}
