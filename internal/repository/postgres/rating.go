package postgres

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/jackc/pgx/v5"

	"github.com/kaustubh7916/Examprepshare/internal/domain"
	"github.com/kaustubh7916/Examprepshare/pkg/database"
	apperrors "github.com/kaustubh7916/Examprepshare/pkg/errors"
)

// RatingRepository implements repository.RatingRepository using PostgreSQL.
//
// The (resource_id, user_id) unique constraint is the source of truth for
// one-rating-per-user-per-resource, and RecomputeResourceAggregate is the
// sole writer of resources.stars and resources.total_ratings.
type RatingRepository struct {
	pool database.DBTX
}

// NewRatingRepository creates a new PostgreSQL-backed rating repository.
func NewRatingRepository(pool database.DBTX) *RatingRepository {
	return &RatingRepository{pool: pool}
}

// Create inserts a new rating. A concurrent insert for the same
// (resource, user) pair surfaces as ErrAlreadyExists via the unique
// constraint; callers recover it as an update.
func (r *RatingRepository) Create(ctx context.Context, rating *domain.Rating) error {
	query := `
		INSERT INTO ratings (id, resource_id, user_id, stars, review, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	ctx, end := database.TraceQuery(ctx, "CreateRating", query)
	_, err := r.pool.Exec(ctx, query,
		rating.ID,
		rating.ResourceID,
		rating.UserID,
		rating.Stars,
		rating.Review,
		rating.CreatedAt,
		rating.UpdatedAt,
	)
	end(err)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("rating", "resource/user", rating.ResourceID+"/"+rating.UserID)
		}
		return fmt.Errorf("insert rating: %w", err)
	}

	return nil
}

// Update rewrites the stars and review of the rating identified by
// (resource_id, user_id).
func (r *RatingRepository) Update(ctx context.Context, rating *domain.Rating) error {
	query := `
		UPDATE ratings
		SET stars = $1, review = $2, updated_at = $3
		WHERE resource_id = $4 AND user_id = $5`

	ctx, end := database.TraceQuery(ctx, "UpdateRating", query)
	ct, err := r.pool.Exec(ctx, query,
		rating.Stars,
		rating.Review,
		rating.UpdatedAt,
		rating.ResourceID,
		rating.UserID,
	)
	end(err)
	if err != nil {
		return fmt.Errorf("update rating: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("rating", rating.ResourceID+"/"+rating.UserID)
	}

	return nil
}

// GetByID retrieves a rating by its ID.
func (r *RatingRepository) GetByID(ctx context.Context, id string) (*domain.Rating, error) {
	query := `
		SELECT id, resource_id, user_id, stars, review, created_at, updated_at
		FROM ratings
		WHERE id = $1`

	return r.scanRating(ctx, "GetRatingByID", query, id)
}

// GetByResourceAndUser retrieves the single rating a user left on a resource.
func (r *RatingRepository) GetByResourceAndUser(ctx context.Context, resourceID, userID string) (*domain.Rating, error) {
	query := `
		SELECT id, resource_id, user_id, stars, review, created_at, updated_at
		FROM ratings
		WHERE resource_id = $1 AND user_id = $2`

	return r.scanRating(ctx, "GetRatingByResourceAndUser", query, resourceID, userID)
}

// Delete removes a rating by its ID.
func (r *RatingRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM ratings WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "DeleteRating", query)
	ct, err := r.pool.Exec(ctx, query, id)
	end(err)
	if err != nil {
		return fmt.Errorf("delete rating: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("rating", id)
	}

	return nil
}

// ListByResource returns paginated ratings for a resource, newest first,
// along with the total count.
func (r *RatingRepository) ListByResource(ctx context.Context, resourceID string, limit, offset int) ([]domain.Rating, int, error) {
	query := `
		SELECT id, resource_id, user_id, stars, review, created_at, updated_at,
		       count(*) OVER() AS total_count
		FROM ratings
		WHERE resource_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	return r.listRatings(ctx, "ListRatingsByResource", query, resourceID, limit, offset)
}

// ListByUser returns paginated ratings left by a user, newest first, along
// with the total count.
func (r *RatingRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Rating, int, error) {
	query := `
		SELECT id, resource_id, user_id, stars, review, created_at, updated_at,
		       count(*) OVER() AS total_count
		FROM ratings
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	return r.listRatings(ctx, "ListRatingsByUser", query, userID, limit, offset)
}

// RecomputeResourceAggregate recalculates the denormalized stars and
// total_ratings columns from the live ratings in one atomic UPDATE and
// returns the new pair. The average is rounded to one decimal, half away
// from zero; an unrated resource resets to (0, 0). The statement is
// idempotent.
func (r *RatingRepository) RecomputeResourceAggregate(ctx context.Context, resourceID string) (*domain.ResourceAggregate, error) {
	query := `
		UPDATE resources
		SET stars = COALESCE(agg.avg_stars, 0),
		    total_ratings = agg.rating_count,
		    updated_at = NOW()
		FROM (
			SELECT ROUND(AVG(stars)::numeric, 1) AS avg_stars,
			       COUNT(*) AS rating_count
			FROM ratings
			WHERE resource_id = $1
		) agg
		WHERE resources.id = $1
		RETURNING resources.stars, resources.total_ratings`

	ctx, end := database.TraceQuery(ctx, "RecomputeResourceAggregate", query)
	var agg domain.ResourceAggregate
	err := r.pool.QueryRow(ctx, query, resourceID).Scan(&agg.Stars, &agg.TotalRatings)
	end(err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("resource", resourceID)
		}
		return nil, fmt.Errorf("recompute resource aggregate: %w", err)
	}

	return &agg, nil
}

// GetResourceStats computes the star distribution for a resource directly
// from the ratings table. The average and total are derived from the
// distribution, never from the denormalized columns.
func (r *RatingRepository) GetResourceStats(ctx context.Context, resourceID string) (*domain.RatingStats, error) {
	query := `
		SELECT stars, COUNT(*)
		FROM ratings
		WHERE resource_id = $1
		GROUP BY stars`

	ctx, end := database.TraceQuery(ctx, "GetResourceStats", query)
	rows, err := r.pool.Query(ctx, query, resourceID)
	if err != nil {
		end(err)
		return nil, fmt.Errorf("get resource stats: %w", err)
	}
	defer rows.Close()

	stats := domain.EmptyRatingStats()
	sum := 0

	for rows.Next() {
		var stars, count int
		if err := rows.Scan(&stars, &count); err != nil {
			end(err)
			return nil, fmt.Errorf("scan stats row: %w", err)
		}
		stats.StarDistribution[stars] = count
		stats.TotalRatings += count
		sum += stars * count
	}

	if err := rows.Err(); err != nil {
		end(err)
		return nil, fmt.Errorf("iterate stats rows: %w", err)
	}
	end(nil)

	if stats.TotalRatings > 0 {
		mean := float64(sum) / float64(stats.TotalRatings)
		stats.AverageStars = math.Round(mean*10) / 10
	}

	return stats, nil
}

// scanRating executes a query expected to return a single rating row.
func (r *RatingRepository) scanRating(ctx context.Context, operation, query string, args ...any) (*domain.Rating, error) {
	ctx, end := database.TraceQuery(ctx, operation, query)
	var rt domain.Rating
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&rt.ID,
		&rt.ResourceID,
		&rt.UserID,
		&rt.Stars,
		&rt.Review,
		&rt.CreatedAt,
		&rt.UpdatedAt,
	)
	end(err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan rating: %w", err)
	}

	return &rt, nil
}

// listRatings executes a paginated rating query carrying a total_count window column.
func (r *RatingRepository) listRatings(ctx context.Context, operation, query string, key string, limit, offset int) ([]domain.Rating, int, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	ctx, end := database.TraceQuery(ctx, operation, query)
	rows, err := r.pool.Query(ctx, query, key, limit, offset)
	if err != nil {
		end(err)
		return nil, 0, fmt.Errorf("list ratings: %w", err)
	}
	defer rows.Close()

	var (
		ratings    []domain.Rating
		totalCount int
	)

	for rows.Next() {
		var rt domain.Rating
		if err := rows.Scan(
			&rt.ID,
			&rt.ResourceID,
			&rt.UserID,
			&rt.Stars,
			&rt.Review,
			&rt.CreatedAt,
			&rt.UpdatedAt,
			&totalCount,
		); err != nil {
			end(err)
			return nil, 0, fmt.Errorf("scan rating row: %w", err)
		}
		ratings = append(ratings, rt)
	}

	if err := rows.Err(); err != nil {
		end(err)
		return nil, 0, fmt.Errorf("iterate rating rows: %w", err)
	}
	end(nil)

	if ratings == nil {
		ratings = []domain.Rating{}
	}

	return ratings, totalCount, nil
}
