package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/kaustubh7916/Examprepshare/internal/domain"
	"github.com/kaustubh7916/Examprepshare/internal/repository"
	"github.com/kaustubh7916/Examprepshare/pkg/database"
	apperrors "github.com/kaustubh7916/Examprepshare/pkg/errors"
)

const resourceColumns = `id, title, slug, description, category, subject,
		file_url, file_name, file_size, file_type, uploaded_by,
		stars, total_ratings, downloads, is_active, created_at, updated_at`

// ResourceRepository implements repository.ResourceRepository using PostgreSQL.
type ResourceRepository struct {
	pool database.DBTX
}

// NewResourceRepository creates a new PostgreSQL-backed resource repository.
func NewResourceRepository(pool database.DBTX) *ResourceRepository {
	return &ResourceRepository{pool: pool}
}

// Create inserts a new resource. Stars, total_ratings, and downloads start at
// zero via column defaults set by the caller.
func (r *ResourceRepository) Create(ctx context.Context, res *domain.Resource) error {
	query := `
		INSERT INTO resources (
			id, title, slug, description, category, subject,
			file_url, file_name, file_size, file_type, uploaded_by,
			stars, total_ratings, downloads, is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

	_, err := r.pool.Exec(ctx, query,
		res.ID,
		res.Title,
		res.Slug,
		res.Description,
		res.Category,
		res.Subject,
		res.FileURL,
		res.FileName,
		res.FileSize,
		res.FileType,
		res.UploadedBy,
		res.Stars,
		res.TotalRatings,
		res.Downloads,
		res.IsActive,
		res.CreatedAt,
		res.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("resource", "slug", res.Slug)
		}
		return fmt.Errorf("insert resource: %w", err)
	}

	return nil
}

// GetByID retrieves a resource by its ID, active or not. Callers decide how
// to treat inactive rows.
func (r *ResourceRepository) GetByID(ctx context.Context, id string) (*domain.Resource, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM resources
		WHERE id = $1`, resourceColumns)

	var res domain.Resource
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&res.ID,
		&res.Title,
		&res.Slug,
		&res.Description,
		&res.Category,
		&res.Subject,
		&res.FileURL,
		&res.FileName,
		&res.FileSize,
		&res.FileType,
		&res.UploadedBy,
		&res.Stars,
		&res.TotalRatings,
		&res.Downloads,
		&res.IsActive,
		&res.CreatedAt,
		&res.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan resource: %w", err)
	}

	return &res, nil
}

// List returns active resources matching the filter with the total count.
func (r *ResourceRepository) List(ctx context.Context, filter repository.ResourceFilter) ([]domain.Resource, int, error) {
	var (
		conditions = []string{"is_active = TRUE"}
		args       []any
		argIndex   = 1
	)

	if filter.Category != nil {
		conditions = append(conditions, fmt.Sprintf("category = $%d", argIndex))
		args = append(args, *filter.Category)
		argIndex++
	}

	if filter.Search != nil {
		conditions = append(conditions, fmt.Sprintf("(title ILIKE $%d OR subject ILIKE $%d OR description ILIKE $%d)", argIndex, argIndex, argIndex))
		args = append(args, "%"+*filter.Search+"%")
		argIndex++
	}

	if filter.UploadedBy != nil {
		conditions = append(conditions, fmt.Sprintf("uploaded_by = $%d", argIndex))
		args = append(args, *filter.UploadedBy)
		argIndex++
	}

	query := fmt.Sprintf(`
		SELECT %s,
		       count(*) OVER() AS total_count
		FROM resources
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		resourceColumns, strings.Join(conditions, " AND "), argIndex, argIndex+1,
	)

	limit := filter.Limit
	if limit <= 0 {
		limit = 10
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list resources: %w", err)
	}
	defer rows.Close()

	var (
		resources  []domain.Resource
		totalCount int
	)

	for rows.Next() {
		var res domain.Resource
		if err := rows.Scan(
			&res.ID,
			&res.Title,
			&res.Slug,
			&res.Description,
			&res.Category,
			&res.Subject,
			&res.FileURL,
			&res.FileName,
			&res.FileSize,
			&res.FileType,
			&res.UploadedBy,
			&res.Stars,
			&res.TotalRatings,
			&res.Downloads,
			&res.IsActive,
			&res.CreatedAt,
			&res.UpdatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan resource row: %w", err)
		}
		resources = append(resources, res)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate resource rows: %w", err)
	}

	if resources == nil {
		resources = []domain.Resource{}
	}

	return resources, totalCount, nil
}

// IncrementDownloads atomically bumps the download counter of an active
// resource and returns the new count.
func (r *ResourceRepository) IncrementDownloads(ctx context.Context, id string) (int, error) {
	query := `
		UPDATE resources
		SET downloads = downloads + 1, updated_at = NOW()
		WHERE id = $1 AND is_active = TRUE
		RETURNING downloads`

	var downloads int
	err := r.pool.QueryRow(ctx, query, id).Scan(&downloads)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, apperrors.NotFound("resource", id)
		}
		return 0, fmt.Errorf("increment resource downloads: %w", err)
	}

	return downloads, nil
}

// Deactivate soft-deletes a resource. Already-inactive or missing rows report
// not found.
func (r *ResourceRepository) Deactivate(ctx context.Context, id string) error {
	query := `
		UPDATE resources
		SET is_active = FALSE, updated_at = NOW()
		WHERE id = $1 AND is_active = TRUE`

	ct, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("deactivate resource: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("resource", id)
	}

	return nil
}
