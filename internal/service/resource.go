package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kaustubh7916/Examprepshare/internal/domain"
	"github.com/kaustubh7916/Examprepshare/internal/event"
	"github.com/kaustubh7916/Examprepshare/internal/repository"
	apperrors "github.com/kaustubh7916/Examprepshare/pkg/errors"
	"github.com/kaustubh7916/Examprepshare/pkg/httpclient"
	"github.com/kaustubh7916/Examprepshare/pkg/slug"
)

// URLProber checks that an uploaded file URL is reachable before a resource
// is published. It is optional; a nil prober skips the check.
type URLProber interface {
	Get(ctx context.Context, url string) (*http.Response, error)
}

var _ URLProber = (*httpclient.CircuitBreakerClient)(nil)

// ResourceService implements the business logic for study resource operations.
type ResourceService struct {
	resources repository.ResourceRepository
	producer  *event.Producer
	prober    URLProber
	logger    *slog.Logger
}

// NewResourceService creates a new resource service. prober may be nil to
// disable file URL reachability checks.
func NewResourceService(resources repository.ResourceRepository, producer *event.Producer, prober URLProber, logger *slog.Logger) *ResourceService {
	return &ResourceService{
		resources: resources,
		producer:  producer,
		prober:    prober,
		logger:    logger,
	}
}

// CreateResourceInput holds the parameters for creating a resource.
type CreateResourceInput struct {
	Title       string
	Description string
	Category    string
	Subject     string
	FileURL     string
	FileName    string
	FileSize    int64
	FileType    string
	UploadedBy  string
}

// ListResourcesInput holds the parameters for listing resources.
type ListResourcesInput struct {
	Category   string
	Search     string
	UploadedBy string
	Page       int
	PageSize   int
}

// CreateResource publishes a new study resource. The denormalized rating
// aggregate starts at zero and only rating writes change it afterwards.
func (s *ResourceService) CreateResource(ctx context.Context, input *CreateResourceInput) (*domain.Resource, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, apperrors.InvalidInput("title is required")
	}
	if !domain.ValidCategory(input.Category) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid category %q, must be one of: %s", input.Category, strings.Join(domain.Categories(), ", ")))
	}
	if strings.TrimSpace(input.FileURL) == "" {
		return nil, apperrors.InvalidInput("file URL is required")
	}
	if input.FileSize < 0 {
		return nil, apperrors.InvalidInput("file size must not be negative")
	}

	if s.prober != nil {
		resp, err := s.prober.Get(ctx, input.FileURL)
		if err != nil {
			s.logger.WarnContext(ctx, "file URL probe failed",
				slog.String("file_url", input.FileURL),
				slog.String("error", err.Error()),
			)
			return nil, apperrors.InvalidInput("file URL is not reachable")
		}
		resp.Body.Close()
		if resp.StatusCode >= 400 {
			return nil, apperrors.InvalidInput(fmt.Sprintf("file URL returned status %d", resp.StatusCode))
		}
	}

	now := time.Now().UTC()
	resource := &domain.Resource{
		ID:          uuid.New().String(),
		Title:       strings.TrimSpace(input.Title),
		Slug:        s.uniqueSlug(input.Title),
		Description: input.Description,
		Category:    input.Category,
		Subject:     input.Subject,
		FileURL:     input.FileURL,
		FileName:    input.FileName,
		FileSize:    input.FileSize,
		FileType:    input.FileType,
		UploadedBy:  input.UploadedBy,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.resources.Create(ctx, resource); err != nil {
		return nil, err
	}

	if err := s.producer.PublishResourceCreated(ctx, resource); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish resource.created event",
			slog.String("resource_id", resource.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "resource created",
		slog.String("resource_id", resource.ID),
		slog.String("slug", resource.Slug),
		slog.String("category", resource.Category),
		slog.String("uploaded_by", resource.UploadedBy),
	)

	return resource, nil
}

// uniqueSlug derives a slug from the title with a short random suffix so two
// resources with the same title never collide on the unique slug column.
func (s *ResourceService) uniqueSlug(title string) string {
	base := slug.Generate(title)
	if base == "" {
		base = "resource"
	}
	return base + "-" + uuid.New().String()[:8]
}

// GetResource returns an active resource by ID. Deactivated resources are
// reported as not found.
func (s *ResourceService) GetResource(ctx context.Context, id string) (*domain.Resource, error) {
	resource, err := s.resources.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !resource.IsActive {
		return nil, apperrors.NotFound("resource", id)
	}
	return resource, nil
}

// ListResources returns active resources matching the filter, newest first,
// with the total count.
func (s *ResourceService) ListResources(ctx context.Context, input *ListResourcesInput) ([]domain.Resource, int, error) {
	if input.PageSize <= 0 {
		input.PageSize = 10
	}
	if input.PageSize > 100 {
		input.PageSize = 100
	}
	if input.Page <= 0 {
		input.Page = 1
	}

	filter := repository.ResourceFilter{
		Limit:  input.PageSize,
		Offset: (input.Page - 1) * input.PageSize,
	}
	if input.Category != "" {
		if !domain.ValidCategory(input.Category) {
			return nil, 0, apperrors.InvalidInput(fmt.Sprintf("invalid category %q", input.Category))
		}
		filter.Category = &input.Category
	}
	if input.Search != "" {
		filter.Search = &input.Search
	}
	if input.UploadedBy != "" {
		filter.UploadedBy = &input.UploadedBy
	}

	return s.resources.List(ctx, filter)
}

// DownloadResource records a download and returns the resource's file URL
// together with the new download count.
func (s *ResourceService) DownloadResource(ctx context.Context, id string) (string, int, error) {
	resource, err := s.GetResource(ctx, id)
	if err != nil {
		return "", 0, err
	}

	downloads, err := s.resources.IncrementDownloads(ctx, id)
	if err != nil {
		return "", 0, err
	}

	s.logger.InfoContext(ctx, "resource downloaded",
		slog.String("resource_id", id),
		slog.Int("downloads", downloads),
	)

	return resource.FileURL, downloads, nil
}

// DeactivateResource soft-deletes a resource. Only the uploader or an admin
// may deactivate it. Existing ratings are kept; the resource simply stops
// appearing in listings and rejects new ratings and downloads.
func (s *ResourceService) DeactivateResource(ctx context.Context, id, requesterID, requesterRole string) error {
	resource, err := s.GetResource(ctx, id)
	if err != nil {
		return err
	}
	if resource.UploadedBy != requesterID && requesterRole != domain.RoleAdmin {
		return apperrors.Forbidden("you can only remove your own resources")
	}

	if err := s.resources.Deactivate(ctx, id); err != nil {
		return err
	}

	if err := s.producer.PublishResourceDeactivated(ctx, id, requesterID); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish resource.deactivated event",
			slog.String("resource_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "resource deactivated",
		slog.String("resource_id", id),
		slog.String("deactivated_by", requesterID),
	)

	return nil
}
