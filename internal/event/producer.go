package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kaustubh7916/Examprepshare/internal/domain"
	pkgkafka "github.com/kaustubh7916/Examprepshare/pkg/kafka"
)

// Kafka topics for domain events.
var (
	TopicRatings   = pkgkafka.Topic("ratings")
	TopicResources = pkgkafka.Topic("resources")
	TopicUsers     = pkgkafka.Topic("users")
)

// Event type identifiers.
const (
	EventRatingSubmitted     = "rating.submitted"
	EventRatingDeleted       = "rating.deleted"
	EventResourceCreated     = "resource.created"
	EventResourceDeactivated = "resource.deactivated"
	EventUserRegistered      = "user.registered"
)

// Aggregate type constants.
const (
	AggregateTypeRating   = "rating"
	AggregateTypeResource = "resource"
	AggregateTypeUser     = "user"
)

// Source identifier for events originating from this service.
const Source = "examshare-api"

// RatingSubmittedData is the payload for a rating.submitted event. It carries
// the freshly recomputed resource aggregate so consumers need no follow-up read.
type RatingSubmittedData struct {
	RatingID     string  `json:"rating_id"`
	ResourceID   string  `json:"resource_id"`
	UserID       string  `json:"user_id"`
	Stars        int     `json:"stars"`
	Created      bool    `json:"created"`
	AverageStars float64 `json:"average_stars"`
	TotalRatings int     `json:"total_ratings"`
}

// RatingDeletedData is the payload for a rating.deleted event.
type RatingDeletedData struct {
	RatingID     string  `json:"rating_id"`
	ResourceID   string  `json:"resource_id"`
	UserID       string  `json:"user_id"`
	AverageStars float64 `json:"average_stars"`
	TotalRatings int     `json:"total_ratings"`
}

// ResourceCreatedData is the payload for a resource.created event.
type ResourceCreatedData struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Slug       string `json:"slug"`
	Category   string `json:"category"`
	Subject    string `json:"subject"`
	UploadedBy string `json:"uploaded_by"`
}

// ResourceDeactivatedData is the payload for a resource.deactivated event.
type ResourceDeactivatedData struct {
	ID            string `json:"id"`
	DeactivatedBy string `json:"deactivated_by"`
}

// UserRegisteredData is the payload for a user.registered event.
type UserRegisteredData struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Producer publishes domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishRatingSubmitted publishes a rating.submitted event.
func (p *Producer) PublishRatingSubmitted(ctx context.Context, rating *domain.Rating, agg *domain.ResourceAggregate, created bool) error {
	data := RatingSubmittedData{
		RatingID:     rating.ID,
		ResourceID:   rating.ResourceID,
		UserID:       rating.UserID,
		Stars:        rating.Stars,
		Created:      created,
		AverageStars: agg.Stars,
		TotalRatings: agg.TotalRatings,
	}

	event, err := pkgkafka.NewEvent(EventRatingSubmitted, rating.ResourceID, AggregateTypeRating, Source, data)
	if err != nil {
		return fmt.Errorf("create rating.submitted event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicRatings, event); err != nil {
		return fmt.Errorf("publish rating.submitted event: %w", err)
	}

	p.logger.DebugContext(ctx, "published rating.submitted event",
		slog.String("rating_id", rating.ID),
		slog.String("resource_id", rating.ResourceID),
		slog.Bool("created", created),
	)

	return nil
}

// PublishRatingDeleted publishes a rating.deleted event.
func (p *Producer) PublishRatingDeleted(ctx context.Context, rating *domain.Rating, agg *domain.ResourceAggregate) error {
	data := RatingDeletedData{
		RatingID:     rating.ID,
		ResourceID:   rating.ResourceID,
		UserID:       rating.UserID,
		AverageStars: agg.Stars,
		TotalRatings: agg.TotalRatings,
	}

	event, err := pkgkafka.NewEvent(EventRatingDeleted, rating.ResourceID, AggregateTypeRating, Source, data)
	if err != nil {
		return fmt.Errorf("create rating.deleted event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicRatings, event); err != nil {
		return fmt.Errorf("publish rating.deleted event: %w", err)
	}

	return nil
}

// PublishResourceCreated publishes a resource.created event.
func (p *Producer) PublishResourceCreated(ctx context.Context, res *domain.Resource) error {
	data := ResourceCreatedData{
		ID:         res.ID,
		Title:      res.Title,
		Slug:       res.Slug,
		Category:   res.Category,
		Subject:    res.Subject,
		UploadedBy: res.UploadedBy,
	}

	event, err := pkgkafka.NewEvent(EventResourceCreated, res.ID, AggregateTypeResource, Source, data)
	if err != nil {
		return fmt.Errorf("create resource.created event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicResources, event); err != nil {
		return fmt.Errorf("publish resource.created event: %w", err)
	}

	return nil
}

// PublishResourceDeactivated publishes a resource.deactivated event.
func (p *Producer) PublishResourceDeactivated(ctx context.Context, resourceID, deactivatedBy string) error {
	data := ResourceDeactivatedData{
		ID:            resourceID,
		DeactivatedBy: deactivatedBy,
	}

	event, err := pkgkafka.NewEvent(EventResourceDeactivated, resourceID, AggregateTypeResource, Source, data)
	if err != nil {
		return fmt.Errorf("create resource.deactivated event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicResources, event); err != nil {
		return fmt.Errorf("publish resource.deactivated event: %w", err)
	}

	return nil
}

// PublishUserRegistered publishes a user.registered event.
func (p *Producer) PublishUserRegistered(ctx context.Context, user *domain.User) error {
	data := UserRegisteredData{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
	}

	event, err := pkgkafka.NewEvent(EventUserRegistered, user.ID, AggregateTypeUser, Source, data)
	if err != nil {
		return fmt.Errorf("create user.registered event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicUsers, event); err != nil {
		return fmt.Errorf("publish user.registered event: %w", err)
	}

	return nil
}
