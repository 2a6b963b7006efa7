package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kaustubh7916/Examprepshare/internal/domain"
	"github.com/kaustubh7916/Examprepshare/internal/service"
	"github.com/kaustubh7916/Examprepshare/pkg/httputil"
	"github.com/kaustubh7916/Examprepshare/pkg/middleware"
	"github.com/kaustubh7916/Examprepshare/pkg/pagination"
	"github.com/kaustubh7916/Examprepshare/pkg/validator"
)

// RatingHandler handles HTTP requests for rating endpoints.
type RatingHandler struct {
	service *service.RatingService
	logger  *slog.Logger
}

// NewRatingHandler creates a new rating HTTP handler.
func NewRatingHandler(svc *service.RatingService, logger *slog.Logger) *RatingHandler {
	return &RatingHandler{
		service: svc,
		logger:  logger,
	}
}

// SubmitRatingRequest is the JSON request body for submitting a rating. A
// request for a resource the caller has already rated replaces the earlier
// rating; omitting review keeps the stored review text.
type SubmitRatingRequest struct {
	ResourceID string  `json:"resource_id" validate:"required,uuid"`
	Stars      int     `json:"stars" validate:"required,min=1,max=5"`
	Review     *string `json:"review" validate:"omitempty,max=500"`
}

// SubmitRatingResponse wraps the stored rating with whether it was newly created.
type SubmitRatingResponse struct {
	Message string         `json:"message"`
	Rating  *domain.Rating `json:"rating"`
	Created bool           `json:"created"`
}

// messageResponse is a bare confirmation body.
type messageResponse struct {
	Message string `json:"message"`
}

// ratingPagination is the pagination block on rating listings.
type ratingPagination struct {
	pagination.Meta
	TotalRatings int `json:"totalRatings"`
}

// ratingListResponse is the paginated rating listing payload.
type ratingListResponse struct {
	Ratings    []domain.Rating  `json:"ratings"`
	Pagination ratingPagination `json:"pagination"`
}

// Submit handles POST /api/v1/ratings
func (h *RatingHandler) Submit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req SubmitRatingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	rating, created, err := h.service.SubmitRating(r.Context(), &service.SubmitRatingInput{
		ResourceID: req.ResourceID,
		UserID:     middleware.UserIDFromContext(r.Context()),
		Stars:      req.Stars,
		Review:     req.Review,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	msg := "rating updated successfully"
	if created {
		msg = "rating submitted successfully"
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: SubmitRatingResponse{Message: msg, Rating: rating, Created: created}})
}

// ListByResource handles GET /api/v1/ratings/resource/{resourceId}
func (h *RatingHandler) ListByResource(w http.ResponseWriter, r *http.Request) {
	resourceID, ok := httputil.ParseUUID(w, chi.URLParam(r, "resourceId"))
	if !ok {
		return
	}
	params := pagination.FromRequest(r)

	ratings, total, err := h.service.ListRatingsByResource(r.Context(), resourceID.String(), params.Limit, params.Offset)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: ratingListResponse{
		Ratings: ratings,
		Pagination: ratingPagination{
			Meta:         pagination.NewMeta(total, params),
			TotalRatings: total,
		},
	}})
}

// ListByUser handles GET /api/v1/ratings/user/{userId}
func (h *RatingHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := httputil.ParseUUID(w, chi.URLParam(r, "userId"))
	if !ok {
		return
	}
	params := pagination.FromRequest(r)

	ratings, total, err := h.service.ListRatingsByUser(r.Context(), userID.String(), params.Limit, params.Offset)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: ratingListResponse{
		Ratings: ratings,
		Pagination: ratingPagination{
			Meta:         pagination.NewMeta(total, params),
			TotalRatings: total,
		},
	}})
}

// MyRatings handles GET /api/v1/ratings/my-ratings
func (h *RatingHandler) MyRatings(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	params := pagination.FromRequest(r)

	ratings, total, err := h.service.ListRatingsByUser(r.Context(), userID, params.Limit, params.Offset)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: ratingListResponse{
		Ratings: ratings,
		Pagination: ratingPagination{
			Meta:         pagination.NewMeta(total, params),
			TotalRatings: total,
		},
	}})
}

// Delete handles DELETE /api/v1/ratings/{ratingId}
func (h *RatingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ratingID, ok := httputil.ParseUUID(w, chi.URLParam(r, "ratingId"))
	if !ok {
		return
	}

	if err := h.service.DeleteRating(r.Context(), ratingID.String(), middleware.UserIDFromContext(r.Context())); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: messageResponse{Message: "rating deleted successfully"}})
}

// Stats handles GET /api/v1/ratings/stats/{resourceId}
func (h *RatingHandler) Stats(w http.ResponseWriter, r *http.Request) {
	resourceID, ok := httputil.ParseUUID(w, chi.URLParam(r, "resourceId"))
	if !ok {
		return
	}

	stats, err := h.service.GetResourceStats(r.Context(), resourceID.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: stats})
}
