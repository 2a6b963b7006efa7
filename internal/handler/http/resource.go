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

// ResourceHandler handles HTTP requests for study resource endpoints.
type ResourceHandler struct {
	service *service.ResourceService
	logger  *slog.Logger
}

// NewResourceHandler creates a new resource HTTP handler.
func NewResourceHandler(svc *service.ResourceService, logger *slog.Logger) *ResourceHandler {
	return &ResourceHandler{
		service: svc,
		logger:  logger,
	}
}

// CreateResourceRequest is the JSON request body for publishing a resource.
type CreateResourceRequest struct {
	Title       string `json:"title" validate:"required,min=3,max=200"`
	Description string `json:"description" validate:"max=2000"`
	Category    string `json:"category" validate:"required,oneof=notes past-paper assignment book syllabus other"`
	Subject     string `json:"subject" validate:"required,min=2,max=100"`
	FileURL     string `json:"file_url" validate:"required,url"`
	FileName    string `json:"file_name" validate:"required"`
	FileSize    int64  `json:"file_size" validate:"gte=0"`
	FileType    string `json:"file_type"`
}

// resourcePagination is the pagination block on resource listings.
type resourcePagination struct {
	pagination.Meta
	TotalResources int `json:"totalResources"`
}

// resourceListResponse is the paginated resource listing payload.
type resourceListResponse struct {
	Resources  []domain.Resource  `json:"resources"`
	Pagination resourcePagination `json:"pagination"`
}

// downloadResponse carries the file URL and the updated download count.
type downloadResponse struct {
	FileURL   string `json:"file_url"`
	Downloads int    `json:"downloads"`
}

// Create handles POST /api/v1/resources
func (h *ResourceHandler) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req CreateResourceRequest
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

	resource, err := h.service.CreateResource(r.Context(), &service.CreateResourceInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Subject:     req.Subject,
		FileURL:     req.FileURL,
		FileName:    req.FileName,
		FileSize:    req.FileSize,
		FileType:    req.FileType,
		UploadedBy:  middleware.UserIDFromContext(r.Context()),
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: resource})
}

// List handles GET /api/v1/resources
func (h *ResourceHandler) List(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)
	q := r.URL.Query()

	resources, total, err := h.service.ListResources(r.Context(), &service.ListResourcesInput{
		Category:   q.Get("category"),
		Search:     q.Get("search"),
		UploadedBy: q.Get("uploaded_by"),
		Page:       params.Page,
		PageSize:   params.Limit,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: resourceListResponse{
		Resources: resources,
		Pagination: resourcePagination{
			Meta:           pagination.NewMeta(total, params),
			TotalResources: total,
		},
	}})
}

// Get handles GET /api/v1/resources/{id}
func (h *ResourceHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	resource, err := h.service.GetResource(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: resource})
}

// Download handles POST /api/v1/resources/{id}/download
func (h *ResourceHandler) Download(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	fileURL, downloads, err := h.service.DownloadResource(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: downloadResponse{
		FileURL:   fileURL,
		Downloads: downloads,
	}})
}

// Delete handles DELETE /api/v1/resources/{id}
func (h *ResourceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	ctx := r.Context()

	err := h.service.DeactivateResource(ctx, id.String(), middleware.UserIDFromContext(ctx), middleware.RoleFromContext(ctx))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
