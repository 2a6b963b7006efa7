package pagination

import (
	"net/http"
	"strconv"
)

const (
	// DefaultLimit is the page size used when the request does not specify one.
	DefaultLimit = 10
	// MaxLimit caps the page size a client may request.
	MaxLimit = 100
)

// Params holds pagination parameters extracted from query strings.
type Params struct {
	Page   int `json:"page"`
	Limit  int `json:"limit"`
	Offset int `json:"-"`
}

// DefaultParams returns sensible pagination defaults.
func DefaultParams() Params {
	return Params{
		Page:   1,
		Limit:  DefaultLimit,
		Offset: 0,
	}
}

// FromRequest extracts `page` and `limit` query parameters from an HTTP
// request. Invalid or out-of-range values fall back to the defaults.
func FromRequest(r *http.Request) Params {
	p := DefaultParams()

	if page := r.URL.Query().Get("page"); page != "" {
		if v, err := strconv.Atoi(page); err == nil && v > 0 {
			p.Page = v
		}
	}

	if limit := r.URL.Query().Get("limit"); limit != "" {
		if v, err := strconv.Atoi(limit); err == nil && v > 0 && v <= MaxLimit {
			p.Limit = v
		}
	}

	p.Offset = (p.Page - 1) * p.Limit
	return p
}

// Meta is the pagination metadata attached to list responses. TotalCount is
// exported for callers but kept out of JSON so response structs can embed Meta
// and expose the count under a domain-specific key (totalRatings,
// totalResources).
type Meta struct {
	CurrentPage int  `json:"currentPage"`
	TotalPages  int  `json:"totalPages"`
	TotalCount  int  `json:"-"`
	HasNext     bool `json:"hasNext"`
	HasPrev     bool `json:"hasPrev"`
}

// NewMeta computes pagination metadata from a total document count and the
// request's pagination parameters.
func NewMeta(totalCount int, params Params) Meta {
	totalPages := totalCount / params.Limit
	if totalCount%params.Limit > 0 {
		totalPages++
	}

	return Meta{
		CurrentPage: params.Page,
		TotalPages:  totalPages,
		TotalCount:  totalCount,
		HasNext:     params.Page < totalPages,
		HasPrev:     params.Page > 1,
	}
}
