package domain

import "time"

// Resource categories.
const (
	CategoryNotes      = "notes"
	CategoryPastPaper  = "past-paper"
	CategoryAssignment = "assignment"
	CategoryBook       = "book"
	CategorySyllabus   = "syllabus"
	CategoryOther      = "other"
)

// validCategories is the fixed set of allowed resource categories.
var validCategories = map[string]bool{
	CategoryNotes:      true,
	CategoryPastPaper:  true,
	CategoryAssignment: true,
	CategoryBook:       true,
	CategorySyllabus:   true,
	CategoryOther:      true,
}

// ValidCategory reports whether the given category is one of the allowed set.
func ValidCategory(category string) bool {
	return validCategories[category]
}

// Categories returns the allowed resource categories in a stable order.
func Categories() []string {
	return []string{
		CategoryNotes,
		CategoryPastPaper,
		CategoryAssignment,
		CategoryBook,
		CategorySyllabus,
		CategoryOther,
	}
}

// Resource is a shared study resource. The file itself lives in external blob
// storage; only its metadata and URL are stored here.
//
// Stars and TotalRatings are denormalized rating aggregates. They are written
// exclusively by the rating aggregate recomputation; no other code path may
// update them.
type Resource struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Slug         string    `json:"slug"`
	Description  string    `json:"description"`
	Category     string    `json:"category"`
	Subject      string    `json:"subject"`
	FileURL      string    `json:"file_url"`
	FileName     string    `json:"file_name"`
	FileSize     int64     `json:"file_size"`
	FileType     string    `json:"file_type"`
	UploadedBy   string    `json:"uploaded_by"`
	Stars        float64   `json:"stars"`
	TotalRatings int       `json:"total_ratings"`
	Downloads    int       `json:"downloads"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
