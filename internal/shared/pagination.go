package shared

import "math"

// Pagination is the metadata block attached to paginated listings.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// NewPagination derives page metadata from a limit/offset listing.
func NewPagination(limit, offset, total int) Pagination {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	totalPages := int(math.Ceil(float64(total) / float64(limit)))
	return Pagination{
		Page:       offset/limit + 1,
		PerPage:    limit,
		Total:      total,
		TotalPages: totalPages,
	}
}
