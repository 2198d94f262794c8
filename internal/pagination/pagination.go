// Package pagination pages through per-user listings such as the audit trail.
package pagination

import "gorm.io/gorm"

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PageRequest holds the page and page_size query parameters.
type PageRequest struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// Normalize returns a copy with unset values defaulted and page_size capped.
func (p PageRequest) Normalize() PageRequest {
	if p.Page < 1 {
		p.Page = 1
	}
	switch {
	case p.PageSize < 1:
		p.PageSize = DefaultPageSize
	case p.PageSize > MaxPageSize:
		p.PageSize = MaxPageSize
	}
	return p
}

// Offset is the number of rows skipped before this page.
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Scope limits a query to the rows of this page.
func (p PageRequest) Scope(db *gorm.DB) *gorm.DB {
	return db.Offset(p.Offset()).Limit(p.PageSize)
}

// PageResponse is one page of items plus totals for the whole listing.
type PageResponse[T any] struct {
	Data       []T   `json:"data"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

// NewPage builds the response for req. Data is never nil so it renders as [].
func NewPage[T any](data []T, req PageRequest, totalItems int64) PageResponse[T] {
	if data == nil {
		data = []T{}
	}
	pages := 0
	if req.PageSize > 0 {
		pages = int((totalItems + int64(req.PageSize) - 1) / int64(req.PageSize))
	}
	return PageResponse[T]{
		Data:       data,
		Page:       req.Page,
		PageSize:   req.PageSize,
		TotalItems: totalItems,
		TotalPages: pages,
	}
}

// HasNext reports whether pages follow this one.
func (r PageResponse[T]) HasNext() bool {
	return r.Page < r.TotalPages
}
