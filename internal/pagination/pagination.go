// Package pagination implements skip/limit windows over list queries.
package pagination

import (
	"gorm.io/gorm"
)

const (
	DefaultLimit = 100
	MaxLimit     = 100
)

// PageRequest holds the skip/limit window parsed from query strings.
type PageRequest struct {
	Skip  int `form:"skip" binding:"omitempty,min=0"`
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}

// Defaults fills in the limit when it is absent and clamps out-of-range values
// coming from callers that bypass binding.
func (p *PageRequest) Defaults() {
	if p.Skip < 0 {
		p.Skip = 0
	}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
}

// PageResponse wraps one window of a list with its total size.
type PageResponse[T any] struct {
	Data    []T   `json:"data"`
	Skip    int   `json:"skip"`
	Limit   int   `json:"limit"`
	Total   int64 `json:"total"`
	HasMore bool  `json:"has_more"`
}

// NewPageResponse creates a PageResponse from the given data and total count.
func NewPageResponse[T any](data []T, req PageRequest, total int64) PageResponse[T] {
	if data == nil {
		data = []T{}
	}
	return PageResponse[T]{
		Data:    data,
		Skip:    req.Skip,
		Limit:   req.Limit,
		Total:   total,
		HasMore: int64(req.Skip+len(data)) < total,
	}
}

// Paginate returns a GORM scope that applies OFFSET and LIMIT for the given page request.
func Paginate(req PageRequest) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(req.Skip).Limit(req.Limit)
	}
}
