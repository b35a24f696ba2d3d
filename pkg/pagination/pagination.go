package pagination

import (
	"net/http"
	"strconv"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100

	// MaxOffset caps the row offset so page arithmetic cannot overflow.
	MaxOffset = 1 << 30
)

// Params holds pagination parameters extracted from query strings.
type Params struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
	Offset  int `json:"-"`
}

// DefaultParams returns the first page with the default page size.
func DefaultParams() Params {
	return Params{
		Page:    1,
		PerPage: defaultPerPage,
		Offset:  0,
	}
}

// FromRequest reads page/per_page from the query string. The offset style
// skip/limit pair is accepted as well; when skip is present it overrides page.
func FromRequest(r *http.Request) Params {
	p := DefaultParams()
	q := r.URL.Query()

	if v, ok := positive(q.Get("per_page")); ok && v <= maxPerPage {
		p.PerPage = v
	} else if v, ok := positive(q.Get("limit")); ok && v <= maxPerPage {
		p.PerPage = v
	}

	if v, ok := positive(q.Get("page")); ok {
		p.Page = min(v, MaxOffset/p.PerPage+1)
	}
	p.Offset = (p.Page - 1) * p.PerPage

	if skip := q.Get("skip"); skip != "" {
		if v, err := strconv.Atoi(skip); err == nil && v >= 0 {
			v = min(v, MaxOffset)
			p.Offset = v
			p.Page = v/p.PerPage + 1
		}
	}

	return p
}

func positive(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.Atoi(s)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

// Result wraps a paginated response.
type Result[T any] struct {
	Data       []T  `json:"data"`
	TotalCount int  `json:"total_count"`
	Page       int  `json:"page"`
	PerPage    int  `json:"per_page"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

// NewResult creates a paginated result. A nil slice is rendered as [].
func NewResult[T any](data []T, totalCount int, params Params) Result[T] {
	totalPages := totalCount / params.PerPage
	if totalCount%params.PerPage > 0 {
		totalPages++
	}
	if data == nil {
		data = []T{}
	}

	return Result[T]{
		Data:       data,
		TotalCount: totalCount,
		Page:       params.Page,
		PerPage:    params.PerPage,
		TotalPages: totalPages,
		HasNext:    params.Page < totalPages,
		HasPrev:    params.Page > 1,
	}
}
