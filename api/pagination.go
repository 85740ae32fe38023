package api

import (
	"net/http"
	"strconv"
)

const (
	projectsPerPage = 12
	adminPerPage    = 10
)

type pageMeta struct {
	CurrentPage int   `json:"current_page"`
	LastPage    int   `json:"last_page"`
	PerPage     int   `json:"per_page"`
	From        *int  `json:"from"`
	To          *int  `json:"to"`
	Total       int64 `json:"total"`
}

// paginated is the list envelope shared by every paged endpoint.
type paginated[T any] struct {
	Data []T      `json:"data"`
	Meta pageMeta `json:"meta"`
}

// pageParam reads ?page=, defaulting to 1 for missing or invalid values.
func pageParam(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

func newPaginated[T any](items []T, page, perPage int, total int64) paginated[T] {
	if items == nil {
		items = []T{}
	}

	lastPage := int((total + int64(perPage) - 1) / int64(perPage))
	if lastPage < 1 {
		lastPage = 1
	}

	meta := pageMeta{
		CurrentPage: page,
		LastPage:    lastPage,
		PerPage:     perPage,
		Total:       total,
	}
	if len(items) > 0 {
		from := (page-1)*perPage + 1
		to := from + len(items) - 1
		meta.From = &from
		meta.To = &to
	}

	return paginated[T]{Data: items, Meta: meta}
}
