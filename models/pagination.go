package models

import (
	"strconv"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 200
)

// PageParams is the page/limit pair every list endpoint accepts.
type PageParams struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// NewPageParams clamps raw query values into a usable range.
func NewPageParams(pageStr string, limitStr string) PageParams {
	page, err := strconv.Atoi(pageStr)
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return PageParams{Page: page, Limit: limit}
}

func (p PageParams) Offset() int {
	return (p.Page - 1) * p.Limit
}

type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

// Paginated is the list envelope the dashboard consumes:
// {data, pagination:{page, limit, total, pages}}.
type Paginated[T any] struct {
	Data       []*T       `json:"data"`
	Pagination Pagination `json:"pagination"`
}

func NewPaginated[T any](data []*T, params PageParams, total int64) *Paginated[T] {
	pages := int(total) / params.Limit
	if int(total)%params.Limit > 0 {
		pages++
	}
	if data == nil {
		data = []*T{}
	}
	return &Paginated[T]{
		Data: data,
		Pagination: Pagination{
			Page:  params.Page,
			Limit: params.Limit,
			Total: total,
			Pages: pages,
		},
	}
}
