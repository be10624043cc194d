package query

import (
	"context"
	"math"

	"user-service/internal/apperror"
	"user-service/internal/model"
)

// Sort directions as accepted on the wire
const (
	Ascending  = 1
	Descending = -1
)

// Window holds the raw paging parameters of a request
type Window struct {
	Page   int
	Limit  int
	Sort   int
	SortBy string
}

// Paging echoes the window that was actually applied
type Paging struct {
	Limit  int    `json:"limit"`
	Page   int    `json:"page"`
	Sort   int    `json:"sort"`
	SortBy string `json:"sortBy"`
	Total  int64  `json:"total"`
}

// FindOptions is what the engine asks of the store
type FindOptions struct {
	Filter     Filter
	Skip       int
	Limit      int
	SortField  *Field
	Descending bool
}

// Finder is the read side of the user store
type Finder interface {
	Find(ctx context.Context, opts FindOptions) ([]model.User, error)
	Count(ctx context.Context, filter Filter) (int64, error)
}

// Engine applies windowing and sorting on top of a Filter
type Engine struct {
	finder   Finder
	maxLimit int
}

// NewEngine creates an engine. maxLimit <= 0 disables the upper bound.
func NewEngine(finder Finder, maxLimit int) *Engine {
	return &Engine{finder: finder, maxLimit: maxLimit}
}

// DefaultWindow returns the window used when the caller sets nothing
func DefaultWindow(limit int) Window {
	return Window{Page: 1, Limit: limit, Sort: Descending, SortBy: DefaultSortField}
}

// Normalize validates w and resolves its sort field. Unknown sort fields fall
// back to DefaultSortField.
func (e *Engine) Normalize(w Window) (Window, *Field, error) {
	if w.Limit <= 0 {
		return w, nil, apperror.Validation("limit", "must be greater than 0, got %d", w.Limit)
	}
	if e.maxLimit > 0 && w.Limit > e.maxLimit {
		return w, nil, apperror.Validation("limit", "must not exceed %d, got %d", e.maxLimit, w.Limit)
	}
	if w.Page < 1 {
		return w, nil, apperror.Validation("page", "must be at least 1, got %d", w.Page)
	}
	if w.Sort != Ascending && w.Sort != Descending {
		return w, nil, apperror.Validation("sort", "must be 1 or -1, got %d", w.Sort)
	}

	field, ok := Lookup(w.SortBy)
	if !ok {
		field, _ = Lookup(DefaultSortField)
		w.SortBy = DefaultSortField
	}
	return w, field, nil
}

// Execute returns the requested page of active users matching filter
func (e *Engine) Execute(ctx context.Context, filter Filter, w Window) ([]model.User, Paging, error) {
	w, field, err := e.Normalize(w)
	if err != nil {
		return nil, Paging{}, err
	}

	paging := Paging{Limit: w.Limit, Page: w.Page, Sort: w.Sort, SortBy: w.SortBy}

	total, err := e.finder.Count(ctx, filter)
	if err != nil {
		return nil, Paging{}, apperror.Store("count", err)
	}
	paging.Total = total

	// a page this far out cannot hold anything, and its offset would overflow
	if w.Page-1 > math.MaxInt/w.Limit {
		return []model.User{}, paging, nil
	}
	skip := (w.Page - 1) * w.Limit
	if int64(skip) >= total {
		return []model.User{}, paging, nil
	}

	users, err := e.finder.Find(ctx, FindOptions{
		Filter:     filter,
		Skip:       skip,
		Limit:      w.Limit,
		SortField:  field,
		Descending: w.Sort == Descending,
	})
	if err != nil {
		return nil, Paging{}, apperror.Store("find", err)
	}
	if users == nil {
		users = []model.User{}
	}
	return users, paging, nil
}
