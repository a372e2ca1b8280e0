// Package paging turns an unrealized query into one page of results plus the
// metadata a table client needs to render a paginator and sort headers.
//
// Sorting is driven by a per-entity allow-list (Fields): a sort column coming
// from a request is only ever resolved to a registered field, so arbitrary
// text never reaches an ORDER BY clause or a comparator.
package paging

import (
	"encoding/json"
)

// Page is a materialized slice of a larger result set. It is built once by
// NewPage or Builder.Build and is read-only afterwards.
type Page[T any] struct {
	items      []T
	pageIndex  int
	pageSize   int
	totalCount int
	totalPages int
	sortColumn string
	sortOrder  Direction
}

// NewPage assembles a page and derives totalPages = ceil(totalCount/pageSize).
// An empty sortColumn means no sort was applied; sortOrder is dropped in that case.
func NewPage[T any](items []T, totalCount, pageIndex, pageSize int, sortColumn string, sortOrder Direction) Page[T] {
	if items == nil {
		items = []T{}
	}
	if sortColumn == "" {
		sortOrder = ""
	}
	return Page[T]{
		items:      items,
		pageIndex:  pageIndex,
		pageSize:   pageSize,
		totalCount: totalCount,
		totalPages: totalPagesFor(totalCount, pageSize),
		sortColumn: sortColumn,
		sortOrder:  sortOrder,
	}
}

func totalPagesFor(totalCount, pageSize int) int {
	if pageSize <= 0 || totalCount <= 0 {
		return 0
	}
	pages := totalCount / pageSize
	if totalCount%pageSize != 0 {
		pages++
	}
	return pages
}

// Items returns the page contents. The slice belongs to the caller.
func (p Page[T]) Items() []T { return p.items }

// PageIndex is the zero-based index of this page.
func (p Page[T]) PageIndex() int { return p.pageIndex }

// PageSize is the requested page size, not the number of items returned.
func (p Page[T]) PageSize() int { return p.pageSize }

// TotalCount is the number of records matched before paging.
func (p Page[T]) TotalCount() int { return p.totalCount }

// TotalPages is ceil(TotalCount/PageSize).
func (p Page[T]) TotalPages() int { return p.totalPages }

// SortColumn is the registered field name the page was ordered by, or "" when unsorted.
func (p Page[T]) SortColumn() string { return p.sortColumn }

// SortOrder is ASC or DESC when the page is sorted, "" otherwise.
func (p Page[T]) SortOrder() Direction { return p.sortOrder }

// Sorted reports whether an ordering was applied.
func (p Page[T]) Sorted() bool { return p.sortColumn != "" }

// HasPreviousPage reports whether a page precedes this one.
func (p Page[T]) HasPreviousPage() bool { return p.pageIndex > 0 }

// HasNextPage reports whether pageIndex+1 < totalPages.
func (p Page[T]) HasNextPage() bool { return p.pageIndex < p.totalPages-1 }

// wirePage is the JSON shape the table client consumes.
type wirePage[T any] struct {
	Data            []T     `json:"data"`
	PageIndex       int     `json:"pageIndex"`
	PageSize        int     `json:"pageSize"`
	TotalCount      int     `json:"totalCount"`
	TotalPages      int     `json:"totalPages"`
	HasPreviousPage bool    `json:"hasPreviousPage"`
	HasNextPage     bool    `json:"hasNextPage"`
	SortColumn      *string `json:"sortColumn"`
	SortOrder       *string `json:"sortOrder"`
}

func (p Page[T]) MarshalJSON() ([]byte, error) {
	w := wirePage[T]{
		Data:            p.items,
		PageIndex:       p.pageIndex,
		PageSize:        p.pageSize,
		TotalCount:      p.totalCount,
		TotalPages:      p.totalPages,
		HasPreviousPage: p.HasPreviousPage(),
		HasNextPage:     p.HasNextPage(),
	}
	if w.Data == nil {
		w.Data = []T{}
	}
	if p.sortColumn != "" {
		col, ord := p.sortColumn, string(p.sortOrder)
		w.SortColumn, w.SortOrder = &col, &ord
	}
	return json.Marshal(w)
}

// UnmarshalJSON rebuilds a page from its wire form. Derived fields are
// recomputed rather than trusted.
func (p *Page[T]) UnmarshalJSON(b []byte) error {
	var w wirePage[T]
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	var col string
	var ord Direction
	if w.SortColumn != nil {
		col = *w.SortColumn
	}
	if w.SortOrder != nil {
		ord = Direction(*w.SortOrder)
	}
	*p = NewPage(w.Data, w.TotalCount, w.PageIndex, w.PageSize, col, ord)
	return nil
}
