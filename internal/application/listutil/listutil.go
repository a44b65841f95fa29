package listutil

import (
	"slices"
	"strconv"
)

// DefaultPageSize is used when a requested size is not one of PageSizes.
const DefaultPageSize = 25

// PageSizes are the allowed rows-per-page values.
var PageSizes = []int{10, 25, 50, 100}

// NormalizePage parses a 1-based page number; anything non-positive or
// unparseable becomes 1.
func NormalizePage(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// NormalizeSize returns size when it is an allowed page size, otherwise DefaultPageSize.
func NormalizeSize(size int) int {
	if slices.Contains(PageSizes, size) {
		return size
	}
	return DefaultPageSize
}

// PageInfo carries pagination metadata for rendering.
// INVARIANT: TotalPages == ceil(Total / Size); 1 <= Page; Page <= TotalPages when TotalPages > 0
type PageInfo struct {
	Page       int
	Size       int
	Total      int
	TotalPages int
}

// NewPageInfo computes pagination metadata, clamping page into range.
// PRE: total >= 0
// POST: Size is an allowed page size; Page is clamped to [1, max(TotalPages, 1)]
func NewPageInfo(page, size, total int) PageInfo {
	size = NormalizeSize(size)
	if total < 0 {
		total = 0
	}
	totalPages := TotalPages(total, size)
	if totalPages > 0 && page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}
	return PageInfo{Page: page, Size: size, Total: total, TotalPages: totalPages}
}

// TotalPages is ceil(total / size); zero rows means zero pages.
// PRE: size > 0
func TotalPages(total, size int) int {
	if total <= 0 {
		return 0
	}
	return (total + size - 1) / size
}

// Offset returns the row offset of the current page.
func (p PageInfo) Offset() int {
	return (p.Page - 1) * p.Size
}

// StartRow returns the 1-based first row on the page, or 0 when empty.
func (p PageInfo) StartRow() int {
	if p.Total == 0 {
		return 0
	}
	return p.Offset() + 1
}

// EndRow returns the 1-based last row on the page.
func (p PageInfo) EndRow() int {
	return min(p.Offset()+p.Size, p.Total)
}

// HasPrev reports whether a previous page exists.
func (p PageInfo) HasPrev() bool {
	return p.Page > 1
}

// HasNext reports whether a following page exists.
func (p PageInfo) HasNext() bool {
	return p.Page < p.TotalPages
}

// PageNumbers returns at most five page numbers centred on the current page.
func (p PageInfo) PageNumbers() []int {
	const maxButtons = 5
	if p.TotalPages == 0 {
		return nil
	}
	start := max(p.Page-maxButtons/2, 1)
	end := start + maxButtons - 1
	if end > p.TotalPages {
		end = p.TotalPages
		start = max(end-maxButtons+1, 1)
	}
	pages := make([]int, 0, end-start+1)
	for i := start; i <= end; i++ {
		pages = append(pages, i)
	}
	return pages
}

// ShowPagination reports whether there is more than one page.
func (p PageInfo) ShowPagination() bool {
	return p.TotalPages > 1
}
