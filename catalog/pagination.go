package catalog

import (
	"strconv"
	"strings"
)

const (
	DefaultPageSize = 9
	MaxPageSize     = 100
)

// Pagination describes where a page sits within the whole listing.
type Pagination struct {
	CurrentPage     int   `json:"currentPage"`
	PageSize        int   `json:"pageSize"`
	TotalCount      int64 `json:"totalCount"`
	HasNextPage     bool  `json:"hasNextPage"`
	HasPreviousPage bool  `json:"hasPreviousPage"`
	NextPage        int   `json:"nextPage"`
	PreviousPage    int   `json:"previousPage"`
	LastPage        int   `json:"lastPage"`
}

// NewPagination computes the navigation fields for page. Out-of-range page
// and pageSize values are normalized first.
func NewPagination(page, pageSize int, totalCount int64) Pagination {
	page = NormalizePage(page)
	pageSize = NormalizePageSize(pageSize)

	lastPage := int((totalCount + int64(pageSize) - 1) / int64(pageSize))

	return Pagination{
		CurrentPage:     page,
		PageSize:        pageSize,
		TotalCount:      totalCount,
		HasNextPage:     int64(page)*int64(pageSize) < totalCount,
		HasPreviousPage: page > 1,
		NextPage:        page + 1,
		PreviousPage:    page - 1,
		LastPage:        lastPage,
	}
}

// ParsePage reads a 1-indexed page number. Anything non-numeric or below 1
// becomes 1.
func ParsePage(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 1
	}
	return NormalizePage(n)
}

func NormalizePage(page int) int {
	if page <= 0 {
		return 1
	}
	return page
}

func NormalizePageSize(size int) int {
	switch {
	case size <= 0:
		return DefaultPageSize
	case size > MaxPageSize:
		return MaxPageSize
	default:
		return size
	}
}

// Offset is the number of items before page.
func Offset(page, pageSize int) int64 {
	return int64(NormalizePage(page)-1) * int64(NormalizePageSize(pageSize))
}
