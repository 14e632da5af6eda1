// File: internal/data/filters.go

package data

import (
	"strings"
	"time"

	"github.com/kubryk/vegetables-shop/internal/validator"
)

// ----------------------------------------------------------------------
//
//	Definitions
//
// ----------------------------------------------------------------------

// Filter represents common filtering criteria for querying records.
type Filter struct {
	Page         int64    `json:"page"`
	PageSize     int64    `json:"page_size"`
	SortBy       string   `json:"sort_by"`
	SortSafeList []string `json:"-"`
}

// MetaData contains pagination metadata.
type MetaData struct {
	CurrentPage  int64 `json:"current_page,omitempty"`  // Current page number
	PageSize     int64 `json:"page_size,omitempty"`     // Number of records per page
	FirstPage    int64 `json:"first_page,omitempty"`    // First page number
	LastPage     int64 `json:"last_page,omitempty"`     // Last page number
	TotalRecords int64 `json:"total_records,omitempty"` // Total number of records
}

// DateRange is an inclusive range of calendar days. To always points at the
// last millisecond of the end day so that orders placed late that day match.
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

const dateLayout = "2006-01-02"

// ----------------------------------------------------------------------
//
//	Methods
//
// ----------------------------------------------------------------------

// ValidateFilters checks the validity of the filter parameters.
func ValidateFilters(v *validator.Validator, f Filter) {
	v.Check(f.Page > 0, "page", "must be greater than zero")
	v.Check(f.Page <= 10_000, "page", "must be a maximum of 10000")
	v.Check(f.PageSize > 0, "page_size", "must be greater than zero")
	v.Check(f.PageSize <= 100, "page_size", "must be a maximum of 100")
	v.Check(validator.PermittedValue(f.SortBy, f.SortSafeList...), "sort", "invalid sort value") // Sort must be in the safelist
}

// Limit calculates the SQL LIMIT value based on the page size.
func (f Filter) Limit() int64 {
	return f.PageSize
}

// Offset calculates the SQL OFFSET value based on the current page and page size.
func (f Filter) Offset() int64 {
	return (f.Page - 1) * f.PageSize
}

// SortColumn returns the column name to sort by, removing any leading '-' for descending order.
func (f Filter) SortColumn() string {
	for _, safeValue := range f.SortSafeList {
		if f.SortBy == safeValue {
			return strings.TrimPrefix(f.SortBy, "-") // Remove leading '-' if present
		}
	}
	panic("unsafe sort parameter: " + f.SortBy) // Panic if the sort parameter is not in the safelist
}

// SortDirection returns the sort direction ("ASC" or "DESC") based on the SortBy field.
func (f Filter) SortDirection() string {
	if strings.HasPrefix(f.SortBy, "-") {
		return "DESC"
	}
	return "ASC"
}

// CalculateMetaData computes pagination metadata based on total records, current page, and page size.
func CalculateMetaData(totalRecords, page, pageSize int64) MetaData {
	if totalRecords == 0 {
		return MetaData{}
	}

	lastPage := (totalRecords + pageSize - 1) / pageSize // Calculate last page number

	return MetaData{
		CurrentPage:  page,
		PageSize:     pageSize,
		FirstPage:    1,
		LastPage:     lastPage,
		TotalRecords: totalRecords,
	}
}

// NewDateRange builds an inclusive range from the start of the first day to
// the end of the last day, both in UTC.
func NewDateRange(start, end time.Time) DateRange {
	from := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	to := time.Date(end.Year(), end.Month(), end.Day(), 23, 59, 59, int(999*time.Millisecond), time.UTC)
	return DateRange{From: from, To: to}
}

// ParseDateRange parses two YYYY-MM-DD dates into an inclusive DateRange.
func ParseDateRange(start, end string) (DateRange, error) {
	from, err := time.Parse(dateLayout, start)
	if err != nil {
		return DateRange{}, ErrInvalidDate
	}
	to, err := time.Parse(dateLayout, end)
	if err != nil {
		return DateRange{}, ErrInvalidDate
	}
	if to.Before(from) {
		return DateRange{}, ErrInvalidRange
	}
	return NewDateRange(from, to), nil
}

// LastDays returns the range covering the n days before now plus today.
func LastDays(now time.Time, n int) DateRange {
	return NewDateRange(now.AddDate(0, 0, -n), now)
}

// Contains reports whether t falls inside the range, bounds included.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.From) && !t.After(r.To)
}
