// Package pagination parses page/page_size query parameters and does the
// offset and page-count arithmetic shared by every listing.
package pagination

import (
	"strconv"
	"strings"

	"github.com/devops-offer/offer/internal/validation"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 9
	MaxPageSize     = 50
)

// Params is a validated page request.
type Params struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// Default returns the (1, 9) pair.
func Default() Params {
	return Params{Page: DefaultPage, PageSize: DefaultPageSize}
}

// Parse coerces raw query values. Values that are absent or not integers take
// the defaults; a page below 1 or a page size outside 1..50 is a validation
// error.
func Parse(rawPage, rawPageSize string) (Params, error) {
	p := Params{
		Page:     coerce(rawPage, DefaultPage),
		PageSize: coerce(rawPageSize, DefaultPageSize),
	}
	return p, p.Validate()
}

// ParseOrDefault is Parse that falls back to the default pair instead of
// failing. UI pages use it so a bad link still renders the first page.
func ParseOrDefault(rawPage, rawPageSize string) Params {
	p, err := Parse(rawPage, rawPageSize)
	if err != nil {
		return Default()
	}
	return p
}

// Validate checks the page bounds.
func (p Params) Validate() error {
	errs := validation.Errors{}
	if p.Page <= 0 {
		errs.Add("page", "Page must be greater than or equal to 1.")
	}
	if p.PageSize <= 0 {
		errs.Add("page_size", "Page size must be greater than or equal to 1.")
	} else if p.PageSize > MaxPageSize {
		errs.Add("page_size", "Page size must be less than or equal to 50.")
	}
	return errs.Err()
}

// Offset is the number of rows to skip.
func (p Params) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Limit is the page size.
func (p Params) Limit() int {
	return p.PageSize
}

// TotalPages returns ceil(total/pageSize), 0 when total is 0.
func TotalPages(total int64, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	size := int64(pageSize)
	return int((total + size - 1) / size)
}

func coerce(raw string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return def
	}
	return n
}
