package query

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Pagination is the page window of a list request.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Skip  int64 `json:"-"`
}

// Paginate parses raw page and limit values. Anything that is not a positive
// integer falls back to page 1 and defaultLimit, and so does a page whose
// offset does not fit in an int64.
func Paginate(page, limit string, defaultLimit int) Pagination {
	if defaultLimit <= 0 {
		defaultLimit = DefaultLimit
	}
	p := parsePositive(page, DefaultPage)
	l := parsePositive(limit, defaultLimit)
	if l > MaxLimit {
		l = MaxLimit
	}
	if int64(p-1) > math.MaxInt64/int64(l) {
		p = DefaultPage
	}
	return Pagination{
		Page:  p,
		Limit: l,
		Skip:  int64(p-1) * int64(l),
	}
}

// Pages returns the total page count for total matching records.
func (p Pagination) Pages(total int64) int {
	return TotalPages(total, p.Limit)
}

// TotalPages is ceil(total/limit). A non-positive limit uses DefaultLimit.
func TotalPages(total int64, limit int) int {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if total <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}

func parsePositive(raw string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

// Sort is a single-field ordering.
type Sort struct {
	Field string
	Desc  bool
}

// Desc orders by field, newest or largest first.
func Desc(field string) Sort {
	return Sort{Field: field, Desc: true}
}

// Asc orders by field, oldest or smallest first.
func Asc(field string) Sort {
	return Sort{Field: field}
}

// BSON renders the sort as a driver sort document.
func (s Sort) BSON() bson.D {
	if s.Field == "" {
		return nil
	}
	dir := 1
	if s.Desc {
		dir = -1
	}
	return bson.D{{Key: s.Field, Value: dir}}
}

// ParseSort reads "field" or "-field". An empty value yields fallback; a field
// outside allowed is rejected.
func ParseSort(raw string, fallback Sort, allowed ...string) (Sort, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	s := Sort{Field: raw}
	if strings.HasPrefix(raw, "-") {
		s = Sort{Field: raw[1:], Desc: true}
	}
	if s.Field == fallback.Field {
		return s, nil
	}
	for _, f := range allowed {
		if f == s.Field {
			return s, nil
		}
	}
	return Sort{}, fmt.Errorf("unsupported sort field %q", s.Field)
}
