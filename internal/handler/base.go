package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/backoffice-api/internal/middleware"
	"github.com/jwalitptl/backoffice-api/internal/repository"
	apperrors "github.com/jwalitptl/backoffice-api/pkg/errors"
	"github.com/jwalitptl/backoffice-api/pkg/query"
)

// Default page sizes of the list endpoints.
const (
	LimitSmall = 20
	LimitLarge = 50
)

// DefaultPeriod is the look-back window of analytics endpoints.
const DefaultPeriod = 30 * 24 * time.Hour

// Page reads page and limit from the query string.
func Page(c *gin.Context, defaultLimit int) query.Pagination {
	return query.Paginate(c.Query("page"), c.Query("limit"), defaultLimit)
}

// ListOptions reads the status, date range and page shared by the owner
// queries.
func ListOptions(c *gin.Context, defaultLimit int) repository.ListOptions {
	return repository.ListOptions{
		Status:    c.Query("status"),
		StartDate: c.Query("startDate"),
		EndDate:   c.Query("endDate"),
		Page:      Page(c, defaultLimit),
	}
}

// Period reads the period query parameter. The raw value is returned with the
// duration so it can be echoed back.
func Period(c *gin.Context) (string, time.Duration, error) {
	raw := c.DefaultQuery("period", "30d")
	d, err := query.ParsePeriod(raw, DefaultPeriod)
	if err != nil {
		return "", 0, apperrors.Validation(apperrors.CodeInvalidPeriod, err.Error(), err)
	}
	return raw, d, nil
}

// Sort reads the sort query parameter against the allowed fields.
func Sort(c *gin.Context, fallback query.Sort, allowed ...string) (query.Sort, error) {
	s, err := query.ParseSort(c.Query("sort"), fallback, allowed...)
	if err != nil {
		return query.Sort{}, apperrors.Validation(apperrors.CodeInvalidSort, err.Error(), err)
	}
	return s, nil
}

// Actor returns the caller's user id, or "" outside an authenticated route.
func Actor(c *gin.Context) string {
	if user, ok := middleware.CurrentUser(c); ok {
		return user.ID
	}
	return ""
}
