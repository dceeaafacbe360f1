package httputil

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/backoffice-api/pkg/errors"
	"github.com/jwalitptl/backoffice-api/pkg/query"
)

// Response wraps all API responses
type Response struct {
	Success    bool        `json:"success"`
	Data       interface{} `json:"data,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
	Message    string      `json:"message,omitempty"`
	Error      string      `json:"error,omitempty"`
	Detail     string      `json:"detail,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
}

// Pagination represents pagination metadata
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

// Responder writes response envelopes. Error details are only rendered when
// exposeDetails is set.
type Responder struct {
	exposeDetails bool
	now           func() time.Time
}

func NewResponder(exposeDetails bool) *Responder {
	return &Responder{exposeDetails: exposeDetails, now: time.Now}
}

func (r *Responder) envelope() Response {
	return Response{Success: true, Timestamp: r.now().UTC()}
}

// OK sends a 200 with data.
func (r *Responder) OK(c *gin.Context, data interface{}) {
	resp := r.envelope()
	resp.Data = data
	c.JSON(http.StatusOK, resp)
}

// Message sends a 200 with data and a human readable message.
func (r *Responder) Message(c *gin.Context, message string, data interface{}) {
	resp := r.envelope()
	resp.Data = data
	resp.Message = message
	c.JSON(http.StatusOK, resp)
}

// Created sends a 201 with the created resource.
func (r *Responder) Created(c *gin.Context, message string, data interface{}) {
	resp := r.envelope()
	resp.Data = data
	resp.Message = message
	c.JSON(http.StatusCreated, resp)
}

// Paginated sends one page of items with its pagination block.
func (r *Responder) Paginated(c *gin.Context, items interface{}, page query.Pagination, total int64) {
	resp := r.envelope()
	resp.Data = items
	resp.Pagination = &Pagination{
		Page:  page.Page,
		Limit: page.Limit,
		Total: total,
		Pages: page.Pages(total),
	}
	c.JSON(http.StatusOK, resp)
}

// Error maps err onto an error envelope. Anything that is not an AppError
// is reported as an internal error.
func (r *Responder) Error(c *gin.Context, err error) {
	appErr, ok := errors.As(err)
	if !ok {
		appErr = errors.Internal(err)
	}
	status := appErr.StatusCode()

	if status >= http.StatusInternalServerError {
		log.Ctx(c.Request.Context()).Error().
			Err(err).
			Str("code", appErr.Code).
			Str("path", c.FullPath()).
			Msg(appErr.Message)
	}
	_ = c.Error(err)

	resp := Response{
		Success:   false,
		Message:   appErr.Message,
		Error:     appErr.Code,
		Timestamp: r.now().UTC(),
	}
	if r.exposeDetails {
		resp.Detail = appErr.Detail()
	}
	c.AbortWithStatusJSON(status, resp)
}

// Fail relabels a store failure with an endpoint code before responding.
func (r *Responder) Fail(c *gin.Context, err error, code, message string) {
	r.Error(c, errors.WithCode(err, code, message))
}
