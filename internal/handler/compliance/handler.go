package compliance

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/backoffice-api/internal/handler"
	"github.com/jwalitptl/backoffice-api/internal/model"
	"github.com/jwalitptl/backoffice-api/internal/service/compliance"
	apperrors "github.com/jwalitptl/backoffice-api/pkg/errors"
	"github.com/jwalitptl/backoffice-api/pkg/httputil"
	"github.com/jwalitptl/backoffice-api/pkg/validator"
)

type Handler struct {
	service *compliance.Service
	resp    *httputil.Responder
}

func NewHandler(service *compliance.Service, resp *httputil.Responder) *Handler {
	return &Handler{service: service, resp: resp}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	g := r.Group("/compliance")
	{
		g.GET("/flags", h.ListFlags)
		g.POST("/flags", h.CreateFlag)
		g.PUT("/flags/:id/resolve", h.ResolveFlag)
		g.GET("/stats", h.Stats)
	}
}

type createFlagRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Category    string `json:"category" binding:"required"`
	Severity    string `json:"severity" binding:"required,oneof=low medium high critical"`
	EntityType  string `json:"entityType"`
	EntityID    string `json:"entityId"`
}

type resolveFlagRequest struct {
	Resolution string `json:"resolution" binding:"required"`
}

func (h *Handler) ListFlags(c *gin.Context) {
	f := compliance.FlagFilter{
		Status:   c.Query("status"),
		Severity: c.Query("severity"),
		Category: c.Query("category"),
	}
	page, err := h.service.ListFlags(c.Request.Context(), f, handler.Page(c, handler.LimitSmall))
	if err != nil {
		h.resp.Fail(c, err, "GET_COMPLIANCE_FLAGS_FAILED", "failed to fetch compliance flags")
		return
	}
	h.resp.Paginated(c, page.Items, page.Pagination, page.Total)
}

func (h *Handler) CreateFlag(c *gin.Context) {
	var req createFlagRequest
	if err := validator.BindJSON(c, &req, apperrors.CodeMissingFields); err != nil {
		h.resp.Error(c, err)
		return
	}
	flag := &model.ComplianceFlag{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Severity:    req.Severity,
		EntityType:  req.EntityType,
		EntityID:    req.EntityID,
		ReportedBy:  handler.Actor(c),
	}
	if err := h.service.CreateFlag(c.Request.Context(), flag); err != nil {
		h.resp.Fail(c, err, "CREATE_COMPLIANCE_FLAG_FAILED", "failed to create compliance flag")
		return
	}
	h.resp.Created(c, "Compliance flag created", flag)
}

func (h *Handler) ResolveFlag(c *gin.Context) {
	var req resolveFlagRequest
	if err := validator.BindJSON(c, &req, apperrors.CodeMissingFields); err != nil {
		h.resp.Error(c, err)
		return
	}
	flag, err := h.service.ResolveFlag(c.Request.Context(), c.Param("id"), req.Resolution, handler.Actor(c))
	if err != nil {
		h.resp.Fail(c, err, "RESOLVE_COMPLIANCE_FLAG_FAILED", "failed to resolve compliance flag")
		return
	}
	h.resp.Message(c, "Compliance flag resolved", flag)
}

func (h *Handler) Stats(c *gin.Context) {
	out, err := h.service.Stats(c.Request.Context())
	if err != nil {
		h.resp.Fail(c, err, "GET_COMPLIANCE_STATS_FAILED", "failed to fetch compliance stats")
		return
	}
	h.resp.OK(c, out)
}
