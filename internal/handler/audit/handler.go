package audit

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/backoffice-api/internal/handler"
	"github.com/jwalitptl/backoffice-api/internal/model"
	"github.com/jwalitptl/backoffice-api/internal/service/audit"
	apperrors "github.com/jwalitptl/backoffice-api/pkg/errors"
	"github.com/jwalitptl/backoffice-api/pkg/httputil"
	"github.com/jwalitptl/backoffice-api/pkg/query"
	"github.com/jwalitptl/backoffice-api/pkg/validator"
)

// exportLimit bounds a single export.
const exportLimit = 10000

type Handler struct {
	service *audit.Service
	resp    *httputil.Responder
}

func NewHandler(service *audit.Service, resp *httputil.Responder) *Handler {
	return &Handler{service: service, resp: resp}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	a := r.Group("/audit")
	{
		a.GET("/logs", h.ListLogs)
		a.GET("/logs/:id", h.GetLog)
		a.POST("/logs", h.CreateLog)
		a.GET("/export", h.ExportLogs)
		a.GET("/security-events", h.ListSecurityEvents)
		a.POST("/security-events", h.CreateSecurityEvent)
		a.GET("/user-activities", h.ListUserActivities)
		a.GET("/user-activity/:userId", h.GetUserActivity)
		a.GET("/compliance-report", h.ComplianceReport)
		a.GET("/analytics", h.Analytics)
	}
}

type createLogRequest struct {
	UserID     string `json:"userId"`
	Action     string `json:"action" binding:"required"`
	Resource   string `json:"resource" binding:"required"`
	ResourceID string `json:"resourceId"`
	Details    string `json:"details"`
}

type createSecurityEventRequest struct {
	EventType   string `json:"eventType" binding:"required"`
	Severity    string `json:"severity" binding:"required,oneof=low medium high critical"`
	UserID      string `json:"userId"`
	Description string `json:"description"`
}

func logFilter(c *gin.Context) audit.LogFilter {
	return audit.LogFilter{
		UserID:    c.Query("userId"),
		Action:    c.Query("action"),
		Resource:  c.Query("resource"),
		StartDate: c.Query("startDate"),
		EndDate:   c.Query("endDate"),
		Search:    c.Query("search"),
	}
}

func (h *Handler) ListLogs(c *gin.Context) {
	page, err := h.service.ListLogs(c.Request.Context(), logFilter(c), handler.Page(c, handler.LimitLarge))
	if err != nil {
		h.resp.Fail(c, err, "GET_AUDIT_LOGS_FAILED", "failed to fetch audit logs")
		return
	}
	h.resp.Paginated(c, page.Items, page.Pagination, page.Total)
}

func (h *Handler) GetLog(c *gin.Context) {
	entry, err := h.service.GetLog(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.resp.Fail(c, err, "GET_AUDIT_LOG_FAILED", "failed to fetch audit log")
		return
	}
	h.resp.OK(c, entry)
}

func (h *Handler) CreateLog(c *gin.Context) {
	var req createLogRequest
	if err := validator.BindJSON(c, &req, apperrors.CodeMissingFields); err != nil {
		h.resp.Error(c, err)
		return
	}
	if req.UserID == "" {
		req.UserID = handler.Actor(c)
	}

	entry := &model.AuditLog{
		UserID:     req.UserID,
		Action:     req.Action,
		Resource:   req.Resource,
		ResourceID: req.ResourceID,
		Details:    req.Details,
		IPAddress:  c.ClientIP(),
		UserAgent:  c.Request.UserAgent(),
	}
	if err := h.service.CreateLog(c.Request.Context(), entry); err != nil {
		h.resp.Fail(c, err, "CREATE_AUDIT_LOG_FAILED", "failed to create audit log")
		return
	}
	h.resp.Created(c, "Audit log created", entry)
}

// ExportLogs streams the filtered audit logs as CSV or JSON.
func (h *Handler) ExportLogs(c *gin.Context) {
	format := c.DefaultQuery("format", "csv")
	if format != "csv" && format != "json" {
		h.resp.Error(c, apperrors.Validation("INVALID_FORMAT", "format must be csv or json", nil))
		return
	}

	page, err := h.service.ListLogs(c.Request.Context(), logFilter(c), query.Pagination{Page: 1, Limit: exportLimit})
	if err != nil {
		h.resp.Fail(c, err, "EXPORT_AUDIT_LOGS_FAILED", "failed to export audit logs")
		return
	}

	if format == "json" {
		h.resp.OK(c, page.Items)
		return
	}

	filename := fmt.Sprintf("audit_logs_%s.csv", time.Now().UTC().Format("20060102_150405"))
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Status(http.StatusOK)

	w := csv.NewWriter(c.Writer)
	_ = w.Write([]string{"ID", "Timestamp", "User ID", "Action", "Resource", "Resource ID", "IP Address", "Details"})
	for _, entry := range page.Items {
		_ = w.Write([]string{
			entry.ID.Hex(),
			entry.Timestamp.Format(time.RFC3339),
			entry.UserID,
			entry.Action,
			entry.Resource,
			entry.ResourceID,
			entry.IPAddress,
			entry.Details,
		})
	}
	w.Flush()
}

func (h *Handler) ListSecurityEvents(c *gin.Context) {
	f := audit.EventFilter{
		Severity:  c.Query("severity"),
		EventType: c.Query("eventType"),
		StartDate: c.Query("startDate"),
		EndDate:   c.Query("endDate"),
	}
	page, err := h.service.ListSecurityEvents(c.Request.Context(), f, handler.Page(c, handler.LimitLarge))
	if err != nil {
		h.resp.Fail(c, err, "GET_SECURITY_EVENTS_FAILED", "failed to fetch security events")
		return
	}
	h.resp.Paginated(c, page.Items, page.Pagination, page.Total)
}

func (h *Handler) CreateSecurityEvent(c *gin.Context) {
	var req createSecurityEventRequest
	if err := validator.BindJSON(c, &req, apperrors.CodeMissingFields); err != nil {
		h.resp.Error(c, err)
		return
	}

	event := &model.SecurityEvent{
		EventType:   req.EventType,
		Severity:    req.Severity,
		UserID:      req.UserID,
		Description: req.Description,
		IPAddress:   c.ClientIP(),
	}
	if err := h.service.CreateSecurityEvent(c.Request.Context(), event); err != nil {
		h.resp.Fail(c, err, "CREATE_SECURITY_EVENT_FAILED", "failed to create security event")
		return
	}
	h.resp.Created(c, "Security event created", event)
}

func (h *Handler) ListUserActivities(c *gin.Context) {
	f := audit.ActivityFilter{
		UserID:       c.Query("userId"),
		ActivityType: c.Query("activityType"),
		StartDate:    c.Query("startDate"),
		EndDate:      c.Query("endDate"),
	}
	page, err := h.service.ListUserActivities(c.Request.Context(), f, handler.Page(c, handler.LimitLarge))
	if err != nil {
		h.resp.Fail(c, err, "GET_USER_ACTIVITIES_FAILED", "failed to fetch user activities")
		return
	}
	h.resp.Paginated(c, page.Items, page.Pagination, page.Total)
}

func (h *Handler) GetUserActivity(c *gin.Context) {
	f := audit.ActivityFilter{UserID: c.Param("userId")}
	page, err := h.service.ListUserActivities(c.Request.Context(), f, handler.Page(c, handler.LimitLarge))
	if err != nil {
		h.resp.Fail(c, err, "GET_USER_ACTIVITY_FAILED", "failed to fetch user activity")
		return
	}
	h.resp.Paginated(c, page.Items, page.Pagination, page.Total)
}

func (h *Handler) ComplianceReport(c *gin.Context) {
	report, err := h.service.ComplianceReport(c.Request.Context(), c.Query("startDate"), c.Query("endDate"))
	if err != nil {
		h.resp.Fail(c, err, "GENERATE_COMPLIANCE_REPORT_FAILED", "failed to generate compliance report")
		return
	}
	h.resp.OK(c, report)
}

func (h *Handler) Analytics(c *gin.Context) {
	label, period, err := handler.Period(c)
	if err != nil {
		h.resp.Error(c, err)
		return
	}
	out, err := h.service.Analytics(c.Request.Context(), label, period)
	if err != nil {
		h.resp.Fail(c, err, "GET_AUDIT_ANALYTICS_FAILED", "failed to fetch audit analytics")
		return
	}
	h.resp.OK(c, out)
}
