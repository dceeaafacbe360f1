package settings

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/backoffice-api/internal/handler"
	"github.com/jwalitptl/backoffice-api/internal/model"
	"github.com/jwalitptl/backoffice-api/internal/service/settings"
	apperrors "github.com/jwalitptl/backoffice-api/pkg/errors"
	"github.com/jwalitptl/backoffice-api/pkg/httputil"
	"github.com/jwalitptl/backoffice-api/pkg/validator"
)

type Handler struct {
	service *settings.Service
	resp    *httputil.Responder
}

func NewHandler(service *settings.Service, resp *httputil.Responder) *Handler {
	return &Handler{service: service, resp: resp}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	s := r.Group("/settings")
	{
		s.GET("", h.GetAllSettings)
		s.GET("/:category", h.GetSettings)
		s.PUT("/:category", h.UpdateSettings)
	}

	sys := r.Group("/system")
	{
		sys.GET("/config", h.GetConfig)
		sys.PUT("/config", h.UpdateConfig)
		sys.GET("/alerts", h.ListAlerts)
		sys.GET("/health", h.Health)
	}

	alerts := r.Group("/alerts")
	{
		alerts.GET("", h.ListAlerts)
		alerts.POST("", h.CreateAlert)
		alerts.PUT("/:id/acknowledge", h.AcknowledgeAlert)
		alerts.PUT("/:id/resolve", h.ResolveAlert)
	}
}

type updateSettingsRequest struct {
	Settings map[string]interface{} `json:"settings"`
}

type updateConfigRequest struct {
	Config map[string]interface{} `json:"config"`
}

type createAlertRequest struct {
	Type     string `json:"type" binding:"required"`
	Severity string `json:"severity" binding:"required,oneof=low medium high critical"`
	Title    string `json:"title" binding:"required"`
	Message  string `json:"message"`
	Source   string `json:"source"`
}

func (h *Handler) GetAllSettings(c *gin.Context) {
	out, err := h.service.AllSettings(c.Request.Context())
	if err != nil {
		h.resp.Fail(c, err, "GET_SETTINGS_FAILED", "failed to fetch settings")
		return
	}
	h.resp.OK(c, out)
}

func (h *Handler) GetSettings(c *gin.Context) {
	out, err := h.service.Category(c.Request.Context(), c.Param("category"))
	if err != nil {
		h.resp.Fail(c, err, "GET_SETTINGS_FAILED", "failed to fetch settings")
		return
	}
	h.resp.OK(c, out)
}

func (h *Handler) UpdateSettings(c *gin.Context) {
	var req updateSettingsRequest
	if err := validator.BindJSON(c, &req, settings.CodeInvalidSettings); err != nil {
		h.resp.Error(c, err)
		return
	}
	out, err := h.service.UpdateCategory(c.Request.Context(), c.Param("category"), req.Settings, handler.Actor(c))
	if err != nil {
		h.resp.Fail(c, err, "UPDATE_SETTINGS_FAILED", "failed to update settings")
		return
	}
	h.resp.Message(c, "Settings updated", out)
}

func (h *Handler) GetConfig(c *gin.Context) {
	cfg, err := h.service.Config(c.Request.Context())
	if err != nil {
		h.resp.Fail(c, err, "GET_SYSTEM_CONFIG_FAILED", "failed to fetch system config")
		return
	}
	h.resp.OK(c, cfg)
}

func (h *Handler) UpdateConfig(c *gin.Context) {
	var req updateConfigRequest
	if err := validator.BindJSON(c, &req, settings.CodeInvalidConfig); err != nil {
		h.resp.Error(c, err)
		return
	}
	cfg, err := h.service.UpdateConfig(c.Request.Context(), req.Config, handler.Actor(c))
	if err != nil {
		h.resp.Fail(c, err, "UPDATE_SYSTEM_CONFIG_FAILED", "failed to update system config")
		return
	}
	h.resp.Message(c, "System config updated", cfg)
}

func (h *Handler) ListAlerts(c *gin.Context) {
	f := settings.AlertFilter{
		Severity: c.Query("severity"),
		Status:   c.Query("status"),
		Type:     c.Query("type"),
	}
	page, err := h.service.ListAlerts(c.Request.Context(), f, handler.Page(c, handler.LimitSmall))
	if err != nil {
		h.resp.Fail(c, err, "GET_ALERTS_FAILED", "failed to fetch alerts")
		return
	}
	h.resp.Paginated(c, page.Items, page.Pagination, page.Total)
}

func (h *Handler) CreateAlert(c *gin.Context) {
	var req createAlertRequest
	if err := validator.BindJSON(c, &req, apperrors.CodeMissingFields); err != nil {
		h.resp.Error(c, err)
		return
	}
	alert := &model.Alert{
		Type:     req.Type,
		Severity: req.Severity,
		Title:    req.Title,
		Message:  req.Message,
		Source:   req.Source,
	}
	if err := h.service.CreateAlert(c.Request.Context(), alert, handler.Actor(c)); err != nil {
		h.resp.Fail(c, err, "CREATE_ALERT_FAILED", "failed to create alert")
		return
	}
	h.resp.Created(c, "Alert created", alert)
}

func (h *Handler) AcknowledgeAlert(c *gin.Context) {
	alert, err := h.service.AcknowledgeAlert(c.Request.Context(), c.Param("id"), handler.Actor(c))
	if err != nil {
		h.resp.Fail(c, err, "ACKNOWLEDGE_ALERT_FAILED", "failed to acknowledge alert")
		return
	}
	h.resp.Message(c, "Alert acknowledged", alert)
}

func (h *Handler) ResolveAlert(c *gin.Context) {
	alert, err := h.service.ResolveAlert(c.Request.Context(), c.Param("id"), handler.Actor(c))
	if err != nil {
		h.resp.Fail(c, err, "RESOLVE_ALERT_FAILED", "failed to resolve alert")
		return
	}
	h.resp.Message(c, "Alert resolved", alert)
}

func (h *Handler) Health(c *gin.Context) {
	health, err := h.service.Health(c.Request.Context())
	if err != nil {
		h.resp.Fail(c, err, "GET_SYSTEM_HEALTH_FAILED", "failed to check system health")
		return
	}
	h.resp.OK(c, health)
}
