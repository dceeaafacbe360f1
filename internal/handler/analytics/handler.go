package analytics

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/backoffice-api/internal/handler"
	"github.com/jwalitptl/backoffice-api/internal/service/analytics"
	"github.com/jwalitptl/backoffice-api/pkg/httputil"
)

type Handler struct {
	service *analytics.Service
	resp    *httputil.Responder
}

func NewHandler(service *analytics.Service, resp *httputil.Responder) *Handler {
	return &Handler{service: service, resp: resp}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	a := r.Group("/analytics")
	{
		a.GET("/dashboard", h.Dashboard)
		a.GET("/revenue", h.Revenue)
		a.GET("/users", h.Users)
		a.GET("/bookings", h.Bookings)
	}
}

func (h *Handler) Dashboard(c *gin.Context) {
	label, period, err := handler.Period(c)
	if err != nil {
		h.resp.Error(c, err)
		return
	}
	out, err := h.service.Dashboard(c.Request.Context(), label, period)
	if err != nil {
		h.resp.Fail(c, err, "GET_DASHBOARD_FAILED", "failed to fetch dashboard metrics")
		return
	}
	h.resp.OK(c, out)
}

func (h *Handler) Revenue(c *gin.Context) {
	label, period, err := handler.Period(c)
	if err != nil {
		h.resp.Error(c, err)
		return
	}
	out, err := h.service.Revenue(c.Request.Context(), label, period)
	if err != nil {
		h.resp.Fail(c, err, "GET_REVENUE_ANALYTICS_FAILED", "failed to fetch revenue analytics")
		return
	}
	h.resp.OK(c, out)
}

func (h *Handler) Users(c *gin.Context) {
	label, period, err := handler.Period(c)
	if err != nil {
		h.resp.Error(c, err)
		return
	}
	out, err := h.service.Users(c.Request.Context(), label, period)
	if err != nil {
		h.resp.Fail(c, err, "GET_USER_ANALYTICS_FAILED", "failed to fetch user analytics")
		return
	}
	h.resp.OK(c, out)
}

func (h *Handler) Bookings(c *gin.Context) {
	label, period, err := handler.Period(c)
	if err != nil {
		h.resp.Error(c, err)
		return
	}
	out, err := h.service.Bookings(c.Request.Context(), label, period)
	if err != nil {
		h.resp.Fail(c, err, "GET_BOOKING_ANALYTICS_FAILED", "failed to fetch booking analytics")
		return
	}
	h.resp.OK(c, out)
}
