package user

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/backoffice-api/internal/handler"
	"github.com/jwalitptl/backoffice-api/internal/service/user"
	apperrors "github.com/jwalitptl/backoffice-api/pkg/errors"
	"github.com/jwalitptl/backoffice-api/pkg/httputil"
	"github.com/jwalitptl/backoffice-api/pkg/validator"
)

type Handler struct {
	service user.UserServicer
	resp    *httputil.Responder
}

func NewHandler(service user.UserServicer, resp *httputil.Responder) *Handler {
	return &Handler{service: service, resp: resp}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	users := r.Group("/users")
	{
		users.GET("", h.ListUsers)
		users.GET("/:id", h.GetUser)
		users.PUT("/:id/status", h.UpdateStatus)
		users.GET("/:id/bookings", h.ListUserBookings)
		users.GET("/:id/payments", h.ListUserPayments)
		users.GET("/:id/vehicles", h.ListUserVehicles)
		users.GET("/mechanics/:id/bookings", h.ListMechanicBookings)
	}
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=active inactive suspended"`
}

func (h *Handler) ListUsers(c *gin.Context) {
	page, err := h.service.ListUsers(c.Request.Context(), c.Query("role"), c.Query("search"), handler.ListOptions(c, handler.LimitSmall))
	if err != nil {
		h.resp.Fail(c, err, "GET_USERS_FAILED", "failed to fetch users")
		return
	}
	h.resp.Paginated(c, page.Items, page.Pagination, page.Total)
}

func (h *Handler) GetUser(c *gin.Context) {
	u, err := h.service.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.resp.Fail(c, err, "GET_USER_FAILED", "failed to fetch user")
		return
	}
	h.resp.OK(c, u)
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := validator.BindJSON(c, &req, apperrors.CodeMissingFields); err != nil {
		h.resp.Error(c, err)
		return
	}
	u, err := h.service.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status, handler.Actor(c))
	if err != nil {
		h.resp.Fail(c, err, "UPDATE_USER_FAILED", "failed to update user")
		return
	}
	h.resp.Message(c, "User status updated", u)
}

func (h *Handler) ListUserBookings(c *gin.Context) {
	page, err := h.service.UserBookings(c.Request.Context(), c.Param("id"), handler.ListOptions(c, handler.LimitSmall))
	if err != nil {
		h.resp.Fail(c, err, "GET_USER_BOOKINGS_FAILED", "failed to fetch user bookings")
		return
	}
	h.resp.Paginated(c, page.Items, page.Pagination, page.Total)
}

func (h *Handler) ListUserPayments(c *gin.Context) {
	page, err := h.service.UserPayments(c.Request.Context(), c.Param("id"), handler.ListOptions(c, handler.LimitSmall))
	if err != nil {
		h.resp.Fail(c, err, "GET_USER_PAYMENTS_FAILED", "failed to fetch user payments")
		return
	}
	h.resp.Paginated(c, page.Items, page.Pagination, page.Total)
}

func (h *Handler) ListUserVehicles(c *gin.Context) {
	page, err := h.service.UserVehicles(c.Request.Context(), c.Param("id"), handler.ListOptions(c, handler.LimitSmall))
	if err != nil {
		h.resp.Fail(c, err, "GET_USER_VEHICLES_FAILED", "failed to fetch user vehicles")
		return
	}
	h.resp.Paginated(c, page.Items, page.Pagination, page.Total)
}

func (h *Handler) ListMechanicBookings(c *gin.Context) {
	page, err := h.service.MechanicBookings(c.Request.Context(), c.Param("id"), handler.ListOptions(c, handler.LimitSmall))
	if err != nil {
		h.resp.Fail(c, err, "GET_MECHANIC_BOOKINGS_FAILED", "failed to fetch mechanic bookings")
		return
	}
	h.resp.Paginated(c, page.Items, page.Pagination, page.Total)
}
