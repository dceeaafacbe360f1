package chat

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/backoffice-api/internal/handler"
	"github.com/jwalitptl/backoffice-api/internal/model"
	"github.com/jwalitptl/backoffice-api/internal/service/chat"
	apperrors "github.com/jwalitptl/backoffice-api/pkg/errors"
	"github.com/jwalitptl/backoffice-api/pkg/httputil"
	"github.com/jwalitptl/backoffice-api/pkg/validator"
)

type Handler struct {
	service *chat.Service
	resp    *httputil.Responder
}

func NewHandler(service *chat.Service, resp *httputil.Responder) *Handler {
	return &Handler{service: service, resp: resp}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	g := r.Group("/chat")
	{
		g.GET("/channels", h.ListChannels)
		g.POST("/channels", h.CreateChannel)
		g.GET("/channels/:id/messages", h.ListMessages)
		g.POST("/channels/:id/messages", h.PostMessage)
	}
}

type createChannelRequest struct {
	Name        string   `json:"name" binding:"required"`
	Type        string   `json:"type" binding:"required,oneof=support internal broadcast direct"`
	Description string   `json:"description"`
	Members     []string `json:"members"`
}

type postMessageRequest struct {
	Content string `json:"content" binding:"required"`
	Type    string `json:"type" binding:"omitempty,oneof=text image file system"`
}

func (h *Handler) ListChannels(c *gin.Context) {
	f := chat.ChannelFilter{Type: c.Query("type"), Status: c.Query("status")}
	page, err := h.service.ListChannels(c.Request.Context(), f, handler.Page(c, handler.LimitSmall))
	if err != nil {
		h.resp.Fail(c, err, "GET_CHANNELS_FAILED", "failed to fetch channels")
		return
	}
	h.resp.Paginated(c, page.Items, page.Pagination, page.Total)
}

func (h *Handler) CreateChannel(c *gin.Context) {
	var req createChannelRequest
	if err := validator.BindJSON(c, &req, apperrors.CodeMissingFields); err != nil {
		h.resp.Error(c, err)
		return
	}
	ch := &model.ChatChannel{
		Name:        req.Name,
		Type:        req.Type,
		Description: req.Description,
		Members:     req.Members,
	}
	if err := h.service.CreateChannel(c.Request.Context(), ch, handler.Actor(c)); err != nil {
		h.resp.Fail(c, err, "CREATE_CHANNEL_FAILED", "failed to create channel")
		return
	}
	h.resp.Created(c, "Channel created", ch)
}

func (h *Handler) ListMessages(c *gin.Context) {
	page, err := h.service.ListMessages(c.Request.Context(), c.Param("id"), handler.Page(c, handler.LimitLarge))
	if err != nil {
		h.resp.Fail(c, err, "GET_MESSAGES_FAILED", "failed to fetch messages")
		return
	}
	h.resp.Paginated(c, page.Items, page.Pagination, page.Total)
}

func (h *Handler) PostMessage(c *gin.Context) {
	var req postMessageRequest
	if err := validator.BindJSON(c, &req, apperrors.CodeMissingFields); err != nil {
		h.resp.Error(c, err)
		return
	}
	msg := &model.ChatMessage{Content: req.Content, Type: req.Type}
	if err := h.service.PostMessage(c.Request.Context(), c.Param("id"), msg, handler.Actor(c)); err != nil {
		h.resp.Fail(c, err, "SEND_MESSAGE_FAILED", "failed to send message")
		return
	}
	h.resp.Created(c, "Message sent", msg)
}
