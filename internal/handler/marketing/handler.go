package marketing

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/backoffice-api/internal/handler"
	"github.com/jwalitptl/backoffice-api/internal/model"
	"github.com/jwalitptl/backoffice-api/internal/service/marketing"
	apperrors "github.com/jwalitptl/backoffice-api/pkg/errors"
	"github.com/jwalitptl/backoffice-api/pkg/httputil"
	"github.com/jwalitptl/backoffice-api/pkg/validator"
)

const codeMissingPromotionCode = "MISSING_PROMOTION_CODE"

type Handler struct {
	service *marketing.Service
	resp    *httputil.Responder
}

func NewHandler(service *marketing.Service, resp *httputil.Responder) *Handler {
	return &Handler{service: service, resp: resp}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	g := r.Group("/marketing")
	{
		g.GET("/campaigns", h.ListCampaigns)
		g.POST("/campaigns", h.CreateCampaign)
		g.GET("/campaigns/:id", h.GetCampaign)
		g.PUT("/campaigns/:id", h.UpdateCampaign)

		g.GET("/leads", h.ListLeads)
		g.POST("/leads", h.CreateLead)
		g.PUT("/leads/:id", h.UpdateLead)

		g.GET("/promotions", h.ListPromotions)
		g.POST("/promotions", h.CreatePromotion)
		g.POST("/promotions/validate", h.ValidatePromotion)

		g.GET("/analytics", h.Analytics)
		g.GET("/stats", h.Stats)
	}
}

type createCampaignRequest struct {
	Name           string     `json:"name" binding:"required"`
	Description    string     `json:"description"`
	Type           string     `json:"type" binding:"required,oneof=email sms social push display"`
	Budget         float64    `json:"budget" binding:"gte=0"`
	TargetAudience string     `json:"targetAudience"`
	StartDate      *time.Time `json:"startDate"`
	EndDate        *time.Time `json:"endDate"`
}

type createLeadRequest struct {
	Name       string `json:"name" binding:"required"`
	Email      string `json:"email" binding:"required,email"`
	Source     string `json:"source"`
	CampaignID string `json:"campaignId"`
	Score      int    `json:"score" binding:"gte=0,lte=100"`
}

type createPromotionRequest struct {
	Code           string     `json:"code" binding:"required"`
	Name           string     `json:"name" binding:"required"`
	DiscountType   string     `json:"discountType" binding:"required,oneof=percentage fixed"`
	DiscountValue  float64    `json:"discountValue" binding:"gt=0"`
	MinOrderAmount float64    `json:"minOrderAmount" binding:"gte=0"`
	UsageLimit     int        `json:"usageLimit" binding:"gte=0"`
	StartDate      *time.Time `json:"startDate" binding:"required"`
	EndDate        *time.Time `json:"endDate" binding:"required"`
}

type validatePromotionRequest struct {
	Code        string  `json:"code" binding:"required"`
	OrderAmount float64 `json:"orderAmount" binding:"gte=0"`
}

func (h *Handler) ListCampaigns(c *gin.Context) {
	f := marketing.CampaignFilter{
		Status: c.Query("status"),
		Type:   c.Query("type"),
		Search: c.Query("search"),
	}
	page, err := h.service.ListCampaigns(c.Request.Context(), f, handler.Page(c, handler.LimitLarge))
	if err != nil {
		h.resp.Fail(c, err, "GET_CAMPAIGNS_FAILED", "failed to fetch campaigns")
		return
	}
	h.resp.Paginated(c, page.Items, page.Pagination, page.Total)
}

func (h *Handler) GetCampaign(c *gin.Context) {
	campaign, err := h.service.GetCampaign(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.resp.Fail(c, err, "GET_CAMPAIGN_FAILED", "failed to fetch campaign")
		return
	}
	h.resp.OK(c, campaign)
}

func (h *Handler) CreateCampaign(c *gin.Context) {
	var req createCampaignRequest
	if err := validator.BindJSON(c, &req, apperrors.CodeMissingFields); err != nil {
		h.resp.Error(c, err)
		return
	}
	campaign := &model.Campaign{
		Name:           req.Name,
		Description:    req.Description,
		Type:           req.Type,
		Budget:         req.Budget,
		TargetAudience: req.TargetAudience,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
	}
	if err := h.service.CreateCampaign(c.Request.Context(), campaign, handler.Actor(c)); err != nil {
		h.resp.Fail(c, err, "CREATE_CAMPAIGN_FAILED", "failed to create campaign")
		return
	}
	h.resp.Created(c, "Campaign created", campaign)
}

func (h *Handler) UpdateCampaign(c *gin.Context) {
	var req marketing.CampaignUpdate
	if err := validator.BindJSON(c, &req, apperrors.CodeValidation); err != nil {
		h.resp.Error(c, err)
		return
	}
	campaign, err := h.service.UpdateCampaign(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.resp.Fail(c, err, "UPDATE_CAMPAIGN_FAILED", "failed to update campaign")
		return
	}
	h.resp.Message(c, "Campaign updated", campaign)
}

func (h *Handler) ListLeads(c *gin.Context) {
	f := marketing.LeadFilter{
		Status:     c.Query("status"),
		Source:     c.Query("source"),
		CampaignID: c.Query("campaignId"),
	}
	page, err := h.service.ListLeads(c.Request.Context(), f, handler.Page(c, handler.LimitLarge))
	if err != nil {
		h.resp.Fail(c, err, "GET_LEADS_FAILED", "failed to fetch leads")
		return
	}
	h.resp.Paginated(c, page.Items, page.Pagination, page.Total)
}

func (h *Handler) CreateLead(c *gin.Context) {
	var req createLeadRequest
	if err := validator.BindJSON(c, &req, apperrors.CodeMissingFields); err != nil {
		h.resp.Error(c, err)
		return
	}
	lead := &model.MarketingLead{
		Name:       req.Name,
		Email:      req.Email,
		Source:     req.Source,
		CampaignID: req.CampaignID,
		Score:      req.Score,
	}
	if err := h.service.CreateLead(c.Request.Context(), lead); err != nil {
		h.resp.Fail(c, err, "CREATE_LEAD_FAILED", "failed to create lead")
		return
	}
	h.resp.Created(c, "Lead created", lead)
}

func (h *Handler) UpdateLead(c *gin.Context) {
	var req marketing.LeadUpdate
	if err := validator.BindJSON(c, &req, apperrors.CodeValidation); err != nil {
		h.resp.Error(c, err)
		return
	}
	lead, err := h.service.UpdateLead(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.resp.Fail(c, err, "UPDATE_LEAD_FAILED", "failed to update lead")
		return
	}
	h.resp.Message(c, "Lead updated", lead)
}

func (h *Handler) ListPromotions(c *gin.Context) {
	f := marketing.PromotionFilter{Status: c.Query("status"), Search: c.Query("search")}
	page, err := h.service.ListPromotions(c.Request.Context(), f, handler.Page(c, handler.LimitSmall))
	if err != nil {
		h.resp.Fail(c, err, "GET_PROMOTIONS_FAILED", "failed to fetch promotions")
		return
	}
	h.resp.Paginated(c, page.Items, page.Pagination, page.Total)
}

func (h *Handler) CreatePromotion(c *gin.Context) {
	var req createPromotionRequest
	if err := validator.BindJSON(c, &req, apperrors.CodeMissingFields); err != nil {
		h.resp.Error(c, err)
		return
	}
	promo := &model.Promotion{
		Code:           req.Code,
		Name:           req.Name,
		DiscountType:   req.DiscountType,
		DiscountValue:  req.DiscountValue,
		MinOrderAmount: req.MinOrderAmount,
		UsageLimit:     req.UsageLimit,
		StartDate:      req.StartDate.UTC(),
		EndDate:        req.EndDate.UTC(),
	}
	if err := h.service.CreatePromotion(c.Request.Context(), promo); err != nil {
		h.resp.Fail(c, err, "CREATE_PROMOTION_FAILED", "failed to create promotion")
		return
	}
	h.resp.Created(c, "Promotion created", promo)
}

func (h *Handler) ValidatePromotion(c *gin.Context) {
	var req validatePromotionRequest
	if err := validator.BindJSON(c, &req, codeMissingPromotionCode); err != nil {
		h.resp.Error(c, err)
		return
	}
	quote, err := h.service.ValidatePromotion(c.Request.Context(), req.Code, req.OrderAmount)
	if err != nil {
		h.resp.Fail(c, err, "VALIDATE_PROMOTION_FAILED", "failed to validate promotion code")
		return
	}
	h.resp.Message(c, "Promotion code is valid", quote)
}

func (h *Handler) Analytics(c *gin.Context) {
	out, err := h.service.Analytics(c.Request.Context())
	if err != nil {
		h.resp.Fail(c, err, "GET_MARKETING_ANALYTICS_FAILED", "failed to fetch marketing analytics")
		return
	}
	h.resp.OK(c, out)
}

func (h *Handler) Stats(c *gin.Context) {
	out, err := h.service.Stats(c.Request.Context())
	if err != nil {
		h.resp.Fail(c, err, "GET_MARKETING_STATS_FAILED", "failed to fetch marketing statistics")
		return
	}
	h.resp.OK(c, out)
}
