package legal

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/backoffice-api/internal/handler"
	"github.com/jwalitptl/backoffice-api/internal/model"
	"github.com/jwalitptl/backoffice-api/internal/service/legal"
	apperrors "github.com/jwalitptl/backoffice-api/pkg/errors"
	"github.com/jwalitptl/backoffice-api/pkg/httputil"
	"github.com/jwalitptl/backoffice-api/pkg/validator"
)

type Handler struct {
	service *legal.Service
	resp    *httputil.Responder
}

func NewHandler(service *legal.Service, resp *httputil.Responder) *Handler {
	return &Handler{service: service, resp: resp}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	g := r.Group("/legal")
	{
		g.GET("/contracts", h.ListContracts)
		g.POST("/contracts", h.CreateContract)
		g.GET("/contracts/:id", h.GetContract)
		g.PUT("/contracts/:id", h.UpdateContract)
		g.POST("/contracts/:id/sign", h.SignContract)

		g.GET("/disputes", h.ListDisputes)
		g.POST("/disputes", h.CreateDispute)
		g.PUT("/disputes/:id", h.UpdateDispute)

		g.GET("/documents", h.ListDocuments)
		g.POST("/documents", h.CreateDocument)

		g.GET("/stats", h.Stats)
		g.GET("/analytics", h.Analytics)
	}
}

type createContractRequest struct {
	Title        string     `json:"title" binding:"required"`
	Type         string     `json:"type" binding:"required"`
	Counterparty string     `json:"counterparty" binding:"required"`
	Value        float64    `json:"value" binding:"gte=0"`
	StartDate    *time.Time `json:"startDate"`
	EndDate      *time.Time `json:"endDate"`
}

type createDisputeRequest struct {
	Title        string  `json:"title" binding:"required"`
	Description  string  `json:"description"`
	Type         string  `json:"type" binding:"required"`
	Priority     string  `json:"priority" binding:"omitempty,oneof=low medium high critical"`
	Counterparty string  `json:"counterparty"`
	ContractID   string  `json:"contractId"`
	ContactEmail string  `json:"contactEmail" binding:"omitempty,email"`
	Amount       float64 `json:"amount" binding:"gte=0"`
}

type createDocumentRequest struct {
	Title    string `json:"title" binding:"required"`
	Category string `json:"category" binding:"required"`
	URL      string `json:"url" binding:"required,url"`
	Version  string `json:"version"`
}

func (h *Handler) ListContracts(c *gin.Context) {
	f := legal.ContractFilter{
		Status: c.Query("status"),
		Type:   c.Query("type"),
		Search: c.Query("search"),
	}
	page, err := h.service.ListContracts(c.Request.Context(), f, handler.Page(c, handler.LimitSmall))
	if err != nil {
		h.resp.Fail(c, err, "GET_CONTRACTS_FAILED", "failed to fetch contracts")
		return
	}
	h.resp.Paginated(c, page.Items, page.Pagination, page.Total)
}

func (h *Handler) GetContract(c *gin.Context) {
	contract, err := h.service.GetContract(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.resp.Fail(c, err, "GET_CONTRACT_FAILED", "failed to fetch contract")
		return
	}
	h.resp.OK(c, contract)
}

func (h *Handler) CreateContract(c *gin.Context) {
	var req createContractRequest
	if err := validator.BindJSON(c, &req, apperrors.CodeMissingFields); err != nil {
		h.resp.Error(c, err)
		return
	}
	contract := &model.Contract{
		Title:        req.Title,
		Type:         req.Type,
		Counterparty: req.Counterparty,
		Value:        req.Value,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
	}
	if err := h.service.CreateContract(c.Request.Context(), contract, handler.Actor(c)); err != nil {
		h.resp.Fail(c, err, "CREATE_CONTRACT_FAILED", "failed to create contract")
		return
	}
	h.resp.Created(c, "Contract created", contract)
}

func (h *Handler) UpdateContract(c *gin.Context) {
	var req legal.ContractUpdate
	if err := validator.BindJSON(c, &req, apperrors.CodeValidation); err != nil {
		h.resp.Error(c, err)
		return
	}
	contract, err := h.service.UpdateContract(c.Request.Context(), c.Param("id"), req, handler.Actor(c))
	if err != nil {
		h.resp.Fail(c, err, "UPDATE_CONTRACT_FAILED", "failed to update contract")
		return
	}
	h.resp.Message(c, "Contract updated", contract)
}

func (h *Handler) SignContract(c *gin.Context) {
	contract, err := h.service.SignContract(c.Request.Context(), c.Param("id"), handler.Actor(c))
	if err != nil {
		h.resp.Fail(c, err, "SIGN_CONTRACT_FAILED", "failed to sign contract")
		return
	}
	h.resp.Message(c, "Contract signed", contract)
}

func (h *Handler) ListDisputes(c *gin.Context) {
	f := legal.DisputeFilter{
		Status:   c.Query("status"),
		Type:     c.Query("type"),
		Priority: c.Query("priority"),
	}
	page, err := h.service.ListDisputes(c.Request.Context(), f, handler.Page(c, handler.LimitSmall))
	if err != nil {
		h.resp.Fail(c, err, "GET_DISPUTES_FAILED", "failed to fetch disputes")
		return
	}
	h.resp.Paginated(c, page.Items, page.Pagination, page.Total)
}

func (h *Handler) CreateDispute(c *gin.Context) {
	var req createDisputeRequest
	if err := validator.BindJSON(c, &req, apperrors.CodeMissingFields); err != nil {
		h.resp.Error(c, err)
		return
	}
	d := &model.Dispute{
		Title:        req.Title,
		Description:  req.Description,
		Type:         req.Type,
		Priority:     req.Priority,
		Counterparty: req.Counterparty,
		ContractID:   req.ContractID,
		ContactEmail: req.ContactEmail,
		Amount:       req.Amount,
	}
	if err := h.service.CreateDispute(c.Request.Context(), d, handler.Actor(c)); err != nil {
		h.resp.Fail(c, err, "CREATE_DISPUTE_FAILED", "failed to create dispute")
		return
	}
	h.resp.Created(c, "Dispute created", d)
}

func (h *Handler) UpdateDispute(c *gin.Context) {
	var req legal.DisputeUpdate
	if err := validator.BindJSON(c, &req, apperrors.CodeValidation); err != nil {
		h.resp.Error(c, err)
		return
	}
	d, err := h.service.UpdateDispute(c.Request.Context(), c.Param("id"), req, handler.Actor(c))
	if err != nil {
		h.resp.Fail(c, err, "UPDATE_DISPUTE_FAILED", "failed to update dispute")
		return
	}
	h.resp.Message(c, "Dispute updated", d)
}

func (h *Handler) ListDocuments(c *gin.Context) {
	f := legal.DocumentFilter{
		Category: c.Query("category"),
		Status:   c.Query("status"),
		Search:   c.Query("search"),
	}
	page, err := h.service.ListDocuments(c.Request.Context(), f, handler.Page(c, handler.LimitSmall))
	if err != nil {
		h.resp.Fail(c, err, "GET_LEGAL_DOCUMENTS_FAILED", "failed to fetch legal documents")
		return
	}
	h.resp.Paginated(c, page.Items, page.Pagination, page.Total)
}

func (h *Handler) CreateDocument(c *gin.Context) {
	var req createDocumentRequest
	if err := validator.BindJSON(c, &req, apperrors.CodeMissingFields); err != nil {
		h.resp.Error(c, err)
		return
	}
	doc := &model.LegalDocument{
		Title:    req.Title,
		Category: req.Category,
		URL:      req.URL,
		Version:  req.Version,
	}
	if err := h.service.CreateDocument(c.Request.Context(), doc, handler.Actor(c)); err != nil {
		h.resp.Fail(c, err, "CREATE_LEGAL_DOCUMENT_FAILED", "failed to create legal document")
		return
	}
	h.resp.Created(c, "Legal document created", doc)
}

func (h *Handler) Stats(c *gin.Context) {
	out, err := h.service.Stats(c.Request.Context())
	if err != nil {
		h.resp.Fail(c, err, "GET_LEGAL_STATS_FAILED", "failed to fetch legal stats")
		return
	}
	h.resp.OK(c, out)
}

func (h *Handler) Analytics(c *gin.Context) {
	label, period, err := handler.Period(c)
	if err != nil {
		h.resp.Error(c, err)
		return
	}
	out, err := h.service.Analytics(c.Request.Context(), label, period)
	if err != nil {
		h.resp.Fail(c, err, "GET_LEGAL_ANALYTICS_FAILED", "failed to retrieve legal analytics")
		return
	}
	h.resp.OK(c, out)
}
