package crm

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/backoffice-api/internal/handler"
	"github.com/jwalitptl/backoffice-api/internal/model"
	"github.com/jwalitptl/backoffice-api/internal/service/crm"
	apperrors "github.com/jwalitptl/backoffice-api/pkg/errors"
	"github.com/jwalitptl/backoffice-api/pkg/httputil"
	"github.com/jwalitptl/backoffice-api/pkg/validator"
)

type Handler struct {
	service *crm.Service
	resp    *httputil.Responder
}

func NewHandler(service *crm.Service, resp *httputil.Responder) *Handler {
	return &Handler{service: service, resp: resp}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	g := r.Group("/crm")
	{
		g.GET("/customers", h.ListCustomers)
		g.POST("/customers", h.CreateCustomer)
		g.GET("/customers/:id", h.GetCustomer)
		g.PUT("/customers/:id", h.UpdateCustomer)
		g.DELETE("/customers/:id", h.DeleteCustomer)

		g.GET("/leads", h.ListLeads)
		g.POST("/leads", h.CreateLead)

		g.GET("/tickets", h.ListTickets)
		g.POST("/tickets", h.CreateTicket)
		g.PUT("/tickets/:id", h.UpdateTicket)

		g.GET("/health-scores", h.ListHealthScores)

		g.GET("/critical-accounts", h.ListCriticalAccounts)
		g.POST("/critical-accounts", h.CreateCriticalAccount)
		g.GET("/critical-accounts/:id", h.GetCriticalAccount)
		g.PUT("/critical-accounts/:id", h.UpdateCriticalAccount)
		g.POST("/critical-accounts/:id/actions", h.AddAccountAction)

		g.GET("/analytics", h.Analytics)
	}
}

type createCustomerRequest struct {
	Name       string   `json:"name" binding:"required"`
	Email      string   `json:"email" binding:"required,email"`
	Phone      string   `json:"phone"`
	Company    string   `json:"company"`
	Status     string   `json:"status"`
	Source     string   `json:"source"`
	Tags       []string `json:"tags"`
	Value      float64  `json:"value"`
	AssignedTo string   `json:"assignedTo"`
}

type createLeadRequest struct {
	Name       string `json:"name" binding:"required"`
	Email      string `json:"email" binding:"required,email"`
	Company    string `json:"company"`
	Status     string `json:"status"`
	Source     string `json:"source"`
	Score      int    `json:"score" binding:"gte=0,lte=100"`
	AssignedTo string `json:"assignedTo"`
}

type createTicketRequest struct {
	CustomerID  string `json:"customerId"`
	Subject     string `json:"subject" binding:"required"`
	Description string `json:"description"`
	Priority    string `json:"priority" binding:"omitempty,oneof=low medium high urgent"`
	AssignedTo  string `json:"assignedTo"`
}

type createAccountRequest struct {
	CustomerID string  `json:"customerId" binding:"required"`
	Name       string  `json:"name" binding:"required"`
	Reason     string  `json:"reason" binding:"required"`
	RiskLevel  string  `json:"riskLevel" binding:"required,oneof=low medium high critical"`
	Owner      string  `json:"owner"`
	Revenue    float64 `json:"revenue"`
}

type addActionRequest struct {
	Action   string `json:"action" binding:"required"`
	Notes    string `json:"notes"`
	Priority string `json:"priority" binding:"omitempty,oneof=low medium high critical"`
}

func (h *Handler) ListCustomers(c *gin.Context) {
	f := crm.CustomerFilter{
		Status: c.Query("status"),
		Source: c.Query("source"),
		Search: c.Query("search"),
	}
	page, err := h.service.ListCustomers(c.Request.Context(), f, handler.Page(c, handler.LimitSmall))
	if err != nil {
		h.resp.Fail(c, err, "GET_CUSTOMERS_FAILED", "failed to fetch customers")
		return
	}
	h.resp.Paginated(c, page.Items, page.Pagination, page.Total)
}

func (h *Handler) GetCustomer(c *gin.Context) {
	customer, err := h.service.GetCustomer(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.resp.Fail(c, err, "GET_CUSTOMER_FAILED", "failed to fetch customer")
		return
	}
	h.resp.OK(c, customer)
}

func (h *Handler) CreateCustomer(c *gin.Context) {
	var req createCustomerRequest
	if err := validator.BindJSON(c, &req, apperrors.CodeMissingFields); err != nil {
		h.resp.Error(c, err)
		return
	}
	customer := &model.Customer{
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
		Company:    req.Company,
		Status:     req.Status,
		Source:     req.Source,
		Tags:       req.Tags,
		Value:      req.Value,
		AssignedTo: req.AssignedTo,
	}
	if err := h.service.CreateCustomer(c.Request.Context(), customer, handler.Actor(c)); err != nil {
		h.resp.Fail(c, err, "CREATE_CUSTOMER_FAILED", "failed to create customer")
		return
	}
	h.resp.Created(c, "Customer created", customer)
}

func (h *Handler) UpdateCustomer(c *gin.Context) {
	var req crm.CustomerUpdate
	if err := validator.BindJSON(c, &req, apperrors.CodeValidation); err != nil {
		h.resp.Error(c, err)
		return
	}
	customer, err := h.service.UpdateCustomer(c.Request.Context(), c.Param("id"), req, handler.Actor(c))
	if err != nil {
		h.resp.Fail(c, err, "UPDATE_CUSTOMER_FAILED", "failed to update customer")
		return
	}
	h.resp.Message(c, "Customer updated", customer)
}

func (h *Handler) DeleteCustomer(c *gin.Context) {
	if err := h.service.DeleteCustomer(c.Request.Context(), c.Param("id"), handler.Actor(c)); err != nil {
		h.resp.Fail(c, err, "DELETE_CUSTOMER_FAILED", "failed to delete customer")
		return
	}
	h.resp.Message(c, "Customer deleted", nil)
}

func (h *Handler) ListLeads(c *gin.Context) {
	f := crm.LeadFilter{Status: c.Query("status"), Source: c.Query("source")}
	page, err := h.service.ListLeads(c.Request.Context(), f, handler.Page(c, handler.LimitSmall))
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
	lead := &model.Lead{
		Name:       req.Name,
		Email:      req.Email,
		Company:    req.Company,
		Status:     req.Status,
		Source:     req.Source,
		Score:      req.Score,
		AssignedTo: req.AssignedTo,
	}
	if err := h.service.CreateLead(c.Request.Context(), lead); err != nil {
		h.resp.Fail(c, err, "CREATE_LEAD_FAILED", "failed to create lead")
		return
	}
	h.resp.Created(c, "Lead created", lead)
}

func (h *Handler) ListTickets(c *gin.Context) {
	f := crm.TicketFilter{
		Status:     c.Query("status"),
		Priority:   c.Query("priority"),
		CustomerID: c.Query("customerId"),
	}
	page, err := h.service.ListTickets(c.Request.Context(), f, handler.Page(c, handler.LimitSmall))
	if err != nil {
		h.resp.Fail(c, err, "GET_TICKETS_FAILED", "failed to fetch tickets")
		return
	}
	h.resp.Paginated(c, page.Items, page.Pagination, page.Total)
}

func (h *Handler) CreateTicket(c *gin.Context) {
	var req createTicketRequest
	if err := validator.BindJSON(c, &req, apperrors.CodeMissingFields); err != nil {
		h.resp.Error(c, err)
		return
	}
	ticket := &model.Ticket{
		CustomerID:  req.CustomerID,
		Subject:     req.Subject,
		Description: req.Description,
		Priority:    req.Priority,
		AssignedTo:  req.AssignedTo,
	}
	if err := h.service.CreateTicket(c.Request.Context(), ticket); err != nil {
		h.resp.Fail(c, err, "CREATE_TICKET_FAILED", "failed to create ticket")
		return
	}
	h.resp.Created(c, "Ticket created", ticket)
}

func (h *Handler) UpdateTicket(c *gin.Context) {
	var req crm.TicketUpdate
	if err := validator.BindJSON(c, &req, apperrors.CodeValidation); err != nil {
		h.resp.Error(c, err)
		return
	}
	ticket, err := h.service.UpdateTicket(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.resp.Fail(c, err, "UPDATE_TICKET_FAILED", "failed to update ticket")
		return
	}
	h.resp.Message(c, "Ticket updated", ticket)
}

func (h *Handler) ListHealthScores(c *gin.Context) {
	f := crm.HealthScoreFilter{
		CustomerID: c.Query("customerId"),
		RiskLevel:  c.Query("riskLevel"),
		StartDate:  c.Query("startDate"),
		EndDate:    c.Query("endDate"),
	}
	page, err := h.service.ListHealthScores(c.Request.Context(), f, handler.Page(c, handler.LimitSmall))
	if err != nil {
		h.resp.Fail(c, err, "GET_HEALTH_SCORES_FAILED", "failed to fetch health scores")
		return
	}
	h.resp.Paginated(c, page.Items, page.Pagination, page.Total)
}

func (h *Handler) ListCriticalAccounts(c *gin.Context) {
	f := crm.AccountFilter{Status: c.Query("status"), RiskLevel: c.Query("riskLevel")}
	page, err := h.service.ListCriticalAccounts(c.Request.Context(), f, handler.Page(c, handler.LimitSmall))
	if err != nil {
		h.resp.Fail(c, err, "GET_CRITICAL_ACCOUNTS_FAILED", "failed to fetch critical accounts")
		return
	}
	h.resp.Paginated(c, page.Items, page.Pagination, page.Total)
}

func (h *Handler) CreateCriticalAccount(c *gin.Context) {
	var req createAccountRequest
	if err := validator.BindJSON(c, &req, apperrors.CodeMissingFields); err != nil {
		h.resp.Error(c, err)
		return
	}
	account := &model.CriticalAccount{
		CustomerID: req.CustomerID,
		Name:       req.Name,
		Reason:     req.Reason,
		RiskLevel:  req.RiskLevel,
		Owner:      req.Owner,
		Revenue:    req.Revenue,
	}
	if err := h.service.CreateCriticalAccount(c.Request.Context(), account); err != nil {
		h.resp.Fail(c, err, "CREATE_CRITICAL_ACCOUNT_FAILED", "failed to create critical account")
		return
	}
	h.resp.Created(c, "Critical account created", account)
}

func (h *Handler) GetCriticalAccount(c *gin.Context) {
	account, err := h.service.GetCriticalAccount(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.resp.Fail(c, err, "GET_CRITICAL_ACCOUNT_FAILED", "failed to fetch critical account")
		return
	}
	h.resp.OK(c, account)
}

func (h *Handler) UpdateCriticalAccount(c *gin.Context) {
	var req crm.AccountUpdate
	if err := validator.BindJSON(c, &req, apperrors.CodeValidation); err != nil {
		h.resp.Error(c, err)
		return
	}
	account, err := h.service.UpdateCriticalAccount(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.resp.Fail(c, err, "UPDATE_CRITICAL_ACCOUNT_FAILED", "failed to update critical account")
		return
	}
	h.resp.Message(c, "Critical account updated", account)
}

func (h *Handler) AddAccountAction(c *gin.Context) {
	var req addActionRequest
	if err := validator.BindJSON(c, &req, apperrors.CodeMissingFields); err != nil {
		h.resp.Error(c, err)
		return
	}
	action := &model.AccountAction{
		Action:   req.Action,
		Notes:    req.Notes,
		Priority: req.Priority,
	}
	if err := h.service.AddAccountAction(c.Request.Context(), c.Param("id"), action, handler.Actor(c)); err != nil {
		h.resp.Fail(c, err, "ADD_ACCOUNT_ACTION_FAILED", "failed to add action to critical account")
		return
	}
	h.resp.Created(c, "Action added to critical account", action)
}

func (h *Handler) Analytics(c *gin.Context) {
	out, err := h.service.Analytics(c.Request.Context())
	if err != nil {
		h.resp.Fail(c, err, "GET_CRM_ANALYTICS_FAILED", "failed to fetch CRM analytics")
		return
	}
	h.resp.OK(c, out)
}
