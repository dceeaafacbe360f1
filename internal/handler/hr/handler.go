package hr

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/backoffice-api/internal/handler"
	"github.com/jwalitptl/backoffice-api/internal/model"
	"github.com/jwalitptl/backoffice-api/internal/service/hr"
	apperrors "github.com/jwalitptl/backoffice-api/pkg/errors"
	"github.com/jwalitptl/backoffice-api/pkg/httputil"
	"github.com/jwalitptl/backoffice-api/pkg/validator"
)

type Handler struct {
	service *hr.Service
	resp    *httputil.Responder
}

func NewHandler(service *hr.Service, resp *httputil.Responder) *Handler {
	return &Handler{service: service, resp: resp}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	g := r.Group("/hr")
	{
		g.GET("/employees", h.ListEmployees)
		g.POST("/employees", h.CreateEmployee)
		g.GET("/employees/:id", h.GetEmployee)
		g.PUT("/employees/:id", h.UpdateEmployee)
		g.DELETE("/employees/:id", h.DeleteEmployee)

		g.GET("/payroll", h.ListPayroll)
		g.POST("/payroll", h.CreatePayroll)

		g.GET("/recruitment", h.ListPostings)
		g.POST("/recruitment", h.CreatePosting)
		g.GET("/applications", h.ListApplications)

		g.GET("/stats", h.Stats)
		g.GET("/analytics", h.Analytics)
	}
}

type createEmployeeRequest struct {
	FirstName  string     `json:"firstName" binding:"required"`
	LastName   string     `json:"lastName" binding:"required"`
	Email      string     `json:"email" binding:"required,email"`
	Phone      string     `json:"phone"`
	Department string     `json:"department" binding:"required"`
	Position   string     `json:"position" binding:"required"`
	Salary     float64    `json:"salary" binding:"gte=0"`
	ManagerID  string     `json:"managerId"`
	HireDate   *time.Time `json:"hireDate"`
}

type createPayrollRequest struct {
	EmployeeID string  `json:"employeeId" binding:"required"`
	Period     string  `json:"period" binding:"required"`
	GrossPay   float64 `json:"grossPay" binding:"gt=0"`
	Deductions float64 `json:"deductions" binding:"gte=0"`
	NetPay     float64 `json:"netPay" binding:"gte=0"`
	Status     string  `json:"status" binding:"omitempty,oneof=pending processed paid"`
}

type createPostingRequest struct {
	Title          string `json:"title" binding:"required"`
	Department     string `json:"department" binding:"required"`
	Location       string `json:"location"`
	EmploymentType string `json:"employmentType" binding:"required,oneof=full_time part_time contract internship"`
	Description    string `json:"description"`
	Openings       int    `json:"openings" binding:"gte=0"`
}

func (h *Handler) ListEmployees(c *gin.Context) {
	f := hr.EmployeeFilter{
		Department: c.Query("department"),
		Status:     c.Query("status"),
		Search:     c.Query("search"),
	}
	page, err := h.service.ListEmployees(c.Request.Context(), f, handler.Page(c, handler.LimitLarge))
	if err != nil {
		h.resp.Fail(c, err, "GET_EMPLOYEES_FAILED", "failed to fetch employees")
		return
	}
	h.resp.Paginated(c, page.Items, page.Pagination, page.Total)
}

func (h *Handler) GetEmployee(c *gin.Context) {
	e, err := h.service.GetEmployee(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.resp.Fail(c, err, "GET_EMPLOYEE_FAILED", "failed to fetch employee")
		return
	}
	h.resp.OK(c, e)
}

func (h *Handler) CreateEmployee(c *gin.Context) {
	var req createEmployeeRequest
	if err := validator.BindJSON(c, &req, apperrors.CodeMissingFields); err != nil {
		h.resp.Error(c, err)
		return
	}
	e := &model.Employee{
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Email:      req.Email,
		Phone:      req.Phone,
		Department: req.Department,
		Position:   req.Position,
		Salary:     req.Salary,
		ManagerID:  req.ManagerID,
	}
	if req.HireDate != nil {
		e.HireDate = req.HireDate.UTC()
	}
	if err := h.service.CreateEmployee(c.Request.Context(), e, handler.Actor(c)); err != nil {
		h.resp.Fail(c, err, "CREATE_EMPLOYEE_FAILED", "failed to create employee")
		return
	}
	h.resp.Created(c, "Employee created", e)
}

func (h *Handler) UpdateEmployee(c *gin.Context) {
	var req hr.EmployeeUpdate
	if err := validator.BindJSON(c, &req, apperrors.CodeValidation); err != nil {
		h.resp.Error(c, err)
		return
	}
	e, err := h.service.UpdateEmployee(c.Request.Context(), c.Param("id"), req, handler.Actor(c))
	if err != nil {
		h.resp.Fail(c, err, "UPDATE_EMPLOYEE_FAILED", "failed to update employee")
		return
	}
	h.resp.Message(c, "Employee updated", e)
}

func (h *Handler) DeleteEmployee(c *gin.Context) {
	if err := h.service.DeleteEmployee(c.Request.Context(), c.Param("id"), handler.Actor(c)); err != nil {
		h.resp.Fail(c, err, "DELETE_EMPLOYEE_FAILED", "failed to delete employee")
		return
	}
	h.resp.Message(c, "Employee deleted", nil)
}

func (h *Handler) ListPayroll(c *gin.Context) {
	f := hr.PayrollFilter{
		EmployeeID: c.Query("employeeId"),
		Period:     c.Query("period"),
		Status:     c.Query("status"),
	}
	page, err := h.service.ListPayroll(c.Request.Context(), f, handler.Page(c, handler.LimitLarge))
	if err != nil {
		h.resp.Fail(c, err, "GET_PAYROLL_FAILED", "failed to fetch payroll")
		return
	}
	h.resp.Paginated(c, page.Items, page.Pagination, page.Total)
}

func (h *Handler) CreatePayroll(c *gin.Context) {
	var req createPayrollRequest
	if err := validator.BindJSON(c, &req, apperrors.CodeMissingFields); err != nil {
		h.resp.Error(c, err)
		return
	}
	p := &model.PayrollRecord{
		EmployeeID: req.EmployeeID,
		Period:     req.Period,
		GrossPay:   req.GrossPay,
		Deductions: req.Deductions,
		NetPay:     req.NetPay,
		Status:     req.Status,
	}
	if err := h.service.CreatePayroll(c.Request.Context(), p); err != nil {
		h.resp.Fail(c, err, "CREATE_PAYROLL_FAILED", "failed to create payroll record")
		return
	}
	h.resp.Created(c, "Payroll record created", p)
}

func (h *Handler) ListPostings(c *gin.Context) {
	f := hr.PostingFilter{Status: c.Query("status"), Department: c.Query("department")}
	page, err := h.service.ListPostings(c.Request.Context(), f, handler.Page(c, handler.LimitSmall))
	if err != nil {
		h.resp.Fail(c, err, "GET_JOB_POSTINGS_FAILED", "failed to fetch job postings")
		return
	}
	h.resp.Paginated(c, page.Items, page.Pagination, page.Total)
}

func (h *Handler) CreatePosting(c *gin.Context) {
	var req createPostingRequest
	if err := validator.BindJSON(c, &req, apperrors.CodeMissingFields); err != nil {
		h.resp.Error(c, err)
		return
	}
	p := &model.JobPosting{
		Title:          req.Title,
		Department:     req.Department,
		Location:       req.Location,
		EmploymentType: req.EmploymentType,
		Description:    req.Description,
		Openings:       req.Openings,
	}
	if err := h.service.CreatePosting(c.Request.Context(), p); err != nil {
		h.resp.Fail(c, err, "CREATE_JOB_POSTING_FAILED", "failed to create job posting")
		return
	}
	h.resp.Created(c, "Job posting created", p)
}

func (h *Handler) Stats(c *gin.Context) {
	out, err := h.service.Stats(c.Request.Context())
	if err != nil {
		h.resp.Fail(c, err, "GET_HR_STATS_FAILED", "failed to fetch HR stats")
		return
	}
	h.resp.OK(c, out)
}

func (h *Handler) ListApplications(c *gin.Context) {
	f := hr.ApplicationFilter{
		Status:     c.Query("status"),
		Position:   c.Query("position"),
		Department: c.Query("department"),
	}
	page, err := h.service.ListApplications(c.Request.Context(), f, handler.Page(c, handler.LimitSmall))
	if err != nil {
		h.resp.Fail(c, err, "GET_APPLICATIONS_FAILED", "failed to fetch job applications")
		return
	}
	h.resp.Paginated(c, page.Items, page.Pagination, page.Total)
}

func (h *Handler) Analytics(c *gin.Context) {
	label, period, err := handler.Period(c)
	if err != nil {
		h.resp.Error(c, err)
		return
	}
	out, err := h.service.Analytics(c.Request.Context(), label, period)
	if err != nil {
		h.resp.Fail(c, err, "GET_HR_ANALYTICS_FAILED", "failed to fetch HR analytics")
		return
	}
	h.resp.OK(c, out)
}
