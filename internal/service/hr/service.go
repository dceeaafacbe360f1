package hr

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/jwalitptl/backoffice-api/internal/email"
	"github.com/jwalitptl/backoffice-api/internal/model"
	"github.com/jwalitptl/backoffice-api/internal/repository"
	"github.com/jwalitptl/backoffice-api/internal/service"
	"github.com/jwalitptl/backoffice-api/internal/service/audit"
	apperrors "github.com/jwalitptl/backoffice-api/pkg/errors"
	"github.com/jwalitptl/backoffice-api/pkg/messaging"
	"github.com/jwalitptl/backoffice-api/pkg/query"
)

const (
	CodeEmployeeExists   = "EMPLOYEE_EXISTS"
	CodeEmployeeNotFound = "EMPLOYEE_NOT_FOUND"
)

const (
	StatusActive     = "active"
	StatusPending    = "pending"
	PostingOpen      = "open"
	employeeIDFmt    = "EMP%04d"
	employeeSequence = "employeeId"
	maxIDAttempts    = 5
	periodLayout     = "2006-01"
)

type EmployeeFilter struct {
	Department string
	Status     string
	Search     string
}

type PayrollFilter struct {
	EmployeeID string
	Period     string
	Status     string
}

type PostingFilter struct {
	Status     string
	Department string
}

type ApplicationFilter struct {
	Status     string
	Position   string
	Department string
}

// EmployeeUpdate holds the employee fields a PUT may change.
type EmployeeUpdate struct {
	FirstName  string   `json:"firstName" bson:"firstName,omitempty"`
	LastName   string   `json:"lastName" bson:"lastName,omitempty"`
	Phone      string   `json:"phone" bson:"phone,omitempty"`
	Department string   `json:"department" bson:"department,omitempty"`
	Position   string   `json:"position" bson:"position,omitempty"`
	Status     string   `json:"status" bson:"status,omitempty" binding:"omitempty,oneof=active inactive on_leave terminated"`
	Salary     *float64 `json:"salary" bson:"salary,omitempty" binding:"omitempty,gte=0"`
	ManagerID  string   `json:"managerId" bson:"managerId,omitempty"`
}

type Service struct {
	store     *repository.Store
	mailer    email.Service
	publisher messaging.Publisher
	auditor   *audit.Logger
	now       func() time.Time
}

func NewService(store *repository.Store, mailer email.Service, publisher messaging.Publisher, auditor *audit.Logger) *Service {
	return &Service{
		store:     store,
		mailer:    mailer,
		publisher: publisher,
		auditor:   auditor,
		now:       time.Now,
	}
}

func (s *Service) ListEmployees(ctx context.Context, f EmployeeFilter, page query.Pagination) (*repository.Page[model.Employee], error) {
	filter, err := query.NewFilter().
		Eq("department", f.Department).
		Eq("status", f.Status).
		Search(f.Search, "firstName", "lastName", "email", "employeeId").
		Build()
	if err != nil {
		return nil, err
	}
	return s.store.Employees.FindPage(ctx, filter, page, query.Desc("createdAt"))
}

func (s *Service) GetEmployee(ctx context.Context, id string) (*model.Employee, error) {
	return service.Get(ctx, s.store.Employees, id, CodeEmployeeNotFound, "employee")
}

// CreateEmployee registers a new hire. Emails are unique case-insensitively.
// Employee ids come from a counter, so an id is never issued twice even after
// its employee is deleted.
func (s *Service) CreateEmployee(ctx context.Context, e *model.Employee, actor string) error {
	e.Email = strings.ToLower(strings.TrimSpace(e.Email))

	if err := s.ensureEmailFree(ctx, e.Email); err != nil {
		return err
	}
	if e.Status == "" {
		e.Status = StatusActive
	}
	if e.HireDate.IsZero() {
		e.HireDate = s.now().UTC()
	}
	if err := s.insertEmployee(ctx, e); err != nil {
		return err
	}

	if err := s.mailer.SendWelcome(ctx, e.Email, e.FullName()); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("employee_id", e.EmployeeID).Msg("failed to send welcome email")
	}
	s.auditor.Log(ctx, audit.Entry{UserID: actor, Action: "create", Resource: repository.CollEmployees, ResourceID: e.ID.Hex()})
	messaging.Emit(ctx, s.publisher, messaging.NewEvent(messaging.EventEmployeeCreated, actor, bson.M{
		"id":         e.ID.Hex(),
		"employeeId": e.EmployeeID,
		"department": e.Department,
	}))
	return nil
}

func (s *Service) ensureEmailFree(ctx context.Context, email string) error {
	existing, err := s.store.Employees.FindOne(ctx, bson.M{"email": email})
	if err != nil {
		return err
	}
	if existing != nil {
		return apperrors.Conflict(CodeEmployeeExists, "employee with this email already exists")
	}
	return nil
}

// insertEmployee assigns the next employee id and inserts e. A unique key
// clash means either the email was taken meanwhile or the id is held by a
// record the counter never saw, in which case the next id is tried.
func (s *Service) insertEmployee(ctx context.Context, e *model.Employee) error {
	for attempt := 1; ; attempt++ {
		seq, err := s.store.NextSequence(ctx, employeeSequence)
		if err != nil {
			return err
		}
		e.EmployeeID = fmt.Sprintf(employeeIDFmt, seq)

		err = s.store.Employees.Create(ctx, e)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrDuplicateKey) || attempt == maxIDAttempts {
			return fmt.Errorf("failed to create employee: %w", err)
		}
		if err := s.ensureEmailFree(ctx, e.Email); err != nil {
			return err
		}
		log.Ctx(ctx).Debug().Str("employee_id", e.EmployeeID).Msg("employee id taken, advancing sequence")
	}
}

func (s *Service) UpdateEmployee(ctx context.Context, id string, patch EmployeeUpdate, actor string) (*model.Employee, error) {
	e, err := service.Update(ctx, s.store.Employees, id, patch, CodeEmployeeNotFound, "employee")
	if err != nil {
		return nil, err
	}
	s.auditor.Log(ctx, audit.Entry{UserID: actor, Action: "update", Resource: repository.CollEmployees, ResourceID: id})
	return e, nil
}

func (s *Service) DeleteEmployee(ctx context.Context, id, actor string) error {
	if err := service.Delete(ctx, s.store.Employees, id, CodeEmployeeNotFound, "employee"); err != nil {
		return err
	}
	s.auditor.Log(ctx, audit.Entry{UserID: actor, Action: "delete", Resource: repository.CollEmployees, ResourceID: id})
	return nil
}

func (s *Service) ListPayroll(ctx context.Context, f PayrollFilter, page query.Pagination) (*repository.Page[model.PayrollRecord], error) {
	filter, err := query.NewFilter().
		Eq("employeeId", f.EmployeeID).
		Eq("period", f.Period).
		Eq("status", f.Status).
		Build()
	if err != nil {
		return nil, err
	}
	return s.store.Payroll.FindPage(ctx, filter, page, query.Desc("period"))
}

// CreatePayroll records a pay run. A missing net pay is derived from gross
// pay and deductions.
func (s *Service) CreatePayroll(ctx context.Context, p *model.PayrollRecord) error {
	if p.NetPay == 0 {
		p.NetPay = p.GrossPay - p.Deductions
	}
	if p.Status == "" {
		p.Status = StatusPending
	}
	if err := s.store.Payroll.Create(ctx, p); err != nil {
		return fmt.Errorf("failed to create payroll record: %w", err)
	}
	return nil
}

func (s *Service) ListPostings(ctx context.Context, f PostingFilter, page query.Pagination) (*repository.Page[model.JobPosting], error) {
	filter, err := query.NewFilter().
		Eq("status", f.Status).
		Eq("department", f.Department).
		Build()
	if err != nil {
		return nil, err
	}
	return s.store.JobPostings.FindPage(ctx, filter, page, query.Desc("createdAt"))
}

func (s *Service) CreatePosting(ctx context.Context, p *model.JobPosting) error {
	if p.Status == "" {
		p.Status = PostingOpen
	}
	if p.Openings == 0 {
		p.Openings = 1
	}
	if err := s.store.JobPostings.Create(ctx, p); err != nil {
		return fmt.Errorf("failed to create job posting: %w", err)
	}
	return nil
}

func (s *Service) Stats(ctx context.Context) (*model.HRStats, error) {
	var (
		out model.HRStats
		err error
	)
	if out.TotalEmployees, err = s.store.Employees.Count(ctx, nil); err != nil {
		return nil, err
	}
	if out.ActiveEmployees, err = s.store.Employees.Count(ctx, bson.M{"status": StatusActive}); err != nil {
		return nil, err
	}
	if out.ByDepartment, err = repository.Counts(ctx, s.store.Employees, nil, "department", 0); err != nil {
		return nil, err
	}
	if out.ByStatus, err = repository.Counts(ctx, s.store.Employees, nil, "status", 0); err != nil {
		return nil, err
	}
	if out.OpenPositions, err = s.store.JobPostings.Count(ctx, bson.M{"status": PostingOpen}); err != nil {
		return nil, err
	}
	if out.PendingApplications, err = s.store.JobApplications.Count(ctx, bson.M{"status": StatusPending}); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Service) ListApplications(ctx context.Context, f ApplicationFilter, page query.Pagination) (*repository.Page[model.JobApplication], error) {
	filter, err := query.NewFilter().
		Eq("status", f.Status).
		Eq("position", f.Position).
		Eq("department", f.Department).
		Build()
	if err != nil {
		return nil, err
	}
	return s.store.JobApplications.FindPage(ctx, filter, page, query.Desc("createdAt"))
}

// Analytics reports headcount, hires within the trailing period, the
// current month's payroll and the recruitment pipeline.
func (s *Service) Analytics(ctx context.Context, label string, period time.Duration) (*model.HRAnalytics, error) {
	now := s.now().UTC()
	out := &model.HRAnalytics{Period: label, GeneratedAt: now}

	var err error
	if out.TotalEmployees, err = s.store.Employees.Count(ctx, nil); err != nil {
		return nil, err
	}
	if out.ActiveEmployees, err = s.store.Employees.Count(ctx, bson.M{"status": StatusActive}); err != nil {
		return nil, err
	}
	hired := bson.M{"hireDate": bson.M{"$gte": now.Add(-period)}}
	if out.NewHires, err = s.store.Employees.Count(ctx, hired); err != nil {
		return nil, err
	}
	if out.ByDepartment, err = repository.Counts(ctx, s.store.Employees, nil, "department", 0); err != nil {
		return nil, err
	}

	month := bson.M{"period": now.Format(periodLayout)}
	gross, err := repository.SumOf(ctx, s.store.Payroll, month, "grossPay")
	if err != nil {
		return nil, err
	}
	net, err := repository.SumOf(ctx, s.store.Payroll, month, "netPay")
	if err != nil {
		return nil, err
	}
	out.Payroll = model.PayrollSummary{
		Period:     now.Format(periodLayout),
		Records:    gross.Count,
		TotalGross: gross.Total,
		TotalNet:   net.Total,
	}

	if out.ApplicationsByStatus, err = repository.Counts(ctx, s.store.JobApplications, nil, "status", 0); err != nil {
		return nil, err
	}
	return out, nil
}
