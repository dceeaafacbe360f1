package crm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/jwalitptl/backoffice-api/internal/model"
	"github.com/jwalitptl/backoffice-api/internal/repository"
	"github.com/jwalitptl/backoffice-api/internal/service"
	"github.com/jwalitptl/backoffice-api/internal/service/audit"
	apperrors "github.com/jwalitptl/backoffice-api/pkg/errors"
	"github.com/jwalitptl/backoffice-api/pkg/query"
)

const (
	CodeCustomerNotFound        = "CUSTOMER_NOT_FOUND"
	CodeTicketNotFound          = "TICKET_NOT_FOUND"
	CodeCriticalAccountNotFound = "CRITICAL_ACCOUNT_NOT_FOUND"
)

const (
	defaultCustomerStatus = "lead"
	defaultSource         = "website"
	defaultLeadStatus     = "new"
	defaultPriority       = "medium"
	defaultAccountStatus  = "active"
	ticketPrefix          = "TKT-"
	actionPrefix          = "ACT-"
	actionPending         = "pending"
)

type CustomerFilter struct {
	Status string
	Source string
	Search string
}

type LeadFilter struct {
	Status string
	Source string
}

type TicketFilter struct {
	Status     string
	Priority   string
	CustomerID string
}

type HealthScoreFilter struct {
	CustomerID string
	RiskLevel  string
	StartDate  string
	EndDate    string
}

type AccountFilter struct {
	Status    string
	RiskLevel string
}

// CustomerUpdate holds the customer fields a PUT may change. Zero fields are
// left untouched.
type CustomerUpdate struct {
	Name       string   `json:"name" bson:"name,omitempty"`
	Email      string   `json:"email" bson:"email,omitempty" binding:"omitempty,email"`
	Phone      string   `json:"phone" bson:"phone,omitempty"`
	Company    string   `json:"company" bson:"company,omitempty"`
	Status     string   `json:"status" bson:"status,omitempty"`
	Source     string   `json:"source" bson:"source,omitempty"`
	Tags       []string `json:"tags" bson:"tags,omitempty"`
	Value      *float64 `json:"value" bson:"value,omitempty" binding:"omitempty,gte=0"`
	AssignedTo string   `json:"assignedTo" bson:"assignedTo,omitempty"`
}

type TicketUpdate struct {
	Subject     string `json:"subject" bson:"subject,omitempty"`
	Description string `json:"description" bson:"description,omitempty"`
	Priority    string `json:"priority" bson:"priority,omitempty" binding:"omitempty,oneof=low medium high urgent"`
	Status      string `json:"status" bson:"status,omitempty"`
	AssignedTo  string `json:"assignedTo" bson:"assignedTo,omitempty"`
}

type AccountUpdate struct {
	Reason    string   `json:"reason" bson:"reason,omitempty"`
	RiskLevel string   `json:"riskLevel" bson:"riskLevel,omitempty"`
	Status    string   `json:"status" bson:"status,omitempty"`
	Owner     string   `json:"owner" bson:"owner,omitempty"`
	Revenue   *float64 `json:"revenue" bson:"revenue,omitempty" binding:"omitempty,gte=0"`
}

type Service struct {
	store   *repository.Store
	auditor *audit.Logger
	now     func() time.Time
}

func NewService(store *repository.Store, auditor *audit.Logger) *Service {
	return &Service{store: store, auditor: auditor, now: time.Now}
}

func (s *Service) ListCustomers(ctx context.Context, f CustomerFilter, page query.Pagination) (*repository.Page[model.Customer], error) {
	filter, err := query.NewFilter().
		Eq("status", f.Status).
		Eq("source", f.Source).
		Search(f.Search, "name", "email", "company").
		Build()
	if err != nil {
		return nil, err
	}
	return s.store.Customers.FindPage(ctx, filter, page, query.Desc("createdAt"))
}

func (s *Service) GetCustomer(ctx context.Context, id string) (*model.Customer, error) {
	return service.Get(ctx, s.store.Customers, id, CodeCustomerNotFound, "customer")
}

func (s *Service) CreateCustomer(ctx context.Context, c *model.Customer, actor string) error {
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	if c.Status == "" {
		c.Status = defaultCustomerStatus
	}
	if c.Source == "" {
		c.Source = defaultSource
	}
	if err := s.store.Customers.Create(ctx, c); err != nil {
		return fmt.Errorf("failed to create customer: %w", err)
	}
	s.auditor.Log(ctx, audit.Entry{UserID: actor, Action: "create", Resource: repository.CollCustomers, ResourceID: c.ID.Hex()})
	return nil
}

func (s *Service) UpdateCustomer(ctx context.Context, id string, patch CustomerUpdate, actor string) (*model.Customer, error) {
	patch.Email = strings.ToLower(strings.TrimSpace(patch.Email))
	c, err := service.Update(ctx, s.store.Customers, id, patch, CodeCustomerNotFound, "customer")
	if err != nil {
		return nil, err
	}
	s.auditor.Log(ctx, audit.Entry{UserID: actor, Action: "update", Resource: repository.CollCustomers, ResourceID: id})
	return c, nil
}

func (s *Service) DeleteCustomer(ctx context.Context, id, actor string) error {
	if err := service.Delete(ctx, s.store.Customers, id, CodeCustomerNotFound, "customer"); err != nil {
		return err
	}
	s.auditor.Log(ctx, audit.Entry{UserID: actor, Action: "delete", Resource: repository.CollCustomers, ResourceID: id})
	return nil
}

func (s *Service) ListLeads(ctx context.Context, f LeadFilter, page query.Pagination) (*repository.Page[model.Lead], error) {
	filter, err := query.NewFilter().
		Eq("status", f.Status).
		Eq("source", f.Source).
		Build()
	if err != nil {
		return nil, err
	}
	return s.store.CRMLeads.FindPage(ctx, filter, page, query.Desc("createdAt"))
}

func (s *Service) CreateLead(ctx context.Context, l *model.Lead) error {
	l.Email = strings.ToLower(strings.TrimSpace(l.Email))
	if l.Status == "" {
		l.Status = defaultLeadStatus
	}
	if l.Source == "" {
		l.Source = defaultSource
	}
	if err := s.store.CRMLeads.Create(ctx, l); err != nil {
		return fmt.Errorf("failed to create lead: %w", err)
	}
	return nil
}

func (s *Service) ListTickets(ctx context.Context, f TicketFilter, page query.Pagination) (*repository.Page[model.Ticket], error) {
	filter, err := query.NewFilter().
		Eq("status", f.Status).
		Eq("priority", f.Priority).
		Eq("customerId", f.CustomerID).
		Build()
	if err != nil {
		return nil, err
	}
	return s.store.Tickets.FindPage(ctx, filter, page, query.Desc("createdAt"))
}

// CreateTicket opens a support ticket with a generated TKT- reference.
func (s *Service) CreateTicket(ctx context.Context, t *model.Ticket) error {
	t.Number = service.Reference(ticketPrefix)
	if t.Status == "" {
		t.Status = model.TicketOpen
	}
	if t.Priority == "" {
		t.Priority = defaultPriority
	}
	if err := s.store.Tickets.Create(ctx, t); err != nil {
		return fmt.Errorf("failed to create ticket: %w", err)
	}
	return nil
}

// UpdateTicket stamps resolvedAt when the ticket moves to resolved or closed.
func (s *Service) UpdateTicket(ctx context.Context, id string, patch TicketUpdate) (*model.Ticket, error) {
	set, err := repository.SetFields(patch)
	if err != nil {
		return nil, err
	}
	if patch.Status == model.TicketResolved || patch.Status == model.TicketClosed {
		set["resolvedAt"] = s.now().UTC()
	}
	return service.Update(ctx, s.store.Tickets, id, set, CodeTicketNotFound, "ticket")
}

func (s *Service) ListHealthScores(ctx context.Context, f HealthScoreFilter, page query.Pagination) (*repository.Page[model.HealthScore], error) {
	filter, err := query.NewFilter().
		Eq("customerId", f.CustomerID).
		Eq("riskLevel", f.RiskLevel).
		DateRange("date", f.StartDate, f.EndDate).
		Build()
	if err != nil {
		return nil, apperrors.InvalidDateRange(err)
	}
	return s.store.HealthScores.FindPage(ctx, filter, page, query.Desc("date"))
}

func (s *Service) ListCriticalAccounts(ctx context.Context, f AccountFilter, page query.Pagination) (*repository.Page[model.CriticalAccount], error) {
	filter, err := query.NewFilter().
		Eq("status", f.Status).
		Eq("riskLevel", f.RiskLevel).
		Build()
	if err != nil {
		return nil, err
	}
	return s.store.CriticalAccounts.FindPage(ctx, filter, page, query.Desc("revenue"))
}

func (s *Service) CreateCriticalAccount(ctx context.Context, a *model.CriticalAccount) error {
	if a.Status == "" {
		a.Status = defaultAccountStatus
	}
	if err := s.store.CriticalAccounts.Create(ctx, a); err != nil {
		return fmt.Errorf("failed to create critical account: %w", err)
	}
	return nil
}

func (s *Service) GetCriticalAccount(ctx context.Context, id string) (*model.CriticalAccount, error) {
	return service.Get(ctx, s.store.CriticalAccounts, id, CodeCriticalAccountNotFound, "critical account")
}

func (s *Service) UpdateCriticalAccount(ctx context.Context, id string, patch AccountUpdate) (*model.CriticalAccount, error) {
	return service.Update(ctx, s.store.CriticalAccounts, id, patch, CodeCriticalAccountNotFound, "critical account")
}

// AddAccountAction appends a pending follow-up, assigned to actor, to the
// critical account's action list.
func (s *Service) AddAccountAction(ctx context.Context, id string, a *model.AccountAction, actor string) error {
	oid, ok := query.ObjectID(id)
	if !ok {
		return apperrors.NotFound(CodeCriticalAccountNotFound, "critical account")
	}
	a.ID = service.Reference(actionPrefix)
	a.Status = actionPending
	a.AssignedTo = actor
	a.CreatedAt = s.now().UTC()
	if a.Priority == "" {
		a.Priority = defaultPriority
	}

	account, err := s.store.CriticalAccounts.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$push": bson.M{"actions": *a}},
		false,
	)
	if err != nil {
		return fmt.Errorf("failed to add account action: %w", err)
	}
	if account == nil {
		return apperrors.NotFound(CodeCriticalAccountNotFound, "critical account")
	}
	s.auditor.Log(ctx, audit.Entry{UserID: actor, Action: "add_action", Resource: repository.CollCriticalAccounts, ResourceID: id, Details: a.Action})
	return nil
}

// Analytics summarises the customer base and the support queue.
func (s *Service) Analytics(ctx context.Context) (*model.CRMAnalytics, error) {
	var (
		out model.CRMAnalytics
		err error
	)
	if out.TotalCustomers, err = s.store.Customers.Count(ctx, nil); err != nil {
		return nil, err
	}
	if out.CustomersByStatus, err = repository.Counts(ctx, s.store.Customers, nil, "status", 0); err != nil {
		return nil, err
	}
	if out.CustomersBySource, err = repository.Counts(ctx, s.store.Customers, nil, "source", 0); err != nil {
		return nil, err
	}
	if out.TicketsByStatus, err = repository.Counts(ctx, s.store.Tickets, nil, "status", 0); err != nil {
		return nil, err
	}
	if out.OpenTickets, err = s.store.Tickets.Count(ctx, bson.M{"status": model.TicketOpen}); err != nil {
		return nil, err
	}
	if out.CriticalAccounts, err = s.store.CriticalAccounts.Count(ctx, bson.M{"status": defaultAccountStatus}); err != nil {
		return nil, err
	}
	return &out, nil
}
