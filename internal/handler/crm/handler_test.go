package crm_test

import (
	"net/http"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	crmHandler "github.com/jwalitptl/backoffice-api/internal/handler/crm"
	"github.com/jwalitptl/backoffice-api/internal/handler/handlertest"
	"github.com/jwalitptl/backoffice-api/internal/model"
	"github.com/jwalitptl/backoffice-api/internal/repository"
	"github.com/jwalitptl/backoffice-api/internal/service/audit"
	"github.com/jwalitptl/backoffice-api/internal/service/crm"
)

func setup(t *testing.T) *handlertest.Env {
	env := handlertest.New(t)
	svc := crm.NewService(env.Store, audit.NewLogger(audit.NewService(env.Store)))
	crmHandler.NewHandler(svc, env.Responder).RegisterRoutes(env.API)
	return env
}

func TestCustomerLifecycle(t *testing.T) {
	env := setup(t)

	res := env.Do(t, http.MethodPost, "/api/v1/crm/customers", map[string]string{"name": "Acme"})
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "MISSING_REQUIRED_FIELDS", res.Envelope.Error)

	var customer model.Customer
	res = env.Do(t, http.MethodPost, "/api/v1/crm/customers", map[string]string{"name": "Acme", "email": "Ops@Acme.io"})
	require.Equal(t, http.StatusCreated, res.Code)
	res.Decode(&customer)
	assert.Equal(t, "lead", customer.Status)
	assert.Equal(t, "website", customer.Source)
	assert.Equal(t, "ops@acme.io", customer.Email)
	id := customer.ID.Hex()

	env.Do(t, http.MethodPut, "/api/v1/crm/customers/"+id, map[string]string{"status": "active", "company": "Acme Ltd"}).StatusOK().Decode(&customer)
	assert.Equal(t, "active", customer.Status)
	assert.Equal(t, "Acme Ltd", customer.Company)
	assert.Equal(t, "Acme", customer.Name)

	env.Do(t, http.MethodGet, "/api/v1/crm/customers/"+id, nil).StatusOK().Decode(&customer)
	assert.Equal(t, "Acme Ltd", customer.Company)

	var customers []model.Customer
	env.Do(t, http.MethodGet, "/api/v1/crm/customers?search=acme&status=active", nil).StatusOK().Decode(&customers)
	assert.Len(t, customers, 1)

	env.Do(t, http.MethodDelete, "/api/v1/crm/customers/"+id, nil).StatusOK()
	res = env.Do(t, http.MethodGet, "/api/v1/crm/customers/"+id, nil)
	assert.Equal(t, http.StatusNotFound, res.Code)
	assert.Equal(t, crm.CodeCustomerNotFound, res.Envelope.Error)

	res = env.Do(t, http.MethodDelete, "/api/v1/crm/customers/"+id, nil)
	assert.Equal(t, http.StatusNotFound, res.Code)

	assert.Equal(t, 3, env.DB.Len(repository.CollAuditLogs))
}

func TestTickets(t *testing.T) {
	env := setup(t)

	var ticket model.Ticket
	res := env.Do(t, http.MethodPost, "/api/v1/crm/tickets", map[string]string{"subject": "Broken invoice", "priority": "high"})
	require.Equal(t, http.StatusCreated, res.Code)
	res.Decode(&ticket)
	assert.Regexp(t, regexp.MustCompile(`^TKT-[0-9A-F]{8}$`), ticket.Number)
	assert.Equal(t, model.TicketOpen, ticket.Status)
	assert.Nil(t, ticket.ResolvedAt)

	env.Do(t, http.MethodPost, "/api/v1/crm/tickets", map[string]string{"subject": "Question"}).Decode(&model.Ticket{})

	var tickets []model.Ticket
	env.Do(t, http.MethodGet, "/api/v1/crm/tickets?priority=high", nil).StatusOK().Decode(&tickets)
	require.Len(t, tickets, 1)
	assert.Equal(t, ticket.Number, tickets[0].Number)

	env.Do(t, http.MethodPut, "/api/v1/crm/tickets/"+ticket.ID.Hex(), map[string]string{"status": "resolved"}).StatusOK().Decode(&ticket)
	assert.Equal(t, model.TicketResolved, ticket.Status)
	assert.NotNil(t, ticket.ResolvedAt)

	res = env.Do(t, http.MethodPut, "/api/v1/crm/tickets/"+primitive.NewObjectID().Hex(), map[string]string{"status": "closed"})
	assert.Equal(t, http.StatusNotFound, res.Code)
	assert.Equal(t, crm.CodeTicketNotFound, res.Envelope.Error)
}

func TestHealthScores(t *testing.T) {
	env := setup(t)
	day := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	handlertest.Seed(t, env.Store.HealthScores,
		model.HealthScore{CustomerID: "c1", Score: 40, RiskLevel: "high", Date: day},
		model.HealthScore{CustomerID: "c1", Score: 80, RiskLevel: "low", Date: day.AddDate(0, 0, 5)},
		model.HealthScore{CustomerID: "c2", Score: 35, RiskLevel: "high", Date: day},
	)

	var scores []model.HealthScore
	env.Do(t, http.MethodGet, "/api/v1/crm/health-scores?customerId=c1", nil).StatusOK().Decode(&scores)
	require.Len(t, scores, 2)
	assert.Equal(t, 80, scores[0].Score)

	env.Do(t, http.MethodGet, "/api/v1/crm/health-scores?riskLevel=high&startDate=2024-06-10&endDate=2024-06-10", nil).StatusOK().Decode(&scores)
	assert.Len(t, scores, 2)

	res := env.Do(t, http.MethodGet, "/api/v1/crm/health-scores?startDate=2024-06-20&endDate=2024-06-01", nil)
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "INVALID_DATE_RANGE", res.Envelope.Error)
}

func TestCriticalAccounts(t *testing.T) {
	env := setup(t)

	res := env.Do(t, http.MethodPost, "/api/v1/crm/critical-accounts", map[string]interface{}{
		"customerId": "c1", "name": "Fleet Co", "reason": "churn risk", "riskLevel": "extreme",
	})
	assert.Equal(t, http.StatusBadRequest, res.Code)

	var account model.CriticalAccount
	res = env.Do(t, http.MethodPost, "/api/v1/crm/critical-accounts", map[string]interface{}{
		"customerId": "c1", "name": "Fleet Co", "reason": "churn risk", "riskLevel": "high", "revenue": 12000,
	})
	require.Equal(t, http.StatusCreated, res.Code)
	res.Decode(&account)
	assert.Equal(t, "active", account.Status)

	env.Do(t, http.MethodPut, "/api/v1/crm/critical-accounts/"+account.ID.Hex(), map[string]string{"status": "recovered"}).StatusOK().Decode(&account)
	assert.Equal(t, "recovered", account.Status)
	assert.Equal(t, 12000.0, account.Revenue)

	path := "/api/v1/crm/critical-accounts/" + account.ID.Hex()
	var action model.AccountAction
	ops := model.CurrentUser{ID: "u-ops", Email: "ops@example.com", Role: model.RoleCRMManager}
	res = env.DoAs(t, ops, http.MethodPost, path+"/actions", map[string]string{"action": "executive call", "notes": "renewal at risk"})
	require.Equal(t, http.StatusCreated, res.Code)
	res.Decode(&action)
	assert.True(t, strings.HasPrefix(action.ID, "ACT-"))
	assert.Equal(t, "pending", action.Status)
	assert.Equal(t, "medium", action.Priority)
	assert.Equal(t, "u-ops", action.AssignedTo)

	env.Do(t, http.MethodPost, path+"/actions", map[string]string{"action": "discount offer", "priority": "critical"}).StatusOK()

	env.Do(t, http.MethodGet, path, nil).StatusOK().Decode(&account)
	require.Len(t, account.Actions, 2)
	assert.Equal(t, "executive call", account.Actions[0].Action)
	assert.Equal(t, "critical", account.Actions[1].Priority)
	assert.Equal(t, "recovered", account.Status)

	res = env.Do(t, http.MethodPost, path+"/actions", map[string]string{"notes": "no action"})
	assert.Equal(t, http.StatusBadRequest, res.Code)

	res = env.Do(t, http.MethodPost, path+"/actions", map[string]string{"action": "x", "priority": "someday"})
	assert.Equal(t, http.StatusBadRequest, res.Code)

	missing := "/api/v1/crm/critical-accounts/" + primitive.NewObjectID().Hex()
	res = env.Do(t, http.MethodGet, missing, nil)
	assert.Equal(t, http.StatusNotFound, res.Code)
	assert.Equal(t, "CRITICAL_ACCOUNT_NOT_FOUND", res.Envelope.Error)

	res = env.Do(t, http.MethodPost, missing+"/actions", map[string]string{"action": "x"})
	assert.Equal(t, http.StatusNotFound, res.Code)
	assert.Equal(t, "CRITICAL_ACCOUNT_NOT_FOUND", res.Envelope.Error)
}

func TestAnalytics(t *testing.T) {
	env := setup(t)
	handlertest.Seed(t, env.Store.Customers,
		model.Customer{Name: "A", Status: "active", Source: "website"},
		model.Customer{Name: "B", Status: "active", Source: "referral"},
		model.Customer{Name: "C", Status: "lead", Source: "website"},
	)
	handlertest.Seed(t, env.Store.Tickets,
		model.Ticket{Subject: "x", Status: model.TicketOpen},
		model.Ticket{Subject: "y", Status: model.TicketClosed},
	)
	handlertest.Seed(t, env.Store.CriticalAccounts, model.CriticalAccount{Name: "A", Status: "active"})

	var out model.CRMAnalytics
	env.Do(t, http.MethodGet, "/api/v1/crm/analytics", nil).StatusOK().Decode(&out)
	assert.Equal(t, int64(3), out.TotalCustomers)
	assert.Equal(t, []model.Count{{Key: "active", Count: 2}, {Key: "lead", Count: 1}}, out.CustomersByStatus)
	assert.Equal(t, []model.Count{{Key: "website", Count: 2}, {Key: "referral", Count: 1}}, out.CustomersBySource)
	assert.Equal(t, int64(1), out.OpenTickets)
	assert.Equal(t, int64(1), out.CriticalAccounts)
	assert.Len(t, out.TicketsByStatus, 2)
}
