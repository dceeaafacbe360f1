package analytics_test

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/backoffice-api/internal/cache"
	analyticsHandler "github.com/jwalitptl/backoffice-api/internal/handler/analytics"
	"github.com/jwalitptl/backoffice-api/internal/handler/handlertest"
	"github.com/jwalitptl/backoffice-api/internal/model"
	"github.com/jwalitptl/backoffice-api/internal/repository"
	"github.com/jwalitptl/backoffice-api/internal/service/analytics"
)

func setup(t *testing.T, ttl time.Duration) *handlertest.Env {
	env := handlertest.New(t)
	svc := analytics.NewService(env.Store, cache.New(ttl, nil))
	analyticsHandler.NewHandler(svc, env.Responder).RegisterRoutes(env.API)
	return env
}

func seed(t *testing.T, env *handlertest.Env) {
	handlertest.Seed(t, env.Store.Users,
		model.User{Name: "Ana", Email: "ana@example.com", Role: "customer", Status: "active"},
		model.User{Name: "Ben", Email: "ben@example.com", Role: "mechanic", Status: "active"},
		model.User{Name: "Cy", Email: "cy@example.com", Role: "customer", Status: "suspended"},
	)
	handlertest.Seed(t, env.Store.Bookings,
		model.Booking{ServiceType: "oil", Status: model.BookingCompleted, Amount: 80},
		model.Booking{ServiceType: "tyres", Status: model.BookingCompleted, Amount: 120},
		model.Booking{ServiceType: "brakes", Status: model.BookingPending, Amount: 200},
	)
	handlertest.Seed(t, env.Store.Payments,
		model.Payment{Amount: 100.5, Currency: "USD", Status: model.PaymentCompleted},
		model.Payment{Amount: 50, Currency: "USD", Status: model.PaymentCompleted},
		model.Payment{Amount: 30, Currency: "USD", Status: "pending"},
	)
	handlertest.Seed(t, env.Store.Vehicles,
		model.Vehicle{Make: "VW", Model: "Golf", Status: "active"},
		model.Vehicle{Make: "Fiat", Model: "Panda", Status: "retired"},
	)
	handlertest.Seed(t, env.Store.Alerts,
		model.Alert{Type: "db", Severity: "high", Status: model.AlertOpen, Title: "slow"},
		model.Alert{Type: "db", Severity: "low", Status: model.AlertResolved, Title: "old"},
	)
}

func TestDashboard(t *testing.T) {
	env := setup(t, 0)
	seed(t, env)

	res := env.Do(t, http.MethodGet, "/api/v1/analytics/dashboard", nil).StatusOK()
	var out model.DashboardMetrics
	res.Decode(&out)
	assert.Equal(t, "30d", out.Period)
	assert.Equal(t, int64(3), out.TotalUsers)
	assert.Equal(t, int64(3), out.NewUsers)
	assert.Equal(t, int64(3), out.TotalBookings)
	assert.Equal(t, []model.Count{{Key: "completed", Count: 2}, {Key: "pending", Count: 1}}, out.BookingsByStatus)
	assert.InDelta(t, 150.5, out.Revenue, 1e-9)
	assert.Equal(t, int64(1), out.ActiveVehicles)
	assert.Equal(t, int64(1), out.OpenAlerts)
}

func TestDashboardIsCachedPerPeriod(t *testing.T) {
	env := setup(t, time.Minute)
	seed(t, env)

	var first, second model.DashboardMetrics
	env.Do(t, http.MethodGet, "/api/v1/analytics/dashboard?period=7d", nil).StatusOK().Decode(&first)
	handlertest.Seed(t, env.Store.Users, model.User{Name: "Dee", Email: "dee@example.com", Role: "customer"})
	env.Do(t, http.MethodGet, "/api/v1/analytics/dashboard?period=7d", nil).StatusOK().Decode(&second)
	assert.Equal(t, first.TotalUsers, second.TotalUsers)

	var other model.DashboardMetrics
	env.Do(t, http.MethodGet, "/api/v1/analytics/dashboard?period=14d", nil).StatusOK().Decode(&other)
	assert.Equal(t, int64(4), other.TotalUsers)
}

func TestDashboardFailsAsAWhole(t *testing.T) {
	env := setup(t, 0)
	seed(t, env)
	env.DB.Fail(repository.CollPayments, errors.New("payments offline"))

	res := env.Do(t, http.MethodGet, "/api/v1/analytics/dashboard", nil)
	assert.Equal(t, http.StatusInternalServerError, res.Code)
	assert.Equal(t, "GET_DASHBOARD_FAILED", res.Envelope.Error)
	assert.Contains(t, res.Envelope.Detail, "payments offline")
	assert.Empty(t, res.Envelope.Data)
}

func TestRevenueUsersBookings(t *testing.T) {
	env := setup(t, 0)
	seed(t, env)

	var revenue model.RevenueAnalytics
	env.Do(t, http.MethodGet, "/api/v1/analytics/revenue?period=24h", nil).StatusOK().Decode(&revenue)
	assert.InDelta(t, 150.5, revenue.TotalRevenue, 1e-9)
	assert.Equal(t, int64(2), revenue.Payments)
	require.NotEmpty(t, revenue.Daily)

	var users model.UserAnalytics
	env.Do(t, http.MethodGet, "/api/v1/analytics/users", nil).StatusOK().Decode(&users)
	assert.Equal(t, int64(3), users.TotalUsers)
	assert.Equal(t, model.Count{Key: "customer", Count: 2}, users.RoleBreakdown[0])

	var bookings model.BookingAnalytics
	env.Do(t, http.MethodGet, "/api/v1/analytics/bookings", nil).StatusOK().Decode(&bookings)
	assert.Equal(t, int64(3), bookings.Total)
	assert.Len(t, bookings.ByStatus, 2)

	res := env.Do(t, http.MethodGet, "/api/v1/analytics/revenue?period=0d", nil)
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "INVALID_PERIOD", res.Envelope.Error)
}
