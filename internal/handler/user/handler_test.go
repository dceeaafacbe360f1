package user_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/jwalitptl/backoffice-api/internal/handler/handlertest"
	userHandler "github.com/jwalitptl/backoffice-api/internal/handler/user"
	"github.com/jwalitptl/backoffice-api/internal/model"
	"github.com/jwalitptl/backoffice-api/internal/service/audit"
	"github.com/jwalitptl/backoffice-api/internal/service/user"
)

func setup(t *testing.T) *handlertest.Env {
	env := handlertest.New(t)
	svc := user.NewService(env.Store, audit.NewLogger(audit.NewService(env.Store)))
	userHandler.NewHandler(svc, env.Responder).RegisterRoutes(env.API)
	return env
}

func TestListUsers(t *testing.T) {
	env := setup(t)
	handlertest.Seed(t, env.Store.Users,
		model.User{Name: "Ana Lopez", Email: "ana@example.com", Role: "customer", Status: "active"},
		model.User{Name: "Ben Ode", Email: "ben@garage.io", Role: "mechanic", Status: "active"},
		model.User{Name: "Cy Ana", Email: "cy@example.com", Role: "customer", Status: "suspended"},
	)

	res := env.Do(t, http.MethodGet, "/api/v1/users?role=customer", nil).StatusOK()
	var users []model.User
	res.Decode(&users)
	assert.Len(t, users, 2)
	assert.Equal(t, 20, res.Envelope.Pagination.Limit)

	res = env.Do(t, http.MethodGet, "/api/v1/users?search=ana&status=active", nil).StatusOK()
	res.Decode(&users)
	require.Len(t, users, 1)
	assert.Equal(t, "Ana Lopez", users[0].Name)

	res = env.Do(t, http.MethodGet, "/api/v1/users?search=a.b", nil).StatusOK()
	res.Decode(&users)
	assert.Empty(t, users)
}

func TestGetUserAndStatus(t *testing.T) {
	env := setup(t)
	seeded := handlertest.Seed(t, env.Store.Users, model.User{Name: "Ana", Email: "ana@example.com", Role: "customer", Status: "active"})
	id := seeded[0].ID.Hex()

	var got model.User
	env.Do(t, http.MethodGet, "/api/v1/users/"+id, nil).StatusOK().Decode(&got)
	assert.Equal(t, "ana@example.com", got.Email)

	res := env.Do(t, http.MethodGet, "/api/v1/users/"+primitive.NewObjectID().Hex(), nil)
	assert.Equal(t, http.StatusNotFound, res.Code)
	assert.Equal(t, "USER_NOT_FOUND", res.Envelope.Error)

	res = env.Do(t, http.MethodPut, "/api/v1/users/"+id+"/status", map[string]string{"status": "banned"})
	assert.Equal(t, http.StatusBadRequest, res.Code)

	env.Do(t, http.MethodPut, "/api/v1/users/"+id+"/status", map[string]string{"status": "suspended"}).StatusOK().Decode(&got)
	assert.Equal(t, "suspended", got.Status)
	assert.Equal(t, 1, env.DB.Len("audit_logs"))
}

func TestOwnerLists(t *testing.T) {
	env := setup(t)
	owner := primitive.NewObjectID()
	mechanic := primitive.NewObjectID()
	march := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	handlertest.Seed(t, env.Store.Bookings,
		model.Booking{UserID: owner, MechanicID: mechanic, Status: model.BookingCompleted, ScheduledAt: march},
		model.Booking{UserID: owner, Status: model.BookingPending, ScheduledAt: march.AddDate(0, 1, 0)},
		model.Booking{UserID: primitive.NewObjectID(), MechanicID: mechanic, Status: model.BookingPending, ScheduledAt: march},
	)
	handlertest.Seed(t, env.Store.Payments, model.Payment{UserID: owner, Amount: 10, Status: model.PaymentCompleted})
	handlertest.Seed(t, env.Store.Vehicles, model.Vehicle{UserID: owner, Make: "VW", Model: "Golf", Status: "active"})

	var bookings []model.Booking
	res := env.Do(t, http.MethodGet, "/api/v1/users/"+owner.Hex()+"/bookings", nil).StatusOK()
	res.Decode(&bookings)
	require.Len(t, bookings, 2)
	assert.Equal(t, model.BookingPending, bookings[0].Status)

	res = env.Do(t, http.MethodGet, "/api/v1/users/"+owner.Hex()+"/bookings?status=completed&startDate=2024-03-01&endDate=2024-03-31", nil).StatusOK()
	res.Decode(&bookings)
	assert.Len(t, bookings, 1)

	res = env.Do(t, http.MethodGet, "/api/v1/users/mechanics/"+mechanic.Hex()+"/bookings", nil).StatusOK()
	res.Decode(&bookings)
	assert.Len(t, bookings, 2)

	var payments []model.Payment
	env.Do(t, http.MethodGet, "/api/v1/users/"+owner.Hex()+"/payments", nil).StatusOK().Decode(&payments)
	assert.Len(t, payments, 1)

	var vehicles []model.Vehicle
	env.Do(t, http.MethodGet, "/api/v1/users/"+owner.Hex()+"/vehicles", nil).StatusOK().Decode(&vehicles)
	assert.Len(t, vehicles, 1)

	res = env.Do(t, http.MethodGet, "/api/v1/users/not-an-id/bookings", nil).StatusOK()
	res.Decode(&bookings)
	assert.Empty(t, bookings)

	res = env.Do(t, http.MethodGet, "/api/v1/users/"+owner.Hex()+"/bookings?endDate=31/03/2024", nil)
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "INVALID_DATE_RANGE", res.Envelope.Error)
}
