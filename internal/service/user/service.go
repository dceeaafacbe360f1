package user

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/jwalitptl/backoffice-api/internal/model"
	"github.com/jwalitptl/backoffice-api/internal/repository"
	"github.com/jwalitptl/backoffice-api/internal/service/audit"
	apperrors "github.com/jwalitptl/backoffice-api/pkg/errors"
)

type UserServicer interface {
	ListUsers(ctx context.Context, role, search string, opts repository.ListOptions) (*repository.Page[model.User], error)
	GetUser(ctx context.Context, id string) (*model.User, error)
	UpdateStatus(ctx context.Context, id, status, actor string) (*model.User, error)
	UserBookings(ctx context.Context, userID string, opts repository.ListOptions) (*repository.Page[model.Booking], error)
	UserPayments(ctx context.Context, userID string, opts repository.ListOptions) (*repository.Page[model.Payment], error)
	UserVehicles(ctx context.Context, userID string, opts repository.ListOptions) (*repository.Page[model.Vehicle], error)
	MechanicBookings(ctx context.Context, mechanicID string, opts repository.ListOptions) (*repository.Page[model.Booking], error)
}

type Service struct {
	store   *repository.Store
	auditor *audit.Logger
}

func NewService(store *repository.Store, auditor *audit.Logger) *Service {
	return &Service{store: store, auditor: auditor}
}

func (s *Service) ListUsers(ctx context.Context, role, search string, opts repository.ListOptions) (*repository.Page[model.User], error) {
	return s.store.UsersByRole(ctx, role, search, opts)
}

func (s *Service) GetUser(ctx context.Context, id string) (*model.User, error) {
	u, err := s.store.Users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apperrors.NotFound("USER_NOT_FOUND", "user")
	}
	return u, nil
}

// UpdateStatus activates or suspends a platform user.
func (s *Service) UpdateStatus(ctx context.Context, id, status, actor string) (*model.User, error) {
	ok, err := s.store.Users.UpdateByID(ctx, id, bson.M{"status": status})
	if err != nil {
		return nil, fmt.Errorf("failed to update user status: %w", err)
	}
	if !ok {
		return nil, apperrors.NotFound("USER_NOT_FOUND", "user")
	}
	s.auditor.Log(ctx, audit.Entry{
		UserID:     actor,
		Action:     "update_status",
		Resource:   repository.CollUsers,
		ResourceID: id,
		Details:    "status=" + status,
	})
	return s.GetUser(ctx, id)
}

func (s *Service) UserBookings(ctx context.Context, userID string, opts repository.ListOptions) (*repository.Page[model.Booking], error) {
	return s.store.UserBookings(ctx, userID, opts)
}

func (s *Service) UserPayments(ctx context.Context, userID string, opts repository.ListOptions) (*repository.Page[model.Payment], error) {
	return s.store.UserPayments(ctx, userID, opts)
}

func (s *Service) UserVehicles(ctx context.Context, userID string, opts repository.ListOptions) (*repository.Page[model.Vehicle], error) {
	return s.store.UserVehicles(ctx, userID, opts)
}

func (s *Service) MechanicBookings(ctx context.Context, mechanicID string, opts repository.ListOptions) (*repository.Page[model.Booking], error) {
	return s.store.MechanicBookings(ctx, mechanicID, opts)
}
