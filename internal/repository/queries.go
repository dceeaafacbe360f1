package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/jwalitptl/backoffice-api/internal/model"
	apperrors "github.com/jwalitptl/backoffice-api/pkg/errors"
	"github.com/jwalitptl/backoffice-api/pkg/query"
)

// ListOptions carries the optional filters shared by the per-owner queries.
type ListOptions struct {
	Status    string
	StartDate string
	EndDate   string
	Page      query.Pagination
}

// UserBookings lists the bookings a user made.
func (s *Store) UserBookings(ctx context.Context, userID string, opts ListOptions) (*Page[model.Booking], error) {
	return ownedBy(ctx, s.Bookings, "userId", userID, "scheduledAt", opts)
}

// MechanicBookings lists the bookings assigned to a mechanic.
func (s *Store) MechanicBookings(ctx context.Context, mechanicID string, opts ListOptions) (*Page[model.Booking], error) {
	return ownedBy(ctx, s.Bookings, "mechanicId", mechanicID, "scheduledAt", opts)
}

// UserPayments lists the payments a user made.
func (s *Store) UserPayments(ctx context.Context, userID string, opts ListOptions) (*Page[model.Payment], error) {
	return ownedBy(ctx, s.Payments, "userId", userID, "createdAt", opts)
}

// UserVehicles lists the vehicles registered to a user.
func (s *Store) UserVehicles(ctx context.Context, userID string, opts ListOptions) (*Page[model.Vehicle], error) {
	return ownedBy(ctx, s.Vehicles, "userId", userID, "createdAt", opts)
}

// UsersByRole lists users holding role, optionally narrowed by a search term
// over name and email.
func (s *Store) UsersByRole(ctx context.Context, role, search string, opts ListOptions) (*Page[model.User], error) {
	filter, err := query.NewFilter().
		Eq("role", role).
		Eq("status", opts.Status).
		DateRange("createdAt", opts.StartDate, opts.EndDate).
		Search(search, "name", "email").
		Build()
	if err != nil {
		return nil, apperrors.InvalidDateRange(err)
	}
	return s.Users.FindPage(ctx, filter, opts.Page, query.Desc("createdAt"))
}

// ownedBy keys a list on a foreign identifier and merges the optional status
// and date filters. An owner id that is not an ObjectID matches nothing.
func ownedBy[T any](ctx context.Context, f *Facade[T], field, ownerID, dateField string, opts ListOptions) (*Page[T], error) {
	filter, err := query.NewFilter().
		Merge(bson.M{field: query.NormalizeID(ownerID)}).
		Eq("status", opts.Status).
		DateRange(dateField, opts.StartDate, opts.EndDate).
		Build()
	if err != nil {
		return nil, apperrors.InvalidDateRange(err)
	}
	return f.FindPage(ctx, filter, opts.Page, query.Desc(dateField))
}
