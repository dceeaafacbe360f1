package analytics

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/jwalitptl/backoffice-api/internal/cache"
	"github.com/jwalitptl/backoffice-api/internal/model"
	"github.com/jwalitptl/backoffice-api/internal/repository"
)

// Service computes platform metrics over a trailing period. Results are
// cached per period until the cache TTL expires.
type Service struct {
	store *repository.Store
	cache *cache.Cache
	now   func() time.Time
}

func NewService(store *repository.Store, c *cache.Cache) *Service {
	return &Service{store: store, cache: c, now: time.Now}
}

func (s *Service) since(period time.Duration) bson.M {
	return bson.M{"$gte": s.now().UTC().Add(-period)}
}

// Dashboard aggregates the headline counters. Any failing sub-query fails
// the whole dashboard.
func (s *Service) Dashboard(ctx context.Context, label string, period time.Duration) (*model.DashboardMetrics, error) {
	return cache.Remember(s.cache, cache.Key(cache.PrefixDashboard, label), func() (*model.DashboardMetrics, error) {
		window := bson.M{"createdAt": s.since(period)}
		out := &model.DashboardMetrics{Period: label}

		var err error
		if out.TotalUsers, err = s.store.Users.Count(ctx, nil); err != nil {
			return nil, err
		}
		if out.NewUsers, err = s.store.Users.Count(ctx, window); err != nil {
			return nil, err
		}
		if out.TotalBookings, err = s.store.Bookings.Count(ctx, window); err != nil {
			return nil, err
		}
		if out.BookingsByStatus, err = repository.Counts(ctx, s.store.Bookings, window, "status", 0); err != nil {
			return nil, err
		}
		revenue, err := repository.SumOf(ctx, s.store.Payments, completedPayments(window), "amount")
		if err != nil {
			return nil, err
		}
		out.Revenue = revenue.Total
		if out.ActiveVehicles, err = s.store.Vehicles.Count(ctx, bson.M{"status": "active"}); err != nil {
			return nil, err
		}
		if out.OpenAlerts, err = s.store.Alerts.Count(ctx, bson.M{"status": model.AlertOpen}); err != nil {
			return nil, err
		}
		return out, nil
	})
}

// Revenue reports completed payments per day.
func (s *Service) Revenue(ctx context.Context, label string, period time.Duration) (*model.RevenueAnalytics, error) {
	return cache.Remember(s.cache, cache.Key(cache.PrefixAnalytics, "revenue", label), func() (*model.RevenueAnalytics, error) {
		match := completedPayments(bson.M{"createdAt": s.since(period)})
		total, err := repository.SumOf(ctx, s.store.Payments, match, "amount")
		if err != nil {
			return nil, err
		}
		daily, err := repository.DailyCounts(ctx, s.store.Payments, match, "createdAt", "amount")
		if err != nil {
			return nil, err
		}
		return &model.RevenueAnalytics{
			Period:       label,
			TotalRevenue: total.Total,
			Payments:     total.Count,
			Daily:        daily,
		}, nil
	})
}

// Users reports signups per day and the role and status mix of all users.
func (s *Service) Users(ctx context.Context, label string, period time.Duration) (*model.UserAnalytics, error) {
	return cache.Remember(s.cache, cache.Key(cache.PrefixAnalytics, "users", label), func() (*model.UserAnalytics, error) {
		out := &model.UserAnalytics{Period: label}
		var err error
		if out.TotalUsers, err = s.store.Users.Count(ctx, nil); err != nil {
			return nil, err
		}
		if out.DailySignups, err = repository.DailyCounts(ctx, s.store.Users, bson.M{"createdAt": s.since(period)}, "createdAt", ""); err != nil {
			return nil, err
		}
		if out.RoleBreakdown, err = repository.Counts(ctx, s.store.Users, nil, "role", 0); err != nil {
			return nil, err
		}
		if out.StatusBreakdown, err = repository.Counts(ctx, s.store.Users, nil, "status", 0); err != nil {
			return nil, err
		}
		return out, nil
	})
}

// Bookings reports bookings by status and by day.
func (s *Service) Bookings(ctx context.Context, label string, period time.Duration) (*model.BookingAnalytics, error) {
	return cache.Remember(s.cache, cache.Key(cache.PrefixAnalytics, "bookings", label), func() (*model.BookingAnalytics, error) {
		window := bson.M{"createdAt": s.since(period)}
		out := &model.BookingAnalytics{Period: label}
		var err error
		if out.Total, err = s.store.Bookings.Count(ctx, window); err != nil {
			return nil, err
		}
		if out.ByStatus, err = repository.Counts(ctx, s.store.Bookings, window, "status", 0); err != nil {
			return nil, err
		}
		if out.Daily, err = repository.DailyCounts(ctx, s.store.Bookings, window, "createdAt", "amount"); err != nil {
			return nil, err
		}
		return out, nil
	})
}

func completedPayments(match bson.M) bson.M {
	out := bson.M{"status": model.PaymentCompleted}
	for k, v := range match {
		out[k] = v
	}
	return out
}
