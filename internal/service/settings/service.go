package settings

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/jwalitptl/backoffice-api/internal/cache"
	"github.com/jwalitptl/backoffice-api/internal/model"
	"github.com/jwalitptl/backoffice-api/internal/repository"
	"github.com/jwalitptl/backoffice-api/internal/service/audit"
	apperrors "github.com/jwalitptl/backoffice-api/pkg/errors"
	"github.com/jwalitptl/backoffice-api/pkg/messaging"
	"github.com/jwalitptl/backoffice-api/pkg/query"
)

// Validation codes
const (
	CodeInvalidSettings = "INVALID_SETTINGS"
	CodeInvalidConfig   = "INVALID_CONFIG"
	CodeAlertNotFound   = "ALERT_NOT_FOUND"
)

// AlertFilter narrows the alert list.
type AlertFilter struct {
	Severity string
	Status   string
	Type     string
}

type Service struct {
	store     *repository.Store
	publisher messaging.Publisher
	cache     *cache.Cache
	auditor   *audit.Logger
	now       func() time.Time
}

func NewService(store *repository.Store, publisher messaging.Publisher, c *cache.Cache, auditor *audit.Logger) *Service {
	return &Service{
		store:     store,
		publisher: publisher,
		cache:     c,
		auditor:   auditor,
		now:       time.Now,
	}
}

// AllSettings returns every setting grouped by category then key.
func (s *Service) AllSettings(ctx context.Context) (map[string]map[string]interface{}, error) {
	rows, err := s.store.Settings.FindAll(ctx, nil, query.Asc("category"))
	if err != nil {
		return nil, err
	}
	out := make(map[string]map[string]interface{})
	for _, row := range rows {
		if out[row.Category] == nil {
			out[row.Category] = make(map[string]interface{})
		}
		out[row.Category][row.Key] = row.Value
	}
	return out, nil
}

// Category returns the key/value map of one category. An unknown category
// yields an empty map.
func (s *Service) Category(ctx context.Context, category string) (map[string]interface{}, error) {
	rows, err := s.store.Settings.FindAll(ctx, bson.M{"category": category}, query.Asc("key"))
	if err != nil {
		return nil, err
	}
	out := make(map[string]interface{}, len(rows))
	for _, row := range rows {
		out[row.Key] = row.Value
	}
	return out, nil
}

// UpdateCategory upserts one document per key of values. Writing the same
// values twice leaves the store unchanged apart from updatedAt.
func (s *Service) UpdateCategory(ctx context.Context, category string, values map[string]interface{}, actor string) (map[string]interface{}, error) {
	if len(values) == 0 {
		return nil, apperrors.Validation(CodeInvalidSettings, "settings must be a non-empty object", nil)
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		filter := bson.M{"category": category, "key": key}
		patch := bson.M{"value": values[key], "updatedBy": actor}
		if _, err := s.store.Settings.Upsert(ctx, filter, patch); err != nil {
			return nil, fmt.Errorf("failed to save setting %s.%s: %w", category, key, err)
		}
	}

	s.auditor.Log(ctx, audit.Entry{UserID: actor, Action: "update", Resource: repository.CollSettings, ResourceID: category})
	messaging.Emit(ctx, s.publisher, messaging.NewEvent(messaging.EventSettingsUpdated, actor, bson.M{
		"category": category,
		"keys":     keys,
	}))
	return s.Category(ctx, category)
}

// Config returns the global system configuration, or an empty one when none
// has been saved.
func (s *Service) Config(ctx context.Context) (*model.SystemConfig, error) {
	cfg, err := s.store.SystemConfig.FindOne(ctx, bson.M{"key": model.SystemConfigKey})
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return &model.SystemConfig{Key: model.SystemConfigKey, Config: map[string]interface{}{}}, nil
	}
	if cfg.Config == nil {
		cfg.Config = map[string]interface{}{}
	}
	return cfg, nil
}

// UpdateConfig replaces the global system configuration.
func (s *Service) UpdateConfig(ctx context.Context, config map[string]interface{}, actor string) (*model.SystemConfig, error) {
	if config == nil {
		return nil, apperrors.Validation(CodeInvalidConfig, "config must be an object", nil)
	}

	filter := bson.M{"key": model.SystemConfigKey}
	if _, err := s.store.SystemConfig.Upsert(ctx, filter, bson.M{"config": config, "updatedBy": actor}); err != nil {
		return nil, fmt.Errorf("failed to save system config: %w", err)
	}

	s.auditor.Log(ctx, audit.Entry{UserID: actor, Action: "update", Resource: repository.CollSystemConfig, ResourceID: model.SystemConfigKey})
	messaging.Emit(ctx, s.publisher, messaging.NewEvent(messaging.EventSystemConfigUpdated, actor, config))
	return s.Config(ctx)
}

func (s *Service) ListAlerts(ctx context.Context, f AlertFilter, page query.Pagination) (*repository.Page[model.Alert], error) {
	filter, err := query.NewFilter().
		Eq("severity", f.Severity).
		Eq("status", f.Status).
		Eq("type", f.Type).
		Build()
	if err != nil {
		return nil, err
	}
	return s.store.Alerts.FindPage(ctx, filter, page, query.Desc("timestamp"))
}

func (s *Service) CreateAlert(ctx context.Context, alert *model.Alert, actor string) error {
	if alert.Status == "" {
		alert.Status = model.AlertOpen
	}
	if alert.Timestamp.IsZero() {
		alert.Timestamp = s.now().UTC()
	}
	if err := s.store.Alerts.Create(ctx, alert); err != nil {
		return fmt.Errorf("failed to create alert: %w", err)
	}
	s.cache.Invalidate(cache.PrefixDashboard)
	messaging.Emit(ctx, s.publisher, messaging.NewEvent(messaging.EventAlertCreated, actor, alert))
	return nil
}

// AcknowledgeAlert marks an alert as seen by actor.
func (s *Service) AcknowledgeAlert(ctx context.Context, id, actor string) (*model.Alert, error) {
	return s.transitionAlert(ctx, id, messaging.EventAlertAcknowledged, bson.M{
		"status":         model.AlertAcknowledged,
		"acknowledgedBy": actor,
		"acknowledgedAt": s.now().UTC(),
	}, actor)
}

// ResolveAlert closes an alert.
func (s *Service) ResolveAlert(ctx context.Context, id, actor string) (*model.Alert, error) {
	return s.transitionAlert(ctx, id, messaging.EventAlertResolved, bson.M{
		"status":     model.AlertResolved,
		"resolvedBy": actor,
		"resolvedAt": s.now().UTC(),
	}, actor)
}

func (s *Service) transitionAlert(ctx context.Context, id, eventType string, patch bson.M, actor string) (*model.Alert, error) {
	ok, err := s.store.Alerts.UpdateByID(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to update alert: %w", err)
	}
	if !ok {
		return nil, apperrors.NotFound(CodeAlertNotFound, "alert")
	}
	alert, err := s.store.Alerts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if alert == nil {
		return nil, apperrors.NotFound(CodeAlertNotFound, "alert")
	}
	s.cache.Invalidate(cache.PrefixDashboard)
	messaging.Emit(ctx, s.publisher, messaging.NewEvent(eventType, actor, alert))
	return alert, nil
}

// Health pings the store and counts the operational collections.
func (s *Service) Health(ctx context.Context) (*model.SystemHealth, error) {
	if err := s.store.Ping(ctx); err != nil {
		return nil, apperrors.Unavailable(err)
	}
	counts, err := s.store.CollectionCounts(ctx,
		repository.CollUsers,
		repository.CollBookings,
		repository.CollPayments,
		repository.CollAlerts,
		repository.CollAuditLogs,
	)
	if err != nil {
		return nil, err
	}
	return &model.SystemHealth{
		Status:      "healthy",
		Database:    "connected",
		Collections: counts,
		CheckedAt:   s.now().UTC(),
	}, nil
}
