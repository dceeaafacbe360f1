package audit

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/jwalitptl/backoffice-api/internal/model"
	"github.com/jwalitptl/backoffice-api/internal/repository"
	apperrors "github.com/jwalitptl/backoffice-api/pkg/errors"
	"github.com/jwalitptl/backoffice-api/pkg/query"
)

const topN = 10

// LogFilter narrows the audit log list.
type LogFilter struct {
	UserID    string
	Action    string
	Resource  string
	StartDate string
	EndDate   string
	Search    string
}

// EventFilter narrows the security event list.
type EventFilter struct {
	Severity  string
	EventType string
	StartDate string
	EndDate   string
}

// ActivityFilter narrows the user activity list.
type ActivityFilter struct {
	UserID       string
	ActivityType string
	StartDate    string
	EndDate      string
}

type Service struct {
	store *repository.Store
	now   func() time.Time
}

func NewService(store *repository.Store) *Service {
	return &Service{store: store, now: time.Now}
}

func (s *Service) ListLogs(ctx context.Context, f LogFilter, page query.Pagination) (*repository.Page[model.AuditLog], error) {
	filter, err := query.NewFilter().
		Eq("userId", f.UserID).
		Eq("action", f.Action).
		Eq("resource", f.Resource).
		DateRange("timestamp", f.StartDate, f.EndDate).
		Search(f.Search, "action", "resource", "details", "ipAddress").
		Build()
	if err != nil {
		return nil, invalidRange(err)
	}
	return s.store.AuditLogs.FindPage(ctx, filter, page, query.Desc("timestamp"))
}

func (s *Service) GetLog(ctx context.Context, id string) (*model.AuditLog, error) {
	entry, err := s.store.AuditLogs.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, apperrors.NotFound("AUDIT_LOG_NOT_FOUND", "audit log")
	}
	return entry, nil
}

func (s *Service) CreateLog(ctx context.Context, entry *model.AuditLog) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = s.now().UTC()
	}
	if err := s.store.AuditLogs.Create(ctx, entry); err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	return nil
}

func (s *Service) ListSecurityEvents(ctx context.Context, f EventFilter, page query.Pagination) (*repository.Page[model.SecurityEvent], error) {
	filter, err := query.NewFilter().
		Eq("severity", f.Severity).
		Eq("eventType", f.EventType).
		DateRange("timestamp", f.StartDate, f.EndDate).
		Build()
	if err != nil {
		return nil, invalidRange(err)
	}
	return s.store.SecurityEvents.FindPage(ctx, filter, page, query.Desc("timestamp"))
}

func (s *Service) CreateSecurityEvent(ctx context.Context, event *model.SecurityEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now().UTC()
	}
	if err := s.store.SecurityEvents.Create(ctx, event); err != nil {
		return fmt.Errorf("failed to create security event: %w", err)
	}
	return nil
}

func (s *Service) ListUserActivities(ctx context.Context, f ActivityFilter, page query.Pagination) (*repository.Page[model.UserActivity], error) {
	filter, err := query.NewFilter().
		Eq("userId", f.UserID).
		Eq("activityType", f.ActivityType).
		DateRange("timestamp", f.StartDate, f.EndDate).
		Build()
	if err != nil {
		return nil, invalidRange(err)
	}
	return s.store.UserActivities.FindPage(ctx, filter, page, query.Desc("timestamp"))
}

// ComplianceReport summarises the audit trail between start and end. Both
// bounds are required.
func (s *Service) ComplianceReport(ctx context.Context, start, end string) (*model.ComplianceReport, error) {
	if start == "" || end == "" {
		return nil, apperrors.Validation(apperrors.CodeMissingDateRange, "startDate and endDate are required", nil)
	}
	from, err := query.ParseDate(start, false)
	if err != nil {
		return nil, invalidRange(err)
	}
	to, err := query.ParseDate(end, true)
	if err != nil {
		return nil, invalidRange(err)
	}
	if to.Before(from) {
		return nil, invalidRange(fmt.Errorf("endDate is before startDate"))
	}

	match := bson.M{"timestamp": bson.M{"$gte": from, "$lte": to}}
	incidents := bson.M{
		"timestamp": match["timestamp"],
		"severity":  bson.M{"$in": bson.A{model.SeverityHigh, model.SeverityCritical}},
	}

	report := &model.ComplianceReport{StartDate: from, EndDate: to, GeneratedAt: s.now().UTC()}
	if report.TotalAuditLogs, err = s.store.AuditLogs.Count(ctx, match); err != nil {
		return nil, err
	}
	if report.TotalSecurityEvents, err = s.store.SecurityEvents.Count(ctx, match); err != nil {
		return nil, err
	}
	if report.TotalUserActivities, err = s.store.UserActivities.Count(ctx, match); err != nil {
		return nil, err
	}
	if report.UniqueUsers, err = repository.DistinctCount(ctx, s.store.AuditLogs, match, "userId"); err != nil {
		return nil, err
	}
	if report.SecurityIncidents, err = s.store.SecurityEvents.Count(ctx, incidents); err != nil {
		return nil, err
	}
	if report.ActionDistribution, err = repository.Counts(ctx, s.store.AuditLogs, match, "action", 0); err != nil {
		return nil, err
	}
	if report.ResourceDistribution, err = repository.Counts(ctx, s.store.AuditLogs, match, "resource", 0); err != nil {
		return nil, err
	}
	if report.EventTypeDistribution, err = repository.Counts(ctx, s.store.SecurityEvents, match, "eventType", 0); err != nil {
		return nil, err
	}
	report.ComplianceScore = ComplianceScore(report.SecurityIncidents)
	return report, nil
}

// ComplianceScore starts at 100 and loses 10 points per high or critical
// incident, bottoming out at 0.
func ComplianceScore(incidents int64) int {
	score := 100 - incidents*10
	if score < 0 {
		return 0
	}
	return int(score)
}

// Analytics summarises the audit trail over the trailing period.
func (s *Service) Analytics(ctx context.Context, label string, period time.Duration) (*model.AuditAnalytics, error) {
	since := s.now().UTC().Add(-period)
	match := bson.M{"timestamp": bson.M{"$gte": since}}

	out := &model.AuditAnalytics{Period: label}
	var err error
	if out.TotalLogs, err = s.store.AuditLogs.Count(ctx, match); err != nil {
		return nil, err
	}
	if out.TotalSecurityEvents, err = s.store.SecurityEvents.Count(ctx, match); err != nil {
		return nil, err
	}
	if out.TopUsers, err = repository.Counts(ctx, s.store.AuditLogs, match, "userId", topN); err != nil {
		return nil, err
	}
	if out.TopActions, err = repository.Counts(ctx, s.store.AuditLogs, match, "action", topN); err != nil {
		return nil, err
	}
	if out.TopResources, err = repository.Counts(ctx, s.store.AuditLogs, match, "resource", topN); err != nil {
		return nil, err
	}
	if out.DailyActivity, err = repository.DailyCounts(ctx, s.store.AuditLogs, match, "timestamp", ""); err != nil {
		return nil, err
	}
	return out, nil
}

func invalidRange(err error) error {
	return apperrors.InvalidDateRange(err)
}
