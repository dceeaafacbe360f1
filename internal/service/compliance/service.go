package compliance

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/jwalitptl/backoffice-api/internal/model"
	"github.com/jwalitptl/backoffice-api/internal/repository"
	"github.com/jwalitptl/backoffice-api/internal/service"
	"github.com/jwalitptl/backoffice-api/internal/service/audit"
	"github.com/jwalitptl/backoffice-api/pkg/messaging"
	"github.com/jwalitptl/backoffice-api/pkg/query"
)

const CodeFlagNotFound = "COMPLIANCE_FLAG_NOT_FOUND"

type FlagFilter struct {
	Status   string
	Severity string
	Category string
}

type Service struct {
	store     *repository.Store
	publisher messaging.Publisher
	auditor   *audit.Logger
	now       func() time.Time
}

func NewService(store *repository.Store, publisher messaging.Publisher, auditor *audit.Logger) *Service {
	return &Service{store: store, publisher: publisher, auditor: auditor, now: time.Now}
}

func (s *Service) ListFlags(ctx context.Context, f FlagFilter, page query.Pagination) (*repository.Page[model.ComplianceFlag], error) {
	filter, err := query.NewFilter().
		Eq("status", f.Status).
		Eq("severity", f.Severity).
		Eq("category", f.Category).
		Build()
	if err != nil {
		return nil, err
	}
	return s.store.ComplianceFlags.FindPage(ctx, filter, page, query.Desc("createdAt"))
}

func (s *Service) CreateFlag(ctx context.Context, flag *model.ComplianceFlag) error {
	if flag.Status == "" {
		flag.Status = model.FlagOpen
	}
	if err := s.store.ComplianceFlags.Create(ctx, flag); err != nil {
		return fmt.Errorf("failed to create compliance flag: %w", err)
	}
	return nil
}

// ResolveFlag closes a flag with the reviewer's notes.
func (s *Service) ResolveFlag(ctx context.Context, id, resolution, actor string) (*model.ComplianceFlag, error) {
	flag, err := service.Update(ctx, s.store.ComplianceFlags, id, bson.M{
		"status":     model.FlagResolved,
		"resolution": resolution,
		"resolvedBy": actor,
		"resolvedAt": s.now().UTC(),
	}, CodeFlagNotFound, "compliance flag")
	if err != nil {
		return nil, err
	}

	s.auditor.Log(ctx, audit.Entry{
		UserID:     actor,
		Action:     "resolve",
		Resource:   repository.CollComplianceFlags,
		ResourceID: id,
		Details:    resolution,
	})
	messaging.Emit(ctx, s.publisher, messaging.NewEvent(messaging.EventFlagResolved, actor, flag))
	return flag, nil
}

// Stats counts every flag by status, severity and category.
func (s *Service) Stats(ctx context.Context) (*model.ComplianceStats, error) {
	var (
		out model.ComplianceStats
		err error
	)
	if out.Total, err = s.store.ComplianceFlags.Count(ctx, nil); err != nil {
		return nil, err
	}
	if out.Open, err = s.store.ComplianceFlags.Count(ctx, bson.M{"status": bson.M{"$ne": model.FlagResolved}}); err != nil {
		return nil, err
	}
	if out.ByStatus, err = repository.Counts(ctx, s.store.ComplianceFlags, nil, "status", 0); err != nil {
		return nil, err
	}
	if out.BySeverity, err = repository.Counts(ctx, s.store.ComplianceFlags, nil, "severity", 0); err != nil {
		return nil, err
	}
	if out.ByCategory, err = repository.Counts(ctx, s.store.ComplianceFlags, nil, "category", 0); err != nil {
		return nil, err
	}
	return &out, nil
}
